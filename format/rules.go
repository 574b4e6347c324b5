package format

import (
	"github.com/termfx/gdtk/cst"
	"github.com/termfx/gdtk/lexis"
)

// Rule is one in-place CST transformation. Rules must be idempotent:
// applying a rule to its own output changes nothing.
type Rule interface {
	ID() string
	Name() string
	Description() string
	EnabledByDefault() bool
	Apply(root *cst.ClassNode, opts Options)
}

// Rules returns the pipeline in application order.
func Rules() []Rule {
	return []Rule{
		IndentationRule{},
		BlankLinesRule{},
		SpacingRule{},
		TrailingWhitespaceRule{},
	}
}

// IndentationRule converts every indentation run between tabs and
// space groups without altering its depth.
type IndentationRule struct{}

func (IndentationRule) ID() string   { return "GDF001" }
func (IndentationRule) Name() string { return "indentation-style" }
func (IndentationRule) Description() string {
	return "Convert indentation between tabs and spaces, preserving depth"
}
func (IndentationRule) EnabledByDefault() bool { return true }

func (IndentationRule) Apply(root *cst.ClassNode, opts Options) {
	unit := detectSpaceUnit(root)
	for tok := range cst.AllTokens(root) {
		if tok.Kind != lexis.Indentation {
			continue
		}
		run := lexis.MeasureIndent(tok.Literal, unit)
		tok.Literal = run.Rewrite(opts.IndentStyle, opts.IndentSize)
	}
}

// detectSpaceUnit reads the width of the file's space indentation from
// its first all-space run.
func detectSpaceUnit(root *cst.ClassNode) int {
	for tok := range cst.AllTokens(root) {
		if tok.Kind != lexis.Indentation {
			continue
		}
		spaces := 0
		clean := true
		for _, r := range tok.Literal {
			if r != ' ' {
				clean = false
				break
			}
			spaces++
		}
		if clean && spaces > 0 {
			return spaces
		}
	}
	return lexis.DefaultSpaceUnit
}

// TrailingWhitespaceRule removes space runs whose successor is a
// newline or the end of the file, blank-line indentation included.
// Victims are collected first and removed in a deferred pass.
type TrailingWhitespaceRule struct{}

func (TrailingWhitespaceRule) ID() string   { return "GDF004" }
func (TrailingWhitespaceRule) Name() string { return "trailing-whitespace" }
func (TrailingWhitespaceRule) Description() string {
	return "Remove whitespace between the last token of a line and its newline"
}
func (TrailingWhitespaceRule) EnabledByDefault() bool { return true }

func (TrailingWhitespaceRule) Apply(root *cst.ClassNode, opts Options) {
	if !opts.RemoveTrailingWhitespace {
		return
	}
	var toks []*lexis.Token
	for tok := range cst.AllTokens(root) {
		toks = append(toks, tok)
	}
	victims := map[*lexis.Token]bool{}
	for i, tok := range toks {
		if tok.Kind != lexis.Space && tok.Kind != lexis.Indentation {
			continue
		}
		if i+1 == len(toks) || toks[i+1].Kind == lexis.Newline {
			victims[tok] = true
		}
	}
	cst.RemoveTokens(root, victims)
}

// BlankLinesRule collapses runs of blank lines between class members
// beyond the configured count. It only touches the class-level form,
// where surplus blank lines accumulate between declarations.
type BlankLinesRule struct{}

func (BlankLinesRule) ID() string   { return "GDF002" }
func (BlankLinesRule) Name() string { return "blank-lines" }
func (BlankLinesRule) Description() string {
	return "Limit consecutive blank lines between declarations"
}

// EnabledByDefault is off: blank-line shaping interacts with comment
// placement and stays opt-in.
func (BlankLinesRule) EnabledByDefault() bool { return false }

func (BlankLinesRule) Apply(root *cst.ClassNode, opts Options) {
	limit := opts.BlankLinesBetweenFunctions
	if limit < 1 {
		limit = 1
	}
	victims := map[*lexis.Token]bool{}
	run := 0
	for _, it := range root.Form().Items() {
		if it.Token == nil {
			run = 0
			continue
		}
		switch it.Token.Kind {
		case lexis.Newline:
			run++
			if run > limit+1 {
				victims[it.Token] = true
			}
		case lexis.Space, lexis.Indentation:
			// Whitespace between newlines keeps the run alive.
		default:
			run = 0
		}
	}
	cst.RemoveTokens(root, victims)
}

// SpacingRule is the operator/comma spacing pass. It ships disabled.
// With SpaceAfterComma set it inserts one space after each comma that
// is directly followed by code; spacing around operators is not
// changed.
type SpacingRule struct{}

func (SpacingRule) ID() string   { return "GDF003" }
func (SpacingRule) Name() string { return "spacing" }
func (SpacingRule) Description() string {
	return "Normalize spacing around operators and separators"
}
func (SpacingRule) EnabledByDefault() bool { return false }

func (SpacingRule) Apply(root *cst.ClassNode, opts Options) {
	if !opts.SpaceAfterComma {
		return
	}
	// Commas directly followed by a semantic token get one space.
	type insertion struct {
		owner cst.Node
		index int
		after *lexis.Token
	}
	var adds []insertion
	var walkForm func(n cst.Node)
	walkForm = func(n cst.Node) {
		items := n.Form().Items()
		for i, it := range items {
			if it.Child != nil {
				walkForm(it.Child)
				continue
			}
			if !it.Token.Is(",") || i+1 >= len(items) {
				continue
			}
			next := items[i+1]
			if next.Token != nil && next.Token.IsTrivia() {
				continue
			}
			adds = append(adds, insertion{owner: n, index: i, after: it.Token})
		}
	}
	walkForm(root)
	for _, add := range adds {
		cst.InsertTokenAfter(add.owner, add.after, &lexis.Token{
			Kind: lexis.Space, Literal: " ",
			Line: add.after.Line, Column: add.after.Column + 1,
		})
	}
}
