package parser

import (
	"fmt"

	"github.com/termfx/gdtk/cst"
	"github.com/termfx/gdtk/diag"
	"github.com/termfx/gdtk/lexis"
)

// Parse builds the full concrete syntax tree for src. It never fails:
// malformed input degrades to invalid tokens recorded in place, and
// every byte of src appears in the returned tree, so
// cst.Serialize(root) reproduces src exactly.
func Parse(src string) (*cst.ClassNode, []diag.Diagnostic) {
	toks, diags := tokenize(src)
	p := &parser{
		toks:      toks,
		diags:     diags,
		spaceUnit: detectSpaceUnit(toks),
	}
	root := &cst.ClassNode{}
	p.parseClassBody(root, 0)
	// Anything left over is preserved verbatim; reaching here with
	// unconsumed tokens means a dedent below depth zero, which the
	// grammar cannot produce.
	for p.pos < len(p.toks) {
		p.take(root)
	}
	return root, p.diags
}

// detectSpaceUnit infers the file's space-group width from the first
// space-indented line, defaulting when the file is tab-indented.
func detectSpaceUnit(toks []*lexis.Token) int {
	for _, t := range toks {
		if t.Kind != lexis.Indentation {
			continue
		}
		n := 0
		for _, r := range t.Literal {
			if r != ' ' {
				n = 0
				break
			}
			n++
		}
		if n > 0 {
			return n
		}
	}
	return lexis.DefaultSpaceUnit
}

// parser is the reading driver: a cursor over the lossless token
// stream plus the group-nesting depth that decides whether newlines
// terminate statements.
type parser struct {
	toks       []*lexis.Token
	pos        int
	diags      []diag.Diagnostic
	spaceUnit  int
	groupDepth int
}

// cur returns the token at the cursor, nil at EOF.
func (p *parser) cur() *lexis.Token {
	if p.pos >= len(p.toks) {
		return nil
	}
	return p.toks[p.pos]
}

// take moves the cursor's token into owner's form.
func (p *parser) take(owner cst.Node) *lexis.Token {
	t := p.cur()
	if t == nil {
		return nil
	}
	cst.AddToken(owner, t)
	p.pos++
	return t
}

// isTriviaAt reports whether the token at index i carries no syntactic
// weight at the current nesting: spaces and comments always, newlines
// and indentation inside bracket groups, and the backslash line
// continuation together with the line break and indentation it splices.
func (p *parser) isTriviaAt(i int) bool {
	t := p.toks[i]
	switch t.Kind {
	case lexis.Space, lexis.Comment:
		return true
	case lexis.Punctuator:
		return t.Literal == "\\" && i+1 < len(p.toks) && p.toks[i+1].Kind == lexis.Newline
	case lexis.Newline:
		if p.groupDepth > 0 {
			return true
		}
		return i > 0 && p.toks[i-1].Is("\\")
	case lexis.Indentation:
		if p.groupDepth > 0 {
			return true
		}
		return i >= 2 && p.toks[i-1].Kind == lexis.Newline && p.toks[i-2].Is("\\")
	}
	return false
}

// semIndex returns the index of the next non-trivia token, or len.
func (p *parser) semIndex() int {
	i := p.pos
	for i < len(p.toks) && p.isTriviaAt(i) {
		i++
	}
	return i
}

// peekSem returns the next non-trivia token without consuming, nil at
// EOF.
func (p *parser) peekSem() *lexis.Token {
	i := p.semIndex()
	if i >= len(p.toks) {
		return nil
	}
	return p.toks[i]
}

// flushTrivia moves pending trivia into owner's form.
func (p *parser) flushTrivia(owner cst.Node) {
	for p.pos < len(p.toks) && p.isTriviaAt(p.pos) {
		p.take(owner)
	}
}

// takeSem flushes trivia into owner and consumes the next token.
func (p *parser) takeSem(owner cst.Node) *lexis.Token {
	p.flushTrivia(owner)
	return p.take(owner)
}

// expect consumes the next semantic token when it matches literal, and
// reports an unexpected-token diagnostic otherwise.
func (p *parser) expect(owner cst.Node, literal string) bool {
	t := p.peekSem()
	if t != nil && t.Is(literal) {
		p.takeSem(owner)
		return true
	}
	p.reportUnexpected(t, literal)
	return false
}

// reportUnexpected records an unexpected-token diagnostic.
func (p *parser) reportUnexpected(t *lexis.Token, wanted string) {
	if t == nil {
		p.diags = append(p.diags, diag.New(diag.CodeUnexpectedToken, diag.SeverityError,
			fmt.Sprintf("expected %q, found end of file", wanted), p.lastLine(), 0))
		return
	}
	p.diags = append(p.diags, diag.New(diag.CodeUnexpectedToken, diag.SeverityError,
		fmt.Sprintf("expected %q, found %q", wanted, t.Literal), t.Line, t.Column))
}

// report records a diagnostic anchored at token t.
func (p *parser) report(code string, sev diag.Severity, msg string, t *lexis.Token) {
	line, col := p.lastLine(), 0
	if t != nil {
		line, col = t.Line, t.Column
	}
	p.diags = append(p.diags, diag.New(code, sev, msg, line, col))
}

// lastLine returns the line of the final token, for EOF diagnostics.
func (p *parser) lastLine() int {
	if len(p.toks) == 0 {
		return 1
	}
	return p.toks[len(p.toks)-1].Line
}

// atLineEnd reports whether only a newline, EOF, or a closing
// delimiter follows, skipping spaces and comments.
func (p *parser) atLineEnd() bool {
	t := p.peekSem()
	if t == nil || t.Kind == lexis.Newline || t.Kind == lexis.Indentation {
		return true
	}
	switch t.Literal {
	case ")", "]", "}", ";", ":":
		return t.Kind == lexis.Punctuator
	}
	return false
}

// lineDepth measures the indentation run starting the current line.
// The cursor must sit on an Indentation token; other tokens mean depth
// zero.
func (p *parser) lineDepth() lexis.IndentRun {
	t := p.cur()
	if t == nil || t.Kind != lexis.Indentation {
		return lexis.IndentRun{SpaceUnit: p.spaceUnit}
	}
	return lexis.MeasureIndent(t.Literal, p.spaceUnit)
}

// lineIsBlank reports whether the current line holds only trivia: the
// cursor is at line start, possibly on an indentation token.
func (p *parser) lineIsBlank() bool {
	i := p.pos
	if i < len(p.toks) && p.toks[i].Kind == lexis.Indentation {
		i++
	}
	for i < len(p.toks) {
		switch p.toks[i].Kind {
		case lexis.Space, lexis.Comment:
			i++
		case lexis.Newline:
			return true
		default:
			return false
		}
	}
	return true
}

// absorbBlankLine moves the current blank line's tokens, newline
// included, into owner's form.
func (p *parser) absorbBlankLine(owner cst.Node) {
	for p.pos < len(p.toks) {
		t := p.take(owner)
		if t.Kind == lexis.Newline {
			return
		}
	}
}
