// Package lint runs the configurable validation passes over a parsed
// file and emits structured diagnostics.
package lint

import (
	"fmt"

	"github.com/termfx/gdtk/cst"
	"github.com/termfx/gdtk/diag"
	"github.com/termfx/gdtk/lexis"
	"github.com/termfx/gdtk/semantics"
)

// ArgumentMismatch is one expected-versus-actual type difference at a
// call site.
type ArgumentMismatch struct {
	Call     *cst.CallExpr
	Index    int
	Expected string
	Actual   string
}

// ArgumentTypeAnalyzer supplies expected-vs-actual diffs per call
// site. The semantic model implements it; tests may stub it.
type ArgumentTypeAnalyzer interface {
	CallMismatches(call *cst.CallExpr) []ArgumentMismatch
}

// Options enumerates the validator's recognized toggles.
type Options struct {
	CheckIndentation   bool
	CheckScope         bool
	CheckArgumentTypes bool

	// ArgumentTypeSeverity grades GD2002 findings; Warning by default.
	ArgumentTypeSeverity diag.Severity

	// RuntimeProvider resolves names not declared in the file.
	RuntimeProvider semantics.RuntimeTypeProvider

	// ArgumentTypeAnalyzer overrides the built-in call-site analysis.
	ArgumentTypeAnalyzer ArgumentTypeAnalyzer

	// Scenes feeds $NodePath inference; optional.
	Scenes semantics.SceneTypesProvider

	// Path is the project-relative path of the file under validation,
	// used in messages and scene lookups.
	Path string
}

// DefaultOptions enables the passes that need no type inference.
func DefaultOptions() Options {
	return Options{
		CheckIndentation:     true,
		CheckScope:           true,
		CheckArgumentTypes:   false,
		ArgumentTypeSeverity: diag.SeverityWarning,
	}
}

// Validate runs the enabled passes over root and returns the combined
// findings in source order per pass.
func Validate(root *cst.ClassNode, opts Options) []diag.Diagnostic {
	v := &validator{root: root, opts: opts}
	if opts.RuntimeProvider != nil {
		v.model = semantics.NewFileModel(opts.Path, root, opts.RuntimeProvider, opts.Scenes)
	}
	if opts.CheckIndentation {
		v.checkIndentation()
	}
	if v.model != nil {
		v.checkInheritance()
		if opts.CheckScope {
			v.checkScope()
			v.checkArity()
		}
		if opts.CheckArgumentTypes {
			v.checkArguments()
		}
	}
	return v.diags
}

type validator struct {
	root  *cst.ClassNode
	opts  Options
	model *semantics.FileModel
	diags []diag.Diagnostic
}

func (v *validator) report(code string, sev diag.Severity, msg string, tok *lexis.Token) {
	line, col := 1, 0
	if tok != nil {
		line, col = tok.Line, tok.Column
	}
	d := diag.New(code, sev, msg, line, col)
	if tok != nil {
		d = d.WithEnd(line, col+len(tok.Literal))
	}
	v.diags = append(v.diags, d)
}

// checkIndentation validates every statements list against its own
// classifier: the first non-empty line establishes the block's style;
// later lines must match it, stay at the block's depth, and dedent
// onto an open block.
func (v *validator) checkIndentation() {
	unit := v.detectSpaceUnit()
	cst.Walk(v.root, cst.VisitorFuncs{OnEnter: func(n cst.Node) {
		list, ok := n.(*cst.StatementsListNode)
		if !ok {
			return
		}
		v.checkListIndentation(list, unit)
	}})
}

// detectSpaceUnit mirrors the parser's width detection: the first
// all-space indentation run fixes the unit.
func (v *validator) detectSpaceUnit() int {
	for tok := range cst.AllTokens(v.root) {
		if tok.Kind != lexis.Indentation {
			continue
		}
		allSpaces := len(tok.Literal) > 0
		for _, r := range tok.Literal {
			if r != ' ' {
				allSpaces = false
				break
			}
		}
		if allSpaces {
			return len(tok.Literal)
		}
	}
	return lexis.DefaultSpaceUnit
}

func (v *validator) checkListIndentation(list *cst.StatementsListNode, unit int) {
	style := lexis.IndentNone
	items := list.Form().Items()
	for i, it := range items {
		tok := it.Token
		if tok == nil || tok.Kind != lexis.Indentation {
			continue
		}
		if isBlankLineIndent(items, i) {
			continue
		}
		run := lexis.MeasureIndent(tok.Literal, unit)
		if run.Style == lexis.IndentMixed {
			v.report(diag.CodeInconsistentIndentation, diag.SeverityWarning,
				"line mixes tabs and spaces in its indentation", tok)
			continue
		}
		if style == lexis.IndentNone {
			style = run.Style
		} else if run.Style != style && run.Style != lexis.IndentNone {
			v.report(diag.CodeInconsistentIndentation, diag.SeverityWarning,
				fmt.Sprintf("line is indented with %s in a block indented with %s", run.Style, style),
				tok)
		}
		switch {
		case run.Depth > list.Depth+1:
			v.report(diag.CodeUnexpectedIndent, diag.SeverityWarning,
				fmt.Sprintf("indentation jumps from depth %d to %d", list.Depth, run.Depth), tok)
		case run.Depth > list.Depth:
			v.report(diag.CodeUnexpectedIndent, diag.SeverityWarning,
				"unexpected indentation", tok)
		case run.Depth == list.Depth && !cleanRun(run):
			v.report(diag.CodeDedentMismatch, diag.SeverityWarning,
				"indentation does not align with any open block", tok)
		}
	}
}

// isBlankLineIndent reports whether the indentation at index i only
// precedes trivia up to the end of its line; blank lines carry no
// block contract.
func isBlankLineIndent(items []cst.FormItem, i int) bool {
	for _, it := range items[i+1:] {
		if it.Child != nil {
			return false
		}
		switch it.Token.Kind {
		case lexis.Space, lexis.Comment:
			continue
		case lexis.Newline:
			return true
		default:
			return false
		}
	}
	return true
}

// cleanRun reports whether the run is an exact multiple of its unit,
// with no stray characters past the last full level.
func cleanRun(run lexis.IndentRun) bool {
	switch run.Style {
	case lexis.IndentSpaces:
		return len(run.Pattern)%run.SpaceUnit == 0
	case lexis.IndentMixed:
		return false
	}
	return true
}

// checkScope reports identifiers that bind to nothing.
func (v *validator) checkScope() {
	cst.Walk(v.root, cst.VisitorFuncs{OnEnter: func(n cst.Node) {
		id, ok := n.(*cst.IdentifierExpr)
		if !ok || id.Name == nil {
			return
		}
		// The wildcard pattern and discard name binds nothing.
		if id.Name.Literal == "_" {
			return
		}
		if isMemberPosition(id) {
			return
		}
		if sym, res := v.model.Resolve(id); sym == nil && res == semantics.Unresolved {
			v.report(diag.CodeUndefinedIdentifier, diag.SeverityError,
				fmt.Sprintf("%q is not declared in the current scope", id.Name.Literal), id.Name)
		}
	}})
}

// isMemberPosition reports whether id is the member side of `x.y`,
// which resolves against the receiver's type, not the scope.
func isMemberPosition(id *cst.IdentifierExpr) bool {
	mem, ok := id.Parent().(*cst.MemberExpr)
	return ok && mem.Target != cst.Expression(id)
}

// checkInheritance resolves the extends chain and reports unknown
// bases and cycles.
func (v *validator) checkInheritance() {
	if v.root.Extends == nil {
		return
	}
	target := v.root.Extends.Target
	anchor := cst.FirstToken(v.root.Extends)
	name := target.Name()
	if name == "" {
		return
	}
	_, cycle := v.model.ExtendsChain()
	if cycle {
		v.report(diag.CodeExtendsCycle, diag.SeverityError,
			fmt.Sprintf("inheritance cycle through %q", name), anchor)
		return
	}
	if target.IsStringPath() {
		// Path targets resolve through the project loader; nothing to
		// check here.
		return
	}
	if v.opts.RuntimeProvider != nil && !v.opts.RuntimeProvider.IsKnownType(name) {
		v.report(diag.CodeUnknownBaseClass, diag.SeverityWarning,
			fmt.Sprintf("base class %q is not a known type", name), anchor)
	}
}

// checkArity verifies call-site argument counts against resolvable
// signatures. Unlike the type pass it needs no inference, so it runs
// with the scope pass.
func (v *validator) checkArity() {
	cst.Walk(v.root, cst.VisitorFuncs{OnEnter: func(n cst.Node) {
		if call, ok := n.(*cst.CallExpr); ok {
			v.checkCallArity(call)
		}
	}})
}

// checkArguments verifies argument types against resolvable
// signatures.
func (v *validator) checkArguments() {
	analyzer := v.opts.ArgumentTypeAnalyzer
	if analyzer == nil {
		analyzer = &modelArgumentAnalyzer{
			model:    v.model,
			inferrer: semantics.NewInferrer(v.model),
		}
	}
	cst.Walk(v.root, cst.VisitorFuncs{OnEnter: func(n cst.Node) {
		call, ok := n.(*cst.CallExpr)
		if !ok {
			return
		}
		for _, mm := range analyzer.CallMismatches(call) {
			anchor := cst.FirstToken(mm.Call.Args[mm.Index])
			v.report(diag.CodeArgumentTypeMismatch, v.opts.ArgumentTypeSeverity,
				fmt.Sprintf("argument %d is %s but %s expects %s",
					mm.Index+1, mm.Actual, call.CalleeName(), mm.Expected), anchor)
		}
	}})
}

// checkCallArity compares the argument count with the resolved
// signature.
func (v *validator) checkCallArity(call *cst.CallExpr) {
	sig := resolveSignature(v.model, call)
	if sig == nil {
		return
	}
	required := 0
	for _, p := range sig.Parameters {
		if !p.HasDefault {
			required++
		}
	}
	n := len(call.Args)
	if n >= required && n <= len(sig.Parameters) {
		return
	}
	anchor := cst.FirstToken(call)
	v.report(diag.CodeArgumentCountMismatch, diag.SeverityWarning,
		fmt.Sprintf("%s takes %d to %d arguments, got %d",
			call.CalleeName(), required, len(sig.Parameters), n), anchor)
}

// resolveSignature finds the declared signature of a call's target
// when it names a method in the file's class hierarchy.
func resolveSignature(model *semantics.FileModel, call *cst.CallExpr) *semantics.MemberInfo {
	id, ok := call.Callee.(*cst.IdentifierExpr)
	if !ok || id.Name == nil {
		return nil
	}
	sym, _ := model.Resolve(id)
	if sym == nil || sym.Kind != semantics.SymbolMethod {
		return nil
	}
	return &semantics.MemberInfo{
		Name:       sym.Name,
		Kind:       semantics.MemberMethod,
		Parameters: sym.Params,
	}
}

// modelArgumentAnalyzer is the default ArgumentTypeAnalyzer: it infers
// each argument and compares against the declared parameter types.
type modelArgumentAnalyzer struct {
	model    *semantics.FileModel
	inferrer *semantics.Inferrer
}

func (a *modelArgumentAnalyzer) CallMismatches(call *cst.CallExpr) []ArgumentMismatch {
	sig := resolveSignature(a.model, call)
	if sig == nil {
		return nil
	}
	var out []ArgumentMismatch
	for i, arg := range call.Args {
		if i >= len(sig.Parameters) {
			break
		}
		expected := sig.Parameters[i].Type
		if expected == "" || expected == semantics.TypeVariant {
			continue
		}
		actual := a.inferrer.Infer(arg)
		if actual.Confidence <= semantics.Low || actual.TypeName == semantics.TypeVariant {
			continue
		}
		if a.model.Provider.IsAssignableTo(actual.TypeName, expected) {
			continue
		}
		out = append(out, ArgumentMismatch{Call: call, Index: i, Expected: expected, Actual: actual.TypeName})
	}
	return out
}
