package semantics

import (
	"github.com/termfx/gdtk/cst"
)

// FlowResult records the flow analyzer's view of one method: for each
// statement, the narrowed type of every tracked variable at that
// point.
type FlowResult struct {
	// At maps a statement to the variable types holding when it
	// executes.
	At map[cst.Statement]map[string]string
}

// TypeAt returns the narrowed type of name at stmt, or "".
func (r *FlowResult) TypeAt(stmt cst.Statement, name string) string {
	if types, ok := r.At[stmt]; ok {
		return types[name]
	}
	return ""
}

// flowFrame is one branch's view of variable types.
type flowFrame map[string]string

func (f flowFrame) clone() flowFrame {
	out := make(flowFrame, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// flowAnalyzer walks a method's statements with the branch hooks,
// narrowing at `is` guards and re-widening at merges.
type flowAnalyzer struct {
	model    *FileModel
	inferrer *Inferrer
	result   *FlowResult
	stack    []flowFrame

	// merge state per open branch owner
	branchBases  map[cst.Node]flowFrame
	branchOutput map[cst.Node][]flowFrame
}

// AnalyzeMethodFlow computes per-statement narrowed variable types for
// a method body.
func AnalyzeMethodFlow(model *FileModel, method *cst.MethodNode) *FlowResult {
	fa := &flowAnalyzer{
		model:        model,
		inferrer:     NewInferrer(model),
		result:       &FlowResult{At: map[cst.Statement]map[string]string{}},
		stack:        []flowFrame{{}},
		branchBases:  map[cst.Node]flowFrame{},
		branchOutput: map[cst.Node][]flowFrame{},
	}
	if method.Body != nil {
		cst.TraverseStatements(method.Body, fa)
	}
	return fa.result
}

// top returns the active frame.
func (fa *flowAnalyzer) top() flowFrame {
	return fa.stack[len(fa.stack)-1]
}

// Statement records the pre-state and applies the statement's effect.
func (fa *flowAnalyzer) Statement(s cst.Statement) {
	snapshot := fa.top().clone()
	fa.result.At[s] = snapshot

	switch node := s.(type) {
	case *cst.VariableNode:
		if node.Name == nil {
			return
		}
		fa.top()[node.Name.Literal] = fa.declaredOrInferred(node)
	case *cst.ExpressionStatementNode:
		bin, ok := node.Expr.(*cst.BinaryExpr)
		if !ok || !bin.IsAssignment() {
			return
		}
		id, ok := bin.Left.(*cst.IdentifierExpr)
		if !ok || id.Name == nil {
			return
		}
		assigned := fa.inferrer.Infer(bin.Right)
		fa.top()[id.Name.Literal] = assigned.TypeName
	}
}

// declaredOrInferred types a local declaration.
func (fa *flowAnalyzer) declaredOrInferred(v *cst.VariableNode) string {
	if v.Type != nil && v.Type.Name() != "" {
		return v.Type.Name()
	}
	if v.Value != nil {
		return fa.inferrer.Infer(v.Value).TypeName
	}
	return TypeVariant
}

// BeforeBranch enters a structured body: push a frame seeded with the
// branch's narrowing.
func (fa *flowAnalyzer) BeforeBranch(owner cst.Node, kind cst.BranchKind, body *cst.StatementsListNode) {
	if _, open := fa.branchBases[owner]; !open {
		fa.branchBases[owner] = fa.top().clone()
	}
	frame := fa.branchBases[owner].clone()
	if kind == cst.IfBranch || kind == cst.ElifBranch {
		if cond := fa.branchCondition(owner, kind, body); cond != nil {
			applyGuardNarrowing(cond, frame)
		}
	}
	fa.stack = append(fa.stack, frame)
}

// AfterBranch leaves a body: pop the frame and record it for the
// merge. The merge itself happens lazily when the owner's last branch
// closes; conservative widening keeps later statements sound.
func (fa *flowAnalyzer) AfterBranch(owner cst.Node, kind cst.BranchKind, body *cst.StatementsListNode) {
	out := fa.top()
	fa.stack = fa.stack[:len(fa.stack)-1]
	fa.branchOutput[owner] = append(fa.branchOutput[owner], out)

	if fa.isLastBranch(owner, kind) {
		base := fa.branchBases[owner]
		outputs := fa.branchOutput[owner]
		// Without an exhaustive else arm the untaken path keeps the
		// base state, so it joins the merge.
		switch stmt := owner.(type) {
		case *cst.IfStatementNode:
			if last := stmt.Branches[len(stmt.Branches)-1]; last.Condition != nil {
				outputs = append(outputs, base)
			}
		case *cst.ForStatementNode, *cst.WhileStatementNode, *cst.MatchStatementNode:
			outputs = append(outputs, base)
		}
		merged := mergeFrames(base, outputs, fa.inferrer)
		active := fa.top()
		for k, v := range merged {
			active[k] = v
		}
		delete(fa.branchBases, owner)
		delete(fa.branchOutput, owner)
	}
}

// isLastBranch reports whether this hook closes the owner's final
// body.
func (fa *flowAnalyzer) isLastBranch(owner cst.Node, kind cst.BranchKind) bool {
	switch stmt := owner.(type) {
	case *cst.IfStatementNode:
		return len(fa.branchOutput[owner]) == len(stmt.Branches)
	case *cst.MatchStatementNode:
		return len(fa.branchOutput[owner]) == len(stmt.Cases)
	}
	// for/while have a single body.
	return true
}

// branchCondition finds the condition expression of the branch that
// owns body.
func (fa *flowAnalyzer) branchCondition(owner cst.Node, kind cst.BranchKind, body *cst.StatementsListNode) cst.Expression {
	ifStmt, ok := owner.(*cst.IfStatementNode)
	if !ok {
		return nil
	}
	for _, br := range ifStmt.Branches {
		if br.Body == body {
			return br.Condition
		}
	}
	return nil
}

// applyGuardNarrowing narrows `x is T` conditions, including `a and b`
// conjunctions.
func applyGuardNarrowing(cond cst.Expression, frame flowFrame) {
	bin, ok := cond.(*cst.BinaryExpr)
	if !ok || bin.Op == nil {
		return
	}
	switch bin.Op.Literal {
	case "is":
		id, ok := bin.Left.(*cst.IdentifierExpr)
		if !ok || id.Name == nil {
			return
		}
		t, ok := bin.Right.(*cst.IdentifierExpr)
		if !ok || t.Name == nil {
			return
		}
		frame[id.Name.Literal] = t.Name.Literal
	case "and", "&&":
		applyGuardNarrowing(bin.Left, frame)
		applyGuardNarrowing(bin.Right, frame)
	}
}

// mergeFrames unions branch outputs per variable: identical types
// survive, diverging types widen to a common supertype or the base
// type.
func mergeFrames(base flowFrame, outputs []flowFrame, in *Inferrer) flowFrame {
	merged := base.clone()
	names := map[string]bool{}
	for _, out := range outputs {
		for name := range out {
			names[name] = true
		}
	}
	for name := range names {
		agreed := ""
		ok := true
		for _, out := range outputs {
			t, present := out[name]
			if !present {
				t = base[name]
			}
			if agreed == "" {
				agreed = t
				continue
			}
			if t != agreed {
				if sup := in.commonSupertype(agreed, t); sup != "" {
					agreed = sup
					continue
				}
				ok = false
				break
			}
		}
		switch {
		case ok && agreed != "":
			merged[name] = agreed
		case base[name] != "":
			merged[name] = base[name]
		default:
			merged[name] = TypeVariant
		}
	}
	return merged
}
