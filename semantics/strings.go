package semantics

import "github.com/termfx/gdtk/cst"

// StaticString extracts the compile-time string value of e, when one
// exists. Recognized forms: string and StringName literals, a
// reference to a const whose initializer is a static string, a local
// `var name := "…"` inference, and concatenation of two static
// strings.
func (in *Inferrer) StaticString(e cst.Expression) (string, bool) {
	return in.staticString(e, 0)
}

func (in *Inferrer) staticString(e cst.Expression, depth int) (string, bool) {
	if e == nil || depth >= maxInferDepth {
		return "", false
	}
	switch node := e.(type) {
	case *cst.StringExpr:
		return node.Text(), true
	case *cst.StringNameExpr:
		return node.Text(), true
	case *cst.BracketExpr:
		return in.staticString(node.Inner, depth+1)
	case *cst.BinaryExpr:
		if node.Op == nil || node.Op.Literal != "+" {
			return "", false
		}
		left, ok := in.staticString(node.Left, depth+1)
		if !ok {
			return "", false
		}
		right, ok := in.staticString(node.Right, depth+1)
		if !ok {
			return "", false
		}
		return left + right, true
	case *cst.IdentifierExpr:
		sym, _ := in.model.Resolve(node)
		if sym == nil {
			return "", false
		}
		decl, ok := sym.Decl.(*cst.VariableNode)
		if !ok || decl.Value == nil {
			return "", false
		}
		// Only consts and inferred locals are stable enough to fold.
		if !decl.Const && !decl.Infer {
			return "", false
		}
		return in.staticString(decl.Value, depth+1)
	}
	return "", false
}
