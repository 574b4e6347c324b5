package semantics

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/termfx/gdtk/cst"
	"github.com/termfx/gdtk/parser"
)

// modelFor parses src and builds a model over the default provider
// chain.
func modelFor(t *testing.T, src string) *FileModel {
	t.Helper()
	root, _ := parser.Parse(src)
	provider := NewCompositeProvider(NewClassRegistry(), NewBuiltinProvider())
	return NewFileModel("res://test.gd", root, provider, nil)
}

// firstVar returns the first class-level variable.
func firstVar(t *testing.T, m *FileModel) *cst.VariableNode {
	t.Helper()
	vars := m.Root.Variables()
	require.NotEmpty(t, vars)
	return vars[0]
}

func TestResolveClassVariable(t *testing.T) {
	m := modelFor(t, "var x = 10\n\nfunc f():\n\treturn x\n")
	ret := m.Root.Methods()[0].Body.Statements[0].(*cst.ReturnStatementNode)
	id := ret.Value.(*cst.IdentifierExpr)
	sym, res := m.Resolve(id)
	require.NotNil(t, sym)
	assert.Equal(t, ResolvedMember, res)
	assert.Equal(t, SymbolVariable, sym.Kind)
}

func TestResolveParameterShadowsMember(t *testing.T) {
	m := modelFor(t, "var x = 1\n\nfunc f(x: int):\n\treturn x\n")
	ret := m.Root.Methods()[0].Body.Statements[0].(*cst.ReturnStatementNode)
	sym, res := m.Resolve(ret.Value.(*cst.IdentifierExpr))
	require.NotNil(t, sym)
	assert.Equal(t, ResolvedLocal, res)
	assert.Equal(t, SymbolParameter, sym.Kind)
}

func TestResolveLocalBeforeUseOnly(t *testing.T) {
	m := modelFor(t, "func f():\n\treturn y\n\tvar y = 1\n")
	ret := m.Root.Methods()[0].Body.Statements[0].(*cst.ReturnStatementNode)
	sym, res := m.Resolve(ret.Value.(*cst.IdentifierExpr))
	assert.Nil(t, sym)
	assert.Equal(t, Unresolved, res)
}

func TestResolveBuiltIn(t *testing.T) {
	m := modelFor(t, "func f():\n\tprint(1)\n")
	call := m.Root.Methods()[0].Body.Statements[0].(*cst.ExpressionStatementNode).Expr.(*cst.CallExpr)
	_, res := m.Resolve(call.Callee.(*cst.IdentifierExpr))
	assert.Equal(t, ResolvedBuiltIn, res)
}

func TestResolveBaseMember(t *testing.T) {
	m := modelFor(t, "extends Node\n\nfunc f():\n\tqueue_free()\n")
	call := m.Root.Methods()[0].Body.Statements[0].(*cst.ExpressionStatementNode).Expr.(*cst.CallExpr)
	_, res := m.Resolve(call.Callee.(*cst.IdentifierExpr))
	assert.Equal(t, ResolvedBase, res)
}

func TestResolveStability(t *testing.T) {
	m := modelFor(t, "var x = 10\n\nfunc f():\n\treturn x\n")
	ret := m.Root.Methods()[0].Body.Statements[0].(*cst.ReturnStatementNode)
	id := ret.Value.(*cst.IdentifierExpr)
	first, _ := m.Resolve(id)
	for i := 0; i < 5; i++ {
		again, _ := m.Resolve(id)
		assert.Same(t, first, again)
	}
}

func TestInferIntLiteral(t *testing.T) {
	m := modelFor(t, "var x = 10\n")
	in := NewInferrer(m)
	v := firstVar(t, m)
	res := in.Infer(v.Value)
	assert.Equal(t, "int", res.TypeName)
	assert.Equal(t, Certain, res.Confidence)
}

func TestInferVariableReference(t *testing.T) {
	m := modelFor(t, "var x = 10\n\nfunc f():\n\treturn x\n")
	in := NewInferrer(m)
	ret := m.Root.Methods()[0].Body.Statements[0].(*cst.ReturnStatementNode)
	res := in.Infer(ret.Value)
	assert.Equal(t, "int", res.TypeName)
	assert.GreaterOrEqual(t, res.Confidence, High)
}

func TestInferLiteralTable(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"var v = 1\n", "int"},
		{"var v = 1.5\n", "float"},
		{"var v = 1e3\n", "float"},
		{"var v = 0xFF\n", "int"},
		{"var v = \"s\"\n", "String"},
		{"var v = &\"name\"\n", "StringName"},
		{"var v = ^\"path\"\n", "NodePath"},
		{"var v = true\n", "bool"},
		{"var v = null\n", "null"},
		{"var v = [1, 2]\n", "Array"},
		{"var v = {}\n", "Dictionary"},
		{"var v = func(): pass\n", "Callable"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			m := modelFor(t, tt.src)
			res := NewInferrer(m).Infer(firstVar(t, m).Value)
			assert.Equal(t, tt.want, res.TypeName, "source %q", tt.src)
		})
	}
}

func TestInferArithmeticWidening(t *testing.T) {
	m := modelFor(t, "var v = 1 + 2.0\n")
	res := NewInferrer(m).Infer(firstVar(t, m).Value)
	assert.Equal(t, "float", res.TypeName)

	m = modelFor(t, "var v = 1 + 2\n")
	res = NewInferrer(m).Infer(firstVar(t, m).Value)
	assert.Equal(t, "int", res.TypeName)
}

func TestInferStringConcat(t *testing.T) {
	m := modelFor(t, "var v = \"a\" + \"b\"\n")
	res := NewInferrer(m).Infer(firstVar(t, m).Value)
	assert.Equal(t, "String", res.TypeName)
}

func TestInferComparisonAndIs(t *testing.T) {
	m := modelFor(t, "var a = 1 < 2\nvar b = 1 is int\n")
	in := NewInferrer(m)
	vars := m.Root.Variables()
	assert.Equal(t, "bool", in.Infer(vars[0].Value).TypeName)
	assert.Equal(t, "bool", in.Infer(vars[1].Value).TypeName)
}

func TestInferConstructorCall(t *testing.T) {
	m := modelFor(t, "var v = Node.new()\nvar w = Vector2(1, 2)\n")
	in := NewInferrer(m)
	vars := m.Root.Variables()
	assert.Equal(t, "Node", in.Infer(vars[0].Value).TypeName)
	assert.Equal(t, "Vector2", in.Infer(vars[1].Value).TypeName)
}

func TestInferMethodReturn(t *testing.T) {
	m := modelFor(t, "func g() -> int:\n\treturn 1\n\nfunc f():\n\treturn g()\n")
	in := NewInferrer(m)
	ret := m.Root.Methods()[1].Body.Statements[0].(*cst.ReturnStatementNode)
	res := in.Infer(ret.Value)
	assert.Equal(t, "int", res.TypeName)
}

func TestInferMemberAccess(t *testing.T) {
	m := modelFor(t, "var v: Vector2\n\nfunc f():\n\treturn v.x\n")
	in := NewInferrer(m)
	ret := m.Root.Methods()[0].Body.Statements[0].(*cst.ReturnStatementNode)
	res := in.Infer(ret.Value)
	assert.Equal(t, "float", res.TypeName)
}

func TestInferIndexers(t *testing.T) {
	m := modelFor(t, "var a: Array[int]\nvar p: PackedByteArray\nvar s: String\n\nfunc f():\n\treturn a[0]\n\nfunc g():\n\treturn p[0]\n\nfunc h():\n\treturn s[0]\n")
	in := NewInferrer(m)
	rets := make([]cst.Expression, 0, 3)
	for _, method := range m.Root.Methods() {
		rets = append(rets, method.Body.Statements[0].(*cst.ReturnStatementNode).Value)
	}
	assert.Equal(t, "int", in.Infer(rets[0]).TypeName)
	assert.Equal(t, "int", in.Infer(rets[1]).TypeName)
	assert.Equal(t, "String", in.Infer(rets[2]).TypeName)
}

func TestInferTernarySupertype(t *testing.T) {
	m := modelFor(t, "var v = 1 if true else 2.0\n")
	res := NewInferrer(m).Infer(firstVar(t, m).Value)
	assert.Equal(t, "float", res.TypeName)
}

func TestInferPreload(t *testing.T) {
	m := modelFor(t, "var s = preload(\"res://scenes/main.tscn\")\nvar g = preload(\"res://enemy.gd\")\n")
	in := NewInferrer(m)
	vars := m.Root.Variables()
	assert.Equal(t, "PackedScene", in.Infer(vars[0].Value).TypeName)
	assert.Equal(t, "GDScript", in.Infer(vars[1].Value).TypeName)
}

func TestInferGetNodeWithoutScene(t *testing.T) {
	m := modelFor(t, "var n = $Player/Sprite\n")
	res := NewInferrer(m).Infer(firstVar(t, m).Value)
	assert.Equal(t, "Node", res.TypeName)
	assert.Equal(t, Low, res.Confidence)
}

type fixedScene map[string]string

func (f fixedScene) NodeType(scriptPath, nodePath string) string { return f[nodePath] }

func TestInferGetNodeWithScene(t *testing.T) {
	root, _ := parser.Parse("var n = $UI/Label\n")
	provider := NewCompositeProvider(NewBuiltinProvider())
	m := NewFileModel("res://hud.gd", root, provider, fixedScene{"UI/Label": "Label"})
	res := NewInferrer(m).Infer(m.Root.Variables()[0].Value)
	assert.Equal(t, "Label", res.TypeName)
	assert.Equal(t, Certain, res.Confidence)
}

func TestInferDepthExhaustion(t *testing.T) {
	// An expression nested beyond maxInferDepth must fall back to
	// Variant, not recurse forever.
	var sb strings.Builder
	sb.WriteString("var v = ")
	for i := 0; i < maxInferDepth+10; i++ {
		sb.WriteString("(")
	}
	sb.WriteString("1")
	for i := 0; i < maxInferDepth+10; i++ {
		sb.WriteString(")")
	}
	sb.WriteString("\n")
	m := modelFor(t, sb.String())
	res := NewInferrer(m).Infer(firstVar(t, m).Value)
	assert.Equal(t, TypeVariant, res.TypeName)
	assert.Equal(t, Unknown, res.Confidence)
	assert.Equal(t, "depth", res.Reason)
}

func TestStaticStringExtraction(t *testing.T) {
	m := modelFor(t, "const NAME = \"player\"\n\nfunc f():\n\treturn get_node(NAME + \"_arm\")\n")
	in := NewInferrer(m)
	call := m.Root.Methods()[0].Body.Statements[0].(*cst.ReturnStatementNode).Value.(*cst.CallExpr)
	got, ok := in.StaticString(call.Args[0])
	require.True(t, ok)
	assert.Equal(t, "player_arm", got)
}

func TestStaticStringInferredLocal(t *testing.T) {
	m := modelFor(t, "func f():\n\tvar path := \"res://a\"\n\treturn load(path)\n")
	in := NewInferrer(m)
	ret := m.Root.Methods()[0].Body.Statements[1].(*cst.ReturnStatementNode)
	got, ok := in.StaticString(ret.Value.(*cst.CallExpr).Args[0])
	require.True(t, ok)
	assert.Equal(t, "res://a", got)
}

func TestExtendsChainAndCycle(t *testing.T) {
	registry := NewClassRegistry()
	parseInto := func(path, src string) *cst.ClassNode {
		root, _ := parser.Parse(src)
		registry.Register(path, root)
		return root
	}
	rootA := parseInto("res://a.gd", "class_name A extends B\n")
	parseInto("res://b.gd", "class_name B extends A\n")

	provider := NewCompositeProvider(registry, NewBuiltinProvider())
	m := NewFileModel("res://a.gd", rootA, provider, nil)
	chain, cycle := m.ExtendsChain()
	assert.True(t, cycle, "A extends B extends A is a cycle")
	assert.NotEmpty(t, chain)
}

func TestInheritanceTransitivity(t *testing.T) {
	registry := NewClassRegistry()
	base, _ := parser.Parse("class_name Base extends Node\n\nfunc base_method() -> int:\n\treturn 1\n")
	registry.Register("res://base.gd", base)
	mid, _ := parser.Parse("class_name Mid extends Base\n")
	registry.Register("res://mid.gd", mid)
	leafRoot, _ := parser.Parse("extends Mid\n\nfunc f():\n\treturn base_method()\n")

	provider := NewCompositeProvider(registry, NewBuiltinProvider())
	m := NewFileModel("res://leaf.gd", leafRoot, provider, nil)

	call := m.Root.Methods()[0].Body.Statements[0].(*cst.ReturnStatementNode).Value.(*cst.CallExpr)
	_, res := m.Resolve(call.Callee.(*cst.IdentifierExpr))
	assert.Equal(t, ResolvedBase, res, "member declared two levels up resolves")

	in := NewInferrer(m)
	assert.Equal(t, "int", in.Infer(call).TypeName)
}

func TestReferencesAndRename(t *testing.T) {
	m := modelFor(t, "var count = 0\n\nfunc f():\n\tcount = count + 1\n")
	scope := m.RootScope()
	sym := scope.Get("count")
	require.NotNil(t, sym)
	refs := m.References(sym)
	assert.Len(t, refs, 3, "declaration plus two uses")

	n := m.Rename(sym, "total")
	assert.Equal(t, 3, n)
	assert.Contains(t, cst.Serialize(m.Root), "total = total + 1")
	assert.NotContains(t, cst.Serialize(m.Root), "count")
}

func TestFlowNarrowing(t *testing.T) {
	m := modelFor(t, "func f(x):\n\tif x is Node:\n\t\tqueue_it(x)\n\tafter(x)\n")
	method := m.Root.Methods()[0]
	flow := AnalyzeMethodFlow(m, method)

	ifStmt := method.Body.Statements[0].(*cst.IfStatementNode)
	inner := ifStmt.Branches[0].Body.Statements[0]
	assert.Equal(t, "Node", flow.TypeAt(inner, "x"), "narrowed inside the guard")

	after := method.Body.Statements[1]
	assert.NotEqual(t, "Node", flow.TypeAt(after, "x"), "widened after the branch")
}

func TestFlowAssignmentMerge(t *testing.T) {
	m := modelFor(t, "func f(flag):\n\tvar v = 1\n\tif flag:\n\t\tv = 2.0\n\telse:\n\t\tv = 3.0\n\tuse(v)\n")
	method := m.Root.Methods()[0]
	flow := AnalyzeMethodFlow(m, method)
	use := method.Body.Statements[2]
	assert.Equal(t, "float", flow.TypeAt(use, "v"), "both branches assign float")
}

func TestCompositeProviderPriority(t *testing.T) {
	registry := NewClassRegistry()
	root, _ := parser.Parse("class_name Timer extends Node\n")
	registry.Register("res://timer.gd", root)
	provider := NewCompositeProvider(registry, NewBuiltinProvider())

	info := provider.GetTypeInfo("Timer")
	require.NotNil(t, info)
	assert.False(t, info.IsBuiltIn, "project class shadows the engine type")
	assert.Equal(t, "Node", info.BaseType)
}

func TestAssignability(t *testing.T) {
	provider := NewCompositeProvider(NewClassRegistry(), NewBuiltinProvider())
	assert.True(t, provider.IsAssignableTo("int", "float"))
	assert.True(t, provider.IsAssignableTo("Sprite2D", "Node"))
	assert.True(t, provider.IsAssignableTo("null", "Node"))
	assert.False(t, provider.IsAssignableTo("null", "int"))
	assert.True(t, provider.IsAssignableTo("String", TypeVariant))
	assert.False(t, provider.IsAssignableTo("String", "int"))
}
