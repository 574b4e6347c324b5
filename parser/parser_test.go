package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/termfx/gdtk/cst"
	"github.com/termfx/gdtk/lexis"
)

// roundTrip asserts the lossless invariant for src.
func roundTrip(t *testing.T, src string) *cst.ClassNode {
	t.Helper()
	root, _ := Parse(src)
	require.Equal(t, src, cst.Serialize(root), "round trip must be byte-exact")
	return root
}

func TestRoundTripCorpus(t *testing.T) {
	sources := []string{
		"",
		"\n",
		"var x = 10\n",
		"var x := 10\n",
		"const SPEED: float = 4.5\n",
		"extends Node2D\n\nvar health = 100\n",
		"class_name Player extends CharacterBody2D\n",
		"@tool\nextends EditorPlugin\n",
		"@export var speed := 10.0\n@onready var label = $UI/Label\n",
		"signal died(cause, position)\n",
		"enum State { IDLE, RUNNING = 2, DEAD }\n",
		"func f(x: int) -> void:\n\tpass\n",
		"func test():\n\tif true:\n\t\tprint(1)\n\tprint(2)\n",
		"func test():\n\tif a:\n\t\tx()\n\telif b:\n\t\ty()\n\telse:\n\t\tz()\n",
		"func loop():\n\tfor i in range(10):\n\t\tcontinue\n\twhile false:\n\t\tbreak\n",
		"func m(v):\n\tmatch v:\n\t\t1, 2:\n\t\t\treturn true\n\t\tvar other when other > 3:\n\t\t\treturn false\n\t\t_:\n\t\t\tpass\n",
		"func expr():\n\treturn -2 ** 3 + 4 * (5 - 1) % 7\n",
		"func tern(a):\n\treturn 1 if a else 2\n",
		"func s():\n\tvar d = {\"a\": 1, \"b\": [1, 2, 3]}\n\treturn d[\"a\"]\n",
		"func nodes():\n\tvar a = $Path/To/Node\n\tvar b = %Unique\n\tvar c = ^\"Up/Down\"\n\tvar d = &\"signal_name\"\n",
		"func lam():\n\tvar f = func(x): return x + 1\n\treturn f.call(2)\n",
		"func str():\n\tvar s = \"\"\"a\nmulti \"line\"\nstring\"\"\"\n\treturn s\n",
		"class Inner extends RefCounted:\n\tvar x = 1\n\n\tfunc inner_method():\n\t\treturn x\n",
		"var health: int = 10:\n\tget:\n\t\treturn _health\n\tset(value):\n\t\t_health = value\n",
		"var speed: float:\n\tget = _get_speed, set = _set_speed\n",
		"func cont():\n\tvar total = 1 + \\\n\t\t2\n\treturn total\n",
		"# leading comment\nvar x = 1 # trailing comment\n\n# standalone\n",
		"func args():\n\tcallback.call(\n\t\t1,\n\t\t2,\n\t)\n",
		"func typed(d: Dictionary[String, int], a: Array[Vector2]) -> Array[int]:\n\treturn []\n",
		"func crlf():\r\n\tpass\r\n",
	}
	for _, src := range sources {
		src := src
		t.Run(shorten(src), func(t *testing.T) {
			roundTrip(t, src)
		})
	}
}

func shorten(s string) string {
	if len(s) > 24 {
		return s[:24]
	}
	if s == "" {
		return "empty"
	}
	return s
}

func TestRoundTripInvalidInput(t *testing.T) {
	sources := []string{
		"var x = @@@??\n",
		"?????\n",
		"func broken(:\n\tpass\n",
		"var = \n",
		"\x00\x01\x02",
		"var s = \"unterminated\n",
		"if if if\n",
		"\xff\xfe broken utf8 \xff\n",
	}
	for _, src := range sources {
		src := src
		t.Run(shorten(src), func(t *testing.T) {
			root, diags := Parse(src)
			assert.Equal(t, src, cst.Serialize(root))
			assert.NotEmpty(t, diags, "invalid input should produce diagnostics")
		})
	}
}

func TestClassLevelVariable(t *testing.T) {
	root := roundTrip(t, "var x = 10\n")
	vars := root.Variables()
	require.Len(t, vars, 1)
	assert.Equal(t, "x", vars[0].Name.Literal)
	require.NotNil(t, vars[0].Value)
	num, ok := vars[0].Value.(*cst.NumberExpr)
	require.True(t, ok)
	assert.False(t, num.IsFloat())
}

func TestMethodStructure(t *testing.T) {
	root := roundTrip(t, "func test():\n\tif true:\n\t\tprint(1)\n\tprint(2)\n")
	methods := root.Methods()
	require.Len(t, methods, 1)
	body := methods[0].Body
	require.NotNil(t, body)
	require.Len(t, body.Statements, 2, "method has two direct statements")

	ifStmt, ok := body.Statements[0].(*cst.IfStatementNode)
	require.True(t, ok)
	require.Len(t, ifStmt.Branches, 1)
	assert.Len(t, ifStmt.Branches[0].Body.Statements, 1, "if branch contains exactly one statement")

	_, ok = body.Statements[1].(*cst.ExpressionStatementNode)
	assert.True(t, ok)
}

func TestElifElseBranches(t *testing.T) {
	root := roundTrip(t, "func test():\n\tif a:\n\t\tx()\n\telif b:\n\t\ty()\n\telse:\n\t\tz()\n")
	m := root.Methods()[0]
	ifStmt := m.Body.Statements[0].(*cst.IfStatementNode)
	require.Len(t, ifStmt.Branches, 3)
	assert.NotNil(t, ifStmt.Branches[0].Condition)
	assert.NotNil(t, ifStmt.Branches[1].Condition)
	assert.Nil(t, ifStmt.Branches[2].Condition)
}

func TestExpressionPrecedence(t *testing.T) {
	root := roundTrip(t, "var v = 1 + 2 * 3\n")
	v := root.Variables()[0]
	bin, ok := v.Value.(*cst.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "+", bin.Op.Literal)
	right, ok := bin.Right.(*cst.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "*", right.Op.Literal)
}

func TestPowerBindsTighterThanUnary(t *testing.T) {
	root := roundTrip(t, "var v = -2 ** 2\n")
	v := root.Variables()[0]
	un, ok := v.Value.(*cst.UnaryExpr)
	require.True(t, ok, "unary minus is outermost")
	pow, ok := un.Operand.(*cst.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "**", pow.Op.Literal)
}

func TestAssignmentRightAssociative(t *testing.T) {
	root := roundTrip(t, "func f():\n\ta = b = 1\n")
	stmt := root.Methods()[0].Body.Statements[0].(*cst.ExpressionStatementNode)
	outer, ok := stmt.Expr.(*cst.BinaryExpr)
	require.True(t, ok)
	require.True(t, outer.IsAssignment())
	inner, ok := outer.Right.(*cst.BinaryExpr)
	require.True(t, ok)
	assert.True(t, inner.IsAssignment())
}

func TestTernaryShape(t *testing.T) {
	root := roundTrip(t, "var v = 1 if cond else 2\n")
	v := root.Variables()[0]
	tern, ok := v.Value.(*cst.TernaryExpr)
	require.True(t, ok)
	assert.NotNil(t, tern.TrueExpr)
	assert.NotNil(t, tern.Condition)
	assert.NotNil(t, tern.FalseExpr)
}

func TestExtendsAndClassName(t *testing.T) {
	root := roundTrip(t, "class_name Player extends CharacterBody2D\n")
	require.NotNil(t, root.ClassName)
	assert.Equal(t, "Player", root.ClassName.Name.Literal)
	require.NotNil(t, root.Extends)
	assert.Equal(t, "CharacterBody2D", root.Extends.Target.Name())
}

func TestExtendsResourcePath(t *testing.T) {
	root := roundTrip(t, "extends \"res://base/enemy.gd\"\n")
	require.NotNil(t, root.Extends)
	assert.True(t, root.Extends.Target.IsStringPath())
	assert.Equal(t, "res://base/enemy.gd", root.Extends.Target.Name())
}

func TestGenericTypes(t *testing.T) {
	root := roundTrip(t, "var d: Dictionary[String, int] = {}\nvar a: Array[float] = []\n")
	vars := root.Variables()
	require.Len(t, vars, 2)
	d := vars[0].Type
	require.True(t, d.IsDictionary())
	assert.Equal(t, "String", d.KeyType.Name())
	assert.Equal(t, "int", d.ValueType.Name())
	a := vars[1].Type
	require.True(t, a.IsArray())
	assert.Equal(t, "float", a.ValueType.Name())
}

func TestAnnotationsAttach(t *testing.T) {
	root := roundTrip(t, "@export\nvar speed := 1.0\n@onready var label = $Label\n")
	vars := root.Variables()
	require.Len(t, vars, 2)
	require.Len(t, vars[0].Annotations, 1)
	assert.Equal(t, "export", vars[0].Annotations[0].Name.Literal)
	require.Len(t, vars[1].Annotations, 1)
	assert.Equal(t, "onready", vars[1].Annotations[0].Name.Literal)
}

func TestEnumValues(t *testing.T) {
	root := roundTrip(t, "enum State { IDLE, RUNNING = 2, DEAD }\n")
	var enum *cst.EnumNode
	for _, m := range root.Members {
		if e, ok := m.(*cst.EnumNode); ok {
			enum = e
		}
	}
	require.NotNil(t, enum)
	require.Len(t, enum.Values, 3)
	assert.Equal(t, "IDLE", enum.Values[0].Name.Literal)
	assert.Nil(t, enum.Values[0].Value)
	assert.NotNil(t, enum.Values[1].Value)
}

func TestInvalidTokensIterator(t *testing.T) {
	root, diags := Parse("var x = ??\n")
	assert.NotEmpty(t, diags)
	count := 0
	for tok := range cst.InvalidTokens(root) {
		assert.Equal(t, lexis.Invalid, tok.Kind)
		count++
	}
	assert.Greater(t, count, 0)
}

func TestReparseStability(t *testing.T) {
	src := "extends Node\n\nfunc _ready():\n\tvar x := 1\n\tif x is int:\n\t\tprint(x)\n"
	root, diags := Parse(src)
	require.Empty(t, diags)
	again, diags2 := Parse(cst.Serialize(root))
	require.Empty(t, diags2)
	assert.Equal(t, cst.Serialize(root), cst.Serialize(again))
	assert.Len(t, again.Methods(), len(root.Methods()))
}

func TestMixedIndentationStillParses(t *testing.T) {
	root, _ := Parse("func test():\n\t var x = 1\n")
	m := root.Methods()
	require.Len(t, m, 1)
	require.NotNil(t, m[0].Body)
	require.Len(t, m[0].Body.Statements, 1, "variable is still placed in the method body")
	v, ok := m[0].Body.Statements[0].(*cst.VariableNode)
	require.True(t, ok)
	assert.Equal(t, "x", v.Name.Literal)
}

func TestParseNeverPanics(t *testing.T) {
	// Deterministic pseudo-random byte soup; the parser must terminate
	// and keep every byte.
	seed := uint64(0x9e3779b97f4a7c15)
	for i := 0; i < 64; i++ {
		var buf []byte
		n := int(seed%257) + 1
		for j := 0; j < n; j++ {
			seed = seed*6364136223846793005 + 1442695040888963407
			buf = append(buf, byte(seed>>33))
		}
		src := string(buf)
		root, _ := Parse(src)
		assert.Equal(t, src, cst.Serialize(root))
	}
}
