package cst

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/termfx/gdtk/lexis"
)

// buildSmallTree assembles a tiny CST by hand: `var x = 1`.
func buildSmallTree() (*ClassNode, *VariableNode) {
	root := &ClassNode{}
	v := &VariableNode{}
	tok := func(kind lexis.TokenKind, lit string, col int) *lexis.Token {
		return &lexis.Token{Kind: kind, Literal: lit, Line: 1, Column: col}
	}
	AddToken(v, tok(lexis.Keyword, "var", 0))
	AddToken(v, tok(lexis.Space, " ", 3))
	v.Name = tok(lexis.Identifier, "x", 4)
	AddToken(v, v.Name)
	AddToken(v, tok(lexis.Space, " ", 5))
	AddToken(v, tok(lexis.Punctuator, "=", 6))
	AddToken(v, tok(lexis.Space, " ", 7))
	num := &NumberExpr{}
	num.Value = tok(lexis.Number, "1", 8)
	AddToken(num, num.Value)
	Attach(v, num)
	v.Value = num
	Attach(root, v)
	root.AddMember(v)
	AddToken(root, tok(lexis.Newline, "\n", 9))
	return root, v
}

func TestSerializeFormOrder(t *testing.T) {
	root, _ := buildSmallTree()
	assert.Equal(t, "var x = 1\n", Serialize(root))
}

func TestParentBackReferences(t *testing.T) {
	root, v := buildSmallTree()
	assert.Same(t, root, v.Parent().(*ClassNode))
	num := v.Value.(*NumberExpr)
	assert.Same(t, v, num.Parent().(*VariableNode))
	assert.Same(t, root, EnclosingClass(num))
}

func TestWalkEnterLeaveOrder(t *testing.T) {
	root, _ := buildSmallTree()
	var events []string
	Walk(root, VisitorFuncs{
		OnEnter: func(n Node) { events = append(events, "enter:"+kindName(n)) },
		OnLeave: func(n Node) { events = append(events, "leave:"+kindName(n)) },
	})
	assert.Equal(t, []string{
		"enter:class", "enter:variable", "enter:number",
		"leave:number", "leave:variable", "leave:class",
	}, events)
}

func kindName(n Node) string {
	switch n.Kind() {
	case KindClass:
		return "class"
	case KindVariable:
		return "variable"
	case KindNumberExpr:
		return "number"
	default:
		return "other"
	}
}

func TestAllTokensLossless(t *testing.T) {
	root, _ := buildSmallTree()
	var rebuilt string
	for tok := range AllTokens(root) {
		rebuilt += tok.Literal
	}
	assert.Equal(t, Serialize(root), rebuilt)
}

func TestAllTokensEarlyStop(t *testing.T) {
	root, _ := buildSmallTree()
	count := 0
	for range AllTokens(root) {
		count++
		if count == 2 {
			break
		}
	}
	assert.Equal(t, 2, count)
}

func TestFirstAndLastToken(t *testing.T) {
	root, _ := buildSmallTree()
	require.NotNil(t, FirstToken(root))
	assert.Equal(t, "var", FirstToken(root).Literal)
	assert.Equal(t, "\n", LastToken(root).Literal)
}

func TestTypeNodePredicates(t *testing.T) {
	mk := func(names ...string) *TypeNode {
		tn := &TypeNode{}
		for i, name := range names {
			tn.Segments = append(tn.Segments, &lexis.Token{
				Kind: lexis.Identifier, Literal: name, Line: 1, Column: i,
			})
		}
		return tn
	}
	assert.True(t, mk("int").IsNumeric())
	assert.True(t, mk("float").IsNumeric())
	assert.False(t, mk("String").IsNumeric())
	assert.True(t, mk("String").IsString())
	assert.True(t, mk("StringName").IsString())
	assert.True(t, mk("Vector2").IsVector())
	assert.True(t, mk("Vector3i").IsVector())
	assert.True(t, mk("Color").IsColor())
	assert.True(t, mk("Array").IsArray())
	assert.True(t, mk("Dictionary").IsDictionary())
	assert.True(t, mk("Outer", "Inner").IsSubType())
	assert.Equal(t, "Outer.Inner", mk("Outer", "Inner").Name())
	assert.Equal(t, "Inner", mk("Outer", "Inner").Leaf())
}

func TestNumberIsFloat(t *testing.T) {
	mk := func(lit string) *NumberExpr {
		n := &NumberExpr{}
		n.Value = &lexis.Token{Kind: lexis.Number, Literal: lit}
		return n
	}
	assert.False(t, mk("10").IsFloat())
	assert.True(t, mk("1.5").IsFloat())
	assert.True(t, mk("1e9").IsFloat())
	assert.True(t, mk("2E-3").IsFloat())
	assert.False(t, mk("0xFE").IsFloat(), "hex digits are not exponents")
	assert.False(t, mk("0b101").IsFloat())
}

func TestRemoveTokens(t *testing.T) {
	root, v := buildSmallTree()
	var victim *lexis.Token
	for _, it := range v.Form().Items() {
		if it.Token != nil && it.Token.Kind == lexis.Space {
			victim = it.Token
			break
		}
	}
	require.NotNil(t, victim)
	RemoveTokens(root, map[*lexis.Token]bool{victim: true})
	assert.Equal(t, "varx = 1\n", Serialize(root))
}

func TestInsertTokenAfter(t *testing.T) {
	root, v := buildSmallTree()
	anchor := v.Name
	InsertTokenAfter(v, anchor, &lexis.Token{Kind: lexis.Space, Literal: "  ", Line: 1, Column: 5})
	assert.Equal(t, "var x   = 1\n", Serialize(root))
}
