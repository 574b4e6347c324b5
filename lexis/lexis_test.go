package lexis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuneClasses(t *testing.T) {
	assert.True(t, IsSpace(' '))
	assert.True(t, IsSpace('\t'))
	assert.False(t, IsSpace('\n'))
	assert.True(t, IsNewline('\n'))
	assert.True(t, IsNewline('\r'))
	assert.True(t, IsIdentStart('_'))
	assert.True(t, IsIdentStart('é'))
	assert.False(t, IsIdentStart('1'))
	assert.True(t, IsIdentPart('1'))
	assert.True(t, IsHexDigit('f'))
	assert.False(t, IsHexDigit('g'))
}

func TestMatchPunctuator(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"**= x", "**="},
		{"** x", "**"},
		{"*x", "*"},
		{"<<= 2", "<<="},
		{"->", "->"},
		{":= 1", ":="},
		{"abc", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MatchPunctuator(tt.input), "input %q", tt.input)
	}
}

func TestMeasureIndent(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		unit    int
		depth   int
		style   IndentStyle
	}{
		{"empty", "", 4, 0, IndentNone},
		{"two tabs", "\t\t", 4, 2, IndentTabs},
		{"eight spaces", "        ", 4, 2, IndentSpaces},
		{"partial group", "      ", 4, 1, IndentSpaces},
		{"tab then space", "\t ", 4, 1, IndentMixed},
		{"two-space unit", "    ", 2, 2, IndentSpaces},
		{"lone space", " ", 4, 1, IndentSpaces},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run := MeasureIndent(tt.pattern, tt.unit)
			assert.Equal(t, tt.depth, run.Depth)
			assert.Equal(t, tt.style, run.Style)
			assert.Equal(t, tt.pattern, run.Pattern)
		})
	}
}

func TestIndentRewritePreservesDepth(t *testing.T) {
	run := MeasureIndent("\t\t\t", 4)
	assert.Equal(t, "            ", run.Rewrite(IndentSpaces, 4))
	back := MeasureIndent(run.Rewrite(IndentSpaces, 4), 4)
	assert.Equal(t, run.Depth, back.Depth)
	assert.Equal(t, "\t\t\t", back.Rewrite(IndentTabs, 4))
}

func TestTokenTrivia(t *testing.T) {
	trivia := &Token{Kind: Comment, Literal: "# hi"}
	assert.True(t, trivia.IsTrivia())
	ident := &Token{Kind: Identifier, Literal: "x"}
	assert.False(t, ident.IsTrivia())
	assert.True(t, IsKeyword("func"))
	assert.False(t, IsKeyword("foo"))
}
