package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/termfx/gdtk/lexis"
	"github.com/termfx/gdtk/parser"
)

func TestIndentationTabsToSpaces(t *testing.T) {
	opts := DefaultOptions()
	opts.IndentStyle = lexis.IndentSpaces
	opts.IndentSize = 4
	got := Source("func f():\n\tif true:\n\t\tpass\n", opts)
	assert.Equal(t, "func f():\n    if true:\n        pass\n", got)
}

func TestIndentationSpacesToTabs(t *testing.T) {
	opts := DefaultOptions()
	got := Source("func f():\n    if true:\n        pass\n", opts)
	assert.Equal(t, "func f():\n\tif true:\n\t\tpass\n", got)
}

func TestIndentationTwoSpaceUnitDetected(t *testing.T) {
	opts := DefaultOptions()
	got := Source("func f():\n  if true:\n    pass\n", opts)
	assert.Equal(t, "func f():\n\tif true:\n\t\tpass\n", got, "two-space unit maps to one tab per level")
}

func TestTrailingWhitespaceRemoved(t *testing.T) {
	opts := DefaultOptions()
	got := Source("var x = 1   \nvar y = 2\t\n", opts)
	assert.Equal(t, "var x = 1\nvar y = 2\n", got)
}

func TestBlankLineIndentationStripped(t *testing.T) {
	opts := DefaultOptions()
	got := Source("func f():\n\tpass\n\t\nvar x = 1\n", opts)
	assert.Equal(t, "func f():\n\tpass\n\nvar x = 1\n", got)
}

func TestEnsureTrailingNewline(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, "var x = 1\n", Source("var x = 1", opts))
}

func TestRemoveMultipleTrailingNewlines(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, "var x = 1\n", Source("var x = 1\n\n\n\n", opts))
}

func TestLineEndingConversion(t *testing.T) {
	opts := DefaultOptions()
	opts.LineEnding = LineEndingCRLF
	got := Source("var x = 1\nvar y = 2\n", opts)
	assert.Equal(t, "var x = 1\r\nvar y = 2\r\n", got)

	opts.LineEnding = LineEndingLF
	got = Source("var x = 1\r\nvar y = 2\r\n", opts)
	assert.Equal(t, "var x = 1\nvar y = 2\n", got)
}

func TestFormatIdempotent(t *testing.T) {
	sources := []string{
		"func f():\n\tif true:\n\t\tpass\n",
		"func f():\n    var x = 1   \n",
		"var x = 1",
		"# comment\n\n\nvar x = 1\n\n\n",
		"func m(v):\n\tmatch v:\n\t\t1:\n\t\t\tpass\n",
		"func broken(:\n\tpass\n",
	}
	for _, variant := range []lexis.IndentStyle{lexis.IndentTabs, lexis.IndentSpaces} {
		opts := DefaultOptions()
		opts.IndentStyle = variant
		for _, src := range sources {
			once := Source(src, opts)
			twice := Source(once, opts)
			assert.Equal(t, once, twice, "style %v source %q", variant, src)
		}
	}
}

func TestFormatPreservesSemanticText(t *testing.T) {
	opts := DefaultOptions()
	src := "func f():\n\treturn \"string with   spaces\\t\"\n"
	assert.Equal(t, src, Source(src, opts), "string literal interiors are untouched")
}

func TestBlankLinesRuleCollapses(t *testing.T) {
	root, _ := parser.Parse("var a = 1\n\n\n\n\nvar b = 2\n")
	opts := DefaultOptions()
	BlankLinesRule{}.Apply(root, opts)
	got := Render(root, opts)
	assert.Equal(t, "var a = 1\n\nvar b = 2\n", got)
}

func TestRuleMetadata(t *testing.T) {
	seen := map[string]bool{}
	for _, rule := range Rules() {
		assert.Regexp(t, `^GDF\d{3}$`, rule.ID())
		assert.NotEmpty(t, rule.Name())
		assert.NotEmpty(t, rule.Description())
		require.False(t, seen[rule.ID()], "duplicate rule id %s", rule.ID())
		seen[rule.ID()] = true
	}
	assert.True(t, seen["GDF001"])
	assert.True(t, seen["GDF004"])
}

func TestRoundTripThenFormatStable(t *testing.T) {
	src := "extends Node\n\nfunc _ready():\n\tprint(\"hi\")\n"
	opts := DefaultOptions()
	once := Source(src, opts)
	assert.Equal(t, src, once, "already formatted input is unchanged")
}
