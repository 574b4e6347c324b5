package lexis

import "strings"

// IndentStyle classifies the characters of an indentation run.
type IndentStyle int

const (
	IndentNone IndentStyle = iota
	IndentTabs
	IndentSpaces
	IndentMixed
)

// String returns the style name.
func (s IndentStyle) String() string {
	switch s {
	case IndentTabs:
		return "tabs"
	case IndentSpaces:
		return "spaces"
	case IndentMixed:
		return "mixed"
	default:
		return "none"
	}
}

// DefaultSpaceUnit is the space-group width assumed when a file gives
// no better evidence of its indentation width.
const DefaultSpaceUnit = 4

// IndentRun models one line's leading whitespace as an ordered sequence
// of units, where a unit is a single tab or a fixed-width space group.
// The raw pattern is preserved verbatim so reserialization never loses
// the original bytes, including a trailing partial space group.
type IndentRun struct {
	Pattern   string
	Depth     int
	Style     IndentStyle
	SpaceUnit int
}

// MeasureIndent decomposes pattern into units using spaceUnit as the
// width of one space group. A spaceUnit <= 0 selects DefaultSpaceUnit.
// Spaces left over after the last full group do not add a unit, so a
// stray space next to a tab keeps the line in its enclosing block; the
// style classifier still reports the mixture. A non-empty pattern is
// never depth zero.
func MeasureIndent(pattern string, spaceUnit int) IndentRun {
	if spaceUnit <= 0 {
		spaceUnit = DefaultSpaceUnit
	}
	run := IndentRun{Pattern: pattern, SpaceUnit: spaceUnit}
	tabs, spaces := 0, 0
	for _, r := range pattern {
		switch r {
		case '\t':
			tabs++
		case ' ':
			spaces++
		}
	}
	run.Depth = tabs + spaces/spaceUnit
	if run.Depth == 0 && len(pattern) > 0 {
		run.Depth = 1
	}
	switch {
	case tabs > 0 && spaces > 0:
		run.Style = IndentMixed
	case tabs > 0:
		run.Style = IndentTabs
	case spaces > 0:
		run.Style = IndentSpaces
	default:
		run.Style = IndentNone
	}
	return run
}

// Rewrite produces the pattern for the same depth in the requested
// style. Depth is preserved exactly; only the characters change.
func (r IndentRun) Rewrite(style IndentStyle, spaceUnit int) string {
	if spaceUnit <= 0 {
		spaceUnit = DefaultSpaceUnit
	}
	switch style {
	case IndentSpaces:
		return strings.Repeat(strings.Repeat(" ", spaceUnit), r.Depth)
	default:
		return strings.Repeat("\t", r.Depth)
	}
}
