// Package format rewrites a CST in place through an ordered pipeline
// of idempotent rules and reserializes it with string-level fixes.
package format

import "github.com/termfx/gdtk/lexis"

// LineEnding selects the output newline convention.
type LineEnding int

const (
	LineEndingLF LineEnding = iota
	LineEndingCRLF
	LineEndingPlatform
)

// Options enumerates every formatter knob. Zero values are filled by
// DefaultOptions; rules read but never write options.
type Options struct {
	IndentStyle lexis.IndentStyle
	IndentSize  int
	LineEnding  LineEnding

	BlankLinesBetweenFunctions int
	BlankLinesAfterClassDecl   int

	SpaceAroundOperators bool
	SpaceAfterComma      bool
	SpaceAfterColon      bool
	SpaceBeforeColon     bool
	SpaceInsideParens    bool
	SpaceInsideBrackets  bool
	SpaceInsideBraces    bool

	RemoveTrailingWhitespace       bool
	EnsureTrailingNewline          bool
	RemoveMultipleTrailingNewlines bool

	// MaxLineLength is tracked for reporting; the formatter never
	// wraps.
	MaxLineLength int
}

// DefaultOptions matches the engine editor's conventions: tabs,
// trailing cleanup on, LF endings.
func DefaultOptions() Options {
	return Options{
		IndentStyle:                    lexis.IndentTabs,
		IndentSize:                     4,
		LineEnding:                     LineEndingLF,
		BlankLinesBetweenFunctions:     1,
		BlankLinesAfterClassDecl:       1,
		RemoveTrailingWhitespace:       true,
		EnsureTrailingNewline:          true,
		RemoveMultipleTrailingNewlines: true,
		MaxLineLength:                  100,
	}
}
