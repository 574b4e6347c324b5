package format

import (
	"runtime"
	"strings"

	"github.com/termfx/gdtk/cst"
	"github.com/termfx/gdtk/parser"
)

// Format applies every enabled rule to root in place and returns root.
// The pipeline is idempotent: formatting a formatted tree changes
// nothing.
func Format(root *cst.ClassNode, opts Options) *cst.ClassNode {
	for _, rule := range Rules() {
		if rule.EnabledByDefault() {
			rule.Apply(root, opts)
		}
	}
	return root
}

// Render serializes root and applies the string-level fixes that are
// impractical to express structurally: trailing-newline shaping and
// line-ending conversion.
func Render(root *cst.ClassNode, opts Options) string {
	return PostProcess(cst.Serialize(root), opts)
}

// PostProcess applies the serialized-text fixes in their fixed order.
func PostProcess(text string, opts Options) string {
	// Normalize endings to LF first so the fixes see one shape.
	text = strings.ReplaceAll(text, "\r\n", "\n")

	if opts.RemoveMultipleTrailingNewlines {
		trimmed := strings.TrimRight(text, "\n")
		if trimmed != text {
			text = trimmed + "\n"
		}
	}
	if opts.EnsureTrailingNewline && text != "" && !strings.HasSuffix(text, "\n") {
		text += "\n"
	}

	switch opts.LineEnding {
	case LineEndingCRLF:
		text = strings.ReplaceAll(text, "\n", "\r\n")
	case LineEndingPlatform:
		if runtime.GOOS == "windows" {
			text = strings.ReplaceAll(text, "\n", "\r\n")
		}
	}
	return text
}

// Source formats source text end to end: parse, run the pipeline,
// render. Parsing is total, so formatting is too; syntactically broken
// regions pass through byte-preserved apart from the whitespace rules.
func Source(src string, opts Options) string {
	root, _ := parser.Parse(src)
	return Render(Format(root, opts), opts)
}
