// Package diag defines the diagnostic record shared by the parser, the
// validator and the incremental analyzer. The JSON shape is the
// on-wire contract consumed by editors and CI.
package diag

import "fmt"

// Severity grades a diagnostic. The numeric values are part of the
// wire contract.
type Severity int

const (
	SeverityError   Severity = 0
	SeverityWarning Severity = 1
	SeverityInfo    Severity = 2
	SeverityHint    Severity = 3
)

// String returns the severity name.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	case SeverityHint:
		return "hint"
	default:
		return "unknown"
	}
}

// Source tags for the two diagnostic producers.
const (
	SourceValidator = "validator"
	SourceLinter    = "linter"
)

// Stable machine codes. Each has a symbolic name in codeNames.
const (
	CodeInvalidCharacter   = "GD0101"
	CodeUnterminatedString = "GD0102"
	CodeStrayCarriage      = "GD0103"
	CodeUnexpectedToken    = "GD0104"

	CodeUndefinedIdentifier = "GD1001"
	CodeExtendsCycle        = "GD1002"
	CodeUnknownBaseClass    = "GD1003"

	CodeArgumentCountMismatch = "GD2001"
	CodeArgumentTypeMismatch  = "GD2002"

	CodeInconsistentIndentation = "GD6001"
	CodeUnexpectedIndent        = "GD6002"
	CodeDedentMismatch          = "GD6005"
)

// codeNames maps machine codes to their symbolic names.
var codeNames = map[string]string{
	CodeInvalidCharacter:        "InvalidCharacter",
	CodeUnterminatedString:      "UnterminatedString",
	CodeStrayCarriage:           "StrayCarriageReturn",
	CodeUnexpectedToken:         "UnexpectedToken",
	CodeUndefinedIdentifier:     "UndefinedIdentifier",
	CodeExtendsCycle:            "ExtendsCycle",
	CodeUnknownBaseClass:        "UnknownBaseClass",
	CodeArgumentCountMismatch:   "ArgumentCountMismatch",
	CodeArgumentTypeMismatch:    "ArgumentTypeMismatch",
	CodeInconsistentIndentation: "InconsistentIndentation",
	CodeUnexpectedIndent:        "UnexpectedIndent",
	CodeDedentMismatch:          "DedentMismatch",
}

// CodeName returns the symbolic name for a machine code, or the code
// itself when unknown.
func CodeName(code string) string {
	if name, ok := codeNames[code]; ok {
		return name
	}
	return code
}

// Diagnostic is one immutable finding. Lines are 1-based, columns
// 0-based.
type Diagnostic struct {
	Code        string   `json:"code"`
	Name        string   `json:"-"`
	Message     string   `json:"message"`
	Severity    Severity `json:"severity"`
	StartLine   int      `json:"start_line"`
	StartColumn int      `json:"start_column"`
	EndLine     int      `json:"end_line"`
	EndColumn   int      `json:"end_column"`
	Source      string   `json:"source"`
}

// New builds a diagnostic spanning a single point.
func New(code string, sev Severity, msg string, line, column int) Diagnostic {
	return Diagnostic{
		Code:        code,
		Name:        CodeName(code),
		Message:     msg,
		Severity:    sev,
		StartLine:   line,
		StartColumn: column,
		EndLine:     line,
		EndColumn:   column,
		Source:      SourceValidator,
	}
}

// WithEnd returns a copy with the end position set.
func (d Diagnostic) WithEnd(line, column int) Diagnostic {
	d.EndLine = line
	d.EndColumn = column
	return d
}

// WithSource returns a copy with the source tag set.
func (d Diagnostic) WithSource(src string) Diagnostic {
	d.Source = src
	return d
}

// String renders the conventional file-less one-line form.
func (d Diagnostic) String() string {
	return fmt.Sprintf("%d:%d %s %s: %s", d.StartLine, d.StartColumn, d.Severity, d.Code, d.Message)
}
