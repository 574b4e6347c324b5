package lint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/termfx/gdtk/diag"
	"github.com/termfx/gdtk/parser"
	"github.com/termfx/gdtk/semantics"
)

// validate parses src and runs the validator with the given options.
func validate(t *testing.T, src string, opts Options) []diag.Diagnostic {
	t.Helper()
	root, _ := parser.Parse(src)
	if opts.RuntimeProvider == nil {
		opts.RuntimeProvider = semantics.NewCompositeProvider(
			semantics.NewClassRegistry(), semantics.NewBuiltinProvider())
	}
	return Validate(root, opts)
}

// codes extracts the diagnostic codes.
func codes(diags []diag.Diagnostic) []string {
	out := make([]string, 0, len(diags))
	for _, d := range diags {
		out = append(out, d.Code)
	}
	return out
}

func TestCleanFileHasNoDiagnostics(t *testing.T) {
	opts := DefaultOptions()
	diags := validate(t, "extends Node\n\nfunc _ready():\n\tvar x := 1\n\tprint(x)\n", opts)
	assert.Empty(t, diags)
}

func TestMixedIndentationWarning(t *testing.T) {
	opts := DefaultOptions()
	diags := validate(t, "func test():\n\t var x = 1\n", opts)
	require.NotEmpty(t, diags)
	found := false
	for _, d := range diags {
		if d.Code == diag.CodeInconsistentIndentation {
			found = true
			assert.Equal(t, diag.SeverityWarning, d.Severity)
			assert.Equal(t, "InconsistentIndentation", d.Name)
		}
	}
	assert.True(t, found, "expected GD6001, got %v", codes(diags))
}

func TestIndentationStyleSwitchWarning(t *testing.T) {
	opts := Options{CheckIndentation: true}
	diags := validate(t, "func test():\n\tvar a = 1\n\tvar b = 2\n", opts)
	assert.Empty(t, diags, "uniform tabs are clean")

	diags = validate(t, "func test():\n\tvar a = 1\n    var b = 2\n", opts)
	assert.Contains(t, codes(diags), diag.CodeInconsistentIndentation)
}

func TestIndentationJumpWarning(t *testing.T) {
	opts := Options{CheckIndentation: true}
	diags := validate(t, "func test():\n\tvar a = 1\n\t\t\tvar b = 2\n", opts)
	assert.Contains(t, codes(diags), diag.CodeUnexpectedIndent)
}

func TestUndefinedIdentifier(t *testing.T) {
	opts := DefaultOptions()
	diags := validate(t, "func f():\n\treturn missing_name\n", opts)
	require.NotEmpty(t, diags)
	assert.Equal(t, diag.CodeUndefinedIdentifier, diags[0].Code)
	assert.Contains(t, diags[0].Message, "missing_name")
	assert.Equal(t, diag.SeverityError, diags[0].Severity)
}

func TestScopeCheckDisabled(t *testing.T) {
	opts := Options{CheckScope: false}
	diags := validate(t, "func f():\n\treturn missing_name\n", opts)
	assert.Empty(t, diags)
}

func TestMatchBindingResolves(t *testing.T) {
	opts := DefaultOptions()
	src := "func f(v):\n\tmatch v:\n\t\tvar other when other > 3:\n\t\t\treturn other\n\t\t_:\n\t\t\tpass\n"
	diags := validate(t, src, opts)
	for _, d := range diags {
		assert.NotEqual(t, diag.CodeUndefinedIdentifier, d.Code,
			"binding pattern must resolve: %s", d.Message)
	}
}

func TestArgumentTypeMismatch(t *testing.T) {
	opts := DefaultOptions()
	opts.CheckArgumentTypes = true
	src := "func f(x: int) -> void:\n\tpass\n\nfunc g():\n\tf(\"hello\")\n"
	diags := validate(t, src, opts)
	require.NotEmpty(t, diags)
	var mismatch *diag.Diagnostic
	for i := range diags {
		if diags[i].Code == diag.CodeArgumentTypeMismatch {
			mismatch = &diags[i]
		}
	}
	require.NotNil(t, mismatch, "expected GD2002, got %v", codes(diags))
	assert.Equal(t, "ArgumentTypeMismatch", mismatch.Name)
	assert.Contains(t, mismatch.Message, "String")
	assert.Contains(t, mismatch.Message, "int")
	assert.Equal(t, diag.SeverityWarning, mismatch.Severity)
}

func TestArgumentTypeSeverityConfigurable(t *testing.T) {
	opts := DefaultOptions()
	opts.CheckArgumentTypes = true
	opts.ArgumentTypeSeverity = diag.SeverityError
	diags := validate(t, "func f(x: int) -> void:\n\tpass\n\nfunc g():\n\tf(\"hello\")\n", opts)
	found := false
	for _, d := range diags {
		if d.Code == diag.CodeArgumentTypeMismatch {
			found = true
			assert.Equal(t, diag.SeverityError, d.Severity)
		}
	}
	assert.True(t, found)
}

func TestArgumentTypeWideningAccepted(t *testing.T) {
	opts := DefaultOptions()
	opts.CheckArgumentTypes = true
	diags := validate(t, "func f(x: float) -> void:\n\tpass\n\nfunc g():\n\tf(1)\n", opts)
	assert.NotContains(t, codes(diags), diag.CodeArgumentTypeMismatch, "int widens to float")
}

func TestArgumentCountMismatch(t *testing.T) {
	opts := DefaultOptions()
	diags := validate(t, "func f(a, b, c = 1):\n\tpass\n\nfunc g():\n\tf(1)\n", opts)
	assert.Contains(t, codes(diags), diag.CodeArgumentCountMismatch)

	diags = validate(t, "func f(a, b, c = 1):\n\tpass\n\nfunc g():\n\tf(1, 2)\n", opts)
	assert.NotContains(t, codes(diags), diag.CodeArgumentCountMismatch,
		"defaulted parameter is optional")
}

func TestUnknownBaseClass(t *testing.T) {
	opts := DefaultOptions()
	diags := validate(t, "extends NoSuchClass\n", opts)
	assert.Contains(t, codes(diags), diag.CodeUnknownBaseClass)
}

func TestExtendsCycleDiagnostic(t *testing.T) {
	registry := semantics.NewClassRegistry()
	rootA, _ := parser.Parse("class_name CycleA extends CycleB\n")
	registry.Register("res://a.gd", rootA)
	rootB, _ := parser.Parse("class_name CycleB extends CycleA\n")
	registry.Register("res://b.gd", rootB)
	provider := semantics.NewCompositeProvider(registry, semantics.NewBuiltinProvider())

	opts := DefaultOptions()
	opts.RuntimeProvider = provider
	diagsA := Validate(rootA, opts)
	diagsB := Validate(rootB, opts)
	assert.Contains(t, codes(diagsA), diag.CodeExtendsCycle)
	assert.Contains(t, codes(diagsB), diag.CodeExtendsCycle)
}

func TestDiagnosticWireShape(t *testing.T) {
	opts := DefaultOptions()
	diags := validate(t, "func f():\n\treturn missing\n", opts)
	require.NotEmpty(t, diags)
	d := diags[0]
	assert.Regexp(t, `^GD\d{4}$`, d.Code)
	assert.Greater(t, d.StartLine, 0)
	assert.GreaterOrEqual(t, d.EndColumn, d.StartColumn)
	assert.Equal(t, diag.SourceValidator, d.Source)
}

func TestValidateDeterministic(t *testing.T) {
	src := "func test():\n\t var x = 1\n\treturn missing\n"
	opts := DefaultOptions()
	first := validate(t, src, opts)
	for i := 0; i < 3; i++ {
		assert.Equal(t, codes(first), codes(validate(t, src, opts)))
	}
}
