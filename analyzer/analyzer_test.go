package analyzer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/termfx/gdtk/diag"
	"github.com/termfx/gdtk/parser"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.MaxParallelism = 2
	cfg.FileTimeout = 5 * time.Second
	return cfg
}

func TestAnalyzeCleanProject(t *testing.T) {
	p := NewProject()
	sources := []Source{
		{Path: "res://a.gd", Text: "extends Node\n\nfunc _ready():\n\tprint(1)\n"},
		{Path: "res://b.gd", Text: "extends Node2D\n\nvar speed := 10.0\n"},
	}
	report, err := p.Analyze(context.Background(), sources, testConfig())
	require.NoError(t, err)
	require.Len(t, report.Files, 2)
	errs, _, _ := report.Counts()
	assert.Zero(t, errs)
	assert.NotEmpty(t, report.RunID)
}

func TestAnalyzeCacheHit(t *testing.T) {
	p := NewProject()
	sources := []Source{{Path: "res://a.gd", Text: "extends Node\n"}}
	cfg := testConfig()

	first, err := p.Analyze(context.Background(), sources, cfg)
	require.NoError(t, err)
	assert.Zero(t, first.FromCache)

	second, err := p.Analyze(context.Background(), sources, cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, second.FromCache, "unchanged file comes from cache")
}

func TestAnalyzeInvalidatesOnEdit(t *testing.T) {
	p := NewProject()
	cfg := testConfig()
	ctx := context.Background()

	_, err := p.Analyze(ctx, []Source{{Path: "res://a.gd", Text: "extends Node\n"}}, cfg)
	require.NoError(t, err)

	report, err := p.Analyze(ctx, []Source{{Path: "res://a.gd", Text: "extends Node2D\n"}}, cfg)
	require.NoError(t, err)
	assert.Zero(t, report.FromCache, "edited file re-analyzes")
}

func TestDependentInvalidation(t *testing.T) {
	p := NewProject()
	cfg := testConfig()
	ctx := context.Background()

	base := Source{Path: "res://base.gd", Text: "class_name TestBase extends Node\n\nfunc helper() -> int:\n\treturn 1\n"}
	leaf := Source{Path: "res://leaf.gd", Text: "extends TestBase\n\nfunc f():\n\treturn helper()\n"}

	first, err := p.Analyze(ctx, []Source{base, leaf}, cfg)
	require.NoError(t, err)
	require.Len(t, first.Files, 2)
	assert.Contains(t, p.Graph.Dependencies("res://leaf.gd"), "res://base.gd")

	// Editing the base invalidates the untouched leaf too.
	base.Text = "class_name TestBase extends Node\n\nfunc helper() -> float:\n\treturn 1.0\n"
	second, err := p.Analyze(ctx, []Source{base, leaf}, cfg)
	require.NoError(t, err)
	assert.Zero(t, second.FromCache, "dependent re-analyzes with its base")
}

func TestExtendsCycleAcrossFiles(t *testing.T) {
	p := NewProject()
	sources := []Source{
		{Path: "res://a.gd", Text: "class_name CycA extends CycB\n"},
		{Path: "res://b.gd", Text: "class_name CycB extends CycA\n"},
	}
	report, err := p.Analyze(context.Background(), sources, testConfig())
	require.NoError(t, err)

	cycles := 0
	for _, f := range report.Files {
		for _, d := range f.Diagnostics {
			if d.Code == diag.CodeExtendsCycle {
				cycles++
			}
		}
	}
	assert.Greater(t, cycles, 0, "extends cycle must be diagnosed, not looped")
}

func TestAnalyzeIsolatesBadFiles(t *testing.T) {
	p := NewProject()
	sources := []Source{
		{Path: "res://bad.gd", Text: "????\x00????\n"},
		{Path: "res://good.gd", Text: "extends Node\n"},
	}
	report, err := p.Analyze(context.Background(), sources, testConfig())
	require.NoError(t, err, "malformed source is diagnostics, not errors")
	require.Len(t, report.Files, 2)
	var bad *FileResult
	for _, f := range report.Files {
		if f.Path == "res://bad.gd" {
			bad = f
		}
	}
	require.NotNil(t, bad)
	assert.NotEmpty(t, bad.Diagnostics)
}

func TestAnalyzeCancellation(t *testing.T) {
	p := NewProject()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var sources []Source
	for i := 0; i < 20; i++ {
		sources = append(sources, Source{
			Path: "res://file_" + string(rune('a'+i)) + ".gd",
			Text: "extends Node\n",
		})
	}
	report, _ := p.Analyze(ctx, sources, testConfig())
	require.NotNil(t, report)
	assert.LessOrEqual(t, len(report.Files), len(sources))
}

func TestDependencyGraphTransitiveClosure(t *testing.T) {
	g := NewDependencyGraph()
	g.SetDependencies("b", []string{"a"})
	g.SetDependencies("c", []string{"b"})
	g.SetDependencies("d", []string{"c"})

	deps := g.Dependents("a")
	assert.ElementsMatch(t, []string{"b", "c", "d"}, deps)

	g.Remove("c")
	assert.ElementsMatch(t, []string{"b"}, g.Dependents("a"))
}

func TestDependencyGraphCycleSafe(t *testing.T) {
	g := NewDependencyGraph()
	g.SetDependencies("a", []string{"b"})
	g.SetDependencies("b", []string{"a"})
	done := make(chan []string, 1)
	go func() { done <- g.Dependents("a") }()
	select {
	case deps := <-done:
		assert.Contains(t, deps, "b")
	case <-time.After(2 * time.Second):
		t.Fatal("transitive closure looped on a cyclic graph")
	}
}

func TestPreloadDependencyTracked(t *testing.T) {
	p := NewProject()
	src := Source{
		Path: "res://user.gd",
		Text: "extends Node\n\nconst Enemy = preload(\"res://enemy.gd\")\nvar scene = load(\"res://world.tscn\")\n",
	}
	_, err := p.Analyze(context.Background(), []Source{src}, testConfig())
	require.NoError(t, err)
	deps := p.Graph.Dependencies("res://user.gd")
	assert.Contains(t, deps, "res://enemy.gd")
	assert.NotContains(t, deps, "res://world.tscn", "only .gd targets are tracked")
}

func TestRemoveFileInvalidatesDependents(t *testing.T) {
	p := NewProject()
	cfg := testConfig()
	ctx := context.Background()
	base := Source{Path: "res://base.gd", Text: "class_name RmBase extends Node\n"}
	leaf := Source{Path: "res://leaf.gd", Text: "extends RmBase\n"}
	_, err := p.Analyze(ctx, []Source{base, leaf}, cfg)
	require.NoError(t, err)

	affected := p.RemoveFile("res://base.gd")
	assert.Contains(t, affected, "res://leaf.gd")
	assert.Nil(t, p.Cache.Get("res://leaf.gd", ContentHash([]byte(leaf.Text))))
}

func TestInterfaceDigestStability(t *testing.T) {
	a := "class_name X extends Node\n\nfunc f(a: int) -> int:\n\treturn a\n"
	bodyOnly := "class_name X extends Node\n\nfunc f(a: int) -> int:\n\treturn a + 1\n"
	signature := "class_name X extends Node\n\nfunc f(a: float) -> int:\n\treturn 0\n"

	assert.Equal(t, digestOf(t, a), digestOf(t, bodyOnly), "body edits keep the surface")
	assert.NotEqual(t, digestOf(t, a), digestOf(t, signature), "signature edits change it")
}

func digestOf(t *testing.T, src string) uint64 {
	t.Helper()
	root, _ := parser.Parse(src)
	return InterfaceDigest(root)
}

func TestUpdateFileBodyEdit(t *testing.T) {
	p := NewProject()
	cfg := testConfig()
	ctx := context.Background()
	base := Source{Path: "res://base.gd", Text: "class_name UpBase extends Node\n\nfunc f() -> int:\n\treturn 1\n"}
	leaf := Source{Path: "res://leaf.gd", Text: "extends UpBase\n"}
	_, err := p.Analyze(ctx, []Source{base, leaf}, cfg)
	require.NoError(t, err)

	edited := "class_name UpBase extends Node\n\nfunc f() -> int:\n\treturn 2\n"
	update := p.UpdateFile("res://base.gd", base.Text, edited, cfg)
	assert.False(t, update.InterfaceChanged)
	assert.Empty(t, update.Affected, "body-only edit leaves dependents valid")
	require.NotNil(t, update.Result)

	interfaceEdit := "class_name UpBase extends Node\n\nfunc f(x: int) -> int:\n\treturn x\n"
	update = p.UpdateFile("res://base.gd", edited, interfaceEdit, cfg)
	assert.True(t, update.InterfaceChanged)
	assert.Contains(t, update.Affected, "res://leaf.gd")
}
