package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/termfx/gdtk/analyzer"
	"github.com/termfx/gdtk/format"
)

// writeTree lays out a small project on disk.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func TestWalkerFindsScriptsHonoringExcludes(t *testing.T) {
	root := writeTree(t, map[string]string{
		"player.gd":            "extends Node\n",
		"ui/hud.gd":            "extends Control\n",
		"addons/lib/vendor.gd": "extends Node\n",
		".godot/cache.gd":      "extends Node\n",
		"readme.md":            "not a script\n",
	})
	files, err := NewFileWalker().List(context.Background(), DefaultScope(root))
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Contains(t, files[0]+files[1], "player.gd")
	assert.Contains(t, files[0]+files[1], "hud.gd")
}

func TestWalkerCustomExclude(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.gd":       "extends Node\n",
		"gen/b.gd":   "extends Node\n",
		"gen/c/d.gd": "extends Node\n",
	})
	scope := DefaultScope(root)
	scope.Exclude = append(scope.Exclude, "gen/**")
	files, err := NewFileWalker().List(context.Background(), scope)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Contains(t, files[0], "a.gd")
}

func TestAtomicWriterReplacesContent(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "script.gd")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	writer := NewAtomicWriter(DefaultAtomicConfig())
	require.NoError(t, writer.WriteFile(path, "new content"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new content", string(data))

	_, err = os.Stat(path + ".lock")
	assert.True(t, os.IsNotExist(err), "lock file is released")
	_, err = os.Stat(path + ".gdtk.tmp")
	assert.True(t, os.IsNotExist(err), "temp file is renamed away")
}

func TestResourcePathRoundTrip(t *testing.T) {
	root := string(filepath.Separator) + filepath.Join("home", "game")
	full := filepath.Join(root, "scenes", "main.gd")
	res := ResourcePath(root, full)
	assert.Equal(t, "res://scenes/main.gd", res)
	assert.Equal(t, full, FilesystemPath(root, res))
}

func TestProcessorLint(t *testing.T) {
	root := writeTree(t, map[string]string{
		"ok.gd":  "extends Node\n\nfunc _ready():\n\tprint(1)\n",
		"bad.gd": "func f():\n\treturn missing_name\n",
	})
	processor := NewProcessor(analyzer.NewProject())
	cfg := analyzer.DefaultConfig()
	cfg.MaxParallelism = 2
	report, err := processor.Lint(context.Background(), DefaultScope(root), cfg)
	require.NoError(t, err)
	require.Len(t, report.Files, 2)
	errs, _, _ := report.Counts()
	assert.Greater(t, errs, 0, "bad.gd has an undefined identifier")
}

func TestProcessorFormatCheckAndWrite(t *testing.T) {
	root := writeTree(t, map[string]string{
		"messy.gd": "func f():\n    pass   \n",
		"clean.gd": "func f():\n\tpass\n",
	})
	processor := NewProcessor(analyzer.NewProject())
	opts := format.DefaultOptions()

	// Check mode reports but does not write.
	result, err := processor.Format(context.Background(), DefaultScope(root), opts, false)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Checked)
	require.Len(t, result.Changes, 1)
	assert.Contains(t, result.Changes[0].Path, "messy.gd")
	assert.Contains(t, result.Changes[0].Diff, "-    pass")
	assert.Zero(t, result.Written)

	data, _ := os.ReadFile(filepath.Join(root, "messy.gd"))
	assert.Equal(t, "func f():\n    pass   \n", string(data), "check mode leaves files alone")

	// Write mode rewrites the messy file.
	result, err = processor.Format(context.Background(), DefaultScope(root), opts, true)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Written)
	data, _ = os.ReadFile(filepath.Join(root, "messy.gd"))
	assert.Equal(t, "func f():\n\tpass\n", string(data))

	// A second write run finds nothing to do.
	result, err = processor.Format(context.Background(), DefaultScope(root), opts, true)
	require.NoError(t, err)
	assert.Empty(t, result.Changes, "formatting is idempotent on disk too")
}
