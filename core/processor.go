package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"go.uber.org/multierr"

	"github.com/termfx/gdtk/analyzer"
	"github.com/termfx/gdtk/format"
)

// Processor drives analysis and formatting over a project directory:
// discovery through the walker, per-file work through the analyzer or
// the format pipeline, write-back through the atomic writer.
type Processor struct {
	walker  *FileWalker
	writer  *AtomicWriter
	project *analyzer.Project
}

// NewProcessor wires a processor over the given project state.
func NewProcessor(project *analyzer.Project) *Processor {
	return &Processor{
		walker:  NewFileWalker(),
		writer:  NewAtomicWriter(DefaultAtomicConfig()),
		project: project,
	}
}

// Project exposes the underlying analysis state.
func (p *Processor) Project() *analyzer.Project { return p.project }

// LoadSources reads every matching script under scope into analyzer
// sources keyed by res:// style project-relative paths. Unreadable
// files are skipped with their errors aggregated.
func (p *Processor) LoadSources(ctx context.Context, scope FileScope) ([]analyzer.Source, error) {
	paths, err := p.walker.List(ctx, scope)
	if err != nil {
		return nil, err
	}
	var (
		sources []analyzer.Source
		errs    error
	)
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("read %s: %w", path, err))
			continue
		}
		sources = append(sources, analyzer.Source{
			Path: ResourcePath(scope.Path, path),
			Text: string(data),
		})
	}
	return sources, errs
}

// ResourcePath converts an absolute file path into the project's
// res:// convention.
func ResourcePath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	return "res://" + filepath.ToSlash(rel)
}

// FilesystemPath converts a res:// path back under root.
func FilesystemPath(root, resPath string) string {
	trimmed := strings.TrimPrefix(resPath, "res://")
	return filepath.Join(root, filepath.FromSlash(trimmed))
}

// Lint analyzes every script under scope.
func (p *Processor) Lint(ctx context.Context, scope FileScope, cfg analyzer.Config) (*analyzer.Report, error) {
	sources, loadErr := p.LoadSources(ctx, scope)
	report, err := p.project.Analyze(ctx, sources, cfg)
	return report, multierr.Append(loadErr, err)
}

// FormatChange is one file the formatter would touch.
type FormatChange struct {
	Path string
	Diff string
}

// FormatResult summarizes a formatting run.
type FormatResult struct {
	Checked int
	Changes []FormatChange
	Written int
}

// Format formats every script under scope. With write false it only
// reports unified diffs; with write true it rewrites changed files
// atomically.
func (p *Processor) Format(ctx context.Context, scope FileScope, opts format.Options, write bool) (*FormatResult, error) {
	paths, err := p.walker.List(ctx, scope)
	if err != nil {
		return nil, err
	}
	result := &FormatResult{}
	var errs error
	for _, path := range paths {
		select {
		case <-ctx.Done():
			return result, multierr.Append(errs, ctx.Err())
		default:
		}
		data, err := os.ReadFile(path)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("read %s: %w", path, err))
			continue
		}
		result.Checked++
		original := string(data)
		formatted := format.Source(original, opts)
		if formatted == original {
			continue
		}
		diff, diffErr := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(original),
			B:        difflib.SplitLines(formatted),
			FromFile: path,
			ToFile:   path + " (formatted)",
			Context:  3,
		})
		if diffErr != nil {
			diff = ""
		}
		result.Changes = append(result.Changes, FormatChange{Path: path, Diff: diff})
		if !write {
			continue
		}
		if err := p.writer.WriteFile(path, formatted); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("write %s: %w", path, err))
			continue
		}
		result.Written++
	}
	return result, errs
}
