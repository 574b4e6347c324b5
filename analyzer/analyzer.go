package analyzer

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/termfx/gdtk/cst"
	"github.com/termfx/gdtk/diag"
	"github.com/termfx/gdtk/lint"
	"github.com/termfx/gdtk/parser"
	"github.com/termfx/gdtk/semantics"
)

// Config controls one analysis batch.
type Config struct {
	MaxParallelism int
	FileTimeout    time.Duration

	CheckIndentation   bool
	CheckScope         bool
	CheckArgumentTypes bool

	Scenes semantics.SceneTypesProvider
}

// DefaultConfig mirrors the validator defaults with one worker per
// core and the standard per-file timeout.
func DefaultConfig() Config {
	return Config{
		MaxParallelism:   runtime.NumCPU(),
		FileTimeout:      30 * time.Second,
		CheckIndentation: true,
		CheckScope:       true,
	}
}

// Source is one file handed to the analyzer.
type Source struct {
	Path string
	Text string
}

// Report is the outcome of one batch.
type Report struct {
	RunID     string        `json:"run_id"`
	Files     []*FileResult `json:"files"`
	TimedOut  []string      `json:"timed_out,omitempty"`
	Failed    []string      `json:"failed,omitempty"`
	FromCache int           `json:"from_cache"`
	Duration  time.Duration `json:"duration"`
}

// Counts tallies diagnostics by severity.
func (r *Report) Counts() (errors, warnings, hints int) {
	for _, f := range r.Files {
		for _, d := range f.Diagnostics {
			switch d.Severity {
			case diag.SeverityError:
				errors++
			case diag.SeverityWarning:
				warnings++
			default:
				hints++
			}
		}
	}
	return
}

// Project owns the shared analysis state: the class registry, the
// provider chain, the dependency graph and the diagnostic cache. The
// lifecycle is construct, load sources, analyze, optionally persist.
type Project struct {
	Registry *semantics.ClassRegistry
	Provider *semantics.CompositeProvider
	Graph    *DependencyGraph
	Cache    *DiagnosticCache
}

// NewProject wires the default provider chain: project classes first,
// then engine built-ins.
func NewProject() *Project {
	registry := semantics.NewClassRegistry()
	return &Project{
		Registry: registry,
		Provider: semantics.NewCompositeProvider(registry, semantics.NewBuiltinProvider()),
		Graph:    NewDependencyGraph(),
		Cache:    NewDiagnosticCache(),
	}
}

// Analyze validates the given sources incrementally. Only files whose
// content hash changed, plus the transitive closure of their
// dependents, are re-validated; the rest come from the cache. Per-file
// failures and timeouts are isolated and never abort the batch.
func (p *Project) Analyze(ctx context.Context, sources []Source, cfg Config) (*Report, error) {
	start := time.Now()
	report := &Report{RunID: uuid.NewString()}

	type fileState struct {
		source Source
		hash   string
		cached *FileResult
	}
	states := make(map[string]*fileState, len(sources))
	var errs error

	// Registry refresh happens between batches: every file is parsed
	// or served from the previous batch's registration before any
	// validation task runs.
	for _, src := range sources {
		state := &fileState{source: src, hash: ContentHash([]byte(src.Text))}
		state.cached = p.Cache.Get(src.Path, state.hash)
		if state.cached == nil {
			root, _ := parser.Parse(src.Text)
			p.Registry.Register(src.Path, root)
		}
		states[src.Path] = state
	}

	// A changed file invalidates its transitive dependents even when
	// their own bytes did not move.
	var changed []string
	for path, state := range states {
		if state.cached == nil {
			changed = append(changed, path)
		}
	}
	for _, path := range p.Graph.Dependents(changed...) {
		if state, ok := states[path]; ok {
			state.cached = nil
		}
	}

	var work []*fileState
	for _, path := range sortedPaths(states) {
		state := states[path]
		if state.cached != nil {
			report.Files = append(report.Files, state.cached)
			report.FromCache++
			continue
		}
		work = append(work, state)
	}

	workers := cfg.MaxParallelism
	if workers < 1 {
		workers = 1
	}
	var (
		mu    sync.Mutex
		wg    sync.WaitGroup
		queue = make(chan *fileState)
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for state := range queue {
				result, err := p.analyzeOne(ctx, state.source, state.hash, cfg)
				mu.Lock()
				switch {
				case err == context.DeadlineExceeded:
					report.TimedOut = append(report.TimedOut, state.source.Path)
				case err != nil:
					report.Failed = append(report.Failed, state.source.Path)
					errs = multierr.Append(errs, fmt.Errorf("%s: %w", state.source.Path, err))
				default:
					report.Files = append(report.Files, result)
				}
				mu.Unlock()
			}
		}()
	}

dispatch:
	for _, state := range work {
		select {
		case <-ctx.Done():
			break dispatch
		case queue <- state:
		}
	}
	close(queue)
	wg.Wait()

	sort.Slice(report.Files, func(i, j int) bool { return report.Files[i].Path < report.Files[j].Path })
	report.Duration = time.Since(start)
	return report, errs
}

// sortedPaths returns map keys in deterministic order.
func sortedPaths[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// analyzeOne validates a single file under the per-file timeout.
// Internal faults are recovered and isolated; the previous cache entry
// survives a timeout.
func (p *Project) analyzeOne(ctx context.Context, src Source, hash string, cfg Config) (*FileResult, error) {
	timeout := cfg.FileTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	done := make(chan struct{})
	var (
		result *FileResult
		err    error
	)
	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("internal analyzer fault: %v", r)
			}
		}()
		result = p.validateFile(src, hash, cfg)
	}()

	select {
	case <-done:
		if err != nil {
			return nil, err
		}
		p.Cache.Put(result)
		return result, nil
	case <-time.After(timeout):
		return nil, context.DeadlineExceeded
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// validateFile runs the parse diagnostics plus the configured
// validator passes and extracts the file's dependencies.
func (p *Project) validateFile(src Source, hash string, cfg Config) *FileResult {
	root, parseDiags := parser.Parse(src.Text)

	opts := lint.Options{
		CheckIndentation:     cfg.CheckIndentation,
		CheckScope:           cfg.CheckScope,
		CheckArgumentTypes:   cfg.CheckArgumentTypes,
		ArgumentTypeSeverity: diag.SeverityWarning,
		RuntimeProvider:      p.Provider,
		Scenes:               cfg.Scenes,
		Path:                 src.Path,
	}
	diags := append(parseDiags, lint.Validate(root, opts)...)

	deps := p.extractDependencies(src.Path, root)
	p.Graph.SetDependencies(src.Path, deps)

	return &FileResult{
		Path:         src.Path,
		Hash:         hash,
		Diagnostics:  diags,
		Dependencies: deps,
		CachedAt:     time.Now(),
	}
}

// extractDependencies finds the extends target and every
// preload/load/ResourceLoader.load call with a statically resolvable
// .gd argument.
func (p *Project) extractDependencies(path string, root *cst.ClassNode) []string {
	seen := map[string]bool{}
	var deps []string
	add := func(dep string) {
		if dep != "" && dep != path && !seen[dep] {
			seen[dep] = true
			deps = append(deps, dep)
		}
	}

	if root.Extends != nil {
		target := root.Extends.Target
		if target.IsStringPath() {
			add(target.Name())
		} else if pc := p.Registry.Get(target.Name()); pc != nil {
			add(pc.Path)
		}
	}

	model := semantics.NewFileModel(path, root, p.Provider, nil)
	inferrer := semantics.NewInferrer(model)
	cst.Walk(root, cst.VisitorFuncs{OnEnter: func(n cst.Node) {
		call, ok := n.(*cst.CallExpr)
		if !ok || len(call.Args) == 0 {
			return
		}
		if !isResourceLoadCall(call) {
			return
		}
		if arg, ok := inferrer.StaticString(call.Args[0]); ok && strings.HasSuffix(arg, ".gd") {
			add(arg)
		}
	}})
	return deps
}

// isResourceLoadCall recognizes preload, load and ResourceLoader.load.
func isResourceLoadCall(call *cst.CallExpr) bool {
	switch call.CalleeName() {
	case "preload":
		return true
	case "load":
		if mem, ok := call.Callee.(*cst.MemberExpr); ok {
			id, ok := mem.Target.(*cst.IdentifierExpr)
			return ok && id.Name != nil && id.Name.Literal == "ResourceLoader"
		}
		return true
	}
	return false
}

// RemoveFile drops a deleted file from the registry, the graph and
// the cache, and returns the files invalidated by the removal.
func (p *Project) RemoveFile(path string) []string {
	affected := p.Graph.Dependents(path)
	p.Registry.Remove(path)
	p.Graph.Remove(path)
	p.Cache.InvalidatePath(path)
	for _, dep := range affected {
		p.Cache.InvalidatePath(dep)
	}
	return affected
}
