// Package core holds the project-level plumbing: script discovery,
// atomic write-back and the processor that drives analysis and
// formatting over a project tree.
package core

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultExcludes are skipped unless the scope overrides them: the
// editor's metadata directory and third-party addons.
var DefaultExcludes = []string{".godot/**", "addons/**"}

// FileScope bounds a directory walk.
type FileScope struct {
	Path     string
	Include  []string
	Exclude  []string
	MaxDepth int
	MaxFiles int
}

// DefaultScope walks every .gd file under root with the default
// excludes.
func DefaultScope(root string) FileScope {
	return FileScope{
		Path:    root,
		Include: []string{"**/*.gd"},
		Exclude: append([]string{}, DefaultExcludes...),
	}
}

// WalkResult is one discovered script.
type WalkResult struct {
	Path string
	Rel  string
	Info fs.FileInfo
	Err  error
}

// FileWalker performs parallel file discovery over a project tree.
type FileWalker struct {
	workers    int
	bufferSize int
}

// NewFileWalker sizes the worker pool for I/O bound stat work.
func NewFileWalker() *FileWalker {
	return &FileWalker{
		workers:    runtime.NumCPU() * 2,
		bufferSize: 256,
	}
}

// Walk streams matching files. The channel closes when discovery
// finishes or ctx is cancelled.
func (fw *FileWalker) Walk(ctx context.Context, scope FileScope) (<-chan WalkResult, error) {
	info, err := os.Stat(scope.Path)
	if err != nil {
		return nil, fmt.Errorf("cannot access path %s: %w", scope.Path, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path %s is not a directory", scope.Path)
	}

	results := make(chan WalkResult, fw.bufferSize)
	paths := make(chan string, fw.bufferSize)

	var wg sync.WaitGroup
	for i := 0; i < fw.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range paths {
				result := fw.statFile(scope, path)
				select {
				case <-ctx.Done():
					return
				case results <- result:
				}
			}
		}()
	}

	go func() {
		defer close(paths)
		count := 0
		fw.scanDirectory(ctx, scope.Path, scope, paths, 0, &count)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	return results, nil
}

// List collects a sorted slice of matching paths.
func (fw *FileWalker) List(ctx context.Context, scope FileScope) ([]string, error) {
	results, err := fw.Walk(ctx, scope)
	if err != nil {
		return nil, err
	}
	var files []string
	for result := range results {
		if result.Err != nil {
			continue
		}
		files = append(files, result.Path)
	}
	sort.Strings(files)
	return files, nil
}

// scanDirectory recursively discovers matching files.
func (fw *FileWalker) scanDirectory(ctx context.Context, dir string, scope FileScope, paths chan<- string, depth int, count *int) {
	if scope.MaxDepth > 0 && depth > scope.MaxDepth {
		return
	}
	select {
	case <-ctx.Done():
		return
	default:
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		// Unreadable directories are skipped, not fatal.
		return
	}
	for _, entry := range entries {
		full := filepath.Join(dir, entry.Name())
		rel := fw.relPath(scope.Path, full)
		if matchAny(rel, scope.Exclude) {
			continue
		}
		if entry.IsDir() {
			fw.scanDirectory(ctx, full, scope, paths, depth+1, count)
			continue
		}
		if len(scope.Include) > 0 && !matchAny(rel, scope.Include) {
			continue
		}
		if scope.MaxFiles > 0 && *count >= scope.MaxFiles {
			return
		}
		select {
		case <-ctx.Done():
			return
		case paths <- full:
			*count++
		}
	}
}

// relPath computes the forward-slashed path of full relative to root.
func (fw *FileWalker) relPath(root, full string) string {
	rel, err := filepath.Rel(root, full)
	if err != nil {
		rel = full
	}
	return filepath.ToSlash(rel)
}

// statFile builds the result record for one discovered path.
func (fw *FileWalker) statFile(scope FileScope, path string) WalkResult {
	info, err := os.Stat(path)
	return WalkResult{
		Path: path,
		Rel:  fw.relPath(scope.Path, path),
		Info: info,
		Err:  err,
	}
}

// matchAny reports whether rel matches any doublestar pattern. A
// pattern without a slash also matches by basename, so "*.bak" works
// anywhere in the tree.
func matchAny(rel string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.PathMatch(pattern, rel); err == nil && ok {
			return true
		}
		if !strings.Contains(pattern, "/") {
			if ok, err := doublestar.PathMatch(pattern, filepath.Base(rel)); err == nil && ok {
				return true
			}
		}
	}
	return false
}
