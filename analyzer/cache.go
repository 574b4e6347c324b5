package analyzer

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/termfx/gdtk/diag"
)

// ContentHash returns the cache hash of source bytes.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// FileResult is one file's cached analysis output.
type FileResult struct {
	Path         string            `json:"path"`
	Hash         string            `json:"hash"`
	Diagnostics  []diag.Diagnostic `json:"diagnostics"`
	Dependencies []string          `json:"dependencies"`
	CachedAt     time.Time         `json:"cached_at"`
}

// DiagnosticCache maps (path, content hash) to analysis results.
// Entries are published atomically after a per-file task completes;
// concurrent readers see either the old entry or the new one.
type DiagnosticCache struct {
	entries sync.Map // cacheKey -> *FileResult
}

type cacheKey struct {
	path string
	hash string
}

// NewDiagnosticCache creates an empty cache.
func NewDiagnosticCache() *DiagnosticCache {
	return &DiagnosticCache{}
}

// Get returns the entry for (path, hash), or nil.
func (c *DiagnosticCache) Get(path, hash string) *FileResult {
	if v, ok := c.entries.Load(cacheKey{path, hash}); ok {
		return v.(*FileResult)
	}
	return nil
}

// Put publishes a result.
func (c *DiagnosticCache) Put(result *FileResult) {
	c.entries.Store(cacheKey{result.Path, result.Hash}, result)
}

// InvalidatePath drops every entry for path, any hash.
func (c *DiagnosticCache) InvalidatePath(path string) {
	c.entries.Range(func(k, _ any) bool {
		if k.(cacheKey).path == path {
			c.entries.Delete(k)
		}
		return true
	})
}

// Entries snapshots the cache for persistence.
func (c *DiagnosticCache) Entries() []*FileResult {
	var out []*FileResult
	c.entries.Range(func(_, v any) bool {
		out = append(out, v.(*FileResult))
		return true
	})
	return out
}
