// Package models defines the gorm schema for the persisted
// incremental-analysis state.
package models

import (
	"time"

	"gorm.io/datatypes"
)

// CacheEntry persists one file's analysis result, keyed by project,
// path and content hash. Diagnostics and dependencies are stored as
// JSON exactly as they cross the wire.
type CacheEntry struct {
	ID uint `gorm:"primaryKey"`

	ProjectKey  string `gorm:"type:varchar(255);index:idx_cache_lookup"`
	ToolVersion string `gorm:"type:varchar(50);index"`
	Path        string `gorm:"type:varchar(512);index:idx_cache_lookup"`
	Hash        string `gorm:"type:varchar(64);index:idx_cache_lookup"` // SHA256 of source bytes

	Diagnostics  datatypes.JSON `gorm:"type:jsonb"`
	Dependencies datatypes.JSON `gorm:"type:jsonb"`

	CachedAt  time.Time
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// DependencyEdge persists one forward edge of the dependency graph.
// The reverse direction is rebuilt on load.
type DependencyEdge struct {
	ID uint `gorm:"primaryKey"`

	ProjectKey string `gorm:"type:varchar(255);index"`
	FromPath   string `gorm:"type:varchar(512);index"`
	ToPath     string `gorm:"type:varchar(512);index"`
}

// AnalysisRun records one batch for reporting and retention.
type AnalysisRun struct {
	ID         string    `gorm:"primaryKey;type:varchar(36)"` // UUID
	ProjectKey string    `gorm:"type:varchar(255);index"`
	StartedAt  time.Time `gorm:"autoCreateTime"`

	FilesTotal     int `gorm:"default:0"`
	FilesAnalyzed  int `gorm:"default:0"`
	FilesFromCache int `gorm:"default:0"`
	ErrorCount     int `gorm:"default:0"`
	WarningCount   int `gorm:"default:0"`

	DurationMS int64 `gorm:"default:0"`
}

// TableName customizations for cleaner names.
func (CacheEntry) TableName() string     { return "cache_entries" }
func (DependencyEdge) TableName() string { return "dependency_edges" }
func (AnalysisRun) TableName() string    { return "analysis_runs" }
