package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableNames(t *testing.T) {
	assert.Equal(t, "cache_entries", CacheEntry{}.TableName())
	assert.Equal(t, "dependency_edges", DependencyEdge{}.TableName())
	assert.Equal(t, "analysis_runs", AnalysisRun{}.TableName())
}
