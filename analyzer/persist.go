package analyzer

import (
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"github.com/termfx/gdtk/diag"
	"github.com/termfx/gdtk/models"
)

// ToolVersion stamps persisted state; a mismatch on load erases and
// rebuilds the cache.
const ToolVersion = "0.3.0"

// SaveState persists the project's cache, dependency graph and run
// record under projectKey.
func SaveState(gdb *gorm.DB, projectKey string, p *Project, report *Report) error {
	return gdb.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_key = ?", projectKey).Delete(&models.CacheEntry{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_key = ?", projectKey).Delete(&models.DependencyEdge{}).Error; err != nil {
			return err
		}

		for _, entry := range p.Cache.Entries() {
			diagJSON, err := json.Marshal(entry.Diagnostics)
			if err != nil {
				return fmt.Errorf("marshal diagnostics for %s: %w", entry.Path, err)
			}
			depJSON, err := json.Marshal(entry.Dependencies)
			if err != nil {
				return fmt.Errorf("marshal dependencies for %s: %w", entry.Path, err)
			}
			row := &models.CacheEntry{
				ProjectKey:   projectKey,
				ToolVersion:  ToolVersion,
				Path:         entry.Path,
				Hash:         entry.Hash,
				Diagnostics:  diagJSON,
				Dependencies: depJSON,
				CachedAt:     entry.CachedAt,
			}
			if err := tx.Create(row).Error; err != nil {
				return err
			}
		}

		for from, tos := range p.Graph.Edges() {
			for _, to := range tos {
				edge := &models.DependencyEdge{ProjectKey: projectKey, FromPath: from, ToPath: to}
				if err := tx.Create(edge).Error; err != nil {
					return err
				}
			}
		}

		if report != nil {
			errs, warns, _ := report.Counts()
			run := &models.AnalysisRun{
				ID:             report.RunID,
				ProjectKey:     projectKey,
				FilesTotal:     len(report.Files),
				FilesAnalyzed:  len(report.Files) - report.FromCache,
				FilesFromCache: report.FromCache,
				ErrorCount:     errs,
				WarningCount:   warns,
				DurationMS:     report.Duration.Milliseconds(),
			}
			if err := tx.Create(run).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadState restores the cache and dependency graph for projectKey.
// Entries stamped with a different tool version are dropped wholesale
// and the cache starts cold.
func LoadState(gdb *gorm.DB, projectKey string, p *Project) error {
	var stale int64
	if err := gdb.Model(&models.CacheEntry{}).
		Where("project_key = ? AND tool_version <> ?", projectKey, ToolVersion).
		Count(&stale).Error; err != nil {
		return err
	}
	if stale > 0 {
		if err := gdb.Where("project_key = ?", projectKey).Delete(&models.CacheEntry{}).Error; err != nil {
			return err
		}
		if err := gdb.Where("project_key = ?", projectKey).Delete(&models.DependencyEdge{}).Error; err != nil {
			return err
		}
		return nil
	}

	var rows []models.CacheEntry
	if err := gdb.Where("project_key = ?", projectKey).Find(&rows).Error; err != nil {
		return err
	}
	for _, row := range rows {
		entry := &FileResult{Path: row.Path, Hash: row.Hash, CachedAt: row.CachedAt}
		if err := json.Unmarshal(row.Diagnostics, &entry.Diagnostics); err != nil {
			return fmt.Errorf("corrupt diagnostics for %s: %w", row.Path, err)
		}
		if len(row.Dependencies) > 0 {
			if err := json.Unmarshal(row.Dependencies, &entry.Dependencies); err != nil {
				return fmt.Errorf("corrupt dependencies for %s: %w", row.Path, err)
			}
		}
		// Restore the Name field dropped by the wire shape.
		for i := range entry.Diagnostics {
			entry.Diagnostics[i].Name = diag.CodeName(entry.Diagnostics[i].Code)
		}
		p.Cache.Put(entry)
	}

	var edges []models.DependencyEdge
	if err := gdb.Where("project_key = ?", projectKey).Find(&edges).Error; err != nil {
		return err
	}
	byFrom := map[string][]string{}
	for _, e := range edges {
		byFrom[e.FromPath] = append(byFrom[e.FromPath], e.ToPath)
	}
	for from, tos := range byFrom {
		p.Graph.SetDependencies(from, tos)
	}
	return nil
}
