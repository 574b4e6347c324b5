package core

import (
	"fmt"
	"os"
	"time"
)

// AtomicWriteConfig controls write-back behavior.
type AtomicWriteConfig struct {
	UseFsync    bool          // Force fsync for durability
	LockTimeout time.Duration // Max time to wait for another writer
	TempSuffix  string        // Suffix for temporary files
}

// DefaultAtomicConfig favors throughput; formatting a project touches
// many small files.
func DefaultAtomicConfig() AtomicWriteConfig {
	return AtomicWriteConfig{
		UseFsync:    false,
		LockTimeout: 5 * time.Second,
		TempSuffix:  ".gdtk.tmp",
	}
}

// AtomicWriter replaces file contents via temp-file-and-rename, with a
// lock file warding off concurrent gdtk processes.
type AtomicWriter struct {
	config AtomicWriteConfig
}

// NewAtomicWriter creates a writer.
func NewAtomicWriter(config AtomicWriteConfig) *AtomicWriter {
	if config.TempSuffix == "" {
		config.TempSuffix = ".gdtk.tmp"
	}
	if config.LockTimeout <= 0 {
		config.LockTimeout = 5 * time.Second
	}
	return &AtomicWriter{config: config}
}

// WriteFile atomically replaces path's contents, preserving its mode.
func (aw *AtomicWriter) WriteFile(path, content string) error {
	release, err := aw.acquireLock(path)
	if err != nil {
		return fmt.Errorf("failed to lock %s: %w", path, err)
	}
	defer release()

	var mode os.FileMode = 0o644
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode()
	}

	tempPath := path + aw.config.TempSuffix
	tempFile, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tempFile.WriteString(content); err != nil {
		tempFile.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to write content: %w", err)
	}
	if aw.config.UseFsync {
		if err := tempFile.Sync(); err != nil {
			tempFile.Close()
			os.Remove(tempPath)
			return fmt.Errorf("failed to sync: %w", err)
		}
	}
	tempFile.Close()

	// The rename is the atomic step.
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename into place: %w", err)
	}
	return nil
}

// acquireLock creates path's lock file exclusively, waiting out other
// writers up to the configured timeout. Lock files older than the
// timeout are treated as leftovers from a dead process.
func (aw *AtomicWriter) acquireLock(path string) (func(), error) {
	lockPath := path + ".lock"
	deadline := time.Now().Add(aw.config.LockTimeout)
	for {
		lockFile, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			fmt.Fprintf(lockFile, "%d\n", os.Getpid())
			lockFile.Close()
			return func() { os.Remove(lockPath) }, nil
		}
		if !os.IsExist(err) {
			return nil, err
		}
		if info, statErr := os.Stat(lockPath); statErr == nil &&
			time.Since(info.ModTime()) > aw.config.LockTimeout {
			os.Remove(lockPath)
			continue
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("timeout waiting for lock on %s", path)
		}
		time.Sleep(50 * time.Millisecond)
	}
}
