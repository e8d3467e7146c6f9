// Package watcher rescans a Python project when its sources change.
package watcher

import (
	"context"

	"github.com/mvp-joe/pydeps/internal/scanner"
)

// FileWatcher monitors source files for changes with debouncing and pause/resume support.
type FileWatcher interface {
	// Start begins watching source directories, calling callback with debounced file changes.
	Start(ctx context.Context, callback func(files []string)) error

	// Stop stops the file watcher and cleans up resources.
	Stop() error

	// Pause stops firing callbacks but continues accumulating events.
	Pause()

	// Resume resumes firing callbacks. If events accumulated during pause, fires immediately.
	Resume()
}

// ProjectScanner produces a fresh report for the watched project.
type ProjectScanner interface {
	ScanProject(ctx context.Context) (*scanner.Report, error)
}

// ScanFunc adapts a function to ProjectScanner.
type ScanFunc func(ctx context.Context) (*scanner.Report, error)

// ScanProject calls f(ctx).
func (f ScanFunc) ScanProject(ctx context.Context) (*scanner.Report, error) {
	return f(ctx)
}

// CacheInvalidator drops memoized results for changed files.
type CacheInvalidator interface {
	Invalidate(paths ...string)
}

// PackageChange describes a rescan whose package list differs from the last one.
type PackageChange struct {
	Report  *scanner.Report
	Added   []string
	Removed []string
	// Initial is set for the first scan, which always reports.
	Initial bool
}
