package watcher

import (
	"context"
	"log"
	"sync"

	"github.com/mvp-joe/pydeps/internal/imports"
	"github.com/mvp-joe/pydeps/internal/scanner"
)

// WatchCoordinator routes file changes to rescans and reports package list changes.
type WatchCoordinator struct {
	files    FileWatcher
	scanner  ProjectScanner
	cache    CacheInvalidator
	onChange func(PackageChange)

	mu       sync.Mutex // Serializes rescans
	packages []string   // Package list of the last successful scan
	scanned  bool
}

// NewWatchCoordinator creates a new watch coordinator. cache may be nil.
func NewWatchCoordinator(
	files FileWatcher,
	projectScanner ProjectScanner,
	cache CacheInvalidator,
	onChange func(PackageChange),
) *WatchCoordinator {
	return &WatchCoordinator{
		files:    files,
		scanner:  projectScanner,
		cache:    cache,
		onChange: onChange,
	}
}

// Start runs an initial scan, then rescans on every debounced batch of file
// changes. Blocks until context is cancelled.
func (c *WatchCoordinator) Start(ctx context.Context) error {
	if err := c.rescan(ctx, nil); err != nil {
		c.cleanup()
		return err
	}

	if err := c.files.Start(ctx, func(files []string) {
		c.handleFileChange(ctx, files)
	}); err != nil {
		c.cleanup()
		return err
	}

	<-ctx.Done()
	c.cleanup()
	return ctx.Err()
}

// cleanup stops the file watcher.
func (c *WatchCoordinator) cleanup() {
	if err := c.files.Stop(); err != nil {
		log.Printf("Warning: file watcher stop failed: %v", err)
	}
}

// handleFileChange processes file change events from the file watcher.
func (c *WatchCoordinator) handleFileChange(ctx context.Context, files []string) {
	if len(files) == 0 {
		return
	}

	log.Printf("Rescanning after %d file change(s)...", len(files))

	if err := c.rescan(ctx, files); err != nil && ctx.Err() == nil {
		log.Printf("Error: rescan failed: %v", err)
	}
}

// rescan invalidates changed files and scans the project, calling onChange
// on the first scan and whenever the package list differs.
func (c *WatchCoordinator) rescan(ctx context.Context, changed []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cache != nil && len(changed) > 0 {
		c.cache.Invalidate(changed...)
	}

	report, err := c.scanner.ScanProject(ctx)
	if err != nil {
		return err
	}

	added, removed := diffPackages(c.packages, report.Packages)
	initial := !c.scanned
	c.packages = report.Packages
	c.scanned = true

	if c.onChange != nil && (initial || len(added) > 0 || len(removed) > 0) {
		c.onChange(PackageChange{Report: report, Added: added, Removed: removed, Initial: initial})
	}
	return nil
}

// diffPackages returns the sorted names present only in next and only in prev.
func diffPackages(prev, next []string) (added, removed []string) {
	before := imports.NewNameSet(prev...)
	after := imports.NewNameSet(next...)

	addedSet := make(imports.NameSet)
	for name := range after {
		if !before.Has(name) {
			addedSet.Add(name)
		}
	}
	removedSet := make(imports.NameSet)
	for name := range before {
		if !after.Has(name) {
			removedSet.Add(name)
		}
	}

	return addedSet.Sorted(), removedSet.Sorted()
}

var _ ProjectScanner = ScanFunc(nil)

var _ CacheInvalidator = (*scanner.ResultCache)(nil)
