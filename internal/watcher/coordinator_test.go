package watcher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/pydeps/internal/scanner"
)

// Test Plan for WatchCoordinator:
// - the initial scan always reports, marked Initial
// - a file change invalidates the changed paths and rescans
// - an unchanged package list is not reported
// - added and removed packages are diffed and sorted
// - an initial scan failure is returned and the watcher is stopped
// - a failed rescan keeps the previous package list
// - cancellation stops the watcher and returns ctx.Err()

type fakeFileWatcher struct {
	mu       sync.Mutex
	callback func([]string)
	started  chan struct{}
	stopped  bool
}

func newFakeFileWatcher() *fakeFileWatcher {
	return &fakeFileWatcher{started: make(chan struct{})}
}

func (f *fakeFileWatcher) Start(ctx context.Context, callback func(files []string)) error {
	f.mu.Lock()
	f.callback = callback
	f.mu.Unlock()
	close(f.started)
	return nil
}

func (f *fakeFileWatcher) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
	return nil
}

func (f *fakeFileWatcher) Pause()  {}
func (f *fakeFileWatcher) Resume() {}

func (f *fakeFileWatcher) fire(files ...string) {
	f.mu.Lock()
	cb := f.callback
	f.mu.Unlock()
	cb(files)
}

func (f *fakeFileWatcher) isStopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

type fakeCache struct {
	mu          sync.Mutex
	invalidated []string
}

func (c *fakeCache) Invalidate(paths ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, paths...)
}

// scriptedScanner returns the queued package lists in order, repeating the last.
type scriptedScanner struct {
	mu    sync.Mutex
	lists [][]string
	errs  []error
	calls int
}

func (s *scriptedScanner) ScanProject(ctx context.Context) (*scanner.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := min(s.calls, len(s.lists)-1)
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	return &scanner.Report{ID: "r", Packages: s.lists[i]}, nil
}

func TestWatchCoordinator_ReportsChanges(t *testing.T) {
	t.Parallel()

	files := newFakeFileWatcher()
	cache := &fakeCache{}
	scans := &scriptedScanner{lists: [][]string{
		{"requests", "yaml"},
		{"requests", "yaml"},
		{"numpy", "requests"},
	}}

	changes := make(chan PackageChange, 10)
	c := NewWatchCoordinator(files, scans, cache, func(pc PackageChange) { changes <- pc })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	initial := <-changes
	assert.True(t, initial.Initial)
	assert.Equal(t, []string{"requests", "yaml"}, initial.Added)
	assert.Empty(t, initial.Removed)

	<-files.started

	// Same package list: no report.
	files.fire("/proj/a.py")
	select {
	case pc := <-changes:
		t.Fatalf("unexpected change %+v", pc)
	case <-time.After(50 * time.Millisecond):
	}

	files.fire("/proj/b.py", "/proj/c.py")
	pc := <-changes
	assert.False(t, pc.Initial)
	assert.Equal(t, []string{"numpy"}, pc.Added)
	assert.Equal(t, []string{"yaml"}, pc.Removed)

	assert.Equal(t, []string{"/proj/a.py", "/proj/b.py", "/proj/c.py"}, cache.invalidated)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.True(t, files.isStopped())
}

func TestWatchCoordinator_InitialScanFailure(t *testing.T) {
	t.Parallel()

	files := newFakeFileWatcher()
	boom := errors.New("boom")
	scans := &scriptedScanner{lists: [][]string{nil}, errs: []error{boom}}

	c := NewWatchCoordinator(files, scans, nil, nil)
	err := c.Start(context.Background())

	assert.ErrorIs(t, err, boom)
	assert.True(t, files.isStopped())
}

func TestWatchCoordinator_FailedRescanKeepsState(t *testing.T) {
	t.Parallel()

	files := newFakeFileWatcher()
	scans := &scriptedScanner{
		lists: [][]string{{"flask"}, nil, {"flask", "jinja2"}},
		errs:  []error{nil, errors.New("transient")},
	}

	changes := make(chan PackageChange, 10)
	c := NewWatchCoordinator(files, scans, nil, func(pc PackageChange) { changes <- pc })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Start(ctx)

	<-changes
	<-files.started

	files.fire("/proj/app.py")
	files.fire("/proj/app.py")

	pc := <-changes
	assert.Equal(t, []string{"jinja2"}, pc.Added)
	assert.Empty(t, pc.Removed)
}

func TestDiffPackages(t *testing.T) {
	t.Parallel()

	added, removed := diffPackages([]string{"a", "b", "c"}, []string{"b", "d", "c", "e"})
	assert.Equal(t, []string{"d", "e"}, added)
	assert.Equal(t, []string{"a"}, removed)

	added, removed = diffPackages(nil, nil)
	assert.Empty(t, added)
	assert.Empty(t, removed)
}

func TestScanFunc(t *testing.T) {
	t.Parallel()

	var fn ProjectScanner = ScanFunc(func(ctx context.Context) (*scanner.Report, error) {
		return &scanner.Report{ID: "x"}, nil
	})
	report, err := fn.ScanProject(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "x", report.ID)
}
