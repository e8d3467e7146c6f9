package scanner

import (
	"bytes"
	"context"
	"log"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/pydeps/internal/imports"
)

// Test Plan for Scanner:
// - project fixture yields third-party packages only, with stdlib and local split out
// - malformed files are counted and classified without aborting the scan
// - filters can be disabled
// - duplicate input paths are scanned once
// - unchanged files are served from the cache on a second scan
// - modified files miss the cache and are re-analyzed
// - failed analyses are never cached
// - progress callbacks fire once per file
// - cancelled context aborts the scan
// - every report gets a fresh ID

const projectFixture = "../../testdata/python/project"

func projectFiles(t *testing.T, root string) []string {
	t.Helper()
	return []string{
		filepath.Join(root, "main.py"),
		filepath.Join(root, "bad.py"),
		filepath.Join(root, "app", "__init__.py"),
		filepath.Join(root, "app", "models.py"),
		filepath.Join(root, "app", "views.py"),
	}
}

func quietExtractor() (*imports.Extractor, *bytes.Buffer) {
	var buf bytes.Buffer
	return imports.NewExtractor(log.New(&buf, "", 0)), &buf
}

// copyProject copies the project fixture into a temp dir so tests may modify it.
func copyProject(t *testing.T) string {
	t.Helper()
	dst := t.TempDir()
	err := filepath.Walk(projectFixture, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(projectFixture, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0644)
	})
	require.NoError(t, err)
	return dst
}

func TestScan_ProjectFixture(t *testing.T) {
	t.Parallel()

	root, err := filepath.Abs(projectFixture)
	require.NoError(t, err)

	extractor, logs := quietExtractor()
	s := New(extractor, Options{Workers: 3, ExcludeLocal: true, ExcludeStdlib: true}, nil, nil, nil)

	report, err := s.Scan(context.Background(), root, projectFiles(t, root))
	require.NoError(t, err)

	assert.Equal(t, []string{"flask", "requests", "sqlalchemy", "yaml"}, report.Packages)
	assert.Equal(t, []string{"json", "os"}, report.Stdlib)
	assert.Equal(t, []string{"app", "models", "views"}, report.Local)

	assert.Len(t, report.Files, 5)
	assert.Equal(t, 1, report.FailedFiles)
	assert.Equal(t, 0, report.CachedFiles)
	assert.Positive(t, report.Bytes)
	assert.False(t, report.FinishedAt.Before(report.StartedAt))

	// Files are reported in lexical order.
	for i := 1; i < len(report.Files); i++ {
		assert.Less(t, report.Files[i-1].Path, report.Files[i].Path)
	}

	var bad FileResult
	for _, fr := range report.Files {
		if filepath.Base(fr.Path) == "bad.py" {
			bad = fr
		}
	}
	assert.Equal(t, "malformed", bad.Failure)
	assert.NotEmpty(t, bad.Error)
	assert.Empty(t, bad.Imports)

	assert.Contains(t, logs.String(), "bad.py")
}

func TestScan_FiltersDisabled(t *testing.T) {
	t.Parallel()

	root, err := filepath.Abs(projectFixture)
	require.NoError(t, err)

	extractor, _ := quietExtractor()
	s := New(extractor, Options{Workers: 2}, nil, nil, nil)

	report, err := s.Scan(context.Background(), root, projectFiles(t, root))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"app", "flask", "json", "models", "os", "requests", "sqlalchemy", "views", "yaml",
	}, report.Packages)
	assert.Empty(t, report.Stdlib)
	assert.Empty(t, report.Local)
}

func TestScan_DeduplicatesInput(t *testing.T) {
	t.Parallel()

	root, err := filepath.Abs(projectFixture)
	require.NoError(t, err)
	main := filepath.Join(root, "main.py")

	extractor, _ := quietExtractor()
	s := New(extractor, Options{Workers: 4}, nil, nil, nil)

	report, err := s.Scan(context.Background(), root, []string{main, main, main})
	require.NoError(t, err)
	assert.Len(t, report.Files, 1)
}

func TestScan_CacheServesUnchangedFiles(t *testing.T) {
	t.Parallel()

	root := copyProject(t)
	cache, err := NewResultCache(100, time.Hour)
	require.NoError(t, err)
	defer cache.Close()

	extractor, _ := quietExtractor()
	s := New(extractor, Options{Workers: 2, ExcludeLocal: true, ExcludeStdlib: true}, cache, nil, nil)

	first, err := s.Scan(context.Background(), root, projectFiles(t, root))
	require.NoError(t, err)
	assert.Equal(t, 0, first.CachedFiles)

	second, err := s.Scan(context.Background(), root, projectFiles(t, root))
	require.NoError(t, err)

	// bad.py failed, so it is analyzed again.
	assert.Equal(t, 4, second.CachedFiles)
	assert.Equal(t, 1, second.FailedFiles)
	assert.Equal(t, first.Packages, second.Packages)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestScan_CacheMissesModifiedFile(t *testing.T) {
	t.Parallel()

	root := copyProject(t)
	cache, err := NewResultCache(100, time.Hour)
	require.NoError(t, err)
	defer cache.Close()

	extractor, _ := quietExtractor()
	s := New(extractor, Options{Workers: 1, ExcludeStdlib: true, ExcludeLocal: true}, cache, nil, nil)

	files := projectFiles(t, root)
	_, err = s.Scan(context.Background(), root, files)
	require.NoError(t, err)

	main := filepath.Join(root, "main.py")
	require.NoError(t, os.WriteFile(main, []byte("import numpy\nimport pandas as pd\n"), 0644))
	// Force a different mtime even on coarse filesystems.
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(main, future, future))

	report, err := s.Scan(context.Background(), root, files)
	require.NoError(t, err)

	assert.Equal(t, 3, report.CachedFiles)
	assert.Contains(t, report.Packages, "numpy")
	assert.Contains(t, report.Packages, "pandas")
	assert.NotContains(t, report.Packages, "requests")
}

func TestScan_FailuresAreNotCached(t *testing.T) {
	t.Parallel()

	root := copyProject(t)
	cache, err := NewResultCache(100, time.Hour)
	require.NoError(t, err)
	defer cache.Close()

	extractor, _ := quietExtractor()
	s := New(extractor, Options{Workers: 1}, cache, nil, nil)

	bad := filepath.Join(root, "bad.py")
	_, err = s.Scan(context.Background(), root, []string{bad})
	require.NoError(t, err)

	info, err := os.Stat(bad)
	require.NoError(t, err)
	_, ok := cache.Lookup(bad, info)
	assert.False(t, ok)
}

type recordingProgress struct {
	mu        sync.Mutex
	total     int
	scanned   []string
	completed *Report
}

func (p *recordingProgress) OnScanStart(total int) { p.total = total }

func (p *recordingProgress) OnFileScanned(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scanned = append(p.scanned, path)
}

func (p *recordingProgress) OnScanComplete(report *Report) { p.completed = report }

func TestScan_ReportsProgress(t *testing.T) {
	t.Parallel()

	root, err := filepath.Abs(projectFixture)
	require.NoError(t, err)

	progress := &recordingProgress{}
	extractor, _ := quietExtractor()
	s := New(extractor, Options{Workers: 4}, nil, nil, progress)

	files := projectFiles(t, root)
	report, err := s.Scan(context.Background(), root, files)
	require.NoError(t, err)

	assert.Equal(t, len(files), progress.total)
	assert.ElementsMatch(t, files, progress.scanned)
	assert.Same(t, report, progress.completed)
}

func TestScan_CancelledContext(t *testing.T) {
	t.Parallel()

	root, err := filepath.Abs(projectFixture)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	extractor, _ := quietExtractor()
	s := New(extractor, Options{Workers: 2}, nil, nil, nil)

	report, err := s.Scan(ctx, root, projectFiles(t, root))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, report)
}

func TestScan_EmptyFileList(t *testing.T) {
	t.Parallel()

	s := New(nil, Options{}, nil, nil, nil)
	report, err := s.Scan(context.Background(), t.TempDir(), nil)
	require.NoError(t, err)

	assert.Empty(t, report.Files)
	assert.Empty(t, report.Packages)
	assert.NotEmpty(t, report.ID)
}
