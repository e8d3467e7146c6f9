package scanner

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/pydeps/internal/imports"
)

// Test Plan for Metrics:
// - a scan counts every file, failures by class, and cache hits
// - scan duration is observed once per scan
// - the handler serves the text exposition format

func TestMetrics_RecordsScan(t *testing.T) {
	t.Parallel()

	root := copyProject(t)
	cache, err := NewResultCache(100, time.Hour)
	require.NoError(t, err)
	defer cache.Close()

	metrics := NewMetrics()
	s := New(imports.NewExtractor(log.New(io.Discard, "", 0)), Options{Workers: 2}, cache, metrics, nil)

	for i := 0; i < 2; i++ {
		_, err := s.Scan(context.Background(), root, projectFiles(t, root))
		require.NoError(t, err)
	}

	assert.Equal(t, 10.0, testutil.ToFloat64(metrics.filesScanned))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.failures.WithLabelValues("malformed")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.failures.WithLabelValues("unreadable")))
	assert.Equal(t, 4.0, testutil.ToFloat64(metrics.cacheHits))
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.scanDuration))
}

func TestMetrics_UnreadableFile(t *testing.T) {
	t.Parallel()

	metrics := NewMetrics()
	s := New(imports.NewExtractor(log.New(io.Discard, "", 0)), Options{Workers: 1}, nil, metrics, nil)

	dir := t.TempDir()
	_, err := s.Scan(context.Background(), dir, []string{filepath.Join(dir, "missing.py")})
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.failures.WithLabelValues("unreadable")))
}

func TestMetrics_Handler(t *testing.T) {
	t.Parallel()

	metrics := NewMetrics()
	metrics.recordFile(FileResult{Path: "a.py"})

	srv := httptest.NewServer(metrics.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "pydeps_files_scanned_total 1")
}
