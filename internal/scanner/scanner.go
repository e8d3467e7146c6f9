// Package scanner runs the import extractor over many files of a project and
// aggregates the names into the set of packages the project depends on.
package scanner

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mvp-joe/pydeps/internal/imports"
)

// Options controls a Scanner.
type Options struct {
	Workers       int
	ExcludeLocal  bool
	ExcludeStdlib bool
}

// FileResult is the outcome for one scanned file.
type FileResult struct {
	Path    string   `json:"path" yaml:"path"`
	Imports []string `json:"imports" yaml:"imports"`
	Failure string   `json:"failure,omitempty" yaml:"failure,omitempty"`
	Error   string   `json:"error,omitempty" yaml:"error,omitempty"`
	Cached  bool     `json:"cached" yaml:"cached"`
	Size    int64    `json:"size" yaml:"size"`
}

// Report summarizes one scan of a project.
type Report struct {
	ID         string       `json:"id" yaml:"id"`
	Root       string       `json:"root" yaml:"root"`
	StartedAt  time.Time    `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time    `json:"finished_at" yaml:"finished_at"`
	Files      []FileResult `json:"files" yaml:"files"`

	// Packages is the union of imported names after the stdlib/local filters.
	Packages []string `json:"packages" yaml:"packages"`
	// Stdlib and Local list the names the filters removed.
	Stdlib []string `json:"stdlib,omitempty" yaml:"stdlib,omitempty"`
	Local  []string `json:"local,omitempty" yaml:"local,omitempty"`

	FailedFiles int   `json:"failed_files" yaml:"failed_files"`
	CachedFiles int   `json:"cached_files" yaml:"cached_files"`
	Bytes       int64 `json:"bytes" yaml:"bytes"`
}

// Duration returns how long the scan took.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Scanner analyzes project files concurrently with a bounded worker pool.
type Scanner struct {
	extractor *imports.Extractor
	opts      Options
	cache     *ResultCache
	metrics   *Metrics
	progress  ProgressReporter
}

// New creates a Scanner. cache, metrics and progress may be nil.
func New(
	extractor *imports.Extractor,
	opts Options,
	cache *ResultCache,
	metrics *Metrics,
	progress ProgressReporter,
) *Scanner {
	if extractor == nil {
		extractor = imports.NewExtractor(nil)
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if progress == nil {
		progress = &NoOpProgressReporter{}
	}

	return &Scanner{
		extractor: extractor,
		opts:      opts,
		cache:     cache,
		metrics:   metrics,
		progress:  progress,
	}
}

// Scan analyzes files, each at most once, and aggregates their imports.
// root anchors local-module resolution. Per-file failures are recorded in
// the report; only context cancellation aborts the scan.
func (s *Scanner) Scan(ctx context.Context, root string, files []string) (*Report, error) {
	report := &Report{
		ID:        uuid.New().String(),
		Root:      root,
		StartedAt: time.Now(),
	}

	files = dedupe(files)
	s.progress.OnScanStart(len(files))

	results := make([]FileResult, len(files))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < min(s.opts.Workers, max(len(files), 1)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = s.scanFile(files[i])
				s.progress.OnFileScanned(files[i])
			}
		}()
	}

dispatch:
	for i := range files {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report.Files = results
	s.aggregate(report)
	report.FinishedAt = time.Now()

	if s.metrics != nil {
		s.metrics.recordScan(report.Duration())
	}
	s.progress.OnScanComplete(report)

	return report, nil
}

// scanFile serves path from the cache when its size and mtime are unchanged,
// otherwise runs the extractor.
func (s *Scanner) scanFile(path string) FileResult {
	info, statErr := os.Stat(path)

	if s.cache != nil && statErr == nil {
		if names, ok := s.cache.Lookup(path, info); ok {
			fr := FileResult{Path: path, Imports: names.Sorted(), Cached: true, Size: info.Size()}
			s.record(fr)
			return fr
		}
	}

	res := s.extractor.Analyze(path)
	fr := FileResult{
		Path:    path,
		Imports: res.Names.Sorted(),
		Failure: imports.FailureClass(res.Err),
		Size:    res.Size,
	}
	if res.Err != nil {
		fr.Error = res.Err.Error()
	} else if s.cache != nil && statErr == nil {
		s.cache.Store(path, info, res.Names)
	}

	s.record(fr)
	return fr
}

func (s *Scanner) record(fr FileResult) {
	if s.metrics != nil {
		s.metrics.recordFile(fr)
	}
}

// aggregate fills the report's package lists and counters from its files.
// A name stays a package if any file imports it as a non-local, non-stdlib name.
func (s *Scanner) aggregate(report *Report) {
	resolver := newLocalResolver(report.Root)

	packages := make(imports.NameSet)
	stdlib := make(imports.NameSet)
	local := make(imports.NameSet)

	for _, fr := range report.Files {
		report.Bytes += fr.Size
		if fr.Failure != "" {
			report.FailedFiles++
		}
		if fr.Cached {
			report.CachedFiles++
		}

		dir := filepath.Dir(fr.Path)
		for _, name := range fr.Imports {
			switch {
			case s.opts.ExcludeStdlib && IsStdlib(name):
				stdlib.Add(name)
			case s.opts.ExcludeLocal && resolver.IsLocal(name, dir):
				local.Add(name)
			default:
				packages.Add(name)
			}
		}
	}

	for name := range packages {
		delete(local, name)
	}

	report.Packages = packages.Sorted()
	report.Stdlib = stdlib.Sorted()
	report.Local = local.Sorted()
}

func dedupe(files []string) []string {
	seen := make(map[string]bool, len(files))
	out := make([]string, 0, len(files))
	for _, f := range files {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	sort.Strings(out)
	return out
}
