package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/mvp-joe/pydeps/internal/config"
	"github.com/mvp-joe/pydeps/internal/discovery"
	"github.com/mvp-joe/pydeps/internal/imports"
	"github.com/mvp-joe/pydeps/internal/scanner"
)

// projectScanner discovers and scans Python projects. One instance shares its
// extractor, result cache and metrics across every scan it runs.
type projectScanner struct {
	cfg       *config.Config
	extractor *imports.Extractor
	cache     *scanner.ResultCache
	metrics   *scanner.Metrics
	progress  scanner.ProgressReporter
}

// newProjectScanner creates a projectScanner. progress may be nil.
func newProjectScanner(cfg *config.Config, progress scanner.ProgressReporter) (*projectScanner, error) {
	p := &projectScanner{
		cfg:       cfg,
		extractor: imports.NewExtractor(log.Default()),
		metrics:   scanner.NewMetrics(),
		progress:  progress,
	}

	if cfg.Cache.Enabled {
		cache, err := scanner.NewResultCache(cfg.Cache.MaxEntries, cfg.Cache.TTL)
		if err != nil {
			return nil, fmt.Errorf("failed to create result cache: %w", err)
		}
		p.cache = cache
	}

	return p, nil
}

// Close releases the result cache.
func (p *projectScanner) Close() {
	if p.cache != nil {
		p.cache.Close()
	}
}

// Analyze runs the extractor on a single file.
func (p *projectScanner) Analyze(path string) imports.Result {
	return p.extractor.Analyze(path)
}

// ScanRoot scans a project directory, or a single script whose directory then
// anchors local-module resolution.
func (p *projectScanner) ScanRoot(ctx context.Context, target string) (*scanner.Report, error) {
	root, files, err := p.collect(target)
	if err != nil {
		return nil, err
	}

	opts := scanner.Options{
		Workers:       p.cfg.Scan.Workers,
		ExcludeLocal:  p.cfg.Scan.ExcludeLocal,
		ExcludeStdlib: p.cfg.Scan.ExcludeStdlib,
	}
	return scanner.New(p.extractor, opts, p.cache, p.metrics, p.progress).Scan(ctx, root, files)
}

// collect resolves target to a scan root and the files to analyze.
func (p *projectScanner) collect(target string) (string, []string, error) {
	abs, err := filepath.Abs(target)
	if err != nil {
		return "", nil, fmt.Errorf("failed to resolve %s: %w", target, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %s", scanner.ErrScriptNotFound, abs)
	}

	if !info.IsDir() {
		if err := scanner.ValidateScript(abs); err != nil {
			return "", nil, err
		}
		return filepath.Dir(abs), []string{abs}, nil
	}

	fd, err := discovery.NewFileDiscovery(abs, p.cfg.Paths.Include, p.cfg.Paths.Ignore)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create file discovery: %w", err)
	}
	files, err := fd.DiscoverFiles()
	if err != nil {
		return "", nil, fmt.Errorf("failed to discover files: %w", err)
	}
	return abs, files, nil
}

// targetRoot returns the directory configuration is loaded from for a scan
// target: the target itself, or the directory of a script.
func targetRoot(target string) (string, error) {
	abs, err := filepath.Abs(target)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", target, err)
	}
	if info, err := os.Stat(abs); err == nil && !info.IsDir() {
		return filepath.Dir(abs), nil
	}
	return abs, nil
}

// targetArg returns the optional positional target, defaulting to the
// working directory.
func targetArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}
