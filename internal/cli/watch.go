package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mvp-joe/pydeps/internal/discovery"
	"github.com/mvp-joe/pydeps/internal/scanner"
	"github.com/mvp-joe/pydeps/internal/watcher"
)

var (
	watchMetricsAddr string
	watchDebounce    time.Duration
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch [ROOT]",
	Short: "Rescan a project whenever its Python sources change",
	Long: `Watch scans the project once, then rescans it each time Python files are
created, modified, renamed or removed. The package list is printed after the
first scan and again whenever it changes.

Unchanged files are served from the in-memory result cache, so rescans only
parse what changed.

Examples:
  pydeps watch
  pydeps watch ~/code/tool --metrics-addr :9090`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&watchMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 0, "Quiet period before rescanning (default from config)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	root, err := filepath.Abs(targetArg(args))
	if err != nil {
		return fmt.Errorf("failed to resolve root: %w", err)
	}
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("metrics-addr") {
		cfg.Watch.MetricsAddr = watchMetricsAddr
	}
	if cmd.Flags().Changed("debounce") {
		cfg.Watch.Debounce = watchDebounce
	}

	ps, err := newProjectScanner(cfg, nil)
	if err != nil {
		return err
	}
	defer ps.Close()

	fd, err := discovery.NewFileDiscovery(root, cfg.Paths.Include, cfg.Paths.Ignore)
	if err != nil {
		return fmt.Errorf("failed to create file discovery: %w", err)
	}

	fw, err := watcher.NewFileWatcher([]string{root}, watcher.Options{
		Extensions: cfg.SourceExtensions(),
		Debounce:   cfg.Watch.Debounce,
		SkipDir:    skipIgnoredDir(fd),
	})
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	if cfg.Watch.MetricsAddr != "" {
		stop := serveMetrics(cfg.Watch.MetricsAddr, ps.metrics.Handler())
		defer stop()
	}

	var cache watcher.CacheInvalidator
	if ps.cache != nil {
		cache = ps.cache
	}

	out := cmd.OutOrStdout()
	coordinator := watcher.NewWatchCoordinator(
		fw,
		watcher.ScanFunc(func(ctx context.Context) (*scanner.Report, error) {
			return ps.ScanRoot(ctx, root)
		}),
		cache,
		func(change watcher.PackageChange) { renderPackageChange(out, change) },
	)

	color.New(color.FgCyan).Fprintf(cmd.ErrOrStderr(), "Watching %s (Ctrl+C to stop)\n", root)
	if err := coordinator.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("watch failed: %w", err)
	}
	return nil
}

// skipIgnoredDir maps the discovery ignore rules onto the watcher's directory filter.
func skipIgnoredDir(fd *discovery.FileDiscovery) func(string) bool {
	return func(dir string) bool {
		rel, err := filepath.Rel(fd.RootDir(), dir)
		if err != nil || rel == "." {
			return false
		}
		return fd.IgnoresDir(filepath.ToSlash(rel))
	}
}

func renderPackageChange(w io.Writer, change watcher.PackageChange) {
	stamp := time.Now().Format("15:04:05")
	report := change.Report

	if change.Initial {
		color.New(color.FgGreen).Fprintf(w, "[%s] %d packages from %d files: %s\n",
			stamp, len(report.Packages), len(report.Files), joinOrNone(report.Packages))
		return
	}

	color.New(color.FgGreen).Fprintf(w, "[%s] package list changed (%d packages)\n", stamp, len(report.Packages))
	if len(change.Added) > 0 {
		color.New(color.FgGreen).Fprintf(w, "  + %s\n", strings.Join(change.Added, ", "))
	}
	if len(change.Removed) > 0 {
		color.New(color.FgRed).Fprintf(w, "  - %s\n", strings.Join(change.Removed, ", "))
	}
}

// serveMetrics serves handler at /metrics on addr until the returned stop
// function is called.
func serveMetrics(addr string, handler http.Handler) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("Serving metrics on http://%s/metrics", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Error: metrics server failed: %v", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Printf("Warning: metrics server shutdown failed: %v", err)
		}
	}
}
