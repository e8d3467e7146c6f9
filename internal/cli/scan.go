package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mvp-joe/pydeps/internal/config"
	"github.com/mvp-joe/pydeps/internal/graph"
	"github.com/mvp-joe/pydeps/internal/scanner"
	"github.com/mvp-joe/pydeps/internal/storage"
)

var (
	scanQuiet        bool
	scanFormat       string
	scanSave         bool
	scanInterpreters bool
	scanGraphFile    string
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan [ROOT|SCRIPT]",
	Short: "Find the third-party packages a Python project imports",
	Long: `Scan discovers the Python sources of a project (or takes a single script),
extracts their imports concurrently and prints the packages the project
depends on. Standard-library modules and modules found inside the project are
listed separately.

Files that cannot be parsed are reported and skipped; they never stop the scan.

Examples:
  # Scan the current directory
  pydeps scan

  # Scan one script, printing JSON
  pydeps scan app/main.py --format json

  # Scan and record the result in the project's history
  pydeps scan ~/code/tool --save

  # Export the import graph (.dot for Graphviz, anything else for JSON)
  pydeps scan --graph deps.dot`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().BoolVarP(&scanQuiet, "quiet", "q", false, "Suppress the progress bar and status lines")
	scanCmd.Flags().StringVarP(&scanFormat, "format", "f", FormatText, "Output format: text, json or yaml")
	scanCmd.Flags().BoolVar(&scanSave, "save", false, "Record the scan in the history database")
	scanCmd.Flags().BoolVar(&scanInterpreters, "interpreters", false, "List Python interpreters found inside the project")
	scanCmd.Flags().StringVar(&scanGraphFile, "graph", "", "Write the import graph to this file")
}

func runScan(cmd *cobra.Command, args []string) error {
	if err := validateFormat(scanFormat); err != nil {
		return err
	}

	target := targetArg(args)
	root, err := targetRoot(target)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	var progress scanner.ProgressReporter = &scanner.NoOpProgressReporter{}
	if !scanQuiet {
		progress = NewCLIProgressReporter(cmd.ErrOrStderr(), false)
	}

	ps, err := newProjectScanner(cfg, progress)
	if err != nil {
		return err
	}
	defer ps.Close()

	ctx, cancel := signalContext()
	defer cancel()

	report, err := ps.ScanRoot(ctx, target)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	g, err := graph.Build(report)
	if err != nil {
		return fmt.Errorf("failed to build import graph: %w", err)
	}

	out := cmd.OutOrStdout()
	if scanFormat == FormatText {
		renderReport(out, report, g.Modules())
	} else if err := writeStructured(out, scanFormat, report); err != nil {
		return err
	}

	status := cmd.ErrOrStderr()
	if scanQuiet {
		status = io.Discard
	}

	if scanInterpreters {
		if err := printInterpreters(status, report.Root); err != nil {
			return err
		}
	}

	if scanGraphFile != "" {
		if err := exportGraph(g, scanGraphFile); err != nil {
			return err
		}
		color.New(color.FgGreen).Fprintf(status, "✓ Import graph written to %s\n", scanGraphFile)
	}

	if scanSave {
		pruned, err := saveReport(cfg, report)
		if err != nil {
			return err
		}
		color.New(color.FgGreen).Fprintf(status, "✓ Saved scan %s", report.ID)
		if pruned > 0 {
			fmt.Fprintf(status, " (pruned %d old scans)", pruned)
		}
		fmt.Fprintln(status)
	}

	return nil
}

// saveReport records report in the project's history database and drops
// scans beyond the configured retention.
func saveReport(cfg *config.Config, report *scanner.Report) (int64, error) {
	db, err := storage.Open(cfg.DBPath(report.Root))
	if err != nil {
		return 0, fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()

	writer := storage.NewScanWriter(db)
	if err := writer.WriteReport(report); err != nil {
		return 0, fmt.Errorf("failed to save scan: %w", err)
	}

	pruned, err := writer.Prune(report.Root, cfg.Storage.KeepRuns)
	if err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}
	return pruned, nil
}

// exportGraph writes Graphviz DOT for .dot/.gv paths and JSON otherwise.
func exportGraph(g *graph.ImportGraph, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".dot", ".gv":
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		if err := g.WriteDOT(f); err != nil {
			f.Close()
			return fmt.Errorf("failed to write graph: %w", err)
		}
		return f.Close()
	}

	if err := graph.Save(g.Data(), path); err != nil {
		return fmt.Errorf("failed to write graph: %w", err)
	}
	return nil
}

func printInterpreters(w io.Writer, root string) error {
	found, err := scanner.FindInterpreters(root)
	if err != nil {
		return fmt.Errorf("failed to search for interpreters: %w", err)
	}
	if len(found) == 0 {
		color.New(color.FgCyan).Fprintln(w, "No project-local Python interpreters found.")
		return nil
	}
	color.New(color.FgCyan).Fprintln(w, "Python interpreters:")
	for _, path := range found {
		fmt.Fprintf(w, "  - %s\n", relativeTo(root, path))
	}
	return nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			log.Println("Received interrupt, shutting down...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}
