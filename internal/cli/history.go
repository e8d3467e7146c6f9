package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/mvp-joe/pydeps/internal/storage"
)

var (
	historyLimit  int
	historyShow   string
	historyFiles  bool
	historyFormat string
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history [ROOT]",
	Short: "List scans recorded with 'pydeps scan --save'",
	Long: `History lists the scans stored for a project, newest first. Use --show to
print the packages of one scan, and --files to add its per-file imports.

Examples:
  pydeps history
  pydeps history --limit 5
  pydeps history --show latest --files`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "Maximum number of scans to list (0 lists all)")
	historyCmd.Flags().StringVar(&historyShow, "show", "", "Print the packages of the scan with this ID, or 'latest'")
	historyCmd.Flags().BoolVar(&historyFiles, "files", false, "With --show, also print per-file imports")
	historyCmd.Flags().StringVarP(&historyFormat, "format", "f", FormatText, "Output format: text, json or yaml")
}

// scanDetail is the structured output of --show.
type scanDetail struct {
	storage.ScanSummary `yaml:",inline"`
	Packages            []string              `json:"packages" yaml:"packages"`
	Stdlib              []string              `json:"stdlib,omitempty" yaml:"stdlib,omitempty"`
	Local               []string              `json:"local,omitempty" yaml:"local,omitempty"`
	FileRecords         []*storage.FileRecord `json:"file_records,omitempty" yaml:"file_records,omitempty"`
}

func runHistory(cmd *cobra.Command, args []string) error {
	if err := validateFormat(historyFormat); err != nil {
		return err
	}

	root, err := targetRoot(targetArg(args))
	if err != nil {
		return err
	}
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	dbPath := cfg.DBPath(root)
	if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("no scan history for %s (run 'pydeps scan --save' first)", root)
	}

	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()

	reader := storage.NewScanReader(db)
	out := cmd.OutOrStdout()

	if historyShow != "" {
		id := historyShow
		if id == "latest" {
			latest, err := reader.Latest(root)
			if err != nil {
				return err
			}
			id = latest.ID
		}
		detail, err := loadScanDetail(reader, id, historyFiles)
		if err != nil {
			return err
		}
		if historyFormat != FormatText {
			return writeStructured(out, historyFormat, detail)
		}
		renderScanDetail(out, detail)
		return nil
	}

	scans, err := reader.ListScans(root, historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list scans: %w", err)
	}
	if historyFormat != FormatText {
		return writeStructured(out, historyFormat, scans)
	}
	renderScanList(out, root, scans)
	return nil
}

func loadScanDetail(reader *storage.ScanReader, id string, withFiles bool) (*scanDetail, error) {
	summary, err := reader.Get(id)
	if err != nil {
		return nil, err
	}

	detail := &scanDetail{ScanSummary: *summary}
	if detail.Packages, err = reader.Packages(id); err != nil {
		return nil, fmt.Errorf("failed to read packages: %w", err)
	}
	if detail.Stdlib, err = reader.NamesByCategory(id, storage.CategoryStdlib); err != nil {
		return nil, fmt.Errorf("failed to read stdlib names: %w", err)
	}
	if detail.Local, err = reader.NamesByCategory(id, storage.CategoryLocal); err != nil {
		return nil, fmt.Errorf("failed to read local names: %w", err)
	}
	if withFiles {
		if detail.FileRecords, err = reader.Files(id); err != nil {
			return nil, fmt.Errorf("failed to read files: %w", err)
		}
	}
	return detail, nil
}

func renderScanList(w io.Writer, root string, scans []*storage.ScanSummary) {
	if len(scans) == 0 {
		color.New(color.FgCyan).Fprintf(w, "No scans recorded for %s\n", root)
		return
	}

	tbl := newTable()
	tbl.AppendHeader(table.Row{"ID", "Started", "Files", "Failed", "Cached", "Size", "Took"})
	for _, s := range scans {
		tbl.AppendRow(table.Row{
			s.ID,
			humanize.Time(s.StartedAt),
			s.Files,
			s.Failed,
			s.Cached,
			humanize.Bytes(uint64(s.Bytes)),
			s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond).String(),
		})
	}
	fmt.Fprintln(w, tbl.Render())
}

func renderScanDetail(w io.Writer, d *scanDetail) {
	color.New(color.FgGreen).Fprintf(w, "Scan %s of %s\n", d.ID, d.Root)
	fmt.Fprintf(w, "  Started: %s (%s)\n", d.StartedAt.Local().Format("2006-01-02 15:04:05"), humanize.Time(d.StartedAt))
	fmt.Fprintf(w, "  Files:   %d (%d failed, %d cached, %s)\n", d.Files, d.Failed, d.Cached, humanize.Bytes(uint64(d.Bytes)))
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Packages: %s\n", joinOrNone(d.Packages))
	if len(d.Stdlib) > 0 {
		fmt.Fprintf(w, "Standard library: %s\n", strings.Join(d.Stdlib, ", "))
	}
	if len(d.Local) > 0 {
		fmt.Fprintf(w, "Project modules:  %s\n", strings.Join(d.Local, ", "))
	}

	if len(d.FileRecords) == 0 {
		return
	}
	fmt.Fprintln(w)
	tbl := newTable()
	tbl.AppendHeader(table.Row{"File", "Imports", "Status"})
	for _, f := range d.FileRecords {
		status := "ok"
		switch {
		case f.Failure != "":
			status = f.Failure
		case f.Cached:
			status = "cached"
		}
		tbl.AppendRow(table.Row{relativeTo(d.Root, f.Path), strings.Join(f.Imports, ", "), status})
	}
	fmt.Fprintln(w, tbl.Render())
}

func joinOrNone(names []string) string {
	if len(names) == 0 {
		return "(none)"
	}
	return strings.Join(names, ", ")
}
