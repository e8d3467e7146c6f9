package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/mvp-joe/pydeps/internal/graph"
	"github.com/mvp-joe/pydeps/internal/scanner"
)

// Output formats accepted by --format.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ErrUnknownFormat indicates an unsupported --format value.
var ErrUnknownFormat = errors.New("unknown output format")

func validateFormat(format string) error {
	switch format {
	case FormatText, FormatJSON, FormatYAML:
		return nil
	}
	return fmt.Errorf("%w: %s (must be one of: text, json, yaml)", ErrUnknownFormat, format)
}

// writeStructured writes v as indented JSON or as YAML.
func writeStructured(w io.Writer, format string, v any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		data, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal yaml: %w", err)
		}
		_, err = w.Write(data)
		return err
	}
	return fmt.Errorf("%w: %s", ErrUnknownFormat, format)
}

func newTable() table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	return tbl
}

// renderReport prints a human-readable scan report.
func renderReport(w io.Writer, report *scanner.Report, modules []graph.ModuleUsage) {
	color.New(color.FgGreen).Fprintf(w, "✓ Scanned %d files (%s) in %.1fs, %d from cache\n",
		len(report.Files), humanize.Bytes(uint64(report.Bytes)), report.Duration().Seconds(), report.CachedFiles)

	if report.FailedFiles > 0 {
		color.New(color.FgYellow).Fprintf(w, "! %d files could not be analyzed\n", report.FailedFiles)
		for _, fr := range report.Files {
			if fr.Failure != "" {
				color.New(color.FgYellow).Fprintf(w, "  - %s: %s\n", relativeTo(report.Root, fr.Path), fr.Failure)
			}
		}
	}
	fmt.Fprintln(w)

	if len(report.Packages) == 0 {
		color.New(color.FgCyan).Fprintln(w, "No third-party packages imported.")
	} else {
		tbl := newTable()
		tbl.AppendHeader(table.Row{"Package", "Importers"})
		for _, m := range modules {
			if m.Category == graph.CategoryPackage {
				tbl.AppendRow(table.Row{m.Name, m.Importers})
			}
		}
		tbl.AppendFooter(table.Row{fmt.Sprintf("Total: %d", len(report.Packages)), ""})
		fmt.Fprintln(w, tbl.Render())
	}

	if len(report.Stdlib) > 0 {
		fmt.Fprintf(w, "Standard library: %s\n", strings.Join(report.Stdlib, ", "))
	}
	if len(report.Local) > 0 {
		fmt.Fprintf(w, "Project modules:  %s\n", strings.Join(report.Local, ", "))
	}
}

// relativeTo shortens path for display when it lies under root.
func relativeTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
