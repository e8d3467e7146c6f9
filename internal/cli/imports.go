package cli

import (
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mvp-joe/pydeps/internal/imports"
)

var (
	importsFormat string
	importsUnion  bool
)

// importsCmd represents the imports command
var importsCmd = &cobra.Command{
	Use:   "imports FILE...",
	Short: "List the top-level modules Python files import",
	Long: `Imports parses each file and prints the top-level module names it imports,
sorted. Files are never executed. A file that cannot be read or parsed yields
an empty list and a diagnostic on stderr.

Examples:
  pydeps imports main.py
  pydeps imports --union --format json src/*.py`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImports,
}

func init() {
	rootCmd.AddCommand(importsCmd)
	importsCmd.Flags().StringVarP(&importsFormat, "format", "f", FormatText, "Output format: text, json or yaml")
	importsCmd.Flags().BoolVarP(&importsUnion, "union", "u", false, "Print the union of every file's imports")
}

// fileImports is the structured output of one analyzed file.
type fileImports struct {
	Path    string   `json:"path" yaml:"path"`
	Imports []string `json:"imports" yaml:"imports"`
	Failure string   `json:"failure,omitempty" yaml:"failure,omitempty"`
}

func runImports(cmd *cobra.Command, args []string) error {
	if err := validateFormat(importsFormat); err != nil {
		return err
	}

	extractor := imports.NewExtractor(log.Default())
	results := make([]fileImports, 0, len(args))
	for _, path := range args {
		res := extractor.Analyze(path)
		results = append(results, fileImports{
			Path:    path,
			Imports: res.Names.Sorted(),
			Failure: imports.FailureClass(res.Err),
		})
	}

	return writeImports(cmd.OutOrStdout(), importsFormat, importsUnion, results)
}

func writeImports(w io.Writer, format string, union bool, results []fileImports) error {
	if union {
		all := imports.NewNameSet()
		for _, r := range results {
			all.Union(imports.NewNameSet(r.Imports...))
		}
		names := all.Sorted()
		if format != FormatText {
			return writeStructured(w, format, names)
		}
		for _, name := range names {
			fmt.Fprintln(w, name)
		}
		return nil
	}

	if format != FormatText {
		return writeStructured(w, format, results)
	}

	for _, r := range results {
		if r.Failure != "" {
			color.New(color.FgYellow).Fprintf(w, "%s: (%s)\n", r.Path, r.Failure)
			continue
		}
		fmt.Fprintf(w, "%s: %s\n", r.Path, strings.Join(r.Imports, " "))
	}
	return nil
}
