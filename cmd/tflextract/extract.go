package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/tflextract/internal/output"
	"github.com/dgallion1/tflextract/internal/source"
)

// NewExtractCmd creates the extract command.
func NewExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <input>",
		Short: "Extract one document",
		Long: `Extract the page number, title and footnotes of every titled page of one
document. The output format follows the --format flag, or the extension of
--output, and defaults to XLSX next to the input.`,
		Args: cobra.ExactArgs(1),
		RunE: runExtract,
	}

	cmd.Flags().StringP("output", "o", "", "Output file (default: <input>.xlsx)")
	cmd.Flags().StringP("format", "f", "", "Output format: xlsx, csv, json, md")
	cmd.Flags().Bool("no-pdftotext", false, "Do not fall back to pdftotext for unreadable PDFs")

	return cmd
}

func runExtract(cmd *cobra.Command, args []string) error {
	log := newLogger(cmd)
	input := args[0]

	outPath, _ := cmd.Flags().GetString("output")
	formatFlag, _ := cmd.Flags().GetString("format")
	noFallback, _ := cmd.Flags().GetBool("no-pdftotext")

	format, err := resolveFormat(formatFlag, outPath)
	if err != nil {
		return err
	}
	if outPath == "" {
		outPath = outputPath(input, "", format)
	}
	if err := checkDestination(input, outPath); err != nil {
		return err
	}

	a, err := newAssembler(cmd, log)
	if err != nil {
		return err
	}

	rep, err := a.Run(cmd.Context(), input, source.Options{FallbackPdftotext: !noFallback, Log: log})
	if err != nil {
		return fmt.Errorf("extract %s: %w", input, err)
	}

	if err := output.WriteFile(outPath, format, rep.Rows); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d pages, %d rows -> %s\n", input, rep.Pages, len(rep.Rows), outPath)
	return nil
}

// resolveFormat prefers the explicit flag, then the output extension.
func resolveFormat(flag, outPath string) (output.Format, error) {
	if flag != "" {
		return output.ParseFormat(flag)
	}
	if outPath != "" {
		return output.FormatFromPath(outPath), nil
	}
	return output.FormatXLSX, nil
}

// outputPath replaces the input extension with the format's, in dir if set.
// When that names the input itself, as for a Markdown report of a Markdown
// document, ".report" is inserted before the extension.
func outputPath(input, dir string, f output.Format) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	if dir == "" {
		dir = filepath.Dir(input)
	}
	dest := filepath.Join(dir, base+"."+string(f))
	if samePath(dest, input) {
		dest = filepath.Join(dir, base+".report."+string(f))
	}
	return dest
}

// checkDestination refuses to write a report over its own input.
func checkDestination(input, dest string) error {
	if samePath(input, dest) {
		return fmt.Errorf("%w: %s is the input document", output.ErrOutputUnwritable, dest)
	}
	return nil
}

// samePath compares cleaned absolute paths, and file identity when both exist
// so links and case-insensitive file systems are caught too.
func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA == nil && errB == nil && absA == absB {
		return true
	}
	fa, errA := os.Stat(a)
	fb, errB := os.Stat(b)
	return errA == nil && errB == nil && os.SameFile(fa, fb)
}
