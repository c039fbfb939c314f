package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/spf13/cobra"

	"github.com/dgallion1/tflextract/internal/output"
	"github.com/dgallion1/tflextract/internal/pipeline"
	"github.com/dgallion1/tflextract/internal/source"
)

// NewBatchCmd creates the batch command.
func NewBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <input>...",
		Short: "Extract many documents in parallel",
		Long: `Extract every input document, writing one report per input. Directories
are searched recursively for supported files. A failing document is reported
and does not stop the others; the command exits non-zero if any failed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runBatch,
	}

	cmd.Flags().String("out-dir", "", "Directory for reports (default: next to each input)")
	cmd.Flags().StringP("format", "f", "xlsx", "Output format: xlsx, csv, json, md")
	cmd.Flags().IntP("workers", "w", 4, "Documents processed at once")
	cmd.Flags().Bool("no-pdftotext", false, "Do not fall back to pdftotext for unreadable PDFs")

	return cmd
}

func runBatch(cmd *cobra.Command, args []string) error {
	log := newLogger(cmd)

	outDir, _ := cmd.Flags().GetString("out-dir")
	formatFlag, _ := cmd.Flags().GetString("format")
	workers, _ := cmd.Flags().GetInt("workers")
	noFallback, _ := cmd.Flags().GetBool("no-pdftotext")

	format, err := output.ParseFormat(formatFlag)
	if err != nil {
		return err
	}
	if outDir != "" {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return fmt.Errorf("%w: %w", output.ErrOutputUnwritable, err)
		}
	}

	inputs, err := expandInputs(args)
	if err != nil {
		return err
	}
	dests, err := destinations(inputs, outDir, format)
	if err != nil {
		return err
	}
	paths := make([]string, len(inputs))
	for i, in := range inputs {
		paths[i] = in.path
	}

	a, err := newAssembler(cmd, log)
	if err != nil {
		return err
	}

	var (
		mu     sync.Mutex
		failed int
	)
	out := cmd.OutOrStdout()
	b := &pipeline.Batch{
		Assembler: a,
		Options:   source.Options{FallbackPdftotext: !noFallback, Log: log},
		Workers:   workers,
		Stats:     pipeline.NewExtractStats(0),
		Log:       log,
		Done: func(res pipeline.BatchResult) {
			err := res.Err
			dest := dests[res.Path]
			if err == nil && outDir != "" {
				if mkErr := os.MkdirAll(filepath.Dir(dest), 0o755); mkErr != nil {
					err = fmt.Errorf("%w: %w", output.ErrOutputUnwritable, mkErr)
				}
			}
			if err == nil {
				err = output.WriteFile(dest, format, res.Report.Rows)
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				fmt.Fprintf(out, "FAIL %s: %v\n", res.Path, err)
				return
			}
			fmt.Fprintf(out, "ok   %s: %d pages, %d rows -> %s\n", res.Path, res.Report.Pages, len(res.Report.Rows), dest)
		},
	}

	if _, err := b.Run(cmd.Context(), paths); err != nil {
		return err
	}

	snap := b.Stats.Snapshot()
	log.Info("batch complete", "documents", len(inputs), "failed", failed, "pages", snap.Pages, "p95_ms", snap.P95Ms)
	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(inputs))
	}
	return nil
}

// batchInput is a document to extract. sub is its directory relative to the
// walked argument, so reports under --out-dir mirror the input tree.
type batchInput struct {
	path string
	sub  string
}

// expandInputs replaces directories by the supported files below them, sorted.
// Plain file arguments are kept as given so missing inputs are reported.
func expandInputs(args []string) ([]batchInput, error) {
	var inputs []batchInput
	for _, arg := range args {
		fi, err := os.Stat(arg)
		if err != nil || !fi.IsDir() {
			inputs = append(inputs, batchInput{path: arg})
			continue
		}

		var found []batchInput
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !source.IsSupportedExtension(path) {
				return nil
			}
			rel, err := filepath.Rel(arg, filepath.Dir(path))
			if err != nil {
				return err
			}
			if rel == "." {
				rel = ""
			}
			found = append(found, batchInput{path: path, sub: rel})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", arg, err)
		}
		sort.Slice(found, func(i, j int) bool { return found[i].path < found[j].path })
		inputs = append(inputs, found...)
	}
	if len(inputs) == 0 {
		return nil, errors.New("no supported input documents")
	}
	return inputs, nil
}

// destinations maps every input to its report path. Inputs that would share
// a report, or whose report would replace another input, are rejected before
// any document is processed.
func destinations(inputs []batchInput, outDir string, f output.Format) (map[string]string, error) {
	isInput := make(map[string]bool, len(inputs))
	for _, in := range inputs {
		isInput[absPath(in.path)] = true
	}

	dests := make(map[string]string, len(inputs))
	owner := make(map[string]string, len(inputs))
	for _, in := range inputs {
		dir := ""
		if outDir != "" {
			dir = filepath.Join(outDir, in.sub)
		}
		dest := outputPath(in.path, dir, f)
		key := absPath(dest)
		if prev, ok := owner[key]; ok {
			return nil, fmt.Errorf("%s and %s would both write %s", prev, in.path, dest)
		}
		if isInput[key] {
			return nil, fmt.Errorf("report for %s would overwrite input %s", in.path, dest)
		}
		owner[key] = in.path
		dests[in.path] = dest
	}
	return dests, nil
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
