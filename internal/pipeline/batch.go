package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/tflextract/internal/report"
	"github.com/dgallion1/tflextract/internal/source"
)

// BatchResult is the outcome for one input of a batch.
type BatchResult struct {
	Path    string
	Report  *report.Report
	Err     error
	Elapsed time.Duration
}

// Batch extracts many documents with at most Workers running at once. Each
// document is processed sequentially; a failing document does not stop the others.
type Batch struct {
	Assembler *report.Assembler
	Options   source.Options
	Workers   int
	Stats     *ExtractStats
	Log       *slog.Logger

	// Done, if set, is called as each document finishes. Calls may be concurrent.
	Done func(BatchResult)
}

// Run processes paths and returns results in input order. The error is
// non-nil only when ctx is cancelled.
func (b *Batch) Run(ctx context.Context, paths []string) ([]BatchResult, error) {
	log := b.Log
	if log == nil {
		log = slog.Default()
	}
	workers := b.Workers
	if workers <= 0 {
		workers = 4
	}

	results := make([]BatchResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = BatchResult{Path: path, Err: err}
				return err
			}

			start := time.Now()
			opts := b.Options
			opts.Log = log.With("source", path)
			rep, err := b.Assembler.Run(gctx, path, opts)
			res := BatchResult{Path: path, Report: rep, Err: err, Elapsed: time.Since(start)}
			results[i] = res

			if err != nil {
				log.Warn("document failed", "source", path, "error", err)
			} else if b.Stats != nil {
				b.Stats.Record(res.Elapsed, rep.Pages)
			}
			if b.Done != nil {
				b.Done(res)
			}
			return ctx.Err()
		})
	}

	err := g.Wait()
	return results, err
}
