package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgallion1/tflextract/internal/output"
	"github.com/dgallion1/tflextract/internal/report"
	"github.com/dgallion1/tflextract/internal/source"
)

// Worker processes a single document job.
type Worker struct {
	assembler *report.Assembler
	opts      source.Options
	stats     *ExtractStats
	log       *slog.Logger
}

func NewWorker(a *report.Assembler, opts source.Options, stats *ExtractStats, log *slog.Logger) *Worker {
	return &Worker{
		assembler: a,
		opts:      opts,
		stats:     stats,
		log:       log,
	}
}

// Process runs extraction and rendering for a job. The upload is spooled to
// a temp file because the document readers need random access and an extension.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)
	start := time.Now()

	job.SetStatus(StatusOpening, "opening")
	path, cleanup, err := spool(job.Filename, job.FileData())
	if err != nil {
		log.Error("spool upload failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "opening")
		return
	}
	defer cleanup()

	opts := w.opts
	opts.Log = log
	doc, err := source.Open(path, opts)
	if err != nil {
		log.Error("open failed", "error", err)
		job.AddError(fmt.Sprintf("open: %s", err))
		job.SetStatus(StatusFailed, "opening")
		return
	}
	defer doc.Close()

	job.SetStatus(StatusExtracting, "extracting")
	rep, err := w.assembler.Build(ctx, job.Filename, doc)
	if err != nil {
		log.Error("extraction aborted", "error", err)
		job.AddError(fmt.Sprintf("extract: %s", err))
		job.SetStatus(StatusFailed, "extracting")
		return
	}
	job.SetReport(rep)

	job.SetStatus(StatusRendering, "rendering")
	wr, err := output.ForFormat(job.Format)
	if err != nil {
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "rendering")
		return
	}
	data, err := output.Render(job.Format, rep.Rows)
	if err != nil {
		log.Error("render failed", "error", err)
		job.AddError(fmt.Sprintf("render: %s", err))
		job.SetStatus(StatusFailed, "rendering")
		return
	}
	job.SetArtifact(data, wr.ContentType())

	elapsed := time.Since(start)
	if w.stats != nil {
		w.stats.Record(elapsed, rep.Pages)
	}
	log.Info("job complete", "pages", rep.Pages, "rows", len(rep.Rows), "failures", len(rep.Failures), "elapsed_ms", elapsed.Milliseconds())
	job.SetStatus(StatusCompleted, "done")
}

// spool writes data to a temp file that keeps the upload's extension.
func spool(filename string, data []byte) (string, func(), error) {
	ext := strings.ToLower(filepath.Ext(filename))
	f, err := os.CreateTemp("", "tflextract-*"+ext)
	if err != nil {
		return "", nil, fmt.Errorf("create temp file: %w", err)
	}
	cleanup := func() { os.Remove(f.Name()) }

	if _, err := f.Write(data); err != nil {
		f.Close()
		cleanup()
		return "", nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("close temp file: %w", err)
	}
	return f.Name(), cleanup, nil
}
