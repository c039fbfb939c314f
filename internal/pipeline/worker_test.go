package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/tflextract/internal/classify"
	"github.com/dgallion1/tflextract/internal/config"
	"github.com/dgallion1/tflextract/internal/output"
	"github.com/dgallion1/tflextract/internal/report"
	"github.com/dgallion1/tflextract/internal/source"
)

const sampleText = "Table 14.1.1: Demographics\nAge\n\nNote: N = 3\nConfidential - Page 1\n" +
	"\fFigure 14.2.1: Survival\nplot\n\n\nSource: ADTTE = 1\n"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testAssembler(t *testing.T) *report.Assembler {
	t.Helper()
	c, err := classify.New(classify.DefaultRules())
	if err != nil {
		t.Fatalf("classifier: %v", err)
	}
	return report.NewAssembler(c, discardLogger())
}

func TestWorker_ProcessText(t *testing.T) {
	stats := NewExtractStats(time.Hour)
	w := NewWorker(testAssembler(t), source.Options{}, stats, discardLogger())
	job := NewJob("tfl.txt", output.FormatCSV, []byte(sampleText))

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed, got %q (errors %q)", snap.Status, snap.Progress.Errors)
	}
	if snap.Progress.Pages != 2 || snap.Progress.Rows != 2 {
		t.Errorf("expected 2 pages and 2 rows, got %+v", snap.Progress)
	}

	data, ctype := job.Artifact()
	if !strings.HasPrefix(ctype, "text/csv") {
		t.Errorf("unexpected content type %q", ctype)
	}
	want := "Page,Title,Footnotes\n" +
		"1,Table 14.1.1: Demographics,Note: N = 3\n" +
		"2,Figure 14.2.1: Survival,Source: ADTTE = 1\n"
	if string(data) != want {
		t.Errorf("expected %q, got %q", want, data)
	}
	if stats.Snapshot().Count != 1 {
		t.Error("expected one stats sample")
	}
}

func TestWorker_ProcessUnsupported(t *testing.T) {
	w := NewWorker(testAssembler(t), source.Options{}, nil, discardLogger())
	job := NewJob("data.csv", output.FormatXLSX, []byte("a,b"))

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed || snap.Phase != "opening" {
		t.Errorf("expected failed while opening, got %q/%q", snap.Status, snap.Phase)
	}
	if data, _ := job.Artifact(); data != nil {
		t.Error("expected no artifact")
	}
}

func TestOrchestrator_SubmitAndComplete(t *testing.T) {
	cfg := config.Config{WorkerCount: 2, MaxQueueSize: 4, JobTTL: time.Hour}
	o := NewOrchestrator(cfg, testAssembler(t), discardLogger())
	o.Start(context.Background())
	defer o.Stop()

	job := NewJob("tfl.txt", output.FormatJSON, []byte(sampleText))
	if err := o.Submit(job); err != nil {
		t.Fatalf("submit: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for !job.Snapshot().Status.Finished() {
		if time.Now().After(deadline) {
			t.Fatal("job did not finish")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if o.GetJob(job.ID) != job {
		t.Error("expected job to be tracked")
	}
	if job.Snapshot().Status != StatusCompleted {
		t.Errorf("expected completed, got %q", job.Snapshot().Status)
	}
	if o.Stats().Snapshot().Count != 1 {
		t.Error("expected one stats sample")
	}
}

func TestOrchestrator_QueueFull(t *testing.T) {
	cfg := config.Config{WorkerCount: 1, MaxQueueSize: 1, JobTTL: time.Hour}
	o := NewOrchestrator(cfg, testAssembler(t), discardLogger())

	if err := o.Submit(NewJob("a.txt", output.FormatCSV, nil)); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	second := NewJob("b.txt", output.FormatCSV, nil)
	if err := o.Submit(second); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	if second.Snapshot().Status != StatusFailed {
		t.Errorf("expected rejected job to be failed, got %q", second.Snapshot().Status)
	}
	if o.QueueDepth() != 1 {
		t.Errorf("expected depth 1, got %d", o.QueueDepth())
	}
}

func TestOrchestrator_SubmitAfterStop(t *testing.T) {
	cfg := config.Config{WorkerCount: 2, MaxQueueSize: 4, JobTTL: time.Hour}
	o := NewOrchestrator(cfg, testAssembler(t), discardLogger())
	o.Start(context.Background())
	o.Stop()
	o.Stop()

	job := NewJob("late.txt", output.FormatCSV, []byte(sampleText))
	if err := o.Submit(job); !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
	if job.Snapshot().Status != StatusFailed {
		t.Errorf("expected late job to be failed, got %q", job.Snapshot().Status)
	}
	if o.GetJob(job.ID) != job {
		t.Error("expected late job to stay pollable")
	}
}

func TestBatch_Run(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "tfl.txt")
	if err := os.WriteFile(good, []byte(sampleText), 0o644); err != nil {
		t.Fatal(err)
	}
	missing := filepath.Join(dir, "missing.pdf")

	stats := NewExtractStats(time.Hour)
	var done int
	b := &Batch{
		Assembler: testAssembler(t),
		Workers:   1,
		Stats:     stats,
		Log:       discardLogger(),
		Done:      func(BatchResult) { done++ },
	}
	results, err := b.Run(context.Background(), []string{good, missing})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 || done != 2 {
		t.Fatalf("expected 2 results and 2 callbacks, got %d and %d", len(results), done)
	}
	if results[0].Err != nil || len(results[0].Report.Rows) != 2 {
		t.Errorf("unexpected first result: %+v", results[0])
	}
	if !errors.Is(results[1].Err, source.ErrInputMissing) {
		t.Errorf("expected ErrInputMissing, got %v", results[1].Err)
	}
	if stats.Snapshot().Count != 1 {
		t.Errorf("expected one stats sample, got %d", stats.Snapshot().Count)
	}
}
