package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/tflextract/internal/config"
	"github.com/dgallion1/tflextract/internal/report"
	"github.com/dgallion1/tflextract/internal/source"
)

var (
	// ErrQueueFull is returned by Submit when no queue slot is free.
	ErrQueueFull = errors.New("job queue is full")
	// ErrStopped is returned by Submit once Stop has been called.
	ErrStopped = errors.New("extraction pipeline stopped")
)

// Orchestrator feeds uploaded documents to a fixed pool of workers and keeps
// finished jobs around for JobTTL so their reports can be downloaded.
type Orchestrator struct {
	jobs    *JobStore
	queue   chan *Job
	stats   *ExtractStats
	workers int
	worker  *Worker
	log     *slog.Logger

	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once

	mu      sync.RWMutex
	stopped bool
}

// NewOrchestrator creates the pipeline. Call Start to launch workers.
func NewOrchestrator(cfg config.Config, a *report.Assembler, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	stats := NewExtractStats(cfg.JobTTL)
	opts := source.Options{FallbackPdftotext: cfg.PDFFallbackPdftotext}
	return &Orchestrator{
		jobs:    NewJobStore(cfg.JobTTL),
		queue:   make(chan *Job, cfg.MaxQueueSize),
		stats:   stats,
		workers: max(cfg.WorkerCount, 1),
		worker:  NewWorker(a, opts, stats, log),
		log:     log,
	}
}

// Start launches the workers and the expired-job janitor. They run until ctx
// is cancelled or Stop is called.
func (o *Orchestrator) Start(ctx context.Context) {
	ctx, o.cancel = context.WithCancel(ctx)

	o.wg.Add(o.workers + 1)
	for id := range o.workers {
		go o.runWorker(ctx, id)
	}
	go o.janitor(ctx, o.jobs.ttl)

	o.log.Info("extraction pipeline started", "workers", o.workers, "queue_size", cap(o.queue))
}

// Worker state is per call, so one Worker is shared by every goroutine.
func (o *Orchestrator) runWorker(ctx context.Context, id int) {
	defer o.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-o.queue:
			o.log.Debug("job dequeued", "worker", id, "job_id", job.ID)
			o.worker.Process(ctx, job)
		}
	}
}

func (o *Orchestrator) janitor(ctx context.Context, ttl time.Duration) {
	defer o.wg.Done()
	interval := 5 * time.Minute
	if ttl > 0 && ttl/4 < interval {
		interval = max(ttl/4, time.Second)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			before := o.jobs.Len()
			o.jobs.Cleanup()
			if removed := before - o.jobs.Len(); removed > 0 {
				o.log.Debug("expired jobs removed", "count", removed)
			}
		}
	}
}

// Stop cancels in-flight jobs and waits for the workers to exit. Later
// submissions fail with ErrStopped. It is safe to call more than once.
func (o *Orchestrator) Stop() {
	o.stopOnce.Do(func() {
		o.mu.Lock()
		o.stopped = true
		o.mu.Unlock()
		if o.cancel != nil {
			o.cancel()
		}
		o.wg.Wait()
	})
}

// Submit registers job and queues it without blocking. A job that cannot be
// queued stays registered as failed so its status can still be polled.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)

	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.stopped {
		job.AddError(ErrStopped.Error())
		job.SetStatus(StatusFailed, "stopped")
		return ErrStopped
	}
	select {
	case o.queue <- job:
		return nil
	default:
		job.AddError(ErrQueueFull.Error())
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("%w (%d)", ErrQueueFull, cap(o.queue))
	}
}

// GetJob returns a job by ID, or nil.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns the number of jobs waiting for a worker.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Stats returns the extraction latency tracker.
func (o *Orchestrator) Stats() *ExtractStats {
	return o.stats
}
