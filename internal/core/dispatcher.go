package core

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/schollz/progressbar/v3"
)

// JobRunner runs a single job. The process-backed implementation is
// Executor; tests substitute in-memory runners.
type JobRunner interface {
	Run(ctx context.Context, job Job, timeout time.Duration) Result
}

// Dispatcher fans a batch of independent jobs out over a bounded pool of
// workers pulling from a shared queue.
//
// Failure policy is halt-on-first-failure: once any job reports a non-zero
// exit the halt flag is raised, jobs not yet started are suppressed, and
// jobs already running are awaited, never killed. The dispatcher is correct
// under any interleaving; it guarantees nothing about job order.
type Dispatcher struct {
	Runner   JobRunner
	Limit    int           // max concurrently running jobs; min 1
	Timeout  time.Duration // per-job timeout; 0 = none
	Logger   *slog.Logger
	Progress bool // draw a terminal progress bar over the batch
}

// NewDispatcher creates a process-backed dispatcher with the given
// concurrency limit.
func NewDispatcher(limit int, timeout time.Duration, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		Runner:  NewExecutor(),
		Limit:   limit,
		Timeout: timeout,
		Logger:  logger,
	}
}

// Dispatch runs the batch and blocks until every launched job has finished.
// The returned result carries the first failing job when the batch was
// halted.
func (d *Dispatcher) Dispatch(ctx context.Context, batch Batch) BatchResult {
	var out BatchResult
	n := len(batch.Jobs)
	if n == 0 {
		return out
	}
	limit := d.Limit
	if limit < 1 {
		limit = 1
	}
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var halt atomic.Bool
	jobs := make(chan Job)
	results := make(chan Result, n)

	var wg sync.WaitGroup
	for i := 0; i < limit; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				// Checked before each launch: a detected failure
				// suppresses everything not yet started.
				if halt.Load() {
					continue
				}
				res := d.Runner.Run(ctx, job, d.Timeout)
				if res.Err != nil {
					halt.Store(true)
				}
				results <- res
			}
		}()
	}

	go func() {
		for _, job := range batch.Jobs {
			jobs <- job
		}
		close(jobs)
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	var bar *progressbar.ProgressBar
	if d.Progress {
		bar = progressbar.Default(int64(n), batch.Stage)
	}
	for res := range results {
		if bar != nil {
			_ = bar.Add(1)
		}
		out.Results = append(out.Results, res)
		if res.Err != nil && out.Failed == nil {
			failed := res
			out.Failed = &failed
			logger.Warn("job failed, halting batch",
				"stage", batch.Stage,
				"sample", res.Job.Sample,
				"exit", res.ExitCode,
				"stderr", res.Job.Stderr)
		}
	}
	if bar != nil && out.Failed == nil {
		_ = bar.Finish()
	}

	out.Launched = len(out.Results)
	return out
}
