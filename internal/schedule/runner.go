// Package schedule re-invokes the pipeline on an interval with
// bounded retry. It is the only retry layer in the system: the
// orchestrator below it never retries a stage.
package schedule

import (
	"context"
	"log"
	"time"

	"github.com/M-Afifff/coingecko-project/internal/domain"
)

// Pipeline is the orchestrator surface the runner drives.
type Pipeline interface {
	Run(ctx context.Context) *domain.RunResult
}

// Runner triggers one pipeline invocation per tick, retrying a failed
// run up to MaxRetries times with a fixed delay. Runs never overlap:
// a tick that fires while a run is in flight is absorbed by the loop.
type Runner struct {
	pipeline   Pipeline
	interval   time.Duration
	maxRetries int
	retryDelay time.Duration
	logger     *log.Logger
}

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	Pipeline   Pipeline
	Interval   time.Duration // Default: 1h
	MaxRetries int           // Default: 2
	RetryDelay time.Duration // Default: 60s
	Logger     *log.Logger
}

// NewRunner creates a new schedule runner.
func NewRunner(opts RunnerOptions) *Runner {
	interval := opts.Interval
	if interval == 0 {
		interval = time.Hour
	}

	maxRetries := opts.MaxRetries
	if maxRetries == 0 {
		maxRetries = 2
	}

	retryDelay := opts.RetryDelay
	if retryDelay == 0 {
		retryDelay = 60 * time.Second
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Runner{
		pipeline:   opts.Pipeline,
		interval:   interval,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		logger:     logger,
	}
}

// Run triggers an immediate invocation, then one per interval tick.
// It blocks until the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Printf("Scheduler started, interval: %v, max retries: %d", r.interval, r.maxRetries)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			r.logger.Println("Scheduler stopping...")
			return ctx.Err()
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce executes a single scheduled invocation with bounded retry.
// Every retry re-runs the whole pipeline from scratch; there is no
// checkpointing below this layer. Returns the last RunResult.
func (r *Runner) RunOnce(ctx context.Context) *domain.RunResult {
	var result *domain.RunResult

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			r.logger.Printf("Retrying pipeline in %v (attempt %d of %d)", r.retryDelay, attempt, r.maxRetries)
			select {
			case <-ctx.Done():
				return result
			case <-time.After(r.retryDelay):
			}
		}

		result = r.pipeline.Run(ctx)
		if result.Success {
			return result
		}
		r.logger.Printf("Pipeline run %s failed: %s", result.RunID, result.Error)
	}

	r.logger.Printf("Pipeline exhausted %d retries, giving up until next tick", r.maxRetries)
	return result
}
