package schedule

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/M-Afifff/coingecko-project/internal/domain"
)

// scriptedPipeline fails a fixed number of times before succeeding.
type scriptedPipeline struct {
	failures int
	calls    int
}

func (p *scriptedPipeline) Run(ctx context.Context) *domain.RunResult {
	p.calls++
	if p.calls <= p.failures {
		return &domain.RunResult{RunID: "run", Success: false, Error: "upstream unavailable"}
	}
	return &domain.RunResult{RunID: "run", Success: true, RecordsProcessed: 50}
}

func testRunner(p Pipeline) *Runner {
	return NewRunner(RunnerOptions{
		Pipeline:   p,
		Interval:   time.Hour,
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
		Logger:     log.New(os.Stderr, "[test] ", log.LstdFlags),
	})
}

func TestRunOnce_SucceedsFirstAttempt(t *testing.T) {
	p := &scriptedPipeline{}
	result := testRunner(p).RunOnce(context.Background())

	if !result.Success {
		t.Fatal("expected success")
	}
	if p.calls != 1 {
		t.Errorf("expected 1 call, got %d", p.calls)
	}
}

func TestRunOnce_RetriesUntilSuccess(t *testing.T) {
	p := &scriptedPipeline{failures: 2}
	result := testRunner(p).RunOnce(context.Background())

	if !result.Success {
		t.Fatal("expected success after retries")
	}
	if p.calls != 3 {
		t.Errorf("expected 3 calls (1 + 2 retries), got %d", p.calls)
	}
}

func TestRunOnce_ExhaustsRetries(t *testing.T) {
	p := &scriptedPipeline{failures: 10}
	result := testRunner(p).RunOnce(context.Background())

	if result.Success {
		t.Fatal("expected failure after exhausting retries")
	}
	if p.calls != 3 {
		t.Errorf("expected 3 calls (1 + 2 retries), got %d", p.calls)
	}
}

func TestRunOnce_ContextCancelledDuringRetryDelay(t *testing.T) {
	p := &scriptedPipeline{failures: 10}
	runner := NewRunner(RunnerOptions{
		Pipeline:   p,
		MaxRetries: 2,
		RetryDelay: time.Hour,
		Logger:     log.New(os.Stderr, "[test] ", log.LstdFlags),
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	result := runner.RunOnce(ctx)
	if result.Success {
		t.Fatal("expected the failed result, not success")
	}
	if p.calls != 1 {
		t.Errorf("expected 1 call before cancellation, got %d", p.calls)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	p := &scriptedPipeline{}
	runner := NewRunner(RunnerOptions{
		Pipeline:   p,
		Interval:   time.Millisecond,
		RetryDelay: time.Millisecond,
		Logger:     log.New(os.Stderr, "[test] ", log.LstdFlags),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := runner.Run(ctx)
	if err != context.DeadlineExceeded {
		t.Errorf("expected deadline exceeded, got: %v", err)
	}
	if p.calls < 2 {
		t.Errorf("expected at least the immediate run plus one tick, got %d calls", p.calls)
	}
}
