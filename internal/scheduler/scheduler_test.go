package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amishk599/stackradar/internal/pipeline"
)

// --- Mock implementations ---

type CountingRunner struct {
	calls atomic.Int32
}

func (r *CountingRunner) Run(_ context.Context) (pipeline.Summary, error) {
	r.calls.Add(1)
	return pipeline.Summary{RunID: "run", Added: 1}, nil
}

type ErrorRunner struct {
	calls atomic.Int32
}

func (r *ErrorRunner) Run(_ context.Context) (pipeline.Summary, error) {
	r.calls.Add(1)
	return pipeline.Summary{}, errors.New("pool exhausted")
}

// BlockingRunner holds every run until release is closed.
type BlockingRunner struct {
	calls   atomic.Int32
	release chan struct{}
}

func (r *BlockingRunner) Run(ctx context.Context) (pipeline.Summary, error) {
	r.calls.Add(1)
	select {
	case <-r.release:
	case <-ctx.Done():
	}
	return pipeline.Summary{}, nil
}

type recordingReporter struct {
	mu   sync.Mutex
	sums []pipeline.Summary
}

func (r *recordingReporter) Report(sum pipeline.Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sums = append(r.sums, sum)
}

func (r *recordingReporter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sums)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func start(s *Scheduler) (context.CancelFunc, <-chan error) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()
	return cancel, done
}

// --- Tests ---

func TestRun_CancelReturnsPromptly(t *testing.T) {
	s := NewScheduler("@every 1h", &CountingRunner{}, nil, discardLogger())
	cancel, done := start(s)

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected nil error on cancel, got: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not return within 2s after cancel")
	}
}

func TestRun_ImmediateRunIsReported(t *testing.T) {
	runner := &CountingRunner{}
	rep := &recordingReporter{}
	s := NewScheduler("@every 1h", runner, rep, discardLogger())
	cancel, done := start(s)

	time.Sleep(100 * time.Millisecond)
	cancel()
	<-done

	if got := runner.calls.Load(); got != 1 {
		t.Errorf("runner calls = %d, want 1", got)
	}
	if got := rep.count(); got != 1 {
		t.Errorf("reported = %d, want 1", got)
	}
}

func TestRun_TicksRepeat(t *testing.T) {
	runner := &CountingRunner{}
	s := NewScheduler("@every 1s", runner, nil, discardLogger())
	cancel, done := start(s)

	// Immediate run plus at least one tick.
	time.Sleep(2200 * time.Millisecond)
	cancel()
	<-done

	if got := runner.calls.Load(); got < 2 {
		t.Errorf("runner calls = %d, want >= 2", got)
	}
}

func TestRun_SkipsTickWhileRunning(t *testing.T) {
	runner := &BlockingRunner{release: make(chan struct{})}
	s := NewScheduler("@every 1s", runner, nil, discardLogger())
	cancel, done := start(s)

	time.Sleep(1500 * time.Millisecond)
	if got := runner.calls.Load(); got != 1 {
		t.Errorf("runner calls while blocked = %d, want 1", got)
	}
	close(runner.release)
	cancel()
	<-done
}

func TestRun_ErrorIsNotReported(t *testing.T) {
	runner := &ErrorRunner{}
	rep := &recordingReporter{}
	s := NewScheduler("", runner, rep, discardLogger())
	cancel, done := start(s)

	time.Sleep(100 * time.Millisecond)
	cancel()
	<-done

	if got := runner.calls.Load(); got != 1 {
		t.Errorf("runner calls = %d, want 1", got)
	}
	if got := rep.count(); got != 0 {
		t.Errorf("reported = %d, want 0", got)
	}
}

func TestRun_BadSpec(t *testing.T) {
	s := NewScheduler("every tuesday", &CountingRunner{}, nil, discardLogger())
	if err := s.Run(context.Background()); err == nil {
		t.Fatal("expected error for invalid schedule")
	}
}
