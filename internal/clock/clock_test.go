package clock

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"binday/internal/engine"
)

type countingTicker struct {
	calls atomic.Int32
	block chan struct{}
}

func (c *countingTicker) Tick(ctx context.Context, _ time.Time) (engine.TickReport, error) {
	c.calls.Add(1)
	if c.block != nil {
		select {
		case <-c.block:
		case <-ctx.Done():
		}
	}
	return engine.TickReport{}, nil
}

func TestClockFiresTicks(t *testing.T) {
	ticker := &countingTicker{}
	clk, err := New(ticker, "@every 10ms", time.UTC, time.Second)
	if err != nil {
		t.Fatalf("new clock: %v", err)
	}

	clk.Start()
	defer clk.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for ticker.calls.Load() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("clock fired %d times, want >= 2", ticker.calls.Load())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestClockSkipsOverlappingPass(t *testing.T) {
	ticker := &countingTicker{block: make(chan struct{})}
	clk, err := New(ticker, "@every 10ms", time.UTC, 5*time.Second)
	if err != nil {
		t.Fatalf("new clock: %v", err)
	}

	clk.Start()
	// Give the cron several firing opportunities while the first pass is
	// still blocked.
	time.Sleep(100 * time.Millisecond)
	if got := ticker.calls.Load(); got != 1 {
		close(ticker.block)
		clk.Stop()
		t.Fatalf("expected exactly one in-flight pass, got %d", got)
	}
	close(ticker.block)
	clk.Stop()
}

func TestClockStopWaitsForInFlightPass(t *testing.T) {
	ticker := &countingTicker{block: make(chan struct{})}
	clk, err := New(ticker, "@every 10ms", time.UTC, 5*time.Second)
	if err != nil {
		t.Fatalf("new clock: %v", err)
	}

	clk.Start()
	for ticker.calls.Load() == 0 {
		time.Sleep(5 * time.Millisecond)
	}

	done := make(chan struct{})
	go func() {
		clk.Stop()
		close(done)
	}()

	select {
	case <-done:
		t.Fatalf("stop returned while a pass was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(ticker.block)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("stop did not return after the pass finished")
	}
}

func TestClockStartStopIdempotent(t *testing.T) {
	clk, err := New(&countingTicker{}, "@every 1h", time.UTC, time.Second)
	if err != nil {
		t.Fatalf("new clock: %v", err)
	}
	clk.Start()
	clk.Start()
	clk.Stop()
	clk.Stop()
}

func TestNewClockValidation(t *testing.T) {
	if _, err := New(nil, "* * * * *", time.UTC, time.Second); err == nil {
		t.Fatalf("nil ticker accepted")
	}
	if _, err := New(&countingTicker{}, "not cron", time.UTC, time.Second); err == nil {
		t.Fatalf("bad cron spec accepted")
	}
	if _, err := New(&countingTicker{}, "* * * * *", nil, time.Second); err == nil {
		t.Fatalf("nil zone accepted")
	}
	if _, err := New(&countingTicker{}, "* * * * *", time.UTC, 0); err == nil {
		t.Fatalf("zero timeout accepted")
	}
}
