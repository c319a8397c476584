// Package clock drives the engine's periodic scheduling pass.
package clock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"binday/internal/engine"
	applog "binday/internal/log"
)

// Ticker is one scheduling pass; satisfied by *engine.Engine.
type Ticker interface {
	Tick(ctx context.Context, now time.Time) (engine.TickReport, error)
}

type Clock struct {
	ticker      Ticker
	zone        *time.Location
	tickTimeout time.Duration
	runner      *cron.Cron

	mu       sync.Mutex
	started  bool
	stopped  bool
	inFlight atomic.Bool
}

// New builds a clock firing on the given cron expression in the given zone.
// tickTimeout bounds one whole pass so a wedged tick cannot pile up behind
// the next one forever.
func New(ticker Ticker, cronSpec string, zone *time.Location, tickTimeout time.Duration) (*Clock, error) {
	if ticker == nil {
		return nil, errors.New("clock: ticker is required")
	}
	if zone == nil {
		return nil, errors.New("clock: zone is required")
	}
	if tickTimeout <= 0 {
		return nil, errors.New("clock: tick timeout must be positive")
	}

	c := &Clock{
		ticker:      ticker,
		zone:        zone,
		tickTimeout: tickTimeout,
		runner:      cron.New(cron.WithLocation(zone)),
	}
	if _, err := c.runner.AddFunc(cronSpec, c.runTick); err != nil {
		return nil, fmt.Errorf("clock: bad cron spec %q: %w", cronSpec, err)
	}
	return c, nil
}

func (c *Clock) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started || c.stopped {
		return
	}
	c.started = true
	c.runner.Start()
	applog.Info("reminder clock started")
}

// Stop halts scheduling and waits for an in-flight tick to finish, so no
// persistence write is cut off mid-pass.
func (c *Clock) Stop() {
	c.mu.Lock()
	if !c.started || c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	c.mu.Unlock()

	<-c.runner.Stop().Done()
	applog.Info("reminder clock stopped")
}

func (c *Clock) runTick() {
	// A pass still running from the previous firing keeps its turn; this
	// one is skipped rather than stacked on top of it.
	if !c.inFlight.CompareAndSwap(false, true) {
		applog.Debug("tick skipped, previous pass still running")
		return
	}
	defer c.inFlight.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), c.tickTimeout)
	defer cancel()

	now := time.Now().In(c.zone)
	rep, err := c.ticker.Tick(ctx, now)
	if err != nil {
		applog.Error("tick pass failed", err)
		return
	}
	if rep.Notified > 0 || rep.Failed > 0 || rep.Expired > 0 || rep.Deleted > 0 {
		applog.Info("tick pass completed",
			"notified", rep.Notified,
			"failed", rep.Failed,
			"expired", rep.Expired,
			"deleted", rep.Deleted,
		)
	}
}
