// Package engine is the reminder core: it turns imported calendar events
// into tracked reminders and drives each one through the
// Pending → Notified → Acknowledged/Expired lifecycle.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"binday/internal/ingest"
	applog "binday/internal/log"
	"binday/internal/model"
	"binday/internal/notify"
	"binday/internal/schedule"
	"binday/internal/storage"
)

type AckResult int

const (
	AckApplied AckResult = iota
	// AckAlreadySettled covers acknowledged and expired reminders alike;
	// the transport callback may fire any number of times.
	AckAlreadySettled
	AckNotFound
)

type Options struct {
	Plan        schedule.Plan
	IgnoreTerms []string

	// DispatchTimeout bounds one Notify call so a stuck transport cannot
	// starve the rest of the tick.
	DispatchTimeout time.Duration

	// ExpiryGrace is how far past the event start an unacknowledged
	// reminder is kept alive.
	ExpiryGrace time.Duration

	// Retention is how long expired reminders stay queryable before the
	// garbage collection sweep deletes them.
	Retention time.Duration

	// Now overrides the wall clock in tests.
	Now func() time.Time
}

type ImportReport struct {
	BatchID  string
	Created  int
	Existing int
	Ignored  int
	Past     int
}

type TickReport struct {
	Notified int
	Failed   int
	Expired  int
	Deleted  int64
}

// Engine serializes every reminder mutation behind one mutex: tick passes,
// imports and acknowledgment callbacks never interleave on a reminder.
type Engine struct {
	mu         sync.Mutex
	store      storage.Store
	dispatcher notify.Dispatcher
	opts       Options
}

func New(store storage.Store, dispatcher notify.Dispatcher, opts Options) (*Engine, error) {
	if store == nil {
		return nil, errors.New("engine: store is required")
	}
	if dispatcher == nil {
		return nil, errors.New("engine: dispatcher is required")
	}
	if opts.Plan.Zone == nil {
		return nil, errors.New("engine: schedule plan is required")
	}
	if opts.DispatchTimeout <= 0 {
		return nil, errors.New("engine: dispatch timeout must be positive")
	}
	if opts.ExpiryGrace < 0 || opts.Retention < 0 {
		return nil, errors.New("engine: grace and retention must not be negative")
	}
	if opts.Now == nil {
		zone := opts.Plan.Zone
		opts.Now = func() time.Time { return time.Now().In(zone) }
	}
	return &Engine{store: store, dispatcher: dispatcher, opts: opts}, nil
}

// Import merges one calendar upload into the owner's tracked reminders.
// Unchanged events are left exactly as they are, so an in-progress
// acknowledgment survives a re-upload; events that already started are not
// tracked at all.
func (e *Engine) Import(ctx context.Context, ownerID string, records []model.EventRecord) (ImportReport, error) {
	rep := ImportReport{BatchID: uuid.NewString()}
	if ownerID == "" {
		return rep, errors.New("engine: owner id is required")
	}

	kept := ingest.Filter(records, e.opts.IgnoreTerms)
	rep.Ignored = len(records) - len(kept)

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.opts.Now()
	for _, rec := range kept {
		if !rec.Start.After(now) {
			rep.Past++
			continue
		}

		id := model.EventID(ownerID, rec.Title, rec.Start)
		_, err := e.store.Get(ctx, id)
		switch {
		case err == nil:
			rep.Existing++
			continue
		case !errors.Is(err, storage.ErrNotFound):
			return rep, fmt.Errorf("engine: import lookup: %w", err)
		}

		// The day-before slot is recorded even when it is already past;
		// the next tick delivers the catch-up notification.
		first := e.opts.Plan.First(rec.Start)
		reminder := model.Reminder{
			ID:         id,
			OwnerID:    ownerID,
			EventTitle: rec.Title,
			EventStart: rec.Start,
			State:      model.StatePending,
			NextDueAt:  &first,
			CreatedAt:  now,
		}
		if err := e.store.Upsert(ctx, reminder); err != nil {
			return rep, fmt.Errorf("engine: import upsert: %w", err)
		}
		rep.Created++
	}

	applog.Info("calendar import processed",
		"batch", rep.BatchID,
		"owner", ownerID,
		"created", rep.Created,
		"existing", rep.Existing,
		"ignored", rep.Ignored,
		"past", rep.Past,
	)
	return rep, nil
}

// ImportICS parses one uploaded calendar payload and merges it. A malformed
// payload creates nothing and leaves existing reminders untouched.
func (e *Engine) ImportICS(ctx context.Context, ownerID string, payload []byte) (ImportReport, error) {
	records, err := ingest.ParseICS(payload, e.opts.Plan.Zone)
	if err != nil {
		return ImportReport{}, err
	}
	return e.Import(ctx, ownerID, records)
}

// Acknowledge settles the reminder named by the transport callback. Safe to
// invoke any number of times for the same id.
func (e *Engine) Acknowledge(ctx context.Context, id string) (AckResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	reminder, err := e.store.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return AckNotFound, nil
	}
	if err != nil {
		return AckNotFound, fmt.Errorf("engine: acknowledge lookup: %w", err)
	}

	if !reminder.Acknowledge(e.opts.Now()) {
		return AckAlreadySettled, nil
	}
	if err := e.store.Upsert(ctx, reminder); err != nil {
		return AckNotFound, fmt.Errorf("engine: acknowledge persist: %w", err)
	}
	applog.Info("reminder acknowledged", "reminder", id, "owner", reminder.OwnerID)
	return AckApplied, nil
}

// ListOwner backs the transport's list command.
func (e *Engine) ListOwner(ctx context.Context, ownerID string) ([]model.Reminder, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.ListOwner(ctx, ownerID)
}

// ClearOwner backs the transport's clear command.
func (e *Engine) ClearOwner(ctx context.Context, ownerID string) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	n, err := e.store.ClearOwner(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	applog.Info("reminders cleared", "owner", ownerID, "count", n)
	return n, nil
}

// Tick runs one scheduling pass at the given instant: expire what the grace
// margin has overtaken, deliver what is due, garbage-collect what retention
// has released. Each reminder makes at most one transition per pass; a
// backlog of missed instants collapses into the single notification sent
// now, with the cursor advanced past everything already behind us.
func (e *Engine) Tick(ctx context.Context, now time.Time) (TickReport, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var rep TickReport

	// Expiry first, so a reminder whose event is long past is settled
	// silently instead of receiving a stale notification.
	unsettled, err := e.store.ListUnsettled(ctx)
	if err != nil {
		return rep, fmt.Errorf("engine: tick list unsettled: %w", err)
	}
	for _, reminder := range unsettled {
		if !now.After(reminder.EventStart.Add(e.opts.ExpiryGrace)) {
			continue
		}
		reminder.Expire(now)
		if err := e.store.Upsert(ctx, reminder); err != nil {
			return rep, fmt.Errorf("engine: tick expire persist: %w", err)
		}
		rep.Expired++
		applog.Debug("reminder expired", "reminder", reminder.ID, "owner", reminder.OwnerID)
	}

	due, err := e.store.ListDue(ctx, now)
	if err != nil {
		return rep, fmt.Errorf("engine: tick list due: %w", err)
	}
	for _, reminder := range due {
		if err := e.dispatch(ctx, reminder); err != nil {
			// Leave the cursor untouched; the same notification is
			// retried on the next tick until the event-time grace
			// margin expires the reminder.
			rep.Failed++
			applog.Error("dispatch failed, retrying next tick", err,
				"reminder", reminder.ID, "owner", reminder.OwnerID)
			continue
		}
		reminder.MarkNotified(now, e.opts.Plan.NextAfter(reminder.EventStart, now))
		if err := e.store.Upsert(ctx, reminder); err != nil {
			return rep, fmt.Errorf("engine: tick notify persist: %w", err)
		}
		rep.Notified++
	}

	deleted, err := e.store.DeleteExpiredBefore(ctx, now.Add(-e.opts.Retention))
	if err != nil {
		return rep, fmt.Errorf("engine: tick gc: %w", err)
	}
	rep.Deleted = deleted

	return rep, nil
}

func (e *Engine) dispatch(ctx context.Context, reminder model.Reminder) error {
	dctx, cancel := context.WithTimeout(ctx, e.opts.DispatchTimeout)
	defer cancel()
	return e.dispatcher.Notify(dctx, notify.Notification{
		OwnerID:     reminder.OwnerID,
		ReminderID:  reminder.ID,
		EventTitle:  reminder.EventTitle,
		EventStart:  reminder.EventStart,
		FirstNotice: reminder.LastNotifiedAt == nil,
	})
}
