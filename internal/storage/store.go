package storage

import (
	"context"
	"errors"
	"time"

	"binday/internal/model"
)

var ErrNotFound = errors.New("storage: not found")

// Store is the durable home of every tracked reminder. Persisted NextDueAt
// values are authoritative; nothing recomputes a schedule on load.
type Store interface {
	Upsert(ctx context.Context, in model.Reminder) error
	Get(ctx context.Context, id string) (model.Reminder, error)

	// ListOwner returns an owner's reminders ordered by event start.
	ListOwner(ctx context.Context, ownerID string) ([]model.Reminder, error)

	// ListDue returns Pending/Notified reminders whose next due instant is
	// at or before now, earliest first.
	ListDue(ctx context.Context, now time.Time) ([]model.Reminder, error)

	// ListUnsettled returns every Pending/Notified reminder, for the
	// expiry sweep.
	ListUnsettled(ctx context.Context) ([]model.Reminder, error)

	ClearOwner(ctx context.Context, ownerID string) (int64, error)
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)

	Close() error
}
