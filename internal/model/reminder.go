package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidState = errors.New("model: invalid reminder state")

type State string

const (
	StatePending      State = "Pending"
	StateNotified     State = "Notified"
	StateAcknowledged State = "Acknowledged"
	StateExpired      State = "Expired"
)

func (s State) IsValid() bool {
	switch s {
	case StatePending, StateNotified, StateAcknowledged, StateExpired:
		return true
	default:
		return false
	}
}

// Terminal reports whether s is a sink: no further notifications ever.
func (s State) Terminal() bool {
	return s == StateAcknowledged || s == StateExpired
}

// Reminder is the durable representation of one event's reminder lifecycle
// for one owner. All timestamps are kept in the engine's configured zone.
type Reminder struct {
	ID         string
	OwnerID    string
	EventTitle string
	EventStart time.Time

	State     State
	NextDueAt *time.Time

	CreatedAt      time.Time
	LastNotifiedAt *time.Time
	AcknowledgedAt *time.Time
	ExpiredAt      *time.Time
}

func (r Reminder) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return errors.New("model: reminder id is required")
	}
	if strings.TrimSpace(r.OwnerID) == "" {
		return errors.New("model: reminder owner_id is required")
	}
	if strings.TrimSpace(r.EventTitle) == "" {
		return errors.New("model: reminder event_title is required")
	}
	if r.EventStart.IsZero() {
		return errors.New("model: reminder event_start is required")
	}
	if !r.State.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidState, r.State)
	}
	if r.CreatedAt.IsZero() {
		return errors.New("model: reminder created_at is required")
	}
	if r.State.Terminal() && r.NextDueAt != nil {
		return fmt.Errorf("model: %s reminder must not carry next_due_at", r.State)
	}
	return nil
}

// MarkNotified records one sent notification and moves the cursor to the
// next unconsumed instant (nil when the schedule is exhausted).
func (r *Reminder) MarkNotified(now time.Time, next *time.Time) {
	r.State = StateNotified
	t := now
	r.LastNotifiedAt = &t
	r.NextDueAt = next
}

// Acknowledge settles the reminder. It returns false when the reminder is
// already in a terminal state; callers treat that as an idempotent no-op.
func (r *Reminder) Acknowledge(now time.Time) bool {
	if r.State.Terminal() {
		return false
	}
	r.State = StateAcknowledged
	t := now
	r.AcknowledgedAt = &t
	r.NextDueAt = nil
	return true
}

// Expire settles the reminder after the event has passed unacknowledged.
// No notification accompanies this transition.
func (r *Reminder) Expire(now time.Time) bool {
	if r.State.Terminal() {
		return false
	}
	r.State = StateExpired
	t := now
	r.ExpiredAt = &t
	r.NextDueAt = nil
	return true
}
