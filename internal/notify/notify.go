// Package notify is the boundary to the messaging collaborator. The engine
// only ever talks to the Dispatcher interface; concrete transports (a chat
// bot, a webhook, ...) live outside the core.
package notify

import (
	"context"
	"time"

	applog "binday/internal/log"
)

type Notification struct {
	OwnerID    string
	ReminderID string
	EventTitle string
	EventStart time.Time

	// FirstNotice distinguishes the day-before heads-up from the repeated
	// follow-ups, so the transport can word them differently.
	FirstNotice bool
}

// Dispatcher delivers one notification and gives the user an affordance to
// acknowledge. A non-nil error means nothing reached the user; the clock
// retries on the next tick.
type Dispatcher interface {
	Notify(ctx context.Context, n Notification) error
}

// LogDispatcher writes notifications to the log. It backs transportless runs
// and tests.
type LogDispatcher struct{}

func (LogDispatcher) Notify(_ context.Context, n Notification) error {
	applog.Info("reminder notification",
		"owner", n.OwnerID,
		"reminder", n.ReminderID,
		"title", n.EventTitle,
		"event_start", n.EventStart.Format(time.RFC3339),
		"first_notice", n.FirstNotice,
	)
	return nil
}
