package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"binday/internal/model"
)

// ReminderService is the slice of the engine the command surface needs.
type ReminderService interface {
	ListOwner(ctx context.Context, ownerID string) ([]model.Reminder, error)
	ClearOwner(ctx context.Context, ownerID string) (int64, error)
}

// Cadence carries the configured reminder timing for help text.
type Cadence struct {
	Hour     int
	Minute   int
	Interval time.Duration
}

// EngineHandlers wires the standard command set to the engine. The transport
// calls Parse, attaches the owner, then Execute, and delivers Result.Message
// back to the user.
func EngineHandlers(ctx context.Context, svc ReminderService, cadence Cadence) Handlers {
	return Handlers{
		Start: func(string) (Result, error) {
			return Result{Message: "Welcome! Upload a calendar file to set up reminders for your collection events.\n" +
				"Use /help to see all available commands."}, nil
		},
		Help: func(string) (Result, error) {
			var b strings.Builder
			fmt.Fprintf(&b, "Upload a calendar file and reminders are created for every event in it.\n")
			fmt.Fprintf(&b, "You get the first reminder the day before at %02d:%02d, then every %s until you acknowledge.\n\n",
				cadence.Hour, cadence.Minute, formatInterval(cadence.Interval))
			b.WriteString("Commands:\n")
			b.WriteString("/start - introduction\n")
			b.WriteString("/help - this message\n")
			b.WriteString("/list - your upcoming reminders\n")
			b.WriteString("/clear - remove all your reminders")
			return Result{Message: b.String()}, nil
		},
		List: func(ownerID string) (Result, error) {
			reminders, err := svc.ListOwner(ctx, ownerID)
			if err != nil {
				return Result{}, err
			}
			active := make([]model.Reminder, 0, len(reminders))
			for _, r := range reminders {
				if !r.State.Terminal() {
					active = append(active, r)
				}
			}
			if len(active) == 0 {
				return Result{Message: "You don't have any active reminders."}, nil
			}
			var b strings.Builder
			b.WriteString("Your upcoming reminders:\n")
			for _, r := range active {
				fmt.Fprintf(&b, "\n• %s on %s", r.EventTitle, r.EventStart.Format("2006-01-02 15:04"))
			}
			return Result{Message: b.String()}, nil
		},
		Clear: func(ownerID string) (Result, error) {
			n, err := svc.ClearOwner(ctx, ownerID)
			if err != nil {
				return Result{}, err
			}
			if n == 0 {
				return Result{Message: "You don't have any active reminders."}, nil
			}
			return Result{Message: "All your reminders have been cleared."}, nil
		},
	}
}

func formatInterval(d time.Duration) string {
	if d%time.Hour == 0 {
		hours := int(d / time.Hour)
		if hours == 1 {
			return "hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	return d.String()
}
