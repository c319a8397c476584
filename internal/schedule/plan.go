// Package schedule computes the notification instants for a calendar event:
// a day-before slot at a configured wall-clock time, then repeats at a fixed
// interval, always strictly before the event itself.
package schedule

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidHour     = errors.New("schedule: reminder hour out of range")
	ErrInvalidMinute   = errors.New("schedule: reminder minute out of range")
	ErrInvalidInterval = errors.New("schedule: interval must be positive")
	ErrNilZone         = errors.New("schedule: zone is required")
)

// Plan is pure and re-derivable from configuration alone, so restarts
// reconstruct identical schedules.
type Plan struct {
	Hour     int
	Minute   int
	Interval time.Duration
	Zone     *time.Location
}

func NewPlan(hour, minute int, interval time.Duration, zone *time.Location) (Plan, error) {
	if hour < 0 || hour > 23 {
		return Plan{}, fmt.Errorf("%w: %d", ErrInvalidHour, hour)
	}
	if minute < 0 || minute > 59 {
		return Plan{}, fmt.Errorf("%w: %d", ErrInvalidMinute, minute)
	}
	if interval <= 0 {
		return Plan{}, fmt.Errorf("%w: %s", ErrInvalidInterval, interval)
	}
	if zone == nil {
		return Plan{}, ErrNilZone
	}
	return Plan{Hour: hour, Minute: minute, Interval: interval, Zone: zone}, nil
}

// First returns the initial due instant: the configured wall-clock slot on
// the calendar day preceding eventStart's day in the plan zone. It may lie
// in the past; a late import still owes the day-before notice.
func (p Plan) First(eventStart time.Time) time.Time {
	day := eventStart.In(p.Zone)
	return time.Date(day.Year(), day.Month(), day.Day()-1, p.Hour, p.Minute, 0, 0, p.Zone)
}

// Instants returns the full ascending sequence of due instants, every one
// strictly before eventStart.
func (p Plan) Instants(eventStart time.Time) []time.Time {
	out := make([]time.Time, 0, 8)
	for t := p.First(eventStart); t.Before(eventStart); t = t.Add(p.Interval) {
		out = append(out, t)
	}
	return out
}

// NextAfter returns the earliest due instant strictly after now, or nil when
// the schedule is exhausted. Advancing past every instant at or before now is
// what collapses a backlog into the single notification just sent and resumes
// interval pacing from there.
func (p Plan) NextAfter(eventStart, now time.Time) *time.Time {
	for t := p.First(eventStart); t.Before(eventStart); t = t.Add(p.Interval) {
		if t.After(now) {
			return &t
		}
	}
	return nil
}
