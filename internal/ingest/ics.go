// Package ingest turns uploaded calendar payloads into event records and
// filters out entries the engine should never track.
package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	applog "binday/internal/log"
	"binday/internal/model"
)

var ErrEmptyPayload = errors.New("ingest: empty calendar payload")

const untitled = "No Title"

// ParseICS extracts event records from one ICS payload. A malformed calendar
// fails as a whole; a defective single VEVENT is skipped with a log so one
// bad entry cannot sink the rest of the upload. All-day starts become
// midnight in the given zone.
func ParseICS(body []byte, zone *time.Location) ([]model.EventRecord, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrEmptyPayload
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ingest: parse calendar: %w", err)
	}

	out := make([]model.EventRecord, 0, len(cal.Events()))
	for _, ve := range cal.Events() {
		rec, perr := parseVEvent(ve, zone)
		if perr != nil {
			applog.Error("skipping calendar entry", perr, "title", rec.Title)
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func parseVEvent(ve *ical.VEvent, zone *time.Location) (model.EventRecord, error) {
	var rec model.EventRecord

	rec.Title = untitled
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil && p.Value != "" {
		rec.Title = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		rec.Description = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		rec.Location = p.Value
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil || dtStart.Value == "" {
		return rec, errors.New("missing DTSTART")
	}

	if isAllDay(dtStart) {
		day, err := time.ParseInLocation("20060102", dtStart.Value, zone)
		if err != nil {
			return rec, fmt.Errorf("bad all-day DTSTART %q: %w", dtStart.Value, err)
		}
		rec.Start = day
		return rec, nil
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return rec, fmt.Errorf("bad DTSTART %q: %w", dtStart.Value, err)
	}
	rec.Start = start.In(zone)
	return rec, nil
}

// isAllDay detects VALUE=DATE starts, either via the parameter or the bare
// YYYYMMDD value form.
func isAllDay(p *ical.IANAProperty) bool {
	if p.ICalParameters != nil {
		if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
			return true
		}
	}
	return !strings.Contains(p.Value, "T")
}
