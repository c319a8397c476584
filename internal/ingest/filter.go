package ingest

import (
	"strings"

	"binday/internal/model"
)

// Filter drops records whose title or description contains any ignore term,
// case-insensitive. Input order is preserved; the input slice is untouched.
func Filter(records []model.EventRecord, ignoreTerms []string) []model.EventRecord {
	if len(ignoreTerms) == 0 {
		return append([]model.EventRecord(nil), records...)
	}

	out := make([]model.EventRecord, 0, len(records))
	for _, rec := range records {
		if !ignored(rec, ignoreTerms) {
			out = append(out, rec)
		}
	}
	return out
}

func ignored(rec model.EventRecord, terms []string) bool {
	title := strings.ToLower(rec.Title)
	desc := strings.ToLower(rec.Description)
	for _, term := range terms {
		needle := strings.ToLower(strings.TrimSpace(term))
		if needle == "" {
			continue
		}
		if strings.Contains(title, needle) || strings.Contains(desc, needle) {
			return true
		}
	}
	return false
}
