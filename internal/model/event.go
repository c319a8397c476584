package model

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// EventRecord is one calendar occurrence as produced by the ingest adapter.
// Immutable once extracted.
type EventRecord struct {
	Title       string
	Description string
	Location    string
	Start       time.Time
}

// EventID derives the stable reminder identity for an owner/event pair.
// The same owner, title, and start always hash to the same ID, so
// re-importing an unchanged calendar hits the same row; a moved start
// yields a new identity.
func EventID(ownerID, title string, start time.Time) string {
	h := sha256.New()
	h.Write([]byte(ownerID))
	h.Write([]byte{0})
	h.Write([]byte(title))
	h.Write([]byte{0})
	h.Write([]byte(start.UTC().Format(time.RFC3339)))
	return hex.EncodeToString(h.Sum(nil))[:32]
}
