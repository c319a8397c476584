package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"binday/internal/model"
)

// Fixed-width UTC layout so lexicographic text comparison in SQL matches
// chronological order.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const reminderColumns = `id, owner_id, event_title, event_start, state, next_due_at, created_at, last_notified_at, acknowledged_at, expired_at`

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("enable wal: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// OpenSQLite opens (creating parent directories as needed) and migrates the
// reminder database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := MigrateUp(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	store, err := NewSQLiteStore(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Upsert(ctx context.Context, in model.Reminder) error {
	if err := in.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reminders (`+reminderColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner_id = excluded.owner_id,
			event_title = excluded.event_title,
			event_start = excluded.event_start,
			state = excluded.state,
			next_due_at = excluded.next_due_at,
			created_at = excluded.created_at,
			last_notified_at = excluded.last_notified_at,
			acknowledged_at = excluded.acknowledged_at,
			expired_at = excluded.expired_at`,
		in.ID, in.OwnerID, in.EventTitle, mustTime(in.EventStart), string(in.State),
		nullTime(in.NextDueAt), mustTime(in.CreatedAt), nullTime(in.LastNotifiedAt),
		nullTime(in.AcknowledgedAt), nullTime(in.ExpiredAt),
	)
	if err != nil {
		return fmt.Errorf("storage: upsert reminder %s: %w", in.ID, err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (model.Reminder, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+reminderColumns+` FROM reminders WHERE id = ?`, id)
	item, err := scanReminder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Reminder{}, ErrNotFound
		}
		return model.Reminder{}, err
	}
	return item, nil
}

func (s *SQLiteStore) ListOwner(ctx context.Context, ownerID string) ([]model.Reminder, error) {
	return s.list(ctx, `
		SELECT `+reminderColumns+` FROM reminders
		WHERE owner_id = ? ORDER BY event_start ASC`, ownerID)
}

func (s *SQLiteStore) ListDue(ctx context.Context, now time.Time) ([]model.Reminder, error) {
	return s.list(ctx, `
		SELECT `+reminderColumns+` FROM reminders
		WHERE state IN (?, ?) AND next_due_at IS NOT NULL AND next_due_at <= ?
		ORDER BY next_due_at ASC`,
		string(model.StatePending), string(model.StateNotified), mustTime(now))
}

func (s *SQLiteStore) ListUnsettled(ctx context.Context) ([]model.Reminder, error) {
	return s.list(ctx, `
		SELECT `+reminderColumns+` FROM reminders
		WHERE state IN (?, ?) ORDER BY event_start ASC`,
		string(model.StatePending), string(model.StateNotified))
}

func (s *SQLiteStore) ClearOwner(ctx context.Context, ownerID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reminders WHERE owner_id = ?`, ownerID)
	if err != nil {
		return 0, fmt.Errorf("storage: clear owner %s: %w", ownerID, err)
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM reminders
		WHERE state = ? AND expired_at IS NOT NULL AND expired_at <= ?`,
		string(model.StateExpired), mustTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("storage: delete expired: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) list(ctx context.Context, query string, args ...any) ([]model.Reminder, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Reminder, 0)
	for rows.Next() {
		item, scanErr := scanReminder(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func nullTime(v *time.Time) any {
	if v == nil {
		return nil
	}
	return v.UTC().Format(sqliteTimeLayout)
}

func mustTime(v time.Time) string {
	return v.UTC().Format(sqliteTimeLayout)
}

func parseNullableTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	tm, err := time.Parse(sqliteTimeLayout, v.String)
	if err != nil {
		return nil, err
	}
	return &tm, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReminder(s scanner) (model.Reminder, error) {
	var out model.Reminder
	var state, eventStart, created string
	var due, notified, acked, expired sql.NullString

	if err := s.Scan(&out.ID, &out.OwnerID, &out.EventTitle, &eventStart, &state,
		&due, &created, &notified, &acked, &expired); err != nil {
		return model.Reminder{}, err
	}

	start, err := time.Parse(sqliteTimeLayout, eventStart)
	if err != nil {
		return model.Reminder{}, err
	}
	createdAt, err := time.Parse(sqliteTimeLayout, created)
	if err != nil {
		return model.Reminder{}, err
	}
	nextDue, err := parseNullableTime(due)
	if err != nil {
		return model.Reminder{}, err
	}
	lastNotified, err := parseNullableTime(notified)
	if err != nil {
		return model.Reminder{}, err
	}
	ackedAt, err := parseNullableTime(acked)
	if err != nil {
		return model.Reminder{}, err
	}
	expiredAt, err := parseNullableTime(expired)
	if err != nil {
		return model.Reminder{}, err
	}

	out.EventStart = start
	out.State = model.State(state)
	out.NextDueAt = nextDue
	out.CreatedAt = createdAt
	out.LastNotifiedAt = lastNotified
	out.AcknowledgedAt = ackedAt
	out.ExpiredAt = expiredAt
	return out, nil
}
