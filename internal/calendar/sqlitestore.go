package calendar

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteStore persists the event set in an embedded SQLite database. The
// schema is created on open and the events table is seeded from the baseline
// JSON snapshot when empty, so a run against a fresh database sees the same
// starting calendar as the file store. Mutations commit before returning.
type SQLiteStore struct {
	mu           sync.Mutex
	db           *sql.DB
	baselinePath string
	workcal      *WorkingCalendar
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS events (
	id    INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	starts_at TEXT NOT NULL,
	ends_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_start ON events(starts_at);
`

// NewSQLiteStore opens (and if needed seeds) a SQLite-backed store at dsn.
func NewSQLiteStore(dsn, baselinePath string, workcal *WorkingCalendar) (*SQLiteStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("sqlite dsn is required")
	}
	if workcal == nil {
		workcal = NewWorkingCalendar(TaiwanHolidays2026())
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	// The store is used from one sequential run; a single connection keeps
	// transactions and in-memory DSNs well-defined.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create events schema: %w", err)
	}

	s := &SQLiteStore{db: db, baselinePath: baselinePath, workcal: workcal}
	if err := s.seedIfEmpty(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Reset restores the events table to the baseline snapshot.
func (s *SQLiteStore) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.Exec(`DELETE FROM events`); err != nil {
		return fmt.Errorf("reset events: %w", err)
	}
	return s.seedLocked()
}

// WorkingCalendar exposes the store's holiday table.
func (s *SQLiteStore) WorkingCalendar() *WorkingCalendar {
	return s.workcal
}

// Query implements Store.
func (s *SQLiteStore) Query(ctx context.Context, win Window) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	events, err := s.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	return filterWindow(events, win), nil
}

// Add implements Store.
func (s *SQLiteStore) Add(ctx context.Context, ev Event) (AddResult, error) {
	if !ev.Start.Before(ev.End) {
		return AddResult{}, fmt.Errorf("%w: %s >= %s", ErrInvalidInterval,
			ev.Start.Format(TimestampLayout), ev.End.Format(TimestampLayout))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.loadAll(ctx)
	if err != nil {
		return AddResult{}, err
	}
	if res, refused := refuseAdd(s.workcal, events, ev); refused {
		return res, nil
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO events (title, starts_at, ends_at) VALUES (?, ?, ?)`,
		ev.Title, ev.Start.Format(TimestampLayout), ev.End.Format(TimestampLayout))
	if err != nil {
		return AddResult{}, fmt.Errorf("insert event: %w", err)
	}
	return AddResult{Added: true, Event: ev}, nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, sel Selector) (DeleteResult, error) {
	if sel.Title == "" && sel.Start == nil {
		return DeleteResult{}, ErrMissingSelector
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var res sql.Result
	var err error
	if sel.Title != "" {
		res, err = s.db.ExecContext(ctx,
			`DELETE FROM events WHERE instr(lower(title), lower(?)) > 0`, sel.Title)
	} else {
		res, err = s.db.ExecContext(ctx,
			`DELETE FROM events WHERE starts_at = ?`, sel.Start.Format(TimestampLayout))
	}
	if err != nil {
		return DeleteResult{}, fmt.Errorf("delete events: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return DeleteResult{}, fmt.Errorf("delete events: %w", err)
	}
	if deleted == 0 {
		return DeleteResult{}, ErrNotFound
	}
	return DeleteResult{Deleted: int(deleted)}, nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// loadAll reads every event ordered by start time.
func (s *SQLiteStore) loadAll(ctx context.Context) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT title, starts_at, ends_at FROM events ORDER BY starts_at, title, id`)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var title, start, end string
		if err := rows.Scan(&title, &start, &end); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev, err := NewEvent(title, start, end)
		if err != nil {
			return nil, fmt.Errorf("stored event %q: %w", title, err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (s *SQLiteStore) seedIfEmpty() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM events`).Scan(&count); err != nil {
		return fmt.Errorf("count events: %w", err)
	}
	if count > 0 {
		return nil
	}
	return s.seedLocked()
}

// seedLocked inserts the baseline snapshot. Caller holds the mutex.
func (s *SQLiteStore) seedLocked() error {
	if s.baselinePath == "" {
		return nil
	}
	data, err := os.ReadFile(s.baselinePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read baseline calendar: %w", err)
	}
	var events []Event
	if err := json.Unmarshal(data, &events); err != nil {
		return fmt.Errorf("decode baseline calendar: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("seed events: %w", err)
	}
	for _, ev := range events {
		if _, err := tx.Exec(
			`INSERT INTO events (title, starts_at, ends_at) VALUES (?, ?, ?)`,
			ev.Title, ev.Start.Format(TimestampLayout), ev.End.Format(TimestampLayout)); err != nil {
			tx.Rollback()
			return fmt.Errorf("seed events: %w", err)
		}
	}
	return tx.Commit()
}
