package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore persists the event set to a JSON-array working file. It is
// seeded from a read-only baseline file on first access; the baseline is
// never written. Every mutation rewrites the working file atomically,
// sorted ascending by start time.
type FileStore struct {
	mu           sync.Mutex
	baselinePath string
	workingPath  string
	workcal      *WorkingCalendar
}

// NewFileStore opens a file-backed store. Neither file needs to exist yet:
// a missing working file falls back to the baseline, and a missing baseline
// means an empty calendar.
func NewFileStore(baselinePath, workingPath string, workcal *WorkingCalendar) (*FileStore, error) {
	if workingPath == "" {
		return nil, fmt.Errorf("working calendar path is required")
	}
	if workcal == nil {
		workcal = NewWorkingCalendar(TaiwanHolidays2026())
	}
	if err := os.MkdirAll(filepath.Dir(workingPath), 0o755); err != nil {
		return nil, fmt.Errorf("create working calendar directory: %w", err)
	}
	return &FileStore{
		baselinePath: baselinePath,
		workingPath:  workingPath,
		workcal:      workcal,
	}, nil
}

// Reset discards the working copy so the next access re-seeds from the
// baseline. Called by the run driver at run start.
func (s *FileStore) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.workingPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reset working calendar: %w", err)
	}
	return nil
}

// WorkingCalendar exposes the store's holiday table.
func (s *FileStore) WorkingCalendar() *WorkingCalendar {
	return s.workcal
}

// Query implements Store.
func (s *FileStore) Query(ctx context.Context, win Window) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	events, err := s.load()
	if err != nil {
		return nil, err
	}
	return filterWindow(events, win), nil
}

// Add implements Store.
func (s *FileStore) Add(ctx context.Context, ev Event) (AddResult, error) {
	if !ev.Start.Before(ev.End) {
		return AddResult{}, fmt.Errorf("%w: %s >= %s", ErrInvalidInterval,
			ev.Start.Format(TimestampLayout), ev.End.Format(TimestampLayout))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.load()
	if err != nil {
		return AddResult{}, err
	}
	if res, refused := refuseAdd(s.workcal, events, ev); refused {
		return res, nil
	}

	events = append(events, ev)
	if err := s.persist(events); err != nil {
		return AddResult{}, err
	}
	return AddResult{Added: true, Event: ev}, nil
}

// Delete implements Store.
func (s *FileStore) Delete(ctx context.Context, sel Selector) (DeleteResult, error) {
	if sel.Title == "" && sel.Start == nil {
		return DeleteResult{}, ErrMissingSelector
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.load()
	if err != nil {
		return DeleteResult{}, err
	}

	kept := events[:0:0]
	for _, e := range events {
		if !matchSelector(e, sel) {
			kept = append(kept, e)
		}
	}
	deleted := len(events) - len(kept)
	if deleted == 0 {
		return DeleteResult{}, ErrNotFound
	}
	if err := s.persist(kept); err != nil {
		return DeleteResult{}, err
	}
	return DeleteResult{Deleted: deleted}, nil
}

// Close implements Store. The file store holds no open handles.
func (s *FileStore) Close() error { return nil }

// load reads the working copy, falling back to the baseline snapshot.
func (s *FileStore) load() ([]Event, error) {
	for _, path := range []string{s.workingPath, s.baselinePath} {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read calendar %s: %w", path, err)
		}
		var events []Event
		if err := json.Unmarshal(data, &events); err != nil {
			return nil, fmt.Errorf("decode calendar %s: %w", path, err)
		}
		return events, nil
	}
	return nil, nil
}

// persist durably rewrites the working file: sorted, written to a temp file
// in the same directory, fsynced, then renamed over the working copy so a
// crash between operations never loses or reorders prior writes.
func (s *FileStore) persist(events []Event) error {
	sortEvents(events)
	if events == nil {
		events = []Event{}
	}
	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return fmt.Errorf("encode calendar: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(s.workingPath), ".calendar-*.json")
	if err != nil {
		return fmt.Errorf("create temp calendar: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write calendar: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync calendar: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close calendar: %w", err)
	}
	if err := os.Rename(tmpName, s.workingPath); err != nil {
		return fmt.Errorf("replace calendar: %w", err)
	}
	return nil
}
