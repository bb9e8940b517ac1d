// Package calendar owns the event store, working-day determination and
// conflict detection for the triage run. Stores are constructed from a
// read-only baseline snapshot and write every mutation through to a separate
// working copy, sorted ascending by start time.
package calendar

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	// TimestampLayout is the wire format for event timestamps. The calendar
	// file carries naive local timestamps, not RFC3339.
	TimestampLayout = "2006-01-02T15:04:05"

	// DateLayout is the wire format for bare dates.
	DateLayout = "2006-01-02"
)

var (
	// ErrInvalidTimestamp indicates a malformed date/time input.
	ErrInvalidTimestamp = errors.New("invalid timestamp")

	// ErrInvalidInterval indicates an event whose start is not before its end.
	ErrInvalidInterval = errors.New("event start must be before end")

	// ErrMissingSelector indicates a delete call with neither title nor start.
	ErrMissingSelector = errors.New("delete requires a title or start selector")

	// ErrNotFound indicates a delete that matched no stored events.
	ErrNotFound = errors.New("no matching events")
)

// Event is a single calendar entry. Events are never mutated in place;
// reschedules delete and re-add. Duplicates with identical fields are allowed.
type Event struct {
	Title string
	Start time.Time
	End   time.Time
}

// NewEvent builds a validated event from wire timestamps.
func NewEvent(title, start, end string) (Event, error) {
	s, err := ParseTimestamp(start)
	if err != nil {
		return Event{}, err
	}
	e, err := ParseTimestamp(end)
	if err != nil {
		return Event{}, err
	}
	if !s.Before(e) {
		return Event{}, fmt.Errorf("%w: %s >= %s", ErrInvalidInterval, start, end)
	}
	return Event{Title: title, Start: s, End: e}, nil
}

// Overlaps reports strict interval overlap with [start, end). Events sharing
// only an endpoint do not overlap.
func (e Event) Overlaps(start, end time.Time) bool {
	return e.Start.Before(end) && e.End.After(start)
}

// eventJSON is the persistence and wire shape of an event.
type eventJSON struct {
	Title string `json:"title"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// MarshalJSON encodes the event in the calendar file format.
func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(eventJSON{
		Title: e.Title,
		Start: e.Start.Format(TimestampLayout),
		End:   e.End.Format(TimestampLayout),
	})
}

// UnmarshalJSON decodes the calendar file format.
func (e *Event) UnmarshalJSON(data []byte) error {
	var raw eventJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	ev, err := NewEvent(raw.Title, raw.Start, raw.End)
	if err != nil {
		return err
	}
	*e = ev
	return nil
}

// ParseTimestamp parses an ISO-8601 timestamp. Naive local timestamps,
// RFC3339 and bare dates are all accepted.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{TimestampLayout, time.RFC3339, DateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
}

// ParseDate parses a bare YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
	}
	return t, nil
}
