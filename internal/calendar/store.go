package calendar

import (
	"context"
	"sort"
	"strings"
	"time"
)

// Window bounds a query. Nil bounds are open.
type Window struct {
	Start *time.Time
	End   *time.Time
}

// Selector identifies events to delete. Title takes precedence: it matches
// case-insensitively as a substring. Start matches by exact start time.
type Selector struct {
	Title string
	Start *time.Time
}

// AddFailure classifies why an add was refused.
type AddFailure string

const (
	FailureNone          AddFailure = ""
	FailureConflict      AddFailure = "conflict"
	FailureNonWorkingDay AddFailure = "non_working_day"
)

// AddResult reports the outcome of an add. Refusals are results, not errors:
// the store is unchanged and the caller relays the reason.
type AddResult struct {
	Added            bool
	Event            Event
	Failure          AddFailure
	ConflictWith     string   // title of the first overlapping event
	NonWorkingReason string   // weekday or holiday name
	Alternatives     []string // suggested working dates when the day is refused
}

// DeleteResult reports how many events a delete removed.
type DeleteResult struct {
	Deleted int
}

// Store owns the ordered event set. Every mutation is durably persisted,
// sorted ascending by start time, before the call returns success. The
// baseline snapshot the store was seeded from is never written.
//
// Stores are safe for use from a single sequential run; concurrent runs
// against the same backing file or database need external mutual exclusion.
type Store interface {
	// Query returns events overlapping the window: with both bounds, strict
	// interval overlap; with only a start, events ending strictly after it;
	// with neither, every stored event.
	Query(ctx context.Context, win Window) ([]Event, error)

	// Add refuses non-working-day starts and conflicting intervals, else
	// appends the event and persists.
	Add(ctx context.Context, ev Event) (AddResult, error)

	// Delete removes events matched by the selector. Zero matches is
	// ErrNotFound; a nil selector is ErrMissingSelector.
	Delete(ctx context.Context, sel Selector) (DeleteResult, error)

	// WorkingCalendar exposes the store's holiday table.
	WorkingCalendar() *WorkingCalendar

	Close() error
}

// sortEvents orders events ascending by start time, title as tiebreak so
// persisted output is stable.
func sortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Start.Equal(events[j].Start) {
			return events[i].Start.Before(events[j].Start)
		}
		return events[i].Title < events[j].Title
	})
}

// filterWindow applies Window semantics to an event list.
func filterWindow(events []Event, win Window) []Event {
	if win.Start == nil && win.End == nil {
		return events
	}
	out := make([]Event, 0, len(events))
	for _, e := range events {
		switch {
		case win.Start != nil && win.End != nil:
			if e.Overlaps(*win.Start, *win.End) {
				out = append(out, e)
			}
		case win.Start != nil:
			if e.End.After(*win.Start) {
				out = append(out, e)
			}
		default:
			// End alone is not a defined bound; treat as unbounded.
			out = append(out, e)
		}
	}
	return out
}

// matchSelector reports whether the selector matches the event.
func matchSelector(e Event, sel Selector) bool {
	if sel.Title != "" {
		return strings.Contains(strings.ToLower(e.Title), strings.ToLower(sel.Title))
	}
	if sel.Start != nil {
		return e.Start.Equal(*sel.Start)
	}
	return false
}

// refuseAdd runs the add preconditions shared by every store implementation:
// the working-day rule first, then the conflict scan over current events.
func refuseAdd(wc *WorkingCalendar, events []Event, ev Event) (AddResult, bool) {
	if ok, reason := wc.IsWorkingDay(ev.Start); !ok {
		return AddResult{
			Failure:          FailureNonWorkingDay,
			NonWorkingReason: reason,
			Alternatives:     wc.NextWorkingDates(ev.Start, 3),
		}, true
	}
	for _, existing := range events {
		if existing.Overlaps(ev.Start, ev.End) {
			return AddResult{
				Failure:      FailureConflict,
				ConflictWith: existing.Title,
			}, true
		}
	}
	return AddResult{}, false
}
