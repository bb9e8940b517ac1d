// Package scheduler drives meeting handling: it exposes the calendar
// operation surface to the meeting-decision oracle and runs the bounded
// decision loop that must end in a structured outcome.
package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fyrsmithlabs/mailtriage/internal/calendar"
)

// Tool names, shared by the in-process loop and the MCP server.
const (
	ToolCheckWorkingDay     = "check_working_day"
	ToolGetCalendarEvents   = "get_calendar_events"
	ToolAddCalendarEvent    = "add_calendar_event"
	ToolDeleteCalendarEvent = "delete_calendar_event"
)

// EventPayload is the wire shape of an event.
type EventPayload struct {
	Title string `json:"title"`
	Start string `json:"start"`
	End   string `json:"end"`
}

func toPayload(ev calendar.Event) EventPayload {
	return EventPayload{
		Title: ev.Title,
		Start: ev.Start.Format(calendar.TimestampLayout),
		End:   ev.End.Format(calendar.TimestampLayout),
	}
}

// CheckWorkingDayInput asks whether a date can host a meeting.
type CheckWorkingDayInput struct {
	Date string `json:"date" jsonschema:"required,Date to check in YYYY-MM-DD format (e.g. 2026-01-20). Call this before adding any calendar event."`
}

// CheckWorkingDayOutput reports working-day status; alternatives are present
// only for non-working days, three entries when available.
type CheckWorkingDayOutput struct {
	Date                  string   `json:"date"`
	IsWorking             bool     `json:"is_working"`
	Reason                string   `json:"reason,omitempty"`
	SuggestedAlternatives []string `json:"suggested_alternatives,omitempty"`
}

// GetCalendarEventsInput bounds an event query. Both bounds optional.
type GetCalendarEventsInput struct {
	StartDate string `json:"start_date,omitempty" jsonschema:"Filter start in ISO format (2026-01-20 or 2026-01-20T14:00:00). With end_date set, returns events overlapping the window; alone, returns events not yet concluded."`
	EndDate   string `json:"end_date,omitempty" jsonschema:"Filter end in ISO format"`
}

// GetCalendarEventsOutput lists the matching events. A non-empty list for a
// proposed window means the window conflicts.
type GetCalendarEventsOutput struct {
	Events []EventPayload `json:"events"`
}

// AddCalendarEventInput proposes a new event.
type AddCalendarEventInput struct {
	Title string `json:"title" jsonschema:"required,Event title"`
	Start string `json:"start" jsonschema:"required,Start time in ISO format (e.g. 2026-01-20T14:00:00)"`
	End   string `json:"end" jsonschema:"required,End time in ISO format (e.g. 2026-01-20T15:00:00)"`
}

// AddCalendarEventOutput reports the add outcome. Refusals carry a reason:
// "conflict" names the colliding event, "non_working_day" names the weekday
// or holiday and suggests alternative working dates.
type AddCalendarEventOutput struct {
	Success               bool          `json:"success"`
	Event                 *EventPayload `json:"event,omitempty"`
	Reason                string        `json:"reason,omitempty"`
	ConflictWith          string        `json:"conflict_with,omitempty"`
	Detail                string        `json:"detail,omitempty"`
	SuggestedAlternatives []string      `json:"suggested_alternatives,omitempty"`
}

// DeleteCalendarEventInput selects events to remove: title matches as a
// case-insensitive substring, start matches exactly. At least one required.
type DeleteCalendarEventInput struct {
	Title string `json:"title,omitempty" jsonschema:"Delete by title substring match (e.g. 視訊會議)"`
	Start string `json:"start,omitempty" jsonschema:"Delete by exact start time in ISO format (e.g. 2026-01-27T14:00:00)"`
}

// DeleteCalendarEventOutput reports the delete outcome. Matching nothing is a
// failed result, not an error.
type DeleteCalendarEventOutput struct {
	Success      bool   `json:"success"`
	DeletedCount int    `json:"deleted_count,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

// Toolset binds the four calendar operations to one store. It is resolved
// once at process start and passed by reference wherever the operations are
// needed; there is no hidden shared registry.
type Toolset struct {
	store calendar.Store
}

// NewToolset builds the operation surface over a store.
func NewToolset(store calendar.Store) *Toolset {
	return &Toolset{store: store}
}

// CheckWorkingDay implements check_working_day.
func (t *Toolset) CheckWorkingDay(ctx context.Context, in CheckWorkingDayInput) (CheckWorkingDayOutput, error) {
	day, err := calendar.ParseDate(in.Date)
	if err != nil {
		return CheckWorkingDayOutput{}, err
	}
	wc := t.store.WorkingCalendar()
	out := CheckWorkingDayOutput{Date: in.Date}
	out.IsWorking, out.Reason = wc.IsWorkingDay(day)
	if !out.IsWorking {
		out.SuggestedAlternatives = wc.NextWorkingDates(day, 3)
	}
	return out, nil
}

// GetCalendarEvents implements get_calendar_events.
func (t *Toolset) GetCalendarEvents(ctx context.Context, in GetCalendarEventsInput) (GetCalendarEventsOutput, error) {
	var win calendar.Window
	if in.StartDate != "" {
		start, err := calendar.ParseTimestamp(in.StartDate)
		if err != nil {
			return GetCalendarEventsOutput{}, err
		}
		win.Start = &start
	}
	if in.EndDate != "" {
		end, err := calendar.ParseTimestamp(in.EndDate)
		if err != nil {
			return GetCalendarEventsOutput{}, err
		}
		win.End = &end
	}

	events, err := t.store.Query(ctx, win)
	if err != nil {
		return GetCalendarEventsOutput{}, err
	}
	out := GetCalendarEventsOutput{Events: make([]EventPayload, 0, len(events))}
	for _, ev := range events {
		out.Events = append(out.Events, toPayload(ev))
	}
	return out, nil
}

// AddCalendarEvent implements add_calendar_event.
func (t *Toolset) AddCalendarEvent(ctx context.Context, in AddCalendarEventInput) (AddCalendarEventOutput, error) {
	ev, err := calendar.NewEvent(in.Title, in.Start, in.End)
	if err != nil {
		return AddCalendarEventOutput{}, err
	}
	res, err := t.store.Add(ctx, ev)
	if err != nil {
		return AddCalendarEventOutput{}, err
	}
	if !res.Added {
		out := AddCalendarEventOutput{Reason: string(res.Failure)}
		switch res.Failure {
		case calendar.FailureConflict:
			out.ConflictWith = res.ConflictWith
		case calendar.FailureNonWorkingDay:
			out.Detail = res.NonWorkingReason
			out.SuggestedAlternatives = res.Alternatives
		}
		return out, nil
	}
	payload := toPayload(res.Event)
	return AddCalendarEventOutput{Success: true, Event: &payload}, nil
}

// DeleteCalendarEvent implements delete_calendar_event.
func (t *Toolset) DeleteCalendarEvent(ctx context.Context, in DeleteCalendarEventInput) (DeleteCalendarEventOutput, error) {
	sel := calendar.Selector{Title: in.Title}
	if in.Start != "" {
		start, err := calendar.ParseTimestamp(in.Start)
		if err != nil {
			return DeleteCalendarEventOutput{}, err
		}
		sel.Start = &start
	}

	res, err := t.store.Delete(ctx, sel)
	if errors.Is(err, calendar.ErrNotFound) {
		return DeleteCalendarEventOutput{Reason: "no matching events"}, nil
	}
	if err != nil {
		return DeleteCalendarEventOutput{}, err
	}
	return DeleteCalendarEventOutput{Success: true, DeletedCount: res.Deleted}, nil
}

// Call dispatches a named operation with JSON arguments and returns the JSON
// result in the shape the decision loop feeds back to the oracle.
func (t *Toolset) Call(ctx context.Context, name string, args []byte) (string, error) {
	var out any
	var err error
	switch name {
	case ToolCheckWorkingDay:
		var in CheckWorkingDayInput
		if err = json.Unmarshal(args, &in); err == nil {
			out, err = t.CheckWorkingDay(ctx, in)
		}
	case ToolGetCalendarEvents:
		var in GetCalendarEventsInput
		if err = json.Unmarshal(args, &in); err == nil {
			out, err = t.GetCalendarEvents(ctx, in)
		}
	case ToolAddCalendarEvent:
		var in AddCalendarEventInput
		if err = json.Unmarshal(args, &in); err == nil {
			out, err = t.AddCalendarEvent(ctx, in)
		}
	case ToolDeleteCalendarEvent:
		var in DeleteCalendarEventInput
		if err = json.Unmarshal(args, &in); err == nil {
			out, err = t.DeleteCalendarEvent(ctx, in)
		}
	default:
		return "", fmt.Errorf("unknown tool %q", name)
	}
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
