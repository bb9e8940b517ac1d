// Package workflow sequences an email through classification, optional
// meeting scheduling, reply drafting, the guardrail check and finalization,
// accumulating a per-email record along the way.
package workflow

import (
	"github.com/fyrsmithlabs/mailtriage/internal/mail"
	"github.com/fyrsmithlabs/mailtriage/internal/scheduler"
)

// Record is the accumulating per-email state. Each stage writes its fields
// exactly once; fields of stages that never ran stay at their zero value and
// are omitted from the emitted JSON.
type Record struct {
	EmailID            string             `json:"email_id"`
	Category           mail.Category      `json:"category,omitempty"`
	Priority           int                `json:"priority,omitempty"`
	Reasoning          string             `json:"reasoning,omitempty"`
	MeetingInfo        *scheduler.Outcome `json:"meeting_info,omitempty"`
	IsWorkingDay       *bool              `json:"is_working_day,omitempty"`
	NonWorkingReason   string             `json:"non_working_reason,omitempty"`
	HasConflict        *bool              `json:"has_conflict,omitempty"`
	ConflictWith       string             `json:"conflict_with,omitempty"`
	SuggestedDates     []string           `json:"suggested_dates,omitempty"`
	GuardrailTriggered *bool              `json:"guardrail_triggered,omitempty"`
	GuardrailReason    string             `json:"guardrail_reason,omitempty"`
	NeedsHumanReview   bool               `json:"needs_human_review"`
	Reply              *string            `json:"reply,omitempty"`
	CalendarAction     string             `json:"calendar_action,omitempty"`
	Error              string             `json:"error,omitempty"`
}
