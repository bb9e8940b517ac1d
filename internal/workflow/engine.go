package workflow

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/mailtriage/internal/guardrail"
	"github.com/fyrsmithlabs/mailtriage/internal/logging"
	"github.com/fyrsmithlabs/mailtriage/internal/mail"
	"github.com/fyrsmithlabs/mailtriage/internal/oracle"
	"github.com/fyrsmithlabs/mailtriage/internal/scheduler"
)

// State names a workflow stage.
type State string

const (
	StateClassify        State = "classify"
	StateScheduleMeeting State = "schedule_meeting"
	StateDraftReply      State = "draft_reply"
	StateCheckGuardrail  State = "check_guardrail"
	StateFinalize        State = "finalize"
)

// MeetingScheduler is the scheduling stage's dependency, pluggable so tests
// can script outcomes without a model.
type MeetingScheduler interface {
	Schedule(ctx context.Context, email mail.Email, today string) (scheduler.Outcome, error)
}

// Engine is the per-email state machine. One engine serves a whole run; it
// keeps no per-email state of its own.
type Engine struct {
	classifier oracle.Classifier
	scheduler  MeetingScheduler
	drafter    oracle.ReplyDrafter
	guard      *guardrail.Checker
	logger     *logging.Logger
	today      string
}

// NewEngine wires the engine's collaborators. today is the run's pinned
// date, in YYYY-MM-DD.
func NewEngine(
	classifier oracle.Classifier,
	meetings MeetingScheduler,
	drafter oracle.ReplyDrafter,
	guard *guardrail.Checker,
	logger *logging.Logger,
	today string,
) *Engine {
	if guard == nil {
		guard = guardrail.NewChecker(nil)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{
		classifier: classifier,
		scheduler:  meetings,
		drafter:    drafter,
		guard:      guard,
		logger:     logger.Named("workflow"),
		today:      today,
	}
}

// Process runs one email through the state machine to Finalize. On an oracle
// failure the partially filled record is returned alongside the error; side
// effects already applied to the calendar stay applied.
func (e *Engine) Process(ctx context.Context, email mail.Email) (*Record, error) {
	ctx = logging.WithEmailID(ctx, email.ID)
	rec := &Record{EmailID: email.ID}

	state := StateClassify
	for state != StateFinalize {
		var err error
		switch state {
		case StateClassify:
			state, err = e.classify(ctx, email, rec)
		case StateScheduleMeeting:
			state, err = e.scheduleMeeting(ctx, email, rec)
		case StateDraftReply:
			state, err = e.draftReply(ctx, email, rec)
		case StateCheckGuardrail:
			state, err = e.checkGuardrail(ctx, rec)
		default:
			return rec, fmt.Errorf("workflow reached unknown state %q", state)
		}
		if err != nil {
			return rec, err
		}
	}

	e.logger.Info(ctx, "workflow complete",
		zap.String("category", string(rec.Category)),
		zap.Bool("needs_human_review", rec.NeedsHumanReview))
	return rec, nil
}

// classify runs the classification oracle and routes on the category.
func (e *Engine) classify(ctx context.Context, email mail.Email, rec *Record) (State, error) {
	cls, err := e.classifier.Classify(ctx, email)
	if err != nil {
		return StateFinalize, err
	}
	rec.Category = cls.Category
	rec.Priority = cls.Priority
	rec.Reasoning = cls.Reasoning

	e.logger.Info(ctx, "classified",
		zap.String("category", string(cls.Category)),
		zap.Int("priority", cls.Priority))

	switch cls.Category {
	case mail.CategoryMeetingInvite:
		return StateScheduleMeeting, nil
	case mail.CategorySpam:
		// Spam ends here: no reply, no guardrail.
		return StateFinalize, nil
	default:
		return StateDraftReply, nil
	}
}

// scheduleMeeting records the meeting decision loop's outcome.
func (e *Engine) scheduleMeeting(ctx context.Context, email mail.Email, rec *Record) (State, error) {
	outcome, err := e.scheduler.Schedule(ctx, email, e.today)
	if err != nil {
		return StateFinalize, err
	}

	rec.MeetingInfo = &outcome
	rec.IsWorkingDay = &outcome.IsWorkingDay
	hasConflict := outcome.Conflict != nil && *outcome.Conflict != ""
	rec.HasConflict = &hasConflict
	if hasConflict {
		rec.ConflictWith = *outcome.Conflict
	}
	if !outcome.IsWorkingDay {
		rec.NonWorkingReason = outcome.Reason
	}
	rec.SuggestedDates = outcome.SuggestedDates
	if outcome.Added {
		rec.CalendarAction = fmt.Sprintf("added %s %s", outcome.Date, outcome.Time)
	} else {
		rec.CalendarAction = "none"
	}
	return StateDraftReply, nil
}

// draftReply invokes the reply oracle unless the sender or category rules it
// out; either way the guardrail check runs next.
func (e *Engine) draftReply(ctx context.Context, email mail.Email, rec *Record) (State, error) {
	if email.IsNoReply() || rec.Category == mail.CategorySpam {
		e.logger.Info(ctx, "reply skipped", zap.Bool("no_reply_sender", email.IsNoReply()))
		return StateCheckGuardrail, nil
	}

	rc := oracle.ReplyContext{
		Email:            email,
		Category:         rec.Category,
		Priority:         rec.Priority,
		IsWorkingDay:     rec.IsWorkingDay,
		NonWorkingReason: rec.NonWorkingReason,
		ConflictWith:     rec.ConflictWith,
		SuggestedDates:   rec.SuggestedDates,
	}
	if rec.HasConflict != nil {
		rc.HasConflict = *rec.HasConflict
	}
	if rec.MeetingInfo != nil {
		rc.MeetingSummary = fmt.Sprintf("date %s %s, added=%t, reason: %s",
			rec.MeetingInfo.Date, rec.MeetingInfo.Time, rec.MeetingInfo.Added, rec.MeetingInfo.Reason)
	}

	reply, err := e.drafter.Draft(ctx, rc)
	if err != nil {
		return StateFinalize, err
	}
	rec.Reply = reply
	return StateCheckGuardrail, nil
}

// checkGuardrail applies the reply policy and flags human review.
func (e *Engine) checkGuardrail(ctx context.Context, rec *Record) (State, error) {
	var reply string
	if rec.Reply != nil {
		reply = *rec.Reply
	}
	res := e.guard.Check(rec.Category, reply)
	rec.GuardrailTriggered = &res.Triggered
	rec.GuardrailReason = res.Reason
	rec.NeedsHumanReview = res.Triggered

	if res.Triggered {
		e.logger.Warn(ctx, "guardrail triggered", zap.String("reason", res.Reason))
	}
	return StateFinalize, nil
}
