package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/mailtriage/internal/guardrail"
	"github.com/fyrsmithlabs/mailtriage/internal/mail"
	"github.com/fyrsmithlabs/mailtriage/internal/oracle"
	"github.com/fyrsmithlabs/mailtriage/internal/scheduler"
)

type fakeClassifier struct {
	cls oracle.Classification
	err error
}

func (f *fakeClassifier) Classify(ctx context.Context, email mail.Email) (oracle.Classification, error) {
	return f.cls, f.err
}

type fakeScheduler struct {
	outcome scheduler.Outcome
	err     error
	called  bool
}

func (f *fakeScheduler) Schedule(ctx context.Context, email mail.Email, today string) (scheduler.Outcome, error) {
	f.called = true
	return f.outcome, f.err
}

type fakeDrafter struct {
	reply  *string
	err    error
	called bool
	lastRC oracle.ReplyContext
}

func (f *fakeDrafter) Draft(ctx context.Context, rc oracle.ReplyContext) (*string, error) {
	f.called = true
	f.lastRC = rc
	return f.reply, f.err
}

func strptr(s string) *string { return &s }

func newTestEngine(c *fakeClassifier, s *fakeScheduler, d *fakeDrafter) *Engine {
	return NewEngine(c, s, d, guardrail.NewChecker(nil), nil, "2026-01-19")
}

func TestProcessGeneralEmail(t *testing.T) {
	drafter := &fakeDrafter{reply: strptr("收到，謝謝。")}
	eng := newTestEngine(
		&fakeClassifier{cls: oracle.Classification{Category: mail.CategoryGeneral, Priority: 2, Reasoning: "ordinary"}},
		&fakeScheduler{},
		drafter,
	)

	rec, err := eng.Process(context.Background(), mail.Email{ID: "email_001", Sender: "a@example.com"})
	require.NoError(t, err)
	assert.Equal(t, mail.CategoryGeneral, rec.Category)
	assert.Equal(t, 2, rec.Priority)
	require.NotNil(t, rec.Reply)
	assert.Equal(t, "收到，謝謝。", *rec.Reply)
	assert.False(t, rec.NeedsHumanReview)
	require.NotNil(t, rec.GuardrailTriggered)
	assert.False(t, *rec.GuardrailTriggered)
}

func TestProcessSpamSkipsReplyAndGuardrail(t *testing.T) {
	sched := &fakeScheduler{}
	drafter := &fakeDrafter{reply: strptr("should never be used")}
	eng := newTestEngine(
		&fakeClassifier{cls: oracle.Classification{Category: mail.CategorySpam, Priority: 1}},
		sched,
		drafter,
	)

	rec, err := eng.Process(context.Background(), mail.Email{ID: "email_002"})
	require.NoError(t, err)
	assert.Equal(t, mail.CategorySpam, rec.Category)
	assert.Nil(t, rec.Reply)
	assert.False(t, rec.NeedsHumanReview)
	assert.False(t, drafter.called)
	assert.False(t, sched.called)
	assert.Nil(t, rec.GuardrailTriggered)
}

func TestProcessNoReplySenderSkipsDrafting(t *testing.T) {
	drafter := &fakeDrafter{reply: strptr("should never be used")}
	eng := newTestEngine(
		&fakeClassifier{cls: oracle.Classification{Category: mail.CategoryGeneral, Priority: 1}},
		&fakeScheduler{},
		drafter,
	)

	rec, err := eng.Process(context.Background(), mail.Email{
		ID:     "email_003",
		Sender: "no-reply@newsletter.example.com",
	})
	require.NoError(t, err)
	assert.Nil(t, rec.Reply)
	assert.False(t, drafter.called)
	// The guardrail still runs on the empty reply.
	require.NotNil(t, rec.GuardrailTriggered)
	assert.False(t, *rec.GuardrailTriggered)
}

func TestProcessMeetingInvite(t *testing.T) {
	sched := &fakeScheduler{outcome: scheduler.Outcome{
		Date:         "2026-01-20",
		Time:         "14:00-15:00",
		IsWorkingDay: true,
		Added:        true,
		Reason:       "slot free",
	}}
	drafter := &fakeDrafter{reply: strptr("已確認出席。")}
	eng := newTestEngine(
		&fakeClassifier{cls: oracle.Classification{Category: mail.CategoryMeetingInvite, Priority: 3}},
		sched,
		drafter,
	)

	rec, err := eng.Process(context.Background(), mail.Email{ID: "email_004", Sender: "pm@example.com"})
	require.NoError(t, err)
	assert.True(t, sched.called)
	require.NotNil(t, rec.MeetingInfo)
	assert.Equal(t, "added 2026-01-20 14:00-15:00", rec.CalendarAction)
	require.NotNil(t, rec.IsWorkingDay)
	assert.True(t, *rec.IsWorkingDay)
	require.NotNil(t, rec.HasConflict)
	assert.False(t, *rec.HasConflict)

	// The drafter saw the meeting outcome.
	assert.True(t, drafter.called)
	assert.Contains(t, drafter.lastRC.MeetingSummary, "2026-01-20")
	assert.Contains(t, drafter.lastRC.MeetingSummary, "added=true")
}

func TestProcessMeetingInviteConflict(t *testing.T) {
	sched := &fakeScheduler{outcome: scheduler.Outcome{
		Date:           "2026-01-20",
		Time:           "10:00-11:00",
		IsWorkingDay:   true,
		Conflict:       strptr("團隊週會"),
		Added:          false,
		Reason:         "時段衝突",
		SuggestedDates: []string{"2026-01-20 14:00", "2026-01-21 10:00"},
	}}
	eng := newTestEngine(
		&fakeClassifier{cls: oracle.Classification{Category: mail.CategoryMeetingInvite, Priority: 3}},
		sched,
		&fakeDrafter{reply: strptr("該時段已有安排，建議改期。")},
	)

	rec, err := eng.Process(context.Background(), mail.Email{ID: "email_005", Sender: "pm@example.com"})
	require.NoError(t, err)
	require.NotNil(t, rec.HasConflict)
	assert.True(t, *rec.HasConflict)
	assert.Equal(t, "團隊週會", rec.ConflictWith)
	assert.Equal(t, "none", rec.CalendarAction)
	assert.Len(t, rec.SuggestedDates, 2)
}

func TestProcessMeetingInviteNonWorkingDay(t *testing.T) {
	sched := &fakeScheduler{outcome: scheduler.Outcome{
		Date:           "2026-02-17",
		Time:           "10:00-11:00",
		IsWorkingDay:   false,
		Added:          false,
		Reason:         "春節",
		SuggestedDates: []string{"2026-02-23", "2026-02-24", "2026-02-25"},
	}}
	eng := newTestEngine(
		&fakeClassifier{cls: oracle.Classification{Category: mail.CategoryMeetingInvite, Priority: 3}},
		sched,
		&fakeDrafter{},
	)

	rec, err := eng.Process(context.Background(), mail.Email{ID: "email_006", Sender: "pm@example.com"})
	require.NoError(t, err)
	require.NotNil(t, rec.IsWorkingDay)
	assert.False(t, *rec.IsWorkingDay)
	assert.Equal(t, "春節", rec.NonWorkingReason)
	assert.Equal(t, []string{"2026-02-23", "2026-02-24", "2026-02-25"}, rec.SuggestedDates)
}

func TestProcessPriceInquiryTriggersGuardrail(t *testing.T) {
	eng := newTestEngine(
		&fakeClassifier{cls: oracle.Classification{Category: mail.CategoryPriceInquiry, Priority: 3}},
		&fakeScheduler{},
		&fakeDrafter{reply: strptr("已收到您的詢問，專人將與您聯繫。")},
	)

	rec, err := eng.Process(context.Background(), mail.Email{ID: "email_007", Sender: "buyer@example.com"})
	require.NoError(t, err)
	assert.True(t, rec.NeedsHumanReview)
	require.NotNil(t, rec.GuardrailTriggered)
	assert.True(t, *rec.GuardrailTriggered)
	assert.Equal(t, "requires human confirmation for pricing email", rec.GuardrailReason)
}

func TestProcessSensitiveReplyTriggersGuardrail(t *testing.T) {
	eng := newTestEngine(
		&fakeClassifier{cls: oracle.Classification{Category: mail.CategoryGeneral, Priority: 2}},
		&fakeScheduler{},
		&fakeDrafter{reply: strptr("附上報價單，請查收。")},
	)

	rec, err := eng.Process(context.Background(), mail.Email{ID: "email_008", Sender: "x@example.com"})
	require.NoError(t, err)
	assert.True(t, rec.NeedsHumanReview)
	assert.Contains(t, rec.GuardrailReason, "報價")
}

func TestProcessClassifierFailure(t *testing.T) {
	eng := newTestEngine(
		&fakeClassifier{err: oracle.ErrOracleFailure},
		&fakeScheduler{},
		&fakeDrafter{},
	)

	rec, err := eng.Process(context.Background(), mail.Email{ID: "email_009"})
	assert.ErrorIs(t, err, oracle.ErrOracleFailure)
	require.NotNil(t, rec)
	assert.Equal(t, "email_009", rec.EmailID)
}

func TestProcessSchedulerFailure(t *testing.T) {
	eng := newTestEngine(
		&fakeClassifier{cls: oracle.Classification{Category: mail.CategoryMeetingInvite, Priority: 3}},
		&fakeScheduler{err: oracle.ErrOracleFailure},
		&fakeDrafter{},
	)

	rec, err := eng.Process(context.Background(), mail.Email{ID: "email_010"})
	assert.ErrorIs(t, err, oracle.ErrOracleFailure)
	assert.Equal(t, mail.CategoryMeetingInvite, rec.Category)
	assert.Nil(t, rec.MeetingInfo)
}
