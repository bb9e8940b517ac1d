package oracle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/mailtriage/internal/mail"
)

func TestDraftReturnsReply(t *testing.T) {
	model := &stubModel{outputs: []string{
		`{"needs_reply": true, "reply": "收到，我們會準時與會。"}`,
	}}
	d := NewLLMReplyDrafter(model)

	reply, err := d.Draft(context.Background(), ReplyContext{
		Email:    sampleEmail,
		Category: mail.CategoryUrgent,
		Priority: 5,
	})
	require.NoError(t, err)
	require.NotNil(t, reply)
	assert.Equal(t, "收到，我們會準時與會。", *reply)
}

func TestDraftAbstains(t *testing.T) {
	tests := []struct {
		name   string
		output string
	}{
		{name: "needs_reply false", output: `{"needs_reply": false, "reply": null}`},
		{name: "null reply despite flag", output: `{"needs_reply": true, "reply": null}`},
		{name: "empty reply", output: `{"needs_reply": true, "reply": ""}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewLLMReplyDrafter(&stubModel{outputs: []string{tt.output}})
			reply, err := d.Draft(context.Background(), ReplyContext{
				Email:    sampleEmail,
				Category: mail.CategorySpam,
				Priority: 1,
			})
			require.NoError(t, err)
			assert.Nil(t, reply)
		})
	}
}

func TestDraftOracleFailure(t *testing.T) {
	d := NewLLMReplyDrafter(&stubModel{outputs: []string{"no json", "still no json"}})

	_, err := d.Draft(context.Background(), ReplyContext{Email: sampleEmail})
	assert.ErrorIs(t, err, ErrOracleFailure)
}

func TestFormatReplyContext(t *testing.T) {
	working := false
	got := formatReplyContext(ReplyContext{
		Email:            sampleEmail,
		Category:         mail.CategoryMeetingInvite,
		Priority:         3,
		MeetingSummary:   "2026-02-17 10:00-11:00, not booked",
		IsWorkingDay:     &working,
		NonWorkingReason: "春節",
		SuggestedDates:   []string{"2026-02-23", "2026-02-24", "2026-02-25"},
	})

	assert.Contains(t, got, "Category: meeting_invite")
	assert.Contains(t, got, "Working day: false")
	assert.Contains(t, got, "Non-working reason: 春節")
	assert.Contains(t, got, "Suggested dates: 2026-02-23, 2026-02-24, 2026-02-25")
}

func TestFormatReplyContextWithoutMeeting(t *testing.T) {
	got := formatReplyContext(ReplyContext{
		Email:    sampleEmail,
		Category: mail.CategoryGeneral,
		Priority: 2,
	})

	assert.Contains(t, got, "## Meeting\nnone")
	assert.NotContains(t, got, "Working day:")
}
