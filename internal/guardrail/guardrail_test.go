package guardrail

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fyrsmithlabs/mailtriage/internal/mail"
)

func TestCheckPriceInquiryAlwaysTriggers(t *testing.T) {
	c := NewChecker(nil)

	// Even a clean reply, or no reply at all, needs human confirmation.
	res := c.Check(mail.CategoryPriceInquiry, "謝謝您的來信，我們會盡快回覆。")
	assert.True(t, res.Triggered)
	assert.Equal(t, "requires human confirmation for pricing email", res.Reason)

	res = c.Check(mail.CategoryPriceInquiry, "")
	assert.True(t, res.Triggered)
	assert.Equal(t, "requires human confirmation for pricing email", res.Reason)
}

func TestCheckSensitiveTerms(t *testing.T) {
	c := NewChecker(nil)

	tests := []struct {
		name     string
		category mail.Category
		reply    string
		want     bool
	}{
		{name: "clean reply", category: mail.CategoryGeneral, reply: "好的，收到，謝謝。", want: false},
		{name: "chinese term", category: mail.CategoryGeneral, reply: "附上報價單供參考。", want: true},
		{name: "english term", category: mail.CategoryUrgent, reply: "The contract draft is attached.", want: true},
		{name: "empty reply", category: mail.CategoryGeneral, reply: "", want: false},
		{name: "meeting reply clean", category: mail.CategoryMeetingInvite, reply: "已為您安排週二下午的會議。", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := c.Check(tt.category, tt.reply)
			assert.Equal(t, tt.want, res.Triggered)
			if tt.want {
				assert.NotEmpty(t, res.Reason)
			} else {
				assert.Empty(t, res.Reason)
			}
		})
	}
}

func TestCheckFirstTermWins(t *testing.T) {
	c := NewChecker([]string{"alpha", "beta"})

	res := c.Check(mail.CategoryGeneral, "beta then alpha")
	assert.True(t, res.Triggered)
	assert.Equal(t, `reply contains sensitive term "alpha"`, res.Reason)
}

func TestCheckCustomTerms(t *testing.T) {
	c := NewChecker([]string{"wire transfer"})

	res := c.Check(mail.CategoryGeneral, "please confirm the wire transfer")
	assert.True(t, res.Triggered)

	// Default terms are not consulted once a custom list is set.
	res = c.Check(mail.CategoryGeneral, "附上報價單")
	assert.False(t, res.Triggered)
}
