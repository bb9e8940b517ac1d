package oracle

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

const replySystemPrompt = `You are an email reply assistant. Draft an appropriate reply from the information given.

## Reply rules
1. Spam: no reply.
2. General mail (receipts, bills): no reply.
3. Price inquiries: only confirm receipt, never quote a price; say a specialist will follow up.
4. Meeting invites:
   - non-working day (weekend/holiday): decline politely and suggest the alternative dates
   - conflict: decline politely and suggest the alternative dates
   - otherwise: confirm attendance
5. Urgent mail: confirm receipt and say it is being handled.

Write in a professional but friendly tone.

Respond with only a JSON object:
{"needs_reply": <true|false>, "reply": "<reply text or null>"}`

// replyPayload is the oracle's wire shape.
type replyPayload struct {
	NeedsReply bool    `json:"needs_reply"`
	Reply      *string `json:"reply"`
}

// LLMReplyDrafter implements ReplyDrafter over a langchaingo model.
type LLMReplyDrafter struct {
	model llms.Model
}

// NewLLMReplyDrafter builds a drafter over the shared model client.
func NewLLMReplyDrafter(model llms.Model) *LLMReplyDrafter {
	return &LLMReplyDrafter{model: model}
}

// Draft asks the model for reply text, abstaining when the model reports no
// reply is needed.
func (d *LLMReplyDrafter) Draft(ctx context.Context, rc ReplyContext) (*string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, replySystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, formatReplyContext(rc)),
	}

	payload, err := generateStructured[replyPayload](ctx, d.model, messages)
	if err != nil {
		return nil, fmt.Errorf("%w: reply drafting: %v", ErrOracleFailure, err)
	}
	if !payload.NeedsReply || payload.Reply == nil || *payload.Reply == "" {
		return nil, nil
	}
	return payload.Reply, nil
}

func formatReplyContext(rc ReplyContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Email\nSender: %s\nSubject: %s\nContent: %s\n\n",
		rc.Email.Sender, rc.Email.Subject, rc.Email.Content)
	fmt.Fprintf(&b, "## Classification\nCategory: %s\nPriority: %d\n\n", rc.Category, rc.Priority)

	meeting := rc.MeetingSummary
	if meeting == "" {
		meeting = "none"
	}
	fmt.Fprintf(&b, "## Meeting\n%s\n\n", meeting)

	fmt.Fprintf(&b, "## Calendar check\n")
	if rc.IsWorkingDay != nil {
		fmt.Fprintf(&b, "Working day: %t\n", *rc.IsWorkingDay)
	}
	if rc.NonWorkingReason != "" {
		fmt.Fprintf(&b, "Non-working reason: %s\n", rc.NonWorkingReason)
	}
	fmt.Fprintf(&b, "Conflict: %t\n", rc.HasConflict)
	if rc.ConflictWith != "" {
		fmt.Fprintf(&b, "Conflicts with: %s\n", rc.ConflictWith)
	}
	if len(rc.SuggestedDates) > 0 {
		fmt.Fprintf(&b, "Suggested dates: %s\n", strings.Join(rc.SuggestedDates, ", "))
	}
	return b.String()
}
