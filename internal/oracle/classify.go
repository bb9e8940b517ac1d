package oracle

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"github.com/fyrsmithlabs/mailtriage/internal/mail"
)

const classifyPrompt = `You are an email triage assistant. Classify the email below.

## Categories
- urgent: sent by the boss or a manager, subject marked urgent, same-day deadline
- meeting_invite: invitation to meet, request to pick a time, reschedule request
- price_inquiry: asking for product prices or a quotation
- spam: marketing, newsletters, promotions
- general: everything else (bills, receipts, notifications)

## Priority (1-5, 5 highest)
- 5: urgent from the boss, same-day deadline
- 4: important meeting invite, partner request
- 3: ordinary meeting, price inquiry
- 2: internal notice, ordinary mail
- 1: newsletter, receipt, spam

## Email
Sender: %s
Subject: %s
Time: %s
Content: %s

Respond with only a JSON object:
{"category": "<urgent|general|price_inquiry|meeting_invite|spam>", "priority": <1-5>, "reasoning": "<why>"}`

// classificationPayload is the oracle's wire shape.
type classificationPayload struct {
	Category  string `json:"category"`
	Priority  int    `json:"priority"`
	Reasoning string `json:"reasoning"`
}

// LLMClassifier implements Classifier over a langchaingo model.
type LLMClassifier struct {
	model llms.Model
}

// NewLLMClassifier builds a classifier over the shared model client.
func NewLLMClassifier(model llms.Model) *LLMClassifier {
	return &LLMClassifier{model: model}
}

// Classify asks the model for a structured classification. A response that
// cannot be decoded gets exactly one re-ask before failing.
func (c *LLMClassifier) Classify(ctx context.Context, email mail.Email) (Classification, error) {
	prompt := fmt.Sprintf(classifyPrompt, email.Sender, email.Subject, email.Timestamp, email.Content)
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	payload, err := generateStructured[classificationPayload](ctx, c.model, messages)
	if err != nil {
		return Classification{}, fmt.Errorf("%w: classification: %v", ErrOracleFailure, err)
	}

	category, err := mail.ParseCategory(payload.Category)
	if err != nil {
		return Classification{}, fmt.Errorf("%w: classification: %v", ErrOracleFailure, err)
	}
	if payload.Priority < 1 || payload.Priority > 5 {
		return Classification{}, fmt.Errorf("%w: classification: priority %d out of range", ErrOracleFailure, payload.Priority)
	}

	return Classification{
		Category:  category,
		Priority:  payload.Priority,
		Reasoning: payload.Reasoning,
	}, nil
}

// generateStructured runs one model call and decodes a JSON object from the
// response, re-asking once with an explicit format reminder on decode
// failure.
func generateStructured[T any](ctx context.Context, model llms.Model, messages []llms.MessageContent) (T, error) {
	var out T

	resp, err := model.GenerateContent(ctx, messages, llms.WithTemperature(0))
	if err != nil {
		return out, err
	}
	content := firstChoiceContent(resp)
	if decodeErr := DecodeStrict(content, &out); decodeErr == nil {
		return out, nil
	}

	retry := append(messages,
		llms.TextParts(llms.ChatMessageTypeAI, content),
		llms.TextParts(llms.ChatMessageTypeHuman, "Respond with only the JSON object, no prose."))
	resp, err = model.GenerateContent(ctx, retry, llms.WithTemperature(0))
	if err != nil {
		return out, err
	}
	if err := DecodeStrict(firstChoiceContent(resp), &out); err != nil {
		return out, err
	}
	return out, nil
}

func firstChoiceContent(resp *llms.ContentResponse) string {
	if resp == nil || len(resp.Choices) == 0 {
		return ""
	}
	return resp.Choices[0].Content
}
