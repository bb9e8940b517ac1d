// Package oracle holds the contracts for the external decision-making
// collaborators (classification, meeting decisions, reply drafting) and their
// langchaingo-backed implementations. Oracles are black boxes that must
// return structured results; anything else is ErrOracleFailure, fatal for
// the email being processed and never retried beyond a single re-ask.
package oracle

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/fyrsmithlabs/mailtriage/internal/mail"
)

// ErrOracleFailure indicates an oracle did not produce a parseable
// structured result. The caller surfaces it; side effects already applied
// before the failure stay applied.
var ErrOracleFailure = errors.New("oracle failure")

// Classification is the structured output of the classification oracle.
type Classification struct {
	Category  mail.Category
	Priority  int // 1-5, 5 highest
	Reasoning string
}

// Classifier assigns a category, priority and rationale to an email.
type Classifier interface {
	Classify(ctx context.Context, email mail.Email) (Classification, error)
}

// ReplyContext carries the full workflow context the reply drafter sees.
// Meeting fields are zero-valued for emails that never went through
// scheduling.
type ReplyContext struct {
	Email            mail.Email
	Category         mail.Category
	Priority         int
	MeetingSummary   string // formatted meeting outcome, empty if none
	IsWorkingDay     *bool
	NonWorkingReason string
	HasConflict      bool
	ConflictWith     string
	SuggestedDates   []string
}

// ReplyDrafter produces reply text or abstains (nil reply, nil error).
type ReplyDrafter interface {
	Draft(ctx context.Context, rc ReplyContext) (*string, error)
}

// ClientConfig configures the OpenAI-compatible model endpoint.
type ClientConfig struct {
	BaseURL string `koanf:"base_url"`
	Model   string `koanf:"model"`
	APIKey  string `koanf:"api_key"`
}

// NewModel builds the langchaingo model client all oracles share.
func NewModel(cfg ClientConfig) (llms.Model, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("model name is required")
	}
	opts := []openai.Option{openai.WithModel(cfg.Model)}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	if cfg.APIKey != "" {
		opts = append(opts, openai.WithToken(cfg.APIKey))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create model client: %w", err)
	}
	return llm, nil
}
