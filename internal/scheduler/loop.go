package scheduler

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/mailtriage/internal/logging"
	"github.com/fyrsmithlabs/mailtriage/internal/mail"
	"github.com/fyrsmithlabs/mailtriage/internal/oracle"
)

// DefaultMaxToolRounds bounds the decision loop: after this many rounds of
// tool calls the oracle must produce its structured result.
const DefaultMaxToolRounds = 8

const meetingSystemPrompt = `You are a meeting scheduling assistant. Today is %s.

Handling a meeting invite:
1. Confirm the requested date is a working day (no meetings on weekends or statutory holidays).
2. Confirm the time slot has no conflict.
3. Add the event only when both checks pass; otherwise suggest 2-3 alternative slots.
4. A reschedule request means delete the old event first, then add the new one.

Use the available tools. Make sure the is_working_day field reflects the actual date check.

When you are done, respond with only a JSON object:
{"date": "YYYY-MM-DD", "time": "HH:MM-HH:MM", "is_working_day": <bool>, "conflict": "<conflicting event title or null>", "added": <bool>, "reason": "<why>", "suggested_dates": ["<up to 3 alternative slots>"]}`

// Outcome is the structured terminal result of the decision loop. It is
// produced even when nothing could be booked.
type Outcome struct {
	Date           string   `json:"date"`
	Time           string   `json:"time"`
	IsWorkingDay   bool     `json:"is_working_day"`
	Conflict       *string  `json:"conflict,omitempty"`
	Added          bool     `json:"added"`
	Reason         string   `json:"reason"`
	SuggestedDates []string `json:"suggested_dates,omitempty"`
}

// Scheduler runs the bounded decision loop against the meeting-decision
// oracle, with the Toolset as the oracle's only means of mutating state.
type Scheduler struct {
	model         llms.Model
	tools         *Toolset
	logger        *logging.Logger
	maxToolRounds int
}

// New builds a scheduler. maxToolRounds <= 0 means the default budget.
func New(model llms.Model, tools *Toolset, logger *logging.Logger, maxToolRounds int) *Scheduler {
	if maxToolRounds <= 0 {
		maxToolRounds = DefaultMaxToolRounds
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Scheduler{
		model:         model,
		tools:         tools,
		logger:        logger.Named("scheduler"),
		maxToolRounds: maxToolRounds,
	}
}

// Schedule decides on a meeting invite. Tool calls issued by the oracle run
// one at a time in request order; mutations already applied are kept even if
// the loop later fails. A loop that never produces a structured result is
// oracle.ErrOracleFailure.
func (s *Scheduler) Schedule(ctx context.Context, email mail.Email, today string) (Outcome, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, fmt.Sprintf(meetingSystemPrompt, today)),
		llms.TextParts(llms.ChatMessageTypeHuman, fmt.Sprintf(
			"Email:\nSender: %s\nSubject: %s\nContent: %s",
			email.Sender, email.Subject, email.Content)),
	}

	for round := 0; round <= s.maxToolRounds; round++ {
		opts := []llms.CallOption{llms.WithTemperature(0)}
		if round < s.maxToolRounds {
			opts = append(opts, llms.WithTools(toolDefinitions()))
		}
		// Past the budget the oracle gets no tools: it must answer.

		resp, err := s.model.GenerateContent(ctx, messages, opts...)
		if err != nil {
			return Outcome{}, fmt.Errorf("%w: meeting decision: %v", oracle.ErrOracleFailure, err)
		}
		if len(resp.Choices) == 0 {
			return Outcome{}, fmt.Errorf("%w: meeting decision: empty response", oracle.ErrOracleFailure)
		}
		choice := resp.Choices[0]

		if len(choice.ToolCalls) > 0 {
			messages = append(messages, toolCallMessage(choice.ToolCalls))
			for _, tc := range choice.ToolCalls {
				messages = append(messages, s.execToolCall(ctx, tc))
			}
			continue
		}

		var out Outcome
		if err := oracle.DecodeStrict(choice.Content, &out); err != nil {
			s.logger.Warn(ctx, "unparseable scheduling result, re-asking",
				zap.Error(err), zap.Int("round", round))
			messages = append(messages,
				llms.TextParts(llms.ChatMessageTypeAI, choice.Content),
				llms.TextParts(llms.ChatMessageTypeHuman, "Respond with only the JSON object, no prose."))
			continue
		}
		if len(out.SuggestedDates) > 3 {
			out.SuggestedDates = out.SuggestedDates[:3]
		}
		s.logger.Info(ctx, "meeting decision",
			zap.String("date", out.Date),
			zap.Bool("is_working_day", out.IsWorkingDay),
			zap.Bool("added", out.Added))
		return out, nil
	}

	return Outcome{}, fmt.Errorf("%w: meeting decision: no structured result after %d rounds",
		oracle.ErrOracleFailure, s.maxToolRounds)
}

// execToolCall runs one operation and wraps its result as a tool response
// message. Operation errors (bad timestamps, unknown tools) are reported back
// to the oracle rather than aborting the loop.
func (s *Scheduler) execToolCall(ctx context.Context, tc llms.ToolCall) llms.MessageContent {
	name := ""
	args := "{}"
	if tc.FunctionCall != nil {
		name = tc.FunctionCall.Name
		if tc.FunctionCall.Arguments != "" {
			args = tc.FunctionCall.Arguments
		}
	}
	s.logger.Info(ctx, "tool call", zap.String("tool", name), zap.String("args", args))

	content, err := s.tools.Call(ctx, name, []byte(args))
	if err != nil {
		content = fmt.Sprintf(`{"success": false, "reason": %q}`, err.Error())
	}
	s.logger.Debug(ctx, "tool result", zap.String("tool", name), zap.String("result", content))

	return llms.MessageContent{
		Role: llms.ChatMessageTypeTool,
		Parts: []llms.ContentPart{llms.ToolCallResponse{
			ToolCallID: tc.ID,
			Name:       name,
			Content:    content,
		}},
	}
}

// toolCallMessage echoes the oracle's tool calls back into the transcript,
// as the chat protocol requires before tool responses.
func toolCallMessage(calls []llms.ToolCall) llms.MessageContent {
	parts := make([]llms.ContentPart, 0, len(calls))
	for _, tc := range calls {
		parts = append(parts, tc)
	}
	return llms.MessageContent{Role: llms.ChatMessageTypeAI, Parts: parts}
}

// toolDefinitions declares the operation surface for the oracle.
func toolDefinitions() []llms.Tool {
	return []llms.Tool{
		{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        ToolCheckWorkingDay,
				Description: "Check whether a date is a working day (excludes weekends and statutory holidays). Call this first for every meeting invite, before adding any event. Non-working days include suggested alternative dates.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"date": map[string]any{
							"type":        "string",
							"description": "Date to check, YYYY-MM-DD (e.g. 2026-01-20)",
						},
					},
					"required": []string{"date"},
				},
			},
		},
		{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        ToolGetCalendarEvents,
				Description: "Query calendar events to check conflicts or find free slots. Returns every event overlapping the window; any returned event means the window conflicts.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"start_date": map[string]any{
							"type":        "string",
							"description": "Filter start, ISO format (2026-01-20 or 2026-01-20T14:00:00)",
						},
						"end_date": map[string]any{
							"type":        "string",
							"description": "Filter end, ISO format",
						},
					},
				},
			},
		},
		{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        ToolAddCalendarEvent,
				Description: "Add a calendar event. Check the working day and conflicts first. For a reschedule request, delete the old event before adding the new one.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"title": map[string]any{"type": "string", "description": "Event title"},
						"start": map[string]any{"type": "string", "description": "Start time, ISO format (e.g. 2026-01-20T14:00:00)"},
						"end":   map[string]any{"type": "string", "description": "End time, ISO format"},
					},
					"required": []string{"title", "start", "end"},
				},
			},
		},
		{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        ToolDeleteCalendarEvent,
				Description: "Delete calendar events, by title substring or exact start time. Use when handling reschedule requests: delete the old meeting, then add the new one.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"title": map[string]any{"type": "string", "description": "Delete by title substring match"},
						"start": map[string]any{"type": "string", "description": "Delete by exact start time, ISO format"},
					},
				},
			},
		},
	}
}
