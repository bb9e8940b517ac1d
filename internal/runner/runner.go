// Package runner drives a whole triage run: it loads the inbox, resets the
// working calendar, pushes each email through the workflow engine in
// timestamp order and persists the aggregated results. Emails are processed
// strictly one at a time, so later emails observe earlier bookings.
package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/mailtriage/internal/calendar"
	"github.com/fyrsmithlabs/mailtriage/internal/logging"
	"github.com/fyrsmithlabs/mailtriage/internal/mail"
	"github.com/fyrsmithlabs/mailtriage/internal/workflow"
)

// ResettableStore is a calendar store that can be restored to its baseline
// snapshot at run start.
type ResettableStore interface {
	calendar.Store
	Reset() error
}

// Options configures a run.
type Options struct {
	EmailsPath        string
	ResultsPath       string
	FinalCalendarPath string
	Today             string // YYYY-MM-DD
}

// Summary aggregates one run.
type Summary struct {
	RunID            string             `json:"run_id"`
	Today            string             `json:"today"`
	Processed        int                `json:"processed"`
	ByCategory       map[string]int     `json:"by_category"`
	NeedsHumanReview int                `json:"needs_human_review"`
	Failures         int                `json:"failures"`
	Records          []*workflow.Record `json:"records"`
	FinalCalendar    []calendar.Event   `json:"-"`
}

// Runner owns one run's sequencing.
type Runner struct {
	engine *workflow.Engine
	store  ResettableStore
	logger *logging.Logger
	opts   Options
}

// New builds a runner.
func New(engine *workflow.Engine, store ResettableStore, logger *logging.Logger, opts Options) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{
		engine: engine,
		store:  store,
		logger: logger.Named("runner"),
		opts:   opts,
	}
}

// Run processes every email end-to-end. An email whose oracles fail is
// recorded with its error and the run moves on; the error therefore never
// aborts the run. Results and the final calendar are written before Run
// returns.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)

	emails, err := mail.Load(r.opts.EmailsPath)
	if err != nil {
		return nil, err
	}

	if err := r.store.Reset(); err != nil {
		return nil, fmt.Errorf("reset calendar: %w", err)
	}

	r.logger.Info(ctx, "run started",
		zap.String("today", r.opts.Today),
		zap.Int("emails", len(emails)))

	summary := &Summary{
		RunID:      runID,
		Today:      r.opts.Today,
		ByCategory: make(map[string]int),
	}

	for i, email := range emails {
		r.logger.Info(ctx, "processing email",
			zap.Int("index", i+1),
			zap.Int("total", len(emails)),
			zap.String("id", email.ID),
			zap.String("subject", email.Subject))

		rec, err := r.engine.Process(ctx, email)
		if err != nil {
			// No rollback: calendar mutations already applied stay applied.
			rec.Error = err.Error()
			summary.Failures++
			r.logger.Error(ctx, "email processing failed",
				zap.String("id", email.ID), zap.Error(err))
		}
		summary.Records = append(summary.Records, rec)
		summary.Processed++
		if rec.Category != "" {
			summary.ByCategory[string(rec.Category)]++
		}
		if rec.NeedsHumanReview {
			summary.NeedsHumanReview++
		}
	}

	final, err := r.store.Query(ctx, calendar.Window{})
	if err != nil {
		return nil, fmt.Errorf("read final calendar: %w", err)
	}
	summary.FinalCalendar = final

	if err := r.writeOutputs(summary); err != nil {
		return nil, err
	}

	r.logger.Info(ctx, "run complete",
		zap.Int("processed", summary.Processed),
		zap.Int("needs_human_review", summary.NeedsHumanReview),
		zap.Int("failures", summary.Failures))
	return summary, nil
}

func (r *Runner) writeOutputs(summary *Summary) error {
	if r.opts.ResultsPath != "" {
		if err := writeJSON(r.opts.ResultsPath, summary.Records); err != nil {
			return fmt.Errorf("write results: %w", err)
		}
	}
	if r.opts.FinalCalendarPath != "" {
		if err := writeJSON(r.opts.FinalCalendarPath, summary.FinalCalendar); err != nil {
			return fmt.Errorf("write final calendar: %w", err)
		}
	}
	return nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
