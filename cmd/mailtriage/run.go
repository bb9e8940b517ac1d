package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/mailtriage/internal/calendar"
	"github.com/fyrsmithlabs/mailtriage/internal/config"
	"github.com/fyrsmithlabs/mailtriage/internal/guardrail"
	"github.com/fyrsmithlabs/mailtriage/internal/logging"
	"github.com/fyrsmithlabs/mailtriage/internal/oracle"
	"github.com/fyrsmithlabs/mailtriage/internal/runner"
	"github.com/fyrsmithlabs/mailtriage/internal/scheduler"
	"github.com/fyrsmithlabs/mailtriage/internal/workflow"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Triage the inbox end to end",
	Long: `Process every email in the inbox snapshot: classify, schedule
meeting invites against the working calendar, draft replies, apply the
guardrail and write results.json plus the final calendar.

Examples:
  # Run with defaults (data/ inputs, output/ results)
  mailtriage run

  # Run with a config file
  mailtriage run --config config.yaml

  # Override the model endpoint via environment
  MAILTRIAGE_MODEL_BASE_URL=http://localhost:11434/v1 mailtriage run`,
	RunE: runTriage,
}

func runTriage(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	store, err := newStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open calendar store: %w", err)
	}
	defer store.Close()

	model, err := oracle.NewModel(cfg.Model)
	if err != nil {
		return fmt.Errorf("failed to create model client: %w", err)
	}

	tools := scheduler.NewToolset(store)
	meetings := scheduler.New(model, tools, logger, cfg.Scheduler.MaxToolRounds)
	engine := workflow.NewEngine(
		oracle.NewLLMClassifier(model),
		meetings,
		oracle.NewLLMReplyDrafter(model),
		guardrail.NewChecker(cfg.Guardrail.SensitiveTerms),
		logger,
		cfg.Run.Today,
	)

	r := runner.New(engine, store, logger, runner.Options{
		EmailsPath:        cfg.EmailsPath(),
		ResultsPath:       cfg.ResultsPath(),
		FinalCalendarPath: cfg.FinalCalendarPath(),
		Today:             cfg.Run.Today,
	})

	summary, err := r.Run(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Processed %d emails (%d need human review, %d failed)\n",
		summary.Processed, summary.NeedsHumanReview, summary.Failures)
	fmt.Fprintf(os.Stdout, "Results: %s\n", cfg.ResultsPath())
	fmt.Fprintf(os.Stdout, "Final calendar: %s\n", cfg.FinalCalendarPath())
	return nil
}

// newStore opens the configured calendar backend, seeded from the baseline
// calendar file.
func newStore(cfg *config.Config) (runner.ResettableStore, error) {
	workcal := calendar.NewWorkingCalendar(calendar.TaiwanHolidays2026())
	switch cfg.Calendar.Backend {
	case "sqlite":
		return calendar.NewSQLiteStore(cfg.Calendar.SQLitePath, cfg.BaselineCalendarPath(), workcal)
	default:
		return calendar.NewFileStore(cfg.BaselineCalendarPath(), cfg.WorkingCalendarPath(), workcal)
	}
}
