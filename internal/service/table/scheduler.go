package table

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"dyntable/internal/domain"
)

// ReconcileRunner is satisfied by *Reconciler.
type ReconcileRunner interface {
	Reconcile(ctx context.Context, repair bool) (domain.ReconcileReport, error)
}

// Scheduler runs the reconciler on a cron schedule. Runs never overlap.
type Scheduler struct {
	cron     *cron.Cron
	runner   ReconcileRunner
	schedule string
	repair   bool
	logger   *slog.Logger
}

// NewScheduler validates schedule and registers the reconcile job.
func NewScheduler(runner ReconcileRunner, schedule string, repair bool, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		runner:   runner,
		schedule: schedule,
		repair:   repair,
		logger:   logger.With("component", "reconcile-scheduler"),
	}
	if _, err := s.cron.AddFunc(schedule, s.runOnce); err != nil {
		return nil, fmt.Errorf("invalid reconcile schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *Scheduler) runOnce() {
	report, err := s.runner.Reconcile(context.Background(), s.repair)
	if err != nil {
		s.logger.Warn("scheduled reconcile failed", "error", err)
		return
	}
	if len(report.Orphaned) > 0 {
		names := make([]string, len(report.Orphaned))
		for i, e := range report.Orphaned {
			names[i] = e.LogicalName
		}
		s.logger.Warn("catalog entries without a physical table", "tables", names)
	}
}

// Run starts the scheduler and blocks until ctx is cancelled, then waits for
// a running reconcile to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	s.logger.Info("reconcile scheduler started", "schedule", s.schedule, "repair", s.repair)
	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.Info("reconcile scheduler stopped")
	return nil
}
