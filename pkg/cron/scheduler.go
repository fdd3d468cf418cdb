// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// ReminderSweeper runs one reminder pass over all users.
type ReminderSweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// Scheduler manages background scheduled jobs using robfig/cron.
type Scheduler struct {
	cron      *cron.Cron
	reminders ReminderSweeper
	logger    *slog.Logger
}

// NewScheduler creates a new job scheduler.
func NewScheduler(reminders ReminderSweeper, logger *slog.Logger) *Scheduler {
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:      c,
		reminders: reminders,
		logger:    logger,
	}
}

// Start begins scheduled jobs. The reminder sweep runs daily at 8:00 AM so
// mails land before the workday starts.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("0 8 * * *", s.runReminderSweep); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.Int("jobs", len(s.cron.Entries())),
	)
	return nil
}

// Stop gracefully stops all scheduled jobs.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// RunNow manually triggers the reminder sweep (for testing/admin).
func (s *Scheduler) RunNow() {
	go s.runReminderSweep()
}

func (s *Scheduler) runReminderSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	s.logger.Info("starting daily reminder sweep")

	sent, err := s.reminders.Sweep(ctx)
	if err != nil {
		s.logger.Error("reminder sweep failed", slog.Any("error", err))
		return
	}
	s.logger.Info("daily reminder sweep finished", slog.Int("sent", sent))
}
