/**
 * @description
 * Cron scheduler setup for the reminder sweep.
 */
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler manages the cron-driven reminder sweep.
type Scheduler struct {
	cron     *cron.Cron
	service  *Service
	logger   *slog.Logger
	schedule string
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(service *Service, logger *slog.Logger, schedule string) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger)))

	return &Scheduler{
		cron:     c,
		service:  service,
		logger:   logger,
		schedule: schedule,
	}
}

// Start registers the sweep and starts the cron scheduler.
func (s *Scheduler) Start() {
	if _, err := s.cron.AddFunc(s.schedule, s.runSweep); err != nil {
		s.logger.Error("failed to schedule reminder sweep", "error", err)
	} else {
		s.logger.Info("scheduled reminder sweep", "schedule", s.schedule)
	}

	s.cron.Start()
}

// Stop gracefully stops the cron scheduler.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) runSweep() {
	s.logger.Info("starting reminder sweep")
	ctx := context.Background()

	result, err := s.service.RunReminderSweep(ctx, time.Now())
	if err != nil {
		s.logger.Error("reminder sweep failed", "error", err)
		return
	}

	triggered := 0
	for _, outcome := range result.Results {
		if outcome.Triggered {
			triggered++
		}
	}
	s.logger.Info("reminder sweep finished", "processed", result.Processed, "triggered", triggered)
}
