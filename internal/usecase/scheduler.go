package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"RegulatoryScanner/internal/domain"
	"RegulatoryScanner/internal/ports"
)

// Scheduler wires the cron driver with the pipeline use case.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	logger   *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring runs.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{driver: driver, pipeline: pipeline, logger: logger}
}

// Start registers a full run of every configured source with the driver.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	job := func(fired time.Time) {
		s.logger.Info("scheduled run", "fired", fired)
		_, err := s.pipeline.Run(ctx, TriggerSched, nil)
		if errors.Is(err, domain.ErrRunInProgress) {
			s.logger.Info("scheduled run skipped, another run holds the lock")
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
