package usecase

import (
	"context"
	"time"

	"DesignCatalog/internal/ports"
)

// Scheduler wires the interval driver with the pipeline use case.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	runs     chan<- RunResult
}

// RunResult is one scheduled execution as seen by the caller.
type RunResult struct {
	Trigger time.Time
	Err     error
}

// NewScheduler returns a helper to start/stop recurring runs. runs may be
// nil; when set it receives every finished run and must be drained.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, runs chan<- RunResult) *Scheduler {
	return &Scheduler{driver: driver, pipeline: pipeline, runs: runs}
}

// Start registers the pipeline with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	job := func(trigger time.Time) {
		s.pipeline.logger.Info("scheduled run triggered", "at", trigger)
		_, err := s.pipeline.Run(ctx)
		if s.runs != nil {
			select {
			case s.runs <- RunResult{Trigger: trigger, Err: err}:
			case <-ctx.Done():
			}
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
