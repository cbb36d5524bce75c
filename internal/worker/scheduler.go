package worker

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
)

// Scheduler runs the refresh job on a fixed interval.
type Scheduler struct {
	scheduler *gocron.Scheduler
	job       *RefreshJob
	logger    zerolog.Logger
}

// NewScheduler creates a scheduler for job. Nothing runs until Start.
func NewScheduler(job *RefreshJob, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		job:       job,
		logger:    logger,
	}
}

// Start schedules the refresh and starts the scheduler. The first refresh runs
// immediately. Runs never overlap; a tick that lands during a slow refresh is skipped.
func (s *Scheduler) Start(ctx context.Context) error {
	interval := s.job.config.Interval

	_, err := s.scheduler.Every(interval).SingletonMode().Do(func() {
		if ctx.Err() != nil {
			return
		}
		s.job.Run(ctx)
	})
	if err != nil {
		return err
	}

	s.logger.Info().
		Str("target", s.job.config.Target.String()).
		Dur("interval", interval).
		Msg("scheduled weather refresh")

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler. Future ticks are cancelled.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}
