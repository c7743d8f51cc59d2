// Package scheduler wires cron-cadence background jobs — settlement sync,
// nightly recalibration, WAL checkpoint maintenance, and optional ledger
// backup — independent of the orchestrator's own trading cycle, grounded on
// the teacher's trader-go/internal/scheduler.Scheduler wrapper around
// robfig/cron/v3.
package scheduler

import (
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is a named unit of scheduled work, run synchronously on its own cron
// entry. Errors are logged, never propagated — a failed job must never stop
// the cron loop or any other job.
type Job interface {
	Run() error
	Name() string
}

// Scheduler manages background jobs on independent cron schedules.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger
}

// New creates a scheduler with second-resolution cron expressions, matching
// the teacher's WithSeconds() configuration.
func New(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithSeconds()),
		log:  log.With().Str("component", "scheduler").Logger(),
	}
}

// Start begins running registered jobs on their schedules.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("scheduler started")
}

// Stop waits for in-flight jobs to finish, then returns.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("scheduler stopped")
}

// AddJob registers job on the given cron schedule. Schedule examples:
//   - "0 */5 * * * *"   - every 5 minutes
//   - "0 0 2 * * *"     - 02:00 daily
//   - "@every 90s"      - every 90 seconds
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		s.log.Debug().Str("job", job.Name()).Msg("running job")
		if err := job.Run(); err != nil {
			s.log.Error().Err(err).Str("job", job.Name()).Msg("job failed")
			return
		}
		s.log.Debug().Str("job", job.Name()).Msg("job completed")
	})
	if err != nil {
		return err
	}
	s.log.Info().Str("schedule", schedule).Str("job", job.Name()).Msg("job registered")
	return nil
}

// RunNow executes a job immediately, outside of its cron schedule — used for
// --backtest and manual settlement-sync invocations from cmd/sentinel.
func (s *Scheduler) RunNow(job Job) error {
	s.log.Info().Str("job", job.Name()).Msg("running job immediately")
	return job.Run()
}
