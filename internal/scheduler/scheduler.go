// Package scheduler runs background jobs on cron schedules.
package scheduler

import (
	"errors"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job represents a scheduled job
type Job interface {
	Run() error
	Name() string
}

// Scheduler manages background jobs
type Scheduler struct {
	cron    *cron.Cron
	log     zerolog.Logger
	mu      sync.Mutex
	running map[string]bool
}

// New creates a new scheduler. Schedules take a leading seconds field.
func New(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		log:     log.With().Str("component", "scheduler").Logger(),
		running: make(map[string]bool),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("Scheduler started")
}

// Stop stops the scheduler and waits for running jobs to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("Scheduler stopped")
}

// AddJob registers a new job with cron schedule
// Schedule examples:
//   - "0 */5 * * * *"      - Every 5 minutes
//   - "@hourly"            - Every hour
//   - "0 0 3 * * *"        - 3 AM daily
//   - "@every 30s"         - Every 30 seconds
//
// A run is skipped while the previous run of the same job is still going.
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		if err := s.run(job); err != nil && !errors.Is(err, ErrJobRunning) {
			s.log.Error().Err(err).Str("job", job.Name()).Msg("Job failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to register job %s: %w", job.Name(), err)
	}

	s.log.Info().
		Str("schedule", schedule).
		Str("job", job.Name()).
		Msg("Job registered")

	return nil
}

// RunNow executes a job immediately (outside schedule)
func (s *Scheduler) RunNow(job Job) error {
	s.log.Info().Str("job", job.Name()).Msg("Running job immediately")
	return s.run(job)
}

// ErrJobRunning is returned when a job is started while already running
var ErrJobRunning = errors.New("job already running")

func (s *Scheduler) run(job Job) error {
	name := job.Name()

	s.mu.Lock()
	if s.running[name] {
		s.mu.Unlock()
		s.log.Warn().Str("job", name).Msg("Job still running, skipping")
		return ErrJobRunning
	}
	s.running[name] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.running, name)
		s.mu.Unlock()
	}()

	s.log.Debug().Str("job", name).Msg("Running job")
	if err := job.Run(); err != nil {
		return err
	}
	s.log.Debug().Str("job", name).Msg("Job completed")
	return nil
}
