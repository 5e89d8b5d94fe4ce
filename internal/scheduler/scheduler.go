package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ibeckermayer/like4me/internal/logging"
)

// Job represents a scheduled task
type Job func(ctx context.Context) error

// RunJobName is the entry used for repeated engagement runs
const RunJobName = "run"

// Scheduler manages periodic tasks. A job still running when its next tick
// arrives is skipped rather than overlapped.
type Scheduler struct {
	cron       *cron.Cron
	mu         sync.Mutex
	jobs       map[string]cron.EntryID
	timezone   *time.Location
	jobTimeout time.Duration
	base       context.Context
	logger     logging.Logger
}

// Option customizes a Scheduler
type Option func(*Scheduler)

// WithJobTimeout bounds each job invocation
func WithJobTimeout(d time.Duration) Option {
	return func(s *Scheduler) { s.jobTimeout = d }
}

// WithBaseContext derives every job context from ctx, so cancelling it
// cancels running jobs
func WithBaseContext(ctx context.Context) Option {
	return func(s *Scheduler) { s.base = ctx }
}

// New creates a new scheduler with the given timezone. An empty timezone
// means local time.
func New(timezone string, logger logging.Logger, opts ...Option) (*Scheduler, error) {
	loc := time.Local
	if timezone != "" {
		var err error
		loc, err = time.LoadLocation(timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid timezone %s: %w", timezone, err)
		}
	}

	s := &Scheduler{
		jobs:       make(map[string]cron.EntryID),
		timezone:   loc,
		jobTimeout: 30 * time.Minute,
		base:       context.Background(),
		logger:     logging.OrDiscard(logger),
	}
	for _, opt := range opts {
		opt(s)
	}

	cronLog := cron.PrintfLogger(s.logger.WithField("component", "scheduler"))
	s.cron = cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)
	return s, nil
}

// AddJob adds a job with a cron schedule.
// schedule format: "0 7 * * *" (at 7:00 AM daily) or "@every 30m"
func (s *Scheduler) AddJob(name, schedule string, job Job) error {
	entryID, err := s.cron.AddFunc(schedule, func() {
		if err := s.invoke(name, job); err != nil {
			s.logger.WithError(err).WithField("job", name).Error("Scheduled job failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", name, err)
	}

	s.mu.Lock()
	if old, ok := s.jobs[name]; ok {
		s.cron.Remove(old)
	}
	s.jobs[name] = entryID
	s.mu.Unlock()

	s.logger.WithFields(logging.Fields{"job": name, "schedule": schedule}).Info("Added job")
	return nil
}

// AddRunJob repeats the engagement run every intervalMinutes
func (s *Scheduler) AddRunJob(intervalMinutes int, job Job) error {
	if intervalMinutes < 1 {
		return fmt.Errorf("invalid run interval %d minutes", intervalMinutes)
	}
	return s.AddJob(RunJobName, fmt.Sprintf("@every %dm", intervalMinutes), job)
}

// RemoveJob removes a scheduled job
func (s *Scheduler) RemoveJob(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entryID, ok := s.jobs[name]; ok {
		s.cron.Remove(entryID)
		delete(s.jobs, name)
		s.logger.WithField("job", name).Info("Removed job")
	}
}

// Start begins running scheduled jobs
func (s *Scheduler) Start() {
	s.logger.Info("Starting scheduler")
	s.cron.Start()
}

// Stop halts the scheduler. The returned context is done once running jobs
// have finished.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("Stopping scheduler")
	return s.cron.Stop()
}

// RunNow immediately executes a job outside the schedule
func (s *Scheduler) RunNow(name string, job Job) error {
	return s.invoke(name, job)
}

func (s *Scheduler) invoke(name string, job Job) error {
	ctx, cancel := context.WithTimeout(s.base, s.jobTimeout)
	defer cancel()

	log := s.logger.WithField("job", name)
	log.Info("Starting job")
	start := time.Now()

	if err := job(ctx); err != nil {
		return err
	}
	log.WithField("duration", time.Since(start).Round(time.Millisecond)).Info("Job completed")
	return nil
}

// ListJobs returns info about scheduled jobs
func (s *Scheduler) ListJobs() []JobInfo {
	entries := s.cron.Entries()

	s.mu.Lock()
	defer s.mu.Unlock()
	infos := make([]JobInfo, 0, len(s.jobs))
	for name, entryID := range s.jobs {
		for _, entry := range entries {
			if entry.ID == entryID {
				infos = append(infos, JobInfo{
					Name:    name,
					NextRun: entry.Next,
					LastRun: entry.Prev,
				})
				break
			}
		}
	}

	return infos
}

// JobInfo contains information about a scheduled job
type JobInfo struct {
	Name    string
	NextRun time.Time
	LastRun time.Time
}
