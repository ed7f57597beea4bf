package cron

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	robfig "github.com/robfig/cron/v3"
)

// Job represents a scheduled job
type Job struct {
	Name    string
	Spec    string
	Timeout time.Duration
	Fn      func(ctx context.Context) error
}

// Scheduler runs jobs on cron expressions evaluated in a fixed timezone
type Scheduler struct {
	cron   *robfig.Cron
	jobs   []Job
	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewScheduler creates a new cron scheduler. Overlapping runs of the same job are skipped.
func NewScheduler(loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: robfig.New(
			robfig.WithLocation(loc),
			robfig.WithChain(robfig.Recover(robfig.DefaultLogger), robfig.SkipIfStillRunning(robfig.DefaultLogger)),
		),
		jobs:   make([]Job, 0),
		ctx:    ctx,
		cancel: cancel,
	}
}

// AddJob registers a job under a standard five-field cron spec
func (s *Scheduler) AddJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.cron.AddFunc(job.Spec, func() { s.executeJob(job) }); err != nil {
		return fmt.Errorf("invalid cron spec %q for job %s: %w", job.Spec, job.Name, err)
	}
	s.jobs = append(s.jobs, job)
	slog.Info("Cron job registered", "name", job.Name, "spec", job.Spec)
	return nil
}

// Start begins running all scheduled jobs
func (s *Scheduler) Start() {
	s.cron.Start()
	slog.Info("Cron scheduler started", "job_count", len(s.jobs), "location", s.cron.Location().String())
}

// Stop cancels running jobs and waits for them to return
func (s *Scheduler) Stop() {
	slog.Info("Stopping cron scheduler...")
	s.cancel()
	<-s.cron.Stop().Done()
	slog.Info("Cron scheduler stopped")
}

// executeJob executes a job and logs results
func (s *Scheduler) executeJob(job Job) {
	ctx := s.ctx
	if job.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, job.Timeout)
		defer cancel()
	}

	start := time.Now()
	slog.Debug("Cron job starting", "name", job.Name)

	if err := job.Fn(ctx); err != nil {
		slog.Error("Cron job failed", "name", job.Name, "error", err, "duration", time.Since(start))
	} else {
		slog.Debug("Cron job completed", "name", job.Name, "duration", time.Since(start))
	}
}

// RunOnce runs all jobs once (useful for testing)
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, job := range s.jobs {
		if err := job.Fn(ctx); err != nil {
			slog.Error("Cron job failed", "name", job.Name, "error", err)
		}
	}
}
