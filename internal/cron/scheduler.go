// internal/cron/scheduler.go
package cron

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// Scheduler represents the application's scheduler service
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *zap.SugaredLogger
	jobs      []Job
}

// Job represents a scheduled job
type Job struct {
	Name     string
	Schedule string
	Task     func()
	JobID    string
}

// NewScheduler creates a new scheduler with the given timezone
func NewScheduler(logger *zap.SugaredLogger, timezone string) (*Scheduler, error) {
	location, err := time.LoadLocation(timezone)
	if err != nil {
		logger.Warnf("Failed to load timezone %s, using UTC: %v", timezone, err)
		location = time.UTC
	}

	s, err := gocron.NewScheduler(
		gocron.WithLocation(location),
		gocron.WithLogger(gocron.NewLogger(gocron.LogLevelInfo)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Scheduler{
		scheduler: s,
		logger:    logger,
		jobs:      make([]Job, 0),
	}, nil
}

// Start registers the added jobs and begins the scheduler
func (s *Scheduler) Start() error {
	if err := s.RegisterJobs(); err != nil {
		return err
	}

	s.scheduler.Start()
	s.logger.Info("Scheduler started")

	return nil
}

// Stop halts the scheduler
func (s *Scheduler) Stop() {
	if err := s.scheduler.Shutdown(); err != nil {
		s.logger.Errorf("Scheduler shutdown failed: %v", err)
		return
	}
	s.logger.Info("Scheduler stopped")
}

// RegisterJobs adds all jobs to the scheduler
func (s *Scheduler) RegisterJobs() error {
	for i, job := range s.jobs {
		s.logger.Infof("Registering job: %s with schedule %s", job.Name, job.Schedule)

		j, err := s.scheduler.NewJob(
			gocron.CronJob(
				job.Schedule,
				false, // Don't use seconds field
			),
			gocron.NewTask(
				s.wrap(job),
			),
			gocron.WithName(job.Name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			return fmt.Errorf("failed to schedule job %s: %w", job.Name, err)
		}

		s.jobs[i].JobID = j.ID().String()
	}

	return nil
}

// wrap adds timing logs and panic recovery around a job's task.
func (s *Scheduler) wrap(job Job) func() {
	return func() {
		s.logger.Infof("Executing job: %s", job.Name)
		startTime := time.Now()

		defer func() {
			if r := recover(); r != nil {
				s.logger.Errorf("Job %s panicked: %v", job.Name, r)
			}
		}()

		job.Task()

		s.logger.Infof("Job %s completed in %v", job.Name, time.Since(startTime))
	}
}

// AddJob adds a new job to the scheduler
func (s *Scheduler) AddJob(name string, schedule string, task func()) {
	s.jobs = append(s.jobs, Job{
		Name:     name,
		Schedule: schedule,
		Task:     task,
	})
}

// GetJobs returns all registered jobs
func (s *Scheduler) GetJobs() []Job {
	return s.jobs
}

// RunJobByName runs a job immediately on the caller's goroutine
func (s *Scheduler) RunJobByName(name string) error {
	for _, job := range s.jobs {
		if job.Name == name {
			s.wrap(job)()
			return nil
		}
	}
	return fmt.Errorf("job not found: %s", name)
}
