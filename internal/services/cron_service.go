package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// SessionPurger removes seat sessions that can no longer be read
type SessionPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// CronService manages scheduled background jobs
type CronService struct {
	cron     *cron.Cron
	purger   SessionPurger
	schedule string
	timeout  time.Duration
	logger   *logrus.Logger
}

// NewCronService creates a new CronService. schedule uses the six-field
// cron format with seconds.
func NewCronService(purger SessionPurger, schedule string, logger *logrus.Logger) *CronService {
	return &CronService{
		cron:     cron.New(cron.WithSeconds()),
		purger:   purger,
		schedule: schedule,
		timeout:  30 * time.Second,
		logger:   logger,
	}
}

// Start schedules the jobs and starts the scheduler
func (s *CronService) Start() error {
	// "0 * * * * *" = at second 0 of every minute
	if _, err := s.cron.AddFunc(s.schedule, s.purgeExpiredSessionsJob); err != nil {
		return fmt.Errorf("failed to schedule seat session sweep: %w", err)
	}
	s.logger.WithField("schedule", s.schedule).Info("Scheduled: expired seat session sweep")

	s.cron.Start()
	s.logger.Info("Cron service started")
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *CronService) Stop() {
	s.logger.Info("Stopping cron service...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Cron service stopped")
}

func (s *CronService) purgeExpiredSessionsJob() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if _, err := s.sweep(ctx, "[CRON]"); err != nil {
		s.logger.WithError(err).Error("[CRON] Failed to purge expired seat sessions")
	}
}

func (s *CronService) sweep(ctx context.Context, source string) (int64, error) {
	startTime := time.Now()
	removed, err := s.purger.PurgeExpired(ctx)
	if err != nil {
		return 0, err
	}
	if removed == 0 {
		return 0, nil
	}

	s.logger.WithFields(logrus.Fields{
		"removed":  removed,
		"duration": time.Since(startTime).String(),
	}).Info(source + " Purged expired seat sessions")
	return removed, nil
}

// RunSweepNow runs the seat session sweep outside the schedule and reports
// how many sessions were removed
func (s *CronService) RunSweepNow(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	removed, err := s.sweep(ctx, "[ADMIN]")
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired seat sessions: %w", err)
	}
	return removed, nil
}

// GetJobStatus returns the status of scheduled jobs
func (s *CronService) GetJobStatus() map[string]interface{} {
	entries := s.cron.Entries()

	jobs := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		jobs = append(jobs, map[string]interface{}{
			"id":       entry.ID,
			"next_run": entry.Next,
			"prev_run": entry.Prev,
		})
	}

	return map[string]interface{}{
		"running":   len(entries) > 0,
		"job_count": len(entries),
		"jobs":      jobs,
	}
}
