// Package scheduler triggers the weekly and monthly achievement jobs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/aimd54/workout-achievements/internal/config"
	"github.com/aimd54/workout-achievements/internal/mattermost"
	"github.com/aimd54/workout-achievements/internal/service/achievements"
	"github.com/aimd54/workout-achievements/pkg/logger"
)

// Runner executes the periodic jobs.
type Runner interface {
	ProcessWeeklyEvents(ctx context.Context, opts achievements.RunOptions) (*achievements.RunResult, error)
	ProcessMonthlyEvents(ctx context.Context, opts achievements.RunOptions) (*achievements.RunResult, error)
}

// Reporter posts run reports to the ops channel.
type Reporter interface {
	SendJobRunReport(ctx context.Context, report mattermost.JobRunReport) error
}

type runFunc func(ctx context.Context, opts achievements.RunOptions) (*achievements.RunResult, error)

// Service handles job scheduling.
type Service struct {
	config   *config.Config
	runner   Runner
	reporter Reporter
	log      *logger.Logger
	cron     *cron.Cron
}

// NewService creates a new scheduler service. reporter may be nil.
func NewService(cfg *config.Config, runner Runner, reporter Reporter, log *logger.Logger) *Service {
	return &Service{
		config:   cfg,
		runner:   runner,
		reporter: reporter,
		log:      log,
	}
}

// Start initializes and starts the cron scheduler.
func (s *Service) Start() error {
	if !s.config.Scheduler.Enabled {
		s.log.Info().Msg("Scheduler is disabled in configuration")
		return nil
	}

	location, err := s.config.Scheduler.GetLocation()
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", s.config.Scheduler.Timezone, err)
	}

	s.cron = cron.New(cron.WithLocation(location))

	jobs := []struct {
		name     string
		schedule string
		run      runFunc
	}{
		{achievements.JobWeekly, s.config.Scheduler.Weekly, s.runner.ProcessWeeklyEvents},
		{achievements.JobMonthly, s.config.Scheduler.Monthly, s.runner.ProcessMonthlyEvents},
	}

	for _, job := range jobs {
		if job.schedule == "" {
			s.log.Warn().Str("job", job.name).Msg("No schedule configured, job not registered")
			continue
		}
		name, run := job.name, job.run
		_, err := s.cron.AddFunc(job.schedule, func() {
			s.runJob(context.Background(), name, run)
		})
		if err != nil {
			return fmt.Errorf("failed to register %s job: %w", name, err)
		}
		s.log.Info().
			Str("job", name).
			Str("schedule", job.schedule).
			Msg("Job registered")
	}

	s.cron.Start()

	nextRun := ""
	if entries := s.cron.Entries(); len(entries) > 0 {
		nextRun = entries[0].Next.Format(time.RFC3339)
	}

	s.log.Info().
		Str("timezone", s.config.Scheduler.Timezone).
		Int("window_offset_minutes", s.config.Scheduler.TimezoneOffsetMinutes).
		Str("next_run", nextRun).
		Msg("Scheduler started successfully")

	return nil
}

// Stop gracefully shuts down the scheduler, waiting for a running job to finish.
func (s *Service) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.log.Info().Msg("Scheduler stopped")
	}
}

// runJob executes one scheduled tick and reports its outcome.
func (s *Service) runJob(ctx context.Context, name string, run runFunc) {
	start := time.Now()
	s.log.Info().Str("job", name).Msg("Running scheduled job")

	result, err := run(ctx, achievements.RunOptions{})
	report := buildReport(name, result, err, time.Since(start))

	if err != nil {
		s.log.Error().
			Err(err).
			Str("job", name).
			Dur("duration", report.Duration).
			Msg("Scheduled job failed")
	} else {
		s.log.Info().
			Str("job", name).
			Str("status", report.Status).
			Dur("duration", report.Duration).
			Msg("Scheduled job finished")
	}

	if s.reporter == nil {
		return
	}
	if err := s.reporter.SendJobRunReport(ctx, report); err != nil {
		s.log.Warn().Err(err).Str("job", name).Msg("Failed to send job run report")
	}
}

func buildReport(name string, result *achievements.RunResult, err error, duration time.Duration) mattermost.JobRunReport {
	report := mattermost.JobRunReport{Job: name, Duration: duration}

	switch {
	case err != nil:
		report.Status = mattermost.ReportFailed
		report.Error = err.Error()
	case result.Skipped:
		report.Status = mattermost.ReportSkipped
		report.Reason = result.Reason
	default:
		report.Status = mattermost.ReportCompleted
		report.ProcessedUsers = result.ProcessedUsers
		report.BadgesGranted = result.BadgesGranted
		report.AwardsGranted = result.AwardsGranted
		report.DigestsQueued = result.DigestsQueued
		report.DigestsFailed = result.DigestsFailed
	}

	if result != nil {
		report.WindowStart = result.WindowStart
		report.WindowEnd = result.WindowEnd
	}
	return report
}
