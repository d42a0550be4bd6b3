// Package achievements runs the weekly and monthly achievement jobs.
//
// A run claims its period in the job run ledger, aggregates activity for every user,
// evaluates goals and progress badges, ranks users among their direct friends,
// grants placement awards and finally queues the summary emails. Every grant is
// idempotent, so a forced rerun recomputes results without duplicating rewards.
package achievements

import (
	"context"
	"fmt"
	"time"

	prommetrics "github.com/aimd54/workout-achievements/internal/metrics"
	"github.com/aimd54/workout-achievements/internal/models"
	"github.com/aimd54/workout-achievements/internal/service/aggregator"
	"github.com/aimd54/workout-achievements/internal/service/awards"
	"github.com/aimd54/workout-achievements/internal/service/badges"
	"github.com/aimd54/workout-achievements/internal/service/digest"
	"github.com/aimd54/workout-achievements/internal/service/leaderboard"
	"github.com/aimd54/workout-achievements/internal/service/ledger"
	"github.com/aimd54/workout-achievements/internal/service/period"
	"github.com/aimd54/workout-achievements/pkg/logger"
)

// Job names recorded in the ledger.
const (
	JobWeekly  = "weekly_events"
	JobMonthly = "monthly_events"
)

// finalizeTimeout bounds the ledger write that closes a run.
const finalizeTimeout = 30 * time.Second

// Ledger claims and finalizes runs.
type Ledger interface {
	EnsureJobRun(ctx context.Context, jobName string, scheduledFor time.Time, opts ledger.EnsureOptions) (ledger.Claim, error)
	FinalizeJobRun(ctx context.Context, id string, opts ledger.FinalizeOptions) error
}

// Aggregator computes activity rollups.
type Aggregator interface {
	Aggregate(ctx context.Context, window period.Window) ([]aggregator.Rollup, error)
	LifetimeTotals(ctx context.Context, until time.Time) (map[string]map[string]float64, error)
}

// ProfileStore reads user profiles and goal configurations.
type ProfileStore interface {
	ListProfiles(ctx context.Context) ([]models.Profile, error)
}

// BadgeGranter grants progress and lifetime badges.
type BadgeGranter interface {
	HandleProgress(ctx context.Context, userID, slug string, periodStart time.Time, achieved bool) ([]badges.Grant, error)
	HandleLifetimeMilestones(ctx context.Context, userID, activityType string, totalQuantity float64) ([]badges.Grant, error)
}

// Ranker computes friends leaderboards and stores snapshots.
type Ranker interface {
	Rank(ctx context.Context, userPoints map[string]float64) (map[string]leaderboard.Entry, error)
	RecordSnapshot(ctx context.Context, periodType string, start, end time.Time, entry leaderboard.Entry) error
}

// AwardGranter grants periodic awards.
type AwardGranter interface {
	GrantAward(ctx context.Context, userID string, in awards.AwardInput) (*models.Award, error)
}

// ResultStore persists per-user period results.
type ResultStore interface {
	Upsert(ctx context.Context, result *models.PeriodResult) error
	AppendAwards(ctx context.Context, userID, periodType string, periodStart time.Time, awards []string) error
}

// DigestQueuer queues summary emails.
type DigestQueuer interface {
	QueueSummaries(ctx context.Context, summaries []digest.Summary) (queued, failed int)
}

// Config holds the thresholds and window settings of the jobs.
type Config struct {
	OffsetMinutes            int
	DefaultPointsGoal        float64
	WeeklyChallengeThreshold float64
	MonthlyChampionThreshold float64
	LifetimeMilestones       bool
	Digests                  bool
}

// Deps are the collaborators of the engine. Digests may be nil.
type Deps struct {
	Ledger      Ledger
	Aggregator  Aggregator
	Profiles    ProfileStore
	Badges      BadgeGranter
	Leaderboard Ranker
	Awards      AwardGranter
	Results     ResultStore
	Digests     DigestQueuer
}

// RunOptions controls one invocation. A nil ReferenceDate means now.
type RunOptions struct {
	ReferenceDate *time.Time
	Force         bool
}

// RunResult is the outcome of an invocation.
type RunResult struct {
	Skipped        bool      `json:"skipped"`
	Reason         string    `json:"reason,omitempty"`
	JobRunID       string    `json:"job_run_id,omitempty"`
	WindowStart    time.Time `json:"window_start"`
	WindowEnd      time.Time `json:"window_end"`
	ProcessedUsers int       `json:"processed_users"`
	BadgesGranted  int       `json:"badges_granted"`
	AwardsGranted  int       `json:"awards_granted"`
	DigestsQueued  int       `json:"digests_queued"`
	DigestsFailed  int       `json:"digests_failed"`
}

// Engine runs the periodic jobs.
type Engine struct {
	cfg  Config
	deps Deps
	log  *logger.Logger
	now  func() time.Time
}

// NewEngine creates a new engine.
func NewEngine(cfg Config, deps Deps, log *logger.Logger) *Engine {
	return &Engine{cfg: cfg, deps: deps, log: log, now: time.Now}
}

type job struct {
	name       string
	periodType string
	resolve    func(now time.Time, offsetMinutes int) period.Window
}

var (
	weeklyJob  = job{name: JobWeekly, periodType: models.PeriodWeekly, resolve: period.ResolveWeeklyWindow}
	monthlyJob = job{name: JobMonthly, periodType: models.PeriodMonthly, resolve: period.ResolveMonthlyWindow}
)

// ProcessWeeklyEvents evaluates the previous local week.
func (e *Engine) ProcessWeeklyEvents(ctx context.Context, opts RunOptions) (*RunResult, error) {
	return e.process(ctx, weeklyJob, opts)
}

// ProcessMonthlyEvents evaluates the previous local month.
func (e *Engine) ProcessMonthlyEvents(ctx context.Context, opts RunOptions) (*RunResult, error) {
	return e.process(ctx, monthlyJob, opts)
}

func (e *Engine) process(ctx context.Context, j job, opts RunOptions) (*RunResult, error) {
	reference := e.now()
	if opts.ReferenceDate != nil {
		reference = *opts.ReferenceDate
	}
	window := j.resolve(reference, e.cfg.OffsetMinutes)
	result := &RunResult{WindowStart: window.UTCStart, WindowEnd: window.UTCEnd}

	claim, err := e.deps.Ledger.EnsureJobRun(ctx, j.name, window.Key(), ledger.EnsureOptions{
		Force: opts.Force,
		Metadata: map[string]interface{}{
			"window":         window.String(),
			"reference_date": reference.UTC().Format(time.RFC3339),
			"forced":         opts.Force,
		},
	})
	if err != nil {
		prommetrics.RecordJobRun(j.name, "claim_error")
		return nil, fmt.Errorf("failed to claim %s run for %s: %w", j.name, window, err)
	}
	result.JobRunID = claim.ID

	if claim.Skipped {
		prommetrics.RecordJobSkipped(j.name, claim.Reason)
		result.Skipped = true
		result.Reason = claim.Reason
		return result, nil
	}

	start := time.Now()
	runLog := e.log.WithJobRun(j.name, claim.ID)
	runLog.Info().
		Str("window", window.String()).
		Bool("forced", claim.Forced).
		Int("attempt", claim.Attempts).
		Msg("Starting job run")

	// The ledger row must reach a final status even when ctx is cancelled mid-run
	finalizeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalizeTimeout)
	defer cancel()

	if err := e.execute(ctx, j, window, claim.ID, result); err != nil {
		prommetrics.RecordJobRun(j.name, models.JobRunFailed)
		prommetrics.ObserveJobDuration(j.name, time.Since(start).Seconds())

		finalizeErr := e.deps.Ledger.FinalizeJobRun(finalizeCtx, claim.ID, ledger.FinalizeOptions{
			Status:   models.JobRunFailed,
			Metadata: ledger.FailureMetadata(err, time.Now()),
		})
		if finalizeErr != nil {
			runLog.Error().Err(finalizeErr).Msg("Failed to record job run failure")
		}

		runLog.Error().
			Err(err).
			Dur("duration", time.Since(start)).
			Msg("Job run failed")
		return nil, fmt.Errorf("%s run for %s failed: %w", j.name, window, err)
	}

	err = e.deps.Ledger.FinalizeJobRun(finalizeCtx, claim.ID, ledger.FinalizeOptions{
		Status: models.JobRunCompleted,
		Metadata: map[string]interface{}{
			"processed_users": result.ProcessedUsers,
			"badges_granted":  result.BadgesGranted,
			"awards_granted":  result.AwardsGranted,
			"digests_queued":  result.DigestsQueued,
			"digests_failed":  result.DigestsFailed,
			"completed_at":    time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		prommetrics.RecordJobRun(j.name, "finalize_error")
		return nil, err
	}

	duration := time.Since(start)
	prommetrics.RecordJobRun(j.name, models.JobRunCompleted)
	prommetrics.ObserveJobDuration(j.name, duration.Seconds())
	prommetrics.SetJobUsersProcessed(j.name, result.ProcessedUsers)
	prommetrics.SetJobLastSuccess(j.name)

	runLog.Info().
		Int("processed_users", result.ProcessedUsers).
		Int("badges_granted", result.BadgesGranted).
		Int("awards_granted", result.AwardsGranted).
		Int("digests_queued", result.DigestsQueued).
		Dur("duration", duration).
		Msg("Job run completed")

	return result, nil
}
