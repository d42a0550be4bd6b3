// Package ledger guarantees at most one successful execution per job and period.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aimd54/workout-achievements/internal/models"
)

// Skip reasons reported on a Claim.
const (
	ReasonAlreadyCompleted = "already_completed"
	ReasonAlreadyRunning   = "already_running"
	ReasonRetryLost        = "retry_claimed_elsewhere"
)

// JobRunStore is the persistence the ledger needs.
type JobRunStore interface {
	Insert(ctx context.Context, run *models.JobRun) (bool, error)
	GetByKey(ctx context.Context, jobName string, scheduledFor time.Time) (*models.JobRun, error)
	MarkRunning(ctx context.Context, id string, metadata map[string]interface{}) error
	ReclaimFailed(ctx context.Context, id string, metadata map[string]interface{}) (bool, error)
	Finish(ctx context.Context, id, status string, metadata map[string]interface{}) error
}

// EnsureOptions controls a claim attempt.
type EnsureOptions struct {
	Force    bool
	Metadata map[string]interface{}
}

// Claim is the outcome of EnsureJobRun. When Skipped is true the caller must not
// perform any side effects.
type Claim struct {
	ID       string
	Skipped  bool
	Reason   string
	Forced   bool
	Retried  bool
	Attempts int
}

// FinalizeOptions carries the terminal status of a run.
type FinalizeOptions struct {
	Status   string
	Metadata map[string]interface{}
}

// Service is the job run ledger.
type Service struct {
	store JobRunStore
	log   *zerolog.Logger
}

// NewService creates a new ledger service.
func NewService(store JobRunStore, log *zerolog.Logger) *Service {
	return &Service{store: store, log: log}
}

// EnsureJobRun claims (jobName, scheduledFor). A fresh key is inserted as running.
// An existing key is skipped unless it previously failed, or force is set, in which
// case the existing row is moved back to running and its ID returned.
func (s *Service) EnsureJobRun(ctx context.Context, jobName string, scheduledFor time.Time, opts EnsureOptions) (Claim, error) {
	scheduledFor = scheduledFor.UTC()
	run := &models.JobRun{
		JobName:      jobName,
		ScheduledFor: scheduledFor,
		Status:       models.JobRunRunning,
		Metadata:     opts.Metadata,
		StartedAt:    time.Now().UTC(),
		Attempts:     1,
	}

	inserted, err := s.store.Insert(ctx, run)
	if err != nil {
		return Claim{}, fmt.Errorf("failed to claim job run: %w", err)
	}
	if inserted {
		s.log.Info().
			Str("job", jobName).
			Time("scheduled_for", scheduledFor).
			Str("run_id", run.ID).
			Msg("Claimed job run")
		return Claim{ID: run.ID, Attempts: 1}, nil
	}

	existing, err := s.store.GetByKey(ctx, jobName, scheduledFor)
	if err != nil {
		return Claim{}, fmt.Errorf("failed to load conflicting job run: %w", err)
	}

	if opts.Force {
		if err := s.store.MarkRunning(ctx, existing.ID, opts.Metadata); err != nil {
			return Claim{}, err
		}
		s.log.Warn().
			Str("job", jobName).
			Time("scheduled_for", scheduledFor).
			Str("run_id", existing.ID).
			Str("previous_status", existing.Status).
			Msg("Forcing rerun of job")
		return Claim{ID: existing.ID, Forced: true, Attempts: existing.Attempts + 1}, nil
	}

	switch existing.Status {
	case models.JobRunFailed:
		won, err := s.store.ReclaimFailed(ctx, existing.ID, opts.Metadata)
		if err != nil {
			return Claim{}, err
		}
		if !won {
			return s.skip(jobName, scheduledFor, existing.ID, ReasonRetryLost), nil
		}
		s.log.Info().
			Str("job", jobName).
			Time("scheduled_for", scheduledFor).
			Str("run_id", existing.ID).
			Int("attempt", existing.Attempts+1).
			Msg("Retrying failed job run")
		return Claim{ID: existing.ID, Retried: true, Attempts: existing.Attempts + 1}, nil
	case models.JobRunCompleted:
		return s.skip(jobName, scheduledFor, existing.ID, ReasonAlreadyCompleted), nil
	default:
		return s.skip(jobName, scheduledFor, existing.ID, ReasonAlreadyRunning), nil
	}
}

func (s *Service) skip(jobName string, scheduledFor time.Time, id, reason string) Claim {
	s.log.Info().
		Str("job", jobName).
		Time("scheduled_for", scheduledFor).
		Str("run_id", id).
		Str("reason", reason).
		Msg("Skipping job run")
	return Claim{ID: id, Skipped: true, Reason: reason}
}

// FinalizeJobRun records the terminal status of a claimed run.
func (s *Service) FinalizeJobRun(ctx context.Context, id string, opts FinalizeOptions) error {
	if opts.Status != models.JobRunCompleted && opts.Status != models.JobRunFailed {
		return fmt.Errorf("invalid final status %q", opts.Status)
	}
	if err := s.store.Finish(ctx, id, opts.Status, opts.Metadata); err != nil {
		return fmt.Errorf("failed to finalize job run: %w", err)
	}
	return nil
}

// FailureMetadata builds the metadata recorded for a failed run.
func FailureMetadata(err error, at time.Time) map[string]interface{} {
	return map[string]interface{}{
		"error":     err.Error(),
		"failed_at": at.UTC().Format(time.RFC3339),
	}
}
