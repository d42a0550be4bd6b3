package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aimd54/workout-achievements/internal/models"
)

// JobRunRepository persists the job run ledger.
type JobRunRepository struct {
	db *DB
}

// NewJobRunRepository creates a new job run repository.
func NewJobRunRepository(db *DB) *JobRunRepository {
	return &JobRunRepository{db: db}
}

// Insert attempts an exclusive insert keyed by (job_name, scheduled_for).
// Returns false without error when a row for the key already exists.
func (r *JobRunRepository) Insert(ctx context.Context, run *models.JobRun) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(run)
	if result.Error != nil {
		if isDuplicateKey(result.Error) {
			return false, nil
		}
		return false, fmt.Errorf("failed to insert job run %s: %w", run.JobName, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// GetByKey retrieves the ledger row for a job and scheduled instant.
func (r *JobRunRepository) GetByKey(ctx context.Context, jobName string, scheduledFor time.Time) (*models.JobRun, error) {
	var run models.JobRun
	err := r.db.WithContext(ctx).
		Where("job_name = ? AND scheduled_for = ?", jobName, scheduledFor.UTC()).
		First(&run).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get job run %s at %s: %w", jobName, scheduledFor.UTC().Format(time.RFC3339), err)
	}
	return &run, nil
}

// GetByID retrieves a ledger row by ID.
func (r *JobRunRepository) GetByID(ctx context.Context, id string) (*models.JobRun, error) {
	var run models.JobRun
	if err := r.db.WithContext(ctx).First(&run, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("failed to get job run %s: %w", id, err)
	}
	return &run, nil
}

// MarkRunning unconditionally moves a row back to running. Used by forced reruns.
func (r *JobRunRepository) MarkRunning(ctx context.Context, id string, metadata map[string]interface{}) error {
	err := r.db.WithContext(ctx).Model(&models.JobRun{}).
		Where("id = ?", id).
		Updates(runningUpdates(metadata)).Error
	if err != nil {
		return fmt.Errorf("failed to mark job run %s running: %w", id, err)
	}
	return nil
}

// ReclaimFailed moves a failed row back to running. Returns false when the row is not
// in the failed state, so only one concurrent retry can win.
func (r *JobRunRepository) ReclaimFailed(ctx context.Context, id string, metadata map[string]interface{}) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.JobRun{}).
		Where("id = ? AND status = ?", id, models.JobRunFailed).
		Updates(runningUpdates(metadata))
	if result.Error != nil {
		return false, fmt.Errorf("failed to reclaim job run %s: %w", id, result.Error)
	}
	return result.RowsAffected > 0, nil
}

func runningUpdates(metadata map[string]interface{}) map[string]interface{} {
	updates := map[string]interface{}{
		"status":      models.JobRunRunning,
		"started_at":  time.Now().UTC(),
		"finished_at": nil,
		"attempts":    gorm.Expr("attempts + 1"),
	}
	if metadata != nil {
		updates["metadata"] = datatypes.JSONMap(metadata)
	}
	return updates
}

// Finish records the terminal status of a run, merging metadata into the existing map.
func (r *JobRunRepository) Finish(ctx context.Context, id, status string, metadata map[string]interface{}) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var run models.JobRun
		if err := tx.First(&run, "id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to load job run %s: %w", id, err)
		}

		merged := datatypes.JSONMap{}
		for k, v := range run.Metadata {
			merged[k] = v
		}
		for k, v := range metadata {
			merged[k] = v
		}

		now := time.Now().UTC()
		err := tx.Model(&models.JobRun{}).Where("id = ?", id).Updates(map[string]interface{}{
			"status":      status,
			"finished_at": now,
			"metadata":    merged,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to finish job run %s: %w", id, err)
		}
		return nil
	})
}

// ListRecent returns the most recent runs of a job, newest first.
func (r *JobRunRepository) ListRecent(ctx context.Context, jobName string, limit int) ([]models.JobRun, error) {
	var runs []models.JobRun
	query := r.db.WithContext(ctx).Order("scheduled_for DESC")
	if jobName != "" {
		query = query.Where("job_name = ?", jobName)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("failed to list job runs: %w", err)
	}
	return runs, nil
}
