package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/aimd54/workout-achievements/internal/models"
)

// ResultRepository persists per-user period snapshots.
type ResultRepository struct {
	db *DB
}

// NewResultRepository creates a new result repository.
func NewResultRepository(db *DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// Upsert creates or updates the result keyed by (user_id, period_type, period_start).
// Totals and evaluation flags are overwritten; badge and award lists are merged with
// the stored ones so they never shrink.
func (r *ResultRepository) Upsert(ctx context.Context, result *models.PeriodResult) error {
	result.PeriodStart = result.PeriodStart.UTC()
	result.PeriodEnd = result.PeriodEnd.UTC()

	err := r.upsert(ctx, result)
	if err != nil && isDuplicateKey(err) {
		// A concurrent forced rerun created the row between our read and insert.
		err = r.upsert(ctx, result)
	}
	if err != nil {
		return fmt.Errorf("failed to upsert %s result for user %s: %w", result.PeriodType, result.UserID, err)
	}
	return nil
}

func (r *ResultRepository) upsert(ctx context.Context, result *models.PeriodResult) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.PeriodResult
		err := tx.Where("user_id = ? AND period_type = ? AND period_start = ?",
			result.UserID, result.PeriodType, result.PeriodStart).
			First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			result.Badges = mergeStrings(nil, result.Badges)
			result.Awards = mergeStrings(nil, result.Awards)
			return tx.Create(result).Error
		}
		if err != nil {
			return err
		}

		result.ID = existing.ID
		result.CreatedAt = existing.CreatedAt
		result.Badges = mergeStrings(existing.Badges, result.Badges)
		result.Awards = mergeStrings(existing.Awards, result.Awards)
		return tx.Save(result).Error
	})
}

// AppendAwards adds award types to an existing result. Missing results are ignored.
func (r *ResultRepository) AppendAwards(ctx context.Context, userID, periodType string, periodStart time.Time, awards []string) error {
	if len(awards) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.PeriodResult
		err := tx.Where("user_id = ? AND period_type = ? AND period_start = ?",
			userID, periodType, periodStart.UTC()).
			First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		merged := mergeStrings(existing.Awards, awards)
		return tx.Model(&models.PeriodResult{}).
			Where("id = ?", existing.ID).
			Update("awards", merged).Error
	})
	if err != nil {
		return fmt.Errorf("failed to append awards for user %s: %w", userID, err)
	}
	return nil
}

// Get retrieves one period result.
func (r *ResultRepository) Get(ctx context.Context, userID, periodType string, periodStart time.Time) (*models.PeriodResult, error) {
	var result models.PeriodResult
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND period_type = ? AND period_start = ?", userID, periodType, periodStart.UTC()).
		First(&result).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get %s result for user %s: %w", periodType, userID, err)
	}
	return &result, nil
}

// ListByUser returns a user's results of one period type, newest first.
func (r *ResultRepository) ListByUser(ctx context.Context, userID, periodType string, limit int) ([]models.PeriodResult, error) {
	var results []models.PeriodResult
	query := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("period_start DESC")
	if periodType != "" {
		query = query.Where("period_type = ?", periodType)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to list results for user %s: %w", userID, err)
	}
	return results, nil
}

// mergeStrings returns the union of a and b, keeping first-seen order.
func mergeStrings(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, s := range list {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
