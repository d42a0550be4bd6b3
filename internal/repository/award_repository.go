package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"github.com/aimd54/workout-achievements/internal/models"
)

// AwardRepository handles periodic award grants.
type AwardRepository struct {
	db *DB
}

// NewAwardRepository creates a new award repository.
func NewAwardRepository(db *DB) *AwardRepository {
	return &AwardRepository{db: db}
}

// Insert stores an award unless one already exists for the same user, type and
// period. Returns false without error on conflict.
func (r *AwardRepository) Insert(ctx context.Context, award *models.Award) (bool, error) {
	award.PeriodStart = award.PeriodStart.UTC()
	award.PeriodEnd = award.PeriodEnd.UTC()

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(award)
	if result.Error != nil {
		if isDuplicateKey(result.Error) {
			return false, nil
		}
		return false, fmt.Errorf("failed to insert award %s for user %s: %w", award.Type, award.UserID, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// ListByUser returns a user's awards, newest period first.
func (r *AwardRepository) ListByUser(ctx context.Context, userID string) ([]models.Award, error) {
	var awards []models.Award
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("period_start DESC, type ASC").
		Find(&awards).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list awards for user %s: %w", userID, err)
	}
	return awards, nil
}

// CountByType returns the number of awards of one type.
func (r *AwardRepository) CountByType(ctx context.Context, awardType string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Award{}).Where("type = ?", awardType).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count awards of type %s: %w", awardType, err)
	}
	return count, nil
}
