package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aimd54/workout-achievements/internal/models"
)

// BadgeRepository handles badge-related database operations.
type BadgeRepository struct {
	db *DB
}

// NewBadgeRepository creates a new badge repository.
func NewBadgeRepository(db *DB) *BadgeRepository {
	return &BadgeRepository{db: db}
}

// EnsureBadges inserts catalog badge levels that do not exist yet. Existing rows
// are left untouched. Returns the number of rows created.
func (r *BadgeRepository) EnsureBadges(ctx context.Context, badges []models.Badge) (int64, error) {
	if len(badges) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}, {Name: "level"}},
			DoNothing: true,
		}).
		Create(&badges)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to materialize badges: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// GetAll retrieves all badges from the database.
func (r *BadgeRepository) GetAll(ctx context.Context) ([]models.Badge, error) {
	var badges []models.Badge
	err := r.db.WithContext(ctx).Order("slug ASC, level ASC").Find(&badges).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list badges: %w", err)
	}
	return badges, nil
}

// GetBySlugLevel retrieves one badge level.
func (r *BadgeRepository) GetBySlugLevel(ctx context.Context, slug string, level int) (*models.Badge, error) {
	var badge models.Badge
	err := r.db.WithContext(ctx).Where("slug = ? AND level = ?", slug, level).First(&badge).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get badge %s: %w", models.BadgeKey(slug, level), err)
	}
	return &badge, nil
}

// IncrementProgress atomically increments a user's counter for a badge slug once per
// period and returns the counter value. The period is recorded in the same transaction
// as the increment; when it was already recorded the counter is returned unchanged and
// counted is false.
func (r *BadgeRepository) IncrementProgress(ctx context.Context, userID, slug string, periodStart time.Time) (counter int, counted bool, err error) {
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		event := models.UserBadgeProgressEvent{UserID: userID, BadgeSlug: slug, PeriodStart: periodStart.UTC()}
		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "badge_slug"}, {Name: "period_start"}},
			DoNothing: true,
		}).Create(&event)
		if result.Error != nil {
			return result.Error
		}
		counted = result.RowsAffected > 0

		if counted {
			progress := models.UserBadgeProgress{UserID: userID, BadgeSlug: slug, Counter: 1}
			err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "user_id"}, {Name: "badge_slug"}},
				DoUpdates: clause.Assignments(map[string]interface{}{
					"counter":    gorm.Expr("user_badge_progress.counter + 1"),
					"updated_at": time.Now().UTC(),
				}),
			}).Create(&progress).Error
			if err != nil {
				return err
			}
		}

		var stored models.UserBadgeProgress
		err := tx.Where("user_id = ? AND badge_slug = ?", userID, slug).First(&stored).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			counter = 0
			return nil
		}
		if err != nil {
			return err
		}
		counter = stored.Counter
		return nil
	})
	if err != nil {
		return 0, false, fmt.Errorf("failed to increment progress %s for user %s: %w", slug, userID, err)
	}
	return counter, counted, nil
}

// GetProgress returns a user's counter for a badge slug, zero when absent.
func (r *BadgeRepository) GetProgress(ctx context.Context, userID, slug string) (int, error) {
	var progress models.UserBadgeProgress
	err := r.db.WithContext(ctx).Where("user_id = ? AND badge_slug = ?", userID, slug).First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get progress %s for user %s: %w", slug, userID, err)
	}
	return progress.Counter, nil
}

// HasUserEarnedBadge checks if a user has earned a specific badge.
func (r *BadgeRepository) HasUserEarnedBadge(ctx context.Context, userID, badgeID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.UserBadge{}).
		Where("user_id = ? AND badge_id = ?", userID, badgeID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check badge %s for user %s: %w", badgeID, userID, err)
	}
	return count > 0, nil
}

// AwardBadge awards a badge to a user. Returns nil without error when the user
// already holds the badge.
func (r *BadgeRepository) AwardBadge(ctx context.Context, userID, badgeID string) (*models.UserBadge, error) {
	exists, err := r.HasUserEarnedBadge(ctx, userID, badgeID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, nil
	}

	userBadge := &models.UserBadge{
		UserID:   userID,
		BadgeID:  badgeID,
		EarnedAt: time.Now().UTC(),
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(userBadge)
	if result.Error != nil {
		if isDuplicateKey(result.Error) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to award badge %s to user %s: %w", badgeID, userID, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return userBadge, nil
}

// GetUserBadges retrieves all badges earned by a user with badge details preloaded.
func (r *BadgeRepository) GetUserBadges(ctx context.Context, userID string) ([]models.UserBadge, error) {
	var userBadges []models.UserBadge
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Preload("Badge").
		Order("earned_at DESC").
		Find(&userBadges).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get badges for user %s: %w", userID, err)
	}
	return userBadges, nil
}
