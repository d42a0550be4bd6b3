package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aimd54/workout-achievements/internal/models"
)

// LeaderboardRepository persists friends leaderboard snapshots.
type LeaderboardRepository struct {
	db *DB
}

// NewLeaderboardRepository creates a new leaderboard repository.
func NewLeaderboardRepository(db *DB) *LeaderboardRepository {
	return &LeaderboardRepository{db: db}
}

// UpsertSnapshot stores a snapshot. On conflict the points and participants are
// refreshed while best_rank keeps the smaller of the stored and new rank.
func (r *LeaderboardRepository) UpsertSnapshot(ctx context.Context, snapshot *models.LeaderboardSnapshot) error {
	snapshot.PeriodStart = snapshot.PeriodStart.UTC()
	snapshot.PeriodEnd = snapshot.PeriodEnd.UTC()

	updates := clause.AssignmentColumns([]string{"points", "participant_count", "participants", "period_end", "updated_at"})
	updates = append(updates, clause.Assignment{
		Column: clause.Column{Name: "best_rank"},
		Value: gorm.Expr("CASE WHEN excluded.best_rank < leaderboard_snapshots.best_rank " +
			"THEN excluded.best_rank ELSE leaderboard_snapshots.best_rank END"),
	})

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "period_type"}, {Name: "period_start"}},
		DoUpdates: updates,
	}).Create(snapshot).Error
	if err != nil {
		return fmt.Errorf("failed to upsert leaderboard snapshot for user %s: %w", snapshot.UserID, err)
	}
	return nil
}

// GetSnapshot retrieves a user's snapshot for one period.
func (r *LeaderboardRepository) GetSnapshot(ctx context.Context, userID, periodType string, periodStart time.Time) (*models.LeaderboardSnapshot, error) {
	var snapshot models.LeaderboardSnapshot
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND period_type = ? AND period_start = ?", userID, periodType, periodStart.UTC()).
		First(&snapshot).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard snapshot for user %s: %w", userID, err)
	}
	return &snapshot, nil
}
