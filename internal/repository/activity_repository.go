package repository

import (
	"context"
	"fmt"
	"time"
)

// UserTotalsRow is one user's points and workout count for a window.
type UserTotalsRow struct {
	UserID        string
	TotalPoints   float64
	TotalWorkouts int
}

// ActivityTotalsRow is one user's summed quantity for one activity type.
type ActivityTotalsRow struct {
	UserID       string
	ActivityType string
	Quantity     float64
}

// ActivityRepository reads workout activity rollups.
type ActivityRepository struct {
	db *DB
}

// NewActivityRepository creates a new activity repository.
func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// UserTotals returns points and workout counts for every user over [start, end).
// Users without workouts in the window are returned with zero totals.
func (r *ActivityRepository) UserTotals(ctx context.Context, start, end time.Time) ([]UserTotalsRow, error) {
	var rows []UserTotalsRow
	err := r.db.WithContext(ctx).
		Table("users AS u").
		Select("u.id AS user_id, COALESCE(SUM(a.points), 0) AS total_points, COUNT(DISTINCT w.id) AS total_workouts").
		Joins("LEFT JOIN workouts AS w ON w.user_id = u.id AND w.started_at >= ? AND w.started_at < ?", start.UTC(), end.UTC()).
		Joins("LEFT JOIN workout_activities AS a ON a.workout_id = w.id").
		Group("u.id").
		Order("u.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate user totals: %w", err)
	}
	return rows, nil
}

// ActivityTotals returns summed quantities per user and activity type over [start, end).
func (r *ActivityRepository) ActivityTotals(ctx context.Context, start, end time.Time) ([]ActivityTotalsRow, error) {
	var rows []ActivityTotalsRow
	err := r.db.WithContext(ctx).
		Table("workout_activities AS a").
		Select("w.user_id AS user_id, a.activity_type AS activity_type, SUM(a.quantity) AS quantity").
		Joins("JOIN workouts AS w ON w.id = a.workout_id").
		Where("w.started_at >= ? AND w.started_at < ?", start.UTC(), end.UTC()).
		Group("w.user_id, a.activity_type").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate activity totals: %w", err)
	}
	return rows, nil
}

// LifetimeActivityTotals returns running quantity totals per user and activity type
// for every workout started before until.
func (r *ActivityRepository) LifetimeActivityTotals(ctx context.Context, until time.Time) ([]ActivityTotalsRow, error) {
	var rows []ActivityTotalsRow
	err := r.db.WithContext(ctx).
		Table("workout_activities AS a").
		Select("w.user_id AS user_id, a.activity_type AS activity_type, SUM(a.quantity) AS quantity").
		Joins("JOIN workouts AS w ON w.id = a.workout_id").
		Where("w.started_at < ?", until.UTC()).
		Group("w.user_id, a.activity_type").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate lifetime totals: %w", err)
	}
	return rows, nil
}
