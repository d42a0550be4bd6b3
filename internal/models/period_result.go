package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PeriodType constants.
const (
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
)

// BadgeKey formats a badge level as recorded on period results.
func BadgeKey(slug string, level int) string {
	return fmt.Sprintf("%s:%d", slug, level)
}

// PeriodResult is the durable per-user snapshot of one weekly or monthly period.
// Badge and award lists only ever grow.
type PeriodResult struct {
	ID               string                      `gorm:"primaryKey;size:36" json:"id"`
	UserID           string                      `gorm:"size:36;not null;uniqueIndex:idx_period_results_key" json:"user_id"`
	PeriodType       string                      `gorm:"size:20;not null;uniqueIndex:idx_period_results_key" json:"period_type"`
	PeriodStart      time.Time                   `gorm:"not null;uniqueIndex:idx_period_results_key" json:"period_start"`
	PeriodEnd        time.Time                   `gorm:"not null" json:"period_end"`
	TotalPoints      float64                     `gorm:"not null;default:0" json:"total_points"`
	TotalWorkouts    int                         `gorm:"not null;default:0" json:"total_workouts"`
	ActivityTotals   datatypes.JSONMap           `json:"activity_totals,omitempty"`
	PointsTarget     float64                     `gorm:"not null;default:0" json:"points_target"`
	PointsGoalMet    bool                        `gorm:"not null;default:false" json:"points_goal_met"`
	ChallengeMet     bool                        `gorm:"not null;default:false" json:"challenge_met"`
	HasExerciseGoals bool                        `gorm:"not null;default:false" json:"has_exercise_goals"`
	ExerciseGoalsMet bool                        `gorm:"not null;default:false" json:"exercise_goals_met"`
	Badges           datatypes.JSONSlice[string] `json:"badges"`
	Awards           datatypes.JSONSlice[string] `json:"awards"`
	JobRunID         string                      `gorm:"size:36" json:"job_run_id"`
	CreatedAt        time.Time                   `json:"created_at"`
	UpdatedAt        time.Time                   `json:"updated_at"`
}

// TableName specifies the table name for PeriodResult model.
func (PeriodResult) TableName() string {
	return "period_results"
}

// BeforeCreate assigns a UUID when none is set.
func (r *PeriodResult) BeforeCreate(_ *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// LeaderboardSnapshot records a user's friends leaderboard position for a period.
// BestRank only ever improves across reruns.
type LeaderboardSnapshot struct {
	ID               string                      `gorm:"primaryKey;size:36" json:"id"`
	UserID           string                      `gorm:"size:36;not null;uniqueIndex:idx_leaderboard_snapshots_key" json:"user_id"`
	PeriodType       string                      `gorm:"size:20;not null;uniqueIndex:idx_leaderboard_snapshots_key" json:"period_type"`
	PeriodStart      time.Time                   `gorm:"not null;uniqueIndex:idx_leaderboard_snapshots_key" json:"period_start"`
	PeriodEnd        time.Time                   `gorm:"not null" json:"period_end"`
	BestRank         int                         `gorm:"not null" json:"best_rank"`
	Points           float64                     `gorm:"not null;default:0" json:"points"`
	ParticipantCount int                         `gorm:"not null;default:1" json:"participant_count"`
	Participants     datatypes.JSONSlice[string] `json:"participants"`
	UpdatedAt        time.Time                   `json:"updated_at"`
}

// TableName specifies the table name for LeaderboardSnapshot model.
func (LeaderboardSnapshot) TableName() string {
	return "leaderboard_snapshots"
}

// BeforeCreate assigns a UUID when none is set.
func (s *LeaderboardSnapshot) BeforeCreate(_ *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
