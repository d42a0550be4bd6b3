package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Workout is a logged training session.
type Workout struct {
	ID         string            `gorm:"primaryKey;size:36" json:"id"`
	UserID     string            `gorm:"size:36;not null;index:idx_workouts_user_started" json:"user_id"`
	Title      string            `gorm:"size:255" json:"title"`
	StartedAt  time.Time         `gorm:"not null;index:idx_workouts_user_started" json:"started_at"`
	Activities []WorkoutActivity `gorm:"foreignKey:WorkoutID" json:"activities,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// TableName specifies the table name for Workout model.
func (Workout) TableName() string {
	return "workouts"
}

// BeforeCreate assigns a UUID when none is set.
func (w *Workout) BeforeCreate(_ *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return nil
}

// WorkoutActivity is one exercise inside a workout. Points are precomputed when the
// activity is logged; Quantity is the raw amount (reps, minutes, meters).
type WorkoutActivity struct {
	ID           string  `gorm:"primaryKey;size:36" json:"id"`
	WorkoutID    string  `gorm:"size:36;not null;index" json:"workout_id"`
	ActivityType string  `gorm:"size:100;not null;index" json:"activity_type"`
	Quantity     float64 `gorm:"not null;default:0" json:"quantity"`
	Unit         string  `gorm:"size:20" json:"unit"`
	Points       float64 `gorm:"not null;default:0" json:"points"`
}

// TableName specifies the table name for WorkoutActivity model.
func (WorkoutActivity) TableName() string {
	return "workout_activities"
}

// BeforeCreate assigns a UUID when none is set.
func (a *WorkoutActivity) BeforeCreate(_ *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
