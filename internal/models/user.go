// Package models defines the persisted domain models of the achievements engine.
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User is the subset of the profile store the engine reads.
type User struct {
	ID          string         `gorm:"primaryKey;size:36" json:"id"`
	DisplayName string         `gorm:"size:255" json:"display_name"`
	Email       string         `gorm:"size:255" json:"email"`
	WeeklyGoals datatypes.JSON `json:"weekly_goals,omitempty"` // Parsed into WeeklyGoals by the repository
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// TableName specifies the table name for User model.
func (User) TableName() string {
	return "users"
}

// BeforeCreate assigns a UUID when none is set.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// MaxExerciseGoals is the maximum number of exercise goals a user may configure.
const MaxExerciseGoals = 5

// WeeklyGoals is the validated goal configuration of a user.
type WeeklyGoals struct {
	Points    *PointsGoal    `json:"points,omitempty"`
	Exercises []ExerciseGoal `json:"exercises,omitempty" validate:"max=5,unique=ExerciseID,dive"`
}

// PointsGoal is the weekly points target.
type PointsGoal struct {
	Target float64 `json:"target" validate:"gte=0"`
}

// ExerciseGoal is a weekly quantity target for one activity type.
type ExerciseGoal struct {
	ExerciseID string  `json:"exerciseId" validate:"required,max=100"`
	Target     float64 `json:"target" validate:"gte=0"`
	Unit       string  `json:"unit,omitempty" validate:"max=20"`
}

// Profile is a user together with its parsed goal configuration.
type Profile struct {
	User     User
	Goals    *WeeklyGoals // nil when no goals are configured
	GoalsErr error        // set when the stored document failed validation
}

// FriendshipStatus constants.
const (
	FriendshipPending  = "pending"
	FriendshipAccepted = "accepted"
	FriendshipDeclined = "declined"
)

// Friendship is a friend request between two users.
type Friendship struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	RequesterID string    `gorm:"size:36;not null;index" json:"requester_id"`
	AddresseeID string    `gorm:"size:36;not null;index" json:"addressee_id"`
	Status      string    `gorm:"size:20;not null;index" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for Friendship model.
func (Friendship) TableName() string {
	return "friendships"
}

// BeforeCreate assigns a UUID when none is set.
func (f *Friendship) BeforeCreate(_ *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}

// FriendEdge is the canonical shape of an accepted friendship.
type FriendEdge struct {
	UserID   string
	FriendID string
}
