package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Award type constants.
const (
	AwardWeeklyPodium    = "weekly_leaderboard_podium"
	AwardMonthlyPodium   = "monthly_leaderboard_podium"
	AwardMonthlyChampion = "monthly_champion"
)

// Award is a periodic grant, unique per user, type and period.
type Award struct {
	ID          string            `gorm:"primaryKey;size:36" json:"id"`
	UserID      string            `gorm:"size:36;not null;uniqueIndex:idx_awards_user_type_period" json:"user_id"`
	Type        string            `gorm:"size:100;not null;uniqueIndex:idx_awards_user_type_period" json:"type"`
	PeriodStart time.Time         `gorm:"not null;uniqueIndex:idx_awards_user_type_period" json:"period_start"`
	PeriodEnd   time.Time         `gorm:"not null;uniqueIndex:idx_awards_user_type_period" json:"period_end"`
	Label       string            `gorm:"size:255;not null" json:"label"`
	Metadata    datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// TableName specifies the table name for Award model.
func (Award) TableName() string {
	return "awards"
}

// BeforeCreate assigns a UUID when none is set.
func (a *Award) BeforeCreate(_ *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
