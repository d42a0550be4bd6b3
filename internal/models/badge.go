package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Badge category constants.
const (
	BadgeCategoryProgress = "progress"
	BadgeCategoryLifetime = "lifetime"
)

// Badge is one materialized level of a catalog badge. Rows are immutable once created.
type Badge struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Slug         string    `gorm:"size:100;not null;uniqueIndex:idx_badges_slug_level" json:"slug"`
	Level        int       `gorm:"not null;uniqueIndex:idx_badges_slug_level" json:"level"` // Threshold
	Category     string    `gorm:"size:50;not null" json:"category"`
	ActivityType string    `gorm:"size:100" json:"activity_type,omitempty"`
	Label        string    `gorm:"size:255;not null" json:"label"`
	Description  string    `gorm:"type:text" json:"description"`
	Icon         string    `gorm:"size:50" json:"icon"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName specifies the table name for Badge model.
func (Badge) TableName() string {
	return "badges"
}

// BeforeCreate assigns a UUID when none is set.
func (b *Badge) BeforeCreate(_ *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// Key returns the "slug:level" identifier recorded on period results.
func (b *Badge) Key() string {
	return BadgeKey(b.Slug, b.Level)
}

// UserBadgeProgress is a monotonically incremented per-user counter for a progress badge.
type UserBadgeProgress struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"size:36;not null;uniqueIndex:idx_badge_progress_user_slug" json:"user_id"`
	BadgeSlug string    `gorm:"size:100;not null;uniqueIndex:idx_badge_progress_user_slug" json:"badge_slug"`
	Counter   int       `gorm:"not null;default:0" json:"counter"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for UserBadgeProgress model.
func (UserBadgeProgress) TableName() string {
	return "user_badge_progress"
}

// BeforeCreate assigns a UUID when none is set.
func (p *UserBadgeProgress) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// UserBadgeProgressEvent records that a period already advanced a progress counter.
type UserBadgeProgressEvent struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	UserID      string    `gorm:"size:36;not null;uniqueIndex:idx_badge_progress_events_period" json:"user_id"`
	BadgeSlug   string    `gorm:"size:100;not null;uniqueIndex:idx_badge_progress_events_period" json:"badge_slug"`
	PeriodStart time.Time `gorm:"not null;uniqueIndex:idx_badge_progress_events_period" json:"period_start"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName specifies the table name for UserBadgeProgressEvent model.
func (UserBadgeProgressEvent) TableName() string {
	return "user_badge_progress_events"
}

// BeforeCreate assigns a UUID when none is set.
func (e *UserBadgeProgressEvent) BeforeCreate(_ *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// UserBadge represents a badge earned by a user.
type UserBadge struct {
	ID       string    `gorm:"primaryKey;size:36" json:"id"`
	UserID   string    `gorm:"size:36;not null;uniqueIndex:idx_user_badges_user_badge" json:"user_id"`
	BadgeID  string    `gorm:"size:36;not null;uniqueIndex:idx_user_badges_user_badge" json:"badge_id"`
	Badge    Badge     `gorm:"foreignKey:BadgeID" json:"badge,omitempty"`
	EarnedAt time.Time `gorm:"not null" json:"earned_at"`
}

// TableName specifies the table name for UserBadge model.
func (UserBadge) TableName() string {
	return "user_badges"
}

// BeforeCreate assigns a UUID when none is set.
func (ub *UserBadge) BeforeCreate(_ *gorm.DB) error {
	if ub.ID == "" {
		ub.ID = uuid.NewString()
	}
	return nil
}
