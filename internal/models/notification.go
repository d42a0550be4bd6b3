package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Notification type constants.
const (
	NotificationBadgeEarned  = "badge_earned"
	NotificationAwardGranted = "award_granted"
)

// Notification is an in-app feed entry produced by a grant.
type Notification struct {
	ID        string            `gorm:"primaryKey;size:36" json:"id"`
	UserID    string            `gorm:"size:36;not null;index" json:"user_id"`
	Type      string            `gorm:"size:50;not null" json:"type"`
	Title     string            `gorm:"size:255;not null" json:"title"`
	Message   string            `gorm:"type:text" json:"message"`
	Payload   datatypes.JSONMap `json:"payload,omitempty"`
	ReadAt    *time.Time        `json:"read_at,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// TableName specifies the table name for Notification model.
func (Notification) TableName() string {
	return "notifications"
}

// BeforeCreate assigns a UUID when none is set.
func (n *Notification) BeforeCreate(_ *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}
