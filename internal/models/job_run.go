package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// JobRun status constants.
const (
	JobRunRunning   = "running"
	JobRunCompleted = "completed"
	JobRunFailed    = "failed"
)

// JobRun is a ledger row claiming one scheduled execution of a job.
type JobRun struct {
	ID           string            `gorm:"primaryKey;size:36" json:"id"`
	JobName      string            `gorm:"size:100;not null;uniqueIndex:idx_job_runs_key" json:"job_name"`
	ScheduledFor time.Time         `gorm:"not null;uniqueIndex:idx_job_runs_key" json:"scheduled_for"`
	Status       string            `gorm:"size:20;not null;index" json:"status"`
	Metadata     datatypes.JSONMap `json:"metadata,omitempty"`
	StartedAt    time.Time         `gorm:"not null" json:"started_at"`
	FinishedAt   *time.Time        `json:"finished_at,omitempty"`
	Attempts     int               `gorm:"not null;default:1" json:"attempts"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// TableName specifies the table name for JobRun model.
func (JobRun) TableName() string {
	return "job_runs"
}

// BeforeCreate assigns a UUID when none is set.
func (j *JobRun) BeforeCreate(_ *gorm.DB) error {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	return nil
}
