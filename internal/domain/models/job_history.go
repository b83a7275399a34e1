package models

import "time"

// JobHistoryEntry is an append-only audit row of a job status transition.
type JobHistoryEntry struct {
	ID              int64     `gorm:"primaryKey"`
	JobID           int64     `gorm:"not null;index"`
	OldStatusID     JobStatus `gorm:"not null"`
	NewStatusID     JobStatus `gorm:"not null"`
	ChangedByUserID int64     `gorm:"not null"`
	ChangedByRole   Role      `gorm:"not null"`
	Note            string
	ChangedAt       time.Time `gorm:"not null"`
}

func (JobHistoryEntry) TableName() string {
	return "job_history"
}
