package models

import (
	"gorm.io/gorm"
	"time"
)

type ApplicationStatus int

const (
	ApplicationPending     ApplicationStatus = 1
	ApplicationUnderReview ApplicationStatus = 2
	ApplicationAccepted    ApplicationStatus = 3
	ApplicationRejected    ApplicationStatus = 4
	ApplicationWithdrawn   ApplicationStatus = 5
)

func (s ApplicationStatus) String() string {
	switch s {
	case ApplicationPending:
		return "pending"
	case ApplicationUnderReview:
		return "under_review"
	case ApplicationAccepted:
		return "accepted"
	case ApplicationRejected:
		return "rejected"
	case ApplicationWithdrawn:
		return "withdrawn"
	default:
		return "unknown"
	}
}

func (s ApplicationStatus) IsValid() bool {
	return s >= ApplicationPending && s <= ApplicationWithdrawn
}

func (s ApplicationStatus) IsTerminal() bool {
	return s == ApplicationWithdrawn
}

type Application struct {
	ID              int64 `gorm:"primaryKey"`
	JobID           int64 `gorm:"not null;uniqueIndex:idx_application_job_doctor"`
	DoctorProfileID int64 `gorm:"not null;uniqueIndex:idx_application_job_doctor"`
	CoverNote       string
	Notes           *string
	StatusID        ApplicationStatus `gorm:"not null;index"`
	AppliedAt       time.Time         `gorm:"not null"`
	UpdatedAt       time.Time
	DeletedAt       gorm.DeletedAt `gorm:"index"`
}

func NewApplication(jobID, doctorProfileID int64, coverNote string, appliedAt time.Time) *Application {
	return &Application{
		JobID:           jobID,
		DoctorProfileID: doctorProfileID,
		CoverNote:       coverNote,
		StatusID:        ApplicationPending,
		AppliedAt:       appliedAt,
	}
}
