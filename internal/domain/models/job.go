package models

import (
	"gorm.io/gorm"
	"time"
)

type JobStatus int

const (
	JobPendingApproval JobStatus = 1
	JobNeedsRevision   JobStatus = 2
	JobApproved        JobStatus = 3
	JobInactive        JobStatus = 4
	JobRejected        JobStatus = 5
)

func (s JobStatus) String() string {
	switch s {
	case JobPendingApproval:
		return "pending_approval"
	case JobNeedsRevision:
		return "needs_revision"
	case JobApproved:
		return "approved"
	case JobInactive:
		return "inactive"
	case JobRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

func (s JobStatus) IsValid() bool {
	return s >= JobPendingApproval && s <= JobRejected
}

type JobPosting struct {
	ID                int64 `gorm:"primaryKey"`
	HospitalProfileID int64 `gorm:"not null;index"`
	Title             string
	Description       string
	Requirements      string
	Qualifications    string
	Benefits          string
	Specialty         string
	City              string
	EmploymentType    string
	SalaryMin         *int
	SalaryMax         *int
	StatusID          JobStatus `gorm:"not null;index"`
	RevisionNote      *string
	RevisionCount     int `gorm:"not null;default:0"`
	ApprovedAt        *time.Time
	PublishedAt       *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
	DeletedAt         gorm.DeletedAt `gorm:"index"`
}

// JobFields is the hospital-editable body of a posting.
type JobFields struct {
	Title          string `validate:"required,max=255"`
	Description    string `validate:"required"`
	Requirements   string
	Qualifications string
	Benefits       string
	Specialty      string `validate:"required,max=100"`
	City           string `validate:"required,max=100"`
	EmploymentType string `validate:"required,oneof=full_time part_time contract locum"`
	SalaryMin      *int   `validate:"omitempty,gte=0"`
	SalaryMax      *int   `validate:"omitempty,gte=0"`
}

func NewJobPosting(hospitalProfileID int64, fields JobFields) *JobPosting {
	job := &JobPosting{
		HospitalProfileID: hospitalProfileID,
		StatusID:          JobPendingApproval,
	}
	fields.applyTo(job)
	return job
}

func (f JobFields) applyTo(job *JobPosting) {
	job.Title = f.Title
	job.Description = f.Description
	job.Requirements = f.Requirements
	job.Qualifications = f.Qualifications
	job.Benefits = f.Benefits
	job.Specialty = f.Specialty
	job.City = f.City
	job.EmploymentType = f.EmploymentType
	job.SalaryMin = f.SalaryMin
	job.SalaryMax = f.SalaryMax
}

// Columns maps the fields to their column names for a partial update.
func (f JobFields) Columns() map[string]any {
	return map[string]any{
		"title":           f.Title,
		"description":     f.Description,
		"requirements":    f.Requirements,
		"qualifications":  f.Qualifications,
		"benefits":        f.Benefits,
		"specialty":       f.Specialty,
		"city":            f.City,
		"employment_type": f.EmploymentType,
		"salary_min":      f.SalaryMin,
		"salary_max":      f.SalaryMax,
	}
}
