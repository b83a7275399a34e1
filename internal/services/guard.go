package services

import (
	"context"
	"github.com/maxaizer/medhire/internal/domain/models"
	"github.com/pkg/errors"
)

type jobReader interface {
	GetByID(ctx context.Context, id int64) (*models.JobPosting, error)
}

type applicationReader interface {
	GetByID(ctx context.Context, id int64) (*models.Application, error)
}

// Access is the role the guard resolved the actor to for one resource.
type Access int

const (
	AccessNone Access = iota
	AccessAdmin
	AccessHospitalOwner
	AccessDoctorOwner
)

func (a Access) String() string {
	switch a {
	case AccessAdmin:
		return "admin"
	case AccessHospitalOwner:
		return "hospital-owner"
	case AccessDoctorOwner:
		return "doctor-owner"
	default:
		return "none"
	}
}

type JobAccess struct {
	Job    *models.JobPosting
	Access Access
}

type ApplicationAccess struct {
	Application *models.Application
	Job         *models.JobPosting
	Access      Access
}

// Guard resolves an actor to the resource it may mutate. Hospitals and doctors
// get ErrNotFound for resources that exist but are not theirs.
type Guard struct {
	jobs         jobReader
	applications applicationReader
}

func NewGuard(jobs jobReader, applications applicationReader) *Guard {
	return &Guard{jobs: jobs, applications: applications}
}

func (g *Guard) ResolveJobForActor(ctx context.Context, actor models.Actor, jobID int64) (*JobAccess, error) {
	job, err := g.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load job %d", jobID)
	}
	notFound := newLifecycleError(ErrNotFound, resourceJob, jobID)
	if job == nil {
		return nil, notFound
	}

	switch a := actor.(type) {
	case models.Admin:
		return &JobAccess{Job: job, Access: AccessAdmin}, nil
	case models.HospitalOwner:
		if job.HospitalProfileID != a.HospitalProfileID {
			return nil, notFound
		}
		return &JobAccess{Job: job, Access: AccessHospitalOwner}, nil
	case models.DoctorOwner:
		// doctors see the posting but hold no rights on it
		return &JobAccess{Job: job, Access: AccessNone}, nil
	default:
		return nil, notFound
	}
}

func (g *Guard) ResolveApplicationForActor(ctx context.Context, actor models.Actor,
	applicationID int64) (*ApplicationAccess, error) {

	application, err := g.applications.GetByID(ctx, applicationID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load application %d", applicationID)
	}
	notFound := newLifecycleError(ErrNotFound, resourceApplication, applicationID)
	if application == nil {
		return nil, notFound
	}

	job, err := g.jobs.GetByID(ctx, application.JobID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load job %d of application %d", application.JobID, applicationID)
	}
	if job == nil {
		return nil, notFound
	}

	access := &ApplicationAccess{Application: application, Job: job}

	switch a := actor.(type) {
	case models.Admin:
		access.Access = AccessAdmin
	case models.HospitalOwner:
		if job.HospitalProfileID != a.HospitalProfileID {
			return nil, notFound
		}
		access.Access = AccessHospitalOwner
	case models.DoctorOwner:
		if application.DoctorProfileID != a.DoctorProfileID {
			return nil, notFound
		}
		access.Access = AccessDoctorOwner
	default:
		return nil, notFound
	}

	return access, nil
}
