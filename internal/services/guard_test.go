package services

import (
	"github.com/maxaizer/medhire/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func Test_Guard_ResolveJobForActor(t *testing.T) {
	f := newFixture(t)
	guard := NewGuard(f.jobsRepo, f.appsRepo)
	job := f.seedJob(t, models.JobApproved)

	access, err := guard.ResolveJobForActor(f.ctx, f.admin, job.ID)
	require.NoError(t, err)
	assert.Equal(t, AccessAdmin, access.Access)

	access, err = guard.ResolveJobForActor(f.ctx, f.hospital, job.ID)
	require.NoError(t, err)
	assert.Equal(t, AccessHospitalOwner, access.Access)
	assert.Equal(t, job.ID, access.Job.ID)

	_, err = guard.ResolveJobForActor(f.ctx, f.otherHospital, job.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	access, err = guard.ResolveJobForActor(f.ctx, f.doctors[0], job.ID)
	require.NoError(t, err)
	assert.Equal(t, AccessNone, access.Access)
	assert.Equal(t, "none", access.Access.String())

	_, err = guard.ResolveJobForActor(f.ctx, f.admin, job.ID+1)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, f.db.DB.Delete(&models.JobPosting{}, job.ID).Error)
	_, err = guard.ResolveJobForActor(f.ctx, f.admin, job.ID)
	assert.ErrorIs(t, err, ErrNotFound, "soft-deleted postings do not exist")
}

func Test_Guard_ResolveApplicationForActor(t *testing.T) {
	f := newFixture(t)
	guard := NewGuard(f.jobsRepo, f.appsRepo)
	job := f.seedJob(t, models.JobApproved)
	application := f.seedApplication(t, job.ID, f.doctors[0], models.ApplicationPending)

	access, err := guard.ResolveApplicationForActor(f.ctx, f.hospital, application.ID)
	require.NoError(t, err)
	assert.Equal(t, AccessHospitalOwner, access.Access)
	assert.Equal(t, job.ID, access.Job.ID)

	access, err = guard.ResolveApplicationForActor(f.ctx, f.doctors[0], application.ID)
	require.NoError(t, err)
	assert.Equal(t, AccessDoctorOwner, access.Access)

	access, err = guard.ResolveApplicationForActor(f.ctx, f.admin, application.ID)
	require.NoError(t, err)
	assert.Equal(t, AccessAdmin, access.Access)

	_, err = guard.ResolveApplicationForActor(f.ctx, f.otherHospital, application.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = guard.ResolveApplicationForActor(f.ctx, f.doctors[1], application.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = guard.ResolveApplicationForActor(f.ctx, f.admin, application.ID+1)
	assert.ErrorIs(t, err, ErrNotFound)
}
