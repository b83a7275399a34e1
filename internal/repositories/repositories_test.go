package repositories

import (
	"context"
	"github.com/maxaizer/medhire/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"path/filepath"
	"testing"
	"time"
)

func newTestDbContext(t *testing.T) *DbContext {
	dbCtx, err := NewDbContext(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, dbCtx.Migrate())
	t.Cleanup(func() { _ = dbCtx.Close() })
	return dbCtx
}

func Test_Jobs_CompareAndSwapStatus_WhenStatusMatches_ShouldUpdate(t *testing.T) {
	dbCtx := newTestDbContext(t)
	jobs := NewJobsRepository(dbCtx.DB)
	ctx := context.Background()

	job := models.NewJobPosting(1, models.JobFields{Title: "Cardiologist"})
	require.NoError(t, jobs.Create(ctx, job))

	swapped, err := jobs.CompareAndSwapStatus(ctx, job.ID, models.JobPendingApproval,
		map[string]any{"status_id": models.JobApproved})
	assert.NoError(t, err)
	assert.True(t, swapped)

	loaded, err := jobs.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobApproved, loaded.StatusID)
}

func Test_Jobs_CompareAndSwapStatus_WhenStatusIsStale_ShouldNotUpdate(t *testing.T) {
	dbCtx := newTestDbContext(t)
	jobs := NewJobsRepository(dbCtx.DB)
	ctx := context.Background()

	job := models.NewJobPosting(1, models.JobFields{Title: "Surgeon"})
	require.NoError(t, jobs.Create(ctx, job))

	swapped, err := jobs.CompareAndSwapStatus(ctx, job.ID, models.JobNeedsRevision,
		map[string]any{"status_id": models.JobPendingApproval})
	assert.NoError(t, err)
	assert.False(t, swapped)

	loaded, err := jobs.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobPendingApproval, loaded.StatusID)
}

func Test_Jobs_GetByID_WhenSoftDeleted_ShouldReturnNil(t *testing.T) {
	dbCtx := newTestDbContext(t)
	jobs := NewJobsRepository(dbCtx.DB)
	ctx := context.Background()

	job := models.NewJobPosting(1, models.JobFields{Title: "Nurse"})
	require.NoError(t, jobs.Create(ctx, job))
	require.NoError(t, dbCtx.DB.Delete(&models.JobPosting{}, job.ID).Error)

	loaded, err := jobs.GetByID(ctx, job.ID)
	assert.NoError(t, err)
	assert.Nil(t, loaded)
}

func Test_Applications_ListNotifiableByJob_ShouldSkipWithdrawn(t *testing.T) {
	dbCtx := newTestDbContext(t)
	applications := NewApplicationsRepository(dbCtx.DB)
	ctx := context.Background()

	for doctor, status := range map[int64]models.ApplicationStatus{
		1: models.ApplicationPending,
		2: models.ApplicationWithdrawn,
		3: models.ApplicationAccepted,
	} {
		app := models.NewApplication(7, doctor, "", time.Now())
		app.StatusID = status
		require.NoError(t, applications.Create(ctx, app))
	}
	require.NoError(t, applications.Create(ctx, models.NewApplication(8, 1, "", time.Now())))

	notifiable, err := applications.ListNotifiableByJob(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, notifiable, 2)
	for _, app := range notifiable {
		assert.NotEqual(t, models.ApplicationWithdrawn, app.StatusID)
		assert.Equal(t, int64(7), app.JobID)
	}

	exists, err := applications.ExistsForDoctor(ctx, 7, 2)
	assert.NoError(t, err)
	assert.True(t, exists)

	exists, err = applications.ExistsForDoctor(ctx, 8, 3)
	assert.NoError(t, err)
	assert.False(t, exists)
}

func Test_JobHistory_ListByJob_ShouldReturnEntriesInOrder(t *testing.T) {
	dbCtx := newTestDbContext(t)
	history := NewJobHistoryRepository(dbCtx.DB)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, history.Append(ctx, &models.JobHistoryEntry{JobID: 1, OldStatusID: models.JobPendingApproval,
		NewStatusID: models.JobNeedsRevision, ChangedByUserID: 9, ChangedByRole: models.RoleAdmin, ChangedAt: now}))
	require.NoError(t, history.Append(ctx, &models.JobHistoryEntry{JobID: 1, OldStatusID: models.JobNeedsRevision,
		NewStatusID: models.JobPendingApproval, ChangedByUserID: 5, ChangedByRole: models.RoleHospital,
		Note: "resubmitted", ChangedAt: now.Add(time.Second)}))
	require.NoError(t, history.Append(ctx, &models.JobHistoryEntry{JobID: 2, ChangedAt: now}))

	entries, err := history.ListByJob(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.JobNeedsRevision, entries[0].NewStatusID)
	assert.Equal(t, "resubmitted", entries[1].Note)
}

func Test_Notifications_MarkReadAndRemove(t *testing.T) {
	dbCtx := newTestDbContext(t)
	notifications := NewNotificationsRepository(dbCtx.DB)
	ctx := context.Background()

	first := &models.Notification{UserID: 3, Kind: models.NotificationInfo, Title: "first",
		Payload: map[string]string{"job_id": "1"}}
	second := &models.Notification{UserID: 3, Kind: models.NotificationInfo, Title: "second"}
	require.NoError(t, notifications.Save(ctx, first))
	require.NoError(t, notifications.Save(ctx, second))

	marked, err := notifications.MarkRead(ctx, 4, first.ID)
	assert.NoError(t, err)
	assert.False(t, marked, "foreign user must not mark the notification")

	marked, err = notifications.MarkRead(ctx, 3, first.ID)
	assert.NoError(t, err)
	assert.True(t, marked)

	unread, err := notifications.ListForUser(ctx, 3, true, 10)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "second", unread[0].Title)

	all, err := notifications.ListForUser(ctx, 3, false, 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	removed, err := notifications.RemoveReadBefore(ctx, time.Now().Add(time.Hour))
	assert.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	all, err = notifications.ListForUser(ctx, 3, false, 10)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "second", all[0].Title)
}

func Test_Profiles_ShouldResolveUsers(t *testing.T) {
	dbCtx := newTestDbContext(t)
	profiles := NewProfilesRepository(dbCtx.DB)
	ctx := context.Background()

	chatID := int64(555)
	require.NoError(t, dbCtx.DB.Create(&models.User{ID: 10, Email: "h@example.com", Role: models.RoleHospital}).Error)
	require.NoError(t, dbCtx.DB.Create(&models.User{ID: 11, Email: "d@example.com", Role: models.RoleDoctor,
		TelegramChatID: &chatID}).Error)
	require.NoError(t, dbCtx.DB.Create(&models.HospitalProfile{ID: 100, UserID: 10}).Error)
	require.NoError(t, dbCtx.DB.Create(&models.DoctorProfile{ID: 200, UserID: 11}).Error)

	userID, err := profiles.HospitalUserID(ctx, 100)
	assert.NoError(t, err)
	assert.Equal(t, int64(10), userID)

	userID, err = profiles.DoctorUserID(ctx, 200)
	assert.NoError(t, err)
	assert.Equal(t, int64(11), userID)

	userID, err = profiles.DoctorUserID(ctx, 999)
	assert.NoError(t, err)
	assert.Zero(t, userID)

	chat, err := profiles.TelegramChatID(ctx, 11)
	assert.NoError(t, err)
	require.NotNil(t, chat)
	assert.Equal(t, chatID, *chat)

	chat, err = profiles.TelegramChatID(ctx, 10)
	assert.NoError(t, err)
	assert.Nil(t, chat)
}

type mockProfiles struct {
	mock.Mock
}

func (m *mockProfiles) HospitalUserID(ctx context.Context, hospitalProfileID int64) (int64, error) {
	args := m.Called(ctx, hospitalProfileID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockProfiles) DoctorUserID(ctx context.Context, doctorProfileID int64) (int64, error) {
	args := m.Called(ctx, doctorProfileID)
	return args.Get(0).(int64), args.Error(1)
}

func Test_CachedProfiles_ShouldHitRepositoryOnce(t *testing.T) {
	repo := &mockProfiles{}
	repo.On("HospitalUserID", mock.Anything, int64(1)).Return(int64(10), nil).Once()
	repo.On("DoctorUserID", mock.Anything, int64(1)).Return(int64(20), nil).Once()
	repo.On("DoctorUserID", mock.Anything, int64(2)).Return(int64(0), nil).Twice()

	cached := NewCachedProfiles(repo)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		hospitalUser, err := cached.HospitalUserID(ctx, 1)
		assert.NoError(t, err)
		assert.Equal(t, int64(10), hospitalUser)

		doctorUser, err := cached.DoctorUserID(ctx, 1)
		assert.NoError(t, err)
		assert.Equal(t, int64(20), doctorUser)

		unknown, err := cached.DoctorUserID(ctx, 2)
		assert.NoError(t, err)
		assert.Zero(t, unknown)
	}

	repo.AssertExpectations(t)
}
