package services

import (
	"context"
	"github.com/maxaizer/medhire/internal/domain/models"
	"github.com/maxaizer/medhire/internal/repositories"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

const (
	adminUserID         = 1
	hospitalUserID      = 2
	otherHospitalUserID = 3
	firstDoctorUserID   = 10
)

type recordingDispatcher struct {
	mu       sync.Mutex
	events   []models.NotificationEvent
	failFor  map[int64]bool
	panicFor map[int64]bool
}

func newRecordingDispatcher() *recordingDispatcher {
	return &recordingDispatcher{failFor: map[int64]bool{}, panicFor: map[int64]bool{}}
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, event models.NotificationEvent) DeliveryResult {
	d.mu.Lock()
	d.events = append(d.events, event)
	fail, panics := d.failFor[event.UserID], d.panicFor[event.UserID]
	d.mu.Unlock()

	if panics {
		panic("dispatcher exploded")
	}
	if fail || event.UserID <= 0 {
		return DeliveryResult{}
	}
	return DeliveryResult{Delivered: true, NotificationID: int64(len(d.events))}
}

func (d *recordingDispatcher) Events() []models.NotificationEvent {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]models.NotificationEvent(nil), d.events...)
}

func (d *recordingDispatcher) EventsFor(userID int64) []models.NotificationEvent {
	var res []models.NotificationEvent
	for _, event := range d.Events() {
		if event.UserID == userID {
			res = append(res, event)
		}
	}
	return res
}

func (d *recordingDispatcher) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = nil
}

type mockHistory struct {
	mock.Mock
}

func (m *mockHistory) Record(ctx context.Context, jobID int64, oldStatus, newStatus models.JobStatus,
	actor models.Actor, note string) error {
	return m.Called(ctx, jobID, oldStatus, newStatus, actor, note).Error(0)
}

func (m *mockHistory) List(ctx context.Context, jobID int64) ([]models.JobHistoryEntry, error) {
	args := m.Called(ctx, jobID)
	return args.Get(0).([]models.JobHistoryEntry), args.Error(1)
}

type fixture struct {
	ctx          context.Context
	db           *repositories.DbContext
	jobsRepo     *repositories.Jobs
	appsRepo     *repositories.Applications
	history      *HistoryRecorder
	dispatcher   *recordingDispatcher
	jobs         *JobLifecycle
	applications *ApplicationLifecycle

	admin         models.Admin
	hospital      models.HospitalOwner
	otherHospital models.HospitalOwner
	doctors       []models.DoctorOwner
}

type fixtureOption func(deps *JobDependencies)

func withHistory(history historyWriter) fixtureOption {
	return func(deps *JobDependencies) { deps.History = history }
}

func withJobs(wrap func(jobs *repositories.Jobs) jobRepository) fixtureOption {
	return func(deps *JobDependencies) { deps.Jobs = wrap(deps.Jobs.(*repositories.Jobs)) }
}

// racingJobs runs beforeSwap ahead of every status swap, simulating a writer
// that commits between the read and the write of the engine.
type racingJobs struct {
	*repositories.Jobs
	beforeSwap func()
}

func (r *racingJobs) CompareAndSwapStatus(ctx context.Context, id int64, expected models.JobStatus,
	updates map[string]any) (bool, error) {
	if r.beforeSwap != nil {
		r.beforeSwap()
	}
	return r.Jobs.CompareAndSwapStatus(ctx, id, expected, updates)
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()

	dbCtx, err := repositories.NewDbContext(filepath.Join(t.TempDir(), "medhire.db"))
	require.NoError(t, err)
	require.NoError(t, dbCtx.Migrate())
	t.Cleanup(func() { _ = dbCtx.Close() })

	f := &fixture{
		ctx:           WithRequestID(context.Background(), t.Name()),
		db:            dbCtx,
		jobsRepo:      repositories.NewJobsRepository(dbCtx.DB),
		appsRepo:      repositories.NewApplicationsRepository(dbCtx.DB),
		dispatcher:    newRecordingDispatcher(),
		admin:         models.Admin{ID: adminUserID},
		hospital:      models.HospitalOwner{ID: hospitalUserID, HospitalProfileID: 1},
		otherHospital: models.HospitalOwner{ID: otherHospitalUserID, HospitalProfileID: 2},
	}
	f.history = NewHistoryRecorder(repositories.NewJobHistoryRepository(dbCtx.DB))

	db := dbCtx.DB
	require.NoError(t, db.Create(&models.User{ID: adminUserID, Email: "admin@example.com", Role: models.RoleAdmin}).Error)
	require.NoError(t, db.Create(&models.User{ID: hospitalUserID, Email: "h1@example.com", Role: models.RoleHospital}).Error)
	require.NoError(t, db.Create(&models.User{ID: otherHospitalUserID, Email: "h2@example.com", Role: models.RoleHospital}).Error)
	require.NoError(t, db.Create(&models.HospitalProfile{ID: 1, UserID: hospitalUserID, Name: "City Clinic"}).Error)
	require.NoError(t, db.Create(&models.HospitalProfile{ID: 2, UserID: otherHospitalUserID, Name: "North Hospital"}).Error)

	for i := int64(0); i < 4; i++ {
		userID := firstDoctorUserID + i
		require.NoError(t, db.Create(&models.User{ID: userID, Email: "doctor" + string(rune('a'+i)) + "@example.com",
			Role: models.RoleDoctor}).Error)
		require.NoError(t, db.Create(&models.DoctorProfile{ID: i + 1, UserID: userID, FullName: "Doctor"}).Error)
		f.doctors = append(f.doctors, models.DoctorOwner{ID: userID, DoctorProfileID: i + 1})
	}

	profiles := repositories.NewCachedProfiles(repositories.NewProfilesRepository(db))
	guard := NewGuard(f.jobsRepo, f.appsRepo)

	deps := JobDependencies{
		Jobs:       f.jobsRepo,
		Applicants: f.appsRepo,
		Recipients: profiles,
		History:    f.history,
		Notifier:   f.dispatcher,
		Guard:      guard,
	}
	for _, opt := range opts {
		opt(&deps)
	}

	f.jobs, err = NewJobLifecycle(deps, 2)
	require.NoError(t, err)

	f.applications, err = NewApplicationLifecycle(ApplicationDependencies{
		Applications: f.appsRepo,
		Jobs:         f.jobsRepo,
		Recipients:   profiles,
		Notifier:     f.dispatcher,
		Guard:        guard,
	})
	require.NoError(t, err)

	return f
}

func validJobFields() models.JobFields {
	salaryMin, salaryMax := 150000, 220000
	return models.JobFields{
		Title:          "Cardiologist",
		Description:    "Outpatient cardiology",
		Specialty:      "cardiology",
		City:           "Boston",
		EmploymentType: "full_time",
		SalaryMin:      &salaryMin,
		SalaryMax:      &salaryMax,
	}
}

// seedJob inserts a posting of the main hospital directly in the given status.
func (f *fixture) seedJob(t *testing.T, status models.JobStatus) *models.JobPosting {
	t.Helper()
	job := models.NewJobPosting(f.hospital.HospitalProfileID, validJobFields())
	job.StatusID = status
	if status == models.JobNeedsRevision {
		note := "add salary details"
		job.RevisionNote = &note
		job.RevisionCount = 1
	}
	require.NoError(t, f.jobsRepo.Create(f.ctx, job))
	return job
}

func (f *fixture) seedApplication(t *testing.T, jobID int64, doctor models.DoctorOwner,
	status models.ApplicationStatus) *models.Application {
	t.Helper()
	application := models.NewApplication(jobID, doctor.DoctorProfileID, "", time.Now().UTC())
	application.StatusID = status
	require.NoError(t, f.appsRepo.Create(f.ctx, application))
	return application
}

func (f *fixture) reloadJob(t *testing.T, id int64) *models.JobPosting {
	t.Helper()
	job, err := f.jobsRepo.GetByID(f.ctx, id)
	require.NoError(t, err)
	require.NotNil(t, job)
	return job
}

func (f *fixture) reloadApplication(t *testing.T, id int64) *models.Application {
	t.Helper()
	application, err := f.appsRepo.GetByID(f.ctx, id)
	require.NoError(t, err)
	require.NotNil(t, application)
	return application
}

func (f *fixture) historyOf(t *testing.T, jobID int64) []models.JobHistoryEntry {
	t.Helper()
	entries, err := f.history.List(f.ctx, jobID)
	require.NoError(t, err)
	return entries
}
