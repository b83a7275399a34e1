package services

import (
	"context"
	"github.com/go-playground/validator/v10"
	"github.com/maxaizer/medhire/internal/domain/models"
	"github.com/maxaizer/medhire/internal/logger"
	"github.com/maxaizer/medhire/internal/metrics"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const (
	maxCompareAndSwapAttempts = 3
	resubmittedNote           = "resubmitted"
	maxNoteLength             = 2000
)

type jobRepository interface {
	Create(ctx context.Context, job *models.JobPosting) error
	GetByID(ctx context.Context, id int64) (*models.JobPosting, error)
	CompareAndSwapStatus(ctx context.Context, id int64, expected models.JobStatus, updates map[string]any) (bool, error)
	UpdateFieldsInStatus(ctx context.Context, id int64, status models.JobStatus, fields map[string]any) (bool, error)
}

type applicantRepository interface {
	ListNotifiableByJob(ctx context.Context, jobID int64) ([]models.Application, error)
}

type recipientResolver interface {
	HospitalUserID(ctx context.Context, hospitalProfileID int64) (int64, error)
	DoctorUserID(ctx context.Context, doctorProfileID int64) (int64, error)
}

type historyWriter interface {
	Record(ctx context.Context, jobID int64, oldStatus, newStatus models.JobStatus, actor models.Actor, note string) error
	List(ctx context.Context, jobID int64) ([]models.JobHistoryEntry, error)
}

type actorMask uint8

const (
	byAdmin actorMask = 1 << iota
	byHospitalOwner
)

func maskOf(access Access) actorMask {
	switch access {
	case AccessAdmin:
		return byAdmin
	case AccessHospitalOwner:
		return byHospitalOwner
	default:
		return 0
	}
}

// jobTransitions lists every edge of the posting state machine and who may
// take it. Rejected has no outgoing edges.
var jobTransitions = map[models.JobStatus]map[models.JobStatus]actorMask{
	models.JobPendingApproval: {
		models.JobApproved:      byAdmin,
		models.JobNeedsRevision: byAdmin,
		models.JobRejected:      byAdmin,
	},
	models.JobNeedsRevision: {
		models.JobPendingApproval: byHospitalOwner,
	},
	models.JobApproved: {
		models.JobInactive: byAdmin | byHospitalOwner,
	},
	models.JobInactive: {
		models.JobApproved: byAdmin | byHospitalOwner,
	},
}

type JobDependencies struct {
	Jobs       jobRepository
	Applicants applicantRepository
	Recipients recipientResolver
	History    historyWriter
	Notifier   dispatcher
	Guard      *Guard
}

type JobLifecycle struct {
	jobs              jobRepository
	applicants        applicantRepository
	recipients        recipientResolver
	history           historyWriter
	notifier          dispatcher
	guard             *Guard
	validate          *validator.Validate
	fanOutConcurrency int
	now               func() time.Time
}

func NewJobLifecycle(deps JobDependencies, fanOutConcurrency int) (*JobLifecycle, error) {

	if deps.Jobs == nil || deps.Applicants == nil || deps.Recipients == nil {
		return nil, errors.New("job lifecycle repositories are not set")
	}
	if deps.History == nil {
		return nil, errors.New("history recorder is nil")
	}
	if deps.Notifier == nil {
		return nil, errors.New("notifier is nil")
	}
	if deps.Guard == nil {
		return nil, errors.New("guard is nil")
	}
	if fanOutConcurrency <= 0 {
		return nil, errors.New("fan out concurrency must be greater than zero")
	}

	return &JobLifecycle{
		jobs:              deps.Jobs,
		applicants:        deps.Applicants,
		recipients:        deps.Recipients,
		history:           deps.History,
		notifier:          deps.Notifier,
		guard:             deps.Guard,
		validate:          validator.New(),
		fanOutConcurrency: fanOutConcurrency,
		now:               func() time.Time { return time.Now().UTC() },
	}, nil
}

type TransitionOptions struct {
	Note string
	// Resend re-dispatches the notifications of the current status when the
	// requested status equals it. Without it a same-status request does nothing.
	Resend bool
}

type JobTransitionResult struct {
	Job *models.JobPosting
	// NoOp is set when the job already was in the requested status.
	NoOp      bool
	History   Outcome
	Attempted int
	Notified  int
}

type jobChange struct {
	updates     map[string]any
	historyNote string
	apply       func(job *models.JobPosting)
}

func (e *JobLifecycle) Create(ctx context.Context, actor models.Actor, fields models.JobFields) (*models.JobPosting, error) {

	hospital, ok := actor.(models.HospitalOwner)
	if !ok {
		return nil, newLifecycleError(ErrForbidden, resourceJob, 0).because("only hospitals create job postings")
	}

	if err := e.validateFields(0, fields); err != nil {
		return nil, err
	}

	job := models.NewJobPosting(hospital.HospitalProfileID, fields)
	if err := e.jobs.Create(ctx, job); err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to create job posting: %v", err)
		return nil, errors.Wrap(err, "failed to create job posting")
	}

	requestLogger(ctx).Infof("hospital %d created job %d", hospital.HospitalProfileID, job.ID)
	return job, nil
}

// Edit changes the posting body. Only the owning hospital may do it and only
// while the posting needs revision.
func (e *JobLifecycle) Edit(ctx context.Context, actor models.Actor, jobID int64,
	fields models.JobFields) (*models.JobPosting, error) {

	access, err := e.guard.ResolveJobForActor(ctx, actor, jobID)
	if err != nil {
		return nil, err
	}

	if access.Access != AccessHospitalOwner {
		return nil, newLifecycleError(ErrForbidden, resourceJob, jobID).
			because("only the owning hospital edits a job posting")
	}

	invalidState := newLifecycleError(ErrInvalidState, resourceJob, jobID).
		because("job postings can only be edited while they need revision")
	if access.Job.StatusID != models.JobNeedsRevision {
		return nil, invalidState
	}

	if err = e.validateFields(jobID, fields); err != nil {
		return nil, err
	}

	updated, err := e.jobs.UpdateFieldsInStatus(ctx, jobID, models.JobNeedsRevision, fields.Columns())
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to edit job %d: %v", jobID, err)
		return nil, errors.Wrapf(err, "failed to edit job %d", jobID)
	}
	if !updated {
		return nil, invalidState
	}

	job, err := e.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to reload job %d", jobID)
	}
	if job == nil {
		return nil, newLifecycleError(ErrNotFound, resourceJob, jobID)
	}
	return job, nil
}

func (e *JobLifecycle) History(ctx context.Context, actor models.Actor, jobID int64) ([]models.JobHistoryEntry, error) {
	access, err := e.guard.ResolveJobForActor(ctx, actor, jobID)
	if err != nil {
		return nil, err
	}
	if access.Access == AccessNone {
		return nil, newLifecycleError(ErrForbidden, resourceJob, jobID).
			because("only the admin and the owning hospital read the history")
	}
	return e.history.List(ctx, jobID)
}

// Transition moves the posting to the target status. The status write is a
// compare-and-swap on the status the decision was made against; history and
// notifications run after it committed and never fail the call.
func (e *JobLifecycle) Transition(ctx context.Context, actor models.Actor, jobID int64, target models.JobStatus,
	opts TransitionOptions) (*JobTransitionResult, error) {

	ctx = ensureRequestID(ctx)
	entry := requestLogger(ctx).WithFields(log.Fields{
		"job_id":     jobID,
		"target":     target.String(),
		"actor_id":   actor.UserID(),
		"actor_role": actor.Role(),
	})

	result, err := e.transition(ctx, entry, actor, jobID, target, opts)
	if err != nil {
		metrics.RejectedTransitionsCounter.WithLabelValues(resourceJob, reasonOf(err)).Inc()
		var lifecycleErr *LifecycleError
		if errors.As(err, &lifecycleErr) {
			entry.Infof("job transition refused: %v", err)
		} else {
			entry.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("job transition failed: %v", err)
		}
		return nil, err
	}
	return result, nil
}

func (e *JobLifecycle) transition(ctx context.Context, entry *log.Entry, actor models.Actor, jobID int64,
	target models.JobStatus, opts TransitionOptions) (*JobTransitionResult, error) {

	if !target.IsValid() {
		return nil, newLifecycleError(ErrInvalidStatus, resourceJob, jobID).
			because("unknown job status %d", int(target))
	}

	access, err := e.guard.ResolveJobForActor(ctx, actor, jobID)
	if err != nil {
		return nil, err
	}

	job := access.Job
	for attempt := 1; attempt <= maxCompareAndSwapAttempts; attempt++ {

		from := job.StatusID
		if from == target {
			return e.sameStatus(ctx, entry, access.Access, job, opts)
		}

		change, err := e.plan(access.Access, job, target, opts.Note)
		if err != nil {
			return nil, err
		}

		swapped, err := e.jobs.CompareAndSwapStatus(ctx, job.ID, from, change.updates)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to update status of job %d", jobID)
		}

		if !swapped {
			entry.Warnf("job changed concurrently, revalidating (attempt %d)", attempt)
			if job, err = e.jobs.GetByID(ctx, jobID); err != nil {
				return nil, errors.Wrapf(err, "failed to reload job %d", jobID)
			}
			if job == nil {
				return nil, newLifecycleError(ErrNotFound, resourceJob, jobID)
			}
			continue
		}

		committed := e.reload(ctx, entry, job, change)
		metrics.TransitionsCounter.WithLabelValues(resourceJob, from.String(), target.String()).Inc()

		result := &JobTransitionResult{Job: committed}
		result.History = bestEffort(entry, "job history record", logger.ErrorTypeHistory, func() error {
			return e.history.Record(ctx, jobID, from, target, actor, change.historyNote)
		})
		result.Attempted, result.Notified = e.notify(ctx, entry, committed, from, target, change.historyNote)

		entry.Infof("job moved from %s to %s, notified %d of %d", from, target, result.Notified, result.Attempted)
		return result, nil
	}

	return nil, newLifecycleError(ErrConflict, resourceJob, jobID).
		because("job kept changing concurrently, gave up after %d attempts", maxCompareAndSwapAttempts)
}

func (e *JobLifecycle) sameStatus(ctx context.Context, entry *log.Entry, access Access, job *models.JobPosting,
	opts TransitionOptions) (*JobTransitionResult, error) {

	result := &JobTransitionResult{Job: job, NoOp: true}
	if !opts.Resend {
		entry.Debug("job already in requested status, nothing to do")
		return result, nil
	}

	if !mayEnter(access, job.StatusID) {
		return nil, newLifecycleError(ErrForbidden, resourceJob, job.ID).transition(job.StatusID, job.StatusID).
			because("%s may not resend notifications of this status", access)
	}

	note := opts.Note
	if job.RevisionNote != nil {
		note = *job.RevisionNote
	}
	result.Attempted, result.Notified = e.notify(ctx, entry, job, job.StatusID, job.StatusID, note)
	entry.Infof("resent notifications for status %s, notified %d of %d", job.StatusID, result.Notified, result.Attempted)
	return result, nil
}

// mayEnter reports whether the access may take any edge leading into status.
func mayEnter(access Access, status models.JobStatus) bool {
	for _, edges := range jobTransitions {
		if edges[status]&maskOf(access) != 0 {
			return true
		}
	}
	return false
}

// plan checks the edge and the actor and decides what the transition writes.
func (e *JobLifecycle) plan(access Access, job *models.JobPosting, target models.JobStatus,
	note string) (*jobChange, error) {

	from := job.StatusID
	allowed, ok := jobTransitions[from][target]
	if !ok {
		return nil, newLifecycleError(ErrInvalidTransition, resourceJob, job.ID).transition(from, target)
	}
	if allowed&maskOf(access) == 0 {
		return nil, newLifecycleError(ErrForbidden, resourceJob, job.ID).transition(from, target).
			because("%s may not take this transition", access)
	}

	note = strings.TrimSpace(note)
	if len(note) > maxNoteLength {
		return nil, newLifecycleError(ErrValidation, resourceJob, job.ID).transition(from, target).
			because("note is longer than %d characters", maxNoteLength)
	}

	now := e.now()
	change := &jobChange{
		updates:     map[string]any{"status_id": target},
		historyNote: note,
	}
	var apply []func(job *models.JobPosting)

	switch target {
	case models.JobApproved:
		if from == models.JobPendingApproval {
			change.updates["approved_at"] = now
			apply = append(apply, func(job *models.JobPosting) { job.ApprovedAt = &now })
		}
		change.updates["published_at"] = now
		apply = append(apply, func(job *models.JobPosting) { job.PublishedAt = &now })
	case models.JobNeedsRevision:
		if note == "" {
			return nil, newLifecycleError(ErrValidation, resourceJob, job.ID).transition(from, target).
				because("a revision note is required")
		}
		change.updates["revision_note"] = note
		change.updates["revision_count"] = gorm.Expr("revision_count + 1")
		apply = append(apply, func(job *models.JobPosting) {
			job.RevisionNote = &note
			job.RevisionCount++
		})
	case models.JobPendingApproval:
		change.updates["revision_note"] = nil
		change.historyNote = resubmittedNote
		apply = append(apply, func(job *models.JobPosting) { job.RevisionNote = nil })
	}

	change.apply = func(job *models.JobPosting) {
		job.StatusID = target
		job.UpdatedAt = now
		for _, fn := range apply {
			fn(job)
		}
	}
	return change, nil
}

// reload returns the committed row, or the pre-transition copy with the change
// applied when the row cannot be read back.
func (e *JobLifecycle) reload(ctx context.Context, entry *log.Entry, job *models.JobPosting,
	change *jobChange) *models.JobPosting {

	committed, err := e.jobs.GetByID(ctx, job.ID)
	if err == nil && committed != nil {
		return committed
	}
	if err != nil {
		entry.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to reload committed job: %v", err)
	}

	local := *job
	change.apply(&local)
	return &local
}

// notify dispatches what the (from, to) transition owes to third parties and
// returns the number of attempted and delivered notifications.
func (e *JobLifecycle) notify(ctx context.Context, entry *log.Entry, job *models.JobPosting,
	from, to models.JobStatus, note string) (attempted int, delivered int) {

	switch to {
	case models.JobApproved:
		if from == models.JobInactive {
			return e.notifyApplicants(ctx, entry, job, TemplateJobReactivated)
		}
		return e.notifyHospital(ctx, entry, job, models.NotificationSuccess, TemplateJobApproved, note)
	case models.JobNeedsRevision:
		return e.notifyHospital(ctx, entry, job, models.NotificationWarning, TemplateJobNeedsRevision, note)
	case models.JobRejected:
		return e.notifyHospital(ctx, entry, job, models.NotificationError, TemplateJobRejected, note)
	case models.JobInactive:
		return e.notifyApplicants(ctx, entry, job, TemplateJobDeactivated)
	default:
		return 0, 0
	}
}

func (e *JobLifecycle) notifyHospital(ctx context.Context, entry *log.Entry, job *models.JobPosting,
	kind models.NotificationKind, template string, note string) (int, int) {

	userID, err := e.recipients.HospitalUserID(ctx, job.HospitalProfileID)
	if err != nil {
		entry.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
			Errorf("failed to resolve user of hospital %d: %v", job.HospitalProfileID, err)
		return 1, 0
	}

	result := dispatchBestEffort(ctx, entry, e.notifier, models.NotificationEvent{
		UserID:   userID,
		Kind:     kind,
		Template: template,
		Data:     jobNotificationData(job, note),
	})
	return 1, lo.Ternary(result.Delivered, 1, 0)
}

// notifyApplicants sends one notification per doctor with a non-withdrawn
// application. Recipients are independent: one failing does not stop the rest.
func (e *JobLifecycle) notifyApplicants(ctx context.Context, entry *log.Entry, job *models.JobPosting,
	template string) (int, int) {

	start := time.Now()
	defer func() { metrics.FanOutDuration.Observe(time.Since(start).Seconds()) }()

	applications, err := e.applicants.ListNotifiableByJob(ctx, job.ID)
	if err != nil {
		entry.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to list applicants: %v", err)
		return 0, 0
	}

	doctors := lo.Uniq(lo.Map(applications, func(application models.Application, _ int) int64 {
		return application.DoctorProfileID
	}))

	var delivered atomic.Int32
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, e.fanOutConcurrency)

	for _, doctorProfileID := range doctors {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(doctorProfileID int64) {
			defer wg.Done()
			defer func() { <-semaphore }()

			recipientEntry := entry.WithField("doctor_profile_id", doctorProfileID)
			var result DeliveryResult
			outcome := bestEffort(recipientEntry, "applicant notification", logger.ErrorTypeNotification, func() error {
				userID, err := e.recipients.DoctorUserID(ctx, doctorProfileID)
				if err != nil {
					return errors.Wrapf(err, "failed to resolve user of doctor %d", doctorProfileID)
				}
				result = e.notifier.Dispatch(ctx, models.NotificationEvent{
					UserID:   userID,
					Kind:     models.NotificationInfo,
					Template: template,
					Data:     jobNotificationData(job, ""),
				})
				return nil
			})

			if outcome.Ok() && result.Delivered {
				delivered.Add(1)
			}
		}(doctorProfileID)
	}

	wg.Wait()
	return len(doctors), int(delivered.Load())
}

func (e *JobLifecycle) validateFields(jobID int64, fields models.JobFields) error {
	if err := e.validate.Struct(fields); err != nil {
		return newLifecycleError(ErrValidation, resourceJob, jobID).because("%v", err)
	}
	if fields.SalaryMin != nil && fields.SalaryMax != nil && *fields.SalaryMin > *fields.SalaryMax {
		return newLifecycleError(ErrValidation, resourceJob, jobID).because("salary range is inverted")
	}
	return nil
}

func jobNotificationData(job *models.JobPosting, note string) map[string]string {
	data := map[string]string{
		"job_id":     strconv.FormatInt(job.ID, 10),
		"job_title":  job.Title,
		"job_status": job.StatusID.String(),
	}
	if note != "" {
		data["note"] = note
	}
	return data
}
