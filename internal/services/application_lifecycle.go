package services

import (
	"context"
	"github.com/go-playground/validator/v10"
	"github.com/maxaizer/medhire/internal/domain/models"
	"github.com/maxaizer/medhire/internal/logger"
	"github.com/maxaizer/medhire/internal/metrics"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"strconv"
	"strings"
	"time"
)

const maxCoverNoteLength = 5000

type applicationRepository interface {
	Create(ctx context.Context, application *models.Application) error
	GetByID(ctx context.Context, id int64) (*models.Application, error)
	ExistsForDoctor(ctx context.Context, jobID, doctorProfileID int64) (bool, error)
	CompareAndSwapStatus(ctx context.Context, id int64, expected models.ApplicationStatus,
		updates map[string]any) (bool, error)
}

type ApplicationDependencies struct {
	Applications applicationRepository
	Jobs         jobReader
	Recipients   recipientResolver
	Notifier     dispatcher
	Guard        *Guard
}

type ApplicationLifecycle struct {
	applications applicationRepository
	jobs         jobReader
	recipients   recipientResolver
	notifier     dispatcher
	guard        *Guard
	validate     *validator.Validate
	now          func() time.Time
}

func NewApplicationLifecycle(deps ApplicationDependencies) (*ApplicationLifecycle, error) {

	if deps.Applications == nil || deps.Jobs == nil || deps.Recipients == nil {
		return nil, errors.New("application lifecycle repositories are not set")
	}
	if deps.Notifier == nil {
		return nil, errors.New("notifier is nil")
	}
	if deps.Guard == nil {
		return nil, errors.New("guard is nil")
	}

	return &ApplicationLifecycle{
		applications: deps.Applications,
		jobs:         deps.Jobs,
		recipients:   deps.Recipients,
		notifier:     deps.Notifier,
		guard:        deps.Guard,
		validate:     validator.New(),
		now:          func() time.Time { return time.Now().UTC() },
	}, nil
}

type ApplicationResult struct {
	Application  *models.Application
	Notification DeliveryResult
}

// Apply creates a pending application of the doctor to an approved posting.
func (e *ApplicationLifecycle) Apply(ctx context.Context, actor models.Actor, jobID int64,
	coverNote string) (*ApplicationResult, error) {

	ctx = ensureRequestID(ctx)
	entry := requestLogger(ctx).WithFields(log.Fields{"job_id": jobID, "actor_id": actor.UserID()})

	doctor, ok := actor.(models.DoctorOwner)
	if !ok {
		return nil, newLifecycleError(ErrForbidden, resourceApplication, 0).because("only doctors apply to job postings")
	}

	job, err := e.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load job %d", jobID)
	}
	if job == nil {
		return nil, newLifecycleError(ErrNotFound, resourceJob, jobID)
	}

	switch job.StatusID {
	case models.JobApproved:
	case models.JobInactive:
		return nil, newLifecycleError(ErrInvalidState, resourceJob, jobID).because("job posting is not accepting applications")
	default:
		return nil, newLifecycleError(ErrNotFound, resourceJob, jobID)
	}

	coverNote = strings.TrimSpace(coverNote)
	if err = e.validate.Var(coverNote, "max="+strconv.Itoa(maxCoverNoteLength)); err != nil {
		return nil, newLifecycleError(ErrValidation, resourceApplication, 0).because("cover note: %v", err)
	}

	exists, err := e.applications.ExistsForDoctor(ctx, jobID, doctor.DoctorProfileID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to check for an existing application")
	}
	if exists {
		return nil, newLifecycleError(ErrConflict, resourceJob, jobID).because("doctor already applied to this job posting")
	}

	application := models.NewApplication(jobID, doctor.DoctorProfileID, coverNote, e.now())
	if err = e.applications.Create(ctx, application); err != nil {
		entry.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to create application: %v", err)
		return nil, errors.Wrap(err, "failed to create application")
	}

	entry.Infof("doctor %d applied, application %d", doctor.DoctorProfileID, application.ID)

	result := &ApplicationResult{Application: application}
	result.Notification = e.notifyHospital(ctx, entry, job, application, TemplateApplicationNew)
	return result, nil
}

// Transition is the review decision of the hospital owning the posting or of
// an admin. Any non-withdrawn status may be set, including the current one to
// update the notes. Withdrawn is terminal.
func (e *ApplicationLifecycle) Transition(ctx context.Context, actor models.Actor, applicationID int64,
	target models.ApplicationStatus, notes *string) (*ApplicationResult, error) {

	ctx = ensureRequestID(ctx)
	entry := requestLogger(ctx).WithFields(log.Fields{
		"application_id": applicationID,
		"target":         target.String(),
		"actor_id":       actor.UserID(),
		"actor_role":     actor.Role(),
	})

	result, err := e.transition(ctx, entry, actor, applicationID, target, notes)
	if err != nil {
		e.refused(entry, err)
		return nil, err
	}
	return result, nil
}

func (e *ApplicationLifecycle) transition(ctx context.Context, entry *log.Entry, actor models.Actor,
	applicationID int64, target models.ApplicationStatus, notes *string) (*ApplicationResult, error) {

	access, err := e.guard.ResolveApplicationForActor(ctx, actor, applicationID)
	if err != nil {
		return nil, err
	}

	var trimmed *string
	if notes != nil {
		trimmed = optionalText(*notes)
	}

	application := access.Application
	for attempt := 1; attempt <= maxCompareAndSwapAttempts; attempt++ {

		from := application.StatusID
		if from.IsTerminal() {
			return nil, newLifecycleError(ErrTerminalState, resourceApplication, applicationID).transition(from, target)
		}
		if !target.IsValid() {
			return nil, newLifecycleError(ErrInvalidStatus, resourceApplication, applicationID).
				because("unknown application status %d", int(target))
		}
		if access.Access == AccessDoctorOwner {
			return nil, newLifecycleError(ErrForbidden, resourceApplication, applicationID).transition(from, target).
				because("doctors cannot review applications")
		}
		if target == models.ApplicationWithdrawn {
			return nil, newLifecycleError(ErrForbidden, resourceApplication, applicationID).transition(from, target).
				because("only the applying doctor can withdraw an application")
		}
		if trimmed != nil && len(*trimmed) > maxNoteLength {
			return nil, newLifecycleError(ErrValidation, resourceApplication, applicationID).
				because("notes are longer than %d characters", maxNoteLength)
		}

		updates := map[string]any{"status_id": target}
		if notes != nil {
			updates["notes"] = trimmed
		}

		committed, err := e.swap(ctx, entry, application, updates, attempt)
		if err != nil {
			return nil, err
		}
		if committed == nil {
			if application, err = e.reload(ctx, applicationID); err != nil {
				return nil, err
			}
			continue
		}

		metrics.TransitionsCounter.WithLabelValues(resourceApplication, from.String(), target.String()).Inc()

		note := ""
		if trimmed != nil {
			note = *trimmed
		}
		result := &ApplicationResult{Application: committed}
		result.Notification = e.notifyDoctor(ctx, entry, access.Job, committed, from, target, note)

		entry.Infof("application moved from %s to %s", from, target)
		return result, nil
	}

	return nil, newLifecycleError(ErrConflict, resourceApplication, applicationID).
		because("application kept changing concurrently, gave up after %d attempts", maxCompareAndSwapAttempts)
}

// Withdraw lets the applying doctor retract an application that has not been
// decided yet.
func (e *ApplicationLifecycle) Withdraw(ctx context.Context, actor models.Actor,
	applicationID int64) (*ApplicationResult, error) {

	ctx = ensureRequestID(ctx)
	entry := requestLogger(ctx).WithFields(log.Fields{"application_id": applicationID, "actor_id": actor.UserID()})

	result, err := e.withdraw(ctx, entry, actor, applicationID)
	if err != nil {
		e.refused(entry, err)
		return nil, err
	}
	return result, nil
}

func (e *ApplicationLifecycle) withdraw(ctx context.Context, entry *log.Entry, actor models.Actor,
	applicationID int64) (*ApplicationResult, error) {

	access, err := e.guard.ResolveApplicationForActor(ctx, actor, applicationID)
	if err != nil {
		return nil, err
	}
	if access.Access != AccessDoctorOwner {
		return nil, newLifecycleError(ErrForbidden, resourceApplication, applicationID).
			because("only the applying doctor can withdraw an application")
	}

	target := models.ApplicationWithdrawn
	application := access.Application
	for attempt := 1; attempt <= maxCompareAndSwapAttempts; attempt++ {

		from := application.StatusID
		if from.IsTerminal() {
			return nil, newLifecycleError(ErrTerminalState, resourceApplication, applicationID).transition(from, target)
		}
		if from != models.ApplicationPending && from != models.ApplicationUnderReview {
			return nil, newLifecycleError(ErrInvalidTransition, resourceApplication, applicationID).
				transition(from, target).because("decided applications cannot be withdrawn")
		}

		committed, err := e.swap(ctx, entry, application, map[string]any{"status_id": target}, attempt)
		if err != nil {
			return nil, err
		}
		if committed == nil {
			if application, err = e.reload(ctx, applicationID); err != nil {
				return nil, err
			}
			continue
		}

		metrics.TransitionsCounter.WithLabelValues(resourceApplication, from.String(), target.String()).Inc()
		entry.Infof("application withdrawn from %s", from)

		result := &ApplicationResult{Application: committed}
		result.Notification = e.notifyHospital(ctx, entry, access.Job, committed, TemplateApplicationLeft)
		return result, nil
	}

	return nil, newLifecycleError(ErrConflict, resourceApplication, applicationID).
		because("application kept changing concurrently, gave up after %d attempts", maxCompareAndSwapAttempts)
}

// swap returns nil without error when the status changed under it.
func (e *ApplicationLifecycle) swap(ctx context.Context, entry *log.Entry, application *models.Application,
	updates map[string]any, attempt int) (*models.Application, error) {

	swapped, err := e.applications.CompareAndSwapStatus(ctx, application.ID, application.StatusID, updates)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to update status of application %d", application.ID)
	}
	if !swapped {
		entry.Warnf("application changed concurrently, revalidating (attempt %d)", attempt)
		return nil, nil
	}

	committed, err := e.applications.GetByID(ctx, application.ID)
	if err == nil && committed != nil {
		return committed, nil
	}
	if err != nil {
		entry.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to reload committed application: %v", err)
	}

	local := *application
	local.StatusID = updates["status_id"].(models.ApplicationStatus)
	if notes, ok := updates["notes"]; ok {
		local.Notes = notes.(*string)
	}
	local.UpdatedAt = e.now()
	return &local, nil
}

func (e *ApplicationLifecycle) reload(ctx context.Context, applicationID int64) (*models.Application, error) {
	application, err := e.applications.GetByID(ctx, applicationID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to reload application %d", applicationID)
	}
	if application == nil {
		return nil, newLifecycleError(ErrNotFound, resourceApplication, applicationID)
	}
	return application, nil
}

func (e *ApplicationLifecycle) refused(entry *log.Entry, err error) {
	metrics.RejectedTransitionsCounter.WithLabelValues(resourceApplication, reasonOf(err)).Inc()
	var lifecycleErr *LifecycleError
	if errors.As(err, &lifecycleErr) {
		entry.Infof("application operation refused: %v", err)
		return
	}
	entry.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("application operation failed: %v", err)
}

func (e *ApplicationLifecycle) notifyDoctor(ctx context.Context, entry *log.Entry, job *models.JobPosting,
	application *models.Application, from, to models.ApplicationStatus, note string) DeliveryResult {

	userID, err := e.recipients.DoctorUserID(ctx, application.DoctorProfileID)
	if err != nil {
		entry.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
			Errorf("failed to resolve user of doctor %d: %v", application.DoctorProfileID, err)
		return DeliveryResult{}
	}

	data := applicationNotificationData(job, application)
	data["old_status"] = from.String()
	data["new_status"] = to.String()
	if note != "" {
		data["note"] = note
	}

	return dispatchBestEffort(ctx, entry, e.notifier, models.NotificationEvent{
		UserID:   userID,
		Kind:     applicationNotificationKind(to),
		Template: applicationTemplateFor(to),
		Data:     data,
	})
}

func (e *ApplicationLifecycle) notifyHospital(ctx context.Context, entry *log.Entry, job *models.JobPosting,
	application *models.Application, template string) DeliveryResult {

	userID, err := e.recipients.HospitalUserID(ctx, job.HospitalProfileID)
	if err != nil {
		entry.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
			Errorf("failed to resolve user of hospital %d: %v", job.HospitalProfileID, err)
		return DeliveryResult{}
	}

	return dispatchBestEffort(ctx, entry, e.notifier, models.NotificationEvent{
		UserID:   userID,
		Kind:     models.NotificationInfo,
		Template: template,
		Data:     applicationNotificationData(job, application),
	})
}

func applicationNotificationKind(status models.ApplicationStatus) models.NotificationKind {
	switch status {
	case models.ApplicationAccepted:
		return models.NotificationSuccess
	case models.ApplicationRejected:
		return models.NotificationError
	default:
		return models.NotificationInfo
	}
}

func applicationNotificationData(job *models.JobPosting, application *models.Application) map[string]string {
	return map[string]string{
		"job_id":         strconv.FormatInt(job.ID, 10),
		"job_title":      job.Title,
		"application_id": strconv.FormatInt(application.ID, 10),
	}
}

func optionalText(text string) *string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return &text
}
