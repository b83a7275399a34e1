package services

import (
	"github.com/maxaizer/medhire/internal/domain/models"
	"strings"
	"text/template"
)

const (
	TemplateJobApproved       = "job_approved"
	TemplateJobNeedsRevision  = "job_needs_revision"
	TemplateJobRejected       = "job_rejected"
	TemplateJobDeactivated    = "job_deactivated"
	TemplateJobReactivated    = "job_reactivated"
	TemplateApplicationNew    = "application_received"
	TemplateApplicationLeft   = "application_withdrawn_by_doctor"
	TemplateApplicationStatus = "application_status_changed"

	TemplateApplicationPending     = "application_pending"
	TemplateApplicationUnderReview = "application_under_review"
	TemplateApplicationAccepted    = "application_accepted"
	TemplateApplicationRejected    = "application_rejected"
	TemplateApplicationWithdrawn   = "application_withdrawn"

	templateGeneric = "generic"
)

type notificationTemplate struct {
	title *template.Template
	body  *template.Template
}

func newTemplate(name, title, body string) notificationTemplate {
	return notificationTemplate{
		title: template.Must(template.New(name + "_title").Option("missingkey=zero").Parse(title)),
		body:  template.Must(template.New(name + "_body").Option("missingkey=zero").Parse(body)),
	}
}

const noteSuffix = `{{if .note}} Note: {{.note}}{{end}}`

var notificationTemplates = map[string]notificationTemplate{
	TemplateJobApproved: newTemplate(TemplateJobApproved,
		"Job posting approved",
		`Your job posting "{{.job_title}}" has been approved and is now published.`),
	TemplateJobNeedsRevision: newTemplate(TemplateJobNeedsRevision,
		"Job posting needs revision",
		`Your job posting "{{.job_title}}" requires changes before it can be published.`+noteSuffix),
	TemplateJobRejected: newTemplate(TemplateJobRejected,
		"Job posting rejected",
		`Your job posting "{{.job_title}}" has been rejected.`+noteSuffix),
	TemplateJobDeactivated: newTemplate(TemplateJobDeactivated,
		"Job posting closed",
		`The job posting "{{.job_title}}" you applied to is no longer active.`),
	TemplateJobReactivated: newTemplate(TemplateJobReactivated,
		"Job posting reopened",
		`The job posting "{{.job_title}}" you applied to is active again.`),
	TemplateApplicationNew: newTemplate(TemplateApplicationNew,
		"New application",
		`A doctor applied to your job posting "{{.job_title}}".`),
	TemplateApplicationLeft: newTemplate(TemplateApplicationLeft,
		"Application withdrawn",
		`A doctor withdrew their application to "{{.job_title}}".`),
	TemplateApplicationPending: newTemplate(TemplateApplicationPending,
		"Application pending",
		`Your application to "{{.job_title}}" is pending review.`+noteSuffix),
	TemplateApplicationUnderReview: newTemplate(TemplateApplicationUnderReview,
		"Application under review",
		`Your application to "{{.job_title}}" is now under review.`+noteSuffix),
	TemplateApplicationAccepted: newTemplate(TemplateApplicationAccepted,
		"Application accepted",
		`Congratulations! Your application to "{{.job_title}}" has been accepted.`+noteSuffix),
	TemplateApplicationRejected: newTemplate(TemplateApplicationRejected,
		"Application not selected",
		`Your application to "{{.job_title}}" was not selected.`+noteSuffix),
	TemplateApplicationWithdrawn: newTemplate(TemplateApplicationWithdrawn,
		"Application withdrawn",
		`Your application to "{{.job_title}}" has been withdrawn.`+noteSuffix),
	TemplateApplicationStatus: newTemplate(TemplateApplicationStatus,
		"Application status updated",
		`The status of your application to "{{.job_title}}" changed from {{.old_status}} to {{.new_status}}.`+noteSuffix),
	templateGeneric: newTemplate(templateGeneric,
		"Notification",
		`You have a new update.`+noteSuffix),
}

var applicationTemplates = map[models.ApplicationStatus]string{
	models.ApplicationPending:     TemplateApplicationPending,
	models.ApplicationUnderReview: TemplateApplicationUnderReview,
	models.ApplicationAccepted:    TemplateApplicationAccepted,
	models.ApplicationRejected:    TemplateApplicationRejected,
	models.ApplicationWithdrawn:   TemplateApplicationWithdrawn,
}

// applicationTemplateFor falls back to the generic status template for codes
// without a dedicated one.
func applicationTemplateFor(status models.ApplicationStatus) string {
	if name, ok := applicationTemplates[status]; ok {
		return name
	}
	return TemplateApplicationStatus
}

func renderNotification(name string, data map[string]string) (title string, body string, err error) {
	tmpl, ok := notificationTemplates[name]
	if !ok {
		tmpl = notificationTemplates[templateGeneric]
	}

	if data == nil {
		data = map[string]string{}
	}

	var titleBuilder, bodyBuilder strings.Builder
	if err = tmpl.title.Execute(&titleBuilder, data); err != nil {
		return "", "", err
	}
	if err = tmpl.body.Execute(&bodyBuilder, data); err != nil {
		return "", "", err
	}
	return titleBuilder.String(), bodyBuilder.String(), nil
}
