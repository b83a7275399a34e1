package services

import (
	"github.com/maxaizer/medhire/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func Test_ApplicationTemplateFor_WhenStatusUnknown_ShouldFallBackToGeneric(t *testing.T) {
	assert.Equal(t, TemplateApplicationAccepted, applicationTemplateFor(models.ApplicationAccepted))
	assert.Equal(t, TemplateApplicationWithdrawn, applicationTemplateFor(models.ApplicationWithdrawn))
	assert.Equal(t, TemplateApplicationStatus, applicationTemplateFor(models.ApplicationStatus(99)))
}

func Test_RenderNotification_ShouldFillDataAndOmitMissingNote(t *testing.T) {
	title, body, err := renderNotification(TemplateJobRejected, map[string]string{"job_title": "Anesthetist"})
	require.NoError(t, err)
	assert.Equal(t, "Job posting rejected", title)
	assert.Equal(t, `Your job posting "Anesthetist" has been rejected.`, body)

	_, body, err = renderNotification(TemplateApplicationStatus, map[string]string{
		"job_title":  "Anesthetist",
		"old_status": "pending",
		"new_status": "accepted",
		"note":       "welcome",
	})
	require.NoError(t, err)
	assert.Equal(t, `The status of your application to "Anesthetist" changed from pending to accepted. Note: welcome`, body)
}

func Test_RenderNotification_WhenTemplateUnknown_ShouldUseGeneric(t *testing.T) {
	title, body, err := renderNotification("missing", nil)
	require.NoError(t, err)
	assert.Equal(t, "Notification", title)
	assert.Equal(t, "You have a new update.", body)
}
