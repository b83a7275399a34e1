package logger

import (
	"github.com/maxaizer/medhire/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"testing"
)

func countOf(errorType string) float64 {
	return testutil.ToFloat64(metrics.ErrorsCounter.WithLabelValues(errorType))
}

func Test_ErrorCountingHook_ShouldCountErrorsByType(t *testing.T) {
	hook := &errorCountingHook{}
	dbBefore, unknownBefore, otherBefore := countOf(ErrorTypeDb), countOf(errorTypeUnknown), countOf(errorTypeOther)

	assert.NoError(t, hook.Fire(&log.Entry{Data: log.Fields{ErrorTypeField: ErrorTypeDb}}))
	assert.NoError(t, hook.Fire(&log.Entry{Data: log.Fields{}}))
	assert.NoError(t, hook.Fire(&log.Entry{Data: log.Fields{ErrorTypeField: "disk_full"}}))
	assert.NoError(t, hook.Fire(&log.Entry{Data: log.Fields{ErrorTypeField: 42}}))

	assert.Equal(t, dbBefore+1, countOf(ErrorTypeDb))
	assert.Equal(t, unknownBefore+1, countOf(errorTypeUnknown))
	assert.Equal(t, otherBefore+2, countOf(errorTypeOther))
	assert.Zero(t, countOf("disk_full"))
}

func Test_ErrorCountingHook_ShouldFireOnlyForErrors(t *testing.T) {
	assert.ElementsMatch(t, []log.Level{log.ErrorLevel, log.FatalLevel, log.PanicLevel}, (&errorCountingHook{}).Levels())
}
