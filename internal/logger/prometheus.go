package logger

import (
	"github.com/maxaizer/medhire/internal/metrics"
	log "github.com/sirupsen/logrus"
)

const (
	errorTypeUnknown = "unknown"
	errorTypeOther   = "other"
)

var knownErrorTypes = map[string]struct{}{
	ErrorTypeDb:           {},
	ErrorTypeHistory:      {},
	ErrorTypeNotification: {},
	ErrorTypeRealtime:     {},
	ErrorTypeTgApi:        {},
}

// errorCountingHook counts error entries per error type. Types outside the
// known set collapse into one label to keep the series bounded.
type errorCountingHook struct{}

func (h *errorCountingHook) Fire(entry *log.Entry) error {
	metrics.ErrorsCounter.WithLabelValues(errorTypeOf(entry)).Inc()
	return nil
}

func (h *errorCountingHook) Levels() []log.Level {
	return []log.Level{log.ErrorLevel, log.FatalLevel, log.PanicLevel}
}

func errorTypeOf(entry *log.Entry) string {
	raw, present := entry.Data[ErrorTypeField]
	if !present {
		return errorTypeUnknown
	}
	errorType, ok := raw.(string)
	if !ok {
		return errorTypeOther
	}
	if _, known := knownErrorTypes[errorType]; !known {
		return errorTypeOther
	}
	return errorType
}

func addErrorCountingHook() {
	log.AddHook(&errorCountingHook{})
	log.Debug("error counting hook installed")
}
