package services

import (
	"fmt"
	"github.com/maxaizer/medhire/internal/logger"
	log "github.com/sirupsen/logrus"
)

// Outcome records the result of a side effect whose failure must not fail
// the operation that triggered it.
type Outcome struct {
	Name string
	Err  error
}

func (o Outcome) Ok() bool {
	return o.Err == nil
}

// bestEffort runs fn, converting both errors and panics into a logged Outcome.
func bestEffort(entry *log.Entry, name, errorType string, fn func() error) (outcome Outcome) {
	outcome.Name = name

	defer func() {
		if r := recover(); r != nil {
			outcome.Err = fmt.Errorf("panic in %s: %v", name, r)
		}
		if outcome.Err != nil {
			entry.WithField(logger.ErrorTypeField, errorType).Errorf("%s failed: %v", name, outcome.Err)
		}
	}()

	outcome.Err = fn()
	return outcome
}
