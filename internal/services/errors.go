package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrInvalidState      = errors.New("invalid state")
	ErrTerminalState     = errors.New("terminal state")
	ErrValidation        = errors.New("validation failed")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrConflict          = errors.New("conflict")
)

const (
	resourceJob         = "job"
	resourceApplication = "application"
)

// LifecycleError is returned for every refused lifecycle operation. It
// unwraps to one of the sentinel errors above.
type LifecycleError struct {
	Kind     error
	Resource string
	ID       int64
	From     string
	To       string
	Reason   string
}

func (e *LifecycleError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %d: %v", e.Resource, e.ID, e.Kind)
	if e.From != "" || e.To != "" {
		fmt.Fprintf(&b, " (%s -> %s)", e.From, e.To)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	return b.String()
}

func (e *LifecycleError) Unwrap() error {
	return e.Kind
}

func newLifecycleError(kind error, resource string, id int64) *LifecycleError {
	return &LifecycleError{Kind: kind, Resource: resource, ID: id}
}

func (e *LifecycleError) transition(from, to fmt.Stringer) *LifecycleError {
	e.From, e.To = from.String(), to.String()
	return e
}

func (e *LifecycleError) because(format string, args ...any) *LifecycleError {
	e.Reason = fmt.Sprintf(format, args...)
	return e
}

// reasonOf is the metrics label of a refused operation.
func reasonOf(err error) string {
	var lifecycleErr *LifecycleError
	if !errors.As(err, &lifecycleErr) {
		return "internal"
	}
	return strings.ReplaceAll(lifecycleErr.Kind.Error(), " ", "_")
}
