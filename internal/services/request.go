package services

import (
	"context"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type requestIDKey struct{}

// WithRequestID attaches the id of the originating request so that side-effect
// failures logged by the engines can be traced back to it.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func requestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return id
	}
	return ""
}

// ensureRequestID returns a context that always carries a request id.
func ensureRequestID(ctx context.Context) context.Context {
	if requestID(ctx) != "" {
		return ctx
	}
	return WithRequestID(ctx, uuid.NewString())
}

func requestLogger(ctx context.Context) *log.Entry {
	return log.WithField("request_id", requestID(ctx))
}
