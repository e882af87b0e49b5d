// Package report forwards internal failures to Sentry when a DSN is configured.
package report

import (
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
)

// Reporter captures errors to Sentry. A disabled or nil Reporter drops
// everything.
type Reporter struct {
	initialized bool
}

// New initialises Sentry for dsn. An empty dsn, or a failed init, yields a
// disabled reporter.
func New(dsn, environment string, logger *slog.Logger) *Reporter {
	if dsn == "" {
		logger.Info("sentry disabled", "reason", "SENTRY_DSN not set")
		return &Reporter{}
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		AttachStacktrace: true,
	})
	if err != nil {
		logger.Warn("sentry init failed", "error", err)
		return &Reporter{}
	}

	logger.Info("sentry initialized", "environment", environment)
	return &Reporter{initialized: true}
}

// Enabled reports whether events are sent anywhere.
func (r *Reporter) Enabled() bool {
	return r != nil && r.initialized
}

// CaptureException sends err tagged with the operation and request id.
func (r *Reporter) CaptureException(err error, operation, requestID string) {
	if !r.Enabled() || err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("operation", operation)
		if requestID != "" {
			scope.SetTag("request_id", requestID)
		}
		scope.SetLevel(sentry.LevelError)
		sentry.CaptureException(err)
	})
}

// Flush waits up to timeout for queued events to be delivered.
func (r *Reporter) Flush(timeout time.Duration) bool {
	if !r.Enabled() {
		return true
	}
	return sentry.Flush(timeout)
}

// Close flushes pending events.
func (r *Reporter) Close() {
	r.Flush(2 * time.Second)
}
