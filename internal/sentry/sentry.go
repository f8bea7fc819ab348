// Package sentry wires the Sentry SDK to Better Stack error collection.
// Better Stack ingests Sentry-protocol events; the DSN is assembled from
// the application token and ingesting host.
package sentry

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
)

// Config holds error tracking configuration.
type Config struct {
	Token       string // Better Stack Errors application token; empty disables reporting
	Host        string // Ingesting host, e.g. "errors.betterstack.com"
	Environment string
	Release     string
}

// Initialize sets up the SDK. With an empty token reporting stays disabled
// and every capture call becomes a no-op.
// The project ID segment (/1) is required by the DSN format but ignored by
// Better Stack.
func Initialize(cfg Config) error {
	if cfg.Token == "" {
		return nil
	}
	if cfg.Host == "" {
		return fmt.Errorf("sentry host is required when token is provided")
	}

	return sentry.Init(sentry.ClientOptions{
		Dsn:              fmt.Sprintf("https://%s@%s/1", cfg.Token, cfg.Host),
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		SampleRate:       1.0,
		AttachStacktrace: true,
	})
}

// GinMiddleware returns the recovery/reporting middleware for the HTTP
// server. Repanic keeps gin's own recovery in charge of the response.
func GinMiddleware() gin.HandlerFunc {
	return sentrygin.New(sentrygin.Options{Repanic: true})
}

// Flush waits for buffered events to be delivered.
// Returns true if everything was sent within the timeout.
func Flush(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}

// IsEnabled reports whether an active client exists.
func IsEnabled() bool {
	return sentry.CurrentHub().Client() != nil
}

// CaptureException reports an error.
func CaptureException(err error) {
	sentry.CaptureException(err)
}

// CaptureExceptionWithContext reports an error using the hub bound to the
// context when one exists.
func CaptureExceptionWithContext(ctx context.Context, err error) {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.CaptureException(err)
}

// RecoverAndReport captures a panic from a worker goroutine and re-raises
// nothing; callers use it with defer around update handling.
func RecoverAndReport() {
	if r := recover(); r != nil {
		sentry.CurrentHub().Recover(r)
		sentry.Flush(2 * time.Second)
	}
}
