// Centralized timeout constants for the application.
//
// These values are tuned around:
//   - IGNOU portal response times (the portals are slow and flaky)
//   - Telegram long-polling behavior (updates arrive with their own timeout)
//   - SQLite performance characteristics (WAL mode, busy timeout)
package config

import "time"

// Portal timeouts
const (
	// PortalRequest is the ceiling for a single HTTP attempt against an
	// IGNOU portal endpoint. On expiry the engine advances to the next
	// transport variant; there is no retry within a variant.
	PortalRequest = 30 * time.Second

	// PortalQuery bounds a whole query (all transport variants plus
	// parsing). Three variants at 30s worst case, with headroom.
	PortalQuery = 100 * time.Second
)

// HTTP server timeouts
const (
	// ServerHTTPRead is the HTTP server read timeout.
	// Only health and metrics endpoints are served; payloads are tiny.
	ServerHTTPRead = 10 * time.Second

	// ServerHTTPWrite is the HTTP server write timeout.
	ServerHTTPWrite = 30 * time.Second

	// ServerHTTPIdle is the idle timeout for keep-alive connections.
	ServerHTTPIdle = 120 * time.Second
)

// Database timeouts
const (
	// DatabaseBusyTimeout is the SQLite busy_timeout pragma value.
	DatabaseBusyTimeout = 30 * time.Second

	// DatabaseConnMaxLifetime is the maximum lifetime of pooled connections.
	DatabaseConnMaxLifetime = time.Hour
)

// Background job intervals
const (
	// SessionSweepInterval is how often idle conversation sessions are dropped.
	SessionSweepInterval = 5 * time.Minute

	// SessionIdleTimeout is how long a conversation session survives
	// without activity before the sweep removes it.
	SessionIdleTimeout = 30 * time.Minute

	// RateLimiterCleanupInterval is how often inactive user buckets are cleaned.
	RateLimiterCleanupInterval = 5 * time.Minute

	// PendingOrderReminderInterval is how often admins are reminded of
	// orders stuck in pending state.
	PendingOrderReminderInterval = 6 * time.Hour
)

// Graceful shutdown
const (
	// GracefulShutdown is the timeout for graceful server shutdown.
	GracefulShutdown = 30 * time.Second
)
