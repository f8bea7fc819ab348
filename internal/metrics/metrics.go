// Package metrics defines the Prometheus metrics exported by the bot.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Portal metrics
	PortalQueriesTotal    *prometheus.CounterVec
	PortalDurationSeconds *prometheus.HistogramVec
	PortalAttemptsTotal   *prometheus.CounterVec
	PortalExtractorHits   *prometheus.CounterVec

	// Bot metrics
	BotUpdatesTotal     *prometheus.CounterVec
	BotHandlerDuration  *prometheus.HistogramVec
	BotRateLimitedTotal prometheus.Counter
	QueryCoalescedTotal prometheus.Counter

	// Storefront metrics
	OrdersTotal         *prometheus.CounterVec
	FileDeliveriesTotal *prometheus.CounterVec
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	return &Metrics{
		PortalQueriesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "ignou_portal_queries_total",
				Help: "Total number of portal queries by kind and outcome",
			},
			[]string{"kind", "outcome"}, // outcome: ok, invalid_enrollment, invalid_program, no_records, server_error, unreachable
		),

		PortalDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ignou_portal_duration_seconds",
				Help:    "Portal query duration in seconds by kind",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 100}, // Matches per-attempt 30s ceiling x3 variants
			},
			[]string{"kind"},
		),

		PortalAttemptsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "ignou_portal_attempts_total",
				Help: "Transport attempts by variant index and result",
			},
			[]string{"variant", "result"}, // result: success, http_error, network_error
		),

		PortalExtractorHits: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "ignou_portal_extractor_hits_total",
				Help: "Which extraction strategy produced the records",
			},
			[]string{"strategy"}, // strategy: table, pattern, none
		),

		BotUpdatesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "ignou_bot_updates_total",
				Help: "Telegram updates processed by type and status",
			},
			[]string{"type", "status"}, // type: message, callback, document, photo
		),

		BotHandlerDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ignou_bot_handler_duration_seconds",
				Help:    "Update handling duration in seconds by type",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30, 60},
			},
			[]string{"type"},
		),

		BotRateLimitedTotal: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "ignou_bot_rate_limited_total",
				Help: "Updates dropped by the per-user rate limiter",
			},
		),

		QueryCoalescedTotal: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "ignou_portal_queries_coalesced_total",
				Help: "Duplicate in-flight portal queries coalesced per chat",
			},
		),

		OrdersTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "ignou_orders_total",
				Help: "Storefront orders by status transition",
			},
			[]string{"status"}, // status: created, approved, rejected, cancelled
		),

		FileDeliveriesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "ignou_file_deliveries_total",
				Help: "Product file deliveries by result",
			},
			[]string{"result"}, // result: success, error
		),
	}
}
