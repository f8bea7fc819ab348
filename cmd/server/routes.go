// Package main provides the IGNOU study bot server entry point.
package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gyanbazaar/ignou-study-bot/internal/config"
	"github.com/gyanbazaar/ignou-study-bot/internal/session"
	"github.com/gyanbazaar/ignou-study-bot/internal/storage"
)

// setupRoutes configures all HTTP routes. The bot itself runs over Telegram
// long polling; HTTP serves only health probes and metrics.
func setupRoutes(router *gin.Engine, cfg *config.Config, db *storage.DB, registry *prometheus.Registry, sessions *session.Manager) {
	// Liveness probe - only that the process is running, no dependency checks
	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/healthz", healthHandler)
	router.HEAD("/healthz", healthHandler)

	// Readiness probe - full dependency check
	readyHandler := func(c *gin.Context) {
		if err := db.Conn().PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"reason": err.Error(),
			})
			return
		}

		users, _ := db.CountUsers(c.Request.Context())
		orders, _ := db.CountOrdersByStatus(c.Request.Context())

		c.JSON(http.StatusOK, gin.H{
			"status":   "ready",
			"database": "connected",
			"users":    users,
			"orders":   orders,
			"sessions": sessions.Count(),
		})
	}
	router.GET("/ready", readyHandler)
	router.HEAD("/ready", readyHandler)

	// Prometheus metrics endpoint, behind Basic Auth when a password is set
	metricsHandler := gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	if cfg.MetricsPassword != "" {
		authorized := router.Group("/", gin.BasicAuth(gin.Accounts{
			cfg.MetricsUsername: cfg.MetricsPassword,
		}))
		authorized.GET("/metrics", metricsHandler)
	} else {
		router.GET("/metrics", metricsHandler)
	}
}
