// Package main provides the IGNOU study bot server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/gyanbazaar/ignou-study-bot/internal/bot"
	"github.com/gyanbazaar/ignou-study-bot/internal/config"
	"github.com/gyanbazaar/ignou-study-bot/internal/files"
	"github.com/gyanbazaar/ignou-study-bot/internal/logger"
	"github.com/gyanbazaar/ignou-study-bot/internal/metrics"
	"github.com/gyanbazaar/ignou-study-bot/internal/portal"
	"github.com/gyanbazaar/ignou-study-bot/internal/ratelimit"
	"github.com/gyanbazaar/ignou-study-bot/internal/search"
	"github.com/gyanbazaar/ignou-study-bot/internal/sentry"
	"github.com/gyanbazaar/ignou-study-bot/internal/session"
	"github.com/gyanbazaar/ignou-study-bot/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewWithOptions(cfg.LogLevel, logger.Options{
		BetterstackToken: cfg.BetterstackToken,
	})
	log.Info("Starting IGNOU study bot server")

	if err := sentry.Initialize(sentry.Config{
		Token:       cfg.SentryToken,
		Host:        cfg.SentryHost,
		Environment: cfg.Environment,
	}); err != nil {
		log.WithError(err).Warn("Failed to initialize error tracking")
	}
	defer sentry.Flush(2 * time.Second)

	db, err := storage.New(cfg.SQLitePath())
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer func() { _ = db.Close() }()
	log.WithField("path", cfg.SQLitePath()).Info("Database connected")

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registry.MustRegister(collectors.NewBuildInfoCollector())
	m := metrics.New(registry)
	log.Info("Metrics initialized")

	// Product file store (optional - orders fall back to cached Telegram
	// file IDs when unset)
	var store bot.FileStore
	if cfg.HasFileStore() {
		s, err := files.New(context.Background(), files.Config{
			Endpoint:    cfg.S3Endpoint,
			AccessKeyID: cfg.S3AccessKeyID,
			SecretKey:   cfg.S3SecretKey,
			BucketName:  cfg.S3Bucket,
		})
		if err != nil {
			log.WithError(err).Fatal("Failed to create file store")
		}
		store = s
		log.Info("File store connected")
	} else {
		log.Info("File store not configured, deliveries use cached Telegram files only")
	}

	// Catalog search index
	index := search.NewIndex(log)
	products, err := db.ListActiveProducts(context.Background())
	if err != nil {
		log.WithError(err).Warn("Failed to load products for search index")
	} else if err := index.Rebuild(products); err != nil {
		log.WithError(err).Warn("Failed to build search index")
	}

	// Portal query engine, with optional phrase-rule overrides from disk
	rules := portal.DefaultPhraseRules()
	if cfg.PortalPhrasesFile != "" {
		loaded, err := portal.LoadPhraseRules(cfg.PortalPhrasesFile)
		if err != nil {
			log.WithError(err).Warn("Failed to load phrase rules, using defaults")
		} else {
			rules = loaded
			log.WithField("path", cfg.PortalPhrasesFile).Info("Phrase rules loaded")
		}
	}
	engine := portal.NewEngine(portal.Options{
		AssignmentURLs:  cfg.AssignmentStatusURLs,
		GradeCardURLs:   cfg.GradeCardURLs,
		Timeout:         cfg.PortalTimeout,
		Rules:           rules,
		MaxMessageRunes: cfg.MaxMessageRunes,
		Logger:          log,
		Metrics:         m,
	})
	log.Info("Portal query engine created")

	sessions := session.NewManager(config.SessionIdleTimeout)

	limiter := ratelimit.NewPerKeyLimiter(ratelimit.PerKeyLimiterConfig{
		MaxTokens:     cfg.UserRateLimitBurst,
		RefillRate:    cfg.UserRateLimitRefillPerSec,
		CleanupPeriod: config.RateLimiterCleanupInterval,
	})
	defer limiter.Stop()

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		log.WithError(err).Fatal("Failed to create Telegram client")
	}

	tgBot := bot.New(bot.Options{
		API:      api,
		Config:   cfg,
		Logger:   log,
		Metrics:  m,
		DB:       db,
		Engine:   engine,
		Sessions: sessions,
		Limiter:  limiter,
		Index:    index,
		Store:    store,
	})
	log.Info("Bot created")

	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(sentry.GinMiddleware())
	router.Use(securityHeadersMiddleware())
	router.Use(loggingMiddleware(log))

	setupRoutes(router, cfg, db, registry, sessions)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  config.ServerHTTPRead,
		WriteTimeout: config.ServerHTTPWrite,
		IdleTimeout:  config.ServerHTTPIdle,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup

	// Telegram long-poll loop
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer sentry.RecoverAndReport()
		if err := tgBot.Run(ctx); err != nil && ctx.Err() == nil {
			log.WithError(err).Error("Bot loop stopped")
		}
	}()

	// Idle conversation session sweeper
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer sentry.RecoverAndReport()
		sweepSessions(ctx, sessions, log)
	}()

	// Stale pending-order reminders for admins
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer sentry.RecoverAndReport()
		remindPendingOrders(ctx, tgBot, log)
	}()

	// Periodic search index rebuild picks up catalog edits
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer sentry.RecoverAndReport()
		refreshSearchIndex(ctx, db, index, log)
	}()

	go func() {
		log.WithField("port", cfg.Port).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info("All background goroutines stopped")
	case <-time.After(5 * time.Second):
		log.Warn("Timeout waiting for goroutines to stop")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	log.Info("Server stopped")
}
