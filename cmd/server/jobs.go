// Package main provides the IGNOU study bot server entry point.
package main

import (
	"context"
	"time"

	"github.com/gyanbazaar/ignou-study-bot/internal/bot"
	"github.com/gyanbazaar/ignou-study-bot/internal/config"
	"github.com/gyanbazaar/ignou-study-bot/internal/logger"
	"github.com/gyanbazaar/ignou-study-bot/internal/search"
	"github.com/gyanbazaar/ignou-study-bot/internal/session"
	"github.com/gyanbazaar/ignou-study-bot/internal/storage"
)

// sweepSessions periodically drops conversation sessions that idled past the
// timeout, so abandoned prompts do not pile up in memory.
func sweepSessions(ctx context.Context, sessions *session.Manager, log *logger.Logger) {
	ticker := time.NewTicker(config.SessionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := sessions.Sweep(); removed > 0 {
				log.WithField("removed", removed).Debug("Idle sessions swept")
			}
		}
	}
}

// remindPendingOrders periodically pings admins about orders still awaiting
// an approve/reject decision.
func remindPendingOrders(ctx context.Context, tgBot *bot.Bot, log *logger.Logger) {
	ticker := time.NewTicker(config.PendingOrderReminderInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			log.Debug("Checking for stale pending orders")
			tgBot.RemindPendingOrders(ctx, config.PendingOrderReminderInterval)
		}
	}
}

// refreshSearchIndex rebuilds the BM25 index hourly so catalog edits made
// directly in the database become searchable without a restart.
func refreshSearchIndex(ctx context.Context, db *storage.DB, index *search.Index, log *logger.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			products, err := db.ListActiveProducts(ctx)
			if err != nil {
				log.WithError(err).Error("Failed to load products for index refresh")
				continue
			}
			if err := index.Rebuild(products); err != nil {
				log.WithError(err).Error("Failed to rebuild search index")
			}
		}
	}
}
