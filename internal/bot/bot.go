// Package bot implements the Telegram front end: update dispatch, the
// portal query conversation, the storefront, and admin order handling.
package bot

import (
	"context"
	"io"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/singleflight"

	"github.com/gyanbazaar/ignou-study-bot/internal/config"
	"github.com/gyanbazaar/ignou-study-bot/internal/logger"
	"github.com/gyanbazaar/ignou-study-bot/internal/metrics"
	"github.com/gyanbazaar/ignou-study-bot/internal/portal"
	"github.com/gyanbazaar/ignou-study-bot/internal/ratelimit"
	"github.com/gyanbazaar/ignou-study-bot/internal/search"
	"github.com/gyanbazaar/ignou-study-bot/internal/sentry"
	"github.com/gyanbazaar/ignou-study-bot/internal/session"
	"github.com/gyanbazaar/ignou-study-bot/internal/storage"
)

// sender is the part of the Telegram API the handlers use. Narrowed to an
// interface so handler tests can run without the network.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// QueryEngine runs one portal query end to end.
type QueryEngine interface {
	Query(ctx context.Context, req portal.QueryRequest) (*portal.Result, error)
}

// FileStore fetches product deliverables for order fulfilment.
type FileStore interface {
	Download(ctx context.Context, key string) (io.ReadCloser, error)
}

// Bot wires Telegram updates to the portal engine and the storefront.
type Bot struct {
	api      *tgbotapi.BotAPI
	send     sender
	cfg      *config.Config
	log      *logger.Logger
	metrics  *metrics.Metrics
	db       *storage.DB
	engine   QueryEngine
	sessions *session.Manager
	limiter  *ratelimit.PerKeyLimiter
	index    *search.Index
	store    FileStore // nil when no object store is configured

	// Coalesces identical in-flight portal queries per chat so a double
	// tap does not hit the portal twice.
	queries singleflight.Group
}

// Options holds the dependencies for New.
type Options struct {
	API      *tgbotapi.BotAPI
	Config   *config.Config
	Logger   *logger.Logger
	Metrics  *metrics.Metrics
	DB       *storage.DB
	Engine   QueryEngine
	Sessions *session.Manager
	Limiter  *ratelimit.PerKeyLimiter
	Index    *search.Index
	Store    FileStore
}

// New creates the bot front end.
func New(opts Options) *Bot {
	return &Bot{
		api:      opts.API,
		send:     opts.API,
		cfg:      opts.Config,
		log:      opts.Logger.WithModule("bot"),
		metrics:  opts.Metrics,
		db:       opts.DB,
		engine:   opts.Engine,
		sessions: opts.Sessions,
		limiter:  opts.Limiter,
		index:    opts.Index,
		store:    opts.Store,
	}
}

// Run long-polls Telegram until the context is cancelled. Each update is
// handled in its own goroutine; panics are reported and never take down
// the loop.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := b.api.GetUpdatesChan(u)
	b.log.Infof("bot started as @%s", b.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer sentry.RecoverAndReport()

	chatID := updateChatID(update)
	if chatID == 0 {
		return
	}

	if !b.limiter.Allow(strconv.FormatInt(chatID, 10)) {
		b.metrics.BotRateLimitedTotal.Inc()
		if update.Message != nil {
			b.reply(chatID, rateLimitedText)
		}
		return
	}

	start := time.Now()
	kind := updateKind(update)
	status := "ok"

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && len(update.Message.Photo) > 0:
		b.handlePhoto(ctx, update.Message)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	default:
		status = "ignored"
	}

	b.metrics.BotUpdatesTotal.WithLabelValues(kind, status).Inc()
	b.metrics.BotHandlerDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	b.rememberUser(ctx, msg)

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	sess := b.sessions.Get(chatID)
	switch sess.State {
	case session.StateAwaitingEnrollment:
		b.handleEnrollmentInput(ctx, chatID, sess, msg.Text)
	case session.StateAwaitingProgram:
		b.handleProgramInput(ctx, chatID, sess, msg.Text)
	case session.StateAwaitingScreenshot:
		b.reply(chatID, askScreenshotText)
	default:
		b.reply(chatID, unknownText)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start":
		b.sessions.Clear(chatID)
		b.replyWithKeyboard(chatID, welcomeText, mainMenuKeyboard())
	case "help":
		b.reply(chatID, helpText)
	case "status":
		b.startQuery(ctx, chatID, portal.KindAssignmentStatus)
	case "gradecard":
		b.startQuery(ctx, chatID, portal.KindGradeCard)
	case "marks":
		b.startQuery(ctx, chatID, portal.KindAssignmentMarks)
	case "shop":
		b.showCategories(ctx, chatID)
	case "search":
		b.handleSearch(ctx, chatID, msg.CommandArguments())
	case "myorders":
		b.showOrders(ctx, chatID)
	case "cancel":
		if b.sessions.Get(chatID).State == session.StateIdle {
			b.reply(chatID, nothingToCancel)
		} else {
			b.sessions.Clear(chatID)
			b.reply(chatID, cancelledText)
		}
	case "approve":
		b.handleDecision(ctx, chatID, msg.CommandArguments(), storage.OrderApproved)
	case "reject":
		b.handleDecision(ctx, chatID, msg.CommandArguments(), storage.OrderRejected)
	case "stats":
		b.handleStats(ctx, chatID)
	default:
		b.reply(chatID, unknownText)
	}
}

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	// Ack first so the button spinner stops even if handling is slow.
	if _, err := b.send.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		b.log.WithError(err).Warnf("failed to ack callback")
	}

	if cq.Message == nil {
		return
	}
	chatID := cq.Message.Chat.ID

	cb, ok := ParseCallback(cq.Data)
	if !ok {
		return
	}

	switch cb.Module {
	case "menu":
		b.sessions.Clear(chatID)
		b.replyWithKeyboard(chatID, welcomeText, mainMenuKeyboard())
	case "query":
		switch cb.Action {
		case "assignment":
			b.startQuery(ctx, chatID, portal.KindAssignmentStatus)
		case "gradecard":
			b.startQuery(ctx, chatID, portal.KindGradeCard)
		case "marks":
			b.startQuery(ctx, chatID, portal.KindAssignmentMarks)
		}
	case "shop":
		b.handleShopCallback(ctx, chatID, cb)
	case "orders":
		b.handleOrdersCallback(ctx, chatID, cb)
	}
}

// rememberUser upserts the chat so orders and stats have a user row to
// reference. Failures are logged, not surfaced; losing a username update
// must not break a query.
func (b *Bot) rememberUser(ctx context.Context, msg *tgbotapi.Message) {
	user := &storage.User{
		ChatID:    msg.Chat.ID,
		FirstName: msg.From.FirstName,
		Username:  msg.From.UserName,
	}
	if err := b.db.UpsertUser(ctx, user); err != nil {
		b.log.WithError(err).WithChatID(msg.Chat.ID).Warnf("failed to remember user")
	}
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.send.Send(msg); err != nil {
		b.log.WithError(err).WithChatID(chatID).Errorf("failed to send message")
	}
}

func (b *Bot) replyMarkdown(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.send.Send(msg); err != nil {
		b.log.WithError(err).WithChatID(chatID).Errorf("failed to send message")
	}
}

func (b *Bot) replyWithKeyboard(chatID int64, text string, kb tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = kb
	if _, err := b.send.Send(msg); err != nil {
		b.log.WithError(err).WithChatID(chatID).Errorf("failed to send message")
	}
}

func updateChatID(update tgbotapi.Update) int64 {
	switch {
	case update.Message != nil:
		return update.Message.Chat.ID
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil:
		return update.CallbackQuery.Message.Chat.ID
	default:
		return 0
	}
}

func updateKind(update tgbotapi.Update) string {
	switch {
	case update.CallbackQuery != nil:
		return "callback"
	case update.Message != nil && len(update.Message.Photo) > 0:
		return "photo"
	case update.Message != nil:
		return "message"
	default:
		return "other"
	}
}
