package bot

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gyanbazaar/ignou-study-bot/internal/config"
	apperrors "github.com/gyanbazaar/ignou-study-bot/internal/errors"
	"github.com/gyanbazaar/ignou-study-bot/internal/logger"
	"github.com/gyanbazaar/ignou-study-bot/internal/metrics"
	"github.com/gyanbazaar/ignou-study-bot/internal/portal"
	"github.com/gyanbazaar/ignou-study-bot/internal/ratelimit"
	"github.com/gyanbazaar/ignou-study-bot/internal/search"
	"github.com/gyanbazaar/ignou-study-bot/internal/session"
	"github.com/gyanbazaar/ignou-study-bot/internal/storage"
)

const (
	testChatID  = int64(42)
	testAdminID = int64(999)
)

// fakeSender records outgoing Telegram payloads instead of hitting the API.
type fakeSender struct {
	mu   sync.Mutex
	sent []tgbotapi.Chattable
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

// texts returns the Text of every plain message sent so far.
func (f *fakeSender) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []string
	for _, c := range f.sent {
		if msg, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, msg.Text)
		}
	}
	return out
}

// lastText returns the most recent plain message, or "".
func (f *fakeSender) lastText() string {
	texts := f.texts()
	if len(texts) == 0 {
		return ""
	}
	return texts[len(texts)-1]
}

func (f *fakeSender) containsText(sub string) bool {
	for _, text := range f.texts() {
		if strings.Contains(text, sub) {
			return true
		}
	}
	return false
}

func (f *fakeSender) documentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, c := range f.sent {
		if _, ok := c.(tgbotapi.DocumentConfig); ok {
			n++
		}
	}
	return n
}

// fakeEngine returns a canned portal result or error.
type fakeEngine struct {
	mu    sync.Mutex
	res   *portal.Result
	err   error
	calls int
	last  portal.QueryRequest
}

func (f *fakeEngine) Query(_ context.Context, req portal.QueryRequest) (*portal.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.last = req
	return f.res, f.err
}

// fakeStore serves blobs from a map.
type fakeStore struct {
	blobs map[string][]byte
}

func (f *fakeStore) Download(_ context.Context, key string) (io.ReadCloser, error) {
	blob, ok := f.blobs[key]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return io.NopCloser(strings.NewReader(string(blob))), nil
}

func newTestBot(t *testing.T, engine QueryEngine) (*Bot, *fakeSender) {
	t.Helper()

	db, err := storage.New(filepath.Join(t.TempDir(), "bot.db"))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	limiter := ratelimit.NewPerKeyLimiter(ratelimit.PerKeyLimiterConfig{
		MaxTokens:  100,
		RefillRate: 100,
	})
	t.Cleanup(limiter.Stop)

	log := logger.NewWithWriter("error", io.Discard)
	sender := &fakeSender{}

	b := &Bot{
		send: sender,
		cfg: &config.Config{
			AdminChatIDs:    []int64{testAdminID},
			ItemsPerPage:    5,
			MaxMessageRunes: 4000,
			PaymentUPIID:    "shop@upi",
		},
		log:      log.WithModule("bot"),
		metrics:  metrics.New(prometheus.NewRegistry()),
		db:       db,
		engine:   engine,
		sessions: session.NewManager(time.Hour),
		limiter:  limiter,
		index:    search.NewIndex(log),
	}
	return b, sender
}

func command(chatID int64, text string) *tgbotapi.Message {
	first := strings.Fields(text)[0]
	return &tgbotapi.Message{
		Chat:     &tgbotapi.Chat{ID: chatID},
		From:     &tgbotapi.User{ID: chatID, FirstName: "Student", UserName: "student"},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(first)}},
	}
}

func plainMessage(chatID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: chatID},
		From: &tgbotapi.User{ID: chatID, FirstName: "Student", UserName: "student"},
		Text: text,
	}
}

func callbackUpdate(chatID int64, data string) *tgbotapi.CallbackQuery {
	return &tgbotapi.CallbackQuery{
		ID:      "cb-1",
		From:    &tgbotapi.User{ID: chatID},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID}},
		Data:    data,
	}
}

func seedCatalog(t *testing.T, b *Bot) *storage.Product {
	t.Helper()
	ctx := context.Background()

	catID, err := b.db.CreateCategory(ctx, "Solved Assignments", 1)
	if err != nil {
		t.Fatalf("failed to create category: %v", err)
	}
	p := &storage.Product{
		CategoryID:  catID,
		Name:        "BCS-011 Solved Assignment",
		Description: "Fully solved, session Jan-2026",
		PriceINR:    49,
		Active:      true,
	}
	id, err := b.db.CreateProduct(ctx, p)
	if err != nil {
		t.Fatalf("failed to create product: %v", err)
	}
	p.ID = id
	return p
}

func TestStartCommand(t *testing.T) {
	t.Parallel()

	b, sender := newTestBot(t, &fakeEngine{})
	b.handleMessage(context.Background(), command(testChatID, "/start"))

	if !sender.containsText("Welcome") {
		t.Errorf("expected welcome text, got %v", sender.texts())
	}
}

func TestHelpCommand(t *testing.T) {
	t.Parallel()

	b, sender := newTestBot(t, &fakeEngine{})
	b.handleMessage(context.Background(), command(testChatID, "/help"))

	if !sender.containsText("/gradecard") {
		t.Errorf("expected command list, got %v", sender.texts())
	}
}

func TestQueryConversation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	engine := &fakeEngine{
		res: &portal.Result{
			Kind:   portal.KindAssignmentStatus,
			Report: "report text",
			Chunks: []string{"chunk one", "chunk two"},
		},
	}
	b, sender := newTestBot(t, engine)

	b.handleMessage(ctx, command(testChatID, "/status"))
	if got := b.sessions.Get(testChatID).State; got != session.StateAwaitingEnrollment {
		t.Fatalf("state after /status = %q, want awaiting enrollment", got)
	}

	// Garbage enrollment re-prompts without advancing.
	b.handleMessage(ctx, plainMessage(testChatID, "not-a-number"))
	if got := b.sessions.Get(testChatID).State; got != session.StateAwaitingEnrollment {
		t.Fatalf("state after bad enrollment = %q", got)
	}

	b.handleMessage(ctx, plainMessage(testChatID, "123456789"))
	if got := b.sessions.Get(testChatID).State; got != session.StateAwaitingProgram {
		t.Fatalf("state after enrollment = %q, want awaiting program", got)
	}

	b.handleMessage(ctx, plainMessage(testChatID, "bca"))

	if engine.calls != 1 {
		t.Fatalf("engine calls = %d, want 1", engine.calls)
	}
	if engine.last.Enrollment != "123456789" || engine.last.Program != "BCA" {
		t.Errorf("engine request = %+v", engine.last)
	}
	if !sender.containsText("chunk one") || !sender.containsText("chunk two") {
		t.Errorf("expected both chunks sent, got %v", sender.texts())
	}
	if got := b.sessions.Get(testChatID).State; got != session.StateIdle {
		t.Errorf("state after query = %q, want idle", got)
	}

	// Successful query saves defaults for next time.
	user, err := b.db.GetUser(ctx, testChatID)
	if err != nil {
		t.Fatalf("failed to load user: %v", err)
	}
	if user.Enrollment != "123456789" || user.Program != "BCA" {
		t.Errorf("saved defaults = %q/%q", user.Enrollment, user.Program)
	}
}

func TestQueryReusesSavedDefaults(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	engine := &fakeEngine{
		res: &portal.Result{Kind: portal.KindGradeCard, Chunks: []string{"grades"}},
	}
	b, _ := newTestBot(t, engine)

	if err := b.db.UpsertUser(ctx, &storage.User{ChatID: testChatID, FirstName: "Student"}); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	if err := b.db.SaveQueryDefaults(ctx, testChatID, "987654321", "MCA"); err != nil {
		t.Fatalf("failed to save defaults: %v", err)
	}

	b.handleMessage(ctx, command(testChatID, "/gradecard"))
	b.handleMessage(ctx, plainMessage(testChatID, "."))
	b.handleMessage(ctx, plainMessage(testChatID, "."))

	if engine.last.Enrollment != "987654321" || engine.last.Program != "MCA" {
		t.Errorf("engine request = %+v, want saved defaults", engine.last)
	}
}

func TestQueryFailureOffersRetry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	engine := &fakeEngine{err: apperrors.ErrNoRecords}
	b, sender := newTestBot(t, engine)

	b.handleMessage(ctx, command(testChatID, "/marks"))
	b.handleMessage(ctx, plainMessage(testChatID, "123456789"))
	b.handleMessage(ctx, plainMessage(testChatID, "BCA"))

	if !sender.containsText("No records found") {
		t.Errorf("expected user-safe failure reason, got %v", sender.texts())
	}

	// Defaults are not saved on failure.
	user, err := b.db.GetUser(ctx, testChatID)
	if err != nil {
		t.Fatalf("failed to load user: %v", err)
	}
	if user.Enrollment != "" {
		t.Errorf("enrollment saved despite failure: %q", user.Enrollment)
	}
}

func TestCancelCommand(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	b, sender := newTestBot(t, &fakeEngine{})

	b.handleMessage(ctx, command(testChatID, "/cancel"))
	if got := sender.lastText(); got != nothingToCancel {
		t.Errorf("cancel with no session = %q", got)
	}

	b.handleMessage(ctx, command(testChatID, "/status"))
	b.handleMessage(ctx, command(testChatID, "/cancel"))
	if got := b.sessions.Get(testChatID).State; got != session.StateIdle {
		t.Errorf("state after /cancel = %q, want idle", got)
	}
}

func TestPurchaseFlow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	b, sender := newTestBot(t, &fakeEngine{})
	product := seedCatalog(t, b)

	b.handleCallback(ctx, callbackUpdate(testChatID, NewCallbackData("shop", "buy", "1")))

	sess := b.sessions.Get(testChatID)
	if sess.State != session.StateAwaitingScreenshot || sess.OrderID == "" {
		t.Fatalf("session after buy = %+v", sess)
	}
	if !sender.containsText("shop@upi") {
		t.Errorf("expected payment instructions, got %v", sender.texts())
	}

	// The screenshot moves the order forward and alerts the admin.
	photo := plainMessage(testChatID, "")
	photo.Photo = []tgbotapi.PhotoSize{{FileID: "small"}, {FileID: "big"}}
	b.handlePhoto(ctx, photo)

	order, err := b.db.GetOrder(ctx, sess.OrderID)
	if err != nil {
		t.Fatalf("failed to load order: %v", err)
	}
	if order.ScreenshotFileID != "big" {
		t.Errorf("screenshot file id = %q, want largest size", order.ScreenshotFileID)
	}
	if order.ProductID != product.ID {
		t.Errorf("order product = %d, want %d", order.ProductID, product.ID)
	}
	if !sender.containsText("/approve " + sess.OrderID) {
		t.Errorf("expected admin notification, got %v", sender.texts())
	}
	if got := b.sessions.Get(testChatID).State; got != session.StateIdle {
		t.Errorf("state after screenshot = %q, want idle", got)
	}
}

func TestPhotoOutsideScreenshotStep(t *testing.T) {
	t.Parallel()

	b, sender := newTestBot(t, &fakeEngine{})
	photo := plainMessage(testChatID, "")
	photo.Photo = []tgbotapi.PhotoSize{{FileID: "stray"}}
	b.handlePhoto(context.Background(), photo)

	if got := sender.lastText(); got != unknownText {
		t.Errorf("stray photo reply = %q", got)
	}
}

func TestApproveDeliversCachedFile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	b, sender := newTestBot(t, &fakeEngine{})
	product := seedCatalog(t, b)

	if _, err := b.db.AddProductFile(ctx, &storage.ProductFile{
		ProductID:      product.ID,
		ObjectKey:      "products/1/bcs011.pdf",
		FileName:       "bcs011.pdf",
		TelegramFileID: "cached-file-id",
	}); err != nil {
		t.Fatalf("failed to add file: %v", err)
	}

	order := &storage.Order{ID: storage.NewOrderID(), ChatID: testChatID, ProductID: product.ID, Status: storage.OrderPending}
	if err := b.db.UpsertUser(ctx, &storage.User{ChatID: testChatID, FirstName: "Student"}); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	if err := b.db.CreateOrder(ctx, order); err != nil {
		t.Fatalf("failed to create order: %v", err)
	}

	b.handleMessage(ctx, command(testAdminID, "/approve "+order.ID))

	got, err := b.db.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("failed to reload order: %v", err)
	}
	if got.Status != storage.OrderApproved {
		t.Errorf("order status = %q, want approved", got.Status)
	}
	if sender.documentCount() != 1 {
		t.Errorf("documents sent = %d, want 1", sender.documentCount())
	}
	if !sender.containsText("verified") {
		t.Errorf("expected buyer approval message, got %v", sender.texts())
	}
}

func TestApproveDownloadsFromStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	b, sender := newTestBot(t, &fakeEngine{})
	b.store = &fakeStore{blobs: map[string][]byte{
		"products/1/bcs011.pdf": []byte("%PDF-1.4 fake"),
	}}
	product := seedCatalog(t, b)

	if _, err := b.db.AddProductFile(ctx, &storage.ProductFile{
		ProductID: product.ID,
		ObjectKey: "products/1/bcs011.pdf",
		FileName:  "bcs011.pdf",
	}); err != nil {
		t.Fatalf("failed to add file: %v", err)
	}

	order := &storage.Order{ID: storage.NewOrderID(), ChatID: testChatID, ProductID: product.ID, Status: storage.OrderPending}
	if err := b.db.CreateOrder(ctx, order); err != nil {
		t.Fatalf("failed to create order: %v", err)
	}

	b.handleMessage(ctx, command(testAdminID, "/approve "+order.ID))

	if sender.documentCount() != 1 {
		t.Errorf("documents sent = %d, want 1", sender.documentCount())
	}
}

func TestRejectNotifiesBuyer(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	b, sender := newTestBot(t, &fakeEngine{})
	product := seedCatalog(t, b)

	order := &storage.Order{ID: storage.NewOrderID(), ChatID: testChatID, ProductID: product.ID, Status: storage.OrderPending}
	if err := b.db.CreateOrder(ctx, order); err != nil {
		t.Fatalf("failed to create order: %v", err)
	}

	b.handleMessage(ctx, command(testAdminID, "/reject "+order.ID))

	if !sender.containsText("could not be verified") {
		t.Errorf("expected rejection message, got %v", sender.texts())
	}
	got, _ := b.db.GetOrder(ctx, order.ID)
	if got.Status != storage.OrderRejected {
		t.Errorf("order status = %q, want rejected", got.Status)
	}
}

func TestDecisionRequiresAdmin(t *testing.T) {
	t.Parallel()

	b, sender := newTestBot(t, &fakeEngine{})
	b.handleMessage(context.Background(), command(testChatID, "/approve ORD-AAAA1111"))

	if got := sender.lastText(); got != notAdminText {
		t.Errorf("non-admin approve reply = %q", got)
	}
}

func TestDecisionUnknownOrder(t *testing.T) {
	t.Parallel()

	b, sender := newTestBot(t, &fakeEngine{})
	b.handleMessage(context.Background(), command(testAdminID, "/approve ORD-MISSING1"))

	if !sender.containsText("No pending order") {
		t.Errorf("expected not-found reply, got %v", sender.texts())
	}
}

func TestCancelOrderCallback(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	b, sender := newTestBot(t, &fakeEngine{})
	product := seedCatalog(t, b)

	order := &storage.Order{ID: storage.NewOrderID(), ChatID: testChatID, ProductID: product.ID, Status: storage.OrderPending}
	if err := b.db.CreateOrder(ctx, order); err != nil {
		t.Fatalf("failed to create order: %v", err)
	}

	b.handleCallback(ctx, callbackUpdate(testChatID, NewCallbackData("orders", "cancel", order.ID)))

	got, _ := b.db.GetOrder(ctx, order.ID)
	if got.Status != storage.OrderCancelled {
		t.Errorf("order status = %q, want cancelled", got.Status)
	}

	// A second cancel attempt finds nothing pending.
	b.handleCallback(ctx, callbackUpdate(testChatID, NewCallbackData("orders", "cancel", order.ID)))
	if !sender.containsText("no longer be cancelled") {
		t.Errorf("expected already-decided reply, got %v", sender.texts())
	}
}

func TestSearchCommand(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	b, sender := newTestBot(t, &fakeEngine{})
	product := seedCatalog(t, b)
	if err := b.index.Rebuild([]storage.Product{*product}); err != nil {
		t.Fatalf("failed to rebuild index: %v", err)
	}

	b.handleMessage(ctx, command(testChatID, "/search bcs 011"))
	if !sender.containsText("BCS-011 Solved Assignment") {
		t.Errorf("expected search hit, got %v", sender.texts())
	}

	b.handleMessage(ctx, command(testChatID, "/search"))
	if !sender.containsText("Usage: /search") {
		t.Errorf("expected usage hint, got %v", sender.texts())
	}
}

func TestShopBrowsing(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	b, sender := newTestBot(t, &fakeEngine{})
	product := seedCatalog(t, b)

	b.handleMessage(ctx, command(testChatID, "/shop"))
	if !sender.containsText("Pick a section") {
		t.Errorf("expected category list, got %v", sender.texts())
	}

	b.handleCallback(ctx, callbackUpdate(testChatID, NewCallbackData("shop", "cat", "1", "0")))
	if !sender.containsText("Pick an item") {
		t.Errorf("expected product list, got %v", sender.texts())
	}

	b.handleCallback(ctx, callbackUpdate(testChatID, NewCallbackData("shop", "prod", "1")))
	if !sender.containsText(product.Description) {
		t.Errorf("expected product details, got %v", sender.texts())
	}
}

func TestEmptyShop(t *testing.T) {
	t.Parallel()

	b, sender := newTestBot(t, &fakeEngine{})
	b.handleMessage(context.Background(), command(testChatID, "/shop"))

	if !sender.containsText("empty") {
		t.Errorf("expected empty-shop reply, got %v", sender.texts())
	}
}

func TestMyOrders(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	b, sender := newTestBot(t, &fakeEngine{})
	b.handleMessage(ctx, command(testChatID, "/myorders"))
	if !sender.containsText("no orders yet") {
		t.Errorf("expected empty-orders reply, got %v", sender.texts())
	}

	product := seedCatalog(t, b)
	order := &storage.Order{ID: storage.NewOrderID(), ChatID: testChatID, ProductID: product.ID, Status: storage.OrderPending}
	if err := b.db.CreateOrder(ctx, order); err != nil {
		t.Fatalf("failed to create order: %v", err)
	}

	b.handleMessage(ctx, command(testChatID, "/myorders"))
	if !sender.containsText(order.ID) {
		t.Errorf("expected order listed, got %v", sender.texts())
	}
}

func TestStatsCommand(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	b, sender := newTestBot(t, &fakeEngine{})

	b.handleMessage(ctx, command(testChatID, "/stats"))
	if got := sender.lastText(); got != notAdminText {
		t.Errorf("non-admin stats reply = %q", got)
	}

	b.handleMessage(ctx, command(testAdminID, "/stats"))
	if !sender.containsText("Bot statistics") {
		t.Errorf("expected stats, got %v", sender.texts())
	}
}

func TestRateLimitedUpdateDropped(t *testing.T) {
	t.Parallel()

	b, sender := newTestBot(t, &fakeEngine{})
	b.limiter.Stop()
	limiter := ratelimit.NewPerKeyLimiter(ratelimit.PerKeyLimiterConfig{MaxTokens: 1, RefillRate: 0.001})
	t.Cleanup(limiter.Stop)
	b.limiter = limiter

	update := tgbotapi.Update{Message: command(testChatID, "/help")}
	b.handleUpdate(context.Background(), update)
	b.handleUpdate(context.Background(), update)

	if got := sender.lastText(); got != rateLimitedText {
		t.Errorf("second update reply = %q, want rate-limit notice", got)
	}
}

func TestUnknownCommand(t *testing.T) {
	t.Parallel()

	b, sender := newTestBot(t, &fakeEngine{})
	b.handleMessage(context.Background(), command(testChatID, "/frobnicate"))

	if got := sender.lastText(); got != unknownText {
		t.Errorf("unknown command reply = %q", got)
	}
}

func TestKindAction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind portal.QueryKind
		want string
	}{
		{portal.KindAssignmentStatus, "assignment"},
		{portal.KindGradeCard, "gradecard"},
		{portal.KindAssignmentMarks, "marks"},
	}
	for _, tt := range tests {
		if got := kindAction(tt.kind); got != tt.want {
			t.Errorf("kindAction(%q) = %q, want %q", tt.kind, got, tt.want)
		}
	}
}
