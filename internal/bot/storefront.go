package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	apperrors "github.com/gyanbazaar/ignou-study-bot/internal/errors"
	"github.com/gyanbazaar/ignou-study-bot/internal/session"
	"github.com/gyanbazaar/ignou-study-bot/internal/storage"
)

func (b *Bot) showCategories(ctx context.Context, chatID int64) {
	categories, err := b.db.ListCategories(ctx)
	if err != nil {
		b.log.WithError(err).WithChatID(chatID).Errorf("failed to list categories")
		b.reply(chatID, "The shop is unavailable right now. Please try again later.")
		return
	}
	if len(categories) == 0 {
		b.reply(chatID, "🛒 The shop is empty right now. Check back soon!")
		return
	}
	b.replyWithKeyboard(chatID, "🛒 Pick a section:", categoriesKeyboard(categories))
}

func (b *Bot) handleShopCallback(ctx context.Context, chatID int64, cb Callback) {
	switch cb.Action {
	case "categories":
		b.showCategories(ctx, chatID)
	case "cat":
		b.showCategoryPage(ctx, chatID, cb)
	case "prod":
		b.showProduct(ctx, chatID, cb.Param(0))
	case "buy":
		b.startPurchase(ctx, chatID, cb.Param(0))
	}
}

func (b *Bot) showCategoryPage(ctx context.Context, chatID int64, cb Callback) {
	categoryID, err := strconv.ParseInt(cb.Param(0), 10, 64)
	if err != nil {
		return
	}
	page, _ := strconv.Atoi(cb.Param(1))
	if page < 0 {
		page = 0
	}

	pageSize := b.cfg.ItemsPerPage
	products, total, err := b.db.ListProductsByCategory(ctx, categoryID, pageSize, page*pageSize)
	if err != nil {
		b.log.WithError(err).WithChatID(chatID).Errorf("failed to list products")
		b.reply(chatID, "The shop is unavailable right now. Please try again later.")
		return
	}
	if total == 0 {
		b.reply(chatID, "📭 Nothing in this section yet.")
		return
	}

	b.replyWithKeyboard(chatID, "📚 Pick an item:",
		productsKeyboard(categoryID, products, page, pageSize, total))
}

func (b *Bot) showProduct(ctx context.Context, chatID int64, rawID string) {
	productID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return
	}

	product, err := b.db.GetProduct(ctx, productID)
	if err != nil {
		b.reply(chatID, "That item is no longer available.")
		return
	}

	files, err := b.db.ListProductFiles(ctx, productID)
	if err != nil {
		b.log.WithError(err).WithChatID(chatID).Errorf("failed to list product files")
	}

	b.replyWithKeyboard(chatID, productDetails(product, len(files)), productKeyboard(product))
}

// startPurchase creates a pending order and walks the buyer into the payment
// screenshot step.
func (b *Bot) startPurchase(ctx context.Context, chatID int64, rawID string) {
	productID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return
	}

	product, err := b.db.GetProduct(ctx, productID)
	if err != nil || !product.Active {
		b.reply(chatID, "That item is no longer available.")
		return
	}

	order := &storage.Order{
		ID:        storage.NewOrderID(),
		ChatID:    chatID,
		ProductID: product.ID,
		Status:    storage.OrderPending,
	}
	if err := b.db.CreateOrder(ctx, order); err != nil {
		b.log.WithError(err).WithChatID(chatID).Errorf("failed to create order")
		b.reply(chatID, "Could not create the order. Please try again.")
		return
	}
	b.metrics.OrdersTotal.WithLabelValues("created").Inc()

	b.sessions.Set(session.Session{
		ChatID:  chatID,
		State:   session.StateAwaitingScreenshot,
		OrderID: order.ID,
	})

	msg := tgbotapi.NewMessage(chatID, paymentInstructions(order, product, b.cfg.PaymentUPIID))
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = orderKeyboard(order.ID)
	if _, err := b.send.Send(msg); err != nil {
		b.log.WithError(err).WithChatID(chatID).Errorf("failed to send payment instructions")
	}
}

// handlePhoto attaches a payment screenshot to the pending order and alerts
// the admins. Photos outside the screenshot step are ignored with a hint.
func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	b.rememberUser(ctx, msg)

	sess := b.sessions.Get(chatID)
	if sess.State != session.StateAwaitingScreenshot || sess.OrderID == "" {
		b.reply(chatID, unknownText)
		return
	}

	// Telegram sends photo sizes smallest first; keep the largest.
	fileID := msg.Photo[len(msg.Photo)-1].FileID

	if err := b.db.AttachScreenshot(ctx, sess.OrderID, fileID); err != nil {
		b.log.WithError(err).WithChatID(chatID).Errorf("failed to attach screenshot")
		b.reply(chatID, "Could not record the screenshot. Please try again.")
		return
	}
	b.sessions.Clear(chatID)
	b.reply(chatID, "✅ Screenshot received! An admin will verify your payment shortly.")

	b.notifyAdmins(ctx, sess.OrderID, fileID)
}

func (b *Bot) notifyAdmins(ctx context.Context, orderID, screenshotFileID string) {
	order, err := b.db.GetOrder(ctx, orderID)
	if err != nil {
		b.log.WithError(err).Errorf("failed to load order for admin notification")
		return
	}
	product, err := b.db.GetProduct(ctx, order.ProductID)
	if err != nil {
		b.log.WithError(err).Errorf("failed to load product for admin notification")
		return
	}
	user, _ := b.db.GetUser(ctx, order.ChatID)

	text := adminOrderNotification(order, product, user)
	for _, adminID := range b.cfg.AdminChatIDs {
		b.reply(adminID, text)
		photo := tgbotapi.NewPhoto(adminID, tgbotapi.FileID(screenshotFileID))
		if _, err := b.send.Send(photo); err != nil {
			b.log.WithError(err).WithChatID(adminID).Warnf("failed to forward screenshot to admin")
		}
	}
}

// handleSearch answers /search with BM25-ranked catalog hits.
func (b *Bot) handleSearch(ctx context.Context, chatID int64, query string) {
	query = strings.TrimSpace(query)
	if query == "" {
		b.reply(chatID, "Usage: /search <words>, for example /search bcs011 solved")
		return
	}

	hits, err := b.index.Search(query, 5)
	if err != nil {
		b.log.WithError(err).WithChatID(chatID).Errorf("search failed")
		b.reply(chatID, "Search is unavailable right now. Please try again later.")
		return
	}

	names := make([]string, 0, len(hits))
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(hits))
	for _, hit := range hits {
		names = append(names, hit.Name)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(hit.Name,
				NewCallbackData("shop", "prod", strconv.FormatInt(hit.ProductID, 10))),
		))
	}

	if len(rows) == 0 {
		b.reply(chatID, searchResultsText(query, nil))
		return
	}
	b.replyWithKeyboard(chatID, searchResultsText(query, names),
		tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) showOrders(ctx context.Context, chatID int64) {
	orders, err := b.db.ListOrdersByChat(ctx, chatID)
	if err != nil {
		b.log.WithError(err).WithChatID(chatID).Errorf("failed to list orders")
		b.reply(chatID, "Could not load your orders. Please try again later.")
		return
	}
	if len(orders) == 0 {
		b.reply(chatID, "🧾 You have no orders yet. Browse /shop to get started.")
		return
	}

	var lines []string
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, o := range orders {
		name := "(removed item)"
		if product, err := b.db.GetProduct(ctx, o.ProductID); err == nil {
			name = product.Name
		}
		lines = append(lines, orderLine(o, name))
		if o.Status == storage.OrderPending {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🚫 Cancel "+o.ID,
					NewCallbackData("orders", "cancel", o.ID)),
			))
		}
	}

	text := "🧾 Your orders:\n\n" + strings.Join(lines, "\n")
	if len(rows) == 0 {
		b.reply(chatID, text)
		return
	}
	b.replyWithKeyboard(chatID, text, tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) handleOrdersCallback(ctx context.Context, chatID int64, cb Callback) {
	switch cb.Action {
	case "list":
		b.showOrders(ctx, chatID)
	case "cancel":
		orderID := cb.Param(0)
		if orderID == "" {
			return
		}
		if err := b.db.CancelOrder(ctx, orderID, chatID); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				b.reply(chatID, "Order "+orderID+" can no longer be cancelled.")
				return
			}
			b.log.WithError(err).WithChatID(chatID).Errorf("failed to cancel order")
			b.reply(chatID, "Could not cancel the order. Please try again.")
			return
		}
		b.metrics.OrdersTotal.WithLabelValues("cancelled").Inc()
		b.sessions.Clear(chatID)
		b.reply(chatID, "🚫 Order "+orderID+" cancelled.")
	}
}
