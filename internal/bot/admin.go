package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	apperrors "github.com/gyanbazaar/ignou-study-bot/internal/errors"
	"github.com/gyanbazaar/ignou-study-bot/internal/storage"
)

// handleDecision processes /approve and /reject. Only configured admin chats
// may decide; approval triggers file delivery to the buyer.
func (b *Bot) handleDecision(ctx context.Context, chatID int64, args, status string) {
	if !b.cfg.IsAdmin(chatID) {
		b.reply(chatID, notAdminText)
		return
	}

	orderID := strings.ToUpper(strings.TrimSpace(args))
	if orderID == "" {
		b.reply(chatID, "Usage: /approve ORD-XXXXXXXX or /reject ORD-XXXXXXXX")
		return
	}

	if err := b.db.DecideOrder(ctx, orderID, status, chatID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			b.reply(chatID, "No pending order "+orderID+" found.")
			return
		}
		b.log.WithError(err).WithChatID(chatID).Errorf("failed to decide order")
		b.reply(chatID, "Could not update the order. Please try again.")
		return
	}
	b.metrics.OrdersTotal.WithLabelValues(status).Inc()

	order, err := b.db.GetOrder(ctx, orderID)
	if err != nil {
		b.log.WithError(err).Errorf("failed to reload decided order")
		b.reply(chatID, "Order "+orderID+" updated, but loading it back failed.")
		return
	}

	switch status {
	case storage.OrderApproved:
		b.reply(order.ChatID, orderApprovedText(orderID))
		delivered := b.deliverFiles(ctx, order)
		b.reply(chatID, "✅ "+orderID+" approved.")
		if !delivered {
			b.reply(chatID, "⚠️ Some files for "+orderID+" could not be delivered. Check the logs.")
		}
	case storage.OrderRejected:
		b.reply(order.ChatID, orderRejectedText(orderID))
		b.reply(chatID, "❌ "+orderID+" rejected.")
	}
}

// logArchiver is implemented by object stores that can keep compressed
// delivery logs; archival is skipped when the store cannot.
type logArchiver interface {
	ArchiveLog(ctx context.Context, key string, lines []byte) error
}

// deliverFiles sends every product file to the buyer. Files already known to
// Telegram are re-sent by file ID; fresh ones are pulled from the object
// store and the returned Telegram file ID is cached for next time.
func (b *Bot) deliverFiles(ctx context.Context, order *storage.Order) bool {
	files, err := b.db.ListProductFiles(ctx, order.ProductID)
	if err != nil {
		b.log.WithError(err).Errorf("failed to list files for delivery")
		return false
	}
	if len(files) == 0 {
		b.log.WithField("order", order.ID).Warnf("order approved but product has no files")
		return false
	}

	ok := true
	var delivered []string
	for _, f := range files {
		if err := b.deliverFile(ctx, order.ChatID, f); err != nil {
			b.log.WithError(err).WithField("file", f.FileName).Errorf("file delivery failed")
			b.metrics.FileDeliveriesTotal.WithLabelValues("error").Inc()
			ok = false
			continue
		}
		b.metrics.FileDeliveriesTotal.WithLabelValues("success").Inc()
		delivered = append(delivered, f.FileName)
	}

	if len(delivered) > 0 {
		b.archiveDelivery(ctx, order, delivered)
	}
	return ok
}

func (b *Bot) archiveDelivery(ctx context.Context, order *storage.Order, delivered []string) {
	archiver, ok := b.store.(logArchiver)
	if !ok {
		return
	}

	lines := fmt.Sprintf("order=%s chat=%d product=%d delivered_at=%s\nfiles=%s\n",
		order.ID, order.ChatID, order.ProductID,
		time.Now().UTC().Format(time.RFC3339), strings.Join(delivered, ","))
	if err := archiver.ArchiveLog(ctx, "deliveries/"+order.ID, []byte(lines)); err != nil {
		b.log.WithError(err).WithField("order", order.ID).Warnf("failed to archive delivery log")
	}
}

func (b *Bot) deliverFile(ctx context.Context, chatID int64, f storage.ProductFile) error {
	if f.TelegramFileID != "" {
		doc := tgbotapi.NewDocument(chatID, tgbotapi.FileID(f.TelegramFileID))
		_, err := b.send.Send(doc)
		return err
	}

	if b.store == nil {
		return errors.New("no file store configured")
	}

	body, err := b.store.Download(ctx, f.ObjectKey)
	if err != nil {
		return err
	}
	defer body.Close()

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileReader{
		Name:   f.FileName,
		Reader: body,
	})
	sent, err := b.send.Send(doc)
	if err != nil {
		return err
	}

	// Cache Telegram's copy so the next delivery skips the object store.
	if sent.Document != nil && sent.Document.FileID != "" {
		if err := b.db.SetTelegramFileID(ctx, f.ID, sent.Document.FileID); err != nil {
			b.log.WithError(err).Warnf("failed to cache telegram file id")
		}
	}
	return nil
}

// RemindPendingOrders pings every admin about orders that have been waiting
// for a decision longer than olderThan. Called from the background job loop.
func (b *Bot) RemindPendingOrders(ctx context.Context, olderThan time.Duration) {
	orders, err := b.db.ListPendingOrdersBefore(ctx, time.Now().Add(-olderThan))
	if err != nil {
		b.log.WithError(err).Errorf("failed to list stale pending orders")
		return
	}
	if len(orders) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString("⏰ Orders still awaiting a decision:\n\n")
	for _, o := range orders {
		name := "(removed item)"
		if product, err := b.db.GetProduct(ctx, o.ProductID); err == nil {
			name = product.Name
		}
		sb.WriteString(orderLine(o, name) + "\n")
	}

	text := sb.String()
	for _, adminID := range b.cfg.AdminChatIDs {
		b.reply(adminID, text)
	}
}

// handleStats answers /stats for admins.
func (b *Bot) handleStats(ctx context.Context, chatID int64) {
	if !b.cfg.IsAdmin(chatID) {
		b.reply(chatID, notAdminText)
		return
	}

	users, err := b.db.CountUsers(ctx)
	if err != nil {
		b.log.WithError(err).Errorf("failed to count users")
	}
	orders, err := b.db.CountOrdersByStatus(ctx)
	if err != nil {
		b.log.WithError(err).Errorf("failed to count orders")
	}

	b.reply(chatID, statsText(users, orders, b.sessions.Count()))
}
