package bot

import (
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/gyanbazaar/ignou-study-bot/internal/storage"
)

// mainMenuKeyboard is the /start menu.
func mainMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📋 Assignment Status", NewCallbackData("query", "assignment")),
			tgbotapi.NewInlineKeyboardButtonData("🎓 Grade Card", NewCallbackData("query", "gradecard")),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📊 Assignment Marks", NewCallbackData("query", "marks")),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🛒 Study Material", NewCallbackData("shop", "categories")),
			tgbotapi.NewInlineKeyboardButtonData("🧾 My Orders", NewCallbackData("orders", "list")),
		),
	)
}

// retryKeyboard offers a retry of the same query kind plus the menu.
func retryKeyboard(kindAction string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Try Again", NewCallbackData("query", kindAction)),
			tgbotapi.NewInlineKeyboardButtonData("🏠 Menu", NewCallbackData("menu", "main")),
		),
	)
}

// categoriesKeyboard lists storefront sections, one per row.
func categoriesKeyboard(categories []storage.Category) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(categories)+1)
	for _, c := range categories {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(c.Name, NewCallbackData("shop", "cat", strconv.FormatInt(c.ID, 10), "0")),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🏠 Menu", NewCallbackData("menu", "main")),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// productsKeyboard lists one page of products with pager buttons when the
// catalog spills past the page size.
func productsKeyboard(categoryID int64, products []storage.Product, page, pageSize, total int) tgbotapi.InlineKeyboardMarkup {
	catID := strconv.FormatInt(categoryID, 10)

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(products)+2)
	for _, p := range products {
		label := fmt.Sprintf("%s - ₹%d", p.Name, p.PriceINR)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, NewCallbackData("shop", "prod", strconv.FormatInt(p.ID, 10))),
		))
	}

	if pager := pagerRow(catID, page, pageSize, total); len(pager) > 0 {
		rows = append(rows, pager)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Categories", NewCallbackData("shop", "categories")),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// pagerRow builds prev/next buttons. Empty when everything fits one page.
func pagerRow(catID string, page, pageSize, total int) []tgbotapi.InlineKeyboardButton {
	if total <= pageSize {
		return nil
	}

	var row []tgbotapi.InlineKeyboardButton
	if page > 0 {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(
			"⬅️ Prev", NewCallbackData("shop", "cat", catID, strconv.Itoa(page-1))))
	}
	if (page+1)*pageSize < total {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(
			"Next ➡️", NewCallbackData("shop", "cat", catID, strconv.Itoa(page+1))))
	}
	return row
}

// productKeyboard is the buy/back row on a product page.
func productKeyboard(p *storage.Product) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("🛒 Buy for ₹%d", p.PriceINR),
				NewCallbackData("shop", "buy", strconv.FormatInt(p.ID, 10))),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Back",
				NewCallbackData("shop", "cat", strconv.FormatInt(p.CategoryID, 10), "0")),
		),
	)
}

// orderKeyboard lets a buyer cancel a still-pending order.
func orderKeyboard(orderID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🚫 Cancel Order", NewCallbackData("orders", "cancel", orderID)),
		),
	)
}
