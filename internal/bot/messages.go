package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/gyanbazaar/ignou-study-bot/internal/storage"
)

// Static reply texts.
const (
	welcomeText = "👋 Welcome to GyanBazaar!\n\n" +
		"I can check your IGNOU assignment status and grade card, and you can " +
		"buy solved assignments, guess papers and notes right here.\n\n" +
		"Use the menu below or /help to see what I can do."

	helpText = "📖 Commands\n\n" +
		"/start - Main menu\n" +
		"/status - Check assignment status\n" +
		"/gradecard - Fetch your grade card\n" +
		"/marks - Assignment marks, semester-wise\n" +
		"/shop - Browse study material\n" +
		"/search <words> - Search study material\n" +
		"/myorders - Your orders\n" +
		"/cancel - Abandon the current step"

	askEnrollmentText = "🔢 Please send your 9 or 10 digit enrollment number."
	askProgramText    = "🎓 Now send your programme code (for example BCA or MCA)."
	queryRunningText  = "⏳ Checking the IGNOU portal, this can take a minute..."
	cancelledText     = "Okay, cancelled. Use /start for the menu."
	nothingToCancel   = "Nothing to cancel. Use /start for the menu."
	rateLimitedText   = "🐢 You're sending requests too quickly. Please wait a moment and try again."
	unknownText       = "I didn't understand that. Use /help to see the commands."

	askScreenshotText = "📸 Please send the payment screenshot as a photo to confirm your order."
	notAdminText      = "This command is only available to admins."
)

// paymentInstructions renders the UPI payment step for an order.
func paymentInstructions(order *storage.Order, product *storage.Product, upiID string) string {
	var b strings.Builder
	b.WriteString("🧾 Order " + order.ID + "\n\n")
	fmt.Fprintf(&b, "📦 %s\n", product.Name)
	fmt.Fprintf(&b, "💰 Price: ₹%d\n\n", product.PriceINR)
	fmt.Fprintf(&b, "Pay via UPI to:\n`%s`\n\n", upiID)
	b.WriteString("Then send the payment screenshot here as a photo. ")
	b.WriteString("An admin will verify it and your files will arrive in this chat.")
	return b.String()
}

// productDetails renders a product page.
func productDetails(p *storage.Product, fileCount int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📦 %s\n\n", p.Name)
	if p.Description != "" {
		b.WriteString(p.Description + "\n\n")
	}
	fmt.Fprintf(&b, "💰 Price: ₹%d\n", p.PriceINR)
	fmt.Fprintf(&b, "📄 Files: %d\n", fileCount)
	return b.String()
}

// orderLine renders one row of /myorders.
func orderLine(o storage.Order, productName string) string {
	icon := map[string]string{
		storage.OrderPending:   "⏳",
		storage.OrderApproved:  "✅",
		storage.OrderRejected:  "❌",
		storage.OrderCancelled: "🚫",
	}[o.Status]
	if icon == "" {
		icon = "❔"
	}
	created := time.Unix(o.CreatedAt, 0).Format("02 Jan 2006")
	return fmt.Sprintf("%s %s - %s (%s, %s)", icon, o.ID, productName, o.Status, created)
}

// orderApprovedText tells the buyer their files are on the way.
func orderApprovedText(orderID string) string {
	return "✅ Payment for " + orderID + " verified! Sending your files now..."
}

// orderRejectedText tells the buyer the payment was not accepted.
func orderRejectedText(orderID string) string {
	return "❌ Payment for " + orderID + " could not be verified. " +
		"If you believe this is a mistake, reply here and an admin will take a look."
}

// adminOrderNotification renders the admin alert for a new paid order.
func adminOrderNotification(order *storage.Order, product *storage.Product, user *storage.User) string {
	var b strings.Builder
	b.WriteString("🔔 New order awaiting verification\n\n")
	fmt.Fprintf(&b, "🧾 %s\n", order.ID)
	fmt.Fprintf(&b, "📦 %s (₹%d)\n", product.Name, product.PriceINR)
	if user != nil {
		fmt.Fprintf(&b, "👤 %s (@%s, chat %d)\n", user.FirstName, user.Username, user.ChatID)
	}
	fmt.Fprintf(&b, "\nApprove: /approve %s\nReject: /reject %s", order.ID, order.ID)
	return b.String()
}

// searchResultsText renders /search hits as a numbered list.
func searchResultsText(query string, names []string) string {
	if len(names) == 0 {
		return fmt.Sprintf("🔍 Nothing found for %q. Try different words or browse /shop.", query)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🔍 Results for %q:\n\n", query)
	for i, name := range names {
		fmt.Fprintf(&b, "%d. %s\n", i+1, name)
	}
	return b.String()
}

// statsText renders the /stats summary.
func statsText(users int, orders map[string]int, liveSessions int) string {
	var b strings.Builder
	b.WriteString("📊 Bot statistics\n\n")
	fmt.Fprintf(&b, "👥 Users: %d\n", users)
	fmt.Fprintf(&b, "🗂 Live sessions: %d\n\n", liveSessions)
	b.WriteString("Orders:\n")
	for _, status := range []string{
		storage.OrderPending, storage.OrderApproved, storage.OrderRejected, storage.OrderCancelled,
	} {
		fmt.Fprintf(&b, "  %s: %d\n", status, orders[status])
	}
	return b.String()
}
