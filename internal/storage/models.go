package storage

import (
	"strings"

	"github.com/google/uuid"
)

// Order statuses. An order is created pending; approve/reject are admin
// decisions, cancel is the buyer's.
const (
	OrderPending   = "pending"
	OrderApproved  = "approved"
	OrderRejected  = "rejected"
	OrderCancelled = "cancelled"
)

// User is a Telegram chat known to the bot. Enrollment and program are the
// last values the user queried with, kept so repeat queries can skip the
// prompts.
type User struct {
	ChatID     int64
	Username   string
	FirstName  string
	Enrollment string
	Program    string
	CreatedAt  int64
	LastSeenAt int64
}

// Category is a storefront section.
type Category struct {
	ID       int64
	Name     string
	Position int
}

// Product is one purchasable item. PriceINR is in whole rupees.
type Product struct {
	ID          int64
	CategoryID  int64
	Name        string
	Description string
	PriceINR    int64
	Active      bool
	CreatedAt   int64
}

// ProductFile is one deliverable attached to a product. ObjectKey addresses
// the blob in the file store; TelegramFileID is filled after the first
// delivery so later ones reuse Telegram's copy.
type ProductFile struct {
	ID             int64
	ProductID      int64
	ObjectKey      string
	FileName       string
	TelegramFileID string
	SizeBytes      int64
}

// Order is one purchase. ScreenshotFileID is the payment proof the buyer
// sent; DecidedBy is the admin chat that approved or rejected it.
type Order struct {
	ID               string
	ChatID           int64
	ProductID        int64
	Status           string
	ScreenshotFileID string
	CreatedAt        int64
	DecidedAt        int64
	DecidedBy        int64
}

// NewOrderID returns an order identifier like ORD-6F9619FF. The short form
// is what admins type in approve/reject commands, so it stays uppercase and
// eight characters.
func NewOrderID() string {
	return "ORD-" + strings.ToUpper(uuid.NewString()[:8])
}
