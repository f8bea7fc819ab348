package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	apperrors "github.com/gyanbazaar/ignou-study-bot/internal/errors"
)

// UpsertUser inserts or refreshes a user row. Enrollment and program are
// only overwritten when non-empty so a plain /start does not wipe saved
// query defaults.
func (db *DB) UpsertUser(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (chat_id, username, first_name, enrollment, program, created_at, last_seen_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(chat_id) DO UPDATE SET
			username = excluded.username,
			first_name = excluded.first_name,
			enrollment = CASE WHEN excluded.enrollment != '' THEN excluded.enrollment ELSE users.enrollment END,
			program = CASE WHEN excluded.program != '' THEN excluded.program ELSE users.program END,
			last_seen_at = excluded.last_seen_at
	`
	now := time.Now().Unix()
	_, err := db.conn.ExecContext(ctx, query,
		user.ChatID, user.Username, user.FirstName, user.Enrollment, user.Program, now, now)
	if err != nil {
		slog.ErrorContext(ctx, "failed to upsert user", "chat_id", user.ChatID, "error", err)
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by chat ID. Returns ErrNotFound for unknown chats.
func (db *DB) GetUser(ctx context.Context, chatID int64) (*User, error) {
	query := `SELECT chat_id, username, first_name, enrollment, program, created_at, last_seen_at
		FROM users WHERE chat_id = ?`

	var user User
	err := db.conn.QueryRowContext(ctx, query, chatID).Scan(
		&user.ChatID, &user.Username, &user.FirstName,
		&user.Enrollment, &user.Program, &user.CreatedAt, &user.LastSeenAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to query user", "chat_id", chatID, "error", err)
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}

// SaveQueryDefaults stores the enrollment and program a user last queried with.
func (db *DB) SaveQueryDefaults(ctx context.Context, chatID int64, enrollment, program string) error {
	query := `UPDATE users SET enrollment = ?, program = ? WHERE chat_id = ?`
	if _, err := db.conn.ExecContext(ctx, query, enrollment, program, chatID); err != nil {
		slog.ErrorContext(ctx, "failed to save query defaults", "chat_id", chatID, "error", err)
		return fmt.Errorf("failed to save query defaults: %w", err)
	}
	return nil
}

// CreateCategory adds a storefront section and returns its ID.
func (db *DB) CreateCategory(ctx context.Context, name string, position int) (int64, error) {
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO categories (name, position) VALUES (?, ?)`, name, position)
	if err != nil {
		return 0, fmt.Errorf("failed to create category: %w", err)
	}
	return res.LastInsertId()
}

// ListCategories returns all categories ordered by position, then name.
func (db *DB) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, position FROM categories ORDER BY position, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Position); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// CreateProduct adds a product and returns its ID.
func (db *DB) CreateProduct(ctx context.Context, p *Product) (int64, error) {
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO products (category_id, name, description, price_inr, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.CategoryID, p.Name, p.Description, p.PriceINR, boolToInt(p.Active), time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to create product: %w", err)
	}
	return res.LastInsertId()
}

// GetProduct retrieves a product by ID. Returns ErrNotFound when missing.
func (db *DB) GetProduct(ctx context.Context, id int64) (*Product, error) {
	query := `SELECT id, category_id, name, description, price_inr, active, created_at
		FROM products WHERE id = ?`

	var p Product
	var active int
	err := db.conn.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.CategoryID, &p.Name, &p.Description, &p.PriceINR, &active, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query product: %w", err)
	}
	p.Active = active != 0
	return &p, nil
}

// ListProductsByCategory returns one page of active products in a category
// plus the total active count for pagination.
func (db *DB) ListProductsByCategory(ctx context.Context, categoryID int64, limit, offset int) ([]Product, int, error) {
	var total int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM products WHERE category_id = ? AND active = 1`, categoryID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, category_id, name, description, price_inr, active, created_at
		FROM products WHERE category_id = ? AND active = 1
		ORDER BY name LIMIT ? OFFSET ?`, categoryID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	defer func() { _ = rows.Close() }()

	products, err := scanProducts(rows)
	return products, total, err
}

// ListActiveProducts returns every active product, used to build the search index.
func (db *DB) ListActiveProducts(ctx context.Context) ([]Product, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, category_id, name, description, price_inr, active, created_at
		FROM products WHERE active = 1 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list active products: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanProducts(rows)
}

func scanProducts(rows *sql.Rows) ([]Product, error) {
	var products []Product
	for rows.Next() {
		var p Product
		var active int
		if err := rows.Scan(&p.ID, &p.CategoryID, &p.Name, &p.Description, &p.PriceINR, &active, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		p.Active = active != 0
		products = append(products, p)
	}
	return products, rows.Err()
}

// AddProductFile attaches a deliverable to a product and returns its ID.
func (db *DB) AddProductFile(ctx context.Context, f *ProductFile) (int64, error) {
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO product_files (product_id, object_key, file_name, telegram_file_id, size_bytes)
		VALUES (?, ?, ?, ?, ?)`,
		f.ProductID, f.ObjectKey, f.FileName, f.TelegramFileID, f.SizeBytes)
	if err != nil {
		return 0, fmt.Errorf("failed to add product file: %w", err)
	}
	return res.LastInsertId()
}

// ListProductFiles returns the deliverables of a product.
func (db *DB) ListProductFiles(ctx context.Context, productID int64) ([]ProductFile, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, product_id, object_key, file_name, COALESCE(telegram_file_id, ''), size_bytes
		FROM product_files WHERE product_id = ? ORDER BY id`, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list product files: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var files []ProductFile
	for rows.Next() {
		var f ProductFile
		if err := rows.Scan(&f.ID, &f.ProductID, &f.ObjectKey, &f.FileName, &f.TelegramFileID, &f.SizeBytes); err != nil {
			return nil, fmt.Errorf("failed to scan product file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// SetTelegramFileID stores Telegram's file handle after a first upload so
// subsequent deliveries skip the blob store.
func (db *DB) SetTelegramFileID(ctx context.Context, fileID int64, telegramFileID string) error {
	if _, err := db.conn.ExecContext(ctx,
		`UPDATE product_files SET telegram_file_id = ? WHERE id = ?`, telegramFileID, fileID); err != nil {
		return fmt.Errorf("failed to set telegram file id: %w", err)
	}
	return nil
}

// CreateOrder records a new pending order.
func (db *DB) CreateOrder(ctx context.Context, order *Order) error {
	query := `
		INSERT INTO orders (id, chat_id, product_id, status, screenshot_file_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := db.conn.ExecContext(ctx, query,
		order.ID, order.ChatID, order.ProductID, OrderPending, order.ScreenshotFileID, time.Now().Unix())
	if err != nil {
		slog.ErrorContext(ctx, "failed to create order", "order_id", order.ID, "error", err)
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// GetOrder retrieves an order by ID. Returns ErrNotFound when missing.
func (db *DB) GetOrder(ctx context.Context, id string) (*Order, error) {
	query := `SELECT id, chat_id, product_id, status, COALESCE(screenshot_file_id, ''),
		created_at, COALESCE(decided_at, 0), COALESCE(decided_by, 0)
		FROM orders WHERE id = ?`

	var order Order
	err := db.conn.QueryRowContext(ctx, query, id).Scan(
		&order.ID, &order.ChatID, &order.ProductID, &order.Status,
		&order.ScreenshotFileID, &order.CreatedAt, &order.DecidedAt, &order.DecidedBy)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query order: %w", err)
	}
	return &order, nil
}

// AttachScreenshot stores the payment proof on a pending order.
func (db *DB) AttachScreenshot(ctx context.Context, orderID, fileID string) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE orders SET screenshot_file_id = ? WHERE id = ? AND status = ?`,
		fileID, orderID, OrderPending)
	if err != nil {
		return fmt.Errorf("failed to attach screenshot: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to attach screenshot: %w", err)
	}
	if n == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// DecideOrder moves a pending order to approved or rejected. Only pending
// orders can be decided; a second decision returns ErrNotFound.
func (db *DB) DecideOrder(ctx context.Context, orderID, status string, adminChatID int64) error {
	if status != OrderApproved && status != OrderRejected {
		return apperrors.NewValidationError("status", "must be approved or rejected")
	}

	res, err := db.conn.ExecContext(ctx,
		`UPDATE orders SET status = ?, decided_at = ?, decided_by = ? WHERE id = ? AND status = ?`,
		status, time.Now().Unix(), adminChatID, orderID, OrderPending)
	if err != nil {
		slog.ErrorContext(ctx, "failed to decide order", "order_id", orderID, "error", err)
		return fmt.Errorf("failed to decide order: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to decide order: %w", err)
	}
	if n == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// CancelOrder cancels a buyer's own pending order.
func (db *DB) CancelOrder(ctx context.Context, orderID string, chatID int64) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE orders SET status = ?, decided_at = ? WHERE id = ? AND chat_id = ? AND status = ?`,
		OrderCancelled, time.Now().Unix(), orderID, chatID, OrderPending)
	if err != nil {
		return fmt.Errorf("failed to cancel order: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to cancel order: %w", err)
	}
	if n == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// ListOrdersByChat returns a user's orders, newest first.
func (db *DB) ListOrdersByChat(ctx context.Context, chatID int64) ([]Order, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, chat_id, product_id, status, COALESCE(screenshot_file_id, ''),
		created_at, COALESCE(decided_at, 0), COALESCE(decided_by, 0)
		FROM orders WHERE chat_id = ? ORDER BY created_at DESC`, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanOrders(rows)
}

// ListPendingOrdersBefore returns pending orders created before the cutoff,
// oldest first. Used by the reminder job.
func (db *DB) ListPendingOrdersBefore(ctx context.Context, cutoff time.Time) ([]Order, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, chat_id, product_id, status, COALESCE(screenshot_file_id, ''),
		created_at, COALESCE(decided_at, 0), COALESCE(decided_by, 0)
		FROM orders WHERE status = ? AND created_at < ? ORDER BY created_at`,
		OrderPending, cutoff.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to list pending orders: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanOrders(rows)
}

func scanOrders(rows *sql.Rows) ([]Order, error) {
	var orders []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.ChatID, &o.ProductID, &o.Status,
			&o.ScreenshotFileID, &o.CreatedAt, &o.DecidedAt, &o.DecidedBy); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// CountOrdersByStatus returns order counts keyed by status, for /stats.
func (db *DB) CountOrdersByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan order count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// CountUsers returns the number of known chats.
func (db *DB) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
