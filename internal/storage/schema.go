package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// InitSchema creates all necessary tables and indexes.
// Note: WAL mode is configured in db.go.
func InitSchema(db *sql.DB) error {
	if err := createUsersTable(db); err != nil {
		return err
	}
	if err := createCategoriesTable(db); err != nil {
		return err
	}
	if err := createProductsTable(db); err != nil {
		return err
	}
	if err := createProductFilesTable(db); err != nil {
		return err
	}
	return createOrdersTable(db)
}

func createUsersTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		chat_id INTEGER PRIMARY KEY,
		username TEXT,
		first_name TEXT,
		enrollment TEXT,
		program TEXT,
		created_at INTEGER NOT NULL,
		last_seen_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_users_last_seen ON users(last_seen_at);
	`

	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}

	return nil
}

func createCategoriesTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS categories (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		position INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_categories_position ON categories(position);
	`

	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to create categories table: %w", err)
	}

	return nil
}

func createProductsTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		category_id INTEGER NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		price_inr INTEGER NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_products_category ON products(category_id);
	CREATE INDEX IF NOT EXISTS idx_products_active ON products(active);
	`

	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to create products table: %w", err)
	}

	return nil
}

func createProductFilesTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS product_files (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		product_id INTEGER NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		object_key TEXT NOT NULL,
		file_name TEXT NOT NULL,
		telegram_file_id TEXT,
		size_bytes INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_product_files_product ON product_files(product_id);
	`

	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to create product_files table: %w", err)
	}

	return nil
}

func createOrdersTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		chat_id INTEGER NOT NULL REFERENCES users(chat_id),
		product_id INTEGER NOT NULL REFERENCES products(id),
		status TEXT CHECK(status IN ('pending', 'approved', 'rejected', 'cancelled')) NOT NULL,
		screenshot_file_id TEXT,
		created_at INTEGER NOT NULL,
		decided_at INTEGER,
		decided_by INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_orders_chat ON orders(chat_id);
	CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);
	CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at);
	`

	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to create orders table: %w", err)
	}

	return nil
}
