package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"mtg-price-api/internal/model"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

// MySQLProductRepository implements ProductRepository using MySQL, for
// deployments where the store catalog already lives in MySQL.
type MySQLProductRepository struct {
	db *sql.DB
}

// NewMySQLProductRepository connects to MySQL and prepares the products table.
// The DSN must include parseTime=true.
func NewMySQLProductRepository(dsn string) (*MySQLProductRepository, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	query := `
	CREATE TABLE IF NOT EXISTS products (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		scryfall_id VARCHAR(64) NOT NULL DEFAULT '',
		price_sgd BIGINT NULL,
		price_sgd_enabled TINYINT(1) NOT NULL DEFAULT 0,
		ck_price_usd BIGINT NULL,
		ck_price_updated_at DATETIME NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_products_scryfall (scryfall_id)
	)`
	if _, err := db.Exec(query); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Println("[MySQLProductRepository] Initialized")
	return &MySQLProductRepository{db: db}, nil
}

// Create inserts a product and returns its ID.
func (r *MySQLProductRepository) Create(ctx context.Context, product *model.Product) (int64, error) {
	query := `
		INSERT INTO products (title, scryfall_id, price_sgd, price_sgd_enabled, ck_price_usd, ck_price_updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	res, err := r.db.ExecContext(ctx, query,
		product.Title, product.ScryfallID, product.PriceSGD,
		product.PriceSGDEnabled, product.CKPriceUSD, product.CKPriceLastUpdated)
	if err != nil {
		return 0, fmt.Errorf("failed to insert product: %w", err)
	}
	return res.LastInsertId()
}

// ListWithScryfallID returns one page of products that carry a scryfall ID.
func (r *MySQLProductRepository) ListWithScryfallID(ctx context.Context, page, limit int) ([]model.Product, bool, error) {
	if page < 1 {
		page = 1
	}

	query := `
		SELECT id, title, scryfall_id, price_sgd, price_sgd_enabled, ck_price_usd, ck_price_updated_at, created_at
		FROM products
		WHERE scryfall_id != ''
		ORDER BY id
		LIMIT ? OFFSET ?`

	rows, err := r.db.QueryContext(ctx, query, limit+1, (page-1)*limit)
	if err != nil {
		return nil, false, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := make([]model.Product, 0, limit)
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Title, &p.ScryfallID, &p.PriceSGD, &p.PriceSGDEnabled,
			&p.CKPriceUSD, &p.CKPriceLastUpdated, &p.CreatedAt); err != nil {
			return nil, false, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}

	hasNext := len(products) > limit
	if hasNext {
		products = products[:limit]
	}
	return products, hasNext, nil
}

// UpdatePrices applies the synced price fields to a product.
func (r *MySQLProductRepository) UpdatePrices(ctx context.Context, id int64, update model.ProductPriceUpdate) error {
	// Existence check first: MySQL reports zero affected rows when the new
	// values equal the old ones, which must not read as "not found".
	var exists int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM products WHERE id = ?`, id).Scan(&exists)
	if err == sql.ErrNoRows {
		return fmt.Errorf("product %d not found", id)
	}
	if err != nil {
		return fmt.Errorf("failed to check product: %w", err)
	}

	query := `
		UPDATE products
		SET price_sgd = ?, price_sgd_enabled = ?, ck_price_usd = ?, ck_price_updated_at = ?
		WHERE id = ?`

	if _, err := r.db.ExecContext(ctx, query,
		update.PriceSGD, update.PriceSGDEnabled, update.CKPriceUSD, update.CKPriceLastUpdated, id); err != nil {
		return fmt.Errorf("failed to update product prices: %w", err)
	}
	return nil
}

// CountWithScryfallID returns the number of products carrying a scryfall ID.
func (r *MySQLProductRepository) CountWithScryfallID(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products WHERE scryfall_id != ''`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}

// Stats returns statistics about the product store.
func (r *MySQLProductRepository) Stats(ctx context.Context) (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products").Scan(&total); err != nil {
		return nil, err
	}
	stats["total_products"] = total

	withID, err := r.CountWithScryfallID(ctx)
	if err != nil {
		return nil, err
	}
	stats["with_scryfall_id"] = withID

	var lastSync sql.NullTime
	if err := r.db.QueryRowContext(ctx, "SELECT MAX(ck_price_updated_at) FROM products").Scan(&lastSync); err == nil && lastSync.Valid {
		stats["last_price_sync"] = lastSync.Time
	}

	return stats, nil
}

// Close closes the database connection.
func (r *MySQLProductRepository) Close() error {
	return r.db.Close()
}

// Ensure MySQLProductRepository implements ProductRepository
var _ ProductRepository = (*MySQLProductRepository)(nil)
