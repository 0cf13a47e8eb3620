package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"mtg-price-api/internal/model"

	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// SQLiteProductRepository implements ProductRepository using SQLite.
// WAL mode for high-concurrency reads, single writer.
type SQLiteProductRepository struct {
	db *sql.DB
}

// NewSQLiteProductRepository creates a new SQLite product repository.
// dbPath is the path to the SQLite database file (e.g., "./data/products.db")
func NewSQLiteProductRepository(dbPath string) (*SQLiteProductRepository, error) {
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	// SQLite only supports 1 writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := createProductTable(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Printf("[SQLiteProductRepository] Initialized with database: %s", dbPath)
	return &SQLiteProductRepository{db: db}, nil
}

func createProductTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		scryfall_id TEXT DEFAULT '',
		price_sgd INTEGER,
		price_sgd_enabled INTEGER NOT NULL DEFAULT 0,
		ck_price_usd INTEGER,
		ck_price_updated_at DATETIME,
		created_at DATETIME NOT NULL DEFAULT (datetime('now'))
	);
	CREATE INDEX IF NOT EXISTS idx_products_scryfall ON products(scryfall_id);
	`
	_, err := db.Exec(query)
	return err
}

// Create inserts a product and returns its ID.
func (r *SQLiteProductRepository) Create(ctx context.Context, product *model.Product) (int64, error) {
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
func (r *SQLiteProductRepository) ListWithScryfallID(ctx context.Context, page, limit int) ([]model.Product, bool, error) {
	if page < 1 {
		page = 1
	}

	// Fetch one extra row to decide hasNext without a second query.
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
		var enabled int
		if err := rows.Scan(&p.ID, &p.Title, &p.ScryfallID, &p.PriceSGD, &enabled,
			&p.CKPriceUSD, &p.CKPriceLastUpdated, &p.CreatedAt); err != nil {
			return nil, false, fmt.Errorf("failed to scan product: %w", err)
		}
		p.PriceSGDEnabled = enabled != 0
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
func (r *SQLiteProductRepository) UpdatePrices(ctx context.Context, id int64, update model.ProductPriceUpdate) error {
	query := `
		UPDATE products
		SET price_sgd = ?, price_sgd_enabled = ?, ck_price_usd = ?, ck_price_updated_at = ?
		WHERE id = ?`

	res, err := r.db.ExecContext(ctx, query,
		update.PriceSGD, boolToInt(update.PriceSGDEnabled), update.CKPriceUSD, update.CKPriceLastUpdated, id)
	if err != nil {
		return fmt.Errorf("failed to update product prices: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("product %d not found", id)
	}
	return nil
}

// CountWithScryfallID returns the number of products carrying a scryfall ID.
func (r *SQLiteProductRepository) CountWithScryfallID(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products WHERE scryfall_id != ''`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}

// Stats returns statistics about the product store.
func (r *SQLiteProductRepository) Stats(ctx context.Context) (map[string]interface{}, error) {
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

	var synced int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products WHERE ck_price_updated_at IS NOT NULL").Scan(&synced); err == nil {
		stats["price_synced"] = synced
	}

	// Scan the column directly instead of MAX(): aggregate expressions lose
	// the DATETIME decltype, so the driver would hand back raw text.
	var lastSync time.Time
	err = r.db.QueryRowContext(ctx,
		`SELECT ck_price_updated_at FROM products
		 WHERE ck_price_updated_at IS NOT NULL
		 ORDER BY ck_price_updated_at DESC LIMIT 1`).Scan(&lastSync)
	switch {
	case err == sql.ErrNoRows:
		// nothing synced yet
	case err != nil:
		return nil, fmt.Errorf("failed to read last sync time: %w", err)
	default:
		stats["last_price_sync"] = lastSync
	}

	return stats, nil
}

// Close closes the database connection.
func (r *SQLiteProductRepository) Close() error {
	return r.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Ensure SQLiteProductRepository implements ProductRepository
var _ ProductRepository = (*SQLiteProductRepository)(nil)
