package repository

import (
	"context"

	"mtg-price-api/internal/model"
)

// ProductRepository defines product catalog data access methods.
type ProductRepository interface {
	// Create inserts a product and returns its ID.
	Create(ctx context.Context, product *model.Product) (int64, error)

	// ListWithScryfallID returns one page of products that carry a scryfall
	// ID, ordered by ID. Pages are 1-based; hasNext reports whether another
	// page exists.
	ListWithScryfallID(ctx context.Context, page, limit int) (products []model.Product, hasNext bool, err error)

	// UpdatePrices applies the synced price fields to a product.
	// Returns an error when the product does not exist.
	UpdatePrices(ctx context.Context, id int64, update model.ProductPriceUpdate) error

	// CountWithScryfallID returns the number of products carrying a scryfall ID.
	CountWithScryfallID(ctx context.Context) (int64, error)

	// Stats returns statistics about the product store.
	Stats(ctx context.Context) (map[string]interface{}, error)

	// Close closes the repository connection.
	Close() error
}
