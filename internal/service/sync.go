package service

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"mtg-price-api/internal/model"
	"mtg-price-api/internal/repository"
)

// PricelistIndexer supplies the scryfall ID → entry lookup index.
// Implemented by pricelist.Manager.
type PricelistIndexer interface {
	BuildIndex(ctx context.Context) (map[string]model.PricelistEntry, error)
}

// SyncService applies Card Kingdom prices to every product in the catalog
// that carries a scryfall ID.
type SyncService struct {
	indexer  PricelistIndexer
	products repository.ProductRepository
	rate     float64
	pageSize int

	now func() time.Time
}

// NewSyncService creates a new price sync service. rate is the USD→SGD
// conversion rate; pageSize is the product listing page size.
func NewSyncService(indexer PricelistIndexer, products repository.ProductRepository, rate float64, pageSize int) *SyncService {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &SyncService{
		indexer:  indexer,
		products: products,
		rate:     rate,
		pageSize: pageSize,
		now:      time.Now,
	}
}

// SyncPrices runs a full bulk price sync and always returns a structured
// result, never an error: a catastrophic failure (index build or a page
// fetch) is recorded as a single entry in the Errors list alongside whatever
// counters were accumulated before it, and per-product update failures are
// recorded individually without aborting the pass.
func (s *SyncService) SyncPrices(ctx context.Context) *model.SyncResult {
	result := &model.SyncResult{Errors: []string{}}

	if err := s.run(ctx, result); err != nil {
		msg := fmt.Sprintf("sync failed: %v", err)
		result.Errors = append(result.Errors, msg)
		log.Printf("[PriceSync] %s", msg)
		return result
	}

	log.Printf("[PriceSync] Complete: %d total, %d matched, %d updated, %d skipped, %d errors",
		result.TotalProducts, result.Matched, result.Updated, result.Skipped, len(result.Errors))
	return result
}

func (s *SyncService) run(ctx context.Context, result *model.SyncResult) error {
	index, err := s.indexer.BuildIndex(ctx)
	if err != nil {
		return err
	}

	page := 1
	for {
		products, hasNext, err := s.products.ListWithScryfallID(ctx, page, s.pageSize)
		if err != nil {
			return fmt.Errorf("list products page %d: %w", page, err)
		}

		result.TotalProducts += len(products)

		for _, product := range products {
			if product.ScryfallID == "" {
				result.Skipped++
				continue
			}

			entry, ok := index[product.ScryfallID]
			if !ok {
				result.Skipped++
				continue
			}

			result.Matched++

			update := model.ProductPriceUpdate{
				PriceSGD:           s.toSGDCents(entry.PriceRetail),
				PriceSGDEnabled:    true,
				CKPriceUSD:         usdCents(entry.PriceRetail),
				CKPriceLastUpdated: s.now(),
			}

			if err := s.products.UpdatePrices(ctx, product.ID, update); err != nil {
				msg := fmt.Sprintf("failed to update product %d (%s): %v", product.ID, product.Title, err)
				result.Errors = append(result.Errors, msg)
				log.Printf("[PriceSync] %s", msg)
				continue
			}

			result.Updated++
		}

		if !hasNext {
			return nil
		}
		page++
	}
}

// toSGDCents converts a USD price in dollars to SGD cents. Rounding happens
// once, at the final minor-unit step.
func (s *SyncService) toSGDCents(usd float64) int64 {
	return int64(math.Round(usd * s.rate * 100))
}

// usdCents converts a USD price in dollars to cents.
func usdCents(usd float64) int64 {
	return int64(math.Round(usd * 100))
}
