package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"mtg-price-api/internal/cache"
)

// PriceSource answers price lookups by scryfall ID with an optional foil
// requirement. Implemented by pricelist.Manager.
type PriceSource interface {
	Lookup(ctx context.Context, scryfallID string, isFoil *bool) (*int64, error)
}

// PriceService memoizes price lookups in a TTL cache in front of the
// pricelist manager. A nil price (card not in the pricelist, or the exact
// requested variant missing) is a valid cached answer, not an error.
type PriceService struct {
	source PriceSource
	cache  cache.Cache
	ttl    time.Duration
}

// NewPriceService creates a price lookup service.
func NewPriceService(source PriceSource, c cache.Cache, ttl time.Duration) *PriceService {
	return &PriceService{
		source: source,
		cache:  c,
		ttl:    ttl,
	}
}

// cachedPrice is the cache wire format; Price is null when no price is known.
type cachedPrice struct {
	Price *int64 `json:"price"`
}

// Lookup returns the retail price in USD cents for a card, or nil when no
// price is known. Results, including negative ones, are cached for the
// configured TTL.
func (s *PriceService) Lookup(ctx context.Context, scryfallID string, isFoil *bool) (*int64, error) {
	key := lookupKey(scryfallID, isFoil)

	data, err := s.cache.GetOrSet(ctx, key, s.ttl, func() ([]byte, error) {
		price, err := s.source.Lookup(ctx, scryfallID, isFoil)
		if err != nil {
			return nil, err
		}
		return json.Marshal(cachedPrice{Price: price})
	})
	if err != nil {
		return nil, err
	}

	var cp cachedPrice
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("decode cached price: %w", err)
	}
	return cp.Price, nil
}

func lookupKey(scryfallID string, isFoil *bool) string {
	variant := "any"
	if isFoil != nil {
		if *isFoil {
			variant = "foil"
		} else {
			variant = "nonfoil"
		}
	}
	return "price:" + scryfallID + ":" + variant
}
