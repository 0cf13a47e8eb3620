package pricelist

import (
	"context"
	"math"
)

// Lookup returns the Card Kingdom retail price for a card in USD cents, or
// nil when no price is known. When isFoil is set and the indexed
// representative entry is the other variant, the full snapshot is scanned for
// an exact (scryfall ID, foil) match. A missing exact variant yields nil
// rather than the other variant's price: a foil card must never be priced as
// a non-foil one, or the reverse.
func (m *Manager) Lookup(ctx context.Context, scryfallID string, isFoil *bool) (*int64, error) {
	index, err := m.BuildIndex(ctx)
	if err != nil {
		return nil, err
	}

	entry, ok := index[scryfallID]
	if !ok {
		return nil, nil
	}

	price := entry.PriceRetail
	if isFoil != nil && entry.IsFoil != *isFoil {
		// BuildIndex just guaranteed a snapshot on disk.
		snap, err := m.readSnapshot()
		if err != nil {
			return nil, err
		}

		found := false
		for _, e := range snap.Data {
			if e.ScryfallID == scryfallID && e.IsFoil == *isFoil {
				price = e.PriceRetail
				found = true
				break
			}
		}
		if !found {
			return nil, nil
		}
	}

	cents := int64(math.Round(price * 100))
	return &cents, nil
}
