package pricelist

import (
	"context"
	"testing"

	"mtg-price-api/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func TestLookup_UsesIndexRepresentative(t *testing.T) {
	srv := pricelistServer(t, []model.PricelistEntry{
		{ID: 1, ScryfallID: "Y", IsFoil: false, PriceRetail: 5},
		{ID: 2, ScryfallID: "Y", IsFoil: true, PriceRetail: 9},
	})
	m := newTestManager(t, srv.URL)

	price, err := m.Lookup(context.Background(), "Y", nil)
	require.NoError(t, err)
	require.NotNil(t, price)
	assert.Equal(t, int64(500), *price, "no foil requirement: representative (non-foil) price")

	price, err = m.Lookup(context.Background(), "Y", boolPtr(false))
	require.NoError(t, err)
	require.NotNil(t, price)
	assert.Equal(t, int64(500), *price)
}

func TestLookup_FoilVariantViaFullScan(t *testing.T) {
	srv := pricelistServer(t, []model.PricelistEntry{
		{ID: 1, ScryfallID: "Y", IsFoil: false, PriceRetail: 5},
		{ID: 2, ScryfallID: "Y", IsFoil: true, PriceRetail: 9},
	})
	m := newTestManager(t, srv.URL)

	// Index holds the non-foil entry; the foil request must be answered by
	// scanning the snapshot, not by the representative's price.
	price, err := m.Lookup(context.Background(), "Y", boolPtr(true))
	require.NoError(t, err)
	require.NotNil(t, price)
	assert.Equal(t, int64(900), *price)
}

func TestLookup_MissingVariantIsAbsentNotSubstituted(t *testing.T) {
	srv := pricelistServer(t, []model.PricelistEntry{
		{ID: 1, ScryfallID: "Z", IsFoil: false, PriceRetail: 3.50},
	})
	m := newTestManager(t, srv.URL)

	price, err := m.Lookup(context.Background(), "Z", boolPtr(true))
	require.NoError(t, err)
	assert.Nil(t, price, "a foil card must never be priced off the non-foil entry")
}

func TestLookup_UnknownCard(t *testing.T) {
	srv := pricelistServer(t, []model.PricelistEntry{
		{ID: 1, ScryfallID: "known", PriceRetail: 1},
	})
	m := newTestManager(t, srv.URL)

	price, err := m.Lookup(context.Background(), "unknown", nil)
	require.NoError(t, err)
	assert.Nil(t, price)
}

func TestLookup_RoundsToCents(t *testing.T) {
	srv := pricelistServer(t, []model.PricelistEntry{
		{ID: 1, ScryfallID: "penny", IsFoil: false, PriceRetail: 12.99},
	})
	m := newTestManager(t, srv.URL)

	price, err := m.Lookup(context.Background(), "penny", nil)
	require.NoError(t, err)
	require.NotNil(t, price)
	assert.Equal(t, int64(1299), *price)
}
