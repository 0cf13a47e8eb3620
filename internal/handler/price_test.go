package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mtg-price-api/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLookup struct {
	price *int64
	err   error
}

func (s *stubLookup) Lookup(ctx context.Context, scryfallID string, isFoil *bool) (*int64, error) {
	return s.price, s.err
}

type stubSyncer struct {
	result *model.SyncResult
}

func (s *stubSyncer) SyncPrices(ctx context.Context) *model.SyncResult {
	return s.result
}

type stubCache struct {
	count int
	err   error
	meta  *model.CacheMeta
	stale bool
}

func (s *stubCache) Refresh(ctx context.Context) (int, error) { return s.count, s.err }
func (s *stubCache) Status() (*model.CacheMeta, bool)         { return s.meta, s.stale }

func postJSON(t *testing.T, h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestPriceHandler_Lookup(t *testing.T) {
	price := int64(1299)
	h := NewPriceHandler(&stubLookup{price: &price}, nil, nil)

	rec := postJSON(t, h.Lookup, `{"scryfall_id":"aaa","is_foil":false}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool           `json:"success"`
		Data    LookupResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Data.Price)
	assert.Equal(t, int64(1299), *resp.Data.Price)
}

func TestPriceHandler_LookupAbsentPriceIsNull(t *testing.T) {
	h := NewPriceHandler(&stubLookup{price: nil}, nil, nil)

	rec := postJSON(t, h.Lookup, `{"scryfall_id":"aaa","is_foil":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"price":null`)
}

func TestPriceHandler_LookupMissingID(t *testing.T) {
	h := NewPriceHandler(&stubLookup{}, nil, nil)

	rec := postJSON(t, h.Lookup, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPriceHandler_LookupUpstreamError(t *testing.T) {
	h := NewPriceHandler(&stubLookup{err: errors.New("boom")}, nil, nil)

	rec := postJSON(t, h.Lookup, `{"scryfall_id":"aaa"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestPriceHandler_SyncReturnsResult(t *testing.T) {
	h := NewPriceHandler(nil, &stubSyncer{result: &model.SyncResult{
		TotalProducts: 10, Matched: 8, Updated: 7, Skipped: 2,
		Errors: []string{"failed to update product 5 (Shock): gone"},
	}}, nil)

	rec := postJSON(t, h.Sync, ``)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"updated":7`)
	assert.Contains(t, rec.Body.String(), "product 5")
}

func TestPriceHandler_CacheStatus(t *testing.T) {
	fetched := time.Date(2026, 8, 30, 6, 0, 0, 0, time.UTC)
	h := NewPriceHandler(nil, nil, &stubCache{
		meta:  &model.CacheMeta{LastFetched: fetched, EntryCount: 120000},
		stale: false,
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.CacheStatus(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"entry_count":120000`)
	assert.Contains(t, rec.Body.String(), `"stale":false`)
}

func TestPriceHandler_RefreshCacheFailure(t *testing.T) {
	h := NewPriceHandler(nil, nil, &stubCache{err: errors.New("upstream down")})

	rec := postJSON(t, h.RefreshCache, ``)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
