package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"mtg-price-api/internal/model"
	"mtg-price-api/pkg/apierror"
	"mtg-price-api/pkg/response"
)

// PriceLookup answers cached price lookups.
type PriceLookup interface {
	Lookup(ctx context.Context, scryfallID string, isFoil *bool) (*int64, error)
}

// PriceSyncer runs the bulk price sync.
type PriceSyncer interface {
	SyncPrices(ctx context.Context) *model.SyncResult
}

// PricelistCache exposes the pricelist cache operations needed over HTTP.
type PricelistCache interface {
	Refresh(ctx context.Context) (int, error)
	Status() (*model.CacheMeta, bool)
}

// PriceHandler handles price lookup, sync, and cache HTTP requests.
type PriceHandler struct {
	lookup PriceLookup
	syncer PriceSyncer
	cache  PricelistCache
}

// NewPriceHandler creates a new price handler.
func NewPriceHandler(lookup PriceLookup, syncer PriceSyncer, cache PricelistCache) *PriceHandler {
	return &PriceHandler{
		lookup: lookup,
		syncer: syncer,
		cache:  cache,
	}
}

// LookupRequest is the body of POST /api/v1/prices/lookup.
type LookupRequest struct {
	ScryfallID string `json:"scryfall_id"`
	IsFoil     *bool  `json:"is_foil,omitempty"`
}

// LookupResponse carries the price in USD cents, or null when no price is
// known for the requested card/variant.
type LookupResponse struct {
	Price *int64 `json:"price"`
}

// Lookup handles POST /api/v1/prices/lookup
func (h *PriceHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	var req LookupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON"))
		return
	}
	if req.ScryfallID == "" {
		response.Error(w, apierror.BadRequest("scryfall_id is required"))
		return
	}

	price, err := h.lookup.Lookup(r.Context(), req.ScryfallID, req.IsFoil)
	if err != nil {
		response.Error(w, apierror.BadGateway("failed to look up price"))
		return
	}

	// A missing price is not an error: the card or the requested variant is
	// simply not in the pricelist.
	response.OK(w, LookupResponse{Price: price})
}

// Sync handles POST /api/v1/prices/sync
func (h *PriceHandler) Sync(w http.ResponseWriter, r *http.Request) {
	result := h.syncer.SyncPrices(r.Context())
	response.OK(w, result)
}

// RefreshCache handles POST /api/v1/prices/cache/refresh
func (h *PriceHandler) RefreshCache(w http.ResponseWriter, r *http.Request) {
	count, err := h.cache.Refresh(r.Context())
	if err != nil {
		response.Error(w, apierror.BadGateway("failed to refresh pricelist cache"))
		return
	}

	response.OK(w, map[string]interface{}{
		"entry_count": count,
	})
}

// CacheStatus handles GET /api/v1/prices/cache
func (h *PriceHandler) CacheStatus(w http.ResponseWriter, r *http.Request) {
	meta, stale := h.cache.Status()

	status := map[string]interface{}{
		"stale": stale,
	}
	if meta != nil {
		status["last_fetched"] = meta.LastFetched
		status["entry_count"] = meta.EntryCount
	}

	response.OK(w, status)
}
