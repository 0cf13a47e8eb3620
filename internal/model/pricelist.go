package model

import "time"

// ConditionValues holds the per-condition price/quantity breakdown for a
// price-list entry. All fields are optional in the upstream document.
type ConditionValues struct {
	NMPrice *float64 `json:"nm_price,omitempty"`
	NMQty   *int     `json:"nm_qty,omitempty"`
	EXPrice *float64 `json:"ex_price,omitempty"`
	EXQty   *int     `json:"ex_qty,omitempty"`
	VGPrice *float64 `json:"vg_price,omitempty"`
	VGQty   *int     `json:"vg_qty,omitempty"`
	GPrice  *float64 `json:"g_price,omitempty"`
	GQty    *int     `json:"g_qty,omitempty"`
}

// PricelistEntry is a single SKU-variant row from the Card Kingdom pricelist.
// ScryfallID may be empty (sealed product, tokens, etc.); such entries are
// never indexed.
type PricelistEntry struct {
	ID              int64            `json:"id"`
	SKU             string           `json:"sku"`
	URL             string           `json:"url"`
	Name            string           `json:"name"`
	Variation       string           `json:"variation"`
	Edition         string           `json:"edition"`
	IsFoil          bool             `json:"is_foil"`
	PriceRetail     float64          `json:"price_retail"`
	QtyRetail       int              `json:"qty_retail"`
	PriceBuy        float64          `json:"price_buy"`
	QtyBuying       int              `json:"qty_buying"`
	ScryfallID      string           `json:"scryfall_id"`
	ConditionValues *ConditionValues `json:"condition_values,omitempty"`
}

// SnapshotMeta is the upstream-reported metadata block. The raw document may
// carry additional fields; the snapshot is persisted byte-for-byte so they
// survive the round trip even though they are not modeled here.
type SnapshotMeta struct {
	BaseURL     string `json:"base_url"`
	DateUpdated string `json:"date_updated"`
}

// PricelistSnapshot is the full downloaded pricelist document.
type PricelistSnapshot struct {
	Meta SnapshotMeta     `json:"meta"`
	Data []PricelistEntry `json:"data"`
}

// CacheMeta describes the on-disk pricelist cache. LastFetched is written
// only after a snapshot write succeeds and is the sole staleness oracle:
// a missing or unreadable meta file means the cache is absent.
type CacheMeta struct {
	LastFetched time.Time `json:"last_fetched"`
	EntryCount  int       `json:"entry_count"`
}
