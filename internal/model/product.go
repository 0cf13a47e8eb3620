package model

import "time"

// Product is a sellable card in the store catalog.
type Product struct {
	ID                 int64      `json:"id"`
	Title              string     `json:"title"`
	ScryfallID         string     `json:"scryfall_id"`
	PriceSGD           *int64     `json:"price_sgd,omitempty"`          // SGD cents
	PriceSGDEnabled    bool       `json:"price_sgd_enabled"`
	CKPriceUSD         *int64     `json:"ck_price_usd,omitempty"`       // USD cents
	CKPriceLastUpdated *time.Time `json:"ck_price_last_updated,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

// ProductPriceUpdate is the partial update applied to a product by the
// price sync. All four fields are written together.
type ProductPriceUpdate struct {
	PriceSGD           int64
	PriceSGDEnabled    bool
	CKPriceUSD         int64
	CKPriceLastUpdated time.Time
}
