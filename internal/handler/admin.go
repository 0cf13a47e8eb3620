package handler

import (
	"net/http"
	"runtime"
	"time"

	"mtg-price-api/internal/repository"
	"mtg-price-api/pkg/response"
)

// AdminHandler handles admin-related HTTP requests.
type AdminHandler struct {
	products  repository.ProductRepository
	pricelist PricelistCache
	dbType    string
	startTime time.Time
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(products repository.ProductRepository, pricelist PricelistCache, dbType string) *AdminHandler {
	return &AdminHandler{
		products:  products,
		pricelist: pricelist,
		dbType:    dbType,
		startTime: time.Now(),
	}
}

// GetStats handles GET /api/v1/admin/stats
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats := make(map[string]interface{})

	stats["uptime_seconds"] = int64(time.Since(h.startTime).Seconds())
	stats["uptime_human"] = time.Since(h.startTime).Round(time.Second).String()
	stats["server_time"] = time.Now().Format(time.RFC3339)
	stats["db_type"] = h.dbType

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	stats["memory"] = map[string]interface{}{
		"alloc_mb":      float64(memStats.Alloc) / 1024 / 1024,
		"sys_mb":        float64(memStats.Sys) / 1024 / 1024,
		"heap_inuse_mb": float64(memStats.HeapInuse) / 1024 / 1024,
		"num_gc":        memStats.NumGC,
		"goroutines":    runtime.NumGoroutine(),
	}

	if h.products != nil {
		productStats, err := h.products.Stats(ctx)
		if err == nil {
			productStats["status"] = "connected"
			stats["products"] = productStats
		} else {
			stats["products"] = map[string]interface{}{
				"status": "error",
				"error":  err.Error(),
			}
		}
	} else {
		stats["products"] = map[string]interface{}{
			"status": "not_configured",
		}
	}

	if h.pricelist != nil {
		meta, stale := h.pricelist.Status()
		cacheStats := map[string]interface{}{
			"stale": stale,
		}
		if meta != nil {
			cacheStats["last_fetched"] = meta.LastFetched
			cacheStats["entry_count"] = meta.EntryCount
		} else {
			cacheStats["status"] = "absent"
		}
		stats["pricelist_cache"] = cacheStats
	}

	response.OK(w, stats)
}
