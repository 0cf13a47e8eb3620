package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"mtg-price-api/internal/cache"
	"mtg-price-api/internal/config"
	"mtg-price-api/internal/handler"
	"mtg-price-api/internal/pricelist"
	"mtg-price-api/internal/repository"
	"mtg-price-api/internal/router"
	"mtg-price-api/internal/service"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting MTG price API...")

	// Load configuration
	cfg := config.MustLoad()
	log.Printf("Environment: %s", cfg.App.Environment)

	// Initialize product repository based on config
	var productRepo repository.ProductRepository
	switch cfg.ProductDB.Type {
	case "mysql":
		mysqlRepo, err := repository.NewMySQLProductRepository(cfg.ProductDB.MySQLDSN())
		if err != nil {
			log.Fatalf("Failed to initialize MySQL: %v", err)
		}
		productRepo = mysqlRepo
		log.Println("MySQL product repository initialized")
	default: // sqlite
		sqliteRepo, err := repository.NewSQLiteProductRepository(cfg.ProductDB.Path)
		if err != nil {
			log.Fatalf("Failed to initialize SQLite: %v", err)
		}
		productRepo = sqliteRepo
		log.Println("SQLite product repository initialized")
	}
	defer productRepo.Close()

	// Initialize lookup cache
	var lookupCache cache.Cache
	if cfg.Cache.Type == "redis" {
		redisCache, err := cache.NewRedisCache(cache.RedisCacheConfig{
			Addr:     cfg.Cache.RedisAddress(),
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err != nil {
			log.Printf("Warning: Redis connection failed, falling back to memory cache: %v", err)
			lookupCache = cache.NewMemoryCache()
		} else {
			lookupCache = redisCache
			log.Println("Redis lookup cache initialized")
		}
	} else {
		lookupCache = cache.NewMemoryCache()
		log.Println("Memory lookup cache initialized")
	}
	defer lookupCache.Close()

	// Initialize pricelist cache manager and services
	manager := pricelist.NewManager(cfg.Pricelist)
	priceService := service.NewPriceService(manager, lookupCache, cfg.Cache.TTL)
	syncService := service.NewSyncService(manager, productRepo, cfg.Sync.USDToSGDRate, cfg.Sync.PageSize)

	// Schedule the recurring price sync (idempotent, once per process)
	scheduler := service.NewSyncScheduler(syncService, cfg.Sync.Interval)
	scheduler.RegisterOnce()
	defer scheduler.Stop()

	if cfg.Sync.RunOnStart {
		go func() {
			log.Println("Running initial price sync...")
			result := syncService.SyncPrices(context.Background())
			log.Printf("Initial sync complete: %d/%d products updated, %d errors",
				result.Updated, result.TotalProducts, len(result.Errors))
		}()
	}

	// Initialize handlers
	healthHandler := handler.New(cfg.App.Version)
	priceHandler := handler.NewPriceHandler(priceService, syncService, manager)
	adminHandler := handler.NewAdminHandler(productRepo, manager, cfg.ProductDB.Type)

	// Create router
	r := router.New(router.Config{
		Handler:      healthHandler,
		PriceHandler: priceHandler,
		AdminHandler: adminHandler,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
