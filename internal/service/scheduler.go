package service

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"mtg-price-api/internal/model"
)

// syncTimeout bounds a single scheduled sync run.
const syncTimeout = 30 * time.Minute

// SyncScheduler triggers the bulk price sync on a fixed interval. It is
// owned by the process bootstrap; RegisterOnce is idempotent so repeated
// bootstrap paths cannot schedule the sync twice.
type SyncScheduler struct {
	sync     *SyncService
	interval time.Duration

	registered atomic.Bool
	ticker     *time.Ticker
	stopCh     chan struct{}
	stopOnce   sync.Once
}

// NewSyncScheduler creates a scheduler that runs syncSvc every interval.
func NewSyncScheduler(syncSvc *SyncService, interval time.Duration) *SyncScheduler {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &SyncScheduler{
		sync:     syncSvc,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// RegisterOnce starts the recurring sync. Safe to call multiple times in one
// process; only the first call registers anything. Returns true when this
// call performed the registration.
func (s *SyncScheduler) RegisterOnce() bool {
	if !s.registered.CompareAndSwap(false, true) {
		log.Printf("[SyncScheduler] Price sync already scheduled, skipping.")
		return false
	}

	s.ticker = time.NewTicker(s.interval)
	go s.run()

	log.Printf("[SyncScheduler] Price sync scheduled every %v.", s.interval)
	return true
}

// Registered reports whether the recurring sync has been registered.
func (s *SyncScheduler) Registered() bool {
	return s.registered.Load()
}

func (s *SyncScheduler) run() {
	for {
		select {
		case <-s.ticker.C:
			s.runSync()
		case <-s.stopCh:
			log.Printf("[SyncScheduler] Stopped")
			return
		}
	}
}

func (s *SyncScheduler) runSync() {
	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	log.Printf("[SyncScheduler] Running scheduled price sync...")

	result := s.sync.SyncPrices(ctx)
	log.Printf("[SyncScheduler] Scheduled sync complete: %d/%d products updated, %d errors.",
		result.Updated, result.TotalProducts, len(result.Errors))
}

// RunNow triggers an immediate sync run, outside the schedule.
func (s *SyncScheduler) RunNow(ctx context.Context) *model.SyncResult {
	return s.sync.SyncPrices(ctx)
}

// Stop stops the recurring sync. Safe to call even when RegisterOnce never
// ran, and safe to call more than once.
func (s *SyncScheduler) Stop() {
	s.stopOnce.Do(func() {
		if s.ticker != nil {
			s.ticker.Stop()
		}
		close(s.stopCh)
	})
}
