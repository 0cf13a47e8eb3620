package service

import (
	"context"
	"testing"
	"time"

	"mtg-price-api/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler(t *testing.T) *SyncScheduler {
	t.Helper()
	indexer := &fakeIndexer{index: map[string]model.PricelistEntry{}}
	svc := NewSyncService(indexer, newFakeProductRepo(), 1.3, 100)
	s := NewSyncScheduler(svc, time.Hour)
	t.Cleanup(s.Stop)
	return s
}

func TestSyncScheduler_RegisterOnceIsIdempotent(t *testing.T) {
	s := newTestScheduler(t)

	assert.False(t, s.Registered())
	assert.True(t, s.RegisterOnce(), "first call performs the registration")
	assert.False(t, s.RegisterOnce(), "second call must be a no-op")
	assert.True(t, s.Registered())
}

func TestSyncScheduler_StopWithoutRegister(t *testing.T) {
	s := newTestScheduler(t)

	// Must not panic even though no ticker was ever created.
	s.Stop()
	s.Stop()
}

func TestSyncScheduler_RunNow(t *testing.T) {
	s := newTestScheduler(t)

	result := s.RunNow(context.Background())
	require.NotNil(t, result)
	assert.Empty(t, result.Errors)
}
