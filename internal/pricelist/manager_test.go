package pricelist

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"mtg-price-api/internal/config"
	"mtg-price-api/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, endpoint string) *Manager {
	t.Helper()
	return NewManager(config.PricelistConfig{
		Endpoint:    endpoint,
		UserAgent:   "test-agent/1.0",
		CacheDir:    t.TempDir(),
		MaxAge:      24 * time.Hour,
		HTTPTimeout: 5 * time.Second,
	})
}

func snapshotJSON(t *testing.T, entries []model.PricelistEntry) []byte {
	t.Helper()
	raw, err := json.Marshal(model.PricelistSnapshot{
		Meta: model.SnapshotMeta{BaseURL: "https://www.cardkingdom.com", DateUpdated: "2026-08-31 00:00:00"},
		Data: entries,
	})
	require.NoError(t, err)
	return raw
}

func pricelistServer(t *testing.T, entries []model.PricelistEntry) *httptest.Server {
	t.Helper()
	doc := snapshotJSON(t, entries)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(doc)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeMeta(t *testing.T, m *Manager, meta model.CacheMeta) {
	t.Helper()
	raw, err := json.Marshal(meta)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(m.metaPath(), raw, 0o644))
}

func TestIsStale_NoMeta(t *testing.T) {
	m := newTestManager(t, "http://unused")
	assert.True(t, m.IsStale())
}

func TestIsStale_CorruptMeta(t *testing.T) {
	m := newTestManager(t, "http://unused")
	require.NoError(t, os.WriteFile(m.metaPath(), []byte("{not json"), 0o644))
	assert.True(t, m.IsStale())
}

func TestIsStale_Boundary(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		age   time.Duration
		stale bool
	}{
		{"just fetched", 0, false},
		{"one hour old", time.Hour, false},
		{"exactly 24h old", 24 * time.Hour, false},
		{"24h and a second old", 24*time.Hour + time.Second, true},
		{"two days old", 48 * time.Hour, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestManager(t, "http://unused")
			m.now = func() time.Time { return now }
			writeMeta(t, m, model.CacheMeta{LastFetched: now.Add(-tt.age), EntryCount: 1})

			assert.Equal(t, tt.stale, m.IsStale())
		})
	}
}

func TestRefresh_DownloadsAndPersists(t *testing.T) {
	entries := []model.PricelistEntry{
		{ID: 1, SKU: "SKU-1", ScryfallID: "aaa", PriceRetail: 12.99},
		{ID: 2, SKU: "SKU-2", ScryfallID: "bbb", PriceRetail: 0.25},
	}
	doc := snapshotJSON(t, entries)

	var gotUserAgent, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		w.Write(doc)
	}))
	defer srv.Close()

	m := newTestManager(t, srv.URL)
	count, err := m.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	assert.Equal(t, "test-agent/1.0", gotUserAgent)
	assert.Equal(t, "application/json", gotAccept)

	// Snapshot persisted byte-for-byte.
	persisted, err := os.ReadFile(m.snapshotPath())
	require.NoError(t, err)
	assert.Equal(t, doc, persisted)

	meta := m.readMeta()
	require.NotNil(t, meta)
	assert.Equal(t, 2, meta.EntryCount)
	assert.False(t, meta.LastFetched.IsZero())
	assert.False(t, m.IsStale())
}

func TestRefresh_FailureFallsBackToStaleCache(t *testing.T) {
	entries := []model.PricelistEntry{
		{ID: 1, ScryfallID: "aaa", PriceRetail: 1},
		{ID: 2, ScryfallID: "bbb", PriceRetail: 2},
		{ID: 3, ScryfallID: "ccc", PriceRetail: 3},
	}
	good := pricelistServer(t, entries)

	m := newTestManager(t, good.URL)
	_, err := m.Refresh(context.Background())
	require.NoError(t, err)

	oldMeta := m.readMeta()
	require.NotNil(t, oldMeta)

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer bad.Close()
	m.cfg.Endpoint = bad.URL

	count, err := m.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count, "stale entry count served after failed download")

	// Meta untouched: the cache keeps aging from the original fetch time.
	newMeta := m.readMeta()
	require.NotNil(t, newMeta)
	assert.True(t, newMeta.LastFetched.Equal(oldMeta.LastFetched))
	assert.Equal(t, oldMeta.EntryCount, newMeta.EntryCount)
}

func TestRefresh_FailureWithoutPriorCache(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer bad.Close()

	m := newTestManager(t, bad.URL)
	_, err := m.Refresh(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status")

	_, statErr := os.Stat(m.snapshotPath())
	assert.True(t, os.IsNotExist(statErr), "no snapshot file may be created")
	_, statErr = os.Stat(m.metaPath())
	assert.True(t, os.IsNotExist(statErr), "no meta file may be created")
}

func TestRefresh_NetworkErrorFallsBack(t *testing.T) {
	entries := []model.PricelistEntry{{ID: 1, ScryfallID: "aaa", PriceRetail: 1}}
	good := pricelistServer(t, entries)

	m := newTestManager(t, good.URL)
	_, err := m.Refresh(context.Background())
	require.NoError(t, err)

	// Point at a closed server: connection refused.
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	dead.Close()
	m.cfg.Endpoint = dead.URL

	count, err := m.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRefresh_InvalidDocumentNeverReachesDisk(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"meta":{"base_url":"x"}}`)) // no data array
	}))
	defer bad.Close()

	m := newTestManager(t, bad.URL)
	_, err := m.Refresh(context.Background())
	require.Error(t, err)

	_, statErr := os.Stat(m.snapshotPath())
	assert.True(t, os.IsNotExist(statErr))
}

func TestEnsureFresh_SkipsDownloadWhenFresh(t *testing.T) {
	requests := 0
	entries := []model.PricelistEntry{{ID: 1, ScryfallID: "aaa", PriceRetail: 5}}
	doc := snapshotJSON(t, entries)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write(doc)
	}))
	defer srv.Close()

	m := newTestManager(t, srv.URL)

	snap, err := m.EnsureFresh(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Data, 1)
	assert.Equal(t, 1, requests)

	snap, err = m.EnsureFresh(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Data, 1)
	assert.Equal(t, 1, requests, "fresh cache must be served from disk")
}

func TestEnsureFresh_SelfHealsCorruptSnapshot(t *testing.T) {
	entries := []model.PricelistEntry{{ID: 1, ScryfallID: "aaa", PriceRetail: 5}}
	srv := pricelistServer(t, entries)

	m := newTestManager(t, srv.URL)
	_, err := m.Refresh(context.Background())
	require.NoError(t, err)

	// Corrupt the snapshot while the meta still claims freshness.
	require.NoError(t, os.WriteFile(m.snapshotPath(), []byte("{truncated"), 0o644))

	snap, err := m.EnsureFresh(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Data, 1)
}

func TestBuildIndex_NonFoilWins(t *testing.T) {
	tests := []struct {
		name    string
		entries []model.PricelistEntry
	}{
		{
			name: "foil first",
			entries: []model.PricelistEntry{
				{ID: 1, ScryfallID: "X", IsFoil: true, PriceRetail: 10},
				{ID: 2, ScryfallID: "X", IsFoil: false, PriceRetail: 8},
			},
		},
		{
			name: "non-foil first",
			entries: []model.PricelistEntry{
				{ID: 1, ScryfallID: "X", IsFoil: false, PriceRetail: 8},
				{ID: 2, ScryfallID: "X", IsFoil: true, PriceRetail: 10},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := pricelistServer(t, tt.entries)
			m := newTestManager(t, srv.URL)

			index, err := m.BuildIndex(context.Background())
			require.NoError(t, err)
			require.Contains(t, index, "X")
			assert.False(t, index["X"].IsFoil)
			assert.Equal(t, 8.0, index["X"].PriceRetail)
		})
	}
}

func TestBuildIndex_SkipsEntriesWithoutScryfallID(t *testing.T) {
	srv := pricelistServer(t, []model.PricelistEntry{
		{ID: 1, ScryfallID: "", Name: "Booster Box", PriceRetail: 99.99},
		{ID: 2, ScryfallID: "aaa", PriceRetail: 1.50},
	})
	m := newTestManager(t, srv.URL)

	index, err := m.BuildIndex(context.Background())
	require.NoError(t, err)
	assert.Len(t, index, 1)
	assert.Contains(t, index, "aaa")
}

func TestBuildIndex_SingleVariantKeptAsIs(t *testing.T) {
	srv := pricelistServer(t, []model.PricelistEntry{
		{ID: 1, ScryfallID: "foil-only", IsFoil: true, PriceRetail: 42},
	})
	m := newTestManager(t, srv.URL)

	index, err := m.BuildIndex(context.Background())
	require.NoError(t, err)
	require.Contains(t, index, "foil-only")
	assert.True(t, index["foil-only"].IsFoil)
	assert.Equal(t, 42.0, index["foil-only"].PriceRetail)
}
