package pricelist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"mtg-price-api/internal/config"
	"mtg-price-api/internal/model"
)

const (
	snapshotFile = "pricelist.json"
	metaFile     = "meta.json"
)

// Manager owns the disk-backed Card Kingdom pricelist cache. It decides when
// the cached copy is stale, refreshes it from the remote endpoint with a
// fallback to stale data on failure, and derives a lookup index from it.
//
// Operations are safe to call from multiple goroutines but overlapping
// refreshes are not deduplicated: both callers may download the list. This is
// a tolerated inefficiency: refresh is idempotent, writes are atomic renames,
// and the last writer's snapshot/meta pair is internally consistent.
type Manager struct {
	cfg    config.PricelistConfig
	client *http.Client

	now func() time.Time
}

// NewManager creates a pricelist cache manager.
func NewManager(cfg config.PricelistConfig) *Manager {
	return &Manager{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.HTTPTimeout},
		now:    time.Now,
	}
}

func (m *Manager) snapshotPath() string {
	return filepath.Join(m.cfg.CacheDir, snapshotFile)
}

func (m *Manager) metaPath() string {
	return filepath.Join(m.cfg.CacheDir, metaFile)
}

// readMeta returns the cache metadata, or nil when the meta file is missing
// or unreadable. Corrupt metadata is treated as cache-absent, not as an
// error, so the next access self-heals with a fresh download.
func (m *Manager) readMeta() *model.CacheMeta {
	raw, err := os.ReadFile(m.metaPath())
	if err != nil {
		return nil
	}

	var meta model.CacheMeta
	if err := json.Unmarshal(raw, &meta); err != nil || meta.LastFetched.IsZero() {
		return nil
	}
	return &meta
}

// readSnapshot reads and parses the on-disk pricelist document.
func (m *Manager) readSnapshot() (*model.PricelistSnapshot, error) {
	raw, err := os.ReadFile(m.snapshotPath())
	if err != nil {
		return nil, fmt.Errorf("read cached pricelist: %w", err)
	}

	snap, err := decodeSnapshot(raw)
	if err != nil {
		return nil, fmt.Errorf("parse cached pricelist: %w", err)
	}
	return snap, nil
}

// decodeSnapshot parses and validates a pricelist document. A document
// without a data array is structurally invalid.
func decodeSnapshot(raw []byte) (*model.PricelistSnapshot, error) {
	var snap model.PricelistSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, err
	}
	if snap.Data == nil {
		return nil, errors.New("document has no data array")
	}
	return &snap, nil
}

// IsStale reports whether the cached pricelist needs a refresh: the cache is
// stale when no readable metadata exists or when the last fetch is older than
// the configured max age. An exactly max-age-old cache is still fresh.
func (m *Manager) IsStale() bool {
	meta := m.readMeta()
	if meta == nil {
		return true
	}
	return m.now().Sub(meta.LastFetched) > m.cfg.MaxAge
}

// Status returns the current cache metadata (nil when absent) and whether
// the cache is considered stale.
func (m *Manager) Status() (*model.CacheMeta, bool) {
	meta := m.readMeta()
	if meta == nil {
		return nil, true
	}
	return meta, m.now().Sub(meta.LastFetched) > m.cfg.MaxAge
}

// Refresh downloads the pricelist and persists it to disk, returning the
// number of entries. On a failed download it falls back to the existing
// on-disk snapshot if one exists: upstream being down must not make cached
// pricing unavailable. Without a prior snapshot the error is returned and no
// files are written. Snapshot and meta are only ever written together, in
// that order, each via an atomic rename.
func (m *Manager) Refresh(ctx context.Context) (int, error) {
	if err := os.MkdirAll(m.cfg.CacheDir, 0o755); err != nil {
		return 0, fmt.Errorf("create cache dir: %w", err)
	}

	log.Printf("[Pricelist] Downloading pricelist from %s...", m.cfg.Endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.cfg.Endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("build pricelist request: %w", err)
	}
	req.Header.Set("User-Agent", m.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return m.fallback(fmt.Errorf("download pricelist: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return m.fallback(fmt.Errorf("download pricelist: unexpected status %s", resp.Status))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return m.fallback(fmt.Errorf("read pricelist response: %w", err))
	}

	snap, err := decodeSnapshot(raw)
	if err != nil {
		// Structurally invalid documents never reach disk.
		return m.fallback(fmt.Errorf("invalid pricelist document: %w", err))
	}

	// Persist the raw document byte-for-byte so upstream metadata fields we
	// do not model survive the round trip. Snapshot first, then meta: a
	// reader must never see fresh metadata next to a missing snapshot.
	if err := writeFileAtomic(m.snapshotPath(), raw); err != nil {
		return 0, fmt.Errorf("write pricelist snapshot: %w", err)
	}

	meta := model.CacheMeta{
		LastFetched: m.now(),
		EntryCount:  len(snap.Data),
	}
	metaJSON, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("encode cache meta: %w", err)
	}
	if err := writeFileAtomic(m.metaPath(), metaJSON); err != nil {
		return 0, fmt.Errorf("write cache meta: %w", err)
	}

	log.Printf("[Pricelist] Cached %d entries.", len(snap.Data))
	return len(snap.Data), nil
}

// fallback serves the prior on-disk snapshot after a failed download. The
// old metadata is left untouched, so the cache keeps aging from the original
// fetch time instead of being reset to fresh.
func (m *Manager) fallback(cause error) (int, error) {
	log.Printf("[Pricelist] %v", cause)

	snap, err := m.readSnapshot()
	if err != nil {
		return 0, cause
	}

	log.Printf("[Pricelist] Using stale cache as fallback (%d entries).", len(snap.Data))
	return len(snap.Data), nil
}

// EnsureFresh refreshes the cache if stale, then reads the snapshot back
// from disk. The re-read is deliberate: even when Refresh fell back to stale
// data, the returned snapshot reflects exactly what is persisted. After a
// successful return a valid snapshot is guaranteed present on disk.
func (m *Manager) EnsureFresh(ctx context.Context) (*model.PricelistSnapshot, error) {
	if m.IsStale() {
		if _, err := m.Refresh(ctx); err != nil {
			return nil, err
		}
		return m.readSnapshot()
	}

	snap, err := m.readSnapshot()
	if err == nil {
		return snap, nil
	}

	// Meta claims fresh but the snapshot is unreadable: treat the cache as
	// absent and re-download instead of surfacing the corruption.
	log.Printf("[Pricelist] %v; re-downloading", err)
	if _, err := m.Refresh(ctx); err != nil {
		return nil, err
	}
	return m.readSnapshot()
}

// BuildIndex returns a scryfall ID → entry map over a fresh snapshot. The
// index holds one representative entry per ID: the first one seen, except
// that a non-foil entry always replaces a foil one, so when both variants
// exist the non-foil printing is the default. Entries without a scryfall ID
// are skipped. The index is rebuilt on every call, never mutated in place.
func (m *Manager) BuildIndex(ctx context.Context) (map[string]model.PricelistEntry, error) {
	snap, err := m.EnsureFresh(ctx)
	if err != nil {
		return nil, err
	}

	index := make(map[string]model.PricelistEntry)
	for _, entry := range snap.Data {
		if entry.ScryfallID == "" {
			continue
		}
		current, seen := index[entry.ScryfallID]
		if !seen {
			index[entry.ScryfallID] = entry
			continue
		}
		if !entry.IsFoil && current.IsFoil {
			index[entry.ScryfallID] = entry
		}
	}

	log.Printf("[Pricelist] Built lookup index with %d unique scryfall IDs.", len(index))
	return index, nil
}

// writeFileAtomic writes data to a temporary file in the target directory
// and renames it into place, so a concurrent reader never observes a
// half-written file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
