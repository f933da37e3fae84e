// Package cache provides the two-tier expiring cache for remote data.
//
// # Tiers
//
// The memory tier is authoritative for the lifetime of the process. The
// durable tier (a store.Store) mirrors every write under a namespaced
// key ("cache_<key>") and is consulted only on a memory miss, the cold
// start path, after which the entry is promoted back into memory.
//
// # Expiry
//
// An entry is valid iff now - timestamp <= expiresIn. Expiry is
// evaluated lazily at access time; there is no background sweep, so an
// entry that is never read can outlive its nominal expiration in the
// durable tier. That is intentional: it avoids timer wakeups on device.
// Expired entries found at either tier are evicted from both on read.
//
// # Failure policy
//
// Durable-tier failures never fail the calling operation; they are
// logged and the memory tier carries on. Only the memory tier is
// required for correct behavior within one process lifetime.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ecotrace/ecotrace-go/internal/core"
	"github.com/ecotrace/ecotrace-go/internal/store"
)

// entry is the serialized cache record. Timestamps are epoch
// milliseconds for compatibility with the legacy on-device format.
type entry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
	ExpiresIn int64           `json:"expiresIn"`
}

// expired reports whether the entry is past its expiration at now.
func (e entry) expired(now time.Time) bool {
	return now.UnixMilli()-e.Timestamp > e.ExpiresIn
}

// Manager is the two-tier expiring cache. Construct one per process and
// pass it by reference; it is safe for concurrent use.
type Manager struct {
	durable   store.Store
	durations core.CacheDurations
	logger    *slog.Logger

	mu      sync.Mutex
	entries map[string]entry

	now func() time.Time
}

// NewManager creates a cache manager mirroring into the given durable store.
func NewManager(durable store.Store, durations core.CacheDurations, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		durable:   durable,
		durations: durations,
		logger:    logger,
		entries:   make(map[string]entry),
		now:       time.Now,
	}
}

// Duration resolves a tier name to its configured duration.
func (m *Manager) Duration(t Tier) time.Duration {
	switch t {
	case Short:
		return m.durations.Short
	case Long:
		return m.durations.Long
	case VeryLong:
		return m.durations.VeryLong
	default:
		return m.durations.Medium
	}
}

// Set stores data under key with the given expiration. The memory tier
// is written immediately; the durable mirror failing is logged, not
// surfaced, because memory stays authoritative for this process.
func (m *Manager) Set(ctx context.Context, key string, data any, expiresIn time.Duration) {
	raw, err := json.Marshal(data)
	if err != nil {
		m.logger.Error("cache set: encode failed", "key", key, "error", err)
		return
	}

	e := entry{
		Data:      raw,
		Timestamp: m.now().UnixMilli(),
		ExpiresIn: expiresIn.Milliseconds(),
	}

	serialized, err := json.Marshal(e)
	if err != nil {
		m.logger.Error("cache set: encode entry failed", "key", key, "error", err)
		return
	}

	// Both tiers are written under the lock so racing writers commit in
	// the same order to memory and to the durable mirror.
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = e
	if err := m.durable.Set(ctx, Namespace+key, string(serialized)); err != nil {
		m.logger.Warn("cache set: durable mirror failed", "key", key, "error", err)
	}
}

// Get loads the value for key into out (a pointer). It returns false
// when the key is absent or expired; expired entries are evicted from
// both tiers as a side effect. Durable-tier read failures are logged
// and treated as absent.
func (m *Manager) Get(ctx context.Context, key string, out any) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		// Cold start path: fall back to the durable tier.
		serialized, found, err := m.durable.Get(ctx, Namespace+key)
		if err != nil {
			m.logger.Warn("cache get: durable read failed", "key", key, "error", err)
			return false
		}
		if !found {
			return false
		}
		if err := json.Unmarshal([]byte(serialized), &e); err != nil {
			m.logger.Warn("cache get: corrupt durable entry", "key", key, "error", err)
			m.removeDurable(ctx, key)
			return false
		}
		if e.expired(m.now()) {
			m.removeDurable(ctx, key)
			return false
		}
		// Promote into memory.
		m.entries[key] = e
	}

	if e.expired(m.now()) {
		delete(m.entries, key)
		m.removeDurable(ctx, key)
		return false
	}

	if out == nil {
		return true
	}
	if err := json.Unmarshal(e.Data, out); err != nil {
		m.logger.Error("cache get: decode failed", "key", key, "error", err)
		return false
	}
	return true
}

// Has reports whether key holds an unexpired value. It performs the
// same eviction side effects as Get.
func (m *Manager) Has(ctx context.Context, key string) bool {
	return m.Get(ctx, key, nil)
}

// Delete removes key from both tiers. Durable failures are logged.
func (m *Manager) Delete(ctx context.Context, key string) {
	m.mu.Lock()
	delete(m.entries, key)
	m.removeDurable(ctx, key)
	m.mu.Unlock()
}

// Clear empties the memory tier and removes every namespaced entry from
// the durable store in one batch.
func (m *Manager) Clear(ctx context.Context) {
	m.mu.Lock()
	m.entries = make(map[string]entry)
	m.mu.Unlock()

	keys, err := m.durable.Keys(ctx)
	if err != nil {
		m.logger.Warn("cache clear: key enumeration failed", "error", err)
		return
	}
	var cacheKeys []string
	for _, k := range keys {
		if strings.HasPrefix(k, Namespace) {
			cacheKeys = append(cacheKeys, k)
		}
	}
	if err := m.durable.MultiRemove(ctx, cacheKeys); err != nil {
		m.logger.Warn("cache clear: durable removal failed",
			"attempted", len(cacheKeys), "error", err)
	}
}

// Size returns the number of entries in the memory tier.
func (m *Manager) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// removeDurable deletes the mirrored entry, logging failures.
// Callers hold m.mu.
func (m *Manager) removeDurable(ctx context.Context, key string) {
	if err := m.durable.Remove(ctx, Namespace+key); err != nil {
		m.logger.Warn("cache: durable removal failed", "key", key, "error", err)
	}
}

// MigrateLegacy imports entries persisted under the pre-namespace
// storage keys into the cache and deletes the legacy entries. It runs
// once at startup, before the first cache read, and is idempotent: a
// target key that already holds data is not overwritten, but the legacy
// entry is still deleted. Per-entry failures are logged and migration
// continues with the next entry.
func (m *Manager) MigrateLegacy(ctx context.Context) {
	migrated := 0
	for _, mig := range legacyMigrations {
		serialized, found, err := m.durable.Get(ctx, mig.Legacy)
		if err != nil {
			m.logger.Warn("legacy migration: read failed",
				"legacyKey", mig.Legacy, "error", err)
			continue
		}
		if !found {
			continue
		}

		var parsed json.RawMessage
		if err := json.Unmarshal([]byte(serialized), &parsed); err != nil {
			m.logger.Warn("legacy migration: corrupt entry",
				"legacyKey", mig.Legacy, "error", err)
		} else if !m.Has(ctx, mig.Key) {
			m.Set(ctx, mig.Key, parsed, m.Duration(mig.Tier))
			migrated++
		}

		// Remove the legacy entry whether or not it was imported.
		if err := m.durable.Remove(ctx, mig.Legacy); err != nil {
			m.logger.Warn("legacy migration: cleanup failed",
				"legacyKey", mig.Legacy, "error", err)
		}
	}
	m.logger.Debug("legacy cache migration completed", "migrated", migrated)
}
