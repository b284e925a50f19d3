package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pscheid92/nlsentiment/internal/adapter/metrics"
	"github.com/pscheid92/nlsentiment/internal/domain"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const (
	settingsCacheTTL = 1 * time.Hour
	settingsCacheKey = "settings_cache:" + domain.SettingsName

	layerMemory = "memory"
	layerRedis  = "redis"
)

// SettingsCacheRepo implements domain.SettingsSource with an in-memory L1,
// Redis L2 and PostgreSQL as the source of truth. Concurrent misses are
// collapsed into one lookup.
type SettingsCacheRepo struct {
	rdb      goredis.Cmdable
	settings domain.SettingsRepository
	mem      *memoryCache
	group    singleflight.Group
	metrics  *metrics.CacheMetrics
}

func NewSettingsCacheRepo(rdb goredis.Cmdable, settings domain.SettingsRepository, memCacheTTL time.Duration, m *metrics.CacheMetrics) *SettingsCacheRepo {
	return &SettingsCacheRepo{
		rdb:      rdb,
		settings: settings,
		mem:      newMemoryCache(memCacheTTL),
		metrics:  m,
	}
}

// GetSettings returns the effective settings. Before the first save this is
// domain.DefaultSettings().
func (r *SettingsCacheRepo) GetSettings(ctx context.Context) (domain.Settings, error) {
	// Layer 1: in-memory cache
	if settings, ok := r.mem.get(domain.SettingsName); ok {
		r.hit(layerMemory)
		return settings.Clone(), nil
	}
	r.miss(layerMemory)

	v, err, _ := r.group.Do(domain.SettingsName, func() (any, error) {
		return r.load(ctx)
	})
	if err != nil {
		return domain.Settings{}, err
	}
	return v.(domain.Settings).Clone(), nil
}

func (r *SettingsCacheRepo) load(ctx context.Context) (domain.Settings, error) {
	// Layer 2: Redis cache
	if settings, ok := r.getCached(ctx); ok {
		r.hit(layerRedis)
		r.mem.set(domain.SettingsName, settings)
		return settings, nil
	}
	r.miss(layerRedis)

	// Layer 3: PostgreSQL
	stored, err := r.settings.Get(ctx)
	var settings domain.Settings
	switch {
	case errors.Is(err, domain.ErrSettingsNotFound):
		settings = domain.DefaultSettings()
	case err != nil:
		return domain.Settings{}, fmt.Errorf("settings lookup failed: %w", err)
	default:
		settings = *stored
	}

	r.mem.set(domain.SettingsName, settings)
	r.writeCache(ctx, settings)
	return settings, nil
}

// InvalidateCache evicts the settings from the in-memory cache and Redis.
func (r *SettingsCacheRepo) InvalidateCache(ctx context.Context) error {
	r.invalidateLocal()

	if err := r.rdb.Del(ctx, settingsCacheKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate settings cache: %w", err)
	}
	return nil
}

func (r *SettingsCacheRepo) invalidateLocal() {
	r.mem.invalidate(domain.SettingsName)
	r.group.Forget(domain.SettingsName)
	if r.metrics != nil {
		r.metrics.Invalidations.Inc()
	}
}

func (r *SettingsCacheRepo) writeCache(ctx context.Context, settings domain.Settings) {
	encoded, err := json.Marshal(settings)
	if err != nil {
		slog.WarnContext(ctx, "Failed to marshal settings for Redis cache", "error", err)
		return
	}

	if err := r.rdb.Set(ctx, settingsCacheKey, encoded, settingsCacheTTL).Err(); err != nil {
		slog.WarnContext(ctx, "Failed to populate Redis settings cache", "error", err)
	}
}

func (r *SettingsCacheRepo) getCached(ctx context.Context) (domain.Settings, bool) {
	data, err := r.rdb.Get(ctx, settingsCacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			slog.WarnContext(ctx, "Redis settings cache GET failed", "error", err)
		}
		return domain.Settings{}, false
	}

	var settings domain.Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		slog.WarnContext(ctx, "Failed to unmarshal cached settings", "error", err)
		return domain.Settings{}, false
	}
	if settings.ContentTypes == nil {
		settings.ContentTypes = map[string][]string{}
	}
	return settings, true
}

func (r *SettingsCacheRepo) hit(layer string) {
	if r.metrics != nil {
		r.metrics.Hits.WithLabelValues(layer).Inc()
	}
}

func (r *SettingsCacheRepo) miss(layer string) {
	if r.metrics != nil {
		r.metrics.Misses.WithLabelValues(layer).Inc()
	}
}

// memoryCache is an in-memory L1 cache with TTL-based expiry.
type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryCacheEntry
	ttl     time.Duration
}

type memoryCacheEntry struct {
	settings  domain.Settings
	expiresAt time.Time
}

func newMemoryCache(ttl time.Duration) *memoryCache {
	return &memoryCache{
		entries: make(map[string]memoryCacheEntry),
		ttl:     ttl,
	}
}

func (c *memoryCache) get(key string) (domain.Settings, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return domain.Settings{}, false
	}
	return entry.settings, true
}

func (c *memoryCache) set(key string, settings domain.Settings) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = memoryCacheEntry{
		settings:  settings.Clone(),
		expiresAt: time.Now().Add(c.ttl),
	}
}

func (c *memoryCache) invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}
