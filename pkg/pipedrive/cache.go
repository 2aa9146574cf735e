package pipedrive

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jmanprz/pipedrive-client/internal/constants"
)

// Static errors for err113 compliance.
var (
	ErrCacheKeyNotFound  = errors.New("key not found")
	ErrCacheEntryExpired = errors.New("entry expired")
	ErrCacheValueTooBig  = errors.New("value exceeds maximum cache size")
)

// Cache is a pluggable backend for read-through response caching.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get retrieves an entry, failing when the key is absent or the
	// entry expired.
	Get(ctx context.Context, key string) (*CacheEntry, error)

	// Set stores an entry under the key.
	Set(ctx context.Context, key string, entry *CacheEntry) error

	// Delete removes the key.
	Delete(ctx context.Context, key string) error

	// Clear removes every entry.
	Clear(ctx context.Context) error

	// Has reports whether the key holds an unexpired entry.
	Has(ctx context.Context, key string) bool
}

// CacheEntry is one cached response body with its expiry.
type CacheEntry struct {
	Data      []byte    `json:"data"`
	ExpiresAt time.Time `json:"expires_at"`
	ETag      string    `json:"etag,omitempty"`
}

// Expired reports whether the entry's lifetime has passed.
func (e *CacheEntry) Expired() bool {
	return time.Now().After(e.ExpiresAt)
}

// CacheOptions are the common knobs applied to any backend.
type CacheOptions struct {
	// DefaultTTL is the lifetime used when a caller passes zero.
	DefaultTTL time.Duration

	// MinTTL is the floor applied to any requested lifetime.
	MinTTL time.Duration

	// MaxValueSize rejects values larger than this many bytes.
	MaxValueSize int
}

// DefaultCacheOptions returns the default common options.
func DefaultCacheOptions() *CacheOptions {
	return &CacheOptions{
		DefaultTTL:   constants.DefaultCacheTTL,
		MinTTL:       constants.CacheMinTTL,
		MaxValueSize: constants.MaxCacheValueSize,
	}
}

// MemoryCache is an in-process Cache with a bounded entry count.
// When full it evicts the entry closest to expiry.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*CacheEntry
	maxSize int
}

// NewMemoryCache creates a memory cache holding at most maxSize
// entries.
func NewMemoryCache(maxSize int) *MemoryCache {
	if maxSize <= 0 {
		maxSize = constants.DefaultCacheSize
	}

	return &MemoryCache{
		entries: make(map[string]*CacheEntry),
		maxSize: maxSize,
	}
}

// Get retrieves an entry, failing when absent or expired.
func (c *MemoryCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, ErrCacheKeyNotFound
	}

	if entry.Expired() {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()

		return nil, ErrCacheEntryExpired
	}

	return entry, nil
}

// Set stores an entry, evicting the soonest-expiring one when full.
func (c *MemoryCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	c.entries[key] = entry

	return nil
}

// Delete removes the key.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)

	return nil
}

// Clear removes every entry.
func (c *MemoryCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*CacheEntry)

	return nil
}

// Has reports whether the key holds an unexpired entry.
func (c *MemoryCache) Has(ctx context.Context, key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]

	return ok && !entry.Expired()
}

// Cleanup removes expired entries.
func (c *MemoryCache) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, entry := range c.entries {
		if entry.Expired() {
			delete(c.entries, key)
		}
	}
}

// evictOldest drops the entry closest to expiry. Caller holds the
// lock.
func (c *MemoryCache) evictOldest() {
	var (
		oldestKey string
		oldestAt  time.Time
	)

	for key, entry := range c.entries {
		if oldestKey == "" || entry.ExpiresAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.ExpiresAt
		}
	}

	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

// CacheStats tracks cache effectiveness.
type CacheStats struct {
	Hits    int64 `json:"hits"    yaml:"hits"`
	Misses  int64 `json:"misses"  yaml:"misses"`
	Sets    int64 `json:"sets"    yaml:"sets"`
	Deletes int64 `json:"deletes" yaml:"deletes"`
}

// GetHitRate returns hits over total lookups, 0 when none happened.
func (s *CacheStats) GetHitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}

	return float64(s.Hits) / float64(total)
}

// CacheManager wraps a Cache with key construction, TTL policy and
// hit/miss accounting.
type CacheManager struct {
	cache   Cache
	options *CacheOptions
	mu      sync.Mutex
	stats   CacheStats
}

// NewCacheManager creates a manager over the backend. A nil options
// uses DefaultCacheOptions.
func NewCacheManager(cache Cache, options *CacheOptions) *CacheManager {
	if options == nil {
		options = DefaultCacheOptions()
	}

	return &CacheManager{
		cache:   cache,
		options: options,
	}
}

// GetCacheKey builds a deterministic key from the method, path and
// query parameters.
func (m *CacheManager) GetCacheKey(method, path string, params map[string]string) string {
	if len(params) == 0 {
		return method + ":" + path
	}

	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+params[key])
	}

	return method + ":" + path + ":" + strings.Join(pairs, "&")
}

// Get retrieves cached data, counting the hit or miss.
func (m *CacheManager) Get(ctx context.Context, key string) ([]byte, error) {
	if m.cache == nil {
		return nil, ErrCacheKeyNotFound
	}

	entry, err := m.cache.Get(ctx, key)
	if err != nil {
		m.mu.Lock()
		m.stats.Misses++
		m.mu.Unlock()

		return nil, err
	}

	m.mu.Lock()
	m.stats.Hits++
	m.mu.Unlock()

	return entry.Data, nil
}

// Set stores data under the key for the given lifetime.
func (m *CacheManager) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return m.SetWithETag(ctx, key, data, "", ttl)
}

// SetWithETag stores data together with its entity tag.
func (m *CacheManager) SetWithETag(ctx context.Context, key string, data []byte, etag string, ttl time.Duration) error {
	if m.cache == nil {
		return nil
	}

	if m.options.MaxValueSize > 0 && len(data) > m.options.MaxValueSize {
		return ErrCacheValueTooBig
	}

	if ttl <= 0 {
		ttl = m.options.DefaultTTL
	}

	if ttl < m.options.MinTTL {
		ttl = m.options.MinTTL
	}

	entry := &CacheEntry{
		Data:      data,
		ExpiresAt: time.Now().Add(ttl),
		ETag:      etag,
	}

	err := m.cache.Set(ctx, key, entry)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.stats.Sets++
	m.mu.Unlock()

	return nil
}

// Delete removes the key.
func (m *CacheManager) Delete(ctx context.Context, key string) error {
	if m.cache == nil {
		return nil
	}

	err := m.cache.Delete(ctx, key)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.stats.Deletes++
	m.mu.Unlock()

	return nil
}

// GetStats returns a snapshot of the counters.
func (m *CacheManager) GetStats() CacheStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.stats
}

// CachingPolicy decides which responses are cacheable.
type CachingPolicy struct {
	// CacheGET enables caching of GET responses.
	CacheGET bool

	// CachePOST enables caching of POST responses.
	CachePOST bool

	// CacheErrors enables caching of non-2xx responses.
	CacheErrors bool

	// IncludePaths, when non-empty, restricts caching to paths with
	// one of these prefixes.
	IncludePaths []string

	// ExcludePaths disables caching for paths with one of these
	// prefixes.
	ExcludePaths []string
}

// DefaultCachingPolicy caches successful GET responses, except the
// recents feed whose whole point is change detection.
func DefaultCachingPolicy() *CachingPolicy {
	return &CachingPolicy{
		CacheGET:     true,
		ExcludePaths: []string{"recents"},
	}
}

// ShouldCache reports whether a response is cacheable under the
// policy.
func (p *CachingPolicy) ShouldCache(method, path string, statusCode int) bool {
	switch method {
	case "GET":
		if !p.CacheGET {
			return false
		}
	case "POST":
		if !p.CachePOST {
			return false
		}
	default:
		return false
	}

	if !p.CacheErrors && (statusCode < 200 || statusCode >= 300) {
		return false
	}

	for _, prefix := range p.ExcludePaths {
		if strings.HasPrefix(strings.TrimPrefix(path, "/"), strings.TrimPrefix(prefix, "/")) {
			return false
		}
	}

	if len(p.IncludePaths) > 0 {
		for _, prefix := range p.IncludePaths {
			if strings.HasPrefix(strings.TrimPrefix(path, "/"), strings.TrimPrefix(prefix, "/")) {
				return true
			}
		}

		return false
	}

	return true
}
