package client

import (
	"context"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"treewatch/config"
)

// Cache stores raw response bodies by key. Implementations must be safe for
// concurrent use. Misses and backend failures both report ok=false.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, val []byte)
	// InvalidatePrefix drops every entry whose key starts with prefix. An
	// empty prefix clears the cache.
	InvalidatePrefix(ctx context.Context, prefix string)
}

// CacheKey builds the key of a GET request: the endpoint path followed by
// the non-empty query values in key order
func CacheKey(path string, query url.Values) string {
	active := url.Values{}
	for k, vs := range query {
		for _, v := range vs {
			if v != "" {
				active.Add(k, v)
			}
		}
	}
	if len(active) == 0 {
		return path
	}
	for k := range active {
		sort.Strings(active[k])
	}
	// Encode sorts by key
	return path + "?" + active.Encode()
}

type memoryEntry struct {
	val     []byte
	expires time.Time
}

// MemoryCache is the default in-process cache
type MemoryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]memoryEntry
}

// NewMemoryCache returns a cache whose entries expire after ttl; zero keeps
// them until invalidated
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{ttl: ttl, entries: make(map[string]memoryEntry)}
}

func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !entry.expires.IsZero() && time.Now().After(entry.expires) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, false
	}
	return entry.val, true
}

func (m *MemoryCache) Set(_ context.Context, key string, val []byte) {
	entry := memoryEntry{val: val}
	if m.ttl > 0 {
		entry.expires = time.Now().Add(m.ttl)
	}
	m.mu.Lock()
	m.entries[key] = entry
	m.mu.Unlock()
}

func (m *MemoryCache) InvalidatePrefix(_ context.Context, prefix string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
}

// Len reports the number of cached entries
func (m *MemoryCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

// RedisCache shares cached responses between client processes
type RedisCache struct {
	client    *redis.Client
	namespace string
	ttl       time.Duration
	logger    *logrus.Entry
}

func NewRedisCache(cfg config.RedisConfig, namespace string, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Address,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		namespace: namespace,
		ttl:       ttl,
		logger:    logrus.WithField("component", "client_cache"),
	}
}

func (r *RedisCache) key(k string) string {
	return r.namespace + ":" + k
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if err != redis.Nil {
			r.logger.WithError(err).Warn("Cache read failed")
		}
		return nil, false
	}
	return val, true
}

func (r *RedisCache) Set(ctx context.Context, key string, val []byte) {
	if err := r.client.Set(ctx, r.key(key), val, r.ttl).Err(); err != nil {
		r.logger.WithError(err).Warn("Cache write failed")
	}
}

func (r *RedisCache) InvalidatePrefix(ctx context.Context, prefix string) {
	iter := r.client.Scan(ctx, 0, globEscaper.Replace(r.key(prefix))+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		r.logger.WithError(err).Warn("Cache scan failed")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		r.logger.WithError(err).Warn("Cache invalidation failed")
	}
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
