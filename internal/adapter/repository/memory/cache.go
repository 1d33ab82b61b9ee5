package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/iho/bookkeeper/internal/usecase"
)

// ErrCacheMiss is returned by Cache.Get for absent or expired keys.
var ErrCacheMiss = errors.New("memory: cache miss")

type cacheItem struct {
	value     []byte
	expiresAt time.Time
}

// Cache implements usecase.Cache with per-key TTL. Expired items are dropped
// lazily on read.
type Cache struct {
	mu    sync.Mutex
	items map[string]cacheItem
}

// NewCache creates an empty Cache.
func NewCache() *Cache {
	return &Cache{items: make(map[string]cacheItem)}
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	if !item.expiresAt.IsZero() && time.Now().After(item.expiresAt) {
		delete(c.items, key)
		return nil, ErrCacheMiss
	}

	out := make([]byte, len(item.value))
	copy(out, item.value)
	return out, nil
}

func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	item := cacheItem{value: make([]byte, len(value))}
	copy(item.value, value)
	if ttl > 0 {
		item.expiresAt = time.Now().Add(ttl)
	}
	c.items[key] = item
	return nil
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}

// IdempotencyStore implements usecase.IdempotencyStore in memory.
type IdempotencyStore struct {
	cache *Cache
}

// NewIdempotencyStore creates a new IdempotencyStore.
func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{cache: NewCache()}
}

func (s *IdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	s.cache.mu.Lock()
	defer s.cache.mu.Unlock()

	item, ok := s.cache.items[key]
	if ok && (item.expiresAt.IsZero() || time.Now().Before(item.expiresAt)) {
		out := make([]byte, len(item.value))
		copy(out, item.value)
		return true, out, nil
	}

	// A nil response claims the key with the shared placeholder, matching the
	// redis store's protocol.
	if response == nil {
		response = []byte(usecase.IdempotencyProcessing)
	}

	stored := cacheItem{value: make([]byte, len(response))}
	copy(stored.value, response)
	if ttl > 0 {
		stored.expiresAt = time.Now().Add(ttl)
	}
	s.cache.items[key] = stored
	return false, nil, nil
}

func (s *IdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	return s.cache.Set(ctx, key, response, ttl)
}
