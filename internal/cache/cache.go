package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"
)

// Store is a byte-oriented key/value backend with per-entry expiry.
// Get returns nil, nil on a miss.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Cache stores JSON-encoded values under a key prefix with a fixed TTL.
type Cache struct {
	store  Store
	prefix string
	ttl    time.Duration
}

// New constructs a Cache over store. Keys are namespaced as prefix + ":" + key.
func New(store Store, prefix string, ttl time.Duration) *Cache {
	return &Cache{store: store, prefix: prefix, ttl: ttl}
}

// key returns the namespaced key for k.
func (c *Cache) key(k string) string {
	return c.prefix + ":" + strings.ToLower(strings.TrimSpace(k))
}

// Get decodes the cached value for k into dst.
// Returns false, nil on a cache miss (not an error).
func (c *Cache) Get(ctx context.Context, k string, dst any) (bool, error) {
	b, err := c.store.Get(ctx, c.key(k))
	if err != nil {
		return false, fmt.Errorf("cache get for %s: %w", c.key(k), err)
	}
	if b == nil {
		return false, nil
	}

	if err := json.Unmarshal(b, dst); err != nil {
		return false, fmt.Errorf("unmarshaling cached value for %s: %w", c.key(k), err)
	}

	return true, nil
}

// Set stores v with the configured TTL. A nil value is a no-op.
func (c *Cache) Set(ctx context.Context, k string, v any) error {
	if isNil(v) {
		return nil
	}

	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling value for %s: %w", c.key(k), err)
	}

	if err := c.store.Set(ctx, c.key(k), b, c.ttl); err != nil {
		return fmt.Errorf("cache set for %s: %w", c.key(k), err)
	}

	return nil
}

// Delete removes the cached entry for k.
func (c *Cache) Delete(ctx context.Context, k string) error {
	if err := c.store.Delete(ctx, c.key(k)); err != nil {
		return fmt.Errorf("cache delete for %s: %w", c.key(k), err)
	}
	return nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
