package store

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// CachedStore is a read-through LRU in front of a slower Store. Files are
// immutable, so a cached entry is always current; the TTL only bounds memory.
type CachedStore struct {
	next  Store
	cache *expirable.LRU[string, *StoredFile]
}

// NewCachedStore wraps next with an LRU of maxSize entries and the given TTL.
func NewCachedStore(next Store, maxSize int, ttl time.Duration) *CachedStore {
	return &CachedStore{
		next:  next,
		cache: expirable.NewLRU[string, *StoredFile](maxSize, nil, ttl),
	}
}

func (c *CachedStore) Put(ctx context.Context, f NewFile) (string, error) {
	return c.next.Put(ctx, f)
}

func (c *CachedStore) Get(ctx context.Context, id string) (*StoredFile, error) {
	if !ValidID(id) {
		return nil, ErrNotFound
	}
	if f, ok := c.cache.Get(id); ok {
		out := *f
		return &out, nil
	}

	f, err := c.next.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	stored := *f
	c.cache.Add(id, &stored)
	return f, nil
}

func (c *CachedStore) Exists(ctx context.Context, id string) (bool, error) {
	if !ValidID(id) {
		return false, nil
	}
	if c.cache.Contains(id) {
		return true, nil
	}
	return c.next.Exists(ctx, id)
}

func (c *CachedStore) Count(ctx context.Context) (int64, error) {
	return c.next.Count(ctx)
}

// Len returns the number of cached entries.
func (c *CachedStore) Len() int {
	return c.cache.Len()
}
