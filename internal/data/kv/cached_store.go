package kv

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Backend is what CachedStore wraps.
type Backend interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Close() error
}

// CachedStore is a write-through LRU in front of a Backend. Absent keys are
// not cached, so a value written by another process becomes visible on the
// next miss.
type CachedStore struct {
	inner Backend
	cache *lru.Cache[string, string]
}

func NewCachedStore(inner Backend, size int) (*CachedStore, error) {
	if size <= 0 {
		size = 64
	}
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("create store cache: %w", err)
	}
	return &CachedStore{inner: inner, cache: cache}, nil
}

func (c *CachedStore) Get(ctx context.Context, key string) (string, bool, error) {
	if v, ok := c.cache.Get(key); ok {
		return v, true, nil
	}
	v, ok, err := c.inner.Get(ctx, key)
	if err != nil || !ok {
		return v, ok, err
	}
	c.cache.Add(key, v)
	return v, true, nil
}

func (c *CachedStore) Set(ctx context.Context, key, value string) error {
	if err := c.inner.Set(ctx, key, value); err != nil {
		c.cache.Remove(key)
		return err
	}
	c.cache.Add(key, value)
	return nil
}

func (c *CachedStore) Remove(ctx context.Context, key string) error {
	c.cache.Remove(key)
	return c.inner.Remove(ctx, key)
}

func (c *CachedStore) Close() error {
	c.cache.Purge()
	return c.inner.Close()
}

// Len reports how many keys are currently cached.
func (c *CachedStore) Len() int {
	return c.cache.Len()
}

// Ping forwards to the wrapped store when it supports health checks.
func (c *CachedStore) Ping(ctx context.Context) error {
	if p, ok := c.inner.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}
