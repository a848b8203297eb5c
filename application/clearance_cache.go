package application

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

var Now = time.Now // used to mock time in tests

// ClearanceCache remembers addresses recently proven clean by the scoring api. It is never the
// source of truth: it may be purged at any time, and backend errors only cost an extra api call.
type ClearanceCache interface {
	// Get reports whether the id holds a clean entry that has not expired yet
	Get(ctx context.Context, id string) (bool, error)
	// Put stores a clean entry that expires after ttl
	Put(ctx context.Context, id string, ttl time.Duration) error
	Purge(ctx context.Context) error
}

// MemoryClearanceCache is a process-local clearance cache, bounded to a fixed number of entries
// with least-recently-used eviction. Expired entries are treated as misses on read.
type MemoryClearanceCache struct {
	lru *lru.Cache[string, time.Time]
}

func NewMemoryClearanceCache(size int) (*MemoryClearanceCache, error) {
	l, err := lru.New[string, time.Time](size)
	if err != nil {
		return nil, err
	}
	return &MemoryClearanceCache{lru: l}, nil
}

func (c *MemoryClearanceCache) Get(ctx context.Context, id string) (bool, error) {
	expiresAt, ok := c.lru.Get(id)
	if !ok {
		return false, nil
	}
	return Now().Before(expiresAt), nil
}

func (c *MemoryClearanceCache) Put(ctx context.Context, id string, ttl time.Duration) error {
	c.lru.Add(id, Now().Add(ttl))
	return nil
}

func (c *MemoryClearanceCache) Purge(ctx context.Context) error {
	c.lru.Purge()
	return nil
}

func (c *MemoryClearanceCache) Len() int {
	return c.lru.Len()
}
