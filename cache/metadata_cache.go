// Package cache holds the filter metadata cache. Entries are keyed by scope:
// GlobalScope for the all-categories panel, otherwise the category id.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/Modeva-Ecommerce/modeva-catalog-filters/models"
	"github.com/google/uuid"
)

const (
	DefaultTTL  = 5 * time.Minute
	GlobalScope = "global"
)

// MetadataCache stores assembled filter metadata per scope.
type MetadataCache interface {
	Get(ctx context.Context, scope string) (*models.FilterMetadata, bool)
	Set(ctx context.Context, scope string, md *models.FilterMetadata)
	// Invalidate drops every scope (call on any sync or facet write).
	Invalidate(ctx context.Context) error
}

// ScopeKey renders an optional category as a cache scope.
func ScopeKey(categoryID *uuid.UUID) string {
	if categoryID == nil || *categoryID == uuid.Nil {
		return GlobalScope
	}
	return categoryID.String()
}

// ── In-process TTL cache ─────────────────────────────────────────────────────

type entry struct {
	data      *models.FilterMetadata
	fetchedAt time.Time
}

type MemoryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]entry
	now     func() time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryCache{
		ttl:     ttl,
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, scope string) (*models.FilterMetadata, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[scope]
	if ok && c.now().Sub(e.fetchedAt) < c.ttl {
		return e.data, true
	}
	return nil, false
}

func (c *MemoryCache) Set(_ context.Context, scope string, md *models.FilterMetadata) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[scope] = entry{data: md, fetchedAt: c.now()}
}

func (c *MemoryCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
	return nil
}

// ── No-op cache ──────────────────────────────────────────────────────────────

// Disabled never stores anything; used when caching is turned off.
type Disabled struct{}

func (Disabled) Get(context.Context, string) (*models.FilterMetadata, bool) { return nil, false }
func (Disabled) Set(context.Context, string, *models.FilterMetadata)        {}
func (Disabled) Invalidate(context.Context) error                           { return nil }
