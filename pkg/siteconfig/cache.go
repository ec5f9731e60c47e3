package siteconfig

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/sync/singleflight"
)

// DefaultFreshness is how long a cached document is served without asking
// the source again.
const DefaultFreshness = 60 * time.Second

// LoadFunc fetches one document on a cache miss.
type LoadFunc func(ctx context.Context, id string) (*TenantConfig, error)

// Cache holds recently fetched documents for a freshness window. Reads are
// concurrent; loads for the same id are collapsed into one call. Errors are
// never stored.
type Cache struct {
	window time.Duration
	items  *ttlcache.Cache[string, *TenantConfig]
	group  singleflight.Group
}

// NewCache creates a cache with the given freshness window. A non-positive
// window falls back to DefaultFreshness. Call Close to stop the expiry loop.
func NewCache(window time.Duration) *Cache {
	if window <= 0 {
		window = DefaultFreshness
	}
	items := ttlcache.New(
		ttlcache.WithTTL[string, *TenantConfig](window),
		ttlcache.WithDisableTouchOnHit[string, *TenantConfig](),
	)
	go items.Start()
	return &Cache{window: window, items: items}
}

// Window returns the freshness window.
func (c *Cache) Window() time.Duration { return c.window }

// Get returns the cached document for id, or loads it. hit reports whether
// the value came from the cache. The load runs detached from ctx
// cancellation so one impatient caller does not fail the others sharing it.
func (c *Cache) Get(ctx context.Context, id string, load LoadFunc) (*TenantConfig, bool, error) {
	if doc, ok := c.Peek(id); ok {
		return doc, true, nil
	}

	v, err, _ := c.group.Do(id, func() (any, error) {
		if doc, ok := c.Peek(id); ok {
			return doc, nil
		}
		doc, err := load(context.WithoutCancel(ctx), id)
		if err != nil {
			return nil, err
		}
		c.Set(id, doc)
		return doc, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.(*TenantConfig), false, nil
}

// Replace loads id unconditionally and stores the result. Concurrent Replace
// and Get calls for the same id share a single load.
func (c *Cache) Replace(ctx context.Context, id string, load LoadFunc) (*TenantConfig, error) {
	v, err, _ := c.group.Do(id, func() (any, error) {
		doc, err := load(context.WithoutCancel(ctx), id)
		if err != nil {
			return nil, err
		}
		c.Set(id, doc)
		return doc, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*TenantConfig), nil
}

// Peek returns a fresh entry without loading.
func (c *Cache) Peek(id string) (*TenantConfig, bool) {
	item := c.items.Get(id)
	if item == nil || item.IsExpired() {
		return nil, false
	}
	return item.Value(), true
}

// Set stores doc for id, restarting its freshness window.
func (c *Cache) Set(id string, doc *TenantConfig) {
	c.items.Set(id, doc, ttlcache.DefaultTTL)
}

func (c *Cache) Invalidate(id string) {
	c.items.Delete(id)
}

func (c *Cache) Len() int {
	return c.items.Len()
}

// Close stops the background expiry loop. The cache stays readable.
func (c *Cache) Close() {
	c.items.Stop()
}
