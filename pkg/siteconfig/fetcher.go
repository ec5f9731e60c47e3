package siteconfig

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/tenantsync/pkg/logger"
	"github.com/dmitrymomot/tenantsync/pkg/tenant"
)

// Fetcher is the single entry point for reading tenant configuration. It
// validates identifiers, enforces that documents belong to the requested
// tenant and decides when the source is consulted.
type Fetcher struct {
	src     Source
	cache   *Cache
	log     *slog.Logger
	metrics *Metrics
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

func WithLogger(l *slog.Logger) FetcherOption {
	return func(f *Fetcher) {
		if l != nil {
			f.log = l
		}
	}
}

func WithMetrics(m *Metrics) FetcherOption {
	return func(f *Fetcher) { f.metrics = m }
}

// NewFetcher creates a fetcher over src. A nil cache gets a private one with
// the default window.
func NewFetcher(src Source, cache *Cache, opts ...FetcherOption) *Fetcher {
	if cache == nil {
		cache = NewCache(DefaultFreshness)
	}
	f := &Fetcher{
		src:   src,
		cache: cache,
		log:   logger.Discard(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.log = f.log.With(logger.Component("fetcher"))
	return f
}

// Cache returns the cache the fetcher reads through.
func (f *Fetcher) Cache() *Cache { return f.cache }

// Cold performs exactly one source call without touching the cache. It is
// the path for server-side rendering where every request wants the current
// document.
func (f *Fetcher) Cold(ctx context.Context, id string) (*TenantConfig, error) {
	id, err := canonical(id)
	if err != nil {
		return nil, err
	}
	return f.load(ctx, id)
}

// Cached serves id from the cache while it is fresh and otherwise loads it
// once for all concurrent callers.
func (f *Fetcher) Cached(ctx context.Context, id string) (*TenantConfig, error) {
	id, err := canonical(id)
	if err != nil {
		return nil, err
	}
	doc, hit, err := f.cache.Get(ctx, id, f.load)
	f.metrics.observeCache(hit)
	return doc, err
}

// Refresh bypasses the cache, fetches id and stores the result. Sources with
// their own copy are invalidated first so the answer comes from upstream.
func (f *Fetcher) Refresh(ctx context.Context, id string) (*TenantConfig, error) {
	id, err := canonical(id)
	if err != nil {
		return nil, err
	}
	if inv, ok := f.src.(Invalidator); ok {
		if err := inv.Invalidate(ctx, id); err != nil {
			f.log.WarnContext(ctx, "source invalidation failed",
				logger.TenantID(id), logger.Error(err))
		}
	}
	return f.cache.Replace(ctx, id, f.load)
}

// Version asks the source for the current fingerprint of id.
func (f *Fetcher) Version(ctx context.Context, id string) (VersionInfo, error) {
	id, err := canonical(id)
	if err != nil {
		return VersionInfo{}, err
	}

	started := time.Now()
	info, err := f.src.Version(ctx, id)
	err = classify(err)
	f.metrics.observeSource("version", started, err)
	if err != nil {
		f.logFailure(ctx, "version", id, err)
		return VersionInfo{}, err
	}
	return info, nil
}

func (f *Fetcher) load(ctx context.Context, id string) (*TenantConfig, error) {
	started := time.Now()
	doc, err := f.src.Config(ctx, id)
	err = classify(err)
	if err == nil {
		err = claim(doc, id)
	}
	f.metrics.observeSource("config", started, err)
	if err != nil {
		f.logFailure(ctx, "config", id, err)
		return nil, err
	}

	f.log.DebugContext(ctx, "config fetched",
		logger.TenantID(id),
		logger.Fingerprint(string(doc.Fingerprint())),
		logger.Duration(time.Since(started)))
	return doc, nil
}

func (f *Fetcher) logFailure(ctx context.Context, op, id string, err error) {
	level := slog.LevelWarn
	if IsNotFound(err) {
		level = slog.LevelDebug
	}
	f.log.Log(ctx, level, "config source call failed",
		slog.String("op", op), logger.TenantID(id), logger.Error(err))
}

// claim ties doc to id. The document may name the tenant by id or by
// subdomain; an empty id is filled in.
func claim(doc *TenantConfig, id string) error {
	if doc == nil {
		return fmt.Errorf("%w: empty document for %q", ErrTransient, id)
	}
	switch {
	case doc.ID == "":
		doc.ID = id
	case tenant.Normalize(doc.ID) == id, tenant.Normalize(doc.Subdomain) == id:
	default:
		return fmt.Errorf("%w: %w: requested %q, got %q", ErrTransient, ErrMismatchedTenant, id, doc.ID)
	}
	return nil
}

func canonical(id string) (string, error) {
	c, err := tenant.Canonical(id)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidTenant, err)
	}
	return c, nil
}
