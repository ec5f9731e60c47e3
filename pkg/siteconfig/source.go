package siteconfig

import "context"

// Source is the read contract of the config service: the full document and
// a cheap version probe for one canonical tenant id. Errors are classified
// with ErrNotFound or ErrTransient.
type Source interface {
	Config(ctx context.Context, id string) (*TenantConfig, error)
	Version(ctx context.Context, id string) (VersionInfo, error)
}

// Invalidator is implemented by sources that keep their own copy of
// documents. Fetcher.Refresh calls it before bypassing the cache.
type Invalidator interface {
	Invalidate(ctx context.Context, id string) error
}
