// Package siteconfig reads per-tenant storefront configuration.
//
// A Source answers two questions for a canonical tenant id: the full
// TenantConfig document and a cheap VersionInfo probe. Client talks to the
// remote config service; MemorySource, FileSource and PostgresSource serve
// documents locally; RedisSource puts the shared Redis tier in front of any
// of them.
//
// Fetcher is what the rest of the system calls. It validates ids, checks
// that a document belongs to the tenant it was requested for and picks the
// read path:
//
//	fetcher := siteconfig.NewFetcher(siteconfig.NewClient(url), siteconfig.NewCache(time.Minute))
//	doc, err := fetcher.Cold(ctx, "acme")    // one source call, no cache
//	doc, err = fetcher.Cached(ctx, "acme")   // fresh cache entry or one shared call
//	doc, err = fetcher.Refresh(ctx, "acme")  // bypass and replace the entry
//
// Errors are classified: errors.Is(err, ErrNotFound) for unknown or invalid
// tenants, errors.Is(err, ErrTransient) for anything worth retrying later.
// Documents are shared between readers and must not be modified in place.
package siteconfig
