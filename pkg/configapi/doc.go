// Package configapi exposes tenant configuration over HTTP.
//
// NewServiceRouter is the config service read contract over any
// siteconfig.Source. The remote Client speaks exactly this contract, so a
// service router over a FileSource or PostgresSource can stand in for the
// upstream service.
//
// NewEdgeRouter is the storefront edge: it resolves the tenant of every
// request, answers with the current configuration and streams config sync
// events to long-lived clients:
//
//	registry := configsync.NewRegistry(fetcher)
//	handler := configapi.NewEdgeRouter(tenant.NewIdentifier(), fetcher, registry,
//		configapi.WithLogger(log),
//		configapi.WithGatherer(prometheus.DefaultGatherer),
//	)
package configapi
