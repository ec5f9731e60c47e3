// Package tenant identifies which tenant (store) an HTTP request belongs to.
//
// An Identifier walks a fixed priority of signals and stops at the first
// match:
//
//  1. the X-Tenant-ID header, used verbatim;
//  2. the legacy X-Tenant header;
//  3. the first label of the request host (shop1.example.com gives shop1);
//  4. the segment after the "market" path marker (/market/shop7/... gives shop7);
//  5. otherwise the DefaultID sentinel with Explicit set to false.
//
// Header names and the path marker are configurable through Config or the
// IdentifierOption helpers; WithResolvers replaces the tiers altogether.
//
// Middleware stores the resolved Context in the request context and recovers
// from faults raised by resolvers, answering 500 JSON instead of letting the
// panic escape. RequireTenant guards routes that need a real tenant and
// answers 400 JSON otherwise.
//
// Resolution does not validate identifiers. Anything used as a lookup key
// goes through Canonical first, which normalizes (trim, lower-case) and
// enforces the allow-list grammar.
//
//	r := chi.NewRouter()
//	r.Use(tenant.Middleware(tenant.NewIdentifier(), tenant.WithSkipPaths("/health")))
//	r.With(tenant.RequireTenant(nil)).Get("/api/config", handler)
package tenant
