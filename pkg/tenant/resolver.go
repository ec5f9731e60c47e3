package tenant

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

// Resolver extracts a tenant from one request signal. It returns false when
// the signal is absent so the next tier can try.
type Resolver func(r *http.Request) (Context, bool)

// HeaderResolver reads the tenant id verbatim from header name. A blank
// value does not match.
func HeaderResolver(name string) Resolver {
	return func(r *http.Request) (Context, bool) {
		if r == nil || r.Header == nil {
			return Context{}, false
		}
		id := r.Header.Get(name)
		if strings.TrimSpace(id) == "" {
			return Context{}, false
		}
		return Context{ID: id, Explicit: true}, true
	}
}

// SubdomainResolver uses the first label of the request host, port
// stripped. The label is not validated.
func SubdomainResolver() Resolver {
	return func(r *http.Request) (Context, bool) {
		if r == nil {
			return Context{}, false
		}
		host := r.Host
		if host == "" {
			return Context{}, false
		}
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}
		label, _, _ := strings.Cut(host, ".")
		if label == "" {
			return Context{}, false
		}
		return Context{ID: label, Subdomain: label, Explicit: true}, true
	}
}

// PathResolver uses the segment right after the first marker segment, as in
// /market/<id>/... An empty following segment is not a match.
func PathResolver(marker string) Resolver {
	return func(r *http.Request) (Context, bool) {
		if r == nil || r.URL == nil || marker == "" {
			return Context{}, false
		}
		segments := strings.Split(r.URL.Path, "/")
		for i, s := range segments {
			if s != marker {
				continue
			}
			if i+1 < len(segments) && segments[i+1] != "" {
				id := segments[i+1]
				return Context{ID: id, Subdomain: id, Explicit: true}, true
			}
			return Context{}, false
		}
		return Context{}, false
	}
}

// CompositeResolver tries resolvers in order and returns the first match.
func CompositeResolver(resolvers ...Resolver) Resolver {
	return func(r *http.Request) (Context, bool) {
		for _, res := range resolvers {
			if res == nil {
				continue
			}
			if tc, ok := res(r); ok && tc.ID != "" {
				return tc, true
			}
		}
		return Context{}, false
	}
}

// Identifier resolves requests through an ordered list of tiers: primary
// header, legacy header, host subdomain, path marker, then DefaultID.
type Identifier struct {
	primaryHeader string
	legacyHeader  string
	pathMarker    string
	resolve       Resolver
}

// IdentifierOption configures an Identifier.
type IdentifierOption func(*Identifier)

// WithPrimaryHeader overrides the highest-priority header (X-Tenant-ID).
func WithPrimaryHeader(name string) IdentifierOption {
	return func(i *Identifier) {
		if name != "" {
			i.primaryHeader = name
		}
	}
}

// WithLegacyHeader overrides the second-priority header (X-Tenant).
func WithLegacyHeader(name string) IdentifierOption {
	return func(i *Identifier) {
		if name != "" {
			i.legacyHeader = name
		}
	}
}

// WithPathMarker overrides the path segment preceding the tenant id (market).
func WithPathMarker(segment string) IdentifierOption {
	return func(i *Identifier) {
		if segment != "" {
			i.pathMarker = segment
		}
	}
}

// WithResolvers replaces the built-in tiers entirely.
func WithResolvers(resolvers ...Resolver) IdentifierOption {
	return func(i *Identifier) {
		i.resolve = CompositeResolver(resolvers...)
	}
}

func NewIdentifier(opts ...IdentifierOption) *Identifier {
	i := &Identifier{
		primaryHeader: "X-Tenant-ID",
		legacyHeader:  "X-Tenant",
		pathMarker:    "market",
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.resolve == nil {
		i.resolve = CompositeResolver(
			HeaderResolver(i.primaryHeader),
			HeaderResolver(i.legacyHeader),
			SubdomainResolver(),
			PathResolver(i.pathMarker),
		)
	}
	return i
}

// Identify returns the tenant for r, falling back to Default.
func (i *Identifier) Identify(r *http.Request) Context {
	if r == nil {
		return Default()
	}
	if tc, ok := i.resolve(r); ok {
		return tc
	}
	return Default()
}

// Resolve is Identify behind a fault barrier: a panic raised by any tier is
// converted into ErrResolutionFailed.
func (i *Identifier) Resolve(r *http.Request) (tc Context, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			tc = Context{}
			err = fmt.Errorf("%w: %v", ErrResolutionFailed, rec)
		}
	}()
	return i.Identify(r), nil
}
