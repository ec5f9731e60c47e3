package tenant_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantsync/pkg/tenant"
)

func newRequest(host, path string, headers map[string]string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "http://placeholder"+path, nil)
	r.Host = host
	r.URL.Host = ""
	for k, v := range headers {
		r.Header.Set(k, v)
	}
	return r
}

func TestIdentifier_Priority(t *testing.T) {
	t.Parallel()

	id := tenant.NewIdentifier()

	tests := []struct {
		name    string
		host    string
		path    string
		headers map[string]string
		want    tenant.Context
	}{
		{
			name:    "primary header wins over everything",
			host:    "shop1.example.com",
			path:    "/market/shop7",
			headers: map[string]string{"X-Tenant-ID": "acme", "X-Tenant": "legacy"},
			want:    tenant.Context{ID: "acme", Explicit: true},
		},
		{
			name:    "primary header is used verbatim",
			host:    "shop1.example.com",
			headers: map[string]string{"X-Tenant-ID": "  Acme_Store "},
			want:    tenant.Context{ID: "  Acme_Store ", Explicit: true},
		},
		{
			name:    "legacy header",
			host:    "shop1.example.com",
			headers: map[string]string{"X-Tenant": "legacy"},
			want:    tenant.Context{ID: "legacy", Explicit: true},
		},
		{
			name:    "blank headers fall through",
			host:    "shop1.example.com",
			headers: map[string]string{"X-Tenant-ID": "   ", "X-Tenant": ""},
			want:    tenant.Context{ID: "shop1", Subdomain: "shop1", Explicit: true},
		},
		{
			name: "subdomain",
			host: "shop1.example.com",
			want: tenant.Context{ID: "shop1", Subdomain: "shop1", Explicit: true},
		},
		{
			name: "subdomain with port",
			host: "shop2.example.com:8443",
			want: tenant.Context{ID: "shop2", Subdomain: "shop2", Explicit: true},
		},
		{
			name: "single label host",
			host: "localhost:3000",
			want: tenant.Context{ID: "localhost", Subdomain: "localhost", Explicit: true},
		},
		{
			name: "host label is not validated",
			host: "Weird_Label.example.com",
			want: tenant.Context{ID: "Weird_Label", Subdomain: "Weird_Label", Explicit: true},
		},
		{
			name: "path marker when host is empty",
			path: "/market/shop7/payments",
			want: tenant.Context{ID: "shop7", Subdomain: "shop7", Explicit: true},
		},
		{
			name: "first marker occurrence wins",
			path: "/market/shop7/market/shop8",
			want: tenant.Context{ID: "shop7", Subdomain: "shop7", Explicit: true},
		},
		{
			name: "empty segment after marker is no match",
			path: "/market//payments",
			want: tenant.Default(),
		},
		{
			name: "marker at end of path",
			path: "/market",
			want: tenant.Default(),
		},
		{
			name: "marker must be a whole segment",
			path: "/marketplace/shop9",
			want: tenant.Default(),
		},
		{
			name: "nothing to go on",
			path: "/",
			want: tenant.Default(),
		},
		{
			name: "empty first host label falls through to path",
			host: ".example.com",
			path: "/market/shop3",
			want: tenant.Context{ID: "shop3", Subdomain: "shop3", Explicit: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := id.Identify(newRequest(tt.host, tt.path, tt.headers))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIdentifier_SubdomainAndIDAgree(t *testing.T) {
	t.Parallel()

	id := tenant.NewIdentifier()
	for _, host := range []string{"shop1.example.com", "a.b.c.d", "x.localhost:80", "store-9.example.org"} {
		tc := id.Identify(newRequest(host, "/", nil))
		assert.Equal(t, tc.ID, tc.Subdomain, host)
		assert.True(t, tc.Explicit)
	}
}

func TestIdentifier_MalformedRequests(t *testing.T) {
	t.Parallel()

	id := tenant.NewIdentifier()

	assert.Equal(t, tenant.Default(), id.Identify(nil))
	assert.Equal(t, tenant.Default(), id.Identify(&http.Request{}))
	assert.Equal(t, tenant.Default(), id.Identify(&http.Request{URL: &url.URL{}}))
	// Only the Host header counts, never the URL authority.
	assert.Equal(t, tenant.Default(), id.Identify(&http.Request{URL: &url.URL{Host: "shop1.example.com", Path: "/"}}))
	assert.NotPanics(t, func() {
		id.Identify(&http.Request{Host: ":::", URL: &url.URL{Path: "//"}})
	})
}

func TestIdentifier_Options(t *testing.T) {
	t.Parallel()

	id := tenant.NewIdentifier(
		tenant.WithPrimaryHeader("X-Store"),
		tenant.WithLegacyHeader("X-Shop"),
		tenant.WithPathMarker("store"),
	)

	tc := id.Identify(newRequest("", "/", map[string]string{"X-Store": "s1", "X-Tenant-ID": "ignored"}))
	assert.Equal(t, "s1", tc.ID)

	tc = id.Identify(newRequest("", "/", map[string]string{"X-Shop": "s2"}))
	assert.Equal(t, "s2", tc.ID)

	tc = id.Identify(newRequest("", "/store/s3/cart", nil))
	assert.Equal(t, "s3", tc.ID)

	tc = id.Identify(newRequest("", "/market/s4", nil))
	assert.Equal(t, tenant.Default(), tc)
}

func TestIdentifierFromConfig(t *testing.T) {
	t.Parallel()

	id := tenant.NewIdentifierFromConfig(tenant.Config{PathMarker: "shop"})
	assert.Equal(t, "a1", id.Identify(newRequest("", "/shop/a1", nil)).ID)
	assert.Equal(t, "h1", id.Identify(newRequest("", "/", map[string]string{"X-Tenant-ID": "h1"})).ID)
}

func TestWithResolvers(t *testing.T) {
	t.Parallel()

	fixed := func(*http.Request) (tenant.Context, bool) {
		return tenant.Context{ID: "fixed", Explicit: true}, true
	}
	id := tenant.NewIdentifier(tenant.WithResolvers(nil, tenant.HeaderResolver("X-A"), fixed))

	assert.Equal(t, "a", id.Identify(newRequest("shop1.example.com", "/", map[string]string{"X-A": "a"})).ID)
	assert.Equal(t, "fixed", id.Identify(newRequest("shop1.example.com", "/", nil)).ID)
}

func TestResolve_RecoversPanics(t *testing.T) {
	t.Parallel()

	id := tenant.NewIdentifier(tenant.WithResolvers(func(*http.Request) (tenant.Context, bool) {
		panic("resolver exploded")
	}))

	tc, err := id.Resolve(newRequest("shop1.example.com", "/", nil))
	require.ErrorIs(t, err, tenant.ErrResolutionFailed)
	assert.Contains(t, err.Error(), "resolver exploded")
	assert.Empty(t, tc.ID)
}
