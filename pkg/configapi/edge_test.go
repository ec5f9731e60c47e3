package configapi_test

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantsync/pkg/configapi"
	"github.com/dmitrymomot/tenantsync/pkg/configsync"
	"github.com/dmitrymomot/tenantsync/pkg/httpserver"
	"github.com/dmitrymomot/tenantsync/pkg/requestid"
	"github.com/dmitrymomot/tenantsync/pkg/siteconfig"
	"github.com/dmitrymomot/tenantsync/pkg/tenant"
)

type edgeFixture struct {
	src      *siteconfig.MemorySource
	registry *configsync.Registry
	handler  http.Handler
}

func newEdge(t *testing.T, opts ...configapi.Option) *edgeFixture {
	t.Helper()
	src := siteconfig.NewMemorySource()
	src.Put(&siteconfig.TenantConfig{ID: "acme", Name: "Acme"})

	cache := siteconfig.NewCache(time.Minute)
	t.Cleanup(cache.Close)
	fetcher := siteconfig.NewFetcher(src, cache)
	registry := configsync.NewRegistry(fetcher, configsync.WithSessionOptions(
		configsync.WithRefreshInterval(0),
		configsync.WithStaleCheckInterval(0),
	))
	t.Cleanup(registry.Close)

	return &edgeFixture{
		src:      src,
		registry: registry,
		handler:  configapi.NewEdgeRouter(tenant.NewIdentifier(), fetcher, registry, opts...),
	}
}

func tenantHeader(id string) map[string]string {
	return map[string]string{"X-Tenant-ID": id}
}

func TestEdgeRouter_RequiresTenant(t *testing.T) {
	t.Parallel()
	f := newEdge(t)

	for _, target := range []string{"/api/tenant", "/api/config", "/api/config/version", "/api/config/events"} {
		rec := get(t, f.handler, target, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.Contains(t, rec.Body.String(), "Tenant context is required", target)
	}
	assert.Zero(t, f.src.ConfigCalls(), "guard has no side effects")
	assert.Zero(t, f.registry.Len())
}

func TestEdgeRouter_Tenant(t *testing.T) {
	t.Parallel()
	f := newEdge(t)

	rec := get(t, f.handler, "/market/acme/api/tenant", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "marker path is not an API route")

	rec = get(t, f.handler, "/api/tenant", tenantHeader("Acme"))
	require.Equal(t, http.StatusOK, rec.Code)
	tc := decode[tenant.Context](t, rec)
	assert.Equal(t, "Acme", tc.ID)
	assert.True(t, tc.Explicit)
	assert.NotEmpty(t, rec.Header().Get(requestid.Header))
}

func TestEdgeRouter_Config(t *testing.T) {
	t.Parallel()

	t.Run("cold fetch with etag", func(t *testing.T) {
		t.Parallel()
		f := newEdge(t)

		rec := get(t, f.handler, "/api/config", tenantHeader("acme"))
		require.Equal(t, http.StatusOK, rec.Code)
		env := decode[siteconfig.ConfigEnvelope](t, rec)
		assert.Equal(t, "Acme", env.Data.Name)
		etag := rec.Header().Get("ETag")
		assert.Equal(t, `"`+string(env.Fingerprint)+`"`, etag)

		rec = get(t, f.handler, "/api/config", map[string]string{"X-Tenant-ID": "acme", "If-None-Match": etag})
		assert.Equal(t, http.StatusNotModified, rec.Code)
		assert.EqualValues(t, 2, f.src.ConfigCalls(), "every request is a cold fetch")
	})

	t.Run("unknown and invalid tenants", func(t *testing.T) {
		t.Parallel()
		f := newEdge(t)

		rec := get(t, f.handler, "/api/config", tenantHeader("ghost"))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		rec = get(t, f.handler, "/api/config", tenantHeader("not_valid"))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("upstream failure", func(t *testing.T) {
		t.Parallel()
		f := newEdge(t)
		f.src.SetError(errors.New("connection refused"))

		rec := get(t, f.handler, "/api/config", tenantHeader("acme"))
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		rec = get(t, f.handler, "/api/config/version", tenantHeader("acme"))
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})

	t.Run("version", func(t *testing.T) {
		t.Parallel()
		f := newEdge(t)

		rec := get(t, f.handler, "/api/config/version", tenantHeader("acme"))
		require.Equal(t, http.StatusOK, rec.Code)
		env := decode[siteconfig.VersionEnvelope](t, rec)
		assert.EqualValues(t, 1, env.Version)
		assert.NotEmpty(t, env.Fingerprint)
	})
}

func TestEdgeRouter_HealthAndMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "probe_total", Help: "probe"}))
	f := newEdge(t,
		configapi.WithGatherer(reg),
		configapi.WithHealthChecks(httpserver.Check{Name: "redis", Fn: func(context.Context) error { return nil }}),
	)

	rec := get(t, f.handler, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","checks":{"redis":"ok"}}`, rec.Body.String())

	rec = get(t, f.handler, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "probe_total")
}

// openStream connects to the events endpoint as tenant and returns the
// decoded events. The channel closes when the stream ends.
func openStream(t *testing.T, ctx context.Context, srv *httptest.Server, id string) <-chan configsync.Event {
	t.Helper()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/config/events", nil)
	require.NoError(t, err)
	req.Header.Set("X-Tenant-ID", id)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := make(chan configsync.Event, 8)
	go func() {
		defer close(events)
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64<<10), 1<<20)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			var ev configsync.Event
			if json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev) == nil {
				events <- ev
			}
		}
	}()
	return events
}

func receive(t *testing.T, events <-chan configsync.Event) configsync.Event {
	t.Helper()
	select {
	case ev, ok := <-events:
		require.True(t, ok, "stream ended")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no event")
		return configsync.Event{}
	}
}

func TestEdgeRouter_Events(t *testing.T) {
	t.Parallel()

	f := newEdge(t, configapi.WithKeepAlive(time.Hour))
	srv := httptest.NewServer(f.handler)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := openStream(t, ctx, srv, "acme")

	first := receive(t, events)
	assert.Equal(t, configsync.EventSnapshot, first.Kind)
	assert.Equal(t, "acme", first.TenantID)
	require.NotNil(t, first.Snapshot)
	assert.Equal(t, "Acme", first.Snapshot.Name)

	f.src.Put(&siteconfig.TenantConfig{ID: "acme", Name: "Acme 2"})
	stale, err := f.registry.Notify(context.Background(), "acme")
	require.NoError(t, err)
	require.True(t, stale)
	assert.Equal(t, configsync.EventUpdateAvailable, receive(t, events).Kind)

	f.registry.Release("acme")
	assert.Equal(t, configsync.EventDestroyed, receive(t, events).Kind)
}

func TestEdgeRouter_EventsDisconnectDestroysSession(t *testing.T) {
	t.Parallel()

	f := newEdge(t, configapi.WithKeepAlive(time.Hour))
	srv := httptest.NewServer(f.handler)
	t.Cleanup(srv.Close)

	ctx1, cancel1 := context.WithCancel(context.Background())
	defer cancel1()
	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel2()

	first := openStream(t, ctx1, srv, "acme")
	receive(t, first)
	second := openStream(t, ctx2, srv, "acme")
	receive(t, second)

	s, err := f.registry.Lookup("acme")
	require.NoError(t, err)
	assert.Equal(t, 1, f.registry.Len(), "streams of one tenant share a session")

	cancel1()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, configsync.StateReady, s.State(), "session lives while a stream is open")

	cancel2()
	require.Eventually(t, func() bool { return f.registry.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, configsync.StateDestroyed, s.State())
	_, err = f.registry.Lookup("acme")
	assert.ErrorIs(t, err, configsync.ErrNotInitialized)
}
