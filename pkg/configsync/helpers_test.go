package configsync_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantsync/pkg/broadcast"
	"github.com/dmitrymomot/tenantsync/pkg/configsync"
	"github.com/dmitrymomot/tenantsync/pkg/siteconfig"
)

// gatedSource wraps a MemorySource. Once armed, Config calls read the
// document and then block until released; Version calls are armed
// separately. inflight counts both kinds of call.
type gatedSource struct {
	*siteconfig.MemorySource

	mu       sync.Mutex
	config   gate
	versions gate

	calls        atomic.Int32
	versionCalls atomic.Int32
	inflight     atomic.Int32
	maxInflight  atomic.Int32
}

type gate struct {
	release chan struct{}
	started chan struct{}
}

func newGatedSource(docs ...*siteconfig.TenantConfig) *gatedSource {
	return &gatedSource{MemorySource: siteconfig.NewMemorySource(docs...)}
}

// arm makes following Config calls block and returns a channel signalled on
// every blocked call plus the release function.
func (s *gatedSource) arm() (<-chan struct{}, func()) {
	return s.armGate(&s.config)
}

// armVersion does the same for Version calls.
func (s *gatedSource) armVersion() (<-chan struct{}, func()) {
	return s.armGate(&s.versions)
}

func (s *gatedSource) armGate(g *gate) (<-chan struct{}, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g.release = make(chan struct{})
	g.started = make(chan struct{}, 64)
	release := g.release
	var once sync.Once
	return g.started, func() { once.Do(func() { close(release) }) }
}

func (s *gatedSource) enter() func() {
	n := s.inflight.Add(1)
	for {
		m := s.maxInflight.Load()
		if n <= m || s.maxInflight.CompareAndSwap(m, n) {
			break
		}
	}
	return func() { s.inflight.Add(-1) }
}

func (s *gatedSource) wait(g *gate) {
	s.mu.Lock()
	release, started := g.release, g.started
	s.mu.Unlock()
	if release == nil {
		return
	}
	select {
	case started <- struct{}{}:
	default:
	}
	<-release
}

func (s *gatedSource) Config(ctx context.Context, id string) (*siteconfig.TenantConfig, error) {
	s.calls.Add(1)
	defer s.enter()()

	doc, err := s.MemorySource.Config(ctx, id)
	s.wait(&s.config)
	return doc, err
}

func (s *gatedSource) Version(ctx context.Context, id string) (siteconfig.VersionInfo, error) {
	s.versionCalls.Add(1)
	defer s.enter()()

	s.wait(&s.versions)
	return s.MemorySource.Version(ctx, id)
}

func newFetcher(t *testing.T, src siteconfig.Source, window time.Duration) *siteconfig.Fetcher {
	t.Helper()
	cache := siteconfig.NewCache(window)
	t.Cleanup(cache.Close)
	return siteconfig.NewFetcher(src, cache)
}

// quiet disables both timers.
func quiet() []configsync.Option {
	return []configsync.Option{
		configsync.WithRefreshInterval(0),
		configsync.WithStaleCheckInterval(0),
	}
}

func openSession(t *testing.T, f *siteconfig.Fetcher, id string, opts ...configsync.Option) *configsync.Session {
	t.Helper()
	s, err := configsync.Open(context.Background(), f, id, opts...)
	require.NoError(t, err)
	t.Cleanup(s.Destroy)
	return s
}

// drain collects events until the subscription closes or the timeout hits.
func drain(sub broadcast.Subscriber[configsync.Event], timeout time.Duration) []configsync.Event {
	var out []configsync.Event
	deadline := time.After(timeout)
	ch := sub.Receive(context.Background())
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, msg.Data)
		case <-deadline:
			return out
		}
	}
}

func next(t *testing.T, sub broadcast.Subscriber[configsync.Event]) configsync.Event {
	t.Helper()
	select {
	case msg, ok := <-sub.Receive(context.Background()):
		require.True(t, ok, "subscription closed")
		return msg.Data
	case <-time.After(time.Second):
		t.Fatal("no event received")
		return configsync.Event{}
	}
}

func kinds(events []configsync.Event) []configsync.EventKind {
	out := make([]configsync.EventKind, 0, len(events))
	for _, e := range events {
		out = append(out, e.Kind)
	}
	return out
}
