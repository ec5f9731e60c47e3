package configsync

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/singleflight"

	"github.com/dmitrymomot/tenantsync/pkg/cache"
	"github.com/dmitrymomot/tenantsync/pkg/logger"
	"github.com/dmitrymomot/tenantsync/pkg/siteconfig"
	"github.com/dmitrymomot/tenantsync/pkg/tenant"
)

// DefaultMaxSessions bounds a Registry created without WithMaxSessions.
const DefaultMaxSessions = 1024

// Registry owns at most one Session per tenant. Sessions are reference
// counted: the last release destroys the session. The least recently used
// session is destroyed when the bound is reached.
type Registry struct {
	fetcher     *siteconfig.Fetcher
	maxSessions int
	sessionOpts []Option
	log         *slog.Logger
	active      prometheus.Gauge

	sessions *cache.LRUCache[string, *Session]
	group    singleflight.Group

	mu   sync.Mutex
	refs map[*Session]int
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

func WithMaxSessions(n int) RegistryOption {
	return func(r *Registry) {
		if n > 0 {
			r.maxSessions = n
		}
	}
}

// WithSessionOptions sets options applied to every session the registry
// opens.
func WithSessionOptions(opts ...Option) RegistryOption {
	return func(r *Registry) { r.sessionOpts = append(r.sessionOpts, opts...) }
}

func WithRegistryLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.log = l
		}
	}
}

// WithRegisterer exports the number of live sessions as a gauge.
func WithRegisterer(reg prometheus.Registerer) RegistryOption {
	return func(r *Registry) {
		r.active = promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Namespace: "tenantsync",
			Name:      "sync_sessions_active",
			Help:      "Config sync sessions currently open",
		})
	}
}

func NewRegistry(fetcher *siteconfig.Fetcher, opts ...RegistryOption) *Registry {
	r := &Registry{
		fetcher:     fetcher,
		maxSessions: DefaultMaxSessions,
		log:         logger.Discard(),
		refs:        make(map[*Session]int),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.With(logger.Component("sync_registry"))
	r.sessions = cache.NewLRUCache[string, *Session](r.maxSessions)
	r.sessions.SetEvictCallback(func(id string, s *Session) {
		s.Destroy()
		r.log.Debug("config sync session released", logger.TenantID(id))
	})
	return r
}

// Acquire returns the live session for tenantID, opening it on first use,
// and a release func the caller must call when done with it. The session
// is destroyed once every holder has released it. Concurrent first calls
// for the same tenant open a single session.
func (r *Registry) Acquire(ctx context.Context, tenantID string, opts ...Option) (*Session, func(), error) {
	id, err := tenant.Canonical(tenantID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", siteconfig.ErrInvalidTenant, err)
	}

	for {
		if s, ok := r.hold(id, nil); ok {
			return s, r.releaser(id, s), nil
		}

		v, err, _ := r.group.Do(id, func() (any, error) {
			if s, ok := r.sessions.Peek(id); ok && s.usable() == nil {
				return s, nil
			}
			all := append(append([]Option{WithLogger(r.log)}, r.sessionOpts...), opts...)
			s, err := Open(ctx, r.fetcher, id, all...)
			if err != nil {
				return nil, err
			}
			r.mu.Lock()
			r.sessions.Put(id, s)
			r.observe()
			r.mu.Unlock()
			return s, nil
		})
		if err != nil {
			return nil, nil, err
		}
		if s, ok := r.hold(id, v.(*Session)); ok {
			return s, r.releaser(id, s), nil
		}
		// Evicted or released between opening and holding it.
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
	}
}

// hold takes a reference on the registered session for id. When want is
// set, only that session is accepted.
func (r *Registry) hold(id string, want *Session) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions.Get(id)
	if !ok || s.usable() != nil || (want != nil && s != want) {
		return nil, false
	}
	r.refs[s]++
	return s, true
}

func (r *Registry) releaser(id string, s *Session) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			n := r.refs[s] - 1
			if n > 0 {
				r.refs[s] = n
				r.mu.Unlock()
				return
			}
			delete(r.refs, s)
			if cur, ok := r.sessions.Peek(id); ok && cur == s {
				r.sessions.Remove(id)
			}
			r.observe()
			r.mu.Unlock()
			s.Destroy()
		})
	}
}

// Lookup returns the live session for tenantID without opening one.
func (r *Registry) Lookup(tenantID string) (*Session, error) {
	id, err := tenant.Canonical(tenantID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", siteconfig.ErrInvalidTenant, err)
	}
	s, ok := r.sessions.Peek(id)
	if !ok || s.usable() != nil {
		return nil, ErrNotInitialized
	}
	return s, nil
}

// Release destroys the session for tenantID, if any, regardless of how many
// holders it has.
func (r *Registry) Release(tenantID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions.Remove(tenant.Normalize(tenantID))
	r.observe()
}

// Notify runs a staleness check on the tenant's session so an update
// announced out of band is picked up before the next timer tick. Tenants
// without a session are ignored.
func (r *Registry) Notify(ctx context.Context, tenantID string) (bool, error) {
	s, err := r.Lookup(tenantID)
	if err != nil {
		return false, nil
	}
	return s.CheckStale(ctx)
}

func (r *Registry) Len() int { return r.sessions.Len() }

// Close destroys every session.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions.Clear()
	r.observe()
}

func (r *Registry) observe() {
	if r.active != nil {
		r.active.Set(float64(r.sessions.Len()))
	}
}
