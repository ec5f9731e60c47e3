package configsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dmitrymomot/tenantsync/pkg/broadcast"
	"github.com/dmitrymomot/tenantsync/pkg/logger"
	"github.com/dmitrymomot/tenantsync/pkg/siteconfig"
	"github.com/dmitrymomot/tenantsync/pkg/statemachine"
	"github.com/dmitrymomot/tenantsync/pkg/tenant"
)

const (
	flightRefresh = "refresh"
	flightAdopt   = "adopt"
	flightVersion = "version"
)

type fetchFunc func(ctx context.Context, id string) (*siteconfig.TenantConfig, error)

// Session keeps one tenant's configuration in sync for a long-lived
// consumer. It owns a snapshot that is replaced, never modified, by periodic
// refreshes, and a staleness check that only raises a flag until the
// consumer calls Adopt.
type Session struct {
	tenantID     string
	fetcher      *siteconfig.Fetcher
	refreshEvery time.Duration
	staleEvery   time.Duration
	initial      *siteconfig.TenantConfig
	buffer       int
	log          *slog.Logger

	machine statemachine.StateMachine
	events  *broadcast.MemoryBroadcaster[Event]
	group   singleflight.Group

	// fetchMu serializes every source call of the session, documents and
	// versions alike. pending counts calls waiting for or holding it.
	fetchMu sync.Mutex
	pending atomic.Int32

	cancel context.CancelFunc
	loops  sync.WaitGroup

	mu              sync.RWMutex
	active          bool
	snapshot        *siteconfig.TenantConfig
	lastFetchedAt   time.Time
	updateAvailable bool
	remote          siteconfig.Fingerprint
	lastErr         error
}

// Open validates tenantID, loads the first snapshot and starts the refresh
// and staleness timers. The snapshot comes from WithInitialSnapshot when
// given, otherwise from Fetcher.Cached. No session is returned when the
// first load fails.
func Open(ctx context.Context, fetcher *siteconfig.Fetcher, tenantID string, opts ...Option) (*Session, error) {
	id, err := tenant.Canonical(tenantID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", siteconfig.ErrInvalidTenant, err)
	}

	s := &Session{
		tenantID:     id,
		fetcher:      fetcher,
		refreshEvery: DefaultRefreshInterval,
		staleEvery:   DefaultStaleCheckInterval,
		buffer:       DefaultEventBuffer,
		log:          logger.Discard(),
		active:       true,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(logger.Component("config_sync"), logger.TenantID(id))
	s.machine = newMachine(s.logTransition)
	s.events = broadcast.NewMemoryBroadcaster[Event](s.buffer)

	if err := s.machine.Fire(ctx, TriggerLoad, nil); err != nil {
		return nil, err
	}

	doc := s.initial
	if doc != nil {
		if !belongsTo(doc, id) {
			_ = s.events.Close()
			return nil, fmt.Errorf("%w: initial snapshot is for %q", siteconfig.ErrMismatchedTenant, doc.ID)
		}
		if doc.ID == "" {
			doc = doc.Clone()
			doc.ID = id
		}
	} else if doc, err = fetcher.Cached(ctx, id); err != nil {
		_ = s.events.Close()
		return nil, err
	}

	s.mu.Lock()
	s.snapshot = doc
	s.lastFetchedAt = time.Now()
	s.fire(ctx, TriggerLoaded, true)
	s.mu.Unlock()

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.start(loopCtx, s.refreshEvery, s.refreshTick)
	s.start(loopCtx, s.staleEvery, s.checkTick)

	s.log.DebugContext(ctx, "config sync session opened",
		logger.Fingerprint(string(doc.Fingerprint())))
	return s, nil
}

func (s *Session) TenantID() string { return s.tenantID }

// Snapshot returns the current document. It is shared and must not be
// modified.
func (s *Session) Snapshot() (*siteconfig.TenantConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.active {
		return nil, ErrDestroyed
	}
	if s.snapshot == nil {
		return nil, ErrNotInitialized
	}
	return s.snapshot, nil
}

func (s *Session) State() statemachine.State {
	return s.machine.Current()
}

// UpdateAvailable reports whether the remote configuration moved past the
// snapshot.
func (s *Session) UpdateAvailable() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updateAvailable
}

func (s *Session) LastFetchedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastFetchedAt
}

// Err returns the error of the last failed fetch or check, cleared by the
// next success.
func (s *Session) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Subscribe streams session events until ctx is done or the session is
// destroyed.
func (s *Session) Subscribe(ctx context.Context) broadcast.Subscriber[Event] {
	return s.events.Subscribe(ctx)
}

// Refresh re-fetches the document bypassing the cache and installs it.
// From the error state it is the retry path. A call that overlaps a
// running refresh shares its result.
func (s *Session) Refresh(ctx context.Context) (*siteconfig.TenantConfig, error) {
	if err := s.usable(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.active && s.machine.Is(StateError) {
		s.fire(ctx, TriggerRetry, nil)
	}
	s.mu.Unlock()

	return s.refresh(ctx, flightRefresh, s.fetcher.Refresh)
}

// Adopt fetches the current document bypassing the cache, installs it and
// clears the update flag. It never joins a periodic refresh, which may
// carry a document older than the announced update.
func (s *Session) Adopt(ctx context.Context) (*siteconfig.TenantConfig, error) {
	if err := s.usable(); err != nil {
		return nil, err
	}
	return s.refresh(ctx, flightAdopt, s.fetcher.Refresh)
}

// CheckStale compares the remote fingerprint with the snapshot and reports
// whether an update is available. It never replaces the snapshot.
func (s *Session) CheckStale(ctx context.Context) (bool, error) {
	if err := s.usable(); err != nil {
		return false, err
	}

	s.pending.Add(1)
	defer s.pending.Add(-1)

	v, err, _ := s.group.Do(flightVersion, func() (any, error) {
		s.fetchMu.Lock()
		defer s.fetchMu.Unlock()
		if err := s.usable(); err != nil {
			return false, err
		}
		info, err := s.fetcher.Version(ctx, s.tenantID)
		return s.compare(ctx, info, err)
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// Destroy stops both timers, publishes EventDestroyed and closes every
// subscription. Fetches still in flight are not waited for; their results
// are discarded. Destroy is idempotent.
func (s *Session) Destroy() {
	ctx := context.Background()

	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	s.fire(ctx, TriggerDestroy, nil)
	s.publish(ctx, Event{Kind: EventDestroyed})
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	s.loops.Wait()
	_ = s.events.Close()
	s.log.DebugContext(ctx, "config sync session destroyed")
}

func (s *Session) usable() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch {
	case !s.active:
		return ErrDestroyed
	case s.snapshot == nil:
		return ErrNotInitialized
	}
	return nil
}

// refresh runs fetch under the flight key. Callers sharing a key share the
// result; different keys wait for each other.
func (s *Session) refresh(ctx context.Context, key string, fetch fetchFunc) (*siteconfig.TenantConfig, error) {
	s.pending.Add(1)
	defer s.pending.Add(-1)

	v, err, _ := s.group.Do(key, func() (any, error) {
		s.fetchMu.Lock()
		defer s.fetchMu.Unlock()
		if err := s.usable(); err != nil {
			return nil, err
		}
		doc, err := fetch(ctx, s.tenantID)
		return s.complete(ctx, doc, err, key == flightAdopt)
	})
	if err != nil {
		return nil, err
	}
	return v.(*siteconfig.TenantConfig), nil
}

// complete applies a finished fetch to the session. An adopted document
// becomes the known remote revision.
func (s *Session) complete(ctx context.Context, doc *siteconfig.TenantConfig, err error, adopt bool) (*siteconfig.TenantConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return nil, ErrDestroyed
	}

	if err != nil {
		s.lastErr = err
		s.fire(ctx, TriggerFailed, nil)
		s.publish(ctx, Event{Kind: EventError, Err: err, Error: err.Error()})
		return nil, err
	}

	fp := doc.Fingerprint()
	s.snapshot = doc
	s.lastFetchedAt = time.Now()
	s.lastErr = nil
	switch {
	case adopt:
		s.remote = fp
		s.updateAvailable = false
		if s.machine.Is(StateLoading) {
			s.fire(ctx, TriggerLoaded, true)
		} else {
			s.fire(ctx, TriggerAdopted, nil)
		}
	default:
		if s.remote == "" || s.remote == fp {
			s.updateAvailable = false
		}
		s.fire(ctx, TriggerLoaded, !s.updateAvailable)
	}
	s.publish(ctx, Event{Kind: EventSnapshot, Snapshot: doc, Fingerprint: fp})
	return doc, nil
}

// compare applies a finished version check to the session.
func (s *Session) compare(ctx context.Context, info siteconfig.VersionInfo, err error) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return false, ErrDestroyed
	}

	if err != nil {
		s.lastErr = err
		s.fire(ctx, TriggerFailed, nil)
		s.publish(ctx, Event{Kind: EventError, Err: err, Error: err.Error()})
		return false, err
	}

	prev := s.remote
	s.remote = info.Fingerprint
	if info.Fingerprint != s.snapshot.Fingerprint() {
		announce := !s.updateAvailable || prev != info.Fingerprint
		s.updateAvailable = true
		s.fire(ctx, TriggerStaleDetected, nil)
		if announce {
			s.publish(ctx, Event{Kind: EventUpdateAvailable, Fingerprint: info.Fingerprint})
		}
		return true, nil
	}

	s.updateAvailable = false
	if s.machine.Is(StateStale) || s.machine.Is(StateError) {
		s.lastErr = nil
		s.fire(ctx, TriggerLoaded, true)
	}
	return false, nil
}

// Must be called with s.mu held.
func (s *Session) fire(ctx context.Context, trigger statemachine.Event, data any) {
	if err := s.machine.Fire(ctx, trigger, data); err != nil {
		s.log.DebugContext(ctx, "transition skipped", logger.Event(trigger.Name()), logger.Error(err))
	}
}

func (s *Session) publish(ctx context.Context, ev Event) {
	ev.TenantID = s.tenantID
	ev.At = time.Now().UTC()
	_ = s.events.Broadcast(ctx, broadcast.Message[Event]{Data: ev})
}

func (s *Session) logTransition(ctx context.Context, from, to statemachine.State, ev statemachine.Event) {
	s.log.DebugContext(ctx, "config sync transition",
		logger.Transition(from.Name(), to.Name()),
		logger.Event(ev.Name()))
}

func (s *Session) start(ctx context.Context, every time.Duration, tick func(context.Context)) {
	if every <= 0 {
		return
	}
	s.loops.Add(1)
	go func() {
		defer s.loops.Done()
		t := time.NewTicker(every)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				tick(ctx)
			}
		}
	}()
}

// Ticks never block the timer loop, so Destroy can stop the loops without
// waiting for a slow source. A tick is skipped while any refresh, adoption
// or check is pending.
func (s *Session) refreshTick(ctx context.Context) {
	if !s.pending.CompareAndSwap(0, 1) {
		return
	}
	go func() {
		defer s.pending.Add(-1)
		if _, err := s.refresh(ctx, flightRefresh, s.fetcher.Cached); err != nil && !errors.Is(err, ErrDestroyed) {
			s.log.WarnContext(ctx, "periodic config refresh failed", logger.Error(err))
		}
	}()
}

func (s *Session) checkTick(ctx context.Context) {
	if !s.pending.CompareAndSwap(0, 1) {
		return
	}
	go func() {
		defer s.pending.Add(-1)
		if _, err := s.CheckStale(ctx); err != nil && !errors.Is(err, ErrDestroyed) {
			s.log.WarnContext(ctx, "config staleness check failed", logger.Error(err))
		}
	}()
}

func belongsTo(doc *siteconfig.TenantConfig, id string) bool {
	return doc.ID == "" || tenant.Normalize(doc.ID) == id || tenant.Normalize(doc.Subdomain) == id
}
