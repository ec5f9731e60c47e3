package configsync

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/tenantsync/pkg/siteconfig"
)

const (
	DefaultRefreshInterval    = 60 * time.Second
	DefaultStaleCheckInterval = 30 * time.Second
	DefaultEventBuffer        = 16
)

// Option configures a Session.
type Option func(*Session)

// WithRefreshInterval sets how often the snapshot is re-fetched. A
// non-positive value disables the periodic refresh.
func WithRefreshInterval(d time.Duration) Option {
	return func(s *Session) { s.refreshEvery = d }
}

// WithStaleCheckInterval sets how often the remote fingerprint is compared
// with the snapshot. A non-positive value disables the check.
func WithStaleCheckInterval(d time.Duration) Option {
	return func(s *Session) { s.staleEvery = d }
}

// WithInitialSnapshot seeds the session with a document the caller already
// has, typically one rendered by the server, instead of fetching it.
func WithInitialSnapshot(doc *siteconfig.TenantConfig) Option {
	return func(s *Session) { s.initial = doc }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithEventBuffer sets how many events a slow subscriber may lag behind
// before it starts missing them.
func WithEventBuffer(n int) Option {
	return func(s *Session) { s.buffer = n }
}
