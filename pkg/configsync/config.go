package configsync

import (
	"time"

	"github.com/dmitrymomot/tenantsync/pkg/siteconfig"
)

// Config holds the sync settings loaded from the environment.
type Config struct {
	RefreshInterval    time.Duration `env:"SYNC_REFRESH_INTERVAL" envDefault:"60s"`
	StaleCheckInterval time.Duration `env:"SYNC_STALE_CHECK_INTERVAL" envDefault:"30s"`
	MaxSessions        int           `env:"SYNC_MAX_SESSIONS" envDefault:"1024"`
	EventBuffer        int           `env:"SYNC_EVENT_BUFFER" envDefault:"16"`
	UpdatesChannel     string        `env:"SYNC_UPDATES_CHANNEL" envDefault:"config:updated"`
}

// SessionOptions translates cfg into session options.
func (c Config) SessionOptions() []Option {
	return []Option{
		WithRefreshInterval(c.RefreshInterval),
		WithStaleCheckInterval(c.StaleCheckInterval),
		WithEventBuffer(c.EventBuffer),
	}
}

// NewRegistryFromConfig builds a Registry bounded and configured by cfg.
func NewRegistryFromConfig(cfg Config, fetcher *siteconfig.Fetcher, opts ...RegistryOption) *Registry {
	base := []RegistryOption{
		WithMaxSessions(cfg.MaxSessions),
		WithSessionOptions(cfg.SessionOptions()...),
	}
	return NewRegistry(fetcher, append(base, opts...)...)
}
