package siteconfig

import "time"

// Config holds the fetch settings loaded from the environment.
type Config struct {
	ServiceURL   string        `env:"CONFIG_SERVICE_URL" envDefault:"http://localhost:3001"`
	FetchTimeout time.Duration `env:"CONFIG_FETCH_TIMEOUT" envDefault:"10s"`
	CacheWindow  time.Duration `env:"CONFIG_CACHE_WINDOW" envDefault:"60s"`
	SourceDir    string        `env:"CONFIG_SOURCE_DIR" envDefault:"./configs"`
	RedisTTL     time.Duration `env:"CONFIG_REDIS_TTL" envDefault:"1h"`
}

// NewClientFromConfig builds a Client for cfg.ServiceURL.
func NewClientFromConfig(cfg Config, opts ...ClientOption) *Client {
	return NewClient(cfg.ServiceURL, append([]ClientOption{WithTimeout(cfg.FetchTimeout)}, opts...)...)
}
