package configapi

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/tenantsync/pkg/environment"
	"github.com/dmitrymomot/tenantsync/pkg/httpserver"
	"github.com/dmitrymomot/tenantsync/pkg/logger"
)

const (
	defaultHealthTimeout = 5 * time.Second
	defaultKeepAlive     = 15 * time.Second
)

// Option configures a router.
type Option func(*options)

type options struct {
	log           *slog.Logger
	env           environment.Environment
	gatherer      prometheus.Gatherer
	checks        []httpserver.Check
	healthTimeout time.Duration
	keepAlive     time.Duration
	sourceName    string
}

func newOptions(opts []Option) *options {
	o := &options{
		log:           logger.Discard(),
		env:           environment.Development,
		healthTimeout: defaultHealthTimeout,
		keepAlive:     defaultKeepAlive,
		sourceName:    "database",
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithEnvironment tags every request context with env.
func WithEnvironment(env environment.Environment) Option {
	return func(o *options) { o.env = env }
}

// WithGatherer exposes g on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(o *options) { o.gatherer = g }
}

// WithHealthChecks turns /health into a readiness probe over checks.
func WithHealthChecks(checks ...httpserver.Check) Option {
	return func(o *options) { o.checks = append(o.checks, checks...) }
}

// WithKeepAlive sets the comment interval on event streams.
func WithKeepAlive(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.keepAlive = d
		}
	}
}

// WithSourceName sets the "source" field of config envelopes.
func WithSourceName(name string) Option {
	return func(o *options) { o.sourceName = name }
}
