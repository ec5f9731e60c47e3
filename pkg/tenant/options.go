package tenant

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dmitrymomot/tenantsync/pkg/logger"
)

// ErrorHandler writes the response for a failed resolution or guard check.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

type config struct {
	errorHandler ErrorHandler
	skipPaths    []string
	logger       *slog.Logger
}

// Option configures the middleware.
type Option func(*config)

func WithErrorHandler(handler ErrorHandler) Option {
	return func(c *config) {
		if handler != nil {
			c.errorHandler = handler
		}
	}
}

// WithSkipPaths bypasses resolution for requests whose path starts with any
// of the given prefixes (health checks, metrics).
func WithSkipPaths(paths ...string) Option {
	return func(c *config) {
		c.skipPaths = append(c.skipPaths, paths...)
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

func (c *config) skip(path string) bool {
	for _, p := range c.skipPaths {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// DefaultErrorHandler maps tenant errors to JSON responses: 400 for a missing
// or invalid tenant and 500 for anything else.
func DefaultErrorHandler(w http.ResponseWriter, _ *http.Request, err error) {
	switch {
	case errors.Is(err, ErrTenantRequired):
		WriteError(w, http.StatusBadRequest, "Tenant context is required. Provide X-Tenant-ID header, use a tenant subdomain or /market/<tenant> path")
	case errors.Is(err, ErrInvalidIdentifier):
		WriteError(w, http.StatusBadRequest, "Invalid tenant identifier")
	default:
		WriteError(w, http.StatusInternalServerError, "Failed to process tenant context")
	}
}

func newConfig(opts []Option) *config {
	c := &config{
		errorHandler: DefaultErrorHandler,
		logger:       logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
