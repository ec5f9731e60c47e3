package tenant

import (
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/tenantsync/pkg/logger"
)

// Middleware resolves the tenant of every request and stores it in the
// request context. A fault during resolution is logged and answered with a
// 500 JSON body; it never reaches the transport. Requests without any tenant
// signal continue with the default context.
func Middleware(identifier *Identifier, opts ...Option) func(http.Handler) http.Handler {
	if identifier == nil {
		identifier = NewIdentifier()
	}
	cfg := newConfig(opts)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.skip(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			tc, err := identifier.Resolve(r)
			if err != nil {
				cfg.logger.ErrorContext(r.Context(), "tenant resolution failed",
					logger.Error(err),
					slog.String("host", r.Host),
					slog.String("path", r.URL.Path),
				)
				cfg.errorHandler(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), tc)))
		})
	}
}

// RequireTenant rejects requests that resolved to the default tenant. It has
// no side effects besides writing the error response.
func RequireTenant(errorHandler ErrorHandler) func(http.Handler) http.Handler {
	if errorHandler == nil {
		errorHandler = DefaultErrorHandler
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tc, ok := FromContext(r.Context())
			if !ok || tc.IsDefault() {
				errorHandler(w, r, ErrTenantRequired)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
