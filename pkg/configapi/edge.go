package configapi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/tenantsync/pkg/configsync"
	"github.com/dmitrymomot/tenantsync/pkg/environment"
	"github.com/dmitrymomot/tenantsync/pkg/httpserver"
	"github.com/dmitrymomot/tenantsync/pkg/logger"
	"github.com/dmitrymomot/tenantsync/pkg/requestid"
	"github.com/dmitrymomot/tenantsync/pkg/siteconfig"
	"github.com/dmitrymomot/tenantsync/pkg/tenant"
)

// NewEdgeRouter serves the storefront edge. Every request is tagged with a
// request id, the environment and its tenant; the /api routes require an
// explicit tenant:
//
//	GET /api/tenant          resolved tenant context
//	GET /api/config          current document, one source call per request
//	GET /api/config/version  current fingerprint
//	GET /api/config/events   server-sent events of the tenant's sync session
func NewEdgeRouter(identifier *tenant.Identifier, fetcher *siteconfig.Fetcher, registry *configsync.Registry, opts ...Option) http.Handler {
	o := newOptions(opts)
	h := &edge{fetcher: fetcher, registry: registry, opts: o}

	r := chi.NewRouter()
	r.Use(
		requestid.Middleware,
		environment.Middleware(o.env),
		tenant.Middleware(identifier,
			tenant.WithSkipPaths("/health", "/metrics"),
			tenant.WithLogger(o.log)),
	)
	r.Get("/health", healthHandler(o))
	mountMetrics(r, o)

	r.Route("/api", func(r chi.Router) {
		r.Use(tenant.RequireTenant(nil))
		r.Get("/tenant", h.tenantContext)
		r.Get("/config", h.config)
		r.Get("/config/version", h.version)
		r.Get("/config/events", h.events)
	})
	return r
}

type edge struct {
	fetcher  *siteconfig.Fetcher
	registry *configsync.Registry
	opts     *options
}

func (h *edge) tenantContext(w http.ResponseWriter, r *http.Request) {
	tc, _ := tenant.FromContext(r.Context())
	writeJSON(w, http.StatusOK, tc)
}

func (h *edge) config(w http.ResponseWriter, r *http.Request) {
	id := tenant.IDFromContext(r.Context())
	doc, err := h.fetcher.Cold(r.Context(), id)
	if err != nil {
		h.fetchFailed(w, r, err)
		return
	}

	fp := doc.Fingerprint()
	etag := fmt.Sprintf("%q", fp)
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeJSON(w, http.StatusOK, siteconfig.ConfigEnvelope{
		Success:     true,
		Data:        doc,
		Source:      "origin",
		Fingerprint: fp,
	})
}

func (h *edge) version(w http.ResponseWriter, r *http.Request) {
	info, err := h.fetcher.Version(r.Context(), tenant.IDFromContext(r.Context()))
	if err != nil {
		h.fetchFailed(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, versionEnvelope(info))
}

// fetchFailed maps fetch errors: unknown or invalid tenants are 404,
// upstream trouble is 502.
func (h *edge) fetchFailed(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case siteconfig.IsNotFound(err):
		notFound(w)
	case siteconfig.IsTransient(err):
		h.opts.log.WarnContext(r.Context(), "config source unavailable", logger.Error(err))
		writeJSON(w, http.StatusBadGateway, failure{Error: "Config service unavailable"})
	default:
		h.opts.log.ErrorContext(r.Context(), "config fetch failed", logger.Error(err))
		writeJSON(w, http.StatusInternalServerError, failure{Error: "Failed to fetch config"})
	}
}

func healthHandler(o *options) http.HandlerFunc {
	return httpserver.HealthCheckHandler(o.log, o.healthTimeout, o.checks...)
}

func mountMetrics(r chi.Router, o *options) {
	if o.gatherer == nil {
		return
	}
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(o.gatherer, promhttp.HandlerOpts{}))
}
