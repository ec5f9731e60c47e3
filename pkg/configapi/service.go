package configapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/tenantsync/pkg/logger"
	"github.com/dmitrymomot/tenantsync/pkg/requestid"
	"github.com/dmitrymomot/tenantsync/pkg/siteconfig"
	"github.com/dmitrymomot/tenantsync/pkg/tenant"
)

// NewServiceRouter serves the config service read contract over src:
//
//	GET /api/config/{tenantID}          {success, data, source, fingerprint}
//	GET /api/config/{tenantID}/version  {success, version, updatedAt, fingerprint}
//
// Unknown and invalid tenants get 404 {"success":false,"error":"Tenant not found"}.
func NewServiceRouter(src siteconfig.Source, opts ...Option) http.Handler {
	o := newOptions(opts)
	h := &service{src: src, opts: o}

	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Get("/health", healthHandler(o))
	mountMetrics(r, o)
	r.Route("/api/config/{tenantID}", func(r chi.Router) {
		r.Get("/", h.config)
		r.Get("/version", h.version)
	})
	return r
}

type service struct {
	src  siteconfig.Source
	opts *options
}

func (h *service) config(w http.ResponseWriter, r *http.Request) {
	id, err := tenant.Canonical(chi.URLParam(r, "tenantID"))
	if err != nil {
		notFound(w)
		return
	}

	doc, err := h.src.Config(r.Context(), id)
	switch {
	case siteconfig.IsNotFound(err):
		notFound(w)
		return
	case err != nil:
		h.opts.log.ErrorContext(r.Context(), "error fetching config", logger.TenantID(id), logger.Error(err))
		writeJSON(w, http.StatusInternalServerError, failure{Error: "Failed to fetch config", Message: err.Error()})
		return
	}

	fp := doc.Fingerprint()
	writeJSON(w, http.StatusOK, siteconfig.ConfigEnvelope{
		Success:     true,
		Data:        doc.Clone().ApplyDefaults(),
		Source:      h.opts.sourceName,
		Fingerprint: fp,
	})
}

func (h *service) version(w http.ResponseWriter, r *http.Request) {
	id, err := tenant.Canonical(chi.URLParam(r, "tenantID"))
	if err != nil {
		notFound(w)
		return
	}

	info, err := h.src.Version(r.Context(), id)
	switch {
	case siteconfig.IsNotFound(err):
		notFound(w)
		return
	case err != nil:
		h.opts.log.ErrorContext(r.Context(), "error getting config version", logger.TenantID(id), logger.Error(err))
		writeJSON(w, http.StatusInternalServerError, failure{Error: "Failed to get config version", Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, versionEnvelope(info))
}
