package configapi

import (
	"encoding/json"
	"net/http"

	"github.com/dmitrymomot/tenantsync/pkg/siteconfig"
)

type failure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func notFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, failure{Error: "Tenant not found"})
}

func versionEnvelope(info siteconfig.VersionInfo) siteconfig.VersionEnvelope {
	env := siteconfig.VersionEnvelope{
		Success:     true,
		Version:     info.Version,
		Fingerprint: info.Fingerprint,
	}
	if !info.UpdatedAt.IsZero() {
		at := info.UpdatedAt
		env.UpdatedAt = &at
	}
	return env
}
