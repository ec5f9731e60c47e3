package tenant

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultID is the sentinel tenant used when a request carries no tenant
// signal.
const DefaultID = "default"

// MaxIDLength bounds canonical tenant identifiers; it matches the DNS label
// limit so every valid id also works as a subdomain.
const MaxIDLength = 63

var idPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// Context is the tenant a request was resolved to. ID is never empty.
// Explicit is false only for the DefaultID fallback.
type Context struct {
	ID        string `json:"tenantId"`
	Subdomain string `json:"subdomain,omitempty"`
	Explicit  bool   `json:"explicit"`
}

// Default returns the fallback context.
func Default() Context {
	return Context{ID: DefaultID}
}

// IsDefault reports whether c carries no usable tenant.
func (c Context) IsDefault() bool {
	return !c.Explicit || c.ID == "" || c.ID == DefaultID
}

// Normalize trims surrounding whitespace and lower-cases raw.
func Normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// IsValid reports whether id is a canonical tenant identifier: 1 to
// MaxIDLength characters drawn from lower-case letters, digits and hyphen.
func IsValid(id string) bool {
	if id == "" || len(id) > MaxIDLength {
		return false
	}
	return idPattern.MatchString(id)
}

// Canonical normalizes raw and validates the result. Callers must treat an
// ErrInvalidIdentifier result as "tenant not found".
func Canonical(raw string) (string, error) {
	id := Normalize(raw)
	if !IsValid(id) {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, raw)
	}
	return id, nil
}
