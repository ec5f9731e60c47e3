package tenant

import "errors"

var (
	// ErrTenantRequired is returned by the guard when the request resolved to
	// the default tenant.
	ErrTenantRequired = errors.New("tenant context is required")

	ErrInvalidIdentifier = errors.New("invalid tenant identifier")

	// ErrResolutionFailed wraps an unexpected fault raised while resolving.
	ErrResolutionFailed = errors.New("failed to process tenant context")
)
