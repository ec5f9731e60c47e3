package siteconfig

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the tenant has no configuration.
	ErrNotFound = errors.New("tenant config not found")

	// ErrInvalidTenant means the identifier failed validation. It is reported
	// as not found so callers need a single check.
	ErrInvalidTenant = fmt.Errorf("%w: invalid tenant identifier", ErrNotFound)

	// ErrTransient covers network and service failures. Retrying later may
	// succeed; cached state stays valid.
	ErrTransient = errors.New("config source unavailable")

	// ErrMismatchedTenant means a source answered with another tenant's
	// document. It is always joined with ErrTransient.
	ErrMismatchedTenant = errors.New("config document belongs to another tenant")
)

// IsNotFound reports whether err means the tenant has no usable config,
// including an invalid identifier.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsTransient reports whether err is retryable.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// classify guarantees every error leaving a Source carries a kind.
func classify(err error) error {
	if err == nil || IsNotFound(err) || IsTransient(err) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrTransient, err)
}
