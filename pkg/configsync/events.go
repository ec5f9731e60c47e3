package configsync

import (
	"time"

	"github.com/dmitrymomot/tenantsync/pkg/siteconfig"
)

// EventKind names what happened to a session.
type EventKind string

const (
	// EventSnapshot carries a newly installed snapshot.
	EventSnapshot EventKind = "snapshot"
	// EventUpdateAvailable means the remote fingerprint moved past the
	// snapshot. The snapshot itself is unchanged until Adopt.
	EventUpdateAvailable EventKind = "update_available"
	// EventError reports a failed fetch or check. The snapshot is kept.
	EventError EventKind = "error"
	// EventDestroyed is the last event of a session.
	EventDestroyed EventKind = "destroyed"
)

// Event is published to session subscribers.
type Event struct {
	Kind        EventKind                `json:"kind"`
	TenantID    string                   `json:"tenantId"`
	Snapshot    *siteconfig.TenantConfig `json:"snapshot,omitempty"`
	Fingerprint siteconfig.Fingerprint   `json:"fingerprint,omitempty"`
	Error       string                   `json:"error,omitempty"`
	At          time.Time                `json:"at"`

	Err error `json:"-"`
}
