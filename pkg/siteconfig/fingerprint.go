package siteconfig

import (
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint identifies one revision of a tenant's configuration. It is
// opaque: only equality is meaningful.
type Fingerprint string

// VersionInfo is the cheap answer to "has the configuration changed?".
type VersionInfo struct {
	Fingerprint Fingerprint `json:"fingerprint"`
	Version     int64       `json:"version"`
	UpdatedAt   time.Time   `json:"updatedAt,omitzero"`
}

// VersionFingerprint derives a fingerprint from a version counter and an
// optional update timestamp.
func VersionFingerprint(version int64, updatedAt time.Time) Fingerprint {
	fp := strconv.FormatInt(version, 10)
	if !updatedAt.IsZero() {
		fp += "@" + updatedAt.UTC().Format(time.RFC3339Nano)
	}
	return Fingerprint(fp)
}

// ContentFingerprint hashes a serialized document.
func ContentFingerprint(data []byte) Fingerprint {
	return Fingerprint(fmt.Sprintf("xxh64:%016x", xxhash.Sum64(data)))
}
