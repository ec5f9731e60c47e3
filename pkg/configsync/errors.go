package configsync

import "errors"

var (
	// ErrNotInitialized is returned when a session is used before its first
	// snapshot, or looked up before it was opened.
	ErrNotInitialized = errors.New("config sync session not initialized")

	// ErrDestroyed is returned by every operation after teardown. Fetches
	// that complete after Destroy report it instead of their result.
	ErrDestroyed = errors.New("config sync session destroyed")
)
