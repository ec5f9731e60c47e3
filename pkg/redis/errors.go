package redis

import "errors"

var (
	ErrEmptyURL   = errors.New("redis: empty connection url, set REDIS_URL")
	ErrInvalidURL = errors.New("redis: invalid connection url")
	ErrNotReady   = errors.New("redis: server did not answer ping in time")
	ErrPingFailed = errors.New("redis: ping failed")
)
