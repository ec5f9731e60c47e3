package siteconfig

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/tenantsync/pkg/logger"
)

const (
	// DefaultRedisTTL matches the config service's own cache lifetime.
	DefaultRedisTTL = time.Hour

	redisKeyPrefix = "config:"
)

// RedisClient is the subset of go-redis used by RedisSource.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	SetEx(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisSource serves documents from the shared Redis tier and falls back to
// next on a miss, writing the result back. Redis failures degrade to next;
// they never fail a read on their own. Version always asks next.
type RedisSource struct {
	client RedisClient
	next   Source
	ttl    time.Duration
	log    *slog.Logger
}

// RedisOption configures a RedisSource.
type RedisOption func(*RedisSource)

func WithRedisTTL(ttl time.Duration) RedisOption {
	return func(s *RedisSource) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithRedisLogger(l *slog.Logger) RedisOption {
	return func(s *RedisSource) {
		if l != nil {
			s.log = l
		}
	}
}

func NewRedisSource(client RedisClient, next Source, opts ...RedisOption) *RedisSource {
	s := &RedisSource{
		client: client,
		next:   next,
		ttl:    DefaultRedisTTL,
		log:    logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(logger.Component("redis_source"))
	return s
}

// redisEntry is what RedisSource writes. Plain documents written by the
// config service itself are read as well.
type redisEntry struct {
	Fingerprint Fingerprint     `json:"fingerprint"`
	Config      json.RawMessage `json:"config"`
}

func (s *RedisSource) Config(ctx context.Context, id string) (*TenantConfig, error) {
	key := redisKeyPrefix + id

	raw, err := s.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		doc, derr := decodeRedisEntry(raw)
		if derr == nil {
			return doc, nil
		}
		s.log.WarnContext(ctx, "discarding unreadable cache entry",
			logger.TenantID(id), logger.Error(derr))
	case errors.Is(err, redis.Nil):
	default:
		s.log.WarnContext(ctx, "redis read failed, falling back",
			logger.TenantID(id), logger.Error(err))
	}

	doc, err := s.next.Config(ctx, id)
	if err != nil {
		return nil, classify(err)
	}
	s.store(ctx, key, doc)
	return doc, nil
}

func (s *RedisSource) Version(ctx context.Context, id string) (VersionInfo, error) {
	info, err := s.next.Version(ctx, id)
	return info, classify(err)
}

// Invalidate drops the cached entry for id.
func (s *RedisSource) Invalidate(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrTransient, err)
	}
	return nil
}

func (s *RedisSource) store(ctx context.Context, key string, doc *TenantConfig) {
	body, err := json.Marshal(doc)
	if err != nil {
		s.log.WarnContext(ctx, "encode cache entry", logger.Error(err))
		return
	}
	entry, err := json.Marshal(redisEntry{Fingerprint: doc.Fingerprint(), Config: body})
	if err != nil {
		s.log.WarnContext(ctx, "encode cache entry", logger.Error(err))
		return
	}
	if err := s.client.SetEx(ctx, key, entry, s.ttl).Err(); err != nil {
		s.log.WarnContext(ctx, "redis write-back failed", slog.String("key", key), logger.Error(err))
	}
}

func decodeRedisEntry(raw []byte) (*TenantConfig, error) {
	var entry redisEntry
	if err := json.Unmarshal(raw, &entry); err == nil && len(entry.Config) > 0 {
		var doc TenantConfig
		if err := json.Unmarshal(entry.Config, &doc); err != nil {
			return nil, err
		}
		if entry.Fingerprint != "" {
			doc.setFingerprint(entry.Fingerprint)
		}
		return &doc, nil
	}

	var doc TenantConfig
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}
