package siteconfig_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantsync/pkg/siteconfig"
)

type fakeRedis struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
	err  error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) SetEx(_ context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	f.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeRedis) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.data[key]
	return ok
}

func TestRedisSource(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("miss reads through and writes back", func(t *testing.T) {
		t.Parallel()
		rdb := newFakeRedis()
		next := siteconfig.NewMemorySource()
		stored := next.Put(&siteconfig.TenantConfig{ID: "acme", Name: "Acme"})
		src := siteconfig.NewRedisSource(rdb, next, siteconfig.WithRedisTTL(time.Minute))

		doc, err := src.Config(ctx, "acme")
		require.NoError(t, err)
		assert.Equal(t, "Acme", doc.Name)
		assert.True(t, rdb.has("config:acme"))
		assert.Equal(t, time.Minute, rdb.ttls["config:acme"])

		cached, err := src.Config(ctx, "acme")
		require.NoError(t, err)
		assert.Equal(t, stored.Fingerprint(), cached.Fingerprint())
		assert.EqualValues(t, 1, next.ConfigCalls())
	})

	t.Run("reads documents written by the config service", func(t *testing.T) {
		t.Parallel()
		rdb := newFakeRedis()
		rdb.data["config:acme"] = `{"tenantId":"acme","version":9,"branding":{"name":"Acme"}}`
		next := siteconfig.NewMemorySource()
		src := siteconfig.NewRedisSource(rdb, next)

		doc, err := src.Config(ctx, "acme")
		require.NoError(t, err)
		assert.Equal(t, "acme", doc.ID)
		assert.Equal(t, siteconfig.Fingerprint("9"), doc.Fingerprint())
		assert.Zero(t, next.ConfigCalls())
	})

	t.Run("redis failure falls back", func(t *testing.T) {
		t.Parallel()
		rdb := newFakeRedis()
		rdb.err = errors.New("connection refused")
		next := siteconfig.NewMemorySource(&siteconfig.TenantConfig{ID: "acme"})
		src := siteconfig.NewRedisSource(rdb, next)

		doc, err := src.Config(ctx, "acme")
		require.NoError(t, err)
		assert.Equal(t, "acme", doc.ID)
	})

	t.Run("unreadable entry falls back", func(t *testing.T) {
		t.Parallel()
		rdb := newFakeRedis()
		rdb.data["config:acme"] = `not json`
		next := siteconfig.NewMemorySource(&siteconfig.TenantConfig{ID: "acme"})
		src := siteconfig.NewRedisSource(rdb, next)

		_, err := src.Config(ctx, "acme")
		require.NoError(t, err)
		assert.EqualValues(t, 1, next.ConfigCalls())
	})

	t.Run("not found is not cached", func(t *testing.T) {
		t.Parallel()
		rdb := newFakeRedis()
		src := siteconfig.NewRedisSource(rdb, siteconfig.NewMemorySource())

		_, err := src.Config(ctx, "ghost")
		assert.ErrorIs(t, err, siteconfig.ErrNotFound)
		assert.False(t, rdb.has("config:ghost"))
	})

	t.Run("version goes to the inner source", func(t *testing.T) {
		t.Parallel()
		rdb := newFakeRedis()
		next := siteconfig.NewMemorySource()
		stored := next.Put(&siteconfig.TenantConfig{ID: "acme"})
		src := siteconfig.NewRedisSource(rdb, next)

		info, err := src.Version(ctx, "acme")
		require.NoError(t, err)
		assert.Equal(t, stored.Fingerprint(), info.Fingerprint)
	})

	t.Run("invalidate", func(t *testing.T) {
		t.Parallel()
		rdb := newFakeRedis()
		rdb.data["config:acme"] = `{"id":"acme"}`
		src := siteconfig.NewRedisSource(rdb, siteconfig.NewMemorySource())

		require.NoError(t, src.Invalidate(ctx, "acme"))
		assert.False(t, rdb.has("config:acme"))

		rdb.err = errors.New("down")
		assert.True(t, siteconfig.IsTransient(src.Invalidate(ctx, "acme")))
	})
}
