package siteconfig

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// MemorySource keeps documents in process. It backs tests and local
// development, and plays the single writer: Put bumps the version.
type MemorySource struct {
	mu   sync.RWMutex
	docs map[string]*TenantConfig
	err  error
	now  func() time.Time

	configCalls  atomic.Int64
	versionCalls atomic.Int64
}

// NewMemorySource creates a source preloaded with docs, stored as given.
func NewMemorySource(docs ...*TenantConfig) *MemorySource {
	m := &MemorySource{
		docs: make(map[string]*TenantConfig, len(docs)),
		now:  time.Now,
	}
	for _, d := range docs {
		m.docs[d.ID] = d.Clone()
	}
	return m
}

// Put stores a copy of doc as the next revision and returns it. The version
// becomes the previous version plus one and UpdatedAt the current time.
func (m *MemorySource) Put(doc *TenantConfig) *TenantConfig {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := doc.Clone()
	next.setFingerprint("")
	if prev, ok := m.docs[next.ID]; ok {
		next.Version = prev.Version + 1
	} else if next.Version == 0 {
		next.Version = 1
	}
	next.UpdatedAt = m.now().UTC()
	m.docs[next.ID] = next
	return next.Clone()
}

func (m *MemorySource) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, id)
}

// SetError makes every following call fail with err until it is reset with
// nil.
func (m *MemorySource) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MemorySource) Config(ctx context.Context, id string) (*TenantConfig, error) {
	m.configCalls.Add(1)
	doc, err := m.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	return doc.Clone(), nil
}

func (m *MemorySource) Version(ctx context.Context, id string) (VersionInfo, error) {
	m.versionCalls.Add(1)
	doc, err := m.lookup(ctx, id)
	if err != nil {
		return VersionInfo{}, err
	}
	return VersionInfo{Fingerprint: doc.Fingerprint(), Version: doc.Version, UpdatedAt: doc.UpdatedAt}, nil
}

// ConfigCalls returns how many times Config was called.
func (m *MemorySource) ConfigCalls() int64 { return m.configCalls.Load() }

// VersionCalls returns how many times Version was called.
func (m *MemorySource) VersionCalls() int64 { return m.versionCalls.Load() }

func (m *MemorySource) lookup(ctx context.Context, id string) (*TenantConfig, error) {
	if err := ctx.Err(); err != nil {
		return nil, classify(err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, classify(m.err)
	}
	doc, ok := m.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return doc, nil
}
