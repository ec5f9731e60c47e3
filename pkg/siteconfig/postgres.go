package siteconfig

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/tenantsync/pkg/pg"
)

const (
	selectConfigSQL  = `SELECT config, version, updated_at FROM tenant_configs WHERE tenant_id = $1`
	selectVersionSQL = `SELECT version, updated_at FROM tenant_configs WHERE tenant_id = $1`
	upsertConfigSQL  = `INSERT INTO tenant_configs (tenant_id, config, version, updated_at)
VALUES ($1, $2, 1, now())
ON CONFLICT (tenant_id) DO UPDATE
SET config = EXCLUDED.config, version = tenant_configs.version + 1, updated_at = now()
RETURNING version, updated_at`
)

// Querier is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresSource reads documents from the tenant_configs table. The version
// and updated_at columns are authoritative over the values inside the JSON.
type PostgresSource struct {
	db Querier
}

func NewPostgresSource(db Querier) *PostgresSource {
	return &PostgresSource{db: db}
}

func (s *PostgresSource) Config(ctx context.Context, id string) (*TenantConfig, error) {
	var (
		raw       []byte
		version   int64
		updatedAt time.Time
	)
	if err := s.db.QueryRow(ctx, selectConfigSQL, id).Scan(&raw, &version, &updatedAt); err != nil {
		return nil, pgError(err)
	}

	var doc TenantConfig
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode config of %q: %w", ErrTransient, id, err)
	}
	if doc.ID == "" {
		doc.ID = id
	}
	doc.Version = version
	doc.UpdatedAt = updatedAt.UTC()
	return &doc, nil
}

func (s *PostgresSource) Version(ctx context.Context, id string) (VersionInfo, error) {
	var (
		version   int64
		updatedAt time.Time
	)
	if err := s.db.QueryRow(ctx, selectVersionSQL, id).Scan(&version, &updatedAt); err != nil {
		return VersionInfo{}, pgError(err)
	}
	updatedAt = updatedAt.UTC()
	return VersionInfo{
		Fingerprint: VersionFingerprint(version, updatedAt),
		Version:     version,
		UpdatedAt:   updatedAt,
	}, nil
}

func pgError(err error) error {
	if pg.IsNotFoundError(err) {
		return ErrNotFound
	}
	return fmt.Errorf("%w: %w", ErrTransient, err)
}

// Save upserts doc under its id and returns the stored revision. Every save
// bumps the version by one.
func (s *PostgresSource) Save(ctx context.Context, doc *TenantConfig) (VersionInfo, error) {
	if doc == nil || doc.ID == "" {
		return VersionInfo{}, ErrInvalidTenant
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return VersionInfo{}, fmt.Errorf("encode config of %q: %w", doc.ID, err)
	}

	var (
		version   int64
		updatedAt time.Time
	)
	if err := s.db.QueryRow(ctx, upsertConfigSQL, doc.ID, body).Scan(&version, &updatedAt); err != nil {
		return VersionInfo{}, fmt.Errorf("%w: %w", ErrTransient, err)
	}
	updatedAt = updatedAt.UTC()
	return VersionInfo{
		Fingerprint: VersionFingerprint(version, updatedAt),
		Version:     version,
		UpdatedAt:   updatedAt,
	}, nil
}
