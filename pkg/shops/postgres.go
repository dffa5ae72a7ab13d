// pkg/shops/postgres.go
package shops

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// querier is the subset of *pgxpool.Pool the store needs.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// pgStore implements Store backed by PostgreSQL.
type pgStore struct {
	db  querier            // nil when the pool could not be built
	log *zap.SugaredLogger // Logger for diagnostic output
}

// NewPostgresStore wraps a pgx pool. The pool is owned and closed by the caller.
func NewPostgresStore(db querier, log *zap.SugaredLogger) Store {
	return &pgStore{db: db, log: log}
}

const pgUpsert = `INSERT INTO shops (tenant_domain, access_token, scope, created_at, updated_at)
VALUES ($1, $2, $3, NOW(), NOW())
ON CONFLICT (tenant_domain) DO UPDATE SET
	access_token = EXCLUDED.access_token,
	scope = EXCLUDED.scope,
	updated_at = EXCLUDED.updated_at
RETURNING tenant_domain, access_token, COALESCE(scope, ''), created_at, updated_at`

const pgGet = `SELECT tenant_domain, access_token, COALESCE(scope, ''), created_at, updated_at
FROM shops WHERE tenant_domain = $1`

// Upsert relies on the unique index on tenant_domain; concurrent installs of the
// same shop serialize on the row and the later commit wins.
func (p *pgStore) Upsert(ctx context.Context, tenantDomain, accessToken, scope string) (Credential, error) {
	if err := validateKey(tenantDomain, accessToken); err != nil {
		return Credential{}, err
	}
	if p.db == nil {
		return Credential{}, ErrStoreUnavailable
	}
	var c Credential
	err := p.db.QueryRow(ctx, pgUpsert, tenantDomain, accessToken, scope).
		Scan(&c.TenantDomain, &c.AccessToken, &c.Scope, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		p.log.Warnw("shop upsert failed", "shop", tenantDomain, "err", err)
		return Credential{}, classifyPg(err)
	}
	return c, nil
}

func (p *pgStore) Get(ctx context.Context, tenantDomain string) (Credential, error) {
	if p.db == nil {
		return Credential{}, ErrStoreUnavailable
	}
	var c Credential
	err := p.db.QueryRow(ctx, pgGet, tenantDomain).
		Scan(&c.TenantDomain, &c.AccessToken, &c.Scope, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Credential{}, ErrNotFound
	}
	if err != nil {
		return Credential{}, classifyPg(err)
	}
	return c, nil
}

func (p *pgStore) Close() error { return nil }

// classifyPg separates server-side statement errors from connectivity failures.
func classifyPg(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%w: %s (sqlstate %s)", ErrPersistenceFailed, pgErr.Message, pgErr.Code)
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
