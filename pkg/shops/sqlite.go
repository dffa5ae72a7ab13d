// pkg/shops/sqlite.go
package shops

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
)

// sqliteStore implements Store on a single-file SQLite database.
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens path (a file path, "file:..." URI or ":memory:"). The shops table
// must already exist; see migrations/sqlite.
func OpenSQLite(path string) (Store, error) {
	path = strings.TrimPrefix(strings.TrimSpace(path), "sqlite://")
	path = strings.TrimPrefix(path, "sqlite:")
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := path
	if !strings.Contains(dsn, "?") && dsn != ":memory:" {
		dsn += "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One writer keeps ":memory:" databases on a single connection as well.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	return &sqliteStore{db: db}, nil
}

func toMillis(t time.Time) int64 { return t.UTC().UnixMilli() }

func fromMillis(v int64) time.Time { return time.UnixMilli(v).UTC() }

const sqliteUpsert = `INSERT INTO shops (tenant_domain, access_token, scope, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(tenant_domain) DO UPDATE SET
	access_token = excluded.access_token,
	scope = excluded.scope,
	updated_at = excluded.updated_at
RETURNING tenant_domain, access_token, COALESCE(scope, ''), created_at, updated_at`

func (s *sqliteStore) Upsert(ctx context.Context, tenantDomain, accessToken, scope string) (Credential, error) {
	if err := validateKey(tenantDomain, accessToken); err != nil {
		return Credential{}, err
	}
	now := toMillis(time.Now())
	var (
		c                  Credential
		created, updatedAt int64
	)
	err := s.db.QueryRowContext(ctx, sqliteUpsert, tenantDomain, accessToken, scope, now, now).
		Scan(&c.TenantDomain, &c.AccessToken, &c.Scope, &created, &updatedAt)
	if err != nil {
		return Credential{}, classifySQLite(err)
	}
	c.CreatedAt, c.UpdatedAt = fromMillis(created), fromMillis(updatedAt)
	return c, nil
}

func (s *sqliteStore) Get(ctx context.Context, tenantDomain string) (Credential, error) {
	var (
		c                  Credential
		created, updatedAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT tenant_domain, access_token, COALESCE(scope, ''), created_at, updated_at FROM shops WHERE tenant_domain = ?`,
		tenantDomain,
	).Scan(&c.TenantDomain, &c.AccessToken, &c.Scope, &created, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Credential{}, ErrNotFound
	}
	if err != nil {
		return Credential{}, classifySQLite(err)
	}
	c.CreatedAt, c.UpdatedAt = fromMillis(created), fromMillis(updatedAt)
	return c, nil
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func classifySQLite(err error) error {
	var se *msqlite.Error
	if errors.As(err, &se) {
		return fmt.Errorf("%w: %v", ErrPersistenceFailed, se)
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
