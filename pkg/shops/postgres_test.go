package shops

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRow struct {
	vals []any
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = r.vals[i].(string)
		case *time.Time:
			*p = r.vals[i].(time.Time)
		}
	}
	return nil
}

type fakeQuerier struct {
	sql  string
	args []any
	row  fakeRow
}

func (q *fakeQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	q.sql, q.args = sql, args
	return q.row
}

func TestPostgresStore_UpsertStatement(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	q := &fakeQuerier{row: fakeRow{vals: []any{"foo.myshopify.com", "tok", "read_products", created, created}}}
	s := NewPostgresStore(q, zap.NewNop().Sugar())

	c, err := s.Upsert(context.Background(), "foo.myshopify.com", "tok", "read_products")
	require.NoError(t, err)
	assert.Equal(t, "tok", c.AccessToken)
	assert.Equal(t, created, c.CreatedAt)
	assert.Contains(t, q.sql, "ON CONFLICT (tenant_domain) DO UPDATE")
	assert.NotContains(t, q.sql, "created_at = EXCLUDED", "created_at must be immutable")
	assert.Equal(t, []any{"foo.myshopify.com", "tok", "read_products"}, q.args)
}

func TestPostgresStore_ErrorClassification(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"statement error", &pgconn.PgError{Code: "42P01", Message: `relation "shops" does not exist`}, ErrPersistenceFailed},
		{"connection refused", errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"), ErrStoreUnavailable},
		{"deadline", context.DeadlineExceeded, ErrStoreUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewPostgresStore(&fakeQuerier{row: fakeRow{err: tc.err}}, zap.NewNop().Sugar())
			_, err := s.Upsert(context.Background(), "foo.myshopify.com", "tok", "")
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestPostgresStore_GetNotFound(t *testing.T) {
	s := NewPostgresStore(&fakeQuerier{row: fakeRow{err: pgx.ErrNoRows}}, zap.NewNop().Sugar())
	_, err := s.Get(context.Background(), "foo.myshopify.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresStore_NilPool(t *testing.T) {
	s := NewPostgresStore(nil, zap.NewNop().Sugar())
	_, err := s.Upsert(context.Background(), "foo.myshopify.com", "tok", "")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}
