package shops

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sqliteSchema = `CREATE TABLE shops (
	tenant_domain TEXT NOT NULL PRIMARY KEY,
	access_token  TEXT NOT NULL,
	scope         TEXT,
	created_at    INTEGER NOT NULL,
	updated_at    INTEGER NOT NULL
)`

func openTestSQLite(t *testing.T, withSchema bool) Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shops.db")
	s, err := OpenSQLite("sqlite:" + path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	if withSchema {
		_, err := s.(*sqliteStore).db.Exec(sqliteSchema)
		require.NoError(t, err)
	}
	return s
}

func TestSQLiteStore(t *testing.T) {
	exerciseStore(t, openTestSQLite(t, true))
}

func TestSQLiteStore_NoRowDuplication(t *testing.T) {
	s := openTestSQLite(t, true)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := s.Upsert(ctx, "foo.myshopify.com", fmt.Sprintf("tok-%d", i), "")
		require.NoError(t, err)
	}
	var n int
	require.NoError(t, s.(*sqliteStore).db.QueryRow(`SELECT COUNT(*) FROM shops WHERE tenant_domain = ?`, "foo.myshopify.com").Scan(&n))
	assert.Equal(t, 1, n)
}

func TestSQLiteStore_MissingSchemaIsPersistenceFailure(t *testing.T) {
	s := openTestSQLite(t, false)
	_, err := s.Upsert(context.Background(), "foo.myshopify.com", "tok", "")
	assert.ErrorIs(t, err, ErrPersistenceFailed)
}

func TestSQLiteStore_ClosedIsUnavailable(t *testing.T) {
	s := openTestSQLite(t, true)
	require.NoError(t, s.Close())
	_, err := s.Upsert(context.Background(), "foo.myshopify.com", "tok", "")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestOpenSQLite_EmptyPath(t *testing.T) {
	_, err := OpenSQLite("sqlite:")
	assert.Error(t, err)
}
