package shops

import (
	"context"
	"errors"
)

var (
	// ErrStoreUnavailable means the backing storage could not be reached.
	ErrStoreUnavailable = errors.New("credential store unavailable")
	// ErrPersistenceFailed means storage answered but rejected the write.
	ErrPersistenceFailed = errors.New("credential persistence failed")
	ErrNotFound          = errors.New("shop not found")
	errEmptyKey          = errors.New("tenant domain and access token are required")
)

type Store interface {
	// Upsert inserts or replaces the credential for tenantDomain in one atomic step.
	// created_at of an existing row is kept; the last writer wins on access_token.
	Upsert(ctx context.Context, tenantDomain, accessToken, scope string) (Credential, error)
	Get(ctx context.Context, tenantDomain string) (Credential, error)
	Close() error
}

func validateKey(tenantDomain, accessToken string) error {
	if tenantDomain == "" || accessToken == "" {
		return errors.Join(ErrPersistenceFailed, errEmptyKey)
	}
	return nil
}
