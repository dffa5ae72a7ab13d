// pkg/shops/memory.go
package shops

import (
	"context"
	"sync"
	"time"
)

type memStore struct {
	mu     sync.Mutex
	now    func() time.Time
	byShop map[string]Credential
}

// NewMemoryStore is the dev fallback used when DATABASE_URL is unset.
func NewMemoryStore() Store {
	return &memStore{now: time.Now, byShop: map[string]Credential{}}
}

func (m *memStore) Upsert(ctx context.Context, tenantDomain, accessToken, scope string) (Credential, error) {
	if err := validateKey(tenantDomain, accessToken); err != nil {
		return Credential{}, err
	}
	if err := ctx.Err(); err != nil {
		return Credential{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now().UTC()
	c, ok := m.byShop[tenantDomain]
	if !ok {
		c = Credential{TenantDomain: tenantDomain, CreatedAt: now}
	}
	c.AccessToken = accessToken
	c.Scope = scope
	c.UpdatedAt = now
	m.byShop[tenantDomain] = c
	return c, nil
}

func (m *memStore) Get(ctx context.Context, tenantDomain string) (Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.byShop[tenantDomain]; ok {
		return c, nil
	}
	return Credential{}, ErrNotFound
}

func (m *memStore) Close() error { return nil }
