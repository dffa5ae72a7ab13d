package install

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopinstall/internal/nonce"
	"shopinstall/pkg/shops"
)

type stubExchanger struct {
	grant Grant
	err   error
	calls int
}

func (s *stubExchanger) Exchange(context.Context, string, string) (Grant, error) {
	s.calls++
	return s.grant, s.err
}

func newCallbackFixture(t *testing.T, ex Exchanger, store shops.Store) (*CallbackProcessor, *nonce.Manager) {
	t.Helper()
	nonces := nonce.NewManager(nonce.NewMemoryBackend(), time.Minute)
	return NewCallbackProcessor(nonces, ex, store), nonces
}

func TestHandleCallback_StoresCredential(t *testing.T) {
	ctx := context.Background()
	store := shops.NewMemoryStore()
	ex := &stubExchanger{grant: Grant{AccessToken: "tok-a", Scope: "read_products"}}
	p, nonces := newCallbackFixture(t, ex, store)

	state, err := nonces.Issue(ctx, "foo.myshopify.com")
	require.NoError(t, err)

	inst, err := p.HandleCallback(ctx, "foo.myshopify.com", state, "code")
	require.NoError(t, err)
	assert.Equal(t, "foo.myshopify.com", inst.Shop)
	assert.Equal(t, "tok-a", inst.AccessToken)
	assert.Equal(t, "read_products", inst.Scope)
	assert.False(t, inst.InstalledAt.IsZero())

	cred, err := store.Get(ctx, "foo.myshopify.com")
	require.NoError(t, err)
	assert.Equal(t, "tok-a", cred.AccessToken)
}

func TestHandleCallback_ReinstallOverwrites(t *testing.T) {
	ctx := context.Background()
	store := shops.NewMemoryStore()
	ex := &stubExchanger{grant: Grant{AccessToken: "tok-a"}}
	p, nonces := newCallbackFixture(t, ex, store)

	state, _ := nonces.Issue(ctx, "foo.myshopify.com")
	first, err := p.HandleCallback(ctx, "foo.myshopify.com", state, "code")
	require.NoError(t, err)

	ex.grant.AccessToken = "tok-b"
	state, _ = nonces.Issue(ctx, "foo.myshopify.com")
	_, err = p.HandleCallback(ctx, "foo.myshopify.com", state, "code")
	require.NoError(t, err)

	cred, err := store.Get(ctx, "foo.myshopify.com")
	require.NoError(t, err)
	assert.Equal(t, "tok-b", cred.AccessToken)
	assert.Equal(t, first.InstalledAt, cred.CreatedAt)
}

func TestHandleCallback_InvalidStateSkipsExchange(t *testing.T) {
	ctx := context.Background()
	store := shops.NewMemoryStore()
	ex := &stubExchanger{grant: Grant{AccessToken: "tok"}}
	p, nonces := newCallbackFixture(t, ex, store)

	_, err := p.HandleCallback(ctx, "foo.myshopify.com", "unknown", "code")
	assert.ErrorIs(t, err, ErrInvalidState)

	state, _ := nonces.Issue(ctx, "t1.myshopify.com")
	_, err = p.HandleCallback(ctx, "t2.myshopify.com", state, "code")
	assert.ErrorIs(t, err, ErrInvalidState)

	assert.Zero(t, ex.calls)
	_, err = store.Get(ctx, "t2.myshopify.com")
	assert.ErrorIs(t, err, shops.ErrNotFound)
}

func TestHandleCallback_ExchangeFailure(t *testing.T) {
	ctx := context.Background()
	store := shops.NewMemoryStore()
	ex := &stubExchanger{err: errors.New("connection reset")}
	p, nonces := newCallbackFixture(t, ex, store)

	state, _ := nonces.Issue(ctx, "foo.myshopify.com")
	_, err := p.HandleCallback(ctx, "foo.myshopify.com", state, "code")
	assert.ErrorIs(t, err, ErrGrantExchangeFailed)

	_, err = store.Get(ctx, "foo.myshopify.com")
	assert.ErrorIs(t, err, shops.ErrNotFound)
}

func TestHandleCallback_PersistenceFailure(t *testing.T) {
	for _, storeErr := range []error{shops.ErrStoreUnavailable, shops.ErrPersistenceFailed} {
		t.Run(storeErr.Error(), func(t *testing.T) {
			ctx := context.Background()
			ex := &stubExchanger{grant: Grant{AccessToken: "tok"}}
			p, nonces := newCallbackFixture(t, ex, failingStore{err: storeErr})

			state, _ := nonces.Issue(ctx, "foo.myshopify.com")
			_, err := p.HandleCallback(ctx, "foo.myshopify.com", state, "code")
			assert.ErrorIs(t, err, ErrInstallationIncomplete)
			assert.ErrorIs(t, err, storeErr)
			assert.Equal(t, 1, ex.calls)
		})
	}
}

func TestHandleCallback_MissingShop(t *testing.T) {
	p, _ := newCallbackFixture(t, &stubExchanger{}, shops.NewMemoryStore())
	_, err := p.HandleCallback(context.Background(), "", "s", "c")
	assert.ErrorIs(t, err, ErrMissingTenant)
}
