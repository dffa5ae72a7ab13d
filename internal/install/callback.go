package install

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"shopinstall/internal/nonce"
	"shopinstall/pkg/shops"
)

// Installation is the result of a completed callback.
type Installation struct {
	Shop        string
	AccessToken string
	Scope       string
	InstalledAt time.Time
}

// CallbackProcessor redeems the state, exchanges the code and stores the credential.
type CallbackProcessor struct {
	nonces    *nonce.Manager
	exchanger Exchanger
	store     shops.Store
}

func NewCallbackProcessor(nonces *nonce.Manager, exchanger Exchanger, store shops.Store) *CallbackProcessor {
	return &CallbackProcessor{nonces: nonces, exchanger: exchanger, store: store}
}

// HandleCallback expects shop already normalized. A storage failure after a good exchange
// is not retried; the grant is lost and the merchant has to reinstall.
func (p *CallbackProcessor) HandleCallback(ctx context.Context, shop, state, code string) (Installation, error) {
	if strings.TrimSpace(shop) == "" {
		return Installation{}, ErrMissingTenant
	}
	if err := p.nonces.ValidateAndConsume(ctx, state, shop); err != nil {
		return Installation{}, err
	}
	grant, err := p.exchanger.Exchange(ctx, shop, code)
	if err != nil {
		if !errors.Is(err, ErrGrantExchangeFailed) {
			err = fmt.Errorf("%w: %v", ErrGrantExchangeFailed, err)
		}
		return Installation{}, err
	}
	cred, err := p.store.Upsert(ctx, shop, grant.AccessToken, grant.Scope)
	if err != nil {
		return Installation{}, fmt.Errorf("%w: %w", ErrInstallationIncomplete, err)
	}
	return Installation{
		Shop:        cred.TenantDomain,
		AccessToken: cred.AccessToken,
		Scope:       cred.Scope,
		InstalledAt: cred.UpdatedAt,
	}, nil
}
