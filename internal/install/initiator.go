package install

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/oauth2"

	"shopinstall/internal/embed"
	"shopinstall/internal/nonce"
)

// Initiator builds the redirect that sends the merchant to the provider's consent page.
type Initiator struct {
	client   *OAuthClient
	nonces   *nonce.Manager
	resolver *embed.Resolver
	perUser  bool
}

func NewInitiator(client *OAuthClient, nonces *nonce.Manager, resolver *embed.Resolver, perUser bool) *Initiator {
	return &Initiator{client: client, nonces: nonces, resolver: resolver, perUser: perUser}
}

// Begin issues a state nonce for shop and returns the authorize URL carrying it.
// requestedScopes overrides the configured scopes when non-empty.
func (i *Initiator) Begin(ctx context.Context, rawShop string, requestedScopes []string) (string, error) {
	if strings.TrimSpace(rawShop) == "" {
		return "", ErrMissingTenant
	}
	shop, err := i.resolver.NormalizeShop(rawShop)
	if err != nil {
		return "", err
	}
	state, err := i.nonces.Issue(ctx, shop)
	if err != nil {
		return "", fmt.Errorf("begin install: %w", err)
	}
	client := *i.client
	if len(requestedScopes) > 0 {
		client.Scopes = requestedScopes
	}
	var opts []oauth2.AuthCodeOption
	if i.perUser {
		opts = append(opts, oauth2.SetAuthURLParam("grant_options[]", "per-user"))
	}
	return client.config(shop).AuthCodeURL(state, opts...), nil
}
