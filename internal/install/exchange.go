package install

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
)

// Grant is what the token endpoint hands back for an authorization code.
type Grant struct {
	AccessToken string
	Scope       string
}

// Exchanger trades an authorization code for a grant at the shop's token endpoint.
type Exchanger interface {
	Exchange(ctx context.Context, shop, code string) (Grant, error)
}

// OAuthClient holds the app's client credentials and builds the per-shop oauth2 config.
type OAuthClient struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
	// HTTPClient is used for the token call; nil means http.DefaultClient.
	HTTPClient *http.Client
	// TokenURL overrides the token endpoint; nil means https://{shop}/admin/oauth/access_token.
	TokenURL func(shop string) string
}

func (c *OAuthClient) config(shop string) *oauth2.Config {
	tokenURL := "https://" + shop + "/admin/oauth/access_token"
	if c.TokenURL != nil {
		tokenURL = c.TokenURL(shop)
	}
	var scopes []string
	if len(c.Scopes) > 0 {
		// The platform expects one comma separated scope parameter.
		scopes = []string{strings.Join(c.Scopes, ",")}
	}
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  c.RedirectURL,
		Scopes:       scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   "https://" + shop + "/admin/oauth/authorize",
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// Exchange posts client id, secret and code to the token endpoint. Any transport error,
// non-2xx answer or response without access_token is ErrGrantExchangeFailed.
func (c *OAuthClient) Exchange(ctx context.Context, shop, code string) (Grant, error) {
	if strings.TrimSpace(code) == "" {
		return Grant{}, fmt.Errorf("%w: missing code", ErrGrantExchangeFailed)
	}
	if c.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.HTTPClient)
	}
	tok, err := c.config(shop).Exchange(ctx, code)
	if err != nil {
		return Grant{}, fmt.Errorf("%w: %v", ErrGrantExchangeFailed, err)
	}
	if tok.AccessToken == "" {
		return Grant{}, fmt.Errorf("%w: empty access token", ErrGrantExchangeFailed)
	}
	g := Grant{AccessToken: tok.AccessToken}
	if s, ok := tok.Extra("scope").(string); ok {
		g.Scope = s
	}
	return g, nil
}
