package install

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOAuthClientExchange(t *testing.T) {
	ts := newTokenServer(t)
	c := ts.client()

	g, err := c.Exchange(context.Background(), "foo.myshopify.com", goodCode)
	require.NoError(t, err)
	assert.Equal(t, "shpat_first", g.AccessToken)
	assert.Equal(t, "read_products,read_inventory", g.Scope)
}

func TestOAuthClientExchange_Failures(t *testing.T) {
	ts := newTokenServer(t)

	for name, code := range map[string]string{
		"rejected code":      "bad-code",
		"missing token":      "no-token",
		"empty code skipped": "",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ts.client().Exchange(context.Background(), "foo.myshopify.com", code)
			assert.ErrorIs(t, err, ErrGrantExchangeFailed)
		})
	}

	c := ts.client()
	c.ClientSecret = "wrong"
	_, err := c.Exchange(context.Background(), "foo.myshopify.com", goodCode)
	assert.ErrorIs(t, err, ErrGrantExchangeFailed)

	c = ts.client()
	c.TokenURL = func(string) string { return "http://127.0.0.1:1/admin/oauth/access_token" }
	_, err = c.Exchange(context.Background(), "foo.myshopify.com", goodCode)
	assert.ErrorIs(t, err, ErrGrantExchangeFailed)
}

func TestOAuthClientConfig_DefaultEndpoints(t *testing.T) {
	c := &OAuthClient{ClientID: "id", Scopes: []string{"a", "b"}}
	cfg := c.config("foo.myshopify.com")
	assert.Equal(t, "https://foo.myshopify.com/admin/oauth/authorize", cfg.Endpoint.AuthURL)
	assert.Equal(t, "https://foo.myshopify.com/admin/oauth/access_token", cfg.Endpoint.TokenURL)
	assert.Equal(t, []string{"a,b"}, cfg.Scopes)
}
