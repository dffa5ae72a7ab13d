package install

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"shopinstall/internal/embed"
	"shopinstall/internal/nonce"
	"shopinstall/internal/policy"
	"shopinstall/pkg/shops"
)

const (
	testClientID = "client-id"
	testSecret   = "client-secret"
	goodCode     = "good-code"
)

// tokenServer plays the shop's token endpoint.
type tokenServer struct {
	*httptest.Server
	calls atomic.Int32
	token atomic.Value
}

func (ts *tokenServer) setToken(tok string) { ts.token.Store(tok) }

func newTokenServer(t *testing.T) *tokenServer {
	t.Helper()
	ts := &tokenServer{}
	ts.setToken("shpat_first")
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.calls.Add(1)
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if r.PostForm.Get("client_id") != testClientID || r.PostForm.Get("client_secret") != testSecret {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_client"})
			return
		}
		switch r.PostForm.Get("code") {
		case goodCode:
			_ = json.NewEncoder(w).Encode(map[string]string{"access_token": ts.token.Load().(string), "scope": "read_products,read_inventory"})
		case "no-token":
			_ = json.NewEncoder(w).Encode(map[string]string{"scope": "read_products"})
		default:
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_request"})
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func (ts *tokenServer) client() *OAuthClient {
	return &OAuthClient{
		ClientID:     testClientID,
		ClientSecret: testSecret,
		RedirectURL:  "https://app.example.com/auth/callback",
		Scopes:       []string{"read_products", "read_inventory"},
		HTTPClient:   ts.Client(),
		TokenURL:     func(string) string { return ts.URL + "/admin/oauth/access_token" },
	}
}

func testResolver() *embed.Resolver {
	return embed.NewResolver("myshopify.com", "admin.shopify.com", "stock-alert")
}

type harness struct {
	orch   *Orchestrator
	store  shops.Store
	nonces *nonce.Manager
	tokens *tokenServer
}

func newHarness(t *testing.T, store shops.Store, admission *policy.Admission) *harness {
	t.Helper()
	if store == nil {
		store = shops.NewMemoryStore()
	}
	ts := newTokenServer(t)
	nonces := nonce.NewManager(nonce.NewMemoryBackend(), 10*time.Minute)
	res := testResolver()
	client := ts.client()
	orch := NewOrchestrator(Deps{
		Resolver:    res,
		Initiator:   NewInitiator(client, nonces, res, false),
		Callback:    NewCallbackProcessor(nonces, client, store),
		Admission:   admission,
		Scopes:      client.Scopes,
		APISecret:   testSecret,
		RequireHMAC: true,
	})
	return &harness{orch: orch, store: store, nonces: nonces, tokens: ts}
}

// begin runs Start and returns the state carried by the authorize redirect.
func (h *harness) begin(t *testing.T, shop string) string {
	t.Helper()
	out := h.orch.Start(context.Background(), shop, false)
	require.NoError(t, out.Err)
	u, err := url.Parse(out.Location)
	require.NoError(t, err)
	return u.Query().Get("state")
}

func signed(q url.Values) url.Values {
	q.Set("timestamp", "1714564800")
	q.Set("hmac", SignQuery(q, testSecret))
	return q
}

// failingStore is a Store whose writes always fail with err.
type failingStore struct {
	err error
}

func (f failingStore) Upsert(context.Context, string, string, string) (shops.Credential, error) {
	return shops.Credential{}, f.err
}

func (f failingStore) Get(context.Context, string) (shops.Credential, error) {
	return shops.Credential{}, shops.ErrNotFound
}

func (failingStore) Close() error { return nil }
