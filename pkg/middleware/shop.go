// pkg/middleware/shop.go
package middleware

import (
	"context"
	"net/http"
)

type ctxShopKey struct{}

// ShopPolicy normalizes shop parameters and yields the headers a framable response needs.
type ShopPolicy interface {
	NormalizeShop(raw string) (string, error)
	SecurityHeaders(shop string) http.Header
}

// WithShop reads ?shop=, stores the normalized value in the context and sets the
// frame-ancestors policy on every response. An invalid shop is not rejected here; the
// handlers decide, and the response gets the wildcard policy.
func WithShop(p ShopPolicy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			shop := ""
			if raw := r.URL.Query().Get("shop"); raw != "" {
				if s, err := p.NormalizeShop(raw); err == nil {
					shop = s
				}
			}
			for k, vs := range p.SecurityHeaders(shop) {
				for _, v := range vs {
					w.Header().Add(k, v)
				}
			}
			ctx := context.WithValue(r.Context(), ctxShopKey{}, shop)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func ShopFrom(ctx context.Context) string {
	s, _ := ctx.Value(ctxShopKey{}).(string)
	return s
}
