package embed

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

var ErrInvalidSessionToken = errors.New("invalid session token")

// SessionTokenVerifier checks the id_token the admin hands to embedded pages. Tokens are
// HS256-signed with the app secret, carry the client id as audience and the shop URL in
// "dest".
type SessionTokenVerifier struct {
	apiKey   string
	secret   []byte
	skew     time.Duration
	resolver *Resolver
}

func NewSessionTokenVerifier(apiKey, apiSecret string, resolver *Resolver) *SessionTokenVerifier {
	return &SessionTokenVerifier{apiKey: apiKey, secret: []byte(apiSecret), skew: 10 * time.Second, resolver: resolver}
}

// Shop validates raw and returns the normalized shop it was issued for.
func (v *SessionTokenVerifier) Shop(raw string) (string, error) {
	if v == nil || len(v.secret) == 0 {
		return "", fmt.Errorf("%w: verifier not configured", ErrInvalidSessionToken)
	}
	tok, err := jwt.Parse([]byte(strings.TrimSpace(raw)),
		jwt.WithKey(jwa.HS256, v.secret),
		jwt.WithValidate(true),
		jwt.WithAudience(v.apiKey),
		jwt.WithAcceptableSkew(v.skew),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSessionToken, err)
	}
	dest, _ := tok.Get("dest")
	destStr, _ := dest.(string)
	shop, err := v.resolver.NormalizeShop(destStr)
	if err != nil {
		return "", fmt.Errorf("%w: dest %q", ErrInvalidSessionToken, destStr)
	}
	// iss is the shop admin URL; it must name the same shop as dest.
	if iss, err := v.resolver.NormalizeShop(tok.Issuer()); err != nil || iss != shop {
		return "", fmt.Errorf("%w: issuer does not match dest", ErrInvalidSessionToken)
	}
	return shop, nil
}
