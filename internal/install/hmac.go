package install

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// Separators inside keys and values are escaped so one message maps to one parameter set.
var signEscaper = strings.NewReplacer("%", "%25", "&", "%26", "=", "%3D")

// SignQuery computes the provider's query signature: every parameter except hmac and
// signature, sorted by key, joined as k=v with &, HMAC-SHA256 with the app secret, hex.
func SignQuery(q url.Values, secret string) string {
	keys := make([]string, 0, len(q))
	for k := range q {
		if k == "hmac" || k == "signature" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, signEscaper.Replace(k)+"="+signEscaper.Replace(strings.Join(q[k], ",")))
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strings.Join(parts, "&")))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyQueryHMAC checks the hmac parameter of a provider redirect.
func VerifyQueryHMAC(q url.Values, secret string) error {
	got := strings.ToLower(q.Get("hmac"))
	if got == "" || secret == "" {
		return ErrInvalidSignature
	}
	if !hmac.Equal([]byte(got), []byte(SignQuery(q, secret))) {
		return ErrInvalidSignature
	}
	return nil
}
