// Package embed decides where a merchant lands after install and which origins may
// frame our pages inside the platform admin.
package embed

import (
	"encoding/base64"
	"errors"
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

// ErrUntrustedRedirectTarget is returned instead of a URL whenever the shop or host
// would point the browser outside the platform.
var ErrUntrustedRedirectTarget = errors.New("untrusted redirect target")

var schemePrefix = regexp.MustCompile(`^[a-z][a-z0-9+.-]*:/+`)

// Resolver holds the platform shape. It is immutable and safe for concurrent use.
type Resolver struct {
	suffix    string // myshopify.com
	adminHost string // admin.shopify.com
	appHandle string
	shopRE    *regexp.Regexp
}

func NewResolver(storefrontSuffix, adminHost, appHandle string) *Resolver {
	suffix := strings.Trim(strings.ToLower(storefrontSuffix), ".")
	return &Resolver{
		suffix:    suffix,
		adminHost: strings.ToLower(adminHost),
		appHandle: appHandle,
		shopRE:    regexp.MustCompile(`^[a-z0-9][a-z0-9-]*\.` + regexp.QuoteMeta(suffix) + `$`),
	}
}

func (r *Resolver) Suffix() string    { return r.suffix }
func (r *Resolver) AdminHost() string { return r.adminHost }

// NormalizeShop turns whatever arrived in a shop parameter into a bare storefront
// domain, or fails with ErrUntrustedRedirectTarget.
//
// Handled shapes:
//   - "  FOO.myshopify.com " (case, whitespace)
//   - "https://foo.myshopify.com/admin", "https://https://foo.myshopify.com" (any number of schemes)
//   - "https%3A%2F%2Ffoo.myshopify.com" (URL-encoded once or twice)
//   - "foo.myshopify.com:443", "foo.myshopify.com." (port, trailing dot)
//   - "foo.myshopify.com.myshopify.com" (duplicated suffix)
//   - "foo" (bare handle gets the suffix)
//
// Userinfo ("evil.com@foo.myshopify.com") and any other domain are rejected.
func (r *Resolver) NormalizeShop(raw string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	for i := 0; i < 2 && strings.Contains(s, "%"); i++ {
		u, err := url.QueryUnescape(s)
		if err != nil {
			return "", ErrUntrustedRedirectTarget
		}
		s = u
	}
	for loc := schemePrefix.FindStringIndex(s); loc != nil; loc = schemePrefix.FindStringIndex(s) {
		s = s[loc[1]:]
	}
	s = strings.TrimLeft(s, "/")
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	if strings.Contains(s, "@") {
		return "", ErrUntrustedRedirectTarget
	}
	if host, port, ok := strings.Cut(s, ":"); ok {
		if strings.Trim(port, "0123456789") != "" {
			return "", ErrUntrustedRedirectTarget
		}
		s = host
	}
	s = strings.TrimSuffix(s, ".")
	dup := "." + r.suffix + "." + r.suffix
	for strings.HasSuffix(s, dup) {
		s = strings.TrimSuffix(s, "."+r.suffix)
	}
	if s != "" && !strings.Contains(s, ".") {
		s += "." + r.suffix
	}
	if !r.shopRE.MatchString(s) {
		return "", ErrUntrustedRedirectTarget
	}
	return s, nil
}

// StoreHandle is the shop domain without the storefront suffix.
func (r *Resolver) StoreHandle(shop string) string {
	return strings.TrimSuffix(shop, "."+r.suffix)
}

// ResolveDestination returns the post-install landing URL. Without an embedding host
// the merchant goes to the shop's own admin; with one, to the platform-hosted admin
// portal. A host naming a different store or a foreign domain is rejected.
func (r *Resolver) ResolveDestination(rawShop, host string) (string, error) {
	shop, err := r.NormalizeShop(rawShop)
	if err != nil {
		return "", err
	}
	handle := r.StoreHandle(shop)
	app := url.PathEscape(r.appHandle)
	if strings.TrimSpace(host) == "" {
		return "https://" + shop + "/admin/apps/" + app, nil
	}
	if err := r.CheckHost(shop, host); err != nil {
		return "", err
	}
	return "https://" + r.adminHost + "/store/" + url.PathEscape(handle) + "/apps/" + app, nil
}

// CheckHost validates the embedding host parameter for an already normalized shop. An
// empty or undecodable host passes; a decodable one must name the same store.
func (r *Resolver) CheckHost(shop, host string) error {
	if strings.TrimSpace(host) == "" {
		return nil
	}
	decoded, ok := DecodeHost(host)
	if !ok {
		return nil
	}
	return r.checkHost(decoded, r.StoreHandle(shop))
}

// checkHost accepts "admin.shopify.com/store/{handle}" and "{shop}/admin" shapes for the
// same store only.
func (r *Resolver) checkHost(decoded, handle string) error {
	domain, path, _ := strings.Cut(strings.ToLower(decoded), "/")
	switch {
	case domain == r.adminHost:
		parts := strings.Split(path, "/")
		if len(parts) < 2 || parts[0] != "store" || parts[1] != handle {
			return ErrUntrustedRedirectTarget
		}
		return nil
	case strings.HasSuffix(domain, "."+r.suffix):
		shop, err := r.NormalizeShop(domain)
		if err != nil || r.StoreHandle(shop) != handle {
			return ErrUntrustedRedirectTarget
		}
		return nil
	default:
		return ErrUntrustedRedirectTarget
	}
}

var hostEncodings = []*base64.Encoding{
	base64.RawURLEncoding,
	base64.URLEncoding,
	base64.RawStdEncoding,
	base64.StdEncoding,
}

// DecodeHost decodes the base64 "host" parameter, tolerating padding variants and one
// stray layer of URL encoding. ok is false when nothing printable comes out.
func DecodeHost(host string) (string, bool) {
	h := strings.TrimSpace(host)
	if strings.Contains(h, "%") {
		if u, err := url.QueryUnescape(h); err == nil {
			h = u
		}
	}
	for _, enc := range hostEncodings {
		b, err := enc.DecodeString(h)
		if err != nil || len(b) == 0 {
			continue
		}
		s := string(b)
		if printableHost(s) {
			return s, true
		}
	}
	return "", false
}

func printableHost(s string) bool {
	for _, c := range s {
		if c <= ' ' || c > '~' {
			return false
		}
	}
	return strings.Contains(s, ".")
}

// FrameAncestors is the CSP directive for a page shown inside the admin iframe. An
// empty or invalid shop gets the wildcard storefront policy.
func (r *Resolver) FrameAncestors(rawShop string) string {
	origin := "https://*." + r.suffix
	if shop, err := r.NormalizeShop(rawShop); rawShop != "" && err == nil {
		origin = "https://" + shop
	}
	return "frame-ancestors " + origin + " https://" + r.adminHost + ";"
}

// SecurityHeaders returns the headers every framable response must carry.
func (r *Resolver) SecurityHeaders(rawShop string) http.Header {
	h := http.Header{}
	h.Set("Content-Security-Policy", r.FrameAncestors(rawShop))
	return h
}

// ExitTarget resolves where the exit-iframe page sends the top window. redirectURI may be
// empty (re-run auth for the shop), a path on this app, or an absolute URL under appURL.
func (r *Resolver) ExitTarget(appURL, shop, redirectURI string) (string, error) {
	redirectURI = strings.TrimSpace(redirectURI)
	if redirectURI == "" {
		return appURL + "/auth?" + url.Values{"shop": {shop}}.Encode(), nil
	}
	if strings.HasPrefix(redirectURI, "/") && !strings.HasPrefix(redirectURI, "//") && !strings.HasPrefix(redirectURI, "/\\") {
		return appURL + redirectURI, nil
	}
	target, err := url.Parse(redirectURI)
	if err != nil {
		return "", ErrUntrustedRedirectTarget
	}
	base, err := url.Parse(appURL)
	if err != nil || target.Scheme != base.Scheme || !strings.EqualFold(target.Host, base.Host) || target.User != nil {
		return "", ErrUntrustedRedirectTarget
	}
	return target.String(), nil
}
