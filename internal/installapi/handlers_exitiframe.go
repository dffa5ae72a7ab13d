package installapi

import (
	"html/template"
	"net/http"

	"shopinstall/internal/install"
)

var exitPage = template.Must(template.New("exit").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Redirecting</title>
<script>window.top.location.href = {{.Target}};</script>
</head>
<body>
<p><a href="{{.Target}}" target="_top">Continue</a></p>
</body>
</html>
`))

// exitIframe handles GET /exitiframe. The page runs inside the admin iframe and navigates the
// top window to the target. The shop comes from ?shop= or, failing that, from the session
// token in ?id_token=.
func (a *App) exitIframe(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	raw := q.Get("shop")
	if raw == "" && q.Get("id_token") != "" {
		s, err := a.sessions.Shop(q.Get("id_token"))
		if err != nil {
			a.log.Warnw("exit iframe session token rejected", "err", err)
			a.writeError(w, r, http.StatusUnauthorized, err)
			return
		}
		raw = s
	}
	if raw == "" {
		a.writeError(w, r, http.StatusBadRequest, install.ErrMissingTenant)
		return
	}
	shop, err := a.resolver.NormalizeShop(raw)
	if err != nil {
		a.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	target, err := a.resolver.ExitTarget(a.appURL, shop, q.Get("redirectUri"))
	if err != nil {
		a.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	w.Header().Set("Content-Security-Policy", a.resolver.FrameAncestors(shop))
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := exitPage.Execute(w, struct{ Target string }{target}); err != nil {
		a.log.Errorw("render exit iframe", "shop", shop, "err", err)
	}
}
