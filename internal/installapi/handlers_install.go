package installapi

import (
	"net/http"
	"net/url"

	"shopinstall/internal/install"
)

// beginInstall handles GET /auth?shop=. An embedded request is first bounced out of the
// admin iframe because the consent page refuses to be framed.
func (a *App) beginInstall(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("embedded") == "1" {
		shop, err := a.resolver.NormalizeShop(q.Get("shop"))
		if q.Get("shop") == "" {
			err = install.ErrMissingTenant
		}
		if err != nil {
			a.writeError(w, r, install.StatusFor(err), err)
			return
		}
		exit := url.Values{
			"shop":        {shop},
			"redirectUri": {"/auth?" + url.Values{"shop": {shop}}.Encode()},
		}
		if host := q.Get("host"); host != "" {
			exit.Set("host", host)
		}
		http.Redirect(w, r, "/exitiframe?"+exit.Encode(), http.StatusFound)
		return
	}
	a.render(w, r, a.orch.Start(r.Context(), q.Get("shop"), q.Get("host") != ""))
}

// completeInstall handles GET /auth/callback.
func (a *App) completeInstall(w http.ResponseWriter, r *http.Request) {
	a.render(w, r, a.orch.Complete(r.Context(), r.URL.Query()))
}

func (a *App) render(w http.ResponseWriter, r *http.Request, out install.Outcome) {
	if out.Err != nil {
		a.writeError(w, r, out.Status, out.Err)
		return
	}
	http.Redirect(w, r, out.Location, out.Status)
}
