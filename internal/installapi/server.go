package installapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"shopinstall/pkg/middleware"
)

// Handler builds the HTTP handler with routes and middleware.
func (a *App) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID(), chimw.RealIP, middleware.Recover(a.log))
	if a.tracing != nil {
		r.Use(a.tracing)
	}
	r.Use(middleware.WithShop(a.resolver), middleware.Logging(a.log))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"ok": true}, http.StatusOK)
	})
	r.Get("/openapi.json", describe().ServeHandler("shopinstall", "1.0.0"))
	if a.metrics != nil {
		r.Handle("/metrics", a.metrics)
	}

	r.Group(func(ar chi.Router) {
		if a.limiter != nil {
			ar.Use(a.limiter.Middleware)
		}
		ar.Get("/auth", a.beginInstall)
		ar.Get("/auth/callback", a.completeInstall)
		ar.Get("/exitiframe", a.exitIframe)
	})
	return r
}
