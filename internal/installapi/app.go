package installapi

import (
	"net/http"

	"go.uber.org/zap"

	"shopinstall/internal/embed"
	"shopinstall/internal/install"
	"shopinstall/pkg/middleware"
)

// Config holds what the HTTP layer needs beyond the orchestrator.
type Config struct {
	AppURL string
}

// App is the install-service application container.
// Handlers and middleware have methods on this type.
//
// Shared deps and config only; request-scoped work uses context.
type App struct {
	log      *zap.SugaredLogger
	orch     *install.Orchestrator
	resolver *embed.Resolver
	sessions *embed.SessionTokenVerifier
	limiter  *middleware.RateLimiter
	tracing  func(http.Handler) http.Handler
	metrics  http.Handler
	appURL   string
}

// Deps are constructed in main and passed in; App owns none of them.
type Deps struct {
	Log      *zap.SugaredLogger
	Orch     *install.Orchestrator
	Resolver *embed.Resolver
	Sessions *embed.SessionTokenVerifier
	Limiter  *middleware.RateLimiter
	Tracing  func(http.Handler) http.Handler
	Metrics  http.Handler
}

func New(d Deps, cfg Config) *App {
	a := &App{
		log:      d.Log,
		orch:     d.Orch,
		resolver: d.Resolver,
		sessions: d.Sessions,
		limiter:  d.Limiter,
		tracing:  d.Tracing,
		metrics:  d.Metrics,
		appURL:   cfg.AppURL,
	}
	if a.log == nil {
		a.log = zap.NewNop().Sugar()
	}
	return a
}
