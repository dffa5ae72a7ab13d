// cmd/install-service/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"shopinstall/internal/embed"
	"shopinstall/internal/install"
	"shopinstall/internal/installapi"
	"shopinstall/internal/nonce"
	"shopinstall/internal/policy"
	"shopinstall/pkg/config"
	"shopinstall/pkg/db"
	"shopinstall/pkg/logger"
	"shopinstall/pkg/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Env, cfg.LogLevel)
	defer func() { _ = log.Sync() }()
	if err := cfg.Validate(); err != nil {
		log.Fatalw("invalid config", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool := db.MustConnect(cfg, log)
	store := db.MustStore(cfg, pool, log)

	var backend nonce.Backend = nonce.NewMemoryBackend()
	if rdb := db.MustRedis(cfg, log); rdb != nil {
		backend = nonce.NewRedisBackend(rdb)
		defer rdb.Close()
	} else {
		log.Warnw("REDIS_URL not set, install state is kept in process memory")
	}
	nonces := nonce.NewManager(backend, cfg.NonceTTL)

	admission, err := policy.LoadAdmission(ctx, cfg.InstallPolicyFile)
	if err != nil {
		log.Fatalw("install policy", "err", err)
	}

	tp, shutdownTracing, err := middleware.NewTracerProvider(ctx, cfg.OTLPEndpoint, "shopinstall")
	if err != nil {
		log.Fatalw("tracing", "err", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	resolver := embed.NewResolver(cfg.StorefrontSuffix, cfg.AdminHost, cfg.AppHandle)
	client := &install.OAuthClient{
		ClientID:     cfg.APIKey,
		ClientSecret: cfg.APISecret,
		RedirectURL:  cfg.CallbackURL(),
		Scopes:       cfg.Scopes,
		HTTPClient:   &http.Client{Timeout: cfg.ExchangeTimeout},
	}
	orch := install.NewOrchestrator(install.Deps{
		Log:         log,
		Resolver:    resolver,
		Initiator:   install.NewInitiator(client, nonces, resolver, cfg.PerUserAccess),
		Callback:    install.NewCallbackProcessor(nonces, client, store),
		Admission:   admission,
		Metrics:     install.NewMetrics(reg),
		Tracer:      tp.Tracer("shopinstall/install"),
		Scopes:      cfg.Scopes,
		APISecret:   cfg.APISecret,
		RequireHMAC: cfg.RequireCallbackHMAC,
	})

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go limiter.Run(ctx, 10*time.Minute)

	app := installapi.New(installapi.Deps{
		Log:      log,
		Orch:     orch,
		Resolver: resolver,
		Sessions: embed.NewSessionTokenVerifier(cfg.APIKey, cfg.APISecret, resolver),
		Limiter:  limiter,
		Tracing:  middleware.Tracing(tp),
		Metrics:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}, installapi.Config{AppURL: cfg.AppURL})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           app.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Infow("install-service listening", "addr", cfg.HTTPAddr, "app_url", cfg.AppURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("ListenAndServe", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warnw("http shutdown", "err", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warnw("tracing shutdown", "err", err)
	}
	if err := store.Close(); err != nil {
		log.Warnw("store close", "err", err)
	}
	if pool != nil {
		pool.Close()
	}
	log.Infow("install-service stopped")
}
