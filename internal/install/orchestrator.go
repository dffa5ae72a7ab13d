package install

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"shopinstall/internal/embed"
	"shopinstall/internal/policy"
)

// Outcome is the orchestrator's verdict for one request. Status and Location are what the
// HTTP layer writes; Err is nil only for redirects.
type Outcome struct {
	State    State
	Shop     string
	Status   int
	Location string
	Err      error
}

// Deps wires the orchestrator. Admission, Metrics and Tracer are optional.
type Deps struct {
	Log         *zap.SugaredLogger
	Resolver    *embed.Resolver
	Initiator   *Initiator
	Callback    *CallbackProcessor
	Admission   *policy.Admission
	Metrics     *Metrics
	Tracer      trace.Tracer
	Scopes      []string
	APISecret   string
	RequireHMAC bool
}

// Orchestrator drives NotInstalled -> AuthPending -> Authorized -> Embedded.
type Orchestrator struct {
	Deps
}

func NewOrchestrator(d Deps) *Orchestrator {
	if d.Metrics == nil {
		d.Metrics = NewMetrics(nil)
	}
	if d.Tracer == nil {
		d.Tracer = noop.NewTracerProvider().Tracer("shopinstall/install")
	}
	if d.Log == nil {
		d.Log = zap.NewNop().Sugar()
	}
	return &Orchestrator{Deps: d}
}

// Start handles GET /auth. On success the merchant is redirected to the consent page with
// a fresh state nonce.
func (o *Orchestrator) Start(ctx context.Context, rawShop string, embedded bool) Outcome {
	ctx, span := o.Tracer.Start(ctx, "install.start")
	defer span.End()

	out := Outcome{State: NotInstalled}
	if strings.TrimSpace(rawShop) == "" {
		return o.fail(span, out, "start", ErrMissingTenant)
	}
	shop, err := o.Resolver.NormalizeShop(rawShop)
	if err != nil {
		return o.fail(span, out, "start", err)
	}
	out.Shop = shop
	span.SetAttributes(attribute.String("shop", shop))

	dec, err := o.Admission.Evaluate(ctx, policy.Input{Shop: shop, Scopes: o.Scopes, Embedded: embedded})
	if err != nil {
		o.Log.Warnw("install policy evaluation failed", "shop", shop, "err", err)
	}
	if !dec.Allowed() {
		return o.fail(span, out, "admission", fmt.Errorf("%w: %s", ErrInstallBlocked, strings.Join(dec.Reasons, ",")))
	}

	loc, err := o.Initiator.Begin(ctx, shop, nil)
	if err != nil {
		return o.fail(span, out, "start", err)
	}
	out = o.advance(out, AuthPending)
	out.Status, out.Location = http.StatusFound, loc
	o.Log.Infow("install started", "shop", shop, "embedded", embedded)
	return out
}

// Complete handles GET /auth/callback with the provider's query parameters.
func (o *Orchestrator) Complete(ctx context.Context, q url.Values) Outcome {
	ctx, span := o.Tracer.Start(ctx, "install.callback")
	defer span.End()
	started := time.Now()

	out := o.complete(ctx, span, q)
	o.Metrics.callbacks.WithLabelValues(string(out.State)).Observe(time.Since(started).Seconds())
	return out
}

func (o *Orchestrator) complete(ctx context.Context, span trace.Span, q url.Values) Outcome {
	out := Outcome{State: AuthPending}
	rawShop := q.Get("shop")
	if strings.TrimSpace(rawShop) == "" {
		return o.fail(span, o.advance(out, AuthFailed), "callback", ErrMissingTenant)
	}
	shop, err := o.Resolver.NormalizeShop(rawShop)
	if err != nil {
		return o.fail(span, o.advance(out, AuthFailed), "callback", err)
	}
	out.Shop = shop
	span.SetAttributes(attribute.String("shop", shop))

	// Reject a foreign host before the state is consumed or the code is exchanged.
	if err := o.Resolver.CheckHost(shop, q.Get("host")); err != nil {
		return o.fail(span, o.advance(out, AuthFailed), "callback", err)
	}

	if o.RequireHMAC {
		if err := VerifyQueryHMAC(q, o.APISecret); err != nil {
			return o.fail(span, o.advance(out, AuthFailed), "signature", err)
		}
	}

	inst, err := o.Callback.HandleCallback(ctx, shop, q.Get("state"), q.Get("code"))
	switch {
	case errors.Is(err, ErrInstallationIncomplete):
		out = o.advance(out, Authorized)
		return o.fail(span, o.advance(out, InstallationIncomplete), "persist", err)
	case err != nil:
		return o.fail(span, o.advance(out, AuthFailed), "exchange", err)
	}
	out = o.advance(out, Authorized)

	loc, err := o.Resolver.ResolveDestination(shop, q.Get("host"))
	if err != nil {
		return o.fail(span, out, "redirect", err)
	}
	out = o.advance(out, Embedded)
	out.Status, out.Location = http.StatusFound, loc
	o.Log.Infow("install completed", "shop", shop, "scope", inst.Scope, "embedded", q.Get("host") != "")
	return out
}

func (o *Orchestrator) advance(out Outcome, to State) Outcome {
	next, err := out.State.Next(to)
	if err != nil {
		o.Log.Errorw("install state", "shop", out.Shop, "err", err)
		return out
	}
	o.Metrics.transitions.WithLabelValues(string(out.State), string(next)).Inc()
	out.State = next
	return out
}

func (o *Orchestrator) fail(span trace.Span, out Outcome, stage string, err error) Outcome {
	out.Err = err
	out.Status = StatusFor(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, stage)
	if out.Status >= http.StatusInternalServerError {
		o.Log.Errorw("install failed", "shop", out.Shop, "stage", stage, "state", out.State, "err", err)
	} else {
		o.Log.Warnw("install rejected", "shop", out.Shop, "stage", stage, "state", out.State, "err", err)
	}
	return out
}
