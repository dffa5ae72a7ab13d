// pkg/middleware/ratelimit.go
package middleware

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"shopinstall/pkg/problems"
)

// RateLimiter hands out one token bucket per client IP.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*visitor
	rate     rate.Limit
	burst    int
	now      func() time.Time
}

type visitor struct {
	lim  *rate.Limiter
	seen time.Time
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{limiters: map[string]*visitor{}, rate: rate.Limit(rps), burst: burst, now: time.Now}
}

func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	v, ok := rl.limiters[key]
	if !ok {
		v = &visitor{lim: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[key] = v
	}
	v.seen = rl.now()
	rl.mu.Unlock()
	return v.lim.Allow()
}

// Cleanup drops buckets idle for longer than maxAge.
func (rl *RateLimiter) Cleanup(maxAge time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := rl.now().Add(-maxAge)
	for k, v := range rl.limiters {
		if v.seen.Before(cutoff) {
			delete(rl.limiters, k)
		}
	}
}

// Run sweeps idle buckets until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			rl.Cleanup(every)
		}
	}
}

// Middleware rejects requests over the limit with 429. chi's RealIP middleware should run
// first when the service sits behind a proxy.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if host, _, err := net.SplitHostPort(ip); err == nil {
			ip = host
		}
		if !rl.Allow(ip) {
			w.Header().Set("Retry-After", "1")
			problems.Write(w, problems.Problem{
				Type:   problems.Type("rate-limited"),
				Title:  "Too many requests",
				Status: http.StatusTooManyRequests,
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
