package router

import (
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/shandysiswandi/gootp/internal/pkg/config"
	"golang.org/x/time/rate"
)

// limiters idle for this long are dropped on the next sweep.
const limiterIdleTTL = 5 * time.Minute

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type ipRateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*ipLimiter
	limit     rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

func newIPRateLimiter(requests int, window time.Duration, burst int) *ipRateLimiter {
	if burst <= 0 {
		burst = requests
	}

	return &ipRateLimiter{
		limiters:  make(map[string]*ipLimiter),
		limit:     rate.Limit(float64(requests) / window.Seconds()),
		burst:     burst,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

func (rl *ipRateLimiter) allow(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) >= limiterIdleTTL {
		for k, l := range rl.limiters {
			if now.Sub(l.lastSeen) >= limiterIdleTTL {
				delete(rl.limiters, k)
			}
		}
		rl.lastSweep = now
	}

	l, ok := rl.limiters[key]
	if !ok {
		l = &ipLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[key] = l
	}
	l.lastSeen = now

	if l.limiter.AllowN(now, 1) {
		return true, 0
	}

	res := l.limiter.ReserveN(now, 1)
	delay := res.DelayFrom(now)
	res.CancelAt(now)
	return false, delay
}

// middlewareRateLimit throttles requests per client IP. It is disabled when
// app.server.rate_limit.requests is zero.
func middlewareRateLimit(cfg config.Config) Middleware {
	if cfg == nil {
		return nil
	}

	requests := cfg.GetInt("app.server.rate_limit.requests")
	if requests <= 0 {
		return nil
	}

	window := cfg.GetSecond("app.server.rate_limit.window_seconds")
	if window <= 0 {
		window = time.Minute
	}

	rl := newIPRateLimiter(requests, window, cfg.GetInt("app.server.rate_limit.burst"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// middlewareIP already replaced RemoteAddr with the client address
			key := r.RemoteAddr
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			ok, delay := rl.allow(key)
			if !ok {
				retryAfter := max(int(delay.Seconds()), 1)
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(requests))

				slog.WarnContext(r.Context(), "rate limit exceeded", "ip", key, "path", matchedRoutePath(r), "retry_after", retryAfter)
				writeJSON(w, errorResponse{Message: "Too many requests"}, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
