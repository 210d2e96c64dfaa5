package router

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/krishignan/krishignan/internal/pkg/config"
	"github.com/krishignan/krishignan/internal/pkg/goroutine"
	"go.uber.org/atomic"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 5 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64
}

type ipRateLimiter struct {
	visitors sync.Map
	limit    rate.Limit
	burst    int
	now      func() time.Time
}

// newIPRateLimiter returns nil when app.rate_limit.requests_per_minute is not positive.
func newIPRateLimiter(cfg config.Config) *ipRateLimiter {
	if cfg == nil {
		return nil
	}

	perMinute := cfg.GetInt("app.rate_limit.requests_per_minute")
	if perMinute <= 0 {
		return nil
	}

	burst := cfg.GetInt("app.rate_limit.burst")
	if burst <= 0 {
		burst = 5
	}

	return &ipRateLimiter{
		limit: rate.Limit(float64(perMinute) / 60.0),
		burst: burst,
		now:   time.Now,
	}
}

func (l *ipRateLimiter) allow(ip string) (bool, time.Duration) {
	now := l.now()
	v, _ := l.visitors.LoadOrStore(ip, &visitor{limiter: rate.NewLimiter(l.limit, l.burst)})
	vi := v.(*visitor)
	vi.lastSeen.Store(now.UnixNano())

	r := vi.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, 0
	}

	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}

	return true, 0
}

func (l *ipRateLimiter) evict(cutoff time.Time) int {
	removed := 0
	l.visitors.Range(func(k, v any) bool {
		if time.Unix(0, v.(*visitor).lastSeen.Load()).Before(cutoff) {
			l.visitors.Delete(k)
			removed++
		}
		return true
	})

	return removed
}

func (l *ipRateLimiter) janitor(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}

	return goroutine.Tick(ctx, interval, func(ctx context.Context) {
		if n := l.evict(l.now().Add(-limiterIdleTTL)); n > 0 {
			slog.DebugContext(ctx, "evicted idle rate limiters", "count", n)
		}
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	if r.RemoteAddr == "" {
		return "unknown"
	}

	return r.RemoteAddr
}

func middlewareRateLimit(l *ipRateLimiter) Middleware {
	if l == nil {
		return nil
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			ok, retryAfter := l.allow(ip)
			if !ok {
				slog.WarnContext(r.Context(), "rate limit exceeded", "ip", ip, "path", matchedRoutePath(r))
				if retryAfter > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())+1))
				}
				writeJSON(w, failureBody{Message: "Too many requests"}, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
