package api

import (
	"net"
	"net/http"
	"sync"

	"geocms/internal/config"

	"golang.org/x/time/rate"
)

// rateLimiter keeps a per-client token bucket. Clients are keyed by
// session token when present, otherwise by remote IP.
type rateLimiter struct {
	limiters sync.Map
	rps      rate.Limit
	burst    int
}

func newRateLimiter(cfg config.RateLimitConfig) *rateLimiter {
	return &rateLimiter{
		rps:   rate.Limit(cfg.RPS),
		burst: cfg.Burst,
	}
}

func (l *rateLimiter) getLimiter(key string) *rate.Limiter {
	if limiter, ok := l.limiters.Load(key); ok {
		return limiter.(*rate.Limiter)
	}

	limiter := rate.NewLimiter(l.rps, l.burst)
	actual, _ := l.limiters.LoadOrStore(key, limiter)
	return actual.(*rate.Limiter)
}

func (l *rateLimiter) wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := bearerToken(r)
		if key == "" {
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}
			key = host
		}

		if !l.getLimiter(key).Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
