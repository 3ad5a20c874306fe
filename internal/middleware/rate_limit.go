package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/chineduogbonna/marketpay/internal/api/httpx"
)

// RateLimit caps the whole surface at rps requests per second with a burst of
// the same size. A single process-wide bucket is enough here; per-client
// fairness belongs to the edge proxy. rps <= 0 disables the limiter.
func RateLimit(rps int) func(http.Handler) http.Handler {
	if rps <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	var (
		mu     sync.Mutex
		tokens = float64(rps)
		last   = time.Now()
	)
	allow := func() bool {
		mu.Lock()
		defer mu.Unlock()
		now := time.Now()
		tokens += now.Sub(last).Seconds() * float64(rps)
		last = now
		if tokens > float64(rps) {
			tokens = float64(rps)
		}
		if tokens < 1 {
			return false
		}
		tokens--
		return true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !allow() {
				httpx.WriteError(w, http.StatusTooManyRequests, "rate_limited", "too many requests", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
