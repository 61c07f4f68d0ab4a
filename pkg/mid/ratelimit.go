package mid

import (
	"net/http"

	"github.com/connectjob/engine/pkg/resilience"
)

// RateLimit rejects requests with 429 once the limiter's bucket is empty.
func RateLimit(limiter *resilience.Limiter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
