// Package middle provides the HTTP middleware for the webhook service shell.
package middle

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sokopay/daraja/infra/response"
	"github.com/sokopay/daraja/ratelimit"
)

// RateLimitMiddleware rejects requests over the per-IP quota with 429. The
// limiter decides; a limiter error with an allowing decision lets the request
// through.
func RateLimitMiddleware(limiter ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := GetClientIP(r)

			decision, err := limiter.Allow(r.Context(), clientIP)
			if err != nil && !decision.Allowed {
				response.Error(w, http.StatusServiceUnavailable, "Rate limiter unavailable", nil)
				return
			}

			if !decision.Allowed {
				if decision.RetryAfter > 0 {
					seconds := int(decision.RetryAfter / time.Second)
					if seconds < 1 {
						seconds = 1
					}
					w.Header().Set("Retry-After", strconv.Itoa(seconds))
				}
				response.Error(w, http.StatusTooManyRequests, "Rate limit exceeded", nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetClientIP extracts the real client IP. A multi-valued X-Forwarded-For is
// ambiguous behind unknown proxy chains, so it is skipped in favor of
// X-Real-IP and RemoteAddr.
func GetClientIP(r *http.Request) string {
	xff := strings.TrimSpace(r.Header.Get("X-Forwarded-For"))
	if xff != "" && !strings.Contains(xff, ",") {
		return xff
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}

	remoteAddr := r.RemoteAddr
	if idx := strings.LastIndex(remoteAddr, ":"); idx != -1 {
		ip := remoteAddr[:idx]
		if ip == "[::1]" {
			return "127.0.0.1"
		}
		return strings.Trim(ip, "[]")
	}

	if remoteAddr == "[::1]" {
		return "127.0.0.1"
	}

	return remoteAddr
}
