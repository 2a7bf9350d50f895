package ratelimit

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

// LimitResource is the tenant limit holding the hourly call budget.
const LimitResource = "max_api_calls_per_hour"

// Middleware throttles requests against the tenant's hourly call budget.
// It must run after the tenant context middleware; requests without a
// resolved tenant pass through untouched. Store failures fail open: a
// degraded counter must not take the API down with it.
func Middleware(limiter *Limiter, records tenant.Provider, log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tc, ok := tenant.FromContext(r.Context())
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			record, err := records.GetByID(r.Context(), tc.TenantID)
			if err != nil {
				// The tenant middleware already vetted the record; a read
				// failure here is a cache/store hiccup, not an auth problem.
				log.ErrorContext(r.Context(), "rate limit tenant lookup failed",
					"tenant_id", tc.TenantID, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			limit, ok := record.Limits[LimitResource]
			if !ok || limit < 0 {
				next.ServeHTTP(w, r)
				return
			}

			result, err := limiter.Allow(r.Context(), tc.TenantID, limit)
			if err != nil {
				log.ErrorContext(r.Context(), "rate limit check failed",
					"tenant_id", tc.TenantID, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(result.Limit, 10))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

			if !result.Allowed {
				retryAfter := max(1, int(result.RetryAfter().Seconds()))
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{
					"error": "API rate limit exceeded",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
