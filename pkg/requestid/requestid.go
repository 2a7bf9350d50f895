// Package requestid assigns every request a correlation id, propagated via
// the X-Request-ID header and the request context. Cross-service tenant
// flows (registration followed by async provisioning) are traced by this id.
package requestid

import (
	"context"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/google/uuid"
)

// Header is the request id header, read from the request when present and
// always set on the response.
const Header = "X-Request-ID"

const maxIDLength = 128

// Inbound ids outside this alphabet are replaced, not echoed, so an
// attacker cannot smuggle arbitrary bytes into logs via the header.
var validID = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

type contextKey struct{}

// WithContext attaches a request id to the context.
func WithContext(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKey{}, requestID)
}

// FromContext returns the request id, or "" when none is attached.
func FromContext(ctx context.Context) string {
	requestID, _ := ctx.Value(contextKey{}).(string)
	return requestID
}

// Middleware ensures every request carries a valid id: an acceptable
// inbound X-Request-ID is kept, anything else is replaced with a fresh
// UUID. The id ends up in the context and on the response header.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(Header)
		if len(requestID) == 0 || len(requestID) > maxIDLength || !validID.MatchString(requestID) {
			requestID = uuid.NewString()
		}
		w.Header().Set(Header, requestID)
		next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), requestID)))
	})
}

// LoggerExtractor annotates log records with the request id.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if requestID := FromContext(ctx); requestID != "" {
			return slog.String("request_id", requestID), true
		}
		return slog.Attr{}, false
	}
}
