package tenant

import (
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// ErrorHandler renders tenant resolution failures.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

type config struct {
	cache         Cache
	cacheTTL      time.Duration
	errorHandler  ErrorHandler
	skipPaths     []string
	requireActive bool
	logger        *slog.Logger
}

// Option configures the middleware.
type Option func(*config)

// WithCache sets the tenant record cache used by the record loader.
func WithCache(cache Cache) Option {
	return func(c *config) { c.cache = cache }
}

// WithCacheTTL sets how long loaded tenant records stay cached.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *config) { c.cacheTTL = ttl }
}

// WithErrorHandler sets a custom error handler.
func WithErrorHandler(handler ErrorHandler) Option {
	return func(c *config) {
		if handler != nil {
			c.errorHandler = handler
		}
	}
}

// WithSkipPaths marks path prefixes that bypass tenant resolution, such as
// health checks and tenant sign-up.
func WithSkipPaths(paths ...string) Option {
	return func(c *config) { c.skipPaths = paths }
}

// WithRequireActive controls whether the record loader rejects tenants whose
// status is not active. Enabled by default.
func WithRequireActive(require bool) Option {
	return func(c *config) { c.requireActive = require }
}

// WithLogger sets the middleware logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrUnauthenticated), errors.Is(err, ErrNoContext):
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	case errors.Is(err, ErrTenantNotFound):
		http.Error(w, "Tenant not found", http.StatusNotFound)
	case errors.Is(err, ErrTenantInactive):
		http.Error(w, "Tenant is inactive", http.StatusForbidden)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
