package tenant

import (
	"net/http"
	"strings"
	"time"
)

// Middleware resolves the tenant context for each request and stores it in
// the request context. Requests with no resolvable tenant identity are
// rejected unless their path is listed in WithSkipPaths.
func Middleware(resolver Resolver, opts ...Option) func(http.Handler) http.Handler {
	cfg := &config{
		errorHandler: defaultErrorHandler,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, skip := range cfg.skipPaths {
				if strings.HasPrefix(r.URL.Path, skip) {
					next.ServeHTTP(w, r)
					return
				}
			}

			tc, err := resolver.Resolve(r)
			if err != nil {
				cfg.errorHandler(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), tc)))
		})
	}
}

// RecordLoader loads the persistent tenant record for the resolved context
// and stores it alongside, going through the configured cache first. With
// require-active enabled (the default) suspended and deleted tenants are
// rejected before any handler runs. Paths listed in WithSkipPaths bypass
// the loader entirely; they must match the skip list given to Middleware,
// or requests that skipped resolution are rejected here.
func RecordLoader(provider Provider, opts ...Option) func(http.Handler) http.Handler {
	cfg := &config{
		cache:         NewMemoryCache(),
		cacheTTL:      5 * time.Minute,
		errorHandler:  defaultErrorHandler,
		requireActive: true,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, skip := range cfg.skipPaths {
				if strings.HasPrefix(r.URL.Path, skip) {
					next.ServeHTTP(w, r)
					return
				}
			}

			tc, ok := FromContext(r.Context())
			if !ok {
				cfg.errorHandler(w, r, ErrNoContext)
				return
			}

			if cached, hit := cfg.cache.Get(r.Context(), tc.TenantID); hit {
				if cfg.requireActive && !cached.Active() {
					cfg.errorHandler(w, r, ErrTenantInactive)
					return
				}
				next.ServeHTTP(w, r.WithContext(WithRecord(r.Context(), cached)))
				return
			}

			record, err := provider.GetByID(r.Context(), tc.TenantID)
			if err != nil {
				cfg.errorHandler(w, r, err)
				return
			}
			if cfg.requireActive && !record.Active() {
				cfg.errorHandler(w, r, ErrTenantInactive)
				return
			}

			cfg.cache.Set(r.Context(), tc.TenantID, record, cfg.cacheTTL)
			next.ServeHTTP(w, r.WithContext(WithRecord(r.Context(), record)))
		})
	}
}

// RequireTenant guards routes that must run with a tenant context.
func RequireTenant(errorHandler ErrorHandler) func(http.Handler) http.Handler {
	if errorHandler == nil {
		errorHandler = defaultErrorHandler
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := FromContext(r.Context()); !ok {
				errorHandler(w, r, ErrNoContext)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
