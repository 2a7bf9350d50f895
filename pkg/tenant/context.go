package tenant

import (
	"context"
	"log/slog"
)

// Private key types prevent collisions with other packages' context values.
type (
	contextKey struct{}
	claimsKey  struct{}
	recordKey  struct{}
)

// WithContext attaches a resolved tenant context to the request context.
func WithContext(ctx context.Context, tc Context) context.Context {
	return context.WithValue(ctx, contextKey{}, tc)
}

// FromContext retrieves the tenant context. The second return value reports
// whether one was present.
func FromContext(ctx context.Context) (Context, bool) {
	tc, ok := ctx.Value(contextKey{}).(Context)
	return tc, ok
}

// MustFromContext retrieves the tenant context and panics when absent. Use
// only in handlers mounted behind RequireTenant.
func MustFromContext(ctx context.Context) Context {
	tc, ok := FromContext(ctx)
	if !ok {
		panic("tenant: no tenant context")
	}
	return tc
}

// WithClaims attaches verified authorizer claims to the context. Gateway
// integrations call this before handing the request to the resolver chain.
func WithClaims(ctx context.Context, claims Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFromContext retrieves authorizer claims attached by WithClaims.
func ClaimsFromContext(ctx context.Context) (Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(Claims)
	return claims, ok
}

// WithRecord attaches a loaded tenant record to the context.
func WithRecord(ctx context.Context, t *Tenant) context.Context {
	return context.WithValue(ctx, recordKey{}, t)
}

// RecordFromContext retrieves the tenant record loaded by the record loader
// middleware.
func RecordFromContext(ctx context.Context) (*Tenant, bool) {
	t, ok := ctx.Value(recordKey{}).(*Tenant)
	return t, ok && t != nil
}

// LoggerExtractor returns a slog context extractor that annotates log
// records with the current tenant id.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if tc, ok := FromContext(ctx); ok {
			return slog.String("tenant_id", tc.TenantID), true
		}
		return slog.Attr{}, false
	}
}
