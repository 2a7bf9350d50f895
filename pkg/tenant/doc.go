// Package tenant defines the request-scoped tenant context, the resolvers
// that extract it from inbound HTTP requests, and the persistent tenant
// record shared by the rest of tenantkit.
//
// A tenant.Context is resolved exactly once per request and is immutable
// afterwards. Resolution follows a fixed precedence: verified authorizer
// claims attached to the request context, then a bearer token decoded
// without signature verification (the gateway already checked it), then
// explicit X-Tenant-Id / X-Tenant-Tier headers. If none of these yield a
// tenant id the request is unauthenticated.
//
// The package deliberately performs no I/O during resolution so that
// resolving the same request twice yields identical results.
package tenant
