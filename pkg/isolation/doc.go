// Package isolation maps a tenant context and an entity kind to the
// physical storage location that must serve the request.
//
// The mapping is a pure function of its inputs: no I/O, no clock, no
// configuration lookups. That determinism is what makes the tenant
// isolation guarantee testable without a live store, and it is why targets
// are computed fresh on every request instead of being cached: a target
// embeds the tenant identity, and a stale one would leak rows across
// tenants.
//
// Naming rules are fixed by the existing store layout and must not change:
//
//	pool:   shared table "orders", rows filtered on the tenant_id column
//	bridge: schema "tenant_" + id with every "-" replaced by "_"
//	silo:   database "tenant_" + id (or table "orders-" + id on stores
//	        that isolate by table rather than database)
package isolation
