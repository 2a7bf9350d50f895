package isolation

import (
	"strings"

	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

// Entity is a logical entity kind routed by the isolation router.
type Entity string

// Entity kinds known to the platform.
const (
	EntityOrder   Entity = "order"
	EntityProduct Entity = "product"
	EntityUser    Entity = "user"
)

// ScopingMode tells the connection provider how a target is isolated.
type ScopingMode string

const (
	// RowFilter shares a physical table; every query must carry an
	// equality predicate on the tenant id column.
	RowFilter ScopingMode = "row_filter"
	// SchemaScope isolates structurally via a per-tenant schema.
	SchemaScope ScopingMode = "schema_scope"
	// DatabaseScope isolates via a dedicated per-tenant database.
	DatabaseScope ScopingMode = "database_scope"
)

// TenantIDColumn is the row filter column on pool-tier tables.
const TenantIDColumn = "tenant_id"

// schemaPrefix is the literal prefix of bridge-tier schemas and silo-tier
// databases. Existing stores were provisioned with it, so it is immutable.
const schemaPrefix = "tenant_"

// StorageTarget describes where an entity lives for one tenant and how
// access to it must be scoped. Targets embed the tenant identity and are
// never cached or shared across tenants.
type StorageTarget struct {
	Entity       Entity
	PhysicalName string      // table name within the resolved scope
	Mode         ScopingMode
	ScopeValue   string      // tenant id, schema name, or database name depending on Mode
}

// TargetFor resolves the storage target for an entity kind under the given
// tenant context. It is deterministic and performs no I/O.
//
// Fails with ErrUnknownTier when the context carries a tier outside
// pool/bridge/silo, and with ErrUnroutableTenantID when the tenant id
// cannot be turned into a safe schema or database identifier.
func TargetFor(entity Entity, tc tenant.Context) (StorageTarget, error) {
	table := TableName(entity)

	switch tc.Tier {
	case tenant.TierPool:
		return StorageTarget{
			Entity:       entity,
			PhysicalName: table,
			Mode:         RowFilter,
			ScopeValue:   tc.TenantID,
		}, nil

	case tenant.TierBridge:
		schema, err := SchemaName(tc.TenantID)
		if err != nil {
			return StorageTarget{}, err
		}
		return StorageTarget{
			Entity:       entity,
			PhysicalName: table,
			Mode:         SchemaScope,
			ScopeValue:   schema,
		}, nil

	case tenant.TierSilo:
		db, err := DatabaseName(tc.TenantID)
		if err != nil {
			return StorageTarget{}, err
		}
		return StorageTarget{
			Entity:       entity,
			PhysicalName: table,
			Mode:         DatabaseScope,
			ScopeValue:   db,
		}, nil

	default:
		return StorageTarget{}, ErrUnknownTier
	}
}

// TableName returns the canonical shared table name for an entity kind:
// the pluralized base entity name.
func TableName(entity Entity) string {
	return string(entity) + "s"
}

// SchemaName derives the bridge-tier schema for a tenant: the tenant_
// prefix plus the tenant id with every hyphen replaced by an underscore.
// No other character is altered.
func SchemaName(tenantID string) (string, error) {
	name := schemaPrefix + strings.ReplaceAll(tenantID, "-", "_")
	if !validIdentifier(name) {
		return "", ErrUnroutableTenantID
	}
	return name, nil
}

// DatabaseName derives the silo-tier database for a tenant. Hyphens are
// preserved: silo databases were provisioned from the raw tenant id.
func DatabaseName(tenantID string) (string, error) {
	name := schemaPrefix + tenantID
	if !validIdentifier(name) {
		return "", ErrUnroutableTenantID
	}
	return name, nil
}

// SiloTableName returns the per-tenant table form used by silo tenants on
// stores that isolate by table instead of database: base name, a hyphen,
// then the tenant id.
func SiloTableName(entity Entity, tenantID string) string {
	return TableName(entity) + "-" + tenantID
}

// validIdentifier accepts only characters that are safe to embed in a
// quoted SQL identifier. Tenant ids are platform-generated UUIDs, so
// anything outside this set means the id was tampered with; rejecting it
// here closes the injection path through schema and database names.
func validIdentifier(name string) bool {
	if name == "" || len(name) > 63 {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_' || r == '-':
		default:
			return false
		}
	}
	return true
}
