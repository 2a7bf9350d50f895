// Package tenantsvc manages the tenant lifecycle: onboarding, plan and
// status changes, and soft-deleting with a durable hand-off to the
// asynchronous cleanup worker.
package tenantsvc

import (
	"maps"

	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

// Subscription plans. Limits and features are derived from the plan at
// onboarding and re-derived on plan change; a value of -1 means unlimited.
const (
	PlanBasic      = "basic"
	PlanPremium    = "premium"
	PlanEnterprise = "enterprise"
)

var planLimits = map[string]map[string]int64{
	PlanBasic: {
		"max_products":           100,
		"max_orders":             1000,
		"max_users":              10,
		"max_api_calls_per_hour": 1000,
	},
	PlanPremium: {
		"max_products":           1000,
		"max_orders":             10000,
		"max_users":              50,
		"max_api_calls_per_hour": 10000,
	},
	PlanEnterprise: {
		"max_products":           -1,
		"max_orders":             -1,
		"max_users":              -1,
		"max_api_calls_per_hour": 100000,
	},
}

var planFeatures = map[string]map[string]bool{
	PlanBasic: {
		"advanced_analytics": false,
		"custom_branding":    false,
		"api_access":         true,
		"priority_support":   false,
		"data_export":        false,
	},
	PlanPremium: {
		"advanced_analytics": true,
		"custom_branding":    true,
		"api_access":         true,
		"priority_support":   true,
		"data_export":        true,
	},
	PlanEnterprise: {
		"advanced_analytics":  true,
		"custom_branding":     true,
		"api_access":          true,
		"priority_support":    true,
		"data_export":         true,
		"dedicated_support":   true,
		"custom_integrations": true,
	},
}

// planIsolation is the default isolation model per plan; callers may
// override it at onboarding.
var planIsolation = map[string]tenant.Tier{
	PlanBasic:      tenant.TierPool,
	PlanPremium:    tenant.TierBridge,
	PlanEnterprise: tenant.TierSilo,
}

// PlanLimits returns the resource caps for a plan. Unknown plans fall back
// to basic, matching onboarding's historical behavior.
func PlanLimits(plan string) map[string]int64 {
	limits, ok := planLimits[plan]
	if !ok {
		limits = planLimits[PlanBasic]
	}
	return maps.Clone(limits)
}

// PlanFeatures returns the feature flags for a plan, falling back to basic
// for unknown plans.
func PlanFeatures(plan string) map[string]bool {
	features, ok := planFeatures[plan]
	if !ok {
		features = planFeatures[PlanBasic]
	}
	return maps.Clone(features)
}

// DefaultIsolation returns the default isolation tier for a plan.
func DefaultIsolation(plan string) tenant.Tier {
	if tier, ok := planIsolation[plan]; ok {
		return tier
	}
	return tenant.TierPool
}

// KnownPlan reports whether the plan name is recognized.
func KnownPlan(plan string) bool {
	_, ok := planLimits[plan]
	return ok
}
