package utils

import (
	"github.com/launchdeck-platform/models"
)

// PlanLimits holds the plan-derived quotas applied before provisioning
type PlanLimits struct {
	MaxResources   int
	ConnLimit      int
	StorageLimitMB int64
	CPUMillis      int64
	MemoryMB       int64
}

var planLimits = map[models.PlanTier]PlanLimits{
	models.PlanFree:       {MaxResources: 1, ConnLimit: 20, StorageLimitMB: 1024, CPUMillis: 250, MemoryMB: 256},
	models.PlanPro:        {MaxResources: 5, ConnLimit: 100, StorageLimitMB: 10240, CPUMillis: 1000, MemoryMB: 1024},
	models.PlanEnterprise: {MaxResources: 25, ConnLimit: 500, StorageLimitMB: 102400, CPUMillis: 2000, MemoryMB: 4096},
}

// GetPlanLimits returns the quota entry for a plan tier. The second
// return is false for tiers outside the fixed matrix; callers validating
// user input must reject those rather than picking a default.
func GetPlanLimits(plan models.PlanTier) (PlanLimits, bool) {
	limits, ok := planLimits[plan]
	return limits, ok
}
