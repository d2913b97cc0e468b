package utils

import (
	"testing"

	"github.com/launchdeck-platform/models"
)

func TestGetPlanLimitsRejectsUnknownTier(t *testing.T) {
	if _, ok := GetPlanLimits(models.PlanTier("platinum")); ok {
		t.Fatal("unknown tier must not resolve to limits")
	}
	limits, ok := GetPlanLimits(models.PlanFree)
	if !ok {
		t.Fatal("free tier missing from the quota matrix")
	}
	if limits.MaxResources != 1 || limits.ConnLimit != 20 {
		t.Fatalf("free tier limits wrong: %+v", limits)
	}
}
