package models

import "testing"

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		from DeploymentStatus
		to   DeploymentStatus
		want bool
	}{
		{DeploymentStatusQueued, DeploymentStatusBuilding, true},
		{DeploymentStatusBuilding, DeploymentStatusDeploying, true},
		{DeploymentStatusDeploying, DeploymentStatusReady, true},
		{DeploymentStatusQueued, DeploymentStatusError, true},
		{DeploymentStatusQueued, DeploymentStatusCancelled, true},
		{DeploymentStatusBuilding, DeploymentStatusQueued, false},
		{DeploymentStatusDeploying, DeploymentStatusBuilding, false},
		{DeploymentStatusReady, DeploymentStatusBuilding, false},
		{DeploymentStatusError, DeploymentStatusReady, false},
		{DeploymentStatusCancelled, DeploymentStatusQueued, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	terminal := []DeploymentStatus{DeploymentStatusReady, DeploymentStatusError, DeploymentStatusCancelled}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []DeploymentStatus{DeploymentStatusQueued, DeploymentStatusBuilding, DeploymentStatusDeploying} {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestIsValidDeploymentStatus(t *testing.T) {
	if !IsValidDeploymentStatus(DeploymentStatusBuilding) {
		t.Error("BUILDING rejected")
	}
	if IsValidDeploymentStatus("SHIPPED") {
		t.Error("unknown status accepted")
	}
}
