package team

import (
	"math"
	"testing"
)

func TestRoleWeightsSumToOne(t *testing.T) {
	var sum float64
	for _, role := range AllRoles() {
		sum += role.Weight()
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("expected role weights to sum to 1.0, got %v", sum)
	}
}

func TestRoleWeights(t *testing.T) {
	cases := []struct {
		role AgentRole
		want float64
	}{
		{RoleSystemAnalyst, 0.25},
		{RoleDevelopment, 0.25},
		{RoleMonitoring, 0.20},
		{RoleStrategy, 0.20},
		{RoleSecurity, 0.10},
	}
	for _, tc := range cases {
		if got := tc.role.Weight(); got != tc.want {
			t.Errorf("weight of %s: expected %v, got %v", tc.role, tc.want, got)
		}
	}
}

func TestUnknownRoleFallbackWeight(t *testing.T) {
	unknown := AgentRole("Procurement")
	if unknown.Known() {
		t.Errorf("expected Procurement to be unknown")
	}
	if got := unknown.Weight(); got != defaultWeight {
		t.Errorf("expected fallback weight %v, got %v", defaultWeight, got)
	}
}

func TestAllRolesCensus(t *testing.T) {
	roles := AllRoles()
	if len(roles) != 5 {
		t.Fatalf("expected 5 roles, got %d", len(roles))
	}
	seen := make(map[AgentRole]bool)
	for _, role := range roles {
		if seen[role] {
			t.Errorf("duplicate role %s", role)
		}
		seen[role] = true
		if !role.Known() {
			t.Errorf("census role %s not recognized", role)
		}
	}
}
