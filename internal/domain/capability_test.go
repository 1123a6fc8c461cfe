package domain

import "testing"

func TestRoleCan(t *testing.T) {
	tests := []struct {
		role Role
		cap  Capability
		want bool
	}{
		{RoleAthlete, CapLogActivity, true},
		{RoleAthlete, CapSendTrainerRequest, true},
		{RoleAthlete, CapManagePlans, false},
		{RoleAthlete, CapAdminUsers, false},
		{RoleTrainer, CapManagePlans, true},
		{RoleTrainer, CapUsePlanBuilder, true},
		{RoleTrainer, CapViewStats, false},
		{RoleAdmin, CapManagePlans, true},
		{RoleAdmin, CapAdminInvites, true},
		{Role("coach"), CapMessage, false},
	}
	for _, tt := range tests {
		if got := tt.role.Can(tt.cap); got != tt.want {
			t.Errorf("%s.Can(%s) = %v, want %v", tt.role, tt.cap, got, tt.want)
		}
	}
}

func TestCapabilitiesForAdminIsSuperset(t *testing.T) {
	admin := map[Capability]bool{}
	for _, c := range CapabilitiesFor(RoleAdmin) {
		admin[c] = true
	}
	for _, r := range []Role{RoleAthlete, RoleTrainer} {
		for _, c := range CapabilitiesFor(r) {
			if !admin[c] {
				t.Errorf("admin lacks %s held by %s", c, r)
			}
		}
	}
	if len(CapabilitiesFor(Role("nobody"))) != 0 {
		t.Error("unknown role should hold no capabilities")
	}
}

func TestParseRole(t *testing.T) {
	if r, ok := ParseRole(" Trainer "); !ok || r != RoleTrainer {
		t.Errorf("ParseRole(Trainer) = %q, %v", r, ok)
	}
	if _, ok := ParseRole("client"); ok {
		t.Error("client is not a role")
	}
}
