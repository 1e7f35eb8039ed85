package model

import "testing"

func TestParseRole(t *testing.T) {
	for _, valid := range []string{"OWNER", "ADMIN", "MEMBER"} {
		if _, err := ParseRole(valid); err != nil {
			t.Errorf("ParseRole(%q) err = %v, want nil", valid, err)
		}
	}
	for _, invalid := range []string{"", "owner", "SUPERUSER", "Admin"} {
		if _, err := ParseRole(invalid); err == nil {
			t.Errorf("ParseRole(%q) err = nil, want error", invalid)
		}
	}
}

func TestRoleOrdering(t *testing.T) {
	if !RoleOwner.AtLeast(RoleAdmin) || !RoleAdmin.AtLeast(RoleMember) {
		t.Error("role ranks out of order")
	}
	if RoleMember.AtLeast(RoleAdmin) || RoleAdmin.AtLeast(RoleOwner) {
		t.Error("lower role ranked above higher role")
	}
	if !RoleMember.AtLeast(RoleMember) {
		t.Error("role should rank at least as itself")
	}
}
