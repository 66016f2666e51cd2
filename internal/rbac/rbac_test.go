package rbac

import "testing"

func TestCan(t *testing.T) {
	cases := []struct {
		name   string
		role   Role
		action Action
		allow  bool
	}{
		{name: "user tools", role: RoleUser, action: ActionUseTools, allow: true},
		{name: "user pro tools", role: RoleUser, action: ActionUseProTools, allow: false},
		{name: "user catalog", role: RoleUser, action: ActionManageCatalog, allow: false},
		{name: "pro tools", role: RolePro, action: ActionUseTools, allow: true},
		{name: "pro pro tools", role: RolePro, action: ActionUseProTools, allow: true},
		{name: "pro users", role: RolePro, action: ActionManageUsers, allow: false},
		{name: "admin catalog", role: RoleAdmin, action: ActionManageCatalog, allow: true},
		{name: "admin users", role: RoleAdmin, action: ActionManageUsers, allow: true},
		{name: "unknown role", role: Role("guest"), action: ActionUseTools, allow: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Can(tc.role, tc.action); got != tc.allow {
				t.Fatalf("Can(%q, %q) = %v, want %v", tc.role, tc.action, got, tc.allow)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		raw  string
		want Role
	}{
		{raw: "user", want: RoleUser},
		{raw: "pro", want: RolePro},
		{raw: "admin", want: RoleAdmin},
		{raw: "", want: RoleUser},
		{raw: "superuser", want: RoleUser},
	}

	for _, tc := range cases {
		if got := Normalize(tc.raw); got != tc.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}
