package policy

import "testing"

func TestPermission_NewPermission(t *testing.T) {
	if perm := NewPermission("product", ActionCreate); perm != "product:create" {
		t.Errorf("expected 'product:create', got '%s'", perm)
	}
}

func TestPermission_Parse(t *testing.T) {
	res, act := Permission("invoice:view").Parse()
	if res != "invoice" || act != ActionView {
		t.Errorf("expected invoice/view, got '%s' and '%s'", res, act)
	}
	res, act = Permission("invalid").Parse()
	if res != "" || act != "" {
		t.Errorf("expected empty strings, got '%s' and '%s'", res, act)
	}
}

func TestPermission_Matches(t *testing.T) {
	cases := []struct {
		grant     Permission
		requested Permission
		want      bool
	}{
		{"product:create", "product:create", true},
		{"product:create", "product:delete", false},
		{"product:create", "invoice:create", false},
		{"product:*", "product:delete", true},
		{"product:*", "invoice:view", false},
		{PermissionAll, "report:view", true},
		{PermissionAll, "*:*", true},
		{"customer:*", "*:*", false},
	}
	for _, tc := range cases {
		if got := tc.grant.Matches(tc.requested); got != tc.want {
			t.Errorf("%s matches %s: got %v want %v", tc.grant, tc.requested, got, tc.want)
		}
	}
}
