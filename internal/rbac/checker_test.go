package rbac

import "testing"

func TestDefaultPolicy(t *testing.T) {
	c := NewChecker(nil)
	cases := []struct {
		role, perm string
		want       bool
	}{
		{"admin", "evaluation:create", true},
		{"admin", "anything:at-all", true},
		{"manager", "evaluation:create", true},
		{"manager", "plan:view-team", true},
		{"manager", "questionnaire:manage", false},
		{"collaborator", "plan:view-own", true},
		{"collaborator", "evaluation:create", false},
		{"", "plan:view-own", false},
		{"intern", "plan:view-own", false},
	}
	for _, tc := range cases {
		if got := c.Has(tc.role, tc.perm); got != tc.want {
			t.Errorf("Has(%q, %q) = %v, want %v", tc.role, tc.perm, got, tc.want)
		}
	}
}

func TestAnyAndPrefixMatch(t *testing.T) {
	c := NewChecker(map[string][]string{"ops": {"evaluation:*"}})
	if !c.Has("ops", "evaluation:view-team") {
		t.Error("prefix wildcard should match")
	}
	if c.Has("ops", "plan:view-own") {
		t.Error("prefix wildcard matched foreign permission")
	}
	if !c.Any("ops", "plan:view-own", "evaluation:create") {
		t.Error("Any should succeed when one permission matches")
	}
}
