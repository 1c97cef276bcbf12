package types

import "testing"

func TestParseRole(t *testing.T) {
	for _, valid := range []string{"guest", "author", "reviewer", "admin"} {
		role, err := ParseRole(valid)
		if err != nil {
			t.Fatalf("ParseRole(%q): %v", valid, err)
		}
		if string(role) != valid {
			t.Fatalf("ParseRole(%q) = %q", valid, role)
		}
	}

	for _, invalid := range []string{"", "Admin", "superuser", "root"} {
		if _, err := ParseRole(invalid); err == nil {
			t.Fatalf("ParseRole(%q) should fail", invalid)
		}
	}
}

func TestHomePath(t *testing.T) {
	cases := map[Role]string{
		RoleAdmin:    "/admin",
		RoleReviewer: "/reviewers/dashboard",
		RoleAuthor:   "/authors/dashboard",
		RoleGuest:    "/login",
	}
	for role, want := range cases {
		if got := role.HomePath(); got != want {
			t.Errorf("HomePath(%s) = %q, want %q", role, got, want)
		}
	}
}
