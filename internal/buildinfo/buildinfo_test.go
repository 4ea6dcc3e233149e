package buildinfo

import "testing"

func TestDisplayVersion(t *testing.T) {
	orig := Version
	defer func() { Version = orig }()

	cases := []struct {
		in   string
		want string
	}{
		{"dev", "dev"},
		{"2026.1.1", "v2026.1.1"},
		{"v2026.1.1", "v2026.1.1"},
		{"(devel)", "dev"},
	}
	for _, c := range cases {
		Version = c.in
		if got := DisplayVersion(); got != c.want {
			t.Fatalf("DisplayVersion(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
