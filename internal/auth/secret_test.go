package auth

import "testing"

func TestSecretEqual(t *testing.T) {
	cases := []struct {
		name      string
		presented string
		expected  string
		want      bool
	}{
		{"matching", "whsec_abc123", "whsec_abc123", true},
		{"different content", "whsec_abc123", "whsec_xyz789", false},
		{"single byte off", "whsec_abc123", "whsec_abc124", false},
		{"length mismatch", "whsec_abc", "whsec_abc123", false},
		{"presented empty", "", "whsec_abc123", false},
		{"both empty", "", "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SecretEqual(tc.presented, tc.expected); got != tc.want {
				t.Fatalf("SecretEqual(%q, %q) = %v, want %v", tc.presented, tc.expected, got, tc.want)
			}
		})
	}
}
