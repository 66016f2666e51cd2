package auth

// SecretEqual compares a presented webhook secret against the expected
// one without short-circuiting on content. Mismatched lengths fail
// immediately; equal-length inputs accumulate byte XORs and branch once
// at the end.
func SecretEqual(presented, expected string) bool {
	if len(presented) != len(expected) {
		return false
	}
	var diff byte
	for i := 0; i < len(presented); i++ {
		diff |= presented[i] ^ expected[i]
	}
	return diff == 0
}
