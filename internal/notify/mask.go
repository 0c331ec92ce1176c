package notify

import "strings"

// Mask hides most of an account identifier. The first three characters of
// the local part stay visible (only the first when it is three or shorter)
// and the "@domain" suffix is kept:
//
//	abc123@example.com → abc***@example.com
func Mask(identifier string) string {
	local, domain, hasAt := strings.Cut(identifier, "@")

	r := []rune(local)
	keep := 3
	if len(r) <= 3 {
		keep = min(1, len(r))
	}

	masked := string(r[:keep]) + "***"
	if hasAt {
		masked += "@" + domain
	}
	return masked
}
