package core

// LikeMatch reports whether name matches pattern, where '*' matches any
// run of characters including path separators. Semantics mirror the SQL
// LIKE queries behind the store's like-name lookups, so in-memory wildcard
// scans and database pattern queries agree on the same match set. Inputs
// are expected to be sanitized already.
func LikeMatch(pattern, name string) bool {
	var pi, ni int
	star := -1
	backtrack := 0
	for ni < len(name) {
		switch {
		case pi < len(pattern) && pattern[pi] == '*':
			star = pi
			backtrack = ni
			pi++
		case pi < len(pattern) && pattern[pi] == name[ni]:
			pi++
			ni++
		case star >= 0:
			backtrack++
			ni = backtrack
			pi = star + 1
		default:
			return false
		}
	}
	for pi < len(pattern) && pattern[pi] == '*' {
		pi++
	}
	return pi == len(pattern)
}
