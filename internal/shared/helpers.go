// Package shared provides common utility functions used across multiple
// packages in the assetdep codebase.
package shared

import "strings"

// SanitizePath lower-cases a path, rewrites backslashes to forward
// slashes, collapses doubled separators and trims surrounding whitespace
// and leading slashes. It is the canonical database form of an asset path.
func SanitizePath(value string) string {
	sanitized := strings.ToLower(strings.TrimSpace(value))
	sanitized = strings.ReplaceAll(sanitized, "\\", "/")
	for strings.Contains(sanitized, "//") {
		sanitized = strings.ReplaceAll(sanitized, "//", "/")
	}
	return strings.TrimPrefix(sanitized, "/")
}

// Extension returns the lower-cased extension of a path including the dot,
// or an empty string when there is none.
func Extension(path string) string {
	idx := strings.LastIndexByte(path, '.')
	if idx < 0 || strings.ContainsRune(path[idx:], '/') {
		return ""
	}
	return strings.ToLower(path[idx:])
}
