// Portcullis - Access Control Gateway for Self-Hosted Web Applications
// Copyright 2026 Portcullis Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/portcullisproject/portcullis

// Package routematch maps request paths against role route patterns.
//
// A pattern is a path prefix, optionally wildcard-suffixed: "/admin" and
// "/admin/*" both match "/admin" and everything nested beneath it, while a
// bare prefix without a separator never matches ("/admin" does not match
// "/administration").
package routematch

import "strings"

// ExpandWildcard strips a trailing "/*" suffix from a pattern.
func ExpandWildcard(pattern string) string {
	return strings.TrimSuffix(pattern, "/*")
}

// IsUnderRoute reports whether path is the pattern itself or nested under it.
// Matching requires a path separator: pattern "/admin" matches "/admin" and
// "/admin/users" but not "/administration".
func IsUnderRoute(path, pattern string) bool {
	pattern = ExpandWildcard(pattern)
	return path == pattern || strings.HasPrefix(path, pattern+"/")
}

// MatchesAny reports whether path matches any of the patterns.
func MatchesAny(path string, patterns []string) bool {
	for _, pattern := range patterns {
		if IsUnderRoute(path, pattern) {
			return true
		}
	}
	return false
}
