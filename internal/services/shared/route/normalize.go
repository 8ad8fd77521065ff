// Package route provides request path helpers shared by HTTP services.
package route

import (
	"net/http"
	"strings"
)

// placeholder replaces identifier path segments in normalized routes.
const placeholder = ":id"

// Normalize collapses path parameters so a path can be used as a metric
// label value with bounded cardinality. Numeric segments become ":id";
// using raw paths as labels would grow one series per entity.
func Normalize(path string) string {
	if path == "" || path == "/" {
		return "/"
	}
	trimmed := strings.TrimRight(path, "/")
	if trimmed == "" {
		return "/"
	}
	segments := strings.Split(trimmed, "/")
	for i, segment := range segments {
		if isIdentifier(segment) {
			segments[i] = placeholder
		}
	}
	return strings.Join(segments, "/")
}

// isIdentifier reports whether a path segment looks like an entity id.
func isIdentifier(segment string) bool {
	if segment == "" {
		return false
	}
	for _, r := range segment {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// RedirectTrailingSlash canonicalizes request paths by stripping trailing "/"
// characters.
//
// It returns true when a redirect was written. Route handlers should stop
// further processing when true.
func RedirectTrailingSlash(w http.ResponseWriter, r *http.Request) bool {
	if w == nil || r == nil || r.URL == nil {
		return false
	}

	originalPath := r.URL.Path
	canonical := strings.TrimRight(originalPath, "/")
	if canonical == "" {
		canonical = "/"
	}
	if canonical == originalPath {
		return false
	}

	http.Redirect(w, r, canonical, http.StatusMovedPermanently)
	return true
}
