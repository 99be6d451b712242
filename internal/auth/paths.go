package auth

import (
	"net/http"
	"path"
	"strings"
)

// DefaultPublicPaths are reachable without a token
var DefaultPublicPaths = []string{"/health", "/readiness", "/version", "/metrics"}

// IsPublicPath reports whether requestPath is one of publicPaths or below one of them.
// Matching is segment aware: /health covers /health/live but not /healthz.
// Paths carrying encoded separators or dots are never public.
func IsPublicPath(requestPath string, publicPaths []string) bool {
	lower := strings.ToLower(requestPath)
	if strings.Contains(lower, "%2f") || strings.Contains(lower, "%2e") {
		return false
	}

	clean := path.Clean("/" + requestPath)
	for _, public := range publicPaths {
		p := path.Clean("/" + public)
		if p == "/" || clean == p || strings.HasPrefix(clean, p+"/") {
			return true
		}
	}
	return false
}

// WrapWithPublicPaths bypasses authMw for requests to public paths
func WrapWithPublicPaths(authMw func(http.Handler) http.Handler, publicPaths []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		protected := authMw(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if IsPublicPath(r.URL.Path, publicPaths) {
				next.ServeHTTP(w, r)
				return
			}
			protected.ServeHTTP(w, r)
		})
	}
}
