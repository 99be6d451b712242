// Package auth provides bearer token authentication for the showsync API.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/stacklok/showsync/internal/config"
)

// RFC 6750 Section 3 error codes
const (
	errorCodeInvalidRequest = "invalid_request"
	errorCodeInvalidToken   = "invalid_token"
)

const defaultRealm = "showsync"

type claimsKey struct{}

// ClaimsFromContext returns the claims of the authenticated request, if any
func ClaimsFromContext(ctx context.Context) (jwt.MapClaims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(jwt.MapClaims)
	return claims, ok
}

// NewMiddleware builds the authentication middleware for cfg.
// A nil config or anonymous mode passes every request through.
func NewMiddleware(cfg *config.Config) (func(http.Handler) http.Handler, error) {
	switch cfg.GetAuthMode() {
	case config.AuthModeAnonymous:
		slog.Info("API authentication disabled (anonymous mode)")
		return anonymousMiddleware, nil
	case config.AuthModeJWT:
		return newJWTMiddleware(cfg.Auth)
	default:
		return nil, fmt.Errorf("unsupported auth mode: %s", cfg.Auth.Mode)
	}
}

func newJWTMiddleware(cfg *config.AuthConfig) (func(http.Handler) http.Handler, error) {
	if cfg.JWT == nil {
		return nil, fmt.Errorf("jwt configuration is required for mode %q", config.AuthModeJWT)
	}
	secret, err := cfg.JWT.GetSecret()
	if err != nil {
		return nil, err
	}
	validator, err := newHMACValidator(secret, cfg.JWT.Issuer, cfg.JWT.Audience, cfg.JWT.GetLeeway())
	if err != nil {
		return nil, err
	}

	realm := cfg.JWT.Realm
	if realm == "" {
		realm = defaultRealm
	}
	publicPaths := cfg.PublicPaths
	if len(publicPaths) == 0 {
		publicPaths = DefaultPublicPaths
	}

	slog.Info("API authentication enabled (jwt mode)",
		"issuer", cfg.JWT.Issuer,
		"audience", cfg.JWT.Audience,
		"public_paths", publicPaths)

	m := &bearerMiddleware{validator: validator, realm: realm}
	return WrapWithPublicPaths(m.Middleware, publicPaths), nil
}

func anonymousMiddleware(next http.Handler) http.Handler {
	return next
}

type bearerMiddleware struct {
	validator tokenValidator
	realm     string
}

// Middleware rejects requests without a valid bearer token and stores the claims in the request context
func (m *bearerMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := extractBearerToken(r)
		if !ok {
			slog.WarnContext(r.Context(), "Missing or malformed authorization header",
				"remote_addr", r.RemoteAddr,
				"path", r.URL.Path)
			m.writeError(w, errorCodeInvalidRequest, "missing or malformed authorization header")
			return
		}

		claims, err := m.validator.ValidateToken(r.Context(), token)
		if err != nil {
			slog.WarnContext(r.Context(), "Token validation failed",
				"error", err,
				"remote_addr", r.RemoteAddr,
				"path", r.URL.Path)
			m.writeError(w, errorCodeInvalidToken, "token validation failed")
			return
		}

		slog.DebugContext(r.Context(), "Request authenticated", "subject", claims["sub"], "path", r.URL.Path)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
	})
}

func extractBearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// sanitizeHeaderValue drops CR and LF and escapes quotes for a quoted-string
func sanitizeHeaderValue(s string) string {
	if !strings.ContainsAny(s, "\r\n\"") {
		return s
	}
	s = strings.NewReplacer("\r", "", "\n", "").Replace(s)
	return strings.ReplaceAll(s, `"`, `\"`)
}

func (m *bearerMiddleware) writeError(w http.ResponseWriter, errCode, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", fmt.Sprintf(`Bearer realm="%s", error="%s", error_description="%s"`,
		sanitizeHeaderValue(m.realm), errCode, sanitizeHeaderValue(description)))
	w.WriteHeader(http.StatusUnauthorized)

	if err := json.NewEncoder(w).Encode(map[string]string{"error": description}); err != nil {
		slog.Error("Failed to encode error response", "error", err)
	}
}
