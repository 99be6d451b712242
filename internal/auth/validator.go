package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenValidator checks a raw bearer token and returns its claims
type tokenValidator interface {
	ValidateToken(ctx context.Context, token string) (jwt.MapClaims, error)
}

// hmacValidator accepts HS256, HS384 and HS512 tokens signed with one shared secret
type hmacValidator struct {
	secret []byte
	parser *jwt.Parser
}

var _ tokenValidator = (*hmacValidator)(nil)

func newHMACValidator(secret []byte, issuer, audience string, leeway time.Duration) (*hmacValidator, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwt secret cannot be empty")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{
			jwt.SigningMethodHS256.Alg(),
			jwt.SigningMethodHS384.Alg(),
			jwt.SigningMethodHS512.Alg(),
		}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(leeway),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}

	return &hmacValidator{secret: secret, parser: jwt.NewParser(opts...)}, nil
}

func (v *hmacValidator) ValidateToken(_ context.Context, token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	_, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return nil, err
	}
	return claims, nil
}
