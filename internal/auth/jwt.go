package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v5"

	"github.com/briefdash-labs/briefdash/internal/errors"
)

// JWTAuthenticator verifies HMAC-signed JWTs. The token must carry the
// expected audience; expiry and not-before are enforced by the parser.
type JWTAuthenticator struct {
	secret   []byte
	audience string
}

// NewJWTAuthenticator creates a JWT authenticator with a shared HMAC secret.
func NewJWTAuthenticator(secret []byte, audience string) *JWTAuthenticator {
	return &JWTAuthenticator{secret: secret, audience: audience}
}

// VerifyToken parses and validates the JWT.
func (a *JWTAuthenticator) VerifyToken(ctx context.Context, token string) (*Claims, error) {
	if len(a.secret) == 0 {
		return nil, errors.NewAuthFailed("no jwt secret configured")
	}

	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.NewAuthFailed("unexpected signing method")
		}
		return a.secret, nil
	}, jwt.WithAudience(a.audience))
	if err != nil {
		return nil, errors.NewAuthFailed("jwt verification failed")
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid {
		return nil, errors.NewAuthFailed("invalid jwt claims")
	}
	if claims.Subject == "" {
		return nil, errors.NewAuthFailed("jwt missing subject")
	}

	return &Claims{Subject: claims.Subject, Audience: a.audience}, nil
}
