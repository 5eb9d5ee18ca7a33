// Package auth provides bearer-credential verification for the gateway.
// The gateway treats every failure identically: callers get a uniform 401
// and never learn which check rejected them.
package auth

import (
	"context"
	"crypto/subtle"

	"github.com/briefdash-labs/briefdash/internal/errors"
)

// Claims identifies an authenticated caller.
type Claims struct {
	// Subject is the caller's identity, used for audit attribution and
	// job labels.
	Subject string

	// Audience is the audience the credential was issued for.
	Audience string
}

// Authenticator verifies a bearer credential.
type Authenticator interface {
	// VerifyToken validates the raw bearer token and returns the caller's
	// claims. Failures return *errors.ErrAuthFailed.
	VerifyToken(ctx context.Context, token string) (*Claims, error)
}

// StaticTokenAuthenticator accepts exactly one pre-shared token.
// Suitable for single-tenant deployments and tests.
type StaticTokenAuthenticator struct {
	token   string
	subject string
}

// NewStaticTokenAuthenticator creates a static-token authenticator.
// The subject is attached to all successfully verified requests.
func NewStaticTokenAuthenticator(token, subject string) *StaticTokenAuthenticator {
	if subject == "" {
		subject = "dashboard"
	}
	return &StaticTokenAuthenticator{token: token, subject: subject}
}

// VerifyToken compares the presented token in constant time.
func (a *StaticTokenAuthenticator) VerifyToken(ctx context.Context, token string) (*Claims, error) {
	if a.token == "" {
		return nil, errors.NewAuthFailed("no static token configured")
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(a.token)) != 1 {
		return nil, errors.NewAuthFailed("static token mismatch")
	}
	return &Claims{Subject: a.subject}, nil
}
