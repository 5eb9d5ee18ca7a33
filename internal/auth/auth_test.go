package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briefdash-labs/briefdash/internal/errors"
)

func TestStaticToken_Accepts(t *testing.T) {
	a := NewStaticTokenAuthenticator("s3cret", "")

	claims, err := a.VerifyToken(context.Background(), "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "dashboard", claims.Subject)
}

func TestStaticToken_CustomSubject(t *testing.T) {
	a := NewStaticTokenAuthenticator("s3cret", "weekly-brief")

	claims, err := a.VerifyToken(context.Background(), "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "weekly-brief", claims.Subject)
}

func TestStaticToken_RejectsMismatch(t *testing.T) {
	a := NewStaticTokenAuthenticator("s3cret", "")

	_, err := a.VerifyToken(context.Background(), "wrong")
	require.Error(t, err)
	_, ok := errors.AsAuthFailed(err)
	assert.True(t, ok)
}

func TestStaticToken_RejectsWhenUnconfigured(t *testing.T) {
	// An empty configured token must never accept an empty presented token.
	a := NewStaticTokenAuthenticator("", "")

	_, err := a.VerifyToken(context.Background(), "")
	require.Error(t, err)
	_, ok := errors.AsAuthFailed(err)
	assert.True(t, ok)
}

func signJWT(t *testing.T, secret []byte, claims jwt.RegisteredClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return token
}

func TestJWT_Accepts(t *testing.T) {
	secret := []byte("jwt-secret")
	a := NewJWTAuthenticator(secret, "briefdash")

	token := signJWT(t, secret, jwt.RegisteredClaims{
		Subject:   "alice",
		Audience:  jwt.ClaimStrings{"briefdash"},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	claims, err := a.VerifyToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, "briefdash", claims.Audience)
}

func TestJWT_RejectsWrongAudience(t *testing.T) {
	secret := []byte("jwt-secret")
	a := NewJWTAuthenticator(secret, "briefdash")

	token := signJWT(t, secret, jwt.RegisteredClaims{
		Subject:   "alice",
		Audience:  jwt.ClaimStrings{"other-app"},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	_, err := a.VerifyToken(context.Background(), token)
	require.Error(t, err)
	_, ok := errors.AsAuthFailed(err)
	assert.True(t, ok)
}

func TestJWT_RejectsBadSignature(t *testing.T) {
	a := NewJWTAuthenticator([]byte("jwt-secret"), "briefdash")

	token := signJWT(t, []byte("different-secret"), jwt.RegisteredClaims{
		Subject:   "alice",
		Audience:  jwt.ClaimStrings{"briefdash"},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	_, err := a.VerifyToken(context.Background(), token)
	require.Error(t, err)
}

func TestJWT_RejectsExpired(t *testing.T) {
	secret := []byte("jwt-secret")
	a := NewJWTAuthenticator(secret, "briefdash")

	token := signJWT(t, secret, jwt.RegisteredClaims{
		Subject:   "alice",
		Audience:  jwt.ClaimStrings{"briefdash"},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	})

	_, err := a.VerifyToken(context.Background(), token)
	require.Error(t, err)
}

func TestJWT_RejectsMissingSubject(t *testing.T) {
	secret := []byte("jwt-secret")
	a := NewJWTAuthenticator(secret, "briefdash")

	token := signJWT(t, secret, jwt.RegisteredClaims{
		Audience:  jwt.ClaimStrings{"briefdash"},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	_, err := a.VerifyToken(context.Background(), token)
	require.Error(t, err)
}

func TestJWT_UniformFailureMessage(t *testing.T) {
	// Different failure causes must surface the same outward message so a
	// probing caller cannot distinguish them. The specific cause lives only
	// in the Reason field, which is logged and never returned over HTTP.
	secret := []byte("jwt-secret")
	a := NewJWTAuthenticator(secret, "briefdash")

	badSig := signJWT(t, []byte("other"), jwt.RegisteredClaims{
		Subject:   "alice",
		Audience:  jwt.ClaimStrings{"briefdash"},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	expired := signJWT(t, secret, jwt.RegisteredClaims{
		Subject:   "alice",
		Audience:  jwt.ClaimStrings{"briefdash"},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	})

	_, err1 := a.VerifyToken(context.Background(), badSig)
	_, err2 := a.VerifyToken(context.Background(), expired)
	require.Error(t, err1)
	require.Error(t, err2)

	e1, ok := errors.AsAuthFailed(err1)
	require.True(t, ok)
	e2, ok := errors.AsAuthFailed(err2)
	require.True(t, ok)
	assert.Equal(t, e1.Message, e2.Message)
}
