package middleware

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"drip-rating-server/config"
	"drip-rating-server/types"
)

func signedTestToken(t *testing.T, method jwt.SigningMethod, key interface{}) string {
	t.Helper()
	claims := &types.Claims{
		UserID: 42,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign test token: %v", err)
	}
	return token
}

func TestParseAccessToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	config.Load()

	token := signedTestToken(t, jwt.SigningMethodHS256, []byte("test-secret"))
	claims, err := parseAccessToken(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("UserID = %d, want 42", claims.UserID)
	}
}

func TestParseAccessTokenRejectsWrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	config.Load()

	token := signedTestToken(t, jwt.SigningMethodHS256, []byte("other-secret"))
	if _, err := parseAccessToken(token); err == nil {
		t.Error("token signed with a different secret must be rejected")
	}
}

func TestParseAccessTokenRejectsUnsignedAlgorithm(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	config.Load()

	token := signedTestToken(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType)
	if _, err := parseAccessToken(token); err == nil {
		t.Error("alg=none token must be rejected by the signing-method check")
	}
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	config.Load()

	claims := &types.Claims{
		UserID: 42,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign test token: %v", err)
	}
	if _, err := parseAccessToken(token); err == nil {
		t.Error("expired token must be rejected")
	}
}
