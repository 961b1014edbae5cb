package auth

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mouhsinou/course-enrollment-platform/internal/domain"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 15)

	token, exp, err := tm.GenerateToken("ada@example.com", domain.RoleStudent)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), exp, 5*time.Second)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", claims.Subject)
	assert.Equal(t, domain.RoleStudent, claims.Role)
	assert.NotEmpty(t, claims.ID)
}

func TestTokenManager_Rejects(t *testing.T) {
	tm := NewTokenManager("secret", 15)
	other := NewTokenManager("other-secret", 15)

	foreign, _, err := other.GenerateToken("ada@example.com", domain.RoleStudent)
	require.NoError(t, err)

	sign := func(claims jwt.Claims, method jwt.SigningMethod, key any) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}

	expired := sign(&Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "ada@example.com",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}}, jwt.SigningMethodHS256, []byte("secret"))

	noSubject := sign(&Claims{RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}}, jwt.SigningMethodHS256, []byte("secret"))

	noExpiry := sign(&Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject: "ada@example.com",
	}}, jwt.SigningMethodHS256, []byte("secret"))

	wrongMethod := sign(&Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "ada@example.com",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}}, jwt.SigningMethodHS512, []byte("secret"))

	tests := map[string]string{
		"garbage":      "not-a-jwt",
		"foreign key":  foreign,
		"expired":      expired,
		"no subject":   noSubject,
		"no expiry":    noExpiry,
		"wrong method": wrongMethod,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := tm.ParseToken(token)
			assert.Error(t, err)
		})
	}
}
