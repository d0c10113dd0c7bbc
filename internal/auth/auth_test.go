package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mangaalert/internal/config"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestAuth(t *testing.T) *AdminAuth {
	t.Helper()
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	return NewAdminAuth(&config.Config{AdminPasswordHash: hash, JWTSecret: testSecret, AccessTokenTTL: 15 * time.Minute})
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)
	assert.NoError(t, VerifyPassword(hash, "s3cret"))
	assert.Error(t, VerifyPassword(hash, "wrong"))
}

func TestLoginAndValidate(t *testing.T) {
	a := newTestAuth(t)

	token, ttl, err := a.Login("s3cret")
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, ttl)

	claims, err := a.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	_, _, err := newTestAuth(t).Login("nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginDisabled(t *testing.T) {
	a := NewAdminAuth(&config.Config{})
	assert.False(t, a.Enabled())

	_, _, err := a.Login("anything")
	assert.ErrorIs(t, err, ErrAdminDisabled)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	a := newTestAuth(t)
	issued := time.Now().Add(-time.Hour)
	a.now = func() time.Time { return issued }

	token, _, err := a.Login("s3cret")
	require.NoError(t, err)

	a.now = time.Now
	_, err = a.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsForeignTokens(t *testing.T) {
	a := newTestAuth(t)

	otherKey, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Role: "admin"}).SignedString([]byte("another-secret-another-secret-xx"))
	require.NoError(t, err)
	_, err = a.ValidateToken(otherKey)
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Role: "reader"}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = a.ValidateToken(wrongRole)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = a.ValidateToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
