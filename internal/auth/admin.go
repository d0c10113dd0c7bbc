// Package auth guards the operator endpoints: one admin password, exchanged
// for a short-lived HS256 token.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"mangaalert/internal/config"
)

const adminRole = "admin"

var (
	ErrAdminDisabled      = errors.New("admin access is not configured")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type AdminAuth struct {
	passwordHash string
	secret       []byte
	ttl          time.Duration
	now          func() time.Time
}

func NewAdminAuth(cfg *config.Config) *AdminAuth {
	return &AdminAuth{
		passwordHash: cfg.AdminPasswordHash,
		secret:       []byte(cfg.JWTSecret),
		ttl:          cfg.AccessTokenTTL,
		now:          time.Now,
	}
}

func (a *AdminAuth) Enabled() bool {
	return a.passwordHash != "" && len(a.secret) > 0
}

// Login returns a signed access token when password matches the admin hash.
func (a *AdminAuth) Login(password string) (string, time.Duration, error) {
	if !a.Enabled() {
		_ = VerifyPassword(dummyHash, password)
		return "", 0, ErrAdminDisabled
	}
	if err := VerifyPassword(a.passwordHash, password); err != nil {
		return "", 0, ErrInvalidCredentials
	}

	now := a.now()
	claims := Claims{
		Role: adminRole,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   adminRole,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", 0, fmt.Errorf("sign token: %w", err)
	}
	return signed, a.ttl, nil
}

func (a *AdminAuth) ValidateToken(tokenString string) (*Claims, error) {
	if !a.Enabled() {
		return nil, ErrAdminDisabled
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Role != adminRole {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
