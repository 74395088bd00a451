// Package jwtmw guards API routes with HMAC-signed bearer tokens.
package jwtmw

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// EnvKeyJWTSecret enables the guard when set.
const EnvKeyJWTSecret = "JWT_SECRET"

var ErrEmptySecret = errors.New("jwt secret is empty")

// SecretFromEnv returns JWT_SECRET; an empty value disables the guard.
func SecretFromEnv() string {
	return os.Getenv(EnvKeyJWTSecret)
}

// IssueToken signs an HS256 token for subject that expires after ttl.
func IssueToken(secret, subject string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", ErrEmptySecret
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
