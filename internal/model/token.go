package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// Identity is the claim set carried by a bearer token.
type Identity struct {
	AccountID uuid.UUID
	Email     string
	ExpiresAt time.Time
}

// TokenManager issues and verifies signed bearer tokens.
type TokenManager interface {
	// GenerateToken signs a token for identity. A non-positive ttl selects the
	// manager's default lifetime.
	GenerateToken(identity Identity, ttl time.Duration) (string, error)
	// ParseToken verifies a token and returns its identity. Failures wrap
	// ErrTokenExpired or ErrTokenInvalid.
	ParseToken(token string) (Identity, error)
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}
