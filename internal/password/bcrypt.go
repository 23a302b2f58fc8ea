package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/dtroode/usuarios-server/internal/model"
)

const (
	// MinCost is the lowest accepted work factor.
	MinCost = 10
	// MaxCost is the highest accepted work factor.
	MaxCost = 12
)

var _ model.PasswordHasher = (*Bcrypt)(nil)

// Bcrypt hashes passwords with a fixed bcrypt cost.
type Bcrypt struct {
	cost int
}

// NewBcrypt creates a hasher using cost rounds.
func NewBcrypt(cost int) (*Bcrypt, error) {
	if cost < MinCost || cost > MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, MinCost, MaxCost)
	}
	return &Bcrypt{cost: cost}, nil
}

// Hash returns a salted hash of plaintext.
func (b *Bcrypt) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", model.ErrEmptyPassword
	}

	h, err := bcrypt.GenerateFromPassword([]byte(plaintext), b.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(h), nil
}

// Verify reports whether plaintext matches hash. A malformed hash never matches.
func (b *Bcrypt) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
