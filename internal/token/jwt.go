package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dtroode/usuarios-server/internal/model"
)

// DefaultTTL is the token lifetime used when none is configured.
const DefaultTTL = 24 * time.Hour

// Claims represents JWT claims carrying the account identity.
type Claims struct {
	jwt.RegisteredClaims
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
}

var _ model.TokenManager = (*JWT)(nil)

// JWT implements TokenManager backed by symmetric HMAC.
type JWT struct {
	secretKey []byte
	ttl       time.Duration
	now       func() time.Time
}

// NewJWT creates a token manager signing with secretKey. A non-positive ttl
// selects DefaultTTL.
func NewJWT(secretKey string, ttl time.Duration) (*JWT, error) {
	if secretKey == "" {
		return nil, errors.New("jwt secret must not be empty")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &JWT{
		secretKey: []byte(secretKey),
		ttl:       ttl,
		now:       time.Now,
	}, nil
}

// GenerateToken creates a signed token for identity.
func (j *JWT) GenerateToken(identity model.Identity, ttl time.Duration) (string, error) {
	if identity.AccountID == uuid.Nil {
		return "", errors.New("token identity has no account id")
	}
	if ttl <= 0 {
		ttl = j.ttl
	}

	now := j.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   identity.AccountID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: identity.AccountID,
		Email:  identity.Email,
	})

	tokenString, err := token.SignedString(j.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ParseToken validates signature and expiry and extracts the identity.
func (j *JWT) ParseToken(tokenString string) (model.Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return j.secretKey, nil
	},
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return model.Identity{}, fmt.Errorf("%w: %v", model.ErrTokenExpired, err)
		}
		return model.Identity{}, fmt.Errorf("%w: %v", model.ErrTokenInvalid, err)
	}
	if !token.Valid {
		return model.Identity{}, model.ErrTokenInvalid
	}
	if claims.UserID == uuid.Nil {
		return model.Identity{}, fmt.Errorf("%w: missing user id", model.ErrTokenInvalid)
	}

	return model.Identity{
		AccountID: claims.UserID,
		Email:     claims.Email,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
