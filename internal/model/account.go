package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AccountStore defines persistence operations for accounts.
//
// Lookups exclude soft-deleted rows unless includeDeleted is set. Missing rows
// are reported as ErrNotFound.
type AccountStore interface {
	GetByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (Account, error)
	GetByEmail(ctx context.Context, email string, includeDeleted bool) (Account, error)
	GetByNationalID(ctx context.Context, nationalID string, includeDeleted bool) (Account, error)
	List(ctx context.Context, limit, offset int) ([]Account, int, error)
	Create(ctx context.Context, account Account) (Account, error)
	Update(ctx context.Context, id uuid.UUID, patch AccountPatch, passwordHash *string, now time.Time) (Account, error)
	SoftDelete(ctx context.Context, id uuid.UUID, now time.Time) (Account, error)
	Restore(ctx context.Context, id uuid.UUID, now time.Time) (Account, error)
}

// Account represents a stored user account.
type Account struct {
	ID           uuid.UUID
	Name         string
	NationalID   string
	Email        string
	Phone        *string
	Address      *string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
}

// Active reports whether the account has not been soft-deleted.
func (a Account) Active() bool {
	return a.DeletedAt == nil
}

// NewAccount contains the fields required to register an account.
type NewAccount struct {
	Name       string
	NationalID string
	Email      string
	Phone      *string
	Address    *string
	Password   string
}

// AccountPatch lists the account fields an update may change. Nil fields are
// left untouched. Passwords are not part of a patch; they are hashed and
// passed to the store separately.
type AccountPatch struct {
	Name       *string
	NationalID *string
	Email      *string
	Phone      *string
	Address    *string
}

// Empty reports whether the patch changes nothing.
func (p AccountPatch) Empty() bool {
	return p.Name == nil && p.NationalID == nil && p.Email == nil && p.Phone == nil && p.Address == nil
}

// AccountPage is a page of active accounts ordered newest first.
type AccountPage struct {
	Items      []Account
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}
