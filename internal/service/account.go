package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/usuarios-server/internal/logger"
	"github.com/dtroode/usuarios-server/internal/model"
)

// Account implements the account lifecycle on top of an AccountStore:
// registration with uniqueness checks, lookups, pagination, partial updates,
// soft-delete and restore.
//
// Uniqueness pre-checks are fast paths only. Concurrent registrations are
// settled by the store's unique indexes and surface as the same duplicate
// errors.
type Account struct {
	store  model.AccountStore
	hasher model.PasswordHasher
	logger *logger.Logger
	now    func() time.Time
}

func NewAccount(store model.AccountStore, hasher model.PasswordHasher, logger *logger.Logger) *Account {
	return &Account{
		store:  store,
		hasher: hasher,
		logger: logger,
		now:    time.Now,
	}
}

// NormalizeEmail canonicalizes an email for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Account) Create(ctx context.Context, params model.NewAccount) (model.Account, error) {
	email := NormalizeEmail(params.Email)

	s.logger.Debug("Account service: creating account",
		"email", email)

	if err := s.ensureEmailFree(ctx, email); err != nil {
		return model.Account{}, err
	}
	if err := s.ensureNationalIDFree(ctx, params.NationalID); err != nil {
		return model.Account{}, err
	}

	hash, err := s.hasher.Hash(params.Password)
	if err != nil {
		return model.Account{}, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now().UTC()
	account := model.Account{
		ID:           uuid.New(),
		Name:         params.Name,
		NationalID:   params.NationalID,
		Email:        email,
		Phone:        params.Phone,
		Address:      params.Address,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	saved, err := s.store.Create(ctx, account)
	if err != nil {
		if isDuplicate(err) {
			s.logger.Info("Account service: account already exists",
				"email", email,
				"error", err.Error())
			return model.Account{}, err
		}
		s.logger.Error("Account service: failed to create account",
			"email", email,
			"error", err.Error())
		return model.Account{}, fmt.Errorf("failed to create account: %w", err)
	}

	s.logger.Info("Account service: account created",
		"account_id", saved.ID)

	return saved, nil
}

// FindByID returns nil when no account matches.
func (s *Account) FindByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*model.Account, error) {
	account, err := s.store.GetByID(ctx, id, includeDeleted)
	return s.found(account, err, "failed to get account by id")
}

// FindByEmail returns nil when no account matches.
func (s *Account) FindByEmail(ctx context.Context, email string, includeDeleted bool) (*model.Account, error) {
	account, err := s.store.GetByEmail(ctx, NormalizeEmail(email), includeDeleted)
	return s.found(account, err, "failed to get account by email")
}

// FindByNationalID returns nil when no account matches.
func (s *Account) FindByNationalID(ctx context.Context, nationalID string, includeDeleted bool) (*model.Account, error) {
	account, err := s.store.GetByNationalID(ctx, nationalID, includeDeleted)
	return s.found(account, err, "failed to get account by national id")
}

func (s *Account) found(account model.Account, err error, msg string) (*model.Account, error) {
	if errors.Is(err, model.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		s.logger.Error("Account service: lookup failed",
			"error", err.Error())
		return nil, fmt.Errorf("%s: %w", msg, err)
	}
	return &account, nil
}

// ListActive returns one page of active accounts, newest first. page and
// pageSize are expected to be validated by the caller.
func (s *Account) ListActive(ctx context.Context, page, pageSize int) (model.AccountPage, error) {
	offset := (page - 1) * pageSize

	accounts, total, err := s.store.List(ctx, pageSize, offset)
	if err != nil {
		s.logger.Error("Account service: failed to list accounts",
			"page", page,
			"page_size", pageSize,
			"error", err.Error())
		return model.AccountPage{}, fmt.Errorf("failed to list accounts: %w", err)
	}

	return model.AccountPage{
		Items:      accounts,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
	}, nil
}

// Update applies patch to an active account. A non-nil password is hashed
// and stored alongside the patch. Uniqueness is re-checked only for an email
// or CPF that actually changes.
func (s *Account) Update(ctx context.Context, id uuid.UUID, patch model.AccountPatch, password *string) (model.Account, error) {
	s.logger.Debug("Account service: updating account",
		"account_id", id)

	current, err := s.store.GetByID(ctx, id, false)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Account{}, model.ErrNotFound
		}
		return model.Account{}, fmt.Errorf("failed to get account by id: %w", err)
	}

	if patch.Email != nil {
		email := NormalizeEmail(*patch.Email)
		patch.Email = &email
		if email != current.Email {
			if err := s.ensureEmailFree(ctx, email); err != nil {
				return model.Account{}, err
			}
		}
	}
	if patch.NationalID != nil && *patch.NationalID != current.NationalID {
		if err := s.ensureNationalIDFree(ctx, *patch.NationalID); err != nil {
			return model.Account{}, err
		}
	}
	var passwordHash *string
	if password != nil {
		hash, err := s.hasher.Hash(*password)
		if err != nil {
			return model.Account{}, fmt.Errorf("failed to hash password: %w", err)
		}
		passwordHash = &hash
	}

	updated, err := s.store.Update(ctx, id, patch, passwordHash, s.now().UTC())
	if err != nil {
		if errors.Is(err, model.ErrNotFound) || isDuplicate(err) {
			return model.Account{}, err
		}
		s.logger.Error("Account service: failed to update account",
			"account_id", id,
			"error", err.Error())
		return model.Account{}, fmt.Errorf("failed to update account: %w", err)
	}

	s.logger.Info("Account service: account updated",
		"account_id", id,
		"password_changed", passwordHash != nil)

	return updated, nil
}

func (s *Account) SoftDelete(ctx context.Context, id uuid.UUID) (model.Account, error) {
	deleted, err := s.store.SoftDelete(ctx, id, s.now().UTC())
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Account{}, model.ErrNotFound
		}
		s.logger.Error("Account service: failed to delete account",
			"account_id", id,
			"error", err.Error())
		return model.Account{}, fmt.Errorf("failed to delete account: %w", err)
	}

	s.logger.Info("Account service: account deleted",
		"account_id", id)

	return deleted, nil
}

// Restore reactivates a soft-deleted account. It fails with ErrNotDeleted
// when the account is active, and with a duplicate error when another active
// account took its email or CPF in the meantime.
func (s *Account) Restore(ctx context.Context, id uuid.UUID) (model.Account, error) {
	current, err := s.store.GetByID(ctx, id, true)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Account{}, model.ErrNotFound
		}
		return model.Account{}, fmt.Errorf("failed to get account by id: %w", err)
	}
	if current.Active() {
		return model.Account{}, model.ErrNotDeleted
	}

	restored, err := s.store.Restore(ctx, id, s.now().UTC())
	if err != nil {
		// Restored concurrently between the read and the write.
		if errors.Is(err, model.ErrNotFound) {
			return model.Account{}, model.ErrNotDeleted
		}
		if isDuplicate(err) {
			return model.Account{}, err
		}
		s.logger.Error("Account service: failed to restore account",
			"account_id", id,
			"error", err.Error())
		return model.Account{}, fmt.Errorf("failed to restore account: %w", err)
	}

	s.logger.Info("Account service: account restored",
		"account_id", id)

	return restored, nil
}

func (s *Account) ensureEmailFree(ctx context.Context, email string) error {
	_, err := s.store.GetByEmail(ctx, email, false)
	switch {
	case err == nil:
		return model.ErrDuplicateEmail
	case errors.Is(err, model.ErrNotFound):
		return nil
	default:
		s.logger.Error("Account service: failed to get account by email",
			"email", email,
			"error", err.Error())
		return fmt.Errorf("failed to get account by email: %w", err)
	}
}

func (s *Account) ensureNationalIDFree(ctx context.Context, nationalID string) error {
	_, err := s.store.GetByNationalID(ctx, nationalID, false)
	switch {
	case err == nil:
		return model.ErrDuplicateNationalID
	case errors.Is(err, model.ErrNotFound):
		return nil
	default:
		s.logger.Error("Account service: failed to get account by national id",
			"error", err.Error())
		return fmt.Errorf("failed to get account by national id: %w", err)
	}
}

func isDuplicate(err error) bool {
	return errors.Is(err, model.ErrDuplicateEmail) || errors.Is(err, model.ErrDuplicateNationalID)
}
