package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/usuarios-server/internal/model"
)

var _ model.AccountStore = (*AccountStore)(nil)

// AccountStore is an in-memory model.AccountStore enforcing the same
// active-only uniqueness as the postgres schema.
type AccountStore struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]model.Account
}

func NewAccountStore() *AccountStore {
	return &AccountStore{accounts: make(map[uuid.UUID]model.Account)}
}

func (s *AccountStore) GetByID(_ context.Context, id uuid.UUID, includeDeleted bool) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok || (!includeDeleted && !a.Active()) {
		return model.Account{}, model.ErrNotFound
	}
	return a, nil
}

func (s *AccountStore) GetByEmail(_ context.Context, email string, includeDeleted bool) (model.Account, error) {
	return s.find(func(a model.Account) bool { return a.Email == email }, includeDeleted)
}

func (s *AccountStore) GetByNationalID(_ context.Context, nationalID string, includeDeleted bool) (model.Account, error) {
	return s.find(func(a model.Account) bool { return a.NationalID == nationalID }, includeDeleted)
}

func (s *AccountStore) List(_ context.Context, limit, offset int) ([]model.Account, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := s.sorted(false)
	if offset >= len(active) {
		return []model.Account{}, len(active), nil
	}
	end := min(offset+limit, len(active))
	return active[offset:end], len(active), nil
}

func (s *AccountStore) Create(_ context.Context, account model.Account) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.conflict(account, uuid.Nil); err != nil {
		return model.Account{}, err
	}
	s.accounts[account.ID] = account
	return account, nil
}

func (s *AccountStore) Update(_ context.Context, id uuid.UUID, patch model.AccountPatch, passwordHash *string, now time.Time) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok || !a.Active() {
		return model.Account{}, model.ErrNotFound
	}

	if patch.Name != nil {
		a.Name = *patch.Name
	}
	if patch.NationalID != nil {
		a.NationalID = *patch.NationalID
	}
	if patch.Email != nil {
		a.Email = *patch.Email
	}
	if patch.Phone != nil {
		a.Phone = optional(*patch.Phone)
	}
	if patch.Address != nil {
		a.Address = optional(*patch.Address)
	}
	if passwordHash != nil {
		a.PasswordHash = *passwordHash
	}
	a.UpdatedAt = now

	if err := s.conflict(a, id); err != nil {
		return model.Account{}, err
	}
	s.accounts[id] = a
	return a, nil
}

func (s *AccountStore) SoftDelete(_ context.Context, id uuid.UUID, now time.Time) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok || !a.Active() {
		return model.Account{}, model.ErrNotFound
	}
	a.DeletedAt = &now
	a.UpdatedAt = now
	s.accounts[id] = a
	return a, nil
}

func (s *AccountStore) Restore(_ context.Context, id uuid.UUID, now time.Time) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok || a.Active() {
		return model.Account{}, model.ErrNotFound
	}
	a.DeletedAt = nil
	a.UpdatedAt = now
	if err := s.conflict(a, id); err != nil {
		return model.Account{}, err
	}
	s.accounts[id] = a
	return a, nil
}

func (s *AccountStore) find(match func(model.Account) bool, includeDeleted bool) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.sorted(includeDeleted) {
		if match(a) {
			return a, nil
		}
	}
	return model.Account{}, model.ErrNotFound
}

// sorted returns accounts newest first, active ones ahead of deleted ones.
func (s *AccountStore) sorted(includeDeleted bool) []model.Account {
	out := make([]model.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		if includeDeleted || a.Active() {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Active() != out[j].Active() {
			return out[i].Active()
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() > out[j].ID.String()
	})
	return out
}

func (s *AccountStore) conflict(a model.Account, self uuid.UUID) error {
	for id, other := range s.accounts {
		if id == self || !other.Active() {
			continue
		}
		if other.Email == a.Email {
			return model.ErrDuplicateEmail
		}
		if other.NationalID == a.NationalID {
			return model.ErrDuplicateNationalID
		}
	}
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
