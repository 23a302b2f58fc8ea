package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dtroode/usuarios-server/internal/logger"
	"github.com/dtroode/usuarios-server/internal/metrics"
	"github.com/dtroode/usuarios-server/internal/model"
)

// Auth issues bearer tokens on registration and login and resolves them back
// to identities.
type Auth struct {
	accounts     *Account
	store        model.AccountStore
	hasher       model.PasswordHasher
	tokenManager model.TokenManager
	tokenTTL     time.Duration
	metrics      *metrics.Metrics
	logger       *logger.Logger

	dummyOnce sync.Once
	dummyHash string
}

// AuthOption configures optional Auth collaborators.
type AuthOption func(*Auth)

// WithMetrics records registrations and failed logins on m.
func WithMetrics(m *metrics.Metrics) AuthOption {
	return func(a *Auth) {
		a.metrics = m
	}
}

// WithTokenTTL overrides the token manager's default lifetime.
func WithTokenTTL(ttl time.Duration) AuthOption {
	return func(a *Auth) {
		a.tokenTTL = ttl
	}
}

func NewAuth(
	accounts *Account,
	tokenManager model.TokenManager,
	logger *logger.Logger,
	opts ...AuthOption,
) *Auth {
	a := &Auth{
		accounts:     accounts,
		store:        accounts.store,
		hasher:       accounts.hasher,
		tokenManager: tokenManager,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Register creates an account and signs a token for it.
func (a *Auth) Register(ctx context.Context, params model.NewAccount) (model.Account, string, error) {
	account, err := a.accounts.Create(ctx, params)
	if err != nil {
		return model.Account{}, "", err
	}

	token, err := a.issue(account)
	if err != nil {
		return model.Account{}, "", err
	}

	if a.metrics != nil {
		a.metrics.IncrementAccountsCreated()
	}

	return account, token, nil
}

// Login verifies the password of the active account holding email. A missing
// account and a wrong password are indistinguishable to the caller.
func (a *Auth) Login(ctx context.Context, email, password string) (model.Account, string, error) {
	email = NormalizeEmail(email)

	a.logger.Debug("Auth service: login attempt",
		"email", email)

	account, err := a.store.GetByEmail(ctx, email, false)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		a.logger.Error("Auth service: failed to get account by email",
			"email", email,
			"error", err.Error())
		return model.Account{}, "", fmt.Errorf("failed to get account by email: %w", err)
	}

	if errors.Is(err, model.ErrNotFound) {
		// Keep the response time close to that of a wrong password.
		a.hasher.Verify(password, a.dummy())
		return model.Account{}, "", a.loginFailed(email)
	}
	if !a.hasher.Verify(password, account.PasswordHash) {
		return model.Account{}, "", a.loginFailed(email)
	}

	token, err := a.issue(account)
	if err != nil {
		return model.Account{}, "", err
	}

	a.logger.Info("Auth service: login succeeded",
		"account_id", account.ID)

	return account, token, nil
}

// Authenticate verifies a bearer token.
func (a *Auth) Authenticate(_ context.Context, token string) (model.Identity, error) {
	identity, err := a.tokenManager.ParseToken(token)
	if err != nil {
		return model.Identity{}, err
	}
	return identity, nil
}

// Profile returns the active account behind identity.
func (a *Auth) Profile(ctx context.Context, identity model.Identity) (model.Account, error) {
	account, err := a.accounts.FindByID(ctx, identity.AccountID, false)
	if err != nil {
		return model.Account{}, err
	}
	if account == nil {
		return model.Account{}, model.ErrNotFound
	}
	return *account, nil
}

func (a *Auth) issue(account model.Account) (string, error) {
	token, err := a.tokenManager.GenerateToken(model.Identity{
		AccountID: account.ID,
		Email:     account.Email,
	}, a.tokenTTL)
	if err != nil {
		a.logger.Error("Auth service: failed to generate token",
			"account_id", account.ID,
			"error", err.Error())
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return token, nil
}

func (a *Auth) loginFailed(email string) error {
	a.logger.Info("Auth service: invalid credentials",
		"email", email)
	if a.metrics != nil {
		a.metrics.IncrementLoginFailures()
	}
	return model.ErrInvalidCredentials
}

// dummy returns a hash no password matches, computed once.
func (a *Auth) dummy() string {
	a.dummyOnce.Do(func() {
		hash, err := a.hasher.Hash("usuarios-dummy-password")
		if err == nil {
			a.dummyHash = hash
		}
	})
	return a.dummyHash
}
