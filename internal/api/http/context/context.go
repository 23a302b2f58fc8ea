package context

import (
	"context"

	"github.com/google/uuid"

	"github.com/dtroode/usuarios-server/internal/model"
)

type identityKey struct{}

// Manager stores the authenticated identity on request contexts.
type Manager struct{}

// NewManager creates a new context manager instance.
func NewManager() *Manager {
	return &Manager{}
}

// SetIdentityToContext returns a copy of ctx carrying identity.
func (m *Manager) SetIdentityToContext(ctx context.Context, identity model.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// GetIdentityFromContext returns the identity set by SetIdentityToContext.
// It reports false when the context carries no identity or a nil account id.
func (m *Manager) GetIdentityFromContext(ctx context.Context) (model.Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(model.Identity)
	if !ok || identity.AccountID == uuid.Nil {
		return model.Identity{}, false
	}
	return identity, true
}
