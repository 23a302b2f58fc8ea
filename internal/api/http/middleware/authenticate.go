package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/dtroode/usuarios-server/internal/api/http/handler"
	"github.com/dtroode/usuarios-server/internal/logger"
	"github.com/dtroode/usuarios-server/internal/model"
)

// Authenticator resolves bearer tokens to identities.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (model.Identity, error)
}

// Authenticate validates bearer tokens and injects the identity into the
// request context.
type Authenticate struct {
	authenticator  Authenticator
	contextManager model.ContextManager
	responder      *handler.Responder
	logger         *logger.Logger
}

// NewAuthenticate creates a new Authenticate middleware instance.
func NewAuthenticate(
	authenticator Authenticator,
	contextManager model.ContextManager,
	responder *handler.Responder,
	logger *logger.Logger,
) *Authenticate {
	return &Authenticate{
		authenticator:  authenticator,
		contextManager: contextManager,
		responder:      responder,
		logger:         logger,
	}
}

// Handle rejects requests without a valid token: 401 when the token is
// missing or expired, 403 when it is invalid.
func (m *Authenticate) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			m.logger.Debug("request without bearer token",
				"method", r.Method,
				"path", r.URL.Path,
				"has_authorization", r.Header.Get("Authorization") != "")
			m.responder.Error(w, r, handler.ErrMissingToken)
			return
		}

		identity, err := m.authenticator.Authenticate(r.Context(), token)
		if err != nil {
			m.logger.Warn("unauthorized request",
				"method", r.Method,
				"path", r.URL.Path,
				"error", err.Error())
			m.responder.Error(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(m.contextManager.SetIdentityToContext(r.Context(), identity)))
	})
}

// bearerToken extracts the credentials of an Authorization header whose
// scheme is Bearer. The scheme name is matched case-insensitively.
func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}
