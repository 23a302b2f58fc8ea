package handler

import (
	"context"
	"net/http"

	"github.com/dtroode/usuarios-server/internal/logger"
	"github.com/dtroode/usuarios-server/internal/model"
)

// AuthService registers accounts and exchanges credentials for tokens.
type AuthService interface {
	Register(ctx context.Context, params model.NewAccount) (model.Account, string, error)
	Login(ctx context.Context, email, password string) (model.Account, string, error)
	Profile(ctx context.Context, identity model.Identity) (model.Account, error)
}

// Auth serves registration, login and profile endpoints.
type Auth struct {
	service        AuthService
	contextManager model.ContextManager
	responder      *Responder
	logger         *logger.Logger
}

func NewAuth(service AuthService, contextManager model.ContextManager, responder *Responder, logger *logger.Logger) *Auth {
	return &Auth{
		service:        service,
		contextManager: contextManager,
		responder:      responder,
		logger:         logger,
	}
}

func (h *Auth) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decode(w, r, &req); err != nil {
		h.responder.Error(w, r, err)
		return
	}

	account, token, err := h.service.Register(r.Context(), req.toModel())
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	h.responder.JSON(w, http.StatusCreated, Response{
		Success: true,
		Message: "account created",
		Data:    NewAccountResponse(account),
		Token:   token,
	})
}

func (h *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decode(w, r, &req); err != nil {
		h.responder.Error(w, r, err)
		return
	}

	account, token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	h.responder.JSON(w, http.StatusOK, Response{
		Success: true,
		Message: "login successful",
		Data:    NewAccountResponse(account),
		Token:   token,
	})
}

func (h *Auth) Profile(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.contextManager.GetIdentityFromContext(r.Context())
	if !ok {
		h.responder.Error(w, r, ErrMissingToken)
		return
	}

	account, err := h.service.Profile(r.Context(), identity)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	h.responder.JSON(w, http.StatusOK, Response{
		Success: true,
		Message: "profile retrieved",
		Data:    NewAccountResponse(account),
	})
}
