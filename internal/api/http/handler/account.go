package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dtroode/usuarios-server/internal/logger"
	"github.com/dtroode/usuarios-server/internal/model"
)

// AccountService is the account lifecycle used by the handlers.
type AccountService interface {
	FindByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*model.Account, error)
	ListActive(ctx context.Context, page, pageSize int) (model.AccountPage, error)
	Update(ctx context.Context, id uuid.UUID, patch model.AccountPatch, password *string) (model.Account, error)
	SoftDelete(ctx context.Context, id uuid.UUID) (model.Account, error)
	Restore(ctx context.Context, id uuid.UUID) (model.Account, error)
}

// Account serves the account CRUD endpoints.
type Account struct {
	service   AccountService
	responder *Responder
	logger    *logger.Logger
}

func NewAccount(service AccountService, responder *Responder, logger *logger.Logger) *Account {
	return &Account{
		service:   service,
		responder: responder,
		logger:    logger,
	}
}

func (h *Account) List(w http.ResponseWriter, r *http.Request) {
	q, err := parseListQuery(r)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	page, err := h.service.ListActive(r.Context(), q.Page, q.Limit)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	h.responder.JSON(w, http.StatusOK, Response{
		Success: true,
		Message: "accounts retrieved",
		Data:    NewAccountResponses(page.Items),
		Pagination: &Pagination{
			Total:      page.Total,
			Page:       page.Page,
			Limit:      page.PageSize,
			TotalPages: page.TotalPages,
		},
	})
}

func (h *Account) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(r)
	if !ok {
		h.responder.Fail(w, http.StatusNotFound, msgNotFound)
		return
	}

	includeDeleted, err := parseIncludeDeleted(r)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	account, err := h.service.FindByID(r.Context(), id, includeDeleted)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	if account == nil {
		h.responder.Fail(w, http.StatusNotFound, msgNotFound)
		return
	}

	h.responder.JSON(w, http.StatusOK, Response{
		Success: true,
		Message: "account retrieved",
		Data:    NewAccountResponse(*account),
	})
}

func (h *Account) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(r)
	if !ok {
		h.responder.Fail(w, http.StatusNotFound, msgNotFound)
		return
	}

	var req UpdateRequest
	if err := decode(w, r, &req); err != nil {
		h.responder.Error(w, r, err)
		return
	}

	account, err := h.service.Update(r.Context(), id, req.patch(), req.Password)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	h.responder.JSON(w, http.StatusOK, Response{
		Success: true,
		Message: "account updated",
		Data:    NewAccountResponse(account),
	})
}

func (h *Account) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(r)
	if !ok {
		h.responder.Fail(w, http.StatusNotFound, msgNotFound)
		return
	}

	account, err := h.service.SoftDelete(r.Context(), id)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	h.responder.JSON(w, http.StatusOK, Response{
		Success: true,
		Message: "account deleted",
		Data:    NewAccountResponse(account),
	})
}

func (h *Account) Restore(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(r)
	if !ok {
		h.responder.Fail(w, http.StatusNotFound, msgNotFound)
		return
	}

	account, err := h.service.Restore(r.Context(), id)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	h.responder.JSON(w, http.StatusOK, Response{
		Success: true,
		Message: "account restored",
		Data:    NewAccountResponse(account),
	})
}

// accountID parses the {id} route parameter. Ids that are not UUIDs cannot
// name any account.
func accountID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
