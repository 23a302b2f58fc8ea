package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/usuarios-server/internal/logger"
	"github.com/dtroode/usuarios-server/internal/model"
)

// Response is the JSON envelope of every API reply.
type Response struct {
	Success    bool         `json:"success"`
	Message    string       `json:"message"`
	Data       any          `json:"data,omitempty"`
	Token      string       `json:"token,omitempty"`
	Pagination *Pagination  `json:"pagination,omitempty"`
	Errors     []FieldError `json:"errors,omitempty"`
	Error      string       `json:"error,omitempty"`
}

type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// FieldError describes one rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// AccountResponse is the public projection of an account. It never carries
// the password hash.
type AccountResponse struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"nome"`
	CPF       string     `json:"cpf"`
	Email     string     `json:"email"`
	Phone     *string    `json:"telefone"`
	Address   *string    `json:"endereco"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at"`
}

func NewAccountResponse(a model.Account) AccountResponse {
	return AccountResponse{
		ID:        a.ID,
		Name:      a.Name,
		CPF:       a.NationalID,
		Email:     a.Email,
		Phone:     a.Phone,
		Address:   a.Address,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
		DeletedAt: a.DeletedAt,
	}
}

func NewAccountResponses(accounts []model.Account) []AccountResponse {
	out := make([]AccountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, NewAccountResponse(a))
	}
	return out
}

// Responder writes envelopes and translates errors into them. In development
// mode internal error details are included in the reply.
type Responder struct {
	logger      *logger.Logger
	development bool
}

func NewResponder(logger *logger.Logger, development bool) *Responder {
	return &Responder{
		logger:      logger,
		development: development,
	}
}

// JSON writes body with the given status.
func (rs *Responder) JSON(w http.ResponseWriter, status int, body Response) {
	rs.write(w, status, body)
}

func (rs *Responder) write(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		rs.logger.Error("failed to encode response",
			"status", status,
			"error", err.Error())
	}
}

// Fail writes an unsuccessful envelope.
func (rs *Responder) Fail(w http.ResponseWriter, status int, message string) {
	rs.JSON(w, status, Response{Success: false, Message: message})
}
