package handler

import (
	"errors"
	"net/http"

	"github.com/dtroode/usuarios-server/internal/model"
)

var (
	ErrMalformedJSON = errors.New("malformed JSON body")
	ErrBodyTooLarge  = errors.New("request body too large")
	ErrMissingToken  = errors.New("access token required")
)

const (
	msgInternal   = "internal server error"
	msgNotFound   = "account not found"
	msgValidation = "invalid data"
)

// ValidationError lists the fields a request was rejected for.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return msgValidation
	}
	return msgValidation + ": " + e.Fields[0].Field + " " + e.Fields[0].Message
}

// statusFor maps an error to its HTTP status and client-facing message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrMalformedJSON):
		return http.StatusBadRequest, "invalid JSON"
	case errors.Is(err, ErrBodyTooLarge):
		return http.StatusRequestEntityTooLarge, "request body too large"
	case errors.Is(err, model.ErrDuplicateEmail):
		return http.StatusConflict, "email already in use"
	case errors.Is(err, model.ErrDuplicateNationalID):
		return http.StatusConflict, "CPF already in use"
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, msgNotFound
	case errors.Is(err, model.ErrNotDeleted):
		return http.StatusBadRequest, "account is not deleted"
	case errors.Is(err, model.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, ErrMissingToken):
		return http.StatusUnauthorized, "access token required"
	case errors.Is(err, model.ErrTokenExpired):
		return http.StatusUnauthorized, "token expired"
	case errors.Is(err, model.ErrTokenInvalid):
		return http.StatusForbidden, "invalid token"
	case errors.Is(err, model.ErrEmptyPassword):
		return http.StatusBadRequest, msgValidation
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

// Error writes the envelope for err. Unexpected errors are logged with their
// detail, which reaches the client only in development mode.
func (rs *Responder) Error(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		rs.JSON(w, http.StatusBadRequest, Response{
			Success: false,
			Message: msgValidation,
			Errors:  validationErr.Fields,
		})
		return
	}

	status, message := statusFor(err)
	body := Response{Success: false, Message: message}

	if status == http.StatusInternalServerError {
		rs.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err.Error())
		if rs.development {
			body.Error = err.Error()
		}
	}

	rs.JSON(w, status, body)
}
