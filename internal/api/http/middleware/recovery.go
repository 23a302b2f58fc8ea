package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/dtroode/usuarios-server/internal/api/http/handler"
	"github.com/dtroode/usuarios-server/internal/logger"
)

// Recovery turns handler panics into 500 envelopes.
type Recovery struct {
	responder *handler.Responder
	logger    *logger.Logger
}

func NewRecovery(responder *handler.Responder, logger *logger.Logger) *Recovery {
	return &Recovery{responder: responder, logger: logger}
}

func (m *Recovery) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			m.logger.Error("panic while handling request",
				"method", r.Method,
				"path", r.URL.Path,
				"panic", fmt.Sprint(rec),
				"stack", string(debug.Stack()))
			m.responder.Error(w, r, fmt.Errorf("panic: %v", rec))
		}()

		next.ServeHTTP(w, r)
	})
}
