package handler

import (
	"context"
	"net/http"
	"time"
)

const healthCheckTimeout = 2 * time.Second

// Pinger checks that a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

// Health reports liveness and database reachability.
type Health struct {
	db        Pinger
	version   string
	responder *Responder
	now       func() time.Time
}

func NewHealth(db Pinger, version string, responder *Responder) *Health {
	return &Health{
		db:        db,
		version:   version,
		responder: responder,
		now:       time.Now,
	}
}

func (h *Health) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	status, body := http.StatusOK, HealthResponse{
		Status:    "OK",
		Message:   "service is running",
		Timestamp: h.now().UTC(),
		Version:   h.version,
	}

	if err := h.db.Ping(ctx); err != nil {
		h.responder.logger.Warn("health check: database unreachable",
			"error", err.Error())
		status = http.StatusServiceUnavailable
		body.Status = "DEGRADED"
		body.Message = "database unreachable"
	}

	h.responder.write(w, status, body)
}
