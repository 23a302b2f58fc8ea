package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/usuarios-server/internal/model"
	"github.com/dtroode/usuarios-server/internal/testutil"
)

var testTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestResponder(development bool) *Responder {
	return NewResponder(testutil.MakeNoopLogger(), development)
}

func newRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// envelope mirrors Response with raw data so tests can inspect field presence.
type envelope struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Token      string          `json:"token"`
	Pagination *Pagination     `json:"pagination"`
	Errors     []FieldError    `json:"errors"`
	Error      string          `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func dataFields(t *testing.T, env envelope) map[string]any {
	t.Helper()

	var fields map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &fields))
	return fields
}

func sampleAccount() model.Account {
	phone := "(11) 9999-0000"
	return model.Account{
		ID:           uuid.New(),
		Name:         "Ana Silva",
		NationalID:   "12345678901",
		Email:        "ana@x.com",
		Phone:        &phone,
		PasswordHash: "$2a$10$secret-hash",
		CreatedAt:    testTime,
		UpdatedAt:    testTime,
	}
}

func strPtr(s string) *string { return &s }
