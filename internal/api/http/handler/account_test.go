package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/usuarios-server/internal/mocks"
	"github.com/dtroode/usuarios-server/internal/model"
	"github.com/dtroode/usuarios-server/internal/testutil"
)

func newAccountHandler(t *testing.T, development bool) (*Account, *mocks.AccountService) {
	t.Helper()

	svc := mocks.NewAccountService(t)
	return NewAccount(svc, newTestResponder(development), testutil.MakeNoopLogger()), svc
}

func TestAccount_List(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		query      string
		page       int
		limit      int
		wantStatus int
	}{
		{name: "defaults", query: "", page: 1, limit: 10, wantStatus: http.StatusOK},
		{name: "explicit", query: "?page=2&limit=10", page: 2, limit: 10, wantStatus: http.StatusOK},
		{name: "page zero", query: "?page=0", wantStatus: http.StatusBadRequest},
		{name: "limit too large", query: "?limit=101", wantStatus: http.StatusBadRequest},
		{name: "limit zero", query: "?limit=0", wantStatus: http.StatusBadRequest},
		{name: "not a number", query: "?page=abc", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h, svc := newAccountHandler(t, false)
			if tt.wantStatus == http.StatusOK {
				svc.On("ListActive", mock.Anything, tt.page, tt.limit).Return(model.AccountPage{
					Items:      []model.Account{sampleAccount()},
					Total:      25,
					Page:       tt.page,
					PageSize:   tt.limit,
					TotalPages: 3,
				}, nil)
			}

			rec := httptest.NewRecorder()
			h.List(rec, newRequest(http.MethodGet, "/api/usuarios"+tt.query, ""))

			require.Equal(t, tt.wantStatus, rec.Code)
			env := decodeEnvelope(t, rec)
			if tt.wantStatus != http.StatusOK {
				assert.False(t, env.Success)
				assert.NotEmpty(t, env.Errors)
				return
			}
			require.NotNil(t, env.Pagination)
			assert.Equal(t, Pagination{Total: 25, Page: tt.page, Limit: tt.limit, TotalPages: 3}, *env.Pagination)
		})
	}
}

func TestAccount_List_Empty(t *testing.T) {
	t.Parallel()

	h, svc := newAccountHandler(t, false)
	svc.On("ListActive", mock.Anything, 1, 10).Return(model.AccountPage{Page: 1, PageSize: 10}, nil)

	rec := httptest.NewRecorder()
	h.List(rec, newRequest(http.MethodGet, "/api/usuarios", ""))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, string(decodeEnvelope(t, rec).Data))
}

func TestAccount_Get(t *testing.T) {
	t.Parallel()

	account := sampleAccount()
	deletedAt := testTime.Add(time.Hour)
	deleted := account
	deleted.DeletedAt = &deletedAt

	t.Run("found", func(t *testing.T) {
		t.Parallel()

		h, svc := newAccountHandler(t, false)
		svc.On("FindByID", mock.Anything, account.ID, false).Return(&account, nil)

		rec := httptest.NewRecorder()
		h.Get(rec, withURLParam(newRequest(http.MethodGet, "/api/usuarios/"+account.ID.String(), ""), "id", account.ID.String()))

		require.Equal(t, http.StatusOK, rec.Code)
		fields := dataFields(t, decodeEnvelope(t, rec))
		assert.Equal(t, "Ana Silva", fields["nome"])
		assert.Equal(t, "12345678901", fields["cpf"])
		assert.NotContains(t, fields, "senha")
	})

	t.Run("include deleted", func(t *testing.T) {
		t.Parallel()

		h, svc := newAccountHandler(t, false)
		svc.On("FindByID", mock.Anything, account.ID, true).Return(&deleted, nil)

		rec := httptest.NewRecorder()
		h.Get(rec, withURLParam(newRequest(http.MethodGet, "/api/usuarios/x?includeDeleted=true", ""), "id", account.ID.String()))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotNil(t, dataFields(t, decodeEnvelope(t, rec))["deleted_at"])
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()

		h, svc := newAccountHandler(t, false)
		svc.On("FindByID", mock.Anything, account.ID, false).Return(nil, nil)

		rec := httptest.NewRecorder()
		h.Get(rec, withURLParam(newRequest(http.MethodGet, "/", ""), "id", account.ID.String()))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "account not found", decodeEnvelope(t, rec).Message)
	})

	t.Run("malformed id", func(t *testing.T) {
		t.Parallel()

		h, _ := newAccountHandler(t, false)
		rec := httptest.NewRecorder()
		h.Get(rec, withURLParam(newRequest(http.MethodGet, "/", ""), "id", "42"))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("bad includeDeleted", func(t *testing.T) {
		t.Parallel()

		h, _ := newAccountHandler(t, false)
		rec := httptest.NewRecorder()
		h.Get(rec, withURLParam(newRequest(http.MethodGet, "/?includeDeleted=maybe", ""), "id", account.ID.String()))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAccount_Update(t *testing.T) {
	t.Parallel()

	id := uuid.New()

	t.Run("partial update with password", func(t *testing.T) {
		t.Parallel()

		h, svc := newAccountHandler(t, false)
		updated := sampleAccount()
		updated.ID = id
		svc.On("Update", mock.Anything, id, mock.MatchedBy(func(p model.AccountPatch) bool {
			return p.Name != nil && *p.Name == "Ana Souza" && p.Email == nil && p.NationalID == nil
		}), mock.MatchedBy(func(pw *string) bool {
			return pw != nil && *pw == "novasenha"
		})).Return(updated, nil)

		rec := httptest.NewRecorder()
		h.Update(rec, withURLParam(newRequest(http.MethodPut, "/", `{"nome":"Ana Souza","senha":"novasenha"}`), "id", id.String()))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotContains(t, rec.Body.String(), "novasenha")
	})

	t.Run("empty body", func(t *testing.T) {
		t.Parallel()

		h, _ := newAccountHandler(t, false)
		rec := httptest.NewRecorder()
		h.Update(rec, withURLParam(newRequest(http.MethodPut, "/", `{}`), "id", id.String()))

		require.Equal(t, http.StatusBadRequest, rec.Code)
		env := decodeEnvelope(t, rec)
		require.Len(t, env.Errors, 1)
		assert.Equal(t, "body", env.Errors[0].Field)
	})

	t.Run("blank name", func(t *testing.T) {
		t.Parallel()

		for _, body := range []string{`{"nome":""}`, `{"nome":"   "}`, `{"nome":" a "}`} {
			h, _ := newAccountHandler(t, false)
			rec := httptest.NewRecorder()
			h.Update(rec, withURLParam(newRequest(http.MethodPut, "/", body), "id", id.String()))

			require.Equal(t, http.StatusBadRequest, rec.Code, body)
			env := decodeEnvelope(t, rec)
			require.Len(t, env.Errors, 1, body)
			assert.Equal(t, "nome", env.Errors[0].Field)
		}
	})

	t.Run("padded name is trimmed", func(t *testing.T) {
		t.Parallel()

		h, svc := newAccountHandler(t, false)
		svc.On("Update", mock.Anything, id, model.AccountPatch{Name: strPtr("Ana Souza")}, (*string)(nil)).
			Return(sampleAccount(), nil)

		rec := httptest.NewRecorder()
		h.Update(rec, withURLParam(newRequest(http.MethodPut, "/", `{"nome":"  Ana Souza "}`), "id", id.String()))

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("cpf taken", func(t *testing.T) {
		t.Parallel()

		h, svc := newAccountHandler(t, false)
		svc.On("Update", mock.Anything, id, mock.Anything, (*string)(nil)).Return(model.Account{}, model.ErrDuplicateNationalID)

		rec := httptest.NewRecorder()
		h.Update(rec, withURLParam(newRequest(http.MethodPut, "/", `{"cpf":"10987654321"}`), "id", id.String()))

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "CPF already in use", decodeEnvelope(t, rec).Message)
	})

	t.Run("body too large", func(t *testing.T) {
		t.Parallel()

		h, _ := newAccountHandler(t, false)
		big := `{"nome":"` + strings.Repeat("a", maxBodyBytes) + `"}`
		rec := httptest.NewRecorder()
		h.Update(rec, withURLParam(newRequest(http.MethodPut, "/", big), "id", id.String()))

		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})
}

func TestAccount_DeleteAndRestore(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	deletedAt := testTime

	t.Run("delete", func(t *testing.T) {
		t.Parallel()

		h, svc := newAccountHandler(t, false)
		svc.On("SoftDelete", mock.Anything, id).Return(model.Account{ID: id, DeletedAt: &deletedAt}, nil)

		rec := httptest.NewRecorder()
		h.Delete(rec, withURLParam(newRequest(http.MethodDelete, "/", ""), "id", id.String()))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotNil(t, dataFields(t, decodeEnvelope(t, rec))["deleted_at"])
	})

	t.Run("delete missing", func(t *testing.T) {
		t.Parallel()

		h, svc := newAccountHandler(t, false)
		svc.On("SoftDelete", mock.Anything, id).Return(model.Account{}, model.ErrNotFound)

		rec := httptest.NewRecorder()
		h.Delete(rec, withURLParam(newRequest(http.MethodDelete, "/", ""), "id", id.String()))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("restore", func(t *testing.T) {
		t.Parallel()

		h, svc := newAccountHandler(t, false)
		svc.On("Restore", mock.Anything, id).Return(model.Account{ID: id}, nil)

		rec := httptest.NewRecorder()
		h.Restore(rec, withURLParam(newRequest(http.MethodPatch, "/", ""), "id", id.String()))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Nil(t, dataFields(t, decodeEnvelope(t, rec))["deleted_at"])
	})

	t.Run("restore active", func(t *testing.T) {
		t.Parallel()

		h, svc := newAccountHandler(t, false)
		svc.On("Restore", mock.Anything, id).Return(model.Account{}, model.ErrNotDeleted)

		rec := httptest.NewRecorder()
		h.Restore(rec, withURLParam(newRequest(http.MethodPatch, "/", ""), "id", id.String()))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "account is not deleted", decodeEnvelope(t, rec).Message)
	})
}

func TestAccount_InternalErrorDetail(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	storeErr := errors.New("failed to get account by id: connection refused")

	tests := []struct {
		name        string
		development bool
		wantDetail  string
	}{
		{name: "production hides detail"},
		{name: "development shows detail", development: true, wantDetail: storeErr.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h, svc := newAccountHandler(t, tt.development)
			svc.On("FindByID", mock.Anything, id, false).Return(nil, storeErr)

			rec := httptest.NewRecorder()
			h.Get(rec, withURLParam(newRequest(http.MethodGet, "/", ""), "id", id.String()))

			require.Equal(t, http.StatusInternalServerError, rec.Code)
			env := decodeEnvelope(t, rec)
			assert.Equal(t, "internal server error", env.Message)
			assert.Equal(t, tt.wantDetail, env.Error)
		})
	}
}
