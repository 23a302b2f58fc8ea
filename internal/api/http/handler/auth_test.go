package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/usuarios-server/internal/mocks"
	"github.com/dtroode/usuarios-server/internal/model"
	"github.com/dtroode/usuarios-server/internal/testutil"
)

func newAuthHandler(t *testing.T) (*Auth, *mocks.AuthService, *mocks.ContextManager) {
	t.Helper()

	svc := mocks.NewAuthService(t)
	cm := mocks.NewContextManager(t)
	return NewAuth(svc, cm, newTestResponder(false), testutil.MakeNoopLogger()), svc, cm
}

func TestAuth_Register(t *testing.T) {
	t.Parallel()

	t.Run("success hides password", func(t *testing.T) {
		t.Parallel()

		h, svc, _ := newAuthHandler(t)
		account := sampleAccount()
		svc.On("Register", mock.Anything, model.NewAccount{
			Name:       "Ana Silva",
			NationalID: "12345678901",
			Email:      "ana@x.com",
			Password:   "segredo1",
		}).Return(account, "signed-token", nil)

		rec := httptest.NewRecorder()
		h.Register(rec, newRequest(http.MethodPost, "/api/usuarios", `{"nome":"Ana Silva","cpf":"12345678901","email":"ana@x.com","senha":"segredo1"}`))

		require.Equal(t, http.StatusCreated, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.True(t, env.Success)
		assert.Equal(t, "signed-token", env.Token)

		fields := dataFields(t, env)
		assert.Equal(t, account.ID.String(), fields["id"])
		assert.NotContains(t, fields, "senha")
		assert.NotContains(t, rec.Body.String(), account.PasswordHash)
		assert.Nil(t, fields["deleted_at"])
	})

	t.Run("validation errors", func(t *testing.T) {
		t.Parallel()

		h, _, _ := newAuthHandler(t)
		rec := httptest.NewRecorder()
		h.Register(rec, newRequest(http.MethodPost, "/api/usuarios", `{"nome":"A","cpf":"123","email":"not-an-email","telefone":"abc","senha":"123"}`))

		require.Equal(t, http.StatusBadRequest, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.False(t, env.Success)

		fields := make([]string, 0, len(env.Errors))
		for _, e := range env.Errors {
			fields = append(fields, e.Field)
		}
		assert.Equal(t, []string{"cpf", "email", "nome", "senha", "telefone"}, fields)
	})

	t.Run("name shorter than two runes after trimming", func(t *testing.T) {
		t.Parallel()

		for _, name := range []string{"   ", " a "} {
			h, _, _ := newAuthHandler(t)
			rec := httptest.NewRecorder()
			h.Register(rec, newRequest(http.MethodPost, "/api/usuarios",
				`{"nome":"`+name+`","cpf":"12345678901","email":"ana@x.com","senha":"segredo1"}`))

			require.Equal(t, http.StatusBadRequest, rec.Code, name)
			env := decodeEnvelope(t, rec)
			require.Len(t, env.Errors, 1)
			assert.Equal(t, "nome", env.Errors[0].Field)
		}
	})

	t.Run("padded name is trimmed", func(t *testing.T) {
		t.Parallel()

		h, svc, _ := newAuthHandler(t)
		svc.On("Register", mock.Anything, model.NewAccount{
			Name:       "Ana Silva",
			NationalID: "12345678901",
			Email:      "ana@x.com",
			Password:   "segredo1",
		}).Return(sampleAccount(), "signed-token", nil)

		rec := httptest.NewRecorder()
		h.Register(rec, newRequest(http.MethodPost, "/api/usuarios", `{"nome":"  Ana Silva  ","cpf":"12345678901","email":"ana@x.com","senha":"segredo1"}`))

		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("malformed json", func(t *testing.T) {
		t.Parallel()

		h, _, _ := newAuthHandler(t)
		rec := httptest.NewRecorder()
		h.Register(rec, newRequest(http.MethodPost, "/api/usuarios", `{"nome":`))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid JSON", decodeEnvelope(t, rec).Message)
	})

	t.Run("duplicate email", func(t *testing.T) {
		t.Parallel()

		h, svc, _ := newAuthHandler(t)
		svc.On("Register", mock.Anything, mock.Anything).Return(model.Account{}, "", model.ErrDuplicateEmail)

		rec := httptest.NewRecorder()
		h.Register(rec, newRequest(http.MethodPost, "/api/usuarios", `{"nome":"Ana Silva","cpf":"12345678901","email":"ana@x.com","senha":"segredo1"}`))

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "email already in use", decodeEnvelope(t, rec).Message)
	})
}

func TestAuth_Login(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		h, svc, _ := newAuthHandler(t)
		account := sampleAccount()
		svc.On("Login", mock.Anything, "ana@x.com", "segredo1").Return(account, "signed-token", nil)

		rec := httptest.NewRecorder()
		h.Login(rec, newRequest(http.MethodPost, "/api/usuarios/login", `{"email":"ana@x.com","senha":"segredo1"}`))

		require.Equal(t, http.StatusOK, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.True(t, env.Success)
		assert.Equal(t, "signed-token", env.Token)
	})

	t.Run("wrong password", func(t *testing.T) {
		t.Parallel()

		h, svc, _ := newAuthHandler(t)
		svc.On("Login", mock.Anything, "ana@x.com", "errada1").Return(model.Account{}, "", model.ErrInvalidCredentials)

		rec := httptest.NewRecorder()
		h.Login(rec, newRequest(http.MethodPost, "/api/usuarios/login", `{"email":"ana@x.com","senha":"errada1"}`))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.False(t, env.Success)
		assert.Empty(t, env.Token)
	})

	t.Run("missing password", func(t *testing.T) {
		t.Parallel()

		h, _, _ := newAuthHandler(t)
		rec := httptest.NewRecorder()
		h.Login(rec, newRequest(http.MethodPost, "/api/usuarios/login", `{"email":"ana@x.com"}`))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAuth_Profile(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		h, svc, cm := newAuthHandler(t)
		account := sampleAccount()
		identity := model.Identity{AccountID: account.ID, Email: account.Email}
		cm.On("GetIdentityFromContext", mock.Anything).Return(identity, true)
		svc.On("Profile", mock.Anything, identity).Return(account, nil)

		rec := httptest.NewRecorder()
		h.Profile(rec, newRequest(http.MethodGet, "/api/usuarios/perfil", ""))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, account.Email, dataFields(t, decodeEnvelope(t, rec))["email"])
	})

	t.Run("no identity", func(t *testing.T) {
		t.Parallel()

		h, _, cm := newAuthHandler(t)
		cm.On("GetIdentityFromContext", mock.Anything).Return(model.Identity{}, false)

		rec := httptest.NewRecorder()
		h.Profile(rec, newRequest(http.MethodGet, "/api/usuarios/perfil", ""))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("account deleted", func(t *testing.T) {
		t.Parallel()

		h, svc, cm := newAuthHandler(t)
		identity := model.Identity{AccountID: uuid.New()}
		cm.On("GetIdentityFromContext", mock.Anything).Return(identity, true)
		svc.On("Profile", mock.Anything, identity).Return(model.Account{}, model.ErrNotFound)

		rec := httptest.NewRecorder()
		h.Profile(rec, newRequest(http.MethodGet, "/api/usuarios/perfil", ""))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
