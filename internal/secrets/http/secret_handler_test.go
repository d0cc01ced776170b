package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/allisson/vault/internal/audit/domain"
	authHTTP "github.com/allisson/vault/internal/auth/http"
	authzDomain "github.com/allisson/vault/internal/authz/domain"
	secretsDomain "github.com/allisson/vault/internal/secrets/domain"
	"github.com/allisson/vault/internal/secrets/http/dto"
)

type mockSecretUseCase struct {
	mock.Mock
}

func (m *mockSecretUseCase) Create(
	ctx context.Context,
	principalID uuid.UUID,
	input secretsDomain.CreateSecretInput,
) (*secretsDomain.Secret, error) {
	args := m.Called(ctx, principalID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*secretsDomain.Secret), args.Error(1)
}

func (m *mockSecretUseCase) Get(ctx context.Context, principalID, secretID uuid.UUID) (*secretsDomain.Secret, error) {
	args := m.Called(ctx, principalID, secretID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*secretsDomain.Secret), args.Error(1)
}

func (m *mockSecretUseCase) Reveal(
	ctx context.Context,
	principalID, secretID uuid.UUID,
) (*secretsDomain.RevealedSecret, error) {
	args := m.Called(ctx, principalID, secretID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*secretsDomain.RevealedSecret), args.Error(1)
}

func (m *mockSecretUseCase) Rotate(
	ctx context.Context,
	principalID, secretID uuid.UUID,
	value []byte,
) (*secretsDomain.Secret, error) {
	// Copy before the handler zeroes the buffer.
	args := m.Called(ctx, principalID, secretID, string(value))
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*secretsDomain.Secret), args.Error(1)
}

func (m *mockSecretUseCase) List(
	ctx context.Context,
	principalID uuid.UUID,
	offset, limit int,
) ([]*secretsDomain.Secret, error) {
	args := m.Called(ctx, principalID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*secretsDomain.Secret), args.Error(1)
}

func (m *mockSecretUseCase) ListVersions(
	ctx context.Context,
	principalID, secretID uuid.UUID,
) ([]*secretsDomain.SecretVersion, error) {
	args := m.Called(ctx, principalID, secretID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*secretsDomain.SecretVersion), args.Error(1)
}

func (m *mockSecretUseCase) Delete(ctx context.Context, principalID, secretID uuid.UUID) error {
	return m.Called(ctx, principalID, secretID).Error(0)
}

type recordingSink struct {
	mu      sync.Mutex
	entries []*auditDomain.AuditLog
}

func (s *recordingSink) Record(_ context.Context, entry *auditDomain.AuditLog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
}

func (s *recordingSink) recorded() []*auditDomain.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestRouter mounts the handler the way the server does, with a fixed
// request id and the principal already authenticated.
func newTestRouter(handler *SecretHandler, principalID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(requestid.New(requestid.WithGenerator(func() string { return "req-123" })))
	router.Use(func(c *gin.Context) {
		if principalID != uuid.Nil {
			c.Request = c.Request.WithContext(authHTTP.WithPrincipal(c.Request.Context(), principalID))
		}
		c.Next()
	})

	secrets := router.Group("/v1/secrets")
	secrets.POST("", handler.CreateHandler)
	secrets.GET("", handler.ListHandler)
	secrets.GET("/:id", handler.GetHandler)
	secrets.PUT("/:id", handler.RotateHandler)
	secrets.DELETE("/:id", handler.DeleteHandler)
	secrets.GET("/:id/reveal", handler.RevealHandler)
	secrets.GET("/:id/versions", handler.ListVersionsHandler)
	return router
}

func perform(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "10.1.2.3:4567"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func newSecret(principalID uuid.UUID) *secretsDomain.Secret {
	now := time.Now().UTC()
	return &secretsDomain.Secret{
		ID:             uuid.Must(uuid.NewV7()),
		Path:           "/prod/db/password",
		Name:           "db-password",
		CurrentVersion: 1,
		CreatedBy:      principalID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestSecretHandler_CreateHandler(t *testing.T) {
	principalID := uuid.Must(uuid.NewV7())

	t.Run("Success", func(t *testing.T) {
		useCase := &mockSecretUseCase{}
		sink := &recordingSink{}
		router := newTestRouter(NewSecretHandler(useCase, sink, testLogger()), principalID)
		secret := newSecret(principalID)
		useCase.On("Create", mock.Anything, principalID, mock.MatchedBy(func(in secretsDomain.CreateSecretInput) bool {
			return in.Path == secret.Path && in.Name == secret.Name
		})).Return(secret, nil).Once()

		w := perform(router, http.MethodPost, "/v1/secrets", dto.CreateSecretRequest{
			Path:  secret.Path,
			Name:  secret.Name,
			Value: "hunter2",
		})

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.NotContains(t, w.Body.String(), "hunter2")
		var response dto.SecretResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, secretsDomain.MaskedValue, response.Value)
		assert.Equal(t, 1, response.CurrentVersion)

		entries := sink.recorded()
		require.Len(t, entries, 1)
		assert.Equal(t, auditDomain.ActionSecretCreate, entries[0].Action)
		assert.Equal(t, secret.ID, *entries[0].ResourceID)
		useCase.AssertExpectations(t)
	})

	t.Run("MalformedJSON", func(t *testing.T) {
		router := newTestRouter(NewSecretHandler(&mockSecretUseCase{}, &recordingSink{}, testLogger()), principalID)
		req := httptest.NewRequest(http.MethodPost, "/v1/secrets", bytes.NewBufferString("{"))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("MissingValue", func(t *testing.T) {
		router := newTestRouter(NewSecretHandler(&mockSecretUseCase{}, &recordingSink{}, testLogger()), principalID)

		w := perform(router, http.MethodPost, "/v1/secrets", dto.CreateSecretRequest{Path: "/a", Name: "a"})

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("Conflict", func(t *testing.T) {
		useCase := &mockSecretUseCase{}
		sink := &recordingSink{}
		router := newTestRouter(NewSecretHandler(useCase, sink, testLogger()), principalID)
		useCase.On("Create", mock.Anything, principalID, mock.Anything).
			Return(nil, secretsDomain.ErrSecretAlreadyExists).Once()

		w := perform(router, http.MethodPost, "/v1/secrets", dto.CreateSecretRequest{Path: "/a", Name: "a", Value: "v"})

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Empty(t, sink.recorded())
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		router := newTestRouter(NewSecretHandler(&mockSecretUseCase{}, &recordingSink{}, testLogger()), uuid.Nil)

		w := perform(router, http.MethodPost, "/v1/secrets", dto.CreateSecretRequest{Path: "/a", Name: "a", Value: "v"})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestSecretHandler_GetHandler(t *testing.T) {
	principalID := uuid.Must(uuid.NewV7())

	t.Run("Success_Masked", func(t *testing.T) {
		useCase := &mockSecretUseCase{}
		router := newTestRouter(NewSecretHandler(useCase, &recordingSink{}, testLogger()), principalID)
		secret := newSecret(principalID)
		useCase.On("Get", mock.Anything, principalID, secret.ID).Return(secret, nil).Once()

		w := perform(router, http.MethodGet, "/v1/secrets/"+secret.ID.String(), nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), secretsDomain.MaskedValue)
	})

	t.Run("InvalidID", func(t *testing.T) {
		router := newTestRouter(NewSecretHandler(&mockSecretUseCase{}, &recordingSink{}, testLogger()), principalID)

		w := perform(router, http.MethodGet, "/v1/secrets/not-a-uuid", nil)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("NotFound", func(t *testing.T) {
		useCase := &mockSecretUseCase{}
		router := newTestRouter(NewSecretHandler(useCase, &recordingSink{}, testLogger()), principalID)
		secretID := uuid.Must(uuid.NewV7())
		useCase.On("Get", mock.Anything, principalID, secretID).Return(nil, secretsDomain.ErrSecretNotFound).Once()

		w := perform(router, http.MethodGet, "/v1/secrets/"+secretID.String(), nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestSecretHandler_RevealHandler(t *testing.T) {
	principalID := uuid.Must(uuid.NewV7())

	t.Run("Success_AuditsAndZeroes", func(t *testing.T) {
		useCase := &mockSecretUseCase{}
		sink := &recordingSink{}
		router := newTestRouter(NewSecretHandler(useCase, sink, testLogger()), principalID)
		secret := newSecret(principalID)
		revealed := &secretsDomain.RevealedSecret{Secret: secret, Version: 2, Value: []byte("hunter2")}
		useCase.On("Reveal", mock.Anything, principalID, secret.ID).Return(revealed, nil).Once()

		w := perform(router, http.MethodGet, "/v1/secrets/"+secret.ID.String()+"/reveal", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
		var response dto.RevealSecretResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "hunter2", response.Value)
		assert.Equal(t, 2, response.Version)
		assert.Equal(t, make([]byte, 7), revealed.Value)

		entries := sink.recorded()
		require.Len(t, entries, 1)
		assert.Equal(t, auditDomain.ActionSecretReveal, entries[0].Action)
		assert.Equal(t, authzDomain.ResourceSecret, entries[0].ResourceType)
		assert.Equal(t, principalID, entries[0].PrincipalID)
		assert.Equal(t, "req-123", entries[0].RequestID)
		assert.Equal(t, "10.1.2.3", entries[0].OriginAddress)
		assert.Equal(t, 2, entries[0].Details["version"])
	})

	t.Run("Forbidden_NotAudited", func(t *testing.T) {
		useCase := &mockSecretUseCase{}
		sink := &recordingSink{}
		router := newTestRouter(NewSecretHandler(useCase, sink, testLogger()), principalID)
		secretID := uuid.Must(uuid.NewV7())
		useCase.On("Reveal", mock.Anything, principalID, secretID).
			Return(nil, &authzDomain.PermissionDeniedError{ResourceType: authzDomain.ResourceSecret, Action: authzDomain.ActionReveal}).
			Once()

		w := perform(router, http.MethodGet, "/v1/secrets/"+secretID.String()+"/reveal", nil)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Empty(t, sink.recorded())
	})
}

func TestSecretHandler_RotateHandler(t *testing.T) {
	principalID := uuid.Must(uuid.NewV7())

	t.Run("Success", func(t *testing.T) {
		useCase := &mockSecretUseCase{}
		sink := &recordingSink{}
		router := newTestRouter(NewSecretHandler(useCase, sink, testLogger()), principalID)
		secret := newSecret(principalID)
		secret.CurrentVersion = 2
		useCase.On("Rotate", mock.Anything, principalID, secret.ID, "v2").Return(secret, nil).Once()

		w := perform(router, http.MethodPut, "/v1/secrets/"+secret.ID.String(), dto.RotateSecretRequest{Value: "v2"})

		assert.Equal(t, http.StatusOK, w.Code)
		var response dto.SecretResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, 2, response.CurrentVersion)
		assert.Equal(t, secretsDomain.MaskedValue, response.Value)

		entries := sink.recorded()
		require.Len(t, entries, 1)
		assert.Equal(t, auditDomain.ActionSecretRotate, entries[0].Action)
		useCase.AssertExpectations(t)
	})

	t.Run("EmptyValue", func(t *testing.T) {
		router := newTestRouter(NewSecretHandler(&mockSecretUseCase{}, &recordingSink{}, testLogger()), principalID)

		w := perform(router, http.MethodPut, "/v1/secrets/"+uuid.NewString(), dto.RotateSecretRequest{})

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestSecretHandler_ListHandler(t *testing.T) {
	principalID := uuid.Must(uuid.NewV7())

	t.Run("Success", func(t *testing.T) {
		useCase := &mockSecretUseCase{}
		router := newTestRouter(NewSecretHandler(useCase, &recordingSink{}, testLogger()), principalID)
		secrets := []*secretsDomain.Secret{newSecret(principalID), newSecret(principalID)}
		useCase.On("List", mock.Anything, principalID, 5, 10).Return(secrets, nil).Once()

		w := perform(router, http.MethodGet, "/v1/secrets?offset=5&limit=10", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		var response dto.ListSecretsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Len(t, response.Data, 2)
	})

	t.Run("InvalidLimit", func(t *testing.T) {
		router := newTestRouter(NewSecretHandler(&mockSecretUseCase{}, &recordingSink{}, testLogger()), principalID)

		w := perform(router, http.MethodGet, "/v1/secrets?limit=1000", nil)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestSecretHandler_ListVersionsHandler(t *testing.T) {
	principalID := uuid.Must(uuid.NewV7())
	useCase := &mockSecretUseCase{}
	router := newTestRouter(NewSecretHandler(useCase, &recordingSink{}, testLogger()), principalID)
	secretID := uuid.Must(uuid.NewV7())
	versions := []*secretsDomain.SecretVersion{
		{ID: uuid.Must(uuid.NewV7()), SecretID: secretID, Version: 1},
		{ID: uuid.Must(uuid.NewV7()), SecretID: secretID, Version: 2, IsActive: true},
	}
	useCase.On("ListVersions", mock.Anything, principalID, secretID).Return(versions, nil).Once()

	w := perform(router, http.MethodGet, "/v1/secrets/"+secretID.String()+"/versions", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var response dto.ListSecretVersionsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Data, 2)
	assert.True(t, response.Data[1].IsActive)
}

func TestSecretHandler_DeleteHandler(t *testing.T) {
	principalID := uuid.Must(uuid.NewV7())

	t.Run("Success", func(t *testing.T) {
		useCase := &mockSecretUseCase{}
		sink := &recordingSink{}
		router := newTestRouter(NewSecretHandler(useCase, sink, testLogger()), principalID)
		secretID := uuid.Must(uuid.NewV7())
		useCase.On("Delete", mock.Anything, principalID, secretID).Return(nil).Once()

		w := perform(router, http.MethodDelete, "/v1/secrets/"+secretID.String(), nil)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
		entries := sink.recorded()
		require.Len(t, entries, 1)
		assert.Equal(t, auditDomain.ActionSecretDelete, entries[0].Action)
	})

	t.Run("NotFound", func(t *testing.T) {
		useCase := &mockSecretUseCase{}
		sink := &recordingSink{}
		router := newTestRouter(NewSecretHandler(useCase, sink, testLogger()), principalID)
		secretID := uuid.Must(uuid.NewV7())
		useCase.On("Delete", mock.Anything, principalID, secretID).Return(secretsDomain.ErrSecretNotFound).Once()

		w := perform(router, http.MethodDelete, "/v1/secrets/"+secretID.String(), nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Empty(t, sink.recorded())
	})
}
