package commands

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/vault/internal/errors"
	userDomain "github.com/allisson/vault/internal/user/domain"
)

type mockBootstrapUseCase struct {
	mock.Mock
}

func (m *mockBootstrapUseCase) CreateAdmin(
	ctx context.Context,
	input userDomain.CreateUserInput,
) (*userDomain.User, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*userDomain.User), args.Error(1)
}

func TestRunCreateAdmin(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	input := userDomain.CreateUserInput{Username: "root", Email: "root@example.com", Password: "s3cret-passw0rd"}
	user := &userDomain.User{ID: uuid.Must(uuid.NewV7()), Username: "root", Email: "root@example.com", IsActive: true}

	t.Run("text-output", func(t *testing.T) {
		useCase := &mockBootstrapUseCase{}
		useCase.On("CreateAdmin", ctx, input).Return(user, nil)

		var out bytes.Buffer
		err := RunCreateAdmin(ctx, useCase, logger, &out, input.Username, input.Email, input.Password, "text")
		require.NoError(t, err)
		assert.Contains(t, out.String(), "Admin root created with id "+user.ID.String())
		assert.NotContains(t, out.String(), input.Password)
		useCase.AssertExpectations(t)
	})

	t.Run("json-output", func(t *testing.T) {
		useCase := &mockBootstrapUseCase{}
		useCase.On("CreateAdmin", ctx, input).Return(user, nil)

		var out bytes.Buffer
		err := RunCreateAdmin(ctx, useCase, logger, &out, input.Username, input.Email, input.Password, "json")
		require.NoError(t, err)
		assert.Contains(t, out.String(), `"username": "root"`)
		assert.Contains(t, out.String(), `"role": "admin"`)
	})

	t.Run("conflict", func(t *testing.T) {
		useCase := &mockBootstrapUseCase{}
		useCase.On("CreateAdmin", ctx, input).Return(nil, apperrors.ErrConflict)

		err := RunCreateAdmin(ctx, useCase, logger, &bytes.Buffer{}, input.Username, input.Email, input.Password, "text")
		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrConflict)
	})

	t.Run("invalid-format", func(t *testing.T) {
		err := RunCreateAdmin(ctx, nil, logger, &bytes.Buffer{}, "root", "root@example.com", "pw", "xml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid format")
	})
}
