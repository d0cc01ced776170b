package commands

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"testing"

	"filippo.io/age"
	"filippo.io/age/armor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	cryptoService "github.com/allisson/vault/internal/crypto/service"
)

type MockKMSService struct {
	mock.Mock
}

func (m *MockKMSService) OpenKeeper(ctx context.Context, uri string) (cryptoService.KMSKeeper, error) {
	args := m.Called(ctx, uri)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(cryptoService.KMSKeeper), args.Error(1)
}

type MockKMSKeeper struct {
	mock.Mock
}

func (m *MockKMSKeeper) Encrypt(ctx context.Context, plaintext []byte) ([]byte, error) {
	args := m.Called(ctx, plaintext)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockKMSKeeper) Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error) {
	args := m.Called(ctx, ciphertext)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockKMSKeeper) Close() error {
	return m.Called().Error(0)
}

var rootKEKLine = regexp.MustCompile(`ROOT_KEK="([^"]+)"`)

func TestRunCreateRootKey(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("plaintext", func(t *testing.T) {
		var out bytes.Buffer
		err := RunCreateRootKey(ctx, nil, logger, &out, "root-1", nil, "")
		require.NoError(t, err)

		assert.Contains(t, out.String(), `ROOT_KEK_ID="root-1"`)
		match := rootKEKLine.FindStringSubmatch(out.String())
		require.Len(t, match, 2)

		key, err := base64.StdEncoding.DecodeString(match[1])
		require.NoError(t, err)
		assert.Len(t, key, 32)
	})

	t.Run("default-id", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, RunCreateRootKey(ctx, nil, logger, &out, "", nil, ""))
		assert.Contains(t, out.String(), `ROOT_KEK_ID="root-key-`)
	})

	t.Run("kms", func(t *testing.T) {
		mockService := &MockKMSService{}
		mockKeeper := &MockKMSKeeper{}

		mockService.On("OpenKeeper", ctx, "base64key://test").Return(mockKeeper, nil)
		mockKeeper.On("Encrypt", ctx, mock.AnythingOfType("[]uint8")).Return([]byte("encrypted"), nil)
		mockKeeper.On("Close").Return(nil)

		var out bytes.Buffer
		err := RunCreateRootKey(ctx, mockService, logger, &out, "root-1", nil, "base64key://test")
		require.NoError(t, err)

		assert.Contains(t, out.String(), `KMS_KEY_URI="base64key://test"`)
		assert.Contains(t, out.String(),
			`ROOT_KEK="`+base64.StdEncoding.EncodeToString([]byte("encrypted"))+`"`)

		mockService.AssertExpectations(t)
		mockKeeper.AssertExpectations(t)
	})

	t.Run("kms-error", func(t *testing.T) {
		mockService := &MockKMSService{}
		mockService.On("OpenKeeper", ctx, "invalid").Return(nil, errors.New("kms error"))

		err := RunCreateRootKey(ctx, mockService, logger, &bytes.Buffer{}, "root-1", nil, "invalid")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to seal root key")
	})

	t.Run("age-escrow", func(t *testing.T) {
		identity, err := age.GenerateX25519Identity()
		require.NoError(t, err)

		var out bytes.Buffer
		err = RunCreateRootKey(ctx, nil, logger, &out, "root-1", []string{identity.Recipient().String()}, "")
		require.NoError(t, err)

		// The plaintext key only exists inside the armored block.
		assert.NotRegexp(t, `(?m)^ROOT_KEK=`, out.String())

		start := strings.Index(out.String(), armor.Header)
		require.GreaterOrEqual(t, start, 0)

		reader, err := age.Decrypt(armor.NewReader(strings.NewReader(out.String()[start:])), identity)
		require.NoError(t, err)
		plaintext, err := io.ReadAll(reader)
		require.NoError(t, err)

		assert.Contains(t, string(plaintext), `ROOT_KEK_ID="root-1"`)
		match := rootKEKLine.FindStringSubmatch(string(plaintext))
		require.Len(t, match, 2)
		key, err := base64.StdEncoding.DecodeString(match[1])
		require.NoError(t, err)
		assert.Len(t, key, 32)
	})

	t.Run("invalid-age-recipient", func(t *testing.T) {
		err := RunCreateRootKey(ctx, nil, logger, &bytes.Buffer{}, "root-1", []string{"not-a-key"}, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid age recipient")
	})
}
