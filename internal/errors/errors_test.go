package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type customError struct {
	Msg string
}

func (e customError) Error() string { return e.Msg }

func TestNew(t *testing.T) {
	err := New("test error")
	assert.EqualError(t, err, "test error")
}

func TestWrap(t *testing.T) {
	baseErr := errors.New("base error")

	t.Run("wrap non-nil error", func(t *testing.T) {
		wrapped := Wrap(baseErr, "wrapped")
		assert.EqualError(t, wrapped, "wrapped: base error")
		assert.True(t, Is(wrapped, baseErr))
	})

	t.Run("wrap nil error", func(t *testing.T) {
		assert.Nil(t, Wrap(nil, "wrapped"))
	})
}

func TestWrapf(t *testing.T) {
	wrapped := Wrapf(ErrNotFound, "secret %d", 7)
	assert.EqualError(t, wrapped, "secret 7: not found")
	assert.True(t, Is(wrapped, ErrNotFound))
	assert.Nil(t, Wrapf(nil, "secret %d", 7))
}

func TestStorage(t *testing.T) {
	driverErr := errors.New("connection refused")

	err := Storage(driverErr, "failed to get secret")

	assert.EqualError(t, err, "failed to get secret: storage error: connection refused")
	assert.True(t, Is(err, ErrStorage))
	assert.True(t, Is(err, driverErr))
	assert.False(t, Is(err, ErrNotFound))
	assert.Nil(t, Storage(nil, "noop"))
}

func TestAs(t *testing.T) {
	err := Wrap(customError{Msg: "custom"}, "context")

	var target customError
	assert.True(t, As(err, &target))
	assert.Equal(t, "custom", target.Msg)
}

func TestSentinelsAreDistinct(t *testing.T) {
	sentinels := []error{
		ErrNotFound, ErrConflict, ErrInvalidInput, ErrUnauthorized,
		ErrForbidden, ErrDecryption, ErrStorage,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j {
				assert.False(t, Is(a, b), "%v should not match %v", a, b)
			}
		}
	}
}
