// Package errors provides standardized domain errors that express business intent
// rather than infrastructure details. Use cases return these errors and handlers
// map them to HTTP status codes.
package errors

import (
	"errors"
	"fmt"
)

// Standard domain errors shared by every module.
var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a uniqueness violation (duplicate path, username, name).
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indicates caller supplied data fails a precondition.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates an invalid, expired or revoked token, or wrong credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates policy evaluation denied the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrDecryption indicates ciphertext or wrapped key material could not be opened.
	// It signals corruption or tampering and must always reach the caller.
	ErrDecryption = errors.New("decryption failed")

	// ErrStorage indicates the underlying store failed (connection loss, driver error).
	ErrStorage = errors.New("storage error")
)

// New creates a new error with the given message.
func New(message string) error {
	return errors.New(message)
}

// Wrap wraps an error with additional context while preserving the error chain.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted message while preserving the error chain.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Storage marks a driver error as ErrStorage. The returned error matches both
// ErrStorage and the original driver error.
func Storage(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", message, ErrStorage, err)
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}
