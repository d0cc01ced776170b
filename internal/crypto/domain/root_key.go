// Package domain defines the core cryptographic domain models for envelope encryption.
package domain

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// RootKey is the key encryption key (KEK) at the top of the envelope hierarchy.
// It only ever wraps and unwraps DEKs; secret payloads are never sealed with it.
//
// The ID is persisted next to every wrapped DEK so an offline rewrap can find the
// keys still sealed under a previous root key.
type RootKey struct {
	ID  string
	Key []byte
}

// NewRootKey validates raw key material and copies it into a RootKey. The caller
// keeps ownership of key and may zero it afterwards.
func NewRootKey(id string, key []byte) (*RootKey, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: id is required", ErrInvalidRootKey)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: root key %s must be %d bytes, got %d", ErrInvalidKeySize, id, KeySize, len(key))
	}

	material := make([]byte, KeySize)
	copy(material, key)
	return &RootKey{ID: id, Key: material}, nil
}

// ParseRootKey decodes a standard base64 encoded 32-byte root key.
func ParseRootKey(id, encoded string) (*RootKey, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("%w: root key %s is not valid base64", ErrInvalidRootKey, id)
	}
	defer Zero(key)

	return NewRootKey(id, key)
}

// Close zeroes the key material.
func (r *RootKey) Close() {
	if r == nil {
		return
	}
	Zero(r.Key)
	r.Key = nil
}
