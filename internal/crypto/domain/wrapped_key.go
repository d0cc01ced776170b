package domain

import "github.com/google/uuid"

// WrappedKey is the wrapped DEK of one secret version together with the ID of
// the root key that wrapped it.
type WrappedKey struct {
	VersionID  uuid.UUID
	KekID      string
	WrappedKey []byte
}
