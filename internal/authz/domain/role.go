package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role is a named group of policies assigned to users.
type Role struct {
	ID          uuid.UUID
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
