// Package domain defines the core user domain entities.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered person. Password always holds the hashed form;
// the plaintext never leaves the registration or authentication use cases.
type User struct {
	ID            uuid.UUID
	Email         string
	Password      string
	ReferralEmail *string
	Meta          map[string]any
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
