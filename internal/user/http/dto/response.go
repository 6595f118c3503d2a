package dto

import (
	"time"

	"github.com/google/uuid"
)

// UserResponse represents the API response for a user. The password hash
// never leaves the domain layer.
type UserResponse struct {
	ID            uuid.UUID      `json:"id"`
	Email         string         `json:"email"`
	ReferralEmail *string        `json:"referral_email,omitempty"`
	Meta          map[string]any `json:"meta"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// TokenResponse represents the API response for a successful authentication.
type TokenResponse struct {
	Token string `json:"token"`
}
