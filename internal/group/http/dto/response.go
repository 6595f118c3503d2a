package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/helperhq/helper/internal/group/domain"
)

// GroupResponse represents the API response for a group.
type GroupResponse struct {
	ID          uuid.UUID        `json:"id"`
	Slug        string           `json:"slug"`
	Name        string           `json:"name"`
	Description *string          `json:"description,omitempty"`
	Meta        domain.GroupMeta `json:"meta"`
	CreatedAt   time.Time        `json:"created_at"`
}

// MemberResponse represents a group member in API responses.
type MemberResponse struct {
	ID    uuid.UUID      `json:"id"`
	Email string         `json:"email"`
	Meta  map[string]any `json:"meta"`
}
