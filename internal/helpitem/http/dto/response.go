package dto

import (
	"time"

	"github.com/google/uuid"
)

// HelpItemResponse represents the API response for a help item.
type HelpItemResponse struct {
	ID          uuid.UUID      `json:"id"`
	Title       string         `json:"title"`
	Description *string        `json:"description,omitempty"`
	HelpType    string         `json:"help_type"`
	GroupID     uuid.UUID      `json:"group_id"`
	CreatorID   uuid.UUID      `json:"creator_id"`
	EndAt       *time.Time     `json:"end_at,omitempty"`
	Done        bool           `json:"done"`
	Meta        map[string]any `json:"meta"`
	Image       *string        `json:"image,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// HelperResponse represents a helper signup in API responses.
type HelperResponse struct {
	ID    uuid.UUID      `json:"id"`
	Email string         `json:"email"`
	Meta  map[string]any `json:"meta"`
}
