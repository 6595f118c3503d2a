// Package dto provides data transfer objects for the help item HTTP layer.
package dto

import (
	"time"

	"github.com/google/uuid"
)

// CreateHelpItemRequest represents the API request for posting a help item.
type CreateHelpItemRequest struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	HelpType    string         `json:"help_type"`
	GroupID     uuid.UUID      `json:"group_id"`
	EndAt       *time.Time     `json:"end_at"`
	Meta        map[string]any `json:"meta"`
	Image       string         `json:"image"`
}

// UpdateHelpItemRequest represents the API request for a partial update.
// Empty fields keep their current value; meta keys merge into the stored meta.
type UpdateHelpItemRequest struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	HelpType    string         `json:"help_type"`
	EndAt       *time.Time     `json:"end_at"`
	Meta        map[string]any `json:"meta"`
	Image       string         `json:"image"`
}
