// Package domain defines the core help item domain entities and types.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// HelpType classifies the kind of help a help item asks for.
type HelpType string

// Supported help types.
const (
	HelpTypeFinancial HelpType = "financial"
	HelpTypeTime      HelpType = "time"
	HelpTypeGeneral   HelpType = "general"
)

// IsValid reports whether the help type is one of the supported values.
func (h HelpType) IsValid() bool {
	switch h {
	case HelpTypeFinancial, HelpTypeTime, HelpTypeGeneral:
		return true
	}
	return false
}

// HelpItem represents a request for help posted inside a group.
type HelpItem struct {
	ID          uuid.UUID
	Title       string
	Description *string
	HelpType    HelpType
	GroupID     uuid.UUID
	CreatorID   uuid.UUID
	EndAt       *time.Time
	Done        bool
	Meta        map[string]any
	Image       *string
	CreatedAt   time.Time
}

// Helper is the public projection of a user who volunteered on a help item.
type Helper struct {
	ID    uuid.UUID      `json:"id"`
	Email string         `json:"email"`
	Meta  map[string]any `json:"meta"`
}
