// Package domain defines the core group domain entities.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// GroupMeta holds the optional contact details for a group profile.
type GroupMeta struct {
	Avatar  string `json:"avatar,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// Group represents a community that coordinates help between its members.
// The slug is unique across the system and used for vanity URLs.
type Group struct {
	ID          uuid.UUID
	Slug        string
	Name        string
	Description *string
	Meta        GroupMeta
	CreatedAt   time.Time
}

// Member is the member-facing projection of a user inside a group.
// It never carries credentials.
type Member struct {
	ID    uuid.UUID      `json:"id"`
	Email string         `json:"email"`
	Meta  map[string]any `json:"meta"`
}

// JoinRequest records that a sponsor vouched for a user joining a group.
type JoinRequest struct {
	GroupID   uuid.UUID
	UserID    uuid.UUID
	SponsorID uuid.UUID
}
