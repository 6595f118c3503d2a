// Package dto provides data transfer objects for the group HTTP layer.
package dto

// GroupMetaRequest carries the optional contact details of a group profile.
type GroupMetaRequest struct {
	Avatar  string `json:"avatar"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// CreateGroupRequest represents the API request for group creation.
type CreateGroupRequest struct {
	Slug        string           `json:"slug"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Meta        GroupMetaRequest `json:"meta"`
}

// UpdateGroupRequest represents the API request for a partial group update.
// Contact fields merge into the stored meta; empty fields keep their value.
type UpdateGroupRequest struct {
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Avatar      string `json:"avatar"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
}

// RequestDemoRequest represents the API request for a new group demo.
type RequestDemoRequest struct {
	Email string `json:"email"`
}
