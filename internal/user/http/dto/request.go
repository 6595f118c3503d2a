// Package dto provides data transfer objects for the user HTTP layer.
package dto

// RegisterUserRequest represents the API request for account registration.
type RegisterUserRequest struct {
	Email         string `json:"email"`
	Password      string `json:"password"`
	ReferralEmail string `json:"referral_email"`
}

// AuthenticateRequest represents the API request for token issuance.
type AuthenticateRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateUserRequest represents the API request for updating account fields.
// An empty password keeps the current one.
type UpdateUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
