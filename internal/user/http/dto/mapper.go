package dto

import (
	"github.com/helperhq/helper/internal/user/domain"
	"github.com/helperhq/helper/internal/user/usecase"
)

// ToRegisterInput converts a RegisterUserRequest to a use case input.
func ToRegisterInput(req RegisterUserRequest) usecase.RegisterInput {
	return usecase.RegisterInput{
		Email:         req.Email,
		Password:      req.Password,
		ReferralEmail: req.ReferralEmail,
	}
}

// ToAuthenticateInput converts an AuthenticateRequest to a use case input.
func ToAuthenticateInput(req AuthenticateRequest) usecase.AuthenticateInput {
	return usecase.AuthenticateInput{
		Email:    req.Email,
		Password: req.Password,
	}
}

// ToUpdateInput converts an UpdateUserRequest to a use case input.
func ToUpdateInput(req UpdateUserRequest) usecase.UpdateInput {
	return usecase.UpdateInput{
		Email:    req.Email,
		Password: req.Password,
	}
}

// ToUserResponse converts a domain User to its API representation,
// dropping the password hash at the boundary.
func ToUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:            user.ID,
		Email:         user.Email,
		ReferralEmail: user.ReferralEmail,
		Meta:          user.Meta,
		CreatedAt:     user.CreatedAt,
		UpdatedAt:     user.UpdatedAt,
	}
}
