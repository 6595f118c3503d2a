package dto

import (
	"github.com/helperhq/helper/internal/helpitem/domain"
	"github.com/helperhq/helper/internal/helpitem/usecase"
)

// ToCreateInput converts a CreateHelpItemRequest to a use case input.
func ToCreateInput(req CreateHelpItemRequest) usecase.CreateHelpItemInput {
	return usecase.CreateHelpItemInput{
		Title:       req.Title,
		Description: req.Description,
		HelpType:    req.HelpType,
		GroupID:     req.GroupID,
		EndAt:       req.EndAt,
		Meta:        req.Meta,
		Image:       req.Image,
	}
}

// ToUpdateInput converts an UpdateHelpItemRequest to a use case input.
func ToUpdateInput(req UpdateHelpItemRequest) usecase.UpdateHelpItemInput {
	return usecase.UpdateHelpItemInput{
		Title:       req.Title,
		Description: req.Description,
		HelpType:    req.HelpType,
		EndAt:       req.EndAt,
		Meta:        req.Meta,
		Image:       req.Image,
	}
}

// ToHelpItemResponse converts a domain HelpItem to its API representation.
func ToHelpItemResponse(item *domain.HelpItem) HelpItemResponse {
	return HelpItemResponse{
		ID:          item.ID,
		Title:       item.Title,
		Description: item.Description,
		HelpType:    string(item.HelpType),
		GroupID:     item.GroupID,
		CreatorID:   item.CreatorID,
		EndAt:       item.EndAt,
		Done:        item.Done,
		Meta:        item.Meta,
		Image:       item.Image,
		CreatedAt:   item.CreatedAt,
	}
}

// ToHelpItemResponses converts a list of domain HelpItems.
func ToHelpItemResponses(items []*domain.HelpItem) []HelpItemResponse {
	responses := make([]HelpItemResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, ToHelpItemResponse(item))
	}
	return responses
}

// ToHelperResponses converts a list of helper signups.
func ToHelperResponses(helpers []*domain.Helper) []HelperResponse {
	responses := make([]HelperResponse, 0, len(helpers))
	for _, helper := range helpers {
		responses = append(responses, HelperResponse{
			ID:    helper.ID,
			Email: helper.Email,
			Meta:  helper.Meta,
		})
	}
	return responses
}
