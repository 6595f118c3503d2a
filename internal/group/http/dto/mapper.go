package dto

import (
	"github.com/helperhq/helper/internal/group/domain"
	"github.com/helperhq/helper/internal/group/usecase"
)

// ToCreateInput converts a CreateGroupRequest to a use case input.
func ToCreateInput(req CreateGroupRequest) usecase.CreateGroupInput {
	return usecase.CreateGroupInput{
		Slug:        req.Slug,
		Name:        req.Name,
		Description: req.Description,
		Meta: usecase.GroupMetaInput{
			Avatar:  req.Meta.Avatar,
			Email:   req.Meta.Email,
			Phone:   req.Meta.Phone,
			Address: req.Meta.Address,
		},
	}
}

// ToUpdateInput converts an UpdateGroupRequest to a use case input.
func ToUpdateInput(req UpdateGroupRequest) usecase.UpdateGroupInput {
	return usecase.UpdateGroupInput{
		Slug:        req.Slug,
		Name:        req.Name,
		Description: req.Description,
		Avatar:      req.Avatar,
		Email:       req.Email,
		Phone:       req.Phone,
		Address:     req.Address,
	}
}

// ToGroupResponse converts a domain Group to its API representation.
func ToGroupResponse(group *domain.Group) GroupResponse {
	return GroupResponse{
		ID:          group.ID,
		Slug:        group.Slug,
		Name:        group.Name,
		Description: group.Description,
		Meta:        group.Meta,
		CreatedAt:   group.CreatedAt,
	}
}

// ToGroupResponses converts a list of domain Groups.
func ToGroupResponses(groups []*domain.Group) []GroupResponse {
	responses := make([]GroupResponse, 0, len(groups))
	for _, group := range groups {
		responses = append(responses, ToGroupResponse(group))
	}
	return responses
}

// ToMemberResponses converts a list of group members.
func ToMemberResponses(members []*domain.Member) []MemberResponse {
	responses := make([]MemberResponse, 0, len(members))
	for _, member := range members {
		responses = append(responses, MemberResponse{
			ID:    member.ID,
			Email: member.Email,
			Meta:  member.Meta,
		})
	}
	return responses
}
