// Package http provides HTTP handlers for group-related operations.
package http

import (
	"github.com/gin-gonic/gin"

	"github.com/helperhq/helper/internal/group/http/dto"
	"github.com/helperhq/helper/internal/group/usecase"
	helpitemDto "github.com/helperhq/helper/internal/helpitem/http/dto"
	"github.com/helperhq/helper/internal/httputil"
)

// GroupHandler handles group-related HTTP requests.
type GroupHandler struct {
	groupUseCase usecase.UseCase
}

// NewGroupHandler creates a new GroupHandler.
func NewGroupHandler(groupUseCase usecase.UseCase) *GroupHandler {
	return &GroupHandler{groupUseCase: groupUseCase}
}

// Create handles group creation.
func (h *GroupHandler) Create(c *gin.Context) (*httputil.Outcome, error) {
	var req dto.CreateGroupRequest
	if err := httputil.BindJSON(c, &req); err != nil {
		return nil, err
	}

	group, err := h.groupUseCase.Create(c.Request.Context(), dto.ToCreateInput(req))
	if err != nil {
		return nil, err
	}

	outcome := httputil.Created(dto.ToGroupResponse(group))
	outcome.Meta = map[string]any{"uri": "/groups/" + group.ID.String()}
	return outcome, nil
}

// GetByID handles group lookup by id.
func (h *GroupHandler) GetByID(c *gin.Context) (*httputil.Outcome, error) {
	id, err := httputil.UUIDParam(c, "id")
	if err != nil {
		return nil, err
	}

	group, err := h.groupUseCase.GetByID(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}

	return httputil.Data(dto.ToGroupResponse(group)), nil
}

// GetBySlug handles group lookup by slug.
func (h *GroupHandler) GetBySlug(c *gin.Context) (*httputil.Outcome, error) {
	group, err := h.groupUseCase.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		return nil, err
	}

	return httputil.Data(dto.ToGroupResponse(group)), nil
}

// Update handles a partial group update.
func (h *GroupHandler) Update(c *gin.Context) (*httputil.Outcome, error) {
	id, err := httputil.UUIDParam(c, "id")
	if err != nil {
		return nil, err
	}

	var req dto.UpdateGroupRequest
	if err := httputil.BindJSON(c, &req); err != nil {
		return nil, err
	}

	group, err := h.groupUseCase.Update(c.Request.Context(), id, dto.ToUpdateInput(req))
	if err != nil {
		return nil, err
	}

	return httputil.Data(dto.ToGroupResponse(group)), nil
}

// Delete handles group deletion.
func (h *GroupHandler) Delete(c *gin.Context) (*httputil.Outcome, error) {
	id, err := httputil.UUIDParam(c, "id")
	if err != nil {
		return nil, err
	}

	if err := h.groupUseCase.Delete(c.Request.Context(), id); err != nil {
		return nil, err
	}

	return httputil.Data(gin.H{"deleted": true}), nil
}

// ListMembers returns the members of a group.
func (h *GroupHandler) ListMembers(c *gin.Context) (*httputil.Outcome, error) {
	id, err := httputil.UUIDParam(c, "id")
	if err != nil {
		return nil, err
	}

	members, err := h.groupUseCase.ListMembers(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}

	return httputil.Data(dto.ToMemberResponses(members)), nil
}

// ListHelpItems returns the help items posted in a group.
func (h *GroupHandler) ListHelpItems(c *gin.Context) (*httputil.Outcome, error) {
	id, err := httputil.UUIDParam(c, "id")
	if err != nil {
		return nil, err
	}

	items, err := h.groupUseCase.ListHelpItems(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}

	return httputil.Data(helpitemDto.ToHelpItemResponses(items)), nil
}

// AddMember adds a user to a group. Re-adding an existing member succeeds.
func (h *GroupHandler) AddMember(c *gin.Context) (*httputil.Outcome, error) {
	groupID, err := httputil.UUIDParam(c, "id")
	if err != nil {
		return nil, err
	}
	userID, err := httputil.UUIDParam(c, "user_id")
	if err != nil {
		return nil, err
	}

	if err := h.groupUseCase.AddMember(c.Request.Context(), groupID, userID); err != nil {
		return nil, err
	}

	return httputil.Data(gin.H{"added": true}), nil
}

// RemoveMember removes a user from a group.
func (h *GroupHandler) RemoveMember(c *gin.Context) (*httputil.Outcome, error) {
	groupID, err := httputil.UUIDParam(c, "id")
	if err != nil {
		return nil, err
	}
	userID, err := httputil.UUIDParam(c, "user_id")
	if err != nil {
		return nil, err
	}

	if err := h.groupUseCase.RemoveMember(c.Request.Context(), groupID, userID); err != nil {
		return nil, err
	}

	return httputil.Data(gin.H{"removed": true}), nil
}

// RequestAccess records a sponsored join request.
func (h *GroupHandler) RequestAccess(c *gin.Context) (*httputil.Outcome, error) {
	groupID, err := httputil.UUIDParam(c, "id")
	if err != nil {
		return nil, err
	}
	userID, err := httputil.UUIDParam(c, "user_id")
	if err != nil {
		return nil, err
	}
	sponsorID, err := httputil.UUIDParam(c, "sponsor_id")
	if err != nil {
		return nil, err
	}

	err = h.groupUseCase.RequestAccess(c.Request.Context(), groupID, userID, sponsorID)
	if err != nil {
		return nil, err
	}

	return httputil.Data(gin.H{"added": true}), nil
}

// RequestDemo records interest in starting a new group.
func (h *GroupHandler) RequestDemo(c *gin.Context) (*httputil.Outcome, error) {
	var req dto.RequestDemoRequest
	if err := httputil.BindJSON(c, &req); err != nil {
		return nil, err
	}

	if err := h.groupUseCase.RequestDemo(c.Request.Context(), req.Email); err != nil {
		return nil, err
	}

	return httputil.Data(gin.H{"requested": true}), nil
}
