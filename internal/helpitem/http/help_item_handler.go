// Package http provides HTTP handlers for help item operations.
package http

import (
	"github.com/gin-gonic/gin"

	authHTTP "github.com/helperhq/helper/internal/auth/http"
	"github.com/helperhq/helper/internal/helpitem/http/dto"
	"github.com/helperhq/helper/internal/helpitem/usecase"
	"github.com/helperhq/helper/internal/httputil"
)

// HelpItemHandler handles help item HTTP requests.
type HelpItemHandler struct {
	helpItemUseCase usecase.UseCase
}

// NewHelpItemHandler creates a new HelpItemHandler.
func NewHelpItemHandler(helpItemUseCase usecase.UseCase) *HelpItemHandler {
	return &HelpItemHandler{helpItemUseCase: helpItemUseCase}
}

// Create handles posting a help item. The creator is the authenticated
// caller; the route is gated so the identity is never anonymous here.
func (h *HelpItemHandler) Create(c *gin.Context) (*httputil.Outcome, error) {
	var req dto.CreateHelpItemRequest
	if err := httputil.BindJSON(c, &req); err != nil {
		return nil, err
	}

	identity := authHTTP.IdentityFrom(c.Request.Context())

	item, err := h.helpItemUseCase.Create(c.Request.Context(), identity.ID, dto.ToCreateInput(req))
	if err != nil {
		return nil, err
	}

	outcome := httputil.Created(dto.ToHelpItemResponse(item))
	outcome.Meta = map[string]any{"uri": "/help-items/" + item.ID.String()}
	return outcome, nil
}

// GetByID handles help item lookup by id.
func (h *HelpItemHandler) GetByID(c *gin.Context) (*httputil.Outcome, error) {
	id, err := httputil.UUIDParam(c, "id")
	if err != nil {
		return nil, err
	}

	item, err := h.helpItemUseCase.GetByID(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}

	return httputil.Data(dto.ToHelpItemResponse(item)), nil
}

// Update handles a partial help item update.
func (h *HelpItemHandler) Update(c *gin.Context) (*httputil.Outcome, error) {
	id, err := httputil.UUIDParam(c, "id")
	if err != nil {
		return nil, err
	}

	var req dto.UpdateHelpItemRequest
	if err := httputil.BindJSON(c, &req); err != nil {
		return nil, err
	}

	item, err := h.helpItemUseCase.Update(c.Request.Context(), id, dto.ToUpdateInput(req))
	if err != nil {
		return nil, err
	}

	outcome := httputil.Created(dto.ToHelpItemResponse(item))
	outcome.Meta = map[string]any{"uri": "/help-items/" + item.ID.String()}
	return outcome, nil
}

// MarkDone marks a help item as completed.
func (h *HelpItemHandler) MarkDone(c *gin.Context) (*httputil.Outcome, error) {
	id, err := httputil.UUIDParam(c, "id")
	if err != nil {
		return nil, err
	}

	item, err := h.helpItemUseCase.MarkDone(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}

	return httputil.Created(dto.ToHelpItemResponse(item)), nil
}

// Delete handles help item deletion.
func (h *HelpItemHandler) Delete(c *gin.Context) (*httputil.Outcome, error) {
	id, err := httputil.UUIDParam(c, "id")
	if err != nil {
		return nil, err
	}

	if err := h.helpItemUseCase.Delete(c.Request.Context(), id); err != nil {
		return nil, err
	}

	return httputil.Data(gin.H{"deleted": true}), nil
}

// AddHelper signs a user up as a helper on an item.
func (h *HelpItemHandler) AddHelper(c *gin.Context) (*httputil.Outcome, error) {
	itemID, err := httputil.UUIDParam(c, "id")
	if err != nil {
		return nil, err
	}
	userID, err := httputil.UUIDParam(c, "user_id")
	if err != nil {
		return nil, err
	}

	if err := h.helpItemUseCase.AddHelper(c.Request.Context(), itemID, userID); err != nil {
		return nil, err
	}

	return httputil.Created(gin.H{"added": true}), nil
}

// RemoveHelper withdraws a helper signup.
func (h *HelpItemHandler) RemoveHelper(c *gin.Context) (*httputil.Outcome, error) {
	itemID, err := httputil.UUIDParam(c, "id")
	if err != nil {
		return nil, err
	}
	userID, err := httputil.UUIDParam(c, "user_id")
	if err != nil {
		return nil, err
	}

	if err := h.helpItemUseCase.RemoveHelper(c.Request.Context(), itemID, userID); err != nil {
		return nil, err
	}

	return httputil.Created(gin.H{"removed": true}), nil
}

// ListHelpers returns the helpers signed up on an item.
func (h *HelpItemHandler) ListHelpers(c *gin.Context) (*httputil.Outcome, error) {
	itemID, err := httputil.UUIDParam(c, "id")
	if err != nil {
		return nil, err
	}

	helpers, err := h.helpItemUseCase.ListHelpers(c.Request.Context(), itemID)
	if err != nil {
		return nil, err
	}

	return httputil.Data(dto.ToHelperResponses(helpers)), nil
}
