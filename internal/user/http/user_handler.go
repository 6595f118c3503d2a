// Package http provides HTTP handlers for user-related operations.
package http

import (
	"time"

	"github.com/gin-gonic/gin"

	groupDto "github.com/helperhq/helper/internal/group/http/dto"
	helpitemDomain "github.com/helperhq/helper/internal/helpitem/domain"
	helpitemDto "github.com/helperhq/helper/internal/helpitem/http/dto"
	"github.com/helperhq/helper/internal/httputil"
	"github.com/helperhq/helper/internal/user/http/dto"
	"github.com/helperhq/helper/internal/user/usecase"
)

// UserHandler handles user-related HTTP requests.
type UserHandler struct {
	userUseCase usecase.UseCase
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userUseCase usecase.UseCase) *UserHandler {
	return &UserHandler{userUseCase: userUseCase}
}

// Register handles account registration.
func (h *UserHandler) Register(c *gin.Context) (*httputil.Outcome, error) {
	var req dto.RegisterUserRequest
	if err := httputil.BindJSON(c, &req); err != nil {
		return nil, err
	}

	user, err := h.userUseCase.Register(c.Request.Context(), dto.ToRegisterInput(req))
	if err != nil {
		return nil, err
	}

	outcome := httputil.Created(dto.ToUserResponse(user))
	outcome.Meta = map[string]any{"uri": "/users/" + user.ID.String()}
	return outcome, nil
}

// Authenticate handles credential verification and token issuance.
func (h *UserHandler) Authenticate(c *gin.Context) (*httputil.Outcome, error) {
	var req dto.AuthenticateRequest
	if err := httputil.BindJSON(c, &req); err != nil {
		return nil, err
	}

	token, err := h.userUseCase.Authenticate(c.Request.Context(), dto.ToAuthenticateInput(req))
	if err != nil {
		return nil, err
	}

	return httputil.Data(dto.TokenResponse{Token: token}), nil
}

// GetByID handles user lookup by id.
func (h *UserHandler) GetByID(c *gin.Context) (*httputil.Outcome, error) {
	id, err := httputil.UUIDParam(c, "id")
	if err != nil {
		return nil, err
	}

	user, err := h.userUseCase.GetByID(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}

	return httputil.Data(dto.ToUserResponse(user)), nil
}

// GetByEmail handles user lookup by email. The response points at the
// canonical user uri.
func (h *UserHandler) GetByEmail(c *gin.Context) (*httputil.Outcome, error) {
	user, err := h.userUseCase.GetByEmail(c.Request.Context(), c.Param("email"))
	if err != nil {
		return nil, err
	}

	outcome := httputil.Data(dto.ToUserResponse(user))
	outcome.Meta = map[string]any{"uri": "/users/" + user.ID.String()}
	return outcome, nil
}

// Update handles account field updates.
func (h *UserHandler) Update(c *gin.Context) (*httputil.Outcome, error) {
	id, err := httputil.UUIDParam(c, "id")
	if err != nil {
		return nil, err
	}

	var req dto.UpdateUserRequest
	if err := httputil.BindJSON(c, &req); err != nil {
		return nil, err
	}

	user, err := h.userUseCase.Update(c.Request.Context(), id, dto.ToUpdateInput(req))
	if err != nil {
		return nil, err
	}

	return httputil.Data(dto.ToUserResponse(user)), nil
}

// UpdateMeta merges the request body into the stored user meta.
func (h *UserHandler) UpdateMeta(c *gin.Context) (*httputil.Outcome, error) {
	id, err := httputil.UUIDParam(c, "id")
	if err != nil {
		return nil, err
	}

	meta := map[string]any{}
	if err := httputil.BindJSON(c, &meta); err != nil {
		return nil, err
	}

	user, err := h.userUseCase.UpdateMeta(c.Request.Context(), id, meta)
	if err != nil {
		return nil, err
	}

	return httputil.Data(dto.ToUserResponse(user)), nil
}

// InGroup reports whether the user belongs to the group with the given slug.
func (h *UserHandler) InGroup(c *gin.Context) (*httputil.Outcome, error) {
	id, err := httputil.UUIDParam(c, "id")
	if err != nil {
		return nil, err
	}

	member, err := h.userUseCase.IsInGroup(c.Request.Context(), id, c.Param("slug"))
	if err != nil {
		return nil, err
	}

	return httputil.Data(member), nil
}

// ListGroups returns the groups the user belongs to.
func (h *UserHandler) ListGroups(c *gin.Context) (*httputil.Outcome, error) {
	id, err := httputil.UUIDParam(c, "id")
	if err != nil {
		return nil, err
	}

	groups, err := h.userUseCase.ListGroups(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}

	return httputil.Data(groupDto.ToGroupResponses(groups)), nil
}

// ListHelpItems returns the help items the user volunteered for.
func (h *UserHandler) ListHelpItems(c *gin.Context) (*httputil.Outcome, error) {
	id, err := httputil.UUIDParam(c, "id")
	if err != nil {
		return nil, err
	}

	filter, err := listFilterFromQuery(c)
	if err != nil {
		return nil, err
	}

	items, err := h.userUseCase.ListHelpItems(c.Request.Context(), id, filter)
	if err != nil {
		return nil, err
	}

	return httputil.Data(helpitemDto.ToHelpItemResponses(items)), nil
}

// ListHelpRequests returns the help items the user created.
func (h *UserHandler) ListHelpRequests(c *gin.Context) (*httputil.Outcome, error) {
	id, err := httputil.UUIDParam(c, "id")
	if err != nil {
		return nil, err
	}

	filter, err := listFilterFromQuery(c)
	if err != nil {
		return nil, err
	}

	items, err := h.userUseCase.ListHelpRequests(c.Request.Context(), id, filter)
	if err != nil {
		return nil, err
	}

	return httputil.Data(helpitemDto.ToHelpItemResponses(items)), nil
}

func listFilterFromQuery(c *gin.Context) (helpitemDomain.ListFilter, error) {
	return helpitemDomain.ParseListFilter(
		c.Query("done"),
		c.Query("after"),
		c.Query("limit"),
		time.Now(),
	)
}
