// Package usecase implements the group business logic: group lifecycle,
// membership and the request flows that feed it.
package usecase

import (
	"context"
	"strings"
	"time"

	validation "github.com/jellydator/validation"

	"github.com/google/uuid"

	apperrors "github.com/helperhq/helper/internal/errors"
	"github.com/helperhq/helper/internal/group/domain"
	helpitemDomain "github.com/helperhq/helper/internal/helpitem/domain"
	"github.com/helperhq/helper/internal/metrics"
	appValidation "github.com/helperhq/helper/internal/validation"
)

// GroupMetaInput carries the optional contact details of a group profile.
type GroupMetaInput struct {
	Avatar  string `json:"avatar"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// CreateGroupInput contains the input data for group creation.
type CreateGroupInput struct {
	Slug        string         `json:"slug"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Meta        GroupMetaInput `json:"meta"`
}

// UpdateGroupInput contains the mutable group fields. Contact fields merge
// into the stored meta; empty fields keep their current value.
type UpdateGroupInput struct {
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Avatar      string `json:"avatar"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
}

// UseCase defines the interface for group business logic operations.
type UseCase interface {
	Create(ctx context.Context, input CreateGroupInput) (*domain.Group, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Group, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Group, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateGroupInput) (*domain.Group, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListMembers(ctx context.Context, id uuid.UUID) ([]*domain.Member, error)
	ListHelpItems(ctx context.Context, id uuid.UUID) ([]*helpitemDomain.HelpItem, error)
	AddMember(ctx context.Context, groupID, userID uuid.UUID) error
	RemoveMember(ctx context.Context, groupID, userID uuid.UUID) error
	RequestAccess(ctx context.Context, groupID, userID, sponsorID uuid.UUID) error
	RequestDemo(ctx context.Context, email string) error
}

// GroupRepository interface defines group repository operations.
type GroupRepository interface {
	Create(ctx context.Context, group *domain.Group) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Group, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Group, error)
	Update(ctx context.Context, group *domain.Group) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListMembers(ctx context.Context, groupID uuid.UUID) ([]*domain.Member, error)
	AddMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error)
	RemoveMember(ctx context.Context, groupID, userID uuid.UUID) error
	CreateJoinRequest(ctx context.Context, request *domain.JoinRequest) (bool, error)
	CreateDemoRequest(ctx context.Context, email string) (bool, error)
}

// HelpItemRepository defines the help item listings the group flows need.
type HelpItemRepository interface {
	ListByGroup(ctx context.Context, groupID uuid.UUID) ([]*helpitemDomain.HelpItem, error)
}

// GroupUseCase handles group-related business logic.
type GroupUseCase struct {
	groupRepo    GroupRepository
	helpItemRepo HelpItemRepository
	metrics      metrics.BusinessMetrics
}

// NewGroupUseCase creates a new GroupUseCase.
func NewGroupUseCase(
	groupRepo GroupRepository,
	helpItemRepo HelpItemRepository,
	businessMetrics metrics.BusinessMetrics,
) UseCase {
	return &GroupUseCase{
		groupRepo:    groupRepo,
		helpItemRepo: helpItemRepo,
		metrics:      businessMetrics,
	}
}

func (uc *GroupUseCase) validateCreateInput(input CreateGroupInput) error {
	err := validation.ValidateStruct(&input,
		validation.Field(&input.Name,
			validation.Required.Error("name is required"),
			appValidation.NotBlank,
		),
		validation.Field(&input.Slug,
			validation.Required.Error("slug is required"),
			appValidation.Slug,
		),
		validation.Field(&input.Meta),
	)
	return appValidation.WrapValidationError(err)
}

// Validate checks the optional contact fields of a meta input.
func (i GroupMetaInput) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Email, appValidation.Email),
	)
}

// Create inserts a new group.
func (uc *GroupUseCase) Create(ctx context.Context, input CreateGroupInput) (*domain.Group, error) {
	if err := uc.validateCreateInput(input); err != nil {
		return nil, err
	}

	group := &domain.Group{
		ID:   uuid.Must(uuid.NewV7()),
		Slug: strings.TrimSpace(input.Slug),
		Name: strings.TrimSpace(input.Name),
		Meta: domain.GroupMeta{
			Avatar:  input.Meta.Avatar,
			Email:   input.Meta.Email,
			Phone:   input.Meta.Phone,
			Address: input.Meta.Address,
		},
		CreatedAt: time.Now().UTC(),
	}
	if input.Description != "" {
		description := input.Description
		group.Description = &description
	}

	if err := uc.groupRepo.Create(ctx, group); err != nil {
		return nil, err
	}

	uc.metrics.RecordOperation(ctx, "group", "group_create", "success")
	return group, nil
}

// GetByID retrieves a group by id.
func (uc *GroupUseCase) GetByID(ctx context.Context, id uuid.UUID) (*domain.Group, error) {
	return uc.groupRepo.GetByID(ctx, id)
}

// GetBySlug retrieves a group by slug.
func (uc *GroupUseCase) GetBySlug(ctx context.Context, slug string) (*domain.Group, error) {
	return uc.groupRepo.GetBySlug(ctx, slug)
}

func (uc *GroupUseCase) validateUpdateInput(input UpdateGroupInput) error {
	err := validation.ValidateStruct(&input,
		validation.Field(&input.Slug, appValidation.Slug),
		validation.Field(&input.Email, appValidation.Email),
	)
	return appValidation.WrapValidationError(err)
}

// Update applies the given fields to the group. Contact fields merge into
// the stored meta one key at a time.
func (uc *GroupUseCase) Update(
	ctx context.Context,
	id uuid.UUID,
	input UpdateGroupInput,
) (*domain.Group, error) {
	if err := uc.validateUpdateInput(input); err != nil {
		return nil, err
	}

	group, err := uc.groupRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Slug != "" {
		group.Slug = input.Slug
	}
	if input.Name != "" {
		group.Name = input.Name
	}
	if input.Description != "" {
		description := input.Description
		group.Description = &description
	}
	if input.Avatar != "" {
		group.Meta.Avatar = input.Avatar
	}
	if input.Email != "" {
		group.Meta.Email = input.Email
	}
	if input.Phone != "" {
		group.Meta.Phone = input.Phone
	}
	if input.Address != "" {
		group.Meta.Address = input.Address
	}

	if err := uc.groupRepo.Update(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

// Delete removes a group.
func (uc *GroupUseCase) Delete(ctx context.Context, id uuid.UUID) error {
	return uc.groupRepo.Delete(ctx, id)
}

// ListMembers returns the members of a group.
func (uc *GroupUseCase) ListMembers(ctx context.Context, id uuid.UUID) ([]*domain.Member, error) {
	return uc.groupRepo.ListMembers(ctx, id)
}

// ListHelpItems returns the help items posted in a group.
func (uc *GroupUseCase) ListHelpItems(
	ctx context.Context,
	id uuid.UUID,
) ([]*helpitemDomain.HelpItem, error) {
	return uc.helpItemRepo.ListByGroup(ctx, id)
}

// AddMember adds a user to a group. Adding an existing member succeeds and
// is recorded as an idempotent no-op.
func (uc *GroupUseCase) AddMember(ctx context.Context, groupID, userID uuid.UUID) error {
	noop, err := uc.groupRepo.AddMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if noop {
		uc.metrics.RecordIdempotentNoop(ctx, "user_groups")
	}
	return nil
}

// RemoveMember removes a user from a group. Removing a non-member succeeds.
func (uc *GroupUseCase) RemoveMember(ctx context.Context, groupID, userID uuid.UUID) error {
	return uc.groupRepo.RemoveMember(ctx, groupID, userID)
}

// RequestAccess records a sponsored join request. Repeating the request
// succeeds and is recorded as an idempotent no-op.
func (uc *GroupUseCase) RequestAccess(
	ctx context.Context,
	groupID, userID, sponsorID uuid.UUID,
) error {
	noop, err := uc.groupRepo.CreateJoinRequest(ctx, &domain.JoinRequest{
		GroupID:   groupID,
		UserID:    userID,
		SponsorID: sponsorID,
	})
	if err != nil {
		return err
	}
	if noop {
		uc.metrics.RecordIdempotentNoop(ctx, "group_join_requests")
	}
	return nil
}

// RequestDemo records interest in starting a new group. Repeating the
// request succeeds and is recorded as an idempotent no-op.
func (uc *GroupUseCase) RequestDemo(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	err := validation.Validate(email,
		validation.Required.Error("email is required"),
		appValidation.Email,
	)
	if err != nil {
		return apperrors.Validation("email " + err.Error())
	}

	noop, err := uc.groupRepo.CreateDemoRequest(ctx, email)
	if err != nil {
		return err
	}
	if noop {
		uc.metrics.RecordIdempotentNoop(ctx, "new_group_requests")
	}
	return nil
}
