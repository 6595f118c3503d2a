// Package usecase implements the help item business logic: the request
// lifecycle and the helper signups around it.
package usecase

import (
	"context"
	"time"

	validation "github.com/jellydator/validation"

	"github.com/google/uuid"

	"github.com/helperhq/helper/internal/helpitem/domain"
	"github.com/helperhq/helper/internal/metrics"
	appValidation "github.com/helperhq/helper/internal/validation"
)

// CreateHelpItemInput contains the input data for help item creation.
type CreateHelpItemInput struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	HelpType    string         `json:"help_type"`
	GroupID     uuid.UUID      `json:"group_id"`
	EndAt       *time.Time     `json:"end_at"`
	Meta        map[string]any `json:"meta"`
	Image       string         `json:"image"`
}

// UpdateHelpItemInput contains the mutable help item fields. Empty fields
// keep their current value and meta keys merge into the stored meta.
type UpdateHelpItemInput struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	HelpType    string         `json:"help_type"`
	EndAt       *time.Time     `json:"end_at"`
	Meta        map[string]any `json:"meta"`
	Image       string         `json:"image"`
}

// UseCase defines the interface for help item business logic operations.
type UseCase interface {
	Create(ctx context.Context, creatorID uuid.UUID, input CreateHelpItemInput) (*domain.HelpItem, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.HelpItem, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateHelpItemInput) (*domain.HelpItem, error)
	MarkDone(ctx context.Context, id uuid.UUID) (*domain.HelpItem, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AddHelper(ctx context.Context, itemID, userID uuid.UUID) error
	RemoveHelper(ctx context.Context, itemID, userID uuid.UUID) error
	ListHelpers(ctx context.Context, itemID uuid.UUID) ([]*domain.Helper, error)
}

// HelpItemRepository interface defines help item repository operations.
type HelpItemRepository interface {
	Create(ctx context.Context, item *domain.HelpItem) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.HelpItem, error)
	Update(ctx context.Context, item *domain.HelpItem) error
	Delete(ctx context.Context, id uuid.UUID) error
	AddHelper(ctx context.Context, itemID, userID uuid.UUID) (bool, error)
	RemoveHelper(ctx context.Context, itemID, userID uuid.UUID) error
	ListHelpers(ctx context.Context, itemID uuid.UUID) ([]*domain.Helper, error)
}

// HelpItemUseCase handles help item business logic.
type HelpItemUseCase struct {
	helpItemRepo HelpItemRepository
	metrics      metrics.BusinessMetrics
}

// NewHelpItemUseCase creates a new HelpItemUseCase.
func NewHelpItemUseCase(
	helpItemRepo HelpItemRepository,
	businessMetrics metrics.BusinessMetrics,
) UseCase {
	return &HelpItemUseCase{
		helpItemRepo: helpItemRepo,
		metrics:      businessMetrics,
	}
}

func validHelpType(value any) error {
	helpType, _ := value.(string)
	if helpType == "" {
		return nil
	}
	if !domain.HelpType(helpType).IsValid() {
		return validation.NewError(
			"validation_help_type",
			"must be one of financial, time or general",
		)
	}
	return nil
}

func (uc *HelpItemUseCase) validateCreateInput(input CreateHelpItemInput) error {
	err := validation.ValidateStruct(&input,
		validation.Field(&input.Title,
			validation.Required.Error("title is required"),
			appValidation.NotBlank,
		),
		validation.Field(&input.HelpType, validation.By(validHelpType)),
		validation.Field(&input.GroupID, validation.By(func(value any) error {
			if id, ok := value.(uuid.UUID); !ok || id == uuid.Nil {
				return validation.NewError("validation_required", "group_id is required")
			}
			return nil
		})),
	)
	return appValidation.WrapValidationError(err)
}

// Create inserts a new help item owned by the given creator. The help type
// defaults to general when omitted.
func (uc *HelpItemUseCase) Create(
	ctx context.Context,
	creatorID uuid.UUID,
	input CreateHelpItemInput,
) (*domain.HelpItem, error) {
	if err := uc.validateCreateInput(input); err != nil {
		return nil, err
	}

	helpType := domain.HelpType(input.HelpType)
	if helpType == "" {
		helpType = domain.HelpTypeGeneral
	}

	meta := input.Meta
	if meta == nil {
		meta = map[string]any{}
	}

	item := &domain.HelpItem{
		ID:        uuid.Must(uuid.NewV7()),
		Title:     input.Title,
		HelpType:  helpType,
		GroupID:   input.GroupID,
		CreatorID: creatorID,
		EndAt:     input.EndAt,
		Meta:      meta,
		CreatedAt: time.Now().UTC(),
	}
	if input.Description != "" {
		description := input.Description
		item.Description = &description
	}
	if input.Image != "" {
		image := input.Image
		item.Image = &image
	}

	if err := uc.helpItemRepo.Create(ctx, item); err != nil {
		return nil, err
	}

	uc.metrics.RecordOperation(ctx, "help_item", "help_item_create", "success")
	return item, nil
}

// GetByID retrieves a help item by id.
func (uc *HelpItemUseCase) GetByID(ctx context.Context, id uuid.UUID) (*domain.HelpItem, error) {
	return uc.helpItemRepo.GetByID(ctx, id)
}

func (uc *HelpItemUseCase) validateUpdateInput(input UpdateHelpItemInput) error {
	err := validation.ValidateStruct(&input,
		validation.Field(&input.HelpType, validation.By(validHelpType)),
	)
	return appValidation.WrapValidationError(err)
}

// Update applies the given fields to the help item.
func (uc *HelpItemUseCase) Update(
	ctx context.Context,
	id uuid.UUID,
	input UpdateHelpItemInput,
) (*domain.HelpItem, error) {
	if err := uc.validateUpdateInput(input); err != nil {
		return nil, err
	}

	item, err := uc.helpItemRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Title != "" {
		item.Title = input.Title
	}
	if input.Description != "" {
		description := input.Description
		item.Description = &description
	}
	if input.HelpType != "" {
		item.HelpType = domain.HelpType(input.HelpType)
	}
	if input.EndAt != nil {
		item.EndAt = input.EndAt
	}
	if input.Image != "" {
		image := input.Image
		item.Image = &image
	}
	if len(input.Meta) > 0 {
		if item.Meta == nil {
			item.Meta = map[string]any{}
		}
		for key, value := range input.Meta {
			item.Meta[key] = value
		}
	}

	if err := uc.helpItemRepo.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// MarkDone marks a help item as completed. Completing an already completed
// item succeeds.
func (uc *HelpItemUseCase) MarkDone(ctx context.Context, id uuid.UUID) (*domain.HelpItem, error) {
	item, err := uc.helpItemRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if item.Done {
		uc.metrics.RecordIdempotentNoop(ctx, "help_item_done")
		return item, nil
	}

	item.Done = true
	if err := uc.helpItemRepo.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// Delete removes a help item.
func (uc *HelpItemUseCase) Delete(ctx context.Context, id uuid.UUID) error {
	return uc.helpItemRepo.Delete(ctx, id)
}

// AddHelper signs a user up as a helper on an item. Repeating the signup
// succeeds and is recorded as an idempotent no-op.
func (uc *HelpItemUseCase) AddHelper(ctx context.Context, itemID, userID uuid.UUID) error {
	noop, err := uc.helpItemRepo.AddHelper(ctx, itemID, userID)
	if err != nil {
		return err
	}
	if noop {
		uc.metrics.RecordIdempotentNoop(ctx, "helpers")
	}
	return nil
}

// RemoveHelper withdraws a helper signup. Removing a non-helper succeeds.
func (uc *HelpItemUseCase) RemoveHelper(ctx context.Context, itemID, userID uuid.UUID) error {
	return uc.helpItemRepo.RemoveHelper(ctx, itemID, userID)
}

// ListHelpers returns the helpers signed up on an item.
func (uc *HelpItemUseCase) ListHelpers(
	ctx context.Context,
	itemID uuid.UUID,
) ([]*domain.Helper, error) {
	return uc.helpItemRepo.ListHelpers(ctx, itemID)
}
