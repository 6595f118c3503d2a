// Package usecase implements the user business logic: registration,
// authentication and the user-centric listings.
package usecase

import (
	"context"
	"strings"
	"time"

	validation "github.com/jellydator/validation"

	"github.com/allisson/go-pwdhash"
	"github.com/google/uuid"

	authDomain "github.com/helperhq/helper/internal/auth/domain"
	authService "github.com/helperhq/helper/internal/auth/service"
	"github.com/helperhq/helper/internal/database"
	apperrors "github.com/helperhq/helper/internal/errors"
	groupDomain "github.com/helperhq/helper/internal/group/domain"
	helpitemDomain "github.com/helperhq/helper/internal/helpitem/domain"
	"github.com/helperhq/helper/internal/metrics"
	"github.com/helperhq/helper/internal/user/domain"
	appValidation "github.com/helperhq/helper/internal/validation"
)

// RegisterInput contains the input data for user registration.
type RegisterInput struct {
	Email         string `json:"email"`
	Password      string `json:"password"`
	ReferralEmail string `json:"referral_email"`
}

// AuthenticateInput contains the credentials for token issuance.
type AuthenticateInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateInput contains the mutable account fields. An empty password keeps
// the current one.
type UpdateInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UseCase defines the interface for user business logic operations.
type UseCase interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	Authenticate(ctx context.Context, input AuthenticateInput) (string, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*domain.User, error)
	UpdateMeta(ctx context.Context, id uuid.UUID, meta map[string]any) (*domain.User, error)
	IsInGroup(ctx context.Context, id uuid.UUID, slug string) (bool, error)
	ListGroups(ctx context.Context, id uuid.UUID) ([]*groupDomain.Group, error)
	ListHelpItems(ctx context.Context, id uuid.UUID, filter helpitemDomain.ListFilter) ([]*helpitemDomain.HelpItem, error)
	ListHelpRequests(ctx context.Context, id uuid.UUID, filter helpitemDomain.ListFilter) ([]*helpitemDomain.HelpItem, error)
}

// UserRepository interface defines user repository operations.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	Update(ctx context.Context, user *domain.User) error
	IsMemberOf(ctx context.Context, userID, groupID uuid.UUID) (bool, error)
	ListGroups(ctx context.Context, userID uuid.UUID) ([]*groupDomain.Group, error)
}

// GroupRepository defines the group lookups the user flows need.
type GroupRepository interface {
	GetBySlug(ctx context.Context, slug string) (*groupDomain.Group, error)
}

// HelpItemRepository defines the help item listings the user flows need.
type HelpItemRepository interface {
	ListForHelper(ctx context.Context, userID uuid.UUID, filter helpitemDomain.ListFilter) ([]*helpitemDomain.HelpItem, error)
	ListByCreator(ctx context.Context, userID uuid.UUID, filter helpitemDomain.ListFilter) ([]*helpitemDomain.HelpItem, error)
}

// badCredentials deliberately does not say which of the two was wrong.
func badCredentials() error {
	return apperrors.Validation("Bad password or email. Please change your input and try again.")
}

// UserUseCase handles user-related business logic.
type UserUseCase struct {
	txManager      database.TxManager
	userRepo       UserRepository
	groupRepo      GroupRepository
	helpItemRepo   HelpItemRepository
	tokenService   authService.TokenService
	passwordHasher *pwdhash.PasswordHasher
	metrics        metrics.BusinessMetrics
}

// NewUserUseCase creates a new UserUseCase.
func NewUserUseCase(
	txManager database.TxManager,
	userRepo UserRepository,
	groupRepo GroupRepository,
	helpItemRepo HelpItemRepository,
	tokenService authService.TokenService,
	businessMetrics metrics.BusinessMetrics,
) (UseCase, error) {
	hasher, err := pwdhash.New(pwdhash.WithPolicy(pwdhash.PolicyInteractive))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create password hasher")
	}

	return &UserUseCase{
		txManager:      txManager,
		userRepo:       userRepo,
		groupRepo:      groupRepo,
		helpItemRepo:   helpItemRepo,
		tokenService:   tokenService,
		passwordHasher: hasher,
		metrics:        businessMetrics,
	}, nil
}

func (uc *UserUseCase) validateRegisterInput(input RegisterInput) error {
	err := validation.ValidateStruct(&input,
		validation.Field(&input.Email,
			validation.Required.Error("email is required"),
			appValidation.NotBlank,
			appValidation.Email,
		),
		validation.Field(&input.Password,
			validation.Required.Error("password is required"),
			validation.Length(6, 128).Error("password must be between 6 and 128 characters"),
		),
		validation.Field(&input.ReferralEmail,
			appValidation.Email,
		),
	)
	return appValidation.WrapValidationError(err)
}

// Register creates a new account with a hashed password.
func (uc *UserUseCase) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	if err := uc.validateRegisterInput(input); err != nil {
		return nil, err
	}

	hashedPassword, err := uc.passwordHasher.Hash([]byte(input.Password))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to hash password")
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:        uuid.Must(uuid.NewV7()),
		Email:     normalizeEmail(input.Email),
		Password:  hashedPassword,
		Meta:      map[string]any{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if input.ReferralEmail != "" {
		referral := normalizeEmail(input.ReferralEmail)
		user.ReferralEmail = &referral
	}

	err = uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		return uc.userRepo.Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	uc.metrics.RecordOperation(ctx, "user", "user_register", "success")
	return user, nil
}

func (uc *UserUseCase) validateAuthenticateInput(input AuthenticateInput) error {
	err := validation.ValidateStruct(&input,
		validation.Field(&input.Email,
			validation.Required.Error("email is required"),
			appValidation.Email,
		),
		validation.Field(&input.Password,
			validation.Required.Error("password is required"),
			validation.Length(6, 128).Error("password must be between 6 and 128 characters"),
		),
	)
	return appValidation.WrapValidationError(err)
}

// Authenticate verifies credentials and issues a signed token. Unknown email
// and wrong password produce the same client error.
func (uc *UserUseCase) Authenticate(ctx context.Context, input AuthenticateInput) (string, error) {
	if err := uc.validateAuthenticateInput(input); err != nil {
		return "", err
	}

	user, err := uc.userRepo.GetByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindNotFound {
			return "", badCredentials()
		}
		return "", err
	}

	match, err := uc.passwordHasher.Verify([]byte(input.Password), user.Password)
	if err != nil || !match {
		return "", badCredentials()
	}

	token, err := uc.tokenService.Issue(authDomainSnapshot(user))
	if err != nil {
		return "", err
	}

	uc.metrics.RecordOperation(ctx, "auth", "token_issued", "success")
	return token, nil
}

// GetByID retrieves a user by id.
func (uc *UserUseCase) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return uc.userRepo.GetByID(ctx, id)
}

// GetByEmail retrieves a user by email.
func (uc *UserUseCase) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return uc.userRepo.GetByEmail(ctx, normalizeEmail(email))
}

// Exists reports whether the user id resolves to an account. The identity
// resolver uses this to drop tokens for deleted accounts.
func (uc *UserUseCase) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return uc.userRepo.Exists(ctx, id)
}

func (uc *UserUseCase) validateUpdateInput(input UpdateInput) error {
	err := validation.ValidateStruct(&input,
		validation.Field(&input.Email,
			validation.Required.Error("email is required"),
			appValidation.Email,
		),
		validation.Field(&input.Password,
			validation.Length(6, 128).Error("password must be between 6 and 128 characters"),
		),
	)
	return appValidation.WrapValidationError(err)
}

// Update changes the account email and, when given, rehashes the password.
func (uc *UserUseCase) Update(
	ctx context.Context,
	id uuid.UUID,
	input UpdateInput,
) (*domain.User, error) {
	if err := uc.validateUpdateInput(input); err != nil {
		return nil, err
	}

	user, err := uc.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Email = normalizeEmail(input.Email)
	if input.Password != "" {
		hashedPassword, err := uc.passwordHasher.Hash([]byte(input.Password))
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to hash password")
		}
		user.Password = hashedPassword
	}
	user.UpdatedAt = time.Now().UTC()

	if err := uc.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateMeta shallow-merges the given keys into the user's meta document.
// Existing keys not named in the input are kept.
func (uc *UserUseCase) UpdateMeta(
	ctx context.Context,
	id uuid.UUID,
	meta map[string]any,
) (*domain.User, error) {
	user, err := uc.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if user.Meta == nil {
		user.Meta = map[string]any{}
	}
	for key, value := range meta {
		user.Meta[key] = value
	}
	user.UpdatedAt = time.Now().UTC()

	if err := uc.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// IsInGroup reports whether the user belongs to the group with the given
// slug. A missing group reports false instead of an error.
func (uc *UserUseCase) IsInGroup(ctx context.Context, id uuid.UUID, slug string) (bool, error) {
	group, err := uc.groupRepo.GetBySlug(ctx, slug)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindNotFound {
			return false, nil
		}
		return false, err
	}
	return uc.userRepo.IsMemberOf(ctx, id, group.ID)
}

// ListGroups returns the groups the user is a member of.
func (uc *UserUseCase) ListGroups(ctx context.Context, id uuid.UUID) ([]*groupDomain.Group, error) {
	return uc.userRepo.ListGroups(ctx, id)
}

// ListHelpItems returns the help items the user volunteered on.
func (uc *UserUseCase) ListHelpItems(
	ctx context.Context,
	id uuid.UUID,
	filter helpitemDomain.ListFilter,
) ([]*helpitemDomain.HelpItem, error) {
	return uc.helpItemRepo.ListForHelper(ctx, id, filter)
}

// ListHelpRequests returns the help items the user created.
func (uc *UserUseCase) ListHelpRequests(
	ctx context.Context,
	id uuid.UUID,
	filter helpitemDomain.ListFilter,
) ([]*helpitemDomain.HelpItem, error) {
	return uc.helpItemRepo.ListByCreator(ctx, id, filter)
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

func authDomainSnapshot(user *domain.User) authDomain.Snapshot {
	return authDomain.Snapshot{ID: user.ID.String(), Email: user.Email}
}
