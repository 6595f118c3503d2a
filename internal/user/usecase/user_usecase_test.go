package usecase

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	authDomain "github.com/helperhq/helper/internal/auth/domain"
	apperrors "github.com/helperhq/helper/internal/errors"
	groupDomain "github.com/helperhq/helper/internal/group/domain"
	helpitemDomain "github.com/helperhq/helper/internal/helpitem/domain"
	"github.com/helperhq/helper/internal/metrics"
	"github.com/helperhq/helper/internal/user/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockUserRepository) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) IsMemberOf(ctx context.Context, userID, groupID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, groupID)
	return args.Bool(0), args.Error(1)
}

func (m *mockUserRepository) ListGroups(ctx context.Context, userID uuid.UUID) ([]*groupDomain.Group, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*groupDomain.Group), args.Error(1)
}

type mockGroupRepository struct {
	mock.Mock
}

func (m *mockGroupRepository) GetBySlug(ctx context.Context, slug string) (*groupDomain.Group, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*groupDomain.Group), args.Error(1)
}

type mockHelpItemRepository struct {
	mock.Mock
}

func (m *mockHelpItemRepository) ListForHelper(
	ctx context.Context,
	userID uuid.UUID,
	filter helpitemDomain.ListFilter,
) ([]*helpitemDomain.HelpItem, error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*helpitemDomain.HelpItem), args.Error(1)
}

func (m *mockHelpItemRepository) ListByCreator(
	ctx context.Context,
	userID uuid.UUID,
	filter helpitemDomain.ListFilter,
) ([]*helpitemDomain.HelpItem, error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*helpitemDomain.HelpItem), args.Error(1)
}

type mockTokenService struct {
	mock.Mock
}

func (m *mockTokenService) Issue(snapshot authDomain.Snapshot) (string, error) {
	args := m.Called(snapshot)
	return args.String(0), args.Error(1)
}

func (m *mockTokenService) Verify(token string) (authDomain.Snapshot, error) {
	args := m.Called(token)
	return args.Get(0).(authDomain.Snapshot), args.Error(1)
}

type stubTxManager struct{}

func (stubTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type userFixture struct {
	useCase      *UserUseCase
	userRepo     *mockUserRepository
	groupRepo    *mockGroupRepository
	helpItemRepo *mockHelpItemRepository
	tokenService *mockTokenService
}

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()
	userRepo := &mockUserRepository{}
	groupRepo := &mockGroupRepository{}
	helpItemRepo := &mockHelpItemRepository{}
	tokenService := &mockTokenService{}

	uc, err := NewUserUseCase(
		stubTxManager{}, userRepo, groupRepo, helpItemRepo,
		tokenService, metrics.NewNoOpBusinessMetrics(),
	)
	require.NoError(t, err)

	return &userFixture{
		useCase:      uc.(*UserUseCase),
		userRepo:     userRepo,
		groupRepo:    groupRepo,
		helpItemRepo: helpItemRepo,
		tokenService: tokenService,
	}
}

func TestUserUseCase_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_RegisterUser", func(t *testing.T) {
		f := newUserFixture(t)
		f.userRepo.On("Create", mock.Anything, mock.MatchedBy(func(user *domain.User) bool {
			return user.Email == "alice@example.com" &&
				user.Password != "secret-pass" &&
				user.ReferralEmail == nil
		})).Return(nil).Once()

		user, err := f.useCase.Register(ctx, RegisterInput{
			Email:    " Alice@Example.com ",
			Password: "secret-pass",
		})

		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", user.Email)
		assert.NotEmpty(t, user.Password)

		match, err := f.useCase.passwordHasher.Verify([]byte("secret-pass"), user.Password)
		require.NoError(t, err)
		assert.True(t, match)
		f.userRepo.AssertExpectations(t)
	})

	t.Run("Success_WithReferralEmail", func(t *testing.T) {
		f := newUserFixture(t)
		f.userRepo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

		user, err := f.useCase.Register(ctx, RegisterInput{
			Email:         "bob@example.com",
			Password:      "secret-pass",
			ReferralEmail: "Alice@Example.com",
		})

		require.NoError(t, err)
		require.NotNil(t, user.ReferralEmail)
		assert.Equal(t, "alice@example.com", *user.ReferralEmail)
	})

	t.Run("Error_InvalidEmail", func(t *testing.T) {
		f := newUserFixture(t)

		user, err := f.useCase.Register(ctx, RegisterInput{
			Email:    "not-an-email",
			Password: "secret-pass",
		})

		require.Error(t, err)
		assert.Nil(t, user)
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
		f.userRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Error_ShortPassword", func(t *testing.T) {
		f := newUserFixture(t)

		_, err := f.useCase.Register(ctx, RegisterInput{
			Email:    "alice@example.com",
			Password: "short",
		})

		require.Error(t, err)
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	})

	t.Run("Error_DuplicateEmailPassesThrough", func(t *testing.T) {
		f := newUserFixture(t)
		conflict := apperrors.Conflict(`The email "alice@example.com" already has an account. Please change your query or try to log in instead.`)
		f.userRepo.On("Create", mock.Anything, mock.Anything).Return(conflict).Once()

		_, err := f.useCase.Register(ctx, RegisterInput{
			Email:    "alice@example.com",
			Password: "secret-pass",
		})

		require.Error(t, err)
		assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
	})
}

func TestUserUseCase_Authenticate(t *testing.T) {
	ctx := context.Background()

	hashedUser := func(t *testing.T, f *userFixture, password string) *domain.User {
		t.Helper()
		hash, err := f.useCase.passwordHasher.Hash([]byte(password))
		require.NoError(t, err)
		return &domain.User{
			ID:       uuid.Must(uuid.NewV7()),
			Email:    "alice@example.com",
			Password: hash,
		}
	}

	t.Run("Success_IssuesToken", func(t *testing.T) {
		f := newUserFixture(t)
		user := hashedUser(t, f, "secret-pass")
		f.userRepo.On("GetByEmail", mock.Anything, "alice@example.com").Return(user, nil).Once()
		f.tokenService.On("Issue", authDomain.Snapshot{
			ID:    user.ID.String(),
			Email: user.Email,
		}).Return("signed-token", nil).Once()

		token, err := f.useCase.Authenticate(ctx, AuthenticateInput{
			Email:    "alice@example.com",
			Password: "secret-pass",
		})

		require.NoError(t, err)
		assert.Equal(t, "signed-token", token)
		f.tokenService.AssertExpectations(t)
	})

	t.Run("Error_WrongPassword", func(t *testing.T) {
		f := newUserFixture(t)
		user := hashedUser(t, f, "secret-pass")
		f.userRepo.On("GetByEmail", mock.Anything, "alice@example.com").Return(user, nil).Once()

		token, err := f.useCase.Authenticate(ctx, AuthenticateInput{
			Email:    "alice@example.com",
			Password: "wrong-pass",
		})

		require.Error(t, err)
		assert.Empty(t, token)
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
		assert.Equal(
			t,
			"Bad password or email. Please change your input and try again.",
			apperrors.ClientMessage(err),
		)
		f.tokenService.AssertNotCalled(t, "Issue", mock.Anything)
	})

	t.Run("Error_UnknownEmailLooksLikeWrongPassword", func(t *testing.T) {
		f := newUserFixture(t)
		f.userRepo.On("GetByEmail", mock.Anything, "ghost@example.com").
			Return(nil, apperrors.ResourceNotFound("User", "ghost@example.com")).Once()

		_, err := f.useCase.Authenticate(ctx, AuthenticateInput{
			Email:    "ghost@example.com",
			Password: "secret-pass",
		})

		require.Error(t, err)
		assert.Equal(
			t,
			"Bad password or email. Please change your input and try again.",
			apperrors.ClientMessage(err),
		)
	})

	t.Run("Error_MissingPassword", func(t *testing.T) {
		f := newUserFixture(t)

		_, err := f.useCase.Authenticate(ctx, AuthenticateInput{Email: "alice@example.com"})

		require.Error(t, err)
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
		f.userRepo.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
	})
}

func TestUserUseCase_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_RehashesProvidedPassword", func(t *testing.T) {
		f := newUserFixture(t)
		userID := uuid.Must(uuid.NewV7())
		existing := &domain.User{ID: userID, Email: "alice@example.com", Password: "old-hash"}
		f.userRepo.On("GetByID", mock.Anything, userID).Return(existing, nil).Once()
		f.userRepo.On("Update", mock.Anything, mock.Anything).Return(nil).Once()

		user, err := f.useCase.Update(ctx, userID, UpdateInput{
			Email:    "alice@example.com",
			Password: "new-secret",
		})

		require.NoError(t, err)
		match, err := f.useCase.passwordHasher.Verify([]byte("new-secret"), user.Password)
		require.NoError(t, err)
		assert.True(t, match)
	})

	t.Run("Success_EmptyPasswordKeepsCurrentHash", func(t *testing.T) {
		f := newUserFixture(t)
		userID := uuid.Must(uuid.NewV7())
		existing := &domain.User{ID: userID, Email: "alice@example.com", Password: "old-hash"}
		f.userRepo.On("GetByID", mock.Anything, userID).Return(existing, nil).Once()
		f.userRepo.On("Update", mock.Anything, mock.Anything).Return(nil).Once()

		user, err := f.useCase.Update(ctx, userID, UpdateInput{Email: "new@example.com"})

		require.NoError(t, err)
		assert.Equal(t, "old-hash", user.Password)
		assert.Equal(t, "new@example.com", user.Email)
	})

	t.Run("Error_UserNotFound", func(t *testing.T) {
		f := newUserFixture(t)
		userID := uuid.Must(uuid.NewV7())
		f.userRepo.On("GetByID", mock.Anything, userID).
			Return(nil, apperrors.ResourceNotFound("User", userID.String())).Once()

		_, err := f.useCase.Update(ctx, userID, UpdateInput{Email: "alice@example.com"})

		require.Error(t, err)
		assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
		f.userRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestUserUseCase_UpdateMeta(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_ShallowMergeKeepsUnnamedKeys", func(t *testing.T) {
		f := newUserFixture(t)
		userID := uuid.Must(uuid.NewV7())
		existing := &domain.User{
			ID:    userID,
			Email: "alice@example.com",
			Meta:  map[string]any{"phone": "555-1234", "avatar": "old.png"},
		}
		f.userRepo.On("GetByID", mock.Anything, userID).Return(existing, nil).Once()
		f.userRepo.On("Update", mock.Anything, mock.Anything).Return(nil).Once()

		user, err := f.useCase.UpdateMeta(ctx, userID, map[string]any{
			"avatar":  "new.png",
			"address": "12 Elm St",
		})

		require.NoError(t, err)
		assert.Equal(t, map[string]any{
			"phone":   "555-1234",
			"avatar":  "new.png",
			"address": "12 Elm St",
		}, user.Meta)
	})

	t.Run("Success_NilMetaStartsEmpty", func(t *testing.T) {
		f := newUserFixture(t)
		userID := uuid.Must(uuid.NewV7())
		existing := &domain.User{ID: userID, Email: "alice@example.com"}
		f.userRepo.On("GetByID", mock.Anything, userID).Return(existing, nil).Once()
		f.userRepo.On("Update", mock.Anything, mock.Anything).Return(nil).Once()

		user, err := f.useCase.UpdateMeta(ctx, userID, map[string]any{"phone": "555-1234"})

		require.NoError(t, err)
		assert.Equal(t, map[string]any{"phone": "555-1234"}, user.Meta)
	})
}

func TestUserUseCase_IsInGroup(t *testing.T) {
	ctx := context.Background()
	userID := uuid.Must(uuid.NewV7())

	t.Run("Success_Member", func(t *testing.T) {
		f := newUserFixture(t)
		group := &groupDomain.Group{ID: uuid.Must(uuid.NewV7()), Slug: "elm-street"}
		f.groupRepo.On("GetBySlug", mock.Anything, "elm-street").Return(group, nil).Once()
		f.userRepo.On("IsMemberOf", mock.Anything, userID, group.ID).Return(true, nil).Once()

		member, err := f.useCase.IsInGroup(ctx, userID, "elm-street")

		require.NoError(t, err)
		assert.True(t, member)
	})

	t.Run("Success_MissingGroupIsFalse", func(t *testing.T) {
		f := newUserFixture(t)
		f.groupRepo.On("GetBySlug", mock.Anything, "missing").
			Return(nil, apperrors.ResourceNotFound("Group", "missing")).Once()

		member, err := f.useCase.IsInGroup(ctx, userID, "missing")

		require.NoError(t, err)
		assert.False(t, member)
		f.userRepo.AssertNotCalled(t, "IsMemberOf", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestUserUseCase_ListHelpItems(t *testing.T) {
	ctx := context.Background()
	userID := uuid.Must(uuid.NewV7())

	t.Run("Success_DelegatesFilter", func(t *testing.T) {
		f := newUserFixture(t)
		filter := helpitemDomain.ListFilter{Done: true, Limit: 5}
		items := []*helpitemDomain.HelpItem{{ID: uuid.Must(uuid.NewV7()), Title: "Groceries run"}}
		f.helpItemRepo.On("ListForHelper", mock.Anything, userID, filter).Return(items, nil).Once()

		got, err := f.useCase.ListHelpItems(ctx, userID, filter)

		require.NoError(t, err)
		assert.Equal(t, items, got)
	})
}
