package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	authDomain "github.com/helperhq/helper/internal/auth/domain"
	authService "github.com/helperhq/helper/internal/auth/service"
	"github.com/helperhq/helper/internal/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockIdentityChecker is a mock implementation of IdentityChecker for testing.
type mockIdentityChecker struct {
	mock.Mock
}

func (m *mockIdentityChecker) Exists(ctx context.Context, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

// mockAuthorizer is a mock implementation of usecase.Authorizer for testing.
type mockAuthorizer struct {
	mock.Mock
}

func (m *mockAuthorizer) CanPerform(
	ctx context.Context,
	identity authDomain.Identity,
	descriptor string,
) (bool, error) {
	args := m.Called(ctx, identity, descriptor)
	return args.Bool(0), args.Error(1)
}

// identityRouter wires the resolver plus a probe endpoint echoing the
// resolved identity id.
func identityRouter(source TokenSource, tokens authService.TokenService, checker IdentityChecker) *gin.Engine {
	router := gin.New()
	router.Use(ResolveIdentity(source, tokens, checker, testLogger()))
	router.GET("/whoami", func(c *gin.Context) {
		identity := IdentityFrom(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"id": identity.ID.String(), "anonymous": identity.IsAnonymous()})
	})
	return router
}

func TestResolveIdentity(t *testing.T) {
	tokens := authService.NewTokenService("test-secret", 24*time.Hour)
	userID := uuid.Must(uuid.NewV7())
	identity := authDomain.Identity{ID: userID, Email: "alice@example.com"}

	validToken, err := tokens.Issue(identity.Snapshot())
	require.NoError(t, err)

	t.Run("Success_ValidHeaderToken", func(t *testing.T) {
		checker := &mockIdentityChecker{}
		checker.On("Exists", mock.Anything, userID).Return(true, nil)
		router := identityRouter(HeaderTokenSource(), tokens, checker)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer "+validToken)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), userID.String())
		assert.Contains(t, w.Body.String(), `"anonymous":false`)
	})

	t.Run("Anonymous_MissingToken", func(t *testing.T) {
		checker := &mockIdentityChecker{}
		router := identityRouter(HeaderTokenSource(), tokens, checker)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"anonymous":true`)
		checker.AssertNotCalled(t, "Exists")
	})

	t.Run("Anonymous_MalformedHeader", func(t *testing.T) {
		checker := &mockIdentityChecker{}
		router := identityRouter(HeaderTokenSource(), tokens, checker)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Token "+validToken)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"anonymous":true`)
	})

	t.Run("Anonymous_InvalidToken", func(t *testing.T) {
		checker := &mockIdentityChecker{}
		router := identityRouter(HeaderTokenSource(), tokens, checker)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"anonymous":true`)
	})

	t.Run("Anonymous_UnknownUser", func(t *testing.T) {
		checker := &mockIdentityChecker{}
		checker.On("Exists", mock.Anything, userID).Return(false, nil)
		router := identityRouter(HeaderTokenSource(), tokens, checker)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer "+validToken)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"anonymous":true`)
	})

	t.Run("Anonymous_ExistenceCheckFailure", func(t *testing.T) {
		checker := &mockIdentityChecker{}
		checker.On("Exists", mock.Anything, userID).Return(false, errors.New("connection refused"))
		router := identityRouter(HeaderTokenSource(), tokens, checker)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer "+validToken)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"anonymous":true`)
	})

	t.Run("Success_CookieToken", func(t *testing.T) {
		checker := &mockIdentityChecker{}
		checker.On("Exists", mock.Anything, userID).Return(true, nil)
		router := identityRouter(CookieTokenSource("helper_session"), tokens, checker)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.AddCookie(&http.Cookie{Name: "helper_session", Value: validToken})
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"anonymous":false`)
	})

	t.Run("Anonymous_CookieSourceIgnoresHeader", func(t *testing.T) {
		checker := &mockIdentityChecker{}
		router := identityRouter(CookieTokenSource("helper_session"), tokens, checker)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer "+validToken)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"anonymous":true`)
	})
}

func TestNewTokenSource(t *testing.T) {
	tokens := authService.NewTokenService("test-secret", time.Hour)
	userID := uuid.Must(uuid.NewV7())
	token, err := tokens.Issue(authDomain.Identity{ID: userID}.Snapshot())
	require.NoError(t, err)

	t.Run("HeaderSource", func(t *testing.T) {
		source := NewTokenSource(&config.Config{AuthTokenSource: config.TokenSourceHeader})

		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		c.Request.Header.Set("Authorization", "Bearer "+token)

		assert.Equal(t, token, source(c))
	})

	t.Run("CookieSource", func(t *testing.T) {
		source := NewTokenSource(&config.Config{
			AuthTokenSource: config.TokenSourceCookie,
			AuthCookieName:  "helper_session",
		})

		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		c.Request.AddCookie(&http.Cookie{Name: "helper_session", Value: token})

		assert.Equal(t, token, source(c))
	})
}

func TestMustBeAuthenticated(t *testing.T) {
	userID := uuid.Must(uuid.NewV7())

	newRouter := func(identity authDomain.Identity) *gin.Engine {
		router := gin.New()
		router.Use(func(c *gin.Context) {
			c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), identity))
		})
		router.Use(MustBeAuthenticated(testLogger()))
		router.GET("/protected", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"ok": true})
		})
		return router
	}

	t.Run("Allowed_Authenticated", func(t *testing.T) {
		router := newRouter(authDomain.Identity{ID: userID})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Denied_Anonymous", func(t *testing.T) {
		router := newRouter(authDomain.Anonymous)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "not authorized")
	})
}

func TestRequireAction(t *testing.T) {
	userID := uuid.Must(uuid.NewV7())
	identity := authDomain.Identity{ID: userID}

	newRouter := func(authorizer *mockAuthorizer) *gin.Engine {
		router := gin.New()
		router.Use(func(c *gin.Context) {
			c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), identity))
		})
		router.DELETE("/groups/:id",
			RequireAction(authorizer, func(c *gin.Context) string {
				return "GROUP::" + c.Param("id") + "::DELETE"
			}, testLogger()),
			func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"ok": true})
			},
		)
		return router
	}

	t.Run("Allowed", func(t *testing.T) {
		authorizer := &mockAuthorizer{}
		authorizer.On("CanPerform", mock.Anything, identity, "GROUP::g1::DELETE").Return(true, nil)
		router := newRouter(authorizer)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/groups/g1", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		authorizer.AssertExpectations(t)
	})

	t.Run("Denied", func(t *testing.T) {
		authorizer := &mockAuthorizer{}
		authorizer.On("CanPerform", mock.Anything, identity, "GROUP::g1::DELETE").Return(false, nil)
		router := newRouter(authorizer)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/groups/g1", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Error_EvaluatorFailure", func(t *testing.T) {
		authorizer := &mockAuthorizer{}
		authorizer.On("CanPerform", mock.Anything, identity, "GROUP::g1::DELETE").
			Return(false, errors.New("connection refused"))
		router := newRouter(authorizer)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/groups/g1", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
