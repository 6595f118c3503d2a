package http

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	authDomain "github.com/helperhq/helper/internal/auth/domain"
	authService "github.com/helperhq/helper/internal/auth/service"
	authUseCase "github.com/helperhq/helper/internal/auth/usecase"
	"github.com/helperhq/helper/internal/config"
	apperrors "github.com/helperhq/helper/internal/errors"
	"github.com/helperhq/helper/internal/httputil"
)

// IdentityChecker reports whether an identity id still refers to an existing
// user. The resolver uses it so tokens for deleted users degrade to anonymous.
type IdentityChecker interface {
	Exists(ctx context.Context, userID uuid.UUID) (bool, error)
}

// TokenSource extracts the raw bearer token from a request. It returns an
// empty string when the request carries none.
type TokenSource func(c *gin.Context) string

// HeaderTokenSource reads the token from the Authorization header,
// case-insensitive "Bearer <token>".
func HeaderTokenSource() TokenSource {
	return func(c *gin.Context) string {
		authHeader := c.GetHeader("Authorization")
		const bearerPrefix = "bearer "
		if len(authHeader) < len(bearerPrefix) ||
			!strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
			return ""
		}
		return authHeader[len(bearerPrefix):]
	}
}

// CookieTokenSource reads the token from the named cookie.
func CookieTokenSource(name string) TokenSource {
	return func(c *gin.Context) string {
		token, err := c.Cookie(name)
		if err != nil {
			return ""
		}
		return token
	}
}

// NewTokenSource selects the token source for the configured deployment.
// Exactly one source is consulted per request.
func NewTokenSource(cfg *config.Config) TokenSource {
	if cfg.AuthTokenSource == config.TokenSourceCookie {
		return CookieTokenSource(cfg.AuthCookieName)
	}
	return HeaderTokenSource()
}

// ResolveIdentity is the soft authentication middleware. It attaches the
// resolved identity to the request context and never rejects a request:
// absent, malformed, expired or unknown-user tokens all resolve to the
// anonymous identity. Only explicit gates further down deny access.
func ResolveIdentity(
	source TokenSource,
	tokenService authService.TokenService,
	checker IdentityChecker,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := resolve(c, source, tokenService, checker, logger)

		ctx := WithIdentity(c.Request.Context(), identity)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func resolve(
	c *gin.Context,
	source TokenSource,
	tokenService authService.TokenService,
	checker IdentityChecker,
	logger *slog.Logger,
) authDomain.Identity {
	token := source(c)
	if token == "" {
		return authDomain.Anonymous
	}

	snapshot, err := tokenService.Verify(token)
	if err != nil {
		logger.Debug("identity resolution: invalid token", slog.Any("error", err))
		return authDomain.Anonymous
	}

	identity, err := authDomain.IdentityFromSnapshot(snapshot)
	if err != nil {
		logger.Debug("identity resolution: bad snapshot", slog.Any("error", err))
		return authDomain.Anonymous
	}

	exists, err := checker.Exists(c.Request.Context(), identity.ID)
	if err != nil {
		logger.Warn("identity resolution: existence check failed", slog.Any("error", err))
		return authDomain.Anonymous
	}
	if !exists {
		logger.Debug("identity resolution: unknown user",
			slog.String("user_id", identity.ID.String()))
		return authDomain.Anonymous
	}

	return identity
}

// MustBeAuthenticated is the gate rejecting anonymous callers with 401.
// It runs after ResolveIdentity.
func MustBeAuthenticated(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if IdentityFrom(c.Request.Context()).IsAnonymous() {
			httputil.AbortWithError(c, apperrors.NotAuthorized(), logger)
			return
		}
		c.Next()
	}
}

// DescriptorFunc builds the action descriptor for a request, typically from
// route parameters (e.g. "GROUP::" + c.Param("id") + "::DELETE").
type DescriptorFunc func(c *gin.Context) string

// RequireAction gates a route on an authorization decision. Denials render
// 401; only evaluator infrastructure failures render 500.
func RequireAction(
	authorizer authUseCase.Authorizer,
	descriptor DescriptorFunc,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := IdentityFrom(c.Request.Context())

		allowed, err := authorizer.CanPerform(c.Request.Context(), identity, descriptor(c))
		if err != nil {
			httputil.AbortWithError(c, err, logger)
			return
		}
		if !allowed {
			httputil.AbortWithError(c, apperrors.NotAuthorized(), logger)
			return
		}

		c.Next()
	}
}
