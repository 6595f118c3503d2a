// Package http assembles the HTTP server: routing, middleware and the
// authorization gates in front of the mutating routes.
package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"

	authHTTP "github.com/helperhq/helper/internal/auth/http"
	authService "github.com/helperhq/helper/internal/auth/service"
	authUseCase "github.com/helperhq/helper/internal/auth/usecase"
	"github.com/helperhq/helper/internal/config"
	groupHTTP "github.com/helperhq/helper/internal/group/http"
	helpitemHTTP "github.com/helperhq/helper/internal/helpitem/http"
	"github.com/helperhq/helper/internal/httputil"
	"github.com/helperhq/helper/internal/metrics"
	userHTTP "github.com/helperhq/helper/internal/user/http"
)

// Dependencies carries the handlers and services the router needs.
type Dependencies struct {
	UserHandler     *userHTTP.UserHandler
	GroupHandler    *groupHTTP.GroupHandler
	HelpItemHandler *helpitemHTTP.HelpItemHandler

	TokenService    authService.TokenService
	IdentityChecker authHTTP.IdentityChecker
	Authorizer      authUseCase.Authorizer

	// MeterProvider is optional; nil disables HTTP metrics collection.
	MeterProvider metric.MeterProvider
}

// Server represents the HTTP API server.
type Server struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB
	server *http.Server
}

// NewServer creates a new Server with the full route table wired.
func NewServer(
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
	deps Dependencies,
) *Server {
	s := &Server{
		config: cfg,
		logger: logger,
		db:     db,
	}

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:      s.buildRouter(deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the configured http.Handler, used by tests to drive the
// full middleware and route stack without a listener.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

func (s *Server) buildRouter(deps Dependencies) *gin.Engine {
	gin.SetMode(s.config.GetGinMode())

	router := gin.New()
	router.Use(RecoveryMiddleware(s.logger))
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if corsMiddleware := createCORSMiddleware(
		s.config.CORSEnabled, s.config.CORSAllowOrigins, s.logger,
	); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if deps.MeterProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(deps.MeterProvider, s.config.MetricsNamespace))
	}

	// Every request carries a resolved identity, anonymous included. The
	// gates below are the only places a request is rejected.
	tokenSource := authHTTP.NewTokenSource(s.config)
	router.Use(authHTTP.ResolveIdentity(tokenSource, deps.TokenService, deps.IdentityChecker, s.logger))

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	s.registerUserRoutes(router, deps)
	s.registerGroupRoutes(router, deps)
	s.registerHelpItemRoutes(router, deps)

	return router
}

func (s *Server) registerUserRoutes(router *gin.Engine, deps Dependencies) {
	handle := func(fn httputil.HandlerFunc) gin.HandlerFunc {
		return httputil.Handle(s.logger, fn)
	}

	router.POST("/users", handle(deps.UserHandler.Register))

	authenticate := []gin.HandlerFunc{}
	if s.config.RateLimitAuthEnabled {
		authenticate = append(authenticate, AuthRateLimitMiddleware(
			s.config.RateLimitAuthRequestsPerSec,
			s.config.RateLimitAuthBurst,
			s.logger,
		))
	}
	authenticate = append(authenticate, handle(deps.UserHandler.Authenticate))
	router.POST("/users/authenticate", authenticate...)

	router.GET("/users/:id", handle(deps.UserHandler.GetByID))
	router.GET("/users/by-email/:email", handle(deps.UserHandler.GetByEmail))
	router.PATCH("/users/:id", handle(deps.UserHandler.Update))
	router.PATCH("/users/:id/meta", handle(deps.UserHandler.UpdateMeta))
	router.GET("/users/:id/in-group/:slug", handle(deps.UserHandler.InGroup))
	router.GET("/users/:id/groups", handle(deps.UserHandler.ListGroups))
	router.GET("/users/:id/help-items", handle(deps.UserHandler.ListHelpItems))
	router.GET("/users/:id/help-requests", handle(deps.UserHandler.ListHelpRequests))
}

func (s *Server) registerGroupRoutes(router *gin.Engine, deps Dependencies) {
	handle := func(fn httputil.HandlerFunc) gin.HandlerFunc {
		return httputil.Handle(s.logger, fn)
	}
	gate := func(verb string) gin.HandlerFunc {
		return authHTTP.RequireAction(deps.Authorizer, groupAction(verb), s.logger)
	}

	router.POST("/groups", handle(deps.GroupHandler.Create))
	router.POST("/groups/request-demo", handle(deps.GroupHandler.RequestDemo))
	router.GET("/groups/:id", handle(deps.GroupHandler.GetByID))
	router.GET("/groups/slug/:slug", handle(deps.GroupHandler.GetBySlug))
	router.GET("/groups/:id/members", handle(deps.GroupHandler.ListMembers))
	router.GET("/groups/:id/help-items", handle(deps.GroupHandler.ListHelpItems))

	router.POST("/groups/:id/add-member/:user_id",
		gate("ADD_MEMBER"), handle(deps.GroupHandler.AddMember))
	router.POST("/groups/:id/remove-member/:user_id",
		gate("REMOVE_MEMBER"), handle(deps.GroupHandler.RemoveMember))
	router.POST("/groups/:id/request-access/:user_id/:sponsor_id",
		handle(deps.GroupHandler.RequestAccess))
	router.PATCH("/groups/:id",
		gate("UPDATE"), handle(deps.GroupHandler.Update))
	router.DELETE("/groups/:id",
		gate("DELETE"), handle(deps.GroupHandler.Delete))
}

func (s *Server) registerHelpItemRoutes(router *gin.Engine, deps Dependencies) {
	handle := func(fn httputil.HandlerFunc) gin.HandlerFunc {
		return httputil.Handle(s.logger, fn)
	}
	authenticated := authHTTP.MustBeAuthenticated(s.logger)
	gate := func(verb string) gin.HandlerFunc {
		return authHTTP.RequireAction(deps.Authorizer, helpItemAction(verb), s.logger)
	}

	router.GET("/help-items/:id", handle(deps.HelpItemHandler.GetByID))
	router.GET("/help-items/:id/helpers", handle(deps.HelpItemHandler.ListHelpers))

	router.POST("/help-items",
		authenticated,
		authHTTP.RequireAction(deps.Authorizer, staticAction("HELP_ITEM::CREATE"), s.logger),
		handle(deps.HelpItemHandler.Create))
	router.POST("/help-items/:id/done",
		authenticated, gate("COMPLETE"), handle(deps.HelpItemHandler.MarkDone))
	router.POST("/help-items/:id/add-helper/:user_id",
		authenticated, gate("ADD_HELPER"), handle(deps.HelpItemHandler.AddHelper))
	router.POST("/help-items/:id/remove-helper/:user_id",
		authenticated, gate("REMOVE_HELPER"), handle(deps.HelpItemHandler.RemoveHelper))
	router.PATCH("/help-items/:id",
		authenticated, gate("UPDATE_ITEM"), handle(deps.HelpItemHandler.Update))
	router.DELETE("/help-items/:id",
		authenticated, gate("DELETE"), handle(deps.HelpItemHandler.Delete))
}

// groupAction builds the descriptor for a group-scoped action from the
// route's id parameter.
func groupAction(verb string) authHTTP.DescriptorFunc {
	return func(c *gin.Context) string {
		return "GROUP::" + c.Param("id") + "::" + verb
	}
}

// helpItemAction builds the descriptor for a help-item-scoped action.
func helpItemAction(verb string) authHTTP.DescriptorFunc {
	return func(c *gin.Context) string {
		return "HELP_ITEM::" + c.Param("id") + "::" + verb
	}
}

// staticAction returns the same descriptor for every request.
func staticAction(descriptor string) authHTTP.DescriptorFunc {
	return func(c *gin.Context) string {
		return descriptor
	}
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) readinessHandler(c *gin.Context) {
	components := gin.H{"database": "ok"}

	if s.db == nil {
		components["database"] = "error"
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": components,
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		components["database"] = "error"
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": components,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ready",
		"components": components,
	})
}
