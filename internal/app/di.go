// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	authRepository "github.com/helperhq/helper/internal/auth/repository"
	authService "github.com/helperhq/helper/internal/auth/service"
	authUsecase "github.com/helperhq/helper/internal/auth/usecase"
	"github.com/helperhq/helper/internal/config"
	"github.com/helperhq/helper/internal/database"
	groupHTTP "github.com/helperhq/helper/internal/group/http"
	groupRepository "github.com/helperhq/helper/internal/group/repository"
	groupUsecase "github.com/helperhq/helper/internal/group/usecase"
	helpitemHTTP "github.com/helperhq/helper/internal/helpitem/http"
	helpitemRepository "github.com/helperhq/helper/internal/helpitem/repository"
	helpitemUsecase "github.com/helperhq/helper/internal/helpitem/usecase"
	"github.com/helperhq/helper/internal/http"
	"github.com/helperhq/helper/internal/metrics"
	userHTTP "github.com/helperhq/helper/internal/user/http"
	userRepository "github.com/helperhq/helper/internal/user/repository"
	userUsecase "github.com/helperhq/helper/internal/user/usecase"
)

// helpItemRepository is the union of the help item data access the use
// cases and the cross-domain listings need. Both driver implementations
// satisfy it.
type helpItemRepository interface {
	helpitemUsecase.HelpItemRepository
	groupUsecase.HelpItemRepository
	userUsecase.HelpItemRepository
}

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger          *slog.Logger
	db              *sql.DB
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Managers
	txManager database.TxManager

	// Repositories
	userRepo     userUsecase.UserRepository
	groupRepo    groupUsecase.GroupRepository
	helpItemRepo helpItemRepository
	roleRepo     authUsecase.RoleRepository

	// Services
	tokenService authService.TokenService
	authorizer   authUsecase.Authorizer

	// Use Cases
	userUseCase     userUsecase.UseCase
	groupUseCase    groupUsecase.UseCase
	helpItemUseCase helpitemUsecase.UseCase
	roleUseCase     authUsecase.RoleUseCase

	// Servers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                  sync.Mutex
	loggerInit          sync.Once
	dbInit              sync.Once
	metricsProviderInit sync.Once
	businessMetricsInit sync.Once
	txManagerInit       sync.Once
	userRepoInit        sync.Once
	groupRepoInit       sync.Once
	helpItemRepoInit    sync.Once
	roleRepoInit        sync.Once
	tokenServiceInit    sync.Once
	authorizerInit      sync.Once
	userUseCaseInit     sync.Once
	groupUseCaseInit    sync.Once
	helpItemUseCaseInit sync.Once
	roleUseCaseInit     sync.Once
	httpServerInit      sync.Once
	metricsServerInit   sync.Once
	initErrors          map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection.
// It creates and configures the database connection on first access.
func (c *Container) DB() (*sql.DB, error) {
	c.dbInit.Do(func() {
		db, err := c.initDB()
		if err != nil {
			c.initErrors["db"] = err
			return
		}
		c.db = db
	})
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// MetricsProvider returns the metrics provider, nil when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	c.metricsProviderInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		provider, err := metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metricsProvider"] = fmt.Errorf("failed to create metrics provider: %w", err)
			return
		}
		c.metricsProvider = provider
	})
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder. A no-op recorder
// is returned when metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	c.businessMetricsInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["businessMetrics"] = err
			return
		}
		if provider == nil {
			c.businessMetrics = metrics.NewNoOpBusinessMetrics()
			return
		}
		businessMetrics, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["businessMetrics"] = fmt.Errorf("failed to create business metrics: %w", err)
			return
		}
		c.businessMetrics = businessMetrics
	})
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// TxManager returns the transaction manager.
// It requires a database connection to be initialized first.
func (c *Container) TxManager() (database.TxManager, error) {
	c.txManagerInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["txManager"] = fmt.Errorf("failed to get database for tx manager: %w", err)
			return
		}
		c.txManager = database.NewTxManager(db)
	})
	if storedErr, exists := c.initErrors["txManager"]; exists {
		return nil, storedErr
	}
	return c.txManager, nil
}

// UserRepository returns the user repository instance.
func (c *Container) UserRepository() (userUsecase.UserRepository, error) {
	c.userRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["userRepo"] = fmt.Errorf("failed to get database for user repository: %w", err)
			return
		}
		switch c.config.DBDriver {
		case database.DriverMySQL:
			c.userRepo = userRepository.NewMySQLUserRepository(db)
		case database.DriverPostgres:
			c.userRepo = userRepository.NewPostgreSQLUserRepository(db)
		default:
			c.initErrors["userRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if storedErr, exists := c.initErrors["userRepo"]; exists {
		return nil, storedErr
	}
	return c.userRepo, nil
}

// GroupRepository returns the group repository instance.
func (c *Container) GroupRepository() (groupUsecase.GroupRepository, error) {
	c.groupRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["groupRepo"] = fmt.Errorf("failed to get database for group repository: %w", err)
			return
		}
		switch c.config.DBDriver {
		case database.DriverMySQL:
			c.groupRepo = groupRepository.NewMySQLGroupRepository(db)
		case database.DriverPostgres:
			c.groupRepo = groupRepository.NewPostgreSQLGroupRepository(db)
		default:
			c.initErrors["groupRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if storedErr, exists := c.initErrors["groupRepo"]; exists {
		return nil, storedErr
	}
	return c.groupRepo, nil
}

// HelpItemRepository returns the help item repository instance.
func (c *Container) HelpItemRepository() (helpItemRepository, error) {
	c.helpItemRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["helpItemRepo"] = fmt.Errorf("failed to get database for help item repository: %w", err)
			return
		}
		switch c.config.DBDriver {
		case database.DriverMySQL:
			c.helpItemRepo = helpitemRepository.NewMySQLHelpItemRepository(db)
		case database.DriverPostgres:
			c.helpItemRepo = helpitemRepository.NewPostgreSQLHelpItemRepository(db)
		default:
			c.initErrors["helpItemRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if storedErr, exists := c.initErrors["helpItemRepo"]; exists {
		return nil, storedErr
	}
	return c.helpItemRepo, nil
}

// RoleRepository returns the role repository instance.
func (c *Container) RoleRepository() (authUsecase.RoleRepository, error) {
	c.roleRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["roleRepo"] = fmt.Errorf("failed to get database for role repository: %w", err)
			return
		}
		switch c.config.DBDriver {
		case database.DriverMySQL:
			c.roleRepo = authRepository.NewMySQLRoleRepository(db)
		case database.DriverPostgres:
			c.roleRepo = authRepository.NewPostgreSQLRoleRepository(db)
		default:
			c.initErrors["roleRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if storedErr, exists := c.initErrors["roleRepo"]; exists {
		return nil, storedErr
	}
	return c.roleRepo, nil
}

// TokenService returns the token service instance.
func (c *Container) TokenService() authService.TokenService {
	c.tokenServiceInit.Do(func() {
		c.tokenService = authService.NewTokenService(
			c.config.AuthTokenSecret,
			c.config.AuthTokenExpiration,
		)
	})
	return c.tokenService
}

// Authorizer returns the authorizer instance.
func (c *Container) Authorizer() (authUsecase.Authorizer, error) {
	c.authorizerInit.Do(func() {
		roleRepo, err := c.RoleRepository()
		if err != nil {
			c.initErrors["authorizer"] = fmt.Errorf("failed to get role repository for authorizer: %w", err)
			return
		}
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["authorizer"] = fmt.Errorf("failed to get business metrics for authorizer: %w", err)
			return
		}
		c.authorizer = authUsecase.NewAuthorizerWithMetrics(
			authUsecase.NewAuthorizer(roleRepo),
			businessMetrics,
		)
	})
	if storedErr, exists := c.initErrors["authorizer"]; exists {
		return nil, storedErr
	}
	return c.authorizer, nil
}

// RoleUseCase returns the role use case instance.
func (c *Container) RoleUseCase() (authUsecase.RoleUseCase, error) {
	c.roleUseCaseInit.Do(func() {
		roleRepo, err := c.RoleRepository()
		if err != nil {
			c.initErrors["roleUseCase"] = fmt.Errorf("failed to get role repository for role use case: %w", err)
			return
		}
		c.roleUseCase = authUsecase.NewRoleUseCase(roleRepo)
	})
	if storedErr, exists := c.initErrors["roleUseCase"]; exists {
		return nil, storedErr
	}
	return c.roleUseCase, nil
}

// UserUseCase returns the user use case instance.
func (c *Container) UserUseCase() (userUsecase.UseCase, error) {
	c.userUseCaseInit.Do(func() {
		useCase, err := c.initUserUseCase()
		if err != nil {
			c.initErrors["userUseCase"] = err
			return
		}
		c.userUseCase = useCase
	})
	if storedErr, exists := c.initErrors["userUseCase"]; exists {
		return nil, storedErr
	}
	return c.userUseCase, nil
}

// GroupUseCase returns the group use case instance.
func (c *Container) GroupUseCase() (groupUsecase.UseCase, error) {
	c.groupUseCaseInit.Do(func() {
		groupRepo, err := c.GroupRepository()
		if err != nil {
			c.initErrors["groupUseCase"] = fmt.Errorf("failed to get group repository for group use case: %w", err)
			return
		}
		helpItemRepo, err := c.HelpItemRepository()
		if err != nil {
			c.initErrors["groupUseCase"] = fmt.Errorf("failed to get help item repository for group use case: %w", err)
			return
		}
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["groupUseCase"] = fmt.Errorf("failed to get business metrics for group use case: %w", err)
			return
		}
		c.groupUseCase = groupUsecase.NewGroupUseCase(groupRepo, helpItemRepo, businessMetrics)
	})
	if storedErr, exists := c.initErrors["groupUseCase"]; exists {
		return nil, storedErr
	}
	return c.groupUseCase, nil
}

// HelpItemUseCase returns the help item use case instance.
func (c *Container) HelpItemUseCase() (helpitemUsecase.UseCase, error) {
	c.helpItemUseCaseInit.Do(func() {
		helpItemRepo, err := c.HelpItemRepository()
		if err != nil {
			c.initErrors["helpItemUseCase"] = fmt.Errorf("failed to get help item repository for help item use case: %w", err)
			return
		}
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["helpItemUseCase"] = fmt.Errorf("failed to get business metrics for help item use case: %w", err)
			return
		}
		c.helpItemUseCase = helpitemUsecase.NewHelpItemUseCase(helpItemRepo, businessMetrics)
	})
	if storedErr, exists := c.initErrors["helpItemUseCase"]; exists {
		return nil, storedErr
	}
	return c.helpItemUseCase, nil
}

// HTTPServer returns the HTTP server instance.
func (c *Container) HTTPServer() (*http.Server, error) {
	c.httpServerInit.Do(func() {
		server, err := c.initHTTPServer()
		if err != nil {
			c.initErrors["httpServer"] = err
			return
		}
		c.httpServer = server
	})
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the metrics server instance, nil when metrics are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	c.metricsServerInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["metricsServer"] = err
			return
		}
		if provider == nil {
			return
		}
		c.metricsServer = http.NewMetricsServer(c.config, c.Logger(), provider)
	})
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initDB creates and configures the database connection.
func (c *Container) initDB() (*sql.DB, error) {
	db, err := database.Connect(database.Config{
		Driver:             c.config.DBDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// initUserUseCase creates the user use case with all its dependencies.
func (c *Container) initUserUseCase() (userUsecase.UseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for user use case: %w", err)
	}

	userRepo, err := c.UserRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get user repository for user use case: %w", err)
	}

	groupRepo, err := c.GroupRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get group repository for user use case: %w", err)
	}

	helpItemRepo, err := c.HelpItemRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get help item repository for user use case: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for user use case: %w", err)
	}

	useCase, err := userUsecase.NewUserUseCase(
		txManager,
		userRepo,
		groupRepo,
		helpItemRepo,
		c.TokenService(),
		businessMetrics,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user use case: %w", err)
	}

	return useCase, nil
}

// initHTTPServer creates the HTTP server with all its dependencies.
func (c *Container) initHTTPServer() (*http.Server, error) {
	logger := c.Logger()

	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for http server: %w", err)
	}

	userUseCase, err := c.UserUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get user use case for http server: %w", err)
	}

	groupUseCase, err := c.GroupUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get group use case for http server: %w", err)
	}

	helpItemUseCase, err := c.HelpItemUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get help item use case for http server: %w", err)
	}

	userRepo, err := c.UserRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get user repository for http server: %w", err)
	}

	authorizer, err := c.Authorizer()
	if err != nil {
		return nil, fmt.Errorf("failed to get authorizer for http server: %w", err)
	}

	deps := http.Dependencies{
		UserHandler:     userHTTP.NewUserHandler(userUseCase),
		GroupHandler:    groupHTTP.NewGroupHandler(groupUseCase),
		HelpItemHandler: helpitemHTTP.NewHelpItemHandler(helpItemUseCase),
		TokenService:    c.TokenService(),
		IdentityChecker: userRepo,
		Authorizer:      authorizer,
	}

	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
	}
	if provider != nil {
		deps.MeterProvider = provider.MeterProvider()
	}

	return http.NewServer(c.config, logger, db, deps), nil
}
