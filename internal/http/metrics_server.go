package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/helperhq/helper/internal/config"
	"github.com/helperhq/helper/internal/metrics"
)

// MetricsServer serves the Prometheus scrape endpoint on its own port so
// the metrics surface is never exposed through the public API listener.
type MetricsServer struct {
	config   *config.Config
	logger   *slog.Logger
	provider *metrics.Provider
	server   *http.Server
}

// NewMetricsServer creates a new MetricsServer.
func NewMetricsServer(cfg *config.Config, logger *slog.Logger, provider *metrics.Provider) *MetricsServer {
	s := &MetricsServer{
		config:   cfg,
		logger:   logger,
		provider: provider,
	}

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.MetricsPort),
		Handler:      s.buildRouter(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *MetricsServer) buildRouter() *gin.Engine {
	gin.SetMode(s.config.GetGinMode())

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(CustomLoggerMiddleware(s.logger))
	router.GET("/metrics", gin.WrapH(s.provider.Handler()))

	return router
}

// Handler returns the configured http.Handler, used by tests.
func (s *MetricsServer) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the metrics server and blocks until it stops.
func (s *MetricsServer) Start(ctx context.Context) error {
	s.logger.Info("starting metrics server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the metrics server.
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down metrics server")
	return s.server.Shutdown(ctx)
}
