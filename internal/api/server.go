package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/sunbolsss/egfr-calculator/internal/domain"
	"github.com/sunbolsss/egfr-calculator/internal/middleware"
	"github.com/sunbolsss/egfr-calculator/internal/service"
)

// Server represents the HTTP server
type Server struct {
	config     *domain.Config
	logger     *logrus.Logger
	calculator *service.CalculatorService
	router     *gin.Engine
	server     *http.Server
}

// NewServer creates a new HTTP server instance
func NewServer(cfg *domain.Config, logger *logrus.Logger, calculator *service.CalculatorService) *Server {
	// Set Gin mode based on environment
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.AuditLogger())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORS())
	router.Use(middleware.RateLimit(cfg.RateLimit))

	server := &Server{
		config:     cfg,
		logger:     logger,
		calculator: calculator,
		router:     router,
	}

	// Setup routes
	server.setupRoutes()

	return server
}

// Start starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.config.Server
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithFields(logrus.Fields{
			"address": addr,
		}).Info("HTTP server listening")

		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.logger.Info("HTTP server shutting down")
	return s.server.Shutdown(shutdownCtx)
}

// Router exposes the configured handler, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.GET("/health", s.handleHealth)

	// API v1 routes
	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/calculations", s.handleCalculate)
		v1.POST("/validations", s.handleValidate)
		v1.POST("/reports", s.handleReport)
		v1.GET("/reference/stages", s.handleReferenceStages)
		v1.GET("/reference/formulas", s.handleReferenceFormulas)
	}
}
