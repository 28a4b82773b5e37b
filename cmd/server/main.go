package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/sunbolsss/egfr-calculator/internal/api"
	"github.com/sunbolsss/egfr-calculator/internal/cache"
	"github.com/sunbolsss/egfr-calculator/internal/config"
	"github.com/sunbolsss/egfr-calculator/internal/domain"
	"github.com/sunbolsss/egfr-calculator/internal/service"
)

func main() {
	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger := newLogger(cfg.Logging)

	logger.WithFields(logrus.Fields{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Starting eGFR Calculator API server")

	// Create the result cache when enabled
	var results *cache.MemoryCache[*domain.EGFRResult]
	if cfg.Cache.Enabled {
		results, err = cache.NewMemoryCache[*domain.EGFRResult](cfg.Cache.MaxEntries, cfg.Cache.TTL)
		if err != nil {
			log.Fatalf("Failed to create result cache: %v", err)
		}
	}

	// Create calculator service and HTTP server
	calculator := service.NewCalculatorService(logger, results)
	server := api.NewServer(cfg, logger, calculator)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	// Start server
	if err := server.Start(ctx); err != nil {
		log.Fatalf("Server failed: %v", err)
	}

	logger.Info("Server stopped")
}

// newLogger builds the process logger from the logging configuration.
func newLogger(cfg domain.LoggingConfig) *logrus.Logger {
	logger := logrus.New()

	if cfg.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return logger
}
