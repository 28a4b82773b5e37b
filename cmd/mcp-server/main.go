// Package main provides the entry point for the eGFR Calculator MCP Server.
// The server requires no external services - all state lives in bounded
// in-memory caches.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sunbolsss/egfr-calculator/internal/config"
	"github.com/sunbolsss/egfr-calculator/internal/mcp"
)

func main() {
	// Load configuration from environment variables
	cfg := config.LoadMCPServerConfig()

	log.Printf("Starting eGFR Calculator MCP Server with transport: %s", cfg.Transport)

	// Create MCP server
	server, err := mcp.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create MCP server: %v", err)
	}
	defer server.Close()

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	// Start MCP server
	if err := server.Start(ctx); err != nil {
		log.Fatalf("MCP server failed: %v", err)
	}

	log.Println("eGFR Calculator MCP Server stopped")
}
