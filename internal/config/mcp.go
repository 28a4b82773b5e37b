// Package config provides configuration management for the calculator
// binaries. This file contains the lightweight environment-driven
// configuration for the standalone MCP server.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/sunbolsss/egfr-calculator/internal/domain"
)

// MCPServerConfig is a simplified configuration for the standalone MCP
// server. It requires no config files and uses sensible defaults.
type MCPServerConfig struct {
	// Server identity
	ServerName    string
	ServerVersion string

	// Transport settings
	Transport string // Transport type: stdio, http, websocket
	HTTPPort  int    // HTTP port (if transport is http or websocket)
	HTTPHost  string // HTTP host (if transport is http or websocket)

	// Tool result cache
	CacheEnabled  bool
	CacheMaxItems int
	CacheTTL      time.Duration

	// Session limits
	MaxClients     int
	RequestTimeout time.Duration

	// Logging
	LogLevel  string // Log level: debug, info, warn, error
	LogFormat string // Log format: json, text
}

// DefaultMCPServerConfig returns a configuration with sensible defaults.
func DefaultMCPServerConfig() *MCPServerConfig {
	return &MCPServerConfig{
		ServerName:     "egfr-calculator",
		ServerVersion:  "v1.0.0",
		Transport:      "stdio",
		HTTPPort:       8081,
		HTTPHost:       "localhost",
		CacheEnabled:   true,
		CacheMaxItems:  1000,
		CacheTTL:       5 * time.Minute,
		MaxClients:     100,
		RequestTimeout: 30 * time.Second,
		LogLevel:       "info",
		LogFormat:      "json",
	}
}

// LoadMCPServerConfig loads configuration from environment variables.
// Falls back to defaults if not set.
func LoadMCPServerConfig() *MCPServerConfig {
	cfg := DefaultMCPServerConfig()

	// Transport
	if v := os.Getenv("EGFR_TRANSPORT"); v != "" {
		cfg.Transport = v
	}
	if v := os.Getenv("EGFR_HTTP_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HTTPPort = n
		}
	}
	if v := os.Getenv("EGFR_HTTP_HOST"); v != "" {
		cfg.HTTPHost = v
	}

	// Cache settings
	if v := os.Getenv("EGFR_CACHE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.CacheEnabled = b
		}
	}
	if v := os.Getenv("EGFR_CACHE_MAX_ITEMS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CacheMaxItems = n
		}
	}
	if v := os.Getenv("EGFR_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.CacheTTL = d
		}
	}

	// Session limits
	if v := os.Getenv("EGFR_MAX_CLIENTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxClients = n
		}
	}
	if v := os.Getenv("EGFR_REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RequestTimeout = d
		}
	}

	// Logging
	if v := os.Getenv("EGFR_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("EGFR_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}

	return cfg
}

// MCPConfig converts the lite configuration into the domain MCP config
// consumed by the transport manager.
func (c *MCPServerConfig) MCPConfig() *domain.MCPConfig {
	return &domain.MCPConfig{
		ServerName:     c.ServerName,
		ServerVersion:  c.ServerVersion,
		TransportType:  c.Transport,
		HTTPPort:       c.HTTPPort,
		HTTPHost:       c.HTTPHost,
		MaxClients:     c.MaxClients,
		RequestTimeout: c.RequestTimeout,
		EnableCaching:  c.CacheEnabled,
		ToolCacheTTL:   c.CacheTTL,
	}
}
