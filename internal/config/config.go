package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/sunbolsss/egfr-calculator/internal/domain"
)

// Manager loads and validates application configuration using Viper
type Manager struct {
	config *domain.Config
}

// NewManager creates a new configuration manager
func NewManager() (*Manager, error) {
	m := &Manager{}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// loadConfig loads configuration from various sources
func (m *Manager) loadConfig() error {
	// Set configuration file name and paths
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/egfr-calculator/")

	// Set environment variable prefix and enable automatic env binding
	viper.SetEnvPrefix("EGFR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Set default values
	m.setDefaults()

	// Read configuration file (optional - will use defaults and env vars if not found)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using defaults and environment variables
	}

	// Unmarshal configuration into struct
	config := &domain.Config{}
	if err := viper.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.config = config
	return nil
}

// setDefaults sets default configuration values
func (m *Manager) setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")
	viper.SetDefault("server.tls_enabled", false)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output", "stdout")

	// Result cache defaults
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.max_entries", 1024)
	viper.SetDefault("cache.ttl", "15m")

	// Rate limit defaults
	viper.SetDefault("rate_limit.enabled", true)
	viper.SetDefault("rate_limit.requests_per_second", 20)
	viper.SetDefault("rate_limit.burst", 40)

	// MCP defaults
	viper.SetDefault("mcp.server_name", "egfr-calculator")
	viper.SetDefault("mcp.server_version", "v1.0.0")
	viper.SetDefault("mcp.transport_type", "stdio")
	viper.SetDefault("mcp.http_port", 8081)
	viper.SetDefault("mcp.http_host", "localhost")
	viper.SetDefault("mcp.max_clients", 100)
	viper.SetDefault("mcp.request_timeout", "30s")
	viper.SetDefault("mcp.enable_caching", true)
	viper.SetDefault("mcp.tool_cache_ttl", "5m")
}

// GetConfig returns the complete configuration
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// GetServerConfig returns server configuration
func (m *Manager) GetServerConfig() *domain.ServerConfig {
	return &m.config.Server
}

// GetMCPConfig returns MCP server configuration
func (m *Manager) GetMCPConfig() *domain.MCPConfig {
	return &m.config.MCP
}

// Reload reloads the configuration
func (m *Manager) Reload() error {
	return m.loadConfig()
}

// Validate validates the configuration
func (m *Manager) Validate() error {
	config := m.config

	// Validate server configuration
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}
	if config.Server.TLSEnabled {
		if config.Server.CertFile == "" || config.Server.KeyFile == "" {
			return fmt.Errorf("TLS enabled but cert_file or key_file is missing")
		}
	}

	// Validate cache configuration
	if config.Cache.Enabled {
		if config.Cache.MaxEntries <= 0 {
			return fmt.Errorf("cache max_entries must be positive: %d", config.Cache.MaxEntries)
		}
		if config.Cache.TTL <= 0 {
			return fmt.Errorf("cache ttl must be positive: %s", config.Cache.TTL)
		}
	}

	// Validate rate limit configuration
	if config.RateLimit.Enabled {
		if config.RateLimit.RequestsPerSecond <= 0 {
			return fmt.Errorf("rate limit requests_per_second must be positive: %f", config.RateLimit.RequestsPerSecond)
		}
		if config.RateLimit.Burst <= 0 {
			return fmt.Errorf("rate limit burst must be positive: %d", config.RateLimit.Burst)
		}
	}

	// Validate MCP configuration
	switch config.MCP.TransportType {
	case "stdio", "http", "websocket":
	default:
		return fmt.Errorf("invalid MCP transport type: %s", config.MCP.TransportType)
	}
	if config.MCP.TransportType != "stdio" {
		if config.MCP.HTTPPort <= 0 || config.MCP.HTTPPort > 65535 {
			return fmt.Errorf("invalid MCP HTTP port: %d", config.MCP.HTTPPort)
		}
	}

	// Validate logging configuration
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	return nil
}

// IsProduction returns true if running in production mode
func (m *Manager) IsProduction() bool {
	return strings.ToLower(viper.GetString("environment")) == "production"
}

// IsDevelopment returns true if running in development mode
func (m *Manager) IsDevelopment() bool {
	env := strings.ToLower(viper.GetString("environment"))
	return env == "development" || env == "dev" || env == ""
}
