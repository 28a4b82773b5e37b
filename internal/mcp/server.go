// Package mcp provides the MCP server implementation. The server exposes
// the eGFR calculation tools and clinical reference resources over any of
// the supported transports without external dependencies.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/sunbolsss/egfr-calculator/internal/cache"
	"github.com/sunbolsss/egfr-calculator/internal/config"
	"github.com/sunbolsss/egfr-calculator/internal/domain"
	"github.com/sunbolsss/egfr-calculator/internal/mcp/protocol"
	"github.com/sunbolsss/egfr-calculator/internal/mcp/resources"
	"github.com/sunbolsss/egfr-calculator/internal/mcp/tools"
	"github.com/sunbolsss/egfr-calculator/internal/mcp/transport"
	"github.com/sunbolsss/egfr-calculator/internal/service"
)

// Server is the standalone eGFR calculator MCP server. It wires the
// calculation service, tool registry, and reference resources to the MCP
// SDK over an auto-detected transport.
type Server struct {
	config          *config.MCPServerConfig
	mcpServer       *mcp.Server
	transportMgr    *transport.Manager
	activeTransport transport.Transport
	toolRegistry    *tools.ToolRegistry
	resourceMgr     *resources.ResourceManager
	results         *cache.MemoryCache[*domain.EGFRResult]
	logger          *logrus.Logger
}

// ServerOption is a functional option for Server.
type ServerOption func(*Server) error

// WithLogger sets a custom logger.
func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.logger = logger
		return nil
	}
}

// NewServer creates a new MCP server instance. It requires no external
// services; state lives in bounded in-memory caches.
func NewServer(cfg *config.MCPServerConfig, opts ...ServerOption) (*Server, error) {
	// Create server with default logger
	server := &Server{
		config: cfg,
		logger: logrus.New(),
	}

	// Configure default logger
	if cfg.LogFormat == "text" {
		server.logger.SetFormatter(&logrus.TextFormatter{})
	} else {
		server.logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, _ := logrus.ParseLevel(cfg.LogLevel)
	server.logger.SetLevel(level)

	// Apply options
	for _, opt := range opts {
		if err := opt(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	// Initialize the result cache when enabled
	if cfg.CacheEnabled {
		results, err := cache.NewMemoryCache[*domain.EGFRResult](cfg.CacheMaxItems, cfg.CacheTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to create result cache: %w", err)
		}
		server.results = results
	}

	// Create transport manager and message router
	transportMgr := transport.NewManager(server.logger, cfg.MCPConfig())
	router := protocol.NewMessageRouter(server.logger)

	// Create calculator service
	calculator := service.NewCalculatorService(server.logger, server.results)

	// Create tool registry and register tools
	toolRegistry := tools.NewToolRegistry(server.logger, router, calculator)
	if err := toolRegistry.RegisterAllTools(); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	// Validate all tools
	if err := toolRegistry.ValidateAllTools(); err != nil {
		return nil, fmt.Errorf("tool validation failed: %w", err)
	}

	// Create resource manager with the reference providers
	resourceMgr := resources.NewResourceManager(server.logger, newResourceCache(cfg))
	resourceMgr.RegisterProvider("staging_reference", resources.NewStagesResourceProvider(server.logger))
	resourceMgr.RegisterProvider("formula_reference", resources.NewFormulasResourceProvider(server.logger))

	// Create server info
	serverInfo := &mcp.Implementation{
		Name:    cfg.ServerName,
		Version: cfg.ServerVersion,
	}

	// Create MCP server
	mcpServer := mcp.NewServer(serverInfo, nil)

	// Complete server setup
	server.mcpServer = mcpServer
	server.transportMgr = transportMgr
	server.toolRegistry = toolRegistry
	server.resourceMgr = resourceMgr

	// Register MCP tools and resources
	if err := server.registerMCPTools(); err != nil {
		return nil, fmt.Errorf("failed to register MCP tools: %w", err)
	}
	if err := server.registerMCPResources(); err != nil {
		return nil, fmt.Errorf("failed to register MCP resources: %w", err)
	}

	server.logger.Info("MCP server initialized successfully")
	return server, nil
}

// newResourceCache builds the reference content cache, or nil when
// caching is disabled.
func newResourceCache(cfg *config.MCPServerConfig) *cache.MemoryCache[*resources.ResourceContent] {
	if !cfg.CacheEnabled {
		return nil
	}
	// Only two static resources exist; a tiny cache is plenty.
	contentCache, err := cache.NewMemoryCache[*resources.ResourceContent](16, cfg.CacheTTL)
	if err != nil {
		return nil
	}
	return contentCache
}

// registerMCPTools registers tools with the MCP SDK.
func (s *Server) registerMCPTools() error {
	s.logger.Info("Registering tools with MCP SDK...")

	toolsInfo := s.toolRegistry.GetRegisteredToolsInfo()

	for _, toolInfo := range toolsInfo {
		schema, err := toolInputSchema(toolInfo.InputSchema)
		if err != nil {
			return fmt.Errorf("invalid input schema for tool %s: %w", toolInfo.Name, err)
		}

		toolDef := &mcp.Tool{
			Name:        toolInfo.Name,
			Description: toolInfo.Description,
			InputSchema: schema,
		}

		s.mcpServer.AddTool(toolDef, registryToolHandler(s.toolRegistry, toolInfo.Name, s.logger))

		s.logger.WithField("tool_name", toolInfo.Name).Debug("Registered MCP tool")
	}

	s.logger.WithField("tool_count", len(toolsInfo)).Info("Successfully registered all tools")
	return nil
}

// toolInputSchema converts a registry schema document into the SDK's
// schema representation.
func toolInputSchema(doc map[string]interface{}) (*jsonschema.Schema, error) {
	if doc == nil {
		return &jsonschema.Schema{Type: "object"}, nil
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}

	var schema jsonschema.Schema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema: %w", err)
	}

	return &schema, nil
}

// registerMCPResources registers reference resources with the MCP SDK.
func (s *Server) registerMCPResources() error {
	s.logger.Info("Registering resources with MCP SDK...")

	list, err := s.resourceMgr.ListResources(context.Background(), "")
	if err != nil {
		return fmt.Errorf("failed to list resources: %w", err)
	}

	for _, info := range list.Resources {
		resource := &mcp.Resource{
			URI:         info.URI,
			Name:        info.Name,
			Description: info.Description,
			MIMEType:    info.MimeType,
		}

		s.mcpServer.AddResource(resource, s.readResourceHandler())

		s.logger.WithField("uri", info.URI).Debug("Registered MCP resource")
	}

	s.logger.WithField("resource_count", len(list.Resources)).Info("Successfully registered all resources")
	return nil
}

// readResourceHandler returns the SDK read handler backed by the
// resource manager.
func (s *Server) readResourceHandler() mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		content, err := s.resourceMgr.GetResource(ctx, req.Params.URI)
		if err != nil {
			return nil, err
		}

		text, err := json.Marshal(content.Content)
		if err != nil {
			return nil, fmt.Errorf("failed to encode resource content: %w", err)
		}

		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{
					URI:      content.URI,
					MIMEType: content.MimeType,
					Text:     string(text),
				},
			},
		}, nil
	}
}

// Start starts the MCP server over the detected transport. It blocks
// until the context is cancelled or the transport fails.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting eGFR Calculator MCP Server...")

	// Start transport
	activeTransport, err := s.transportMgr.StartTransport(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transport: %w", err)
	}

	s.activeTransport = activeTransport
	s.logger.WithField("transport_type", activeTransport.GetType()).Info("Transport initialized")

	// Create bridge between transport and MCP SDK
	bridge := NewTransportBridge(activeTransport, s.logger)

	// Run the MCP server
	if err := s.mcpServer.Run(ctx, bridge); err != nil {
		s.activeTransport.Close()
		return fmt.Errorf("MCP server failed: %w", err)
	}

	return nil
}

// Close cleans up server resources.
func (s *Server) Close() error {
	if s.activeTransport != nil {
		s.activeTransport.Close()
	}
	return nil
}

// ToolRegistry returns the tool registry for external access.
func (s *Server) ToolRegistry() *tools.ToolRegistry {
	return s.toolRegistry
}

// ResultCache returns the calculation result cache for external access.
// It is nil when caching is disabled.
func (s *Server) ResultCache() *cache.MemoryCache[*domain.EGFRResult] {
	return s.results
}
