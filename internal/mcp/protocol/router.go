package protocol

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// MessageRouter keeps the table of registered tool handlers
type MessageRouter struct {
	logger       *logrus.Logger
	toolHandlers map[string]ToolHandler
	mu           sync.RWMutex
}

// ToolHandler defines the interface for MCP tool handlers
type ToolHandler interface {
	HandleTool(ctx context.Context, req *JSONRPC2Request) *JSONRPC2Response
	GetToolInfo() ToolInfo
	ValidateParams(params interface{}) error
}

// ToolInfo contains metadata about a tool
type ToolInfo struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema,omitempty"`
}

// NewMessageRouter creates a new message router
func NewMessageRouter(logger *logrus.Logger) *MessageRouter {
	return &MessageRouter{
		logger:       logger,
		toolHandlers: make(map[string]ToolHandler),
	}
}

// RegisterToolHandler registers a tool handler
func (mr *MessageRouter) RegisterToolHandler(name string, handler ToolHandler) {
	mr.mu.Lock()
	defer mr.mu.Unlock()

	mr.toolHandlers[name] = handler
	mr.logger.WithField("tool_name", name).Debug("Registered tool handler")
}

// GetToolHandlers returns all registered tool handlers
func (mr *MessageRouter) GetToolHandlers() map[string]ToolHandler {
	mr.mu.RLock()
	defer mr.mu.RUnlock()

	handlers := make(map[string]ToolHandler)
	for name, handler := range mr.toolHandlers {
		handlers[name] = handler
	}
	return handlers
}

// GetToolHandler retrieves a specific tool handler
func (mr *MessageRouter) GetToolHandler(name string) (ToolHandler, bool) {
	mr.mu.RLock()
	defer mr.mu.RUnlock()

	handler, exists := mr.toolHandlers[name]
	return handler, exists
}
