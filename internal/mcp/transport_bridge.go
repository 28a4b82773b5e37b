package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/sunbolsss/egfr-calculator/internal/mcp/protocol"
	"github.com/sunbolsss/egfr-calculator/internal/mcp/tools"
	"github.com/sunbolsss/egfr-calculator/internal/mcp/transport"
)

// TransportBridge adapts the internal transport layer to the MCP SDK
// Transport interface, so the SDK server can run over stdio, HTTP SSE,
// or WebSocket connections managed by the transport package.
type TransportBridge struct {
	inner  transport.Transport
	logger *logrus.Logger
}

// NewTransportBridge creates a bridge around an already-started transport
func NewTransportBridge(inner transport.Transport, logger *logrus.Logger) *TransportBridge {
	return &TransportBridge{
		inner:  inner,
		logger: logger,
	}
}

// Connect implements the MCP SDK Transport interface
func (b *TransportBridge) Connect(ctx context.Context) (mcp.Connection, error) {
	if b.inner.IsClosed() {
		return nil, fmt.Errorf("transport is closed")
	}

	conn := &bridgeConnection{
		inner:     b.inner,
		logger:    b.logger,
		sessionID: uuid.NewString(),
		incoming:  make(chan bridgeRead, 16),
		done:      make(chan struct{}),
	}
	go conn.readLoop()

	b.logger.WithFields(logrus.Fields{
		"session_id": conn.sessionID,
		"transport":  b.inner.GetType(),
	}).Info("MCP session connected")

	return conn, nil
}

type bridgeRead struct {
	data []byte
	err  error
}

// bridgeConnection is a single logical JSON-RPC connection over the
// underlying transport.
type bridgeConnection struct {
	inner     transport.Transport
	logger    *logrus.Logger
	sessionID string
	incoming  chan bridgeRead
	done      chan struct{}
	closeOnce sync.Once
}

// readLoop pumps raw messages from the transport into the incoming
// queue until the transport fails or the connection closes.
func (c *bridgeConnection) readLoop() {
	defer close(c.incoming)

	for {
		data, err := c.inner.ReadMessage()
		if err != nil {
			select {
			case c.incoming <- bridgeRead{err: err}:
			case <-c.done:
			}
			return
		}
		if len(data) == 0 {
			continue
		}

		select {
		case c.incoming <- bridgeRead{data: data}:
		case <-c.done:
			return
		}
	}
}

// SessionID returns the unique identifier for this connection
func (c *bridgeConnection) SessionID() string {
	return c.sessionID
}

// Read returns the next decoded JSON-RPC message
func (c *bridgeConnection) Read(ctx context.Context) (jsonrpc.Message, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res, ok := <-c.incoming:
		if !ok {
			return nil, io.EOF
		}
		if res.err != nil {
			return nil, res.err
		}

		msg, err := jsonrpc.DecodeMessage(res.data)
		if err != nil {
			c.logger.WithError(err).WithField("session_id", c.sessionID).Error("Failed to decode JSON-RPC message")
			return nil, fmt.Errorf("failed to decode JSON-RPC message: %w", err)
		}
		return msg, nil
	}
}

// Write encodes and sends a JSON-RPC message
func (c *bridgeConnection) Write(ctx context.Context, msg jsonrpc.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := jsonrpc.EncodeMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to encode JSON-RPC message: %w", err)
	}

	return c.inner.WriteMessage(data)
}

// Close tears down the connection and the underlying transport
func (c *bridgeConnection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.inner.Close()
		c.logger.WithField("session_id", c.sessionID).Info("MCP session closed")
	})
	return err
}

// registryToolHandler returns an MCP SDK tool handler that dispatches to
// the internal tool registry. Validation and execution failures surface
// as tool results rather than protocol errors, so clients always receive
// the field-level error payload.
func registryToolHandler(registry *tools.ToolRegistry, toolName string, logger *logrus.Logger) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		logger.WithField("tool", toolName).Debug("Handling MCP tool call")

		var params map[string]interface{}
		if rawArgs, ok := req.Params.Arguments.(json.RawMessage); ok && len(rawArgs) > 0 {
			if err := json.Unmarshal(rawArgs, &params); err != nil {
				return toolErrorResult(fmt.Sprintf("Invalid parameters: %v", err)), nil
			}
		}

		rpcReq := &protocol.JSONRPC2Request{
			JSONRPC: "2.0",
			Method:  toolName,
			Params:  params,
		}

		response := registry.ExecuteTool(ctx, rpcReq)

		if response.Error != nil {
			payload := map[string]interface{}{
				"error": response.Error.Message,
			}
			if response.Error.Data != nil {
				payload["details"] = response.Error.Data
			}

			text, err := json.Marshal(payload)
			if err != nil {
				return toolErrorResult(response.Error.Message), nil
			}
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					&mcp.TextContent{Text: string(text)},
				},
				IsError: true,
			}, nil
		}

		text, err := json.Marshal(response.Result)
		if err != nil {
			logger.WithError(err).WithField("tool", toolName).Error("Failed to marshal tool result")
			return toolErrorResult("Internal error: failed to encode tool result"), nil
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: string(text)},
			},
		}, nil
	}
}

// toolErrorResult creates a standardized error result for tool calls
func toolErrorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: message},
		},
		IsError: true,
	}
}
