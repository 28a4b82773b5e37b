// Package protocol defines the JSON-RPC 2.0 envelope used to dispatch tool
// calls inside the server. The MCP SDK owns the outer protocol framing; these
// types carry requests between the SDK bridge and the tool handlers.
package protocol

// JSONRPC2Request represents a JSON-RPC 2.0 request message
type JSONRPC2Request struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
	ID      interface{} `json:"id,omitempty"`
}

// JSONRPC2Response represents a JSON-RPC 2.0 response message
type JSONRPC2Response struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

// RPCError represents a JSON-RPC 2.0 error object
type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Standard JSON-RPC 2.0 error codes
const (
	ParseError     = -32700
	InvalidRequest = -32600
	MethodNotFound = -32601
	InvalidParams  = -32602
	InternalError  = -32603

	// MCP-specific error codes
	MCPRateLimited   = -32001
	MCPResourceError = -32002
	MCPToolError     = -32003
)
