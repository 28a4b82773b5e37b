package tools

import (
	"encoding/json"
	"fmt"

	"github.com/sunbolsss/egfr-calculator/internal/mcp/protocol"
)

// ParseParams parses generic parameters from interface{} into a target
// struct through a JSON round trip. Tool params arrive as untyped maps from
// the SDK; this gives every handler one typed decoding path.
//
// Usage:
//
//	var params MyParams
//	if err := ParseParams(req.Params, &params); err != nil {
//	    return invalidParamsResponse(err)
//	}
func ParseParams(params interface{}, target interface{}) error {
	if params == nil {
		return fmt.Errorf("missing required parameters")
	}

	paramsBytes, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to marshal parameters: %w", err)
	}

	if err := json.Unmarshal(paramsBytes, target); err != nil {
		return fmt.Errorf("failed to parse parameters: %w", err)
	}

	return nil
}

// errMissingField reports a required parameter that was not supplied.
func errMissingField(name string) error {
	return fmt.Errorf("%s is required", name)
}

// invalidParamsResponse builds the standard response for malformed params.
func invalidParamsResponse(err error) *protocol.JSONRPC2Response {
	return &protocol.JSONRPC2Response{
		Error: &protocol.RPCError{
			Code:    protocol.InvalidParams,
			Message: "Invalid parameters",
			Data:    err.Error(),
		},
	}
}

// validationFailureResponse builds the response for inputs that parsed but
// failed clinical validation. Every failing field is reported.
func validationFailureResponse(failures interface{}) *protocol.JSONRPC2Response {
	return &protocol.JSONRPC2Response{
		Error: &protocol.RPCError{
			Code:    protocol.InvalidParams,
			Message: "Input validation failed",
			Data:    failures,
		},
	}
}
