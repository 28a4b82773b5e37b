package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// ServiceError represents a standardized error response for non-validation
// failures surfaced by the REST and MCP shells.
type ServiceError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
}

// Error implements the error interface
func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error codes for different failure scenarios
const (
	ErrInvalidInput   = "INVALID_INPUT"
	ErrValidation     = "VALIDATION_ERROR"
	ErrCalculation    = "CALCULATION_ERROR"
	ErrRateLimit      = "RATE_LIMIT_EXCEEDED"
	ErrInternalServer = "INTERNAL_SERVER_ERROR"
)

// ValidationError represents a single input validation failure.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// NewServiceError creates a new ServiceError with timestamp
func NewServiceError(code, message, details, requestID string) *ServiceError {
	return &ServiceError{
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
	}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// FieldErrors maps an input field name to the reason it failed validation.
// A computation yields either a result and an empty FieldErrors, or a
// FieldErrors carrying every failure found and no result. There is no
// partially validated state.
type FieldErrors map[string]string

// Add records a failure for a field. The first failure recorded for a field
// wins; validators are independent and never report the same field twice.
func (fe FieldErrors) Add(field, message string) {
	if _, exists := fe[field]; !exists {
		fe[field] = message
	}
}

// AddError records a ValidationError under its field name.
func (fe FieldErrors) AddError(err *ValidationError) {
	if err != nil {
		fe.Add(err.Field, err.Message)
	}
}

// Merge copies every failure from other into fe.
func (fe FieldErrors) Merge(other FieldErrors) {
	for field, message := range other {
		fe.Add(field, message)
	}
}

// Fields returns the failed field names in a stable order for logging.
func (fe FieldErrors) Fields() []string {
	fields := make([]string, 0, len(fe))
	for field := range fe {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

// Summary renders the failures as a single line for logs and error details.
func (fe FieldErrors) Summary() string {
	parts := make([]string, 0, len(fe))
	for _, field := range fe.Fields() {
		parts = append(parts, fmt.Sprintf("%s: %s", field, fe[field]))
	}
	return strings.Join(parts, "; ")
}
