package tools

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sunbolsss/egfr-calculator/internal/mcp/protocol"
	"github.com/sunbolsss/egfr-calculator/internal/service"
)

// patientInputSchema describes the raw patient fields shared by every tool
// that takes a full patient. Fields accept strings or numbers because MCP
// clients commonly relay form input verbatim.
func patientInputSchema(required []string) map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"age": map[string]interface{}{
				"type":        []string{"string", "number"},
				"description": "Patient age in years; fractional values are meaningful for children",
			},
			"sex": map[string]interface{}{
				"type":        "string",
				"description": "Patient sex, male or female",
				"enum":        []string{"male", "female"},
			},
			"creatinine": map[string]interface{}{
				"type":        []string{"string", "number"},
				"description": "Serum creatinine value in the unit given by creatinine_unit",
			},
			"creatinine_unit": map[string]interface{}{
				"type":        "string",
				"description": "Creatinine unit; defaults to mg/dL when omitted",
				"enum":        []string{"mg/dL", "µmol/L"},
			},
			"height": map[string]interface{}{
				"type":        []string{"string", "number"},
				"description": "Height in centimeters; required for patients under 18, ignored for adults",
			},
		},
		"required": required,
	}
}

// CalculateEGFRTool implements the calculate_egfr MCP tool
type CalculateEGFRTool struct {
	logger     *logrus.Logger
	calculator *service.CalculatorService
}

// NewCalculateEGFRTool creates a new calculate_egfr tool
func NewCalculateEGFRTool(logger *logrus.Logger, calculator *service.CalculatorService) *CalculateEGFRTool {
	return &CalculateEGFRTool{
		logger:     logger,
		calculator: calculator,
	}
}

// HandleTool implements the ToolHandler interface for calculate_egfr
func (t *CalculateEGFRTool) HandleTool(ctx context.Context, req *protocol.JSONRPC2Request) *protocol.JSONRPC2Response {
	startTime := time.Now()
	t.logger.WithField("tool", "calculate_egfr").Info("Processing eGFR calculation request")

	var params service.CalculationParams
	if err := ParseParams(req.Params, &params); err != nil {
		return invalidParamsResponse(err)
	}

	result, failures := t.calculator.Calculate(&params)
	if len(failures) > 0 {
		return validationFailureResponse(failures)
	}

	t.logger.WithFields(logrus.Fields{
		"calculation_id":  result.CalculationID,
		"egfr":            result.EGFR,
		"stage":           result.Stage.Code.String(),
		"processing_time": time.Since(startTime).String(),
	}).Info("eGFR calculation completed")

	return &protocol.JSONRPC2Response{
		Result: map[string]interface{}{
			"calculation": result,
		},
	}
}

// GetToolInfo returns tool metadata
func (t *CalculateEGFRTool) GetToolInfo() protocol.ToolInfo {
	return protocol.ToolInfo{
		Name:        "calculate_egfr",
		Description: "Calculate estimated GFR from age, sex and serum creatinine using CKD-EPI 2021 for adults or Bedside Schwartz for patients under 18, with KDIGO stage classification",
		InputSchema: patientInputSchema([]string{"age", "sex", "creatinine"}),
	}
}

// ValidateParams validates tool parameters
func (t *CalculateEGFRTool) ValidateParams(params interface{}) error {
	var calcParams service.CalculationParams
	return ParseParams(params, &calcParams)
}

// ValidateInputTool implements the validate_patient_input MCP tool
type ValidateInputTool struct {
	logger     *logrus.Logger
	calculator *service.CalculatorService
}

// NewValidateInputTool creates a new validate_patient_input tool
func NewValidateInputTool(logger *logrus.Logger, calculator *service.CalculatorService) *ValidateInputTool {
	return &ValidateInputTool{
		logger:     logger,
		calculator: calculator,
	}
}

// HandleTool implements the ToolHandler interface for validate_patient_input.
// Validation failures are a successful result here, not an error: the caller
// asked whether the input is acceptable.
func (t *ValidateInputTool) HandleTool(ctx context.Context, req *protocol.JSONRPC2Request) *protocol.JSONRPC2Response {
	t.logger.WithField("tool", "validate_patient_input").Info("Processing input validation request")

	var params service.CalculationParams
	if err := ParseParams(req.Params, &params); err != nil {
		return invalidParamsResponse(err)
	}

	result := t.calculator.Validate(&params)

	t.logger.WithFields(logrus.Fields{
		"valid":        result.Valid,
		"failed_count": len(result.Errors),
	}).Info("Input validation completed")

	return &protocol.JSONRPC2Response{
		Result: map[string]interface{}{
			"validation": result,
		},
	}
}

// GetToolInfo returns tool metadata
func (t *ValidateInputTool) GetToolInfo() protocol.ToolInfo {
	return protocol.ToolInfo{
		Name:        "validate_patient_input",
		Description: "Validate patient parameters for eGFR calculation without computing a result, reporting every failing field at once",
		InputSchema: patientInputSchema([]string{"age", "sex", "creatinine"}),
	}
}

// ValidateParams validates tool parameters
func (t *ValidateInputTool) ValidateParams(params interface{}) error {
	var validateParams service.CalculationParams
	return ParseParams(params, &validateParams)
}
