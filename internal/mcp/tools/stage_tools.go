package tools

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/sunbolsss/egfr-calculator/internal/domain"
	"github.com/sunbolsss/egfr-calculator/internal/mcp/protocol"
	"github.com/sunbolsss/egfr-calculator/pkg/renal"
)

// ClassifyStageTool implements the classify_gfr_stage MCP tool
type ClassifyStageTool struct {
	logger *logrus.Logger
}

// ClassifyStageParams defines parameters for the classify_gfr_stage tool.
// EGFR is a pointer so a missing value is distinguishable from zero, which
// is a legitimate kidney failure reading.
type ClassifyStageParams struct {
	EGFR *int `json:"egfr"`
}

// NewClassifyStageTool creates a new classify_gfr_stage tool
func NewClassifyStageTool(logger *logrus.Logger) *ClassifyStageTool {
	return &ClassifyStageTool{logger: logger}
}

// HandleTool implements the ToolHandler interface for classify_gfr_stage
func (t *ClassifyStageTool) HandleTool(ctx context.Context, req *protocol.JSONRPC2Request) *protocol.JSONRPC2Response {
	t.logger.WithField("tool", "classify_gfr_stage").Info("Processing stage classification request")

	var params ClassifyStageParams
	if err := ParseParams(req.Params, &params); err != nil {
		return invalidParamsResponse(err)
	}
	if err := t.validate(&params); err != nil {
		return invalidParamsResponse(err)
	}

	stage := renal.ClassifyStage(*params.EGFR)

	t.logger.WithFields(logrus.Fields{
		"egfr":  *params.EGFR,
		"stage": stage.Code.String(),
	}).Info("Stage classification completed")

	return &protocol.JSONRPC2Response{
		Result: map[string]interface{}{
			"egfr":      *params.EGFR,
			"egfr_unit": domain.EGFRUnit,
			"stage":     stage,
		},
	}
}

// GetToolInfo returns tool metadata
func (t *ClassifyStageTool) GetToolInfo() protocol.ToolInfo {
	return protocol.ToolInfo{
		Name:        "classify_gfr_stage",
		Description: "Classify an eGFR value into its KDIGO GFR category (G1 through G5) with display label and risk tier",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"egfr": map[string]interface{}{
					"type":        "integer",
					"description": "Estimated GFR in mL/min/1.73m²",
				},
			},
			"required": []string{"egfr"},
		},
	}
}

// ValidateParams validates tool parameters
func (t *ClassifyStageTool) ValidateParams(params interface{}) error {
	var stageParams ClassifyStageParams
	if err := ParseParams(params, &stageParams); err != nil {
		return err
	}
	return t.validate(&stageParams)
}

func (t *ClassifyStageTool) validate(params *ClassifyStageParams) error {
	if params.EGFR == nil {
		return errMissingField("egfr")
	}
	return nil
}

// ConvertCreatinineTool implements the convert_creatinine MCP tool
type ConvertCreatinineTool struct {
	logger *logrus.Logger
}

// ConvertCreatinineParams defines parameters for the convert_creatinine tool
type ConvertCreatinineParams struct {
	Value *float64 `json:"value"`
	Unit  string   `json:"unit,omitempty"`
}

// NewConvertCreatinineTool creates a new convert_creatinine tool
func NewConvertCreatinineTool(logger *logrus.Logger) *ConvertCreatinineTool {
	return &ConvertCreatinineTool{logger: logger}
}

// HandleTool implements the ToolHandler interface for convert_creatinine
func (t *ConvertCreatinineTool) HandleTool(ctx context.Context, req *protocol.JSONRPC2Request) *protocol.JSONRPC2Response {
	t.logger.WithField("tool", "convert_creatinine").Info("Processing creatinine conversion request")

	var params ConvertCreatinineParams
	if err := ParseParams(req.Params, &params); err != nil {
		return invalidParamsResponse(err)
	}
	if params.Value == nil {
		return invalidParamsResponse(errMissingField("value"))
	}

	unit, err := domain.ParseCreatinineUnit(params.Unit)
	if err != nil {
		return invalidParamsResponse(err)
	}

	if verr := renal.ValidateCreatinine(*params.Value, unit); verr != nil {
		failures := domain.FieldErrors{}
		failures.AddError(verr)
		return validationFailureResponse(failures)
	}

	valueMGDL := renal.ToCanonicalCreatinine(*params.Value, unit)

	t.logger.WithFields(logrus.Fields{
		"original_value": *params.Value,
		"original_unit":  unit.String(),
		"value_mgdl":     valueMGDL,
	}).Info("Creatinine conversion completed")

	return &protocol.JSONRPC2Response{
		Result: map[string]interface{}{
			"original_value":    *params.Value,
			"original_unit":     unit,
			"value_mgdl":        valueMGDL,
			"conversion_factor": renal.UmolPerMgdl,
		},
	}
}

// GetToolInfo returns tool metadata
func (t *ConvertCreatinineTool) GetToolInfo() protocol.ToolInfo {
	return protocol.ToolInfo{
		Name:        "convert_creatinine",
		Description: "Convert a serum creatinine value to the canonical mg/dL unit, validating clinical plausibility in the original unit",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"value": map[string]interface{}{
					"type":        "number",
					"description": "Serum creatinine value",
				},
				"unit": map[string]interface{}{
					"type":        "string",
					"description": "Unit of the value; defaults to mg/dL when omitted",
					"enum":        []string{"mg/dL", "µmol/L"},
				},
			},
			"required": []string{"value"},
		},
	}
}

// ValidateParams validates tool parameters
func (t *ConvertCreatinineTool) ValidateParams(params interface{}) error {
	var convertParams ConvertCreatinineParams
	if err := ParseParams(params, &convertParams); err != nil {
		return err
	}
	if convertParams.Value == nil {
		return errMissingField("value")
	}
	_, err := domain.ParseCreatinineUnit(convertParams.Unit)
	return err
}
