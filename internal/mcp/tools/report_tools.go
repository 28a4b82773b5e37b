package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sunbolsss/egfr-calculator/internal/mcp/protocol"
	"github.com/sunbolsss/egfr-calculator/internal/service"
)

// GetCalculationReportTool implements the get_calculation_report MCP tool
type GetCalculationReportTool struct {
	logger     *logrus.Logger
	calculator *service.CalculatorService
}

// ReportParams defines parameters for the get_calculation_report tool.
// The patient fields match calculate_egfr; format selects the output shape.
type ReportParams struct {
	service.CalculationParams
	Format string `json:"format,omitempty"`
}

// NewGetCalculationReportTool creates a new get_calculation_report tool
func NewGetCalculationReportTool(logger *logrus.Logger, calculator *service.CalculatorService) *GetCalculationReportTool {
	return &GetCalculationReportTool{
		logger:     logger,
		calculator: calculator,
	}
}

// HandleTool implements the ToolHandler interface for get_calculation_report
func (t *GetCalculationReportTool) HandleTool(ctx context.Context, req *protocol.JSONRPC2Request) *protocol.JSONRPC2Response {
	startTime := time.Now()
	t.logger.WithField("tool", "get_calculation_report").Info("Processing report request")

	var params ReportParams
	if err := ParseParams(req.Params, &params); err != nil {
		return invalidParamsResponse(err)
	}
	if err := validateReportFormat(params.Format); err != nil {
		return invalidParamsResponse(err)
	}

	report, failures := t.calculator.BuildReport(&params.CalculationParams)
	if len(failures) > 0 {
		return validationFailureResponse(failures)
	}

	t.logger.WithFields(logrus.Fields{
		"report_id":       report.ID,
		"format":          reportFormatOrDefault(params.Format),
		"processing_time": time.Since(startTime).String(),
	}).Info("Calculation report generated")

	if reportFormatOrDefault(params.Format) == "text" {
		return &protocol.JSONRPC2Response{
			Result: map[string]interface{}{
				"report_id":   report.ID,
				"report_text": service.RenderReportText(report),
			},
		}
	}

	return &protocol.JSONRPC2Response{
		Result: map[string]interface{}{
			"report": report,
		},
	}
}

// GetToolInfo returns tool metadata
func (t *GetCalculationReportTool) GetToolInfo() protocol.ToolInfo {
	schema := patientInputSchema([]string{"age", "sex", "creatinine"})
	properties := schema["properties"].(map[string]interface{})
	properties["format"] = map[string]interface{}{
		"type":        "string",
		"description": "Report output format; json returns the structured report, text a printable rendering",
		"enum":        []string{"json", "text"},
		"default":     "json",
	}

	return protocol.ToolInfo{
		Name:        "get_calculation_report",
		Description: "Generate a full eGFR calculation report with KDIGO stage, follow-up recommendations and literature references",
		InputSchema: schema,
	}
}

// ValidateParams validates tool parameters
func (t *GetCalculationReportTool) ValidateParams(params interface{}) error {
	var reportParams ReportParams
	if err := ParseParams(params, &reportParams); err != nil {
		return err
	}
	return validateReportFormat(reportParams.Format)
}

func validateReportFormat(format string) error {
	switch format {
	case "", "json", "text":
		return nil
	}
	return fmt.Errorf("unsupported report format: %s", format)
}

func reportFormatOrDefault(format string) string {
	if format == "" {
		return "json"
	}
	return format
}
