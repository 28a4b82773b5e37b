package tools

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sunbolsss/egfr-calculator/internal/mcp/protocol"
	"github.com/sunbolsss/egfr-calculator/internal/service"
)

// ToolRegistry manages registration of all MCP tools
type ToolRegistry struct {
	logger     *logrus.Logger
	router     *protocol.MessageRouter
	calculator *service.CalculatorService
}

// NewToolRegistry creates a new tool registry
func NewToolRegistry(logger *logrus.Logger, router *protocol.MessageRouter, calculator *service.CalculatorService) *ToolRegistry {
	return &ToolRegistry{
		logger:     logger,
		router:     router,
		calculator: calculator,
	}
}

// RegisterAllTools registers all eGFR tools with the MCP router
func (tr *ToolRegistry) RegisterAllTools() error {
	tr.logger.Info("Registering eGFR tools")

	calculateTool := NewCalculateEGFRTool(tr.logger, tr.calculator)
	tr.router.RegisterToolHandler("calculate_egfr", calculateTool)
	tr.logger.Debug("Registered calculate_egfr tool")

	validateTool := NewValidateInputTool(tr.logger, tr.calculator)
	tr.router.RegisterToolHandler("validate_patient_input", validateTool)
	tr.logger.Debug("Registered validate_patient_input tool")

	classifyTool := NewClassifyStageTool(tr.logger)
	tr.router.RegisterToolHandler("classify_gfr_stage", classifyTool)
	tr.logger.Debug("Registered classify_gfr_stage tool")

	convertTool := NewConvertCreatinineTool(tr.logger)
	tr.router.RegisterToolHandler("convert_creatinine", convertTool)
	tr.logger.Debug("Registered convert_creatinine tool")

	reportTool := NewGetCalculationReportTool(tr.logger, tr.calculator)
	tr.router.RegisterToolHandler("get_calculation_report", reportTool)
	tr.logger.Debug("Registered get_calculation_report tool")

	tr.logger.Info("Successfully registered all eGFR tools")
	return nil
}

// ExecuteTool dispatches a request to the registered handler for its method
func (tr *ToolRegistry) ExecuteTool(ctx context.Context, req *protocol.JSONRPC2Request) *protocol.JSONRPC2Response {
	handler, exists := tr.router.GetToolHandler(req.Method)
	if !exists {
		return &protocol.JSONRPC2Response{
			Error: &protocol.RPCError{
				Code:    protocol.MethodNotFound,
				Message: "Method not found",
				Data:    fmt.Sprintf("No tool registered for method: %s", req.Method),
			},
		}
	}

	return handler.HandleTool(ctx, req)
}

// GetRegisteredToolsInfo returns information about all registered tools
func (tr *ToolRegistry) GetRegisteredToolsInfo() []protocol.ToolInfo {
	toolHandlers := tr.router.GetToolHandlers()
	toolsInfo := make([]protocol.ToolInfo, 0, len(toolHandlers))

	for _, handler := range toolHandlers {
		toolsInfo = append(toolsInfo, handler.GetToolInfo())
	}

	return toolsInfo
}

// ValidateAllTools validates all registered tools expose complete metadata
func (tr *ToolRegistry) ValidateAllTools() error {
	tr.logger.Info("Validating all registered tools")

	toolHandlers := tr.router.GetToolHandlers()

	for name, handler := range toolHandlers {
		toolInfo := handler.GetToolInfo()
		if toolInfo.Name == "" {
			return fmt.Errorf("tool %s is missing a name", name)
		}
		if toolInfo.Description == "" {
			tr.logger.WithField("tool", name).Warn("Tool missing description")
		}
		if toolInfo.InputSchema == nil {
			tr.logger.WithField("tool", name).Warn("Tool missing input schema")
		}
	}

	tr.logger.WithField("tool_count", len(toolHandlers)).Info("Tool validation completed")
	return nil
}
