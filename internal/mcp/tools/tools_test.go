package tools

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"

	"github.com/sunbolsss/egfr-calculator/internal/cache"
	"github.com/sunbolsss/egfr-calculator/internal/domain"
	"github.com/sunbolsss/egfr-calculator/internal/mcp/protocol"
	"github.com/sunbolsss/egfr-calculator/internal/service"
)

func newToolCalculator(t *testing.T) *service.CalculatorService {
	t.Helper()

	logger, _ := test.NewNullLogger()
	results, err := cache.NewMemoryCache[*domain.EGFRResult](32, time.Minute)
	if err != nil {
		t.Fatalf("NewMemoryCache() error = %v", err)
	}
	return service.NewCalculatorService(logger, results)
}

func toolRequest(method string, params map[string]interface{}) *protocol.JSONRPC2Request {
	return &protocol.JSONRPC2Request{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      1,
	}
}

// TestCalculateEGFRTool tests the calculate_egfr tool
func TestCalculateEGFRTool(t *testing.T) {
	logger, _ := test.NewNullLogger()
	tool := NewCalculateEGFRTool(logger, newToolCalculator(t))

	params := map[string]interface{}{
		"age":        "70",
		"sex":        "male",
		"creatinine": "1.0",
	}

	response := tool.HandleTool(context.Background(), toolRequest("calculate_egfr", params))

	if response.Error != nil {
		t.Fatalf("Expected successful calculation, got error: %v", response.Error)
	}

	result, ok := response.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Expected map result")
	}

	calculation, ok := result["calculation"].(*service.CalculationResult)
	if !ok {
		t.Fatal("Expected calculation key holding a calculation result")
	}
	if calculation.EGFR <= 0 {
		t.Errorf("Expected positive eGFR, got: %d", calculation.EGFR)
	}
	if !calculation.Stage.Code.IsValid() {
		t.Errorf("Expected valid stage code, got: %s", calculation.Stage.Code)
	}
}

// TestCalculateEGFRTool_ValidationFailure tests rejection of implausible input
func TestCalculateEGFRTool_ValidationFailure(t *testing.T) {
	logger, _ := test.NewNullLogger()
	tool := NewCalculateEGFRTool(logger, newToolCalculator(t))

	params := map[string]interface{}{
		"age":        "150",
		"sex":        "male",
		"creatinine": "1.0",
	}

	response := tool.HandleTool(context.Background(), toolRequest("calculate_egfr", params))

	if response.Error == nil {
		t.Fatal("Expected validation error")
	}
	if response.Error.Code != protocol.InvalidParams {
		t.Errorf("Expected InvalidParams error, got code: %d", response.Error.Code)
	}

	failures, ok := response.Error.Data.(domain.FieldErrors)
	if !ok {
		t.Fatalf("Expected field errors in error data, got: %T", response.Error.Data)
	}
	if _, ok := failures["age"]; !ok {
		t.Errorf("Expected an age failure, got: %v", failures)
	}
}

// TestCalculateEGFRTool_MissingParams tests handling of absent parameters
func TestCalculateEGFRTool_MissingParams(t *testing.T) {
	logger, _ := test.NewNullLogger()
	tool := NewCalculateEGFRTool(logger, newToolCalculator(t))

	req := &protocol.JSONRPC2Request{JSONRPC: "2.0", Method: "calculate_egfr", ID: 1}
	response := tool.HandleTool(context.Background(), req)

	if response.Error == nil {
		t.Fatal("Expected error for missing params")
	}
	if response.Error.Code != protocol.InvalidParams {
		t.Errorf("Expected InvalidParams error, got code: %d", response.Error.Code)
	}
}

// TestValidateInputTool tests that validation failures are a result, not an error
func TestValidateInputTool(t *testing.T) {
	logger, _ := test.NewNullLogger()
	tool := NewValidateInputTool(logger, newToolCalculator(t))

	params := map[string]interface{}{
		"age":        "150",
		"sex":        "robot",
		"creatinine": "-1",
	}

	response := tool.HandleTool(context.Background(), toolRequest("validate_patient_input", params))

	if response.Error != nil {
		t.Fatalf("Expected successful validation response, got error: %v", response.Error)
	}

	result, ok := response.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Expected map result")
	}

	validation, ok := result["validation"].(*service.ValidationResult)
	if !ok {
		t.Fatal("Expected validation key holding a validation result")
	}
	if validation.Valid {
		t.Error("Expected invalid input to report valid=false")
	}
	if len(validation.Errors) != 3 {
		t.Errorf("Expected 3 field failures, got: %d (%v)", len(validation.Errors), validation.Errors)
	}
}

// TestClassifyStageTool tests the classify_gfr_stage tool
func TestClassifyStageTool(t *testing.T) {
	logger, _ := test.NewNullLogger()
	tool := NewClassifyStageTool(logger)

	testCases := []struct {
		name     string
		egfr     int
		expected domain.StageCode
	}{
		{name: "normal function", egfr: 95, expected: domain.G1},
		{name: "moderate reduction", egfr: 50, expected: domain.G3A},
		{name: "kidney failure", egfr: 10, expected: domain.G5},
		{name: "zero clearance", egfr: 0, expected: domain.G5},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			params := map[string]interface{}{"egfr": tc.egfr}
			response := tool.HandleTool(context.Background(), toolRequest("classify_gfr_stage", params))

			if response.Error != nil {
				t.Fatalf("Expected successful classification, got error: %v", response.Error)
			}

			result := response.Result.(map[string]interface{})
			stage, ok := result["stage"].(domain.StageInfo)
			if !ok {
				t.Fatal("Expected stage key holding stage info")
			}
			if stage.Code != tc.expected {
				t.Errorf("Expected stage %s, got: %s", tc.expected, stage.Code)
			}
		})
	}
}

// TestClassifyStageTool_MissingEGFR tests required parameter enforcement
func TestClassifyStageTool_MissingEGFR(t *testing.T) {
	logger, _ := test.NewNullLogger()
	tool := NewClassifyStageTool(logger)

	response := tool.HandleTool(context.Background(), toolRequest("classify_gfr_stage", map[string]interface{}{}))

	if response.Error == nil {
		t.Fatal("Expected error for missing egfr")
	}
	if response.Error.Code != protocol.InvalidParams {
		t.Errorf("Expected InvalidParams error, got code: %d", response.Error.Code)
	}
}

// TestConvertCreatinineTool tests the convert_creatinine tool
func TestConvertCreatinineTool(t *testing.T) {
	logger, _ := test.NewNullLogger()
	tool := NewConvertCreatinineTool(logger)

	testCases := []struct {
		name      string
		params    map[string]interface{}
		wantMGDL  float64
		wantError bool
	}{
		{
			name:     "micromolar to canonical",
			params:   map[string]interface{}{"value": 88.4, "unit": "µmol/L"},
			wantMGDL: 1.0,
		},
		{
			name:     "default unit passes through",
			params:   map[string]interface{}{"value": 1.2},
			wantMGDL: 1.2,
		},
		{
			name:      "missing value",
			params:    map[string]interface{}{"unit": "mg/dL"},
			wantError: true,
		},
		{
			name:      "unknown unit",
			params:    map[string]interface{}{"value": 1.0, "unit": "mmol/L"},
			wantError: true,
		},
		{
			name:      "nonpositive value rejected",
			params:    map[string]interface{}{"value": -1.0},
			wantError: true,
		},
		{
			name:      "implausible value rejected in its own unit",
			params:    map[string]interface{}{"value": 25.0, "unit": "mg/dL"},
			wantError: true,
		},
		{
			name:     "same number plausible in micromolar",
			params:   map[string]interface{}{"value": 25.0, "unit": "µmol/L"},
			wantMGDL: 25.0 / 88.4,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			response := tool.HandleTool(context.Background(), toolRequest("convert_creatinine", tc.params))

			if tc.wantError {
				if response.Error == nil {
					t.Fatal("Expected error response")
				}
				if response.Error.Code != protocol.InvalidParams {
					t.Errorf("Expected InvalidParams error, got code: %d", response.Error.Code)
				}
				return
			}

			if response.Error != nil {
				t.Fatalf("Expected successful conversion, got error: %v", response.Error)
			}

			result := response.Result.(map[string]interface{})
			if got := result["value_mgdl"].(float64); got != tc.wantMGDL {
				t.Errorf("Expected value_mgdl %v, got: %v", tc.wantMGDL, got)
			}
		})
	}
}

// TestGetCalculationReportTool tests the get_calculation_report tool
func TestGetCalculationReportTool(t *testing.T) {
	logger, _ := test.NewNullLogger()
	tool := NewGetCalculationReportTool(logger, newToolCalculator(t))

	params := map[string]interface{}{
		"age":        "70",
		"sex":        "male",
		"creatinine": "1.0",
	}

	response := tool.HandleTool(context.Background(), toolRequest("get_calculation_report", params))
	if response.Error != nil {
		t.Fatalf("Expected successful report, got error: %v", response.Error)
	}

	result := response.Result.(map[string]interface{})
	report, ok := result["report"].(*domain.CalculationReport)
	if !ok {
		t.Fatal("Expected report key holding a calculation report")
	}
	if report.ID == "" {
		t.Error("Expected non-empty report ID")
	}
	if len(report.Recommendations) == 0 {
		t.Error("Expected recommendations in the report")
	}
}

// TestGetCalculationReportTool_TextFormat tests the printable rendering
func TestGetCalculationReportTool_TextFormat(t *testing.T) {
	logger, _ := test.NewNullLogger()
	tool := NewGetCalculationReportTool(logger, newToolCalculator(t))

	params := map[string]interface{}{
		"age":        "10",
		"sex":        "female",
		"creatinine": "0.5",
		"height":     "120",
		"format":     "text",
	}

	response := tool.HandleTool(context.Background(), toolRequest("get_calculation_report", params))
	if response.Error != nil {
		t.Fatalf("Expected successful report, got error: %v", response.Error)
	}

	result := response.Result.(map[string]interface{})
	text, ok := result["report_text"].(string)
	if !ok {
		t.Fatal("Expected report_text key holding rendered text")
	}
	if !strings.Contains(text, "eGFR CALCULATION REPORT") {
		t.Error("Expected rendered report header")
	}
}

// TestGetCalculationReportTool_BadFormat tests format validation
func TestGetCalculationReportTool_BadFormat(t *testing.T) {
	logger, _ := test.NewNullLogger()
	tool := NewGetCalculationReportTool(logger, newToolCalculator(t))

	params := map[string]interface{}{
		"age":        "70",
		"sex":        "male",
		"creatinine": "1.0",
		"format":     "pdf",
	}

	response := tool.HandleTool(context.Background(), toolRequest("get_calculation_report", params))
	if response.Error == nil {
		t.Fatal("Expected error for unsupported format")
	}
	if response.Error.Code != protocol.InvalidParams {
		t.Errorf("Expected InvalidParams error, got code: %d", response.Error.Code)
	}
}

// TestToolRegistry tests registration and dispatch
func TestToolRegistry(t *testing.T) {
	logger, _ := test.NewNullLogger()
	router := protocol.NewMessageRouter(logger)
	registry := NewToolRegistry(logger, router, newToolCalculator(t))

	if err := registry.RegisterAllTools(); err != nil {
		t.Fatalf("RegisterAllTools() error = %v", err)
	}
	if err := registry.ValidateAllTools(); err != nil {
		t.Fatalf("ValidateAllTools() error = %v", err)
	}

	toolsInfo := registry.GetRegisteredToolsInfo()
	if len(toolsInfo) != 5 {
		t.Fatalf("Expected 5 registered tools, got: %d", len(toolsInfo))
	}

	registered := make(map[string]bool)
	for _, info := range toolsInfo {
		registered[info.Name] = true
		if info.InputSchema == nil {
			t.Errorf("Tool %s has no input schema", info.Name)
		}
	}
	for _, name := range []string{"calculate_egfr", "validate_patient_input", "classify_gfr_stage", "convert_creatinine", "get_calculation_report"} {
		if !registered[name] {
			t.Errorf("Tool %s is not registered", name)
		}
	}

	response := registry.ExecuteTool(context.Background(), toolRequest("calculate_egfr", map[string]interface{}{
		"age": "70", "sex": "male", "creatinine": "1.0",
	}))
	if response.Error != nil {
		t.Errorf("ExecuteTool(calculate_egfr) error: %v", response.Error)
	}

	unknown := registry.ExecuteTool(context.Background(), toolRequest("no_such_tool", nil))
	if unknown.Error == nil || unknown.Error.Code != protocol.MethodNotFound {
		t.Errorf("Expected MethodNotFound for unknown tool, got: %v", unknown.Error)
	}
}
