package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sunbolsss/egfr-calculator/internal/domain"
	"github.com/sunbolsss/egfr-calculator/internal/service"
	"github.com/sunbolsss/egfr-calculator/pkg/renal"
)

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   "1.0.0",
		"cache":     s.calculator.CacheStats(),
	})
}

// handleCalculate runs one eGFR calculation from the posted fields.
func (s *Server) handleCalculate(c *gin.Context) {
	params, ok := s.bindParams(c)
	if !ok {
		return
	}

	result, failures := s.calculator.Calculate(params)
	if len(failures) > 0 {
		s.respondValidationFailure(c, failures)
		return
	}

	c.JSON(http.StatusOK, result)
}

// handleValidate checks the posted fields without computing a result.
func (s *Server) handleValidate(c *gin.Context) {
	params, ok := s.bindParams(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, s.calculator.Validate(params))
}

// handleReport generates a full calculation report. The default shape is
// JSON; format=text renders the printable form.
func (s *Server) handleReport(c *gin.Context) {
	params, ok := s.bindParams(c)
	if !ok {
		return
	}

	report, failures := s.calculator.BuildReport(params)
	if len(failures) > 0 {
		s.respondValidationFailure(c, failures)
		return
	}

	if c.Query("format") == "text" {
		c.String(http.StatusOK, service.RenderReportText(report))
		return
	}

	c.JSON(http.StatusOK, report)
}

// handleReferenceStages serves the KDIGO staging table.
func (s *Server) handleReferenceStages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"egfr_unit": domain.EGFRUnit,
		"stages":    renal.StageBands(),
	})
}

// handleReferenceFormulas serves the supported estimating equations.
func (s *Server) handleReferenceFormulas(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"adult_age_threshold": domain.AdultAgeThreshold,
		"formulas":            renal.FormulaCatalog(),
	})
}

// bindParams decodes the request body, rejecting anything that is not a
// JSON object of string or numeric fields.
func (s *Server) bindParams(c *gin.Context) (*service.CalculationParams, bool) {
	var params service.CalculationParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": domain.NewServiceError(
				domain.ErrInvalidInput,
				"Request body is not valid JSON",
				err.Error(),
				c.GetString("correlation_id"),
			),
		})
		return nil, false
	}
	return &params, true
}

func (s *Server) respondValidationFailure(c *gin.Context, failures domain.FieldErrors) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{
		"error": domain.NewServiceError(
			domain.ErrValidation,
			"Input validation failed",
			failures.Summary(),
			c.GetString("correlation_id"),
		),
		"validation_errors": failures,
	})
}
