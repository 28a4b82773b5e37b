package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sunbolsss/egfr-calculator/internal/cache"
	"github.com/sunbolsss/egfr-calculator/internal/domain"
	"github.com/sunbolsss/egfr-calculator/pkg/renal"
)

// CalculatorService implements the eGFR calculation workflow: parse raw
// fields, validate, compute through the renal engine, classify and present.
// The engine itself is pure; this layer adds identifiers, logging and result
// memoization.
type CalculatorService struct {
	logger  *logrus.Logger
	results *cache.MemoryCache[*domain.EGFRResult]
}

// NewCalculatorService creates a new calculator service. A nil results cache
// disables memoization.
func NewCalculatorService(logger *logrus.Logger, results *cache.MemoryCache[*domain.EGFRResult]) *CalculatorService {
	return &CalculatorService{
		logger:  logger,
		results: results,
	}
}

// Calculate performs one complete eGFR calculation from raw fields. It
// returns either a result or the full set of field failures, never both.
func (c *CalculatorService) Calculate(params *CalculationParams) (*CalculationResult, domain.FieldErrors) {
	startTime := time.Now()

	// Step 1: Parse raw fields and collect every validation failure.
	input, failures := ParseCalculationInput(params)
	if len(failures) > 0 {
		c.logger.WithFields(logrus.Fields{
			"failed_fields": failures.Fields(),
		}).Info("eGFR calculation rejected by validation")
		return nil, failures
	}

	// Step 2: Compute, reusing a memoized result when available.
	result, cacheHit := c.compute(input)

	// Step 3: Attach presentation and audit fields.
	calculation := &CalculationResult{
		CalculationID:      uuid.New().String(),
		EGFR:               result.EGFR,
		EGFRUnit:           domain.EGFRUnit,
		Formula:            result.Formula.String(),
		FormulaDescription: result.Formula.Description(),
		Stage:              result.Stage,
		CreatinineMGDL:     renal.ToCanonicalCreatinine(input.Creatinine, input.Unit),
		Pediatric:          input.Pediatric(),
		CacheHit:           cacheHit,
		ProcessingTime:     time.Since(startTime),
		CalculatedAt:       time.Now().UTC(),
	}

	fields := logrus.Fields{
		"calculation_id":  calculation.CalculationID,
		"cache_hit":       cacheHit,
		"processing_time": calculation.ProcessingTime,
	}
	for k, v := range result.LogFields() {
		fields[k] = v
	}
	c.logger.WithFields(fields).Info("eGFR calculation completed")

	return calculation, nil
}

// Validate checks raw fields without computing and reports every failure.
func (c *CalculatorService) Validate(params *CalculationParams) *ValidationResult {
	_, failures := ParseCalculationInput(params)

	c.logger.WithFields(logrus.Fields{
		"valid":         len(failures) == 0,
		"failed_fields": failures.Fields(),
	}).Debug("Validated calculation input")

	if len(failures) > 0 {
		return &ValidationResult{Valid: false, Errors: failures}
	}
	return &ValidationResult{Valid: true}
}

// CacheStats returns the result cache counters, or zeros with no cache.
func (c *CalculatorService) CacheStats() cache.Stats {
	if c.results == nil {
		return cache.Stats{}
	}
	return c.results.Stats()
}

// compute returns the engine result for a validated input, serving it from
// the memoization cache when possible. Computation is deterministic, so a
// cached result is indistinguishable from a fresh one.
func (c *CalculatorService) compute(input domain.PatientInput) (*domain.EGFRResult, bool) {
	if c.results == nil {
		result, _ := renal.Compute(input)
		return result, false
	}

	key := cache.Key("calculate_egfr", input)
	if cached, ok := c.results.Get(key); ok {
		return cached, true
	}

	result, _ := renal.Compute(input)
	c.results.Set(key, result)
	return result, false
}

// Data structures for the service API

// CalculationResult is the presentation form of one successful calculation.
type CalculationResult struct {
	CalculationID      string           `json:"calculation_id"`
	EGFR               int              `json:"egfr"`
	EGFRUnit           string           `json:"egfr_unit"`
	Formula            string           `json:"formula"`
	FormulaDescription string           `json:"formula_description"`
	Stage              domain.StageInfo `json:"stage"`
	CreatinineMGDL     float64          `json:"creatinine_mgdl"`
	Pediatric          bool             `json:"pediatric"`
	CacheHit           bool             `json:"cache_hit"`
	ProcessingTime     time.Duration    `json:"processing_time"`
	CalculatedAt       time.Time        `json:"calculated_at"`
}

// ValidationResult reports whether raw fields would be accepted and, when
// they would not, every failure keyed by field.
type ValidationResult struct {
	Valid  bool               `json:"valid"`
	Errors domain.FieldErrors `json:"errors,omitempty"`
}
