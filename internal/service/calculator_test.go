package service

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sunbolsss/egfr-calculator/internal/cache"
	"github.com/sunbolsss/egfr-calculator/internal/domain"
	"github.com/sunbolsss/egfr-calculator/pkg/renal"
)

func newTestService(t *testing.T) *CalculatorService {
	t.Helper()

	results, err := cache.NewMemoryCache[*domain.EGFRResult](64, time.Minute)
	if err != nil {
		t.Fatalf("NewMemoryCache() error = %v", err)
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return NewCalculatorService(logger, results)
}

func TestCalculatorServiceCalculateAdult(t *testing.T) {
	svc := newTestService(t)
	params := &CalculationParams{Age: "70", Sex: "male", Creatinine: "1.0"}

	result, failures := svc.Calculate(params)
	if len(failures) != 0 {
		t.Fatalf("Calculate() failures = %v, want none", failures)
	}

	want := renal.CalculateCKDEPI2021(70, domain.MALE, 1.0)
	if result.EGFR != want {
		t.Errorf("EGFR = %d, want %d", result.EGFR, want)
	}
	if result.Formula != domain.CKD_EPI_2021.String() {
		t.Errorf("Formula = %q, want %q", result.Formula, domain.CKD_EPI_2021)
	}
	if result.EGFRUnit != domain.EGFRUnit {
		t.Errorf("EGFRUnit = %q, want %q", result.EGFRUnit, domain.EGFRUnit)
	}
	if result.CalculationID == "" {
		t.Error("CalculationID is empty")
	}
	if result.Pediatric {
		t.Error("Pediatric = true for a 70 year old")
	}
	if result.CreatinineMGDL != 1.0 {
		t.Errorf("CreatinineMGDL = %v, want 1.0", result.CreatinineMGDL)
	}
	if !result.Stage.Code.IsValid() {
		t.Errorf("Stage.Code = %q is not valid", result.Stage.Code)
	}
	if result.CalculatedAt.IsZero() {
		t.Error("CalculatedAt is zero")
	}
}

func TestCalculatorServiceCalculatePediatric(t *testing.T) {
	svc := newTestService(t)
	params := &CalculationParams{Age: "10", Sex: "female", Creatinine: "0.5", Height: "120"}

	result, failures := svc.Calculate(params)
	if len(failures) != 0 {
		t.Fatalf("Calculate() failures = %v, want none", failures)
	}

	if result.EGFR != 99 {
		t.Errorf("EGFR = %d, want 99", result.EGFR)
	}
	if result.Formula != domain.BEDSIDE_SCHWARTZ_2009.String() {
		t.Errorf("Formula = %q, want %q", result.Formula, domain.BEDSIDE_SCHWARTZ_2009)
	}
	if !result.Pediatric {
		t.Error("Pediatric = false for a 10 year old")
	}
	if result.Stage.Code != domain.G1 {
		t.Errorf("Stage.Code = %q, want %q", result.Stage.Code, domain.G1)
	}
}

func TestCalculatorServiceCalculateConvertsUnits(t *testing.T) {
	svc := newTestService(t)

	mgdl, failures := svc.Calculate(&CalculationParams{Age: "70", Sex: "male", Creatinine: "1.0", CreatinineUnit: "mg/dL"})
	if len(failures) != 0 {
		t.Fatalf("Calculate(mg/dL) failures = %v", failures)
	}
	umoll, failures := svc.Calculate(&CalculationParams{Age: "70", Sex: "male", Creatinine: "88.4", CreatinineUnit: "µmol/L"})
	if len(failures) != 0 {
		t.Fatalf("Calculate(µmol/L) failures = %v", failures)
	}

	if mgdl.EGFR != umoll.EGFR {
		t.Errorf("EGFR differs across equivalent units: %d vs %d", mgdl.EGFR, umoll.EGFR)
	}
	if umoll.CreatinineMGDL != 1.0 {
		t.Errorf("CreatinineMGDL = %v, want 1.0", umoll.CreatinineMGDL)
	}
}

func TestCalculatorServiceCalculateRejectsInvalidInput(t *testing.T) {
	svc := newTestService(t)

	result, failures := svc.Calculate(&CalculationParams{})
	if result != nil {
		t.Fatalf("Calculate() result = %+v, want nil on validation failure", result)
	}
	if len(failures) == 0 {
		t.Fatal("Calculate() failures empty, want required-field failures")
	}
}

func TestCalculatorServiceCacheHit(t *testing.T) {
	svc := newTestService(t)
	params := &CalculationParams{Age: "70", Sex: "male", Creatinine: "1.0"}

	first, failures := svc.Calculate(params)
	if len(failures) != 0 {
		t.Fatalf("Calculate() failures = %v", failures)
	}
	if first.CacheHit {
		t.Error("first call reported a cache hit")
	}

	second, failures := svc.Calculate(params)
	if len(failures) != 0 {
		t.Fatalf("Calculate() failures = %v", failures)
	}
	if !second.CacheHit {
		t.Error("second identical call did not report a cache hit")
	}
	if first.EGFR != second.EGFR {
		t.Errorf("cached EGFR %d differs from fresh %d", second.EGFR, first.EGFR)
	}
	if first.CalculationID == second.CalculationID {
		t.Error("calculation IDs repeat across calls")
	}

	other, failures := svc.Calculate(&CalculationParams{Age: "71", Sex: "male", Creatinine: "1.0"})
	if len(failures) != 0 {
		t.Fatalf("Calculate() failures = %v", failures)
	}
	if other.CacheHit {
		t.Error("different input reported a cache hit")
	}

	stats := svc.CacheStats()
	if stats.Hits != 1 {
		t.Errorf("Stats.Hits = %d, want 1", stats.Hits)
	}
	if stats.Misses != 2 {
		t.Errorf("Stats.Misses = %d, want 2", stats.Misses)
	}
}

func TestCalculatorServiceWithoutCache(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	svc := NewCalculatorService(logger, nil)

	params := &CalculationParams{Age: "70", Sex: "male", Creatinine: "1.0"}
	for i := 0; i < 2; i++ {
		result, failures := svc.Calculate(params)
		if len(failures) != 0 {
			t.Fatalf("Calculate() failures = %v", failures)
		}
		if result.CacheHit {
			t.Error("cache hit reported with memoization disabled")
		}
	}

	if stats := svc.CacheStats(); stats != (cache.Stats{}) {
		t.Errorf("CacheStats() = %+v, want zero values", stats)
	}
}

func TestCalculatorServiceValidate(t *testing.T) {
	svc := newTestService(t)

	tests := []struct {
		name       string
		params     CalculationParams
		wantValid  bool
		wantFields int
	}{
		{
			name:      "valid input",
			params:    CalculationParams{Age: "70", Sex: "male", Creatinine: "1.0"},
			wantValid: true,
		},
		{
			name:       "invalid input reports every failure",
			params:     CalculationParams{Age: "150", Sex: "robot", Creatinine: "-1"},
			wantValid:  false,
			wantFields: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := svc.Validate(&tt.params)
			if got.Valid != tt.wantValid {
				t.Errorf("Valid = %v, want %v", got.Valid, tt.wantValid)
			}
			if len(got.Errors) != tt.wantFields {
				t.Errorf("len(Errors) = %d, want %d", len(got.Errors), tt.wantFields)
			}
		})
	}
}
