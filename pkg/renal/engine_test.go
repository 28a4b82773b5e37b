package renal

import (
	"sync"
	"testing"

	"github.com/sunbolsss/egfr-calculator/internal/domain"
)

func TestComputeAdult(t *testing.T) {
	in := domain.PatientInput{Age: 70, Sex: domain.MALE, Creatinine: 1.0, Unit: domain.MGDL}

	result, failures := Compute(in)
	if len(failures) != 0 {
		t.Fatalf("Unexpected failures: %v", failures)
	}

	if result.Formula != domain.CKD_EPI_2021 {
		t.Errorf("Formula = %s, want %s", result.Formula, domain.CKD_EPI_2021)
	}
	if want := CalculateCKDEPI2021(70, domain.MALE, 1.0); result.EGFR != want {
		t.Errorf("EGFR = %d, want %d", result.EGFR, want)
	}
	if result.Stage != ClassifyStage(result.EGFR) {
		t.Errorf("Stage = %+v, want the classification of %d", result.Stage, result.EGFR)
	}
}

func TestComputePediatric(t *testing.T) {
	in := domain.PatientInput{Age: 10, Sex: domain.FEMALE, Creatinine: 0.5, Unit: domain.MGDL, HeightCM: 120}

	result, failures := Compute(in)
	if len(failures) != 0 {
		t.Fatalf("Unexpected failures: %v", failures)
	}

	// 0.413 * 120 / 0.5 = 99.12
	if result.EGFR != 99 {
		t.Errorf("EGFR = %d, want 99", result.EGFR)
	}
	if result.Formula != domain.BEDSIDE_SCHWARTZ_2009 {
		t.Errorf("Formula = %s, want %s", result.Formula, domain.BEDSIDE_SCHWARTZ_2009)
	}
	if result.Stage.Code != domain.G1 {
		t.Errorf("Stage = %s, want G1", result.Stage.Code)
	}
}

// A creatinine reported in µmol/L must produce exactly the result of its
// mg/dL equivalent: 88.4 µmol/L is 1.0 mg/dL by definition.
func TestComputeUnitEquivalence(t *testing.T) {
	mgdl := domain.PatientInput{Age: 70, Sex: domain.MALE, Creatinine: 1.0, Unit: domain.MGDL}
	umoll := domain.PatientInput{Age: 70, Sex: domain.MALE, Creatinine: 88.4, Unit: domain.UMOLL}

	mgdlResult, _ := Compute(mgdl)
	umollResult, _ := Compute(umoll)

	if mgdlResult.EGFR != umollResult.EGFR {
		t.Errorf("eGFR differs by unit: %d (mg/dL) vs %d (µmol/L)", mgdlResult.EGFR, umollResult.EGFR)
	}
}

func TestComputeValidationFailure(t *testing.T) {
	tests := []struct {
		name       string
		input      domain.PatientInput
		wantFields []string
	}{
		{
			name:       "Age below floor",
			input:      domain.PatientInput{Age: 0.5, Sex: domain.MALE, Creatinine: 0.4, Unit: domain.MGDL, HeightCM: 60},
			wantFields: []string{"age"},
		},
		{
			name:       "Age above ceiling",
			input:      domain.PatientInput{Age: 150, Sex: domain.FEMALE, Creatinine: 0.9, Unit: domain.MGDL},
			wantFields: []string{"age"},
		},
		{
			name:       "Creatinine over unit ceiling",
			input:      domain.PatientInput{Age: 50, Sex: domain.MALE, Creatinine: 25, Unit: domain.MGDL},
			wantFields: []string{"creatinine"},
		},
		{
			name:       "Every pediatric failure reported at once",
			input:      domain.PatientInput{Age: 0.5, Sex: domain.FEMALE, Creatinine: -1, Unit: domain.MGDL, HeightCM: 20},
			wantFields: []string{"age", "creatinine", "height"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, failures := Compute(tt.input)
			if result != nil {
				t.Fatalf("Expected no result, got %+v", result)
			}
			got := failures.Fields()
			if len(got) != len(tt.wantFields) {
				t.Fatalf("Failures = %v, want fields %v", failures, tt.wantFields)
			}
			for i, field := range tt.wantFields {
				if got[i] != field {
					t.Errorf("Failed field %d = %q, want %q", i, got[i], field)
				}
			}
		})
	}
}

// 25 is implausible in mg/dL but routine in µmol/L; the ceilings must never
// cross units.
func TestComputeUnitSpecificCeilings(t *testing.T) {
	rejected, failures := Compute(domain.PatientInput{Age: 50, Sex: domain.MALE, Creatinine: 25, Unit: domain.MGDL})
	if rejected != nil || failures["creatinine"] == "" {
		t.Errorf("Expected a creatinine failure in mg/dL, got result=%v failures=%v", rejected, failures)
	}

	accepted, failures := Compute(domain.PatientInput{Age: 50, Sex: domain.MALE, Creatinine: 25, Unit: domain.UMOLL})
	if accepted == nil || len(failures) != 0 {
		t.Errorf("Expected 25 µmol/L to compute, got failures=%v", failures)
	}
}

func TestComputeIgnoresHeightForAdults(t *testing.T) {
	base := domain.PatientInput{Age: 40, Sex: domain.FEMALE, Creatinine: 0.9, Unit: domain.MGDL}
	tall := base
	tall.HeightCM = 500

	baseResult, failures := Compute(base)
	if len(failures) != 0 {
		t.Fatalf("Unexpected failures: %v", failures)
	}
	tallResult, failures := Compute(tall)
	if len(failures) != 0 {
		t.Fatalf("Unexpected failures with out-of-range adult height: %v", failures)
	}

	if *baseResult != *tallResult {
		t.Errorf("Adult result changed with height: %+v vs %+v", baseResult, tallResult)
	}
}

func TestComputeReferentialTransparency(t *testing.T) {
	in := domain.PatientInput{Age: 64.5, Sex: domain.FEMALE, Creatinine: 130, Unit: domain.UMOLL}

	first, failures := Compute(in)
	if len(failures) != 0 {
		t.Fatalf("Unexpected failures: %v", failures)
	}
	second, _ := Compute(in)

	if *first != *second {
		t.Errorf("Identical input produced different results: %+v vs %+v", first, second)
	}
}

func TestComputeConcurrent(t *testing.T) {
	in := domain.PatientInput{Age: 70, Sex: domain.MALE, Creatinine: 1.0, Unit: domain.MGDL}
	want, _ := Compute(in)

	var wg sync.WaitGroup
	results := make([]*domain.EGFRResult, 16)
	for i := range results {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				r, failures := Compute(in)
				if len(failures) != 0 {
					return
				}
				results[slot] = r
			}
		}(i)
	}
	wg.Wait()

	for i, r := range results {
		if r == nil || *r != *want {
			t.Errorf("Concurrent result %d = %+v, want %+v", i, r, want)
		}
	}
}
