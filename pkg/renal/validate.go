package renal

import (
	"fmt"

	"github.com/sunbolsss/egfr-calculator/internal/domain"
)

// Validation bounds for clinical plausibility. Creatinine ceilings are
// unit-specific: the µmol/L ceiling is defined in its own unit and is never
// derived from the mg/dL ceiling at runtime.
const (
	MinAge = 1.0
	MaxAge = 120.0

	MaxCreatinineMGDL  = 20.0
	MaxCreatinineUMOLL = 1768.0

	MinHeightCM = 30.0
	MaxHeightCM = 250.0
)

// ValidateAge checks an age in years against the supported clinical range.
// An age above MaxAge reads as a request to verify the value, but it blocks
// computation exactly like any other failure; there is no advisory tier.
func ValidateAge(age float64) *domain.ValidationError {
	if age < MinAge {
		return domain.NewValidationError("age", "Age must be at least 1 year", age)
	}
	if age > MaxAge {
		return domain.NewValidationError("age", "Age above 120 years is implausible, please verify", age)
	}
	return nil
}

// ValidateCreatinine checks a serum creatinine value in the given unit.
// The positivity check applies in any unit; the upper bound applies only in
// the unit the value was reported in.
func ValidateCreatinine(value float64, unit domain.CreatinineUnit) *domain.ValidationError {
	if value <= 0 {
		return domain.NewValidationError("creatinine", "Creatinine must be greater than zero", value)
	}

	switch unit {
	case domain.MGDL:
		if value > MaxCreatinineMGDL {
			return domain.NewValidationError("creatinine",
				fmt.Sprintf("Creatinine above %g mg/dL is physiologically implausible", MaxCreatinineMGDL), value)
		}
	case domain.UMOLL:
		if value > MaxCreatinineUMOLL {
			return domain.NewValidationError("creatinine",
				fmt.Sprintf("Creatinine above %g µmol/L is physiologically implausible", MaxCreatinineUMOLL), value)
		}
	}

	return nil
}

// ValidateHeight checks a height in centimeters against the supported range.
// Height participates in validation only on the pediatric path; adult
// computations never call this.
func ValidateHeight(heightCM float64) *domain.ValidationError {
	if heightCM < MinHeightCM || heightCM > MaxHeightCM {
		return domain.NewValidationError("height",
			fmt.Sprintf("Height must be between %g and %g cm", MinHeightCM, MaxHeightCM), heightCM)
	}
	return nil
}

// ValidateInput runs every validator applicable to the input and collects
// all failures keyed by field name. Validators are independent and
// order-insensitive; no failure suppresses another.
func ValidateInput(in domain.PatientInput) domain.FieldErrors {
	failures := domain.FieldErrors{}

	if err := ValidateAge(in.Age); err != nil {
		failures.AddError(err)
	}

	if !in.Sex.IsValid() {
		failures.AddError(domain.NewValidationError("sex", domain.ErrInvalidSex.Error(), string(in.Sex)))
	}

	if !in.Unit.IsValid() {
		failures.AddError(domain.NewValidationError("creatinine_unit", domain.ErrInvalidCreatinineUnit.Error(), string(in.Unit)))
	}

	if err := ValidateCreatinine(in.Creatinine, in.Unit); err != nil {
		failures.AddError(err)
	}

	// Height never gates the adult path.
	if in.Pediatric() {
		if err := ValidateHeight(in.HeightCM); err != nil {
			failures.AddError(err)
		}
	}

	return failures
}
