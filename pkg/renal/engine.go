// Package renal implements estimated glomerular filtration rate (eGFR)
// calculation and KDIGO staging as pure functions: validation of clinical
// inputs, creatinine unit conversion, age-based equation selection, the
// CKD-EPI 2021 and Bedside Schwartz 2009 equations, and GFR category
// classification. The package holds no state and performs no I/O.
package renal

import (
	"github.com/sunbolsss/egfr-calculator/internal/domain"
)

// Compute runs one atomic eGFR computation: validate, convert, select,
// calculate, classify. It either returns a result and no failures, or every
// validation failure found and no result; there is no partially computed
// state. Identical input always yields an identical result, and the function
// is safe for any number of concurrent callers.
func Compute(in domain.PatientInput) (*domain.EGFRResult, domain.FieldErrors) {
	if failures := ValidateInput(in); len(failures) > 0 {
		return nil, failures
	}

	creatinine := ToCanonicalCreatinine(in.Creatinine, in.Unit)
	formula := SelectFormula(in.Age)

	var egfr int
	switch formula {
	case domain.BEDSIDE_SCHWARTZ_2009:
		egfr = CalculateBedsideSchwartz(in.HeightCM, creatinine)
	default:
		egfr = CalculateCKDEPI2021(in.Age, in.Sex, creatinine)
	}

	return &domain.EGFRResult{
		EGFR:    egfr,
		Formula: formula,
		Stage:   ClassifyStage(egfr),
	}, nil
}
