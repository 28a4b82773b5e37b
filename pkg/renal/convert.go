package renal

import (
	"github.com/sunbolsss/egfr-calculator/internal/domain"
)

// UmolPerMgdl is the fixed clinical conversion factor between µmol/L and
// mg/dL serum creatinine.
const UmolPerMgdl = 88.4

// ToCanonicalCreatinine converts a creatinine value to mg/dL, the unit every
// estimating equation operates on. Values already in mg/dL pass through
// unchanged. The converted value keeps full floating-point precision;
// rounding happens exactly once, on the final eGFR.
func ToCanonicalCreatinine(value float64, unit domain.CreatinineUnit) float64 {
	if unit == domain.UMOLL {
		return value / UmolPerMgdl
	}
	return value
}
