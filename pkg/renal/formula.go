package renal

import (
	"math"

	"github.com/sunbolsss/egfr-calculator/internal/domain"
)

// CKD-EPI 2021 equation constants (race-free refit).
//
// Reference: Inker et al. (2021) N Engl J Med. 385(19):1737-1749.
const (
	ckdepiScale        = 142.0
	ckdepiHighExponent = -1.200
	ckdepiAgeBase      = 0.9938
)

// ckdepiSexConstants holds the sex-specific terms of CKD-EPI 2021.
type ckdepiSexConstants struct {
	kappa     float64
	alpha     float64
	sexFactor float64
}

var ckdepiBySex = map[domain.Sex]ckdepiSexConstants{
	domain.FEMALE: {kappa: 0.7, alpha: -0.241, sexFactor: 1.012},
	domain.MALE:   {kappa: 0.9, alpha: -0.302, sexFactor: 1.0},
}

// schwartzK is the Bedside Schwartz (2009) constant.
//
// Reference: Schwartz et al. (2009) J Am Soc Nephrol. 20(3):629-637.
const schwartzK = 0.413

// SelectFormula returns the estimating equation for a patient age. Ages at or
// above the adult threshold select CKD-EPI 2021; younger ages select Bedside
// Schwartz. This is the only branch point between the two calculation paths,
// and it also decides whether height participates in validation.
func SelectFormula(age float64) domain.Formula {
	if age >= domain.AdultAgeThreshold {
		return domain.CKD_EPI_2021
	}
	return domain.BEDSIDE_SCHWARTZ_2009
}

// CalculateCKDEPI2021 computes the adult eGFR in mL/min/1.73m² from age, sex
// and a canonical mg/dL creatinine. Inputs must have passed validation:
// creatinine must be positive and sex must be a defined constant set.
func CalculateCKDEPI2021(age float64, sex domain.Sex, creatinineMGDL float64) int {
	c := ckdepiBySex[sex]
	ratio := creatinineMGDL / c.kappa

	egfr := ckdepiScale *
		math.Pow(math.Min(ratio, 1), c.alpha) *
		math.Pow(math.Max(ratio, 1), ckdepiHighExponent) *
		math.Pow(ckdepiAgeBase, age) *
		c.sexFactor

	return roundHalfAwayFromZero(egfr)
}

// CalculateBedsideSchwartz computes the pediatric eGFR in mL/min/1.73m² from
// height in centimeters and a canonical mg/dL creatinine. Validation
// guarantees a positive creatinine before this runs.
func CalculateBedsideSchwartz(heightCM, creatinineMGDL float64) int {
	return roundHalfAwayFromZero(schwartzK * heightCM / creatinineMGDL)
}

// roundHalfAwayFromZero rounds to the nearest integer with ties away from
// zero, the clinical rounding convention for reported eGFR values.
// math.Round implements exactly this tie-breaking.
func roundHalfAwayFromZero(v float64) int {
	return int(math.Round(v))
}

// FormulaInfo describes an estimating equation and its published constants
// for the reference endpoints and resources.
type FormulaInfo struct {
	Formula     domain.Formula     `json:"formula"`
	Description string             `json:"description"`
	AgeRange    string             `json:"age_range"`
	Constants   map[string]float64 `json:"constants"`
	Reference   domain.Reference   `json:"reference"`
}

// FormulaCatalog returns the supported equations with their constants and
// literature references. The returned slice is a fresh copy.
func FormulaCatalog() []FormulaInfo {
	return []FormulaInfo{
		{
			Formula:     domain.CKD_EPI_2021,
			Description: domain.CKD_EPI_2021.Description(),
			AgeRange:    "18-120 years",
			Constants: map[string]float64{
				"scale":             ckdepiScale,
				"age_base":          ckdepiAgeBase,
				"high_exponent":     ckdepiHighExponent,
				"kappa_female":      ckdepiBySex[domain.FEMALE].kappa,
				"alpha_female":      ckdepiBySex[domain.FEMALE].alpha,
				"sex_factor_female": ckdepiBySex[domain.FEMALE].sexFactor,
				"kappa_male":        ckdepiBySex[domain.MALE].kappa,
				"alpha_male":        ckdepiBySex[domain.MALE].alpha,
				"sex_factor_male":   ckdepiBySex[domain.MALE].sexFactor,
			},
			Reference: domain.Reference{
				Type:    "PMID",
				ID:      "34554658",
				Title:   "New creatinine- and cystatin C-based equations to estimate GFR without race",
				Authors: "Inker LA, Eneanya ND, Coresh J, et al.",
				Journal: "N Engl J Med",
				Year:    2021,
				URL:     "https://pubmed.ncbi.nlm.nih.gov/34554658/",
			},
		},
		{
			Formula:     domain.BEDSIDE_SCHWARTZ_2009,
			Description: domain.BEDSIDE_SCHWARTZ_2009.Description(),
			AgeRange:    "1-17 years",
			Constants: map[string]float64{
				"k": schwartzK,
			},
			Reference: domain.Reference{
				Type:    "PMID",
				ID:      "19158356",
				Title:   "New equations to estimate GFR in children with CKD",
				Authors: "Schwartz GJ, Munoz A, Schneider MF, et al.",
				Journal: "J Am Soc Nephrol",
				Year:    2009,
				URL:     "https://pubmed.ncbi.nlm.nih.gov/19158356/",
			},
		},
	}
}
