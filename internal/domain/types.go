// Package domain contains core business entities and types for estimated glomerular
// filtration rate (eGFR) calculation and chronic kidney disease staging following
// KDIGO (Kidney Disease: Improving Global Outcomes) guidelines.
//
// References:
//   - Inker et al. (2021) New creatinine- and cystatin C-based equations to estimate
//     GFR without race. N Engl J Med. 385(19):1737-1749. doi: 10.1056/NEJMoa2102953
//   - Schwartz et al. (2009) New equations to estimate GFR in children with CKD.
//     J Am Soc Nephrol. 20(3):629-637. doi: 10.1681/ASN.2008030287
//   - KDIGO 2024 Clinical Practice Guideline for the Evaluation and Management of
//     Chronic Kidney Disease. Kidney Int. 105(4S):S117-S314.
package domain

import (
	"errors"
	"strings"
)

// Sex represents the patient sex term used by creatinine-based GFR equations.
// CKD-EPI 2021 selects its kappa, alpha and scaling constants by sex.
type Sex string

const (
	MALE   Sex = "MALE"
	FEMALE Sex = "FEMALE"
)

// CreatinineUnit represents the measurement unit of a serum creatinine value.
// Every equation operates on mg/dL; values reported in µmol/L are converted
// before any computation.
type CreatinineUnit string

const (
	MGDL  CreatinineUnit = "mg/dL"
	UMOLL CreatinineUnit = "µmol/L"
)

// Formula identifies the GFR estimating equation applied to a computation.
// The equation is derived from patient age on every computation and is never
// selected by callers or stored between computations.
type Formula string

const (
	CKD_EPI_2021          Formula = "CKD_EPI_2021"
	BEDSIDE_SCHWARTZ_2009 Formula = "BEDSIDE_SCHWARTZ_2009"
)

// StageCode represents the KDIGO GFR category (G stage) assigned to an eGFR value.
//
// Reference: KDIGO 2024 Guideline, Figure 4 (GFR categories in CKD)
type StageCode string

const (
	G1  StageCode = "G1"
	G2  StageCode = "G2"
	G3A StageCode = "G3a"
	G3B StageCode = "G3b"
	G4  StageCode = "G4"
	G5  StageCode = "G5"
)

// RiskTier represents the KDIGO prognosis tier attached to a GFR category.
type RiskTier string

const (
	RISK_LOW       RiskTier = "Low"
	RISK_MODERATE  RiskTier = "Moderate"
	RISK_HIGH      RiskTier = "High"
	RISK_VERY_HIGH RiskTier = "Very High"
)

// AdultAgeThreshold is the age in years at or above which the adult equation
// applies. Below it the pediatric equation applies and height becomes a
// required input. This is the only branch point in formula selection.
const AdultAgeThreshold = 18.0

// Validation errors for clinical data integrity
var (
	ErrInvalidSex            = errors.New("sex must be male or female")
	ErrInvalidCreatinineUnit = errors.New("unsupported creatinine unit")
	ErrInvalidFormula        = errors.New("invalid GFR formula")
	ErrInvalidStageCode      = errors.New("invalid KDIGO stage code")
)

// IsValid validates that the sex value is one the GFR equations define
// constants for. Only valid values may reach the calculation pipeline.
func (s Sex) IsValid() bool {
	switch s {
	case MALE, FEMALE:
		return true
	default:
		return false
	}
}

// String returns the string representation of the sex value.
func (s Sex) String() string {
	return string(s)
}

// ParseSex normalizes free-form input such as "male", "F" or "Female" into a
// Sex value. Returns ErrInvalidSex for anything outside the supported set.
func ParseSex(input string) (Sex, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "male", "m":
		return MALE, nil
	case "female", "f":
		return FEMALE, nil
	default:
		return "", ErrInvalidSex
	}
}

// IsValid validates the creatinine unit.
func (u CreatinineUnit) IsValid() bool {
	switch u {
	case MGDL, UMOLL:
		return true
	default:
		return false
	}
}

// String returns the display form of the unit.
func (u CreatinineUnit) String() string {
	return string(u)
}

// ParseCreatinineUnit normalizes free-form unit input into a CreatinineUnit.
// The micro sign may be spelled "µ" or "u"; matching ignores case and
// whitespace. Empty input selects mg/dL, the conventional default unit.
func ParseCreatinineUnit(input string) (CreatinineUnit, error) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	normalized = strings.ReplaceAll(normalized, "µ", "u")
	switch normalized {
	case "", "mg/dl", "mgdl", "mg_dl":
		return MGDL, nil
	case "umol/l", "umoll", "umol_l":
		return UMOLL, nil
	default:
		return "", ErrInvalidCreatinineUnit
	}
}

// IsValid validates that the formula is a supported estimating equation.
func (f Formula) IsValid() bool {
	switch f {
	case CKD_EPI_2021, BEDSIDE_SCHWARTZ_2009:
		return true
	default:
		return false
	}
}

// String returns the string representation of the formula.
func (f Formula) String() string {
	return string(f)
}

// Description returns the human-readable equation name for clinical reporting.
func (f Formula) Description() string {
	switch f {
	case CKD_EPI_2021:
		return "CKD-EPI Creatinine (2021), race-free adult equation"
	case BEDSIDE_SCHWARTZ_2009:
		return "Bedside Schwartz (2009), pediatric equation"
	default:
		return "Unknown equation"
	}
}

// IsValid validates the KDIGO stage code.
func (c StageCode) IsValid() bool {
	switch c {
	case G1, G2, G3A, G3B, G4, G5:
		return true
	default:
		return false
	}
}

// String returns the string representation of the stage code.
func (c StageCode) String() string {
	return string(c)
}

// IsValid validates the risk tier.
func (r RiskTier) IsValid() bool {
	switch r {
	case RISK_LOW, RISK_MODERATE, RISK_HIGH, RISK_VERY_HIGH:
		return true
	default:
		return false
	}
}

// String returns the string representation of the risk tier.
func (r RiskTier) String() string {
	return string(r)
}

// PatientInput carries the validated clinical parameters of one eGFR
// computation. It is a value object: passed by value into the engine, never
// mutated, never retained between computations.
type PatientInput struct {
	// Age in years; fractional ages are meaningful for pediatric patients.
	Age float64 `json:"age"`

	Sex Sex `json:"sex"`

	// Serum creatinine in the unit given by Unit.
	Creatinine float64        `json:"creatinine"`
	Unit       CreatinineUnit `json:"creatinine_unit"`

	// Height in centimeters. Participates in validation and calculation only
	// on the pediatric path (Age below AdultAgeThreshold).
	HeightCM float64 `json:"height_cm,omitempty"`
}

// Pediatric reports whether the pediatric calculation path applies.
func (p PatientInput) Pediatric() bool {
	return p.Age < AdultAgeThreshold
}

// LogFields returns structured logging fields for audit trails.
// Height is logged only when it participates in the computation.
func (p PatientInput) LogFields() map[string]any {
	fields := map[string]any{
		"age":             p.Age,
		"sex":             string(p.Sex),
		"creatinine":      p.Creatinine,
		"creatinine_unit": string(p.Unit),
	}
	if p.Pediatric() {
		fields["height_cm"] = p.HeightCM
	}
	return fields
}
