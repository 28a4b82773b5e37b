package service

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/sunbolsss/egfr-calculator/internal/domain"
	"github.com/sunbolsss/egfr-calculator/pkg/renal"
)

// FieldValue is a raw form field. Shells collect fields as text; JSON clients
// may also send plain numbers, so both decode into the same raw value.
type FieldValue string

// UnmarshalJSON accepts a JSON string or number. Anything else is a decoding
// error, not a validation failure.
func (f *FieldValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FieldValue(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("field must be a string or a number")
	}
	*f = FieldValue(n.String())
	return nil
}

// String returns the raw field text.
func (f FieldValue) String() string {
	return string(f)
}

// IsEmpty reports whether the field is blank after trimming.
func (f FieldValue) IsEmpty() bool {
	return strings.TrimSpace(string(f)) == ""
}

// CalculationParams carries the raw fields of one calculation request.
// The unit is optional and defaults to mg/dL; height is read only on the
// pediatric path.
type CalculationParams struct {
	Age            FieldValue `json:"age"`
	Sex            FieldValue `json:"sex"`
	Creatinine     FieldValue `json:"creatinine"`
	CreatinineUnit FieldValue `json:"creatinine_unit,omitempty"`
	Height         FieldValue `json:"height,omitempty"`
}

// ParseCalculationInput turns raw fields into a typed PatientInput and
// reports every failure found at once: missing or malformed fields together
// with range failures for every field that did parse. Range checks on a
// field never run when that field failed to parse, and the first failure
// recorded for a field wins.
//
// Height is considered only when a parsed age selects the pediatric path;
// the adult path ignores the field entirely.
func ParseCalculationInput(params *CalculationParams) (domain.PatientInput, domain.FieldErrors) {
	failures := domain.FieldErrors{}
	var input domain.PatientInput

	age, ageOK := parseRequiredNumber(params.Age, "age", "Age", failures)
	input.Age = age

	if params.Sex.IsEmpty() {
		failures.Add("sex", "Sex is required")
	} else if sex, err := domain.ParseSex(params.Sex.String()); err != nil {
		failures.Add("sex", "Sex must be male or female")
	} else {
		input.Sex = sex
	}

	creatinine, creatinineOK := parseRequiredNumber(params.Creatinine, "creatinine", "Creatinine", failures)
	input.Creatinine = creatinine

	unit, err := domain.ParseCreatinineUnit(params.CreatinineUnit.String())
	unitOK := err == nil
	if unitOK {
		input.Unit = unit
	} else {
		failures.Add("creatinine_unit", "Creatinine unit must be mg/dL or µmol/L")
	}

	heightOK := false
	if ageOK && input.Pediatric() {
		if params.Height.IsEmpty() {
			failures.Add("height", "Height is required for patients under 18")
		} else {
			var height float64
			height, heightOK = parseRequiredNumber(params.Height, "height", "Height", failures)
			input.HeightCM = height
		}
	}

	// Everything parsed: the engine's validators are authoritative.
	if len(failures) == 0 {
		return input, renal.ValidateInput(input)
	}

	// Partial parse: range-check the fields that did parse so the caller
	// still sees every failure in one pass.
	if ageOK {
		failures.AddError(renal.ValidateAge(input.Age))
	}
	if creatinineOK {
		checkUnit := domain.CreatinineUnit("")
		if unitOK {
			checkUnit = input.Unit
		}
		failures.AddError(renal.ValidateCreatinine(input.Creatinine, checkUnit))
	}
	if heightOK {
		failures.AddError(renal.ValidateHeight(input.HeightCM))
	}

	return input, failures
}

func parseRequiredNumber(value FieldValue, field, label string, failures domain.FieldErrors) (float64, bool) {
	raw := strings.TrimSpace(value.String())
	if raw == "" {
		failures.Add(field, label+" is required")
		return 0, false
	}

	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		failures.Add(field, label+" must be a number")
		return 0, false
	}

	return parsed, true
}
