package domain

import (
	"time"
)

// EGFRUnit is the body-surface-normalized unit every eGFR value is reported in.
const EGFRUnit = "mL/min/1.73m²"

// StageInfo describes the KDIGO GFR category assigned to an eGFR value.
// It is a pure function of the integer eGFR alone. The presentation fields
// (label, risk tier, color token) travel with the code so presentation
// shells never re-derive them.
type StageInfo struct {
	Code       StageCode `json:"code"`
	Label      string    `json:"label"`
	RiskTier   RiskTier  `json:"risk_tier"`
	ColorToken string    `json:"color_token"`
}

// StageBand couples a StageInfo with the eGFR range it covers. Used by the
// staging reference endpoint and resource.
type StageBand struct {
	StageInfo
	Range string `json:"egfr_range"` // e.g. ">= 90", "60-89", "<= 14"
}

// EGFRResult is the immutable outcome of one successful eGFR computation.
// A fresh value is created per computation; the engine retains nothing.
type EGFRResult struct {
	// EGFR in mL/min/1.73m², rounded half away from zero.
	EGFR    int       `json:"egfr"`
	Formula Formula   `json:"formula"`
	Stage   StageInfo `json:"stage"`
}

// LogFields returns structured logging fields for audit trails.
func (r *EGFRResult) LogFields() map[string]any {
	return map[string]any{
		"egfr":      r.EGFR,
		"formula":   string(r.Formula),
		"stage":     string(r.Stage.Code),
		"risk_tier": string(r.Stage.RiskTier),
	}
}

// CalculationReport represents a printable clinical summary of one computation.
type CalculationReport struct {
	ID              string       `json:"id"`
	Input           PatientInput `json:"input"`
	Result          *EGFRResult  `json:"result"`
	Summary         string       `json:"summary"`
	Recommendations []string     `json:"recommendations"`
	References      []Reference  `json:"references"`
	GeneratedAt     time.Time    `json:"generated_at"`
	Version         string       `json:"version"`
}

// Reference represents a literature or guideline reference
type Reference struct {
	Type    string `json:"type"`
	ID      string `json:"id"`
	Title   string `json:"title"`
	Authors string `json:"authors"`
	Journal string `json:"journal"`
	Year    int    `json:"year"`
	URL     string `json:"url"`
}
