package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sunbolsss/egfr-calculator/internal/domain"
	"github.com/sunbolsss/egfr-calculator/pkg/renal"
)

// reportVersion identifies the report layout, not the equations.
const reportVersion = "1.0.0"

// BuildReport runs one calculation and assembles the printable clinical
// summary around it. Reports are ephemeral: rendered per request and never
// stored.
func (c *CalculatorService) BuildReport(params *CalculationParams) (*domain.CalculationReport, domain.FieldErrors) {
	input, failures := ParseCalculationInput(params)
	if len(failures) > 0 {
		c.logger.WithFields(logrus.Fields{
			"failed_fields": failures.Fields(),
		}).Info("Report generation rejected by validation")
		return nil, failures
	}

	result, _ := c.compute(input)

	report := &domain.CalculationReport{
		ID:              uuid.New().String(),
		Input:           input,
		Result:          result,
		Summary:         buildSummary(result),
		Recommendations: stageRecommendations(result.Stage, input.Pediatric()),
		References:      reportReferences(result.Formula),
		GeneratedAt:     time.Now().UTC(),
		Version:         reportVersion,
	}

	c.logger.WithFields(logrus.Fields{
		"report_id": report.ID,
		"egfr":      result.EGFR,
		"stage":     result.Stage.Code.String(),
	}).Info("Calculation report generated")

	return report, nil
}

// RenderReportText renders a report as printable plain text.
func RenderReportText(report *domain.CalculationReport) string {
	var b strings.Builder
	result := report.Result
	input := report.Input

	b.WriteString("eGFR CALCULATION REPORT\n")
	b.WriteString("=======================\n\n")
	fmt.Fprintf(&b, "Report ID: %s\n", report.ID)
	fmt.Fprintf(&b, "Generated: %s\n\n", report.GeneratedAt.Format(time.RFC3339))

	b.WriteString("PATIENT PARAMETERS\n")
	fmt.Fprintf(&b, "  Age:        %g years\n", input.Age)
	fmt.Fprintf(&b, "  Sex:        %s\n", sexLabel(input.Sex))
	fmt.Fprintf(&b, "  Creatinine: %g %s\n", input.Creatinine, input.Unit)
	if input.Unit != domain.MGDL {
		fmt.Fprintf(&b, "              (%.3f mg/dL canonical)\n", renal.ToCanonicalCreatinine(input.Creatinine, input.Unit))
	}
	if input.Pediatric() {
		fmt.Fprintf(&b, "  Height:     %g cm\n", input.HeightCM)
	}
	b.WriteString("\n")

	b.WriteString("RESULT\n")
	fmt.Fprintf(&b, "  eGFR:     %d %s\n", result.EGFR, domain.EGFRUnit)
	fmt.Fprintf(&b, "  Formula:  %s\n", result.Formula.Description())
	fmt.Fprintf(&b, "  Category: %s - %s\n", result.Stage.Code, result.Stage.Label)
	fmt.Fprintf(&b, "  Risk:     %s\n\n", result.Stage.RiskTier)

	fmt.Fprintf(&b, "SUMMARY\n  %s\n\n", report.Summary)

	b.WriteString("RECOMMENDATIONS\n")
	for _, rec := range report.Recommendations {
		fmt.Fprintf(&b, "  - %s\n", rec)
	}
	b.WriteString("\n")

	b.WriteString("REFERENCES\n")
	for i, ref := range report.References {
		fmt.Fprintf(&b, "  [%d] %s. %s. %s %d. %s:%s\n", i+1, ref.Authors, ref.Title, ref.Journal, ref.Year, ref.Type, ref.ID)
	}

	return b.String()
}

func sexLabel(s domain.Sex) string {
	switch s {
	case domain.MALE:
		return "Male"
	case domain.FEMALE:
		return "Female"
	}
	return string(s)
}

func buildSummary(result *domain.EGFRResult) string {
	return fmt.Sprintf("Estimated GFR is %d %s by the %s, corresponding to KDIGO category %s (%s) with %s prognosis risk.",
		result.EGFR, domain.EGFRUnit, result.Formula.Description(),
		result.Stage.Code, result.Stage.Label, result.Stage.RiskTier)
}

// stageRecommendations creates follow-up guidance for a GFR category.
// These mirror KDIGO monitoring guidance and are informational, not a
// treatment directive.
func stageRecommendations(stage domain.StageInfo, pediatric bool) []string {
	recommendations := make([]string, 0)

	switch stage.Code {
	case domain.G1:
		recommendations = append(recommendations, "No CKD is indicated by eGFR alone; assess urine albumin if kidney disease is suspected")
		recommendations = append(recommendations, "Routine monitoring per primary care guidance")

	case domain.G2:
		recommendations = append(recommendations, "Mildly decreased eGFR; correlate with albuminuria and clinical context")
		recommendations = append(recommendations, "Repeat assessment within 12 months if risk factors are present")

	case domain.G3A:
		recommendations = append(recommendations, "Confirm chronicity with a repeat measurement within 3 months")
		recommendations = append(recommendations, "Review medication dosing for reduced renal clearance")
		recommendations = append(recommendations, "Monitor eGFR and albuminuria at least annually")

	case domain.G3B:
		recommendations = append(recommendations, "Monitor eGFR and albuminuria at least every 6 months")
		recommendations = append(recommendations, "Evaluate for CKD complications including anemia and mineral bone disorder")
		recommendations = append(recommendations, "Consider nephrology referral if progressive decline")

	case domain.G4:
		recommendations = append(recommendations, "Nephrology referral recommended")
		recommendations = append(recommendations, "Begin education on kidney replacement therapy options")
		recommendations = append(recommendations, "Avoid nephrotoxic agents and review all medication dosing")

	case domain.G5:
		recommendations = append(recommendations, "Urgent nephrology involvement; kidney failure range")
		recommendations = append(recommendations, "Evaluate for kidney replacement therapy or conservative management")
	}

	if pediatric {
		recommendations = append(recommendations, "Pediatric estimate (Bedside Schwartz); interpret with pediatric nephrology input")
	}

	return recommendations
}

// reportReferences lists the KDIGO staging guideline plus the literature
// reference of the equation that produced the result.
func reportReferences(formula domain.Formula) []domain.Reference {
	references := []domain.Reference{
		{
			Type:    "DOI",
			ID:      "10.1016/j.kint.2023.10.018",
			Title:   "KDIGO 2024 Clinical Practice Guideline for the Evaluation and Management of Chronic Kidney Disease",
			Authors: "Kidney Disease: Improving Global Outcomes (KDIGO) CKD Work Group",
			Journal: "Kidney Int",
			Year:    2024,
			URL:     "https://kdigo.org/guidelines/ckd-evaluation-and-management/",
		},
	}

	for _, info := range renal.FormulaCatalog() {
		if info.Formula == formula {
			references = append(references, info.Reference)
		}
	}

	return references
}
