package resources

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sunbolsss/egfr-calculator/internal/domain"
	"github.com/sunbolsss/egfr-calculator/pkg/renal"
)

// FormulasURI identifies the estimating equation reference resource.
const FormulasURI = URIScheme + "reference/formulas"

// ckdepiPublicationDate is the publication date of the CKD-EPI 2021 refit,
// the newer of the two supported equations.
var ckdepiPublicationDate = time.Date(2021, 11, 4, 0, 0, 0, 0, time.UTC)

// FormulasResourceProvider provides access to the estimating equation reference
type FormulasResourceProvider struct {
	logger *logrus.Logger
}

// FormulaReferenceData represents the complete equation reference
type FormulaReferenceData struct {
	Version     string              `json:"version"`
	LastUpdated time.Time           `json:"last_updated"`
	ResultUnit  string              `json:"result_unit"`
	Selection   SelectionRule       `json:"selection"`
	Conversion  ConversionRule      `json:"creatinine_conversion"`
	Rounding    string              `json:"rounding"`
	Formulas    []renal.FormulaInfo `json:"formulas"`
}

// SelectionRule describes how an equation is chosen for a patient
type SelectionRule struct {
	Criterion         string  `json:"criterion"`
	AdultAgeThreshold float64 `json:"adult_age_threshold"`
	AdultFormula      string  `json:"adult_formula"`
	PediatricFormula  string  `json:"pediatric_formula"`
	BoundaryNote      string  `json:"boundary_note"`
	HeightRequirement string  `json:"height_requirement"`
}

// ConversionRule describes the creatinine unit normalization
type ConversionRule struct {
	CanonicalUnit string  `json:"canonical_unit"`
	FromUnit      string  `json:"from_unit"`
	Factor        float64 `json:"factor"`
	Operation     string  `json:"operation"`
}

// NewFormulasResourceProvider creates a new equation reference provider
func NewFormulasResourceProvider(logger *logrus.Logger) *FormulasResourceProvider {
	return &FormulasResourceProvider{
		logger: logger,
	}
}

// GetResource retrieves the equation reference by URI
func (p *FormulasResourceProvider) GetResource(ctx context.Context, uri string) (*ResourceContent, error) {
	p.logger.WithField("uri", uri).Debug("Getting equation reference resource")

	if uri != FormulasURI {
		return nil, fmt.Errorf("unsupported equation reference URI: %s", uri)
	}

	data := p.generateFormulaReference()

	resource := &ResourceContent{
		URI:          uri,
		Name:         "eGFR Estimating Equation Reference",
		Description:  "Supported eGFR equations with constants, selection rule, and unit conversion",
		MimeType:     "application/json",
		Content:      data,
		LastModified: ckdepiPublicationDate,
		ETag:         "formulas-ckdepi2021-schwartz2009",
		Metadata: map[string]interface{}{
			"resource_type": "formula_reference",
			"formula_count": len(data.Formulas),
			"static":        true,
		},
	}

	p.logger.WithFields(logrus.Fields{
		"uri":      uri,
		"formulas": len(data.Formulas),
	}).Info("Generated equation reference resource")

	return resource, nil
}

// ListResources lists available equation reference resources
func (p *FormulasResourceProvider) ListResources(ctx context.Context, cursor string) (*ResourceList, error) {
	p.logger.WithField("cursor", cursor).Debug("Listing equation reference resources")

	resources := []ResourceInfo{
		{
			URI:          FormulasURI,
			Name:         "eGFR Estimating Equation Reference",
			Description:  "Supported eGFR equations with constants, selection rule, and unit conversion",
			MimeType:     "application/json",
			Tags:         []string{"egfr", "formulas", "ckd-epi", "schwartz", "reference"},
			LastModified: ckdepiPublicationDate,
			Metadata: map[string]interface{}{
				"formula_count": 2,
				"static":        true,
			},
		},
	}

	return &ResourceList{
		Resources: resources,
		Total:     len(resources),
	}, nil
}

// GetResourceInfo returns metadata about the equation reference resource
func (p *FormulasResourceProvider) GetResourceInfo(ctx context.Context, uri string) (*ResourceInfo, error) {
	if uri != FormulasURI {
		return nil, fmt.Errorf("unsupported equation reference URI: %s", uri)
	}

	return &ResourceInfo{
		URI:          uri,
		Name:         "eGFR Estimating Equation Reference",
		Description:  "Supported eGFR equations with constants, selection rule, and unit conversion",
		MimeType:     "application/json",
		Tags:         []string{"egfr", "formulas", "ckd-epi", "schwartz", "reference"},
		LastModified: ckdepiPublicationDate,
		Metadata: map[string]interface{}{
			"formula_count": 2,
			"static":        true,
		},
	}, nil
}

// SupportsURI checks if this provider can handle the given URI
func (p *FormulasResourceProvider) SupportsURI(uri string) bool {
	return uri == FormulasURI
}

// GetProviderInfo returns information about this provider
func (p *FormulasResourceProvider) GetProviderInfo() ProviderInfo {
	return ProviderInfo{
		Name:        "formula_reference",
		Description: "eGFR estimating equation reference provider",
		Version:     "1.0.0",
		URIPatterns: []string{FormulasURI},
	}
}

// generateFormulaReference builds the equation payload from the engine's
// catalog, so published constants always match the calculation path.
func (p *FormulasResourceProvider) generateFormulaReference() *FormulaReferenceData {
	return &FormulaReferenceData{
		Version:     "1",
		LastUpdated: ckdepiPublicationDate,
		ResultUnit:  "mL/min/1.73m²",
		Selection: SelectionRule{
			Criterion:         "age",
			AdultAgeThreshold: domain.AdultAgeThreshold,
			AdultFormula:      domain.CKD_EPI_2021.String(),
			PediatricFormula:  domain.BEDSIDE_SCHWARTZ_2009.String(),
			BoundaryNote:      "Age exactly 18 uses the adult equation",
			HeightRequirement: "Height is required and validated only on the pediatric path",
		},
		Conversion: ConversionRule{
			CanonicalUnit: domain.MGDL.String(),
			FromUnit:      domain.UMOLL.String(),
			Factor:        renal.UmolPerMgdl,
			Operation:     "divide",
		},
		Rounding: "Result rounded to the nearest integer, ties away from zero",
		Formulas: renal.FormulaCatalog(),
	}
}
