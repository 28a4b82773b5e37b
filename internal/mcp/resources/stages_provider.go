package resources

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sunbolsss/egfr-calculator/internal/domain"
	"github.com/sunbolsss/egfr-calculator/pkg/renal"
)

// StagesURI identifies the KDIGO GFR staging reference resource.
const StagesURI = URIScheme + "reference/stages"

// kdigoPublicationDate is the publication date of the KDIGO 2024 CKD
// guideline the staging table follows.
var kdigoPublicationDate = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

// StagesResourceProvider provides access to the KDIGO GFR staging reference
type StagesResourceProvider struct {
	logger *logrus.Logger
}

// StagingReferenceData represents the complete KDIGO GFR staging reference
type StagingReferenceData struct {
	Version     string            `json:"version"`
	Guideline   string            `json:"guideline"`
	LastUpdated time.Time         `json:"last_updated"`
	Source      string            `json:"source"`
	Unit        string            `json:"unit"`
	Stages      []StageDefinition `json:"stages"`
	RiskTiers   map[string]string `json:"risk_tiers"`
	Notes       []string          `json:"notes"`
}

// StageDefinition represents a single GFR category with clinical guidance
type StageDefinition struct {
	Code        string   `json:"code"`
	Range       string   `json:"egfr_range"`
	Label       string   `json:"label"`
	RiskTier    string   `json:"risk_tier"`
	ColorToken  string   `json:"color_token"`
	Description string   `json:"description"`
	Management  []string `json:"management"`
}

// NewStagesResourceProvider creates a new staging reference provider
func NewStagesResourceProvider(logger *logrus.Logger) *StagesResourceProvider {
	return &StagesResourceProvider{
		logger: logger,
	}
}

// GetResource retrieves the staging reference by URI
func (p *StagesResourceProvider) GetResource(ctx context.Context, uri string) (*ResourceContent, error) {
	p.logger.WithField("uri", uri).Debug("Getting staging reference resource")

	if uri != StagesURI {
		return nil, fmt.Errorf("unsupported staging reference URI: %s", uri)
	}

	data := p.generateStagingReference()

	resource := &ResourceContent{
		URI:          uri,
		Name:         "KDIGO GFR Staging Reference",
		Description:  "KDIGO 2024 GFR categories G1-G5 with ranges, risk tiers, and display attributes",
		MimeType:     "application/json",
		Content:      data,
		LastModified: kdigoPublicationDate,
		ETag:         "kdigo-2024",
		Metadata: map[string]interface{}{
			"resource_type": "staging_reference",
			"guideline":     "KDIGO-2024",
			"stage_count":   len(data.Stages),
			"static":        true,
		},
	}

	p.logger.WithFields(logrus.Fields{
		"uri":    uri,
		"stages": len(data.Stages),
	}).Info("Generated staging reference resource")

	return resource, nil
}

// ListResources lists available staging reference resources
func (p *StagesResourceProvider) ListResources(ctx context.Context, cursor string) (*ResourceList, error) {
	p.logger.WithField("cursor", cursor).Debug("Listing staging reference resources")

	resources := []ResourceInfo{
		{
			URI:          StagesURI,
			Name:         "KDIGO GFR Staging Reference",
			Description:  "KDIGO 2024 GFR categories G1-G5 with ranges, risk tiers, and display attributes",
			MimeType:     "application/json",
			Tags:         []string{"kdigo", "staging", "gfr", "ckd", "reference"},
			LastModified: kdigoPublicationDate,
			Metadata: map[string]interface{}{
				"guideline":   "KDIGO-2024",
				"stage_count": 6,
				"static":      true,
			},
		},
	}

	return &ResourceList{
		Resources: resources,
		Total:     len(resources),
	}, nil
}

// GetResourceInfo returns metadata about the staging reference resource
func (p *StagesResourceProvider) GetResourceInfo(ctx context.Context, uri string) (*ResourceInfo, error) {
	if uri != StagesURI {
		return nil, fmt.Errorf("unsupported staging reference URI: %s", uri)
	}

	return &ResourceInfo{
		URI:          uri,
		Name:         "KDIGO GFR Staging Reference",
		Description:  "KDIGO 2024 GFR categories G1-G5 with ranges, risk tiers, and display attributes",
		MimeType:     "application/json",
		Tags:         []string{"kdigo", "staging", "gfr", "ckd", "reference"},
		LastModified: kdigoPublicationDate,
		Metadata: map[string]interface{}{
			"guideline":   "KDIGO-2024",
			"stage_count": 6,
			"static":      true,
		},
	}, nil
}

// SupportsURI checks if this provider can handle the given URI
func (p *StagesResourceProvider) SupportsURI(uri string) bool {
	return uri == StagesURI
}

// GetProviderInfo returns information about this provider
func (p *StagesResourceProvider) GetProviderInfo() ProviderInfo {
	return ProviderInfo{
		Name:        "staging_reference",
		Description: "KDIGO GFR staging reference provider",
		Version:     "1.0.0",
		URIPatterns: []string{StagesURI},
	}
}

// generateStagingReference builds the staging payload from the engine's
// band table, so the resource can never drift from classification.
func (p *StagesResourceProvider) generateStagingReference() *StagingReferenceData {
	bands := renal.StageBands()

	stages := make([]StageDefinition, 0, len(bands))
	for _, band := range bands {
		stages = append(stages, StageDefinition{
			Code:        band.Code.String(),
			Range:       band.Range,
			Label:       band.Label,
			RiskTier:    band.RiskTier.String(),
			ColorToken:  band.ColorToken,
			Description: stageDescriptions[band.Code],
			Management:  stageManagement[band.Code],
		})
	}

	return &StagingReferenceData{
		Version:     "2024",
		Guideline:   "KDIGO-2024",
		LastUpdated: kdigoPublicationDate,
		Source:      "KDIGO 2024 Clinical Practice Guideline for the Evaluation and Management of Chronic Kidney Disease. Kidney Int. 2024;105(4S):S117-S314.",
		Unit:        "mL/min/1.73m²",
		Stages:      stages,
		RiskTiers: map[string]string{
			"Low":       "Low risk of CKD progression in the absence of other markers of kidney damage",
			"Moderate":  "Moderately increased risk; confirm chronicity and assess albuminuria",
			"High":      "High risk; nephrology evaluation and progression monitoring advised",
			"Very High": "Very high risk; specialist management and kidney replacement planning where applicable",
		},
		Notes: []string{
			"GFR categories alone do not establish chronic kidney disease; chronicity and markers of kidney damage are required for stages G1 and G2.",
			"Staging applies to the estimated GFR value only; it performs no plausibility checks of its own.",
			"Values outside physiologic ranges still classify into the nearest category by range.",
		},
	}
}

var stageDescriptions = map[domain.StageCode]string{
	domain.G1:  "Normal or high GFR. Kidney damage markers required to diagnose CKD at this level.",
	domain.G2:  "Mildly decreased GFR relative to young adult level. Often age-related; requires damage markers for CKD diagnosis.",
	domain.G3A: "Mildly to moderately decreased GFR. CKD established when persistent for over three months.",
	domain.G3B: "Moderately to severely decreased GFR. Complications such as anemia and mineral bone disorder become more frequent.",
	domain.G4:  "Severely decreased GFR. Preparation for kidney replacement therapy is typically discussed.",
	domain.G5:  "Kidney failure. Dialysis or transplantation is usually required when symptoms are present.",
}

var stageManagement = map[domain.StageCode][]string{
	domain.G1: {
		"Assess for markers of kidney damage before diagnosing CKD",
		"Manage cardiovascular risk factors",
	},
	domain.G2: {
		"Confirm chronicity with repeat testing over three months",
		"Monitor annually when CKD is established",
	},
	domain.G3A: {
		"Evaluate and treat reversible causes",
		"Monitor eGFR and albuminuria at least annually",
	},
	domain.G3B: {
		"Monitor eGFR and albuminuria at least twice yearly",
		"Screen for anemia and mineral bone disorder",
	},
	domain.G4: {
		"Refer to nephrology if not already under specialist care",
		"Discuss kidney replacement therapy options",
	},
	domain.G5: {
		"Initiate dialysis or transplantation planning per symptoms and trajectory",
		"Continue conservative management where chosen",
	},
}
