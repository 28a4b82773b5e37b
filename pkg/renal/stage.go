package renal

import (
	"fmt"

	"github.com/sunbolsss/egfr-calculator/internal/domain"
)

// stageBand couples the inclusive lower eGFR bound of a KDIGO GFR category
// with its presentation attributes.
type stageBand struct {
	floor int
	info  domain.StageInfo
}

// KDIGO GFR categories ordered highest floor first; classification walks the
// table top down and the first band whose floor the value meets wins. The
// final band catches every remaining value, including zero and negative
// estimates, so the table is total over all integers.
var stageBands = []stageBand{
	{floor: 90, info: domain.StageInfo{Code: domain.G1, Label: "Normal or high", RiskTier: domain.RISK_LOW, ColorToken: "#2e7d32"}},
	{floor: 60, info: domain.StageInfo{Code: domain.G2, Label: "Mildly decreased", RiskTier: domain.RISK_LOW, ColorToken: "#7cb342"}},
	{floor: 45, info: domain.StageInfo{Code: domain.G3A, Label: "Mildly to moderately decreased", RiskTier: domain.RISK_MODERATE, ColorToken: "#f9a825"}},
	{floor: 30, info: domain.StageInfo{Code: domain.G3B, Label: "Moderately to severely decreased", RiskTier: domain.RISK_HIGH, ColorToken: "#ef6c00"}},
	{floor: 15, info: domain.StageInfo{Code: domain.G4, Label: "Severely decreased", RiskTier: domain.RISK_VERY_HIGH, ColorToken: "#d84315"}},
	{floor: 0, info: domain.StageInfo{Code: domain.G5, Label: "Kidney failure", RiskTier: domain.RISK_VERY_HIGH, ColorToken: "#b71c1c"}},
}

// ClassifyStage maps an integer eGFR to its KDIGO GFR category. The result
// is a pure function of the value alone: no plausibility checks happen here,
// those belong to input validation before any eGFR exists.
func ClassifyStage(egfr int) domain.StageInfo {
	last := len(stageBands) - 1
	for _, band := range stageBands[:last] {
		if egfr >= band.floor {
			return band.info
		}
	}
	return stageBands[last].info
}

// StageBands returns the staging reference table with display ranges for the
// reference endpoints and resources. The returned slice is a fresh copy.
func StageBands() []domain.StageBand {
	last := len(stageBands) - 1
	bands := make([]domain.StageBand, 0, len(stageBands))
	for i, band := range stageBands {
		var bandRange string
		switch i {
		case 0:
			bandRange = fmt.Sprintf(">= %d", band.floor)
		case last:
			bandRange = fmt.Sprintf("<= %d", stageBands[i-1].floor-1)
		default:
			bandRange = fmt.Sprintf("%d-%d", band.floor, stageBands[i-1].floor-1)
		}
		bands = append(bands, domain.StageBand{StageInfo: band.info, Range: bandRange})
	}
	return bands
}
