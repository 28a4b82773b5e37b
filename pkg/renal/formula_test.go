package renal

import (
	"math"
	"testing"

	"github.com/sunbolsss/egfr-calculator/internal/domain"
)

func TestSelectFormula(t *testing.T) {
	tests := []struct {
		name string
		age  float64
		want domain.Formula
	}{
		{"Youngest supported age", 1, domain.BEDSIDE_SCHWARTZ_2009},
		{"Teenager", 17, domain.BEDSIDE_SCHWARTZ_2009},
		{"Just below threshold", 17.999, domain.BEDSIDE_SCHWARTZ_2009},
		{"Exactly at threshold", 18, domain.CKD_EPI_2021},
		{"Middle age", 47.5, domain.CKD_EPI_2021},
		{"Oldest supported age", 120, domain.CKD_EPI_2021},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SelectFormula(tt.age); got != tt.want {
				t.Errorf("SelectFormula(%v) = %v, want %v", tt.age, got, tt.want)
			}
		})
	}
}

// Adult results are checked against the published equation evaluated directly
// in the test, not against frozen integers, so the constants and the
// composition are both covered.
func TestCalculateCKDEPI2021(t *testing.T) {
	ckdepi := func(age float64, creatinine, kappa, alpha, sexFactor float64) int {
		ratio := creatinine / kappa
		egfr := 142 *
			math.Pow(math.Min(ratio, 1), alpha) *
			math.Pow(math.Max(ratio, 1), -1.200) *
			math.Pow(0.9938, age) *
			sexFactor
		return int(math.Round(egfr))
	}

	tests := []struct {
		name       string
		age        float64
		sex        domain.Sex
		creatinine float64
		want       int
	}{
		{"Male 70y Cr 1.0", 70, domain.MALE, 1.0, ckdepi(70, 1.0, 0.9, -0.302, 1.0)},
		{"Male 40y Cr 1.4", 40, domain.MALE, 1.4, ckdepi(40, 1.4, 0.9, -0.302, 1.0)},
		{"Female 50y Cr 0.6", 50, domain.FEMALE, 0.6, ckdepi(50, 0.6, 0.7, -0.241, 1.012)},
		{"Female 65y Cr 1.1", 65, domain.FEMALE, 1.1, ckdepi(65, 1.1, 0.7, -0.241, 1.012)},
		{"Male 18y Cr 0.9 at kappa", 18, domain.MALE, 0.9, ckdepi(18, 0.9, 0.9, -0.302, 1.0)},
		{"Female 120y Cr 0.7 at kappa", 120, domain.FEMALE, 0.7, ckdepi(120, 0.7, 0.7, -0.241, 1.012)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CalculateCKDEPI2021(tt.age, tt.sex, tt.creatinine); got != tt.want {
				t.Errorf("CalculateCKDEPI2021(%v, %s, %v) = %d, want %d", tt.age, tt.sex, tt.creatinine, got, tt.want)
			}
		})
	}
}

func TestCalculateBedsideSchwartz(t *testing.T) {
	tests := []struct {
		name       string
		heightCM   float64
		creatinine float64
		want       int
	}{
		// 0.413 * 120 / 0.5 = 99.12
		{"Child 120cm Cr 0.5", 120, 0.5, 99},
		{"Teen 160cm Cr 0.8", 160, 0.8, int(math.Round(0.413 * 160 / 0.8))},
		{"Infant 75cm Cr 0.3", 75, 0.3, int(math.Round(0.413 * 75 / 0.3))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CalculateBedsideSchwartz(tt.heightCM, tt.creatinine); got != tt.want {
				t.Errorf("CalculateBedsideSchwartz(%v, %v) = %d, want %d", tt.heightCM, tt.creatinine, got, tt.want)
			}
		})
	}
}

func TestRoundHalfAwayFromZero(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		want  int
	}{
		{"Below half rounds down", 98.4, 98},
		{"Half rounds up", 98.5, 99},
		{"Above half rounds up", 98.6, 99},
		{"Half at even rounds up", 99.5, 100},
		{"Exact integer", 99, 99},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := roundHalfAwayFromZero(tt.value); got != tt.want {
				t.Errorf("roundHalfAwayFromZero(%v) = %d, want %d", tt.value, got, tt.want)
			}
		})
	}
}

func TestFormulaCatalog(t *testing.T) {
	catalog := FormulaCatalog()
	if len(catalog) != 2 {
		t.Fatalf("Expected 2 equations, got %d", len(catalog))
	}

	byFormula := map[domain.Formula]FormulaInfo{}
	for _, info := range catalog {
		byFormula[info.Formula] = info
	}

	adult, ok := byFormula[domain.CKD_EPI_2021]
	if !ok {
		t.Fatal("Expected CKD-EPI 2021 in the catalog")
	}
	if adult.Constants["kappa_female"] != 0.7 || adult.Constants["kappa_male"] != 0.9 {
		t.Errorf("Unexpected kappas: %v", adult.Constants)
	}
	if adult.Constants["sex_factor_female"] != 1.012 {
		t.Errorf("Unexpected female sex factor: %v", adult.Constants["sex_factor_female"])
	}
	if adult.Reference.ID == "" {
		t.Error("Expected a literature reference for CKD-EPI 2021")
	}

	pediatric, ok := byFormula[domain.BEDSIDE_SCHWARTZ_2009]
	if !ok {
		t.Fatal("Expected Bedside Schwartz in the catalog")
	}
	if pediatric.Constants["k"] != 0.413 {
		t.Errorf("Unexpected Schwartz constant: %v", pediatric.Constants["k"])
	}
}
