// internal/workers/analysis/analyze-demographics/models.go
package analyzedemographics

import "site-analytics/internal/models"

type Input struct {
	ProjectID    string `json:"project_id"`
	TargetArea   string `json:"target_area"`
	IndustryType string `json:"industry_type"`
}

type Output struct {
	Demographics models.Demographics `json:"demographics"`
}

// baseAgeDistribution is the national-average share per age band before the
// per-area perturbation.
var baseAgeDistribution = map[string]float64{
	"0-14":  0.120,
	"15-19": 0.045,
	"20-29": 0.110,
	"30-39": 0.120,
	"40-49": 0.150,
	"50-59": 0.140,
	"60-69": 0.120,
	"70+":   0.195,
}
