// internal/workers/analysis/estimate-demand/models.go
package estimatedemand

import "site-analytics/internal/models"

type Input struct {
	ProjectID           string  `json:"project_id"`
	IndustryType        string  `json:"industry_type"`
	TargetPopulation    int     `json:"target_population"`
	AverageSpend        float64 `json:"average_spend,omitempty"`
	CompetitorCustomers *int    `json:"competitor_customers,omitempty"`
}

type Output struct {
	Demand models.DemandEstimate `json:"demand"`
}

const (
	OpportunityHigh   = "high"
	OpportunityMedium = "medium"
	OpportunityLow    = "low"
)
