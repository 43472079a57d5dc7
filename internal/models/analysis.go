// internal/models/analysis.go
package models

import (
	"encoding/json"
	"time"
)

type AnalysisType string

const (
	AnalysisDemographics AnalysisType = "demographics"
	AnalysisCompetitors  AnalysisType = "competitors"
	AnalysisDemand       AnalysisType = "demand"
)

// AllAnalysisTypes is the pipeline order.
var AllAnalysisTypes = []AnalysisType{AnalysisDemographics, AnalysisCompetitors, AnalysisDemand}

func (t AnalysisType) Valid() bool {
	switch t {
	case AnalysisDemographics, AnalysisCompetitors, AnalysisDemand:
		return true
	}
	return false
}

type AnalysisStatus string

const (
	AnalysisStatusProcessing AnalysisStatus = "processing"
	AnalysisStatusCompleted  AnalysisStatus = "completed"
	AnalysisStatusFailed     AnalysisStatus = "failed"
)

type AnalysisResult struct {
	ID           string          `json:"id"`
	ProjectID    string          `json:"project_id"`
	AnalysisType AnalysisType    `json:"analysis_type"`
	Status       AnalysisStatus  `json:"status"`
	Result       json.RawMessage `json:"result,omitempty"`
	Error        string          `json:"error,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Decode unmarshals the stored payload into dest.
func (a *AnalysisResult) Decode(dest interface{}) error {
	if len(a.Result) == 0 {
		return nil
	}
	return json.Unmarshal(a.Result, dest)
}

type AgeShare struct {
	Band       string  `json:"band"`
	Share      float64 `json:"share"`
	Population int     `json:"population"`
}

type Demographics struct {
	Area             string     `json:"area"`
	Population       int        `json:"population"`
	Households       int        `json:"households"`
	HouseholdSize    float64    `json:"household_size"`
	FemaleRatio      float64    `json:"female_ratio"`
	AverageIncome    float64    `json:"average_income"`
	AgeDistribution  []AgeShare `json:"age_distribution"`
	SegmentRatio     float64    `json:"segment_ratio"`
	TargetPopulation int        `json:"target_population"`
}

type HeatmapPoint struct {
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Weight float64 `json:"weight"`
}

type CompetitorSummary struct {
	Count                   int            `json:"count"`
	AverageRating           float64        `json:"average_rating"`
	TotalEstimatedCustomers int            `json:"total_estimated_customers"`
	TotalEstimatedRevenue   float64        `json:"total_estimated_revenue"`
	CompetitionLevel        string         `json:"competition_level"`
	Heatmap                 []HeatmapPoint `json:"heatmap"`
}

type CompetitorAnalysis struct {
	Center      GeoPoint          `json:"center"`
	RadiusM     int               `json:"radius_m"`
	Competitors []CompetitorData  `json:"competitors"`
	Summary     CompetitorSummary `json:"summary"`
}

type DemandEstimate struct {
	TargetPopulation       int      `json:"target_population"`
	AnnualUsageRate        float64  `json:"annual_usage_rate"`
	VisitsPerYear          float64  `json:"visits_per_year"`
	MonthlyPotentialVisits float64  `json:"monthly_potential_visits"`
	AverageSpend           float64  `json:"average_spend"`
	MarketSize             float64  `json:"market_size"`
	CompetitorCustomers    *int     `json:"competitor_customers,omitempty"`
	Saturation             *float64 `json:"saturation,omitempty"`
	Opportunity            string   `json:"opportunity,omitempty"`
}
