// internal/workers/analysis/estimate-competitors/models.go
package estimatecompetitors

import (
	"context"

	"site-analytics/internal/models"
)

type Input struct {
	ProjectID    string               `json:"project_id"`
	IndustryType string               `json:"industry_type"`
	Center       *models.GeoPoint     `json:"center"`
	RadiusM      int                  `json:"radius_m"`
	AverageSpend float64              `json:"average_spend,omitempty"`
	Places       []models.PlaceResult `json:"places,omitempty"`
}

type Output struct {
	Competitors models.CompetitorAnalysis `json:"competitors"`
}

// PlaceSearcher fetches candidate competitors around a point.
type PlaceSearcher interface {
	SearchNearby(ctx context.Context, center models.GeoPoint, radiusM int, industryType string) ([]models.PlaceResult, error)
}

const (
	LevelLow    = "low"
	LevelMedium = "medium"
	LevelHigh   = "high"
)
