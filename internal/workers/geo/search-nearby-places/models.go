// internal/workers/geo/search-nearby-places/models.go
package searchnearbyplaces

import "site-analytics/internal/models"

type Input struct {
	ProjectID    string           `json:"project_id,omitempty"`
	Query        string           `json:"query,omitempty"`
	Location     *models.GeoPoint `json:"location,omitempty"`
	RadiusM      int              `json:"radius_m,omitempty"`
	IndustryType string           `json:"industry_type"`
}

type Output struct {
	Center  models.GeoPoint      `json:"center"`
	RadiusM int                  `json:"radius_m"`
	Places  []models.PlaceResult `json:"places"`
	Source  models.PlaceSource   `json:"source"`
}
