// internal/models/project.go
package models

import "time"

type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusPaused    ProjectStatus = "paused"
)

const (
	ProjectNameMaxLength = 120
	DefaultRadiusM       = 1000
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusActive, ProjectStatusCompleted, ProjectStatusPaused:
		return true
	}
	return false
}

type Project struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	IndustryType string        `json:"industry_type"`
	TargetArea   string        `json:"target_area"`
	Description  string        `json:"description"`
	Status       ProjectStatus `json:"status"`
	PostalCode   string        `json:"postal_code,omitempty"`
	Latitude     *float64      `json:"latitude,omitempty"`
	Longitude    *float64      `json:"longitude,omitempty"`
	RadiusM      int           `json:"radius_m"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// Location returns the project coordinates when both are set.
func (p *Project) Location() (GeoPoint, bool) {
	if p.Latitude == nil || p.Longitude == nil {
		return GeoPoint{}, false
	}
	return GeoPoint{Lat: *p.Latitude, Lng: *p.Longitude}, true
}

// ProjectInput is the editable part of a project, used by create and replace.
type ProjectInput struct {
	Name         string        `json:"name"`
	IndustryType string        `json:"industry_type"`
	TargetArea   string        `json:"target_area"`
	Description  string        `json:"description"`
	Status       ProjectStatus `json:"status"`
	PostalCode   string        `json:"postal_code"`
	Latitude     *float64      `json:"latitude"`
	Longitude    *float64      `json:"longitude"`
	RadiusM      int           `json:"radius_m"`
}

type ProjectFilter struct {
	Query        string
	Status       string
	IndustryType string
	IDs          []string
	Limit        int
	Offset       int
}

type ProjectList struct {
	Items  []Project `json:"items"`
	Total  int       `json:"total"`
	Limit  int       `json:"limit"`
	Offset int       `json:"offset"`
}

type Dashboard struct {
	TotalProjects   int            `json:"total_projects"`
	ByStatus        map[string]int `json:"by_status"`
	ByIndustry      map[string]int `json:"by_industry"`
	RecentProjects  []Project      `json:"recent_projects"`
	SimulationCount int            `json:"simulation_count"`
	AverageROI      float64        `json:"average_roi"`
}
