// internal/workers/report/build-report/models.go
package buildreport

import (
	"context"
	"time"

	"site-analytics/internal/models"
)

const (
	FormatJSON = "json"
	FormatPDF  = "pdf"
	FormatXLSX = "xlsx"
)

var contentTypes = map[string]string{
	FormatJSON: "application/json",
	FormatPDF:  "application/pdf",
	FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// ContentType returns the MIME type of a supported format.
func ContentType(format string) (string, bool) {
	ct, ok := contentTypes[format]
	return ct, ok
}

type Input struct {
	ProjectID string `json:"project_id"`
	Format    string `json:"format"`
}

type Output struct {
	ProjectID   string `json:"project_id"`
	Format      string `json:"format"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Content     []byte `json:"content"`
}

// Report is everything known about a project at render time.
type Report struct {
	Title        string                     `json:"title"`
	GeneratedAt  time.Time                  `json:"generated_at"`
	Project      models.Project             `json:"project"`
	Simulation   *models.Simulation         `json:"simulation,omitempty"`
	Demographics *models.Demographics       `json:"demographics,omitempty"`
	Competitors  *models.CompetitorAnalysis `json:"competitors,omitempty"`
	Demand       *models.DemandEstimate     `json:"demand,omitempty"`
}

// Source loads the data a report is assembled from.
type Source interface {
	Project(ctx context.Context, id string) (*models.Project, error)
	LatestSimulation(ctx context.Context, projectID string) (*models.Simulation, error)
	LatestCompletedAnalysis(ctx context.Context, projectID string, kind models.AnalysisType) (*models.AnalysisResult, error)
}
