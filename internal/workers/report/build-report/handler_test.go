// internal/workers/report/build-report/handler_test.go
package buildreport

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"site-analytics/internal/common/errors"
	"site-analytics/internal/common/logger"
	"site-analytics/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const projectID = "7d0b3f55-8a56-4c8e-a3a1-2f9c1e7b6a10"

type fakeSource struct {
	project    *models.Project
	simulation *models.Simulation
	analyses   map[models.AnalysisType]*models.AnalysisResult
}

func (f *fakeSource) Project(_ context.Context, id string) (*models.Project, error) {
	if f.project == nil || f.project.ID != id {
		return nil, errors.NewNotFoundError("project", id)
	}
	return f.project, nil
}

func (f *fakeSource) LatestSimulation(_ context.Context, projectID string) (*models.Simulation, error) {
	if f.simulation == nil {
		return nil, errors.NewNotFoundError("simulation", projectID)
	}
	return f.simulation, nil
}

func (f *fakeSource) LatestCompletedAnalysis(_ context.Context, projectID string, kind models.AnalysisType) (*models.AnalysisResult, error) {
	a, ok := f.analyses[kind]
	if !ok {
		return nil, errors.NewNotFoundError("analysis", string(kind))
	}
	return a, nil
}

func analysis(t *testing.T, kind models.AnalysisType, payload interface{}) *models.AnalysisResult {
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return &models.AnalysisResult{ID: "a-" + string(kind), ProjectID: projectID, AnalysisType: kind, Status: models.AnalysisStatusCompleted, Result: raw}
}

func fullSource(t *testing.T) *fakeSource {
	lat, lng := 35.6595, 139.7005
	breakeven := 5
	saturation := 0.47
	customers := 2000

	return &fakeSource{
		project: &models.Project{
			ID: projectID, Name: "Shibuya salon", IndustryType: "beauty_salon", TargetArea: "渋谷区",
			Status: models.ProjectStatusActive, Latitude: &lat, Longitude: &lng, RadiusM: 1000,
		},
		simulation: &models.Simulation{
			ID: "s-1", ProjectID: projectID,
			Result: models.SimulationResult{
				Channels:        []models.ChannelResult{{Channel: "search_ads", Budget: 120000, CPC: 120, CVR: 0.03, Clicks: 1000, NewCustomers: 30, Revenue: 195000}},
				Totals:          models.SimulationTotals{TotalRevenue: 234000, MonthlyProfit: 23800},
				ROI:             1.95,
				BreakevenMonths: &breakeven,
			},
		},
		analyses: map[models.AnalysisType]*models.AnalysisResult{
			models.AnalysisDemographics: analysis(t, models.AnalysisDemographics, models.Demographics{
				Area: "渋谷区", Population: 42000, TargetPopulation: 9000,
				AgeDistribution: []models.AgeShare{{Band: "20-29", Share: 0.2, Population: 8400}},
			}),
			models.AnalysisCompetitors: analysis(t, models.AnalysisCompetitors, models.CompetitorAnalysis{
				RadiusM: 1000,
				Competitors: []models.CompetitorData{{
					PlaceResult:               models.PlaceResult{PlaceID: "p-1", Name: "Salon A", Rating: 4.5},
					EstimatedMonthlyCustomers: 416, MarketShare: 1,
				}},
				Summary: models.CompetitorSummary{Count: 1, CompetitionLevel: "low"},
			}),
			models.AnalysisDemand: analysis(t, models.AnalysisDemand, models.DemandEstimate{
				TargetPopulation: 9000, MarketSize: 27625000, CompetitorCustomers: &customers, Saturation: &saturation, Opportunity: "high",
			}),
		},
	}
}

func newTestHandler(t *testing.T, src Source) *Handler {
	h := NewHandler(LoadConfig(), src, logger.NewTestLogger(t))
	h.now = func() time.Time { return time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC) }
	return h
}

// ==========================
// Assembly
// ==========================

func TestHandler_Assemble(t *testing.T) {
	h := newTestHandler(t, fullSource(t))

	r, err := h.Assemble(context.Background(), projectID)
	require.NoError(t, err)

	assert.Equal(t, "Shibuya salon", r.Project.Name)
	require.NotNil(t, r.Simulation)
	require.NotNil(t, r.Demographics)
	assert.Equal(t, 42000, r.Demographics.Population)
	require.NotNil(t, r.Competitors)
	assert.Equal(t, "Salon A", r.Competitors.Competitors[0].Name)
	require.NotNil(t, r.Demand)
	assert.Equal(t, "high", r.Demand.Opportunity)
}

func TestHandler_Assemble_ProjectOnly(t *testing.T) {
	src := fullSource(t)
	src.simulation = nil
	src.analyses = nil
	h := newTestHandler(t, src)

	r, err := h.Assemble(context.Background(), projectID)
	require.NoError(t, err)
	assert.Nil(t, r.Simulation)
	assert.Nil(t, r.Demographics)
	assert.Nil(t, r.Competitors)
	assert.Nil(t, r.Demand)

	sections := buildSections(r, 10)
	require.Len(t, sections, 1)
	assert.Equal(t, "Project", sections[0].Title)
}

func TestHandler_Assemble_MissingProject(t *testing.T) {
	h := newTestHandler(t, &fakeSource{})

	_, err := h.Execute(context.Background(), &Input{ProjectID: projectID, Format: "json"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))
}

// ==========================
// Rendering
// ==========================

func TestHandler_Execute_JSON(t *testing.T) {
	h := newTestHandler(t, fullSource(t))

	out, err := h.Execute(context.Background(), &Input{ProjectID: projectID, Format: "JSON"})
	require.NoError(t, err)

	assert.Equal(t, "application/json", out.ContentType)
	assert.Equal(t, "site-report-7d0b3f55-20260401.json", out.Filename)

	var decoded Report
	require.NoError(t, json.Unmarshal(out.Content, &decoded))
	assert.Equal(t, projectID, decoded.Project.ID)
	assert.Equal(t, 1.95, decoded.Simulation.Result.ROI)
}

func TestHandler_Execute_PDF(t *testing.T) {
	h := newTestHandler(t, fullSource(t))

	out, err := h.Execute(context.Background(), &Input{ProjectID: projectID})
	require.NoError(t, err)

	assert.Equal(t, FormatPDF, out.Format)
	assert.Equal(t, "application/pdf", out.ContentType)
	assert.True(t, bytes.HasPrefix(out.Content, []byte("%PDF-")))
}

func TestHandler_Execute_XLSX(t *testing.T) {
	h := newTestHandler(t, fullSource(t))

	out, err := h.Execute(context.Background(), &Input{ProjectID: projectID, Format: "xlsx"})
	require.NoError(t, err)

	wb, err := excelize.OpenReader(bytes.NewReader(out.Content))
	require.NoError(t, err)
	defer wb.Close()

	assert.Equal(t, []string{"Project", "Simulation", "Demographics", "Competitors", "Demand"}, wb.GetSheetList())

	name, err := wb.GetCellValue("Project", "B1")
	require.NoError(t, err)
	assert.Equal(t, "Shibuya salon", name)

	label, err := wb.GetCellValue("Simulation", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Total revenue", label)
}

func TestHandler_Execute_UnknownFormat(t *testing.T) {
	h := newTestHandler(t, fullSource(t))

	_, err := h.Execute(context.Background(), &Input{ProjectID: projectID, Format: "docx"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidationFailed))
}

func TestDisplay(t *testing.T) {
	assert.Equal(t, "1,234,567", display(count(1234567)))
	assert.Equal(t, "47.0%", display(ratio(0.47)))
	assert.Equal(t, "1.95", display(1.95))
	assert.Equal(t, "-", display(nil))
	assert.Equal(t, "never", display("never"))
}
