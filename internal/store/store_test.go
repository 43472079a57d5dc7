// internal/store/store_test.go
package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"testing"
	"time"

	"site-analytics/internal/common/errors"
	"site-analytics/internal/common/logger"
	"site-analytics/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const projectID = "7d0b3f55-8a56-4c8e-a3a1-2f9c1e7b6a10"

var projectCols = []string{"id", "name", "industry_type", "target_area", "description", "status",
	"postal_code", "latitude", "longitude", "radius_m", "created_at", "updated_at"}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db, logger.NewTestLogger(t)), mock
}

func projectRow(rows *sqlmock.Rows, id, name string, lat interface{}) *sqlmock.Rows {
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	return rows.AddRow(id, name, "beauty_salon", "渋谷区", "", "active", "1500002", lat, 139.7005, 1000, now, now)
}

// ==========================
// Projects
// ==========================

func TestProjectStore_Create(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO projects`).
		WithArgs(sqlmock.AnyArg(), "Shibuya salon", "beauty_salon", "渋谷区", "", "active",
			"", sqlmock.AnyArg(), sqlmock.AnyArg(), 1000, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	p, err := s.Projects.Create(context.Background(), models.ProjectInput{
		Name:         "Shibuya salon",
		IndustryType: "beauty_salon",
		TargetArea:   "渋谷区",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, models.ProjectStatusActive, p.Status)
	assert.Equal(t, models.DefaultRadiusM, p.RadiusM)
	assert.False(t, p.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectStore_CreateFailure(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(`INSERT INTO projects`).WillReturnError(sql.ErrConnDone)

	_, err := s.Projects.Create(context.Background(), models.ProjectInput{Name: "x", IndustryType: "cafe", TargetArea: "港区"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeDatabaseInsertFailed))
}

func TestProjectStore_Get(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT (.+) FROM projects WHERE id = \$1`).
		WithArgs(projectID).
		WillReturnRows(projectRow(sqlmock.NewRows(projectCols), projectID, "Shibuya salon", 35.6595))

	p, err := s.Projects.Get(context.Background(), projectID)
	require.NoError(t, err)
	assert.Equal(t, "Shibuya salon", p.Name)
	loc, ok := p.Location()
	require.True(t, ok)
	assert.Equal(t, 35.6595, loc.Lat)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectStore_GetWithoutCoordinates(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT (.+) FROM projects WHERE id = \$1`).
		WillReturnRows(projectRow(sqlmock.NewRows(projectCols), projectID, "No geo", nil))

	p, err := s.Projects.Get(context.Background(), projectID)
	require.NoError(t, err)
	assert.Nil(t, p.Latitude)
	_, ok := p.Location()
	assert.False(t, ok)
}

func TestProjectStore_NotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT (.+) FROM projects WHERE id = \$1`).
		WithArgs(projectID).
		WillReturnError(sql.ErrNoRows)
	_, err := s.Projects.Get(context.Background(), projectID)
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))

	// malformed ids never reach the database
	_, err = s.Projects.Get(context.Background(), "not-a-uuid")
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))

	mock.ExpectQuery(`UPDATE projects`).WillReturnRows(sqlmock.NewRows(projectCols))
	_, err = s.Projects.Update(context.Background(), projectID, models.ProjectInput{Name: "x"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))

	mock.ExpectExec(`DELETE FROM projects WHERE id = \$1`).
		WithArgs(projectID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err = s.Projects.Delete(context.Background(), projectID)
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectStore_Update(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`UPDATE projects`).
		WithArgs(projectID, "Renamed", "beauty_salon", "渋谷区", "", "paused",
			"", sqlmock.AnyArg(), sqlmock.AnyArg(), 1000, sqlmock.AnyArg()).
		WillReturnRows(projectRow(sqlmock.NewRows(projectCols), projectID, "Renamed", 35.6595))

	p, err := s.Projects.Update(context.Background(), projectID, models.ProjectInput{
		Name:         "Renamed",
		IndustryType: "beauty_salon",
		TargetArea:   "渋谷区",
		Status:       models.ProjectStatusPaused,
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", p.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectStore_List(t *testing.T) {
	tests := []struct {
		name      string
		filter    models.ProjectFilter
		countArgs []driver.Value
		pageArgs  []driver.Value
	}{
		{
			name:      "no filter uses defaults",
			filter:    models.ProjectFilter{},
			countArgs: nil,
			pageArgs:  []driver.Value{DefaultListLimit, 0},
		},
		{
			name:      "query and status",
			filter:    models.ProjectFilter{Query: " 渋谷 ", Status: "active", Limit: 5, Offset: 10},
			countArgs: []driver.Value{"%渋谷%", "active"},
			pageArgs:  []driver.Value{"%渋谷%", "active", 5, 10},
		},
		{
			name:      "like metacharacters are escaped",
			filter:    models.ProjectFilter{Query: "50%_off", Limit: 500},
			countArgs: []driver.Value{`%50\%\_off%`},
			pageArgs:  []driver.Value{`%50\%\_off%`, MaxListLimit, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newMockStore(t)

			count := mock.ExpectQuery(`SELECT COUNT\(\*\) FROM projects`)
			if tt.countArgs != nil {
				count.WithArgs(tt.countArgs...)
			}
			count.WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

			mock.ExpectQuery(`SELECT (.+) FROM projects(.*) ORDER BY created_at DESC LIMIT`).
				WithArgs(tt.pageArgs...).
				WillReturnRows(projectRow(sqlmock.NewRows(projectCols), projectID, "Shibuya salon", 35.6595))

			list, err := s.Projects.List(context.Background(), tt.filter)
			require.NoError(t, err)
			assert.Equal(t, 1, list.Total)
			require.Len(t, list.Items, 1)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestProjectStore_ListByIDs(t *testing.T) {
	s, mock := newMockStore(t)

	// an empty id set means the search matched nothing
	list, err := s.Projects.List(context.Background(), models.ProjectFilter{IDs: []string{}, Query: "x"})
	require.NoError(t, err)
	assert.Equal(t, 0, list.Total)
	assert.Empty(t, list.Items)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM projects WHERE id = ANY\(\$1\)`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`FROM projects WHERE id = ANY\(\$1\) ORDER BY`).
		WillReturnRows(projectRow(sqlmock.NewRows(projectCols), projectID, "Shibuya salon", 35.6595))

	list, err = s.Projects.List(context.Background(), models.ProjectFilter{IDs: []string{projectID}, Query: "salon"})
	require.NoError(t, err)
	assert.Len(t, list.Items, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectStore_Dashboard(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT status, COUNT\(\*\) FROM projects GROUP BY status`).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).AddRow("active", 3).AddRow("paused", 1))
	mock.ExpectQuery(`SELECT industry_type, COUNT\(\*\) FROM projects GROUP BY industry_type`).
		WillReturnRows(sqlmock.NewRows([]string{"industry_type", "count"}).AddRow("beauty_salon", 2).AddRow("cafe", 2))
	mock.ExpectQuery(`FROM projects ORDER BY created_at DESC LIMIT \$1`).
		WithArgs(5).
		WillReturnRows(projectRow(sqlmock.NewRows(projectCols), projectID, "Shibuya salon", 35.6595))
	mock.ExpectQuery(`FROM simulations`).
		WillReturnRows(sqlmock.NewRows([]string{"count", "avg"}).AddRow(6, 1.83333))

	d, err := s.Projects.Dashboard(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, d.TotalProjects)
	assert.Equal(t, map[string]int{"active": 3, "paused": 1}, d.ByStatus)
	assert.Equal(t, 2, d.ByIndustry["cafe"])
	assert.Len(t, d.RecentProjects, 1)
	assert.Equal(t, 6, d.SimulationCount)
	assert.Equal(t, 1.83, d.AverageROI)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Simulations
// ==========================

func TestSimulationStore_CreateAndLatest(t *testing.T) {
	s, mock := newMockStore(t)

	params := models.SimulationParams{IndustryType: "beauty_salon", AverageSpend: 6500, MediaBudgets: map[string]float64{"search_ads": 120000}}
	result := models.SimulationResult{ROI: 1.95}

	mock.ExpectExec(`INSERT INTO simulations`).
		WithArgs(sqlmock.AnyArg(), projectID, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	sim, err := s.Simulations.Create(context.Background(), projectID, params, result)
	require.NoError(t, err)
	assert.Equal(t, projectID, sim.ProjectID)

	paramsJSON, _ := json.Marshal(params)
	resultJSON, _ := json.Marshal(result)
	mock.ExpectQuery(`FROM simulations WHERE project_id = \$1`).
		WithArgs(projectID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "project_id", "params", "result", "created_at"}).
			AddRow(sim.ID, projectID, paramsJSON, resultJSON, sim.CreatedAt))

	latest, err := s.Simulations.Latest(context.Background(), projectID)
	require.NoError(t, err)
	assert.Equal(t, sim.ID, latest.ID)
	assert.Equal(t, 1.95, latest.Result.ROI)
	assert.Equal(t, 120000.0, latest.Params.MediaBudgets["search_ads"])

	mock.ExpectQuery(`FROM simulations WHERE project_id = \$1`).WillReturnError(sql.ErrNoRows)
	_, err = s.Simulations.Latest(context.Background(), projectID)
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))

	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Analyses
// ==========================

func TestAnalysisStore_CreatePending(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	for _, kind := range models.AllAnalysisTypes {
		mock.ExpectExec(`INSERT INTO analysis_results`).
			WithArgs(sqlmock.AnyArg(), projectID, string(kind), "processing", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
	}
	mock.ExpectCommit()

	rows, err := s.Analyses.CreatePending(context.Background(), projectID, models.AllAnalysisTypes)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, models.AnalysisDemographics, rows[0].AnalysisType)
	assert.Equal(t, models.AnalysisStatusProcessing, rows[2].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalysisStore_CreatePendingRollsBack(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO analysis_results`).WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	_, err := s.Analyses.CreatePending(context.Background(), projectID, models.AllAnalysisTypes)
	assert.True(t, errors.HasCode(err, errors.ErrCodeDatabaseInsertFailed))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalysisStore_CompleteAndFail(t *testing.T) {
	s, mock := newMockStore(t)
	analysisID := "0f4c1c2e-5b3d-4e4f-9a7b-8c6d5e4f3a21"

	mock.ExpectExec(`UPDATE analysis_results SET status = \$2`).
		WithArgs(analysisID, "completed", []byte(`{"population":42}`), "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.Analyses.Complete(context.Background(), analysisID, map[string]int{"population": 42}))

	mock.ExpectExec(`UPDATE analysis_results SET status = \$2`).
		WithArgs(analysisID, "failed", nil, "upstream down", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := s.Analyses.Fail(context.Background(), analysisID, "upstream down")
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))

	mock.ExpectExec(`WHERE id = ANY\(\$4\) AND status = \$5`).
		WithArgs("failed", "cancelled", sqlmock.AnyArg(), sqlmock.AnyArg(), "processing").
		WillReturnResult(sqlmock.NewResult(0, 2))
	n, err := s.Analyses.FailProcessing(context.Background(), []string{analysisID, projectID}, "cancelled")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalysisStore_LatestByProject(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT DISTINCT ON \(analysis_type\)`).
		WithArgs(projectID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "project_id", "analysis_type", "status", "result", "error", "created_at", "updated_at"}).
			AddRow("a1", projectID, "demand", "completed", []byte(`{"market_size":1}`), "", now, now).
			AddRow("a2", projectID, "demographics", "failed", nil, "boom", now, now))

	rows, err := s.Analyses.LatestByProject(context.Background(), projectID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, models.AnalysisDemand, rows[0].AnalysisType)
	assert.JSONEq(t, `{"market_size":1}`, string(rows[0].Result))
	assert.Nil(t, rows[1].Result)
	assert.Equal(t, "boom", rows[1].Error)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalysisStore_LatestCompletedOnly(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`AND status = \$3 ORDER BY created_at DESC LIMIT 1`).
		WithArgs(projectID, "competitors", "completed").
		WillReturnError(sql.ErrNoRows)

	_, err := s.Analyses.Latest(context.Background(), projectID, models.AnalysisCompetitors, true)
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}
