// internal/api/server_test.go
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"site-analytics/internal/common/errors"
	"site-analytics/internal/common/logger"
	"site-analytics/internal/models"
	"site-analytics/internal/search"
	emailreport "site-analytics/internal/workers/communication/email-report"
	lookuppostalcode "site-analytics/internal/workers/geo/lookup-postal-code"
	searchnearbyplaces "site-analytics/internal/workers/geo/search-nearby-places"
	buildreport "site-analytics/internal/workers/report/build-report"
	simulatefunnel "site-analytics/internal/workers/simulation/simulate-funnel"
	"site-analytics/pkg/benchmarks"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// ==========================
// Fakes
// ==========================

type memProjects struct {
	mu       sync.Mutex
	seq      int
	items    map[string]*models.Project
	lastList models.ProjectFilter
	failWith error
}

func newMemProjects() *memProjects {
	return &memProjects{items: map[string]*models.Project{}}
}

func (m *memProjects) Create(_ context.Context, in models.ProjectInput) (*models.Project, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	if in.Status == "" {
		in.Status = models.ProjectStatusActive
	}
	if in.RadiusM == 0 {
		in.RadiusM = models.DefaultRadiusM
	}
	p := &models.Project{
		ID: fmt.Sprintf("p-%d", m.seq), Name: in.Name, IndustryType: in.IndustryType, TargetArea: in.TargetArea,
		Description: in.Description, Status: in.Status, PostalCode: in.PostalCode,
		Latitude: in.Latitude, Longitude: in.Longitude, RadiusM: in.RadiusM,
		CreatedAt: time.Now().Add(time.Duration(m.seq) * time.Second),
	}
	m.items[p.ID] = p
	return p, nil
}

func (m *memProjects) Get(_ context.Context, id string) (*models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok {
		return nil, errors.NewNotFoundError("project", id)
	}
	return p, nil
}

func (m *memProjects) Update(_ context.Context, id string, in models.ProjectInput) (*models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok {
		return nil, errors.NewNotFoundError("project", id)
	}
	p.Name, p.IndustryType, p.TargetArea, p.Description = in.Name, in.IndustryType, in.TargetArea, in.Description
	if in.Status != "" {
		p.Status = in.Status
	}
	return p, nil
}

func (m *memProjects) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return errors.NewNotFoundError("project", id)
	}
	delete(m.items, id)
	return nil
}

func (m *memProjects) List(_ context.Context, f models.ProjectFilter) (*models.ProjectList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastList = f
	list := &models.ProjectList{Items: []models.Project{}}
	allowed := map[string]bool{}
	for _, id := range f.IDs {
		allowed[id] = true
	}
	for _, p := range m.items {
		if f.IDs != nil && !allowed[p.ID] {
			continue
		}
		if f.Status != "" && string(p.Status) != f.Status {
			continue
		}
		list.Items = append(list.Items, *p)
	}
	sort.Slice(list.Items, func(i, j int) bool { return list.Items[i].ID < list.Items[j].ID })
	list.Total = len(list.Items)
	return list, nil
}

func (m *memProjects) Dashboard(_ context.Context) (*models.Dashboard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &models.Dashboard{TotalProjects: len(m.items)}, nil
}

type memSimulations struct {
	mu    sync.Mutex
	items []models.Simulation
}

func (m *memSimulations) Create(_ context.Context, projectID string, params models.SimulationParams, result models.SimulationResult) (*models.Simulation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sim := models.Simulation{ID: fmt.Sprintf("s-%d", len(m.items)+1), ProjectID: projectID, Params: params, Result: result}
	m.items = append(m.items, sim)
	return &sim, nil
}

func (m *memSimulations) ListByProject(_ context.Context, projectID string) ([]models.Simulation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Simulation{}
	for _, s := range m.items {
		if s.ProjectID == projectID {
			out = append(out, s)
		}
	}
	return out, nil
}

type memAnalyses struct {
	rows []models.AnalysisResult
}

func (m *memAnalyses) LatestByProject(_ context.Context, projectID string) ([]models.AnalysisResult, error) {
	out := []models.AnalysisResult{}
	for _, r := range m.rows {
		if r.ProjectID == projectID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memAnalyses) Latest(_ context.Context, projectID string, kind models.AnalysisType, _ bool) (*models.AnalysisResult, error) {
	for i := range m.rows {
		if m.rows[i].ProjectID == projectID && m.rows[i].AnalysisType == kind {
			return &m.rows[i], nil
		}
	}
	return nil, errors.NewNotFoundError("analysis", string(kind))
}

type fakeSearch struct {
	ids      []string
	err      error
	indexed  []string
	deleted  []string
	lastText string
}

func (f *fakeSearch) Index(_ context.Context, p *models.Project) error {
	f.indexed = append(f.indexed, p.ID)
	return fmt.Errorf("index unavailable")
}

func (f *fakeSearch) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeSearch) SearchIDs(_ context.Context, q search.ProjectQuery) ([]string, error) {
	f.lastText = q.Text
	return f.ids, f.err
}

type fakePipeline struct {
	types []models.AnalysisType
	err   error
}

func (f *fakePipeline) Start(_ context.Context, project *models.Project, types []models.AnalysisType) ([]models.AnalysisResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.types = types
	rows := make([]models.AnalysisResult, 0, len(types))
	for _, t := range types {
		rows = append(rows, models.AnalysisResult{ID: "a-" + string(t), ProjectID: project.ID, AnalysisType: t, Status: models.AnalysisStatusProcessing})
	}
	return rows, nil
}

type fakePostal struct {
	err error
}

func (f *fakePostal) Execute(_ context.Context, input *lookuppostalcode.Input) (*lookuppostalcode.Output, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &lookuppostalcode.Output{Address: models.PostalAddress{Zipcode: input.PostalCode, Prefecture: "東京都"}}, nil
}

type fakePlaces struct {
	input *searchnearbyplaces.Input
	err   error
}

func (f *fakePlaces) Execute(_ context.Context, input *searchnearbyplaces.Input) (*searchnearbyplaces.Output, error) {
	f.input = input
	if f.err != nil {
		return nil, f.err
	}
	return &searchnearbyplaces.Output{RadiusM: 1000, Places: []models.PlaceResult{{PlaceID: "x"}}, Source: models.PlaceSourceMock}, nil
}

func (f *fakePlaces) Geocode(_ context.Context, query string) (*models.GeocodeResult, error) {
	if query == "" {
		return nil, errors.NewValidationError("query is required")
	}
	return &models.GeocodeResult{Query: query, Location: models.GeoPoint{Lat: 35.6, Lng: 139.7}, Source: models.PlaceSourceMock}, nil
}

type fakeReports struct{}

func (fakeReports) Execute(_ context.Context, input *buildreport.Input) (*buildreport.Output, error) {
	if input.Format == "docx" {
		return nil, errors.NewValidationError("unsupported report format")
	}
	return &buildreport.Output{
		ProjectID: input.ProjectID, Format: "json", Filename: "site-report-p-1.json",
		ContentType: "application/json", Content: []byte(`{"ok":true}`),
	}, nil
}

type fakeMailer struct {
	input *emailreport.Input
	err   error
}

func (f *fakeMailer) Execute(_ context.Context, input *emailreport.Input) (*emailreport.Output, error) {
	f.input = input
	if f.err != nil {
		return nil, f.err
	}
	return &emailreport.Output{MessageID: "m-1", To: input.To}, nil
}

// ==========================
// Harness
// ==========================

type harness struct {
	server      *Server
	projects    *memProjects
	simulations *memSimulations
	analyses    *memAnalyses
	search      *fakeSearch
	pipeline    *fakePipeline
	places      *fakePlaces
	mailer      *fakeMailer
	postal      *fakePostal
}

func newHarness(t *testing.T) *harness {
	gin.SetMode(gin.TestMode)
	log := logger.NewTestLogger(t)
	catalogue := benchmarks.Default()

	h := &harness{
		projects:    newMemProjects(),
		simulations: &memSimulations{},
		analyses:    &memAnalyses{},
		search:      &fakeSearch{},
		pipeline:    &fakePipeline{},
		places:      &fakePlaces{},
		mailer:      &fakeMailer{},
		postal:      &fakePostal{},
	}
	cfg := DefaultConfig()
	cfg.RequestsPerSec = 0
	h.server = NewServer(cfg, Dependencies{
		Projects:    h.projects,
		Simulations: h.simulations,
		Analyses:    h.analyses,
		Search:      h.search,
		Catalogue:   catalogue,
		Simulator:   simulatefunnel.NewHandler(simulatefunnel.LoadConfig(), catalogue, log),
		Pipeline:    h.pipeline,
		Postal:      h.postal,
		Places:      h.places,
		Reports:     fakeReports{},
		Mailer:      h.mailer,
		Logger:      log,
	})
	return h
}

func (h *harness) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.server.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dest), w.Body.String())
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorBody
	decode(t, w, &body)
	return body.Error.Code
}

func validProject() map[string]interface{} {
	return map[string]interface{}{
		"name":          "Shibuya salon",
		"industry_type": "beauty_salon",
		"target_area":   "渋谷区",
		"postal_code":   "150-0002",
		"latitude":      35.6595,
		"longitude":     139.7005,
	}
}

func (h *harness) createProject(t *testing.T) models.Project {
	t.Helper()
	w := h.do(t, http.MethodPost, "/api/projects", validProject())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var p models.Project
	decode(t, w, &p)
	return p
}
