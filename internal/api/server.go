// internal/api/server.go
package api

import (
	"context"
	"net/http"
	"time"

	"site-analytics/internal/common/logger"
	"site-analytics/internal/common/observability"
	"site-analytics/internal/models"
	"site-analytics/internal/search"
	emailreport "site-analytics/internal/workers/communication/email-report"
	lookuppostalcode "site-analytics/internal/workers/geo/lookup-postal-code"
	searchnearbyplaces "site-analytics/internal/workers/geo/search-nearby-places"
	buildreport "site-analytics/internal/workers/report/build-report"
	simulatefunnel "site-analytics/internal/workers/simulation/simulate-funnel"
	"site-analytics/pkg/benchmarks"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type Config struct {
	AllowedOrigins []string
	RequestsPerSec float64
	Burst          int
	RequestTimeout time.Duration
	SearchSize     int
}

func DefaultConfig() Config {
	return Config{
		AllowedOrigins: []string{"*"},
		RequestsPerSec: 50,
		Burst:          100,
		RequestTimeout: 60 * time.Second,
		SearchSize:     500,
	}
}

type ProjectRepository interface {
	Create(ctx context.Context, in models.ProjectInput) (*models.Project, error)
	Get(ctx context.Context, id string) (*models.Project, error)
	Update(ctx context.Context, id string, in models.ProjectInput) (*models.Project, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f models.ProjectFilter) (*models.ProjectList, error)
	Dashboard(ctx context.Context) (*models.Dashboard, error)
}

type SimulationRepository interface {
	Create(ctx context.Context, projectID string, params models.SimulationParams, result models.SimulationResult) (*models.Simulation, error)
	ListByProject(ctx context.Context, projectID string) ([]models.Simulation, error)
}

type AnalysisRepository interface {
	LatestByProject(ctx context.Context, projectID string) ([]models.AnalysisResult, error)
	Latest(ctx context.Context, projectID string, kind models.AnalysisType, completedOnly bool) (*models.AnalysisResult, error)
}

// ProjectSearcher is the optional full-text index.
type ProjectSearcher interface {
	Index(ctx context.Context, project *models.Project) error
	Delete(ctx context.Context, id string) error
	SearchIDs(ctx context.Context, q search.ProjectQuery) ([]string, error)
}

type Simulator interface {
	Execute(ctx context.Context, input *simulatefunnel.Input) (*simulatefunnel.Output, error)
}

type AnalysisStarter interface {
	Start(ctx context.Context, project *models.Project, types []models.AnalysisType) ([]models.AnalysisResult, error)
}

type PostalLookup interface {
	Execute(ctx context.Context, input *lookuppostalcode.Input) (*lookuppostalcode.Output, error)
}

type PlaceFinder interface {
	Execute(ctx context.Context, input *searchnearbyplaces.Input) (*searchnearbyplaces.Output, error)
	Geocode(ctx context.Context, query string) (*models.GeocodeResult, error)
}

type ReportRenderer interface {
	Execute(ctx context.Context, input *buildreport.Input) (*buildreport.Output, error)
}

type ReportMailer interface {
	Execute(ctx context.Context, input *emailreport.Input) (*emailreport.Output, error)
}

// Dependencies are the collaborators behind the routes. Search and
// Observability may be nil.
type Dependencies struct {
	Projects      ProjectRepository
	Simulations   SimulationRepository
	Analyses      AnalysisRepository
	Search        ProjectSearcher
	Catalogue     *benchmarks.Catalogue
	Simulator     Simulator
	Pipeline      AnalysisStarter
	Postal        PostalLookup
	Places        PlaceFinder
	Reports       ReportRenderer
	Mailer        ReportMailer
	Observability *observability.Observability
	Logger        logger.Logger
}

type Server struct {
	config  Config
	deps    Dependencies
	obs     *observability.Observability
	logger  logger.Logger
	limiter *rate.Limiter
	router  *gin.Engine
}

func NewServer(config Config, deps Dependencies) *Server {
	obs := deps.Observability
	if obs == nil {
		obs = observability.NewNoop()
	}
	s := &Server{
		config: config,
		deps:   deps,
		obs:    obs,
		logger: deps.Logger.WithFields(map[string]interface{}{"component": "api"}),
		router: gin.New(),
	}
	if config.RequestsPerSec > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSec), config.Burst)
	}
	s.setupRoutes()
	return s
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.Use(
		gin.CustomRecovery(s.recover),
		s.cors(),
		s.observe(),
		s.rateLimit(),
		s.timeout(),
	)

	api := s.router.Group("/api")

	api.GET("/industries", s.listIndustries)
	api.GET("/dashboard", s.dashboard)

	api.GET("/projects", s.listProjects)
	api.POST("/projects", s.createProject)
	api.GET("/projects/:id", s.getProject)
	api.PUT("/projects/:id", s.updateProject)
	api.DELETE("/projects/:id", s.deleteProject)

	api.POST("/simulate", s.simulate)
	api.POST("/projects/:id/simulate", s.simulateProject)
	api.GET("/projects/:id/simulations", s.listSimulations)

	api.POST("/projects/:id/analyze", s.analyze)
	api.GET("/projects/:id/analyses", s.listAnalyses)
	api.GET("/projects/:id/analyses/:type", s.getAnalysis)

	api.GET("/projects/:id/report", s.report)
	api.POST("/projects/:id/report/email", s.emailReport)

	api.GET("/postal-codes/:code", s.postalCode)
	api.GET("/places/nearby", s.nearbyPlaces)
	api.GET("/geocode", s.geocode)

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorBody{Error: errorDetail{Code: "NOT_FOUND", Message: "route not found"}})
	})
}
