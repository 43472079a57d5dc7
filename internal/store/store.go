// internal/store/store.go
package store

import (
	"context"
	"database/sql"

	"site-analytics/internal/common/logger"
	"site-analytics/internal/models"
)

// Store groups the PostgreSQL repositories.
type Store struct {
	Projects    *ProjectStore
	Simulations *SimulationStore
	Analyses    *AnalysisStore
}

func New(db *sql.DB, log logger.Logger) *Store {
	log = log.WithFields(map[string]interface{}{"component": "store"})
	return &Store{
		Projects:    &ProjectStore{db: db, logger: log},
		Simulations: &SimulationStore{db: db, logger: log},
		Analyses:    &AnalysisStore{db: db, logger: log},
	}
}

// Project returns one project by id.
func (s *Store) Project(ctx context.Context, id string) (*models.Project, error) {
	return s.Projects.Get(ctx, id)
}

// LatestSimulation returns the newest stored simulation of a project.
func (s *Store) LatestSimulation(ctx context.Context, projectID string) (*models.Simulation, error) {
	return s.Simulations.Latest(ctx, projectID)
}

// LatestCompletedAnalysis returns the newest completed analysis of one type.
func (s *Store) LatestCompletedAnalysis(ctx context.Context, projectID string, kind models.AnalysisType) (*models.AnalysisResult, error) {
	return s.Analyses.Latest(ctx, projectID, kind, true)
}
