// internal/store/simulations.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"time"

	"site-analytics/internal/common/errors"
	"site-analytics/internal/common/logger"
	"site-analytics/internal/models"

	"github.com/google/uuid"
)

type SimulationStore struct {
	db     *sql.DB
	logger logger.Logger
}

func scanSimulation(row rowScanner) (*models.Simulation, error) {
	var (
		sim            models.Simulation
		params, result []byte
	)
	if err := row.Scan(&sim.ID, &sim.ProjectID, &params, &result, &sim.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(params, &sim.Params); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(result, &sim.Result); err != nil {
		return nil, err
	}
	return &sim, nil
}

func (s *SimulationStore) Create(ctx context.Context, projectID string, params models.SimulationParams, result models.SimulationResult) (*models.Simulation, error) {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}

	sim := &models.Simulation{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Params:    params,
		Result:    result,
		CreatedAt: time.Now().UTC(),
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO simulations (id, project_id, params, result, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		sim.ID, sim.ProjectID, paramsJSON, resultJSON, sim.CreatedAt,
	)
	if err != nil {
		return nil, errors.NewDatabaseInsertFailedError(err)
	}

	s.logger.Info("simulation stored", map[string]interface{}{
		"projectId":    projectID,
		"simulationId": sim.ID,
		"roi":          result.ROI,
	})
	return sim, nil
}

func (s *SimulationStore) ListByProject(ctx context.Context, projectID string) ([]models.Simulation, error) {
	sims := []models.Simulation{}
	if !validID(projectID) {
		return sims, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, params, result, created_at
		FROM simulations WHERE project_id = $1
		ORDER BY created_at DESC`, projectID)
	if err != nil {
		return nil, errors.NewDatabaseQueryFailedError("list_simulations", err)
	}
	defer rows.Close()

	for rows.Next() {
		sim, err := scanSimulation(rows)
		if err != nil {
			return nil, errors.NewDatabaseQueryFailedError("list_simulations", err)
		}
		sims = append(sims, *sim)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDatabaseQueryFailedError("list_simulations", err)
	}
	return sims, nil
}

// Latest returns the newest simulation of the project.
func (s *SimulationStore) Latest(ctx context.Context, projectID string) (*models.Simulation, error) {
	if !validID(projectID) {
		return nil, errors.NewNotFoundError("simulation", projectID)
	}
	row := s.db.QueryRowContext(ctx, `
		SELECT id, project_id, params, result, created_at
		FROM simulations WHERE project_id = $1
		ORDER BY created_at DESC LIMIT 1`, projectID)
	sim, err := scanSimulation(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFoundError("simulation", projectID)
	}
	if err != nil {
		return nil, errors.NewDatabaseQueryFailedError("latest_simulation", err)
	}
	return sim, nil
}
