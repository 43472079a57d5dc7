// internal/store/analyses.go
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
	"github.com/lib/pq"
)

const analysisColumns = `id, project_id, analysis_type, status, result, error, created_at, updated_at`

type AnalysisStore struct {
	db     *sql.DB
	logger logger.Logger
}

func scanAnalysis(row rowScanner) (*models.AnalysisResult, error) {
	var (
		a            models.AnalysisResult
		kind, status string
		result       []byte
	)
	if err := row.Scan(&a.ID, &a.ProjectID, &kind, &status, &result, &a.Error, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.AnalysisType = models.AnalysisType(kind)
	a.Status = models.AnalysisStatus(status)
	if len(result) > 0 {
		a.Result = json.RawMessage(result)
	}
	return &a, nil
}

// CreatePending inserts one processing row per type, in order, in a single
// transaction.
func (s *AnalysisStore) CreatePending(ctx context.Context, projectID string, types []models.AnalysisType) ([]models.AnalysisResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.NewDatabaseConnectionFailedError(err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	out := make([]models.AnalysisResult, 0, len(types))
	for _, t := range types {
		a := models.AnalysisResult{
			ID:           uuid.NewString(),
			ProjectID:    projectID,
			AnalysisType: t,
			Status:       models.AnalysisStatusProcessing,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO analysis_results (id, project_id, analysis_type, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			a.ID, a.ProjectID, string(a.AnalysisType), string(a.Status), a.CreatedAt, a.UpdatedAt,
		)
		if err != nil {
			return nil, errors.NewDatabaseInsertFailedError(err)
		}
		out = append(out, a)
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewDatabaseInsertFailedError(err)
	}
	return out, nil
}

// Complete stores the payload and marks the row completed.
func (s *AnalysisStore) Complete(ctx context.Context, id string, result interface{}) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return errors.NewInternalError(err)
	}
	return s.finish(ctx, id, models.AnalysisStatusCompleted, payload, "")
}

// Fail marks the row failed with a message.
func (s *AnalysisStore) Fail(ctx context.Context, id, message string) error {
	return s.finish(ctx, id, models.AnalysisStatusFailed, nil, message)
}

// FailProcessing marks every still-processing row among ids as failed.
func (s *AnalysisStore) FailProcessing(ctx context.Context, ids []string, message string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE analysis_results SET status = $1, error = $2, updated_at = $3
		WHERE id = ANY($4) AND status = $5`,
		string(models.AnalysisStatusFailed), message, time.Now().UTC(), pq.Array(ids),
		string(models.AnalysisStatusProcessing),
	)
	if err != nil {
		return 0, errors.NewDatabaseQueryFailedError("fail_processing_analyses", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (s *AnalysisStore) finish(ctx context.Context, id string, status models.AnalysisStatus, payload []byte, message string) error {
	if !validID(id) {
		return errors.NewNotFoundError("analysis", id)
	}
	var result interface{}
	if payload != nil {
		result = payload
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE analysis_results SET status = $2, result = $3, error = $4, updated_at = $5
		WHERE id = $1`,
		id, string(status), result, message, time.Now().UTC(),
	)
	if err != nil {
		return errors.NewDatabaseQueryFailedError("finish_analysis", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.NewNotFoundError("analysis", id)
	}

	s.logger.Debug("analysis finished", map[string]interface{}{"analysisId": id, "status": string(status)})
	return nil
}

func (s *AnalysisStore) Get(ctx context.Context, id string) (*models.AnalysisResult, error) {
	if !validID(id) {
		return nil, errors.NewNotFoundError("analysis", id)
	}
	a, err := scanAnalysis(s.db.QueryRowContext(ctx,
		`SELECT `+analysisColumns+` FROM analysis_results WHERE id = $1`, id))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFoundError("analysis", id)
	}
	if err != nil {
		return nil, errors.NewDatabaseQueryFailedError("get_analysis", err)
	}
	return a, nil
}

// LatestByProject returns the newest row of each analysis type.
func (s *AnalysisStore) LatestByProject(ctx context.Context, projectID string) ([]models.AnalysisResult, error) {
	out := []models.AnalysisResult{}
	if !validID(projectID) {
		return out, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT ON (analysis_type) `+analysisColumns+`
		FROM analysis_results WHERE project_id = $1
		ORDER BY analysis_type, created_at DESC`, projectID)
	if err != nil {
		return nil, errors.NewDatabaseQueryFailedError("latest_analyses", err)
	}
	defer rows.Close()

	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, errors.NewDatabaseQueryFailedError("latest_analyses", err)
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDatabaseQueryFailedError("latest_analyses", err)
	}
	return out, nil
}

// Latest returns the newest row of one type, optionally only completed ones.
func (s *AnalysisStore) Latest(ctx context.Context, projectID string, kind models.AnalysisType, completedOnly bool) (*models.AnalysisResult, error) {
	if !validID(projectID) {
		return nil, errors.NewNotFoundError("analysis", string(kind))
	}

	query := `SELECT ` + analysisColumns + ` FROM analysis_results
		WHERE project_id = $1 AND analysis_type = $2`
	args := []interface{}{projectID, string(kind)}
	if completedOnly {
		query += ` AND status = $3`
		args = append(args, string(models.AnalysisStatusCompleted))
	}
	query += ` ORDER BY created_at DESC LIMIT 1`

	a, err := scanAnalysis(s.db.QueryRowContext(ctx, query, args...))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFoundError("analysis", string(kind))
	}
	if err != nil {
		return nil, errors.NewDatabaseQueryFailedError("latest_analysis", err)
	}
	return a, nil
}
