// internal/store/projects.go
package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"math"
	"strings"
	"time"

	"site-analytics/internal/common/errors"
	"site-analytics/internal/common/logger"
	"site-analytics/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
	recentProjects   = 5
)

const projectColumns = `id, name, industry_type, target_area, description, status,
	postal_code, latitude, longitude, radius_m, created_at, updated_at`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type ProjectStore struct {
	db     *sql.DB
	logger logger.Logger
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProject(row rowScanner) (*models.Project, error) {
	var (
		p        models.Project
		status   string
		lat, lng sql.NullFloat64
	)
	err := row.Scan(&p.ID, &p.Name, &p.IndustryType, &p.TargetArea, &p.Description, &status,
		&p.PostalCode, &lat, &lng, &p.RadiusM, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Status = models.ProjectStatus(status)
	if lat.Valid {
		p.Latitude = &lat.Float64
	}
	if lng.Valid {
		p.Longitude = &lng.Float64
	}
	return &p, nil
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func applyProjectDefaults(in *models.ProjectInput) {
	if in.Status == "" {
		in.Status = models.ProjectStatusActive
	}
	if in.RadiusM <= 0 {
		in.RadiusM = models.DefaultRadiusM
	}
}

func (s *ProjectStore) Create(ctx context.Context, in models.ProjectInput) (*models.Project, error) {
	applyProjectDefaults(&in)
	now := time.Now().UTC()
	p := &models.Project{
		ID:           uuid.NewString(),
		Name:         in.Name,
		IndustryType: in.IndustryType,
		TargetArea:   in.TargetArea,
		Description:  in.Description,
		Status:       in.Status,
		PostalCode:   in.PostalCode,
		Latitude:     in.Latitude,
		Longitude:    in.Longitude,
		RadiusM:      in.RadiusM,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (`+projectColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		p.ID, p.Name, p.IndustryType, p.TargetArea, p.Description, string(p.Status),
		p.PostalCode, nullFloat(p.Latitude), nullFloat(p.Longitude), p.RadiusM, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return nil, errors.NewDatabaseInsertFailedError(err)
	}

	s.logger.Info("project created", map[string]interface{}{"projectId": p.ID, "industry": p.IndustryType})
	return p, nil
}

func (s *ProjectStore) Get(ctx context.Context, id string) (*models.Project, error) {
	if !validID(id) {
		return nil, errors.NewNotFoundError("project", id)
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)
	p, err := scanProject(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFoundError("project", id)
	}
	if err != nil {
		return nil, errors.NewDatabaseQueryFailedError("get_project", err)
	}
	return p, nil
}

// Update replaces every editable field of the project.
func (s *ProjectStore) Update(ctx context.Context, id string, in models.ProjectInput) (*models.Project, error) {
	if !validID(id) {
		return nil, errors.NewNotFoundError("project", id)
	}
	applyProjectDefaults(&in)
	now := time.Now().UTC()

	row := s.db.QueryRowContext(ctx, `
		UPDATE projects
		SET name = $2, industry_type = $3, target_area = $4, description = $5, status = $6,
		    postal_code = $7, latitude = $8, longitude = $9, radius_m = $10, updated_at = $11
		WHERE id = $1
		RETURNING `+projectColumns,
		id, in.Name, in.IndustryType, in.TargetArea, in.Description, string(in.Status),
		in.PostalCode, nullFloat(in.Latitude), nullFloat(in.Longitude), in.RadiusM, now,
	)
	p, err := scanProject(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFoundError("project", id)
	}
	if err != nil {
		return nil, errors.NewDatabaseQueryFailedError("update_project", err)
	}
	return p, nil
}

// Delete removes the project; simulations and analyses cascade.
func (s *ProjectStore) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return errors.NewNotFoundError("project", id)
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return errors.NewDatabaseQueryFailedError("delete_project", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.NewDatabaseQueryFailedError("delete_project", err)
	}
	if n == 0 {
		return errors.NewNotFoundError("project", id)
	}

	s.logger.Info("project deleted", map[string]interface{}{"projectId": id})
	return nil
}

// List filters projects newest first. A non-nil IDs slice restricts the
// result to those ids and takes precedence over Query.
func (s *ProjectStore) List(ctx context.Context, f models.ProjectFilter) (*models.ProjectList, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	list := &models.ProjectList{Items: []models.Project{}, Limit: limit, Offset: offset}

	var (
		where []string
		args  []interface{}
	)
	add := func(clause string, v interface{}) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	switch {
	case f.IDs != nil:
		if len(f.IDs) == 0 {
			return list, nil
		}
		add("id = ANY($%d)", pq.Array(f.IDs))
	case strings.TrimSpace(f.Query) != "":
		add("(name ILIKE $%[1]d OR description ILIKE $%[1]d OR target_area ILIKE $%[1]d)",
			"%"+likeEscaper.Replace(strings.TrimSpace(f.Query))+"%")
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.IndustryType != "" {
		add("industry_type = $%d", f.IndustryType)
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects`+clause, args...).Scan(&list.Total); err != nil {
		return nil, errors.NewDatabaseQueryFailedError("count_projects", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM projects%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		projectColumns, clause, len(args)+1, len(args)+2)
	rows, err := s.db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, errors.NewDatabaseQueryFailedError("list_projects", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, errors.NewDatabaseQueryFailedError("list_projects", err)
		}
		list.Items = append(list.Items, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDatabaseQueryFailedError("list_projects", err)
	}
	return list, nil
}

func (s *ProjectStore) Dashboard(ctx context.Context) (*models.Dashboard, error) {
	d := &models.Dashboard{
		ByStatus:       map[string]int{},
		ByIndustry:     map[string]int{},
		RecentProjects: []models.Project{},
	}

	if err := s.countBy(ctx, "status", d.ByStatus); err != nil {
		return nil, err
	}
	if err := s.countBy(ctx, "industry_type", d.ByIndustry); err != nil {
		return nil, err
	}
	for _, n := range d.ByStatus {
		d.TotalProjects += n
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+projectColumns+` FROM projects ORDER BY created_at DESC LIMIT $1`, recentProjects)
	if err != nil {
		return nil, errors.NewDatabaseQueryFailedError("recent_projects", err)
	}
	defer rows.Close()
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, errors.NewDatabaseQueryFailedError("recent_projects", err)
		}
		d.RecentProjects = append(d.RecentProjects, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDatabaseQueryFailedError("recent_projects", err)
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(AVG((result->>'roi')::float8), 0) FROM simulations`,
	).Scan(&d.SimulationCount, &d.AverageROI)
	if err != nil {
		return nil, errors.NewDatabaseQueryFailedError("simulation_stats", err)
	}
	d.AverageROI = math.Round(d.AverageROI*100) / 100

	return d, nil
}

func (s *ProjectStore) countBy(ctx context.Context, column string, dest map[string]int) error {
	rows, err := s.db.QueryContext(ctx, `SELECT `+column+`, COUNT(*) FROM projects GROUP BY `+column)
	if err != nil {
		return errors.NewDatabaseQueryFailedError("count_by_"+column, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key string
			n   int
		)
		if err := rows.Scan(&key, &n); err != nil {
			return errors.NewDatabaseQueryFailedError("count_by_"+column, err)
		}
		dest[key] = n
	}
	if err := rows.Err(); err != nil {
		return errors.NewDatabaseQueryFailedError("count_by_"+column, err)
	}
	return nil
}
