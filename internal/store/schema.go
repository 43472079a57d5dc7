// internal/store/schema.go
package store

// Migrations creates the schema. Every statement is idempotent.
var Migrations = []string{
	`CREATE TABLE IF NOT EXISTS projects (
		id            UUID PRIMARY KEY,
		name          VARCHAR(120) NOT NULL,
		industry_type VARCHAR(64)  NOT NULL,
		target_area   TEXT         NOT NULL,
		description   TEXT         NOT NULL DEFAULT '',
		status        VARCHAR(16)  NOT NULL DEFAULT 'active',
		postal_code   VARCHAR(7)   NOT NULL DEFAULT '',
		latitude      DOUBLE PRECISION,
		longitude     DOUBLE PRECISION,
		radius_m      INTEGER      NOT NULL DEFAULT 1000,
		created_at    TIMESTAMPTZ  NOT NULL,
		updated_at    TIMESTAMPTZ  NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_projects_created_at ON projects (created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS simulations (
		id         UUID PRIMARY KEY,
		project_id UUID        NOT NULL REFERENCES projects (id) ON DELETE CASCADE,
		params     JSONB       NOT NULL,
		result     JSONB       NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_simulations_project ON simulations (project_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS analysis_results (
		id            UUID PRIMARY KEY,
		project_id    UUID        NOT NULL REFERENCES projects (id) ON DELETE CASCADE,
		analysis_type VARCHAR(32) NOT NULL,
		status        VARCHAR(16) NOT NULL,
		result        JSONB,
		error         TEXT        NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_analysis_results_project ON analysis_results (project_id, analysis_type, created_at DESC)`,
}
