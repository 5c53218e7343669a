package store

import (
	"context"
	"fmt"
)

// schemaStatements creates the relational schema. Natural-key
// uniqueness is enforced here: the validator catches in-batch
// duplicates, but these constraints are the last line of defense
// against clashes with rows stored by earlier uploads.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS department_kpis (
		id BIGSERIAL PRIMARY KEY,
		evaluation_year INT NOT NULL,
		college TEXT NOT NULL,
		department TEXT NOT NULL,
		employment_rate NUMERIC(5,2) NOT NULL,
		full_time_faculty INT NOT NULL,
		visiting_faculty INT NOT NULL,
		tech_transfer_income NUMERIC(14,2) NOT NULL,
		intl_conferences INT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (evaluation_year, department)
	)`,
	`CREATE TABLE IF NOT EXISTS publications (
		id BIGSERIAL PRIMARY KEY,
		paper_id TEXT NOT NULL UNIQUE,
		publication_date DATE NOT NULL,
		college TEXT NOT NULL,
		department TEXT NOT NULL,
		title TEXT NOT NULL,
		lead_author TEXT NOT NULL,
		co_authors TEXT,
		journal_name TEXT NOT NULL,
		journal_grade TEXT NOT NULL,
		impact_factor NUMERIC(7,3),
		project_linked TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS research_projects (
		id BIGSERIAL PRIMARY KEY,
		execution_id TEXT NOT NULL UNIQUE,
		project_number TEXT NOT NULL,
		project_name TEXT NOT NULL,
		principal_investigator TEXT NOT NULL,
		department TEXT NOT NULL,
		funding_agency TEXT NOT NULL,
		total_budget BIGINT NOT NULL,
		execution_date DATE NOT NULL,
		execution_item TEXT NOT NULL,
		execution_amount BIGINT NOT NULL,
		status TEXT NOT NULL,
		remarks TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS students (
		id BIGSERIAL PRIMARY KEY,
		student_id TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		college TEXT NOT NULL,
		department TEXT NOT NULL,
		grade INT NOT NULL,
		program_type TEXT NOT NULL,
		enrollment_status TEXT NOT NULL,
		gender TEXT NOT NULL,
		admission_year INT NOT NULL,
		advisor TEXT,
		email TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS upload_history (
		id BIGSERIAL PRIMARY KEY,
		public_id UUID NOT NULL UNIQUE,
		filename TEXT NOT NULL,
		data_type TEXT NOT NULL,
		file_size BIGINT NOT NULL DEFAULT 0,
		rows_processed INT NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'processing',
		error_message TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		completed_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_department_kpis_year ON department_kpis (evaluation_year)`,
	`CREATE INDEX IF NOT EXISTS idx_publications_grade ON publications (journal_grade)`,
	`CREATE INDEX IF NOT EXISTS idx_research_projects_number ON research_projects (project_number)`,
	`CREATE INDEX IF NOT EXISTS idx_students_department ON students (department)`,
	`CREATE INDEX IF NOT EXISTS idx_upload_history_created ON upload_history (created_at DESC)`,
}

// EnsureSchema creates all tables and indexes if they do not exist.
func EnsureSchema(ctx context.Context, db DBTX) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
