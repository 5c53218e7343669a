package store

// records.go implements the bulk persistence gateway. A batch is
// written with one pgx.Batch inside one transaction: either every row
// is inserted or none are. Any constraint violation aborts the whole
// transaction and is mapped to the pipeline's persistence taxonomy.

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/unidash/unidash/internal/ingest"
)

const (
	insertDepartmentKPISQL = `INSERT INTO department_kpis
		(evaluation_year, college, department, employment_rate,
		 full_time_faculty, visiting_faculty, tech_transfer_income, intl_conferences)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	insertPublicationSQL = `INSERT INTO publications
		(paper_id, publication_date, college, department, title, lead_author,
		 co_authors, journal_name, journal_grade, impact_factor, project_linked)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	insertResearchProjectSQL = `INSERT INTO research_projects
		(execution_id, project_number, project_name, principal_investigator,
		 department, funding_agency, total_budget, execution_date,
		 execution_item, execution_amount, status, remarks)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	insertStudentSQL = `INSERT INTO students
		(student_id, name, college, department, grade, program_type,
		 enrollment_status, gender, admission_year, advisor, email)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
)

// BulkInsert inserts every record of the batch in a single transaction
// and returns the inserted count. On any error the transaction is
// rolled back and zero rows survive.
func (s *Store) BulkInsert(ctx context.Context, batch *ingest.Batch) (int, error) {
	if batch.Len() == 0 {
		return 0, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, &ingest.PersistenceError{Err: fmt.Errorf("begin transaction: %w", err)}
	}
	defer tx.Rollback(ctx)

	b := &pgx.Batch{}
	for _, rec := range batch.Records {
		if err := queueInsert(b, rec); err != nil {
			return 0, err
		}
	}

	br := tx.SendBatch(ctx, b)
	for range batch.Records {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return 0, mapPersistError(err)
		}
	}
	if err := br.Close(); err != nil {
		return 0, mapPersistError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, mapPersistError(err)
	}
	return batch.Len(), nil
}

func queueInsert(b *pgx.Batch, rec ingest.Record) error {
	switch r := rec.(type) {
	case ingest.DepartmentKPI:
		b.Queue(insertDepartmentKPISQL,
			r.EvaluationYear, r.College, r.Department, pgNumeric(r.EmploymentRate),
			r.FullTimeFaculty, r.VisitingFaculty, pgNumeric(r.TechTransferIncome), r.IntlConferences)
	case ingest.Publication:
		b.Queue(insertPublicationSQL,
			r.PaperID, pgDate(r.PublicationDate), r.College, r.Department, r.Title,
			r.LeadAuthor, pgText(r.CoAuthors), r.JournalName, r.JournalGrade,
			pgNullNumeric(r.ImpactFactor), r.ProjectLinked)
	case ingest.ResearchProject:
		b.Queue(insertResearchProjectSQL,
			r.ExecutionID, r.ProjectNumber, r.ProjectName, r.PrincipalInvestigator,
			r.Department, r.FundingAgency, r.TotalBudget, pgDate(r.ExecutionDate),
			r.ExecutionItem, r.ExecutionAmount, r.Status, pgText(r.Remarks))
	case ingest.Student:
		b.Queue(insertStudentSQL,
			r.StudentID, r.Name, r.College, r.Department, r.Grade, r.ProgramType,
			r.EnrollmentStatus, r.Gender, r.AdmissionYear, pgText(r.Advisor), r.Email)
	default:
		return &ingest.PersistenceError{Err: fmt.Errorf("unsupported record type %T", rec)}
	}
	return nil
}

// pgNumeric converts a decimal to pgtype.Numeric for exact storage.
func pgNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	if err := n.Scan(d.String()); err != nil {
		return pgtype.Numeric{}
	}
	return n
}

func pgNullNumeric(d *decimal.Decimal) pgtype.Numeric {
	if d == nil {
		return pgtype.Numeric{}
	}
	return pgNumeric(*d)
}

func pgDate(t time.Time) pgtype.Date {
	return pgtype.Date{Time: t, Valid: !t.IsZero()}
}

func pgText(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}
