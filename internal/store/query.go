package store

// query.go holds the row queries behind the paginated data views and
// the CSV export. Numeric columns are selected as text and converted
// with shopspring/decimal so no precision is lost on the way out.

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/unidash/unidash/internal/ingest"
)

// RecordPage is one page of stored records of a single kind.
type RecordPage struct {
	Kind     ingest.Kind     `json:"data_type"`
	Records  []ingest.Record `json:"records"`
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

// ListRecords returns one page of stored records of the given kind,
// with the total row count. pageSize <= 0 returns all rows (used by the
// CSV export).
func (s *Store) ListRecords(ctx context.Context, kind ingest.Kind, page, pageSize int) (*RecordPage, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	var total int64
	if err := s.pool.QueryRow(ctx, fmt.Sprintf(`SELECT count(*) FROM %s`, table)).Scan(&total); err != nil {
		return nil, fmt.Errorf("count %s: %w", table, err)
	}

	query, args := selectFor(kind)
	if pageSize > 0 {
		query += ` LIMIT $1 OFFSET $2`
		args = append(args, pageSize, (page-1)*pageSize)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	records, err := scanRecords(kind, rows)
	if err != nil {
		return nil, err
	}

	return &RecordPage{Kind: kind, Records: records, Total: total, Page: page, PageSize: pageSize}, nil
}

func tableFor(kind ingest.Kind) (string, error) {
	switch kind {
	case ingest.KindDepartmentKPI:
		return "department_kpis", nil
	case ingest.KindPublication:
		return "publications", nil
	case ingest.KindResearchProject:
		return "research_projects", nil
	case ingest.KindStudentRoster:
		return "students", nil
	}
	return "", fmt.Errorf("unsupported kind: %s", kind)
}

func selectFor(kind ingest.Kind) (string, []any) {
	switch kind {
	case ingest.KindDepartmentKPI:
		return `SELECT evaluation_year, college, department, employment_rate::text,
		        full_time_faculty, visiting_faculty, tech_transfer_income::text, intl_conferences
		        FROM department_kpis ORDER BY evaluation_year, department`, nil
	case ingest.KindPublication:
		return `SELECT paper_id, publication_date, college, department, title, lead_author,
		        co_authors, journal_name, journal_grade, impact_factor::text, project_linked
		        FROM publications ORDER BY publication_date, paper_id`, nil
	case ingest.KindResearchProject:
		return `SELECT execution_id, project_number, project_name, principal_investigator,
		        department, funding_agency, total_budget, execution_date, execution_item,
		        execution_amount, status, remarks
		        FROM research_projects ORDER BY execution_date, execution_id`, nil
	default:
		return `SELECT student_id, name, college, department, grade, program_type,
		        enrollment_status, gender, admission_year, advisor, email
		        FROM students ORDER BY student_id`, nil
	}
}

func scanRecords(kind ingest.Kind, rows pgx.Rows) ([]ingest.Record, error) {
	var records []ingest.Record
	for rows.Next() {
		var rec ingest.Record
		var err error
		switch kind {
		case ingest.KindDepartmentKPI:
			rec, err = scanDepartmentKPI(rows)
		case ingest.KindPublication:
			rec, err = scanPublication(rows)
		case ingest.KindResearchProject:
			rec, err = scanResearchProject(rows)
		default:
			rec, err = scanStudent(rows)
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanDepartmentKPI(rows pgx.Rows) (ingest.Record, error) {
	var r ingest.DepartmentKPI
	var rate, income string
	if err := rows.Scan(&r.EvaluationYear, &r.College, &r.Department, &rate,
		&r.FullTimeFaculty, &r.VisitingFaculty, &income, &r.IntlConferences); err != nil {
		return nil, fmt.Errorf("scan department_kpis: %w", err)
	}
	var err error
	if r.EmploymentRate, err = decimal.NewFromString(rate); err != nil {
		return nil, fmt.Errorf("parse employment_rate: %w", err)
	}
	if r.TechTransferIncome, err = decimal.NewFromString(income); err != nil {
		return nil, fmt.Errorf("parse tech_transfer_income: %w", err)
	}
	return r, nil
}

func scanPublication(rows pgx.Rows) (ingest.Record, error) {
	var r ingest.Publication
	var coAuthors, impact pgtype.Text
	if err := rows.Scan(&r.PaperID, &r.PublicationDate, &r.College, &r.Department,
		&r.Title, &r.LeadAuthor, &coAuthors, &r.JournalName, &r.JournalGrade,
		&impact, &r.ProjectLinked); err != nil {
		return nil, fmt.Errorf("scan publications: %w", err)
	}
	if coAuthors.Valid {
		r.CoAuthors = &coAuthors.String
	}
	if impact.Valid {
		d, err := decimal.NewFromString(impact.String)
		if err != nil {
			return nil, fmt.Errorf("parse impact_factor: %w", err)
		}
		r.ImpactFactor = &d
	}
	return r, nil
}

func scanResearchProject(rows pgx.Rows) (ingest.Record, error) {
	var r ingest.ResearchProject
	var remarks pgtype.Text
	if err := rows.Scan(&r.ExecutionID, &r.ProjectNumber, &r.ProjectName,
		&r.PrincipalInvestigator, &r.Department, &r.FundingAgency, &r.TotalBudget,
		&r.ExecutionDate, &r.ExecutionItem, &r.ExecutionAmount, &r.Status, &remarks); err != nil {
		return nil, fmt.Errorf("scan research_projects: %w", err)
	}
	if remarks.Valid {
		r.Remarks = &remarks.String
	}
	return r, nil
}

func scanStudent(rows pgx.Rows) (ingest.Record, error) {
	var r ingest.Student
	var advisor pgtype.Text
	if err := rows.Scan(&r.StudentID, &r.Name, &r.College, &r.Department, &r.Grade,
		&r.ProgramType, &r.EnrollmentStatus, &r.Gender, &r.AdmissionYear,
		&advisor, &r.Email); err != nil {
		return nil, fmt.Errorf("scan students: %w", err)
	}
	if advisor.Valid {
		r.Advisor = &advisor.String
	}
	return r, nil
}
