// Package dashboard computes the aggregate views served by the
// dashboard endpoints. All aggregation happens in SQL; this package
// only shapes the results for JSON.
package dashboard

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/unidash/unidash/internal/store"
)

// Service runs read-only aggregation queries against the store.
type Service struct {
	db store.DBTX
}

// New creates a dashboard Service.
func New(db store.DBTX) *Service {
	return &Service{db: db}
}

// KPIFilter narrows the KPI summary to one evaluation year and/or
// college. Zero values mean no filtering.
type KPIFilter struct {
	Year    int
	College string
}

// KPISummary aggregates the department KPI table.
type KPISummary struct {
	Departments          int64              `json:"departments"`
	AvgEmploymentRate    float64            `json:"avg_employment_rate"`
	TotalFullTimeFaculty int64              `json:"total_full_time_faculty"`
	TotalVisitingFaculty int64              `json:"total_visiting_faculty"`
	TotalTechTransfer    float64            `json:"total_tech_transfer_income"`
	TotalIntlConferences int64              `json:"total_intl_conferences"`
	PerDepartment        []DepartmentKPIRow `json:"per_department"`
}

// DepartmentKPIRow is one department's line in the KPI summary.
type DepartmentKPIRow struct {
	EvaluationYear  int     `json:"evaluation_year"`
	College         string  `json:"college"`
	Department      string  `json:"department"`
	EmploymentRate  float64 `json:"employment_rate"`
	FullTimeFaculty int     `json:"full_time_faculty"`
	TechTransfer    float64 `json:"tech_transfer_income"`
}

// KPISummary returns headline KPI aggregates, optionally filtered by
// evaluation year and college.
func (s *Service) KPISummary(ctx context.Context, f KPIFilter) (*KPISummary, error) {
	where, args := kpiWhere(f)

	var out KPISummary
	query := `SELECT count(*),
	          COALESCE(avg(employment_rate), 0)::float8,
	          COALESCE(sum(full_time_faculty), 0),
	          COALESCE(sum(visiting_faculty), 0),
	          COALESCE(sum(tech_transfer_income), 0)::float8,
	          COALESCE(sum(intl_conferences), 0)
	          FROM department_kpis` + where
	if err := s.db.QueryRow(ctx, query, args...).Scan(
		&out.Departments, &out.AvgEmploymentRate, &out.TotalFullTimeFaculty,
		&out.TotalVisitingFaculty, &out.TotalTechTransfer, &out.TotalIntlConferences); err != nil {
		return nil, fmt.Errorf("kpi summary: %w", err)
	}

	rows, err := s.db.Query(ctx, `SELECT evaluation_year, college, department,
	        employment_rate::float8, full_time_faculty, tech_transfer_income::float8
	        FROM department_kpis`+where+` ORDER BY evaluation_year DESC, department`, args...)
	if err != nil {
		return nil, fmt.Errorf("kpi per department: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var r DepartmentKPIRow
		if err := rows.Scan(&r.EvaluationYear, &r.College, &r.Department,
			&r.EmploymentRate, &r.FullTimeFaculty, &r.TechTransfer); err != nil {
			return nil, fmt.Errorf("kpi per department: %w", err)
		}
		out.PerDepartment = append(out.PerDepartment, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("kpi per department: %w", err)
	}
	return &out, nil
}

func kpiWhere(f KPIFilter) (string, []any) {
	var (
		where string
		args  []any
	)
	if f.Year > 0 {
		args = append(args, f.Year)
		where = fmt.Sprintf(" WHERE evaluation_year = $%d", len(args))
	}
	if f.College != "" {
		args = append(args, f.College)
		clause := fmt.Sprintf("college = $%d", len(args))
		if where == "" {
			where = " WHERE " + clause
		} else {
			where += " AND " + clause
		}
	}
	return where, args
}

// PublicationSummary aggregates the publication table.
type PublicationSummary struct {
	Total             int64            `json:"total"`
	ByGrade           map[string]int64 `json:"by_grade"`
	AvgSCIEImpact     float64          `json:"avg_scie_impact_factor"`
	ProjectLinked     int64            `json:"project_linked"`
	ProjectLinkedRate float64          `json:"project_linked_rate"`
}

// PublicationSummary returns publication counts by journal grade, the
// average impact factor of SCIE papers, and the project-linked ratio.
func (s *Service) PublicationSummary(ctx context.Context) (*PublicationSummary, error) {
	out := &PublicationSummary{ByGrade: map[string]int64{}}

	rows, err := s.db.Query(ctx, `SELECT journal_grade, count(*) FROM publications GROUP BY journal_grade`)
	if err != nil {
		return nil, fmt.Errorf("publications by grade: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var grade string
		var n int64
		if err := rows.Scan(&grade, &n); err != nil {
			return nil, fmt.Errorf("publications by grade: %w", err)
		}
		out.ByGrade[grade] = n
		out.Total += n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("publications by grade: %w", err)
	}

	var avg pgtype.Float8
	if err := s.db.QueryRow(ctx,
		`SELECT avg(impact_factor)::float8 FROM publications WHERE journal_grade = 'SCIE'`).Scan(&avg); err != nil {
		return nil, fmt.Errorf("scie impact factor: %w", err)
	}
	if avg.Valid {
		out.AvgSCIEImpact = avg.Float64
	}

	if err := s.db.QueryRow(ctx,
		`SELECT count(*) FROM publications WHERE project_linked = 'Y'`).Scan(&out.ProjectLinked); err != nil {
		return nil, fmt.Errorf("project linked count: %w", err)
	}
	if out.Total > 0 {
		out.ProjectLinkedRate = float64(out.ProjectLinked) / float64(out.Total)
	}
	return out, nil
}

// ProjectBudget is the budget execution state of one research project,
// rolled up from its execution rows.
type ProjectBudget struct {
	ProjectNumber string  `json:"project_number"`
	ProjectName   string  `json:"project_name"`
	TotalBudget   int64   `json:"total_budget"`
	Executed      int64   `json:"executed"`
	Remaining     int64   `json:"remaining"`
	ExecutionRate float64 `json:"execution_rate"`
	Executions    int64   `json:"executions"`
}

// ResearchSummary rolls research executions up per project: budget,
// executed sum, remaining, and execution rate.
func (s *Service) ResearchSummary(ctx context.Context) ([]ProjectBudget, error) {
	rows, err := s.db.Query(ctx, `SELECT project_number, min(project_name), min(total_budget),
	        COALESCE(sum(execution_amount), 0), count(*)
	        FROM research_projects GROUP BY project_number ORDER BY project_number`)
	if err != nil {
		return nil, fmt.Errorf("research summary: %w", err)
	}
	defer rows.Close()

	var out []ProjectBudget
	for rows.Next() {
		var p ProjectBudget
		if err := rows.Scan(&p.ProjectNumber, &p.ProjectName, &p.TotalBudget,
			&p.Executed, &p.Executions); err != nil {
			return nil, fmt.Errorf("research summary: %w", err)
		}
		p.Remaining = p.TotalBudget - p.Executed
		if p.TotalBudget > 0 {
			p.ExecutionRate = float64(p.Executed) / float64(p.TotalBudget)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// StudentSummary aggregates the student roster.
type StudentSummary struct {
	Total     int64            `json:"total"`
	ByProgram map[string]int64 `json:"by_program"`
	ByStatus  map[string]int64 `json:"by_status"`
	ByGender  map[string]int64 `json:"by_gender"`
}

// StudentSummary returns student counts grouped by program type,
// enrollment status, and gender.
func (s *Service) StudentSummary(ctx context.Context) (*StudentSummary, error) {
	out := &StudentSummary{
		ByProgram: map[string]int64{},
		ByStatus:  map[string]int64{},
		ByGender:  map[string]int64{},
	}
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM students`).Scan(&out.Total); err != nil {
		return nil, fmt.Errorf("student total: %w", err)
	}
	groups := []struct {
		column string
		into   map[string]int64
	}{
		{"program_type", out.ByProgram},
		{"enrollment_status", out.ByStatus},
		{"gender", out.ByGender},
	}
	for _, g := range groups {
		rows, err := s.db.Query(ctx,
			fmt.Sprintf(`SELECT %s, count(*) FROM students GROUP BY %s`, g.column, g.column))
		if err != nil {
			return nil, fmt.Errorf("students by %s: %w", g.column, err)
		}
		for rows.Next() {
			var key string
			var n int64
			if err := rows.Scan(&key, &n); err != nil {
				rows.Close()
				return nil, fmt.Errorf("students by %s: %w", g.column, err)
			}
			g.into[key] = n
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("students by %s: %w", g.column, err)
		}
	}
	return out, nil
}
