// Package ingest implements the CSV ingestion pipeline: parsing uploaded
// spreadsheet data into typed records, applying per-kind business rules,
// and persisting validated batches atomically through a storage gateway.
// This package has no HTTP dependencies and is driven by the web layer
// and the admin CLI alike.
package ingest

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Kind identifies one of the four CSV ingestion targets. Each kind has
// its own column set, field types, and validation rules; they share
// only the pipeline shape.
type Kind string

const (
	KindDepartmentKPI   Kind = "department_kpi"
	KindPublication     Kind = "publication"
	KindResearchProject Kind = "research_project"
	KindStudentRoster   Kind = "student_roster"
)

// Kinds returns all supported record kinds in a stable order.
func Kinds() []Kind {
	return []Kind{KindDepartmentKPI, KindPublication, KindResearchProject, KindStudentRoster}
}

// ParseKind validates a kind selector string from the HTTP boundary.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindDepartmentKPI, KindPublication, KindResearchProject, KindStudentRoster:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unsupported data_type: %q (allowed: department_kpi, publication, research_project, student_roster)", s)
}

// Record is one typed row of a parsed batch. The concrete type is
// determined by the batch kind; consumers dispatch with a type switch.
type Record interface {
	// RecordKind reports which kind this record belongs to.
	RecordKind() Kind
	// NaturalKey returns the value that must be unique per kind
	// (in-batch and against already-stored rows).
	NaturalKey() string
}

// DepartmentKPI is one row of the department KPI spreadsheet.
// Natural key: (evaluation_year, department).
type DepartmentKPI struct {
	EvaluationYear     int
	College            string
	Department         string
	EmploymentRate     decimal.Decimal
	FullTimeFaculty    int
	VisitingFaculty    int
	TechTransferIncome decimal.Decimal
	IntlConferences    int
}

func (DepartmentKPI) RecordKind() Kind { return KindDepartmentKPI }

func (r DepartmentKPI) NaturalKey() string {
	return fmt.Sprintf("%d|%s", r.EvaluationYear, r.Department)
}

// Publication is one row of the publication list spreadsheet.
// Natural key: paper_id.
type Publication struct {
	PaperID         string
	PublicationDate time.Time
	College         string
	Department      string
	Title           string
	LeadAuthor      string
	CoAuthors       *string
	JournalName     string
	JournalGrade    string
	ImpactFactor    *decimal.Decimal
	ProjectLinked   string
}

func (Publication) RecordKind() Kind     { return KindPublication }
func (r Publication) NaturalKey() string { return r.PaperID }

// ResearchProject is one execution row of the research project ledger.
// Natural key: execution_id. Rows sharing a project_number additionally
// carry the cross-row budget invariant checked by the validator.
type ResearchProject struct {
	ExecutionID           string
	ProjectNumber         string
	ProjectName           string
	PrincipalInvestigator string
	Department            string
	FundingAgency         string
	TotalBudget           int64
	ExecutionDate         time.Time
	ExecutionItem         string
	ExecutionAmount       int64
	Status                string
	Remarks               *string
}

func (ResearchProject) RecordKind() Kind     { return KindResearchProject }
func (r ResearchProject) NaturalKey() string { return r.ExecutionID }

// Student is one row of the student roster. Natural key: student_id.
type Student struct {
	StudentID        string
	Name             string
	College          string
	Department       string
	Grade            int
	ProgramType      string
	EnrollmentStatus string
	Gender           string
	AdmissionYear    int
	Advisor          *string
	Email            string
}

func (Student) RecordKind() Kind     { return KindStudentRoster }
func (r Student) NaturalKey() string { return r.StudentID }

// Batch carries the parsed rows of one uploaded file. It is created per
// upload request, lives for the duration of that request, and is
// discarded after persistence or rejection.
type Batch struct {
	Kind    Kind
	Headers []string
	Records []Record
}

// Len returns the number of data rows in the batch.
func (b *Batch) Len() int { return len(b.Records) }
