package ingest

// validate.go applies the per-kind business rules to a parsed batch.
// Row rules are pure functions of one record; cross-row rules (natural
// key uniqueness, per-project budget totals) accumulate state across a
// single pass over the batch. Every violation in the failing category
// is collected before returning; the caller rejects the whole batch on
// any violation, so the report must be complete, not first-error-only.

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

var (
	paperIDPattern     = regexp.MustCompile(`^PUB-\d{2}-\d{3}$`)
	executionIDPattern = regexp.MustCompile(`^T\d{4}\d{3,}$`)
	studentIDPattern   = regexp.MustCompile(`^\d{8,9}$`)
	emailPattern       = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
)

const (
	minEvaluationYear = 2020
	maxEvaluationYear = 2030
	minAdmissionYear  = 2015
	maxAdmissionYear  = 2025
	maxTitleLength    = 500
)

var hundred = decimal.NewFromInt(100)

// Validate checks every record of the batch against its kind's rules
// and returns the outcome. Invalid-value violations take priority over
// duplicate/consistency violations: if any row has an invalid value,
// the duplicate category is withheld so the report never mixes
// categories. (Missing columns are rejected earlier, at parse time.)
func Validate(b *Batch) Outcome {
	var invalid, duplicates []RowError

	seen := make(map[string]int) // natural key -> first row number
	budgets := newBudgetTracker()

	for i, rec := range b.Records {
		num := i + 2 // header row is 1

		invalid = append(invalid, validateRecord(rec, num)...)

		key := rec.NaturalKey()
		if first, dup := seen[key]; dup {
			duplicates = append(duplicates, RowError{
				Row:     num,
				Value:   key,
				Message: fmt.Sprintf("duplicate %s %q (rows %d and %d)", keyLabel(b.Kind), key, first, num),
			})
		} else {
			seen[key] = num
		}

		if p, ok := rec.(ResearchProject); ok {
			budgets.add(p, num)
		}
	}

	duplicates = append(duplicates, budgets.violations()...)

	switch {
	case len(invalid) > 0:
		return Outcome{InvalidRows: invalid}
	case len(duplicates) > 0:
		return Outcome{Duplicates: duplicates}
	default:
		return Outcome{Valid: true}
	}
}

// keyLabel names the natural key in violation messages.
func keyLabel(kind Kind) string {
	switch kind {
	case KindDepartmentKPI:
		return "evaluation_year/department"
	case KindPublication:
		return "paper_id"
	case KindResearchProject:
		return "execution_id"
	case KindStudentRoster:
		return "student_id"
	default:
		return "key"
	}
}

// validateRecord applies the row-local rules for one record.
func validateRecord(rec Record, num int) []RowError {
	switch r := rec.(type) {
	case DepartmentKPI:
		return validateDepartmentKPI(r, num)
	case Publication:
		return validatePublication(r, num)
	case ResearchProject:
		return validateResearchProject(r, num)
	case Student:
		return validateStudent(r, num)
	default:
		return []RowError{{Row: num, Message: fmt.Sprintf("unknown record type %T", rec)}}
	}
}

func validateDepartmentKPI(r DepartmentKPI, num int) []RowError {
	var errs []RowError
	add := func(col, value, msg string) {
		errs = append(errs, RowError{Row: num, Column: col, Value: value, Message: msg})
	}

	if r.EvaluationYear < minEvaluationYear || r.EvaluationYear > maxEvaluationYear {
		add(colKPIYear, fmt.Sprint(r.EvaluationYear),
			fmt.Sprintf("evaluation year must be between %d and %d", minEvaluationYear, maxEvaluationYear))
	}
	if r.Department == "" {
		add(colKPIDepartment, "", "department is required")
	}
	if r.EmploymentRate.IsNegative() || r.EmploymentRate.GreaterThan(hundred) {
		add(colKPIEmployment, r.EmploymentRate.String(), "employment rate must be between 0 and 100")
	}
	if r.FullTimeFaculty < 0 {
		add(colKPIFullTime, fmt.Sprint(r.FullTimeFaculty), "faculty count must not be negative")
	}
	if r.VisitingFaculty < 0 {
		add(colKPIVisiting, fmt.Sprint(r.VisitingFaculty), "faculty count must not be negative")
	}
	if r.TechTransferIncome.IsNegative() {
		add(colKPITechTransfer, r.TechTransferIncome.String(), "tech transfer income must not be negative")
	}
	if r.IntlConferences < 0 {
		add(colKPIConferences, fmt.Sprint(r.IntlConferences), "conference count must not be negative")
	}
	return errs
}

func validatePublication(r Publication, num int) []RowError {
	var errs []RowError
	add := func(col, value, msg string) {
		errs = append(errs, RowError{Row: num, Column: col, Value: value, Message: msg})
	}

	if !paperIDPattern.MatchString(r.PaperID) {
		add(colPubID, r.PaperID, "paper ID must match PUB-YY-NNN")
	}
	if n := utf8.RuneCountInString(r.Title); n < 1 || n > maxTitleLength {
		add(colPubTitle, r.Title, fmt.Sprintf("title must be 1-%d characters", maxTitleLength))
	}
	switch r.JournalGrade {
	case "SCIE":
		// SCIE publications must carry an impact factor; KCI may omit it.
		if r.ImpactFactor == nil {
			add(colPubImpactFactor, "", "impact factor is required for SCIE journals")
		}
	case "KCI":
	default:
		add(colPubJournalGrade, r.JournalGrade, "journal grade must be SCIE or KCI")
	}
	if r.ImpactFactor != nil && r.ImpactFactor.IsNegative() {
		add(colPubImpactFactor, r.ImpactFactor.String(), "impact factor must not be negative")
	}
	if r.ProjectLinked != "Y" && r.ProjectLinked != "N" {
		add(colPubProjectLinked, r.ProjectLinked, "project linkage must be Y or N")
	}
	return errs
}

func validateResearchProject(r ResearchProject, num int) []RowError {
	var errs []RowError
	add := func(col, value, msg string) {
		errs = append(errs, RowError{Row: num, Column: col, Value: value, Message: msg})
	}

	if !executionIDPattern.MatchString(r.ExecutionID) {
		add(colPrjExecutionID, r.ExecutionID, "execution ID must match TYYYYNNN")
	}
	if r.ProjectNumber == "" {
		add(colPrjNumber, "", "project number is required")
	}
	if r.TotalBudget < 0 {
		add(colPrjTotalBudget, fmt.Sprint(r.TotalBudget), "total budget must not be negative")
	}
	if r.ExecutionAmount < 0 {
		add(colPrjExecutionAmt, fmt.Sprint(r.ExecutionAmount), "execution amount must not be negative")
	}
	if r.Status != "집행완료" && r.Status != "처리중" {
		add(colPrjStatus, r.Status, "status must be 집행완료 or 처리중")
	}
	return errs
}

func validateStudent(r Student, num int) []RowError {
	var errs []RowError
	add := func(col, value, msg string) {
		errs = append(errs, RowError{Row: num, Column: col, Value: value, Message: msg})
	}

	if !studentIDPattern.MatchString(r.StudentID) {
		add(colStuID, r.StudentID, "student ID must be 8-9 digits")
	}
	if r.Name == "" {
		add(colStuName, "", "name is required")
	}
	switch r.ProgramType {
	case "학사":
		if r.Grade < 0 || r.Grade > 4 {
			add(colStuGrade, fmt.Sprint(r.Grade), "grade must be between 0 and 4")
		}
	case "석사", "박사":
		// Graduate programs carry no undergraduate grade level.
		if r.Grade != 0 {
			add(colStuGrade, fmt.Sprint(r.Grade), fmt.Sprintf("grade must be 0 for %s students", r.ProgramType))
		}
	default:
		add(colStuProgramType, r.ProgramType, "program type must be 학사, 석사, or 박사")
	}
	switch r.EnrollmentStatus {
	case "재학", "휴학", "졸업":
	default:
		add(colStuStatus, r.EnrollmentStatus, "enrollment status must be 재학, 휴학, or 졸업")
	}
	if r.Gender != "남" && r.Gender != "여" {
		add(colStuGender, r.Gender, "gender must be 남 or 여")
	}
	if r.AdmissionYear < minAdmissionYear || r.AdmissionYear > maxAdmissionYear {
		add(colStuAdmissionYear, fmt.Sprint(r.AdmissionYear),
			fmt.Sprintf("admission year must be between %d and %d", minAdmissionYear, maxAdmissionYear))
	}
	if !emailPattern.MatchString(r.Email) {
		add(colStuEmail, r.Email, "invalid email address")
	}
	return errs
}

// budgetTracker accumulates, per project number, the declared total
// budget and the running sum of execution amounts. The over-budget
// check is evaluated once per distinct project after the full pass.
type budgetTracker struct {
	order    []string
	projects map[string]*projectBudget
}

type projectBudget struct {
	firstRow     int
	budget       int64
	executed     int64
	budgetErrors []RowError
}

func newBudgetTracker() *budgetTracker {
	return &budgetTracker{projects: make(map[string]*projectBudget)}
}

func (t *budgetTracker) add(r ResearchProject, num int) {
	p, ok := t.projects[r.ProjectNumber]
	if !ok {
		p = &projectBudget{firstRow: num, budget: r.TotalBudget}
		t.projects[r.ProjectNumber] = p
		t.order = append(t.order, r.ProjectNumber)
	} else if r.TotalBudget != p.budget {
		// Every row of a project must declare the same total budget.
		p.budgetErrors = append(p.budgetErrors, RowError{
			Row:    num,
			Column: colPrjTotalBudget,
			Value:  fmt.Sprint(r.TotalBudget),
			Message: fmt.Sprintf("project %s declares total budget %d but row %d declared %d",
				r.ProjectNumber, r.TotalBudget, p.firstRow, p.budget),
		})
	}
	p.executed += r.ExecutionAmount
}

func (t *budgetTracker) violations() []RowError {
	var errs []RowError
	for _, number := range t.order {
		p := t.projects[number]
		errs = append(errs, p.budgetErrors...)
		if p.executed > p.budget {
			errs = append(errs, RowError{
				Message: fmt.Sprintf("project %s: executed amount %d exceeds total budget %d",
					number, p.executed, p.budget),
			})
		}
	}
	return errs
}
