package ingest

// parse.go turns raw CSV bytes into a typed Batch. The required-column
// check runs once against the header row before any data row is
// touched; a failed cell conversion aborts the whole batch immediately,
// tagged with its 1-based spreadsheet row number. Parsing never skips a
// bad row silently.

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// ParseBatch parses CSV file data for the given kind. It returns a
// *StructuralError when required headers are missing and a *ParseError
// when a cell fails type conversion. Empty rows are skipped; an
// all-empty file yields a zero-length batch (the pipeline treats that
// as a rejection, not a success).
func ParseBatch(kind Kind, data []byte) (*Batch, error) {
	r := csv.NewReader(bytes.NewReader(stripBOM(data)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, &ParseError{Row: 1, Reason: fmt.Sprintf("malformed CSV: %v", err)}
	}
	if len(rows) == 0 {
		return &Batch{Kind: kind}, nil
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = CleanCell(h)
	}

	idx, missing := indexHeaders(headers, RequiredColumns(kind))
	if len(missing) > 0 {
		return nil, &StructuralError{Kind: kind, Missing: missing}
	}

	batch := &Batch{Kind: kind, Headers: headers}
	for i, row := range rows[1:] {
		// Header row is spreadsheet row 1, so the first data row is 2.
		num := i + 2
		if isEmptyRow(row) {
			continue
		}
		rec, err := parseRow(kind, row, idx, num)
		if err != nil {
			return nil, err
		}
		batch.Records = append(batch.Records, rec)
	}
	return batch, nil
}

// indexHeaders maps header names to column positions and reports which
// required columns are absent. Matching is exact after trim; the
// source spreadsheets' headers are fixed strings, not free text.
func indexHeaders(headers, required []string) (map[string]int, []string) {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}
	var missing []string
	for _, col := range required {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	return idx, missing
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if CleanCell(v) != "" {
			return false
		}
	}
	return true
}

// parseRow dispatches to the kind's row codec. One switch keeps the
// closed set of kinds explicit instead of hiding it behind per-kind
// types.
func parseRow(kind Kind, row []string, idx map[string]int, num int) (Record, error) {
	v := &rowView{row: row, idx: idx, num: num}
	var rec Record
	switch kind {
	case KindDepartmentKPI:
		rec = DepartmentKPI{
			EvaluationYear:     v.intCell(colKPIYear),
			College:            v.textCell(colKPICollege),
			Department:         v.textCell(colKPIDepartment),
			EmploymentRate:     v.decimalCell(colKPIEmployment),
			FullTimeFaculty:    v.intCell(colKPIFullTime),
			VisitingFaculty:    v.intCell(colKPIVisiting),
			TechTransferIncome: v.decimalCell(colKPITechTransfer),
			IntlConferences:    v.intCell(colKPIConferences),
		}
	case KindPublication:
		rec = Publication{
			PaperID:         v.textCell(colPubID),
			PublicationDate: v.dateCell(colPubDate),
			College:         v.textCell(colPubCollege),
			Department:      v.textCell(colPubDepartment),
			Title:           v.textCell(colPubTitle),
			LeadAuthor:      v.textCell(colPubLeadAuthor),
			CoAuthors:       v.nullTextCell(colPubCoAuthors),
			JournalName:     v.textCell(colPubJournalName),
			JournalGrade:    v.upperCell(colPubJournalGrade),
			ImpactFactor:    v.nullDecimalCell(colPubImpactFactor),
			ProjectLinked:   v.upperCell(colPubProjectLinked),
		}
	case KindResearchProject:
		rec = ResearchProject{
			ExecutionID:           v.textCell(colPrjExecutionID),
			ProjectNumber:         v.textCell(colPrjNumber),
			ProjectName:           v.textCell(colPrjName),
			PrincipalInvestigator: v.textCell(colPrjInvestigator),
			Department:            v.textCell(colPrjDepartment),
			FundingAgency:         v.textCell(colPrjFundingAgency),
			TotalBudget:           v.int64Cell(colPrjTotalBudget),
			ExecutionDate:         v.dateCell(colPrjExecutionDate),
			ExecutionItem:         v.textCell(colPrjExecutionItem),
			ExecutionAmount:       v.int64Cell(colPrjExecutionAmt),
			Status:                v.textCell(colPrjStatus),
			Remarks:               v.nullTextCell(colPrjRemarks),
		}
	case KindStudentRoster:
		rec = Student{
			StudentID:        v.textCell(colStuID),
			Name:             v.textCell(colStuName),
			College:          v.textCell(colStuCollege),
			Department:       v.textCell(colStuDepartment),
			Grade:            v.intCell(colStuGrade),
			ProgramType:      v.textCell(colStuProgramType),
			EnrollmentStatus: v.textCell(colStuStatus),
			Gender:           v.textCell(colStuGender),
			AdmissionYear:    v.intCell(colStuAdmissionYear),
			Advisor:          v.nullTextCell(colStuAdvisor),
			Email:            v.textCell(colStuEmail),
		}
	default:
		return nil, fmt.Errorf("unsupported kind: %s", kind)
	}
	if v.err != nil {
		return nil, v.err
	}
	return rec, nil
}
