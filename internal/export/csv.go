// Package export renders stored records back to CSV in the same
// layout the importer accepts: the Korean header row followed by one
// line per record. Files start with a UTF-8 BOM so spreadsheet
// applications detect the encoding.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/unidash/unidash/internal/ingest"
	"github.com/unidash/unidash/internal/store"
)

const dateLayout = "2006-01-02"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// RecordSource lists stored records of one kind. Satisfied by
// *store.Store.
type RecordSource interface {
	ListRecords(ctx context.Context, kind ingest.Kind, page, pageSize int) (*store.RecordPage, error)
}

// Exporter writes CSV snapshots of stored record kinds.
type Exporter struct {
	source RecordSource
}

// New creates an Exporter.
func New(source RecordSource) *Exporter {
	return &Exporter{source: source}
}

// Filename returns the download filename for a kind's export.
func Filename(kind ingest.Kind, now time.Time) string {
	return fmt.Sprintf("%s_%s.csv", kind, now.Format("20060102"))
}

// WriteCSV streams every stored record of the given kind to w as CSV.
// The output round-trips: uploading the produced file parses back into
// the same records.
func (e *Exporter) WriteCSV(ctx context.Context, w io.Writer, kind ingest.Kind) error {
	page, err := e.source.ListRecords(ctx, kind, 1, 0)
	if err != nil {
		return err
	}
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(ingest.RequiredColumns(kind)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, rec := range page.Records {
		if err := cw.Write(fields(rec)); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func fields(rec ingest.Record) []string {
	switch r := rec.(type) {
	case ingest.DepartmentKPI:
		return []string{
			strconv.Itoa(r.EvaluationYear),
			r.College,
			r.Department,
			r.EmploymentRate.String(),
			strconv.Itoa(r.FullTimeFaculty),
			strconv.Itoa(r.VisitingFaculty),
			r.TechTransferIncome.String(),
			strconv.Itoa(r.IntlConferences),
		}
	case ingest.Publication:
		impact := ""
		if r.ImpactFactor != nil {
			impact = r.ImpactFactor.String()
		}
		return []string{
			r.PaperID,
			r.PublicationDate.Format(dateLayout),
			r.College,
			r.Department,
			r.Title,
			r.LeadAuthor,
			text(r.CoAuthors),
			r.JournalName,
			r.JournalGrade,
			impact,
			r.ProjectLinked,
		}
	case ingest.ResearchProject:
		return []string{
			r.ExecutionID,
			r.ProjectNumber,
			r.ProjectName,
			r.PrincipalInvestigator,
			r.Department,
			r.FundingAgency,
			strconv.FormatInt(r.TotalBudget, 10),
			r.ExecutionDate.Format(dateLayout),
			r.ExecutionItem,
			strconv.FormatInt(r.ExecutionAmount, 10),
			r.Status,
			text(r.Remarks),
		}
	case ingest.Student:
		return []string{
			r.StudentID,
			r.Name,
			r.College,
			r.Department,
			strconv.Itoa(r.Grade),
			r.ProgramType,
			r.EnrollmentStatus,
			r.Gender,
			strconv.Itoa(r.AdmissionYear),
			text(r.Advisor),
			r.Email,
		}
	}
	return nil
}

func text(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
