package export

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/unidash/unidash/internal/ingest"
	"github.com/unidash/unidash/internal/store"
)

type fakeSource struct {
	records []ingest.Record
}

func (f *fakeSource) ListRecords(ctx context.Context, kind ingest.Kind, page, pageSize int) (*store.RecordPage, error) {
	return &store.RecordPage{Kind: kind, Records: f.records, Total: int64(len(f.records))}, nil
}

func TestWriteCSV_RoundTripsThroughImporter(t *testing.T) {
	advisor := "김교수"

	source := &fakeSource{records: []ingest.Record{
		ingest.Student{
			StudentID:        "20241234",
			Name:             "홍길동",
			College:          "공과대학",
			Department:       "컴퓨터공학과",
			Grade:            2,
			ProgramType:      "학사",
			EnrollmentStatus: "재학",
			Gender:           "남",
			AdmissionYear:    2024,
			Advisor:          &advisor,
			Email:            "hong@univ.ac.kr",
		},
		ingest.Student{
			StudentID:        "20249999",
			Name:             "성춘향",
			College:          "공과대학",
			Department:       "전자공학과",
			Grade:            0,
			ProgramType:      "석사",
			EnrollmentStatus: "재학",
			Gender:           "여",
			AdmissionYear:    2023,
			Email:            "sung@univ.ac.kr",
		},
	}}

	var buf bytes.Buffer
	if err := New(source).WriteCSV(context.Background(), &buf, ingest.KindStudentRoster); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	data := buf.Bytes()
	if !bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}) {
		t.Error("output should start with a UTF-8 BOM")
	}

	// The export must parse back through the importer unchanged
	batch, err := ingest.ParseBatch(ingest.KindStudentRoster, data)
	if err != nil {
		t.Fatalf("exported CSV failed to parse: %v", err)
	}
	if batch.Len() != 2 {
		t.Fatalf("round trip lost rows: %d", batch.Len())
	}

	first := batch.Records[0].(ingest.Student)
	if first.StudentID != "20241234" || first.Advisor == nil || *first.Advisor != "김교수" {
		t.Errorf("first record mangled: %+v", first)
	}
	second := batch.Records[1].(ingest.Student)
	if second.Advisor != nil {
		t.Errorf("missing advisor should export as empty, parsed %q", *second.Advisor)
	}

	if outcome := ingest.Validate(batch); !outcome.Valid {
		t.Errorf("round-tripped batch failed validation: %v", outcome.Messages())
	}
}

func TestWriteCSV_KPIHeadersMatchImport(t *testing.T) {
	rate, _ := decimal.NewFromString("85.5")
	income, _ := decimal.NewFromString("12.5")

	source := &fakeSource{records: []ingest.Record{
		ingest.DepartmentKPI{
			EvaluationYear:     2024,
			College:            "공과대학",
			Department:         "컴퓨터공학과",
			EmploymentRate:     rate,
			FullTimeFaculty:    20,
			VisitingFaculty:    5,
			TechTransferIncome: income,
			IntlConferences:    3,
		},
	}}

	var buf bytes.Buffer
	if err := New(source).WriteCSV(context.Background(), &buf, ingest.KindDepartmentKPI); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	wantHeader := strings.Join(ingest.RequiredColumns(ingest.KindDepartmentKPI), ",")
	if got := strings.TrimPrefix(lines[0], "\ufeff"); got != wantHeader {
		t.Errorf("header = %q, want %q", got, wantHeader)
	}

	batch, err := ingest.ParseBatch(ingest.KindDepartmentKPI, buf.Bytes())
	if err != nil {
		t.Fatalf("exported CSV failed to parse: %v", err)
	}
	rec := batch.Records[0].(ingest.DepartmentKPI)
	if rec.EmploymentRate.String() != "85.5" {
		t.Errorf("EmploymentRate = %s", rec.EmploymentRate)
	}
}

func TestFilename(t *testing.T) {
	now := time.Date(2025, 8, 30, 10, 0, 0, 0, time.UTC)
	if got := Filename(ingest.KindPublication, now); got != "publication_20250830.csv" {
		t.Errorf("Filename() = %q", got)
	}
}
