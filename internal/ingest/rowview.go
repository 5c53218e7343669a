package ingest

import (
	"time"

	"github.com/shopspring/decimal"
)

// rowView reads typed cells out of one raw CSV row. The first failed
// conversion is captured in err and subsequent reads return zero
// values, so a row codec can be written as a flat struct literal and
// checked once at the end.
type rowView struct {
	row []string
	idx map[string]int
	num int // 1-based spreadsheet row number
	err *ParseError
}

func (v *rowView) raw(col string) string {
	pos, ok := v.idx[col]
	if !ok || pos >= len(v.row) {
		return ""
	}
	return v.row[pos]
}

func (v *rowView) fail(col, value, reason string) {
	if v.err == nil {
		v.err = &ParseError{Row: v.num, Column: col, Value: value, Reason: reason}
	}
}

func (v *rowView) textCell(col string) string {
	return CleanCell(v.raw(col))
}

func (v *rowView) upperCell(col string) string {
	return toUpperASCII(CleanCell(v.raw(col)))
}

func (v *rowView) nullTextCell(col string) *string {
	return NullableText(v.raw(col))
}

func (v *rowView) intCell(col string) int {
	raw := v.raw(col)
	n, ok := ParseIntCell(raw)
	if !ok {
		v.fail(col, CleanCell(raw), "not an integer")
	}
	return n
}

func (v *rowView) int64Cell(col string) int64 {
	raw := v.raw(col)
	n, ok := ParseInt64Cell(raw)
	if !ok {
		v.fail(col, CleanCell(raw), "not an integer")
	}
	return n
}

func (v *rowView) decimalCell(col string) decimal.Decimal {
	raw := v.raw(col)
	d, ok := ParseDecimalCell(raw)
	if !ok {
		v.fail(col, CleanCell(raw), "not a number")
	}
	return d
}

func (v *rowView) nullDecimalCell(col string) *decimal.Decimal {
	raw := v.raw(col)
	if IsMissing(raw) {
		return nil
	}
	d, ok := ParseDecimalCell(raw)
	if !ok {
		v.fail(col, CleanCell(raw), "not a number")
		return nil
	}
	return &d
}

func (v *rowView) dateCell(col string) time.Time {
	raw := v.raw(col)
	t, ok := ParseDateCell(raw)
	if !ok {
		v.fail(col, CleanCell(raw), "not a date (use YYYY-MM-DD)")
	}
	return t
}

// toUpperASCII uppercases ASCII letters only; the grade and flag cells
// are ASCII ("scie" → "SCIE", "y" → "Y") and Korean text must pass
// through untouched.
func toUpperASCII(s string) string {
	b := []byte(s)
	changed := false
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
			changed = true
		}
	}
	if !changed {
		return s
	}
	return string(b)
}
