package ingest

// convert.go provides cell-level conversion from raw spreadsheet values
// to typed Go values. The accepted formats mirror what the upstream
// spreadsheets actually contain:
//   - decimals with thousands separators and a trailing "%" ("1,200,000", "85.5%")
//   - dates in YYYY-MM-DD, YYYY/MM/DD, or YYYY.MM.DD
//   - nullable text where empty, "-", or a stray "nan" from a pandas
//     export all mean "no value"

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// dateLayouts are tried in order; the first matching layout wins.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
}

// CleanCell trims whitespace and surrounding quotes from a raw cell.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`)
	return strings.TrimSpace(s)
}

// ParseIntCell converts a cell to int. Direct cast only: no separators,
// no decimal point.
func ParseIntCell(s string) (int, bool) {
	n, err := strconv.Atoi(CleanCell(s))
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseInt64Cell converts a cell to int64 for amount fields.
func ParseInt64Cell(s string) (int64, bool) {
	n, err := strconv.ParseInt(CleanCell(s), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseDecimalCell converts a cell to a decimal, tolerating thousands
// separators and a trailing percent sign.
func ParseDecimalCell(s string) (decimal.Decimal, bool) {
	s = CleanCell(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSuffix(s, "%")
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// ParseDateCell converts a cell to a date using the supported layouts.
func ParseDateCell(s string) (time.Time, bool) {
	s = CleanCell(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// IsMissing reports whether a cell represents "no value": empty,
// whitespace-only, a bare "-", or the literal "nan" a pandas export
// writes for missing cells.
func IsMissing(s string) bool {
	s = CleanCell(s)
	if s == "" || s == "-" {
		return true
	}
	return strings.EqualFold(s, "nan")
}

// NullableText returns nil for missing cells, otherwise the cleaned
// string. The missing-value markers never survive as literal text.
func NullableText(s string) *string {
	if IsMissing(s) {
		return nil
	}
	v := CleanCell(s)
	return &v
}

// stripBOM removes a UTF-8 byte order mark from the start of file data.
// Spreadsheets exported as "UTF-8 with BOM" are common in this domain.
func stripBOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return data[3:]
	}
	return data
}
