package ingest

import (
	"testing"
	"time"
)

// ----------------------------------------------------------------------------
// ParseDecimalCell Tests
// ----------------------------------------------------------------------------

func TestParseDecimalCell(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		wantOK bool
		want   string
	}{
		// Valid: plain numbers
		{name: "integer", input: "123", wantOK: true, want: "123"},
		{name: "decimal", input: "85.5", wantOK: true, want: "85.5"},
		{name: "zero", input: "0", wantOK: true, want: "0"},
		{name: "negative", input: "-3.2", wantOK: true, want: "-3.2"},

		// Valid: formatting the source spreadsheets actually use
		{name: "thousands separators", input: "1,200,000", wantOK: true, want: "1200000"},
		{name: "trailing percent", input: "85.5%", wantOK: true, want: "85.5"},
		{name: "percent with separators", input: "1,234.5%", wantOK: true, want: "1234.5"},
		{name: "surrounding whitespace", input: "  42.0  ", wantOK: true, want: "42"},
		{name: "quoted value", input: `"12.5"`, wantOK: true, want: "12.5"},

		// Invalid
		{name: "empty", input: "", wantOK: false},
		{name: "only percent", input: "%", wantOK: false},
		{name: "text", input: "abc", wantOK: false},
		{name: "double decimal point", input: "1.2.3", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDecimalCell(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseDecimalCell(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && got.String() != tt.want {
				t.Errorf("ParseDecimalCell(%q) = %s, want %s", tt.input, got.String(), tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// ParseIntCell Tests
// ----------------------------------------------------------------------------

func TestParseIntCell(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		wantOK bool
		want   int
	}{
		{name: "plain integer", input: "2024", wantOK: true, want: 2024},
		{name: "zero", input: "0", wantOK: true, want: 0},
		{name: "negative", input: "-5", wantOK: true, want: -5},
		{name: "trimmed whitespace", input: " 12 ", wantOK: true, want: 12},

		// Integers are a direct cast: no separators, no decimal point
		{name: "thousands separator rejected", input: "1,200", wantOK: false},
		{name: "decimal point rejected", input: "12.0", wantOK: false},
		{name: "empty rejected", input: "", wantOK: false},
		{name: "text rejected", input: "abc", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseIntCell(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseIntCell(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ParseIntCell(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// ParseDateCell Tests
// ----------------------------------------------------------------------------

func TestParseDateCell(t *testing.T) {
	want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		input  string
		wantOK bool
	}{
		{name: "hyphens", input: "2024-03-15", wantOK: true},
		{name: "slashes", input: "2024/03/15", wantOK: true},
		{name: "dots", input: "2024.03.15", wantOK: true},

		{name: "empty", input: "", wantOK: false},
		{name: "wrong order", input: "15-03-2024", wantOK: false},
		{name: "month out of range", input: "2024-13-01", wantOK: false},
		{name: "not a date", input: "yesterday", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDateCell(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseDateCell(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && !got.Equal(want) {
				t.Errorf("ParseDateCell(%q) = %v, want %v", tt.input, got, want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// Missing Value Tests
// ----------------------------------------------------------------------------

func TestIsMissing(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"", true},
		{"   ", true},
		{"-", true},
		{"nan", true},
		{"NaN", true},
		{"NAN", true},

		{"0", false},
		{"N/A-ish text", false},
		{"홍길동", false},
		{"--", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := IsMissing(tt.input); got != tt.want {
				t.Errorf("IsMissing(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNullableText(t *testing.T) {
	if got := NullableText("nan"); got != nil {
		t.Errorf("NullableText(\"nan\") = %q, want nil", *got)
	}
	if got := NullableText("  김교수 "); got == nil || *got != "김교수" {
		t.Errorf("NullableText should trim and keep real text, got %v", got)
	}
}

// ----------------------------------------------------------------------------
// BOM Handling Tests
// ----------------------------------------------------------------------------

func TestStripBOM(t *testing.T) {
	withBOM := append([]byte{0xEF, 0xBB, 0xBF}, []byte("학번,이름")...)
	if got := string(stripBOM(withBOM)); got != "학번,이름" {
		t.Errorf("stripBOM left %q", got)
	}
	plain := []byte("학번,이름")
	if got := string(stripBOM(plain)); got != "학번,이름" {
		t.Errorf("stripBOM altered BOM-less data: %q", got)
	}
}
