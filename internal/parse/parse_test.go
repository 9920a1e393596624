package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParse_Grammars covers both date grammars, their priority order, and
// name extraction rules.
func TestParse_Grammars(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Record
		desc string
	}{
		{
			name: "ISO with year",
			in:   "John Doe 1990-05-15",
			want: Record{FirstName: "John", LastName: "Doe", Month: 5, Day: 15, Year: 1990},
			desc: "the trailing dash after the year group separates it from the day",
		},
		{
			name: "ISO without year",
			in:   "John 05-15",
			want: Record{FirstName: "John", Month: 5, Day: 15},
			desc: "year stays absent, never defaulted by the parser",
		},
		{
			name: "Trailing punctuation stripped",
			in:   "Alyssa S. 05-22",
			want: Record{FirstName: "Alyssa", LastName: "S", Month: 5, Day: 22},
			desc: "trailing dot is sanitized before the name split",
		},
		{
			name: "Month name full",
			in:   "Jane Roe January 2",
			want: Record{FirstName: "Jane", LastName: "Roe", Month: 1, Day: 2},
		},
		{
			name: "Month name abbreviated",
			in:   "Jane Jan 2",
			want: Record{FirstName: "Jane", Month: 1, Day: 2},
			desc: "Jan resolves to January by calendar-order prefix match",
		},
		{
			name: "Month name with comma year",
			in:   "Jane Roe March 3, 1985",
			want: Record{FirstName: "Jane", LastName: "Roe", Month: 3, Day: 3, Year: 1985},
		},
		{
			name: "Month name with year no comma",
			in:   "Jane Roe March 3 1985",
			want: Record{FirstName: "Jane", LastName: "Roe", Month: 3, Day: 3, Year: 1985},
		},
		{
			name: "Multi-word first name",
			in:   "Mary Jane Watson 06-01",
			want: Record{FirstName: "Mary Jane", LastName: "Watson", Month: 6, Day: 1},
			desc: "only the last token becomes the last name",
		},
		{
			name: "Internal whitespace collapsed",
			in:   "John   Doe  1990-05-15",
			want: Record{FirstName: "John", LastName: "Doe", Month: 5, Day: 15, Year: 1990},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.in)
			require.True(t, ok, "expected a record for %q", tt.in)
			assert.Equal(t, tt.want, got, tt.desc)
		})
	}
}

// TestParse_Rejects verifies that unparseable input yields no record and no
// panic; header rows and blank cells are everyday input.
func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"Empty", ""},
		{"Whitespace only", "   "},
		{"No date", "John"},
		{"Free text", "invalid"},
		{"Header row cell", "Name"},
		{"Month out of range", "John 13-15"},
		{"Day out of range", "John 05-32"},
		{"Feb 30", "John 02-30"},
		{"Date without name", "05-15"},
		{"Unknown month word", "John Foolsday 12"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := Parse(tt.in)
			assert.False(t, ok, "input %q must not produce a record", tt.in)
		})
	}
}

// TestParse_MonthPrefixOrder pins the calendar-order tie break: "Jan" is
// always January, "Jul" July, "Ma" is too short to be a month token.
func TestParse_MonthPrefixOrder(t *testing.T) {
	rec, ok := Parse("Ann Jun 5")
	require.True(t, ok)
	assert.Equal(t, 6, rec.Month, "Jun must match June, not January")

	rec, ok = Parse("Ann Mar 5")
	require.True(t, ok)
	assert.Equal(t, 3, rec.Month)

	_, ok = Parse("Ann Ma 5")
	assert.False(t, ok, "two-letter month tokens are not a supported grammar")
}

// TestParse_RoundTrip checks format(parse(s)) stability for the canonical
// formatter.
func TestParse_RoundTrip(t *testing.T) {
	inputs := []string{
		"John Doe 1990-05-15",
		"John 05-15",
		"Jane Roe March 3, 1985",
		"Leap Ling 02-29",
	}

	for _, in := range inputs {
		rec, ok := Parse(in)
		require.True(t, ok, in)

		again, ok := Parse(rec.FullName() + " " + rec.DateText())
		require.True(t, ok, "canonical form must re-parse: %q", rec.DateText())
		assert.Equal(t, rec, again)
	}
}

func TestParsePair(t *testing.T) {
	rec, ok := ParsePair("John Doe", "1990-05-15")
	require.True(t, ok)
	assert.Equal(t, "John", rec.FirstName)
	assert.Equal(t, "Doe", rec.LastName)
	assert.Equal(t, 1990, rec.Year)

	_, ok = ParsePair("", "1990-05-15")
	assert.False(t, ok, "empty name must reject the pair")

	_, ok = ParsePair("John", "")
	assert.False(t, ok, "empty date must reject the pair")
}

// TestParseRow verifies the alternating-pair scan: bad pairs are dropped,
// the scan continues at the next pair boundary, and nothing ever errors.
func TestParseRow(t *testing.T) {
	cells := []string{
		"John Doe", "1990-05-15",
		"Header", "Garbage",
		"Jane", "Jan 2",
		"Dangling name", // odd trailing cell, no date partner
	}

	records := ParseRow(cells)
	require.Len(t, records, 2)
	assert.Equal(t, "John", records[0].FirstName)
	assert.Equal(t, "Jane", records[1].FirstName)

	assert.Empty(t, ParseRow(nil))
	assert.Empty(t, ParseRow([]string{"only a name"}))
}

func TestRecord_Helpers(t *testing.T) {
	rec, ok := Parse("John Doe 1990-05-15")
	require.True(t, ok)
	assert.True(t, rec.HasYear())
	assert.Equal(t, "John Doe", rec.FullName())
	assert.Equal(t, "1990-05-15", rec.DateText())

	solo, ok := Parse("Cher 05-20")
	require.True(t, ok)
	assert.False(t, solo.HasYear())
	assert.Equal(t, "Cher", solo.FullName())
	assert.Equal(t, "05-20", solo.DateText())
}

func TestNewRecord(t *testing.T) {
	rec, ok := NewRecord("  John   Doe. ", 2, 29, 0)
	require.True(t, ok)
	assert.Equal(t, "John", rec.FirstName)
	assert.Equal(t, "Doe", rec.LastName)
	assert.False(t, rec.HasYear(), "leaplings without a year stay representable")

	_, ok = NewRecord("", 5, 15, 0)
	assert.False(t, ok)

	_, ok = NewRecord("John", 2, 30, 0)
	assert.False(t, ok)
}
