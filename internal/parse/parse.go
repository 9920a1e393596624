// Package parse converts free-text birthday cells into canonical records.
//
// Two date grammars are supported, tried in this fixed order:
//
//  1. ISO with optional year:  "<name> (YYYY-)?MM-DD"
//  2. Month name with optional year:  "<name> <MonthName> DD(, YYYY)?"
//
// Unparseable input is an expected, high-frequency outcome (header rows,
// blank cells), so the parser reports it with a bool, never an error.
package parse

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rolandmarg/birthday-bot/internal/config"
)

// Record is the canonical parsed representation of a person's birthday.
// Month and Day are 1-based. Year is 0 when the input carried no year.
// Records are immutable after creation.
type Record struct {
	FirstName string
	LastName  string
	Month     int
	Day       int
	Year      int
}

// HasYear reports whether the input carried a 4-digit birth year.
func (r Record) HasYear() bool {
	return r.Year != 0
}

// FullName returns "First Last", or just the first name for single-token names.
func (r Record) FullName() string {
	if r.LastName == "" {
		return r.FirstName
	}
	return r.FirstName + " " + r.LastName
}

// DateIn materializes the record's calendar date in the given year.
// Go's time.Date normalizes Feb 29 to Mar 1 in non-leap years, which is the
// behavior we want for leaplings.
func (r Record) DateIn(year int, loc *time.Location) time.Time {
	return time.Date(year, time.Month(r.Month), r.Day, 0, 0, 0, 0, loc)
}

// DateText renders the date in the canonical textual form, with the year
// when known. Re-parsing the output yields the same month/day/year.
func (r Record) DateText() string {
	if r.HasYear() {
		return fmt.Sprintf("%04d-%02d-%02d", r.Year, r.Month, r.Day)
	}
	return fmt.Sprintf("%02d-%02d", r.Month, r.Day)
}

var (
	// The year group must be followed by "-" so that "1990-05-15" reads as
	// year-month-day and "05-15" as month-day, never year-month.
	reISO = regexp.MustCompile(`^(.*?)\s*\b(?:(\d{4})-)?(\d{1,2})-(\d{1,2})$`)

	// Month name (>=3 letters), day, optional ", YYYY" (comma optional).
	reMonthName = regexp.MustCompile(`^(.*?)\s+([A-Za-z]{3,})\s+(\d{1,2})(?:,?\s+(\d{4}))?$`)

	reSpaces = regexp.MustCompile(`\s+`)
)

var monthNames = []string{
	"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
}

// Parse extracts a record from a single free-text cell holding a name
// followed by a date. The second return value is false when the cell does
// not match any supported grammar.
func Parse(text string) (Record, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Record{}, false
	}

	if m := reISO.FindStringSubmatch(text); m != nil {
		year := 0
		if m[2] != "" {
			year, _ = strconv.Atoi(m[2])
		}
		month, _ := strconv.Atoi(m[3])
		day, _ := strconv.Atoi(m[4])
		return newRecord(m[1], month, day, year)
	}

	if m := reMonthName.FindStringSubmatch(text); m != nil {
		month, ok := resolveMonth(m[2])
		if ok {
			day, _ := strconv.Atoi(m[3])
			year := 0
			if m[4] != "" {
				year, _ = strconv.Atoi(m[4])
			}
			return newRecord(m[1], month, day, year)
		}
	}

	return Record{}, false
}

// ParsePair extracts a record from a separate name cell and date cell.
func ParsePair(name, dateText string) (Record, bool) {
	dateText = strings.TrimSpace(dateText)
	if dateText == "" {
		return Record{}, false
	}
	// Reuse the single-cell grammars by gluing the pair back together.
	// The name part may itself contain whitespace runs; sanitization handles it.
	return Parse(name + " " + dateText)
}

// ParseRow treats cells as alternating (name, dateText) pairs starting at
// index 0. Pairs that fail to parse are skipped and the scan continues at
// the next pair boundary; malformed rows never produce an error.
func ParseRow(cells []string) []Record {
	var records []Record
	for i := 0; i+1 < len(cells); i += 2 {
		rec, ok := ParsePair(cells[i], cells[i+1])
		if !ok {
			slog.Debug(config.MsgRowSkipped,
				config.LogKeyComponent, config.CompSource,
				config.LogKeyValue, cells[i],
			)
			continue
		}
		records = append(records, rec)
	}
	return records
}

// NewRecord builds a record from an already-separated name and numeric date
// parts, applying the same sanitization and validation as the text grammars.
// Sources that carry structured dates (vCard BDAY) use this instead of the
// free-text path.
func NewRecord(name string, month, day, year int) (Record, bool) {
	return newRecord(name, month, day, year)
}

// newRecord sanitizes the name, splits it into first/last, and validates the
// date parts. A record with an empty first name is rejected.
func newRecord(name string, month, day, year int) (Record, bool) {
	name = sanitizeName(name)
	if name == "" {
		return Record{}, false
	}
	if !validDate(month, day, year) {
		return Record{}, false
	}

	first, last := splitName(name)
	return Record{
		FirstName: first,
		LastName:  last,
		Month:     month,
		Day:       day,
		Year:      year,
	}, true
}

// sanitizeName trims, collapses internal whitespace runs to one space, and
// strips trailing punctuation.
func sanitizeName(name string) string {
	name = reSpaces.ReplaceAllString(strings.TrimSpace(name), " ")
	return strings.TrimRight(name, ".,;:!?")
}

// splitName designates the last whitespace-separated token as the last name.
// Single-token names have no last name.
func splitName(name string) (first, last string) {
	idx := strings.LastIndex(name, " ")
	if idx < 0 {
		return name, ""
	}
	return name[:idx], name[idx+1:]
}

// resolveMonth matches a month token by case-insensitive prefix against the
// canonical month names. First match in calendar order wins, so "Jan" is
// January and "Ju" would never reach here (tokens are at least 3 letters).
func resolveMonth(token string) (int, bool) {
	token = strings.ToLower(token)
	for i, m := range monthNames {
		if strings.HasPrefix(m, token) {
			return i + 1, true
		}
	}
	return 0, false
}

// validDate checks month/day ranges. When the year is unknown the check uses
// a leap year so Feb 29 stays representable.
func validDate(month, day, year int) bool {
	if month < 1 || month > 12 || day < 1 {
		return false
	}
	y := year
	if y == 0 {
		y = config.DefaultLeapYear
	}
	t := time.Date(y, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return t.Month() == time.Month(month) && t.Day() == day
}
