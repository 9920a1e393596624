package calendar

import (
	"regexp"
	"strings"

	"github.com/rolandmarg/birthday-bot/internal/parse"
)

const keywordBirthday = "birthday"

// titleExclusions disqualify an entry from the recurrence heuristic even
// when it repeats yearly as an all-day event.
var titleExclusions = []string{"meeting", "reminder", "appointment"}

// Patterns for pulling the subject's name out of an event title, tried in
// order: "John's birthday", "Birthday: John", "John birthday".
var (
	rePossessive    = regexp.MustCompile(`(?i)^(.*?)[’']s\s+birthday`)
	reLabeled       = regexp.MustCompile(`(?i)birthday:\s*(.+)$`)
	reNameThenEvent = regexp.MustCompile(`(?i)^(.+?)\s+birthday`)
)

// Matcher classifies target-calendar entries as birthdays and decides
// whether an entry corresponds to a given record.
type Matcher struct{}

// IsBirthdayEvent reports whether the entry looks like a birthday.
//
// The literal keyword in the title or description decides immediately.
// Without it, some calendars still represent birthdays as untitled yearly
// all-day recurrences, so those pass too unless the title names an excluded
// event kind (meeting, reminder, appointment).
func (Matcher) IsBirthdayEvent(e Event) bool {
	if containsFold(e.Title, keywordBirthday) || containsFold(e.Description, keywordBirthday) {
		return true
	}
	if !e.IsYearlyRecurring() || !e.AllDay {
		return false
	}
	for _, word := range titleExclusions {
		if containsFold(e.Title, word) {
			return false
		}
	}
	return true
}

// MatchesRecord reports whether the entry already represents the record.
//
// The test is a case-insensitive substring match of the record's full name,
// first name, or last name against the entry title. It is intentionally
// permissive to tolerate titles like "John's Birthday 🎂"; matching an
// unrelated entry that happens to contain the name is an accepted
// trade-off, not a defect.
func (Matcher) MatchesRecord(e Event, r parse.Record) bool {
	title := strings.ToLower(e.Title)
	candidates := []string{r.FullName(), r.FirstName, r.LastName}
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if strings.Contains(title, strings.ToLower(c)) {
			return true
		}
	}
	return false
}

// SubjectName extracts the celebrated person's name from an entry title,
// falling back to the raw title when no pattern applies.
func (Matcher) SubjectName(e Event) string {
	if m := rePossessive.FindStringSubmatch(e.Title); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := reLabeled.FindStringSubmatch(e.Title); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := reNameThenEvent.FindStringSubmatch(e.Title); m != nil {
		return strings.TrimSpace(m[1])
	}
	return e.Title
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
