package dateparse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mrdanjohnson/secondbrainv1/core"
)

// Rule recognizes one family of date phrases.
//
// Resolve receives the submatches of Pattern and the current time (already
// in the local time zone) and returns an inclusive range, or an error when
// the matched text cannot be turned into one. A non-empty Field forces the
// date field regardless of hints in the query.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Field   core.DateField
	Resolve func(match []string, now time.Time) (start, end time.Time, err error)
}

// maxCount bounds the N in "in N days" and friends.
const maxCount = 36500

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func rule(name, pattern string, field core.DateField, resolve func([]string, time.Time) (time.Time, time.Time)) Rule {
	return Rule{
		Name:    name,
		Pattern: regexp.MustCompile(`(?i)\b` + pattern + `\b`),
		Field:   field,
		Resolve: func(m []string, now time.Time) (time.Time, time.Time, error) {
			start, end := resolve(m, now)
			return start, end, nil
		},
	}
}

// countRule is a rule whose first submatch is a count. Counts that do not
// parse or exceed maxCount fail the rule.
func countRule(name, pattern string, field core.DateField, resolve func(n int, m []string, now time.Time) (time.Time, time.Time)) Rule {
	r := rule(name, pattern, field, nil)
	r.Resolve = func(m []string, now time.Time) (time.Time, time.Time, error) {
		n, err := count(m[1])
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		start, end := resolve(n, m, now)
		return start, end, nil
	}
	return r
}

func day(t time.Time) (time.Time, time.Time) {
	return core.StartOfDay(t), core.EndOfDay(t)
}

func count(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid count %q: %w", s, err)
	}
	if n > maxCount {
		return 0, fmt.Errorf("count %d exceeds %d", n, maxCount)
	}
	return n, nil
}

// quarterStart returns the first instant of quarter q (1-4) in year.
func quarterStart(year, q int, loc *time.Location) time.Time {
	return time.Date(year, time.Month((q-1)*3+1), 1, 0, 0, 0, 0, loc)
}

// DefaultRules is the ordered pattern bank. Order is significant: the first
// rule that matches wins, both when finding a phrase inside a query and when
// resolving a phrase to a range.
var DefaultRules = []Rule{
	rule("overdue", `overdue`, core.DateFieldDue, func(_ []string, now time.Time) (time.Time, time.Time) {
		return time.Date(1970, 1, 1, 0, 0, 0, 0, now.Location()), now
	}),
	countRule("in_n_units", `in\s+(\d+)\s+(days?|weeks?|months?)`, core.DateFieldDue, func(n int, m []string, now time.Time) (time.Time, time.Time) {
		var future time.Time
		switch unit := strings.ToLower(m[2]); {
		case strings.HasPrefix(unit, "day"):
			future = now.AddDate(0, 0, n)
		case strings.HasPrefix(unit, "week"):
			future = now.AddDate(0, 0, 7*n)
		default:
			future = now.AddDate(0, n, 0)
		}
		return core.StartOfDay(now), core.EndOfDay(future)
	}),
	rule("weekday", `(this|next|last)\s+(sunday|monday|tuesday|wednesday|thursday|friday|saturday)`, "", func(m []string, now time.Time) (time.Time, time.Time) {
		target := int(weekdays[strings.ToLower(m[2])])
		current := int(now.Weekday())
		var offset int
		switch strings.ToLower(m[1]) {
		case "this":
			offset = (target - current + 7) % 7
		case "next":
			if offset = (target - current + 7) % 7; offset == 0 {
				offset = 7
			}
		default:
			since := (current - target + 7) % 7
			if since == 0 {
				since = 7
			}
			offset = -since
		}
		return day(now.AddDate(0, 0, offset))
	}),
	rule("quarter", `q([1-4])\s+(\d{4})`, "", func(m []string, now time.Time) (time.Time, time.Time) {
		// Both submatches are bounded by the pattern.
		q, _ := strconv.Atoi(m[1])
		year, _ := strconv.Atoi(m[2])
		start := quarterStart(year, q, now.Location())
		return start, core.EndOfDay(start.AddDate(0, 3, -1))
	}),
	rule("this_quarter", `this\s+quarter`, "", func(_ []string, now time.Time) (time.Time, time.Time) {
		q := (int(now.Month())-1)/3 + 1
		return quarterStart(now.Year(), q, now.Location()), now
	}),
	countRule("last_n_days", `(?:last|past)\s+(\d+)\s+days?`, "", func(n int, _ []string, now time.Time) (time.Time, time.Time) {
		return core.StartOfDay(now.AddDate(0, 0, -n)), core.EndOfDay(now)
	}),
	countRule("next_n_days", `next\s+(\d+)\s+days?`, "", func(n int, _ []string, now time.Time) (time.Time, time.Time) {
		return core.StartOfDay(now), core.EndOfDay(now.AddDate(0, 0, n))
	}),
	rule("last_week", `(?:last|past)\s+week`, "", func(_ []string, now time.Time) (time.Time, time.Time) {
		return core.StartOfDay(now.AddDate(0, 0, -7)), core.EndOfDay(now)
	}),
	rule("next_week", `next\s+week`, "", func(_ []string, now time.Time) (time.Time, time.Time) {
		return core.StartOfDay(now), core.EndOfDay(now.AddDate(0, 0, 7))
	}),
	rule("this_week", `this\s+week`, "", func(_ []string, now time.Time) (time.Time, time.Time) {
		return core.StartOfDay(now.AddDate(0, 0, -int(now.Weekday()))), core.EndOfDay(now)
	}),
	rule("last_month", `(?:last|past)\s+month`, "", func(_ []string, now time.Time) (time.Time, time.Time) {
		return core.StartOfDay(now.AddDate(0, -1, 0)), core.EndOfDay(now)
	}),
	rule("this_month", `this\s+month`, "", func(_ []string, now time.Time) (time.Time, time.Time) {
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()), core.EndOfDay(now)
	}),
	rule("next_month", `next\s+month`, "", func(_ []string, now time.Time) (time.Time, time.Time) {
		return core.StartOfDay(now), core.EndOfDay(now.AddDate(0, 1, 0))
	}),
	rule("this_year", `this\s+year`, "", func(_ []string, now time.Time) (time.Time, time.Time) {
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location()), core.EndOfDay(now)
	}),
	rule("last_year", `(?:last|past)\s+year`, "", func(_ []string, now time.Time) (time.Time, time.Time) {
		return core.StartOfDay(now.AddDate(-1, 0, 0)), core.EndOfDay(now)
	}),
	rule("yesterday", `yesterday`, "", func(_ []string, now time.Time) (time.Time, time.Time) {
		return day(now.AddDate(0, 0, -1))
	}),
	rule("today", `today`, "", func(_ []string, now time.Time) (time.Time, time.Time) {
		return day(now)
	}),
	rule("tomorrow", `tomorrow`, "", func(_ []string, now time.Time) (time.Time, time.Time) {
		return day(now.AddDate(0, 0, 1))
	}),
}

// fieldHint maps words in a query to the date field they imply.
type fieldHint struct {
	pattern *regexp.Regexp
	field   core.DateField
}

var defaultFieldHints = []fieldHint{
	{regexp.MustCompile(`(?i)\b(?:due|deadlines?)\b`), core.DateFieldDue},
	{regexp.MustCompile(`(?i)\b(?:received|got|sent|emails?)\b`), core.DateFieldReceived},
}
