// Package daterange turns free-text date expressions into inclusive
// calendar-date ranges.
//
// Resolve is pure: the caller supplies "today", and every returned time is a
// UTC midnight. Patterns are tried in a fixed order and the first match wins.
// When the first pass recognizes nothing, a second pass accepts looser
// phrasing such as "2 weeks" or "ytd".
package daterange

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Range is an inclusive span of calendar days. End may precede Start when
// the text named an explicit range backwards; callers decide what to do.
type Range struct {
	Start time.Time
	End   time.Time
}

// Day returns the UTC midnight of the given calendar date. Out-of-range
// values are normalized the way time.Date does.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Truncate drops the time of day from t, keeping its calendar date.
func Truncate(t time.Time) time.Time {
	return Day(t.Year(), t.Month(), t.Day())
}

// MonthRange covers the first through last day of a month.
func MonthRange(year int, month time.Month) Range {
	return Range{Start: Day(year, month, 1), End: Day(year, month+1, 0)}
}

// YearRange covers January 1 through December 31.
func YearRange(year int) Range {
	return Range{Start: Day(year, time.January, 1), End: Day(year, time.December, 31)}
}

// QuarterRange covers quarter q (1..4) of year.
func QuarterRange(year, q int) Range {
	start := Day(year, time.Month((q-1)*3+1), 1)
	return Range{Start: start, End: start.AddDate(0, 3, -1)}
}

func trailing(today time.Time, days int) Range {
	return Range{Start: today.AddDate(0, 0, -(days - 1)), End: today}
}

func weekOf(today time.Time) Range {
	offset := (int(today.Weekday()) + 6) % 7 // Monday = 0
	start := today.AddDate(0, 0, -offset)
	return Range{Start: start, End: start.AddDate(0, 0, 6)}
}

func quarterOf(t time.Time) Range {
	return QuarterRange(t.Year(), (int(t.Month())-1)/3+1)
}

var (
	ordinalRe     = regexp.MustCompile(`\b(\d{1,2})(st|nd|rd|th)\b`)
	spaceRe       = regexp.MustCompile(`\s+`)
	lastNDaysRe   = regexp.MustCompile(`\blast (\d{1,3}) days?\b`)
	thisWeekRe    = regexp.MustCompile(`\bthis week\b`)
	lastWeekRe    = regexp.MustCompile(`\blast week\b`)
	thisMonthRe   = regexp.MustCompile(`\bthis month\b`)
	lastMonthRe   = regexp.MustCompile(`\blast month\b`)
	thisQuarterRe = regexp.MustCompile(`\bthis quarter\b`)
	lastQuarterRe = regexp.MustCompile(`\blast quarter\b`)
	quarterRe     = regexp.MustCompile(`\bq([1-4]) ?(\d{4})\b`)
	monthNameRe   = regexp.MustCompile(`\b(january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sep|sept|oct|nov|dec)\b`)
	yearRe        = regexp.MustCompile(`\b(\d{4})\b`)
	todayRe       = regexp.MustCompile(`\btoday\b`)
	yesterdayRe   = regexp.MustCompile(`\byesterday\b`)

	nWeeksRe   = regexp.MustCompile(`\b(\d{1,3}) weeks?\b`)
	nDaysRe    = regexp.MustCompile(`\b(\d{1,3}) days?\b`)
	oneDayRe   = regexp.MustCompile(`\b(a day|one day|day report|daily)\b`)
	oneWeekRe  = regexp.MustCompile(`\b(a week|one week|weekly|past week)\b`)
	monthlyRe  = regexp.MustCompile(`\bmonthly\b`)
	lastYearRe = regexp.MustCompile(`\blast year\b`)
	thisYearRe = regexp.MustCompile(`\b(this year|year to date|ytd)\b`)
)

var monthNames = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may":  time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sep": time.September, "sept": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

// LookupMonth maps a month name or abbreviation to its time.Month.
func LookupMonth(word string) (time.Month, bool) {
	m, ok := monthNames[strings.ToLower(strings.TrimSpace(word))]
	return m, ok
}

// normalize lowercases s, strips ordinal suffixes, commas and trailing
// punctuation and collapses whitespace.
func normalize(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, ",", " ")
	s = ordinalRe.ReplaceAllString(s, "$1")
	s = spaceRe.ReplaceAllString(s, " ")
	return strings.Trim(s, " .!?")
}

// Resolve recognizes a date range in text relative to today. The boolean is
// false when nothing matched and the caller must fall back to its defaults.
func Resolve(text string, today time.Time) (Range, bool) {
	today = Truncate(today)
	s := normalize(text)
	if s == "" {
		return Range{}, false
	}
	if r, ok := firstPass(s, today); ok {
		return r, true
	}
	return secondPass(s, today)
}

func firstPass(s string, today time.Time) (Range, bool) {
	if r, ok := explicitRange(s, today); ok {
		return r, true
	}
	if m := lastNDaysRe.FindStringSubmatch(s); m != nil {
		if n, _ := strconv.Atoi(m[1]); n >= 1 {
			return trailing(today, n), true
		}
	}
	switch {
	case thisWeekRe.MatchString(s):
		return weekOf(today), true
	case lastWeekRe.MatchString(s):
		return weekOf(today.AddDate(0, 0, -7)), true
	case thisMonthRe.MatchString(s):
		return MonthRange(today.Year(), today.Month()), true
	case lastMonthRe.MatchString(s):
		return MonthRange(today.Year(), today.Month()-1), true
	case thisQuarterRe.MatchString(s):
		return quarterOf(today), true
	case lastQuarterRe.MatchString(s):
		return quarterOf(quarterOf(today).Start.AddDate(0, -3, 0)), true
	}
	if m := quarterRe.FindStringSubmatch(s); m != nil {
		q, _ := strconv.Atoi(m[1])
		y, _ := strconv.Atoi(m[2])
		return QuarterRange(y, q), true
	}
	if m := monthNameRe.FindStringSubmatch(s); m != nil {
		year := today.Year()
		if y := yearRe.FindStringSubmatch(s); y != nil {
			year, _ = strconv.Atoi(y[1])
		}
		return MonthRange(year, monthNames[m[1]]), true
	}
	switch {
	case todayRe.MatchString(s):
		return Range{Start: today, End: today}, true
	case yesterdayRe.MatchString(s):
		y := today.AddDate(0, 0, -1)
		return Range{Start: y, End: y}, true
	}
	if d, ok := parseDate(s, today); ok {
		return Range{Start: d, End: d}, true
	}
	return Range{}, false
}

func secondPass(s string, today time.Time) (Range, bool) {
	if m := nWeeksRe.FindStringSubmatch(s); m != nil {
		if n, _ := strconv.Atoi(m[1]); n >= 1 {
			return trailing(today, 7*n), true
		}
	}
	if m := nDaysRe.FindStringSubmatch(s); m != nil {
		if n, _ := strconv.Atoi(m[1]); n >= 1 {
			return trailing(today, n), true
		}
	}
	switch {
	case oneDayRe.MatchString(s):
		return Range{Start: today, End: today}, true
	case oneWeekRe.MatchString(s):
		return trailing(today, 7), true
	case monthlyRe.MatchString(s):
		return MonthRange(today.Year(), today.Month()), true
	case lastYearRe.MatchString(s):
		return YearRange(today.Year() - 1), true
	case thisYearRe.MatchString(s):
		return Range{Start: Day(today.Year(), time.January, 1), End: today}, true
	}
	return Range{}, false
}

// explicitRange handles "from X to Y", "between X and Y" and a bare
// "X to Y" where both sides parse as dates.
func explicitRange(s string, today time.Time) (Range, bool) {
	words := strings.Fields(s)

	if i := indexOf(words, "between", 0); i >= 0 {
		if j := indexOf(words, "and", i+1); j > i+1 {
			if start, ok := parseDate(strings.Join(words[i+1:j], " "), today); ok {
				if end, ok := datePrefix(words[j+1:], today); ok {
					return Range{Start: start, End: end}, true
				}
			}
		}
	}

	for j := indexOf(words, "to", 0); j >= 0; j = indexOf(words, "to", j+1) {
		left := words[:j]
		var start time.Time
		var ok bool
		if i := lastIndexOf(left, "from"); i >= 0 {
			start, ok = parseDate(strings.Join(left[i+1:], " "), today)
		} else {
			start, ok = dateSuffix(left, today)
		}
		if !ok {
			continue
		}
		if end, ok := datePrefix(words[j+1:], today); ok {
			return Range{Start: start, End: end}, true
		}
	}
	return Range{}, false
}

// maxDateWords bounds how many words a single date may span ("2 january 2024").
const maxDateWords = 3

func dateSuffix(words []string, today time.Time) (time.Time, bool) {
	for n := min(maxDateWords, len(words)); n >= 1; n-- {
		if d, ok := parseDate(strings.Join(words[len(words)-n:], " "), today); ok {
			return d, true
		}
	}
	return time.Time{}, false
}

func datePrefix(words []string, today time.Time) (time.Time, bool) {
	for n := min(maxDateWords, len(words)); n >= 1; n-- {
		if d, ok := parseDate(strings.Join(words[:n], " "), today); ok {
			return d, true
		}
	}
	return time.Time{}, false
}

func indexOf(words []string, w string, from int) int {
	for i := from; i < len(words); i++ {
		if words[i] == w {
			return i
		}
	}
	return -1
}

func lastIndexOf(words []string, w string) int {
	for i := len(words) - 1; i >= 0; i-- {
		if words[i] == w {
			return i
		}
	}
	return -1
}
