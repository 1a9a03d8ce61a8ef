package daterange

import (
	"strings"
	"time"
)

var datedLayouts = []string{
	"2006-1-2",
	"2006/1/2",
	"1/2/2006",
	"January 2 2006",
	"Jan 2 2006",
	"2 January 2006",
	"2 Jan 2006",
}

// yearlessLayouts take their year from today.
var yearlessLayouts = []string{
	"January 2",
	"Jan 2",
	"2 January",
	"2 Jan",
}

// ParseDate parses a single calendar date in any accepted layout. Input is
// normalized first, so "March 3rd, 2024" and "2024-03-03" are equivalent.
func ParseDate(text string, today time.Time) (time.Time, bool) {
	return parseDate(normalize(text), Truncate(today))
}

// parseDate expects normalized input.
func parseDate(s string, today time.Time) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	s = strings.ReplaceAll(s, "sept ", "sep ")
	for _, layout := range datedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Truncate(t), true
		}
	}
	year := today.Format("2006")
	for _, layout := range yearlessLayouts {
		// The year is attached before parsing so Feb 29 is checked against it.
		if t, err := time.Parse(layout+" 2006", s+" "+year); err == nil {
			return Truncate(t), true
		}
	}
	return time.Time{}, false
}
