package daterange_test

import (
	"testing"
	"time"

	"github.com/museumops/curio/internal/curio/daterange"
)

func d(y int, m time.Month, day int) time.Time { return daterange.Day(y, m, day) }

func TestResolve(t *testing.T) {
	// 2024-03-10 is a Sunday.
	sunday := d(2024, time.March, 10)
	// 2024-03-13 is a Wednesday.
	wednesday := d(2024, time.March, 13)

	tests := []struct {
		name      string
		text      string
		today     time.Time
		wantStart time.Time
		wantEnd   time.Time
	}{
		{"last 7 days", "last 7 days", sunday, d(2024, 3, 4), d(2024, 3, 10)},
		{"last 1 day", "last 1 day", sunday, sunday, sunday},
		{"last 999 days", "last 999 days", sunday, sunday.AddDate(0, 0, -998), sunday},
		{"this month", "this month", d(2024, 3, 15), d(2024, 3, 1), d(2024, 3, 31)},
		{"this month leap february", "this month", d(2024, 2, 10), d(2024, 2, 1), d(2024, 2, 29)},
		{"last month rollover", "last month", d(2024, 1, 15), d(2023, 12, 1), d(2023, 12, 31)},
		{"last month", "report for last month", d(2024, 3, 31), d(2024, 2, 1), d(2024, 2, 29)},
		{"this week on sunday", "this week", sunday, d(2024, 3, 4), d(2024, 3, 10)},
		{"this week midweek", "this week", wednesday, d(2024, 3, 11), d(2024, 3, 17)},
		{"last week", "last week", wednesday, d(2024, 3, 4), d(2024, 3, 10)},
		{"this quarter", "this quarter", d(2024, 5, 20), d(2024, 4, 1), d(2024, 6, 30)},
		{"last quarter rollover", "last quarter", d(2024, 2, 1), d(2023, 10, 1), d(2023, 12, 31)},
		{"Q2 2023", "Q2 2023", sunday, d(2023, 4, 1), d(2023, 6, 30)},
		{"q4 no space", "financial q42022", sunday, d(2022, 10, 1), d(2022, 12, 31)},
		{"month name with year", "donations in February 2023", sunday, d(2023, 2, 1), d(2023, 2, 28)},
		{"month abbreviation current year", "visitors for sept", sunday, d(2024, 9, 1), d(2024, 9, 30)},
		{"month name with day is whole month", "march 3 2024", sunday, d(2024, 3, 1), d(2024, 3, 31)},
		{"today", "today", sunday, sunday, sunday},
		{"yesterday", "Yesterday please", sunday, d(2024, 3, 9), d(2024, 3, 9)},
		{"iso single date", "2024-02-29", sunday, d(2024, 2, 29), d(2024, 2, 29)},
		{"slash single date", "03/05/2024", sunday, d(2024, 3, 5), d(2024, 3, 5)},
		{"from to", "from 2024-01-05 to 2024-01-20", sunday, d(2024, 1, 5), d(2024, 1, 20)},
		{"from to month names", "visitors from March 3rd, 2024 to March 9th, 2024", sunday, d(2024, 3, 3), d(2024, 3, 9)},
		{"bare to", "march 3 2024 to march 9 2024", sunday, d(2024, 3, 3), d(2024, 3, 9)},
		{"between and", "between 2024-03-01 and 2024-03-05", sunday, d(2024, 3, 1), d(2024, 3, 5)},
		{"reversed kept verbatim", "from 2024-03-09 to 2024-03-03", sunday, d(2024, 3, 9), d(2024, 3, 3)},
		{"yearless range", "from jan 5 to jan 9", sunday, d(2024, 1, 5), d(2024, 1, 9)},

		// second pass
		{"n weeks", "2 weeks", sunday, d(2024, 2, 26), sunday},
		{"n days", "report for 10 days", sunday, d(2024, 3, 1), sunday},
		{"daily", "daily report", sunday, sunday, sunday},
		{"a day", "just a day", sunday, sunday, sunday},
		{"weekly", "weekly summary", sunday, d(2024, 3, 4), sunday},
		{"past week", "the past week", sunday, d(2024, 3, 4), sunday},
		{"monthly", "monthly", sunday, d(2024, 3, 1), d(2024, 3, 31)},
		{"last year", "last year", sunday, d(2023, 1, 1), d(2023, 12, 31)},
		{"ytd", "YTD", sunday, d(2024, 1, 1), sunday},
		{"year to date", "year to date", sunday, d(2024, 1, 1), sunday},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, ok := daterange.Resolve(tt.text, tt.today)
			if !ok {
				t.Fatalf("Resolve(%q) not recognized", tt.text)
			}
			if !r.Start.Equal(tt.wantStart) || !r.End.Equal(tt.wantEnd) {
				t.Errorf("Resolve(%q): got %s..%s, want %s..%s", tt.text,
					r.Start.Format("2006-01-02"), r.End.Format("2006-01-02"),
					tt.wantStart.Format("2006-01-02"), tt.wantEnd.Format("2006-01-02"))
			}
		})
	}
}

func TestResolve_Unrecognized(t *testing.T) {
	today := d(2024, 3, 10)
	for _, text := range []string{"", "hello", "everything please", "last 0 days", "2024-02-30", "a report"} {
		if r, ok := daterange.Resolve(text, today); ok {
			t.Errorf("Resolve(%q) = %v, want unrecognized", text, r)
		}
	}
}

func TestResolve_IgnoresTimeOfDay(t *testing.T) {
	late := time.Date(2024, 3, 10, 23, 59, 0, 0, time.FixedZone("X", 5*3600))
	r, ok := daterange.Resolve("today", late)
	if !ok || !r.Start.Equal(d(2024, 3, 10)) {
		t.Errorf("got %v %v", r, ok)
	}
}

func TestResolve_Pure(t *testing.T) {
	today := d(2024, 3, 10)
	a, okA := daterange.Resolve("last quarter", today)
	b, okB := daterange.Resolve("last quarter", today)
	if okA != okB || a != b {
		t.Errorf("non-deterministic result: %v/%v vs %v/%v", a, okA, b, okB)
	}
}

func TestParseDate(t *testing.T) {
	today := d(2023, 6, 1)
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2024-3-5", d(2024, 3, 5), true},
		{"2024/03/05", d(2024, 3, 5), true},
		{"5 March 2024", d(2024, 3, 5), true},
		{"Mar 5, 2024", d(2024, 3, 5), true},
		{"march 5", d(2023, 3, 5), true},
		{"feb 29", time.Time{}, false},
		{"not a date", time.Time{}, false},
	}
	for _, tt := range tests {
		got, ok := daterange.ParseDate(tt.in, today)
		if ok != tt.ok || (ok && !got.Equal(tt.want)) {
			t.Errorf("ParseDate(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestHelpers(t *testing.T) {
	if r := daterange.YearRange(2023); !r.Start.Equal(d(2023, 1, 1)) || !r.End.Equal(d(2023, 12, 31)) {
		t.Errorf("YearRange: %v", r)
	}
	if m, ok := daterange.LookupMonth(" Sept "); !ok || m != time.September {
		t.Errorf("LookupMonth: %v %v", m, ok)
	}
}
