// Package assembler turns dialogue selections into a report.Request and
// runs the generation call.
//
// Date precedence, highest first:
//
//  1. "all available data" / "for all" in the source text forces the all
//     sentinel;
//  2. dates supplied explicitly by a UI action or a completed sub-dialogue;
//  3. an explicit "all" mode;
//  4. the this_month mode, computed against today;
//  5. dates the resolver finds in the source text;
//  6. the default window [today-90d, today+30d].
package assembler

import (
	"regexp"
	"time"

	"github.com/museumops/curio/common/spec/report"
	"github.com/museumops/curio/internal/curio/daterange"
)

const (
	defaultLookback  = 90
	defaultLookahead = 30
)

var forceAllRe = regexp.MustCompile(`(?i)\b(all available data|for all)\b`)

// Selection is what the dialogue collected before assembly. Zero values mean
// "not chosen".
type Selection struct {
	Family     report.Type
	Label      string
	SubFilter  report.SubFilter
	Mode       report.DateRangeMode
	Start, End time.Time
	SourceText string
}

// Build resolves sel into a request relative to today. The result always
// satisfies the date invariants checked by report.Request.Validate: reversed
// explicit ranges are swapped.
func Build(sel Selection, today time.Time) report.Request {
	today = daterange.Truncate(today)
	req := report.Request{
		Type:       sel.Family,
		SubFilter:  sel.SubFilter,
		SourceText: sel.SourceText,
	}

	switch {
	case forceAllRe.MatchString(sel.SourceText):
		req.Mode = report.ModeAll
	case !sel.Start.IsZero() && !sel.End.IsZero():
		req.Mode = sel.Mode
		if req.Mode != report.ModeThisMonth {
			req.Mode = report.ModeCustom
		}
		req.Start, req.End = ordered(daterange.Truncate(sel.Start), daterange.Truncate(sel.End))
	case sel.Mode == report.ModeAll:
		req.Mode = report.ModeAll
	case sel.Mode == report.ModeThisMonth:
		r := daterange.MonthRange(today.Year(), today.Month())
		req.Mode, req.Start, req.End = report.ModeThisMonth, r.Start, r.End
	default:
		req.Mode = report.ModeCustom
		if r, ok := daterange.Resolve(sel.SourceText, today); ok {
			req.Start, req.End = ordered(r.Start, r.End)
		} else {
			req.Start = today.AddDate(0, 0, -defaultLookback)
			req.End = today.AddDate(0, 0, defaultLookahead)
		}
	}
	return req
}

func ordered(a, b time.Time) (time.Time, time.Time) {
	if b.Before(a) {
		return b, a
	}
	return a, b
}
