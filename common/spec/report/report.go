// Package report defines the resolved report request exchanged between the
// dialogue engine and the report-generation service.
//
// A Request is the unit of work: a report Type, an optional SubFilter, a
// DateRangeMode and, unless the mode is ModeAll, an inclusive calendar-date
// span. Validate enforces the request invariants and is called before any
// network call is made.
package report

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the wire and display format for calendar dates.
const DateLayout = "2006-01-02"

// AllSentinel replaces startDate/endDate on the wire when the mode is ModeAll.
const AllSentinel = "all"

// ErrInvalidRequest is returned (wrapped) by Validate.
var ErrInvalidRequest = errors.New("invalid report request")

// Type is the report family understood by the generation service.
type Type string

const (
	TypeVisitorList            Type = "visitor_list"
	TypeVisitorAnalytics       Type = "visitor_analytics"
	TypeEventList              Type = "event_list"
	TypeEventParticipants      Type = "event_participants"
	TypeDonationReport         Type = "donation_report"
	TypeDonationTypeReport     Type = "donation_type_report"
	TypeCulturalObjects        Type = "cultural_objects"
	TypeArchiveAnalytics       Type = "archive_analytics"
	TypeFinancialReport        Type = "financial_report"
	TypeStaffPerformance       Type = "staff_performance"
	TypePredictiveAnalytics    Type = "predictive_analytics"
	TypeComprehensiveDashboard Type = "comprehensive_dashboard"
)

// Types lists every report family in menu order.
var Types = []Type{
	TypeVisitorList,
	TypeVisitorAnalytics,
	TypeEventList,
	TypeEventParticipants,
	TypeDonationReport,
	TypeDonationTypeReport,
	TypeCulturalObjects,
	TypeArchiveAnalytics,
	TypeFinancialReport,
	TypeStaffPerformance,
	TypePredictiveAnalytics,
	TypeComprehensiveDashboard,
}

var typeLabels = map[Type]string{
	TypeVisitorList:            "Visitor List",
	TypeVisitorAnalytics:       "Visitor Analytics Report",
	TypeEventList:              "Events Report",
	TypeEventParticipants:      "Event Participants Report",
	TypeDonationReport:         "Donation Report",
	TypeDonationTypeReport:     "Donation Type Report",
	TypeCulturalObjects:        "Cultural Objects Report",
	TypeArchiveAnalytics:       "Archive Report",
	TypeFinancialReport:        "Financial Report",
	TypeStaffPerformance:       "Staff Performance Report",
	TypePredictiveAnalytics:    "Predictive Analytics Report",
	TypeComprehensiveDashboard: "Comprehensive Dashboard",
}

// Valid reports whether t is a known report family.
func (t Type) Valid() bool {
	_, ok := typeLabels[t]
	return ok
}

// Label is the human-readable name shown in chat.
func (t Type) Label() string {
	if l, ok := typeLabels[t]; ok {
		return l
	}
	return string(t)
}

// DateRangeMode describes how the date span of a request was chosen.
type DateRangeMode string

const (
	ModeAll       DateRangeMode = "all"
	ModeThisMonth DateRangeMode = "this_month"
	ModeCustom    DateRangeMode = "custom"
)

// Valid reports whether m is one of the three modes.
func (m DateRangeMode) Valid() bool {
	switch m {
	case ModeAll, ModeThisMonth, ModeCustom:
		return true
	}
	return false
}

// DonationType narrows donation reports.
type DonationType string

const (
	DonationAll      DonationType = "all"
	DonationMonetary DonationType = "monetary"
	DonationArtifact DonationType = "artifact"
	DonationLoan     DonationType = "loan"
)

// Valid reports whether d is a known donation type.
func (d DonationType) Valid() bool {
	switch d {
	case DonationAll, DonationMonetary, DonationArtifact, DonationLoan:
		return true
	}
	return false
}

// SubFilter holds the optional secondary selections of a request.
type SubFilter struct {
	DonationType DonationType
	EventID      string
	Year         int
	Month        int // 1..12, zero when unset
}

// Request is a fully resolved report request.
type Request struct {
	Type       Type
	SubFilter  SubFilter
	Mode       DateRangeMode
	Start      time.Time // zero when Mode is ModeAll
	End        time.Time
	SourceText string
}

// Validate checks the request invariants: known type and mode, dates absent
// for ModeAll and present and ordered otherwise, and a donation type for
// donation type reports.
func (r Request) Validate() error {
	if !r.Type.Valid() {
		return fmt.Errorf("%w: unknown report type %q", ErrInvalidRequest, r.Type)
	}
	if !r.Mode.Valid() {
		return fmt.Errorf("%w: unknown date range mode %q", ErrInvalidRequest, r.Mode)
	}
	if r.Mode == ModeAll {
		if !r.Start.IsZero() || !r.End.IsZero() {
			return fmt.Errorf("%w: dates must be absent when mode is all", ErrInvalidRequest)
		}
	} else {
		if r.Start.IsZero() || r.End.IsZero() {
			return fmt.Errorf("%w: mode %s requires both dates", ErrInvalidRequest, r.Mode)
		}
		if r.End.Before(r.Start) {
			return fmt.Errorf("%w: start %s is after end %s", ErrInvalidRequest,
				r.Start.Format(DateLayout), r.End.Format(DateLayout))
		}
	}
	if d := r.SubFilter.DonationType; d != "" && !d.Valid() {
		return fmt.Errorf("%w: unknown donation type %q", ErrInvalidRequest, d)
	}
	if m := r.SubFilter.Month; m < 0 || m > 12 {
		return fmt.Errorf("%w: month %d out of range", ErrInvalidRequest, m)
	}
	if r.Type == TypeDonationTypeReport && r.SubFilter.DonationType == "" {
		return fmt.Errorf("%w: donation type report needs a donation type", ErrInvalidRequest)
	}
	return nil
}

// Span renders the date span for chat messages.
func (r Request) Span() string {
	if r.Mode == ModeAll || r.Start.IsZero() {
		return "all available data"
	}
	if r.Start.Equal(r.End) {
		return r.Start.Format(DateLayout)
	}
	return r.Start.Format(DateLayout) + " to " + r.End.Format(DateLayout)
}
