package dialogue

import (
	"time"

	"github.com/museumops/curio/common/spec/report"
)

// Kind names the single active dialogue state.
type Kind int

const (
	Idle Kind = iota
	AwaitingGenericDateRange
	AwaitingVisitorTypeChoice
	AwaitingVisitorDateRange
	AwaitingVisitorYear
	AwaitingVisitorMonth
	AwaitingEventTypeChoice
	AwaitingEventParticipantsDateRange
	AwaitingEventListDateRange
	AwaitingEventListDateSelection
	AwaitingEventSelection
	AwaitingDonationTypeChoice
	AwaitingDonationDateRange
	AwaitingCulturalObjectDateRange
	AwaitingArchiveDateRange
)

var kindNames = [...]string{
	Idle:                               "idle",
	AwaitingGenericDateRange:           "awaiting_generic_date_range",
	AwaitingVisitorTypeChoice:          "awaiting_visitor_type_choice",
	AwaitingVisitorDateRange:           "awaiting_visitor_date_range",
	AwaitingVisitorYear:                "awaiting_visitor_year",
	AwaitingVisitorMonth:               "awaiting_visitor_month",
	AwaitingEventTypeChoice:            "awaiting_event_type_choice",
	AwaitingEventParticipantsDateRange: "awaiting_event_participants_date_range",
	AwaitingEventListDateRange:         "awaiting_event_list_date_range",
	AwaitingEventListDateSelection:     "awaiting_event_list_date_selection",
	AwaitingEventSelection:             "awaiting_event_selection",
	AwaitingDonationTypeChoice:         "awaiting_donation_type_choice",
	AwaitingDonationDateRange:          "awaiting_donation_date_range",
	AwaitingCulturalObjectDateRange:    "awaiting_cultural_object_date_range",
	AwaitingArchiveDateRange:           "awaiting_archive_date_range",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// MarshalText renders the kind by name in JSON.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Awaiting reports whether the dialogue is blocked on user input.
func (k Kind) Awaiting() bool { return k != Idle }

// CollectsDateRange reports whether the state is answered with a date range.
func (k Kind) CollectsDateRange() bool {
	switch k {
	case AwaitingGenericDateRange,
		AwaitingVisitorDateRange,
		AwaitingEventParticipantsDateRange,
		AwaitingEventListDateRange,
		AwaitingDonationDateRange,
		AwaitingCulturalObjectDateRange,
		AwaitingArchiveDateRange:
		return true
	}
	return false
}

// State is the dialogue's tagged union: Kind selects the variant and the
// remaining fields are its payload. Transitions always replace the whole
// value, so selections never outlive the state that collected them.
type State struct {
	Kind Kind `json:"kind"`

	// Family and Label describe the report being configured.
	Family report.Type `json:"family,omitempty"`
	Label  string      `json:"label,omitempty"`
	// PendingText is the free-text request that opened the flow.
	PendingText string `json:"pending_text,omitempty"`

	DonationType report.DonationType `json:"donation_type,omitempty"`
	Year         int                 `json:"year,omitempty"`

	// Collecting is set while the custom-range sub-dialogue waits for dates;
	// CustomStart holds the start date once given.
	Collecting  bool      `json:"collecting,omitempty"`
	CustomStart time.Time `json:"custom_start,omitzero"`

	// Events are the choices offered in AwaitingEventSelection.
	Events []report.Event `json:"events,omitempty"`

	Entered time.Time `json:"entered"`
}
