// Package intent classifies a free-text chat turn into a report-dialogue
// decision.
//
// Classification is deterministic, case-insensitive substring matching:
// "reporting" contains "report" and "exhibitions" contains "exhibit". The
// two-word cues ("donation list", "donation type", "event list") match as
// literal substrings too. The rules form an ordered table evaluated top-down; the first
// rule whose predicate holds decides, and no later rule is consulted. The
// order is significant: several rules share keywords ("event", "donation",
// "report") and the table position is what disambiguates them.
package intent

import (
	"strings"
	"unicode"

	"github.com/museumops/curio/common/spec/report"
)

// Action tells the dialogue controller what to do with a classified turn.
type Action int

const (
	// ActionAssistant forwards the text to the general-purpose assistant.
	ActionAssistant Action = iota
	// ActionAskWhichList shows the "which list?" card without a transition.
	ActionAskWhichList
	// ActionEventTypeChoice opens the event report type picker.
	ActionEventTypeChoice
	// ActionEventListDateRange asks for the event list date range directly.
	ActionEventListDateRange
	// ActionDonationList asks for the date range of an all-donations list.
	ActionDonationList
	// ActionDonationTypeChoice opens the donation type picker.
	ActionDonationTypeChoice
	// ActionDonationMenu shows donation report options without a transition.
	ActionDonationMenu
	// ActionDonationSubType starts generic date collection with Decision.DonationType set.
	ActionDonationSubType
	// ActionVisitorTypeChoice opens the visitor graph/list picker.
	ActionVisitorTypeChoice
	// ActionArchiveDateRange asks for the archive analysis date range.
	ActionArchiveDateRange
	// ActionGenericDateRange opens generic date collection for Decision.Family.
	ActionGenericDateRange
	// ActionCancelPending aborts a pending generic date range.
	ActionCancelPending
	// ActionGeneratePending assembles the pending generic report.
	ActionGeneratePending
)

var actionNames = map[Action]string{
	ActionAssistant:          "assistant",
	ActionAskWhichList:       "ask_which_list",
	ActionEventTypeChoice:    "event_type_choice",
	ActionEventListDateRange: "event_list_date_range",
	ActionDonationList:       "donation_list",
	ActionDonationTypeChoice: "donation_type_choice",
	ActionDonationMenu:       "donation_menu",
	ActionDonationSubType:    "donation_sub_type",
	ActionVisitorTypeChoice:  "visitor_type_choice",
	ActionArchiveDateRange:   "archive_date_range",
	ActionGenericDateRange:   "generic_date_range",
	ActionCancelPending:      "cancel_pending",
	ActionGeneratePending:    "generate_pending",
}

func (a Action) String() string {
	if n, ok := actionNames[a]; ok {
		return n
	}
	return "unknown"
}

// Flags is the dialogue context the classifier depends on.
type Flags struct {
	// GenericRangePending is set while a generic report is waiting for its
	// date range to be confirmed.
	GenericRangePending bool
}

// Decision is the classifier's verdict for one turn.
type Decision struct {
	// Rule names the table entry that matched, for logs and tests.
	Rule   string
	Action Action
	// Family and Label are set for ActionGenericDateRange and ActionDonationSubType.
	Family report.Type
	Label  string
	// DonationType is set for ActionDonationSubType.
	DonationType report.DonationType
	// Text is the original turn.
	Text string
}

// Classify evaluates the rule table against text.
func Classify(text string, flags Flags) Decision {
	in := NewWords(text)
	for _, r := range rules {
		if r.match(in, flags) {
			d := r.decide(in)
			d.Rule = r.name
			d.Text = text
			return d
		}
	}
	return Decision{Rule: "assistant", Action: ActionAssistant, Text: text}
}

// Words is a turn prepared for keyword checks: the lowercased text for
// substring cues and its tokens for whole-word replies.
type Words struct {
	text string
	list []string
	set  map[string]bool
}

// NewWords tokenises text.
func NewWords(text string) Words {
	list := Tokenise(text)
	set := make(map[string]bool, len(list))
	for _, w := range list {
		set[w] = true
	}
	return Words{text: strings.ToLower(text), list: list, set: set}
}

// Contains reports whether any of subs occurs anywhere in the lowercased
// turn. The classifier rules are written in terms of Contains.
func (w Words) Contains(subs ...string) bool {
	for _, s := range subs {
		if strings.Contains(w.text, s) {
			return true
		}
	}
	return false
}

// Tokenise lowercases text and splits it into letter/digit runs.
func Tokenise(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// List returns the tokens in order.
func (w Words) List() []string { return w.list }

// Has reports whether any of words occurs as a whole word, accepting a
// plural "s". It serves the short replies of the dialogue sub-states.
func (w Words) Has(words ...string) bool {
	for _, x := range words {
		if w.set[x] || w.set[x+"s"] {
			return true
		}
	}
	return false
}

// Only reports whether the turn is non-empty and every word is in allowed.
func (w Words) Only(allowed map[string]bool) bool {
	for _, x := range w.list {
		if !allowed[x] {
			return false
		}
	}
	return len(w.list) > 0
}
