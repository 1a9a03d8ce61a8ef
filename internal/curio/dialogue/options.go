package dialogue

import (
	"strconv"

	"github.com/museumops/curio/common/spec/report"
	"github.com/museumops/curio/internal/curio/memory"
)

// Option actions.
const (
	ActStart        = "start"
	ActDateMode     = "date_mode"
	ActCustomDates  = "custom_dates"
	ActDonationType = "donation_type"
	ActYear         = "year"
	ActMonth        = "month"
	ActEvent        = "event"
	ActGenerate     = "generate"
	ActCancel       = "cancel"
	ActRetryAll     = "retry_all"
)

// Flows opened by ActStart. Any report.Type value is also accepted and
// opens the generic date-range question for that family.
const (
	FlowVisitor           = "visitor"
	FlowVisitorList       = "visitor_list"
	FlowVisitorGraph      = "visitor_graph"
	FlowEvent             = "event"
	FlowEventList         = "event_list"
	FlowEventParticipants = "event_participants"
	FlowEventAnalytics    = "event_analytics"
	FlowDonation          = "donation"
	FlowDonationList      = "donation_list"
	FlowDonationType      = "donation_type"
	FlowCulturalObjects   = "cultural_objects"
	FlowArchive           = "archive"
)

// monthEntire is the ActMonth value for a whole-year visitor report.
const monthEntire = "entire"

func dateRangeOptions() []memory.Option {
	return []memory.Option{
		memory.NewOption("All available data", ActDateMode, string(report.ModeAll)),
		memory.NewOption("This month", ActDateMode, string(report.ModeThisMonth)),
		memory.NewOption("Custom range", ActDateMode, string(report.ModeCustom)),
	}
}

// familyOptions lets a plain "report" request be narrowed to a family.
func familyOptions() []memory.Option {
	return []memory.Option{
		memory.NewOption("Visitor report", ActStart, FlowVisitor),
		memory.NewOption("Event report", ActStart, FlowEvent),
		memory.NewOption("Donation report", ActStart, FlowDonation),
		memory.NewOption("Cultural objects", ActStart, FlowCulturalObjects),
		memory.NewOption("Archive analysis", ActStart, FlowArchive),
		memory.NewOption("Financial report", ActStart, string(report.TypeFinancialReport)),
		memory.NewOption("Staff performance", ActStart, string(report.TypeStaffPerformance)),
		memory.NewOption("Predictive analytics", ActStart, string(report.TypePredictiveAnalytics)),
	}
}

// Menu lists every report the assistant can configure.
func Menu() []memory.Option {
	return append(familyOptions(),
		memory.NewOption("Comprehensive dashboard", ActStart, string(report.TypeComprehensiveDashboard)))
}

func whichListOptions() []memory.Option {
	return []memory.Option{
		memory.NewOption("Visitor list", ActStart, FlowVisitorList),
		memory.NewOption("Event list", ActStart, FlowEventList),
		memory.NewOption("Donation list", ActStart, FlowDonationList),
	}
}

func visitorTypeOptions() []memory.Option {
	return []memory.Option{
		memory.NewOption("Graph", ActStart, FlowVisitorGraph),
		memory.NewOption("List", ActStart, FlowVisitorList),
	}
}

func eventTypeOptions() []memory.Option {
	return []memory.Option{
		memory.NewOption("Event list", ActStart, FlowEventList),
		memory.NewOption("Participants", ActStart, FlowEventParticipants),
		memory.NewOption("Attendance analytics", ActStart, FlowEventAnalytics),
	}
}

func donationMenuOptions() []memory.Option {
	return []memory.Option{
		memory.NewOption("Donation list", ActStart, FlowDonationList),
		memory.NewOption("By donation type", ActStart, FlowDonationType),
	}
}

func donationTypeOptions() []memory.Option {
	return []memory.Option{
		memory.NewOption("All", ActDonationType, string(report.DonationAll)),
		memory.NewOption("Monetary", ActDonationType, string(report.DonationMonetary)),
		memory.NewOption("Artifact", ActDonationType, string(report.DonationArtifact)),
		memory.NewOption("Loan", ActDonationType, string(report.DonationLoan)),
	}
}

// yearOptions offers the current year and the four before it.
func yearOptions(current int) []memory.Option {
	opts := make([]memory.Option, 0, 5)
	for y := current; y > current-5; y-- {
		v := strconv.Itoa(y)
		opts = append(opts, memory.NewOption(v, ActYear, v))
	}
	return opts
}

var monthLabels = [...]string{"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December"}

// monthOptions lists the months first so that option n is month n.
func monthOptions() []memory.Option {
	opts := make([]memory.Option, 0, len(monthLabels)+1)
	for i, name := range monthLabels {
		opts = append(opts, memory.NewOption(name, ActMonth, strconv.Itoa(i+1)))
	}
	return append(opts, memory.NewOption("Entire year", ActMonth, monthEntire))
}

// maxEventOptions bounds the event picker card.
const maxEventOptions = 25

func eventOptions(events []report.Event) []memory.Option {
	opts := make([]memory.Option, 0, min(len(events), maxEventOptions))
	for _, ev := range events[:min(len(events), maxEventOptions)] {
		label := ev.Name
		if ev.Date != "" {
			label += " (" + ev.Date + ")"
		}
		opts = append(opts, memory.NewOption(label, ActEvent, ev.ID))
	}
	return opts
}

func retryOptions() []memory.Option {
	return []memory.Option{memory.NewOption("Use all available data", ActRetryAll, "")}
}
