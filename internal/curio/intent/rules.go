package intent

import "github.com/museumops/curio/common/spec/report"

type rule struct {
	name   string
	match  func(in Words, f Flags) bool
	decide func(in Words) Decision
}

var (
	reportListCues  = []string{"report", "generate", "create", "analytics", "summary", "list"}
	reportGraphCues = []string{"report", "generate", "create", "analytics", "summary", "list", "graph"}
	archiveCues     = []string{"analysis", "report", "generate", "create", "analytics", "summary"}
	genericCues     = []string{"report", "generate", "create", "analytics", "summary",
		"event", "exhibit", "cultural", "object", "archive", "financial"}
	generateCues = []string{"generate", "create", "yes", "ok", "start"}
)

// rules is evaluated top-down; the first match wins.
var rules = []rule{
	{
		name: "bare_list",
		match: func(in Words, _ Flags) bool {
			return in.Contains("list") && !in.Contains("visitor", "event", "donation")
		},
		decide: fixed(ActionAskWhichList),
	},
	{
		name: "event_report",
		match: func(in Words, _ Flags) bool {
			return in.Contains("event") && in.Contains(reportListCues...)
		},
		decide: func(in Words) Decision {
			if in.Contains("event list") {
				return Decision{Action: ActionEventListDateRange, Family: report.TypeEventList, Label: report.TypeEventList.Label()}
			}
			return Decision{Action: ActionEventTypeChoice}
		},
	},
	{
		name:  "donation_list",
		match: func(in Words, _ Flags) bool { return in.Contains("donation list") },
		decide: func(Words) Decision {
			return Decision{Action: ActionDonationList, Family: report.TypeDonationReport, DonationType: report.DonationAll}
		},
	},
	{
		name:   "donation_type",
		match:  func(in Words, _ Flags) bool { return in.Contains("donation type") },
		decide: fixed(ActionDonationTypeChoice),
	},
	{
		name:   "donation_menu",
		match:  func(in Words, _ Flags) bool { return in.Contains("donation") },
		decide: fixed(ActionDonationMenu),
	},
	{
		name:  "donation_sub_type",
		match: func(in Words, _ Flags) bool { return in.Contains("monetary", "loan", "donated") },
		decide: func(in Words) Decision {
			dt := report.DonationArtifact
			switch {
			case in.Contains("monetary"):
				dt = report.DonationMonetary
			case in.Contains("loan"):
				dt = report.DonationLoan
			}
			return Decision{
				Action:       ActionDonationSubType,
				Family:       report.TypeDonationTypeReport,
				Label:        DonationLabel(dt),
				DonationType: dt,
			}
		},
	},
	{
		name: "visitor_report",
		match: func(in Words, _ Flags) bool {
			return in.Contains("visitor") && in.Contains(reportGraphCues...)
		},
		decide: fixed(ActionVisitorTypeChoice),
	},
	{
		name: "event_participants",
		match: func(in Words, _ Flags) bool {
			return (in.Contains("event") && in.Contains("participant")) ||
				(in.Contains("participant") && in.Contains(reportGraphCues...))
		},
		decide: fixed(ActionEventTypeChoice),
	},
	{
		name: "archive_analysis",
		match: func(in Words, _ Flags) bool {
			return (in.Contains("archive") && in.Contains(archiveCues...)) ||
				(in.Contains("analysis") && in.Contains("archive", "digital"))
		},
		decide: func(Words) Decision {
			return Decision{Action: ActionArchiveDateRange, Family: report.TypeArchiveAnalytics, Label: report.TypeArchiveAnalytics.Label()}
		},
	},
	{
		name: "generic_report",
		match: func(in Words, f Flags) bool {
			return !f.GenericRangePending && in.Contains(genericCues...)
		},
		decide: func(in Words) Decision {
			family, label := genericFamily(in)
			return Decision{Action: ActionGenericDateRange, Family: family, Label: label}
		},
	},
	{
		name: "pending_cancel",
		match: func(in Words, f Flags) bool {
			return f.GenericRangePending && in.Contains("cancel")
		},
		decide: fixed(ActionCancelPending),
	},
	{
		name: "pending_generate",
		match: func(in Words, f Flags) bool {
			return f.GenericRangePending && in.Contains(generateCues...)
		},
		decide: fixed(ActionGeneratePending),
	},
}

func fixed(a Action) func(Words) Decision {
	return func(Words) Decision { return Decision{Action: a} }
}

// genericFamily applies the secondary keyword order used to label generic
// report requests.
func genericFamily(in Words) (report.Type, string) {
	switch {
	case in.Contains("cultural", "object"):
		return report.TypeCulturalObjects, "Cultural Objects Report"
	case in.Contains("visitor"):
		return report.TypeVisitorAnalytics, "Visitor Analytics Report"
	case in.Contains("donation"):
		return report.TypeDonationReport, "Donation Report"
	case in.Contains("event"):
		return report.TypeEventList, "Events Report"
	case in.Contains("exhibit"):
		return report.TypeCulturalObjects, "Exhibits Report"
	case in.Contains("archive"):
		return report.TypeArchiveAnalytics, "Archive Report"
	case in.Contains("financial"):
		return report.TypeFinancialReport, "Financial Report"
	}
	return report.TypeComprehensiveDashboard, "report"
}

// DonationLabel names the report for one donation type.
func DonationLabel(dt report.DonationType) string {
	switch dt {
	case report.DonationAll, "":
		return report.TypeDonationReport.Label()
	case report.DonationMonetary:
		return "Monetary Donations Report"
	case report.DonationLoan:
		return "Loan Donations Report"
	}
	return "Artifact Donations Report"
}
