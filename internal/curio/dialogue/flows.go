package dialogue

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/museumops/curio/common/spec/report"
	"github.com/museumops/curio/internal/curio/assembler"
	"github.com/museumops/curio/internal/curio/assistant"
	"github.com/museumops/curio/internal/curio/daterange"
	"github.com/museumops/curio/internal/curio/intent"
	"github.com/museumops/curio/internal/curio/memory"
)

var yearRe = regexp.MustCompile(`\b(19|20)\d{2}\b`)

const eventAnalyticsLabel = "Event Attendance Analytics"

// handleText routes one free-text turn. Must be called with mu held.
func (c *Controller) handleText(ctx context.Context, text string, preceding []memory.Option) {
	w := intent.NewWords(text)

	if isAcknowledgment(w) {
		c.acknowledge(w)
		return
	}
	if isCancel(w) && (c.state.Kind.Awaiting() || c.asm.Generating()) {
		c.cancel()
		return
	}
	if opt, ok := memory.MatchOption(text, preceding); ok {
		c.handleClick(ctx, Click{Action: opt.Action, Value: opt.Value, Label: opt.Label})
		return
	}
	if isMenu(w) {
		c.reset()
		c.say("Which report would you like?", Menu()...)
		return
	}

	switch k := c.state.Kind; {
	case k == Idle:
		c.classify(ctx, text, false)
	case k.CollectsDateRange():
		c.dateRangeText(ctx, text, w)
	case k == AwaitingEventListDateSelection:
		c.customDateText(ctx, text)
	case k == AwaitingVisitorTypeChoice:
		c.visitorTypeText(ctx, text, w)
	case k == AwaitingEventTypeChoice:
		c.eventTypeText(ctx, text, w)
	case k == AwaitingDonationTypeChoice:
		c.donationTypeText(ctx, text, w)
	case k == AwaitingVisitorYear:
		c.yearText(ctx, text)
	case k == AwaitingVisitorMonth:
		c.monthText(ctx, text, w)
	case k == AwaitingEventSelection:
		c.eventText(ctx, text)
	}
}

func (c *Controller) acknowledge(w intent.Words) {
	switch {
	case isGratitude(w):
		c.say("You're welcome! Let me know if you need another report.")
	case c.state.Kind.Awaiting():
		c.say(`Whenever you're ready, choose one of the options above or type "cancel".`)
	default:
		c.say(`Okay. Type "menu" whenever you want a new report.`)
	}
}

func (c *Controller) cancel() {
	stopped := c.asm.Cancel()
	awaiting := c.state.Kind.Awaiting()
	c.logger.Info("dialogue cancelled", "state", c.state.Kind, "generation_cancelled", stopped)
	c.reset()
	if stopped && !awaiting {
		c.say("Okay, I've stopped generating the report.")
		return
	}
	c.say("Okay, I've cancelled that report.")
}

// classify runs the intent classifier and applies its decision.
func (c *Controller) classify(ctx context.Context, text string, pending bool) {
	d := intent.Classify(text, intent.Flags{GenericRangePending: pending})
	c.logger.Debug("intent classified", "rule", d.Rule, "action", d.Action, "family", d.Family)
	c.apply(ctx, d)
}

// reclassify lets a sub-type state give way to a new request; anything the
// classifier does not recognize re-presents the current card.
func (c *Controller) reclassify(ctx context.Context, text string, again func()) {
	d := intent.Classify(text, intent.Flags{})
	if d.Action == intent.ActionAssistant {
		again()
		return
	}
	c.logger.Debug("intent classified", "rule", d.Rule, "action", d.Action, "family", d.Family)
	c.apply(ctx, d)
}

func (c *Controller) apply(ctx context.Context, d intent.Decision) {
	switch d.Action {
	case intent.ActionAskWhichList:
		c.say("Which list would you like?", whichListOptions()...)
	case intent.ActionEventTypeChoice:
		c.startFlow(ctx, FlowEvent, d.Text)
	case intent.ActionEventListDateRange:
		c.startFlow(ctx, FlowEventList, d.Text)
	case intent.ActionDonationList:
		c.startFlow(ctx, FlowDonationList, d.Text)
	case intent.ActionDonationTypeChoice:
		c.startFlow(ctx, FlowDonationType, d.Text)
	case intent.ActionDonationMenu:
		c.say("Which donation report would you like?", donationMenuOptions()...)
	case intent.ActionDonationSubType:
		c.askDateRange(State{
			Kind:         AwaitingGenericDateRange,
			Family:       d.Family,
			Label:        d.Label,
			DonationType: d.DonationType,
			PendingText:  d.Text,
		})
	case intent.ActionVisitorTypeChoice:
		c.startFlow(ctx, FlowVisitor, d.Text)
	case intent.ActionArchiveDateRange:
		c.startFlow(ctx, FlowArchive, d.Text)
	case intent.ActionGenericDateRange:
		c.askDateRange(State{
			Kind:        AwaitingGenericDateRange,
			Family:      d.Family,
			Label:       d.Label,
			PendingText: d.Text,
		})
	case intent.ActionCancelPending:
		c.reset()
		c.say("Okay, I've cancelled that report.")
	case intent.ActionGeneratePending:
		c.assembleMode(ctx, report.ModeAll, d.Text)
	default:
		c.forward(ctx, d.Text)
	}
}

// forward hands an unrecognized turn to the general-purpose assistant.
func (c *Controller) forward(ctx context.Context, text string) {
	history := c.log.Messages()
	if n := len(history); n > 0 {
		history = history[:n-1]
	}
	reply, err := c.assistant.Reply(ctx, history, text)
	if err != nil || strings.TrimSpace(reply) == "" {
		if err != nil {
			c.logger.Warn("assistant reply failed", "err", err)
		}
		reply = assistant.Fallback
	}
	c.say(reply)
}

// --- flows ---

// startFlow opens a report flow. Any flow started replaces the active state.
func (c *Controller) startFlow(ctx context.Context, flow, text string) {
	switch flow {
	case FlowVisitor:
		c.enter(State{Kind: AwaitingVisitorTypeChoice, PendingText: c.pending(text)})
		c.say("Would you like a visitor graph or a visitor list?", visitorTypeOptions()...)
	case FlowVisitorGraph:
		c.enter(State{
			Kind:        AwaitingVisitorYear,
			Family:      report.TypeVisitorAnalytics,
			Label:       report.TypeVisitorAnalytics.Label(),
			PendingText: c.pending(text),
		})
		c.say("Which year should the visitor graph cover?", yearOptions(c.today().Year())...)
	case FlowVisitorList:
		c.askDateRange(c.flowState(AwaitingVisitorDateRange, report.TypeVisitorList, text))
	case FlowEvent:
		c.enter(State{Kind: AwaitingEventTypeChoice, PendingText: c.pending(text)})
		c.say("What kind of event report would you like?", eventTypeOptions()...)
	case FlowEventList:
		c.askDateRange(c.flowState(AwaitingEventListDateRange, report.TypeEventList, text))
	case FlowEventParticipants:
		c.selectEvent(ctx, c.pending(text))
	case FlowEventAnalytics:
		s := c.flowState(AwaitingEventParticipantsDateRange, report.TypeEventParticipants, text)
		s.Label = eventAnalyticsLabel
		c.askDateRange(s)
	case FlowDonation:
		c.reset()
		c.say("Which donation report would you like?", donationMenuOptions()...)
	case FlowDonationList:
		s := c.flowState(AwaitingDonationDateRange, report.TypeDonationReport, text)
		s.DonationType = report.DonationAll
		c.askDateRange(s)
	case FlowDonationType:
		c.enter(State{Kind: AwaitingDonationTypeChoice, PendingText: c.pending(text)})
		c.say("Which type of donations?", donationTypeOptions()...)
	case FlowCulturalObjects:
		c.askDateRange(c.flowState(AwaitingCulturalObjectDateRange, report.TypeCulturalObjects, text))
	case FlowArchive:
		c.askDateRange(c.flowState(AwaitingArchiveDateRange, report.TypeArchiveAnalytics, text))
	default:
		t := report.Type(flow)
		if !t.Valid() {
			c.stale()
			return
		}
		c.askDateRange(c.flowState(AwaitingGenericDateRange, t, text))
	}
}

// pending keeps the request text of the flow being narrowed down, unless a
// new one is given.
func (c *Controller) pending(text string) string {
	if text != "" {
		return text
	}
	return c.state.PendingText
}

func (c *Controller) flowState(kind Kind, family report.Type, text string) State {
	return State{Kind: kind, Family: family, Label: family.Label(), PendingText: c.pending(text)}
}

func (c *Controller) askDateRange(s State) {
	c.enter(s)
	opts := dateRangeOptions()
	if s.Kind == AwaitingGenericDateRange && s.Family == report.TypeComprehensiveDashboard && s.Label == "report" {
		opts = append(opts, familyOptions()...)
	}
	c.say(fmt.Sprintf("What date range should the %s cover?", s.Label), opts...)
}

// --- date ranges ---

func (c *Controller) dateRangeText(ctx context.Context, text string, w intent.Words) {
	if c.state.Collecting {
		c.customDateText(ctx, text)
		return
	}
	switch {
	case w.Has(modeAllWords...):
		c.assembleMode(ctx, report.ModeAll, text)
	case w.Has(modeMonthWords...):
		c.assembleMode(ctx, report.ModeThisMonth, text)
	case w.Has(modeCustomWords...):
		if r, ok := daterange.Resolve(text, c.today()); ok {
			c.assembleRange(ctx, r)
			return
		}
		c.startCustom()
	default:
		if r, ok := daterange.Resolve(text, c.today()); ok {
			c.assembleRange(ctx, r)
			return
		}
		if c.state.Kind == AwaitingGenericDateRange {
			c.classify(ctx, text, true)
			return
		}
		c.assembleMode(ctx, report.ModeAll, text)
	}
}

func (c *Controller) startCustom() {
	s := c.state
	if s.Kind == AwaitingEventListDateRange {
		s.Kind = AwaitingEventListDateSelection
	}
	s.Collecting = true
	s.CustomStart = time.Time{}
	c.enter(s)
	c.say(`Please enter the start date (for example 2024-03-01), or the whole range such as "March 1 2024 to March 31 2024".`)
}

// customDateText collects the two dates of a custom range.
func (c *Controller) customDateText(ctx context.Context, text string) {
	today := c.today()
	if d, ok := daterange.ParseDate(text, today); ok {
		if c.state.CustomStart.IsZero() {
			s := c.state
			s.CustomStart = d
			c.enter(s)
			c.say(fmt.Sprintf("Start date set to %s. What is the end date?", d.Format(report.DateLayout)))
			return
		}
		c.assembleRange(ctx, daterange.Range{Start: c.state.CustomStart, End: d})
		return
	}
	if r, ok := daterange.Resolve(text, today); ok {
		c.assembleRange(ctx, r)
		return
	}
	if c.state.CustomStart.IsZero() {
		c.say("I couldn't read that date. Please enter the start date, for example 2024-03-01.")
		return
	}
	c.say("I couldn't read that date. Please enter the end date, for example 2024-03-31.")
}

// --- sub-type choices ---

func (c *Controller) visitorTypeText(ctx context.Context, text string, w intent.Words) {
	switch {
	case w.Has("graph", "chart"):
		c.startFlow(ctx, FlowVisitorGraph, "")
	case w.Has("list"):
		c.startFlow(ctx, FlowVisitorList, "")
	default:
		c.reclassify(ctx, text, func() {
			c.say("Please choose graph or list.", visitorTypeOptions()...)
		})
	}
}

func (c *Controller) eventTypeText(ctx context.Context, text string, w intent.Words) {
	switch {
	case w.Has("analytics", "performance", "attendance"):
		c.startFlow(ctx, FlowEventAnalytics, "")
	case w.Has("list"):
		c.startFlow(ctx, FlowEventList, "")
	case w.Has("participant"):
		c.startFlow(ctx, FlowEventParticipants, "")
	default:
		c.reclassify(ctx, text, func() {
			c.say("Please choose an event report type.", eventTypeOptions()...)
		})
	}
}

func (c *Controller) donationTypeText(ctx context.Context, text string, w intent.Words) {
	for _, dt := range []report.DonationType{report.DonationAll, report.DonationMonetary, report.DonationArtifact, report.DonationLoan} {
		if w.Has(string(dt)) {
			c.chooseDonationType(dt)
			return
		}
	}
	c.reclassify(ctx, text, func() {
		c.say("Please choose a donation type.", donationTypeOptions()...)
	})
}

func (c *Controller) chooseDonationType(dt report.DonationType) {
	s := State{
		Kind:         AwaitingDonationDateRange,
		Family:       report.TypeDonationTypeReport,
		Label:        intent.DonationLabel(dt),
		DonationType: dt,
		PendingText:  c.state.PendingText,
	}
	if dt == report.DonationAll {
		s.Family = report.TypeDonationReport
	}
	c.askDateRange(s)
}

// --- visitor year / month ---

func (c *Controller) yearText(ctx context.Context, text string) {
	if m := yearRe.FindString(text); m != "" {
		y, _ := strconv.Atoi(m)
		c.chooseYear(y)
		return
	}
	c.reclassify(ctx, text, func() {
		c.say("Please choose a year.", yearOptions(c.today().Year())...)
	})
}

func (c *Controller) chooseYear(y int) {
	s := c.state
	s.Kind = AwaitingVisitorMonth
	s.Year = y
	c.enter(s)
	c.say(fmt.Sprintf("Which month of %d? Choose the entire year for a yearly graph.", y), monthOptions()...)
}

func (c *Controller) monthText(ctx context.Context, text string, w intent.Words) {
	for _, x := range w.List() {
		if m, ok := daterange.LookupMonth(x); ok {
			c.chooseMonth(ctx, int(m))
			return
		}
		if n, err := strconv.Atoi(x); err == nil && n >= 1 && n <= 12 {
			c.chooseMonth(ctx, n)
			return
		}
	}
	if w.Has(wholeYearWords...) {
		c.chooseMonth(ctx, 0)
		return
	}
	c.reclassify(ctx, text, func() {
		c.say("Please choose a month or the entire year.", monthOptions()...)
	})
}

// chooseMonth assembles the visitor graph; month 0 means the entire year.
func (c *Controller) chooseMonth(ctx context.Context, month int) {
	s := c.state
	r := daterange.YearRange(s.Year)
	if month > 0 {
		r = daterange.MonthRange(s.Year, time.Month(month))
	}
	c.assemble(ctx, assembler.Selection{
		Family:     s.Family,
		Label:      s.Label,
		SubFilter:  report.SubFilter{Year: s.Year, Month: month},
		Mode:       report.ModeCustom,
		Start:      r.Start,
		End:        r.End,
		SourceText: s.PendingText,
	})
}

// --- events ---

// selectEvent fetches the events offered for a participants report.
func (c *Controller) selectEvent(ctx context.Context, text string) {
	if c.events == nil {
		c.reset()
		c.say("The event list is not available right now.")
		return
	}
	ctx, cancel := context.WithTimeout(ctx, eventsTimeout)
	defer cancel()
	events, err := c.events.ListEvents(ctx)
	if err != nil {
		c.logger.Warn("event listing failed", "err", err)
		c.reset()
		c.say("I couldn't load the event list. Please try again later.")
		return
	}
	if len(events) == 0 {
		c.reset()
		c.say("There are no events to report on yet.")
		return
	}
	events = events[:min(len(events), maxEventOptions)]
	c.enter(State{
		Kind:        AwaitingEventSelection,
		Family:      report.TypeEventParticipants,
		Label:       report.TypeEventParticipants.Label(),
		PendingText: text,
		Events:      events,
	})
	c.say("Which event's participants should the report list?", eventOptions(events)...)
}

func (c *Controller) eventText(ctx context.Context, text string) {
	if ev, ok := matchEvent(text, c.state.Events); ok {
		c.chooseEvent(ctx, ev)
		return
	}
	c.reclassify(ctx, text, func() {
		c.say("Please choose an event.", eventOptions(c.state.Events)...)
	})
}

// matchEvent finds an event by id, by exact name or by a unique name
// fragment.
func matchEvent(text string, events []report.Event) (report.Event, bool) {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return report.Event{}, false
	}
	var partial []report.Event
	for _, ev := range events {
		name := strings.ToLower(ev.Name)
		if t == ev.ID || t == name {
			return ev, true
		}
		if len(t) >= 3 && strings.Contains(name, t) {
			partial = append(partial, ev)
		}
	}
	if len(partial) == 1 {
		return partial[0], true
	}
	return report.Event{}, false
}

func (c *Controller) chooseEvent(ctx context.Context, ev report.Event) {
	s := c.state
	c.assemble(ctx, assembler.Selection{
		Family:     report.TypeEventParticipants,
		Label:      fmt.Sprintf("%s for %s", s.Label, ev.Name),
		SubFilter:  report.SubFilter{EventID: ev.ID},
		Mode:       report.ModeAll,
		SourceText: s.PendingText,
	})
}

// --- clicks ---

// handleClick applies an option selection. Options that do not fit the
// active state are stale and change nothing.
func (c *Controller) handleClick(ctx context.Context, click Click) {
	k := c.state.Kind
	switch click.Action {
	case ActCancel:
		c.cancel()
	case ActStart:
		c.startFlow(ctx, click.Value, "")
	case ActRetryAll:
		req, ok := c.asm.LastRequest()
		if !ok {
			c.stale()
			return
		}
		c.assemble(ctx, assembler.Selection{
			Family:     req.Type,
			Label:      req.Type.Label(),
			SubFilter:  req.SubFilter,
			Mode:       report.ModeAll,
			SourceText: req.SourceText,
		})
	case ActGenerate:
		if !k.CollectsDateRange() {
			c.stale()
			return
		}
		c.assembleMode(ctx, report.ModeAll, "")
	case ActDateMode:
		if !k.CollectsDateRange() {
			c.stale()
			return
		}
		switch mode := report.DateRangeMode(click.Value); mode {
		case report.ModeAll, report.ModeThisMonth:
			c.assembleMode(ctx, mode, "")
		case report.ModeCustom:
			c.startCustom()
		default:
			c.stale()
		}
	case ActCustomDates:
		if !(k.CollectsDateRange() || k == AwaitingEventListDateSelection) || click.Start.IsZero() || click.End.IsZero() {
			c.stale()
			return
		}
		c.assembleRange(ctx, daterange.Range{Start: click.Start, End: click.End})
	case ActDonationType:
		dt := report.DonationType(click.Value)
		if k != AwaitingDonationTypeChoice || !dt.Valid() {
			c.stale()
			return
		}
		c.chooseDonationType(dt)
	case ActYear:
		y, err := strconv.Atoi(click.Value)
		if k != AwaitingVisitorYear || err != nil {
			c.stale()
			return
		}
		c.chooseYear(y)
	case ActMonth:
		if k != AwaitingVisitorMonth {
			c.stale()
			return
		}
		if click.Value == monthEntire {
			c.chooseMonth(ctx, 0)
			return
		}
		m, err := strconv.Atoi(click.Value)
		if err != nil || m < 1 || m > 12 {
			c.stale()
			return
		}
		c.chooseMonth(ctx, m)
	case ActEvent:
		if k != AwaitingEventSelection {
			c.stale()
			return
		}
		for _, ev := range c.state.Events {
			if ev.ID == click.Value {
				c.chooseEvent(ctx, ev)
				return
			}
		}
		c.stale()
	default:
		c.stale()
	}
}

// --- assembly ---

// source is the text a request is assembled for: the request that opened
// the flow, or the reply that closed it.
func (c *Controller) source(text string) string {
	if c.state.PendingText != "" {
		return c.state.PendingText
	}
	return text
}

func (c *Controller) selection(text string) assembler.Selection {
	s := c.state
	return assembler.Selection{
		Family:     s.Family,
		Label:      s.Label,
		SubFilter:  report.SubFilter{DonationType: s.DonationType},
		SourceText: c.source(text),
	}
}

func (c *Controller) assembleMode(ctx context.Context, mode report.DateRangeMode, text string) {
	sel := c.selection(text)
	sel.Mode = mode
	c.assemble(ctx, sel)
}

func (c *Controller) assembleRange(ctx context.Context, r daterange.Range) {
	sel := c.selection("")
	sel.Mode = report.ModeCustom
	sel.Start, sel.End = r.Start, r.End
	c.assemble(ctx, sel)
}

// assemble builds the request, returns the dialogue to Idle and starts the
// generation.
func (c *Controller) assemble(ctx context.Context, sel assembler.Selection) {
	req := assembler.Build(sel, c.today())
	label := sel.Label
	if label == "" || label == "report" {
		label = req.Type.Label()
	}
	c.reset()

	err := c.asm.Submit(ctx, req, func(out assembler.Outcome) {
		c.finish(label, out)
	})
	switch {
	case errors.Is(err, assembler.ErrGenerationInProgress):
		c.say(`A report is already being generated. Please wait for it to finish, or type "cancel".`)
	case errors.Is(err, assembler.ErrRateLimited):
		c.say("You've requested a lot of reports in a short time. Please try again in a minute.")
	case err != nil:
		c.logger.Warn("report request rejected", "err", err, "report_type", req.Type)
		c.say("I couldn't put that report request together. Please try again.")
	default:
		c.logger.Info("report requested", "report_type", req.Type, "mode", req.Mode, "span", req.Span())
		c.say(fmt.Sprintf("Generating your %s for %s. This can take a minute.", label, req.Span()))
	}
}

// finish reports a generation outcome. It runs on the generation goroutine.
func (c *Controller) finish(label string, out assembler.Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case out.Report != nil:
		title := out.Report.Title
		if title == "" {
			title = label
		}
		c.sayLater(fmt.Sprintf("Your %s is ready: %s (%s).", label, title, out.Request.Span()))
		if c.hooks.ReportReady != nil {
			c.hooks.ReportReady(c.key, out.Request, out.Report)
		}
	case out.NoData && out.Request.Mode != report.ModeAll:
		c.sayLater(fmt.Sprintf("No data found for the %s in %s. Would you like to try with all available data instead?",
			label, out.Request.Span()), retryOptions()...)
	case out.NoData:
		c.sayLater(fmt.Sprintf("No data found for the %s.", label))
	case errors.Is(out.Err, assembler.ErrCancelled):
	case errors.Is(out.Err, assembler.ErrTimeout):
		c.sayLater(fmt.Sprintf("The report service took too long to generate the %s. Please try again in a moment.", label))
	case errors.Is(out.Err, assembler.ErrRejected):
		msg := out.Message
		if msg == "" {
			msg = "no reason given"
		}
		c.sayLater(fmt.Sprintf("The report service could not generate the %s: %s", label, msg))
	default:
		c.logger.Warn("report generation failed", "err", out.Err, "report_type", out.Request.Type)
		c.sayLater("I couldn't reach the report service. Please try again later.")
	}

	if c.hooks.Finished != nil {
		c.hooks.Finished(c.key, out)
	}
}
