// Package dialogue implements the report conversation state machine.
//
// A Controller owns one conversation: its State, its message log and its
// Assembler. Every user event (free text or option click) is processed to
// completion under the controller's mutex before the next one is accepted:
//
//  1. acknowledgments ("thanks", "ok", bare yes/no) get a conversational
//     reply and change nothing;
//  2. cancel words abandon the active flow and any running generation;
//  3. a short reply naming an option of the immediately preceding assistant
//     message is treated as a click on that option;
//  4. the active Awaiting-state handles the turn;
//  5. otherwise the intent classifier decides.
//
// Report generation runs asynchronously; its outcome is appended to the log
// later and handed to Hooks.Deliver.
package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/museumops/curio/common/spec/report"
	"github.com/museumops/curio/common/trace"
	"github.com/museumops/curio/internal/curio/assembler"
	"github.com/museumops/curio/internal/curio/assistant"
	"github.com/museumops/curio/internal/curio/memory"
)

// DefaultIdleTimeout is how long an Awaiting-state survives without input.
const DefaultIdleTimeout = 10 * time.Minute

const eventsTimeout = 15 * time.Second

// ErrUnknownOption is returned by HandleOptionID for IDs not found in the log.
var ErrUnknownOption = errors.New("unknown option")

// EventLister fetches the events offered for participant reports.
type EventLister interface {
	ListEvents(ctx context.Context) ([]report.Event, error)
}

// Hooks connect a controller to its host. Every field is optional.
type Hooks struct {
	// Record receives every message appended to the log.
	Record func(key string, m memory.Message)
	// Deliver receives assistant messages produced after the triggering
	// Handle call returned, i.e. generation outcomes.
	Deliver func(key string, m memory.Message)
	// ReportReady receives each report obtained from the service.
	ReportReady func(key string, req report.Request, rep *report.Report)
	// Finished receives every generation outcome.
	Finished func(key string, out assembler.Outcome)
}

// Config wires a Controller.
type Config struct {
	Key         string
	Assembler   *assembler.Assembler
	Events      EventLister
	Assistant   assistant.Assistant
	Log         *memory.Log
	Hooks       Hooks
	IdleTimeout time.Duration
	Now         func() time.Time
	Logger      *slog.Logger
}

// Click is an option selection. Start and End are only used by
// ActCustomDates.
type Click struct {
	Action string
	Value  string
	Label  string
	Start  time.Time
	End    time.Time
}

// Controller is the per-conversation state machine. It is safe for
// concurrent use; events are serialized.
type Controller struct {
	mu sync.Mutex

	key       string
	asm       *assembler.Assembler
	events    EventLister
	assistant assistant.Assistant
	log       *memory.Log
	hooks     Hooks
	idle      time.Duration
	now       func() time.Time
	logger    *slog.Logger

	state        State
	lastActivity time.Time
	// replies collects the assistant messages of the event being handled.
	replies []memory.Message
}

// New returns a Controller in Idle.
func New(cfg Config) *Controller {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Log == nil {
		cfg.Log = memory.NewLog(0)
	}
	if cfg.Assistant == nil {
		cfg.Assistant = assistant.Noop{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	now := cfg.Now()
	return &Controller{
		key:          cfg.Key,
		asm:          cfg.Assembler,
		events:       cfg.Events,
		assistant:    cfg.Assistant,
		log:          cfg.Log,
		hooks:        cfg.Hooks,
		idle:         cfg.IdleTimeout,
		now:          cfg.Now,
		logger:       cfg.Logger.With("conversation", cfg.Key),
		state:        State{Kind: Idle, Entered: now},
		lastActivity: now,
	}
}

// Key returns the conversation key.
func (c *Controller) Key() string { return c.key }

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	s.Events = append([]report.Event(nil), s.Events...)
	return s
}

// Messages returns the conversation log, oldest first.
func (c *Controller) Messages() []memory.Message {
	return c.log.Messages()
}

// LastActivity returns when the last user event was handled.
func (c *Controller) LastActivity() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActivity
}

// Generating reports whether a report generation is outstanding.
func (c *Controller) Generating() bool {
	return c.asm.Generating()
}

// Wait blocks until outstanding generations have delivered their outcome.
func (c *Controller) Wait() {
	c.asm.Wait()
}

// HandleText processes one free-text user turn and returns the assistant
// messages it produced.
func (c *Controller) HandleText(ctx context.Context, text string) []memory.Message {
	ctx = trace.Ensure(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.expire(now)
	preceding := c.log.PrecedingOptions()
	c.record(c.log.Append(memory.AuthorUser, text, nil, now))
	c.lastActivity = now

	c.handleText(ctx, text, preceding)
	return c.flush()
}

// HandleOption processes an option click.
func (c *Controller) HandleOption(ctx context.Context, click Click) []memory.Message {
	ctx = trace.Ensure(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.expire(now)
	label := click.Label
	if label == "" {
		label = click.Value
		if label == "" {
			label = click.Action
		}
	}
	c.record(c.log.Append(memory.AuthorUser, label, nil, now))
	c.lastActivity = now

	c.handleClick(ctx, click)
	return c.flush()
}

// HandleOptionID clicks the option with the given ID from the log.
func (c *Controller) HandleOptionID(ctx context.Context, id string) ([]memory.Message, error) {
	opt, ok := c.log.FindOption(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOption, id)
	}
	return c.HandleOption(ctx, Click{Action: opt.Action, Value: opt.Value, Label: opt.Label}), nil
}

// --- state plumbing ---

func (c *Controller) enter(s State) {
	from := c.state.Kind
	s.Entered = c.now()
	c.state = s
	if from != s.Kind {
		c.logger.Debug("dialogue transition", "from", from, "to", s.Kind)
	}
}

func (c *Controller) reset() {
	c.enter(State{Kind: Idle})
}

// expire abandons an Awaiting-state left without input for too long.
// Must be called with mu held.
func (c *Controller) expire(now time.Time) {
	if c.state.Kind.Awaiting() && now.Sub(c.lastActivity) > c.idle {
		c.logger.Info("dialogue abandoned", "state", c.state.Kind, "idle", now.Sub(c.lastActivity))
		c.reset()
	}
}

func (c *Controller) today() time.Time {
	return c.now()
}

// say appends an assistant message produced while handling an event.
func (c *Controller) say(text string, opts ...memory.Option) {
	m := c.log.Append(memory.AuthorAssistant, text, opts, c.now())
	c.record(m)
	c.replies = append(c.replies, m)
}

// sayLater appends an assistant message outside of event handling.
func (c *Controller) sayLater(text string, opts ...memory.Option) {
	m := c.log.Append(memory.AuthorAssistant, text, opts, c.now())
	c.record(m)
	if c.hooks.Deliver != nil {
		c.hooks.Deliver(c.key, m)
	}
}

func (c *Controller) record(m memory.Message) {
	if c.hooks.Record != nil {
		c.hooks.Record(c.key, m)
	}
}

func (c *Controller) flush() []memory.Message {
	out := c.replies
	c.replies = nil
	return out
}

func (c *Controller) stale() {
	c.say(`That option is no longer available. Type "menu" to start a new report.`)
}
