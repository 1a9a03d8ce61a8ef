package assembler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/museumops/curio/common/spec/report"
	"github.com/museumops/curio/common/trace"
)

// DefaultTimeout bounds one generation call. Document assembly on the
// service side can be slow.
const DefaultTimeout = 2 * time.Minute

var (
	// ErrGenerationInProgress is returned by Submit while a previous request
	// of the same conversation is still outstanding.
	ErrGenerationInProgress = errors.New("a report is already being generated")
	// ErrRateLimited is returned by Submit when the conversation exhausted
	// its generation quota.
	ErrRateLimited = errors.New("report generation rate limit reached")
	// ErrTimeout marks an outcome whose call exceeded the timeout.
	ErrTimeout = errors.New("report generation timed out")
	// ErrCancelled marks an outcome cancelled by the user.
	ErrCancelled = errors.New("report generation cancelled")
	// ErrRejected marks a service reply with success=false other than an
	// empty result.
	ErrRejected = errors.New("report service rejected the request")
)

// Generator calls the report-generation service.
type Generator interface {
	Generate(ctx context.Context, req report.Request) (*report.GenerateResponse, error)
}

// Outcome is the result of one generation.
type Outcome struct {
	Request  report.Request
	Report   *report.Report
	NoData   bool
	Message  string
	Err      error
	Duration time.Duration
	TraceID  string
}

// Status classifies the outcome for audit records.
func (o Outcome) Status() string {
	switch {
	case o.Report != nil:
		return "generated"
	case o.NoData:
		return "empty"
	case errors.Is(o.Err, ErrCancelled):
		return "cancelled"
	case errors.Is(o.Err, ErrTimeout):
		return "timeout"
	}
	return "failed"
}

// Config tunes an Assembler.
type Config struct {
	Timeout time.Duration
	// Limiter and Key enable rate limiting. Limiter may be shared between
	// assemblers; Key identifies this conversation.
	Limiter *RateLimiter
	Key     string
	Logger  *slog.Logger
}

// Assembler owns the isGenerating guard of one conversation.
type Assembler struct {
	gen     Generator
	timeout time.Duration
	limiter *RateLimiter
	key     string
	logger  *slog.Logger

	generating atomic.Bool
	wg         sync.WaitGroup

	mu      sync.Mutex
	cancel  context.CancelFunc
	last    report.Request
	hasLast bool
}

// New returns an Assembler that sends requests through gen.
func New(gen Generator, cfg Config) *Assembler {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Assembler{
		gen:     gen,
		timeout: cfg.Timeout,
		limiter: cfg.Limiter,
		key:     cfg.Key,
		logger:  cfg.Logger,
	}
}

// Submit validates req and starts generating it in the background. done is
// called exactly once with the outcome, after the guard has been released.
// Submit never calls done itself; a non-nil error means nothing was started.
func (a *Assembler) Submit(ctx context.Context, req report.Request, done func(Outcome)) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if !a.generating.CompareAndSwap(false, true) {
		return ErrGenerationInProgress
	}
	if a.limiter != nil && !a.limiter.Allow(a.key) {
		a.generating.Store(false)
		return ErrRateLimited
	}

	// The generation outlives the inbound event, so only values are inherited.
	genCtx, cancel := context.WithTimeout(context.WithoutCancel(trace.Ensure(ctx)), a.timeout)
	a.mu.Lock()
	a.cancel = cancel
	a.last, a.hasLast = req, true
	a.mu.Unlock()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		out := func() Outcome {
			defer a.release()
			return a.generate(genCtx, req)
		}()
		if done != nil {
			done(out)
		}
	}()
	return nil
}

func (a *Assembler) generate(ctx context.Context, req report.Request) Outcome {
	start := time.Now()
	resp, err := a.gen.Generate(ctx, req)
	out := Outcome{Request: req, Duration: time.Since(start), TraceID: trace.FromContext(ctx)}

	switch {
	case err != nil:
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			out.Err = fmt.Errorf("%w after %s: %w", ErrTimeout, a.timeout, err)
		case errors.Is(ctx.Err(), context.Canceled):
			out.Err = ErrCancelled
		default:
			out.Err = err
		}
	case resp == nil:
		out.Err = fmt.Errorf("%w: empty response", ErrRejected)
	case resp.Success && resp.Report != nil:
		out.Report = resp.Report
	case resp.NoData():
		out.NoData = true
		out.Message = resp.Message
	default:
		out.Message = resp.Message
		out.Err = fmt.Errorf("%w: %s", ErrRejected, resp.Message)
	}

	a.logger.Info("report generation finished",
		"trace_id", out.TraceID,
		"conversation", a.key,
		"report_type", req.Type,
		"mode", req.Mode,
		"status", out.Status(),
		"duration", out.Duration,
	)
	return out
}

// release frees the guard and the per-call context.
func (a *Assembler) release() {
	a.mu.Lock()
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.mu.Unlock()
	a.generating.Store(false)
}

// Cancel aborts the outstanding generation, if any. The guard is released
// once the call returns.
func (a *Assembler) Cancel() bool {
	a.mu.Lock()
	cancel := a.cancel
	a.mu.Unlock()
	if cancel == nil {
		return false
	}
	cancel()
	return true
}

// Generating reports whether a generation is outstanding.
func (a *Assembler) Generating() bool {
	return a.generating.Load()
}

// LastRequest returns the most recently submitted request.
func (a *Assembler) LastRequest() (report.Request, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last, a.hasLast
}

// Wait blocks until every started generation has delivered its outcome.
func (a *Assembler) Wait() {
	a.wg.Wait()
}
