// Package app wires Curio's components together.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/museumops/curio/common/spec/report"
	"github.com/museumops/curio/internal/curio/assembler"
	"github.com/museumops/curio/internal/curio/assistant"
	"github.com/museumops/curio/internal/curio/audit"
	"github.com/museumops/curio/internal/curio/config"
	"github.com/museumops/curio/internal/curio/dialogue"
	"github.com/museumops/curio/internal/curio/httpapi"
	"github.com/museumops/curio/internal/curio/matrix"
	"github.com/museumops/curio/internal/curio/memory"
	"github.com/museumops/curio/internal/curio/reportsvc"
	"github.com/museumops/curio/internal/curio/store"
)

// sweepInterval is how often idle conversations are evicted.
const sweepInterval = 5 * time.Minute

// App is the main Curio application
type App struct {
	config    *config.Config
	store     *store.Store
	reports   *reportsvc.Client
	assistant assistant.Assistant
	limiter   *assembler.RateLimiter
	notifier  audit.Notifier
	registry  *dialogue.Registry
	matrix    *matrix.Client
	bridge    *matrix.Bridge
	api       *httpapi.Server
}

// New opens the database and builds every configured component.
func New(cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	st, err := store.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	a := &App{
		config:   cfg,
		store:    st,
		reports:  reportsvc.New(cfg.ReportService.BaseURL, reportsvc.Options{Token: cfg.ReportService.Token}),
		limiter:  assembler.NewRateLimiter(cfg.Dialogue.RateLimit, time.Minute),
		notifier: audit.Noop{},
	}

	if cfg.Assistant.APIKey != "" {
		a.assistant = assistant.NewOpenAI(assistant.Config{
			APIKey:  cfg.Assistant.APIKey,
			BaseURL: cfg.Assistant.BaseURL,
			Model:   cfg.Assistant.Model,
			Timeout: cfg.Assistant.Timeout,
		})
		slog.Info("assistant fallback enabled", "model", cfg.Assistant.Model)
	} else {
		a.assistant = assistant.Noop{}
		slog.Info("assistant fallback disabled; using canned replies")
	}

	a.registry = dialogue.NewRegistry(a.newController, cfg.Dialogue.Retention)

	if cfg.MatrixEnabled() {
		a.matrix, err = matrix.New(&matrix.Config{
			Homeserver:  cfg.Matrix.Homeserver,
			UserID:      cfg.Matrix.UserID,
			AccessToken: cfg.Matrix.AccessToken,
			Rooms:       cfg.Matrix.Rooms,
			SyncState:   st,
		})
		if err != nil {
			st.Close()
			return nil, err
		}
		a.bridge = matrix.NewBridge(a.matrix, a.registry)
		if cfg.Matrix.AuditRoom != "" {
			a.notifier = audit.NewMatrixNotifier(a.matrix, cfg.Matrix.AuditRoom)
		}
	}

	if cfg.HTTPAddr != "" {
		a.api = httpapi.New(httpapi.Config{
			Addr:     cfg.HTTPAddr,
			Registry: a.registry,
			Store:    st,
			Limiter:  a.limiter,
		})
	}

	return a, nil
}

// Registry returns the conversation registry.
func (a *App) Registry() *dialogue.Registry { return a.registry }

// Run starts the transports and blocks until SIGINT or SIGTERM.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts the transports and blocks until ctx is done.
func (a *App) RunContext(ctx context.Context) error {
	if a.api != nil {
		if err := a.api.Start(ctx); err != nil {
			return fmt.Errorf("failed to start http api: %w", err)
		}
	}

	if a.matrix != nil {
		slog.Info("starting Matrix sync")
		if err := a.matrix.Start(ctx, a.bridge.Handle); err != nil {
			return fmt.Errorf("failed to start Matrix client: %w", err)
		}
	}

	go a.sweepLoop(ctx)

	slog.Info("Curio is running; press Ctrl+C to stop")
	<-ctx.Done()
	slog.Info("shutting down")
	return nil
}

// Stop waits for outstanding generations and releases every resource.
func (a *App) Stop() {
	if a.matrix != nil {
		slog.Info("stopping Matrix client")
		a.matrix.Stop()
	}
	if a.api != nil {
		a.api.Stop()
	}

	done := make(chan struct{})
	go func() {
		a.registry.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		slog.Warn("report generations still running at shutdown")
	}

	slog.Info("closing database")
	a.store.Close()
}

func (a *App) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := a.registry.Sweep(now); n > 0 {
				slog.Debug("evicted idle conversations", "count", n, "remaining", a.registry.Len())
			}
		}
	}
}

// newController builds the controller of a conversation, restoring its
// recent log from the database.
func (a *App) newController(key string) *dialogue.Controller {
	limit := a.config.Dialogue.HistoryLimit
	log := memory.NewLog(limit)
	msgs, err := a.store.ListMessages(context.Background(), key, limit)
	if err != nil {
		slog.Warn("failed to restore conversation history", "conversation", key, "err", err)
	} else if len(msgs) > 0 {
		log.Restore(msgs)
	}

	return dialogue.New(dialogue.Config{
		Key: key,
		Assembler: assembler.New(a.reports, assembler.Config{
			Timeout: a.config.ReportService.Timeout,
			Limiter: a.limiter,
			Key:     key,
		}),
		Events:      a.reports,
		Assistant:   a.assistant,
		Log:         log,
		IdleTimeout: a.config.Dialogue.IdleTimeout,
		Hooks: dialogue.Hooks{
			Record:      a.recordMessage,
			Deliver:     a.deliver,
			ReportReady: a.reportReady,
			Finished:    a.finished,
		},
	})
}

func (a *App) recordMessage(key string, m memory.Message) {
	if err := a.store.SaveMessage(context.Background(), key, m); err != nil {
		slog.Warn("failed to persist message", "conversation", key, "message_id", m.ID, "err", err)
	}
}

func (a *App) deliver(key string, m memory.Message) {
	if a.bridge != nil {
		a.bridge.Deliver(key, m)
	}
}

// reportReady keeps the generated document so the HTTP surface can serve it.
func (a *App) reportReady(key string, req report.Request, rep *report.Report) {
	doc := &store.Document{ConversationKey: key, ReportType: req.Type, Report: *rep}
	if err := a.store.SaveDocument(context.Background(), doc); err != nil {
		slog.Warn("failed to save report document", "conversation", key, "report_id", rep.ID, "err", err)
		return
	}
	slog.Info("report document saved", "conversation", key, "report_id", rep.ID, "document_id", doc.ID)
}

func (a *App) finished(key string, out assembler.Outcome) {
	ctx := context.Background()
	rec := &store.ReportRecord{
		ConversationKey: key,
		TraceID:         out.TraceID,
		Request:         out.Request,
		Status:          out.Status(),
		Duration:        out.Duration,
	}
	if out.Report != nil {
		rec.ReportID = out.Report.ID
		rec.ReportTitle = out.Report.Title
	}
	if out.Err != nil {
		rec.Error = out.Err.Error()
	}
	if err := a.store.RecordReport(ctx, rec); err != nil {
		slog.Warn("failed to record report outcome", "conversation", key, "err", err)
	}

	a.notifier.Notify(ctx, auditEvent(key, out))
}

func auditEvent(key string, out assembler.Outcome) audit.Event {
	evt := audit.Event{
		Conversation: key,
		Report:       out.Request.Type.Label(),
		TraceID:      out.TraceID,
	}
	span := out.Request.Span()
	switch {
	case out.Report != nil:
		evt.Kind = audit.KindReportGenerated
		evt.Message = fmt.Sprintf("generated %q for %s in %s", out.Report.Title, span, out.Duration.Round(time.Millisecond))
	case out.NoData:
		evt.Kind = audit.KindReportEmpty
		evt.Message = "no data for " + span
	case errors.Is(out.Err, assembler.ErrCancelled):
		evt.Kind = audit.KindReportCancelled
		evt.Message = "cancelled by the requester"
	default:
		evt.Kind = audit.KindReportFailed
		evt.Message = fmt.Sprintf("failed for %s: %v", span, out.Err)
	}
	return evt
}
