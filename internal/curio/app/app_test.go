package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/museumops/curio/common/spec/report"
	"github.com/museumops/curio/internal/curio/assembler"
	"github.com/museumops/curio/internal/curio/audit"
	"github.com/museumops/curio/internal/curio/config"
	"github.com/museumops/curio/internal/curio/httpapi"
)

func newReportService(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/reports/generate":
			w.Write([]byte(`{"success":true,"report":{"id":"rep-9","title":"Archive Report","report_type":"archive_analytics","start_date":"all","end_date":"all"}}`))
		case "/events":
			w.Write([]byte(`{"events":[]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestApp(t *testing.T, dbPath, serviceURL string) *App {
	t.Helper()
	cfg := config.Default()
	cfg.DatabasePath = dbPath
	cfg.ReportService.BaseURL = serviceURL
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func TestApp_PersistsConversationAndOutcome(t *testing.T) {
	svc := newReportService(t)
	dbPath := filepath.Join(t.TempDir(), "curio.db")
	a := newTestApp(t, dbPath, svc.URL)

	ctx := context.Background()
	c := a.Registry().Get(httpapi.Room, "web-1")
	c.HandleText(ctx, "archive analysis")
	c.HandleText(ctx, "all")
	a.Registry().Wait()

	recs, err := a.store.ListReports(ctx, "http:web-1", 10)
	if err != nil {
		t.Fatalf("ListReports: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected one report record, got %d", len(recs))
	}
	r := recs[0]
	if r.Status != "generated" || r.ReportID != "rep-9" || r.Request.Type != report.TypeArchiveAnalytics {
		t.Errorf("record: %+v", r)
	}
	if r.TraceID == "" {
		t.Error("record has no trace ID")
	}

	doc, err := a.store.GetDocument(ctx, "http:web-1", "rep-9")
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if doc.Report.Title != "Archive Report" || !strings.Contains(string(doc.Report.Raw), `"id":"rep-9"`) {
		t.Errorf("document: %+v", doc.Report)
	}

	msgs, err := a.store.ListMessages(ctx, "http:web-1", 0)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(msgs) != len(c.Messages()) {
		t.Errorf("persisted %d messages, log has %d", len(msgs), len(c.Messages()))
	}
	a.Stop()

	// A fresh process restores the log of a returning conversation.
	b := newTestApp(t, dbPath, svc.URL)
	defer b.Stop()
	restored := b.Registry().Get(httpapi.Room, "web-1").Messages()
	if len(restored) != len(msgs) {
		t.Fatalf("restored %d messages, want %d", len(restored), len(msgs))
	}
	if !strings.Contains(restored[len(restored)-1].Text, "is ready") {
		t.Errorf("last restored message: %q", restored[len(restored)-1].Text)
	}
}

func TestApp_RejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	if _, err := New(cfg); err == nil {
		t.Fatal("expected error without a report service URL")
	}
}

func TestRunContext_StopsOnCancel(t *testing.T) {
	svc := newReportService(t)
	a := newTestApp(t, filepath.Join(t.TempDir(), "curio.db"), svc.URL)
	a.config.HTTPAddr = "127.0.0.1:0"
	a.api = httpapi.New(httpapi.Config{Addr: a.config.HTTPAddr, Registry: a.registry, Store: a.store})
	defer a.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- a.RunContext(ctx) }()
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("RunContext: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("RunContext did not return after cancel")
	}
}

func TestAuditEvent(t *testing.T) {
	req := report.Request{Type: report.TypeDonationReport, Mode: report.ModeAll}
	tests := []struct {
		name string
		out  assembler.Outcome
		want audit.Kind
	}{
		{"generated", assembler.Outcome{Request: req, Report: &report.Report{Title: "Donations"}}, audit.KindReportGenerated},
		{"empty", assembler.Outcome{Request: req, NoData: true}, audit.KindReportEmpty},
		{"cancelled", assembler.Outcome{Request: req, Err: assembler.ErrCancelled}, audit.KindReportCancelled},
		{"failed", assembler.Outcome{Request: req, Err: assembler.ErrTimeout}, audit.KindReportFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evt := auditEvent("!room:alice", tt.out)
			if evt.Kind != tt.want {
				t.Errorf("kind: got %s, want %s", evt.Kind, tt.want)
			}
			if evt.Report != "Donation Report" || evt.Conversation != "!room:alice" {
				t.Errorf("event: %+v", evt)
			}
		})
	}
}
