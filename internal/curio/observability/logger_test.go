package observability_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/museumops/curio/common/trace"
	"github.com/museumops/curio/internal/curio/observability"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"loud":  slog.LevelInfo,
	}
	for in, want := range cases {
		if got := observability.ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewLogger_JSONWithTrace(t *testing.T) {
	var buf bytes.Buffer
	logger := observability.NewLogger(&buf, "info", "json")
	ctx := trace.WithTraceID(context.Background(), "t_123")

	observability.WithTrace(ctx, logger).Info("report requested", "report_type", "archive_analytics")
	observability.WithTrace(ctx, logger).Debug("hidden")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %q", buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("not JSON: %v", err)
	}
	if rec["trace_id"] != "t_123" || rec["report_type"] != "archive_analytics" {
		t.Errorf("got %v", rec)
	}
}

func TestNewLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	observability.NewLogger(&buf, "debug", "text").Debug("hello", "k", "v")
	if !strings.Contains(buf.String(), "k=v") {
		t.Errorf("got %q", buf.String())
	}
}
