package audit_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/museumops/curio/common/trace"
	"github.com/museumops/curio/internal/curio/audit"
)

// fakeSender records notices for assertion.
type fakeSender struct {
	notices []string
	err     error
}

func (f *fakeSender) SendNotice(_, msg string) error {
	f.notices = append(f.notices, msg)
	return f.err
}

func TestMatrixNotifier_SendsNotice(t *testing.T) {
	sender := &fakeSender{}
	n := audit.NewMatrixNotifier(sender, "!audit:example.com")

	n.Notify(context.Background(), audit.Event{
		Kind:         audit.KindReportGenerated,
		Conversation: "!desk:example.com:@alice:example.com",
		Report:       "Cultural Objects Report",
		Message:      "generated for 2024-03-01 to 2024-03-31",
		TraceID:      "t_abc123",
	})

	if len(sender.notices) != 1 {
		t.Fatalf("expected 1 notice, got %d", len(sender.notices))
	}
	msg := sender.notices[0]
	for _, want := range []string{"Cultural Objects Report", "2024-03-01", "t_abc123", "@alice:example.com"} {
		if !strings.Contains(msg, want) {
			t.Errorf("notice missing %q: %q", want, msg)
		}
	}
}

func TestMatrixNotifier_TraceFromContext(t *testing.T) {
	sender := &fakeSender{}
	n := audit.NewMatrixNotifier(sender, "!audit:example.com")
	ctx := trace.WithTraceID(context.Background(), "t_fromctx")

	n.Notify(ctx, audit.Event{Kind: audit.KindReportFailed, Message: "service unavailable"})
	if len(sender.notices) != 1 || !strings.Contains(sender.notices[0], "t_fromctx") {
		t.Errorf("got %q", sender.notices)
	}
}

func TestMatrixNotifier_NoopWhenEmptyRoom(t *testing.T) {
	sender := &fakeSender{}
	n := audit.NewMatrixNotifier(sender, "")
	n.Notify(context.Background(), audit.Event{Kind: audit.KindReportEmpty, Message: "no data"})
	if len(sender.notices) != 0 {
		t.Fatalf("expected no notices for empty room, got %d", len(sender.notices))
	}
}

func TestMatrixNotifier_SendErrorIsSwallowed(t *testing.T) {
	sender := &fakeSender{err: errors.New("M_FORBIDDEN")}
	n := audit.NewMatrixNotifier(sender, "!audit:example.com")
	// Must not panic.
	n.Notify(context.Background(), audit.Event{Kind: audit.KindReportCancelled, Message: "cancelled"})
}

func TestNoop(t *testing.T) {
	// Must not panic.
	audit.Noop{}.Notify(context.Background(), audit.Event{Kind: audit.KindReportFailed, Message: "boom"})
}
