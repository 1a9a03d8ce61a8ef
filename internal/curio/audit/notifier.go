// Package audit posts report-generation notices to a Matrix audit room.
//
// When CURIO_AUDIT_ROOM is configured, every generation outcome is summarized
// in that room so back-office staff can follow report activity without
// querying the report_requests table.
//
// Every notice carries the trace ID of the originating chat turn; the same ID
// is stored with the report_requests row and sent to the report service as
// X-Trace-ID.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/museumops/curio/common/trace"
)

// Kind is a machine-readable event category.
type Kind string

const (
	KindReportGenerated Kind = "report.generated"
	KindReportEmpty     Kind = "report.empty"
	KindReportFailed    Kind = "report.failed"
	KindReportCancelled Kind = "report.cancelled"
)

// Event carries the data that the notifier formats and sends.
type Event struct {
	Kind Kind
	// Conversation is the conversation key (room and sender).
	Conversation string
	// Report names the report, e.g. "Cultural Objects Report".
	Report string
	// Message is a human-friendly description of what happened.
	Message string
	// TraceID defaults to the trace ID found in the context.
	TraceID string
	// Timestamp defaults to time.Now().
	Timestamp time.Time
}

// Notifier sends audit notices. Implementations log send failures instead
// of returning them.
type Notifier interface {
	Notify(ctx context.Context, evt Event)
}

// Sender is the subset of the Matrix client needed by MatrixNotifier.
type Sender interface {
	SendNotice(roomID, message string) error
}

// MatrixNotifier posts formatted notices to a Matrix audit room.
type MatrixNotifier struct {
	sender Sender
	roomID string
}

// NewMatrixNotifier creates a MatrixNotifier that posts to roomID via sender.
func NewMatrixNotifier(sender Sender, roomID string) *MatrixNotifier {
	return &MatrixNotifier{sender: sender, roomID: roomID}
}

// Notify formats evt and posts it to the audit room.
func (n *MatrixNotifier) Notify(ctx context.Context, evt Event) {
	if n.roomID == "" {
		return
	}
	if evt.TraceID == "" {
		evt.TraceID = trace.FromContext(ctx)
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}

	if err := n.sender.SendNotice(n.roomID, Format(evt)); err != nil {
		slog.Warn("audit notifier: failed to send room notice",
			"room", n.roomID, "kind", evt.Kind, "err", err)
		return
	}
	slog.Debug("audit notifier: sent notice", "room", n.roomID, "kind", evt.Kind)
}

// Format renders evt as a plain-text notice.
func Format(evt Event) string {
	msg := fmt.Sprintf("%s [%s] %s", kindIcon(evt.Kind), evt.Kind, evt.Message)
	if evt.Report != "" {
		msg = fmt.Sprintf("%s %s: %s", kindIcon(evt.Kind), evt.Report, evt.Message)
	}
	if evt.Conversation != "" {
		msg += "\n  conversation: " + evt.Conversation
	}
	if evt.TraceID != "" {
		msg += "\n  trace: " + evt.TraceID
	}
	return msg
}

// Noop is the Notifier used when no audit room is configured.
type Noop struct{}

// Notify does nothing.
func (Noop) Notify(context.Context, Event) {}

func kindIcon(k Kind) string {
	switch k {
	case KindReportGenerated:
		return "📄"
	case KindReportEmpty:
		return "🔍"
	case KindReportCancelled:
		return "⏹️"
	case KindReportFailed:
		return "❌"
	default:
		return "ℹ️"
	}
}
