package matrix_test

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"maunium.net/go/mautrix/id"

	"github.com/museumops/curio/common/spec/report"
	"github.com/museumops/curio/internal/curio/assembler"
	"github.com/museumops/curio/internal/curio/dialogue"
	"github.com/museumops/curio/internal/curio/matrix"
	"github.com/museumops/curio/internal/curio/memory"
	"github.com/museumops/curio/internal/curio/store"
)

type sent struct {
	room, plain, html string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sent
}

func (f *fakeSender) SendMessage(roomID, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sent{room: roomID, plain: message})
	return nil
}

func (f *fakeSender) SendFormattedMessage(roomID, html, plaintext string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sent{room: roomID, plain: plaintext, html: html})
	return nil
}

func (f *fakeSender) SetTyping(string, bool, time.Duration) error { return nil }

func (f *fakeSender) all() []sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sent(nil), f.sent...)
}

type okGenerator struct{}

func (okGenerator) Generate(context.Context, report.Request) (*report.GenerateResponse, error) {
	return &report.GenerateResponse{Success: true, Report: &report.Report{ID: "1", Title: "Archive"}}, nil
}

func TestBridge_RoutesAndDelivers(t *testing.T) {
	sender := &fakeSender{}
	var bridge *matrix.Bridge
	reg := dialogue.NewRegistry(func(key string) *dialogue.Controller {
		return dialogue.New(dialogue.Config{
			Key:       key,
			Assembler: assembler.New(okGenerator{}, assembler.Config{Key: key}),
			Hooks:     dialogue.Hooks{Deliver: func(k string, m memory.Message) { bridge.Deliver(k, m) }},
		})
	}, 0)
	bridge = matrix.NewBridge(sender, reg)

	ctx := context.Background()
	bridge.Handle(ctx, "!desk:museum.org", "@alice:museum.org", "archive analysis")
	got := sender.all()
	if len(got) != 1 || got[0].room != "!desk:museum.org" || got[0].html == "" {
		t.Fatalf("expected one formatted card, got %+v", got)
	}
	if !strings.Contains(got[0].plain, "1. All available data") {
		t.Errorf("options not numbered: %q", got[0].plain)
	}

	bridge.Handle(ctx, "!desk:museum.org", "@alice:museum.org", "1")
	reg.Wait()

	got = sender.all()
	if len(got) != 3 {
		t.Fatalf("expected ack and delivery, got %d messages: %+v", len(got), got)
	}
	if !strings.Contains(got[2].plain, "is ready") {
		t.Errorf("delivery: got %q", got[2].plain)
	}

	// Separate senders in the same room get separate conversations.
	bridge.Handle(ctx, "!desk:museum.org", "@bob:museum.org", "hello")
	if reg.Len() != 2 {
		t.Errorf("conversations: got %d", reg.Len())
	}
}

func TestBridge_DeliverUnknownConversation(t *testing.T) {
	sender := &fakeSender{}
	bridge := matrix.NewBridge(sender, dialogue.NewRegistry(nil, 0))
	bridge.Deliver("http:web-1", memory.Message{Text: "ready"})
	if len(sender.all()) != 0 {
		t.Error("delivered to a conversation the bridge never saw")
	}
}

func TestRender(t *testing.T) {
	plain, html := matrix.Render(memory.Message{Text: "hello <b>"})
	if plain != "hello <b>" || html != "" {
		t.Errorf("plain message: %q %q", plain, html)
	}

	plain, html = matrix.Render(memory.Message{
		Text:    "Graph or list?",
		Options: []memory.Option{{Label: "Graph"}, {Label: "List"}},
	})
	if !strings.Contains(plain, "1. Graph") || !strings.Contains(plain, "2. List") {
		t.Errorf("plain: %q", plain)
	}
	if !strings.Contains(html, "<ol><li>Graph</li><li>List</li></ol>") {
		t.Errorf("html: %q", html)
	}
}

func TestSyncPosition(t *testing.T) {
	s, err := store.New(filepath.Join(t.TempDir(), "sync.db"))
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	ss := matrix.NewSyncPosition(s)
	user := id.UserID("@curio:museum.org")

	if tok, err := ss.LoadNextBatch(ctx, user); err != nil || tok != "" {
		t.Fatalf("first run: %q %v", tok, err)
	}
	if err := ss.SaveNextBatch(ctx, user, "s1"); err != nil {
		t.Fatalf("SaveNextBatch: %v", err)
	}
	if err := ss.SaveNextBatch(ctx, user, "s2"); err != nil {
		t.Fatalf("SaveNextBatch: %v", err)
	}
	if tok, _ := ss.LoadNextBatch(ctx, user); tok != "s2" {
		t.Errorf("next batch: got %q", tok)
	}
	if err := ss.SaveFilterID(ctx, user, "f1"); err != nil {
		t.Fatalf("SaveFilterID: %v", err)
	}
	if f, _ := ss.LoadFilterID(ctx, user); f != "f1" {
		t.Errorf("filter: got %q", f)
	}
}
