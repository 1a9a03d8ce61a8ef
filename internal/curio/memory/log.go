package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxMessages bounds the in-memory log when no limit is configured.
const DefaultMaxMessages = 200

// Log is a bounded, append-only message buffer. It is safe for concurrent
// use.
type Log struct {
	mu   sync.Mutex
	max  int
	msgs []Message
}

// NewLog returns a Log keeping at most max messages.
func NewLog(max int) *Log {
	if max <= 0 {
		max = DefaultMaxMessages
	}
	return &Log{max: max}
}

// Append records a message and returns it with its generated ID.
func (l *Log) Append(author Author, text string, opts []Option, now time.Time) Message {
	m := Message{
		ID:        uuid.New().String(),
		Author:    author,
		Text:      text,
		Timestamp: now,
		Options:   opts,
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msgs = append(l.msgs, m)
	if excess := len(l.msgs) - l.max; excess > 0 {
		l.msgs = l.msgs[excess:]
	}
	return m
}

// Restore replaces the buffer with previously persisted messages, keeping
// the newest ones when there are more than the limit.
func (l *Log) Restore(msgs []Message) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if excess := len(msgs) - l.max; excess > 0 {
		msgs = msgs[excess:]
	}
	l.msgs = append([]Message(nil), msgs...)
}

// Messages returns a copy of the buffer, oldest first.
func (l *Log) Messages() []Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Message, len(l.msgs))
	copy(out, l.msgs)
	return out
}

// PrecedingOptions returns the options of the latest message when that
// message is an assistant message carrying options.
func (l *Log) PrecedingOptions() []Option {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.msgs) == 0 {
		return nil
	}
	last := l.msgs[len(l.msgs)-1]
	if last.Author != AuthorAssistant {
		return nil
	}
	return last.Options
}

// FindOption searches newest-first for an option with the given ID.
func (l *Log) FindOption(id string) (Option, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := len(l.msgs) - 1; i >= 0; i-- {
		for _, o := range l.msgs[i].Options {
			if o.ID == id {
				return o, true
			}
		}
	}
	return Option{}, false
}

// Len returns the number of buffered messages.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.msgs)
}
