// Package memory holds the append-only chat log of a report conversation.
//
// The log is bounded: once MaxMessages is exceeded the oldest entries are
// dropped. Durable history lives in the store; this buffer only serves the
// dialogue controller, which looks back at the most recent assistant message
// to interpret short replies against the options it offered.
package memory

import (
	"strconv"
	"strings"
	"time"
)

// Author identifies who wrote a message.
type Author string

const (
	AuthorUser      Author = "user"
	AuthorAssistant Author = "assistant"
)

// Option is a clickable choice attached to an assistant message.
type Option struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Action string `json:"action"`
	Value  string `json:"value,omitempty"`
}

// NewOption builds an option whose ID is derived from action and value, so
// the same choice keeps the same ID across messages.
func NewOption(label, action, value string) Option {
	id := action
	if value != "" {
		id += ":" + value
	}
	return Option{ID: id, Label: label, Action: action, Value: value}
}

// Message is one entry of the conversation log.
type Message struct {
	ID        string    `json:"id"`
	Author    Author    `json:"author"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Options   []Option  `json:"options,omitempty"`
}

// MatchOption maps a short reply onto one of opts: an exact label match
// (case-insensitive) or a 1-based index.
func MatchOption(reply string, opts []Option) (Option, bool) {
	r := strings.ToLower(strings.TrimSpace(reply))
	r = strings.TrimRight(r, ".!")
	if r == "" || len(opts) == 0 {
		return Option{}, false
	}
	if n, err := strconv.Atoi(r); err == nil {
		if n >= 1 && n <= len(opts) {
			return opts[n-1], true
		}
		return Option{}, false
	}
	for _, o := range opts {
		if strings.ToLower(o.Label) == r {
			return o, true
		}
	}
	return Option{}, false
}
