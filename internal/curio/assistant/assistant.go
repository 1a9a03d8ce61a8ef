// Package assistant answers chat turns the report dialogue does not
// recognize.
//
// The report engine never delegates control decisions here: the assistant
// only produces conversational text for turns that matched no report rule.
package assistant

import (
	"context"

	"github.com/museumops/curio/internal/curio/memory"
)

// Assistant produces a reply to an unmatched turn. history holds the
// conversation so far, oldest first, excluding text.
type Assistant interface {
	Reply(ctx context.Context, history []memory.Message, text string) (string, error)
}

// Fallback is the canned reply used when no model is configured or the
// model call fails.
const Fallback = "I can help you build museum reports: visitors, events, donations, " +
	"cultural objects, archives and financial summaries. Try \"visitor report\" or " +
	"\"donation list for last month\", or type \"menu\" to see all options."

// Noop always answers with Fallback.
type Noop struct{}

// Reply implements Assistant.
func (Noop) Reply(context.Context, []memory.Message, string) (string, error) {
	return Fallback, nil
}
