package matrix

import (
	"fmt"
	"html"
	"strings"

	"github.com/museumops/curio/internal/curio/memory"
)

// Render formats an assistant message for Matrix. Options become a numbered
// list; replying with the number or the label picks the option.
func Render(m memory.Message) (plain, formatted string) {
	if len(m.Options) == 0 {
		return m.Text, ""
	}

	var p, h strings.Builder
	p.WriteString(m.Text)
	h.WriteString(html.EscapeString(m.Text))
	h.WriteString("<ol>")
	for i, o := range m.Options {
		fmt.Fprintf(&p, "\n  %d. %s", i+1, o.Label)
		fmt.Fprintf(&h, "<li>%s</li>", html.EscapeString(o.Label))
	}
	h.WriteString("</ol>")
	p.WriteString("\nReply with a number or an option name.")
	h.WriteString("<em>Reply with a number or an option name.</em>")
	return p.String(), h.String()
}
