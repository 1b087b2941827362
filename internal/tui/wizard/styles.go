package wizard

import (
	"strings"

	"github.com/mark3labs/signup/internal/tui/theme"
)

// renderHintBar renders a hint bar with the given key-description pairs.
// Example: renderHintBar("tab", "next", "enter", "submit", "esc", "back")
// Returns: "tab next • enter submit • esc back"
func renderHintBar(pairs ...string) string {
	if len(pairs) == 0 || len(pairs)%2 != 0 {
		return ""
	}

	s := theme.Current().S()
	var b strings.Builder
	for i := 0; i < len(pairs); i += 2 {
		if i > 0 {
			b.WriteString(" " + s.HintSeparator.Render("•") + " ")
		}
		b.WriteString(s.HintKey.Render(pairs[i]) + " " + s.HintDesc.Render(pairs[i+1]))
	}
	return b.String()
}

// renderFieldErrors renders every message for one field, one per line.
func renderFieldErrors(msgs []string) string {
	if len(msgs) == 0 {
		return ""
	}
	s := theme.Current().S()
	lines := make([]string, len(msgs))
	for i, msg := range msgs {
		lines[i] = s.FieldError.Render("✗ " + msg)
	}
	return strings.Join(lines, "\n")
}
