package wizard

import (
	"fmt"
	"strings"

	"charm.land/glamour/v2"
	"github.com/mark3labs/signup/internal/form"
	"github.com/mark3labs/signup/internal/tui/theme"
)

// DoneStep is the terminal screen shown after the server accepts the
// registration.
type DoneStep struct {
	summary string
	width   int
}

// NewDoneStep creates the finish screen for the submitted data.
func NewDoneStep(d form.Data) *DoneStep {
	return &DoneStep{summary: summaryMarkdown(d), width: 60}
}

// SetSize updates the width used to wrap the summary.
func (s *DoneStep) SetSize(width, _ int) {
	s.width = width
}

// View renders the step.
func (s *DoneStep) View() string {
	st := theme.Current().S()
	return st.Success.Render("✓ Registration complete") + "\n\n" +
		renderMarkdown(s.summary, s.width) + "\n\n" +
		renderHintBar("enter", "exit")
}

// summaryMarkdown lists what was registered. The password is never shown.
func summaryMarkdown(d form.Data) string {
	var b strings.Builder
	b.WriteString("## Account\n\n")
	fmt.Fprintf(&b, "- **Username:** %s\n", d.Account.Username)
	fmt.Fprintf(&b, "- **Email:** %s\n", d.Account.Email)
	b.WriteString("\n## Personal\n\n")
	fmt.Fprintf(&b, "- **Name:** %s %s\n", d.Personal.FirstName, d.Personal.LastName)
	fmt.Fprintf(&b, "- **Contact:** %s\n", d.Personal.ContactNo)
	if d.Personal.AlternateContactNo != "" {
		fmt.Fprintf(&b, "- **Alternate contact:** %s\n", d.Personal.AlternateContactNo)
	}
	b.WriteString("\n## Images\n\n")
	for _, f := range d.FileFields() {
		if f.Upload == nil {
			continue
		}
		fmt.Fprintf(&b, "- **%s:** `%s`\n", slotLabel(f.Name), f.Upload.Filename)
	}
	return b.String()
}

// renderMarkdown renders markdown using glamour.
// Falls back to the raw text if rendering fails.
func renderMarkdown(content string, width int) string {
	if width > 120 {
		width = 120
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return content
	}

	rendered, err := r.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(rendered, "\n")
}
