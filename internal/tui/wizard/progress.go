package wizard

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/mark3labs/signup/internal/form"
	"github.com/mark3labs/signup/internal/tui/theme"
)

var allSteps = []form.Step{form.StepAccount, form.StepPersonal, form.StepImages, form.StepDone}

// renderStepIndicator renders "● Account ─ ○ Personal ─ ..." for current.
func renderStepIndicator(current form.Step) string {
	s := theme.Current().S()
	parts := make([]string, len(allSteps))
	for i, step := range allSteps {
		switch {
		case step < current:
			parts[i] = s.StepComplete.Render("✓ " + step.String())
		case step == current:
			parts[i] = s.StepActive.Render("● " + step.String())
		default:
			parts[i] = s.StepPending.Render("○ " + step.String())
		}
	}
	return strings.Join(parts, s.StepPending.Render(" ─ "))
}

// renderProgress renders a bar of width cells filled to current/4 followed
// by the "Step N - 4" label.
func renderProgress(current form.Step, width int) string {
	t := theme.Current()
	total := len(allSteps)
	label := fmt.Sprintf(" Step %d - %d", int(current), total)

	barWidth := max(4, width-lipgloss.Width(label))
	filled := barWidth * int(current) / total
	filled = min(max(filled, 0), barWidth)

	var b strings.Builder
	for i := 0; i < filled; i++ {
		pos := 0.0
		if barWidth > 1 {
			pos = float64(i) / float64(barWidth-1)
		}
		b.WriteString(lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.InterpolateColor(t.Primary, t.Secondary, pos))).
			Render("━"))
	}
	b.WriteString(lipgloss.NewStyle().
		Foreground(lipgloss.Color(t.BgSurface1)).
		Render(strings.Repeat("━", barWidth-filled)))
	b.WriteString(t.S().Muted.Render(label))
	return b.String()
}
