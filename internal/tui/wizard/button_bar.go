package wizard

import (
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/mark3labs/signup/internal/tui/theme"
)

// ButtonState represents the visual state of a button.
type ButtonState int

const (
	ButtonNormal   ButtonState = iota // Normal state (enabled)
	ButtonDisabled                    // Disabled state (grayed out)
	ButtonFocused                     // Focused/highlighted state
)

// ButtonID identifies what a button does.
type ButtonID int

const (
	ButtonNone ButtonID = iota
	ButtonCancel
	ButtonBack
	ButtonNext
	ButtonExit
)

// Button represents a single button in the button bar.
type Button struct {
	ID    ButtonID
	Label string
	State ButtonState
}

// ButtonBar manages a set of buttons with consistent styling and a
// keyboard focus cursor (-1 when the bar is not focused).
type ButtonBar struct {
	buttons []Button
	focus   int
	width   int
}

// NewButtonBar creates a new, unfocused button bar with the given buttons.
func NewButtonBar(buttons []Button) *ButtonBar {
	return &ButtonBar{
		buttons: buttons,
		focus:   -1,
		width:   60,
	}
}

// SetWidth updates the width for the button bar.
func (b *ButtonBar) SetWidth(width int) {
	b.width = width
}

// SetButtons swaps the button set, keeping focus on the same ID if present.
func (b *ButtonBar) SetButtons(buttons []Button) {
	prev := b.FocusedButton()
	b.buttons = buttons
	b.focus = -1
	if prev != ButtonNone {
		for i, btn := range buttons {
			if btn.ID == prev && btn.State != ButtonDisabled {
				b.focus = i
			}
		}
	}
}

// IsFocused reports whether a button has keyboard focus.
func (b *ButtonBar) IsFocused() bool {
	return b.focus >= 0
}

// FocusedButton returns the focused button's ID, or ButtonNone.
func (b *ButtonBar) FocusedButton() ButtonID {
	if b.focus < 0 || b.focus >= len(b.buttons) {
		return ButtonNone
	}
	return b.buttons[b.focus].ID
}

// Blur removes focus from the bar.
func (b *ButtonBar) Blur() {
	b.focus = -1
}

// FocusFirst focuses the first enabled button.
func (b *ButtonBar) FocusFirst() {
	b.focus = b.step(-1, 1)
}

// FocusLast focuses the last enabled button.
func (b *ButtonBar) FocusLast() {
	b.focus = b.step(len(b.buttons), -1)
}

// FocusNext moves focus right. It returns false when it runs off the end,
// leaving the bar blurred so the caller can focus content again.
func (b *ButtonBar) FocusNext() bool {
	b.focus = b.step(b.focus, 1)
	return b.focus >= 0
}

// FocusPrev moves focus left. It returns false when it runs off the start.
func (b *ButtonBar) FocusPrev() bool {
	b.focus = b.step(b.focus, -1)
	return b.focus >= 0
}

// step walks from i in direction dir to the next enabled button.
func (b *ButtonBar) step(i, dir int) int {
	for i += dir; i >= 0 && i < len(b.buttons); i += dir {
		if b.buttons[i].State != ButtonDisabled {
			return i
		}
	}
	return -1
}

// Render renders the button bar with proper spacing and styling.
func (b *ButtonBar) Render() string {
	if len(b.buttons) == 0 {
		return ""
	}

	s := theme.Current().S()
	rendered := make([]string, 0, len(b.buttons))
	for i, btn := range b.buttons {
		state := btn.State
		if i == b.focus && state != ButtonDisabled {
			state = ButtonFocused
		}
		switch state {
		case ButtonDisabled:
			rendered = append(rendered, s.ButtonDisabled.Render(btn.Label))
		case ButtonFocused:
			rendered = append(rendered, s.ButtonFocused.Render(btn.Label))
		default:
			rendered = append(rendered, s.ButtonNormal.Render(btn.Label))
		}
	}

	return lipgloss.PlaceHorizontal(b.width, lipgloss.Center, strings.Join(rendered, ""))
}

// StepButtons returns the buttons for a wizard step: Cancel on the first
// step, Back afterwards, and Register instead of Next on the final step.
// Everything is disabled while a submission is in flight.
func StepButtons(first, final, busy bool) []Button {
	state := ButtonNormal
	if busy {
		state = ButtonDisabled
	}

	lead := Button{ID: ButtonBack, Label: "← Back", State: state}
	if first {
		lead = Button{ID: ButtonCancel, Label: "Cancel", State: state}
	}

	next := Button{ID: ButtonNext, Label: "Next →", State: state}
	if final {
		next.Label = "Register"
	}
	return []Button{lead, next}
}

// DoneButtons returns the single Exit button of the finish screen.
func DoneButtons() []Button {
	return []Button{{ID: ButtonExit, Label: "Exit"}}
}
