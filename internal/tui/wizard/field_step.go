package wizard

import (
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/mark3labs/signup/internal/form"
	"github.com/mark3labs/signup/internal/tui/theme"
)

// fieldDef describes one text input on a step.
type fieldDef struct {
	name        string // Wire name, used to look up field errors
	label       string
	placeholder string
	secret      bool // Echo as password
	optional    bool
}

var accountFields = []fieldDef{
	{name: form.FieldEmail, label: "Email", placeholder: "you@example.com"},
	{name: form.FieldUsername, label: "Username", placeholder: "username"},
	{name: form.FieldPassword, label: "Password", placeholder: "password", secret: true},
	{name: form.FieldPasswordConfirmation, label: "Confirm Password", placeholder: "password again", secret: true},
}

var personalFields = []fieldDef{
	{name: form.FieldFirstName, label: "First Name", placeholder: "First name"},
	{name: form.FieldLastName, label: "Last Name", placeholder: "Last name"},
	{name: form.FieldContactNo, label: "Contact Number", placeholder: "Contact number"},
	{name: form.FieldAlternateContactNo, label: "Alternate Contact Number", placeholder: "Optional", optional: true},
}

// FieldStep is a page of labelled text inputs. It is used for the Account
// and Personal steps.
type FieldStep struct {
	defs       []fieldDef
	inputs     []textinput.Model
	focusIndex int // -1 when the step is blurred
	errors     form.FieldErrors
	width      int
	height     int
}

// NewFieldStep creates a step with one input per field.
func NewFieldStep(defs []fieldDef) *FieldStep {
	t := theme.Current()
	styles := textinput.Styles{
		Focused: textinput.StyleState{
			Text:        lipgloss.NewStyle().Foreground(lipgloss.Color(t.FgBase)),
			Placeholder: lipgloss.NewStyle().Foreground(lipgloss.Color(t.FgMuted)),
			Prompt:      lipgloss.NewStyle().Foreground(lipgloss.Color(t.Secondary)),
		},
		Blurred: textinput.StyleState{
			Text:        lipgloss.NewStyle().Foreground(lipgloss.Color(t.FgSubtle)),
			Placeholder: lipgloss.NewStyle().Foreground(lipgloss.Color(t.FgMuted)),
			Prompt:      lipgloss.NewStyle().Foreground(lipgloss.Color(t.FgMuted)),
		},
		Cursor: textinput.CursorStyle{
			Color: lipgloss.Color(t.Primary),
			Shape: tea.CursorBar,
			Blink: true,
		},
	}

	inputs := make([]textinput.Model, len(defs))
	for i, def := range defs {
		in := textinput.New()
		in.Placeholder = def.placeholder
		in.Prompt = "› "
		in.SetStyles(styles)
		in.SetWidth(50)
		if def.secret {
			in.EchoMode = textinput.EchoPassword
			in.EchoCharacter = '•'
		}
		inputs[i] = in
	}

	return &FieldStep{
		defs:       defs,
		inputs:     inputs,
		focusIndex: -1,
		errors:     form.FieldErrors{},
		width:      60,
		height:     10,
	}
}

// NewAccountStep creates the credentials step.
func NewAccountStep() *FieldStep {
	return NewFieldStep(accountFields)
}

// NewPersonalStep creates the personal information step.
func NewPersonalStep() *FieldStep {
	return NewFieldStep(personalFields)
}

// Focus focuses the first input.
func (s *FieldStep) Focus() tea.Cmd {
	return s.focusAt(0)
}

// FocusLast focuses the last input.
func (s *FieldStep) FocusLast() tea.Cmd {
	return s.focusAt(len(s.inputs) - 1)
}

// FocusField focuses the input for a wire field name, if this step has it.
func (s *FieldStep) FocusField(name string) tea.Cmd {
	for i, def := range s.defs {
		if def.name == name {
			return s.focusAt(i)
		}
	}
	return nil
}

// Blur removes focus from all inputs.
func (s *FieldStep) Blur() {
	s.focusIndex = -1
	for i := range s.inputs {
		s.inputs[i].Blur()
	}
}

// Focused returns the focused field's wire name, or "".
func (s *FieldStep) Focused() string {
	if s.focusIndex < 0 {
		return ""
	}
	return s.defs[s.focusIndex].name
}

func (s *FieldStep) focusAt(i int) tea.Cmd {
	s.Blur()
	if i < 0 || i >= len(s.inputs) {
		return nil
	}
	s.focusIndex = i
	return s.inputs[i].Focus()
}

// SetSize updates the dimensions for the step.
func (s *FieldStep) SetSize(width, height int) {
	s.width = width
	s.height = height
	for i := range s.inputs {
		s.inputs[i].SetWidth(max(10, width-6))
	}
}

// SetErrors replaces the displayed field errors.
func (s *FieldStep) SetErrors(errs form.FieldErrors) {
	s.errors = errs
}

// Value returns the current value of a field.
func (s *FieldStep) Value(name string) string {
	for i, def := range s.defs {
		if def.name == name {
			return s.inputs[i].Value()
		}
	}
	return ""
}

// SetValue sets a field's value.
func (s *FieldStep) SetValue(name, value string) {
	for i, def := range s.defs {
		if def.name == name {
			s.inputs[i].SetValue(value)
			return
		}
	}
}

// Update handles messages for the step.
func (s *FieldStep) Update(msg tea.Msg) tea.Cmd {
	if keyMsg, ok := msg.(tea.KeyPressMsg); ok {
		switch keyMsg.String() {
		case "tab", "down":
			if s.focusIndex >= len(s.inputs)-1 {
				return func() tea.Msg { return TabExitForwardMsg{} }
			}
			return s.focusAt(s.focusIndex + 1)

		case "shift+tab", "up":
			if s.focusIndex <= 0 {
				return func() tea.Msg { return TabExitBackwardMsg{} }
			}
			return s.focusAt(s.focusIndex - 1)

		case "enter":
			// Enter on the last input submits; elsewhere it moves on.
			if s.focusIndex >= len(s.inputs)-1 {
				return func() tea.Msg { return SubmitStepMsg{} }
			}
			return s.focusAt(s.focusIndex + 1)
		}
	}

	if s.focusIndex < 0 {
		return nil
	}
	var cmd tea.Cmd
	s.inputs[s.focusIndex], cmd = s.inputs[s.focusIndex].Update(msg)
	return cmd
}

// View renders the step.
func (s *FieldStep) View() string {
	st := theme.Current().S()
	var b strings.Builder

	for i, def := range s.defs {
		label := def.label
		if def.optional {
			label += " (optional)"
		}
		if i == s.focusIndex {
			b.WriteString(st.LabelFocused.Render(label))
		} else {
			b.WriteString(st.Label.Render(label))
		}
		b.WriteString("\n")
		b.WriteString(s.inputs[i].View())
		b.WriteString("\n")
		if msgs := s.errors[def.name]; len(msgs) > 0 {
			b.WriteString(renderFieldErrors(msgs))
			b.WriteString("\n")
		}
		if i < len(s.defs)-1 {
			b.WriteString("\n")
		}
	}

	return b.String()
}

// TabExitForwardMsg is sent when Tab is pressed on the last input.
// Parent should move focus to buttons.
type TabExitForwardMsg struct{}

// TabExitBackwardMsg is sent when Shift+Tab is pressed on the first input.
// Parent should move focus to buttons (from end).
type TabExitBackwardMsg struct{}

// SubmitStepMsg asks the wizard to submit the current step.
type SubmitStepMsg struct{}
