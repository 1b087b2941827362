package theme

import "charm.land/lipgloss/v2"

// Styles contains all pre-built lipgloss styles for the TUI.
type Styles struct {
	HeaderTitle lipgloss.Style

	ModalContainer lipgloss.Style
	ModalTitle     lipgloss.Style

	// Form fields
	Label        lipgloss.Style
	LabelFocused lipgloss.Style
	FieldError   lipgloss.Style
	Muted        lipgloss.Style
	Success      lipgloss.Style

	// Hint bar
	HintKey       lipgloss.Style
	HintDesc      lipgloss.Style
	HintSeparator lipgloss.Style

	// Buttons
	ButtonNormal   lipgloss.Style
	ButtonDisabled lipgloss.Style
	ButtonFocused  lipgloss.Style

	// Step indicator
	StepActive   lipgloss.Style
	StepComplete lipgloss.Style
	StepPending  lipgloss.Style
}
