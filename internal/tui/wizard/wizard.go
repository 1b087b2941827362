// Package wizard is the terminal UI for the registration form: three input
// steps, a finish screen, and the submission spinner and failure notice in
// between.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/mark3labs/signup/internal/form"
	"github.com/mark3labs/signup/internal/logger"
	"github.com/mark3labs/signup/internal/preview"
	"github.com/mark3labs/signup/internal/register"
	"github.com/mark3labs/signup/internal/tui/theme"
)

// ErrCancelled is returned by RunWizard when the user quits before the
// registration completes.
var ErrCancelled = errors.New("registration cancelled by user")

// WizardResult holds what was registered.
type WizardResult struct {
	Data form.Data
}

// WizardModel is the main BubbleTea model for the registration wizard.
// All form state lives in the controller; the step components only hold
// widget state and are read back on every submission.
type WizardModel struct {
	ctx        context.Context
	controller *form.Controller
	cancelled  bool
	width      int
	height     int

	account  *FieldStep
	personal *FieldStep
	images   *ImagesStep
	done     *DoneStep

	buttons       *ButtonBar
	spinner       spinner.Model
	failure       string // Generic failure notice; empty when hidden
	failureDetail string
	previews      *preview.Registry
}

// NewWizardModel creates a wizard that submits through sub. The image
// picker starts in startDir (cwd when empty).
func NewWizardModel(ctx context.Context, sub form.Submitter, startDir string) *WizardModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Current().Primary))

	previews := preview.NewRegistry(24, 6)

	m := &WizardModel{
		ctx:        ctx,
		controller: form.NewController(sub),
		account:    NewAccountStep(),
		personal:   NewPersonalStep(),
		images:     NewImagesStep(previews, startDir),
		buttons:    NewButtonBar(nil),
		spinner:    s,
		previews:   previews,
	}
	m.refreshButtons()
	return m
}

// RunWizard runs the wizard in its own program and returns the registered
// data, or ErrCancelled.
func RunWizard(ctx context.Context, sub form.Submitter, startDir string) (*WizardResult, error) {
	m := NewWizardModel(ctx, sub, startDir)
	defer m.previews.ReleaseAll()

	p := tea.NewProgram(m, tea.WithContext(ctx))
	finalModel, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("wizard failed: %w", err)
	}

	wizModel, ok := finalModel.(*WizardModel)
	if !ok {
		return nil, fmt.Errorf("unexpected model type")
	}
	if wizModel.cancelled || !wizModel.controller.Done() {
		return nil, ErrCancelled
	}
	return &WizardResult{Data: wizModel.controller.Data()}, nil
}

// Init focuses the first input.
func (m *WizardModel) Init() tea.Cmd {
	return m.account.Focus()
}

// Step returns the current step.
func (m *WizardModel) Step() form.Step {
	return m.controller.Step()
}

// Cancelled reports whether the user quit before finishing.
func (m *WizardModel) Cancelled() bool {
	return m.cancelled
}

// Update handles messages for the wizard.
func (m *WizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		if msg.String() == "ctrl+c" {
			return m, m.quit(true)
		}

		// The failure notice is modal.
		if m.failure != "" {
			switch msg.String() {
			case "enter", "esc", "space":
				m.failure, m.failureDetail = "", ""
			}
			return m, nil
		}

		if m.controller.Submitting() {
			return m, nil
		}

		if m.controller.Done() {
			switch msg.String() {
			case "enter", "esc", "q", "space":
				return m, m.quit(false)
			}
			return m, nil
		}

		if msg.String() == "esc" {
			if m.controller.Step() == form.StepImages && m.images.PickerOpen() {
				m.images.ClosePicker()
				return m, nil
			}
			return m, m.back()
		}

		if m.buttons.IsFocused() {
			return m, m.updateButtons(msg)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateSizes()
		return m, nil

	case TabExitForwardMsg:
		m.blurContent()
		m.buttons.FocusFirst()
		return m, nil

	case TabExitBackwardMsg:
		m.blurContent()
		m.buttons.FocusLast()
		return m, nil

	case SubmitStepMsg:
		return m, m.submit()

	case SubmissionResultMsg:
		return m, m.finish(msg.Err)

	case spinner.TickMsg:
		if !m.controller.Submitting() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case FileSelectedMsg, ImageLoadedMsg:
		// May arrive after the user has left the image step.
		return m, m.images.Update(msg)
	}

	return m, m.updateCurrentStep(msg)
}

func (m *WizardModel) updateCurrentStep(msg tea.Msg) tea.Cmd {
	switch m.controller.Step() {
	case form.StepAccount:
		return m.account.Update(msg)
	case form.StepPersonal:
		return m.personal.Update(msg)
	case form.StepImages:
		return m.images.Update(msg)
	}
	return nil
}

// updateButtons handles keys while the button bar has focus.
func (m *WizardModel) updateButtons(msg tea.KeyPressMsg) tea.Cmd {
	switch msg.String() {
	case "tab":
		if !m.buttons.FocusNext() {
			return m.focusContent(true)
		}
	case "shift+tab":
		if !m.buttons.FocusPrev() {
			return m.focusContent(false)
		}
	case "right", "l":
		if !m.buttons.FocusNext() {
			m.buttons.FocusLast()
		}
	case "left", "h":
		if !m.buttons.FocusPrev() {
			m.buttons.FocusFirst()
		}
	case "enter", "space":
		return m.activate(m.buttons.FocusedButton())
	}
	return nil
}

func (m *WizardModel) activate(id ButtonID) tea.Cmd {
	switch id {
	case ButtonCancel:
		return m.quit(true)
	case ButtonBack:
		return m.back()
	case ButtonNext:
		return m.submit()
	case ButtonExit:
		return m.quit(false)
	}
	return nil
}

// collect reads the current widget values of every step.
func (m *WizardModel) collect() form.Data {
	return form.Data{
		Account: form.Credentials{
			Email:                m.account.Value(form.FieldEmail),
			Username:             m.account.Value(form.FieldUsername),
			Password:             m.account.Value(form.FieldPassword),
			PasswordConfirmation: m.account.Value(form.FieldPasswordConfirmation),
		},
		Personal: form.PersonalInfo{
			FirstName:          m.personal.Value(form.FieldFirstName),
			LastName:           m.personal.Value(form.FieldLastName),
			ContactNo:          m.personal.Value(form.FieldContactNo),
			AlternateContactNo: m.personal.Value(form.FieldAlternateContactNo),
		},
		Images: m.images.Images(),
	}
}

// submit submits the current step. On the final step the network call runs
// as a command and reports back with SubmissionResultMsg.
func (m *WizardModel) submit() tea.Cmd {
	out, sub := m.controller.Begin(m.collect())
	m.applyErrors(out.Errors)

	switch out.Kind {
	case form.OutcomeAdvanced:
		logger.Debug("Advanced to step %d", out.Step)
		return m.enterStep()

	case form.OutcomeInvalid:
		logger.Debug("Step %d invalid: %v", out.Step, out.Err)
		m.refreshButtons()
		return m.focusFirstError()

	case form.OutcomePending:
		m.blurContent()
		m.refreshButtons()
		ctx := m.ctx
		return tea.Batch(m.spinner.Tick, func() tea.Msg {
			return SubmissionResultMsg{Err: sub.Run(ctx)}
		})
	}
	return nil
}

// finish applies the result of the network call.
func (m *WizardModel) finish(err error) tea.Cmd {
	out := m.controller.Finish(err)
	m.applyErrors(out.Errors)

	switch out.Kind {
	case form.OutcomeCompleted:
		m.done = NewDoneStep(m.controller.Data())
		m.images.Detach()
		m.previews.ReleaseAll()
		m.updateSizes()
		m.refreshButtons()
		m.buttons.FocusFirst()
		return nil

	case form.OutcomeRejected:
		m.refreshButtons()
		return m.focusFirstError()

	case form.OutcomeFailed:
		logger.Error("Registration failed: %v", err)
		m.failure = form.GenericFailureMessage
		m.failureDetail = describeFailure(err)
		m.refreshButtons()
		return m.focusContent(true)
	}
	return nil
}

// back goes to the previous step, or cancels on the first one.
func (m *WizardModel) back() tea.Cmd {
	if m.controller.Step() == form.StepAccount {
		return m.quit(true)
	}
	m.controller.Update(m.collect())
	m.controller.Previous()
	return m.enterStep()
}

// enterStep resets focus and buttons after a step change.
func (m *WizardModel) enterStep() tea.Cmd {
	m.buttons.Blur()
	m.refreshButtons()
	m.updateSizes()
	return m.focusContent(true)
}

func (m *WizardModel) quit(cancelled bool) tea.Cmd {
	m.cancelled = cancelled
	m.images.Detach()
	m.previews.ReleaseAll()
	return tea.Quit
}

func (m *WizardModel) applyErrors(errs form.FieldErrors) {
	m.account.SetErrors(errs)
	m.personal.SetErrors(errs)
	m.images.SetErrors(errs)
}

// focusFirstError focuses the first errored field on the current step,
// or the first field when the errors belong to other steps.
func (m *WizardModel) focusFirstError() tea.Cmd {
	m.buttons.Blur()
	for _, f := range m.fieldOrder() {
		if !m.controller.Errors().Has(f) || form.StepOf(f) != m.controller.Step() {
			continue
		}
		m.blurContent()
		switch m.controller.Step() {
		case form.StepAccount:
			return m.account.FocusField(f)
		case form.StepPersonal:
			return m.personal.FocusField(f)
		case form.StepImages:
			return m.images.FocusField(f)
		}
	}
	return m.focusContent(true)
}

func (m *WizardModel) fieldOrder() []string {
	var names []string
	d := m.controller.Data()
	for _, f := range d.TextFields() {
		names = append(names, f.Name)
	}
	for _, f := range d.FileFields() {
		names = append(names, f.Name)
	}
	return names
}

func (m *WizardModel) focusContent(first bool) tea.Cmd {
	m.buttons.Blur()
	m.blurContent()
	switch m.controller.Step() {
	case form.StepAccount:
		if first {
			return m.account.Focus()
		}
		return m.account.FocusLast()
	case form.StepPersonal:
		if first {
			return m.personal.Focus()
		}
		return m.personal.FocusLast()
	case form.StepImages:
		if first {
			return m.images.Focus()
		}
		return m.images.FocusLast()
	}
	return nil
}

func (m *WizardModel) blurContent() {
	m.account.Blur()
	m.personal.Blur()
	m.images.Blur()
}

func (m *WizardModel) refreshButtons() {
	step := m.controller.Step()
	if step == form.StepDone {
		m.buttons.SetButtons(DoneButtons())
		return
	}
	m.buttons.SetButtons(StepButtons(step == form.StepAccount, step == form.StepImages, m.controller.Submitting()))
}

// updateSizes propagates the modal's content size to every step.
func (m *WizardModel) updateSizes() {
	contentWidth := max(40, m.modalWidth()-8)
	contentHeight := max(10, m.height-14)

	m.account.SetSize(contentWidth, contentHeight)
	m.personal.SetSize(contentWidth, contentHeight)
	m.images.SetSize(contentWidth, contentHeight)
	if m.done != nil {
		m.done.SetSize(contentWidth, contentHeight)
	}
	m.buttons.SetWidth(contentWidth)
}

func (m *WizardModel) modalWidth() int {
	return min(max(m.width-10, 60), 100)
}

// View renders the wizard UI.
func (m *WizardModel) View() tea.View {
	var view tea.View
	view.AltScreen = true

	canvas := uv.NewScreenBuffer(m.width, m.height)
	uv.NewStyledString(m.render()).Draw(canvas, uv.Rectangle{
		Min: uv.Position{X: 0, Y: 0},
		Max: uv.Position{X: m.width, Y: m.height},
	})

	if m.failure != "" {
		modal := m.renderFailure()
		w, h := lipgloss.Width(modal), lipgloss.Height(modal)
		x, y := max(0, (m.width-w)/2), max(0, (m.height-h)/2)
		uv.NewStyledString(modal).Draw(canvas, uv.Rectangle{
			Min: uv.Position{X: x, Y: y},
			Max: uv.Position{X: x + w, Y: y + h},
		})
	}

	view.Content = lipgloss.NewLayer(canvas.Render())
	return view
}

// render lays out the modal for the current step, centered on screen.
func (m *WizardModel) render() string {
	s := theme.Current().S()
	step := m.controller.Step()
	width := m.modalWidth()
	inner := width - 8

	var sections []string
	sections = append(sections, s.ModalTitle.Render("Create Account"))
	sections = append(sections, renderStepIndicator(step))
	sections = append(sections, renderProgress(step, inner))
	sections = append(sections, "")
	sections = append(sections, m.stepView())

	if other := m.otherStepErrors(); other != "" {
		sections = append(sections, "", other)
	}

	sections = append(sections, "")
	if m.controller.Submitting() {
		sections = append(sections, m.spinner.View()+" "+s.Muted.Render("Registering..."))
	} else {
		sections = append(sections, m.buttons.Render())
	}
	if hints := m.hints(); hints != "" {
		sections = append(sections, "", hints)
	}

	modal := s.ModalContainer.Width(width).Render(strings.Join(sections, "\n"))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
}

func (m *WizardModel) stepView() string {
	switch m.controller.Step() {
	case form.StepAccount:
		return m.account.View()
	case form.StepPersonal:
		return m.personal.View()
	case form.StepImages:
		return m.images.View()
	case form.StepDone:
		if m.done != nil {
			return m.done.View()
		}
	}
	return ""
}

// otherStepErrors lists server errors for fields that are not on the
// current step, so the user knows to go back.
func (m *WizardModel) otherStepErrors() string {
	errs := m.controller.Errors()
	step := m.controller.Step()

	var lines []string
	for _, f := range m.fieldOrder() {
		if !errs.Has(f) || form.StepOf(f) == step {
			continue
		}
		for _, msg := range errs[f] {
			lines = append(lines, fmt.Sprintf("%s step: %s", form.StepOf(f), msg))
		}
	}
	// Unknown fields have no step to go back to.
	for _, f := range errs.Fields() {
		if form.StepOf(f) == 0 {
			for _, msg := range errs[f] {
				lines = append(lines, fmt.Sprintf("%s: %s", f, msg))
			}
		}
	}
	if len(lines) == 0 {
		return ""
	}
	return renderFieldErrors(lines)
}

func (m *WizardModel) hints() string {
	step := m.controller.Step()
	switch {
	case m.controller.Submitting():
		return renderHintBar("ctrl+c", "quit")
	case step == form.StepDone:
		return ""
	case step == form.StepImages && m.images.PickerOpen():
		return ""
	case m.buttons.IsFocused():
		return renderHintBar("tab/←→", "move", "enter", "press", "esc", backLabel(step))
	case step == form.StepImages:
		return renderHintBar("tab", "next", "enter", "choose file", "x", "clear", "esc", backLabel(step))
	default:
		return renderHintBar("tab", "next", "enter", "submit", "esc", backLabel(step))
	}
}

func backLabel(step form.Step) string {
	if step == form.StepAccount {
		return "cancel"
	}
	return "back"
}

func (m *WizardModel) renderFailure() string {
	t := theme.Current()
	s := t.S()

	body := []string{
		s.FieldError.Bold(true).Render("✗ " + m.failure),
	}
	if m.failureDetail != "" {
		body = append(body, "", s.Muted.Render(m.failureDetail))
	}
	body = append(body, "", renderHintBar("enter", "dismiss"))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(t.Error)).
		Background(lipgloss.Color(t.BgBase)).
		Padding(1, 2).
		Width(min(60, max(30, m.width-4))).
		Render(strings.Join(body, "\n"))
}

// describeFailure turns an unstructured failure into one line for the
// failure notice.
func describeFailure(err error) string {
	var ure *register.UnexpectedResponseError
	switch {
	case register.IsTimeout(err):
		return "The server did not respond in time. Try again."
	case errors.As(err, &ure):
		return fmt.Sprintf("The server answered HTTP %d.", ure.StatusCode)
	case err != nil:
		return err.Error()
	}
	return ""
}

// SubmissionResultMsg carries the result of the registration request.
type SubmissionResultMsg struct {
	Err error
}
