package wizard

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"path/filepath"
	"sync"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/x/ansi"
	"github.com/mark3labs/signup/internal/form"
	"github.com/mark3labs/signup/internal/register"
	"github.com/stretchr/testify/require"
)

type fakeSubmitter struct {
	mu      sync.Mutex
	calls   []form.Data
	results []error
}

func (f *fakeSubmitter) Submit(_ context.Context, d form.Data) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, d)
	if len(f.results) == 0 {
		return nil
	}
	err := f.results[0]
	f.results = f.results[1:]
	return err
}

func (f *fakeSubmitter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

var (
	keyTab      = tea.KeyPressMsg{Code: tea.KeyTab}
	keyShiftTab = tea.KeyPressMsg{Code: tea.KeyTab, Mod: tea.ModShift}
	keyEnter    = tea.KeyPressMsg{Code: tea.KeyEnter}
	keyEsc      = tea.KeyPressMsg{Code: tea.KeyEscape}
)

func pngUpload(t *testing.T, name string) *form.Upload {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return &form.Upload{Filename: name, ContentType: "image/png", Content: buf.Bytes()}
}

func newTestWizard(t *testing.T, sub form.Submitter) *WizardModel {
	t.Helper()
	m := NewWizardModel(context.Background(), sub, t.TempDir())
	_ = m.Init()
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 60})
	return m
}

func fillAccount(m *WizardModel) {
	m.account.SetValue(form.FieldEmail, "ada@example.com")
	m.account.SetValue(form.FieldUsername, "ada")
	m.account.SetValue(form.FieldPassword, "s3cret")
	m.account.SetValue(form.FieldPasswordConfirmation, "s3cret")
}

func fillPersonal(m *WizardModel) {
	m.personal.SetValue(form.FieldFirstName, "Ada")
	m.personal.SetValue(form.FieldLastName, "Lovelace")
	m.personal.SetValue(form.FieldContactNo, "555-0100")
}

// toImages drives a wizard to the image step with both uploads attached.
func toImages(t *testing.T, m *WizardModel) {
	t.Helper()
	fillAccount(m)
	m.Update(SubmitStepMsg{})
	require.Equal(t, form.StepPersonal, m.Step())
	fillPersonal(m)
	m.Update(SubmitStepMsg{})
	require.Equal(t, form.StepImages, m.Step())
	m.images.SetUpload(form.FieldPhoto, pngUpload(t, "me.png"))
	m.images.SetUpload(form.FieldSignaturePhoto, pngUpload(t, "sig.png"))
}

// submissionResult runs the batch returned for a final-step submit and
// returns the SubmissionResultMsg it produces.
func submissionResult(t *testing.T, cmd tea.Cmd) SubmissionResultMsg {
	t.Helper()
	require.NotNil(t, cmd)
	msgs := []tea.Msg{cmd()}
	for len(msgs) > 0 {
		msg := msgs[0]
		msgs = msgs[1:]
		switch msg := msg.(type) {
		case SubmissionResultMsg:
			return msg
		case tea.BatchMsg:
			for _, c := range msg {
				if c != nil {
					msgs = append(msgs, c())
				}
			}
		}
	}
	t.Fatal("no SubmissionResultMsg produced")
	return SubmissionResultMsg{}
}

func TestWizard_PasswordMismatchBlocksWithoutNetwork(t *testing.T) {
	t.Parallel()

	sub := &fakeSubmitter{}
	m := newTestWizard(t, sub)
	fillAccount(m)
	m.account.SetValue(form.FieldPasswordConfirmation, "other")

	m.Update(SubmitStepMsg{})

	require.Equal(t, form.StepAccount, m.Step())
	require.Zero(t, sub.count())
	require.Contains(t, ansi.Strip(m.account.View()), "Passwords do not match")
	require.Equal(t, form.FieldPasswordConfirmation, m.account.Focused(), "first errored field gets focus")
}

func TestWizard_HappyPath(t *testing.T) {
	t.Parallel()

	sub := &fakeSubmitter{}
	m := newTestWizard(t, sub)
	toImages(t, m)
	require.Zero(t, sub.count(), "steps 1 and 2 never hit the network")
	require.Equal(t, 2, m.previews.Live())

	_, cmd := m.Update(SubmitStepMsg{})
	require.True(t, m.controller.Submitting())
	require.Contains(t, ansi.Strip(m.render()), "Registering...")

	m.Update(submissionResult(t, cmd))

	require.Equal(t, form.StepDone, m.Step())
	require.Equal(t, 1, sub.count())
	got := sub.calls[0]
	require.Equal(t, "ada@example.com", got.Account.Email)
	require.Equal(t, "Lovelace", got.Personal.LastName)
	require.Equal(t, "sig.png", got.Images.SignaturePhoto.Filename)
	require.Zero(t, m.previews.Live(), "previews are released once the image step is gone")
	require.Contains(t, ansi.Strip(m.render()), "Registration complete")
	require.Equal(t, ButtonExit, m.buttons.FocusedButton())

	_, cmd = m.Update(keyEnter)
	require.NotNil(t, cmd)
	require.IsType(t, tea.QuitMsg{}, cmd())
	require.False(t, m.Cancelled())
}

func TestWizard_ServerErrorsReplacePrevious(t *testing.T) {
	t.Parallel()

	sub := &fakeSubmitter{results: []error{
		&form.ServerValidationError{StatusCode: 422, Fields: form.FieldErrors{
			form.FieldEmail: {"Email already taken"},
			form.FieldPhoto: {"The photo must be an image."},
		}},
		&form.ServerValidationError{StatusCode: 422, Fields: form.FieldErrors{
			form.FieldUsername: {"Username already taken"},
		}},
	}}
	m := newTestWizard(t, sub)
	toImages(t, m)

	_, cmd := m.Update(SubmitStepMsg{})
	m.Update(submissionResult(t, cmd))

	require.Equal(t, form.StepImages, m.Step())
	require.Equal(t, form.FieldErrors{
		form.FieldEmail: {"Email already taken"},
		form.FieldPhoto: {"The photo must be an image."},
	}, m.controller.Errors())
	view := ansi.Strip(m.render())
	require.Contains(t, view, "Account step: Email already taken")
	require.Contains(t, view, "The photo must be an image.")

	_, cmd = m.Update(SubmitStepMsg{})
	m.Update(submissionResult(t, cmd))

	require.Equal(t, form.FieldErrors{form.FieldUsername: {"Username already taken"}}, m.controller.Errors())
	view = ansi.Strip(m.render())
	require.NotContains(t, view, "Email already taken")
	require.Contains(t, view, "Account step: Username already taken")
}

func TestWizard_UnstructuredFailureShowsNotice(t *testing.T) {
	t.Parallel()

	sub := &fakeSubmitter{results: []error{
		&register.UnexpectedResponseError{StatusCode: http.StatusInternalServerError},
	}}
	m := newTestWizard(t, sub)
	toImages(t, m)

	_, cmd := m.Update(SubmitStepMsg{})
	m.Update(submissionResult(t, cmd))

	require.Equal(t, form.StepImages, m.Step())
	require.Equal(t, form.GenericFailureMessage, m.failure)
	require.Contains(t, ansi.Strip(m.renderFailure()), "HTTP 500")
	require.Empty(t, m.controller.Errors())

	// The notice is modal: esc dismisses it instead of going back.
	m.Update(keyEsc)
	require.Empty(t, m.failure)
	require.Equal(t, form.StepImages, m.Step())
}

func TestWizard_KeysIgnoredWhileSubmitting(t *testing.T) {
	t.Parallel()

	m := newTestWizard(t, &fakeSubmitter{})
	toImages(t, m)

	_, cmd := m.Update(SubmitStepMsg{})
	require.NotNil(t, cmd)

	m.Update(keyEsc)
	require.Equal(t, form.StepImages, m.Step())
	_, again := m.Update(SubmitStepMsg{})
	require.Nil(t, again, "a second submission is ignored while one is in flight")
}

func TestWizard_EscGoesBackAndKeepsValues(t *testing.T) {
	t.Parallel()

	m := newTestWizard(t, &fakeSubmitter{})
	fillAccount(m)
	m.Update(SubmitStepMsg{})
	m.personal.SetValue(form.FieldFirstName, "Ada")

	m.Update(keyEsc)
	require.Equal(t, form.StepAccount, m.Step())
	require.Equal(t, "ada@example.com", m.account.Value(form.FieldEmail))
	require.Equal(t, "Ada", m.controller.Data().Personal.FirstName)

	m.Update(SubmitStepMsg{})
	require.Equal(t, form.StepPersonal, m.Step())
	require.Equal(t, "Ada", m.personal.Value(form.FieldFirstName))
}

func TestWizard_EscOnFirstStepCancels(t *testing.T) {
	t.Parallel()

	m := newTestWizard(t, &fakeSubmitter{})
	_, cmd := m.Update(keyEsc)
	require.NotNil(t, cmd)
	require.IsType(t, tea.QuitMsg{}, cmd())
	require.True(t, m.Cancelled())
	require.Equal(t, form.StepAccount, m.Step())
}

func TestWizard_EscClosesPickerFirst(t *testing.T) {
	t.Parallel()

	m := newTestWizard(t, &fakeSubmitter{})
	toImages(t, m)
	require.Equal(t, form.FieldPhoto, imageSlots[m.images.focusIndex].field)

	m.Update(keyEnter)
	require.True(t, m.images.PickerOpen())

	m.Update(keyEsc)
	require.False(t, m.images.PickerOpen())
	require.Equal(t, form.StepImages, m.Step())
}

func TestWizard_TabIntoButtons(t *testing.T) {
	t.Parallel()

	m := newTestWizard(t, &fakeSubmitter{})
	fillAccount(m)
	_ = m.account.FocusLast()

	_, cmd := m.Update(keyTab)
	require.NotNil(t, cmd)
	m.Update(cmd())
	require.True(t, m.buttons.IsFocused())
	require.Equal(t, ButtonCancel, m.buttons.FocusedButton())
	require.Empty(t, m.account.Focused())

	m.Update(keyTab)
	require.Equal(t, ButtonNext, m.buttons.FocusedButton())

	m.Update(keyEnter)
	require.Equal(t, form.StepPersonal, m.Step())
	require.False(t, m.buttons.IsFocused())
	require.Equal(t, form.FieldFirstName, m.personal.Focused())

	// Shift+tab off the first button returns to the last input.
	_, cmd = m.Update(keyShiftTab)
	m.Update(cmd())
	require.Equal(t, ButtonNext, m.buttons.FocusedButton())
	m.Update(keyShiftTab)
	require.Equal(t, ButtonBack, m.buttons.FocusedButton())
	m.Update(keyShiftTab)
	require.False(t, m.buttons.IsFocused())
	require.Equal(t, form.FieldAlternateContactNo, m.personal.Focused())
}

func TestWizard_TypingUpdatesFocusedInput(t *testing.T) {
	t.Parallel()

	m := newTestWizard(t, &fakeSubmitter{})
	for _, r := range "ada@x.io" {
		m.Update(tea.KeyPressMsg{Code: r, Text: string(r)})
	}
	require.Equal(t, "ada@x.io", m.account.Value(form.FieldEmail))
}

func TestWizard_ButtonsPerStep(t *testing.T) {
	t.Parallel()

	m := newTestWizard(t, &fakeSubmitter{})
	view := ansi.Strip(m.render())
	require.Contains(t, view, "Cancel")
	require.NotContains(t, view, "Back")
	require.Contains(t, view, "Step 1 - 4")

	toImages(t, m)
	view = ansi.Strip(m.render())
	require.Contains(t, view, "Back")
	require.Contains(t, view, "Register")
	require.Contains(t, view, "Step 3 - 4")
}

func TestWizard_LoadFinishingAfterDoneIsDropped(t *testing.T) {
	t.Parallel()

	sub := &fakeSubmitter{}
	m := newTestWizard(t, sub)
	toImages(t, m)

	path := filepath.Join(t.TempDir(), "late.png")
	writeImage(t, path)
	_, load := m.Update(FileSelectedMsg{Field: form.FieldPhoto, Path: path})
	require.NotNil(t, load)

	_, cmd := m.Update(SubmitStepMsg{})
	m.Update(submissionResult(t, cmd))
	require.Equal(t, form.StepDone, m.Step())
	require.Equal(t, "me.png", sub.calls[0].Images.Photo.Filename)

	m.Update(load())
	require.Zero(t, m.previews.Live())
}
