package wizard

import (
	"path/filepath"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/mark3labs/signup/internal/form"
	"github.com/mark3labs/signup/internal/logger"
	"github.com/mark3labs/signup/internal/preview"
	"github.com/mark3labs/signup/internal/tui/theme"
)

type imageSlot struct {
	field string
	label string
}

var imageSlots = []imageSlot{
	{field: form.FieldPhoto, label: "Profile Photo"},
	{field: form.FieldSignaturePhoto, label: "Signature Photo"},
}

// ImagesStep collects the photo and signature uploads. Each slot opens a
// file picker and shows a thumbnail of the chosen image.
type ImagesStep struct {
	focusIndex int // -1 when blurred
	uploads    map[string]*form.Upload
	loadErrs   map[string]string
	errors     form.FieldErrors
	picker     *FilePicker
	lastDir    string
	previews   *preview.Registry
	selections map[string]int // latest selection per field; loads for older ones are dropped
	detached   bool
	width      int
	height     int
}

// NewImagesStep creates the image step. Previews are kept in previews.
func NewImagesStep(previews *preview.Registry, startDir string) *ImagesStep {
	return &ImagesStep{
		focusIndex: -1,
		uploads:    make(map[string]*form.Upload),
		loadErrs:   make(map[string]string),
		errors:     form.FieldErrors{},
		lastDir:    startDir,
		previews:   previews,
		selections: make(map[string]int),
		width:      60,
		height:     10,
	}
}

// Focus focuses the first slot.
func (s *ImagesStep) Focus() tea.Cmd {
	s.focusIndex = 0
	return nil
}

// FocusLast focuses the last slot.
func (s *ImagesStep) FocusLast() tea.Cmd {
	s.focusIndex = len(imageSlots) - 1
	return nil
}

// FocusField focuses the slot for a wire field name.
func (s *ImagesStep) FocusField(name string) tea.Cmd {
	for i, slot := range imageSlots {
		if slot.field == name {
			s.focusIndex = i
		}
	}
	return nil
}

// Blur removes focus from the slots.
func (s *ImagesStep) Blur() {
	s.focusIndex = -1
}

// SetSize updates the dimensions for the step.
func (s *ImagesStep) SetSize(width, height int) {
	s.width = width
	s.height = height
	if s.picker != nil {
		s.picker.SetSize(width, height-6)
	}
}

// SetErrors replaces the displayed field errors.
func (s *ImagesStep) SetErrors(errs form.FieldErrors) {
	s.errors = errs
}

// PickerOpen reports whether the file picker is showing.
func (s *ImagesStep) PickerOpen() bool {
	return s.picker != nil
}

// ClosePicker hides the file picker without choosing a file.
func (s *ImagesStep) ClosePicker() {
	if s.picker != nil {
		s.lastDir = s.picker.Dir()
		s.picker = nil
	}
}

// Images returns the uploads chosen so far.
func (s *ImagesStep) Images() form.Images {
	return form.Images{
		Photo:          s.uploads[form.FieldPhoto],
		SignaturePhoto: s.uploads[form.FieldSignaturePhoto],
	}
}

// Detach stops the step from accepting selections or finished loads.
// Called once its previews have been released for good.
func (s *ImagesStep) Detach() {
	s.detached = true
	s.picker = nil
}

// SetUpload attaches u to field, replacing its preview. Loads still in
// flight for field are discarded.
func (s *ImagesStep) SetUpload(field string, u *form.Upload) {
	if s.detached {
		return
	}
	s.selections[field]++
	delete(s.loadErrs, field)
	if u == nil {
		delete(s.uploads, field)
		s.previews.Release(field)
		return
	}
	s.uploads[field] = u
	s.previews.Replace(field, u)
}

func (s *ImagesStep) openPicker() {
	if s.focusIndex < 0 {
		return
	}
	s.picker = NewFilePicker(imageSlots[s.focusIndex].field, s.lastDir)
	s.picker.SetSize(s.width, s.height-6)
}

// Update handles messages for the step.
func (s *ImagesStep) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case FileSelectedMsg:
		if s.detached {
			return nil
		}
		s.lastDir = filepath.Dir(msg.Path)
		s.picker = nil
		s.selections[msg.Field]++
		return loadImage(msg.Field, msg.Path, s.selections[msg.Field])

	case ImageLoadedMsg:
		if s.detached || msg.Seq != s.selections[msg.Field] {
			logger.Debug("Dropping stale load of %s for %s", msg.Path, msg.Field)
			return nil
		}
		if msg.Err != nil {
			logger.Warn("Loading %s for %s failed: %v", msg.Path, msg.Field, msg.Err)
			s.loadErrs[msg.Field] = msg.Err.Error()
			return nil
		}
		delete(s.loadErrs, msg.Field)
		s.uploads[msg.Field] = msg.Upload
		s.previews.Replace(msg.Field, msg.Upload)
		return nil

	case tea.KeyPressMsg:
		if s.picker != nil {
			return s.picker.Update(msg)
		}

		switch msg.String() {
		case "tab", "down":
			if s.focusIndex >= len(imageSlots)-1 {
				return func() tea.Msg { return TabExitForwardMsg{} }
			}
			s.focusIndex++
		case "shift+tab", "up":
			if s.focusIndex <= 0 {
				return func() tea.Msg { return TabExitBackwardMsg{} }
			}
			s.focusIndex--
		case "enter", "space":
			s.openPicker()
		case "x", "delete":
			if s.focusIndex >= 0 {
				s.SetUpload(imageSlots[s.focusIndex].field, nil)
			}
		}
	}
	return nil
}

// View renders the step, or the file picker while it is open.
func (s *ImagesStep) View() string {
	st := theme.Current().S()

	if s.picker != nil {
		var b strings.Builder
		b.WriteString(st.LabelFocused.Render("Choose " + slotLabel(s.picker.Field())))
		b.WriteString("\n\n")
		b.WriteString(s.picker.View())
		return b.String()
	}

	t := theme.Current()
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(t.BorderDefault)).
		Padding(0, 1)

	var b strings.Builder
	for i, slot := range imageSlots {
		if i == s.focusIndex {
			b.WriteString(st.LabelFocused.Render("▸ " + slot.label))
		} else {
			b.WriteString(st.Label.Render("  " + slot.label))
		}
		b.WriteString("\n")

		var body string
		if p := s.previews.Get(slot.field); p != nil && s.uploads[slot.field] != nil {
			body = p.View()
		} else {
			body = st.Muted.Render("No file chosen")
		}
		style := box
		if i == s.focusIndex {
			style = style.BorderForeground(lipgloss.Color(t.BorderFocused))
		}
		b.WriteString(style.Render(body))
		b.WriteString("\n")

		if msg := s.loadErrs[slot.field]; msg != "" {
			b.WriteString(st.FieldError.Render("✗ " + msg))
			b.WriteString("\n")
		}
		if msgs := s.errors[slot.field]; len(msgs) > 0 {
			b.WriteString(renderFieldErrors(msgs))
			b.WriteString("\n")
		}
		if i < len(imageSlots)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func slotLabel(field string) string {
	for _, slot := range imageSlots {
		if slot.field == field {
			return slot.label
		}
	}
	return field
}

// loadImage reads the file off the event loop. seq identifies the
// selection that started the load.
func loadImage(field, path string, seq int) tea.Cmd {
	return func() tea.Msg {
		u, err := preview.Load(path)
		return ImageLoadedMsg{Field: field, Path: path, Seq: seq, Upload: u, Err: err}
	}
}

// ImageLoadedMsg carries a file read for an image field.
type ImageLoadedMsg struct {
	Field  string
	Path   string
	Seq    int
	Upload *form.Upload
	Err    error
}
