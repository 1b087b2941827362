package wizard

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
	"github.com/mark3labs/signup/internal/preview"
	"github.com/mark3labs/signup/internal/tui/theme"
)

// FileItem represents a file or directory in the file picker.
type FileItem struct {
	name  string // Name of file/directory
	path  string // Full path
	isDir bool   // True if directory
}

// Render returns the item as one line no wider than width.
func (f *FileItem) Render(width int) string {
	icon := "🖼"
	if f.isDir {
		icon = "📁"
	}
	return ansi.Truncate(icon+" "+f.name, max(4, width-2), "…")
}

// FilePicker browses directories for image files to attach to field.
type FilePicker struct {
	field       string      // Form field the chosen file is for
	currentPath string      // Current directory path
	items       []*FileItem // All items in current directory
	selectedIdx int         // Index of selected item
	offset      int         // First visible item
	err         string      // Last directory read error
	width       int         // Available width
	height      int         // Visible item rows
}

// NewFilePicker creates a picker for field starting in dir (cwd when empty).
func NewFilePicker(field, dir string) *FilePicker {
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			cwd = "."
		}
		dir = cwd
	}

	fp := &FilePicker{
		field:  field,
		width:  60,
		height: 10,
	}
	fp.loadDirectory(dir)
	return fp
}

// Field returns the form field the picker is choosing for.
func (f *FilePicker) Field() string {
	return f.field
}

// Dir returns the directory being shown.
func (f *FilePicker) Dir() string {
	return f.currentPath
}

// loadDirectory lists path: parent entry, directories, then image files.
func (f *FilePicker) loadDirectory(path string) {
	entries, err := os.ReadDir(path)
	if err != nil {
		f.err = err.Error()
		return
	}
	f.err = ""

	f.items = f.items[:0]
	if absPath, err := filepath.Abs(path); err == nil && absPath != filepath.Dir(absPath) {
		f.items = append(f.items, &FileItem{name: "..", path: filepath.Dir(absPath), isDir: true})
	}

	var dirs, files []*FileItem
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		fullPath := filepath.Join(path, entry.Name())
		if entry.IsDir() {
			dirs = append(dirs, &FileItem{name: entry.Name(), path: fullPath, isDir: true})
		} else if preview.IsImageName(entry.Name()) {
			files = append(files, &FileItem{name: entry.Name(), path: fullPath})
		}
	}

	byName := func(items []*FileItem) {
		sort.Slice(items, func(i, j int) bool {
			return strings.ToLower(items[i].name) < strings.ToLower(items[j].name)
		})
	}
	byName(dirs)
	byName(files)

	f.items = append(f.items, dirs...)
	f.items = append(f.items, files...)
	f.currentPath = path
	f.selectedIdx = 0
	f.offset = 0
}

// SetSize updates the dimensions for the file picker.
func (f *FilePicker) SetSize(width, height int) {
	f.width = width
	f.height = max(3, height)
	f.scroll()
}

// scroll keeps the selection inside the visible window.
func (f *FilePicker) scroll() {
	if f.selectedIdx < f.offset {
		f.offset = f.selectedIdx
	}
	if f.selectedIdx >= f.offset+f.height {
		f.offset = f.selectedIdx - f.height + 1
	}
}

// Update handles messages for the file picker.
func (f *FilePicker) Update(msg tea.Msg) tea.Cmd {
	keyMsg, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return nil
	}

	switch keyMsg.String() {
	case "up", "k":
		if f.selectedIdx > 0 {
			f.selectedIdx--
		}
	case "down", "j":
		if f.selectedIdx < len(f.items)-1 {
			f.selectedIdx++
		}
	case "enter":
		if f.selectedIdx < 0 || f.selectedIdx >= len(f.items) {
			return nil
		}
		item := f.items[f.selectedIdx]
		if item.isDir {
			f.loadDirectory(item.path)
			return nil
		}
		field, path := f.field, item.path
		return func() tea.Msg {
			return FileSelectedMsg{Field: field, Path: path}
		}
	case "backspace":
		if parent := filepath.Dir(f.currentPath); parent != f.currentPath {
			f.loadDirectory(parent)
		}
	}
	f.scroll()
	return nil
}

// View renders the file picker.
func (f *FilePicker) View() string {
	t := theme.Current()
	s := t.S()
	var b strings.Builder

	b.WriteString(s.Label.Render(ansi.Truncate(f.currentPath, f.width, "…")))
	b.WriteString("\n\n")

	if f.err != "" {
		b.WriteString(s.FieldError.Render("✗ " + f.err))
		b.WriteString("\n\n")
	}

	hasFiles := false
	for _, item := range f.items {
		if item.name != ".." {
			hasFiles = true
			break
		}
	}
	if !hasFiles {
		b.WriteString(s.Muted.Italic(true).Render("No images in this directory"))
		b.WriteString("\n")
	}

	selected := lipgloss.NewStyle().
		Foreground(lipgloss.Color(t.Primary)).
		Background(lipgloss.Color(t.BgSurface0)).
		Bold(true)

	end := min(len(f.items), f.offset+f.height)
	for i := f.offset; i < end; i++ {
		line := f.items[i].Render(f.width)
		if i == f.selectedIdx {
			line = selected.Render("▸ " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(renderHintBar(
		"↑↓/j/k", "navigate",
		"enter", "select",
		"backspace", "up",
		"esc", "close",
	))
	return b.String()
}

// SelectedPath returns the currently selected file path (empty if directory selected).
func (f *FilePicker) SelectedPath() string {
	if f.selectedIdx >= 0 && f.selectedIdx < len(f.items) {
		if item := f.items[f.selectedIdx]; !item.isDir {
			return item.path
		}
	}
	return ""
}

// FileSelectedMsg is sent when an image file is chosen for a field.
type FileSelectedMsg struct {
	Field string
	Path  string
}
