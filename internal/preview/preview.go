// Package preview loads image uploads from disk and renders them as terminal
// thumbnails. A Registry keeps at most one live preview per form field and
// releases the one it replaces.
package preview

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/mark3labs/signup/internal/form"
	"github.com/mark3labs/signup/internal/tui/theme"
)

// Extensions lists the file extensions offered by the image picker.
var Extensions = []string{".png", ".jpg", ".jpeg", ".gif"}

var contentTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
}

// IsImageName reports whether name has one of Extensions.
func IsImageName(name string) bool {
	_, ok := contentTypes[strings.ToLower(filepath.Ext(name))]
	return ok
}

// Load reads path into an upload. The content type comes from the extension
// and falls back to sniffing the bytes.
func Load(path string) (*form.Upload, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}

	ct, ok := contentTypes[strings.ToLower(filepath.Ext(path))]
	if !ok {
		ct = http.DetectContentType(content)
	}

	return &form.Upload{
		Filename:    filepath.Base(path),
		ContentType: ct,
		Content:     content,
	}, nil
}

// Thumbnail renders img into at most cols×rows terminal cells using upper
// half blocks, two pixel rows per cell. Aspect ratio is kept.
func Thumbnail(img image.Image, cols, rows int) string {
	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW == 0 || srcH == 0 || cols <= 0 || rows <= 0 {
		return ""
	}

	w, h := fit(srcW, srcH, cols, rows*2)
	if h%2 == 1 {
		h++
	}

	lines := make([]string, 0, h/2)
	for y := 0; y < h; y += 2 {
		var line strings.Builder
		for x := 0; x < w; x++ {
			top := sample(img, x, y, w, h)
			bottom := sample(img, x, y+1, w, h)
			line.WriteString(lipgloss.NewStyle().
				Foreground(lipgloss.Color(top)).
				Background(lipgloss.Color(bottom)).
				Render("▀"))
		}
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}

// fit scales srcW×srcH down to fit maxW×maxH. Images are never enlarged.
func fit(srcW, srcH, maxW, maxH int) (int, int) {
	w, h := srcW, srcH
	if w > maxW {
		h = max(1, h*maxW/w)
		w = maxW
	}
	if h > maxH {
		w = max(1, w*maxH/h)
		h = maxH
	}
	return w, h
}

// sample picks the nearest source pixel for cell (x, y) of a w×h target.
func sample(img image.Image, x, y, w, h int) string {
	b := img.Bounds()
	if y >= h {
		y = h - 1
	}
	sx := b.Min.X + x*b.Dx()/w
	sy := b.Min.Y + y*b.Dy()/h
	r, g, bl, a := img.At(sx, sy).RGBA()
	if a == 0 {
		return theme.Current().BgBase
	}
	return theme.FormatHexColor(uint8(r>>8), uint8(g>>8), uint8(bl>>8))
}

// Preview is a rendered thumbnail bound to one upload.
type Preview struct {
	ID       int
	Field    string
	Filename string
	Size     int
	Width    int // source pixels, 0 when the bytes did not decode
	Height   int

	thumb    string
	released bool
}

// New decodes u and renders its thumbnail. Undecodable content still yields
// a preview that shows the filename only.
func New(field string, u *form.Upload, cols, rows int) *Preview {
	p := &Preview{
		Field:    field,
		Filename: u.Filename,
		Size:     u.Size(),
	}
	img, _, err := image.Decode(bytes.NewReader(u.Content))
	if err != nil {
		return p
	}
	p.Width, p.Height = img.Bounds().Dx(), img.Bounds().Dy()
	p.thumb = Thumbnail(img, cols, rows)
	return p
}

// Released reports whether the preview has been released.
func (p *Preview) Released() bool {
	return p.released
}

// Release drops the rendered thumbnail.
func (p *Preview) Release() {
	p.thumb = ""
	p.released = true
}

// View renders the thumbnail with a caption.
func (p *Preview) View() string {
	s := theme.Current().S()
	caption := fmt.Sprintf("%s (%s)", p.Filename, humanSize(p.Size))
	if p.Width > 0 {
		caption = fmt.Sprintf("%s %dx%d", caption, p.Width, p.Height)
	}
	if p.released || p.thumb == "" {
		return s.Muted.Render("[no preview] " + caption)
	}
	return p.thumb + "\n" + s.Muted.Render(caption)
}

func humanSize(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
