package flourish

import (
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

// pageCapture is a queued screenshot. ScrollTop is recorded when the capture
// is requested so the file says which part of the page it shows.
type pageCapture struct {
	label     string
	scrollTop float64
}

// Screenshot queues a capture of the next drawn frame. The PNG is written to
// ScreenshotDir as <timestamp>_<label>_y<scrollTop>.png, where scrollTop is
// the primary camera's position at the time of the call. Safe to call from
// Update or Draw.
func (s *Scene) Screenshot(label string) {
	var top float64
	if cam := s.primaryCamera(); cam != nil {
		top = cam.ScrollTop()
	}
	s.screenshotQueue = append(s.screenshotQueue, pageCapture{label: label, scrollTop: top})
}

// PendingScreenshots returns the labels queued for the next Draw.
func (s *Scene) PendingScreenshots() []string {
	labels := make([]string, len(s.screenshotQueue))
	for i, c := range s.screenshotQueue {
		labels[i] = c.label
	}
	return labels
}

// flushScreenshots writes the drawn page once per queued capture. Called at
// the end of Scene.Draw.
func (s *Scene) flushScreenshots(screen *ebiten.Image) {
	if len(s.screenshotQueue) == 0 {
		return
	}
	defer func() { s.screenshotQueue = s.screenshotQueue[:0] }()

	if err := os.MkdirAll(s.ScreenshotDir, 0o755); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "[flourish] screenshot: mkdir %s: %v\n", s.ScreenshotDir, err)
		return
	}

	b := screen.Bounds()
	pixels := make([]byte, 4*b.Dx()*b.Dy())
	screen.ReadPixels(pixels)
	img := unpremultiply(pixels, b.Dx(), b.Dy())

	stamp := time.Now().Format("20060102_150405")
	for _, c := range s.screenshotQueue {
		if err := writePNG(screenshotPath(s.ScreenshotDir, stamp, c), img); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "[flourish] screenshot: %v\n", err)
		}
	}
}

// unpremultiply turns Ebitengine's premultiplied RGBA pixels into a
// straight-alpha image for PNG encoding.
func unpremultiply(pixels []byte, w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	copy(img.Pix, pixels)
	for i := 0; i+3 < len(img.Pix); i += 4 {
		a := int(img.Pix[i+3])
		if a == 0 || a == 255 {
			continue
		}
		for c := range 3 {
			img.Pix[i+c] = uint8(min(int(img.Pix[i+c])*255/a, 255))
		}
	}
	return img
}

// screenshotPath names the file for c. The scroll position is rounded to
// whole pixels.
func screenshotPath(dir, stamp string, c pageCapture) string {
	name := fmt.Sprintf("%s_%s_y%d.png", stamp, sanitizeLabel(c.label), int(math.Round(c.scrollTop)))
	return filepath.Join(dir, name)
}

func writePNG(path string, img *image.NRGBA) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// sanitizeLabel keeps letters, digits, '-' and '.', replacing everything
// else with '_'. Empty labels become "unlabeled".
func sanitizeLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "unlabeled"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9', r == '-', r == '.':
			return r
		}
		return '_'
	}, label)
}
