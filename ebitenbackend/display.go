package ebitenbackend

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"
)

// Display is the platform value of the "ebiten" backend. It names the image
// the next Render draws into; a game sets it to the screen at the start of
// every Draw.
type Display struct {
	target *ebiten.Image
	frames int

	// ScreenshotDir is where queued screenshots are written.
	ScreenshotDir string
	shots         []string
}

// NewDisplay returns a display drawing into target. target may be nil and
// set later with SetTarget.
func NewDisplay(target *ebiten.Image) *Display {
	return &Display{target: target, ScreenshotDir: "screenshots"}
}

// SetTarget selects the image the next Render draws into.
func (d *Display) SetTarget(img *ebiten.Image) { d.target = img }

// Target returns the current target image.
func (d *Display) Target() *ebiten.Image { return d.target }

// Frames returns the number of completed frames.
func (d *Display) Frames() int { return d.frames }

// Screenshot queues a labeled capture of the target at the end of the next
// frame. The PNG goes to ScreenshotDir with a timestamped file name.
func (d *Display) Screenshot(label string) {
	d.shots = append(d.shots, label)
}

// flushScreenshots writes every queued screenshot of the finished frame.
// Failures are logged; they never fail the frame.
func (d *Display) flushScreenshots(log *zap.Logger) {
	if len(d.shots) == 0 || d.target == nil {
		return
	}
	defer func() { d.shots = d.shots[:0] }()

	if err := os.MkdirAll(d.ScreenshotDir, 0o755); err != nil {
		log.Warn("screenshot directory", zap.String("dir", d.ScreenshotDir), zap.Error(err))
		return
	}
	img := readNRGBA(d.target)
	stamp := time.Now().Format("20060102_150405")
	for _, label := range d.shots {
		path := fmt.Sprintf("%s/%s_%s.png", d.ScreenshotDir, stamp, sanitizeLabel(label))
		if err := writePNG(path, img); err != nil {
			log.Warn("screenshot", zap.String("path", path), zap.Error(err))
			continue
		}
		log.Debug("screenshot written", zap.String("path", path))
	}
}

// readNRGBA copies the pixels of img, converting premultiplied RGBA to
// straight alpha.
func readNRGBA(img *ebiten.Image) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	pixels := make([]byte, 4*w*h)
	img.ReadPixels(pixels)

	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(pixels); i += 4 {
		r, g, bl, a := pixels[i], pixels[i+1], pixels[i+2], pixels[i+3]
		if a > 0 && a < 255 {
			r = uint8(min(int(r)*255/int(a), 255))
			g = uint8(min(int(g)*255/int(a), 255))
			bl = uint8(min(int(bl)*255/int(a), 255))
		}
		out.Pix[i], out.Pix[i+1], out.Pix[i+2], out.Pix[i+3] = r, g, bl, a
	}
	return out
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

// sanitizeLabel keeps letters, digits, '-' and '.', replacing anything else
// with '_'. Empty labels become "unlabeled".
func sanitizeLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "unlabeled"
	}
	var b strings.Builder
	b.Grow(len(label))
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
