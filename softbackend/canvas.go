package softbackend

import (
	"image"

	"github.com/gogpu/gg"
)

// Canvas is the platform value of the "soft" backend: an offscreen surface
// that every Render draws into. The application owns it and may read the
// pixels between frames.
type Canvas struct {
	dc     *gg.Context
	w, h   int
	frames int
}

// NewCanvas allocates a w by h canvas.
func NewCanvas(w, h int) *Canvas {
	return &Canvas{dc: gg.NewContext(w, h), w: w, h: h}
}

// Size returns the canvas size in pixels.
func (c *Canvas) Size() (w, h int) { return c.w, c.h }

// Frames returns the number of completed frames.
func (c *Canvas) Frames() int { return c.frames }

// Image returns a snapshot of the pixels.
func (c *Canvas) Image() image.Image { return c.dc.Image() }

// SavePNG writes the pixels to path.
func (c *Canvas) SavePNG(path string) error { return c.dc.SavePNG(path) }

// Close releases the drawing context. The canvas is unusable afterwards.
func (c *Canvas) Close() error {
	if c.dc == nil {
		return nil
	}
	err := c.dc.Close()
	c.dc = nil
	return err
}
