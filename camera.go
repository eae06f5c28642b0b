package rowan

import (
	"math"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// scrollAnim holds active scroll-to tweens for camera X and Y.
type scrollAnim struct {
	tweenX *gween.Tween
	tweenY *gween.Tween
	doneX  bool
	doneY  bool
}

// Camera drives the view of a Layer: the world point it centers on, a zoom
// factor, smooth following of an entity and animated scrolling. Update
// writes the result into the layer with SetView.
type Camera struct {
	// X and Y are the world point at the center of the view.
	X, Y float64
	// Zoom is the scale factor (1.0 = no zoom, >1 = zoom in, <1 = zoom out).
	Zoom float64
	// Width and Height are the world extent of the view at zoom 1.
	Width, Height float64

	// BoundsEnabled clamps the camera position so the visible area stays
	// within Bounds.
	BoundsEnabled bool
	Bounds        View

	layer *Entity
	gen   uint32

	followTarget  *Entity
	followGen     uint32
	followOffsetX float64
	followOffsetY float64
	followLerp    float64

	scrollTween *scrollAnim
	applied     View
}

// NewCamera creates a camera for layer, centered on its current view,
// whose visible area at zoom 1 is width by height world units. It fails
// with CodeWrongType when layer is not a Layer and with CodeBadArguments
// for an empty area.
func NewCamera(layer *Entity, width, height float64) (*Camera, error) {
	const op = "NewCamera"
	if layer == nil || layer.disposed {
		return nil, newError(op, CodeBadArguments)
	}
	if layer.kind != KindLayer {
		return nil, layer.ctx.fail(op, CodeWrongType)
	}
	if width <= 0 || height <= 0 {
		return nil, layer.ctx.fail(op, CodeBadArguments)
	}
	v := layer.view
	return &Camera{
		X:       (v.Left + v.Right) / 2,
		Y:       (v.Bottom + v.Top) / 2,
		Zoom:    1,
		Width:   width,
		Height:  height,
		layer:   layer,
		gen:     layer.gen,
		applied: v,
	}, nil
}

// Layer returns the layer the camera drives.
func (c *Camera) Layer() *Entity { return c.layer }

// Follow makes the camera track the world position of target, plus the
// given offset. A lerp of 1.0 snaps immediately; lower values give
// smoother following. Following stops when target is destroyed.
func (c *Camera) Follow(target *Entity, offsetX, offsetY, lerp float64) {
	c.followTarget = target
	c.followGen = target.gen
	c.followOffsetX = offsetX
	c.followOffsetY = offsetY
	c.followLerp = lerp
}

// Unfollow stops tracking the current target.
func (c *Camera) Unfollow() {
	c.followTarget = nil
}

// ScrollTo animates the camera to the given world position over duration
// seconds. A nil easeFn is linear.
func (c *Camera) ScrollTo(x, y float64, duration float32, easeFn ease.TweenFunc) {
	if easeFn == nil {
		easeFn = ease.Linear
	}
	c.scrollTween = &scrollAnim{
		tweenX: gween.New(float32(c.X), float32(x), duration, easeFn),
		tweenY: gween.New(float32(c.Y), float32(y), duration, easeFn),
	}
}

// Scrolling reports whether a ScrollTo animation is in progress.
func (c *Camera) Scrolling() bool { return c.scrollTween != nil }

// SetBounds enables bounds clamping.
func (c *Camera) SetBounds(bounds View) {
	c.BoundsEnabled = true
	c.Bounds = bounds
}

// ClearBounds disables bounds clamping.
func (c *Camera) ClearBounds() {
	c.BoundsEnabled = false
}

// Visible returns the area of the world the camera shows.
func (c *Camera) Visible() View {
	hw := c.Width / (2 * c.Zoom)
	hh := c.Height / (2 * c.Zoom)
	return View{Left: c.X - hw, Right: c.X + hw, Bottom: c.Y - hh, Top: c.Y + hh}
}

// Update advances following, scrolling and bounds clamping by dt seconds,
// then sets the layer view when it changed. The follow target's position is
// the one computed by the last Render. It fails with CodeBadArguments for a
// non-positive zoom and with CodeDenied once the layer is destroyed.
func (c *Camera) Update(dt float32) error {
	const op = "Camera.Update"
	if c.layer.disposed || c.layer.gen != c.gen {
		return newError(op, CodeDenied)
	}
	if c.Zoom <= 0 {
		return c.layer.ctx.fail(op, CodeBadArguments)
	}

	if t := c.followTarget; t != nil {
		if t.disposed || t.gen != c.followGen {
			c.followTarget = nil
		} else {
			targetX := t.world.X + c.followOffsetX
			targetY := t.world.Y + c.followOffsetY
			c.X += (targetX - c.X) * c.followLerp
			c.Y += (targetY - c.Y) * c.followLerp
		}
	}

	if s := c.scrollTween; s != nil {
		if !s.doneX {
			val, done := s.tweenX.Update(dt)
			c.X = float64(val)
			s.doneX = done
		}
		if !s.doneY {
			val, done := s.tweenY.Update(dt)
			c.Y = float64(val)
			s.doneY = done
		}
		if s.doneX && s.doneY {
			c.scrollTween = nil
		}
	}

	if c.BoundsEnabled {
		c.clampToBounds()
	}

	v := c.Visible()
	if v == c.applied {
		return nil
	}
	if err := c.layer.SetView(v.Left, v.Right, v.Bottom, v.Top); err != nil {
		return err
	}
	c.applied = v
	return nil
}

// clampToBounds restricts the camera position so the visible area stays
// within Bounds. Bounds smaller than the visible area center the camera.
func (c *Camera) clampToBounds() {
	halfW := c.Width / (2 * c.Zoom)
	halfH := c.Height / (2 * c.Zoom)

	minX := c.Bounds.Left + halfW
	maxX := c.Bounds.Right - halfW
	minY := c.Bounds.Bottom + halfH
	maxY := c.Bounds.Top - halfH

	if minX > maxX {
		c.X = (c.Bounds.Left + c.Bounds.Right) / 2
	} else {
		c.X = math.Max(minX, math.Min(c.X, maxX))
	}
	if minY > maxY {
		c.Y = (c.Bounds.Bottom + c.Bounds.Top) / 2
	} else {
		c.Y = math.Max(minY, math.Min(c.Y, maxY))
	}
}
