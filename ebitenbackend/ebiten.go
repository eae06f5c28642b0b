// Package ebitenbackend renders a rowan scene with Ebitengine. Importing it
// registers the "ebiten" backend, the default of rowan.Open. The platform
// value is a *Display naming the image each Render draws into:
//
//	display := ebitenbackend.NewDisplay(nil)
//	ctx, err := rowan.Open("", 0, display)
//
// and, inside ebiten.Game.Draw:
//
//	display.SetTarget(screen)
//	err := ctx.Render()
//
// Run wraps this loop for applications that let the package own the game.
// Every entity becomes one DrawTriangles32 call. Windows clip to their
// bounding box through sub-images. Depth is ignored; entities paint in
// traversal order.
package ebitenbackend

import (
	"fmt"
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"

	"github.com/phanxgames/rowan"
)

// Name is the registered backend name.
const Name = "ebiten"

func init() {
	rowan.RegisterBackend(Name, newBackend)
}

// projection maps world coordinates to target pixels.
type projection struct {
	sx, tx, sy, ty float64
}

func (p projection) apply(x, y float64) (float64, float64) {
	return x*p.sx + p.tx, y*p.sy + p.ty
}

// renderer is the per-context state of the backend.
type renderer struct {
	display *Display
	log     *zap.Logger

	// bounds of the display target for the frame being rendered.
	bounds image.Rectangle
	proj   []projection
	// targets holds the clip stack; the top entry receives draws.
	targets []*ebiten.Image

	verts []ebiten.Vertex
	inds  []uint32
}

func newBackend(platform any) (*rowan.Backend, error) {
	display, ok := platform.(*Display)
	if !ok || display == nil {
		return nil, fmt.Errorf("ebiten: platform must be *ebitenbackend.Display, got %T", platform)
	}
	r := &renderer{display: display}
	return &rowan.Backend{
		Name:          Name,
		Open:          r.open,
		Close:         r.close,
		PreRender:     r.preRender,
		PostRender:    r.postRender,
		InitLayer:     r.initLayer,
		InitWindow:    r.initWindow,
		InitSprite:    r.initSprite,
		InitPrimitive: r.initPrimitive,
		InitFill:      r.initFill,
		UploadTexture: upload,
		CloseTexture:  release,
	}, nil
}

func (r *renderer) open(ctx *rowan.Context) error {
	r.log = ctx.Logger().Named(Name)
	r.log.Debug("display attached", zap.Bool("target", r.display.target != nil))
	return nil
}

func (r *renderer) close(*rowan.Context) {
	r.proj, r.targets = nil, nil
	r.verts, r.inds = nil, nil
}

func (r *renderer) preRender(*rowan.Context) error {
	target := r.display.target
	if target == nil {
		return rowan.Errorf(rowan.CodeDriverOpen, "ebiten: display has no target image")
	}
	r.bounds = target.Bounds()
	r.targets = append(r.targets[:0], target)
	r.proj = append(r.proj[:0], r.projection(rowan.View{Left: -1, Right: 1, Bottom: -1, Top: 1}))
	return nil
}

func (r *renderer) postRender(*rowan.Context) error {
	r.display.frames++
	r.display.flushScreenshots(r.log)
	return nil
}

// projection maps view onto the whole target, Top at the first row.
func (r *renderer) projection(v rowan.View) projection {
	return viewProjection(v, r.bounds)
}

func viewProjection(v rowan.View, b image.Rectangle) projection {
	sx := float64(b.Dx()) / v.Width()
	sy := -float64(b.Dy()) / v.Height()
	return projection{
		sx: sx, tx: float64(b.Min.X) - v.Left*sx,
		sy: sy, ty: float64(b.Min.Y) - v.Top*sy,
	}
}

func (r *renderer) top() projection { return r.proj[len(r.proj)-1] }

func (r *renderer) target() *ebiten.Image { return r.targets[len(r.targets)-1] }

// device maps a world point to target pixels.
func (r *renderer) device(x, y float64) rowan.Vec2 {
	dx, dy := r.top().apply(x, y)
	return rowan.Vec2{X: dx, Y: dy}
}

// --- Layer ---

func (r *renderer) initLayer(e *rowan.Entity) error {
	e.Hooks.Render = func(e *rowan.Entity) error {
		r.proj = append(r.proj, r.projection(e.View()))
		if e.Flags()&rowan.FlagClear != 0 {
			r.target().Fill(nrgba(e.BGColor().Mul(e.WorldColor())))
		}
		return nil
	}
	e.Hooks.RenderPost = func(*rowan.Entity) error {
		r.proj = r.proj[:len(r.proj)-1]
		return nil
	}
	return nil
}

// --- Window ---

func (r *renderer) initWindow(e *rowan.Entity) error {
	e.Hooks.Render = func(e *rowan.Entity) error {
		corners := e.ViewCorners()
		var pts [4]rowan.Vec2
		for i, c := range corners {
			x, y := c.X, c.Y
			if p := e.Parent(); p != nil {
				x, y = p.LocalToWorld(x, y)
			}
			pts[i] = r.device(x, y)
		}
		if e.Flags()&rowan.FlagClear != 0 {
			r.reset()
			r.polygon(pts[:], nil, e.BGColor().Mul(e.WorldColor()))
			r.flush(ensureWhitePixel(), ebiten.FilterNearest, ebiten.AddressUnsafe)
		}
		if e.Flags()&rowan.FlagClip != 0 {
			cur := r.target()
			area := boundingBox(pts[:]).Intersect(cur.Bounds())
			r.targets = append(r.targets, cur.SubImage(area).(*ebiten.Image))
		}
		return nil
	}
	e.Hooks.RenderPost = func(e *rowan.Entity) error {
		if e.Flags()&rowan.FlagClip != 0 {
			r.targets = r.targets[:len(r.targets)-1]
		}
		return nil
	}
	return nil
}

// flush draws the pending triangles from src into the current target.
func (r *renderer) flush(src *ebiten.Image, filter ebiten.Filter, address ebiten.Address) {
	if len(r.inds) == 0 {
		return
	}
	var op ebiten.DrawTrianglesOptions
	op.ColorScaleMode = ebiten.ColorScaleModePremultipliedAlpha
	op.Filter = filter
	op.Address = address
	r.target().DrawTriangles32(r.verts, r.inds, src, &op)
}

// nrgba converts c to a straight-alpha 8-bit color.
func nrgba(c rowan.Color) color.NRGBA {
	return color.NRGBA{R: level(c.R), G: level(c.G), B: level(c.B), A: level(c.A)}
}

func level(v float64) uint8 {
	return uint8(min(max(v, 0), 1)*255 + 0.5)
}
