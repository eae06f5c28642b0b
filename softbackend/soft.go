// Package softbackend renders a rowan scene on the CPU into a Canvas, using
// gogpu/gg for rasterization. Importing it registers the "soft" backend:
//
//	canvas := softbackend.NewCanvas(640, 480)
//	ctx, err := rowan.Open("soft", 0, canvas)
//
// Layers map their view onto the whole canvas with y pointing up. Windows
// clip with a polygon clip, so rotated windows clip exactly. Depth is
// ignored; entities paint in traversal order.
package softbackend

import (
	"fmt"
	"image"
	"math"

	"github.com/gogpu/gg"
	"go.uber.org/zap"

	"github.com/phanxgames/rowan"
)

// Name is the registered backend name.
const Name = "soft"

// maxFillTiles bounds the tiles a wrapping Fill draws per frame.
const maxFillTiles = 4096

func init() {
	rowan.RegisterBackend(Name, newBackend)
}

// renderer is the per-context state of the backend.
type renderer struct {
	canvas *Canvas
	dc     *gg.Context
	log    *zap.Logger

	// proj maps world coordinates to canvas pixels. The top entry belongs
	// to the innermost Layer being rendered.
	proj []gg.Matrix
}

func newBackend(platform any) (*rowan.Backend, error) {
	canvas, ok := platform.(*Canvas)
	if !ok {
		return nil, fmt.Errorf("soft: platform must be *softbackend.Canvas, got %T", platform)
	}
	r := &renderer{canvas: canvas}
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
		UploadTexture: func(px *rowan.Pixels) error {
			forget(px.Texture)
			return nil
		},
		CloseTexture: forget,
	}, nil
}

func (r *renderer) open(ctx *rowan.Context) error {
	if r.canvas == nil || r.canvas.dc == nil {
		return rowan.Errorf(rowan.CodeDriverOpen, "soft: canvas is closed")
	}
	r.dc = r.canvas.dc
	r.log = ctx.Logger().Named(Name)
	w, h := r.canvas.Size()
	r.log.Debug("canvas attached", zap.Int("width", w), zap.Int("height", h))
	return nil
}

func (r *renderer) close(*rowan.Context) {
	r.proj = nil
	r.dc = nil
}

func (r *renderer) preRender(*rowan.Context) error {
	r.dc.ResetClip()
	r.dc.Identity()
	r.dc.Clear()
	r.proj = append(r.proj[:0], r.projection(rowan.View{Left: -1, Right: 1, Bottom: -1, Top: 1}))
	return nil
}

func (r *renderer) postRender(*rowan.Context) error {
	r.canvas.frames++
	return nil
}

// projection maps view onto the canvas, Top at row 0.
func (r *renderer) projection(v rowan.View) gg.Matrix {
	w, h := r.canvas.Size()
	sx := float64(w) / v.Width()
	sy := -float64(h) / v.Height()
	return gg.Matrix{A: sx, C: -v.Left * sx, E: sy, F: -v.Top * sy}
}

func (r *renderer) top() gg.Matrix { return r.proj[len(r.proj)-1] }

// device maps a world point to canvas pixels.
func (r *renderer) device(x, y float64) gg.Point {
	return r.top().TransformPoint(gg.Pt(x, y))
}

// worldMatrix returns the local-to-world transform of e.
func worldMatrix(e *rowan.Entity) gg.Matrix {
	m, w := e.Matrix(), e.World()
	return gg.Matrix{A: m[0], B: m[1], C: w.X, D: m[2], E: m[3], F: w.Y}
}

func (r *renderer) setColor(c rowan.Color) {
	r.dc.SetRGBA(c.R, c.G, c.B, c.A)
}

// polygon adds a closed device-space path through pts.
func (r *renderer) polygon(pts []gg.Point) {
	r.dc.Identity()
	r.dc.MoveTo(pts[0].X, pts[0].Y)
	for _, p := range pts[1:] {
		r.dc.LineTo(p.X, p.Y)
	}
	r.dc.ClosePath()
}

// --- Layer ---

func (r *renderer) initLayer(e *rowan.Entity) error {
	e.Hooks.Render = func(e *rowan.Entity) error {
		r.proj = append(r.proj, r.projection(e.View()))
		if e.Flags()&rowan.FlagClear != 0 {
			c := e.BGColor().Mul(e.WorldColor())
			r.dc.ClearWithColor(gg.RGBA{R: c.R, G: c.G, B: c.B, A: c.A})
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

// windowCorners returns the canvas corners of a window view.
func (r *renderer) windowCorners(e *rowan.Entity) []gg.Point {
	corners := e.ViewCorners()
	pts := make([]gg.Point, len(corners))
	for i, c := range corners {
		x, y := c.X, c.Y
		if p := e.Parent(); p != nil {
			x, y = p.LocalToWorld(x, y)
		}
		pts[i] = r.device(x, y)
	}
	return pts
}

func (r *renderer) initWindow(e *rowan.Entity) error {
	e.Hooks.Render = func(e *rowan.Entity) error {
		flags := e.Flags()
		if flags&(rowan.FlagClip|rowan.FlagClear) == 0 {
			return nil
		}
		pts := r.windowCorners(e)
		if flags&rowan.FlagClip != 0 {
			r.dc.Push()
			r.polygon(pts)
			r.dc.Clip()
		}
		if flags&rowan.FlagClear != 0 {
			r.setColor(e.BGColor().Mul(e.WorldColor()))
			r.polygon(pts)
			return r.dc.Fill()
		}
		return nil
	}
	e.Hooks.RenderPost = func(e *rowan.Entity) error {
		if e.Flags()&rowan.FlagClip != 0 {
			r.dc.Pop()
		}
		return nil
	}
	return nil
}

// --- Sprite ---

func (r *renderer) initSprite(e *rowan.Entity) error {
	e.Hooks.Render = r.drawSprite
	return nil
}

// drawSprite draws the unit quad of e around its hotspot. Image row 0 is
// the top edge of the quad.
func (r *renderer) drawSprite(e *rowan.Entity) error {
	col := e.WorldColor()
	if col.A <= 0 {
		return nil
	}
	hs := e.Hotspot()
	quad := gg.Matrix{A: 1, C: -hs.X, E: -1, F: 1 - hs.Y}
	m := r.top().Multiply(worldMatrix(e)).Multiply(quad)

	var img *gg.ImageBuf
	var opts gg.DrawImageOptions
	if tex := e.Texture(); tex != nil {
		src, rect, err := source(tex)
		if err != nil {
			return err
		}
		img = src
		opts = gg.DrawImageOptions{
			DstWidth:      1,
			DstHeight:     1,
			SrcRect:       &rect,
			Interpolation: interpolation(tex),
			Opacity:       col.A,
			BlendMode:     gg.BlendNormal,
		}
	}

	r.dc.Push()
	defer r.dc.Pop()
	r.dc.SetTransform(m)
	if img != nil {
		r.dc.DrawImageEx(img, opts)
		return nil
	}
	r.setColor(col)
	r.dc.DrawRectangle(0, 0, 1, 1)
	return r.dc.Fill()
}

// --- Fill ---

func (r *renderer) initFill(e *rowan.Entity) error {
	e.Hooks.Render = r.drawFill
	return nil
}

// drawFill covers the client area of e, repeating the texture along the
// axes that wrap. One Fill-local unit spans the texture once.
func (r *renderer) drawFill(e *rowan.Entity) error {
	col := e.WorldColor()
	if col.A <= 0 {
		return nil
	}
	g, err := e.FillGeometry()
	if rowan.CodeOf(err) == rowan.CodeDivByZero {
		// Collapsed to a point; nothing to draw.
		return nil
	}
	if err != nil {
		return err
	}
	pts := make([]gg.Point, len(g.Corners))
	for i, c := range g.Corners {
		pts[i] = r.device(c.X, c.Y)
	}

	r.dc.Push()
	defer r.dc.Pop()
	tex := e.Texture()
	var img *gg.ImageBuf
	var rect *image.Rectangle
	if tex != nil {
		src, rc, err := source(tex)
		if err != nil {
			return err
		}
		img, rect = src, &rc
	}
	if img == nil {
		r.setColor(col)
		r.polygon(pts)
		return r.dc.Fill()
	}
	r.polygon(pts)
	r.dc.Clip()

	x0, x1, y0, y1 := texBounds(g.TexCoords)
	if tex.Flags()&rowan.HMode != rowan.HWrap {
		x0, x1 = 0, 1
	}
	if tex.Flags()&rowan.VMode != rowan.VWrap {
		y0, y1 = 0, 1
	}
	if (x1-x0)*(y1-y0) > maxFillTiles {
		r.log.Warn("fill tiles capped",
			zap.String("name", e.Name),
			zap.Int("tiles", (x1-x0)*(y1-y0)))
		x1 = min(x1, x0+maxFillTiles)
		y1 = y0 + max(maxFillTiles/(x1-x0), 1)
	}
	base := r.top().Multiply(worldMatrix(e))
	opts := gg.DrawImageOptions{
		DstWidth:      1,
		DstHeight:     1,
		SrcRect:       rect,
		Interpolation: interpolation(tex),
		Opacity:       col.A,
		BlendMode:     gg.BlendNormal,
	}
	for ty := y0; ty < y1; ty++ {
		for tx := x0; tx < x1; tx++ {
			cell := gg.Matrix{A: 1, C: float64(tx), E: -1, F: float64(ty + 1)}
			r.dc.SetTransform(base.Multiply(cell))
			r.dc.DrawImageEx(img, opts)
		}
	}
	return nil
}

// texBounds returns the integer cell range covering the coordinates.
func texBounds(tc [4]rowan.Vec2) (x0, x1, y0, y1 int) {
	minX, maxX, minY, maxY := tc[0].X, tc[0].X, tc[0].Y, tc[0].Y
	for _, p := range tc[1:] {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}
	return floor(minX), ceil(maxX), floor(minY), ceil(maxY)
}

func floor(v float64) int { return int(math.Floor(v)) }

func ceil(v float64) int { return int(math.Ceil(v)) }
