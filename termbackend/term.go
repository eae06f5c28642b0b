// Package termbackend renders a rowan scene into a terminal through tcell.
// Every character cell is one pixel, painted with its background color.
// Importing the package registers the "term" backend; the platform value
// passed to rowan.Open is an initialized tcell.Screen, which the
// application keeps owning:
//
//	screen, _ := tcell.NewScreen()
//	_ = screen.Init()
//	defer screen.Fini()
//	ctx, err := rowan.Open("term", 0, screen)
//
// Cells are sampled at their centers. Window clipping uses the bounding
// box of the window, so rotated windows clip loosely.
package termbackend

import (
	"fmt"
	"math"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/phanxgames/rowan"
)

// Name is the registered backend name.
const Name = "term"

// blank is the rune written into painted cells.
const blank = ' '

func init() {
	rowan.RegisterBackend(Name, newBackend)
}

// projection maps world coordinates to cell coordinates.
type projection struct {
	sx, tx, sy, ty float64
}

func (p projection) cell(x, y float64) (float64, float64) {
	return x*p.sx + p.tx, y*p.sy + p.ty
}

func (p projection) world(cx, cy float64) (float64, float64) {
	return (cx - p.tx) / p.sx, (cy - p.ty) / p.sy
}

// rect is a half-open cell rectangle.
type rect struct {
	x0, y0, x1, y1 int
}

func (r rect) intersect(o rect) rect {
	return rect{max(r.x0, o.x0), max(r.y0, o.y0), min(r.x1, o.x1), min(r.y1, o.y1)}
}

func (r rect) empty() bool { return r.x0 >= r.x1 || r.y0 >= r.y1 }

// bounds returns the cells whose centers lie inside the bounding box of
// pts.
func bounds(pts []vec) rect {
	minX, maxX, minY, maxY := pts[0].x, pts[0].x, pts[0].y, pts[0].y
	for _, p := range pts[1:] {
		minX, maxX = min(minX, p.x), max(maxX, p.x)
		minY, maxY = min(minY, p.y), max(maxY, p.y)
	}
	return rect{
		int(math.Ceil(minX - 0.5)), int(math.Ceil(minY - 0.5)),
		int(math.Ceil(maxX - 0.5)), int(math.Ceil(maxY - 0.5)),
	}
}

type vec struct{ x, y float64 }

// renderer is the per-context state of the backend.
type renderer struct {
	screen tcell.Screen
	log    *zap.Logger
	w, h   int

	proj []projection
	clip []rect
}

func newBackend(platform any) (*rowan.Backend, error) {
	screen, ok := platform.(tcell.Screen)
	if !ok || screen == nil {
		return nil, fmt.Errorf("term: platform must be a tcell.Screen, got %T", platform)
	}
	r := &renderer{screen: screen}
	return &rowan.Backend{
		Name:          Name,
		Open:          r.open,
		PreRender:     r.preRender,
		PostRender:    r.postRender,
		InitLayer:     r.initLayer,
		InitWindow:    r.initWindow,
		InitSprite:    r.initSprite,
		InitPrimitive: r.initPrimitive,
		InitFill:      r.initFill,
	}, nil
}

func (r *renderer) open(ctx *rowan.Context) error {
	r.log = ctx.Logger().Named(Name)
	w, h := r.screen.Size()
	if w <= 0 || h <= 0 {
		return rowan.Errorf(rowan.CodeDriverOpen, "term: screen has no cells (%dx%d); call Init first", w, h)
	}
	r.log.Debug("screen attached", zap.Int("cols", w), zap.Int("rows", h))
	return nil
}

func (r *renderer) preRender(*rowan.Context) error {
	w, h := r.screen.Size()
	if w != r.w || h != r.h {
		r.log.Debug("screen resized", zap.Int("cols", w), zap.Int("rows", h))
		r.w, r.h = w, h
	}
	r.screen.Clear()
	r.proj = append(r.proj[:0], r.projection(rowan.View{Left: -1, Right: 1, Bottom: -1, Top: 1}))
	r.clip = append(r.clip[:0], rect{0, 0, w, h})
	return nil
}

func (r *renderer) postRender(*rowan.Context) error {
	r.screen.Show()
	return nil
}

// projection maps view onto the whole screen, Top at row 0.
func (r *renderer) projection(v rowan.View) projection {
	sx := float64(r.w) / v.Width()
	sy := -float64(r.h) / v.Height()
	return projection{sx: sx, tx: -v.Left * sx, sy: sy, ty: -v.Top * sy}
}

func (r *renderer) top() projection { return r.proj[len(r.proj)-1] }

func (r *renderer) clipRect() rect { return r.clip[len(r.clip)-1] }

// cells calls fn with the center of every unclipped cell in area, in world
// coordinates.
func (r *renderer) cells(area rect, fn func(x, y int, wx, wy float64)) {
	area = area.intersect(r.clipRect())
	if area.empty() {
		return
	}
	p := r.top()
	for y := area.y0; y < area.y1; y++ {
		for x := area.x0; x < area.x1; x++ {
			wx, wy := p.world(float64(x)+0.5, float64(y)+0.5)
			fn(x, y, wx, wy)
		}
	}
}

// put paints cell (x, y), blending with its current background when c is
// translucent.
func (r *renderer) put(x, y int, c rowan.Color) {
	if c.A <= 0 {
		return
	}
	if c.A < 1 {
		_, _, style, _ := r.screen.GetContent(x, y)
		_, bg, _ := style.Decompose()
		br, bgg, bb := bg.RGB()
		under := rowan.Color{R: channel(br), G: channel(bgg), B: channel(bb)}
		c = rowan.Color{
			R: c.R*c.A + under.R*(1-c.A),
			G: c.G*c.A + under.G*(1-c.A),
			B: c.B*c.A + under.B*(1-c.A),
		}
	}
	style := tcell.StyleDefault.Background(tcell.NewRGBColor(level(c.R), level(c.G), level(c.B)))
	r.screen.SetContent(x, y, blank, nil, style)
}

// channel converts a tcell channel to [0, 1]; unset colors read as black.
func channel(v int32) float64 {
	if v < 0 {
		return 0
	}
	return float64(v) / 255
}

func level(v float64) int32 {
	return int32(math.Round(min(max(v, 0), 1) * 255))
}

// --- Layer ---

func (r *renderer) initLayer(e *rowan.Entity) error {
	e.Hooks.Render = func(e *rowan.Entity) error {
		r.proj = append(r.proj, r.projection(e.View()))
		if e.Flags()&rowan.FlagClear != 0 {
			bg := e.BGColor().Mul(e.WorldColor())
			r.cells(rect{0, 0, r.w, r.h}, func(x, y int, _, _ float64) { r.put(x, y, bg) })
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
		pts := make([]vec, len(corners))
		for i, c := range corners {
			x, y := c.X, c.Y
			if p := e.Parent(); p != nil {
				x, y = p.LocalToWorld(x, y)
			}
			pts[i].x, pts[i].y = r.top().cell(x, y)
		}
		area := bounds(pts)
		if e.Flags()&rowan.FlagClear != 0 {
			bg := e.BGColor().Mul(e.WorldColor())
			r.cells(area, func(x, y int, _, _ float64) {
				if inside(pts, float64(x)+0.5, float64(y)+0.5) {
					r.put(x, y, bg)
				}
			})
		}
		if e.Flags()&rowan.FlagClip != 0 {
			r.clip = append(r.clip, r.clipRect().intersect(area))
		}
		return nil
	}
	e.Hooks.RenderPost = func(e *rowan.Entity) error {
		if e.Flags()&rowan.FlagClip != 0 {
			r.clip = r.clip[:len(r.clip)-1]
		}
		return nil
	}
	return nil
}

// inside reports whether (x, y) lies inside the convex polygon pts, in
// either winding.
func inside(pts []vec, x, y float64) bool {
	var pos, neg bool
	for i := range pts {
		a, b := pts[i], pts[(i+1)%len(pts)]
		cross := (b.x-a.x)*(y-a.y) - (b.y-a.y)*(x-a.x)
		pos = pos || cross > 0
		neg = neg || cross < 0
		if pos && neg {
			return false
		}
	}
	return true
}
