package termbackend

import (
	"math"

	"github.com/phanxgames/rowan"
)

// plot paints one cell if it is inside the clip rectangle.
func (r *renderer) plot(x, y int, c rowan.Color) {
	cr := r.clipRect()
	if x >= cr.x0 && x < cr.x1 && y >= cr.y0 && y < cr.y1 {
		r.put(x, y, c)
	}
}

// toCells maps local points of e to cell coordinates.
func (r *renderer) toCells(e *rowan.Entity, local ...rowan.Vec2) []vec {
	pts := make([]vec, len(local))
	p := r.top()
	for i, l := range local {
		wx, wy := e.LocalToWorld(l.X, l.Y)
		pts[i].x, pts[i].y = p.cell(wx, wy)
	}
	return pts
}

// prepare renders an on-demand texture before it is sampled.
func prepare(tex *rowan.Texture) error {
	if tex == nil {
		return nil
	}
	phys, _, _ := tex.Physical()
	return phys.Prepare()
}

// texel reads pixel (x, y) of tex. ok is false when tex has no pixel data.
func texel(tex *rowan.Texture, x, y int) (c rowan.Color, ok bool) {
	phys, ox, oy := tex.Physical()
	pix := phys.Bytes()
	size := phys.Format().PixelSize()
	if size == 0 || pix == nil {
		return c, false
	}
	off := (oy+y)*phys.Pitch() + (ox+x)*size
	p := pix[off : off+size]
	switch phys.Format() {
	case rowan.FormatI:
		v := float64(p[0]) / 255
		return rowan.Color{R: v, G: v, B: v, A: 1}, true
	case rowan.FormatRGB:
		return rowan.Color{R: float64(p[0]) / 255, G: float64(p[1]) / 255, B: float64(p[2]) / 255, A: 1}, true
	}
	return rowan.Color{R: float64(p[0]) / 255, G: float64(p[1]) / 255, B: float64(p[2]) / 255, A: float64(p[3]) / 255}, true
}

// sample returns the nearest texel to (s, t), both in [0, 1], with t = 0
// on image row 0.
func sample(tex *rowan.Texture, s, t float64) (rowan.Color, bool) {
	w, h := tex.Size()
	if w == 0 || h == 0 {
		return rowan.Color{}, false
	}
	x := min(max(int(s*float64(w)), 0), w-1)
	y := min(max(int(t*float64(h)), 0), h-1)
	return texel(tex, x, y)
}

// shade modulates col by the texture at (s, t), if any.
func shade(tex *rowan.Texture, s, t float64, col rowan.Color) rowan.Color {
	if tex == nil {
		return col
	}
	if tc, ok := sample(tex, s, t); ok {
		return tc.Mul(col)
	}
	return col
}

// --- Sprite ---

func (r *renderer) initSprite(e *rowan.Entity) error {
	e.Hooks.Render = r.drawSprite
	return nil
}

// drawSprite paints the cells whose centers fall on the unit quad of e.
// Image row 0 is the top edge of the quad.
func (r *renderer) drawSprite(e *rowan.Entity) error {
	col := e.WorldColor()
	if col.A <= 0 || e.World().Scale == 0 {
		return nil
	}
	tex := e.Texture()
	if err := prepare(tex); err != nil {
		return err
	}
	hs := e.Hotspot()
	pts := r.toCells(e,
		rowan.Vec2{X: -hs.X, Y: -hs.Y},
		rowan.Vec2{X: 1 - hs.X, Y: -hs.Y},
		rowan.Vec2{X: 1 - hs.X, Y: 1 - hs.Y},
		rowan.Vec2{X: -hs.X, Y: 1 - hs.Y},
	)
	r.cells(bounds(pts), func(x, y int, wx, wy float64) {
		lx, ly, err := e.WorldToLocal(wx, wy)
		if err != nil {
			return
		}
		u, v := lx+hs.X, ly+hs.Y
		if u < 0 || u >= 1 || v < 0 || v >= 1 {
			return
		}
		r.put(x, y, shade(tex, u, 1-v, col))
	})
	return nil
}

// --- Fill ---

func (r *renderer) initFill(e *rowan.Entity) error {
	e.Hooks.Render = r.drawFill
	return nil
}

// drawFill paints the client area of e. The texture repeats along axes
// that wrap and covers the single unit cell at the Fill origin otherwise.
func (r *renderer) drawFill(e *rowan.Entity) error {
	col := e.WorldColor()
	if col.A <= 0 {
		return nil
	}
	g, err := e.FillGeometry()
	if rowan.CodeOf(err) == rowan.CodeDivByZero {
		return nil
	}
	if err != nil {
		return err
	}
	tex := e.Texture()
	if err := prepare(tex); err != nil {
		return err
	}
	p := r.top()
	pts := make([]vec, len(g.Corners))
	for i, c := range g.Corners {
		pts[i].x, pts[i].y = p.cell(c.X, c.Y)
	}
	r.cells(bounds(pts), func(x, y int, wx, wy float64) {
		if !inside(pts, float64(x)+0.5, float64(y)+0.5) {
			return
		}
		if tex == nil {
			r.put(x, y, col)
			return
		}
		fx, fy, err := e.WorldToLocal(wx, wy)
		if err != nil {
			return
		}
		s, ok := tile(fx, tex.Flags()&rowan.HMode == rowan.HWrap)
		t, ok2 := tile(fy, tex.Flags()&rowan.VMode == rowan.VWrap)
		if !ok || !ok2 {
			return
		}
		r.put(x, y, shade(tex, s, 1-t, col))
	})
	return nil
}

// tile reduces a Fill-local coordinate to its position within one texture
// repeat. Without wrapping only [0, 1) is covered.
func tile(v float64, wrap bool) (float64, bool) {
	if wrap {
		return v - math.Floor(v), true
	}
	return v, v >= 0 && v < 1
}

// --- Primitive ---

func (r *renderer) initPrimitive(e *rowan.Entity) error {
	e.Hooks.Render = r.drawPrimitive
	return nil
}

// drawPrimitive assembles the vertices of e by its primitive kind. Filled
// kinds are textured with the vertex texture coordinates.
func (r *renderer) drawPrimitive(e *rowan.Entity) error {
	verts := e.VertexData()
	col := e.WorldColor()
	if len(verts) == 0 || col.A <= 0 {
		return nil
	}
	tex := e.Texture()
	if err := prepare(tex); err != nil {
		return err
	}
	local := make([]rowan.Vec2, len(verts))
	for i, v := range verts {
		local[i] = rowan.Vec2{X: v.X, Y: v.Y}
	}
	pts := r.toCells(e, local...)

	switch kind := e.PrimitiveKind(); kind {
	case rowan.Points:
		for _, p := range pts {
			r.plot(int(math.Floor(p.x)), int(math.Floor(p.y)), col)
		}
	case rowan.Lines:
		for i := 0; i+1 < len(pts); i += 2 {
			r.line(pts[i], pts[i+1], col)
		}
	case rowan.LineStrip, rowan.LineLoop:
		for i := 0; i+1 < len(pts); i++ {
			r.line(pts[i], pts[i+1], col)
		}
		if kind == rowan.LineLoop && len(pts) > 2 {
			r.line(pts[len(pts)-1], pts[0], col)
		}
	default:
		for _, t := range kind.Triangles(len(pts)) {
			r.triangle(t, pts, verts, tex, col)
		}
	}
	return nil
}

// line paints the cells along the segment from a to b.
func (r *renderer) line(a, b vec, c rowan.Color) {
	steps := int(math.Ceil(max(math.Abs(b.x-a.x), math.Abs(b.y-a.y))))
	if steps == 0 {
		r.plot(int(math.Floor(a.x)), int(math.Floor(a.y)), c)
		return
	}
	for i := 0; i <= steps; i++ {
		f := float64(i) / float64(steps)
		r.plot(int(math.Floor(a.x+(b.x-a.x)*f)), int(math.Floor(a.y+(b.y-a.y)*f)), c)
	}
}

// triangle paints the cells whose centers fall inside triangle t,
// interpolating texture coordinates across it.
func (r *renderer) triangle(t [3]int, pts []vec, verts []rowan.Vertex, tex *rowan.Texture, col rowan.Color) {
	a, b, c := pts[t[0]], pts[t[1]], pts[t[2]]
	r.cells(bounds([]vec{a, b, c}), func(x, y int, _, _ float64) {
		wa, wb, wc, ok := barycentric(a, b, c, float64(x)+0.5, float64(y)+0.5)
		if !ok {
			return
		}
		va, vb, vc := verts[t[0]], verts[t[1]], verts[t[2]]
		u := wa*va.U + wb*vb.U + wc*vc.U
		v := wa*va.V + wb*vb.V + wc*vc.V
		r.put(x, y, shade(tex, u, v, col))
	})
}

// barycentric returns the weights of (x, y) relative to triangle abc. ok
// is false outside the triangle or for a degenerate one.
func barycentric(a, b, c vec, x, y float64) (wa, wb, wc float64, ok bool) {
	d := (b.y-c.y)*(a.x-c.x) + (c.x-b.x)*(a.y-c.y)
	if d == 0 {
		return 0, 0, 0, false
	}
	wa = ((b.y-c.y)*(x-c.x) + (c.x-b.x)*(y-c.y)) / d
	wb = ((c.y-a.y)*(x-c.x) + (a.x-c.x)*(y-c.y)) / d
	wc = 1 - wa - wb
	return wa, wb, wc, wa >= 0 && wb >= 0 && wc >= 0
}
