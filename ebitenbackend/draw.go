package ebitenbackend

import (
	"image"
	"math"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/rowan"
)

// vertex builds a vertex at device point d sampling source pixel s, with
// the color premultiplied.
func vertex(d, s rowan.Vec2, c rowan.Color) ebiten.Vertex {
	return ebiten.Vertex{
		DstX:   float32(d.X),
		DstY:   float32(d.Y),
		SrcX:   float32(s.X),
		SrcY:   float32(s.Y),
		ColorR: float32(c.R * c.A),
		ColorG: float32(c.G * c.A),
		ColorB: float32(c.B * c.A),
		ColorA: float32(c.A),
	}
}

// whiteCenter samples the middle of the white pixel.
var whiteCenter = rowan.Vec2{X: 0.5, Y: 0.5}

// polygon appends a convex polygon as a triangle fan. src holds the source
// pixel of each point; a nil src samples the white pixel.
func (r *renderer) polygon(pts, src []rowan.Vec2, c rowan.Color) {
	if len(pts) < 3 {
		return
	}
	base := uint32(len(r.verts))
	for i, p := range pts {
		s := whiteCenter
		if src != nil {
			s = src[i]
		}
		r.verts = append(r.verts, vertex(p, s, c))
	}
	for i := 1; i+1 < len(pts); i++ {
		r.inds = append(r.inds, base, base+uint32(i), base+uint32(i)+1)
	}
}

func (r *renderer) reset() {
	r.verts = r.verts[:0]
	r.inds = r.inds[:0]
}

// boundingBox returns the smallest pixel rectangle covering pts.
func boundingBox(pts []rowan.Vec2) image.Rectangle {
	minX, maxX, minY, maxY := pts[0].X, pts[0].X, pts[0].Y, pts[0].Y
	for _, p := range pts[1:] {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}
	return image.Rect(
		int(math.Floor(minX)), int(math.Floor(minY)),
		int(math.Ceil(maxX)), int(math.Ceil(maxY)),
	)
}

// texCoord maps (s, t) in texture space to a source pixel of rect. t = 0
// is the bottom edge, so image row 0 lands at t = 1.
func texCoord(rect image.Rectangle, s, t float64) rowan.Vec2 {
	return rowan.Vec2{
		X: float64(rect.Min.X) + s*float64(rect.Dx()),
		Y: float64(rect.Min.Y) + (1-t)*float64(rect.Dy()),
	}
}

// address picks the sampling mode for tex: repeat when an axis wraps.
func address(tex *rowan.Texture) ebiten.Address {
	if tex == nil {
		return ebiten.AddressUnsafe
	}
	if tex.Flags()&rowan.HMode == rowan.HWrap || tex.Flags()&rowan.VMode == rowan.VWrap {
		return ebiten.AddressRepeat
	}
	return ebiten.AddressClampToZero
}

// sourceImage returns the image draws of tex sample from. Repeating
// addresses wrap within it, so sub-textures are cut out.
func sourceImage(img *ebiten.Image, rect image.Rectangle) *ebiten.Image {
	if rect == img.Bounds() {
		return img
	}
	return img.SubImage(rect).(*ebiten.Image)
}

// --- Sprite ---

func (r *renderer) initSprite(e *rowan.Entity) error {
	e.Hooks.Render = r.drawSprite
	return nil
}

// spriteQuad returns the local corners of a sprite with hotspot hs, in
// the order bottom-left, bottom-right, top-right, top-left.
func spriteQuad(hs rowan.Vec2) [4]rowan.Vec2 {
	return [4]rowan.Vec2{
		{X: -hs.X, Y: -hs.Y},
		{X: 1 - hs.X, Y: -hs.Y},
		{X: 1 - hs.X, Y: 1 - hs.Y},
		{X: -hs.X, Y: 1 - hs.Y},
	}
}

// drawSprite draws the unit quad of e. Image row 0 is the top edge.
func (r *renderer) drawSprite(e *rowan.Entity) error {
	col := e.WorldColor()
	if col.A <= 0 {
		return nil
	}
	tex := e.Texture()
	img, rect, err := source(tex)
	if err != nil {
		return err
	}
	quad := spriteQuad(e.Hotspot())
	var pts, src [4]rowan.Vec2
	unit := [4]rowan.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
	for i, l := range quad {
		pts[i] = r.device(e.LocalToWorld(l.X, l.Y))
		src[i] = texCoord(rect, unit[i].X, unit[i].Y)
	}
	r.reset()
	r.polygon(pts[:], src[:], col)
	r.flush(sourceImage(img, rect), filter(tex), ebiten.AddressUnsafe)
	return nil
}

// --- Fill ---

func (r *renderer) initFill(e *rowan.Entity) error {
	e.Hooks.Render = r.drawFill
	return nil
}

// drawFill draws the client area of e. The texture repeats along axes that
// wrap; other axes are cut to the unit cell at the Fill origin.
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
	r.reset()
	if tex == nil {
		var pts [4]rowan.Vec2
		for i, c := range g.Corners {
			pts[i] = r.device(c.X, c.Y)
		}
		r.polygon(pts[:], nil, col)
		r.flush(ensureWhitePixel(), ebiten.FilterNearest, ebiten.AddressUnsafe)
		return nil
	}

	img, rect, err := source(tex)
	if err != nil {
		return err
	}
	local := g.TexCoords[:]
	if tex.Flags()&rowan.HMode != rowan.HWrap {
		local = clipBand(local, 0, 0, 1)
	}
	if tex.Flags()&rowan.VMode != rowan.VWrap {
		local = clipBand(local, 1, 0, 1)
	}
	pts := make([]rowan.Vec2, len(local))
	src := make([]rowan.Vec2, len(local))
	for i, l := range local {
		pts[i] = r.device(e.LocalToWorld(l.X, l.Y))
		src[i] = texCoord(rect, l.X, l.Y)
	}
	r.polygon(pts, src, col)
	r.flush(sourceImage(img, rect), filter(tex), address(tex))
	return nil
}

// clipBand cuts the convex polygon poly to lo <= p[axis] <= hi, where axis
// 0 is X and 1 is Y.
func clipBand(poly []rowan.Vec2, axis int, lo, hi float64) []rowan.Vec2 {
	coord := func(p rowan.Vec2) float64 {
		if axis == 0 {
			return p.X
		}
		return p.Y
	}
	poly = clipHalf(poly, func(p rowan.Vec2) float64 { return coord(p) - lo })
	return clipHalf(poly, func(p rowan.Vec2) float64 { return hi - coord(p) })
}

// clipHalf keeps the part of poly where dist >= 0.
func clipHalf(poly []rowan.Vec2, dist func(rowan.Vec2) float64) []rowan.Vec2 {
	var out []rowan.Vec2
	for i, cur := range poly {
		prev := poly[(i+len(poly)-1)%len(poly)]
		dc, dp := dist(cur), dist(prev)
		if (dc >= 0) != (dp >= 0) {
			f := dp / (dp - dc)
			out = append(out, rowan.Vec2{X: prev.X + (cur.X-prev.X)*f, Y: prev.Y + (cur.Y-prev.Y)*f})
		}
		if dc >= 0 {
			out = append(out, cur)
		}
	}
	return out
}

// --- Primitive ---

func (r *renderer) initPrimitive(e *rowan.Entity) error {
	e.Hooks.Render = r.drawPrimitive
	return nil
}

// drawPrimitive assembles the vertices of e by its primitive kind. Points
// and lines are one pixel wide and untextured; filled kinds sample the
// texture at the vertex coordinates.
func (r *renderer) drawPrimitive(e *rowan.Entity) error {
	verts := e.VertexData()
	col := e.WorldColor()
	if len(verts) == 0 || col.A <= 0 {
		return nil
	}
	pts := make([]rowan.Vec2, len(verts))
	for i, v := range verts {
		pts[i] = r.device(e.LocalToWorld(v.X, v.Y))
	}
	r.reset()

	switch kind := e.PrimitiveKind(); kind {
	case rowan.Points:
		for _, p := range pts {
			r.polygon(pointQuad(p), nil, col)
		}
	case rowan.Lines:
		for i := 0; i+1 < len(pts); i += 2 {
			r.polygon(lineQuad(pts[i], pts[i+1]), nil, col)
		}
	case rowan.LineStrip, rowan.LineLoop:
		for i := 0; i+1 < len(pts); i++ {
			r.polygon(lineQuad(pts[i], pts[i+1]), nil, col)
		}
		if kind == rowan.LineLoop && len(pts) > 2 {
			r.polygon(lineQuad(pts[len(pts)-1], pts[0]), nil, col)
		}
	default:
		tex := e.Texture()
		img, rect, err := source(tex)
		if err != nil {
			return err
		}
		for _, t := range kind.Triangles(len(pts)) {
			tri := make([]rowan.Vec2, 3)
			src := make([]rowan.Vec2, 3)
			for j, k := range t {
				tri[j] = pts[k]
				// Vertex texture coordinates index image rows directly.
				src[j] = texCoord(rect, verts[k].U, 1-verts[k].V)
			}
			r.polygon(tri, src, col)
		}
		r.flush(sourceImage(img, rect), filter(tex), address(tex))
		return nil
	}
	r.flush(ensureWhitePixel(), ebiten.FilterNearest, ebiten.AddressUnsafe)
	return nil
}

// pointQuad returns the one pixel square centered on p.
func pointQuad(p rowan.Vec2) []rowan.Vec2 {
	return []rowan.Vec2{
		{X: p.X - 0.5, Y: p.Y - 0.5},
		{X: p.X + 0.5, Y: p.Y - 0.5},
		{X: p.X + 0.5, Y: p.Y + 0.5},
		{X: p.X - 0.5, Y: p.Y + 0.5},
	}
}

// lineQuad returns a one pixel wide quad along the segment from a to b.
func lineQuad(a, b rowan.Vec2) []rowan.Vec2 {
	dx, dy := b.X-a.X, b.Y-a.Y
	l := math.Hypot(dx, dy)
	if l == 0 {
		return pointQuad(a)
	}
	nx, ny := -dy/l*0.5, dx/l*0.5
	return []rowan.Vec2{
		{X: a.X + nx, Y: a.Y + ny},
		{X: b.X + nx, Y: b.Y + ny},
		{X: b.X - nx, Y: b.Y - ny},
		{X: a.X - nx, Y: a.Y - ny},
	}
}
