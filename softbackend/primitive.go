package softbackend

import (
	"image"

	"github.com/gogpu/gg"

	"github.com/phanxgames/rowan"
)

// pointRadius is the radius in pixels of a Points vertex.
const pointRadius = 0.5

func (r *renderer) initPrimitive(e *rowan.Entity) error {
	e.Hooks.Render = r.drawPrimitive
	return nil
}

// drawPrimitive assembles the vertices of e by its primitive kind. Filled
// kinds are textured per triangle when e has a texture; line and point
// kinds always use the entity color.
func (r *renderer) drawPrimitive(e *rowan.Entity) error {
	verts := e.VertexData()
	col := e.WorldColor()
	if len(verts) == 0 || col.A <= 0 {
		return nil
	}
	w := e.World()
	m := e.Matrix()
	pts := make([]gg.Point, len(verts))
	for i, v := range verts {
		x, y := m.TransformPoint(w.X, w.Y, v.X, v.Y)
		pts[i] = r.device(x, y)
	}

	r.dc.Push()
	defer r.dc.Pop()
	r.dc.Identity()
	r.setColor(col)

	switch e.PrimitiveKind() {
	case rowan.Points:
		for _, p := range pts {
			r.dc.DrawPoint(p.X, p.Y, pointRadius)
		}
		return r.dc.Fill()
	case rowan.Lines:
		for i := 0; i+1 < len(pts); i += 2 {
			r.dc.MoveTo(pts[i].X, pts[i].Y)
			r.dc.LineTo(pts[i+1].X, pts[i+1].Y)
		}
		return r.stroke()
	case rowan.LineStrip, rowan.LineLoop:
		r.dc.MoveTo(pts[0].X, pts[0].Y)
		for _, p := range pts[1:] {
			r.dc.LineTo(p.X, p.Y)
		}
		if e.PrimitiveKind() == rowan.LineLoop {
			r.dc.ClosePath()
		}
		return r.stroke()
	}

	tris := e.PrimitiveKind().Triangles(len(pts))
	if tex := e.Texture(); tex != nil {
		img, rect, err := source(tex)
		if err != nil {
			return err
		}
		if img != nil {
			return r.texturedTriangles(tex, img, rect, col.A, verts, pts, tris)
		}
	}
	for _, t := range tris {
		r.polygon([]gg.Point{pts[t[0]], pts[t[1]], pts[t[2]]})
	}
	return r.dc.Fill()
}

func (r *renderer) stroke() error {
	r.dc.SetLineWidth(1)
	return r.dc.Stroke()
}

// texturedTriangles draws each triangle with the affine texture mapping
// given by its three texture coordinates. Triangles whose coordinates are
// collinear fall back to the plain color.
func (r *renderer) texturedTriangles(tex *rowan.Texture, img *gg.ImageBuf, src image.Rectangle, opacity float64, verts []rowan.Vertex, pts []gg.Point, tris [][3]int) error {
	tw, th := tex.Size()
	opts := gg.DrawImageOptions{
		DstWidth:      float64(tw),
		DstHeight:     float64(th),
		SrcRect:       &src,
		Interpolation: interpolation(tex),
		Opacity:       opacity,
		BlendMode:     gg.BlendNormal,
	}
	for _, t := range tris {
		var tc, dp [3]gg.Point
		for k, idx := range t {
			tc[k] = gg.Pt(verts[idx].U*float64(tw), verts[idx].V*float64(th))
			dp[k] = pts[idx]
		}
		r.dc.Push()
		r.polygon(dp[:])
		m, ok := affine(tc, dp)
		if !ok {
			err := r.dc.Fill()
			r.dc.Pop()
			if err != nil {
				return err
			}
			continue
		}
		r.dc.Clip()
		r.dc.SetTransform(m)
		r.dc.DrawImageEx(img, opts)
		r.dc.Pop()
	}
	return nil
}

// affine solves for the matrix mapping the three points of from onto to.
func affine(from, to [3]gg.Point) (gg.Matrix, bool) {
	s1x, s1y := from[1].X-from[0].X, from[1].Y-from[0].Y
	s2x, s2y := from[2].X-from[0].X, from[2].Y-from[0].Y
	det := s1x*s2y - s2x*s1y
	if det == 0 {
		return gg.Matrix{}, false
	}
	d1x, d1y := to[1].X-to[0].X, to[1].Y-to[0].Y
	d2x, d2y := to[2].X-to[0].X, to[2].Y-to[0].Y
	m := gg.Matrix{
		A: (d1x*s2y - d2x*s1y) / det,
		B: (d2x*s1x - d1x*s2x) / det,
		D: (d1y*s2y - d2y*s1y) / det,
		E: (d2y*s1x - d1y*s2x) / det,
	}
	m.C = to[0].X - m.A*from[0].X - m.B*from[0].Y
	m.F = to[0].Y - m.D*from[0].X - m.E*from[0].Y
	return m, true
}
