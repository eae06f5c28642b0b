package rowan

import "math"

// Matrix2 is a 2x2 rotate-scale matrix in row order:
//
//	| m0  m1 |
//	| m2  m3 |
type Matrix2 [4]float64

// RotateScale returns the matrix rotating by r radians and scaling by s.
func RotateScale(r, s float64) Matrix2 {
	sin, cos := math.Sincos(r)
	return Matrix2{cos * s, -sin * s, sin * s, cos * s}
}

// Det returns the determinant.
func (m Matrix2) Det() float64 {
	return m[0]*m[3] - m[1]*m[2]
}

// Inverse returns the algebraic inverse of m. It fails with CodeDivByZero
// when the determinant is exactly zero.
func (m Matrix2) Inverse() (Matrix2, error) {
	d := m.Det()
	if d == 0 {
		return Matrix2{}, newError("Inverse", CodeDivByZero)
	}
	d = 1 / d
	return Matrix2{m[3] * d, -m[1] * d, -m[2] * d, m[0] * d}, nil
}

// Mul returns m * o.
func (m Matrix2) Mul(o Matrix2) Matrix2 {
	return Matrix2{
		m[0]*o[0] + m[1]*o[2],
		m[0]*o[1] + m[1]*o[3],
		m[2]*o[0] + m[3]*o[2],
		m[2]*o[1] + m[3]*o[3],
	}
}

// TransformPoint maps (x, y) through m and adds the offset.
func (m Matrix2) TransformPoint(xoff, yoff, x, y float64) (float64, float64) {
	return x*m[0] + y*m[1] + xoff, x*m[2] + y*m[3] + yoff
}

// InvTransformPoint subtracts the offset from (x, y) before mapping it
// through m. Pass an inverted matrix to undo TransformPoint.
func (m Matrix2) InvTransformPoint(xoff, yoff, x, y float64) (float64, float64) {
	x -= xoff
	y -= yoff
	return x*m[0] + y*m[1], x*m[2] + y*m[3]
}

// applyTransform composes the world state of e from its parent's world
// state, which must be current. The root's world state is its local state.
func applyTransform(e *Entity) {
	if p := e.parent; p != nil {
		e.world.X, e.world.Y = p.m.TransformPoint(p.world.X, p.world.Y, e.local.X, e.local.Y)
		e.world.Z = p.world.Z + e.local.Z
		e.world.Scale = p.world.Scale * e.local.Scale
		e.world.Rotation = p.world.Rotation + e.local.Rotation
		e.worldColor = p.worldColor.Mul(e.color)
	} else {
		e.world = e.local
		e.worldColor = e.color
	}
	e.m = RotateScale(e.world.Rotation, e.world.Scale)
}

// --- Transform setters ---

// SetTransform sets the whole local transform and marks e dirty.
func (e *Entity) SetTransform(x, y, z, scale, rotation float64) {
	e.local = Transform{X: x, Y: y, Z: z, Scale: scale, Rotation: rotation}
	e.flags |= FlagDirty
}

// SetPosition sets the local x and y and marks e dirty.
func (e *Entity) SetPosition(x, y float64) {
	e.local.X = x
	e.local.Y = y
	e.flags |= FlagDirty
}

// SetPosition3D sets the local x, y and z and marks e dirty.
func (e *Entity) SetPosition3D(x, y, z float64) {
	e.local.X = x
	e.local.Y = y
	e.local.Z = z
	e.flags |= FlagDirty
}

// SetScale sets the local scale and marks e dirty.
func (e *Entity) SetScale(scale float64) {
	e.local.Scale = scale
	e.flags |= FlagDirty
}

// SetRotation sets the local rotation in radians and marks e dirty.
func (e *Entity) SetRotation(rotation float64) {
	e.local.Rotation = rotation
	e.flags |= FlagDirty
}

// Move offsets the local position.
func (e *Entity) Move(dx, dy float64) {
	e.local.X += dx
	e.local.Y += dy
	e.flags |= FlagDirty
}

// Move3D offsets the local position including depth.
func (e *Entity) Move3D(dx, dy, dz float64) {
	e.local.X += dx
	e.local.Y += dy
	e.local.Z += dz
	e.flags |= FlagDirty
}

// Scale multiplies the local scale by factor.
func (e *Entity) Scale(factor float64) {
	e.local.Scale *= factor
	e.flags |= FlagDirty
}

// Rotate adds rotation radians to the local rotation.
func (e *Entity) Rotate(rotation float64) {
	e.local.Rotation += rotation
	e.flags |= FlagDirty
}

// SetColor sets the local color multiplier and marks e dirty.
func (e *Entity) SetColor(c Color) {
	e.color = c
	e.flags |= FlagDirty
}

// SetBGColor sets the background color of a Layer or Window.
func (e *Entity) SetBGColor(c Color) error {
	if e.kind != KindLayer && e.kind != KindWindow {
		return e.ctx.fail("SetBGColor", CodeWrongType)
	}
	e.bg = c
	e.flags |= FlagDirty
	return nil
}

// SetView changes the coordinate window of a Layer or Window. Extents
// with left == right or bottom == top fail with CodeBadArguments. A
// Window's size follows its new extents.
func (e *Entity) SetView(left, right, bottom, top float64) error {
	const op = "SetView"
	if e.kind != KindLayer && e.kind != KindWindow {
		return e.ctx.fail(op, CodeWrongType)
	}
	return e.setView(op, View{left, right, bottom, top})
}

// setView installs v, keeping a Window's size in step with its extents.
func (e *Entity) setView(op string, v View) error {
	if v.degenerate() {
		return e.ctx.fail(op, CodeBadArguments)
	}
	e.view = v
	if e.kind == KindWindow {
		e.width, e.height = v.Width(), v.Height()
	}
	e.flags |= FlagDirty
	return nil
}

// SetTexture replaces the texture of a Sprite, Primitive or Fill. The new
// texture is retained before the old one is released, so setting the same
// texture again is safe. tex may be nil.
func (e *Entity) SetTexture(tex *Texture) error {
	const op = "SetTexture"
	if !e.kind.textured() {
		return e.ctx.fail(op, CodeNotSupported)
	}
	if tex != nil {
		if tex.ctx != e.ctx || tex.destroyed {
			return e.ctx.fail(op, CodeBadArguments)
		}
		tex.retain()
	}
	if e.tex != nil {
		e.tex.release()
	}
	e.tex = tex
	e.flags |= FlagDirty
	return nil
}

// --- Getters ---

// Local returns the local transform.
func (e *Entity) Local() Transform { return e.local }

// World returns the world transform computed by the last Render.
func (e *Entity) World() Transform { return e.world }

// Matrix returns the world rotate-scale matrix computed by the last Render.
func (e *Entity) Matrix() Matrix2 { return e.m }

// Color returns the local color multiplier.
func (e *Entity) Color() Color { return e.color }

// WorldColor returns the composed color computed by the last Render.
func (e *Entity) WorldColor() Color { return e.worldColor }

// --- Coordinate conversion ---

// LocalToWorld maps a point in e's local space to world space using the
// transform of the last Render.
func (e *Entity) LocalToWorld(x, y float64) (float64, float64) {
	return e.m.TransformPoint(e.world.X, e.world.Y, x, y)
}

// WorldToLocal maps a world point into e's local space. It fails with
// CodeDivByZero when the world scale is zero.
func (e *Entity) WorldToLocal(x, y float64) (float64, float64, error) {
	if e.world.Scale == 0 {
		return 0, 0, e.ctx.fail("WorldToLocal", CodeDivByZero)
	}
	inv := RotateScale(-e.world.Rotation, 1/e.world.Scale)
	lx, ly := inv.InvTransformPoint(e.world.X, e.world.Y, x, y)
	return lx, ly, nil
}

// ViewCorners returns the corners of a Layer or Window view in its own
// coordinate space: bottom-left, bottom-right, top-right, top-left.
func (e *Entity) ViewCorners() [4]Vec2 {
	v := e.view
	return [4]Vec2{
		{v.Left, v.Bottom},
		{v.Right, v.Bottom},
		{v.Right, v.Top},
		{v.Left, v.Top},
	}
}

// FillGeometry describes the quad a Fill covers.
type FillGeometry struct {
	// Corners of the client area in world space, ordered as ViewCorners.
	Corners [4]Vec2
	// TexCoords are the Fill-local coordinates of each corner. One local
	// unit spans the texture once, as for a Sprite.
	TexCoords [4]Vec2
	// Z is the depth of the Fill relative to its client.
	Z float64
}

// FillGeometry computes the area covered by a Fill and the texture
// coordinates of its corners, from the transforms of the last Render. It
// fails with CodeWrongType for other kinds and with CodeDivByZero when the
// Fill's world scale is zero.
func (e *Entity) FillGeometry() (FillGeometry, error) {
	const op = "FillGeometry"
	var g FillGeometry
	if e.kind != KindFill || e.client == nil {
		return g, e.ctx.fail(op, CodeWrongType)
	}
	inv, err := e.m.Inverse()
	if err != nil {
		return g, e.ctx.failWith(op, err)
	}
	cl := e.client
	g.Corners = cl.ViewCorners()
	// A Layer view is already in world space. A Window view is expressed
	// in its parent's space.
	if cl.kind == KindWindow && cl.parent != nil {
		for i, p := range g.Corners {
			g.Corners[i].X, g.Corners[i].Y = cl.parent.LocalToWorld(p.X, p.Y)
		}
	}
	for i, p := range g.Corners {
		g.TexCoords[i].X, g.TexCoords[i].Y = inv.InvTransformPoint(e.world.X, e.world.Y, p.X, p.Y)
	}
	g.Z = e.world.Z - cl.world.Z
	return g, nil
}
