package rowan

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// --- Constant velocity ---

func (e *Entity) updateAnimated() {
	if e.vel.IsZero() {
		e.flags &^= FlagAnimated
	} else {
		e.flags |= FlagAnimated
	}
}

// SetVelocity sets the per-second movement in x and y.
func (e *Entity) SetVelocity(dx, dy float64) {
	e.vel.DX = dx
	e.vel.DY = dy
	e.updateAnimated()
}

// SetVelocity3D sets the per-second movement in x, y and z.
func (e *Entity) SetVelocity3D(dx, dy, dz float64) {
	e.vel.DX = dx
	e.vel.DY = dy
	e.vel.DZ = dz
	e.updateAnimated()
}

// SetScaleVelocity sets the per-second change of scale.
func (e *Entity) SetScaleVelocity(ds float64) {
	e.vel.DScale = ds
	e.updateAnimated()
}

// SetRotationVelocity sets the per-second rotation in radians.
func (e *Entity) SetRotationVelocity(dr float64) {
	e.vel.DRotation = dr
	e.updateAnimated()
}

// Stop clears every velocity component.
func (e *Entity) Stop() {
	e.vel = Velocity{}
	e.flags &^= FlagAnimated
}

// Velocity returns the current velocity.
func (e *Entity) Velocity() Velocity { return e.vel }

// Animated reports whether any velocity component is nonzero.
func (e *Entity) Animated() bool { return e.flags&FlagAnimated != 0 }

// Advance moves the context clock forward by dt seconds and integrates the
// velocity of every animated entity in the tree, marking each dirty.
func (c *Context) Advance(dt float64) {
	c.now += dt
	if c.root != nil {
		advanceEntity(c.root, dt)
	}
}

func advanceEntity(e *Entity, dt float64) {
	if e.flags&FlagAnimated != 0 {
		e.local.X += e.vel.DX * dt
		e.local.Y += e.vel.DY * dt
		e.local.Z += e.vel.DZ * dt
		e.local.Scale += e.vel.DScale * dt
		e.local.Rotation += e.vel.DRotation * dt
		e.flags |= FlagDirty
	}
	for ch := e.first; ch != nil; ch = ch.next {
		advanceEntity(ch, dt)
	}
}

// --- Tweens ---

// TweenGroup animates up to 4 entity parameters simultaneously. Create one
// with TweenParams or the convenience constructors and call Update(dt)
// each frame. Values are written through SetParameter, so the entity is
// marked dirty. If the target entity is destroyed the group stops.
//
// There is no global tween manager; callers drive Update themselves.
type TweenGroup struct {
	tweens [4]*gween.Tween
	params [4]Param
	count  int
	target *Entity
	gen    uint32
	Done   bool
}

// Update advances all tweens by dt seconds and writes the values to the
// target. If the target has been destroyed, Done is set and nothing is
// written.
func (g *TweenGroup) Update(dt float32) {
	if g.Done {
		return
	}
	if g.target == nil || g.target.disposed || g.target.gen != g.gen {
		g.Done = true
		return
	}

	allDone := true
	for i := 0; i < g.count; i++ {
		val, finished := g.tweens[i].Update(dt)
		// Parameters were validated when the group was built.
		_ = g.target.SetParameter(g.params[i], float64(val))
		if !finished {
			allDone = false
		}
	}
	g.Done = allDone
}

// Reset rewinds every tween to its start. An empty group stays done.
func (g *TweenGroup) Reset() {
	for i := 0; i < g.count; i++ {
		g.tweens[i].Reset()
	}
	g.Done = g.count == 0
}

// TweenParams builds a TweenGroup that moves each parameter in params from
// its current value to the matching entry of to over duration seconds. At
// most 4 parameters are accepted; parameters the entity does not have fail
// with CodeInvalidParam.
func TweenParams(e *Entity, params []Param, to []float64, duration float32, fn ease.TweenFunc) (*TweenGroup, error) {
	const op = "TweenParams"
	if len(params) != len(to) || len(params) == 0 || len(params) > 4 {
		return nil, e.ctx.fail(op, CodeBadArguments)
	}
	if fn == nil {
		fn = ease.Linear
	}
	g := &TweenGroup{count: len(params), target: e, gen: e.gen}
	for i, p := range params {
		from, err := e.GetParameter(p)
		if err != nil {
			return nil, e.ctx.failWith(op, err)
		}
		g.params[i] = p
		g.tweens[i] = gween.New(float32(from), float32(to[i]), duration, fn)
	}
	return g, nil
}

// tweenOrDone builds a group with TweenParams. For a nil or destroyed e,
// or parameters e does not have, the group is already done and Update does
// nothing.
func tweenOrDone(e *Entity, params []Param, to []float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	if e == nil || e.disposed {
		return &TweenGroup{Done: true}
	}
	g, err := TweenParams(e, params, to, duration, fn)
	if err != nil {
		return &TweenGroup{Done: true}
	}
	return g
}

// TweenPosition animates the local x and y of e.
func TweenPosition(e *Entity, toX, toY float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	return tweenOrDone(e, []Param{ParamX, ParamY}, []float64{toX, toY}, duration, fn)
}

// TweenScale animates the local scale of e.
func TweenScale(e *Entity, to float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	return tweenOrDone(e, []Param{ParamScale}, []float64{to}, duration, fn)
}

// TweenRotation animates the local rotation of e.
func TweenRotation(e *Entity, to float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	return tweenOrDone(e, []Param{ParamRotation}, []float64{to}, duration, fn)
}

// TweenColor animates all four components of the local color of e.
func TweenColor(e *Entity, to Color, duration float32, fn ease.TweenFunc) *TweenGroup {
	return tweenOrDone(e,
		[]Param{ParamRed, ParamGreen, ParamBlue, ParamAlpha},
		[]float64{to.R, to.G, to.B, to.A},
		duration, fn)
}
