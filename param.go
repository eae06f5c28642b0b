package rowan

// Param indexes the generic entity parameter table used by GetParameter
// and SetParameter.
type Param uint16

const (
	ParamX Param = iota
	ParamY
	ParamZ
	ParamScale
	ParamRotation
	ParamVX
	ParamVY
	ParamVZ
	ParamVScale
	ParamVRotation
	ParamRed
	ParamGreen
	ParamBlue
	ParamAlpha
	ParamMX0
	ParamMX1
	ParamMX2
	ParamMX3

	// Layer and Window.
	ParamLeft
	ParamRight
	ParamBottom
	ParamTop
	// Window only.
	ParamWidth
	ParamHeight
	// Sprite only.
	ParamCX
	ParamCY
	// Layer and Window.
	ParamBGRed
	ParamBGGreen
	ParamBGBlue
	ParamBGAlpha

	numParams
)

var paramNames = [numParams]string{
	"x", "y", "z", "scale", "rotation",
	"vx", "vy", "vz", "vscale", "vrotation",
	"red", "green", "blue", "alpha",
	"mx0", "mx1", "mx2", "mx3",
	"left", "right", "bottom", "top",
	"width", "height",
	"cx", "cy",
	"bgred", "bggreen", "bgblue", "bgalpha",
}

// String returns the parameter name.
func (p Param) String() string {
	if p < numParams {
		return paramNames[p]
	}
	return "unknown"
}

// ParseParam looks a parameter up by its String name.
func ParseParam(name string) (Param, bool) {
	for i, n := range paramNames {
		if n == name {
			return Param(i), true
		}
	}
	return 0, false
}

// commonParam returns a pointer to the field behind a parameter every kind
// has, or nil.
func (e *Entity) commonParam(p Param) *float64 {
	switch p {
	case ParamX:
		return &e.local.X
	case ParamY:
		return &e.local.Y
	case ParamZ:
		return &e.local.Z
	case ParamScale:
		return &e.local.Scale
	case ParamRotation:
		return &e.local.Rotation
	case ParamVX:
		return &e.vel.DX
	case ParamVY:
		return &e.vel.DY
	case ParamVZ:
		return &e.vel.DZ
	case ParamVScale:
		return &e.vel.DScale
	case ParamVRotation:
		return &e.vel.DRotation
	case ParamRed:
		return &e.color.R
	case ParamGreen:
		return &e.color.G
	case ParamBlue:
		return &e.color.B
	case ParamAlpha:
		return &e.color.A
	case ParamMX0:
		return &e.m[0]
	case ParamMX1:
		return &e.m[1]
	case ParamMX2:
		return &e.m[2]
	case ParamMX3:
		return &e.m[3]
	}
	return nil
}

// kindParam returns a pointer to the field behind a kind-specific
// parameter, or nil when the kind has no such parameter. Window parameters
// are checked before the parameters Windows share with Layers.
func (e *Entity) kindParam(p Param) *float64 {
	switch e.kind {
	case KindWindow:
		switch p {
		case ParamWidth:
			return &e.width
		case ParamHeight:
			return &e.height
		}
		fallthrough
	case KindLayer:
		switch p {
		case ParamLeft:
			return &e.view.Left
		case ParamRight:
			return &e.view.Right
		case ParamBottom:
			return &e.view.Bottom
		case ParamTop:
			return &e.view.Top
		case ParamBGRed:
			return &e.bg.R
		case ParamBGGreen:
			return &e.bg.G
		case ParamBGBlue:
			return &e.bg.B
		case ParamBGAlpha:
			return &e.bg.A
		}
	case KindSprite:
		switch p {
		case ParamCX:
			return &e.hotspot.X
		case ParamCY:
			return &e.hotspot.Y
		}
	}
	return nil
}

// GetParameter reads one parameter. Parameters the entity kind does not
// have fail with CodeInvalidParam.
func (e *Entity) GetParameter(p Param) (float64, error) {
	if v := e.commonParam(p); v != nil {
		return *v, nil
	}
	if v := e.kindParam(p); v != nil {
		return *v, nil
	}
	return 0, e.ctx.fail("GetParameter", CodeInvalidParam)
}

// SetParameter writes one parameter and marks the entity dirty. Writing a
// velocity component updates the animated flag. Matrix components are
// overwritten by the next recompute of the entity. View extents that would
// collapse fail with CodeBadArguments, as with SetView; a Window's Width
// and Height always match its view.
func (e *Entity) SetParameter(p Param, value float64) error {
	v := e.commonParam(p)
	if v == nil {
		v = e.kindParam(p)
	}
	if v == nil {
		return e.ctx.fail("SetParameter", CodeInvalidParam)
	}
	switch p {
	case ParamLeft, ParamRight, ParamBottom, ParamTop, ParamWidth, ParamHeight:
		return e.setExtent(p, value)
	}
	*v = value
	switch p {
	case ParamVX, ParamVY, ParamVZ, ParamVScale, ParamVRotation:
		e.updateAnimated()
	case ParamMX0, ParamMX1, ParamMX2, ParamMX3:
		return nil
	}
	e.flags |= FlagDirty
	return nil
}

// setExtent writes one view extent or Window size parameter. Collapsed
// extents fail with CodeBadArguments and leave the view unchanged.
func (e *Entity) setExtent(p Param, value float64) error {
	v := e.view
	switch p {
	case ParamLeft:
		v.Left = value
	case ParamRight:
		v.Right = value
	case ParamBottom:
		v.Bottom = value
	case ParamTop:
		v.Top = value
	case ParamWidth:
		v.Right = v.Left + value
	case ParamHeight:
		v.Top = v.Bottom + value
	}
	return e.setView("SetParameter", v)
}

// GetParameters reads len(params) parameters into values, stopping at the
// first failure. The slices must have the same length.
func (e *Entity) GetParameters(params []Param, values []float64) error {
	if len(params) != len(values) {
		return e.ctx.fail("GetParameters", CodeBadArguments)
	}
	for i, p := range params {
		v, err := e.GetParameter(p)
		if err != nil {
			return err
		}
		values[i] = v
	}
	return nil
}

// SetParameters writes len(params) parameters, stopping at the first
// failure. Parameters before the failing one stay written.
func (e *Entity) SetParameters(params []Param, values []float64) error {
	if len(params) != len(values) {
		return e.ctx.fail("SetParameters", CodeBadArguments)
	}
	for i, p := range params {
		if err := e.SetParameter(p, values[i]); err != nil {
			return err
		}
	}
	return nil
}
