package rowan

// Color represents an RGBA color multiplier with components nominally in
// [0, 1]. Not premultiplied.
type Color struct {
	R, G, B, A float64
}

// ColorWhite is the default modulation (no color change).
var ColorWhite = Color{1, 1, 1, 1}

// Mul returns the component-wise product of c and o.
func (c Color) Mul(o Color) Color {
	return Color{c.R * o.R, c.G * o.G, c.B * o.B, c.A * o.A}
}

// Vec2 is a 2D vector used for positions, corners, and texture coordinates.
type Vec2 struct {
	X, Y float64
}

// Transform is a local or world transform: position, depth, uniform scale
// and rotation in radians.
type Transform struct {
	X, Y, Z  float64
	Scale    float64
	Rotation float64
}

// Velocity holds the per-second rates applied to a Transform by Advance.
type Velocity struct {
	DX, DY, DZ float64
	DScale     float64
	DRotation  float64
}

// IsZero reports whether every component is zero.
func (v Velocity) IsZero() bool {
	return v.DX == 0 && v.DY == 0 && v.DZ == 0 && v.DScale == 0 && v.DRotation == 0
}

// View is the coordinate window of a Layer or Window entity.
type View struct {
	Left, Right, Bottom, Top float64
}

// Width returns Right - Left.
func (v View) Width() float64 { return v.Right - v.Left }

// Height returns Top - Bottom.
func (v View) Height() float64 { return v.Top - v.Bottom }

func (v View) degenerate() bool {
	return v.Left == v.Right || v.Bottom == v.Top
}

// PixelFormat identifies the layout of texture pixels.
type PixelFormat uint8

const (
	FormatOff  PixelFormat = iota // no texture data (renders as plain color)
	FormatI                       // 8-bit intensity
	FormatRGB                     // R, G, B, padding byte
	FormatRGBA                    // R, G, B, A
)

// PixelSize returns the number of bytes per pixel for f, or 0 for FormatOff
// and unknown formats.
func (f PixelFormat) PixelSize() int {
	switch f {
	case FormatI:
		return 1
	case FormatRGB, FormatRGBA:
		return 4
	}
	return 0
}

func (f PixelFormat) valid() bool {
	return f <= FormatRGBA
}

// String returns the format name.
func (f PixelFormat) String() string {
	switch f {
	case FormatOff:
		return "off"
	case FormatI:
		return "I"
	case FormatRGB:
		return "RGB"
	case FormatRGBA:
		return "RGBA"
	}
	return "unknown"
}

// EntityKind distinguishes the structural role of an Entity.
type EntityKind uint8

const (
	KindRoot      EntityKind = iota // context root, never destroyed by the application
	KindLayer                       // full-display view with its own coordinate window
	KindWindow                      // clipped sub-view inside a parent's coordinate space
	KindGroup                       // transform container, draws nothing
	KindSprite                      // single textured quad around a hotspot
	KindPrimitive                   // arbitrary vertex list
	KindFill                        // textures the whole area of the enclosing Layer/Window

	numKinds
)

var kindNames = [numKinds]string{"root", "layer", "window", "group", "sprite", "primitive", "fill"}

// String returns the kind name.
func (k EntityKind) String() string {
	if k < numKinds {
		return kindNames[k]
	}
	return "unknown"
}

// textured reports whether entities of kind k carry a texture reference.
func (k EntityKind) textured() bool {
	return k == KindSprite || k == KindPrimitive || k == KindFill
}

// EntityFlags are creation and state flags of an Entity.
type EntityFlags uint32

const (
	FlagVisible   EntityFlags = 0x00000010 // entity and its subtree are rendered
	FlagBuffered  EntityFlags = 0x00000020 // backend may render the subtree into a cached buffer
	FlagClear     EntityFlags = 0x00000040 // clear the area to the background color before rendering
	FlagSetOrigin EntityFlags = 0x00000080 // window: place the local origin at the window corner
	FlagClip      EntityFlags = 0x00000100 // window: clip children to the window area
	FlagAnimated  EntityFlags = 0x00001000 // derived: velocity is nonzero
	FlagDirty     EntityFlags = 0x00002000 // world transform must be recomputed

	// flagsInternal may not be passed to constructors.
	flagsInternal = FlagAnimated | FlagDirty
)

// TextureFlags control texture addressing, filtering and allocation.
type TextureFlags uint32

const (
	VMode  TextureFlags = 0x0000000f
	VUndef TextureFlags = 0x00000000
	VClamp TextureFlags = 0x00000001
	VWrap  TextureFlags = 0x00000002

	HMode  TextureFlags = 0x000000f0
	HUndef TextureFlags = 0x00000000
	HClamp TextureFlags = 0x00000010
	HWrap  TextureFlags = 0x00000020

	ScaleMode       TextureFlags = 0x00000f00
	Nearest         TextureFlags = 0x00000000
	Bilinear        TextureFlags = 0x00000100
	BilinearMipmap  TextureFlags = 0x00000200
	TrilinearMipmap TextureFlags = 0x00000300

	// Virtual textures are tiled and only partially resident. Not implemented.
	Virtual TextureFlags = 0x00001000
	// OnDemand textures are filled by a render callback when first used.
	OnDemand TextureFlags = 0x00002000
	// NoClear skips the default fill of never-defined pixels.
	NoClear TextureFlags = 0x00010000

	// undefined marks pixel storage that has never been written.
	undefined TextureFlags = 0x00100000
)

// TextureType tags the storage variant of a Texture.
type TextureType uint8

const (
	TexturePhysical TextureType = iota // owns a pixel buffer
	TextureVirtual                     // tiled, allocated on use
	TextureSub                         // region of a physical texture
)

// OpenFlags are reserved flags for Open.
type OpenFlags uint32
