package rowan

import (
	"fmt"
	"sort"
)

// Backend is the contract a rendering plugin fulfils. Every field is
// optional; the engine skips nil hooks. A Backend value is produced by a
// registered factory during Open and lives as long as the Context.
type Backend struct {
	// Name is informational and appears in log output.
	Name string

	Open  func(ctx *Context) error
	Close func(ctx *Context)

	// PreRender and PostRender bracket every Render call.
	PreRender  func(ctx *Context) error
	PostRender func(ctx *Context) error

	// Per-kind initializers run once during construction, before the entity
	// is linked. They may fill e.Hooks and e.Storage(). A failure rolls back
	// the construction.
	InitLayer     func(e *Entity) error
	InitWindow    func(e *Entity) error
	InitGroup     func(e *Entity) error
	InitSprite    func(e *Entity) error
	InitPrimitive func(e *Entity) error
	InitFill      func(e *Entity) error

	InitTexture   func(t *Texture) error
	UploadTexture func(px *Pixels) error
	CloseTexture  func(t *Texture)

	// EntityStorage reports the bytes of per-entity storage the backend
	// needs for kind. It is queried for every kind during Open, before any
	// entity exists.
	EntityStorage func(kind EntityKind) int
	// TextureStorage reports the bytes of per-texture storage.
	TextureStorage func() int
}

func (b *Backend) initEntity(e *Entity) error {
	var fn func(*Entity) error
	switch e.kind {
	case KindLayer:
		fn = b.InitLayer
	case KindWindow:
		fn = b.InitWindow
	case KindGroup:
		fn = b.InitGroup
	case KindSprite:
		fn = b.InitSprite
	case KindPrimitive:
		fn = b.InitPrimitive
	case KindFill:
		fn = b.InitFill
	}
	if fn == nil {
		return nil
	}
	return fn(e)
}

// entityBlockSize returns the largest backend storage requirement over all
// kinds.
func (b *Backend) entityBlockSize() int {
	if b.EntityStorage == nil {
		return 0
	}
	size := 0
	for k := EntityKind(0); k < numKinds; k++ {
		if n := b.EntityStorage(k); n > size {
			size = n
		}
	}
	return size
}

func (b *Backend) textureBlockSize() int {
	if b.TextureStorage == nil {
		return 0
	}
	return max(b.TextureStorage(), 0)
}

// Hooks are the per-entity callbacks a backend attaches in its initializer.
// Nil hooks are skipped.
type Hooks struct {
	// Recompute runs after the world transform was recomputed.
	Recompute func(e *Entity) error
	// Render runs before the children are visited.
	Render func(e *Entity) error
	// RenderPost runs after the children are visited.
	RenderPost func(e *Entity) error
	// Destroy runs once when the entity is destroyed.
	Destroy func(e *Entity)
}

// BackendFactory builds a Backend for one Context. platform is the value
// passed to Open and is backend-specific (a display target, a screen, or
// nil).
type BackendFactory func(platform any) (*Backend, error)

// DefaultBackend is the backend used when Open is called with an empty
// renderer name.
const DefaultBackend = "ebiten"

var backends = map[string]BackendFactory{
	"null": func(any) (*Backend, error) { return &Backend{Name: "null"}, nil },
}

// RegisterBackend makes a backend available by name. It panics if name is
// already registered or factory is nil. Backend packages call it from init.
func RegisterBackend(name string, factory BackendFactory) {
	if factory == nil {
		panic("rowan: RegisterBackend factory is nil")
	}
	if _, dup := backends[name]; dup {
		panic(fmt.Sprintf("rowan: RegisterBackend called twice for %q", name))
	}
	backends[name] = factory
}

// Backends returns the sorted names of the registered backends.
func Backends() []string {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
