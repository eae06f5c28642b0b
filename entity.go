package rowan

// Entity is a scene-graph node. A single struct serves every kind; the
// kind tag decides which payload fields are meaningful and every
// kind-specific accessor checks it.
//
// Entities are created by the New* constructors, owned by their parent
// while linked, and recycled through the context pool when destroyed. Do
// not keep pointers to destroyed entities.
type Entity struct {
	ctx *Context

	// Hierarchy. parent is weak; first..last is the singly-linked child list.
	parent, next *Entity
	first, last  *Entity
	children     int

	kind   EntityKind
	refs   int  // application references
	linked bool // the structural reference held by the parent
	flags  EntityFlags

	local Transform
	vel   Velocity
	color Color

	// Computed during Render.
	world      Transform
	m          Matrix2
	worldColor Color

	// Layer, Window
	view View
	bg   Color
	// Window
	width, height float64
	// Window: enclosing Layer, if any. Fill: client Layer or Window.
	client *Entity

	// Sprite, Primitive, Fill
	tex *Texture
	// Sprite
	hotspot Vec2
	// Primitive
	prim     PrimitiveKind
	verts    []Vertex
	texcoord Vec2

	// Hooks are installed by the backend's per-kind initializer.
	Hooks Hooks
	// BackendData is free for the backend, alongside Storage.
	BackendData any
	// UserData is free for the application.
	UserData any
	// Name is informational and appears in debug output.
	Name string

	storage  []byte
	gen      uint32 // bumped every time the block is recycled
	disposed bool
}

func (e *Entity) init(c *Context, kind EntityKind, flags EntityFlags) {
	e.ctx = c
	e.kind = kind
	e.disposed = false
	e.flags = flags&^flagsInternal | FlagVisible | FlagDirty
	e.local.Scale = 1
	e.color = ColorWhite
	e.world.Scale = 1
	e.m = RotateScale(0, 1)
	e.worldColor = ColorWhite
}

// --- Construction ---

// prepare validates the common construction arguments and allocates a
// block. The returned entity is initialized but not linked.
func prepare(op string, parent *Entity, kind EntityKind, flags EntityFlags, tex *Texture) (*Entity, error) {
	if parent == nil {
		return nil, newError(op, CodeBadArguments)
	}
	if parent.disposed {
		if parent.ctx != nil && parent.ctx.debug {
			debugCheckDisposed(parent, op)
		}
		return nil, newError(op, CodeDenied)
	}
	c := parent.ctx
	if tex != nil && (tex.ctx != c || tex.destroyed) {
		return nil, c.fail(op, CodeBadArguments)
	}
	e, err := c.pool.allocate()
	if err != nil {
		return nil, c.failWith(op, err)
	}
	e.init(c, kind, flags)
	return e, nil
}

// finish takes the texture reference, runs the backend initializer and
// links e under parent. On initializer failure the texture reference is
// dropped and the block goes back to the pool; nothing is linked.
func finish(op string, e, parent *Entity, tex *Texture) (*Entity, error) {
	c := e.ctx
	if tex != nil {
		tex.retain()
		e.tex = tex
	}
	// The initializer may inspect the parent, but e is not linked yet.
	e.parent = parent
	if err := c.backend.initEntity(e); err != nil {
		c.log.Debug("entity initializer failed", zapKind(e.kind), zapErr(err))
		if e.tex != nil {
			e.tex.release()
			e.tex = nil
		}
		c.pool.release(e)
		return nil, c.failWith(op, err)
	}
	e.link(parent)
	if c.debug {
		c.debugCheckTreeDepth(e)
		c.debugCheckChildCount(parent)
	}
	c.emitEntity(EntityCreated, e)
	return e, nil
}

// NewLayer creates a Layer under the root with the given coordinate
// window. Layers may only be children of the root.
func NewLayer(parent *Entity, flags EntityFlags, left, right, bottom, top float64) (*Entity, error) {
	const op = "NewLayer"
	if parent != nil && !parent.disposed && parent.kind != KindRoot {
		return nil, parent.ctx.fail(op, CodeInvalidParent)
	}
	view := View{left, right, bottom, top}
	if parent != nil && !parent.disposed && view.degenerate() {
		return nil, parent.ctx.fail(op, CodeBadArguments)
	}
	e, err := prepare(op, parent, KindLayer, flags, nil)
	if err != nil {
		return nil, err
	}
	e.view = view
	e.bg = Color{0, 0, 0, 1}
	return finish(op, e, parent, nil)
}

// NewWindow creates a clipped sub-view of size w by h at (x, y) in the
// parent's coordinate space. With FlagSetOrigin the window itself is
// positioned at (x, y).
func NewWindow(parent *Entity, flags EntityFlags, x, y, w, h float64) (*Entity, error) {
	const op = "NewWindow"
	if parent != nil && !parent.disposed && (w == 0 || h == 0) {
		return nil, parent.ctx.fail(op, CodeBadArguments)
	}
	e, err := prepare(op, parent, KindWindow, flags, nil)
	if err != nil {
		return nil, err
	}
	if flags&FlagSetOrigin != 0 {
		e.local.X, e.local.Y = x, y
	}
	e.width, e.height = w, h
	e.view = View{Left: x, Right: x + w, Bottom: y, Top: y + h}
	e.bg = Color{0, 0, 0, 1}
	for p := parent; p != nil; p = p.parent {
		if p.kind == KindLayer {
			e.client = p
			break
		}
	}
	return finish(op, e, parent, nil)
}

// NewGroup creates a transform container.
func NewGroup(parent *Entity, flags EntityFlags) (*Entity, error) {
	const op = "NewGroup"
	e, err := prepare(op, parent, KindGroup, flags, nil)
	if err != nil {
		return nil, err
	}
	return finish(op, e, parent, nil)
}

// NewSprite creates a textured quad. The quad spans one local unit, so its
// on-screen size is the sprite scale; the hotspot (cx, cy), in those units,
// is placed at the sprite position. (0.5, 0.5) centers the quad. tex may be
// nil.
func NewSprite(parent *Entity, flags EntityFlags, tex *Texture, cx, cy float64) (*Entity, error) {
	const op = "NewSprite"
	e, err := prepare(op, parent, KindSprite, flags, tex)
	if err != nil {
		return nil, err
	}
	e.hotspot = Vec2{cx, cy}
	return finish(op, e, parent, tex)
}

// NewPrimitive creates an empty vertex-list entity of the given primitive
// kind at (x, y) with the given size and rotation. Vertices are added with
// Vertex2D, Vertex3D and Vertices.
func NewPrimitive(parent *Entity, flags EntityFlags, kind PrimitiveKind, tex *Texture, x, y, size, rotation float64) (*Entity, error) {
	const op = "NewPrimitive"
	if parent != nil && !parent.disposed && !kind.valid() {
		return nil, parent.ctx.fail(op, CodeBadPrimitive)
	}
	e, err := prepare(op, parent, KindPrimitive, flags, tex)
	if err != nil {
		return nil, err
	}
	e.prim = kind
	e.local = Transform{X: x, Y: y, Scale: size, Rotation: rotation}
	return finish(op, e, parent, tex)
}

// NewFill creates an entity that textures the whole area of the nearest
// Layer or Window at or above parent. It fails with CodeInvalidParent when
// there is none.
func NewFill(parent *Entity, flags EntityFlags, tex *Texture) (*Entity, error) {
	const op = "NewFill"
	var client *Entity
	if parent != nil && !parent.disposed {
		for p := parent; p != nil; p = p.parent {
			if p.kind == KindLayer || p.kind == KindWindow {
				client = p
				break
			}
		}
		if client == nil {
			return nil, parent.ctx.fail(op, CodeInvalidParent)
		}
	}
	e, err := prepare(op, parent, KindFill, flags, tex)
	if err != nil {
		return nil, err
	}
	e.client = client
	return finish(op, e, parent, tex)
}

// --- Tree links ---

func (e *Entity) link(parent *Entity) {
	e.parent = parent
	e.next = nil
	if parent.last != nil {
		parent.last.next = e
	} else {
		parent.first = e
	}
	parent.last = e
	parent.children++
	e.linked = true
}

// unlink removes e from its parent's child list with a linear scan.
func (e *Entity) unlink() {
	p := e.parent
	var prev *Entity
	for ch := p.first; ch != nil; ch = ch.next {
		if ch == e {
			break
		}
		prev = ch
	}
	if prev == nil {
		p.first = e.next
	} else {
		prev.next = e.next
	}
	if p.last == e {
		p.last = prev
	}
	p.children--
	e.parent = nil
	e.next = nil
	e.linked = false
}

// --- Destruction and references ---

// Destroy unlinks e from its parent and destroys it together with its
// subtree, children first. If the application still holds references to e
// it is only detached and is destroyed by its last Release. Destroying the
// root fails with CodeDenied.
func (e *Entity) Destroy() error {
	const op = "Destroy"
	if e.disposed {
		if e.ctx != nil && e.ctx.debug {
			debugCheckDisposed(e, op)
		}
		return newError(op, CodeDenied)
	}
	c := e.ctx
	if e.kind == KindRoot {
		c.log.Warn("refusing to destroy the root entity")
		return c.fail(op, CodeDenied)
	}
	if !e.linked {
		return c.fail(op, CodeDenied)
	}
	e.unlink()
	if e.refs > 0 {
		c.detached[e] = struct{}{}
		return nil
	}
	c.destroySubtree(e)
	return nil
}

// destroySubtree destroys e and its descendants in post-order. e must
// already be unlinked. Descendants still referenced by the application are
// detached instead.
func (c *Context) destroySubtree(e *Entity) {
	for ch := e.first; ch != nil; {
		next := ch.next
		ch.parent = nil
		ch.next = nil
		ch.linked = false
		if ch.refs > 0 && !c.closing() {
			c.detached[ch] = struct{}{}
		} else {
			c.destroySubtree(ch)
		}
		ch = next
	}
	e.first, e.last = nil, nil
	e.children = 0
	c.destroyEntity(e)
}

// closing reports whether the context is tearing down, in which case
// application references no longer keep entities alive.
func (c *Context) closing() bool { return c.root == nil }

func (c *Context) destroyEntity(e *Entity) {
	if e.Hooks.Destroy != nil {
		e.Hooks.Destroy(e)
	}
	if e.tex != nil {
		e.tex.release()
		e.tex = nil
	}
	c.emitEntity(EntityDestroyed, e)
	c.pool.release(e)
}

// Retain adds an application reference to e.
func (e *Entity) Retain() {
	if e.disposed && e.ctx != nil && e.ctx.debug {
		debugCheckDisposed(e, "Retain")
	}
	e.refs++
}

// Release drops an application reference. An entity that was destroyed
// while retained is finally destroyed when its last reference goes.
// Release never destroys a linked entity.
func (e *Entity) Release() error {
	const op = "Release"
	if e.disposed {
		if e.ctx != nil && e.ctx.debug {
			debugCheckDisposed(e, op)
		}
		return newError(op, CodeDenied)
	}
	c := e.ctx
	if e.refs == 0 {
		return c.fail(op, CodeDenied)
	}
	e.refs--
	if e.refs == 0 && !e.linked {
		delete(c.detached, e)
		c.destroySubtree(e)
	}
	return nil
}

// RefCount returns the application references plus one for the parent
// link while e is linked.
func (e *Entity) RefCount() int {
	if e.linked {
		return e.refs + 1
	}
	return e.refs
}

// Disposed reports whether e has been destroyed and recycled.
func (e *Entity) Disposed() bool { return e.disposed }

// --- Navigation ---

// Context returns the owning context.
func (e *Entity) Context() *Context { return e.ctx }

// Kind returns the entity kind.
func (e *Entity) Kind() EntityKind { return e.kind }

// Parent returns the parent, or nil for the root and detached entities.
func (e *Entity) Parent() *Entity { return e.parent }

// First returns the first child, or nil.
func (e *Entity) First() *Entity { return e.first }

// NumChildren returns the number of linked children.
func (e *Entity) NumChildren() int { return e.children }

// Next returns the next sibling, or nil.
func (e *Entity) Next() *Entity { return e.next }

// Flags returns the entity flags.
func (e *Entity) Flags() EntityFlags { return e.flags }

// Storage returns the backend storage block of this entity. Its size is
// the largest EntityStorage answer of the backend.
func (e *Entity) Storage() []byte { return e.storage }

// --- Payload accessors ---

// Texture returns the texture of a Sprite, Primitive or Fill, or nil.
func (e *Entity) Texture() *Texture { return e.tex }

// View returns the coordinate window of a Layer or Window.
func (e *Entity) View() View { return e.view }

// BGColor returns the background color of a Layer or Window.
func (e *Entity) BGColor() Color { return e.bg }

// WindowSize returns the width and height of a Window.
func (e *Entity) WindowSize() (w, h float64) { return e.width, e.height }

// Client returns the enclosing Layer of a Window, or the Layer or Window
// filled by a Fill. It is nil for other kinds.
func (e *Entity) Client() *Entity { return e.client }

// Hotspot returns the hotspot of a Sprite.
func (e *Entity) Hotspot() Vec2 { return e.hotspot }

// SetVisible shows or hides e and its whole subtree.
func (e *Entity) SetVisible(visible bool) {
	if visible {
		e.flags |= FlagVisible
	} else {
		e.flags &^= FlagVisible
	}
}

// Visible reports whether e is visible.
func (e *Entity) Visible() bool { return e.flags&FlagVisible != 0 }

// Dirty reports whether the world transform of e is stale.
func (e *Entity) Dirty() bool { return e.flags&FlagDirty != 0 }

// MarkDirty flags the world transform of e for recomputation on the next
// Render.
func (e *Entity) MarkDirty() { e.flags |= FlagDirty }
