package rowan

// LifecycleKind identifies the type of a LifecycleEvent.
type LifecycleKind uint8

const (
	EntityCreated LifecycleKind = iota
	EntityDestroyed
	TextureCreated
	TextureDestroyed
)

// String returns the event name.
func (k LifecycleKind) String() string {
	switch k {
	case EntityCreated:
		return "entity-created"
	case EntityDestroyed:
		return "entity-destroyed"
	case TextureCreated:
		return "texture-created"
	case TextureDestroyed:
		return "texture-destroyed"
	}
	return "unknown"
}

// LifecycleEvent is emitted to the context Observer when an entity or a
// texture is created or destroyed. For destruction events the Entity or
// Texture is still readable but is about to be recycled; do not keep it.
type LifecycleEvent struct {
	Kind       LifecycleKind
	EntityKind EntityKind // valid for entity events
	Entity     *Entity
	Texture    *Texture
	UserData   any // Entity.UserData or Texture.UserData at the time of the event
}

// Observer receives lifecycle events. The ecs sub-package provides an
// implementation that publishes them into a donburi world.
type Observer interface {
	EmitEvent(event LifecycleEvent)
}

func (c *Context) emitEntity(kind LifecycleKind, e *Entity) {
	if c.observer == nil {
		return
	}
	c.observer.EmitEvent(LifecycleEvent{Kind: kind, EntityKind: e.kind, Entity: e, UserData: e.UserData})
}

func (c *Context) emitTexture(kind LifecycleKind, t *Texture) {
	if c.observer == nil {
		return
	}
	c.observer.EmitEvent(LifecycleEvent{Kind: kind, Texture: t, UserData: t.UserData})
}
