package ecs

import (
	"github.com/phanxgames/rowan"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// LifecycleEventType is the Donburi event type for rowan lifecycle events.
var LifecycleEventType = events.NewEventType[rowan.LifecycleEvent]()

type donburiObserver struct {
	world donburi.World
}

// NewDonburiObserver creates an Observer backed by a Donburi world. Events
// are queued on LifecycleEventType and delivered by ProcessEvents.
//
// Destroyed objects are recycled before the queue is processed, so
// destruction events carry only the kind and UserData; Entity and Texture
// are nil.
func NewDonburiObserver(world donburi.World) rowan.Observer {
	return &donburiObserver{world: world}
}

func (o *donburiObserver) EmitEvent(event rowan.LifecycleEvent) {
	switch event.Kind {
	case rowan.EntityDestroyed:
		event.Entity = nil
	case rowan.TextureDestroyed:
		event.Texture = nil
	}
	LifecycleEventType.Publish(o.world, event)
}
