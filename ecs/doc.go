// Package ecs provides ECS adapters for rowan.
//
// The primary adapter is [NewDonburiObserver], which publishes rowan
// lifecycle events (entity and texture creation and destruction) into a
// [Donburi] world as typed events. Subscribe to [LifecycleEventType] in your
// ECS systems to mirror scene-graph objects as ECS entities.
//
// Usage:
//
//	obs := ecs.NewDonburiObserver(world)
//	ctx, err := rowan.Open("", 0, display, rowan.WithObserver(obs))
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
