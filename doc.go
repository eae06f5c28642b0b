// Package rowan is a retained-mode 2D scene-graph engine.
//
// Applications build a tree of positioned, colored, textured entities. The
// engine tracks dirty state, composes hierarchical transforms once per
// frame and drives a pluggable rendering backend. The package itself draws
// nothing; backends live in sub-packages and register themselves by name:
//
//   - rowan/ebitenbackend draws to an [ebiten.Image] (the default backend)
//   - rowan/softbackend rasterizes on the CPU with gogpu/gg
//   - rowan/termbackend draws character cells with tcell
//   - "null" is built in and draws nothing
//
// # Quick start
//
//	import "github.com/phanxgames/rowan/softbackend"
//
//	ctx, err := rowan.Open("soft", 0, softbackend.NewCanvas(640, 480))
//	if err != nil { ... }
//	defer ctx.Close()
//
//	layer, _ := rowan.NewLayer(ctx.Root(), rowan.FlagClear, 0, 640, 0, 480)
//	tex, _ := ctx.NewTexture(rowan.FormatRGBA, rowan.HWrap|rowan.VWrap, 32, 32)
//	ball, _ := rowan.NewSprite(layer, 0, tex, 0.5, 0.5)
//	ball.SetTransform(320, 240, 0, 32, 0) // 32 units wide, centered
//	ball.SetVelocity(40, 0)
//
//	for {
//		ctx.Advance(1.0 / 60)
//		if err := ctx.Render(); err != nil { ... }
//	}
//
// # Entities
//
// Every node is an [Entity] of one [EntityKind]: the root, [NewLayer]
// (a full-display coordinate window, only under the root), [NewWindow]
// (a clipped sub-view), [NewGroup] (a transform container), [NewSprite]
// (a textured quad around a hotspot), [NewPrimitive] (a vertex list) and
// [NewFill] (textures the area of the enclosing Layer or Window).
//
// A linked entity is owned by its parent. [Entity.Retain] and
// [Entity.Release] add application references on top of that;
// [Entity.Destroy] unlinks and destroys the subtree, except for entities
// the application still retains, which are destroyed by their last
// Release. Destroyed entity blocks are recycled through a pool whose block
// size is fixed when the context opens.
//
// # Transforms
//
// World state is derived top-down during [Context.Render]: a child's world
// position is its local position mapped through the parent's rotate-scale
// [Matrix2] plus the parent's world position; depth and rotation add,
// scale and color multiply. Setters mark an entity dirty and the next
// Render recomputes it and everything below it.
//
// # Animation
//
// Constant velocities ([Entity.SetVelocity] and friends) are integrated by
// [Context.Advance]. For eased motion, [TweenGroup] animates entity
// parameters with [gween].
//
// # Errors
//
// Every fallible call returns an error carrying a [Code]. Use [CodeOf] or
// errors.Is with the Err* sentinels. [Context.LastError] keeps the most
// recent failure of a context.
//
// [ebiten.Image]: https://pkg.go.dev/github.com/hajimehoshi/ebiten/v2#Image
// [gween]: https://github.com/tanema/gween
package rowan
