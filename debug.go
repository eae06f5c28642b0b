package rowan

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// debugStats holds per-frame traversal metrics.
// Only populated when the context is in debug mode.
type debugStats struct {
	traverseTime time.Duration
	visited      int
	recomputed   int
	hookCalls    int
}

// debugLog writes the frame statistics at debug level.
func (c *Context) debugLog(stats debugStats) {
	c.log.Debug("frame",
		zap.Duration("traverse", stats.traverseTime),
		zap.Int("visited", stats.visited),
		zap.Int("recomputed", stats.recomputed),
		zap.Int("hookCalls", stats.hookCalls),
		zap.Int("live", c.pool.live),
		zap.Int("textures", len(c.textures)))
}

// debugCheckDisposed panics with a descriptive message when a destroyed
// entity is used. Callers only invoke it in debug mode.
func debugCheckDisposed(e *Entity, op string) {
	if e.disposed {
		panic(fmt.Sprintf("rowan debug: %s on destroyed entity (block generation %d)", op, e.gen))
	}
}

// debugMaxTreeDepth is the depth above which a warning is logged.
const debugMaxTreeDepth = 32

func (c *Context) debugCheckTreeDepth(e *Entity) {
	depth := 0
	for p := e; p != nil; p = p.parent {
		depth++
	}
	if depth > debugMaxTreeDepth {
		c.log.Warn("tree depth exceeds threshold",
			zap.Int("depth", depth),
			zap.Int("threshold", debugMaxTreeDepth),
			zap.String("entity", e.Name))
	}
}

// debugMaxChildCount is the fan-out above which a warning is logged. Destroy
// unlinks with a linear scan, so wide parents make it slow.
const debugMaxChildCount = 1000

func (c *Context) debugCheckChildCount(e *Entity) {
	n := e.children
	if n > debugMaxChildCount {
		c.log.Warn("child count exceeds threshold",
			zap.Int("children", n),
			zap.Int("threshold", debugMaxChildCount),
			zap.String("entity", e.Name))
	}
}

func zapKind(k EntityKind) zap.Field { return zap.Stringer("kind", k) }

func zapErr(err error) zap.Field { return zap.Error(err) }
