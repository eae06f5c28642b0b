package rowan

import "time"

// Render draws one frame: the backend PreRender hook, one depth-first
// traversal of the tree, then the backend PostRender hook.
//
// During the traversal a dirty entity, or any entity below one that was
// recomputed, gets its world transform and color recomputed before its
// Recompute hook runs. Invisible entities prune their whole subtree. Visible
// entities run Render, then their children in order, then RenderPost.
//
// The first hook error aborts the frame and is returned. Dirty flags already
// cleared stay cleared.
func (c *Context) Render() error {
	const op = "Render"
	if c.root == nil {
		return c.fail(op, CodeDenied)
	}
	var start time.Time
	if c.debug {
		c.stats = debugStats{}
		start = time.Now()
	}

	if c.backend.PreRender != nil {
		if err := c.backend.PreRender(c); err != nil {
			return c.failWith(op, err)
		}
	}
	if err := c.traverse(c.root, false); err != nil {
		return c.failWith(op, err)
	}
	if c.backend.PostRender != nil {
		if err := c.backend.PostRender(c); err != nil {
			return c.failWith(op, err)
		}
	}

	if c.debug {
		c.stats.traverseTime = time.Since(start)
		c.debugLog(c.stats)
	}
	return nil
}

// traverse renders e and its subtree. parentRecomputed forces the world
// transform of e to be recomputed even when e itself is clean.
func (c *Context) traverse(e *Entity, parentRecomputed bool) error {
	if c.debug {
		c.stats.visited++
	}
	recompute := parentRecomputed || e.flags&FlagDirty != 0
	if recompute {
		applyTransform(e)
		if c.debug {
			c.stats.recomputed++
		}
		if e.Hooks.Recompute != nil {
			if c.debug {
				c.stats.hookCalls++
			}
			if err := e.Hooks.Recompute(e); err != nil {
				return err
			}
		}
		e.flags &^= FlagDirty
	}

	if e.flags&FlagVisible == 0 {
		// The subtree is skipped; keep the pending cascade for when e is
		// shown again.
		if recompute {
			for ch := e.first; ch != nil; ch = ch.next {
				ch.flags |= FlagDirty
			}
		}
		return nil
	}

	if e.Hooks.Render != nil {
		if c.debug {
			c.stats.hookCalls++
		}
		if err := e.Hooks.Render(e); err != nil {
			return err
		}
	}
	for ch := e.first; ch != nil; ch = ch.next {
		if err := c.traverse(ch, recompute); err != nil {
			return err
		}
	}
	if e.Hooks.RenderPost != nil {
		if c.debug {
			c.stats.hookCalls++
		}
		if err := e.Hooks.RenderPost(e); err != nil {
			return err
		}
	}
	return nil
}
