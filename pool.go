package rowan

// entityPool hands out uniformly sized entity blocks and recycles them
// through a free list. The block size is fixed before the first allocation
// (see Open) so a recycled block always fits every kind.
type entityPool struct {
	free      []*Entity
	blockSize int
	created   int // blocks ever allocated
	live      int // blocks currently handed out
	max       int // cap on created; 0 means unlimited
}

// allocate pops a block off the free list or creates a new zeroed one.
func (p *entityPool) allocate() (*Entity, error) {
	if n := len(p.free); n > 0 {
		e := p.free[n-1]
		p.free[n-1] = nil
		p.free = p.free[:n-1]
		p.live++
		return e, nil
	}
	if p.max > 0 && p.created >= p.max {
		return nil, newError("allocate", CodeOutOfMemory)
	}
	p.created++
	p.live++
	return &Entity{storage: make([]byte, p.blockSize)}, nil
}

// release zeroes the block and pushes it onto the free list. Memory is
// never returned to the runtime while the context is open.
func (p *entityPool) release(e *Entity) {
	storage := e.storage
	clear(storage)
	*e = Entity{ctx: e.ctx, storage: storage, gen: e.gen + 1, disposed: true}
	p.free = append(p.free, e)
	p.live--
}

// preallocate fills the free list with n fresh blocks.
func (p *entityPool) preallocate(n int) error {
	for i := 0; i < n; i++ {
		e, err := p.allocate()
		if err != nil {
			return err
		}
		p.release(e)
	}
	return nil
}

// drain drops every pooled block.
func (p *entityPool) drain() {
	clear(p.free)
	p.free = p.free[:0]
}

// PoolStats reports the state of a context's entity pool.
type PoolStats struct {
	BlockSize int // bytes of backend storage per block
	Created   int // blocks ever allocated
	Live      int // blocks in use
	Free      int // blocks waiting on the free list
}

// PoolStats returns a snapshot of the entity pool.
func (c *Context) PoolStats() PoolStats {
	return PoolStats{
		BlockSize: c.pool.blockSize,
		Created:   c.pool.created,
		Live:      c.pool.live,
		Free:      len(c.pool.free),
	}
}
