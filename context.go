package rowan

import (
	"fmt"

	"go.uber.org/zap"
)

// Context is one open engine session. It owns the entity tree, the entity
// pool, every texture created through it and the active backend. A Context
// is not safe for concurrent use; drive it from the goroutine that runs the
// host frame loop.
type Context struct {
	root     *Entity
	pool     entityPool
	textures []*Texture
	detached map[*Entity]struct{}

	backend     *Backend
	platform    any
	flags       OpenFlags
	textureSize int

	now     float64
	lastErr error
	closed  bool

	log      *zap.Logger
	debug    bool
	observer Observer
	stats    debugStats
}

type options struct {
	log         *zap.Logger
	debug       bool
	maxEntities int
	prealloc    int
	observer    Observer
}

// Option configures a Context at Open.
type Option func(*options)

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithDebug enables debug mode: use of destroyed entities panics, tree
// shape warnings are logged, and every Render logs traversal statistics at
// debug level.
func WithDebug(enabled bool) Option {
	return func(o *options) { o.debug = enabled }
}

// WithMaxEntities caps the number of entity blocks the pool will ever
// allocate, the root included. Constructors fail with CodeOutOfMemory once
// the cap is reached and the free list is empty. Zero means no cap.
func WithMaxEntities(n int) Option {
	return func(o *options) { o.maxEntities = max(n, 0) }
}

// WithPreallocate fills the pool with n blocks during Open.
func WithPreallocate(n int) Option {
	return func(o *options) { o.prealloc = max(n, 0) }
}

// WithObserver registers an Observer for entity and texture lifecycle
// events.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}

// Open starts a session on the named backend. An empty renderer selects
// DefaultBackend. platform is handed to the backend factory unchanged.
//
// Open is the only call that can fail before a Context exists; its error is
// the session-less counterpart of LastError.
func Open(renderer string, flags OpenFlags, platform any, opts ...Option) (*Context, error) {
	o := options{log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if renderer == "" {
		renderer = DefaultBackend
	}
	factory, ok := backends[renderer]
	if !ok {
		return nil, &Error{Code: CodeNoBackend, Op: "Open", Err: fmt.Errorf("backend %q is not registered", renderer)}
	}
	b, err := factory(platform)
	if err != nil {
		return nil, &Error{Code: CodeBackendOpen, Op: "Open", Err: err}
	}
	if b == nil {
		b = &Backend{}
	}
	if b.Name == "" {
		b.Name = renderer
	}

	c := &Context{
		backend:  b,
		platform: platform,
		flags:    flags,
		detached: make(map[*Entity]struct{}),
		log:      o.log.With(zap.String("backend", b.Name)),
		debug:    o.debug,
		observer: o.observer,
	}
	// Block sizes are frozen here, before the first allocation.
	c.pool.blockSize = b.entityBlockSize()
	c.pool.max = o.maxEntities
	c.textureSize = b.textureBlockSize()

	if b.Open != nil {
		if err := b.Open(c); err != nil {
			code := CodeBackendOpen
			if CodeOf(err) == CodeDriverOpen {
				code = CodeDriverOpen
			}
			return nil, &Error{Code: code, Op: "Open", Err: err}
		}
	}

	if o.prealloc > 0 {
		n := o.prealloc
		if c.pool.max > 0 {
			n = min(n, c.pool.max)
		}
		if err := c.pool.preallocate(n); err != nil {
			c.shutdownBackend()
			return nil, wrapError("Open", err)
		}
	}

	root, err := c.pool.allocate()
	if err != nil {
		c.shutdownBackend()
		return nil, wrapError("Open", err)
	}
	root.init(c, KindRoot, FlagVisible)
	root.linked = true
	if b.InitGroup != nil {
		if err := b.InitGroup(root); err != nil {
			c.pool.release(root)
			c.shutdownBackend()
			return nil, &Error{Code: CodeBackendOpen, Op: "Open", Err: err}
		}
	}
	c.root = root

	c.log.Debug("context opened",
		zap.Int("entityBlock", c.pool.blockSize),
		zap.Int("textureBlock", c.textureSize),
		zap.Int("maxEntities", c.pool.max),
		zap.Bool("debug", c.debug))
	return c, nil
}

func (c *Context) shutdownBackend() {
	if c.backend.Close != nil {
		c.backend.Close(c)
	}
}

// Close destroys the entity tree, every entity still retained by the
// application, every live texture, drains the pool and closes the backend.
// Calling Close more than once is a no-op.
func (c *Context) Close() {
	if c.closed {
		return
	}
	if root := c.root; root != nil {
		c.root = nil
		c.destroySubtree(root)
	}
	for len(c.detached) > 0 {
		for e := range c.detached {
			delete(c.detached, e)
			c.destroySubtree(e)
			break
		}
	}
	for len(c.textures) > 0 {
		c.textures[len(c.textures)-1].destroy()
	}
	c.pool.drain()
	c.shutdownBackend()
	c.closed = true
	c.log.Debug("context closed")
}

// Root returns the root entity.
func (c *Context) Root() *Entity { return c.root }

// Backend returns the active backend.
func (c *Context) Backend() *Backend { return c.backend }

// Platform returns the platform value passed to Open.
func (c *Context) Platform() any { return c.platform }

// Flags returns the flags passed to Open.
func (c *Context) Flags() OpenFlags { return c.flags }

// Logger returns the context logger. Backends log through it.
func (c *Context) Logger() *zap.Logger { return c.log }

// Debug reports whether debug mode is enabled.
func (c *Context) Debug() bool { return c.debug }

// Now returns the context clock in seconds, the sum of every Advance delta.
func (c *Context) Now() float64 { return c.now }

// LastError returns the most recent error reported by a call on this
// context, or nil.
func (c *Context) LastError() error { return c.lastErr }

// Textures returns the number of live textures.
func (c *Context) Textures() int { return len(c.textures) }

// fail records err as the last error and returns it.
func (c *Context) fail(op string, code Code) error {
	err := newError(op, code)
	c.lastErr = err
	return err
}

func (c *Context) failWith(op string, err error) error {
	err = wrapError(op, err)
	c.lastErr = err
	return err
}
