package rowan

// TextureRenderFunc fills the pixels of an on-demand texture. It receives a
// locked descriptor covering the whole texture.
type TextureRenderFunc func(px *Pixels) error

// Texture is a block of pixels referenced by Sprite, Primitive and Fill
// entities. A texture starts with one reference owned by its creator; every
// entity using it holds one more. It is destroyed when the count reaches
// zero, or when the context closes. The application can only release the
// references it acquired.
type Texture struct {
	ctx    *Context
	format PixelFormat
	typ    TextureType
	flags  TextureFlags
	w, h   int
	refs   int
	// appRefs counts the references held by the application, the
	// creator's included. refs also counts entities and locks.
	appRefs int

	// Physical textures own pix. Sub-textures share the buffer of their
	// physical texture, starting at (x, y).
	pix    []byte
	pitch  int
	parent *Texture
	x, y   int

	render TextureRenderFunc

	// BackendData is free for the backend, alongside Storage.
	BackendData any
	// UserData is free for the application.
	UserData any

	storage   []byte
	destroyed bool
}

// Pixels describes a locked, writable rectangle of a texture. Pix starts at
// the top-left pixel of the rectangle; rows are Pitch bytes apart. X and Y
// are relative to Texture; see Texture.Physical for the offset into the
// shared buffer of a sub-texture.
type Pixels struct {
	Texture    *Texture
	Pix        []byte
	X, Y, W, H int
	Pitch      int
	Format     PixelFormat

	ctx      *Context
	unlocked bool
}

// NewTexture creates a physical texture of w by h pixels. Its pixels are
// undefined until written; unless NoClear is set, the first lock fills them
// with 0xFF bytes. Virtual textures fail with CodeNotImplemented; use
// NewOnDemandTexture for OnDemand textures.
func (c *Context) NewTexture(format PixelFormat, flags TextureFlags, w, h int) (*Texture, error) {
	return c.newTexture("NewTexture", format, flags, w, h)
}

func (c *Context) newTexture(op string, format PixelFormat, flags TextureFlags, w, h int) (*Texture, error) {
	switch {
	case flags&Virtual != 0:
		return nil, c.fail(op, CodeNotImplemented)
	case flags&OnDemand != 0:
		return nil, c.fail(op, CodeNotSupported)
	case !format.valid():
		return nil, c.fail(op, CodeBadFormat)
	case w < 0 || h < 0:
		return nil, c.fail(op, CodeBadArguments)
	}
	t := &Texture{
		ctx:     c,
		format:  format,
		typ:     TexturePhysical,
		flags:   flags&^undefined | undefined,
		w:       w,
		h:       h,
		refs:    1,
		appRefs: 1,
		pitch:   w * format.PixelSize(),
		storage: make([]byte, c.textureSize),
	}
	t.pix = make([]byte, t.pitch*h)
	return c.registerTexture(op, t)
}

// registerTexture adds t to the live list and runs the backend
// initializer, undoing both on failure.
func (c *Context) registerTexture(op string, t *Texture) (*Texture, error) {
	c.textures = append(c.textures, t)
	if c.backend.InitTexture != nil {
		if err := c.backend.InitTexture(t); err != nil {
			c.unlistTexture(t)
			t.pix = nil
			t.destroyed = true
			return nil, c.failWith(op, err)
		}
	}
	c.emitTexture(TextureCreated, t)
	return t, nil
}

func (c *Context) unlistTexture(t *Texture) {
	for i, tt := range c.textures {
		if tt == t {
			copy(c.textures[i:], c.textures[i+1:])
			c.textures[len(c.textures)-1] = nil
			c.textures = c.textures[:len(c.textures)-1]
			return
		}
	}
}

// NewTextureFromData creates a texture and copies w*h tightly packed pixels
// from pix into it.
func (c *Context) NewTextureFromData(format PixelFormat, flags TextureFlags, w, h int, pix []byte) (*Texture, error) {
	const op = "NewTextureFromData"
	if format.valid() && len(pix) < w*h*format.PixelSize() {
		return nil, c.fail(op, CodeBadArguments)
	}
	t, err := c.newTexture(op, format, flags|NoClear, w, h)
	if err != nil {
		return nil, err
	}
	if err := t.Write(0, 0, w, h, format, pix, 0); err != nil {
		t.destroy()
		return nil, c.failWith(op, err)
	}
	return t, nil
}

// NewOnDemandTexture creates a texture whose pixels are produced by fn the
// first time Prepare is called, and again after Invalidate. A nil fn
// selects the default fill.
func (c *Context) NewOnDemandTexture(format PixelFormat, flags TextureFlags, w, h int, fn TextureRenderFunc) (*Texture, error) {
	t, err := c.newTexture("NewOnDemandTexture", format, flags|NoClear, w, h)
	if err != nil {
		return nil, err
	}
	t.flags |= OnDemand
	t.render = fn
	return t, nil
}

// NewSubTexture creates a texture viewing the w by h rectangle at (x, y) of
// parent. It shares the pixels of parent and holds a reference to it.
// Rectangles outside parent fail with CodeClipping.
func (c *Context) NewSubTexture(parent *Texture, x, y, w, h int) (*Texture, error) {
	const op = "NewSubTexture"
	if parent == nil || parent.ctx != c || parent.destroyed {
		return nil, c.fail(op, CodeBadArguments)
	}
	if !parent.contains(x, y, w, h) {
		return nil, c.fail(op, CodeClipping)
	}
	phys, px, py := parent.Physical()
	t := &Texture{
		ctx:     c,
		format:  phys.format,
		typ:     TextureSub,
		flags:   phys.flags &^ (undefined | OnDemand),
		w:       w,
		h:       h,
		refs:    1,
		appRefs: 1,
		pix:     phys.pix,
		pitch:   phys.pitch,
		parent:  phys,
		x:       px + x,
		y:       py + y,
		storage: make([]byte, c.textureSize),
	}
	phys.retain()
	if _, err := c.registerTexture(op, t); err != nil {
		phys.release()
		return nil, err
	}
	return t, nil
}

func (t *Texture) contains(x, y, w, h int) bool {
	return x >= 0 && y >= 0 && w >= 0 && h >= 0 && x+w <= t.w && y+h <= t.h
}

// Physical returns the texture owning the pixel buffer and the offset of t
// within it. For physical textures it returns t, 0, 0.
func (t *Texture) Physical() (*Texture, int, int) {
	if t.typ == TextureSub {
		return t.parent, t.x, t.y
	}
	return t, 0, 0
}

// Format returns the pixel format.
func (t *Texture) Format() PixelFormat { return t.format }

// Size returns the width and height in pixels.
func (t *Texture) Size() (w, h int) { return t.w, t.h }

// Type returns the storage variant.
func (t *Texture) Type() TextureType { return t.typ }

// Flags returns the texture flags.
func (t *Texture) Flags() TextureFlags { return t.flags }

// Defined reports whether the pixels have been written.
func (t *Texture) Defined() bool {
	phys, _, _ := t.Physical()
	return phys.flags&undefined == 0
}

// RefCount returns the number of references.
func (t *Texture) RefCount() int { return t.refs }

// Destroyed reports whether t has been torn down.
func (t *Texture) Destroyed() bool { return t.destroyed }

// Storage returns the backend storage block.
func (t *Texture) Storage() []byte { return t.storage }

// Bytes returns the pixel buffer of the physical texture behind t. Rows are
// Pitch bytes apart. Backends read it to draw or upload.
func (t *Texture) Bytes() []byte { return t.pix }

// Pitch returns the bytes between rows of the physical buffer.
func (t *Texture) Pitch() int { return t.pitch }

// --- References ---

func (t *Texture) retain() { t.refs++ }

func (t *Texture) release() {
	if t.destroyed {
		return
	}
	t.refs--
	if t.refs <= 0 {
		t.destroy()
	}
}

// Retain adds an application reference.
func (t *Texture) Retain() {
	if t.destroyed {
		return
	}
	t.appRefs++
	t.retain()
}

// Release drops an application reference, destroying t when no
// application, entity or lock reference remains. Releasing more often than
// the creator and Retain acquired fails with CodeDenied and leaves t alive
// for the entities still using it.
func (t *Texture) Release() error {
	const op = "Texture.Release"
	if t.destroyed || t.appRefs == 0 {
		return t.ctx.fail(op, CodeDenied)
	}
	t.appRefs--
	t.release()
	return nil
}

// destroy runs the backend teardown hook once, frees the pixels and drops
// t from the context.
func (t *Texture) destroy() {
	if t.destroyed {
		return
	}
	t.destroyed = true
	c := t.ctx
	if c.backend.CloseTexture != nil {
		c.backend.CloseTexture(t)
	}
	c.unlistTexture(t)
	c.emitTexture(TextureDestroyed, t)
	t.pix = nil
	t.render = nil
	if t.parent != nil {
		t.parent.release()
		t.parent = nil
	}
}

// --- Pixel access ---

// Lock locks the whole texture for writing.
func (t *Texture) Lock() (*Pixels, error) {
	return t.lock("Lock", 0, 0, t.w, t.h)
}

// LockRegion locks the w by h rectangle at (x, y). Rectangles outside the
// texture fail with CodeClipping and leave it untouched.
func (t *Texture) LockRegion(x, y, w, h int) (*Pixels, error) {
	return t.lock("LockRegion", x, y, w, h)
}

func (t *Texture) lock(op string, x, y, w, h int) (*Pixels, error) {
	c := t.ctx
	if t.destroyed {
		return nil, c.fail(op, CodeDenied)
	}
	if !t.contains(x, y, w, h) {
		return nil, c.fail(op, CodeClipping)
	}
	phys, ox, oy := t.Physical()
	if phys.flags&(undefined|NoClear) == undefined {
		defaultFill(phys.descriptor(0, 0, phys.w, phys.h))
		phys.flags &^= undefined
	}
	px := phys.descriptor(ox+x, oy+y, w, h)
	px.Texture = t
	px.X, px.Y = x, y
	t.retain()
	return px, nil
}

// descriptor builds a Pixels for the given rectangle of a physical
// texture.
func (t *Texture) descriptor(x, y, w, h int) *Pixels {
	size := t.format.PixelSize()
	var pix []byte
	if w > 0 && h > 0 && size > 0 {
		off := y*t.pitch + x*size
		end := off + (h-1)*t.pitch + w*size
		pix = t.pix[off:end:end]
	}
	return &Pixels{
		Texture: t,
		Pix:     pix,
		X:       x,
		Y:       y,
		W:       w,
		H:       h,
		Pitch:   t.pitch,
		Format:  t.format,
		ctx:     t.ctx,
	}
}

// Row returns the bytes of row y of the locked rectangle.
func (px *Pixels) Row(y int) []byte {
	size := px.Format.PixelSize()
	off := y * px.Pitch
	return px.Pix[off : off+px.W*size]
}

// Locked reports whether px still holds its lock.
func (px *Pixels) Locked() bool { return px != nil && px.Texture != nil && !px.unlocked }

// Unlock hands the written pixels to the backend upload hook, releases the
// lock reference and invalidates px. Unlocking twice fails with
// CodeUnlocked; a descriptor that never came from Lock fails with
// CodeNotLocked.
func (px *Pixels) Unlock() error {
	const op = "Unlock"
	if px == nil || px.ctx == nil {
		return newError(op, CodeNotLocked)
	}
	c := px.ctx
	if px.unlocked {
		return c.fail(op, CodeUnlocked)
	}
	t := px.Texture
	var err error
	if c.backend.UploadTexture != nil {
		err = c.backend.UploadTexture(px)
	}
	phys, _, _ := t.Physical()
	phys.flags &^= undefined
	px.unlocked = true
	px.Texture = nil
	px.Pix = nil
	t.release()
	if err != nil {
		return c.failWith(op, err)
	}
	return nil
}

// defaultFill sets every byte of the rectangle to 0xFF.
func defaultFill(px *Pixels) error {
	size := px.Format.PixelSize()
	if size == 0 {
		return nil
	}
	for y := 0; y < px.H; y++ {
		row := px.Pix[y*px.Pitch : y*px.Pitch+px.W*size]
		for i := range row {
			row[i] = 0xFF
		}
	}
	return nil
}

// Write copies a w by h rectangle of pixels into t at (x, y). Source rows
// are stride bytes apart; zero means tightly packed. format must match the
// texture format.
func (t *Texture) Write(x, y, w, h int, format PixelFormat, pix []byte, stride int) error {
	const op = "Write"
	c := t.ctx
	if format != t.format {
		return c.fail(op, CodeBadFormat)
	}
	size := format.PixelSize()
	rowBytes := w * size
	if stride == 0 {
		stride = rowBytes
	}
	if stride < rowBytes || (h > 0 && len(pix) < (h-1)*stride+rowBytes) {
		return c.fail(op, CodeBadArguments)
	}
	px, err := t.LockRegion(x, y, w, h)
	if err != nil {
		return err
	}
	for row := 0; row < h; row++ {
		copy(px.Row(row), pix[row*stride:row*stride+rowBytes])
	}
	return px.Unlock()
}

// SetRenderCallback replaces the render callback of an on-demand texture
// and marks it for re-rendering. A nil fn selects the default fill.
// Other textures fail with CodeNotSupported.
func (t *Texture) SetRenderCallback(fn TextureRenderFunc) error {
	if t.flags&(Virtual|OnDemand) == 0 {
		return t.ctx.fail("SetRenderCallback", CodeNotSupported)
	}
	t.render = fn
	t.flags |= undefined
	return nil
}

// Invalidate marks an on-demand texture for re-rendering by the next
// Prepare.
func (t *Texture) Invalidate() {
	if t.flags&OnDemand != 0 {
		t.flags |= undefined
	}
}

// Prepare renders an on-demand texture through its callback if its pixels
// are not defined. Backends call it before drawing with t. Other textures
// are left alone.
func (t *Texture) Prepare() error {
	const op = "Prepare"
	if t.flags&OnDemand == 0 || t.flags&undefined == 0 {
		return nil
	}
	px, err := t.Lock()
	if err != nil {
		return err
	}
	fn := t.render
	if fn == nil {
		fn = defaultFill
	}
	if err := fn(px); err != nil {
		// Keep the lock balanced; the pixels stay undefined.
		px.unlocked = true
		t.release()
		return t.ctx.failWith(op, err)
	}
	return px.Unlock()
}
