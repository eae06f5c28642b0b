package softbackend

import (
	"image/color"
	"testing"

	"github.com/gogpu/gg"

	"github.com/phanxgames/rowan"
)

var (
	red   = rowan.Color{R: 1, A: 1}
	green = rowan.Color{G: 1, A: 1}
	blue  = rowan.Color{B: 1, A: 1}
)

// newScene opens a soft context on a 64x64 canvas with one clearing layer
// whose view matches the canvas pixels, y up.
func newScene(t *testing.T) (*rowan.Context, *Canvas, *rowan.Entity) {
	t.Helper()
	canvas := NewCanvas(64, 64)
	t.Cleanup(func() { _ = canvas.Close() })
	ctx, err := rowan.Open(Name, 0, canvas)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(ctx.Close)
	layer, err := rowan.NewLayer(ctx.Root(), rowan.FlagClear, 0, 64, 0, 64)
	if err != nil {
		t.Fatalf("NewLayer: %v", err)
	}
	return ctx, canvas, layer
}

func render(t *testing.T, ctx *rowan.Context) {
	t.Helper()
	if err := ctx.Render(); err != nil {
		t.Fatalf("Render: %v", err)
	}
}

func pixel(c *Canvas, x, y int) color.NRGBA {
	return color.NRGBAModel.Convert(c.Image().At(x, y)).(color.NRGBA)
}

// assertPixel compares the canvas pixel at (x, y) against want, allowing
// for antialiasing at a distance from edges.
func assertPixel(t *testing.T, c *Canvas, x, y int, want rowan.Color) {
	t.Helper()
	got := pixel(c, x, y)
	w := color.NRGBA{R: byte(want.R * 255), G: byte(want.G * 255), B: byte(want.B * 255), A: byte(want.A * 255)}
	near := func(a, b byte) bool { return max(a, b)-min(a, b) < 8 }
	if !near(got.R, w.R) || !near(got.G, w.G) || !near(got.B, w.B) || !near(got.A, w.A) {
		t.Errorf("pixel (%d, %d) = %v, want %v", x, y, got, w)
	}
}

func rgbaTexture(t *testing.T, ctx *rowan.Context, flags rowan.TextureFlags, w, h int, pix ...rowan.Color) *rowan.Texture {
	t.Helper()
	tex, err := ctx.NewTexture(rowan.FormatRGBA, flags, w, h)
	if err != nil {
		t.Fatalf("NewTexture: %v", err)
	}
	data := make([]byte, 0, len(pix)*4)
	for _, c := range pix {
		data = append(data, byte(c.R*255), byte(c.G*255), byte(c.B*255), byte(c.A*255))
	}
	if err := tex.Write(0, 0, w, h, rowan.FormatRGBA, data, 0); err != nil {
		t.Fatalf("Write: %v", err)
	}
	return tex
}

// --- Open ---

func TestOpenRejectsForeignPlatform(t *testing.T) {
	_, err := rowan.Open(Name, 0, "not a canvas")
	if rowan.CodeOf(err) != rowan.CodeBackendOpen {
		t.Fatalf("Open = %v, want CodeBackendOpen", err)
	}
}

func TestOpenClosedCanvas(t *testing.T) {
	canvas := NewCanvas(4, 4)
	_ = canvas.Close()
	_, err := rowan.Open(Name, 0, canvas)
	if rowan.CodeOf(err) != rowan.CodeDriverOpen {
		t.Fatalf("Open = %v, want CodeDriverOpen", err)
	}
}

func TestFramesCount(t *testing.T) {
	ctx, canvas, _ := newScene(t)
	render(t, ctx)
	render(t, ctx)
	if canvas.Frames() != 2 {
		t.Errorf("Frames = %d, want 2", canvas.Frames())
	}
	if w, h := canvas.Size(); w != 64 || h != 64 {
		t.Errorf("Size = %dx%d", w, h)
	}
}

// --- Layer ---

func TestLayerClear(t *testing.T) {
	ctx, canvas, layer := newScene(t)
	if err := layer.SetBGColor(red); err != nil {
		t.Fatalf("SetBGColor: %v", err)
	}
	render(t, ctx)
	assertPixel(t, canvas, 1, 1, red)
	assertPixel(t, canvas, 62, 62, red)
}

func TestLayerWithoutClearLeavesCanvasTransparent(t *testing.T) {
	canvas := NewCanvas(8, 8)
	defer canvas.Close()
	ctx, err := rowan.Open(Name, 0, canvas)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer ctx.Close()
	if _, err := rowan.NewLayer(ctx.Root(), 0, 0, 8, 0, 8); err != nil {
		t.Fatalf("NewLayer: %v", err)
	}
	render(t, ctx)
	if got := pixel(canvas, 4, 4); got.A != 0 {
		t.Errorf("pixel = %v, want transparent", got)
	}
}

// --- Sprite ---

func TestColorSprite(t *testing.T) {
	ctx, canvas, layer := newScene(t)
	s, _ := rowan.NewSprite(layer, 0, nil, 0.5, 0.5)
	s.SetTransform(32, 32, 0, 16, 0)
	s.SetColor(green)
	render(t, ctx)

	assertPixel(t, canvas, 32, 32, green)
	assertPixel(t, canvas, 4, 4, rowan.Color{A: 1})
}

func TestSpriteHotspotIsYUp(t *testing.T) {
	ctx, canvas, layer := newScene(t)
	// Hotspot at the bottom-left corner: the quad extends right and up.
	s, _ := rowan.NewSprite(layer, 0, nil, 0, 0)
	s.SetTransform(8, 8, 0, 16, 0)
	s.SetColor(green)
	render(t, ctx)

	// World (16, 16) is canvas row 64-16.
	assertPixel(t, canvas, 16, 48, green)
	assertPixel(t, canvas, 16, 60, rowan.Color{A: 1})
}

func TestTexturedSpriteRowZeroOnTop(t *testing.T) {
	ctx, canvas, layer := newScene(t)
	tex := rgbaTexture(t, ctx, 0, 2, 2, red, red, blue, blue)
	s, _ := rowan.NewSprite(layer, 0, tex, 0.5, 0.5)
	s.SetTransform(32, 32, 0, 32, 0)
	render(t, ctx)

	assertPixel(t, canvas, 32, 18, red)
	assertPixel(t, canvas, 32, 45, blue)
	assertPixel(t, canvas, 4, 4, rowan.Color{A: 1})
}

func TestSubTextureSprite(t *testing.T) {
	ctx, canvas, layer := newScene(t)
	sheet := rgbaTexture(t, ctx, 0, 2, 1, red, blue)
	sub, err := ctx.NewSubTexture(sheet, 1, 0, 1, 1)
	if err != nil {
		t.Fatalf("NewSubTexture: %v", err)
	}
	s, _ := rowan.NewSprite(layer, 0, sub, 0.5, 0.5)
	s.SetTransform(32, 32, 0, 32, 0)
	render(t, ctx)
	assertPixel(t, canvas, 32, 32, blue)
}

func TestTextureUploadRefreshesImage(t *testing.T) {
	ctx, canvas, layer := newScene(t)
	tex := rgbaTexture(t, ctx, 0, 1, 1, red)
	s, _ := rowan.NewSprite(layer, 0, tex, 0.5, 0.5)
	s.SetTransform(32, 32, 0, 32, 0)
	render(t, ctx)
	assertPixel(t, canvas, 32, 32, red)

	if err := tex.Write(0, 0, 1, 1, rowan.FormatRGBA, []byte{0, 255, 0, 255}, 0); err != nil {
		t.Fatalf("Write: %v", err)
	}
	render(t, ctx)
	assertPixel(t, canvas, 32, 32, green)
}

func TestOnDemandTexturePrepared(t *testing.T) {
	ctx, canvas, layer := newScene(t)
	calls := 0
	tex, err := ctx.NewOnDemandTexture(rowan.FormatI, 0, 1, 1, func(px *rowan.Pixels) error {
		calls++
		px.Row(0)[0] = 0
		return nil
	})
	if err != nil {
		t.Fatalf("NewOnDemandTexture: %v", err)
	}
	_ = layer.SetBGColor(red)
	s, _ := rowan.NewSprite(layer, 0, tex, 0.5, 0.5)
	s.SetTransform(32, 32, 0, 32, 0)
	render(t, ctx)
	render(t, ctx)

	if calls != 1 {
		t.Errorf("render callback ran %d times, want 1", calls)
	}
	assertPixel(t, canvas, 32, 32, rowan.Color{A: 1})
}

func TestTransparentSpriteSkipped(t *testing.T) {
	ctx, canvas, layer := newScene(t)
	_ = layer.SetBGColor(red)
	s, _ := rowan.NewSprite(layer, 0, nil, 0.5, 0.5)
	s.SetTransform(32, 32, 0, 32, 0)
	s.SetColor(rowan.Color{G: 1})
	render(t, ctx)
	assertPixel(t, canvas, 32, 32, red)
}

// --- Window ---

func TestWindowClipsChildren(t *testing.T) {
	ctx, canvas, layer := newScene(t)
	win, err := rowan.NewWindow(layer, rowan.FlagClip, 16, 16, 16, 16)
	if err != nil {
		t.Fatalf("NewWindow: %v", err)
	}
	s, _ := rowan.NewSprite(win, 0, nil, 0.5, 0.5)
	s.SetTransform(32, 32, 0, 64, 0)
	s.SetColor(green)
	render(t, ctx)

	// The window covers world 16..32 on both axes: canvas rows 32..48.
	assertPixel(t, canvas, 24, 40, green)
	assertPixel(t, canvas, 40, 40, rowan.Color{A: 1})
	assertPixel(t, canvas, 24, 24, rowan.Color{A: 1})
}

func TestWindowClipEndsAfterSubtree(t *testing.T) {
	ctx, canvas, layer := newScene(t)
	_, _ = rowan.NewWindow(layer, rowan.FlagClip, 0, 0, 8, 8)
	s, _ := rowan.NewSprite(layer, 0, nil, 0.5, 0.5)
	s.SetTransform(32, 32, 0, 16, 0)
	s.SetColor(green)
	render(t, ctx)
	assertPixel(t, canvas, 32, 32, green)
}

func TestWindowClear(t *testing.T) {
	ctx, canvas, layer := newScene(t)
	win, _ := rowan.NewWindow(layer, rowan.FlagClear, 0, 0, 32, 32)
	_ = win.SetBGColor(blue)
	render(t, ctx)
	assertPixel(t, canvas, 16, 48, blue)
	assertPixel(t, canvas, 48, 16, rowan.Color{A: 1})
}

// --- Primitive ---

func TestFilledTriangle(t *testing.T) {
	ctx, canvas, layer := newScene(t)
	p, _ := rowan.NewPrimitive(layer, 0, rowan.Triangles, nil, 0, 0, 1, 0)
	_ = p.Vertices(2, []float64{0, 0, 64, 0, 0, 64})
	p.SetColor(green)
	render(t, ctx)

	assertPixel(t, canvas, 5, 58, green)
	assertPixel(t, canvas, 58, 5, rowan.Color{A: 1})
}

func TestTexturedQuadPrimitive(t *testing.T) {
	ctx, canvas, layer := newScene(t)
	tex := rgbaTexture(t, ctx, 0, 2, 1, red, blue)
	p, _ := rowan.NewPrimitive(layer, 0, rowan.Quads, tex, 0, 0, 1, 0)
	_ = p.Vertices(2, []float64{0, 0, 64, 0, 64, 64, 0, 64})
	_ = p.TexCoords([]float64{0, 0, 1, 0, 1, 1, 0, 1})
	render(t, ctx)

	assertPixel(t, canvas, 8, 32, red)
	assertPixel(t, canvas, 56, 32, blue)
}

func TestAffine(t *testing.T) {
	from := [3]gg.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}}
	to := [3]gg.Point{{X: 10, Y: 20}, {X: 12, Y: 20}, {X: 10, Y: 23}}
	m, ok := affine(from, to)
	if !ok {
		t.Fatal("affine failed")
	}
	for i := range from {
		got := m.TransformPoint(from[i])
		if got != to[i] {
			t.Errorf("point %d = %v, want %v", i, got, to[i])
		}
	}
	if _, ok := affine([3]gg.Point{{}, {X: 1}, {X: 2}}, to); ok {
		t.Error("collinear points solved")
	}
}

// --- Fill ---

func TestFillCoversLayer(t *testing.T) {
	ctx, canvas, layer := newScene(t)
	tex := rgbaTexture(t, ctx, rowan.HWrap|rowan.VWrap, 1, 1, green)
	f, err := rowan.NewFill(layer, 0, tex)
	if err != nil {
		t.Fatalf("NewFill: %v", err)
	}
	f.SetScale(16)
	render(t, ctx)

	assertPixel(t, canvas, 3, 3, green)
	assertPixel(t, canvas, 60, 60, green)
}

func TestFillWithoutWrapDrawsOnce(t *testing.T) {
	ctx, canvas, layer := newScene(t)
	tex := rgbaTexture(t, ctx, 0, 1, 1, green)
	f, _ := rowan.NewFill(layer, 0, tex)
	f.SetScale(32)
	render(t, ctx)

	// The single tile spans world 0..32: the bottom-left canvas quarter.
	assertPixel(t, canvas, 16, 48, green)
	assertPixel(t, canvas, 48, 16, rowan.Color{A: 1})
}

func TestFillClippedToWindow(t *testing.T) {
	ctx, canvas, layer := newScene(t)
	win, _ := rowan.NewWindow(layer, 0, 32, 32, 32, 32)
	f, _ := rowan.NewFill(win, 0, nil)
	f.SetColor(blue)
	render(t, ctx)

	assertPixel(t, canvas, 48, 16, blue)
	assertPixel(t, canvas, 16, 48, rowan.Color{A: 1})
}

func TestCollapsedFillSkipped(t *testing.T) {
	ctx, _, layer := newScene(t)
	f, _ := rowan.NewFill(layer, 0, nil)
	f.SetScale(0)
	render(t, ctx)
}
