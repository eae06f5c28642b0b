package ebitenbackend

import (
	"image"
	"math"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/rowan"
)

const epsilon = 1e-9

func near(a, b float64) bool { return math.Abs(a-b) < epsilon }

// newScene opens an ebiten context drawing into a 64x64 image, with one
// clearing layer whose view matches the image pixels, y up.
func newScene(t *testing.T) (*rowan.Context, *Display, *rowan.Entity) {
	t.Helper()
	display := NewDisplay(ebiten.NewImage(64, 64))
	ctx, err := rowan.Open(Name, 0, display)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(ctx.Close)
	layer, err := rowan.NewLayer(ctx.Root(), rowan.FlagClear, 0, 64, 0, 64)
	if err != nil {
		t.Fatalf("NewLayer: %v", err)
	}
	return ctx, display, layer
}

func render(t *testing.T, ctx *rowan.Context) {
	t.Helper()
	if err := ctx.Render(); err != nil {
		t.Fatalf("Render: %v", err)
	}
}

// --- Open ---

func TestOpenRejectsForeignPlatform(t *testing.T) {
	_, err := rowan.Open(Name, 0, ebiten.NewImage(4, 4))
	if got := rowan.CodeOf(err); got != rowan.CodeBackendOpen {
		t.Errorf("code = %v, want %v", got, rowan.CodeBackendOpen)
	}
}

func TestIsDefaultBackend(t *testing.T) {
	ctx, err := rowan.Open("", 0, NewDisplay(nil))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer ctx.Close()
	if got := ctx.Backend().Name; got != Name {
		t.Errorf("backend = %q, want %q", got, Name)
	}
}

func TestRenderWithoutTarget(t *testing.T) {
	ctx, err := rowan.Open(Name, 0, NewDisplay(nil))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer ctx.Close()
	if got := rowan.CodeOf(ctx.Render()); got != rowan.CodeDriverOpen {
		t.Errorf("code = %v, want %v", got, rowan.CodeDriverOpen)
	}
}

func TestFramesCount(t *testing.T) {
	ctx, display, _ := newScene(t)
	render(t, ctx)
	render(t, ctx)
	if display.Frames() != 2 {
		t.Errorf("Frames = %d, want 2", display.Frames())
	}
}

// --- Geometry ---

func TestViewProjection(t *testing.T) {
	p := viewProjection(rowan.View{Left: 0, Right: 64, Bottom: 0, Top: 32}, image.Rect(0, 0, 64, 64))
	tests := []struct {
		wx, wy, px, py float64
	}{
		{0, 0, 0, 64},
		{64, 32, 64, 0},
		{32, 16, 32, 32},
	}
	for _, tt := range tests {
		x, y := p.apply(tt.wx, tt.wy)
		if !near(x, tt.px) || !near(y, tt.py) {
			t.Errorf("apply(%v, %v) = (%v, %v), want (%v, %v)", tt.wx, tt.wy, x, y, tt.px, tt.py)
		}
	}
}

func TestViewProjectionOffsetTarget(t *testing.T) {
	p := viewProjection(rowan.View{Left: -1, Right: 1, Bottom: -1, Top: 1}, image.Rect(10, 20, 30, 40))
	x, y := p.apply(-1, 1)
	if !near(x, 10) || !near(y, 20) {
		t.Errorf("top-left = (%v, %v), want (10, 20)", x, y)
	}
	x, y = p.apply(1, -1)
	if !near(x, 30) || !near(y, 40) {
		t.Errorf("bottom-right = (%v, %v), want (30, 40)", x, y)
	}
}

func TestTexCoordRowZeroOnTop(t *testing.T) {
	rect := image.Rect(4, 8, 12, 24)
	tests := []struct {
		s, t   float64
		sx, sy float64
	}{
		{0, 0, 4, 24},
		{1, 0, 12, 24},
		{1, 1, 12, 8},
		{0.5, 0.5, 8, 16},
		{2, -1, 20, 40},
	}
	for _, tt := range tests {
		got := texCoord(rect, tt.s, tt.t)
		if !near(got.X, tt.sx) || !near(got.Y, tt.sy) {
			t.Errorf("texCoord(%v, %v) = %v, want (%v, %v)", tt.s, tt.t, got, tt.sx, tt.sy)
		}
	}
}

func TestSpriteQuad(t *testing.T) {
	q := spriteQuad(rowan.Vec2{X: 0.5, Y: 0.25})
	want := [4]rowan.Vec2{{X: -0.5, Y: -0.25}, {X: 0.5, Y: -0.25}, {X: 0.5, Y: 0.75}, {X: -0.5, Y: 0.75}}
	if q != want {
		t.Errorf("spriteQuad = %v, want %v", q, want)
	}
}

func TestVertexPremultipliesColor(t *testing.T) {
	v := vertex(rowan.Vec2{X: 1, Y: 2}, rowan.Vec2{X: 3, Y: 4}, rowan.Color{R: 1, G: 0.5, B: 0, A: 0.5})
	if v.DstX != 1 || v.DstY != 2 || v.SrcX != 3 || v.SrcY != 4 {
		t.Errorf("positions = %+v", v)
	}
	if v.ColorR != 0.5 || v.ColorG != 0.25 || v.ColorB != 0 || v.ColorA != 0.5 {
		t.Errorf("color = (%v, %v, %v, %v), want (0.5, 0.25, 0, 0.5)", v.ColorR, v.ColorG, v.ColorB, v.ColorA)
	}
}

func TestPolygonFan(t *testing.T) {
	r := &renderer{}
	r.polygon([]rowan.Vec2{{}, {X: 1}, {X: 1, Y: 1}, {Y: 1}}, nil, rowan.Color{A: 1})
	r.polygon([]rowan.Vec2{{}, {X: 1}, {X: 1, Y: 1}}, nil, rowan.Color{A: 1})
	want := []uint32{0, 1, 2, 0, 2, 3, 4, 5, 6}
	if len(r.inds) != len(want) {
		t.Fatalf("indices = %v, want %v", r.inds, want)
	}
	for i := range want {
		if r.inds[i] != want[i] {
			t.Fatalf("indices = %v, want %v", r.inds, want)
		}
	}
	if len(r.verts) != 7 {
		t.Errorf("vertices = %d, want 7", len(r.verts))
	}
	if r.verts[0].SrcX != 0.5 || r.verts[0].SrcY != 0.5 {
		t.Errorf("untextured vertex samples (%v, %v), want the white pixel center", r.verts[0].SrcX, r.verts[0].SrcY)
	}
}

func TestPolygonDegenerateSkipped(t *testing.T) {
	r := &renderer{}
	r.polygon([]rowan.Vec2{{}, {X: 1}}, nil, rowan.Color{A: 1})
	if len(r.verts) != 0 || len(r.inds) != 0 {
		t.Errorf("got %d vertices, %d indices; want none", len(r.verts), len(r.inds))
	}
}

func TestBoundingBox(t *testing.T) {
	got := boundingBox([]rowan.Vec2{{X: 1.5, Y: 2.2}, {X: 9.1, Y: 0.5}, {X: 4, Y: 7.9}})
	if want := image.Rect(1, 0, 10, 8); got != want {
		t.Errorf("boundingBox = %v, want %v", got, want)
	}
}

func TestClipBand(t *testing.T) {
	square := []rowan.Vec2{{X: -1, Y: -1}, {X: 2, Y: -1}, {X: 2, Y: 2}, {X: -1, Y: 2}}

	got := clipBand(square, 0, 0, 1)
	if len(got) != 4 {
		t.Fatalf("clipBand X = %v, want 4 points", got)
	}
	for _, p := range got {
		if p.X < 0 || p.X > 1 {
			t.Errorf("point %v outside 0 <= x <= 1", p)
		}
	}

	got = clipBand(got, 1, 0, 1)
	if len(got) != 4 {
		t.Fatalf("clipBand XY = %v, want the unit square", got)
	}
	corner := func(v float64) bool { return near(v, 0) || near(v, 1) }
	for _, p := range got {
		if !corner(p.X) || !corner(p.Y) {
			t.Errorf("unexpected corner %v", p)
		}
	}

	if got := clipBand(square, 0, 5, 6); len(got) != 0 {
		t.Errorf("disjoint band = %v, want empty", got)
	}
}

func TestLineQuad(t *testing.T) {
	q := lineQuad(rowan.Vec2{X: 0, Y: 0}, rowan.Vec2{X: 4, Y: 0})
	want := []rowan.Vec2{{X: 0, Y: 0.5}, {X: 4, Y: 0.5}, {X: 4, Y: -0.5}, {X: 0, Y: -0.5}}
	for i := range want {
		if !near(q[i].X, want[i].X) || !near(q[i].Y, want[i].Y) {
			t.Errorf("lineQuad[%d] = %v, want %v", i, q[i], want[i])
		}
	}
	if got := lineQuad(rowan.Vec2{X: 2, Y: 2}, rowan.Vec2{X: 2, Y: 2}); got[0] != (rowan.Vec2{X: 1.5, Y: 1.5}) {
		t.Errorf("zero-length line = %v, want a point quad", got)
	}
}

func TestAddress(t *testing.T) {
	ctx, _, _ := newScene(t)
	tests := []struct {
		flags rowan.TextureFlags
		want  ebiten.Address
	}{
		{0, ebiten.AddressClampToZero},
		{rowan.HWrap, ebiten.AddressRepeat},
		{rowan.VWrap, ebiten.AddressRepeat},
	}
	for _, tt := range tests {
		tex, err := ctx.NewTexture(rowan.FormatRGBA, tt.flags, 2, 2)
		if err != nil {
			t.Fatalf("NewTexture: %v", err)
		}
		if got := address(tex); got != tt.want {
			t.Errorf("address(%v) = %v, want %v", tt.flags, got, tt.want)
		}
	}
	if got := address(nil); got != ebiten.AddressUnsafe {
		t.Errorf("address(nil) = %v, want AddressUnsafe", got)
	}
}

// --- Textures ---

func TestPremultipliedFormats(t *testing.T) {
	ctx, _, _ := newScene(t)
	tests := []struct {
		format rowan.PixelFormat
		pix    []byte
		want   []byte
	}{
		{rowan.FormatI, []byte{0x80}, []byte{0x80, 0x80, 0x80, 0xFF}},
		{rowan.FormatRGB, []byte{1, 2, 3, 0}, []byte{1, 2, 3, 0xFF}},
		{rowan.FormatRGBA, []byte{255, 128, 0, 128}, []byte{128, 64, 0, 128}},
	}
	for _, tt := range tests {
		tex, err := ctx.NewTextureFromData(tt.format, 0, 1, 1, tt.pix)
		if err != nil {
			t.Fatalf("NewTextureFromData: %v", err)
		}
		got := premultiplied(tex, image.Rect(0, 0, 1, 1))
		if string(got) != string(tt.want) {
			t.Errorf("format %v: premultiplied = %v, want %v", tt.format, got, tt.want)
		}
	}
}

func TestTextureImageCreatedOnDraw(t *testing.T) {
	ctx, _, layer := newScene(t)
	tex, err := ctx.NewTextureFromData(rowan.FormatRGBA, 0, 1, 1, []byte{255, 0, 0, 255})
	if err != nil {
		t.Fatalf("NewTextureFromData: %v", err)
	}
	s, err := rowan.NewSprite(layer, 0, tex, 0.5, 0.5)
	if err != nil {
		t.Fatalf("NewSprite: %v", err)
	}
	s.SetTransform(32, 32, 0, 16, 0)
	render(t, ctx)
	if _, ok := tex.BackendData.(*ebiten.Image); !ok {
		t.Errorf("BackendData = %T, want *ebiten.Image", tex.BackendData)
	}
}

func TestSubTextureSharesImage(t *testing.T) {
	ctx, _, layer := newScene(t)
	tex, err := ctx.NewTexture(rowan.FormatRGBA, 0, 4, 4)
	if err != nil {
		t.Fatalf("NewTexture: %v", err)
	}
	sub, err := ctx.NewSubTexture(tex, 2, 2, 2, 2)
	if err != nil {
		t.Fatalf("NewSubTexture: %v", err)
	}
	if _, err := rowan.NewSprite(layer, 0, sub, 0.5, 0.5); err != nil {
		t.Fatalf("NewSprite: %v", err)
	}
	render(t, ctx)
	if _, ok := tex.BackendData.(*ebiten.Image); !ok {
		t.Errorf("parent BackendData = %T, want *ebiten.Image", tex.BackendData)
	}
	if sub.BackendData != nil {
		t.Errorf("sub-texture BackendData = %T, want nil", sub.BackendData)
	}
}

func TestOnDemandTexturePrepared(t *testing.T) {
	ctx, _, layer := newScene(t)
	calls := 0
	tex, err := ctx.NewOnDemandTexture(rowan.FormatRGBA, 0, 2, 2, func(px *rowan.Pixels) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("NewOnDemandTexture: %v", err)
	}
	if _, err := rowan.NewSprite(layer, 0, tex, 0.5, 0.5); err != nil {
		t.Fatalf("NewSprite: %v", err)
	}
	render(t, ctx)
	render(t, ctx)
	if calls != 1 {
		t.Errorf("render callback ran %d times, want 1", calls)
	}
}

func TestCloseTextureDeallocates(t *testing.T) {
	ctx, _, layer := newScene(t)
	tex, err := ctx.NewTexture(rowan.FormatRGBA, 0, 2, 2)
	if err != nil {
		t.Fatalf("NewTexture: %v", err)
	}
	s, err := rowan.NewSprite(layer, 0, tex, 0.5, 0.5)
	if err != nil {
		t.Fatalf("NewSprite: %v", err)
	}
	render(t, ctx)
	_ = s.Destroy()
	tex.Release()
	if tex.BackendData != nil {
		t.Errorf("BackendData = %T after close, want nil", tex.BackendData)
	}
}

// --- Drawing ---

func TestDrawAllKinds(t *testing.T) {
	ctx, _, layer := newScene(t)
	tex, err := ctx.NewTexture(rowan.FormatRGBA, rowan.HWrap, 4, 4)
	if err != nil {
		t.Fatalf("NewTexture: %v", err)
	}

	win, err := rowan.NewWindow(layer, rowan.FlagClear|rowan.FlagClip, 8, 8, 32, 32)
	if err != nil {
		t.Fatalf("NewWindow: %v", err)
	}
	if _, err := rowan.NewSprite(win, 0, tex, 0.5, 0.5); err != nil {
		t.Fatalf("NewSprite: %v", err)
	}
	f, err := rowan.NewFill(win, 0, tex)
	if err != nil {
		t.Fatalf("NewFill: %v", err)
	}
	f.SetScale(8)

	kinds := []rowan.PrimitiveKind{
		rowan.Points, rowan.Lines, rowan.LineStrip, rowan.LineLoop,
		rowan.Triangles, rowan.TriangleStrip, rowan.TriangleFan, rowan.Quads,
	}
	for _, k := range kinds {
		p, err := rowan.NewPrimitive(layer, 0, k, tex, 32, 32, 1, 0)
		if err != nil {
			t.Fatalf("NewPrimitive(%v): %v", k, err)
		}
		if err := p.Vertices(2, []float64{0, 0, 10, 0, 10, 10, 0, 10}); err != nil {
			t.Fatalf("Vertices: %v", err)
		}
		if err := p.TexCoords([]float64{0, 0, 1, 0, 1, 1, 0, 1}); err != nil {
			t.Fatalf("TexCoords: %v", err)
		}
	}
	render(t, ctx)

	// Zero scale collapses the fill without failing the frame.
	f.SetScale(0)
	render(t, ctx)
}

func TestNestedClipWindows(t *testing.T) {
	ctx, _, layer := newScene(t)
	win, err := rowan.NewWindow(layer, rowan.FlagClip, 0, 0, 16, 16)
	if err != nil {
		t.Fatalf("NewWindow: %v", err)
	}
	if _, err := rowan.NewWindow(win, rowan.FlagClip|rowan.FlagClear, 4, 4, 4, 4); err != nil {
		t.Fatalf("NewWindow: %v", err)
	}
	// Outside both clips.
	if _, err := rowan.NewWindow(win, rowan.FlagClip|rowan.FlagClear, 40, 40, 4, 4); err != nil {
		t.Fatalf("NewWindow: %v", err)
	}
	render(t, ctx)
	render(t, ctx)
}

// --- Screenshots ---

func TestSanitizeLabel(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"hello", "hello"},
		{"after-spawn", "after-spawn"},
		{"frame.01", "frame.01"},
		{"has spaces", "has_spaces"},
		{"path/to/thing", "path_to_thing"},
		{"", "unlabeled"},
		{"   ", "unlabeled"},
	}
	for _, tt := range tests {
		if got := sanitizeLabel(tt.in); got != tt.want {
			t.Errorf("sanitizeLabel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestScreenshotQueue(t *testing.T) {
	d := NewDisplay(nil)
	if d.ScreenshotDir != "screenshots" {
		t.Errorf("ScreenshotDir = %q, want %q", d.ScreenshotDir, "screenshots")
	}
	d.Screenshot("a")
	d.Screenshot("b")
	if len(d.shots) != 2 || d.shots[0] != "a" || d.shots[1] != "b" {
		t.Errorf("queue = %v, want [a b]", d.shots)
	}
}
