package rowan

import (
	"math"
	"testing"
)

// --- Matrix2 ---

func TestRotateScaleIdentity(t *testing.T) {
	m := RotateScale(0, 1)
	want := Matrix2{1, 0, 0, 1}
	for i := range m {
		assertNear(t, "m", m[i], want[i])
	}
}

func TestRotateScaleQuarterTurn(t *testing.T) {
	m := RotateScale(math.Pi/2, 2)
	x, y := m.TransformPoint(0, 0, 1, 0)
	// (1, 0) rotated a quarter turn and doubled.
	assertNear(t, "x", x, 0)
	assertNear(t, "y", y, 2)
	assertNear(t, "det", m.Det(), 4)
}

func TestInverseZeroScale(t *testing.T) {
	_, err := RotateScale(0, 0).Inverse()
	assertCode(t, "Inverse", err, CodeDivByZero)
}

func TestInverseMatchesNegatedRotation(t *testing.T) {
	tests := []struct {
		name     string
		rotation float64
		scale    float64
	}{
		{"identity", 0, 1},
		{"scaled", 0, 3},
		{"rotated", math.Pi / 3, 1},
		{"rotated scaled", -1.2, 0.25},
		{"negative scale", 2.5, -4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv, err := RotateScale(tt.rotation, tt.scale).Inverse()
			if err != nil {
				t.Fatalf("Inverse: %v", err)
			}
			want := RotateScale(-tt.rotation, 1/tt.scale)
			for i := range inv {
				assertNear(t, "inv", inv[i], want[i])
			}
			id := inv.Mul(RotateScale(tt.rotation, tt.scale))
			for i, w := range [4]float64{1, 0, 0, 1} {
				assertNear(t, "inv*m", id[i], w)
			}
		})
	}
}

func TestInvTransformPointRoundTrip(t *testing.T) {
	m := RotateScale(0.7, 1.5)
	inv, err := m.Inverse()
	if err != nil {
		t.Fatalf("Inverse: %v", err)
	}
	x, y := m.TransformPoint(10, -4, 3, 5)
	bx, by := inv.InvTransformPoint(10, -4, x, y)
	assertNear(t, "x", bx, 3)
	assertNear(t, "y", by, 5)
}

// --- World composition ---

func TestChainComposition(t *testing.T) {
	ctx, _ := newTestContext(t)
	a := mustGroup(t, ctx.Root(), "a")
	a.SetTransform(1, 0, 0, 2, 0)
	b := mustGroup(t, a, "b")
	b.SetPosition(1, 0)
	mustRender(t, ctx)

	w := b.World()
	assertNear(t, "b.world.x", w.X, 3)
	assertNear(t, "b.world.y", w.Y, 0)
	assertNear(t, "b.world.scale", w.Scale, 2)
}

func TestRotatedParentComposition(t *testing.T) {
	ctx, _ := newTestContext(t)
	a := mustGroup(t, ctx.Root(), "a")
	a.SetTransform(10, 10, 1, 1, math.Pi/2)
	b := mustGroup(t, a, "b")
	b.SetTransform(2, 0, 0.5, 3, 0.25)
	mustRender(t, ctx)

	w := b.World()
	assertNear(t, "x", w.X, 10)
	assertNear(t, "y", w.Y, 12)
	assertNear(t, "z", w.Z, 1.5)
	assertNear(t, "scale", w.Scale, 3)
	assertNear(t, "rotation", w.Rotation, math.Pi/2+0.25)

	want := RotateScale(math.Pi/2+0.25, 3)
	for i, v := range b.Matrix() {
		assertNear(t, "matrix", v, want[i])
	}
}

func TestColorComposition(t *testing.T) {
	ctx, _ := newTestContext(t)
	a := mustGroup(t, ctx.Root(), "a")
	a.SetColor(Color{0.5, 1, 1, 0.5})
	b := mustGroup(t, a, "b")
	b.SetColor(Color{1, 0.5, 1, 0.5})
	mustRender(t, ctx)

	c := b.WorldColor()
	assertNear(t, "r", c.R, 0.5)
	assertNear(t, "g", c.G, 0.5)
	assertNear(t, "b", c.B, 1)
	assertNear(t, "a", c.A, 0.25)
	if b.Color() != (Color{1, 0.5, 1, 0.5}) {
		t.Error("local color changed by composition")
	}
}

func TestRootWorldIsLocal(t *testing.T) {
	ctx, _ := newTestContext(t)
	ctx.Root().SetTransform(5, 6, 0, 2, 0)
	mustRender(t, ctx)
	if ctx.Root().World() != ctx.Root().Local() {
		t.Errorf("root world = %+v, want %+v", ctx.Root().World(), ctx.Root().Local())
	}
}

// --- Setters ---

func TestSettersMarkDirty(t *testing.T) {
	tests := []struct {
		name string
		set  func(e *Entity)
		want Transform
	}{
		{"SetPosition", func(e *Entity) { e.SetPosition(1, 2) }, Transform{X: 1, Y: 2, Scale: 1}},
		{"SetPosition3D", func(e *Entity) { e.SetPosition3D(1, 2, 3) }, Transform{X: 1, Y: 2, Z: 3, Scale: 1}},
		{"SetScale", func(e *Entity) { e.SetScale(4) }, Transform{Scale: 4}},
		{"SetRotation", func(e *Entity) { e.SetRotation(0.5) }, Transform{Scale: 1, Rotation: 0.5}},
		{"Move", func(e *Entity) { e.Move(1, -1); e.Move(1, -1) }, Transform{X: 2, Y: -2, Scale: 1}},
		{"Move3D", func(e *Entity) { e.Move3D(1, 1, 1) }, Transform{X: 1, Y: 1, Z: 1, Scale: 1}},
		{"Scale", func(e *Entity) { e.Scale(3); e.Scale(2) }, Transform{Scale: 6}},
		{"Rotate", func(e *Entity) { e.Rotate(0.25); e.Rotate(0.25) }, Transform{Scale: 1, Rotation: 0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, _ := newTestContext(t)
			e := mustGroup(t, ctx.Root(), "e")
			mustRender(t, ctx)
			if e.Dirty() {
				t.Fatal("dirty after Render")
			}
			tt.set(e)
			if !e.Dirty() {
				t.Error("setter did not mark dirty")
			}
			if e.Local() != tt.want {
				t.Errorf("Local = %+v, want %+v", e.Local(), tt.want)
			}
		})
	}
}

func TestSetBGColorWrongType(t *testing.T) {
	ctx, _ := newTestContext(t)
	layer := mustLayer(t, ctx, "layer")
	if err := layer.SetBGColor(Color{1, 0, 0, 1}); err != nil {
		t.Fatalf("SetBGColor: %v", err)
	}
	if layer.BGColor() != (Color{1, 0, 0, 1}) {
		t.Errorf("BGColor = %+v", layer.BGColor())
	}
	g := mustGroup(t, layer, "g")
	assertCode(t, "SetBGColor on group", g.SetBGColor(ColorWhite), CodeWrongType)
}

func TestSetView(t *testing.T) {
	ctx, _ := newTestContext(t)
	layer := mustLayer(t, ctx, "layer")
	if err := layer.SetView(-1, 1, -1, 1); err != nil {
		t.Fatalf("SetView: %v", err)
	}
	if layer.View() != (View{-1, 1, -1, 1}) {
		t.Errorf("View = %+v", layer.View())
	}
	assertCode(t, "degenerate", layer.SetView(0, 0, -1, 1), CodeBadArguments)
	if layer.View() != (View{-1, 1, -1, 1}) {
		t.Error("failed SetView changed the view")
	}
	g := mustGroup(t, layer, "g")
	assertCode(t, "group", g.SetView(0, 1, 0, 1), CodeWrongType)
}

func TestSetTexture(t *testing.T) {
	ctx, _ := newTestContext(t)
	a, _ := ctx.NewTexture(FormatRGBA, 0, 1, 1)
	b, _ := ctx.NewTexture(FormatRGBA, 0, 1, 1)
	s := mustSprite(t, ctx.Root(), "s", a)

	if err := s.SetTexture(a); err != nil {
		t.Fatalf("SetTexture same: %v", err)
	}
	if a.RefCount() != 2 || a.Destroyed() {
		t.Errorf("same texture RefCount = %d", a.RefCount())
	}
	if err := s.SetTexture(b); err != nil {
		t.Fatalf("SetTexture: %v", err)
	}
	if a.RefCount() != 1 || b.RefCount() != 2 {
		t.Errorf("RefCounts = %d, %d, want 1, 2", a.RefCount(), b.RefCount())
	}
	if err := s.SetTexture(nil); err != nil {
		t.Fatalf("SetTexture nil: %v", err)
	}
	if b.RefCount() != 1 || s.Texture() != nil {
		t.Error("nil texture not applied")
	}

	g := mustGroup(t, ctx.Root(), "g")
	assertCode(t, "group", g.SetTexture(a), CodeNotSupported)
}

// --- Coordinate conversion ---

func TestWorldToLocalRoundTrip(t *testing.T) {
	ctx, _ := newTestContext(t)
	a := mustGroup(t, ctx.Root(), "a")
	a.SetTransform(4, -2, 0, 2, 0.6)
	b := mustGroup(t, a, "b")
	b.SetTransform(1, 1, 0, 0.5, -1.1)
	mustRender(t, ctx)

	wx, wy := b.LocalToWorld(3, 7)
	lx, ly, err := b.WorldToLocal(wx, wy)
	if err != nil {
		t.Fatalf("WorldToLocal: %v", err)
	}
	assertNear(t, "x", lx, 3)
	assertNear(t, "y", ly, 7)
}

func TestWorldToLocalZeroScale(t *testing.T) {
	ctx, _ := newTestContext(t)
	g := mustGroup(t, ctx.Root(), "g")
	g.SetScale(0)
	mustRender(t, ctx)
	_, _, err := g.WorldToLocal(1, 1)
	assertCode(t, "WorldToLocal", err, CodeDivByZero)
}

// --- Fill geometry ---

func TestFillGeometryOnLayer(t *testing.T) {
	ctx, _ := newTestContext(t)
	layer, err := NewLayer(ctx.Root(), 0, 0, 8, 0, 4)
	if err != nil {
		t.Fatalf("NewLayer: %v", err)
	}
	f, err := NewFill(layer, 0, nil)
	if err != nil {
		t.Fatalf("NewFill: %v", err)
	}
	f.SetTransform(0, 0, 2, 4, 0)
	mustRender(t, ctx)

	g, err := f.FillGeometry()
	if err != nil {
		t.Fatalf("FillGeometry: %v", err)
	}
	wantCorners := [4]Vec2{{0, 0}, {8, 0}, {8, 4}, {0, 4}}
	wantUV := [4]Vec2{{0, 0}, {2, 0}, {2, 1}, {0, 1}}
	for i := range wantCorners {
		assertNear(t, "corner x", g.Corners[i].X, wantCorners[i].X)
		assertNear(t, "corner y", g.Corners[i].Y, wantCorners[i].Y)
		assertNear(t, "u", g.TexCoords[i].X, wantUV[i].X)
		assertNear(t, "v", g.TexCoords[i].Y, wantUV[i].Y)
	}
	assertNear(t, "z", g.Z, 2)
}

func TestFillGeometryOnWindow(t *testing.T) {
	ctx, _ := newTestContext(t)
	layer := mustLayer(t, ctx, "layer")
	g := mustGroup(t, layer, "g")
	g.SetPosition(100, 0)
	w, err := NewWindow(g, 0, 10, 10, 20, 20)
	if err != nil {
		t.Fatalf("NewWindow: %v", err)
	}
	f, err := NewFill(w, 0, nil)
	if err != nil {
		t.Fatalf("NewFill: %v", err)
	}
	f.SetPosition(10, 10)
	f.SetScale(10)
	mustRender(t, ctx)

	geo, err := f.FillGeometry()
	if err != nil {
		t.Fatalf("FillGeometry: %v", err)
	}
	// The window view is in g's space, which is offset by 100 in x.
	assertNear(t, "bl.x", geo.Corners[0].X, 110)
	assertNear(t, "bl.y", geo.Corners[0].Y, 10)
	assertNear(t, "tr.x", geo.Corners[2].X, 130)
	assertNear(t, "tr.y", geo.Corners[2].Y, 30)
	// f sits on the window's bottom-left corner.
	assertNear(t, "bl.u", geo.TexCoords[0].X, 0)
	assertNear(t, "tr.u", geo.TexCoords[2].X, 2)
	assertNear(t, "tr.v", geo.TexCoords[2].Y, 2)
}

func TestFillGeometryErrors(t *testing.T) {
	ctx, _ := newTestContext(t)
	layer := mustLayer(t, ctx, "layer")
	_, err := layer.FillGeometry()
	assertCode(t, "layer", err, CodeWrongType)

	f, err := NewFill(layer, 0, nil)
	if err != nil {
		t.Fatalf("NewFill: %v", err)
	}
	f.SetScale(0)
	mustRender(t, ctx)
	_, err = f.FillGeometry()
	assertCode(t, "zero scale", err, CodeDivByZero)
}
