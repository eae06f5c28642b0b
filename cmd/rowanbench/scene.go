package main

import (
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/phanxgames/rowan"
	"github.com/phanxgames/rowan/internal/config"
)

// checkerSize is the edge of the generated sprite texture in pixels.
const checkerSize = 8

// bench is a generated scene: spinning groups of spinning sprites over a
// scrolling tiled background, watched by a following camera.
type bench struct {
	ctx    *rowan.Context
	layer  *rowan.Entity
	camera *rowan.Camera
	groups []*rowan.Entity
}

// result summarizes a benchmark run.
type result struct {
	Frames   int
	Elapsed  time.Duration
	Entities int
	Textures int
}

// FPS returns the average frame rate of the run.
func (r result) FPS() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Frames) / r.Elapsed.Seconds()
}

// checker fills a texture with a two-tone checkerboard.
func checker(px *rowan.Pixels) error {
	for y := 0; y < px.H; y++ {
		row := px.Row(y)
		for x := 0; x < px.W; x++ {
			v := byte(0x40)
			if (x/2+y/2)%2 == 0 {
				v = 0xFF
			}
			copy(row[x*4:], []byte{v, v, v, 0xFF})
		}
	}
	return nil
}

// buildScene populates ctx for a w by h surface.
func buildScene(ctx *rowan.Context, cfg config.SceneConfig, w, h int) (*bench, error) {
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	b := &bench{ctx: ctx}

	layer, err := rowan.NewLayer(ctx.Root(), rowan.FlagClear, 0, float64(w), 0, float64(h))
	if err != nil {
		return nil, err
	}
	if err := layer.SetBGColor(rowan.Color{R: 0.1, G: 0.1, B: 0.14, A: 1}); err != nil {
		return nil, err
	}
	b.layer = layer

	tex, err := ctx.NewOnDemandTexture(rowan.FormatRGBA, rowan.HWrap|rowan.VWrap, checkerSize, checkerSize, checker)
	if err != nil {
		return nil, err
	}
	// Entities hold their own references from here on.
	defer tex.Release()

	bg, err := rowan.NewFill(layer, 0, tex)
	if err != nil {
		return nil, err
	}
	bg.SetScale(64)
	bg.SetColor(rowan.Color{R: 0.2, G: 0.2, B: 0.25, A: 1})
	bg.SetVelocity(8, 4)

	for range cfg.Groups {
		g, err := rowan.NewGroup(layer, 0)
		if err != nil {
			return nil, err
		}
		g.SetPosition(rng.Float64()*float64(w), rng.Float64()*float64(h))
		g.SetRotationVelocity((rng.Float64() - 0.5) * 2)

		border, err := rowan.NewPrimitive(g, 0, rowan.LineLoop, nil, 0, 0, 64, 0)
		if err != nil {
			return nil, err
		}
		if err := border.Vertices(2, []float64{-1, -1, 1, -1, 1, 1, -1, 1}); err != nil {
			return nil, err
		}
		border.SetColor(rowan.Color{R: 1, G: 1, B: 1, A: 0.5})

		for range cfg.Sprites {
			s, err := rowan.NewSprite(g, 0, tex, 0.5, 0.5)
			if err != nil {
				return nil, err
			}
			angle := rng.Float64() * 2 * math.Pi
			dist := rng.Float64() * 60
			s.SetTransform(dist*math.Cos(angle), dist*math.Sin(angle), 0, 8+rng.Float64()*16, angle)
			s.SetColor(rowan.Color{R: 0.4 + rng.Float64()*0.6, G: 0.4 + rng.Float64()*0.6, B: 0.4 + rng.Float64()*0.6, A: 1})
			s.SetRotationVelocity((rng.Float64() - 0.5) * 4)
		}
		b.groups = append(b.groups, g)
	}

	// The camera drifts after the first group, kept inside the scene.
	cam, err := rowan.NewCamera(layer, float64(w)/2, float64(h)/2)
	if err != nil {
		return nil, err
	}
	cam.SetBounds(rowan.View{Left: 0, Right: float64(w), Bottom: 0, Top: float64(h)})
	if len(b.groups) > 0 {
		cam.Follow(b.groups[0], 0, 0, 0.05)
	}
	b.camera = cam
	return b, nil
}

// run renders frames, advancing the clock by step before each.
func (b *bench) run(frames int, step float64, log *zap.Logger) (result, error) {
	start := time.Now()
	for i := range frames {
		b.ctx.Advance(step)
		if err := b.camera.Update(float32(step)); err != nil {
			return result{}, err
		}
		if err := b.ctx.Render(); err != nil {
			return result{}, err
		}
		if i > 0 && i%100 == 0 {
			log.Debug("frames rendered", zap.Int("frames", i), zap.Duration("elapsed", time.Since(start)))
		}
	}
	return result{
		Frames:   frames,
		Elapsed:  time.Since(start),
		Entities: b.ctx.PoolStats().Live,
		Textures: b.ctx.Textures(),
	}, nil
}
