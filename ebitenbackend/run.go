package ebitenbackend

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"go.uber.org/zap"

	"github.com/phanxgames/rowan"
)

// RunConfig configures the window Run opens.
type RunConfig struct {
	Title         string
	Width, Height int
	// ShowFPS draws an FPS/TPS counter in the top-left corner.
	ShowFPS bool
	// Update is called once per tick before the context's animations
	// advance. Returning ebiten.Termination ends the game cleanly.
	Update func() error
}

// Run opens a window and drives ctx until the window closes or Update
// returns an error. ctx must have been opened on the "ebiten" backend.
// Every tick advances animations by 1/TPS seconds; every frame renders the
// scene into the window.
func Run(ctx *rowan.Context, cfg RunConfig) error {
	display, ok := ctx.Platform().(*Display)
	if !ok || ctx.Backend().Name != Name {
		return fmt.Errorf("ebiten: context runs on backend %q, not %q", ctx.Backend().Name, Name)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("ebiten: window size %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.Title != "" {
		ebiten.SetWindowTitle(cfg.Title)
	}
	ebiten.SetWindowSize(cfg.Width, cfg.Height)

	g := &game{ctx: ctx, display: display, cfg: cfg}
	if cfg.ShowFPS {
		g.fps = newFPSCounter()
	}
	return ebiten.RunGame(g)
}

// game adapts a rowan context to ebiten.Game.
type game struct {
	ctx     *rowan.Context
	display *Display
	cfg     RunConfig
	fps     *fpsCounter

	// renderErr carries a Draw failure to the next Update, which is the
	// only place ebiten accepts an error.
	renderErr error
}

func (g *game) Update() error {
	if err := g.renderErr; err != nil {
		return err
	}
	if g.cfg.Update != nil {
		if err := g.cfg.Update(); err != nil {
			return err
		}
	}
	dt := 1 / float64(ebiten.TPS())
	g.ctx.Advance(dt)
	if g.fps != nil {
		g.fps.update(dt)
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	g.display.SetTarget(screen)
	if err := g.ctx.Render(); err != nil {
		g.ctx.Logger().Error("render", zap.Error(err))
		g.renderErr = err
		return
	}
	if g.fps != nil {
		screen.DrawImage(g.fps.img, nil)
	}
}

func (g *game) Layout(int, int) (int, int) {
	return g.cfg.Width, g.cfg.Height
}

// fpsCounter is a small overlay refreshed about twice a second.
type fpsCounter struct {
	img     *ebiten.Image
	elapsed float64
}

func newFPSCounter() *fpsCounter {
	// Fits "FPS: 60.0\nTPS: 60.0".
	return &fpsCounter{img: ebiten.NewImage(100, 32), elapsed: 0.5}
}

func (f *fpsCounter) update(dt float64) {
	f.elapsed += dt
	if f.elapsed < 0.5 {
		return
	}
	f.elapsed = 0
	f.img.Clear()
	f.img.Fill(color.RGBA{0, 0, 0, 128})
	ebitenutil.DebugPrint(f.img, fmt.Sprintf("FPS: %.1f\nTPS: %.1f", ebiten.ActualFPS(), ebiten.ActualTPS()))
}
