// Command rowanbench builds a generated scene and renders it for a fixed
// number of frames on one of the software backends, reporting the frame
// rate. Settings come from built-in defaults, an optional TOML file and
// command-line flags, in increasing priority.
package main

import (
	"fmt"
	"os"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/phanxgames/rowan"
	"github.com/phanxgames/rowan/internal/config"
	"github.com/phanxgames/rowan/softbackend"
	"github.com/phanxgames/rowan/termbackend"
)

var (
	configPath string
	flagCfg    = config.Defaults()
)

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&configPath, "config", "c", "", "Path to a TOML config file")
	f.StringVarP(&flagCfg.Backend.Name, "backend", "b", flagCfg.Backend.Name, "Backend to render with: soft, term or null")
	f.IntVarP(&flagCfg.Scene.Groups, "groups", "g", flagCfg.Scene.Groups, "Number of spinning groups")
	f.IntVarP(&flagCfg.Scene.Sprites, "sprites", "s", flagCfg.Scene.Sprites, "Sprites per group")
	f.IntVarP(&flagCfg.Scene.Frames, "frames", "n", flagCfg.Scene.Frames, "Frames to render")
	f.StringVarP(&flagCfg.Backend.Output, "output", "o", "", "Write the last soft frame to this PNG")
	f.BoolVar(&flagCfg.Backend.Debug, "debug", false, "Enable engine debug checks and frame stats")
}

var rootCmd = &cobra.Command{
	Use:   "rowanbench",
	Short: "Render a generated rowan scene and report the frame rate",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		overlayFlags(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}

		log, err := newLogger(cfg.Logging)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		defer log.Sync()

		res, err := run(cfg, log)
		if err != nil {
			return err
		}
		log.Info("benchmark finished",
			zap.String("backend", cfg.Backend.Name),
			zap.Int("frames", res.Frames),
			zap.Duration("elapsed", res.Elapsed),
			zap.Float64("fps", res.FPS()),
			zap.Int("entities", res.Entities),
			zap.Int("textures", res.Textures),
		)
		return nil
	},
}

// overlayFlags copies explicitly set flags over the loaded config.
func overlayFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("backend") {
		cfg.Backend.Name = flagCfg.Backend.Name
	}
	if f.Changed("groups") {
		cfg.Scene.Groups = flagCfg.Scene.Groups
	}
	if f.Changed("sprites") {
		cfg.Scene.Sprites = flagCfg.Scene.Sprites
	}
	if f.Changed("frames") {
		cfg.Scene.Frames = flagCfg.Scene.Frames
	}
	if f.Changed("output") {
		cfg.Backend.Output = flagCfg.Backend.Output
	}
	if f.Changed("debug") {
		cfg.Backend.Debug = flagCfg.Backend.Debug
	}
}

// run opens the configured backend, builds the scene and renders it.
func run(cfg *config.Config, log *zap.Logger) (result, error) {
	w, h := cfg.Backend.Width, cfg.Backend.Height
	var platform any
	var canvas *softbackend.Canvas

	switch cfg.Backend.Name {
	case softbackend.Name:
		canvas = softbackend.NewCanvas(w, h)
		defer canvas.Close()
		platform = canvas
	case termbackend.Name:
		screen, err := tcell.NewScreen()
		if err != nil {
			return result{}, fmt.Errorf("terminal: %w", err)
		}
		if err := screen.Init(); err != nil {
			return result{}, fmt.Errorf("terminal: %w", err)
		}
		defer screen.Fini()
		platform = screen
		// The scene is laid out in cells.
		w, h = screen.Size()
	case "null":
	default:
		return result{}, fmt.Errorf("unknown backend %q", cfg.Backend.Name)
	}

	ctx, err := rowan.Open(cfg.Backend.Name, 0, platform,
		rowan.WithLogger(log),
		rowan.WithDebug(cfg.Backend.Debug),
		rowan.WithPreallocate(cfg.Scene.Groups*(cfg.Scene.Sprites+2)+2),
	)
	if err != nil {
		return result{}, fmt.Errorf("open %s: %w", cfg.Backend.Name, err)
	}
	defer ctx.Close()

	b, err := buildScene(ctx, cfg.Scene, w, h)
	if err != nil {
		return result{}, fmt.Errorf("build scene: %w", err)
	}
	res, err := b.run(cfg.Scene.Frames, cfg.Scene.Step, log)
	if err != nil {
		return result{}, fmt.Errorf("render: %w", err)
	}
	if canvas != nil && cfg.Backend.Output != "" {
		if err := canvas.SavePNG(cfg.Backend.Output); err != nil {
			return result{}, fmt.Errorf("save %s: %w", cfg.Backend.Output, err)
		}
		log.Info("frame saved", zap.String("path", cfg.Backend.Output))
	}
	return res, nil
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}
