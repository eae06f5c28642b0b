// Package config loads the rowanbench configuration: built-in defaults
// overlaid by an optional TOML file.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Scene   SceneConfig   `toml:"scene"`
	Backend BackendConfig `toml:"backend"`
	Logging LoggingConfig `toml:"logging"`
}

type SceneConfig struct {
	Groups  int     `toml:"groups"`  // spinning groups
	Sprites int     `toml:"sprites"` // sprites per group
	Frames  int     `toml:"frames"`  // frames to render
	Step    float64 `toml:"step"`    // seconds advanced per frame
	Seed    uint64  `toml:"seed"`
}

type BackendConfig struct {
	Name   string `toml:"name"`   // "soft", "term" or "null"
	Width  int    `toml:"width"`  // soft canvas size in pixels
	Height int    `toml:"height"` //
	Output string `toml:"output"` // PNG of the last soft frame; empty skips it
	Debug  bool   `toml:"debug"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects settings the benchmark cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Scene.Groups < 1:
		return fmt.Errorf("scene.groups must be at least 1, got %d", c.Scene.Groups)
	case c.Scene.Sprites < 0:
		return fmt.Errorf("scene.sprites must not be negative, got %d", c.Scene.Sprites)
	case c.Scene.Frames < 1:
		return fmt.Errorf("scene.frames must be at least 1, got %d", c.Scene.Frames)
	case c.Scene.Step <= 0:
		return fmt.Errorf("scene.step must be positive, got %v", c.Scene.Step)
	case c.Backend.Width < 1 || c.Backend.Height < 1:
		return fmt.Errorf("backend size must be positive, got %dx%d", c.Backend.Width, c.Backend.Height)
	}
	return nil
}

func Defaults() *Config {
	return &Config{
		Scene: SceneConfig{
			Groups:  16,
			Sprites: 64,
			Frames:  600,
			Step:    1.0 / 60,
			Seed:    1,
		},
		Backend: BackendConfig{
			Name:   "soft",
			Width:  640,
			Height: 480,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
