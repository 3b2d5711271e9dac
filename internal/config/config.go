// Package config loads the game configuration from a TOML file.
// Values missing from the file keep their defaults so a partial file is valid.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all runtime settings for the game.
type Config struct {
	Window   WindowConfig   `toml:"window"`
	Data     DataConfig     `toml:"data"`
	Lighting LightingConfig `toml:"lighting"`
	Script   ScriptConfig   `toml:"script"`
	Logging  LoggingConfig  `toml:"logging"`
	Debug    DebugConfig    `toml:"debug"`
}

// WindowConfig describes the game window.
type WindowConfig struct {
	Width     int    `toml:"width"`
	Height    int    `toml:"height"`
	Title     string `toml:"title"`
	Resizable bool   `toml:"resizable"`
}

// DataConfig points at the content files loaded at startup.
type DataConfig struct {
	StartLevel     string `toml:"start_level"`     // YAML level loaded first
	LevelDir       string `toml:"level_dir"`       // Directory searched by loadlevel
	Items          string `toml:"items"`           // YAML item library
	SavePath       string `toml:"save_path"`       // Game state JSON
	InventoryPath  string `toml:"inventory_path"`  // Inventory JSON
	InventorySlots int    `toml:"inventory_slots"` // Distinct item kinds carried, 0 = unlimited
}

// LightingConfig tunes the flood lighting engine.
type LightingConfig struct {
	Divisions       int           `toml:"divisions"`        // Luxels per tile axis
	MaxLights       int           `toml:"max_lights"`       // Lights propagated per rebuild
	RegistryLimit   int           `toml:"registry_limit"`   // Warn above this many registered lights
	BufferTiles     int           `toml:"buffer_tiles"`     // Extra tiles around the viewport
	RefreshInterval time.Duration `toml:"refresh_interval"` // Safety rebuild period
	Ambient         float64       `toml:"ambient"`          // 0 = pitch black, 1 = fully lit
}

// ScriptConfig controls the Quill interpreter.
type ScriptConfig struct {
	Dir          string   `toml:"dir"`
	FileRoot     string   `toml:"file_root"`      // readfile is confined to this directory
	StepsPerTick int      `toml:"steps_per_tick"` // Lines executed before yielding to the frame
	Autorun      []string `toml:"autorun"`        // Scripts started with the game
}

// LoggingConfig selects the log level and encoder.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

// DebugConfig enables the debug HTTP server.
type DebugConfig struct {
	Enabled        bool          `toml:"enabled"`
	Addr           string        `toml:"addr"`
	StreamInterval time.Duration `toml:"stream_interval"`
}

// Load reads the config at path on top of the defaults.
// A missing file is not an error; the defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		Window: WindowConfig{
			Width:     1280,
			Height:    800,
			Title:     "Emberfall",
			Resizable: true,
		},
		Data: DataConfig{
			StartLevel:    "data/levels/start.yaml",
			LevelDir:      "data/levels",
			Items:         "data/items.yaml",
			SavePath:      "save/state.json",
			InventoryPath: "save/inventory.json",
		},
		Lighting: LightingConfig{
			Divisions:       2,
			MaxLights:       32,
			RegistryLimit:   64,
			BufferTiles:     1,
			RefreshInterval: time.Second,
			Ambient:         0.15,
		},
		Script: ScriptConfig{
			Dir:          "data/scripts",
			FileRoot:     "data",
			StepsPerTick: 1000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Debug: DebugConfig{
			Addr:           "127.0.0.1:7070",
			StreamInterval: 500 * time.Millisecond,
		},
	}
}

func (c *Config) validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size must be positive: %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.Lighting.Divisions <= 0 {
		return fmt.Errorf("lighting.divisions must be positive, got %d", c.Lighting.Divisions)
	}
	if c.Lighting.MaxLights < 0 || c.Lighting.RegistryLimit < 0 {
		return fmt.Errorf("light limits must not be negative")
	}
	if c.Lighting.Ambient < 0 || c.Lighting.Ambient > 1 {
		return fmt.Errorf("lighting.ambient must be within [0, 1], got %g", c.Lighting.Ambient)
	}
	if c.Data.InventorySlots < 0 {
		return fmt.Errorf("data.inventory_slots must not be negative, got %d", c.Data.InventorySlots)
	}
	if c.Script.StepsPerTick <= 0 {
		return fmt.Errorf("script.steps_per_tick must be positive, got %d", c.Script.StepsPerTick)
	}
	return nil
}
