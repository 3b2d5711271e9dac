// Package maploader loads YAML level files and answers the tile queries the
// lighting engine and the game need.
package maploader

import (
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"chosenoffset.com/emberfall/internal/quill"
	"chosenoffset.com/emberfall/internal/render/lighting"
)

// HexColor is a color written as "#rgb", "#rrggbb" or "#rrggbbaa".
type HexColor color.NRGBA

// UnmarshalYAML parses the hex notation.
func (c *HexColor) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseHexColor(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*c = HexColor(parsed)
	return nil
}

// ParseHexColor parses "#rgb", "#rrggbb" or "#rrggbbaa".
func ParseHexColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// TileType describes one legend entry
type TileType struct {
	Name     string   `yaml:"name"`
	Walkable bool     `yaml:"walkable"`
	Wall     bool     `yaml:"wall"`
	Shade    HexColor `yaml:"shade"`
}

// SpawnPoint is a tile position
type SpawnPoint struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

// LightFixture is a static light placed on a tile
type LightFixture struct {
	Name       string   `yaml:"name"`
	X          int      `yaml:"x"`
	Y          int      `yaml:"y"`
	Radius     int      `yaml:"radius"` // World pixels
	Color      HexColor `yaml:"color"`
	Importance int      `yaml:"importance"`
}

// LevelData is the on-disk level format
type LevelData struct {
	Name        string              `yaml:"name"`
	TileSize    int                 `yaml:"tile_size"`
	Ambient     *float64            `yaml:"ambient"`
	Legend      map[string]TileType `yaml:"legend"`
	Rows        []string            `yaml:"rows"`
	PlayerSpawn SpawnPoint          `yaml:"player_spawn"`
	Lights      []LightFixture      `yaml:"lights"`
	Scripts     []string            `yaml:"scripts"`
}

// Level is a loaded, validated level
type Level struct {
	Data   *LevelData
	Width  int
	Height int
	tiles  [][]*TileType
}

// LoadLevel loads a level from a YAML file
func LoadLevel(path string) (*Level, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read level file %s: %w", path, err)
	}
	level, err := ParseLevel(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to load level %s: %w", path, err)
	}
	return level, nil
}

// ParseLevel parses and validates level YAML
func ParseLevel(raw []byte) (*Level, error) {
	var data LevelData
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse level: %w", err)
	}
	if err := validateLevelData(&data); err != nil {
		return nil, fmt.Errorf("invalid level data: %w", err)
	}

	level := &Level{
		Data:   &data,
		Width:  len([]rune(data.Rows[0])),
		Height: len(data.Rows),
		tiles:  make([][]*TileType, len(data.Rows)),
	}
	for y, row := range data.Rows {
		level.tiles[y] = make([]*TileType, 0, level.Width)
		for _, r := range row {
			tile := data.Legend[string(r)]
			level.tiles[y] = append(level.tiles[y], &tile)
		}
	}
	return level, nil
}

// validateLevelData checks if the level data is valid
func validateLevelData(data *LevelData) error {
	if data.Name == "" {
		return fmt.Errorf("level name is required")
	}
	if data.TileSize <= 0 {
		return fmt.Errorf("invalid tile size: %d", data.TileSize)
	}
	if len(data.Rows) == 0 {
		return fmt.Errorf("level has no rows")
	}
	if data.Ambient != nil && (*data.Ambient < 0 || *data.Ambient > 1) {
		return fmt.Errorf("ambient must be within [0, 1], got %v", *data.Ambient)
	}
	for key := range data.Legend {
		if len([]rune(key)) != 1 {
			return fmt.Errorf("legend key %q must be a single character", key)
		}
	}

	width := len([]rune(data.Rows[0]))
	for y, row := range data.Rows {
		if n := len([]rune(row)); n != width {
			return fmt.Errorf("row width mismatch at row %d: expected %d, got %d", y, width, n)
		}
		for x, r := range []rune(row) {
			if _, ok := data.Legend[string(r)]; !ok {
				return fmt.Errorf("tile %q at (%d, %d) is not in the legend", r, x, y)
			}
		}
	}
	if width == 0 {
		return fmt.Errorf("level has empty rows")
	}

	inBounds := func(x, y int) bool {
		return x >= 0 && y >= 0 && x < width && y < len(data.Rows)
	}
	spawn := data.PlayerSpawn
	if !inBounds(spawn.X, spawn.Y) {
		return fmt.Errorf("player spawn (%d, %d) is outside the level", spawn.X, spawn.Y)
	}
	if tile := data.Legend[string([]rune(data.Rows[spawn.Y])[spawn.X])]; !tile.Walkable {
		return fmt.Errorf("player spawn (%d, %d) is not walkable", spawn.X, spawn.Y)
	}

	names := make(map[string]bool, len(data.Lights))
	for i, l := range data.Lights {
		if l.Name == "" {
			return fmt.Errorf("light %d has no name", i)
		}
		if names[l.Name] {
			return fmt.Errorf("duplicate light name %q", l.Name)
		}
		names[l.Name] = true
		if !inBounds(l.X, l.Y) {
			return fmt.Errorf("light %q at (%d, %d) is outside the level", l.Name, l.X, l.Y)
		}
		if l.Radius < 0 {
			return fmt.Errorf("light %q has a negative radius", l.Name)
		}
	}
	return nil
}

// Name returns the level name
func (l *Level) Name() string {
	return l.Data.Name
}

// TileSize returns the tile edge in world pixels
func (l *Level) TileSize() int {
	return l.Data.TileSize
}

// InBounds reports whether the tile coordinates are inside the level
func (l *Level) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < l.Width && y < l.Height
}

// Tile returns the tile type at the given tile coordinates
func (l *Level) Tile(x, y int) (*TileType, bool) {
	if !l.InBounds(x, y) {
		return nil, false
	}
	return l.tiles[y][x], true
}

// TileAt implements lighting.TileProvider
func (l *Level) TileAt(x, y int) (lighting.TileInfo, bool) {
	tile, ok := l.Tile(x, y)
	if !ok {
		return lighting.TileInfo{}, false
	}
	return lighting.TileInfo{
		Wall:     tile.Wall,
		Walkable: tile.Walkable,
		Shade:    color.NRGBA(tile.Shade),
	}, true
}

// IsWalkable returns whether the tile at the given coordinates is walkable
func (l *Level) IsWalkable(x, y int) bool {
	tile, ok := l.Tile(x, y)
	return ok && tile.Walkable
}

// TileCenter converts tile coordinates to the world position of the tile center
func (l *Level) TileCenter(x, y int) mgl64.Vec2 {
	ts := float64(l.Data.TileSize)
	return mgl64.Vec2{(float64(x) + 0.5) * ts, (float64(y) + 0.5) * ts}
}

// FixtureLights returns the level's static lights keyed by "fixture:<name>"
func (l *Level) FixtureLights() map[string]lighting.RadialLight {
	lights := make(map[string]lighting.RadialLight, len(l.Data.Lights))
	for _, f := range l.Data.Lights {
		col := color.NRGBA(f.Color)
		if col == (color.NRGBA{}) {
			col = lighting.DefaultLightColor
		}
		lights["fixture:"+f.Name] = lighting.NewRadialLight(l.TileCenter(f.X, f.Y), f.Radius, col, f.Importance)
	}
	return lights
}

// Describe renders level facts in script dict encoding
func (l *Level) Describe() string {
	keys := []string{"name", "width", "height", "tile_size", "spawn_x", "spawn_y", "lights", "scripts"}
	return quill.EncodeDict(keys, map[string]string{
		"name":      l.Data.Name,
		"width":     strconv.Itoa(l.Width),
		"height":    strconv.Itoa(l.Height),
		"tile_size": strconv.Itoa(l.Data.TileSize),
		"spawn_x":   strconv.Itoa(l.Data.PlayerSpawn.X),
		"spawn_y":   strconv.Itoa(l.Data.PlayerSpawn.Y),
		"lights":    strconv.Itoa(len(l.Data.Lights)),
		"scripts":   strconv.Itoa(len(l.Data.Scripts)),
	})
}
