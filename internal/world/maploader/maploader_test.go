package maploader

import (
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"chosenoffset.com/emberfall/internal/render/lighting"
)

const cellar = `
name: cellar
tile_size: 32
ambient: 0.1
legend:
  "#": {name: stone_wall, wall: true, shade: "#303030"}
  ".": {name: floor, walkable: true, shade: "#1a1410"}
  "D": {name: door, wall: true, walkable: true, shade: "#5a3a1a"}
rows:
  - "#####"
  - "#..D#"
  - "#####"
player_spawn: {x: 1, y: 1}
lights:
  - {name: brazier, x: 2, y: 1, radius: 96, color: "#ff8800", importance: 5}
  - {name: glow, x: 1, y: 1, radius: 32}
scripts:
  - cellar_intro.quill
`

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel([]byte(cellar))
	if err != nil {
		t.Fatalf("Failed to parse level: %v", err)
	}
	if level.Name() != "cellar" || level.Width != 5 || level.Height != 3 || level.TileSize() != 32 {
		t.Errorf("Unexpected level header: %s %dx%d tile %d", level.Name(), level.Width, level.Height, level.TileSize())
	}

	wall, ok := level.TileAt(0, 0)
	if !ok || !wall.Occludes() {
		t.Errorf("Expected an occluding wall, got %+v", wall)
	}
	if wall.Shade != (color.NRGBA{0x30, 0x30, 0x30, 0xff}) {
		t.Errorf("Unexpected wall shade %v", wall.Shade)
	}
	door, _ := level.TileAt(3, 1)
	if door.Occludes() {
		t.Error("A walkable wall (door) must not occlude")
	}
	if _, ok := level.TileAt(5, 0); ok {
		t.Error("Expected out of bounds tile to be missing")
	}
	if !level.IsWalkable(1, 1) || level.IsWalkable(0, 1) || level.IsWalkable(-1, 1) {
		t.Error("IsWalkable misreported")
	}
}

func TestFixtureLights(t *testing.T) {
	level, err := ParseLevel([]byte(cellar))
	if err != nil {
		t.Fatal(err)
	}
	lights := level.FixtureLights()
	if len(lights) != 2 {
		t.Fatalf("Expected 2 fixture lights, got %d", len(lights))
	}
	brazier := lights["fixture:brazier"]
	if brazier.Position.X() != 80 || brazier.Position.Y() != 48 {
		t.Errorf("Expected brazier at the tile center (80, 48), got %v", brazier.Position)
	}
	if brazier.Color != (color.NRGBA{0xff, 0x88, 0x00, 0xff}) || brazier.Importance != 5 {
		t.Errorf("Unexpected brazier %+v", brazier)
	}
	if lights["fixture:glow"].Color != lighting.DefaultLightColor {
		t.Error("Lights without a color should use the default")
	}
}

func TestDescribe(t *testing.T) {
	level, err := ParseLevel([]byte(cellar))
	if err != nil {
		t.Fatal(err)
	}
	want := "name:cellar/width:5/height:3/tile_size:32/spawn_x:1/spawn_y:1/lights:2/scripts:1"
	if got := level.Describe(); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(string) string
		wantErr string
	}{
		{"ragged rows", func(s string) string { return strings.Replace(s, `"#..D#"`, `"#..D"`, 1) }, "row width mismatch"},
		{"unknown tile", func(s string) string { return strings.Replace(s, `"#..D#"`, `"#.?D#"`, 1) }, "not in the legend"},
		{"spawn in wall", func(s string) string { return strings.Replace(s, "{x: 1, y: 1}", "{x: 0, y: 0}", 1) }, "not walkable"},
		{"spawn outside", func(s string) string { return strings.Replace(s, "{x: 1, y: 1}", "{x: 9, y: 1}", 1) }, "outside the level"},
		{"bad tile size", func(s string) string { return strings.Replace(s, "tile_size: 32", "tile_size: 0", 1) }, "invalid tile size"},
		{"duplicate light", func(s string) string { return strings.Replace(s, "name: glow", "name: brazier", 1) }, "duplicate light"},
		{"bad color", func(s string) string { return strings.Replace(s, `"#ff8800"`, `"#zz"`, 1) }, "invalid color"},
		{"bad ambient", func(s string) string { return strings.Replace(s, "ambient: 0.1", "ambient: 2", 1) }, "ambient"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLevel([]byte(tt.mutate(cellar)))
			if err == nil {
				t.Fatal("Expected an error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadLevelFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cellar.yaml")
	if err := os.WriteFile(path, []byte(cellar), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadLevel(path); err != nil {
		t.Fatalf("Failed to load level: %v", err)
	}
	if _, err := LoadLevel(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected an error for a missing file")
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.NRGBA
	}{
		{"#fff", color.NRGBA{255, 255, 255, 255}},
		{"#102030", color.NRGBA{0x10, 0x20, 0x30, 0xff}},
		{"10203040", color.NRGBA{0x10, 0x20, 0x30, 0x40}},
	}
	for _, tt := range tests {
		got, err := ParseHexColor(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseHexColor(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
}
