package lighting

import (
	"image"
	"image/color"
	"testing"
)

func TestPropagateIsMonotonic(t *testing.T) {
	g := NewLuxelGrid(10, 1)
	g.Propagate([]image.Point{{0, 0}}, 5, DefaultLightColor)

	if g.Level(0, 0) != 1 {
		t.Errorf("Expected full intensity at the seed, got %v", g.Level(0, 0))
	}
	for x := 1; x < 10; x++ {
		if g.Level(x, 0) > g.Level(x-1, 0) {
			t.Errorf("Level increased with distance at x=%d: %v > %v", x, g.Level(x, 0), g.Level(x-1, 0))
		}
	}
	for x := 1; x < 5; x++ {
		if g.Level(x, 0) >= g.Level(x-1, 0) {
			t.Errorf("Expected strictly decreasing level inside the radius at x=%d", x)
		}
	}
	for x := 5; x < 10; x++ {
		if g.Level(x, 0) != 0 {
			t.Errorf("Expected no light beyond the radius at x=%d, got %v", x, g.Level(x, 0))
		}
	}
}

func TestPropagateMonotonicInOpenArea(t *testing.T) {
	g := NewLuxelGrid(21, 21)
	g.Propagate([]image.Point{{10, 10}}, 9, DefaultLightColor)

	// Walk outward along all eight rays.
	for _, dir := range []image.Point{{1, 0}, {-1, 0}, {0, 1}, {0, -1}, {1, 1}, {-1, -1}, {1, -1}, {-1, 1}} {
		prev := g.Level(10, 10)
		for step := 1; step <= 10; step++ {
			x, y := 10+dir.X*step, 10+dir.Y*step
			lvl := g.Level(x, y)
			if lvl > prev {
				t.Errorf("Ray %v: level rose at step %d (%v > %v)", dir, step, lvl, prev)
			}
			prev = lvl
		}
	}
}

func TestEnclosedLuxelStaysDark(t *testing.T) {
	g := NewLuxelGrid(7, 7)
	for y := 2; y <= 4; y++ {
		for x := 2; x <= 4; x++ {
			if x != 3 || y != 3 {
				g.SetBlocked(x, y, true)
			}
		}
	}
	g.Propagate([]image.Point{{1, 3}}, 20, DefaultLightColor)

	if lvl := g.Level(3, 3); lvl != 0 {
		t.Errorf("Enclosed luxel must stay dark, got %v", lvl)
	}
	if g.Level(2, 3) == 0 {
		t.Error("Wall next to the light should still be lit")
	}
	if g.Level(5, 3) == 0 {
		t.Error("Light should flow around the enclosure")
	}
}

func TestWallsAreLitButDoNotTransmit(t *testing.T) {
	g := NewLuxelGrid(5, 1)
	g.SetBlocked(2, 0, true)
	g.Propagate([]image.Point{{0, 0}}, 10, DefaultLightColor)

	if g.Level(2, 0) <= 0 {
		t.Errorf("Expected the wall luxel to receive light, got %v", g.Level(2, 0))
	}
	if g.Level(3, 0) != 0 || g.Level(4, 0) != 0 {
		t.Errorf("Light leaked through a wall: %v %v", g.Level(3, 0), g.Level(4, 0))
	}
}

func TestDiagonalCannotSqueezeBetweenWalls(t *testing.T) {
	g := NewLuxelGrid(3, 3)
	g.SetBlocked(1, 0, true)
	g.SetBlocked(0, 1, true)
	g.Propagate([]image.Point{{0, 0}}, 10, DefaultLightColor)

	if lvl := g.Level(1, 1); lvl != 0 {
		t.Errorf("Light squeezed through a wall corner: %v", lvl)
	}
}

func TestPropagateKeepsStrongestLight(t *testing.T) {
	red := color.NRGBA{255, 0, 0, 255}
	blue := color.NRGBA{0, 0, 255, 255}

	g := NewLuxelGrid(5, 1)
	g.Propagate([]image.Point{{0, 0}}, 2, red)
	g.Propagate([]image.Point{{4, 0}}, 4, blue)

	if lvl := g.Level(1, 0); lvl != 0.5 {
		t.Errorf("Expected 0.5 from the red light, got %v", lvl)
	}
	if lux, _ := g.At(1, 0); lux.Tint != red {
		t.Errorf("Expected red tint, got %v", lux.Tint)
	}
	if lvl := g.Level(3, 0); lvl != 0.75 {
		t.Errorf("Expected 0.75 from the blue light, got %v", lvl)
	}
	if lux, _ := g.At(3, 0); lux.Tint != blue {
		t.Errorf("Expected blue tint, got %v", lux.Tint)
	}
}

func TestResizeDegradesToEmpty(t *testing.T) {
	g := NewLuxelGrid(4, 4)
	g.Resize(-3, 2)
	if w, h := g.Size(); w != 0 || h != 0 {
		t.Fatalf("Expected 0x0 grid, got %dx%d", w, h)
	}
	// Must not panic on an empty grid.
	g.Propagate([]image.Point{{0, 0}}, 5, DefaultLightColor)
	if !g.Blocked(0, 0) {
		t.Error("Outside the grid should count as blocked")
	}
	if g.Level(0, 0) != 0 {
		t.Error("Outside the grid should be dark")
	}
}

func TestResizeClearsPreviousState(t *testing.T) {
	g := NewLuxelGrid(4, 4)
	g.SetBlocked(1, 1, true)
	g.Propagate([]image.Point{{0, 0}}, 3, DefaultLightColor)
	g.Resize(3, 3)

	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			if lux, _ := g.At(x, y); lux.Blocked || lux.Level != 0 {
				t.Errorf("Luxel (%d,%d) kept stale state: %+v", x, y, lux)
			}
		}
	}
}
