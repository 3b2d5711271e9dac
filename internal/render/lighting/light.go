// Package lighting implements the flood lighting engine: a registry of named
// radial lights, a sub-tile luxel grid with occlusion-aware propagation, and
// the coordinator that rebuilds the grid when the view or the lights change.
package lighting

import (
	"image"
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// DefaultLightColor is the warm torch color used when none is given.
var DefaultLightColor = color.NRGBA{255, 200, 100, 255}

// RadialLight describes a single light source in the game world.
// It is a value type; replace it in the registry to change it.
type RadialLight struct {
	Position   mgl64.Vec2  // World position in pixels
	Radius     int         // Reach in pixels
	Color      color.NRGBA // Tint applied to lit luxels
	Importance int         // Higher lights win when the light budget is exceeded
}

// NewRadialLight creates a light. Negative radii are clamped to zero,
// which yields a light with no effect.
func NewRadialLight(pos mgl64.Vec2, radius int, col color.NRGBA, importance int) RadialLight {
	if radius < 0 {
		radius = 0
	}
	return RadialLight{
		Position:   pos,
		Radius:     radius,
		Color:      col,
		Importance: importance,
	}
}

// Bounds returns the axis-aligned bounding box of the light circle in world pixels.
func (l RadialLight) Bounds() image.Rectangle {
	r := float64(l.Radius)
	return image.Rect(
		int(math.Floor(l.Position.X()-r)),
		int(math.Floor(l.Position.Y()-r)),
		int(math.Ceil(l.Position.X()+r)),
		int(math.Ceil(l.Position.Y()+r)),
	)
}

// Intersects reports whether the light's bounds overlap the viewport.
func (l RadialLight) Intersects(viewport image.Rectangle) bool {
	return l.Radius > 0 && l.Bounds().Overlaps(viewport)
}

// Named pairs a light with its registry key.
type Named struct {
	Name  string
	Light RadialLight
}
