package game

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Player represents the player's physical state in the world.
type Player struct {
	Pos mgl64.Vec2 `json:"pos"` // World pixels, tile center
	// Grid position for tile movement
	GridX     int `json:"grid_x"`
	GridY     int `json:"grid_y"`
	Health    int `json:"health"`
	MaxHealth int `json:"max_health"`
}

// Camera tracks the viewport position for scrolling large levels.
type Camera struct {
	X, Y float64 // Camera position (top-left corner of viewport in world coords)
}

// Vec returns the camera position as a vector.
func (c Camera) Vec() mgl64.Vec2 {
	return mgl64.Vec2{c.X, c.Y}
}

// Message represents an on-screen message that fades over time.
type Message struct {
	Text     string
	TimeLeft float64 // Seconds remaining
	MaxTime  float64 // Initial duration
}
