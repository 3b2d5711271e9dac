package lighting

import (
	"image/color"

	"github.com/go-gl/mathgl/mgl64"

	"chosenoffset.com/emberfall/internal/render"
)

// glowStrength scales the tint drawn over lit luxels.
const glowStrength = 0.25

// Overlay draws the darkness layer computed by a Coordinator.
type Overlay struct {
	coord *Coordinator
}

// NewOverlay creates an overlay for the coordinator.
func NewOverlay(coord *Coordinator) *Overlay {
	return &Overlay{coord: coord}
}

// Darkness returns the overlay alpha in [0, 1] for a light level.
// Ambient light lifts the floor so unlit areas are never fully black.
func (o *Overlay) Darkness(level float64) float64 {
	return (1 - level) * (1 - o.coord.Ambient())
}

// Draw paints one rectangle per luxel over dst. camera is the top-left of
// the view in world pixels. Each luxel blends its tile's shade with
// (1 - intensity) as the darkness weight, then lit luxels get a faint tint.
func (o *Overlay) Draw(r render.Renderer, dst render.Image, camera mgl64.Vec2) {
	c := o.coord
	w, h := c.GridSize()
	if w == 0 || h == 0 {
		return
	}
	div := c.opts.Divisions
	size := c.LuxelSize()
	originX := float64(c.tileWindow.Min.X)*float64(c.opts.TileSize) - camera.X()
	originY := float64(c.tileWindow.Min.Y)*float64(c.opts.TileSize) - camera.Y()

	for ly := 0; ly < h; ly++ {
		for lx := 0; lx < w; lx++ {
			lux, _ := c.grid.At(lx, ly)
			x := float32(originX + float64(lx)*size)
			y := float32(originY + float64(ly)*size)

			shade := c.ShadeAt(lx/div, ly/div)
			if dark := o.Darkness(lux.Level); dark > 0 {
				r.FillRect(dst, x, y, float32(size), float32(size), withAlpha(shade, dark))
			}
			if lux.Level > 0 && lux.Tint.A > 0 {
				r.FillRect(dst, x, y, float32(size), float32(size), withAlpha(lux.Tint, lux.Level*glowStrength))
			}
		}
	}
}

func withAlpha(c color.NRGBA, alpha float64) color.NRGBA {
	if alpha > 1 {
		alpha = 1
	}
	c.A = uint8(alpha * 255)
	return c
}
