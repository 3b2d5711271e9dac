package game

import (
	"fmt"
	"image/color"

	"chosenoffset.com/emberfall/internal/render"
	"chosenoffset.com/emberfall/internal/world/maploader"
)

var (
	floorColor = color.RGBA{118, 100, 78, 255}
	wallColor  = color.RGBA{72, 72, 84, 255}
	voidColor  = color.RGBA{16, 16, 20, 255}
)

// Draw renders the game to the screen.
func (g *Game) Draw(screen render.Image) {
	screen.Fill(color.RGBA{0, 0, 0, 255})
	g.drawTiles(screen)
	g.drawPlayer(screen)

	// Lighting goes over the world and under the UI
	g.Lighting.EnsureBuilt(g.Now())
	g.Overlay.Draw(g.Renderer, screen, g.Camera.Vec())

	g.drawUI(screen)
	if g.ShowLightDebug {
		g.drawLightDebug(screen)
	}
}

// visibleTiles returns the tile range covered by the camera.
func (g *Game) visibleTiles() (x0, y0, x1, y1 int) {
	ts := g.Level.TileSize()
	x0 = max(0, int(g.Camera.X)/ts)
	y0 = max(0, int(g.Camera.Y)/ts)
	x1 = min(g.Level.Width, int(g.Camera.X+float64(g.ScreenWidth))/ts+1)
	y1 = min(g.Level.Height, int(g.Camera.Y+float64(g.ScreenHeight))/ts+1)
	return
}

func (g *Game) drawTiles(screen render.Image) {
	if g.Level == nil {
		return
	}
	ts := g.Level.TileSize()
	x0, y0, x1, y1 := g.visibleTiles()
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			tile, ok := g.Level.Tile(x, y)
			if !ok {
				continue
			}
			screenX := float32(float64(x*ts) - g.Camera.X)
			screenY := float32(float64(y*ts) - g.Camera.Y)
			g.Renderer.FillRect(screen, screenX, screenY, float32(ts), float32(ts), tileColor(tile))
		}
	}
}

func tileColor(tile *maploader.TileType) color.RGBA {
	switch {
	case tile.Wall && !tile.Walkable:
		return wallColor
	case tile.Walkable:
		return floorColor
	default:
		return voidColor
	}
}

func (g *Game) drawPlayer(screen render.Image) {
	playerScreenX := g.Player.Pos.X() - g.Camera.X
	playerScreenY := g.Player.Pos.Y() - g.Camera.Y
	radius := float32(14)
	if g.Level != nil {
		radius = float32(g.Level.TileSize()) * 0.35
	}
	g.Renderer.FillCircle(screen, float32(playerScreenX), float32(playerScreenY), radius, color.RGBA{255, 255, 100, 255})
	g.Renderer.StrokeCircle(screen, float32(playerScreenX), float32(playerScreenY), radius, 2, color.RGBA{200, 200, 50, 255})
}

func (g *Game) drawUI(screen render.Image) {
	// Draw on-screen messages
	y := 50.0
	for _, msg := range g.Messages {
		alpha := uint8(255 * (msg.TimeLeft / msg.MaxTime))
		g.Renderer.DrawText(screen, msg.Text, 20, int(y), color.RGBA{255, 255, 255, alpha}, 1.0)
		y += 20
	}
}

func (g *Game) drawLightDebug(screen render.Image) {
	stats := g.Lighting.Stats()
	lines := []string{
		fmt.Sprintf("lights %d/%d  builds %d", stats.LightsUsed, g.Lighting.Registry().Len(), stats.Builds),
		fmt.Sprintf("window %v  luxels %dx%d", stats.TileWindow, stats.LuxelWidth, stats.LuxelHeight),
		fmt.Sprintf("scripts %d  day %d  %.1fh", g.Scripts.Running(), g.GameState.Day(), g.GameState.TimeOfDay()),
		fmt.Sprintf("pack %d kinds  %d items", g.Inventory.Count(), g.Inventory.TotalItems()),
	}
	for i, line := range lines {
		g.Renderer.DrawText(screen, line, 20, g.ScreenHeight-70+i*20, color.RGBA{180, 255, 180, 255}, 1.0)
	}
}
