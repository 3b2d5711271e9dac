package game

import (
	"fmt"
	"strconv"
)

// Externals builds the read-only engine symbols scripts see this tick.
func (g *Game) Externals() map[string]string {
	fps := 0.0
	if g.FPS != nil {
		fps = g.FPS()
	}
	state := "playing"
	if g.Paused {
		state = "paused"
	}
	level := ""
	if g.Level != nil {
		level = g.Level.Name()
	}
	return map[string]string{
		"player_x":      strconv.Itoa(int(g.Player.Pos.X())),
		"player_y":      strconv.Itoa(int(g.Player.Pos.Y())),
		"player_tile_x": strconv.Itoa(g.Player.GridX),
		"player_tile_y": strconv.Itoa(g.Player.GridY),
		"health":        strconv.Itoa(g.Player.Health),
		"inventory":     g.Inventory.Serialize(),
		"game_time":     strconv.FormatFloat(g.GameState.TimeOfDay(), 'f', 2, 64),
		"day":           strconv.Itoa(g.GameState.Day()),
		"total_time":    strconv.Itoa(int(g.GameState.Elapsed().Seconds())),
		"state":         state,
		"fps":           strconv.FormatFloat(fps, 'f', 0, 64),
		"resolution":    fmt.Sprintf("%dx%d", g.ScreenWidth, g.ScreenHeight),
		"level":         level,
	}
}
