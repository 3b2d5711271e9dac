package game

import (
	"fmt"
	"image/color"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"chosenoffset.com/emberfall/internal/core/gamestate"
	"chosenoffset.com/emberfall/internal/inventory"
	"chosenoffset.com/emberfall/internal/render/lighting"
	"chosenoffset.com/emberfall/internal/world/maploader"
)

// enterLevel makes level current: tiles, fixtures, ambient, spawn, scripts.
func (g *Game) enterLevel(level *maploader.Level) {
	if g.Level != nil {
		for name := range g.Level.FixtureLights() {
			g.Lighting.RemoveLight(name)
		}
	}
	g.levels[level.Name()] = level
	g.Level = level

	g.Lighting.SetTiles(level, level.TileSize())
	ambient := g.cfg.Lighting.Ambient
	if level.Data.Ambient != nil {
		ambient = *level.Data.Ambient
	}
	g.Lighting.SetAmbient(ambient)
	for name, light := range level.FixtureLights() {
		g.Lighting.SetLight(name, light)
	}

	g.placePlayer(level.Data.PlayerSpawn.X, level.Data.PlayerSpawn.Y)
	g.UpdateCamera()
	g.syncPlayerLight()

	g.log.Info("level entered",
		zap.String("level", level.Name()),
		zap.Int("width", level.Width),
		zap.Int("height", level.Height),
		zap.Int("fixtures", len(level.Data.Lights)))

	for _, path := range level.Data.Scripts {
		if err := g.Scripts.StartFile(path); err != nil {
			g.log.Warn("level script failed", zap.String("level", level.Name()), zap.String("path", path), zap.Error(err))
		}
	}
}

// findLevel returns a loaded level or reads it from the level directory.
func (g *Game) findLevel(name string) (*maploader.Level, error) {
	if level, ok := g.levels[name]; ok {
		return level, nil
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return nil, fmt.Errorf("invalid level name %q", name)
	}
	level, err := maploader.LoadLevel(filepath.Join(g.cfg.Data.LevelDir, name+".yaml"))
	if err != nil {
		return nil, err
	}
	g.levels[name] = level
	return level, nil
}

// LoadLevel switches to the named level.
func (g *Game) LoadLevel(name string) error {
	level, err := g.findLevel(name)
	if err != nil {
		return err
	}
	g.enterLevel(level)
	g.ShowMessage("Entered " + level.Name())
	return nil
}

// UnloadLevel drops a cached level. The current level cannot be unloaded.
func (g *Game) UnloadLevel(name string) error {
	if _, ok := g.levels[name]; !ok {
		return fmt.Errorf("level %s is not loaded", name)
	}
	if g.Level != nil && g.Level.Name() == name {
		return fmt.Errorf("level %s is active", name)
	}
	delete(g.levels, name)
	g.log.Info("level unloaded", zap.String("level", name))
	return nil
}

// ReadLevel describes a level without entering it.
func (g *Game) ReadLevel(name string) (string, error) {
	level, err := g.findLevel(name)
	if err != nil {
		return "", err
	}
	return level.Describe(), nil
}

// Levels lists the level names loadlevel accepts.
func (g *Game) Levels() ([]string, error) {
	entries, err := maploader.ScanLevels(g.cfg.Data.LevelDir)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Key
	}
	return names, nil
}

// Teleport moves the player to a walkable tile.
func (g *Game) Teleport(x, y int) error {
	if g.Level == nil || !g.Level.InBounds(x, y) {
		return fmt.Errorf("tile %d,%d is outside the level", x, y)
	}
	if !g.Level.IsWalkable(x, y) {
		return fmt.Errorf("tile %d,%d is not walkable", x, y)
	}
	g.placePlayer(x, y)
	g.UpdateCamera()
	g.syncPlayerLight()
	return nil
}

// Give adds items to the inventory and returns how many fit.
func (g *Game) Give(item string, count int) (int, error) {
	if g.Items != nil {
		if _, ok := g.Items.Items[item]; !ok {
			return 0, fmt.Errorf("unknown item %s", item)
		}
	}
	added := g.Inventory.AddItem(item, count)
	if added == 0 {
		if g.Inventory.IsFull() {
			return 0, fmt.Errorf("inventory is full, no room for %s", item)
		}
		return 0, fmt.Errorf("no room for %s", item)
	}
	return added, nil
}

// PlayerInventory returns the player's inventory.
func (g *Game) PlayerInventory() *inventory.Inventory {
	return g.Inventory
}

// Notify queues an on-screen message.
func (g *Game) Notify(text string) {
	g.ShowMessage(text)
}

// State returns the flag and counter store.
func (g *Game) State() *gamestate.GameState {
	return g.GameState
}

// SetLight places a script light at the center of a tile.
func (g *Game) SetLight(name string, x, y, radius int, col color.NRGBA, importance int) {
	if g.Level == nil {
		return
	}
	g.Lighting.SetLight(name, lighting.NewRadialLight(g.Level.TileCenter(x, y), radius, col, importance))
}

// RemoveLight removes a named light.
func (g *Game) RemoveLight(name string) bool {
	if _, ok := g.Lighting.Registry().Get(name); !ok {
		return false
	}
	g.Lighting.RemoveLight(name)
	return true
}
