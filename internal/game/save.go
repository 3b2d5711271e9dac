package game

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"chosenoffset.com/emberfall/internal/core/gamestate"
	"chosenoffset.com/emberfall/internal/inventory"
)

// restore loads the saved game state and inventory. Missing saves start a
// fresh game; unreadable ones are logged and replaced.
func (g *Game) restore() {
	g.GameState = gamestate.New()
	if path := g.cfg.Data.SavePath; path != "" {
		st, err := gamestate.Load(path)
		switch {
		case err == nil:
			g.GameState = st
			g.log.Info("game state restored", zap.String("path", path), zap.String("state", st.Debug()))
		case !errors.Is(err, fs.ErrNotExist):
			g.log.Warn("ignoring saved game state", zap.String("path", path), zap.Error(err))
		}
	}

	g.Inventory = inventory.NewWithCapacity(g.cfg.Data.InventorySlots)
	if path := g.cfg.Data.InventoryPath; path != "" {
		inv, err := inventory.Load(path)
		switch {
		case err == nil:
			inv.MaxSlots = g.cfg.Data.InventorySlots
			g.Inventory = inv
			g.log.Info("inventory restored", zap.String("path", path), zap.String("inventory", inv.Debug()))
		case !errors.Is(err, fs.ErrNotExist):
			g.log.Warn("ignoring saved inventory", zap.String("path", path), zap.Error(err))
		}
	}
}

// Save writes the game state and the inventory to their save files.
func (g *Game) Save() error {
	if path := g.cfg.Data.SavePath; path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("failed to create save directory: %w", err)
		}
		if err := g.GameState.Save(path); err != nil {
			return err
		}
	}
	if path := g.cfg.Data.InventoryPath; path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("failed to create save directory: %w", err)
		}
		if err := g.Inventory.Save(path); err != nil {
			return err
		}
	}
	g.log.Info("game saved",
		zap.String("state", g.GameState.Debug()),
		zap.String("inventory", g.Inventory.Debug()))
	return nil
}
