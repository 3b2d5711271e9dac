package game

import (
	"time"

	"chosenoffset.com/emberfall/internal/core/gamestate"
	"chosenoffset.com/emberfall/internal/inventory"
	"chosenoffset.com/emberfall/internal/quill"
	"chosenoffset.com/emberfall/internal/render/lighting"
)

// Snapshot is the copy of the game state published after every Update for
// readers on other goroutines.
type Snapshot struct {
	Time      time.Time            `json:"time"`
	Level     string               `json:"level"`
	Player    Player               `json:"player"`
	Inventory string               `json:"inventory"`
	Equipped  string               `json:"equipped"`
	Items     *inventory.Inventory `json:"items"`
	Messages  []string             `json:"messages"`
	Lighting  lighting.Stats       `json:"lighting"`
	Lights    []lighting.Named     `json:"lights"`
	State     *gamestate.GameState `json:"state"`
	Externals map[string]string    `json:"externals"`
	Scripts   []quill.Snapshot     `json:"scripts"`
	Finished  []quill.Snapshot     `json:"finished"`
}

func (g *Game) publish() {
	snap := Snapshot{
		Time:      g.Now(),
		Player:    g.Player,
		Inventory: g.Inventory.Serialize(),
		Equipped:  g.Inventory.EquippedItem(),
		Items:     g.Inventory.Clone(),
		Lighting:  g.Lighting.Stats(),
		Lights:    g.Lighting.Registry().All(),
		State:     g.GameState.Clone(),
		Externals: g.Externals(),
		Scripts:   g.Scripts.Snapshots(),
		Finished:  g.Scripts.History(),
	}
	if g.Level != nil {
		snap.Level = g.Level.Name()
	}
	for _, m := range g.Messages {
		snap.Messages = append(snap.Messages, m.Text)
	}

	g.mu.Lock()
	g.published = snap
	g.mu.Unlock()
}

// Snapshot returns the state published by the last Update.
// Safe to call from other goroutines.
func (g *Game) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.published
}

// LightingStats returns the published lighting statistics.
func (g *Game) LightingStats() lighting.Stats {
	return g.Snapshot().Lighting
}

// ScriptSnapshots returns the published state of the live scripts.
func (g *Game) ScriptSnapshots() []quill.Snapshot {
	return g.Snapshot().Scripts
}

// DumpState returns the whole published snapshot.
func (g *Game) DumpState() interface{} {
	return g.Snapshot()
}
