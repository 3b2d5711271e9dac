// Package gamestate holds persistent game progress: flags, counters, string
// variables and the in-game clock. Commands and scripts mutate it.
package gamestate

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// DefaultDayLength is the play time of one in-game day
const DefaultDayLength = 20 * time.Minute

// GameState holds all persistent game state data
type GameState struct {
	mu sync.RWMutex

	// Flags are boolean values (e.g., "door_unlocked", "lantern_found")
	Flags map[string]bool `json:"flags"`

	// Counters are integer values (e.g., "rats_killed", "coins")
	Counters map[string]int `json:"counters"`

	// Strings are string variables (e.g., "current_quest")
	Strings map[string]string `json:"strings"`

	// TotalTime is the accumulated play time
	TotalTime time.Duration `json:"total_time"`

	// DayLength is the play time of one in-game day
	DayLength time.Duration `json:"day_length"`
}

// New creates a new empty GameState
func New() *GameState {
	return &GameState{
		Flags:     make(map[string]bool),
		Counters:  make(map[string]int),
		Strings:   make(map[string]string),
		DayLength: DefaultDayLength,
	}
}

// --- Flag operations ---

// GetFlag returns the value of a flag (false if not set)
func (gs *GameState) GetFlag(name string) bool {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	return gs.Flags[name]
}

// SetFlag sets a flag to a specific value
func (gs *GameState) SetFlag(name string, value bool) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.Flags[name] = value
}

// ToggleFlag flips a flag's value and returns the new value
func (gs *GameState) ToggleFlag(name string) bool {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.Flags[name] = !gs.Flags[name]
	return gs.Flags[name]
}

// --- Counter operations ---

// GetCounter returns the value of a counter (0 if not set)
func (gs *GameState) GetCounter(name string) int {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	return gs.Counters[name]
}

// SetCounter sets a counter to a specific value
func (gs *GameState) SetCounter(name string, value int) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.Counters[name] = value
}

// IncrementCounter adds delta to a counter (can be negative)
func (gs *GameState) IncrementCounter(name string, delta int) int {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.Counters[name] += delta
	return gs.Counters[name]
}

// --- String operations ---

// GetString returns the value of a string variable (empty if not set)
func (gs *GameState) GetString(name string) string {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	return gs.Strings[name]
}

// SetString sets a string variable
func (gs *GameState) SetString(name string, value string) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.Strings[name] = value
}

// --- Clock ---

// Advance adds play time
func (gs *GameState) Advance(dt time.Duration) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	if dt > 0 {
		gs.TotalTime += dt
	}
}

// Elapsed returns the accumulated play time
func (gs *GameState) Elapsed() time.Duration {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	return gs.TotalTime
}

// Day returns the current in-game day, starting at 1
func (gs *GameState) Day() int {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	return int(gs.TotalTime/gs.dayLength()) + 1
}

// TimeOfDay returns the in-game hour in [0, 24)
func (gs *GameState) TimeOfDay() float64 {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	day := gs.dayLength()
	return float64(gs.TotalTime%day) / float64(day) * 24
}

func (gs *GameState) dayLength() time.Duration {
	if gs.DayLength <= 0 {
		return DefaultDayLength
	}
	return gs.DayLength
}

// --- Serialization ---

// Save writes the game state to a file
func (gs *GameState) Save(path string) error {
	gs.mu.RLock()
	defer gs.mu.RUnlock()

	data, err := json.MarshalIndent(gs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize game state: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write game state file: %w", err)
	}
	return nil
}

// Load reads the game state from a file
func Load(path string) (*GameState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read game state file: %w", err)
	}

	gs := New()
	if err := json.Unmarshal(data, gs); err != nil {
		return nil, fmt.Errorf("failed to parse game state: %w", err)
	}
	return gs, nil
}

// Clone creates a deep copy of the game state
func (gs *GameState) Clone() *GameState {
	gs.mu.RLock()
	defer gs.mu.RUnlock()

	clone := New()
	for k, v := range gs.Flags {
		clone.Flags[k] = v
	}
	for k, v := range gs.Counters {
		clone.Counters[k] = v
	}
	for k, v := range gs.Strings {
		clone.Strings[k] = v
	}
	clone.TotalTime = gs.TotalTime
	clone.DayLength = gs.DayLength
	return clone
}

// Debug returns a string representation of the game state for debugging
func (gs *GameState) Debug() string {
	gs.mu.RLock()
	defer gs.mu.RUnlock()

	return fmt.Sprintf("GameState{Flags: %d, Counters: %d, Strings: %d, Time: %s}",
		len(gs.Flags), len(gs.Counters), len(gs.Strings), gs.TotalTime)
}
