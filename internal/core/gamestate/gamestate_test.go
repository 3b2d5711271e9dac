package gamestate

import (
	"path/filepath"
	"testing"
	"time"
)

func TestFlagsCountersStrings(t *testing.T) {
	gs := New()
	gs.SetFlag("door_open", true)
	if !gs.GetFlag("door_open") || gs.ToggleFlag("door_open") {
		t.Error("Flag toggling failed")
	}
	if got := gs.IncrementCounter("coins", 5); got != 5 {
		t.Errorf("Expected 5 coins, got %d", got)
	}
	gs.IncrementCounter("coins", -2)
	if gs.GetCounter("coins") != 3 {
		t.Errorf("Expected 3 coins, got %d", gs.GetCounter("coins"))
	}
	gs.SetString("quest", "find the lantern")
	if gs.GetString("quest") != "find the lantern" {
		t.Error("String variable not stored")
	}
}

func TestClock(t *testing.T) {
	gs := New()
	gs.DayLength = 24 * time.Minute

	if gs.Day() != 1 || gs.TimeOfDay() != 0 {
		t.Errorf("Expected day 1 at midnight, got day %d at %v", gs.Day(), gs.TimeOfDay())
	}
	gs.Advance(30 * time.Minute)
	gs.Advance(-time.Hour)
	if gs.Day() != 2 {
		t.Errorf("Expected day 2, got %d", gs.Day())
	}
	if got := gs.TimeOfDay(); got != 6 {
		t.Errorf("Expected 06:00, got %v", got)
	}
	if gs.Elapsed() != 30*time.Minute {
		t.Errorf("Negative advances must be ignored, elapsed %v", gs.Elapsed())
	}
}

func TestSaveLoadAndClone(t *testing.T) {
	gs := New()
	gs.SetFlag("a", true)
	gs.SetCounter("b", 2)
	gs.Advance(time.Minute)

	clone := gs.Clone()
	gs.SetCounter("b", 9)
	if clone.GetCounter("b") != 2 {
		t.Error("Clone must not share maps")
	}

	path := filepath.Join(t.TempDir(), "state.json")
	if err := clone.Save(path); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !loaded.GetFlag("a") || loaded.GetCounter("b") != 2 || loaded.Elapsed() != time.Minute {
		t.Errorf("Unexpected loaded state %s", loaded.Debug())
	}
}
