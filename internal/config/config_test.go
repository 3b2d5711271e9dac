package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Lighting.Divisions != 2 {
		t.Errorf("Expected default divisions 2, got %d", cfg.Lighting.Divisions)
	}
	if cfg.Lighting.RefreshInterval != time.Second {
		t.Errorf("Expected default refresh 1s, got %v", cfg.Lighting.RefreshInterval)
	}
}

func TestLoadOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "emberfall.toml")
	data := `
[lighting]
divisions = 4
max_lights = 8
refresh_interval = "250ms"

[script]
autorun = ["intro.quill", "ambience.quill"]

[logging]
level = "debug"
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Lighting.Divisions != 4 {
		t.Errorf("Expected divisions 4, got %d", cfg.Lighting.Divisions)
	}
	if cfg.Lighting.MaxLights != 8 {
		t.Errorf("Expected max_lights 8, got %d", cfg.Lighting.MaxLights)
	}
	if cfg.Lighting.RefreshInterval != 250*time.Millisecond {
		t.Errorf("Expected refresh 250ms, got %v", cfg.Lighting.RefreshInterval)
	}
	if cfg.Lighting.RegistryLimit != 64 {
		t.Errorf("Expected untouched registry_limit 64, got %d", cfg.Lighting.RegistryLimit)
	}
	if len(cfg.Script.Autorun) != 2 || cfg.Script.Autorun[1] != "ambience.quill" {
		t.Errorf("Unexpected autorun list: %v", cfg.Script.Autorun)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected level debug, got %q", cfg.Logging.Level)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"zero divisions", "[lighting]\ndivisions = 0\n"},
		{"ambient above one", "[lighting]\nambient = 1.5\n"},
		{"no steps", "[script]\nsteps_per_tick = 0\n"},
		{"bad window", "[window]\nwidth = -1\n"},
		{"negative slots", "[data]\ninventory_slots = -1\n"},
		{"not toml", "[lighting\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.toml")
			if err := os.WriteFile(path, []byte(tt.data), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}
