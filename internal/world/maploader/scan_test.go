package maploader

import (
	"os"
	"path/filepath"
	"testing"
)

func TestScanLevels(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"cellar.yaml":   cellar,
		"attic.yml":     "name: attic\ntile_size: 16\nrows: [\"..\"]\n",
		"notes.txt":     "not a level",
		"broken.yaml":   "rows: [",
		"nameless.yaml": "tile_size: 16\nrows: [\"..\"]\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.yaml"), 0o755); err != nil {
		t.Fatal(err)
	}

	levels, err := ScanLevels(dir)
	if err != nil {
		t.Fatalf("ScanLevels failed: %v", err)
	}
	if len(levels) != 2 {
		t.Fatalf("Expected 2 levels, got %+v", levels)
	}
	if levels[0].Key != "attic" || levels[1].Key != "cellar" || levels[1].Name != "cellar" {
		t.Errorf("Unexpected levels: %+v", levels)
	}

	if _, err := ScanLevels(filepath.Join(dir, "missing")); err == nil {
		t.Error("Expected an error for a missing directory")
	}
}
