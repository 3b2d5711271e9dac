package maploader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// LevelEntry describes a level file found in a level directory
type LevelEntry struct {
	Key  string // File name without extension, the name loadlevel takes
	Name string // Name declared inside the file
	Path string
}

// ScanLevels lists the level files in dir, sorted by key. Files that do
// not parse as levels are skipped.
func ScanLevels(dir string) ([]LevelEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read level directory: %w", err)
	}

	var levels []LevelEntry
	for _, entry := range entries {
		// Skip directories and hidden files
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		path := filepath.Join(dir, name)
		header, err := readHeader(path)
		if err != nil || header.Name == "" || len(header.Rows) == 0 {
			continue
		}
		levels = append(levels, LevelEntry{
			Key:  strings.TrimSuffix(name, filepath.Ext(name)),
			Name: header.Name,
			Path: path,
		})
	}

	sort.Slice(levels, func(i, j int) bool { return levels[i].Key < levels[j].Key })
	return levels, nil
}

// readHeader decodes a level file without validating it.
func readHeader(path string) (*LevelData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var data LevelData
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return &data, nil
}
