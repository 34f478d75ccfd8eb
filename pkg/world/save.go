package world

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const saveVersion = 1

// Snapshot is the persisted form of a world.
type Snapshot struct {
	Version  int       `yaml:"version"`
	Seed     int64     `yaml:"seed"`
	Ticks    uint64    `yaml:"ticks"`
	Clock    Clock     `yaml:"clock"`
	Entities []Entity  `yaml:"entities"`
	SavedAt  time.Time `yaml:"saved_at"`
}

// LoadSnapshot reads a save file. A missing file returns (nil, nil).
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read save: %w", err)
	}
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse save %s: %w", path, err)
	}
	if snap.Version != saveVersion {
		return nil, fmt.Errorf("save %s: unsupported version %d", path, snap.Version)
	}
	return &snap, nil
}

// WriteSnapshot replaces path atomically: the data goes to a temp file in
// the same directory, is synced, then renamed over the target.
func WriteSnapshot(path string, snap *Snapshot) error {
	snap.Version = saveVersion
	data, err := yaml.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal save: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create save dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp save: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write save: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync save: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close save: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace save: %w", err)
	}
	return nil
}
