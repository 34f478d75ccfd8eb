// Package config loads and saves worldconsole.yaml.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/modoterra/worldconsole/pkg/core"
)

// FileName is the default configuration file name.
const FileName = "worldconsole.yaml"

// Config represents a worldconsole.yaml file.
type Config struct {
	Version int     `yaml:"version"`
	Console Console `yaml:"console"`
	Server  Server  `yaml:"server"`
	Log     Log     `yaml:"log"`

	// Dir is the directory the file was loaded from; ${config_dir} expands
	// to it.
	Dir string `yaml:"-"`
}

// Console tunes the console loop.
type Console struct {
	RingCapacity   int           `yaml:"ring_capacity"`
	SinkCapacity   int           `yaml:"sink_capacity"`
	TickRate       time.Duration `yaml:"tick_rate"`
	PollTimeout    time.Duration `yaml:"poll_timeout"`
	ShowTimestamps bool          `yaml:"show_timestamps"`
}

// Server configures the world server.
type Server struct {
	Listen   string        `yaml:"listen"`
	Seed     int64         `yaml:"seed"`
	SaveFile string        `yaml:"save_file"`
	Autosave time.Duration `yaml:"autosave"`
}

// Log configures file logging. An empty File disables it.
type Log struct {
	File      string `yaml:"file,omitempty"`
	Level     string `yaml:"level"`
	MaxSizeMB int    `yaml:"max_size_mb"`
	MaxFiles  int    `yaml:"max_files"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Version: 1,
		Console: Console{
			RingCapacity:   1024,
			SinkCapacity:   4096,
			TickRate:       time.Second / 30,
			PollTimeout:    25 * time.Millisecond,
			ShowTimestamps: true,
		},
		Server: Server{
			Listen:   "tcp:127.0.0.1:14004",
			Seed:     1,
			SaveFile: "${config_dir}/world.yaml",
			Autosave: 5 * time.Minute,
		},
		Log: Log{
			Level:     "info",
			MaxSizeMB: 10,
			MaxFiles:  5,
		},
	}
}

// FilePath returns the config path in dir.
func FilePath(dir string) string {
	return filepath.Join(dir, FileName)
}

// DefaultDir returns $XDG_CONFIG_HOME/worldconsole, falling back to the
// working directory.
func DefaultDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "worldconsole")
	}
	return "."
}

// Parse decodes data over the defaults. Paths are not interpolated until
// Interpolate is called.
func Parse(data []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return c, nil
}

// Load reads and interpolates the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("resolve config dir: %w", err)
	}
	c.Dir = abs
	c.Interpolate()
	return c, nil
}

// LoadOrDefault loads path, returning interpolated defaults rooted at the
// file's directory when it does not exist.
func LoadOrDefault(path string) (*Config, error) {
	c, err := Load(path)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	c = Default()
	abs, absErr := filepath.Abs(filepath.Dir(path))
	if absErr != nil {
		return nil, fmt.Errorf("resolve config dir: %w", absErr)
	}
	c.Dir = abs
	c.Interpolate()
	return c, nil
}

// Interpolate expands ${config_dir} in path fields.
func (c *Config) Interpolate() {
	r := strings.NewReplacer("${config_dir}", c.Dir)
	c.Server.SaveFile = r.Replace(c.Server.SaveFile)
	c.Server.Listen = r.Replace(c.Server.Listen)
	c.Log.File = r.Replace(c.Log.File)
}

// Save writes c to path, creating parent directories.
func Save(path string, c *Config) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// ServerConfig converts the server section.
func (c *Config) ServerConfig() core.ServerConfig {
	return core.ServerConfig{
		ListenAddr: c.Server.Listen,
		Seed:       c.Server.Seed,
		SaveFile:   c.Server.SaveFile,
		Autosave:   c.Server.Autosave,
	}
}
