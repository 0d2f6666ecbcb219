package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	logpkg "github.com/rzbill/modeldb/pkg/log"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	// DataDir is the storage directory. Empty means DefaultDataDir().
	DataDir string `json:"dataDir" yaml:"dataDir"`
	// Engine selects the store: pebble or bolt.
	Engine string `json:"engine" yaml:"engine"`
	// Fsync is always|interval|never.
	Fsync string `json:"fsync" yaml:"fsync"`
	// FsyncIntervalMs is the group-commit window when Fsync is interval.
	FsyncIntervalMs int `json:"fsyncIntervalMs" yaml:"fsyncIntervalMs"`
	// OpenRetries is how many times opening a locked store is retried.
	OpenRetries int           `json:"openRetries" yaml:"openRetries"`
	Log         logpkg.Config `json:"log" yaml:"log"`
}

// Storage engines.
const (
	EnginePebble = "pebble"
	EngineBolt   = "bolt"
)

// Default returns built-in defaults.
func Default() Config {
	return Config{
		Engine:          EnginePebble,
		Fsync:           "interval",
		FsyncIntervalMs: 5,
		Log: logpkg.Config{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from a JSON or YAML file (by extension) on top of
// the defaults. If path is empty, returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	return cfg, nil
}
