package config

import (
	"fmt"
	"os"
	"path/filepath"
	goruntime "runtime"

	boltstore "github.com/rzbill/modeldb/internal/storage/bolt"
)

// PebbleDir is the directory holding a Pebble store inside the data dir.
const PebbleDir = "pebble"

// DefaultDataDir returns the per-user data directory for modeldb stores.
// XDG_DATA_HOME wins on every platform. Without a home directory the store
// lands in ./.modeldb relative to the working directory.
func DefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "modeldb")
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".modeldb"
	}
	switch goruntime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "modeldb")
	case "windows":
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			return filepath.Join(local, "modeldb")
		}
		return filepath.Join(home, "AppData", "Local", "modeldb")
	default:
		return filepath.Join(home, ".local", "share", "modeldb")
	}
}

// ResolvedDataDir returns DataDir, or the platform default when unset.
func (c Config) ResolvedDataDir() string {
	if c.DataDir != "" {
		return c.DataDir
	}
	return DefaultDataDir()
}

// StorePath returns where the configured engine keeps its data inside the
// resolved data dir: the Pebble directory or the bbolt file. Both engines
// can share one data dir without touching each other's files.
func (c Config) StorePath() (string, error) {
	dir := c.ResolvedDataDir()
	switch c.Engine {
	case EnginePebble, "":
		return filepath.Join(dir, PebbleDir), nil
	case EngineBolt:
		return filepath.Join(dir, boltstore.FileName), nil
	}
	return "", fmt.Errorf("config: unknown engine %q; use %s|%s", c.Engine, EnginePebble, EngineBolt)
}
