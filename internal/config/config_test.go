package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Fsync != "interval" || cfg.FsyncIntervalMs != 5 {
		t.Fatalf("fsync defaults: %+v", cfg)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Fatalf("log defaults: %+v", cfg.Log)
	}
	if cfg.DataDir != "" {
		t.Fatalf("data dir should default to empty")
	}
}

func TestResolvedDataDir(t *testing.T) {
	cfg := Default()
	if cfg.ResolvedDataDir() != DefaultDataDir() {
		t.Fatalf("empty data dir should resolve to the default")
	}
	cfg.DataDir = "/tmp/x"
	if cfg.ResolvedDataDir() != "/tmp/x" {
		t.Fatalf("explicit data dir ignored")
	}
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "modeldb.json")
	data := []byte(`{"dataDir":"/srv/db","fsync":"always","log":{"level":"debug","format":"json"}}`)
	if err := os.WriteFile(file, data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DataDir != "/srv/db" || cfg.Fsync != "always" {
		t.Fatalf("unexpected %+v", cfg)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Fatalf("log section: %+v", cfg.Log)
	}
	if cfg.FsyncIntervalMs != 5 {
		t.Fatalf("unset fields should keep defaults")
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "modeldb.yaml")
	data := []byte("dataDir: /srv/db\nfsyncIntervalMs: 20\nlog:\n  level: warn\n  outputs: [console, null]\n")
	if err := os.WriteFile(file, data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DataDir != "/srv/db" || cfg.FsyncIntervalMs != 20 || cfg.Fsync != "interval" {
		t.Fatalf("unexpected %+v", cfg)
	}
	if cfg.Log.Level != "warn" || len(cfg.Log.Outputs) != 2 || cfg.Log.Format != "text" {
		t.Fatalf("log section: %+v", cfg.Log)
	}
}

func TestLoadErrors(t *testing.T) {
	if cfg, err := Load(""); err != nil || cfg.Fsync != "interval" {
		t.Fatalf("empty path should return defaults")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("missing file should fail")
	}
	file := filepath.Join(t.TempDir(), "bad.yml")
	if err := os.WriteFile(file, []byte("log: [unclosed"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(file); err == nil {
		t.Fatalf("bad yaml should fail")
	}
}

func TestFromEnv(t *testing.T) {
	cfg := Default()
	t.Setenv("MODELDB_DATA_DIR", "/env/db")
	t.Setenv("MODELDB_FSYNC", "never")
	t.Setenv("MODELDB_FSYNC_INTERVAL_MS", "12")
	t.Setenv("MODELDB_LOG_LEVEL", "error")
	t.Setenv("MODELDB_LOG_OUTPUTS", "console, file:/tmp/m.log")
	FromEnv(&cfg)
	if cfg.DataDir != "/env/db" || cfg.Fsync != "never" || cfg.FsyncIntervalMs != 12 {
		t.Fatalf("env overrides: %+v", cfg)
	}
	if cfg.Log.Level != "error" || len(cfg.Log.Outputs) != 2 || cfg.Log.Outputs[1] != "file:/tmp/m.log" {
		t.Fatalf("log env overrides: %+v", cfg.Log)
	}
}

func TestFromEnvIgnoresBadNumbers(t *testing.T) {
	cfg := Default()
	t.Setenv("MODELDB_FSYNC_INTERVAL_MS", "soon")
	FromEnv(&cfg)
	if cfg.FsyncIntervalMs != 5 {
		t.Fatalf("bad number should be ignored")
	}
}

func TestEngineAndRetriesFromEnv(t *testing.T) {
	cfg := Default()
	if cfg.Engine != EnginePebble || cfg.OpenRetries != 0 {
		t.Fatalf("defaults: %+v", cfg)
	}
	t.Setenv("MODELDB_ENGINE", EngineBolt)
	t.Setenv("MODELDB_OPEN_RETRIES", "3")
	FromEnv(&cfg)
	if cfg.Engine != EngineBolt || cfg.OpenRetries != 3 {
		t.Fatalf("env overrides: %+v", cfg)
	}
}

func TestLoadEnvFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), ".env")
	data := []byte("MODELDB_FSYNC=never\nMODELDB_LOG_LEVEL=debug\n")
	if err := os.WriteFile(file, data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	// t.Setenv restores both variables afterwards; MODELDB_FSYNC starts unset.
	t.Setenv("MODELDB_FSYNC", "")
	t.Setenv("MODELDB_LOG_LEVEL", "warn")
	os.Unsetenv("MODELDB_FSYNC")

	if err := LoadEnvFile(file); err != nil {
		t.Fatalf("load env file: %v", err)
	}
	cfg := Default()
	FromEnv(&cfg)
	if cfg.Fsync != "never" {
		t.Fatalf("dotenv value not applied: %q", cfg.Fsync)
	}
	if cfg.Log.Level != "warn" {
		t.Fatalf("existing environment must win over dotenv: %q", cfg.Log.Level)
	}
	if err := LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatalf("missing env file should fail")
	}
}
