package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LoadEnvFile sets variables from a dotenv file that are not already set in
// the environment. Call it before FromEnv.
func LoadEnvFile(path string) error {
	return godotenv.Load(path)
}

// FromEnv overlays MODELDB_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	if v := os.Getenv("MODELDB_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("MODELDB_ENGINE"); v != "" {
		cfg.Engine = v
	}
	if v := os.Getenv("MODELDB_FSYNC"); v != "" {
		cfg.Fsync = v
	}
	if v := os.Getenv("MODELDB_FSYNC_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.FsyncIntervalMs = n
		}
	}
	if v := os.Getenv("MODELDB_OPEN_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.OpenRetries = n
		}
	}
	if v := os.Getenv("MODELDB_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("MODELDB_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("MODELDB_LOG_OUTPUTS"); v != "" {
		cfg.Log.Outputs = nil
		for _, p := range strings.Split(v, ",") {
			p = strings.TrimSpace(p)
			if p != "" {
				cfg.Log.Outputs = append(cfg.Log.Outputs, p)
			}
		}
	}
}
