// Package config loads runtime configuration for illust from TOML files
// and environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	DefaultDBFileName       = ".illust.db"
	DefaultManifestFileName = "sentences.yaml"
	DefaultChunkSize        = 50
	DefaultLogLevel         = "warn"

	configDirEnvKey = "ILLUST_CONFIG_DIR"
	dbPathEnvKey    = "ILLUST_DB_PATH"
	chunkSizeEnvKey = "ILLUST_CHUNK_SIZE"
)

// Config defines runtime configuration for illust.
type Config struct {
	DBPath       string `toml:"db_path"`
	ManifestPath string `toml:"manifest_path"`
	ChunkSize    int    `toml:"chunk_size"`
	LogLevel     string `toml:"log_level"`
}

// Default returns default configuration values.
func Default() Config {
	return Config{
		DBPath:       "",
		ManifestPath: "",
		ChunkSize:    DefaultChunkSize,
		LogLevel:     "",
	}
}

// Load resolves configuration: built-in defaults, then the config file
// (ILLUST_CONFIG_DIR override or ~/.illust.toml), then env overrides.
// Relative paths are resolved against the working directory at use time.
func Load() (*Config, error) {
	cfg := Default()

	if overridePath, ok := overrideConfigPath(); ok {
		if err := loadFile(overridePath, &cfg); err != nil {
			return nil, err
		}
	} else if home, err := os.UserHomeDir(); err == nil {
		if err := loadFile(filepath.Join(home, ".illust.toml"), &cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}

	if cfg.DBPath == "" {
		if cwd, err := os.Getwd(); err == nil {
			cfg.DBPath = filepath.Join(cwd, DefaultDBFileName)
		} else {
			cfg.DBPath = DefaultDBFileName
		}
	}
	if cfg.ManifestPath == "" {
		cfg.ManifestPath = filepath.Join(filepath.Dir(cfg.DBPath), DefaultManifestFileName)
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}

	return &cfg, nil
}

func loadFile(path string, cfg *Config) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if info.IsDir() {
		return nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

func overrideConfigPath() (string, bool) {
	dir := strings.TrimSpace(os.Getenv(configDirEnvKey))
	if dir == "" {
		return "", false
	}
	return filepath.Join(dir, ".illust.toml"), true
}

func applyEnvOverrides(cfg *Config) error {
	if path := strings.TrimSpace(os.Getenv(dbPathEnvKey)); path != "" {
		cfg.DBPath = path
	}
	if raw := strings.TrimSpace(os.Getenv(chunkSizeEnvKey)); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size <= 0 {
			return fmt.Errorf("invalid %s=%q: must be a positive integer", chunkSizeEnvKey, raw)
		}
		cfg.ChunkSize = size
	}
	return nil
}
