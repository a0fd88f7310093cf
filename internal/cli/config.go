package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/roach88/protoboard/internal/engine"
)

// DefaultConfigPath is read when --config is not given. A missing file at
// this path is not an error.
const DefaultConfigPath = "protoboard.toml"

// Config holds settings shared by every command.
type Config struct {
	Database     string
	CatalogDir   string
	LogLevel     slog.Level
	DefaultTheme string
	MaxSites     int
}

// DefaultConfig returns the settings used when neither a config file nor a
// flag provides a value.
func DefaultConfig() Config {
	return Config{
		Database:   "protoboard.db",
		CatalogDir: "catalog",
		LogLevel:   slog.LevelWarn,
		MaxSites:   engine.DefaultMaxSites,
	}
}

type fileConfig struct {
	Database     string `toml:"database"`
	CatalogDir   string `toml:"catalog_dir"`
	LogLevel     string `toml:"log_level"`
	DefaultTheme string `toml:"default_theme"`
	MaxSites     int    `toml:"max_sites"`
}

// LoadConfig overlays the TOML file at path onto DefaultConfig. Keys absent
// from the file keep their defaults. When required is false a missing file
// yields the defaults.
func LoadConfig(path string, required bool) (Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) && !required {
		return cfg, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("load config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("database") {
		if v := strings.TrimSpace(raw.Database); v != "" {
			cfg.Database = v
		}
	}

	if meta.IsDefined("catalog_dir") {
		if v := strings.TrimSpace(raw.CatalogDir); v != "" {
			cfg.CatalogDir = v
		}
	}

	if meta.IsDefined("log_level") {
		level, err := parseLogLevel(raw.LogLevel)
		if err != nil {
			return Config{}, fmt.Errorf("parse log_level: %w", err)
		}
		cfg.LogLevel = level
	}

	if meta.IsDefined("default_theme") {
		cfg.DefaultTheme = strings.TrimSpace(raw.DefaultTheme)
	}

	if meta.IsDefined("max_sites") {
		if raw.MaxSites < 0 {
			return Config{}, fmt.Errorf("max_sites must not be negative, got %d", raw.MaxSites)
		}
		cfg.MaxSites = raw.MaxSites
	}

	return cfg, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, err
	}
	return level, nil
}
