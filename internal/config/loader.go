package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/vovakirdan/tui-connect4/internal/bitboard"
)

// Environment variables that override file settings.
const (
	EnvDBPath   = "CONNECT4_DB_PATH"
	EnvLogLevel = "CONNECT4_LOG_LEVEL"
	EnvSSHAddr  = "CONNECT4_SSH_ADDR"
	EnvRows     = "CONNECT4_ROWS"
	EnvColumns  = "CONNECT4_COLUMNS"
)

// MaxColumns keeps every column addressable by a single digit of move notation.
const MaxColumns = 9

// Load reads the configuration, applies environment overrides and validates the result.
// Search order: customPath -> ~/.connect4/config.yaml -> ./configs/connect4.yaml -> embedded default
func Load(customPath string) (Config, error) {
	cfg := Default()

	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config %s: %w", customPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", customPath, err)
		}
		return finish(cfg)
	}

	// Try user config directory
	if userCfgPath := userConfigPath("config.yaml"); userCfgPath != "" {
		if data, err := os.ReadFile(userCfgPath); err == nil {
			if err := yaml.Unmarshal(data, &cfg); err == nil {
				return finish(cfg)
			}
			cfg = Default()
		}
	}

	// Try local configs directory
	if data, err := os.ReadFile(filepath.Join("configs", "connect4.yaml")); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err == nil {
			return finish(cfg)
		}
		cfg = Default()
	}

	// Use embedded default YAML
	if err := yaml.Unmarshal(defaultYAML, &cfg); err != nil {
		cfg = Default() // Fallback to hardcoded if embed fails
	}
	return finish(cfg)
}

func finish(cfg Config) (Config, error) {
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadEnvFile loads KEY=VALUE pairs from .env files into the process environment.
// Missing files are skipped; variables already set are not overwritten.
func LoadEnvFile(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load env file %s: %w", p, err)
		}
	}
	return nil
}

// applyEnv overrides file settings from CONNECT4_* variables.
func applyEnv(cfg *Config) error {
	if v := os.Getenv(EnvDBPath); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv(EnvSSHAddr); v != "" {
		cfg.Server.Address = v
	}
	if err := envInt(EnvRows, &cfg.Board.Rows); err != nil {
		return err
	}
	return envInt(EnvColumns, &cfg.Board.Columns)
}

func envInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfig, key, v)
	}
	*dst = n
	return nil
}

// Validate checks that the configuration can drive a game.
func (c Config) Validate() error {
	if c.Board.Rows <= 0 || c.Board.Columns <= 0 {
		return fmt.Errorf("%w: board size %dx%d must be positive", ErrInvalidConfig, c.Board.Rows, c.Board.Columns)
	}
	if !bitboard.Fits(c.Board.Rows, c.Board.Columns) {
		return fmt.Errorf("%w: board %dx%d exceeds %d cells", ErrInvalidConfig, c.Board.Rows, c.Board.Columns, bitboard.MaxCells)
	}
	if c.Board.Columns > MaxColumns {
		return fmt.Errorf("%w: at most %d columns are supported", ErrInvalidConfig, MaxColumns)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log level %q", ErrInvalidConfig, c.Log.Level)
	}
	if c.Storage.Path == "" {
		return fmt.Errorf("%w: storage path is empty", ErrInvalidConfig)
	}
	if c.Server.IdleTimeoutMinutes < 0 {
		return fmt.Errorf("%w: negative idle timeout", ErrInvalidConfig)
	}
	return nil
}

// LogLevel returns the parsed log level, falling back to info.
func (c Config) LogLevel() log.Level {
	lvl, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// userConfigPath returns the path to user config file, or empty if home is unavailable.
func userConfigPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".connect4", filename)
}
