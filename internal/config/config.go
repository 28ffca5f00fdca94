// Package config resolves kit settings from the environment and an optional
// .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kitia/cli/pkg/util"
	"github.com/pterm/pterm"
)

// Storage backends.
const (
	StorageFile    = "file"
	StorageKeyring = "keyring"
	StorageMemory  = "memory"
)

// Environment variables read by Load.
const (
	EnvStorage     = "KIT_STORAGE"
	EnvStoragePath = "KIT_STORAGE_PATH"
	EnvLogLevel    = "KIT_LOG_LEVEL"
	EnvLogFormat   = "KIT_LOG_FORMAT"
)

// Config holds resolved settings.
type Config struct {
	Storage     string
	StoragePath string
	LogLevel    string
	LogFormat   string
}

// Load reads envFile (ignored when missing) and then the environment.
// Variables already set in the environment win over the file.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	cfg := Config{
		Storage:     strings.ToLower(getenv(EnvStorage, StorageFile)),
		StoragePath: os.Getenv(EnvStoragePath),
		LogLevel:    strings.ToLower(getenv(EnvLogLevel, "warn")),
		LogFormat:   strings.ToLower(getenv(EnvLogFormat, "text")),
	}
	if cfg.Storage == StorageFile && cfg.StoragePath == "" {
		dir, err := util.DefaultDataDir()
		if err != nil {
			return Config{}, fmt.Errorf("failed to resolve data directory: %w", err)
		}
		cfg.StoragePath = filepath.Join(dir, "storage.json")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks enumerated settings.
func (c Config) Validate() error {
	switch c.Storage {
	case StorageFile, StorageKeyring, StorageMemory:
	default:
		return fmt.Errorf("unsupported storage %q: use file, keyring or memory", c.Storage)
	}
	if _, ok := logLevels[c.LogLevel]; !ok {
		return fmt.Errorf("unsupported log level %q", c.LogLevel)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("unsupported log format %q: use text or json", c.LogFormat)
	}
	return nil
}

var logLevels = map[string]pterm.LogLevel{
	"trace":    pterm.LogLevelTrace,
	"debug":    pterm.LogLevelDebug,
	"info":     pterm.LogLevelInfo,
	"warn":     pterm.LogLevelWarn,
	"error":    pterm.LogLevelError,
	"disabled": pterm.LogLevelDisabled,
}

// Logger builds the diagnostic logger described by c. Logs go to stderr so
// command output stays machine readable.
func (c Config) Logger() *pterm.Logger {
	logger := pterm.DefaultLogger.WithWriter(os.Stderr).WithLevel(logLevels[c.LogLevel])
	if c.LogFormat == "json" {
		logger = logger.WithFormatter(pterm.LogFormatterJSON)
	}
	return logger
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
