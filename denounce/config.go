// =============================================================================
// config.go - Persistent Settings
// =============================================================================
//
// Settings that would otherwise have to be typed on every invocation live in
// a small YAML file:
//
//	host: 192.168.0.209      # receiver address
//	pid: -1472011            # default HEOS player for play-url
//	subscribe: true          # heos shell registers for change events
//	log_level: debug         # debug, info, warn, error
//
// Lookup order: --config flag, $XDG_CONFIG_HOME/denounce/config.yaml,
// ~/.config/denounce/config.yaml. A missing file is not an error.
//
// =============================================================================

package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/denounce/denounce/denonprotocol"
)

const (
	configDirName  = "denounce"
	configFileName = "config.yaml"
)

// Config holds the settings read from the config file.
//
// GO CONCEPT: Struct Tags
// -----------------------
// The backquoted strings after each field are struct tags. yaml.v3 reads
// them through reflection to map YAML keys to fields: `yaml:"log_level"`
// binds the log_level key to LogLevel. ",omitempty" leaves zero values out
// when the struct is marshalled by SaveConfig.
//
// GO CONCEPT: Pointers for Optional Values
// ----------------------------------------
// PID is *int64 rather than int64 because 0 and negative numbers are both
// valid player ids. A nil pointer means "not set", which an int64 cannot
// express.
//
// Compare with Python: Optional[int] with None as the unset value.
type Config struct {
	Host      string `yaml:"host"`
	PID       *int64 `yaml:"pid,omitempty"`
	Subscribe bool   `yaml:"subscribe,omitempty"`
	LogLevel  string `yaml:"log_level,omitempty"`
}

// DefaultConfig returns the settings used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Host:     denonprotocol.DefaultHost,
		LogLevel: "warn",
	}
}

// defaultConfigPath returns the config file location, or "" when no home
// directory can be determined.
func defaultConfigPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, configDirName, configFileName)
	}
	home := homeDir()
	if home == "" {
		return ""
	}
	return filepath.Join(home, ".config", configDirName, configFileName)
}

// LoadConfig reads path. Fields absent from the file keep their defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if cfg.Host == "" {
		cfg.Host = denonprotocol.DefaultHost
	}
	if _, err := parseLogLevel(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// SaveConfig writes cfg to path, creating parent directories.
func SaveConfig(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home
}
