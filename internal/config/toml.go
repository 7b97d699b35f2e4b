// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Log   LogConfig   `toml:"log"`
	Store StoreConfig `toml:"store"`
	Chart ChartConfig `toml:"chart"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level *string `toml:"level"`
}

// StoreConfig maps database settings for the load stage.
type StoreConfig struct {
	Path *string `toml:"path"`
}

// ChartConfig maps chart rendering settings.
type ChartConfig struct {
	Color *bool `toml:"color"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}

// Template returns the commented config written by `sleepetl config`.
func Template(defaultLevel, defaultDB string) string {
	return fmt.Sprintf(`# sleepetl configuration
# Uncomment a value to enable it. CLI flags override config values.

[log]
# level = %q            # debug, info, warn or error

[store]
# path = %q

[chart]
# color = true            # Force colored chart cells (NO_COLOR still wins)
`, defaultLevel, defaultDB)
}
