// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Session SessionConfig `toml:"session"`
}

// SessionConfig maps session settings. Nil fields were not set in the file.
type SessionConfig struct {
	Palette      *string   `toml:"palette"`
	Tick         *Duration `toml:"tick"`
	IdleAfter    *Duration `toml:"idle-after"`
	MysteryAfter *Duration `toml:"mystery-after"`
	Window       *int      `toml:"window"`
	Seed         *int64    `toml:"seed"`
	LogFile      *string   `toml:"log-file"`
	LogLevel     *string   `toml:"log-level"`
	NoColor      *bool     `toml:"no-color"`
}

// Duration decodes Go duration strings such as "500ms" or "3s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
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
