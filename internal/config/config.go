// Package config loads the chronofs daemon configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Defaults applied by Load when the file leaves fields unset.
const (
	DefaultListenAddr       = "127.0.0.1:7474"
	DefaultTruncateInterval = time.Minute
	DefaultRetainEntries    = 10000
)

// Duration wraps time.Duration so TOML files can use "30s" style values.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for TOML decoding.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// Config represents the main configuration for the chronofs daemon.
type Config struct {
	Mountpoint string        `toml:"mountpoint"`
	BackingDir string        `toml:"backing_dir"`
	ListenAddr string        `toml:"listen_addr"`
	Journal    JournalConfig `toml:"journal"`
}

// JournalConfig bounds the in-memory change journal. Every
// TruncateInterval the daemon prunes history so that at most
// RetainEntries sequence numbers remain answerable.
type JournalConfig struct {
	TruncateInterval Duration `toml:"truncate_interval"`
	RetainEntries    uint64   `toml:"retain_entries"`
}

// Load reads a TOML config file and applies defaults. A missing path
// yields pure defaults, so running without a config file works.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func defaults() Config {
	return Config{
		ListenAddr: DefaultListenAddr,
		Journal: JournalConfig{
			TruncateInterval: Duration{DefaultTruncateInterval},
			RetainEntries:    DefaultRetainEntries,
		},
	}
}

func (c Config) validate() error {
	if c.Journal.TruncateInterval.Duration <= 0 {
		return errors.New("journal.truncate_interval must be positive")
	}
	if c.Journal.RetainEntries == 0 {
		return errors.New("journal.retain_entries must be positive")
	}
	return nil
}
