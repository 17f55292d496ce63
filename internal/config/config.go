package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/psicash/internal/logging"
	"github.com/spf13/pflag"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config holds runtime settings for the psicash CLI.
type Config struct {
	DataDir  string
	LogLevel string
	Format   string
}

// LoadDefaults populates c with sensible defaults. The data directory is
// "psicash" under the user config dir, or ".psicash" when that is unknown.
func (c *Config) LoadDefaults() {
	c.DataDir = ".psicash"
	if dir, err := os.UserConfigDir(); err == nil {
		c.DataDir = filepath.Join(dir, "psicash")
	}
	c.LogLevel = "warn"
	c.Format = FormatText
}

// Validate checks that the format and log level are known.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data dir must not be empty")
	}
	if c.Format != FormatText && c.Format != FormatJSON {
		return fmt.Errorf("unknown format %q (want %s or %s)", c.Format, FormatText, FormatJSON)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// LoadConfig builds a Config by applying defaults, then the JSON file named
// by the --config flag in fs, then the flags in fs that were set.
func LoadConfig(fs *pflag.FlagSet) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg, fs); err != nil {
		return nil, err
	}
	parseFlags(cfg, fs)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
