package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/pflag"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
type JsonConfig struct {
	DataDir  string `json:"data_dir"`
	LogLevel string `json:"log_level"`
	Format   string `json:"format"`
}

// parseJson overlays cfg with the JSON file named by the --config flag.
// Without the flag nothing is loaded.
func parseJson(cfg *Config, fs *pflag.FlagSet) error {
	if fs == nil {
		return nil
	}
	path, err := fs.GetString(FlagConfig)
	if err != nil || path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if jc.DataDir != "" {
		cfg.DataDir = jc.DataDir
	}
	if jc.LogLevel != "" {
		cfg.LogLevel = jc.LogLevel
	}
	if jc.Format != "" {
		cfg.Format = jc.Format
	}
	return nil
}
