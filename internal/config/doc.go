// Package config loads runtime configuration for the psicash CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with --config.
//  3. Command-line flags that were set explicitly, which override earlier values.
//
// Supported flags
//
//	--data-dir string    directory holding the PsiCash datastore
//	--log-level string   debug, info, warn or error
//	-o, --format string  output format: text or json
//	--config string      path to a JSON config file
//
// # JSON schema
//
//	{
//	  "data_dir": "/var/lib/psicash",
//	  "log_level": "info",
//	  "format": "json"
//	}
//
// Keys that are absent or empty leave the previous value in place.
package config
