package config

import "github.com/spf13/pflag"

// Flag names.
const (
	FlagConfig   = "config"
	FlagDataDir  = "data-dir"
	FlagLogLevel = "log-level"
	FlagFormat   = "format"
)

// BindFlags registers the configuration flags on fs. Their defaults are
// only shown in help; LoadConfig applies a flag only when it was set.
func BindFlags(fs *pflag.FlagSet) {
	var d Config
	d.LoadDefaults()

	fs.String(FlagConfig, "", "path to a JSON config file")
	fs.String(FlagDataDir, d.DataDir, "directory holding the PsiCash datastore")
	fs.String(FlagLogLevel, d.LogLevel, "log level: debug, info, warn or error")
	fs.StringP(FlagFormat, "o", d.Format, "output format: text or json")
}

// parseFlags overlays cfg with the flags of fs that were set explicitly.
func parseFlags(cfg *Config, fs *pflag.FlagSet) {
	if fs == nil {
		return
	}
	fs.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case FlagDataDir:
			cfg.DataDir = f.Value.String()
		case FlagLogLevel:
			cfg.LogLevel = f.Value.String()
		case FlagFormat:
			cfg.Format = f.Value.String()
		}
	})
}
