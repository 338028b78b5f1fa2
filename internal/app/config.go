package app

import (
	"io"

	"keel/internal/config"
)

// Config holds the application configuration
type Config struct {
	// Debug forces debug logging regardless of config.yaml.
	Debug bool

	// Silent discards all log output.
	Silent bool

	// LogOutput receives log output. Defaults to os.Stderr.
	LogOutput io.Writer

	// ConfigPath is the configuration directory. Defaults to ~/.config/keel.
	ConfigPath string

	// KeelConfig is loaded from ConfigPath when nil.
	KeelConfig *config.KeelConfig
}

// NewConfig creates a new application configuration
func NewConfig(debug bool, configPath string) *Config {
	return &Config{
		Debug:      debug,
		ConfigPath: configPath,
	}
}
