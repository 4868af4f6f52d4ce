package config

import (
	"time"
)

// Config represents the main plugshell configuration
type Config struct {
	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// Plugins
	Plugins PluginsConfig `json:"plugins" mapstructure:"plugins"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `json:"level" mapstructure:"level"` // debug, info, warn, error
	File   string `json:"file" mapstructure:"file"`   // optional log file path
	Pretty bool   `json:"pretty" mapstructure:"pretty"`
}

// PluginsConfig holds plugin host configuration
type PluginsConfig struct {
	// Dirs are scanned for *.wasm artifacts at startup and watched when
	// Watch is enabled.
	Dirs []string `json:"dirs" mapstructure:"dirs"`

	// Autoload lists explicit artifact paths loaded at startup.
	Autoload []string `json:"autoload" mapstructure:"autoload"`

	// CallTimeout bounds a single guest call.
	CallTimeout time.Duration `json:"call_timeout" mapstructure:"call_timeout"`

	// Watch auto-loads artifacts dropped into Dirs while running.
	Watch bool `json:"watch" mapstructure:"watch"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Pretty: true,
		},
		Plugins: PluginsConfig{
			CallTimeout: 5 * time.Second,
		},
	}
}
