package config

import (
	"fmt"
)

// Validator validates configuration values
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks the full configuration
func (v *Validator) Validate(cfg *Config) error {
	if err := v.ValidateLogLevel(cfg.Logging.Level); err != nil {
		return err
	}
	if cfg.Plugins.CallTimeout <= 0 {
		return fmt.Errorf("plugins.call_timeout must be positive, got %s", cfg.Plugins.CallTimeout)
	}
	for i, dir := range cfg.Plugins.Dirs {
		if dir == "" {
			return fmt.Errorf("plugins.dirs[%d] is empty", i)
		}
	}
	for i, path := range cfg.Plugins.Autoload {
		if path == "" {
			return fmt.Errorf("plugins.autoload[%d] is empty", i)
		}
	}
	return nil
}

// ValidateLogLevel checks that a log level name is one zerolog accepts
func (v *Validator) ValidateLogLevel(level string) error {
	switch level {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic", "":
		return nil
	default:
		return fmt.Errorf("unknown log level %q", level)
	}
}
