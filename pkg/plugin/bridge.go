package plugin

import (
	"github.com/rs/zerolog"
)

// LogBridge is the single host capability exposed to every sandbox. It is
// constructed once at host startup and passed by reference into each
// instantiation; guests call it, they never own it.
//
// Log never returns an error and never blocks the guest beyond the write
// to the underlying zerolog sink, so a misbehaving sink cannot stall or
// fail a guest call.
type LogBridge struct {
	logger zerolog.Logger
}

// NewLogBridge creates the logging bridge over the host logger.
func NewLogBridge(logger zerolog.Logger) *LogBridge {
	return &LogBridge{
		logger: logger.With().Str("component", "plugin-log").Logger(),
	}
}

// Log emits a guest log message tagged with the emitting plugin's
// identity. Unknown levels are clamped to error so the message is never
// dropped on a bad level value.
func (b *LogBridge) Log(pluginName, instanceID string, level LogLevel, msg string) {
	var ev *zerolog.Event
	switch level {
	case LevelDebug:
		ev = b.logger.Debug()
	case LevelInfo:
		ev = b.logger.Info()
	case LevelWarn:
		ev = b.logger.Warn()
	default:
		ev = b.logger.Error()
	}
	ev.Str("plugin", pluginName).
		Str("instance", instanceID).
		Msg(msg)
}
