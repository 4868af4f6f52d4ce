package plugin

import (
	"fmt"
	"time"
)

// Command describes a single command a plugin contributes to the shell.
// Produced by the guest's init call and immutable afterwards.
type Command struct {
	Name        string `json:"name"`
	Usage       string `json:"usage"`
	Description string `json:"description"`
}

// Info is the metadata a plugin declares about itself at init time.
type Info struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Version     string    `json:"version"`
	Commands    []Command `json:"commands"`
}

// LogLevel is the severity of a guest log message. Levels are totally
// ordered, so hosts can filter with a simple comparison.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the canonical lowercase name of the level.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// Valid reports whether l is one of the four contract levels.
func (l LogLevel) Valid() bool {
	return l >= LevelDebug && l <= LevelError
}

// ParseLogLevel converts a level name to a LogLevel.
func ParseLogLevel(s string) (LogLevel, error) {
	switch s {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelDebug, fmt.Errorf("unknown log level %q", s)
	}
}

// InstanceState represents the current state of a plugin instance
type InstanceState string

const (
	// StateReady means the instance accepts command invocations.
	StateReady InstanceState = "ready"
	// StateQuarantined means a guest call faulted or timed out; the
	// instance refuses further dispatch until it is reloaded.
	StateQuarantined InstanceState = "quarantined"
	// StateClosed means the sandbox has been released.
	StateClosed InstanceState = "closed"
)

// Resolution is the result of resolving a command name in the registry.
type Resolution struct {
	Plugin  string
	Command Command
}

// Record tracks a registered plugin inside the registry.
type Record struct {
	Info     Info
	Instance Plugin
	LoadedAt time.Time
	Path     string
}
