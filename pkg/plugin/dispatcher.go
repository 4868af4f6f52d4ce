package plugin

import (
	"context"

	"github.com/rs/zerolog"
)

// Dispatcher resolves user-typed command names through the registry and
// invokes the owning instance's command entry point.
//
// The interface contract declares no success value for a command run, so
// the dispatcher applies the host's policy: a normal guest return is
// success, a trap or an exceeded call budget is a fault. A fault
// quarantines the offending instance only; the host process and every
// other instance stay live.
type Dispatcher struct {
	logger   zerolog.Logger
	registry *Registry
}

// NewDispatcher creates a dispatcher over the registry.
func NewDispatcher(logger zerolog.Logger, registry *Registry) *Dispatcher {
	return &Dispatcher{
		logger:   logger.With().Str("component", "dispatcher").Logger(),
		registry: registry,
	}
}

// Dispatch runs a command. Failures are *DispatchError values; resolution
// failures never touch a sandbox, and a fault in one plugin never
// propagates past its own instance.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, args []string) error {
	res, err := d.registry.Resolve(name)
	if err != nil {
		return err
	}

	record, exists := d.registry.Get(res.Plugin)
	if !exists {
		// Unregistered between resolve and get; treat as unknown.
		return &DispatchError{Kind: DispatchUnknownCommand, Command: name}
	}

	if err := record.Instance.RunCommand(ctx, res.Command.Name, args); err != nil {
		d.logger.Error().
			Err(err).
			Str("plugin", res.Plugin).
			Str("command", res.Command.Name).
			Msg("Guest command faulted, instance quarantined")
		return &DispatchError{
			Kind:    DispatchPluginFault,
			Command: res.Command.Name,
			Plugin:  res.Plugin,
			Err:     err,
		}
	}
	return nil
}
