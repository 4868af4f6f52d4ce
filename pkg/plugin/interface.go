package plugin

import (
	"context"
)

// Plugin is the host's view of a loaded guest instance. The loader is the
// only producer; the sandbox-backed Instance is the canonical
// implementation. A Plugin has exactly one entry point after load:
// RunCommand. The init call is consumed by the loader before the instance
// ever reaches the registry, so init-before-run ordering holds by
// construction.
type Plugin interface {
	// Info returns the metadata the guest declared at init time.
	Info() Info

	// RunCommand invokes the guest's command entry point. A guest trap,
	// a sandbox violation, or an exceeded call budget quarantines the
	// instance and is reported as an error; a normal return is success.
	RunCommand(ctx context.Context, name string, args []string) error

	// State reports whether the instance is dispatchable.
	State() InstanceState

	// Close releases the sandbox. It waits for an in-flight guest call
	// to finish and is safe to call more than once.
	Close(ctx context.Context) error
}
