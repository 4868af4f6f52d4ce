package plugin

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// Engine holds the wazero state shared across sandbox instances: the
// compilation cache and the runtime configuration. Every instance still
// gets a private wazero.Runtime, so no linear memory or module state is
// ever shared between plugins; the cache only reuses compiled machine
// code, which is immutable.
type Engine struct {
	cache  wazero.CompilationCache
	config wazero.RuntimeConfig
}

// NewEngine creates the shared sandbox engine. Constructed once at host
// startup and closed at shutdown.
func NewEngine() *Engine {
	cache := wazero.NewCompilationCache()
	return &Engine{
		cache: cache,
		config: wazero.NewRuntimeConfig().
			WithCompilationCache(cache).
			WithCloseOnContextDone(true),
	}
}

// Close releases the compilation cache.
func (e *Engine) Close(ctx context.Context) error {
	return e.cache.Close(ctx)
}

// Instance is the sandbox-backed Plugin implementation: one guest module
// inside its own wazero runtime, with the logging bridge as its only
// import. Calls into the sandbox are serialized by callMu; wazero module
// instances are not safely reentrant across concurrent calls.
type Instance struct {
	id      string
	timeout time.Duration
	bridge  *LogBridge
	logger  zerolog.Logger

	// name is written once by callInit while callMu is held and read by
	// the log host function, which only runs inside a guest call that
	// also holds callMu.
	name string

	callMu  sync.Mutex
	runtime wazero.Runtime
	module  api.Module
	alloc   api.Function
	init    api.Function
	run     api.Function

	mu       sync.Mutex
	state    InstanceState
	infoCopy Info
}

// newInstance compiles and instantiates a guest module in a fresh sandbox
// with the logging bridge bound. The guest's init export has not been
// called yet when this returns; the loader drives that next.
func newInstance(ctx context.Context, engine *Engine, bridge *LogBridge, wasm []byte, timeout time.Duration, logger zerolog.Logger) (*Instance, error) {
	inst := &Instance{
		id:      uuid.New().String(),
		timeout: timeout,
		bridge:  bridge,
		state:   StateReady,
	}
	inst.logger = logger.With().Str("component", "sandbox").Str("instance", inst.id).Logger()

	runtime := wazero.NewRuntimeWithConfig(ctx, engine.config)

	compiled, err := runtime.CompileModule(ctx, wasm)
	if err != nil {
		_ = runtime.Close(ctx)
		return nil, fmt.Errorf("module does not compile: %w", err)
	}
	if err := checkContract(compiled); err != nil {
		_ = runtime.Close(ctx)
		return nil, err
	}

	_, err = runtime.NewHostModuleBuilder(HostModule).
		NewFunctionBuilder().
		WithFunc(inst.hostLog).
		Export(ImportLog).
		Instantiate(ctx)
	if err != nil {
		_ = runtime.Close(ctx)
		return nil, fmt.Errorf("failed to bind host capabilities: %w", err)
	}

	// No automatic start functions: nothing in the guest runs until the
	// host decides to call into it.
	module, err := runtime.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().
		WithName(inst.id).
		WithStartFunctions())
	if err != nil {
		_ = runtime.Close(ctx)
		return nil, fmt.Errorf("module does not instantiate: %w", err)
	}

	inst.runtime = runtime
	inst.module = module
	inst.alloc = module.ExportedFunction(ExportAlloc)
	inst.init = module.ExportedFunction(ExportInit)
	inst.run = module.ExportedFunction(ExportRun)

	// Reactor-style initializer, emitted by some guest toolchains. Runs
	// under the same call budget as any other guest call.
	if initialize := module.ExportedFunction(guestInitExport); initialize != nil {
		cctx, cancel := context.WithTimeout(ctx, timeout)
		_, err := initialize.Call(cctx)
		cancel()
		if err != nil {
			_ = runtime.Close(ctx)
			return nil, fmt.Errorf("%s trapped: %w", guestInitExport, err)
		}
	}

	return inst, nil
}

// hostLog is the "plugshell" log import. It must never fail the calling
// guest: a log message pointing outside guest memory is reported on the
// host side and otherwise ignored.
func (i *Instance) hostLog(_ context.Context, m api.Module, level, ptr, size uint32) {
	msg, ok := m.Memory().Read(ptr, size)
	if !ok {
		i.logger.Warn().
			Uint32("ptr", ptr).
			Uint32("len", size).
			Msg("Guest log message out of memory range")
		return
	}
	i.bridge.Log(i.name, i.id, LogLevel(level), string(msg))
}

// ID returns the unique identifier of this sandbox instance.
func (i *Instance) ID() string {
	return i.id
}

// Info returns the metadata the guest declared at init time.
func (i *Instance) Info() Info {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.infoCopy
}

// State reports whether the instance is dispatchable.
func (i *Instance) State() InstanceState {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

func (i *Instance) setState(s InstanceState) {
	i.mu.Lock()
	i.state = s
	i.mu.Unlock()
}

// callInit invokes the guest's init export exactly once and returns the
// raw metadata payload. The loader validates and decodes it.
func (i *Instance) callInit(ctx context.Context) ([]byte, error) {
	i.callMu.Lock()
	defer i.callMu.Unlock()

	cctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	results, err := i.init.Call(cctx)
	if err != nil {
		i.setState(StateQuarantined)
		return nil, fmt.Errorf("init trapped: %w", err)
	}
	if len(results) != 1 {
		i.setState(StateQuarantined)
		return nil, fmt.Errorf("init returned %d values, want 1", len(results))
	}

	ptr, size := packedRegion(results[0])
	payload, ok := i.module.Memory().Read(ptr, size)
	if !ok {
		i.setState(StateQuarantined)
		return nil, fmt.Errorf("init payload (ptr=%d len=%d) out of memory range", ptr, size)
	}

	// Copy out of linear memory before the guest can touch it again.
	out := make([]byte, len(payload))
	copy(out, payload)
	return out, nil
}

// adopt records the validated metadata on the instance. Called by the
// loader after validation, before registration.
func (i *Instance) adopt(info Info) {
	i.mu.Lock()
	i.infoCopy = info
	i.mu.Unlock()
	i.name = info.Name
}

// RunCommand invokes the guest's command entry point under the call
// budget. Any trap, sandbox violation, or timeout quarantines the
// instance; the error is reported to the caller and the host stays live.
func (i *Instance) RunCommand(ctx context.Context, name string, args []string) error {
	i.callMu.Lock()
	defer i.callMu.Unlock()

	if s := i.State(); s != StateReady {
		return fmt.Errorf("instance is %s", s)
	}

	payload, err := encodeRunEnvelope(name, args)
	if err != nil {
		return fmt.Errorf("failed to encode run envelope: %w", err)
	}

	cctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	results, err := i.alloc.Call(cctx, uint64(len(payload)))
	if err != nil {
		i.setState(StateQuarantined)
		return fmt.Errorf("allocator trapped: %w", err)
	}
	ptr := uint32(results[0])
	if ptr == 0 {
		i.setState(StateQuarantined)
		return fmt.Errorf("allocator refused %d bytes", len(payload))
	}
	if !i.module.Memory().Write(ptr, payload) {
		i.setState(StateQuarantined)
		return fmt.Errorf("envelope write (ptr=%d len=%d) out of memory range", ptr, len(payload))
	}

	if _, err := i.run.Call(cctx, uint64(ptr), uint64(len(payload))); err != nil {
		i.setState(StateQuarantined)
		if cctx.Err() != nil {
			return fmt.Errorf("call exceeded budget of %s: %w", i.timeout, err)
		}
		return fmt.Errorf("command trapped: %w", err)
	}
	return nil
}

// Close releases the sandbox. It waits for an in-flight guest call to
// finish and is safe to call more than once.
func (i *Instance) Close(ctx context.Context) error {
	i.callMu.Lock()
	defer i.callMu.Unlock()

	if i.State() == StateClosed {
		return nil
	}
	i.setState(StateClosed)

	if err := i.module.Close(ctx); err != nil {
		i.logger.Warn().Err(err).Msg("Failed to close guest module")
	}
	return i.runtime.Close(ctx)
}
