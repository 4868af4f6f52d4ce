package plugin

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Loader owns the load pipeline: read the artifact, instantiate it in a
// fresh sandbox, drive the guest's init call, validate the declared
// metadata, and hand the instance to the registry. Every failure tears
// the instance down and leaves the registry untouched, so a load is
// atomic from the registry's point of view.
type Loader struct {
	logger   zerolog.Logger
	engine   *Engine
	bridge   *LogBridge
	registry *Registry
	timeout  time.Duration
}

// NewLoader creates a loader over the shared engine, bridge, and registry.
// timeout is the per-guest-call execution budget.
func NewLoader(logger zerolog.Logger, engine *Engine, bridge *LogBridge, registry *Registry, timeout time.Duration) *Loader {
	return &Loader{
		logger:   logger.With().Str("component", "plugin-loader").Logger(),
		engine:   engine,
		bridge:   bridge,
		registry: registry,
		timeout:  timeout,
	}
}

// Load reads a component artifact from path and takes it through the full
// pipeline. On success the plugin's commands are immediately dispatchable
// and the declared metadata is returned. Failures are *LoadError values.
func (l *Loader) Load(ctx context.Context, path string) (*Info, error) {
	wasm, err := os.ReadFile(path)
	if err != nil {
		kind := LoadReadError
		if os.IsNotExist(err) {
			kind = LoadNotFound
		}
		return nil, &LoadError{Kind: kind, Path: path, Err: err}
	}

	inst, err := newInstance(ctx, l.engine, l.bridge, wasm, l.timeout, l.logger)
	if err != nil {
		return nil, &LoadError{Kind: LoadInstantiation, Path: path, Err: err}
	}

	payload, err := inst.callInit(ctx)
	if err != nil {
		_ = inst.Close(ctx)
		return nil, &LoadError{Kind: LoadInit, Path: path, Err: err}
	}

	info, err := decodeInfo(payload)
	if err != nil {
		_ = inst.Close(ctx)
		return nil, &LoadError{Kind: LoadValidation, Path: path, Field: "info", Err: err}
	}
	if err := ValidateInfo(info); err != nil {
		_ = inst.Close(ctx)
		lerr := err.(*LoadError)
		lerr.Path = path
		return nil, lerr
	}
	inst.adopt(*info)

	if err := l.registry.Register(inst, path); err != nil {
		_ = inst.Close(ctx)
		return nil, &LoadError{Kind: LoadConflict, Path: path, Plugin: info.Name, Err: err}
	}

	l.logger.Info().
		Str("plugin", info.Name).
		Str("version", info.Version).
		Int("commands", len(info.Commands)).
		Str("path", path).
		Msg("Plugin loaded successfully")

	return info, nil
}

// Unload removes a plugin from the registry and releases its sandbox. It
// waits for an in-flight command invocation to finish before the sandbox
// goes away.
func (l *Loader) Unload(ctx context.Context, pluginName string) error {
	record, err := l.registry.Unregister(pluginName)
	if err != nil {
		return err
	}
	if err := record.Instance.Close(ctx); err != nil {
		return fmt.Errorf("failed to release sandbox for %q: %w", pluginName, err)
	}
	l.logger.Info().Str("plugin", pluginName).Msg("Plugin unloaded")
	return nil
}

// Reload unloads a plugin and loads it again from the artifact it
// originally came from. This is the only way to clear a quarantine.
func (l *Loader) Reload(ctx context.Context, pluginName string) (*Info, error) {
	record, exists := l.registry.Get(pluginName)
	if !exists {
		return nil, fmt.Errorf("plugin %q is not loaded", pluginName)
	}
	path := record.Path
	if err := l.Unload(ctx, pluginName); err != nil {
		return nil, err
	}
	return l.Load(ctx, path)
}
