package plugin

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// HostConfig configures the plugin host.
type HostConfig struct {
	// Dirs are directories scanned by Autoload and watched when Watch is
	// set.
	Dirs []string
	// Autoload lists explicit artifact paths loaded at startup.
	Autoload []string
	// CallTimeout is the execution budget for a single guest call.
	CallTimeout time.Duration
	// Watch enables the artifact watcher over Dirs.
	Watch bool
	// WatchStability is the debounce threshold for the watcher.
	WatchStability time.Duration
}

// DefaultCallTimeout applies when the configuration does not set one.
const DefaultCallTimeout = 5 * time.Second

// Host wires the plugin system together: one engine, one logging bridge,
// one registry, a loader and a dispatcher over them, and an optional
// artifact watcher. Created at host startup, torn down at shutdown; all
// plugin state lives behind its registry and dies with the process.
type Host struct {
	logger     zerolog.Logger
	config     HostConfig
	engine     *Engine
	bridge     *LogBridge
	registry   *Registry
	loader     *Loader
	dispatcher *Dispatcher
	watcher    *Watcher
}

// NewHost builds the plugin host from configuration.
func NewHost(logger zerolog.Logger, config HostConfig) *Host {
	if config.CallTimeout <= 0 {
		config.CallTimeout = DefaultCallTimeout
	}

	engine := NewEngine()
	bridge := NewLogBridge(logger)
	registry := NewRegistry(logger)
	loader := NewLoader(logger, engine, bridge, registry, config.CallTimeout)

	return &Host{
		logger:     logger.With().Str("component", "plugin-host").Logger(),
		config:     config,
		engine:     engine,
		bridge:     bridge,
		registry:   registry,
		loader:     loader,
		dispatcher: NewDispatcher(logger, registry),
	}
}

// Registry exposes the plugin table for read access.
func (h *Host) Registry() *Registry {
	return h.registry
}

// Load loads one artifact.
func (h *Host) Load(ctx context.Context, path string) (*Info, error) {
	return h.loader.Load(ctx, path)
}

// Unload unloads one plugin.
func (h *Host) Unload(ctx context.Context, pluginName string) error {
	return h.loader.Unload(ctx, pluginName)
}

// Reload reloads one plugin from its original artifact, clearing any
// quarantine.
func (h *Host) Reload(ctx context.Context, pluginName string) (*Info, error) {
	return h.loader.Reload(ctx, pluginName)
}

// Dispatch runs a command through the dispatcher.
func (h *Host) Dispatch(ctx context.Context, name string, args []string) error {
	return h.dispatcher.Dispatch(ctx, name, args)
}

// Autoload loads the configured artifacts and scans the configured
// directories. Individual failures are collected per path; one bad
// artifact never stops the rest.
func (h *Host) Autoload(ctx context.Context) map[string]error {
	failures := make(map[string]error)

	paths := append([]string{}, h.config.Autoload...)
	for _, dir := range h.config.Dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if !os.IsNotExist(err) {
				h.logger.Warn().Err(err).Str("dir", dir).Msg("Failed to scan plugin directory")
			}
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() || filepath.Ext(entry.Name()) != ArtifactExt {
				continue
			}
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}

	for _, path := range paths {
		if _, err := h.loader.Load(ctx, path); err != nil {
			h.logger.Warn().Err(err).Str("path", path).Msg("Autoload failed")
			failures[path] = err
		}
	}
	return failures
}

// StartWatcher starts the artifact watcher when enabled by configuration.
func (h *Host) StartWatcher(ctx context.Context) error {
	if !h.config.Watch {
		return nil
	}
	watcher, err := NewWatcher(h.logger, h.loader, h.config.Dirs, h.config.WatchStability)
	if err != nil {
		return err
	}
	h.watcher = watcher
	watcher.Start(ctx)
	return nil
}

// Close stops the watcher, unloads every plugin, and releases the engine.
func (h *Host) Close(ctx context.Context) error {
	if h.watcher != nil {
		h.watcher.Stop()
	}
	for _, info := range h.registry.Plugins() {
		if err := h.loader.Unload(ctx, info.Name); err != nil {
			h.logger.Warn().Err(err).Str("plugin", info.Name).Msg("Failed to unload plugin at shutdown")
		}
	}
	return h.engine.Close(ctx)
}
