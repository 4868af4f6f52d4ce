package plugin

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// ArtifactExt is the file extension the watcher and autoloader consider a
// loadable component artifact.
const ArtifactExt = ".wasm"

// Watcher monitors plugin directories and loads component artifacts as
// they appear. Writes are debounced so a plugin is only loaded once the
// file has stopped changing. Load failures are logged and never fatal.
type Watcher struct {
	logger    zerolog.Logger
	loader    *Loader
	watcher   *fsnotify.Watcher
	stability time.Duration

	done     chan struct{}
	stopOnce sync.Once

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewWatcher creates a watcher over the given directories. stability is
// how long a file must stay quiet before a load is attempted; zero picks
// a default.
func NewWatcher(logger zerolog.Logger, loader *Loader, dirs []string, stability time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := fsw.Add(dir); err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	if stability == 0 {
		stability = 250 * time.Millisecond
	}
	return &Watcher{
		logger:    logger.With().Str("component", "artifact-watcher").Logger(),
		loader:    loader,
		watcher:   fsw,
		stability: stability,
		done:      make(chan struct{}),
		timers:    make(map[string]*time.Timer),
	}, nil
}

// Start begins watching. The event loop runs until Stop.
func (w *Watcher) Start(ctx context.Context) {
	go w.eventLoop(ctx)
	w.logger.Info().Msg("Artifact watcher started")
}

// Stop stops the watcher. Safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		_ = w.watcher.Close()
	})
}

func (w *Watcher) eventLoop(ctx context.Context) {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Ext(event.Name) != ArtifactExt {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				w.scheduleLoad(ctx, event.Name)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("Watcher error")
		}
	}
}

// scheduleLoad debounces per path: every new event resets the timer, the
// load fires once the file has been stable for the threshold.
func (w *Watcher) scheduleLoad(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, exists := w.timers[path]; exists {
		timer.Stop()
	}
	w.timers[path] = time.AfterFunc(w.stability, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()

		select {
		case <-w.done:
			return
		default:
		}

		info, err := w.loader.Load(ctx, path)
		if err != nil {
			w.logger.Warn().Err(err).Str("path", path).Msg("Auto-load failed")
			return
		}
		w.logger.Info().
			Str("plugin", info.Name).
			Str("path", path).
			Msg("Plugin auto-loaded")
	})
}
