package plugin

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// QualifierSeparator joins a plugin name and a command name into a
// qualified command name. Valid names are ASCII alphanumeric, so the
// separator can never occur inside either half.
const QualifierSeparator = ":"

// Qualify returns the fully qualified form of a plugin's command.
func Qualify(pluginName, commandName string) string {
	return pluginName + QualifierSeparator + commandName
}

// SplitQualified splits a possibly qualified command name. ok is false
// when the name carries no qualifier.
func SplitQualified(name string) (pluginName, commandName string, ok bool) {
	i := strings.Index(name, QualifierSeparator)
	if i < 0 {
		return "", name, false
	}
	return name[:i], name[i+1:], true
}

// Registry is the process-wide table of loaded plugins and their declared
// commands. All mutation goes through Register and Unregister under the
// write lock; dispatch resolution takes the read lock and always sees a
// fully registered plugin or none of it.
//
// Collision policy: command names are unique within a plugin but not
// across plugins. While exactly one loaded plugin owns a command name, the
// bare name resolves to it. As soon as a second owner registers, the bare
// name becomes ambiguous and resolution requires the qualified
// "plugin:command" form; ambiguous lookups fail with a DispatchError
// listing the qualified candidates. This is deterministic under any load
// order, and the collision is logged when it is created.
type Registry struct {
	logger zerolog.Logger

	mu      sync.RWMutex
	plugins map[string]*Record
	// commands maps a bare command name to its owning plugin names, in
	// registration order.
	commands map[string][]string
}

// NewRegistry creates an empty registry.
func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		logger:   logger.With().Str("component", "plugin-registry").Logger(),
		plugins:  make(map[string]*Record),
		commands: make(map[string][]string),
	}
}

// Register inserts a loaded instance and indexes its commands. The whole
// insertion is atomic: a refusal leaves no trace of the plugin.
func (r *Registry) Register(inst Plugin, path string) error {
	info := inst.Info()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.plugins[info.Name]; exists {
		return fmt.Errorf("plugin %q is already loaded", info.Name)
	}

	r.plugins[info.Name] = &Record{
		Info:     info,
		Instance: inst,
		LoadedAt: time.Now(),
		Path:     path,
	}
	for _, cmd := range info.Commands {
		owners := append(r.commands[cmd.Name], info.Name)
		r.commands[cmd.Name] = owners
		if len(owners) > 1 {
			r.logger.Warn().
				Str("command", cmd.Name).
				Strs("plugins", owners).
				Msgf("Command name collision, use the qualified %q form", Qualify(info.Name, cmd.Name))
		}
	}
	return nil
}

// Unregister removes a plugin and all of its commands from the table. The
// caller owns closing the instance; the registry only forgets it.
func (r *Registry) Unregister(pluginName string) (*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, exists := r.plugins[pluginName]
	if !exists {
		return nil, fmt.Errorf("plugin %q is not loaded", pluginName)
	}
	delete(r.plugins, pluginName)

	for _, cmd := range record.Info.Commands {
		owners := r.commands[cmd.Name]
		for idx, owner := range owners {
			if owner == pluginName {
				owners = append(owners[:idx], owners[idx+1:]...)
				break
			}
		}
		if len(owners) == 0 {
			delete(r.commands, cmd.Name)
		} else {
			r.commands[cmd.Name] = owners
		}
	}
	return record, nil
}

// Get retrieves a plugin record by name.
func (r *Registry) Get(pluginName string) (*Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, exists := r.plugins[pluginName]
	return record, exists
}

// Resolve maps a possibly qualified command name to its owning plugin and
// Command record, applying the collision policy. Failures are
// *DispatchError values of kind unknown_command or ambiguous_command.
func (r *Registry) Resolve(name string) (Resolution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pluginName, commandName, qualified := SplitQualified(name)
	if qualified {
		record, exists := r.plugins[pluginName]
		if !exists {
			return Resolution{}, &DispatchError{Kind: DispatchUnknownCommand, Command: name}
		}
		for _, cmd := range record.Info.Commands {
			if cmd.Name == commandName {
				return Resolution{Plugin: pluginName, Command: cmd}, nil
			}
		}
		return Resolution{}, &DispatchError{Kind: DispatchUnknownCommand, Command: name}
	}

	owners := r.commands[commandName]
	switch len(owners) {
	case 0:
		return Resolution{}, &DispatchError{Kind: DispatchUnknownCommand, Command: name}
	case 1:
		record := r.plugins[owners[0]]
		for _, cmd := range record.Info.Commands {
			if cmd.Name == commandName {
				return Resolution{Plugin: owners[0], Command: cmd}, nil
			}
		}
		// Owner index and plugin table always move together under the
		// write lock; reaching here is a bug.
		return Resolution{}, &DispatchError{Kind: DispatchUnknownCommand, Command: name}
	default:
		candidates := make([]string, 0, len(owners))
		for _, owner := range owners {
			candidates = append(candidates, Qualify(owner, commandName))
		}
		sort.Strings(candidates)
		return Resolution{}, &DispatchError{
			Kind:       DispatchAmbiguousCommand,
			Command:    name,
			Candidates: candidates,
		}
	}
}

// Plugins returns the loaded plugins sorted by name.
func (r *Registry) Plugins() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]Info, 0, len(r.plugins))
	for _, record := range r.plugins {
		infos = append(infos, record.Info)
	}
	sort.Slice(infos, func(a, b int) bool { return infos[a].Name < infos[b].Name })
	return infos
}

// Commands returns every dispatchable command with its owning plugin,
// sorted by plugin then command name.
func (r *Registry) Commands() []Resolution {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Resolution
	for name, record := range r.plugins {
		for _, cmd := range record.Info.Commands {
			out = append(out, Resolution{Plugin: name, Command: cmd})
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Plugin != out[b].Plugin {
			return out[a].Plugin < out[b].Plugin
		}
		return out[a].Command.Name < out[b].Command.Name
	})
	return out
}

// Len returns the number of loaded plugins.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}
