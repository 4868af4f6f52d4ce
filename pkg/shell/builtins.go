package shell

import (
	"context"
	"fmt"
	"sort"
)

// builtin is a command implemented by the shell itself rather than a
// plugin. Builtin names win over plugin commands; a shadowed plugin
// command stays reachable through its qualified "plugin:command" form.
type builtin struct {
	usage       string
	description string
	run         func(ctx context.Context, s *Shell, args []string)
}

func builtinTable() map[string]builtin {
	return map[string]builtin{
		"help": {
			usage:       "help [cmd]",
			description: "Print all commands, or a help message for one command",
			run:         helpExec,
		},
		"load": {
			usage:       "load <path>",
			description: "Load a plugin from a component artifact",
			run:         loadExec,
		},
		"unload": {
			usage:       "unload <plugin>",
			description: "Unload a plugin and all of its commands",
			run:         unloadExec,
		},
		"reload": {
			usage:       "reload <plugin>",
			description: "Reload a plugin from its artifact",
			run:         reloadExec,
		},
		"list-plugins": {
			usage:       "list-plugins",
			description: "Print all the plugins currently loaded",
			run:         listPluginsExec,
		},
		"list-commands": {
			usage:       "list-commands",
			description: "Print every dispatchable plugin command",
			run:         listCommandsExec,
		},
		"quit": {
			usage:       "quit",
			description: "Quit the shell",
			run: func(_ context.Context, s *Shell, _ []string) {
				s.running = false
			},
		},
	}
}

func helpExec(_ context.Context, s *Shell, args []string) {
	if len(args) > 0 {
		s.helpFor(args[0])
		return
	}

	type row struct{ usage, description string }
	var rows []row
	for _, b := range s.builtins {
		rows = append(rows, row{b.usage, b.description})
	}
	for _, res := range s.host.Registry().Commands() {
		rows = append(rows, row{res.Command.Usage, res.Command.Description})
	}
	sort.Slice(rows, func(a, b int) bool { return rows[a].usage < rows[b].usage })

	fmt.Fprintln(s.out, "All commands:")
	for _, r := range rows {
		fmt.Fprintf(s.out, "  %-16s - %s\n", r.usage, r.description)
	}
}

// helpFor prints help for a single command, builtin or plugin-provided.
func (s *Shell) helpFor(name string) {
	if b, ok := s.builtins[name]; ok {
		fmt.Fprintf(s.out, "%s\n  %s\n", b.usage, b.description)
		return
	}
	res, err := s.host.Registry().Resolve(name)
	if err != nil {
		fmt.Fprintf(s.out, "ERR: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "%s (plugin %s)\n  %s\n", res.Command.Usage, res.Plugin, res.Command.Description)
}

func loadExec(ctx context.Context, s *Shell, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "ERR: you must give the path to a component artifact to load.")
		return
	}
	info, err := s.host.Load(ctx, args[0])
	if err != nil {
		fmt.Fprintf(s.out, "ERR: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Plugin %s %s loaded successfully! Commands: %d\n",
		info.Name, info.Version, len(info.Commands))
}

func unloadExec(ctx context.Context, s *Shell, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "ERR: you must give the name of the plugin to unload.")
		return
	}
	if err := s.host.Unload(ctx, args[0]); err != nil {
		fmt.Fprintf(s.out, "ERR: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Plugin %s unloaded.\n", args[0])
}

func reloadExec(ctx context.Context, s *Shell, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "ERR: you must give the name of the plugin to reload.")
		return
	}
	info, err := s.host.Reload(ctx, args[0])
	if err != nil {
		fmt.Fprintf(s.out, "ERR: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Plugin %s %s reloaded.\n", info.Name, info.Version)
}

func listPluginsExec(_ context.Context, s *Shell, _ []string) {
	plugins := s.host.Registry().Plugins()
	if len(plugins) == 0 {
		fmt.Fprintln(s.out, "There are currently no plugins loaded!")
		return
	}
	fmt.Fprintln(s.out, "All loaded plugins:")
	for _, info := range plugins {
		fmt.Fprintf(s.out, "  %-16s %-10s - %s\n", info.Name, info.Version, info.Description)
	}
}

func listCommandsExec(_ context.Context, s *Shell, _ []string) {
	commands := s.host.Registry().Commands()
	if len(commands) == 0 {
		fmt.Fprintln(s.out, "No plugin commands registered.")
		return
	}
	fmt.Fprintln(s.out, "All plugin commands:")
	for _, res := range commands {
		fmt.Fprintf(s.out, "  %-16s - %s (plugin %s)\n", res.Command.Usage, res.Command.Description, res.Plugin)
	}
}
