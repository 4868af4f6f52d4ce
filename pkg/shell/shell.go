// Package shell implements the interactive front end of the plugin host:
// a line-oriented loop with a table of built-in commands, falling through
// to the plugin dispatcher for everything else.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/plugshell/plugshell/pkg/plugin"
)

// WelcomeMsg greets the user when the shell starts.
const WelcomeMsg = `Welcome to plugshell. Load and unload plugins at runtime;
their commands become part of the shell. Type "help" to get some help.`

const prompt = ">> "

// Shell is the interactive loop. It owns no plugin state; everything goes
// through the host.
type Shell struct {
	host     *plugin.Host
	in       io.Reader
	out      io.Writer
	logger   zerolog.Logger
	builtins map[string]builtin
	running  bool
}

// New creates a shell reading commands from in and printing to out.
func New(host *plugin.Host, in io.Reader, out io.Writer, logger zerolog.Logger) *Shell {
	s := &Shell{
		host:   host,
		in:     in,
		out:    out,
		logger: logger.With().Str("component", "shell").Logger(),
	}
	s.builtins = builtinTable()
	return s
}

// Run reads lines until quit, EOF, or context cancellation. Errors from
// individual commands are printed and never terminate the loop. Input is
// read on its own goroutine so cancellation ends the loop even while a
// read is blocked on the terminal.
func (s *Shell) Run(ctx context.Context) error {
	fmt.Fprintln(s.out, WelcomeMsg)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(s.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	s.running = true
	for s.running {
		fmt.Fprint(s.out, prompt)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				if err := ctx.Err(); err != nil {
					return err
				}
				return <-scanErr
			}
			args := Tokenize(line)
			if len(args) == 0 {
				continue
			}
			s.Execute(ctx, args[0], args[1:])
		}
	}
	return nil
}

// Execute runs a single command: a builtin when the name matches one,
// otherwise a dispatch into the loaded plugins.
func (s *Shell) Execute(ctx context.Context, name string, args []string) {
	if b, ok := s.builtins[name]; ok {
		b.run(ctx, s, args)
		return
	}
	if err := s.host.Dispatch(ctx, name, args); err != nil {
		var derr *plugin.DispatchError
		if errors.As(err, &derr) && derr.Kind == plugin.DispatchUnknownCommand {
			fmt.Fprintf(s.out, "ERR: unknown command %q, type \"help\" to see all commands.\n", name)
			return
		}
		fmt.Fprintf(s.out, "ERR: %v\n", err)
	}
}

// Tokenize splits a raw input line into command and arguments.
func Tokenize(line string) []string {
	return strings.Fields(line)
}
