package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/plugshell/plugshell/pkg/shell"
)

// shellCmd starts the interactive shell
var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start the interactive plugin shell",
	Long: `Start the interactive shell. Configured plugin directories are scanned
and loaded first; further plugins can be loaded from inside the shell with
the "load" builtin.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, lg, host, err := setup()
		if err != nil {
			return err
		}
		defer lg.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		defer host.Close(ctx)

		host.Autoload(ctx)
		if err := host.StartWatcher(ctx); err != nil {
			return err
		}

		return shell.New(host, os.Stdin, os.Stdout, lg.GetZerolog()).Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(shellCmd)
}
