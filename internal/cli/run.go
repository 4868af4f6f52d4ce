package cli

import (
	"github.com/spf13/cobra"
)

// runCmd dispatches a single plugin command and exits
var runCmd = &cobra.Command{
	Use:   "run <command> [args...]",
	Short: "Dispatch one plugin command and exit",
	Long: `Load the configured plugins, dispatch a single command with the given
arguments, and exit. Qualified "plugin:command" names work the same way
they do in the shell.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, lg, host, err := setup()
		if err != nil {
			return err
		}
		defer lg.Close()

		ctx := cmd.Context()
		defer host.Close(ctx)

		host.Autoload(ctx)
		return host.Dispatch(ctx, args[0], args[1:])
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
