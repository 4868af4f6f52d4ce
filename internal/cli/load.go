package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// loadCmd loads one artifact, prints its declared metadata, and exits.
// Useful to check an artifact before dropping it into a plugin directory.
var loadCmd = &cobra.Command{
	Use:   "load <path>",
	Short: "Load a component artifact and print its metadata",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, lg, host, err := setup()
		if err != nil {
			return err
		}
		defer lg.Close()

		ctx := cmd.Context()
		defer host.Close(ctx)

		info, err := host.Load(ctx, args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Name:        %s\n", info.Name)
		fmt.Fprintf(out, "Version:     %s\n", info.Version)
		fmt.Fprintf(out, "Description: %s\n", info.Description)
		fmt.Fprintf(out, "Commands:\n")
		for _, c := range info.Commands {
			fmt.Fprintf(out, "  %-16s - %s\n", c.Usage, c.Description)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loadCmd)
}
