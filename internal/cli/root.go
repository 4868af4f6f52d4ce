package cli

import (
	"github.com/spf13/cobra"

	"github.com/plugshell/plugshell/internal/config"
	"github.com/plugshell/plugshell/internal/logger"
	"github.com/plugshell/plugshell/pkg/plugin"
)

const version = "0.1.0"

var (
	cfgFile  string
	logLevel string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "plugshell",
	Short: "Plugshell - sandboxed WASM plugin host",
	Long: `Plugshell is a command shell that extends itself at runtime by loading
sandboxed WebAssembly plugin modules. Each loaded plugin contributes named
commands; plugins run isolated with logging as their only host capability.`,
	Version: version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.plugshell/plugshell.json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	// Version template
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
`)
}

// GetRootCmd returns the root command for testing
func GetRootCmd() *cobra.Command {
	return rootCmd
}

// setup loads configuration and builds the logger and plugin host shared
// by the subcommands. The caller closes both.
func setup() (*config.Config, *logger.Logger, *plugin.Host, error) {
	cfg, err := config.NewLoader(cfgFile).Load()
	if err != nil {
		return nil, nil, nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	lg, err := logger.New(logger.Config{
		Level:   cfg.Logging.Level,
		File:    cfg.Logging.File,
		Console: true,
		Pretty:  cfg.Logging.Pretty,
	})
	if err != nil {
		return nil, nil, nil, err
	}

	host := plugin.NewHost(lg.GetZerolog(), plugin.HostConfig{
		Dirs:        cfg.Plugins.Dirs,
		Autoload:    cfg.Plugins.Autoload,
		CallTimeout: cfg.Plugins.CallTimeout,
		Watch:       cfg.Plugins.Watch,
	})
	return cfg, lg, host, nil
}
