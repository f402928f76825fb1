// Package cli implements the meteobot command-line interface.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"meteobot.app/internal/config"
)

// ConfigLoader produces a validated configuration
type ConfigLoader func() (*config.Config, error)

type options struct {
	envFile    string
	verbose    bool
	loadConfig ConfigLoader
}

// NewRootCommand builds the command tree. Without a subcommand the bot runs.
func NewRootCommand(loader ConfigLoader) *cobra.Command {
	if loader == nil {
		loader = config.LoadConfig
	}
	opts := &options{loadConfig: loader}

	rootCmd := &cobra.Command{
		Use:           "meteobot",
		Short:         "Telegram bot answering town names with the current forecast",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.loadEnvFile()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot(cmd, opts)
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "Environment file loaded before the configuration")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Keep the configured log level for one-shot commands")

	rootCmd.AddCommand(newRunCmd(opts))
	rootCmd.AddCommand(newWeatherCmd(opts))
	rootCmd.AddCommand(newConfigCmd(opts))

	return rootCmd
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := NewRootCommand(nil).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (o *options) loadEnvFile() error {
	if o.envFile == "" {
		return nil
	}
	if _, err := os.Stat(o.envFile); err != nil {
		slog.Debug("No environment file loaded", "path", o.envFile)
		return nil
	}
	if err := godotenv.Load(o.envFile); err != nil {
		return fmt.Errorf("load %s: %w", o.envFile, err)
	}
	return nil
}
