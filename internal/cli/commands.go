package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"meteobot.app/internal/app"
	"meteobot.app/internal/config"
)

func newRunCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start polling Telegram and answering messages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot(cmd, opts)
		},
	}
}

func newWeatherCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "weather <town...>",
		Short: "Print the reply the bot would send for a town and exit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if !opts.verbose {
				cfg.Logging.Level = "error"
			}

			application, err := app.NewApplication(cfg)
			if err != nil {
				return err
			}
			defer func() {
				if err := application.Shutdown(); err != nil {
					slog.Warn("Error during shutdown", "error", err)
				}
			}()

			reply := application.WeatherUseCase().GetWeather(commandContext(cmd), strings.Join(args, " "))
			_, err = fmt.Fprintln(cmd.OutOrStdout(), reply)
			return err
		},
	}
}

func newConfigCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration with secrets masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			encoder.SetEscapeHTML(false)
			return encoder.Encode(masked(cfg))
		},
	}
}

func runBot(cmd *cobra.Command, opts *options) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}

	application, err := app.NewApplication(cfg)
	if err != nil {
		return fmt.Errorf("initialize application: %w", err)
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Starting meteobot",
		"default_town", cfg.DefaultTown.Name,
		"cache_type", cfg.Cache.Type.String(),
		"admin_enabled", cfg.Admin.Enabled)
	return application.Run(ctx)
}

func masked(cfg *config.Config) config.Config {
	out := *cfg
	out.Telegram.BotToken = config.MaskSecret(cfg.Telegram.BotToken)
	out.Geocode.APIKey = config.MaskSecret(cfg.Geocode.APIKey)
	if cfg.Cache.Redis.Password != "" {
		out.Cache.Redis.Password = config.MaskSecret(cfg.Cache.Redis.Password)
	}
	return out
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
