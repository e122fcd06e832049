package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"virtualtourist/internal/app"
	"virtualtourist/internal/config"
	"virtualtourist/internal/env"
)

type rootOptions struct {
	configPath string
	cfg        *config.ServiceConfig
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "tourist",
		Short: "Drop pins on a map and collect Flickr photos taken near them",
		Long: `Virtual Tourist keeps map pins and a photo album per pin.

Every dropped pin is reverse geocoded and an album of Flickr photos taken
near it is fetched in the background, either in-process or by a worker
consuming the pin topic when a Kafka broker is configured.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present
			env.LoadEnv()

			path := opts.configPath
			if path == "" {
				path = config.Path()
			}
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			opts.cfg = cfg

			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to the config file (default $CONFIG_PATH or ./config.yaml)")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newWorkerCmd(opts))
	cmd.AddCommand(newPinsCmd(opts))
	cmd.AddCommand(newDropCmd(opts))
	cmd.AddCommand(newWipeCmd(opts))

	return cmd
}

// withApp builds the services, runs fn and releases them.
func withApp(cmd *cobra.Command, opts *rootOptions, fn func(a *app.App) error) (err error) {
	a, err := app.Build(cmd.Context(), opts.cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			slog.Error("failed to close resources", "error", cerr)
			if err == nil {
				err = cerr
			}
		}
	}()
	return fn(a)
}
