package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/portalchat/internal/app"
	"github.com/vovakirdan/portalchat/internal/config"
	"github.com/vovakirdan/portalchat/internal/store"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var (
		overrides config.Config
		seed      bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the message relay and roster API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}
			cfg.UpdateFrom(overrides)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := app.New(ctx, &cfg, logger)
			if err != nil {
				return err
			}
			if seed {
				if err := application.Seed(ctx); err != nil {
					return err
				}
				logger.Info().Msg("demo roster loaded")
			}

			logger.Info().Str("addr", cfg.Addr).Msg("starting portalchat relay")
			if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			logger.Info().Msg("relay stopped")
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&overrides.Addr, "addr", "", "HTTP listen address")
	f.DurationVar(&overrides.ReadHeaderTimeout, "read-header-timeout", 0, "HTTP read header timeout")
	f.DurationVar(&overrides.ShutdownTimeout, "shutdown-timeout", 0, "graceful shutdown timeout")
	f.StringVar(&overrides.DatabaseDriver, "db-driver", "", "database driver (sqlite or postgres)")
	f.StringVar(&overrides.DatabaseDSN, "db-dsn", "", "database path or DSN")
	f.StringVar(&overrides.RedisURL, "redis-url", "", "redis URL for cross-instance fan-out")
	f.BoolVar(&seed, "seed", false, "load the demo roster before serving")
	return cmd
}

func newSeedCmd(root *rootOptions) *cobra.Command {
	var overrides config.Config
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the demo doctors and patients into the configured store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}
			cfg.UpdateFrom(overrides)

			st, err := app.OpenStore(cmd.Context(), &cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := store.Seed(cmd.Context(), st); err != nil {
				return err
			}
			logger.Info().Str("driver", cfg.DatabaseDriver).Msg("demo roster loaded")
			return nil
		},
	}
	cmd.Flags().StringVar(&overrides.DatabaseDriver, "db-driver", "", "database driver (sqlite or postgres)")
	cmd.Flags().StringVar(&overrides.DatabaseDSN, "db-dsn", "", "database path or DSN")
	return cmd
}
