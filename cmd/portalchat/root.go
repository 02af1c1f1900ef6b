package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/portalchat/internal/config"
	"github.com/vovakirdan/portalchat/internal/log"
)

type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "portalchat",
		Short:         "Doctor/patient chat relay and terminal client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.CompletionOptions.DisableDefaultCmd = true

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file path (default ./config.yaml or $PORTALCHAT_CONFIG_DEFAULT_PATH)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level override (debug, info, warn, error, off)")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", string(log.FormatConsole), "log format (console or json)")

	cmd.AddCommand(newServeCmd(opts), newSeedCmd(opts), newChatCmd(opts))
	return cmd
}

// load resolves configuration and builds the logger. Flag overrides are
// applied by each subcommand afterwards.
func (o *rootOptions) load() (config.Config, *zerolog.Logger, error) {
	bootstrap := log.New("warn", log.Format(o.logFormat))
	cfg, path, err := config.Load(bootstrap, o.configPath)
	if err != nil {
		return cfg, nil, err
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}

	logger := log.New(cfg.LogLevel, log.Format(o.logFormat))
	logger.Debug().Str("config", path).Msg("configuration loaded")
	return cfg, logger, nil
}
