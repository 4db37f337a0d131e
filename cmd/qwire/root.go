package main

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/danmuck/quasselwire/internal/config"
	"github.com/danmuck/quasselwire/internal/logging"
	"github.com/danmuck/quasselwire/internal/protocol"
)

type app struct {
	configPath string
	logLevel   string

	cfg    config.Config
	logger zerolog.Logger
	proto  *protocol.Protocol
}

func newRootCmd() *cobra.Command {
	a := &app{cfg: config.Default(), logger: zerolog.Nop()}
	root := &cobra.Command{
		Use:           "qwire",
		Short:         "Encode, decode and inspect Quassel datastream packets",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a qwire TOML config")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override log level (trace|debug|info|warn|error|off)")

	root.AddCommand(
		newDecodeCmd(a),
		newEncodeCmd(a),
		newServeCmd(a),
		newConfigCmd(),
	)
	return root
}

func (a *app) setup() error {
	if a.configPath != "" {
		cfg, err := config.Load(a.configPath)
		if err != nil {
			return err
		}
		a.cfg = cfg
	}
	if a.logLevel != "" {
		a.cfg.Log.Level = a.logLevel
	}
	logCfg := a.cfg.Log.Logging()
	logging.Configure(logging.ProfileRuntime, func(c *logging.Config) { *c = logCfg })
	a.logger = log.Logger
	a.proto = protocol.New(
		protocol.WithLimits(a.cfg.Codec.VariantLimits()),
		protocol.WithLogger(a.logger),
	)
	return nil
}
