// Command toolrepl serves a persistent Python-dialect REPL session over the
// MCP stdio transport.
package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jonwraymond/toolrepl/server"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:           "toolrepl",
		Short:         "Persistent REPL session served over MCP",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, v)
		},
	}

	flags := cmd.Flags()
	flags.String("log-level", "info", "log level (trace, debug, info, warn, error)")
	flags.StringSlice("install-command", nil, "package manager invocation prefix (default \"uv pip\")")
	flags.StringSlice("module-path", nil, "directories searched for .star modules")
	flags.StringSlice("preload", nil, "modules bound into the namespace at startup")
	flags.Duration("timeout", 0, "per-execution timeout (0 means none)")

	v.SetEnvPrefix("TOOLREPL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	cobra.CheckErr(v.BindPFlags(flags))

	return cmd
}

func run(cmd *cobra.Command, v *viper.Viper) error {
	level, err := zerolog.ParseLevel(v.GetString("log-level"))
	if err != nil {
		level = zerolog.InfoLevel
	}

	// stdout carries the MCP transport; diagnostics go to stderr only.
	logger := zerolog.New(os.Stderr).
		Level(level).
		With().Timestamp().Logger()

	srv, err := server.New(server.Config{
		InstallCommand: v.GetStringSlice("install-command"),
		ModulePath:     v.GetStringSlice("module-path"),
		Preload:        v.GetStringSlice("preload"),
		Timeout:        v.GetDuration("timeout"),
		Logger:         logger,
	})
	if err != nil {
		logger.Error().Err(err).Msg("server setup failed")
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error().Err(err).Msg("server stopped")
		return err
	}
	return nil
}
