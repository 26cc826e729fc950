package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	"github.com/negbuzz/negbuzz/config"
	"github.com/spf13/cobra"
)

var (
	configPath string
	debug      bool
	cfg        config.Config
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "negbuzz-client",
		Short:         "Smoke and load tests for the negbuzz server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cfg, err = config.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			level := cfg.LogLevel
			if debug {
				level = helpers.DebugLevel.String()
			}
			if err := logger.L().SetLevel(level); err != nil {
				logger.L().Warning("invalid log level", helpers.String("logLevel", level), helpers.Error(err))
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "/etc/config", "directory holding config.json")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	root.AddCommand(newSmokeCommand(), newPredictCommand(), newLoadCommand())
	return root
}

func main() {
	// SIGINT and SIGTERM cancel the context, commands close their
	// connections and return normally
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		logger.L().Error("command failed", helpers.Error(err))
		stop()
		os.Exit(1)
	}
}
