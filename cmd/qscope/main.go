package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"qscope/internal/config"
	"qscope/internal/logger"
	"qscope/pkg/logging"
)

var (
	configFile string
	logLevel   string
)

const visibilityNote = `Receiving messages hides them from other consumers for the queue's visibility
timeout. Nothing is deleted, but running this against a live queue delays
redelivery of the inspected messages.`

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logging.NewEarlyLog().Error("%v", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "qscope",
		Short:         "Inspect SQS queues and Lambda functions",
		Long:          "qscope lists and filters dead-letter queue messages, counts messages by field, watches queue depth and reports function execution metrics and logs.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file (defaults to CONFIG_FILE, or environment only)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override logging.level")

	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(countCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(functionsCmd())
	rootCmd.AddCommand(configCmd())
	return rootCmd
}

// setup loads configuration and the logger, and returns a context cancelled
// on SIGINT or SIGTERM that carries the command path as a log field.
func setup(cmd *cobra.Command) (context.Context, context.CancelFunc, *config.Config, logger.Logger, error) {
	if err := config.LoadDotEnv(os.Getenv("ENV_FILE")); err != nil {
		return nil, nil, nil, nil, err
	}
	if configFile == "" {
		configFile = os.Getenv("CONFIG_FILE")
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to init logger: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return logging.WithCommand(ctx, cmd.CommandPath()), cancel, cfg, log, nil
}
