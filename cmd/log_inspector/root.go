package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"log_inspector/internal/app"
	"log_inspector/internal/config"
	"log_inspector/internal/logging"
)

// cli - общее состояние подкоманд
type cli struct {
	verbose     bool
	chunkConfig string
	logger      *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "log_inspector",
		Short: "Classify and summarize large log files with an LLM",
		Long: `log_inspector splits a log file into chunks that end on record boundaries,
sends every chunk to an LLM for error classification and a metrics summary,
and prints one report in chunk order.

Configuration comes from the environment, ~/.log-inspector.cnf and ./.env.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.New(c.verbose)
			if err != nil {
				return fmt.Errorf("failed to init logger: %w", err)
			}
			c.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = c.logger.Sync()
		},
	}

	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "debug logging")
	root.PersistentFlags().StringVar(&c.chunkConfig, "chunk-config", "", "YAML chunk policy file")

	root.AddCommand(
		c.inspectCmd(),
		c.chunksCmd(),
		c.askCmd(),
		c.watchCmd(),
		versionCmd(),
	)
	return root
}

// loadConfig читает конфигурацию и применяет файл политики разбиения
func (c *cli) loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if c.chunkConfig != "" {
		policy, err := config.LoadChunkPolicy(c.chunkConfig, cfg.Chunking)
		if err != nil {
			return nil, err
		}
		cfg.Chunking = policy
	}
	return cfg, nil
}

// newApp собирает приложение, когда флаги уже применены к cfg
func (c *cli) newApp(ctx context.Context, cfg *config.Config, opts ...app.Option) (*app.App, error) {
	return app.New(ctx, cfg, c.logger, opts...)
}

// withTimeout ограничивает весь прогон, если d > 0
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
