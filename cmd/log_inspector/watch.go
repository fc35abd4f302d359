package main

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"log_inspector/internal/app"
	"log_inspector/internal/report"
)

func (c *cli) watchCmd() *cobra.Command {
	flags := &inspectFlags{}

	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Re-inspect the file every time it changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := report.ParseFormat(flags.format)
			if err != nil {
				return err
			}
			opts, err := flags.options()
			if err != nil {
				return err
			}

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if flags.concurrency > 0 {
				cfg.MaxConcurrency = flags.concurrency
			}

			ctx, cancel := withTimeout(cmd.Context(), flags.timeout)
			defer cancel()

			a, err := c.newApp(ctx, cfg, opts...)
			if err != nil {
				return err
			}

			return a.Watch(ctx, args[0], func(rep report.Report, err error) {
				if err != nil && !errors.Is(err, app.ErrAllChunksFailed) {
					c.logger.Error("❌ Inspection failed", zap.Error(err))
				}
				if rep.Header.RunID == "" {
					return
				}
				if err := a.WriteReport(rep, format, flags.output, cmd.OutOrStdout()); err != nil {
					c.logger.Error("⚠️ Failed to write report", zap.Error(err))
				}
			})
		},
	}

	flags.register(cmd)
	return cmd
}
