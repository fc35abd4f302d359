package main

import (
	"time"

	"github.com/spf13/cobra"

	"log_inspector/internal/analysis"
	"log_inspector/internal/app"
	"log_inspector/internal/report"
)

type inspectFlags struct {
	format      string
	output      string
	concurrency int
	timeout     time.Duration
	only        string
}

func (f *inspectFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.format, "format", "f", "text", "report format: text, markdown or html")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "write the report to a file instead of stdout")
	cmd.Flags().IntVarP(&f.concurrency, "concurrency", "c", 0, "parallel service calls (default MAX_CONCURRENCY)")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "deadline for the whole run, e.g. 10m")
	cmd.Flags().StringVar(&f.only, "only", "", "run a single analysis: classify or summarize")
}

func (f *inspectFlags) options() ([]app.Option, error) {
	if f.only == "" {
		return nil, nil
	}
	kind, err := analysis.ParseKind(f.only)
	if err != nil {
		return nil, err
	}
	return []app.Option{app.WithKinds(kind)}, nil
}

func (c *cli) inspectCmd() *cobra.Command {
	flags := &inspectFlags{}

	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Analyze a log file and print the report",
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

			rep, runErr := a.Inspect(ctx, args[0])
			if rep.Header.RunID == "" {
				// ничего не проанализировано: ошибка файла или разбиения
				return runErr
			}
			if err := a.WriteReport(rep, format, flags.output, cmd.OutOrStdout()); err != nil {
				return err
			}
			return runErr
		},
	}

	flags.register(cmd)
	return cmd
}
