package main

import (
	"github.com/spf13/cobra"

	"log_inspector/internal/app"
)

func (c *cli) chunksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chunks <file>",
		Short: "Print the chunk plan without calling the service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}

			plan, err := app.Plan(args[0], cfg.Chunking, c.logger)
			if err != nil {
				return err
			}
			return plan.Render(cmd.OutOrStdout())
		},
	}
}
