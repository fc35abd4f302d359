package main

import (
	"strings"

	"github.com/spf13/cobra"

	"log_inspector/internal/app"
	"log_inspector/internal/retrieval"
)

func (c *cli) askCmd() *cobra.Command {
	var topK int

	cmd := &cobra.Command{
		Use:   "ask <file> <question>",
		Short: "Answer a question from the most relevant chunks",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}

			a, err := c.newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			answer, err := a.Ask(cmd.Context(), args[0], strings.Join(args[1:], " "), topK)
			if err != nil {
				return err
			}
			return app.WriteAnswer(cmd.OutOrStdout(), answer)
		},
	}

	cmd.Flags().IntVarP(&topK, "top-k", "k", retrieval.DefaultTopK, "number of chunks to retrieve")
	return cmd
}
