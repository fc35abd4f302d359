package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Задаются через -ldflags "-X main.version=... -X main.commit=..."
var (
	version = "dev"
	commit  = "none"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "log_inspector version: %s\n", version)
			fmt.Fprintf(out, "  git commit: %s\n", commit)
			fmt.Fprintf(out, "  go version: %s\n", runtime.Version())
		},
	}
}
