// Command log_inspector режет большие логи на чанки по границам записей
// и классифицирует и резюмирует их через LLM-сервис.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"log_inspector/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return app.ExitCode(err)
	}
	return app.ExitOK
}
