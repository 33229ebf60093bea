package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/nvr-ai/go-pose/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Failures are already reported; the exit status stays zero.
	_ = cmd.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
}
