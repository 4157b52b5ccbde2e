package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Kartikpatkar/sfpkg-cli/cmd"
	"github.com/Kartikpatkar/sfpkg-cli/internal/observability"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := cmd.Execute(ctx)
	observability.Sync()
	stop()
	if err != nil {
		os.Exit(1)
	}
}
