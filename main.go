package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/tanpawarit/agent-sender/cmd"
	_ "github.com/tanpawarit/agent-sender/pkg/logger/autoload"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
